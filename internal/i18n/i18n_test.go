package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Mockview" {
		t.Errorf("T(AppTitle) = %q, want 'Mockview'", got)
	}

	got = T(ctx, "SignIn")
	if got != "Sign in" {
		t.Errorf("T(SignIn) = %q, want 'Sign in'", got)
	}
}

func TestTranslateVietnamese(t *testing.T) {
	ctx := initLang(t, "vi")

	got := T(ctx, "SignIn")
	if got != "Đăng nhập" {
		t.Errorf("T(SignIn) = %q, want 'Đăng nhập'", got)
	}

	got = T(ctx, "ResultsTitle")
	if got != "Bảng điểm phỏng vấn" {
		t.Errorf("T(ResultsTitle) = %q, want 'Bảng điểm phỏng vấn'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "SuffBelow", map[string]any{"Valid": 6, "Min": 10})
	want := "Only 6 of 10 required answers were given, so scores were downweighted for fairness."
	if got != want {
		t.Errorf("Td(SuffBelow) = %q, want %q", got, want)
	}
}

func TestFunc(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := Func("en")

	got := loc("SuffEqual", map[string]any{"Valid": 10})
	want := "All 10 required answers were given; no penalty was applied."
	if got != want {
		t.Errorf("Func(en)(SuffEqual) = %q, want %q", got, want)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
