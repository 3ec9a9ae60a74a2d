package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	appI18n "mockview/internal/i18n"
	"mockview/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the embedded HTML templates.
type Views struct {
	t *template.Template
}

// NewViews parses all embedded templates.
func NewViews() (*Views, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"minutes": func(seconds int) string {
			return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Views{t: t}, nil
}

// page is the data passed to every template: the shared chrome plus a
// page-specific Data payload.
type page struct {
	Title string
	Lang  string
	User  *model.User
	CSRF  string
	T     map[string]string
	Data  any
}

// labelKeys is every UI string the templates may ask for. Keeping one
// list means a page never renders a missing label.
var labelKeys = []string{
	"AppTitle", "Tagline", "StartPracticing", "SignIn", "SignOut",
	"LoginError", "Username", "Password",
	"SetupTitle", "SetupCV", "SetupJD", "SetupRole", "SetupStart", "SetupFailed",
	"InterviewTitle", "SendAnswer", "VoiceToggle", "BackHome", "Composing",
	"ResultsTitle", "TotalScore",
	"KnowledgeBreakdown", "AttitudeBreakdown",
	"Strengths", "Gaps", "Risks", "Improvements",
	"RoleInference", "Confidence", "FairnessTitle", "Coverage",
	"ShowDetails", "HideDetails", "RawPayload", "NoResults",
	"AdminUsers", "CreateUser", "Active", "Inactive",
}

func labels(ctx context.Context) map[string]string {
	m := make(map[string]string, len(labelKeys))
	for _, key := range labelKeys {
		m[key] = appI18n.T(ctx, key)
	}
	return m
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	p := page{
		Title: title,
		Lang:  h.config.Lang,
		User:  model.UserFromContext(r.Context()),
		CSRF:  model.CSRFTokenFromContext(r.Context()),
		T:     labels(r.Context()),
		Data:  data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.t.ExecuteTemplate(w, name, p); err != nil {
		slog.Error("render error", "template", name, "error", err)
	}
}
