package presenter

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"mockview/internal/model"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestBand10(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{10, "emerald"},
		{8, "emerald"},
		{7.9, "blue"},
		{6, "blue"},
		{5.9, "amber"},
		{4, "amber"},
		{3.9, "red"},
		{0, "red"},
	}
	for _, tt := range tests {
		if got := Band10(tt.score); got.Name != tt.want {
			t.Errorf("Band10(%v) = %q, want %q", tt.score, got.Name, tt.want)
		}
	}
}

func TestBand2(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{2, "emerald"},
		{1.6, "emerald"},
		{1.5, "blue"},
		{1.2, "blue"},
		{1.1, "amber"},
		{0.8, "amber"},
		{0.7, "red"},
		{0, "red"},
	}
	for _, tt := range tests {
		if got := Band2(tt.score); got.Name != tt.want {
			t.Errorf("Band2(%v) = %q, want %q", tt.score, got.Name, tt.want)
		}
	}
}

func TestGaugePercent(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		max   float64
		want  int
	}{
		{"half", 5, 10, 50},
		{"full", 10, 10, 100},
		{"over max clamps", 15, 10, 100},
		{"negative clamps", -3, 10, 0},
		{"nan value", math.NaN(), 10, 0},
		{"inf value", math.Inf(1), 10, 0},
		{"zero max", 5, 0, 0},
		{"negative max", 5, -1, 0},
		{"rounds", 1, 3, 33},
		{"rounds up", 2, 3, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GaugePercent(tt.value, tt.max); got != tt.want {
				t.Errorf("GaugePercent(%v, %v) = %d, want %d", tt.value, tt.max, got, tt.want)
			}
		})
	}
}

func TestNormalizeNilPayload(t *testing.T) {
	view := Normalize(nil, nil)

	if view.Total.Present {
		t.Error("expected absent total score")
	}
	if view.Total.Display != Placeholder {
		t.Errorf("Total.Display = %q, want placeholder", view.Total.Display)
	}
	if view.Total.Percent != 0 {
		t.Errorf("Total.Percent = %d, want 0", view.Total.Percent)
	}
	if len(view.Metrics) != 4 {
		t.Fatalf("expected 4 metric cards, got %d", len(view.Metrics))
	}
	for _, m := range view.Metrics {
		if m.Cell.Present {
			t.Errorf("metric %s: expected absent cell", m.Key)
		}
	}
	if view.Summary != nil {
		t.Error("expected nil summary for empty payload")
	}
	if view.Sufficiency.Present {
		t.Error("expected absent sufficiency block")
	}
	if view.Role != nil {
		t.Error("expected nil role")
	}
}

func TestNormalizeOutOfRangeScoresAbsent(t *testing.T) {
	p := &model.EvaluationPayload{
		TotalScore:     f(12),   // above 10
		KnowledgeScore: f(-0.5), // below 0
		AttitudeScore:  f(7.5),
	}
	view := Normalize(p, nil)

	if view.Total.Present {
		t.Error("total score above 10 must render as absent, not clamped")
	}
	if view.Metrics[0].Cell.Present {
		t.Error("negative knowledge score must render as absent")
	}
	cell := view.Metrics[1].Cell
	if !cell.Present || cell.Display != "7.5" || cell.Percent != 75 {
		t.Errorf("attitude cell = %+v, want present 7.5 at 75%%", cell)
	}
	if cell.Band.Name != "blue" {
		t.Errorf("attitude band = %q, want blue", cell.Band.Name)
	}
}

func TestNormalizeCriterionRows(t *testing.T) {
	p := &model.EvaluationPayload{
		KnowledgeDetail: map[string]model.CriterionDetail{
			"K3": {Score: f(1.0), Description: "depth"},
			"K1": {Score: f(1.8), Description: "fundamentals", Evidence: []string{"quote"}},
			"K2": {Score: f(2.5), Description: "broken"},
		},
	}
	view := Normalize(p, nil)

	if len(view.Knowledge) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(view.Knowledge))
	}
	codes := []string{view.Knowledge[0].Code, view.Knowledge[1].Code, view.Knowledge[2].Code}
	if !reflect.DeepEqual(codes, []string{"K1", "K2", "K3"}) {
		t.Errorf("row order = %v, want sorted codes", codes)
	}
	if view.Knowledge[0].Cell.Band.Name != "emerald" {
		t.Errorf("K1 band = %q, want emerald on the 0..2 scale", view.Knowledge[0].Cell.Band.Name)
	}
	if view.Knowledge[1].Cell.Present {
		t.Error("K2 score above 2 must render as absent")
	}
	if view.Knowledge[2].Cell.Percent != 50 {
		t.Errorf("K3 percent = %d, want 50", view.Knowledge[2].Cell.Percent)
	}
}

func TestMergeImprovements(t *testing.T) {
	got := MergeImprovements(
		[]string{"practice aloud", "review basics", "practice aloud"},
		[]string{"review basics", "slow down"},
	)
	want := []string{"practice aloud", "review basics", "slow down"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeImprovements = %v, want %v", got, want)
	}
}

func TestBuildSummaryOmittedWhenEmpty(t *testing.T) {
	p := &model.EvaluationPayload{
		KnowledgeSummary: &model.KnowledgeSummary{},
		AttitudeSummary:  &model.AttitudeSummary{},
	}
	if view := Normalize(p, nil); view.Summary != nil {
		t.Error("summary with no entries must be omitted")
	}

	p.AttitudeSummary.Risks = []string{"overconfident"}
	view := Normalize(p, nil)
	if view.Summary == nil {
		t.Fatal("summary with entries must be present")
	}
	if !reflect.DeepEqual(view.Summary.Risks, []string{"overconfident"}) {
		t.Errorf("Risks = %v", view.Summary.Risks)
	}
}

func TestSufficiencyReasons(t *testing.T) {
	tests := []struct {
		name         string
		d            *model.DataSufficiency
		wantReason   string
		wantBelow    bool
		wantCoverage string
	}{
		{
			name:         "below minimum",
			d:            &model.DataSufficiency{NValidAnswers: i(6), MinRequired: i(10), CoverageFactor: f(0.6)},
			wantReason:   "Only 6 of 10 required answers were given, so scores were downweighted for fairness.",
			wantBelow:    true,
			wantCoverage: "60.0%",
		},
		{
			name:         "above minimum",
			d:            &model.DataSufficiency{NValidAnswers: i(12), MinRequired: i(10), CoverageFactor: f(1.0)},
			wantReason:   "12 answers exceed the required 10; a small bonus was applied.",
			wantCoverage: "100.0%",
		},
		{
			name:         "exactly minimum",
			d:            &model.DataSufficiency{NValidAnswers: i(10), MinRequired: i(10), CoverageFactor: f(1.0)},
			wantReason:   "All 10 required answers were given; no penalty was applied.",
			wantCoverage: "100.0%",
		},
		{
			name:         "note takes priority",
			d:            &model.DataSufficiency{NValidAnswers: i(6), MinRequired: i(10), Note: "manual review"},
			wantReason:   "manual review",
			wantBelow:    true,
			wantCoverage: Placeholder,
		},
		{
			name:         "missing counts",
			d:            &model.DataSufficiency{CoverageFactor: f(0.8)},
			wantReason:   "Not enough information to assess answer coverage.",
			wantCoverage: "80.0%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sufficiency(tt.d, fallbackLocalize)
			if !s.Present {
				t.Fatal("expected sufficiency to be present")
			}
			if s.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", s.Reason, tt.wantReason)
			}
			if s.BelowMinimum != tt.wantBelow {
				t.Errorf("BelowMinimum = %v, want %v", s.BelowMinimum, tt.wantBelow)
			}
			if s.CoveragePct != tt.wantCoverage {
				t.Errorf("CoveragePct = %q, want %q", s.CoveragePct, tt.wantCoverage)
			}
		})
	}
}

func TestSufficiencyAliases(t *testing.T) {
	raw := `{"n_valid": 6, "min_required": 10, "coverage": 0.6, "bonus_points": 0.2}`
	var d model.DataSufficiency
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.NValidAnswers == nil || *d.NValidAnswers != 6 {
		t.Errorf("NValidAnswers = %v, want 6", d.NValidAnswers)
	}
	if d.CoverageFactor == nil || *d.CoverageFactor != 0.6 {
		t.Errorf("CoverageFactor = %v, want 0.6", d.CoverageFactor)
	}
	if d.Bonus == nil || *d.Bonus != 0.2 {
		t.Errorf("Bonus = %v, want 0.2", d.Bonus)
	}

	s := sufficiency(&d, fallbackLocalize)
	if !s.BelowMinimum {
		t.Error("expected BelowMinimum from aliased counts")
	}
	if !strings.Contains(s.Reason, "6 of 10") {
		t.Errorf("Reason = %q, want the 6 of 10 sentence", s.Reason)
	}
}

func TestNormalizeRole(t *testing.T) {
	p := &model.EvaluationPayload{
		RoleInference: &model.RoleInference{PrimaryRole: "Backend Engineer", Confidence: f(0.87)},
	}
	view := Normalize(p, nil)
	if view.Role == nil {
		t.Fatal("expected role")
	}
	if view.Role.Name != "Backend Engineer" {
		t.Errorf("Role.Name = %q", view.Role.Name)
	}
	if view.Role.Confidence != "87%" {
		t.Errorf("Role.Confidence = %q, want 87%%", view.Role.Confidence)
	}

	p.RoleInference.Confidence = nil
	view = Normalize(p, nil)
	if view.Role.Confidence != Placeholder {
		t.Errorf("Role.Confidence = %q, want placeholder", view.Role.Confidence)
	}
}

func TestNormalizeWeightsSorted(t *testing.T) {
	p := &model.EvaluationPayload{
		Detail: &model.ScoreDetail{
			Formula: "0.5*k + 0.3*a + 0.2*e",
			Weights: map[string]float64{"knowledge": 0.5, "attitude": 0.3, "emotion": 0.2},
		},
	}
	view := Normalize(p, nil)
	if view.Formula != "0.5*k + 0.3*a + 0.2*e" {
		t.Errorf("Formula = %q", view.Formula)
	}
	names := make([]string, len(view.Weights))
	for idx, w := range view.Weights {
		names[idx] = w.Name
	}
	if !reflect.DeepEqual(names, []string{"attitude", "emotion", "knowledge"}) {
		t.Errorf("weight order = %v, want sorted names", names)
	}
}
