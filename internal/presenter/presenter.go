// Package presenter turns an EvaluationPayload into a fully-defaulted
// render model for the results scorecard. It is a pure transformation:
// it never mutates controller state and never fetches anything.
package presenter

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"mockview/internal/model"
)

// Placeholder is rendered wherever a score is missing or out of range.
const Placeholder = "—"

// Band is a color tier for a score.
type Band struct {
	Name string // emerald, blue, amber, red
	Text string // CSS class for text
	Bar  string // CSS class for the gauge fill
}

var (
	bandEmerald = Band{Name: "emerald", Text: "text-emerald-600", Bar: "bg-emerald-500"}
	bandBlue    = Band{Name: "blue", Text: "text-blue-600", Bar: "bg-blue-500"}
	bandAmber   = Band{Name: "amber", Text: "text-amber-600", Bar: "bg-amber-500"}
	bandRed     = Band{Name: "red", Text: "text-red-600", Bar: "bg-red-500"}
)

// Band10 maps a 0..10 score to its color tier.
func Band10(score float64) Band {
	switch {
	case score >= 8:
		return bandEmerald
	case score >= 6:
		return bandBlue
	case score >= 4:
		return bandAmber
	default:
		return bandRed
	}
}

// Band2 maps a 0..2 criterion score to its color tier.
func Band2(score float64) Band {
	switch {
	case score >= 1.6:
		return bandEmerald
	case score >= 1.2:
		return bandBlue
	case score >= 0.8:
		return bandAmber
	default:
		return bandRed
	}
}

// GaugePercent computes the filled fraction of a progress gauge as a
// whole percentage. Non-numeric input and a non-positive max yield 0.
func GaugePercent(value, max float64) int {
	if math.IsNaN(value) || math.IsInf(value, 0) || math.IsNaN(max) || max <= 0 {
		return 0
	}
	f := value / max
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return int(math.Round(f * 100))
}

// ScoreCell is one displayable score with its gauge and color band.
// A score that is absent or outside its nominal range renders as the
// placeholder with a zero-filled gauge; it is never clamped silently.
type ScoreCell struct {
	Present bool
	Value   float64
	Display string
	Percent int
	Band    Band
}

// MetricCard is one of the four aggregate metric cards.
type MetricCard struct {
	Key   string
	Label string
	Cell  ScoreCell
}

// CriterionRow is one K1..K5 / A1..A5 breakdown row.
type CriterionRow struct {
	Code        string
	Cell        ScoreCell
	Description string
	Evidence    []string
}

// Summary is the combined strengths/gaps/risks/improvements block.
type Summary struct {
	Strengths    []string
	Gaps         []string
	Risks        []string
	Improvements []string
}

// Empty reports whether all four lists are empty, in which case the
// summary block is omitted from the view.
func (s Summary) Empty() bool {
	return len(s.Strengths) == 0 && len(s.Gaps) == 0 && len(s.Risks) == 0 && len(s.Improvements) == 0
}

// Sufficiency is the fairness/penalty explanation.
type Sufficiency struct {
	Present       bool
	CoveragePct   string // coverage_factor*100 to one decimal, or the placeholder
	Reason        string
	BelowMinimum  bool
	NValidAnswers int
	MinRequired   int
}

// Role is the backend's role inference.
type Role struct {
	Name       string
	Confidence string
}

// Weight is one named weight coefficient for display.
type Weight struct {
	Name  string
	Value float64
}

// ReportView is the fully-defaulted scorecard model.
type ReportView struct {
	Total       ScoreCell
	Metrics     []MetricCard
	Knowledge   []CriterionRow
	Attitude    []CriterionRow
	Summary     *Summary
	Sufficiency Sufficiency
	Role        *Role
	Formula     string
	Weights     []Weight
	Raw         string
}

// Localize renders a user-visible string by message id; nil falls back
// to built-in English text.
type Localize func(id string, data map[string]any) string

// Normalize derives the render model from an evaluation payload,
// defaulting every missing field. It is safe to call with nil.
func Normalize(p *model.EvaluationPayload, loc Localize) ReportView {
	if p == nil {
		p = &model.EvaluationPayload{}
	}
	if loc == nil {
		loc = fallbackLocalize
	}

	view := ReportView{
		Total: scoreCell(p.TotalScore, 10),
		Metrics: []MetricCard{
			{Key: "knowledge", Label: loc("MetricKnowledge", nil), Cell: scoreCell(p.KnowledgeScore, 10)},
			{Key: "attitude", Label: loc("MetricAttitude", nil), Cell: scoreCell(p.AttitudeScore, 10)},
			{Key: "emotion", Label: loc("MetricEmotion", nil), Cell: scoreCell(p.EmotionFaceScore, 10)},
			{Key: "agent_final", Label: loc("MetricAgentFinal", nil), Cell: scoreCell(p.AgentFinalScore, 10)},
		},
		Knowledge:   criterionRows(p.KnowledgeDetail),
		Attitude:    criterionRows(p.AttitudeDetail),
		Sufficiency: sufficiency(p.DataSufficiency, loc),
		Raw:         string(p.Raw),
	}

	if sum := buildSummary(p.KnowledgeSummary, p.AttitudeSummary); !sum.Empty() {
		view.Summary = &sum
	}

	if p.Detail != nil {
		view.Formula = p.Detail.Formula
		names := make([]string, 0, len(p.Detail.Weights))
		for name := range p.Detail.Weights {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			view.Weights = append(view.Weights, Weight{Name: name, Value: p.Detail.Weights[name]})
		}
	}

	if ri := p.RoleInference; ri != nil && ri.PrimaryRole != "" {
		role := &Role{Name: ri.PrimaryRole, Confidence: Placeholder}
		if ri.Confidence != nil && !math.IsNaN(*ri.Confidence) {
			role.Confidence = fmt.Sprintf("%.0f%%", *ri.Confidence*100)
		}
		view.Role = role
	}

	return view
}

// scoreCell builds a cell for a score on the [0, max] scale. Out-of-range
// values are treated as absent so backend errors stay visible.
func scoreCell(v *float64, max float64) ScoreCell {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > max {
		return ScoreCell{Present: false, Display: Placeholder, Percent: 0, Band: bandRed}
	}
	band := Band10(*v)
	if max == 2 {
		band = Band2(*v)
	}
	return ScoreCell{
		Present: true,
		Value:   *v,
		Display: strconv.FormatFloat(*v, 'f', -1, 64),
		Percent: GaugePercent(*v, max),
		Band:    band,
	}
}

func criterionRows(detail map[string]model.CriterionDetail) []CriterionRow {
	codes := make([]string, 0, len(detail))
	for code := range detail {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([]CriterionRow, 0, len(codes))
	for _, code := range codes {
		d := detail[code]
		rows = append(rows, CriterionRow{
			Code:        code,
			Cell:        scoreCell(d.Score, 2),
			Description: d.Description,
			Evidence:    d.Evidence,
		})
	}
	return rows
}

// buildSummary combines the two summary blocks: strengths concatenate
// (knowledge first, duplicates allowed), gaps come from knowledge only,
// risks from attitude only, improvements are a first-seen-order union.
func buildSummary(k *model.KnowledgeSummary, a *model.AttitudeSummary) Summary {
	var sum Summary
	if k != nil {
		sum.Strengths = append(sum.Strengths, k.Strengths...)
		sum.Gaps = append(sum.Gaps, k.Gaps...)
	}
	if a != nil {
		sum.Strengths = append(sum.Strengths, a.Strengths...)
		sum.Risks = append(sum.Risks, a.Risks...)
	}
	var kImp, aImp []string
	if k != nil {
		kImp = k.Improvements
	}
	if a != nil {
		aImp = a.Improvements
	}
	sum.Improvements = MergeImprovements(kImp, aImp)
	return sum
}

// MergeImprovements unions the two improvement lists, dropping
// duplicates while preserving first-seen order.
func MergeImprovements(knowledge, attitude []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{knowledge, attitude} {
		for _, item := range list {
			if seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func sufficiency(d *model.DataSufficiency, loc Localize) Sufficiency {
	if d == nil {
		return Sufficiency{}
	}
	s := Sufficiency{Present: true, CoveragePct: Placeholder}

	if d.CoverageFactor != nil && !math.IsNaN(*d.CoverageFactor) {
		s.CoveragePct = strconv.FormatFloat(*d.CoverageFactor*100, 'f', 1, 64) + "%"
	}

	var valid, min int
	haveCounts := d.NValidAnswers != nil && d.MinRequired != nil
	if haveCounts {
		valid, min = *d.NValidAnswers, *d.MinRequired
		s.NValidAnswers, s.MinRequired = valid, min
		s.BelowMinimum = valid < min
	}

	// Reason priority: explicit backend note, else a generated sentence.
	switch {
	case strings.TrimSpace(d.Note) != "":
		s.Reason = d.Note
	case !haveCounts:
		s.Reason = loc("SuffUnknown", nil)
	case valid < min:
		s.Reason = loc("SuffBelow", map[string]any{"Valid": valid, "Min": min})
	case valid > min:
		s.Reason = loc("SuffAbove", map[string]any{"Valid": valid, "Min": min})
	default:
		s.Reason = loc("SuffEqual", map[string]any{"Valid": valid, "Min": min})
	}
	return s
}

// fallbackLocalize supplies built-in English text when no i18n bundle
// is wired, e.g. in tests.
func fallbackLocalize(id string, data map[string]any) string {
	switch id {
	case "MetricKnowledge":
		return "Knowledge"
	case "MetricAttitude":
		return "Attitude"
	case "MetricEmotion":
		return "Emotion"
	case "MetricAgentFinal":
		return "Agent final"
	case "SuffUnknown":
		return "Not enough information to assess answer coverage."
	case "SuffBelow":
		return fmt.Sprintf("Only %v of %v required answers were given, so scores were downweighted for fairness.", data["Valid"], data["Min"])
	case "SuffAbove":
		return fmt.Sprintf("%v answers exceed the required %v; a small bonus was applied.", data["Valid"], data["Min"])
	case "SuffEqual":
		return fmt.Sprintf("All %v required answers were given; no penalty was applied.", data["Valid"])
	default:
		return id
	}
}
