package model

import "encoding/json"

// EvaluationPayload is the auto_eval structure returned by the scoring
// backend at export time. Every field is optional: the backend schema is
// still evolving and the presenter must default anything missing instead
// of failing.
type EvaluationPayload struct {
	TotalScore       *float64 `json:"total_score"`
	KnowledgeScore   *float64 `json:"knowledge_score"`
	AttitudeScore    *float64 `json:"attitude_score"`
	EmotionFaceScore *float64 `json:"emotion_face_score"`
	AgentFinalScore  *float64 `json:"agent_final_score"`

	Detail *ScoreDetail `json:"detail"`

	KnowledgeDetail map[string]CriterionDetail `json:"knowledge_detail"`
	AttitudeDetail  map[string]CriterionDetail `json:"attitude_detail"`

	KnowledgeSummary *KnowledgeSummary `json:"knowledge_summary"`
	AttitudeSummary  *AttitudeSummary  `json:"attitude_summary"`

	DataSufficiency *DataSufficiency `json:"data_sufficiency"`
	RoleInference   *RoleInference   `json:"role_inference"`

	// Raw keeps the original JSON for the expandable debug view.
	Raw json.RawMessage `json:"-"`
}

// ScoreDetail carries the weight coefficients and the display formula
// used to combine the component scores.
type ScoreDetail struct {
	Weights map[string]float64 `json:"weights"`
	Formula string             `json:"formula"`
}

// CriterionDetail is one scored dimension (K1..K5 or A1..A5), each on a
// 0..2 scale, with the judge's reasoning and supporting quotes.
type CriterionDetail struct {
	Score       *float64 `json:"score"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
}

// KnowledgeSummary holds the judge's knowledge-side summary lists.
type KnowledgeSummary struct {
	Strengths    []string `json:"strengths"`
	Gaps         []string `json:"gaps"`
	Improvements []string `json:"improvements"`
}

// AttitudeSummary holds the judge's attitude-side summary lists.
type AttitudeSummary struct {
	Strengths    []string `json:"strengths"`
	Risks        []string `json:"risks"`
	Improvements []string `json:"improvements"`
}

// RoleInference is the backend's guess at the candidate's target role.
type RoleInference struct {
	PrimaryRole string   `json:"primary_role"`
	Confidence  *float64 `json:"confidence"`
	Evidence    []string `json:"evidence"`
}

// DataSufficiency describes the fairness adjustment applied when fewer
// than the minimum required answers were given.
type DataSufficiency struct {
	NValidAnswers  *int
	MinRequired    *int
	CoverageFactor *float64
	Bonus          *float64
	Note           string
}

// UnmarshalJSON accepts both the canonical field names and the older
// aliases the backend has used (n_valid, coverage, bonus_points).
func (d *DataSufficiency) UnmarshalJSON(data []byte) error {
	var raw struct {
		NValidAnswers  *int     `json:"n_valid_answers"`
		NValid         *int     `json:"n_valid"`
		MinRequired    *int     `json:"min_required"`
		CoverageFactor *float64 `json:"coverage_factor"`
		Coverage       *float64 `json:"coverage"`
		Bonus          *float64 `json:"bonus"`
		BonusPoints    *float64 `json:"bonus_points"`
		Note           string   `json:"note"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.NValidAnswers = raw.NValidAnswers
	if d.NValidAnswers == nil {
		d.NValidAnswers = raw.NValid
	}
	d.MinRequired = raw.MinRequired
	d.CoverageFactor = raw.CoverageFactor
	if d.CoverageFactor == nil {
		d.CoverageFactor = raw.Coverage
	}
	d.Bonus = raw.Bonus
	if d.Bonus == nil {
		d.Bonus = raw.BonusPoints
	}
	d.Note = raw.Note
	return nil
}

// MarshalJSON writes the canonical field names only.
func (d DataSufficiency) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NValidAnswers  *int     `json:"n_valid_answers,omitempty"`
		MinRequired    *int     `json:"min_required,omitempty"`
		CoverageFactor *float64 `json:"coverage_factor,omitempty"`
		Bonus          *float64 `json:"bonus,omitempty"`
		Note           string   `json:"note,omitempty"`
	}{d.NValidAnswers, d.MinRequired, d.CoverageFactor, d.Bonus, d.Note})
}
