package model

import (
	"encoding/json"
	"time"
)

// InterviewExport is the top-level JSON structure for the export command.
type InterviewExport struct {
	ExportedAt time.Time         `json:"exported_at"`
	Interviews []InterviewResult `json:"interviews"`
}

// InterviewResult holds one interview session with its transcript and
// stored evaluation, ready for export.
type InterviewResult struct {
	SessionID   string          `json:"session_id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Phase       Phase           `json:"phase"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	Transcript  []Message       `json:"transcript"`
	Evaluation  json.RawMessage `json:"evaluation,omitempty"`
}
