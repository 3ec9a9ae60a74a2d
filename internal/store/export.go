package store

import (
	"encoding/json"
	"fmt"

	"mockview/internal/model"
)

// ExportAllInterviews builds export-ready results for every stored
// interview, with its transcript and evaluation payload.
func (s *Store) ExportAllInterviews() ([]model.InterviewResult, error) {
	interviews, err := s.ListInterviews()
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	var results []model.InterviewResult
	for _, iv := range interviews {
		messages, err := s.GetMessages(iv.ID)
		if err != nil {
			return nil, fmt.Errorf("get messages for %s: %w", iv.ID, err)
		}

		payload, err := s.GetEvaluation(iv.ID)
		if err != nil {
			return nil, fmt.Errorf("get evaluation for %s: %w", iv.ID, err)
		}

		user, err := s.GetUserByID(iv.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", iv.UserID, err)
		}

		var username, displayName string
		if user != nil {
			username = user.Username
			displayName = user.DisplayName
		}

		results = append(results, model.InterviewResult{
			SessionID:   iv.ID,
			Username:    username,
			DisplayName: displayName,
			Phase:       iv.Phase,
			StartedAt:   iv.StartedAt,
			FinishedAt:  iv.FinishedAt,
			Transcript:  messages,
			Evaluation:  json.RawMessage(payload),
		})
	}

	return results, nil
}
