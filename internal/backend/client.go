// Package backend talks to the external interview/scoring service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mockview/internal/model"
)

// Sentinel errors for the backend's status-code contract on /mock/turn.
var (
	// ErrSessionNotInitialized maps a 400: the backend has no session
	// for this id, the setup step must run again.
	ErrSessionNotInitialized = errors.New("backend: session not initialized")
	// ErrUnauthorized maps a 401: the auth session expired.
	ErrUnauthorized = errors.New("backend: unauthorized")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.Code, e.Body)
}

// Client is an HTTP client for the scoring backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StartResponse is the reply to /mock/start.
type StartResponse struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

// TurnResponse is the reply to /mock/turn.
type TurnResponse struct {
	SessionID        string   `json:"session_id"`
	ReasoningSummary string   `json:"reasoning_summary"`
	NextQuestion     string   `json:"next_question"`
	Followups        []string `json:"followups"`
}

type exportResponse struct {
	OK       bool            `json:"ok"`
	Path     string          `json:"path"`
	AutoEval json.RawMessage `json:"auto_eval"`
}

// StartMock opens a mock-interview session on the backend and returns
// the opening question.
func (c *Client) StartMock(ctx context.Context, sessionID, cvText, jdText, role string) (*StartResponse, error) {
	body := map[string]string{
		"session_id": sessionID,
		"cv_text":    cvText,
		"jd_text":    jdText,
		"role":       role,
	}
	var out StartResponse
	if err := c.postJSON(ctx, "/mock/start", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitTurn sends the candidate's answer and returns the interviewer's
// rationale and next question.
func (c *Client) SubmitTurn(ctx context.Context, sessionID, answer string) (*TurnResponse, error) {
	body := map[string]string{
		"session_id":  sessionID,
		"user_answer": answer,
	}
	var out TurnResponse
	if err := c.postJSON(ctx, "/mock/turn", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export asks the backend to export the transcript and evaluate it.
// The returned payload keeps the raw auto_eval JSON alongside the
// decoded fields.
func (c *Client) Export(ctx context.Context, sessionID string) (*model.EvaluationPayload, error) {
	path := "/mock/export?session_id=" + url.QueryEscape(sessionID)
	var out exportResponse
	if err := c.postJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	payload := &model.EvaluationPayload{Raw: out.AutoEval}
	if len(out.AutoEval) > 0 {
		if err := json.Unmarshal(out.AutoEval, payload); err != nil {
			return nil, fmt.Errorf("decode auto_eval: %w", err)
		}
		payload.Raw = out.AutoEval
	}
	return payload, nil
}

// StartTracking starts auxiliary emotion tracking. Fire-and-forget on
// the caller's side; errors are still returned for logging.
func (c *Client) StartTracking(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/emotion/start", map[string]string{"session_id": sessionID}, nil)
}

// StopTracking stops auxiliary emotion tracking.
func (c *Client) StopTracking(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/emotion/stop", map[string]string{"session_id": sessionID}, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrSessionNotInitialized, strings.TrimSpace(string(data)))
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(data)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
