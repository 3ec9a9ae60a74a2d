package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleCandidate is a regular interviewee account.
	UserRoleCandidate UserRole = "candidate"
	// UserRoleAdmin is an admin account.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Phase is the interview session lifecycle stage. Transitions are
// one-directional: running -> saving -> evaluating -> done.
type Phase string

const (
	PhaseRunning    Phase = "running"
	PhaseSaving     Phase = "saving"
	PhaseEvaluating Phase = "evaluating"
	PhaseDone       Phase = "done"
)

// MessageKind classifies a chat transcript entry.
type MessageKind string

const (
	KindUser MessageKind = "user"
	KindBot  MessageKind = "bot"
	KindMeta MessageKind = "meta"
)

// Message is one entry in the interview transcript. The transcript is
// append-only; IDs increase monotonically within a session.
type Message struct {
	ID        int         `json:"id"`
	Kind      MessageKind `json:"type"`
	Text      string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// Interview is the persisted record of one mock-interview session.
type Interview struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Phase      Phase      `json:"phase"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// InterviewConfig holds runtime parameters set via CLI flags.
type InterviewConfig struct {
	Duration      time.Duration // wall-clock budget for one interview
	BackendURL    string        // scoring backend base URL
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	VoiceEnabled  bool          // speech capture and question playback
	Lang          string        // UI language (en, vi)
}
