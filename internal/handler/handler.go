// Package handler wires the HTTP surface: auth, the interview setup
// flow, the live interview page with its JSON state poll, and the
// results scorecard.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mockview/internal/backend"
	appI18n "mockview/internal/i18n"
	"mockview/internal/model"
	"mockview/internal/presenter"
	"mockview/internal/session"
	"mockview/internal/store"
	"mockview/internal/voice"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	backend  *backend.Client
	voice    *voice.Engine
	sessions *session.Manager
	views    *Views
	config   model.InterviewConfig
}

// New creates a new Handler. voice may be nil when speech is disabled.
func New(s *store.Store, b *backend.Client, v *voice.Engine, cfg model.InterviewConfig) (*Handler, error) {
	views, err := NewViews()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:    s,
		backend:  b,
		voice:    v,
		sessions: session.NewManager(),
		views:    views,
		config:   cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth, h.csrfMiddleware)
		r.Get("/", h.handleIndex)
		r.Get("/setup", h.handleSetupPage)
		r.Post("/setup", h.handleSetup)
		r.Get("/interview", h.handleInterview)
		r.Get("/interview/state", h.handleState)
		r.Post("/interview/answer", h.handleAnswer)
		r.Post("/interview/voice", h.handleVoiceToggle)
		r.Post("/interview/voice/chunk", h.handleVoiceChunk)
		r.Get("/interview/speech", h.handleSpeech)
		r.Post("/interview/leave", h.handleLeave)
		r.Get("/results", h.handleResults)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleAdminUsers)
			r.Post("/admin/users", h.handleAdminCreateUser)
			r.Post("/admin/users/{id}/toggle", h.handleAdminToggleUser)
		})
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "landing.html", appI18n.T(r.Context(), "AppTitle"), nil)
}

type setupData struct {
	Error string
}

func (h *Handler) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "setup.html", appI18n.T(r.Context(), "SetupTitle"), setupData{})
}

// handleSetup opens a session on the scoring backend and stores the
// returned opening question. The interview page picks it up from there.
func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	cvText := strings.TrimSpace(r.FormValue("cv_text"))
	jdText := strings.TrimSpace(r.FormValue("jd_text"))
	role := strings.TrimSpace(r.FormValue("role"))
	if cvText == "" || jdText == "" {
		h.render(w, r, "setup.html", appI18n.T(r.Context(), "SetupTitle"),
			setupData{Error: appI18n.T(r.Context(), "SetupFailed")})
		return
	}

	sessionID := uuid.NewString()
	resp, err := h.backend.StartMock(r.Context(), sessionID, cvText, jdText, role)
	if err != nil {
		slog.Error("start mock session", "user_id", user.ID, "error", err)
		h.render(w, r, "setup.html", appI18n.T(r.Context(), "SetupTitle"),
			setupData{Error: appI18n.T(r.Context(), "SetupFailed")})
		return
	}
	if resp.SessionID != "" {
		sessionID = resp.SessionID
	}

	repo := h.store.RepositoryFor(user.ID)
	if err := repo.Save(r.Context(), session.Saved{ID: sessionID, Seed: resp.FirstQuestion}); err != nil {
		slog.Error("save session state", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// A fresh setup replaces any interview still in memory.
	if old := h.sessions.Remove(user.ID); old != nil {
		old.Leave()
	}

	http.Redirect(w, r, "/interview", http.StatusSeeOther)
}

// handleInterview hydrates (or resumes) the user's session controller
// and renders the interview page. Without a stored opening question it
// sends the user back to setup.
func (h *Handler) handleInterview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	c := h.sessions.Get(user.ID)
	if c == nil {
		deps := session.Deps{
			Backend: h.backend,
			Repo:    h.store.RepositoryFor(user.ID),
			Archive: h.store,
		}
		if h.voice != nil && h.config.VoiceEnabled {
			deps.Voice = h.voice
			deps.Speaker = h.voice
		}
		c = session.New(session.Config{
			UserID:   user.ID,
			Duration: h.config.Duration,
			Localize: appI18n.Func(h.config.Lang),
		}, deps)

		if err := c.Start(r.Context()); err != nil {
			if errors.Is(err, session.ErrNoSeed) {
				http.Redirect(w, r, "/setup", http.StatusSeeOther)
				return
			}
			slog.Error("start interview", "user_id", user.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		c.Run()
		h.sessions.Put(user.ID, c)
	}

	h.render(w, r, "interview.html", appI18n.T(r.Context(), "InterviewTitle"), c.Snapshot())
}

// handleState is the JSON poll endpoint for the interview page.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	c := h.sessions.Get(user.ID)
	if c == nil {
		http.Error(w, "no active interview", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.Snapshot()); err != nil {
		slog.Error("encode state", "user_id", user.ID, "error", err)
	}
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	c := h.sessions.Get(user.ID)
	if c == nil {
		http.Error(w, "no active interview", http.StatusNotFound)
		return
	}

	err := c.SubmitTurn(r.Context(), r.FormValue("answer"))
	if err != nil {
		if errors.Is(err, session.ErrNotAccepting) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		slog.Error("submit answer", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.Snapshot()); err != nil {
		slog.Error("encode state", "user_id", user.ID, "error", err)
	}
}

type voiceReply struct {
	Text      string `json:"text"`
	Capturing bool   `json:"capturing"`
}

func (h *Handler) handleVoiceToggle(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	c := h.sessions.Get(user.ID)
	if c == nil {
		http.Error(w, "no active interview", http.StatusNotFound)
		return
	}

	text, capturing, err := c.ToggleVoice(r.Context())
	switch {
	case errors.Is(err, session.ErrVoiceDisabled):
		http.Error(w, "voice disabled", http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrNotAccepting):
		http.Error(w, "not accepting input", http.StatusConflict)
		return
	case err != nil:
		slog.Error("toggle voice", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(voiceReply{Text: text, Capturing: capturing}); err != nil {
		slog.Error("encode voice reply", "user_id", user.ID, "error", err)
	}
}

// handleVoiceChunk receives recorded audio from the browser while a
// capture is in progress.
func (h *Handler) handleVoiceChunk(w http.ResponseWriter, r *http.Request) {
	if h.voice == nil {
		http.Error(w, "voice disabled", http.StatusBadRequest)
		return
	}
	if _, err := io.Copy(h.voice, r.Body); err != nil {
		slog.Warn("receive audio chunk", "error", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSpeech serves the most recently synthesized question audio.
func (h *Handler) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if h.voice == nil {
		http.Error(w, "voice disabled", http.StatusBadRequest)
		return
	}
	audio := h.voice.LastAudio()
	if len(audio) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := w.Write(audio); err != nil {
		slog.Warn("write speech audio", "error", err)
	}
}

// handleLeave tears down the active interview and clears the stored
// session so the next visit starts from setup.
func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if c := h.sessions.Remove(user.ID); c != nil {
		c.Leave()
	}
	if err := h.store.RepositoryFor(user.ID).Clear(r.Context()); err != nil {
		slog.Warn("clear session state", "user_id", user.ID, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type resultsData struct {
	Report  presenter.ReportView
	Details bool
}

// handleResults renders the scorecard. It prefers the live controller's
// report and falls back to the latest stored evaluation; with neither
// it sends the user back to the interview page.
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	loc := appI18n.Func(h.config.Lang)

	if c := h.sessions.Get(user.ID); c != nil {
		if report, ready := c.Report(); ready {
			h.render(w, r, "results.html", appI18n.T(r.Context(), "ResultsTitle"), resultsData{
				Report:  presenter.Normalize(report, loc),
				Details: r.URL.Query().Get("details") == "1",
			})
			return
		}
	}

	payload, err := h.latestStoredEvaluation(user.ID)
	if err != nil {
		slog.Error("load stored evaluation", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if payload == nil {
		http.Redirect(w, r, "/interview", http.StatusSeeOther)
		return
	}

	h.render(w, r, "results.html", appI18n.T(r.Context(), "ResultsTitle"), resultsData{
		Report:  presenter.Normalize(payload, loc),
		Details: r.URL.Query().Get("details") == "1",
	})
}

func (h *Handler) latestStoredEvaluation(userID int64) (*model.EvaluationPayload, error) {
	interviews, err := h.store.ListInterviews()
	if err != nil {
		return nil, err
	}
	for _, iv := range interviews {
		if iv.UserID != userID {
			continue
		}
		raw, err := h.store.GetEvaluation(iv.ID)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		payload := &model.EvaluationPayload{}
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, err
		}
		payload.Raw = raw
		return payload, nil
	}
	return nil, nil
}
