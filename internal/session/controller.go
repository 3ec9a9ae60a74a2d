// Package session implements the interview session lifecycle:
// a countdown timer, an append-only chat transcript, and a
// one-directional phase machine (running -> saving -> evaluating -> done).
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mockview/internal/backend"
	"mockview/internal/model"
)

var (
	// ErrNoSeed means the setup step has not stored an opening question;
	// the caller should redirect to the setup flow.
	ErrNoSeed = errors.New("session: no stored opening question")
	// ErrNotAccepting means an operation was ignored because the session
	// is not in the running phase (or input preconditions failed).
	ErrNotAccepting = errors.New("session: not accepting input")
	// ErrVoiceDisabled means no speech engine is configured.
	ErrVoiceDisabled = errors.New("session: voice capture disabled")
)

// Redirect is a navigation hint attached to the session state after a
// failed turn: the page should move the user to setup or sign-in.
type Redirect string

const (
	RedirectNone   Redirect = ""
	RedirectSetup  Redirect = "setup"
	RedirectSignin Redirect = "signin"
)

// Backend is the slice of the scoring service the controller drives.
type Backend interface {
	SubmitTurn(ctx context.Context, sessionID, answer string) (*backend.TurnResponse, error)
	Export(ctx context.Context, sessionID string) (*model.EvaluationPayload, error)
	StartTracking(ctx context.Context, sessionID string) error
	StopTracking(ctx context.Context, sessionID string) error
}

// Voice captures speech and returns the transcribed text on stop.
type Voice interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (string, error)
}

// Speaker plays back a question as speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Archiver persists transcript entries and the final evaluation.
// All archive calls are best-effort: a storage failure never breaks the
// interview in progress.
type Archiver interface {
	CreateInterview(sessionID string, userID int64) error
	AppendMessage(sessionID string, m model.Message) error
	SetPhase(sessionID string, phase model.Phase) error
	SaveEvaluation(sessionID string, raw []byte) error
}

// Config holds per-session parameters.
type Config struct {
	UserID   int64
	Duration time.Duration
	// Localize renders a user-visible string by message id. Nil falls
	// back to the id itself.
	Localize func(id string, data map[string]any) string
}

// Deps are the controller's collaborators. Backend is required; the
// rest may be nil.
type Deps struct {
	Backend Backend
	Repo    Repository
	Voice   Voice
	Speaker Speaker
	Archive Archiver
}

// State is a read-only snapshot for rendering and the JSON poll endpoint.
type State struct {
	SessionID     string          `json:"session_id"`
	Phase         model.Phase     `json:"phase"`
	Remaining     int             `json:"remaining_seconds"`
	QuestionCount int             `json:"question_count"`
	Composing     bool            `json:"composing"`
	Capturing     bool            `json:"capturing"`
	ResultsReady  bool            `json:"results_ready"`
	Redirect      Redirect        `json:"redirect,omitempty"`
	Messages      []model.Message `json:"messages"`
}

// Controller owns one interview session. All mutable state is guarded
// by one mutex; the ticker goroutine and HTTP handlers interleave
// through it.
type Controller struct {
	cfg  Config
	deps Deps

	mu            sync.Mutex
	id            string
	phase         model.Phase
	remaining     int
	questionCount int
	autoSaved     bool
	composing     bool
	capturing     bool
	resultsReady  bool
	redirect      Redirect
	messages      []model.Message
	nextID        int
	report        *model.EvaluationPayload

	stopc    chan struct{}
	stopOnce sync.Once
}

// New creates a controller. Call Start before anything else.
func New(cfg Config, deps Deps) *Controller {
	return &Controller{
		cfg:   cfg,
		deps:  deps,
		phase: model.PhaseRunning,
		stopc: make(chan struct{}),
	}
}

// Start hydrates the session identity from the repository, renders the
// opening question as the first bot message, and starts auxiliary
// tracking. Returns ErrNoSeed when the setup step has not run.
func (c *Controller) Start(ctx context.Context) error {
	saved := Saved{}
	if c.deps.Repo != nil {
		var err error
		saved, err = c.deps.Repo.Load(ctx)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(saved.Seed) == "" {
		return ErrNoSeed
	}
	if saved.ID == "" {
		saved.ID = uuid.NewString()
		if c.deps.Repo != nil {
			if err := c.deps.Repo.Save(ctx, saved); err != nil {
				return err
			}
		}
	}

	c.mu.Lock()
	c.id = saved.ID
	c.phase = model.PhaseRunning
	c.remaining = int(c.cfg.Duration / time.Second)
	c.append(model.KindBot, saved.Seed)
	if endsWithQuestion(saved.Seed) {
		c.questionCount = 1
	}
	c.mu.Unlock()

	if c.deps.Archive != nil {
		if err := c.deps.Archive.CreateInterview(saved.ID, c.cfg.UserID); err != nil {
			slog.Warn("archive interview", "session_id", saved.ID, "error", err)
		}
	}
	if err := c.deps.Backend.StartTracking(ctx, saved.ID); err != nil {
		slog.Warn("start tracking", "session_id", saved.ID, "error", err)
	}
	return nil
}

// Run starts the one-second countdown goroutine. It stops on its own
// once the countdown reaches zero, or when Leave is called.
func (c *Controller) Run() {
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-c.stopc:
				return
			case <-t.C:
				c.Tick()
				c.mu.Lock()
				expired := c.remaining == 0
				c.mu.Unlock()
				if expired {
					return
				}
			}
		}
	}()
}

// Tick decrements the countdown by one second, floored at zero. The
// first tick that observes zero runs the save/evaluate sequence; the
// latch guarantees it runs exactly once no matter how many callers
// observe the zero.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.remaining > 0 {
		c.remaining--
	}
	fire := c.remaining == 0 && c.phase == model.PhaseRunning && !c.autoSaved
	if fire {
		c.autoSaved = true
	}
	c.mu.Unlock()

	if fire {
		c.closeOut(context.Background())
	}
}

// closeOut is the timeout sequence: running -> saving -> evaluating -> done.
func (c *Controller) closeOut(ctx context.Context) {
	c.mu.Lock()
	if c.capturing && c.deps.Voice != nil {
		if _, err := c.deps.Voice.Stop(ctx); err != nil {
			slog.Warn("stop capture", "session_id", c.id, "error", err)
		}
		c.capturing = false
	}
	c.append(model.KindMeta, c.loc("ChatTimeUp", nil))
	c.setPhase(model.PhaseSaving)
	id := c.id
	c.mu.Unlock()

	// Best-effort: a tracking failure must not block evaluation.
	if err := c.deps.Backend.StopTracking(ctx, id); err != nil {
		slog.Warn("stop tracking", "session_id", id, "error", err)
	}

	c.mu.Lock()
	c.setPhase(model.PhaseEvaluating)
	c.mu.Unlock()

	report, err := c.deps.Backend.Export(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("export interview", "session_id", id, "error", err)
		c.append(model.KindMeta, c.loc("ChatEvaluateFailed", nil))
		c.setPhase(model.PhaseDone)
		return
	}
	c.report = report
	if c.deps.Archive != nil && len(report.Raw) > 0 {
		if aerr := c.deps.Archive.SaveEvaluation(id, report.Raw); aerr != nil {
			slog.Warn("archive evaluation", "session_id", id, "error", aerr)
		}
	}
	c.append(model.KindMeta, c.loc("ChatReportReady", nil))
	// Results become visible only now that the payload exists.
	c.resultsReady = true
	c.setPhase(model.PhaseDone)
}

// SubmitTurn sends the candidate's answer to the backend and appends the
// exchange to the transcript. It is a no-op (ErrNotAccepting) when the
// session is not running, the timer has expired, the trimmed text is
// empty, or there is no session id.
func (c *Controller) SubmitTurn(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.phase != model.PhaseRunning || c.remaining <= 0 || text == "" || c.id == "" {
		c.mu.Unlock()
		return ErrNotAccepting
	}
	c.append(model.KindUser, text)
	c.composing = true
	id := c.id
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.composing = false
		c.mu.Unlock()
	}()

	turn, err := c.deps.Backend.SubmitTurn(ctx, id, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, backend.ErrSessionNotInitialized):
			c.append(model.KindMeta, c.loc("ChatSessionMissing", nil))
			c.redirect = RedirectSetup
		case errors.Is(err, backend.ErrUnauthorized):
			c.append(model.KindMeta, c.loc("ChatSessionExpired", nil))
			c.redirect = RedirectSignin
		default:
			slog.Warn("submit turn", "session_id", id, "error", err)
			c.append(model.KindMeta, c.loc("ChatConnError", nil))
		}
		return nil
	}

	if c.phase != model.PhaseRunning {
		// The session began closing out while the request was in
		// flight; drop the stale reply.
		slog.Debug("dropping stale turn reply", "session_id", id)
		return nil
	}

	if turn.ReasoningSummary != "" {
		c.append(model.KindMeta, turn.ReasoningSummary)
	}
	c.append(model.KindBot, turn.NextQuestion)
	if endsWithQuestion(turn.NextQuestion) {
		c.questionCount++
	}

	if c.deps.Speaker != nil {
		q := turn.NextQuestion
		go func() {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.deps.Speaker.Speak(sctx, q); err != nil {
				slog.Warn("speak question", "session_id", id, "error", err)
			}
		}()
	}
	return nil
}

// ToggleVoice starts or stops speech capture, mirroring the current
// capture state. Stopping returns the transcribed text for the input
// box. No-op unless the session is running.
func (c *Controller) ToggleVoice(ctx context.Context) (text string, capturing bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != model.PhaseRunning {
		return "", c.capturing, ErrNotAccepting
	}
	if c.deps.Voice == nil {
		return "", false, ErrVoiceDisabled
	}

	if !c.capturing {
		if err := c.deps.Voice.Start(ctx); err != nil {
			return "", false, err
		}
		c.capturing = true
		return "", true, nil
	}

	text, err = c.deps.Voice.Stop(ctx)
	c.capturing = false
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}

// Leave tears the session down on navigation away: stops the ticker and
// any capture, and fires a best-effort tracking stop. It never blocks
// on the network result.
func (c *Controller) Leave() {
	c.stopOnce.Do(func() { close(c.stopc) })

	c.mu.Lock()
	id := c.id
	if c.capturing && c.deps.Voice != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := c.deps.Voice.Stop(ctx); err != nil {
			slog.Warn("stop capture", "session_id", id, "error", err)
		}
		cancel()
		c.capturing = false
	}
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.deps.Backend.StopTracking(ctx, id); err != nil {
			slog.Warn("stop tracking", "session_id", id, "error", err)
		}
	}()
}

// Snapshot returns a copy of the visible session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]model.Message, len(c.messages))
	copy(msgs, c.messages)

	return State{
		SessionID:     c.id,
		Phase:         c.phase,
		Remaining:     c.remaining,
		QuestionCount: c.questionCount,
		Composing:     c.composing,
		Capturing:     c.capturing,
		ResultsReady:  c.resultsReady,
		Redirect:      c.redirect,
		Messages:      msgs,
	}
}

// Report returns the stored evaluation payload once results are ready.
func (c *Controller) Report() (*model.EvaluationPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report, c.resultsReady
}

// append adds a transcript entry. Caller must hold c.mu.
func (c *Controller) append(kind model.MessageKind, text string) {
	c.nextID++
	m := model.Message{
		ID:        c.nextID,
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, m)
	if c.deps.Archive != nil {
		if err := c.deps.Archive.AppendMessage(c.id, m); err != nil {
			slog.Warn("archive message", "session_id", c.id, "error", err)
		}
	}
}

// setPhase records a phase transition. Caller must hold c.mu.
func (c *Controller) setPhase(p model.Phase) {
	c.phase = p
	if c.deps.Archive != nil {
		if err := c.deps.Archive.SetPhase(c.id, p); err != nil {
			slog.Warn("archive phase", "session_id", c.id, "phase", p, "error", err)
		}
	}
}

func (c *Controller) loc(id string, data map[string]any) string {
	if c.cfg.Localize == nil {
		return id
	}
	return c.cfg.Localize(id, data)
}

func endsWithQuestion(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), "?")
}
