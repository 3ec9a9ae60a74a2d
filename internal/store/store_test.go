package store

import (
	"context"
	"testing"
	"time"

	"mockview/internal/model"
	"mockview/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, username string, role model.UserRole) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

func TestInterviewLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)

	if err := s.CreateInterview("iv-1", userID); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	// Re-hydrating the same id must not error.
	if err := s.CreateInterview("iv-1", userID); err != nil {
		t.Fatalf("CreateInterview again: %v", err)
	}

	iv, err := s.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if iv.Phase != model.PhaseRunning {
		t.Errorf("Phase = %q, want running", iv.Phase)
	}
	if iv.FinishedAt != nil {
		t.Error("FinishedAt must be nil while running")
	}

	if err := s.SetPhase("iv-1", model.PhaseSaving); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	if err := s.SetPhase("iv-1", model.PhaseDone); err != nil {
		t.Fatalf("SetPhase done: %v", err)
	}

	iv, err = s.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if iv.Phase != model.PhaseDone {
		t.Errorf("Phase = %q, want done", iv.Phase)
	}
	if iv.FinishedAt == nil {
		t.Error("done phase must stamp FinishedAt")
	}
}

func TestMessagesOrderedBySeq(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)
	if err := s.CreateInterview("iv-1", userID); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	for i, kind := range []model.MessageKind{model.KindBot, model.KindUser, model.KindMeta} {
		err := s.AppendMessage("iv-1", model.Message{
			ID:        i + 1,
			Kind:      kind,
			Text:      "msg",
			Timestamp: now,
		})
		if err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	messages, err := s.GetMessages("iv-1")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(messages))
	}
	wantKinds := []model.MessageKind{model.KindBot, model.KindUser, model.KindMeta}
	for i, m := range messages {
		if m.ID != i+1 {
			t.Errorf("message %d: ID = %d, want %d", i, m.ID, i+1)
		}
		if m.Kind != wantKinds[i] {
			t.Errorf("message %d: Kind = %q, want %q", i, m.Kind, wantKinds[i])
		}
	}
}

func TestEvaluationUpsert(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)
	if err := s.CreateInterview("iv-1", userID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEvaluation("iv-1")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil evaluation before save, got %s", got)
	}

	if err := s.SaveEvaluation("iv-1", []byte(`{"total_score": 5}`)); err != nil {
		t.Fatalf("SaveEvaluation: %v", err)
	}
	if err := s.SaveEvaluation("iv-1", []byte(`{"total_score": 7}`)); err != nil {
		t.Fatalf("SaveEvaluation upsert: %v", err)
	}

	got, err = s.GetEvaluation("iv-1")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}
	if string(got) != `{"total_score": 7}` {
		t.Errorf("evaluation = %s, want the upserted payload", got)
	}
}

func TestClientStateRepository(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)
	otherID := insertTestUser(t, s, "bob", model.UserRoleCandidate)
	ctx := context.Background()

	repo := s.RepositoryFor(userID)

	saved, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if saved.ID != "" || saved.Seed != "" {
		t.Fatalf("expected empty saved state, got %+v", saved)
	}

	want := session.Saved{ID: "sess-1", Seed: "Tell me about yourself?"}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	saved, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved != want {
		t.Errorf("Load = %+v, want %+v", saved, want)
	}

	// State is scoped per user.
	otherSaved, err := s.RepositoryFor(otherID).Load(ctx)
	if err != nil {
		t.Fatalf("Load other user: %v", err)
	}
	if otherSaved.ID != "" {
		t.Errorf("other user's state = %+v, want empty", otherSaved)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	saved, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load after clear: %v", err)
	}
	if saved.ID != "" || saved.Seed != "" {
		t.Errorf("state after clear = %+v, want empty", saved)
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := insertTestUser(t, s, "alice", model.UserRoleAdmin)

	u, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin {
		t.Fatalf("user = %+v", u)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown user, got %+v", missing)
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, err = s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Active {
		t.Error("user still active after toggle")
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("session = %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("session still present after delete")
	}
}

func TestExportAllInterviews(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleCandidate)
	if err := s.CreateInterview("iv-1", userID); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMessage("iv-1", model.Message{ID: 1, Kind: model.KindBot, Text: "Q?", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEvaluation("iv-1", []byte(`{"total_score": 8}`)); err != nil {
		t.Fatal(err)
	}

	results, err := s.ExportAllInterviews()
	if err != nil {
		t.Fatalf("ExportAllInterviews: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("result count = %d, want 1", len(results))
	}
	r := results[0]
	if r.SessionID != "iv-1" || r.Username != "alice" {
		t.Errorf("result = %+v", r)
	}
	if len(r.Transcript) != 1 {
		t.Errorf("transcript length = %d, want 1", len(r.Transcript))
	}
	if string(r.Evaluation) != `{"total_score": 8}` {
		t.Errorf("evaluation = %s", r.Evaluation)
	}
}
