package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/game"
)

type fakeQuizRepo struct {
	quizzes map[string]domain.Quiz
}

func (r *fakeQuizRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*game.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*game.Session)}
}

func (s *fakeSessionStore) Register(session *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[session.Code()]; taken {
		return false
	}
	s.sessions[session.Code()] = session
	return true
}

func (s *fakeSessionStore) Get(code string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *fakeSessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
}

func coordinatorQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Blocks: []domain.Block{{
			Type:  domain.BlockQuiz,
			Title: "Q0",
			Choices: []domain.Choice{
				{Answer: "a", Correct: true},
				{Answer: "b"},
			},
			TimeLimitMs:      60000,
			PointsMultiplier: 1,
		}},
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeSessionStore) {
	t.Helper()
	store := newFakeSessionStore()
	repo := &fakeQuizRepo{quizzes: map[string]domain.Quiz{"quiz-1": coordinatorQuiz()}}
	return NewCoordinator(store, repo, domain.Options{AllowLateJoin: true}), store
}

func TestCreateSessionAllocatesPIN(t *testing.T) {
	coordinator, store := newTestCoordinator(t)

	session, err := coordinator.CreateSession(context.Background(), "quiz-1", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(session.Code()) != 6 {
		t.Fatalf("expected 6-digit pin, got %q", session.Code())
	}
	if session.HostID() == "" {
		t.Fatalf("expected generated host id")
	}
	if session.Status() != domain.StatusLobby {
		t.Fatalf("new session must start in LOBBY, got %s", session.Status())
	}
	if _, ok := store.Get(session.Code()); !ok {
		t.Fatalf("session not registered in store")
	}
}

func TestCreateSessionUnknownQuiz(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)

	_, err := coordinator.CreateSession(context.Background(), "missing", "host")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz-not-found, got %v", err)
	}
}

func TestAllAnsweredClosesQuestion(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()

	if err := coordinator.Join(ctx, code, "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := coordinator.Advance(ctx, code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if session.Status() != domain.StatusQuestionShow {
		t.Fatalf("expected QUESTION_SHOW, got %s", session.Status())
	}

	// The only active player answers, so the countdown is short-circuited.
	err = coordinator.SubmitAnswer(ctx, code, "p1", domain.AnswerSubmission{
		QuestionIndex: 0,
		BlockType:     domain.BlockQuiz,
		Answer:        domain.ChoiceAnswer{Choice: 0},
	}, time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if session.Status() != domain.StatusShowingStats {
		t.Fatalf("expected SHOWING_STATS after all answered, got %s", session.Status())
	}
}

func TestKickingLastHoldoutClosesQuestion(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if err := coordinator.Join(ctx, code, "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := coordinator.Join(ctx, code, "p2", "Bob", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := coordinator.Advance(ctx, code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := coordinator.SubmitAnswer(ctx, code, "p1", domain.AnswerSubmission{
		QuestionIndex: 0,
		BlockType:     domain.BlockQuiz,
		Answer:        domain.ChoiceAnswer{Choice: 0},
	}, time.Now()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if session.Status() != domain.StatusQuestionShow {
		t.Fatalf("question should stay open while Bob is unanswered")
	}

	if err := coordinator.Kick(ctx, code, "p2"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if session.Status() != domain.StatusShowingStats {
		t.Fatalf("expected SHOWING_STATS after kicking the holdout, got %s", session.Status())
	}
}

func TestDisconnectingLastHoldoutClosesQuestion(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if err := coordinator.Join(ctx, code, "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := coordinator.Join(ctx, code, "p2", "Bob", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := coordinator.Advance(ctx, code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := coordinator.SubmitAnswer(ctx, code, "p1", domain.AnswerSubmission{
		QuestionIndex: 0,
		BlockType:     domain.BlockQuiz,
		Answer:        domain.ChoiceAnswer{Choice: 0},
	}, time.Now()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := coordinator.SetConnection(code, "p2", false, time.Now()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if session.Status() != domain.StatusShowingStats {
		t.Fatalf("expected SHOWING_STATS after holdout disconnect, got %s", session.Status())
	}

	// Bob's record stays TIMEOUT-free: the sweep only covers connected
	// players, so a reconnecting Bob keeps a clean slate for the next
	// question.
	if n := len(session.Snapshot().Players["p2"].Answers); n != 0 {
		t.Fatalf("disconnected holdout should not be swept, got %d records", n)
	}
}

func TestEndedSessionIsDiscarded(t *testing.T) {
	coordinator, store := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if err := coordinator.Join(ctx, code, "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}

	// question -> stats -> scoreboard -> podium -> ended
	steps := []domain.SessionStatus{
		domain.StatusQuestionShow,
		domain.StatusShowingStats,
		domain.StatusShowingScoreboard,
		domain.StatusPodium,
		domain.StatusEnded,
	}
	for _, want := range steps {
		res, err := coordinator.Advance(ctx, code)
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if res.Status != want {
			t.Fatalf("expected %s, got %s", want, res.Status)
		}
	}

	if _, ok := store.Get(code); ok {
		t.Fatalf("ended session must be removed from the store")
	}
	if _, err := coordinator.Advance(ctx, code); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session-not-found after discard, got %v", err)
	}
}

func TestSkipDelegatesToSession(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := coordinator.Join(ctx, session.Code(), "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}

	res, err := coordinator.Skip(ctx, session.Code())
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if res.Status != domain.StatusQuestionShow || res.QuestionIndex != 0 {
		t.Fatalf("skip from lobby should land on first question, got %s at %d", res.Status, res.QuestionIndex)
	}
}

func TestActionsOnUnknownSession(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	if err := coordinator.Join(ctx, "000000", "p1", "Alice", nil, time.Now()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("join: expected session-not-found, got %v", err)
	}
	if err := coordinator.Kick(ctx, "000000", "p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("kick: expected session-not-found, got %v", err)
	}
	if _, _, err := coordinator.Subscribe("000000"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("subscribe: expected session-not-found, got %v", err)
	}
}

func TestSubscribeReceivesLifecycleSnapshots(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coordinator.CreateSession(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updates, cancel, err := coordinator.Subscribe(session.Code())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := coordinator.Join(ctx, session.Code(), "p1", "Alice", nil, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case snap := <-updates:
		if _, ok := snap.Players["p1"]; !ok {
			t.Fatalf("expected join reflected in snapshot, got %+v", snap.Players)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot after join")
	}
}
