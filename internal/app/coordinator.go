package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/game"
)

// SessionRepository abstracts how live sessions are stored (in-memory,
// Redis-marked, etc).
type SessionRepository interface {
	// Register stores the session under its code; false if taken.
	Register(s *game.Session) bool
	Get(code string) (*game.Session, bool)
	Delete(code string)
}

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Coordinator owns the session lifecycle use cases: creating sessions,
// funnelling player and host actions into the session's serialized state
// machine, and driving question countdowns.
type Coordinator struct {
	sessions SessionRepository
	quizzes  QuizRepository
	opts     domain.Options

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewCoordinator(sessions SessionRepository, quizzes QuizRepository, opts domain.Options) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		quizzes:  quizzes,
		opts:     opts,
		timers:   make(map[string]*time.Timer),
	}
}

// CreateSession loads the quiz definition, allocates a fresh game PIN and
// registers a LOBBY session for it. The host identifier is generated when
// the caller does not bring one.
func (c *Coordinator) CreateSession(ctx context.Context, quizID, hostID string) (*game.Session, error) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if hostID == "" {
		hostID = uuid.NewString()
	}

	for attempt := 0; attempt < 10; attempt++ {
		code, err := GeneratePIN()
		if err != nil {
			return nil, err
		}
		session := game.NewSession(code, hostID, quiz, c.opts)
		if c.sessions.Register(session) {
			return session, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

// Join registers or refreshes a player in a session.
func (c *Coordinator) Join(ctx context.Context, code, clientID, nickname string, avatarID *int, ts time.Time) error {
	session, ok := c.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Join(clientID, nickname, avatarID, ts)
}

// SubmitAnswer scores one submission. When the accepted answer completes
// the active roster, the question closes immediately through the same
// idempotent path the countdown uses.
func (c *Coordinator) SubmitAnswer(ctx context.Context, code, clientID string, sub domain.AnswerSubmission, ts time.Time) error {
	session, ok := c.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	res, err := session.SubmitAnswer(clientID, sub, ts)
	if err != nil {
		return err
	}
	if res.AllAnswered {
		c.timeUp(code)
	}
	return nil
}

// Advance applies the host's "next" action and re-arms or cancels the
// countdown to match the state reached.
func (c *Coordinator) Advance(ctx context.Context, code string) (game.AdvanceResult, error) {
	session, ok := c.sessions.Get(code)
	if !ok {
		return game.AdvanceResult{}, domain.ErrSessionNotFound
	}
	res, err := session.HandleNext()
	if err != nil {
		return res, err
	}
	c.afterAdvance(code, session, res)
	return res, nil
}

// Skip jumps past the current question to the next interactive one.
func (c *Coordinator) Skip(ctx context.Context, code string) (game.AdvanceResult, error) {
	session, ok := c.sessions.Get(code)
	if !ok {
		return game.AdvanceResult{}, domain.ErrSessionNotFound
	}
	res, err := session.HandleSkip()
	if err != nil {
		return res, err
	}
	c.afterAdvance(code, session, res)
	return res, nil
}

// Kick removes a player from the active roster (history is kept).
// Kicking the last unanswered player closes the question.
func (c *Coordinator) Kick(ctx context.Context, code, clientID string) error {
	session, ok := c.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.Kick(clientID); err != nil {
		return err
	}
	if session.AllAnswered() {
		c.timeUp(code)
	}
	return nil
}

// SetConnection flips a player's connection flag on socket open/close.
// A disconnect by the last unanswered player closes the question.
func (c *Coordinator) SetConnection(code, clientID string, connected bool, ts time.Time) error {
	session, ok := c.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.SetConnection(clientID, connected, ts); err != nil {
		return err
	}
	if !connected && session.AllAnswered() {
		c.timeUp(code)
	}
	return nil
}

// SetAvatar updates a player's avatar.
func (c *Coordinator) SetAvatar(code, clientID string, avatarID int, ts time.Time) error {
	session, ok := c.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.SetAvatar(clientID, avatarID, ts)
}

// Session exposes a live session for read access (quiz, snapshots).
func (c *Coordinator) Session(code string) (*game.Session, bool) {
	return c.sessions.Get(code)
}

// Subscribe returns a channel of state-change snapshots for a session.
// The caller must invoke the cancel function to avoid leaks.
func (c *Coordinator) Subscribe(code string) (<-chan domain.SessionSnapshot, func(), error) {
	session, ok := c.sessions.Get(code)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// afterAdvance manages the per-session countdown and discards finished
// sessions once their terminal snapshot has been broadcast.
func (c *Coordinator) afterAdvance(code string, session *game.Session, res game.AdvanceResult) {
	c.cancelTimer(code)

	if res.Status == domain.StatusEnded {
		c.sessions.Delete(code)
		return
	}
	if res.HasBlock && res.Block.Type.Interactive() && res.Block.TimeLimitMs > 0 {
		c.armTimer(code, time.Duration(res.Block.TimeLimitMs)*time.Millisecond)
	}
}

func (c *Coordinator) armTimer(code string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[code]; ok {
		t.Stop()
	}
	c.timers[code] = time.AfterFunc(d, func() {
		c.timeUp(code)
	})
}

func (c *Coordinator) cancelTimer(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[code]; ok {
		t.Stop()
		delete(c.timers, code)
	}
}

func (c *Coordinator) timeUp(code string) {
	c.cancelTimer(code)
	session, ok := c.sessions.Get(code)
	if !ok {
		return
	}
	if _, err := session.HandleTimeUp(); err != nil {
		log.Printf("session %s: time-up aborted: %v", code, err)
	}
}
