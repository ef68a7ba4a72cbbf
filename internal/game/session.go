package game

import (
	"sync"
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// Session is the authoritative owner of one live game's mutable state.
// Every mutation (join, answer, sweep, advance) runs under the write lock,
// so inbound messages and timer triggers are applied in a single serialized
// order. Readers only ever see deep-copied snapshots.
type Session struct {
	code   string
	quizID string
	hostID string
	quiz   domain.Quiz
	opts   domain.Options

	createdAt time.Time
	now       func() time.Time

	mu            sync.RWMutex
	status        domain.SessionStatus
	currentIndex  int
	questionStart *time.Time
	questionEnd   *time.Time
	players       map[string]*domain.Player
	prevStandings map[string]domain.Standing
	events        EventLog
	subscribers   map[chan domain.SessionSnapshot]struct{}
}

// NewSession creates a session in LOBBY for the given quiz definition.
func NewSession(code, hostID string, quiz domain.Quiz, opts domain.Options) *Session {
	return NewSessionWithClock(code, hostID, quiz, opts, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(code, hostID string, quiz domain.Quiz, opts domain.Options, now func() time.Time) *Session {
	return &Session{
		code:          code,
		quizID:        quiz.ID,
		hostID:        hostID,
		quiz:          quiz,
		opts:          opts,
		createdAt:     now(),
		now:           now,
		status:        domain.StatusLobby,
		currentIndex:  -1,
		players:       make(map[string]*domain.Player),
		prevStandings: make(map[string]domain.Standing),
		subscribers:   make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// Code returns the session's game PIN.
func (s *Session) Code() string { return s.code }

// HostID returns the host identifier the session was created with.
func (s *Session) HostID() string { return s.hostID }

// Quiz returns the read-only quiz definition.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Ended reports whether the session reached its terminal state.
func (s *Session) Ended() bool {
	return s.Status() == domain.StatusEnded
}

// Snapshot returns a consistent point-in-time copy of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener for state-change snapshots. The first
// snapshot is delivered immediately. The caller must invoke cancel to
// avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the
			// session; only the newest state matters to renderers.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	players := make(map[string]domain.Player, len(s.players))
	for cid, p := range s.players {
		players[cid] = copyPlayer(p)
	}

	var standings map[string]domain.Standing
	if len(s.prevStandings) > 0 {
		standings = make(map[string]domain.Standing, len(s.prevStandings))
		for cid, st := range s.prevStandings {
			standings[cid] = st
		}
	}

	return domain.SessionSnapshot{
		Code:                 s.code,
		QuizID:               s.quizID,
		HostID:               s.hostID,
		Status:               s.status,
		CurrentQuestionIndex: s.currentIndex,
		QuestionStartTime:    copyTime(s.questionStart),
		QuestionEndTime:      copyTime(s.questionEnd),
		Players:              players,
		PreviousStandings:    standings,
		QuestionEvents:       s.events.Entries(),
		Options:              s.opts,
		TakenAt:              s.now(),
	}
}

func copyPlayer(p *domain.Player) domain.Player {
	out := *p
	if p.AvatarID != nil {
		avatar := *p.AvatarID
		out.AvatarID = &avatar
	}
	out.Answers = make([]domain.AnswerRecord, len(p.Answers))
	copy(out.Answers, p.Answers)
	for i := range out.Answers {
		if out.Answers[i].Choice != nil {
			c := *out.Answers[i].Choice
			out.Answers[i].Choice = &c
		}
		if out.Answers[i].Sequence != nil {
			seq := make([]int, len(out.Answers[i].Sequence))
			copy(seq, out.Answers[i].Sequence)
			out.Answers[i].Sequence = seq
		}
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
