package game

import (
	"log"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// AdvanceResult describes the state reached by a flow operation so the
// caller can arm countdown timers and emit the right outbound messages.
type AdvanceResult struct {
	Status        domain.SessionStatus
	QuestionIndex int
	// Changed is false for idempotent no-ops (time-up after the question
	// already closed, next on an ended session).
	Changed bool
	// Block is set when the new state is QUESTION_SHOW.
	Block    domain.Block
	HasBlock bool
	// TimedOut counts players swept to TIMEOUT while closing a question.
	TimedOut int
	// Skipped lists indices recorded as SKIPPED by HandleSkip.
	Skipped []int
}

// HandleNext is the host's "next" action: status-dependent dispatch through
// the session lifecycle. Closing an interactive question first forces every
// unanswered connected player to TIMEOUT.
func (s *Session) HandleNext() (AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusLobby:
		if len(s.quiz.Blocks) == 0 {
			return s.showPodiumLocked(), nil
		}
		return s.advanceToQuestionLocked(0)

	case domain.StatusQuestionShow:
		block, ok := s.quiz.Block(s.currentIndex)
		if !ok {
			log.Printf("session %s: current index %d outside quiz bounds, aborting advance", s.code, s.currentIndex)
			return AdvanceResult{}, domain.ErrInconsistentState
		}
		if !block.Type.Interactive() {
			s.events.Close(s.currentIndex, domain.EventEnded, s.now())
			return s.advanceOrPodiumLocked(s.currentIndex + 1)
		}
		return s.closeQuestionLocked(block), nil

	case domain.StatusShowingStats:
		s.events.Close(s.currentIndex, domain.EventScoreboardShown, s.now())
		s.status = domain.StatusShowingScoreboard
		s.broadcastLocked()
		return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex, Changed: true}, nil

	case domain.StatusShowingScoreboard:
		return s.advanceOrPodiumLocked(s.currentIndex + 1)

	case domain.StatusPodium:
		s.status = domain.StatusEnded
		s.broadcastLocked()
		return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex, Changed: true}, nil
	}

	return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex}, nil
}

// HandleTimeUp closes the active question when its countdown elapses.
// Idempotent: once the session has left QUESTION_SHOW this is a no-op, so
// a late timer racing the host's next never double-fires.
func (s *Session) HandleTimeUp() (AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusQuestionShow {
		return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex}, nil
	}
	block, ok := s.quiz.Block(s.currentIndex)
	if !ok {
		log.Printf("session %s: current index %d outside quiz bounds on time-up", s.code, s.currentIndex)
		return AdvanceResult{}, domain.ErrInconsistentState
	}
	if !block.Type.Interactive() {
		return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex}, nil
	}
	return s.closeQuestionLocked(block), nil
}

// HandleSkip jumps to the next interactive question, recording every
// bypassed index as SKIPPED. With no interactive question left it goes to
// the podium.
func (s *Session) HandleSkip() (AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusPodium, domain.StatusEnded:
		return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex}, nil
	}

	now := s.now()
	if s.status == domain.StatusQuestionShow {
		s.events.Close(s.currentIndex, domain.EventEnded, now)
	}

	var skipped []int
	for i := s.currentIndex + 1; i < len(s.quiz.Blocks); i++ {
		if s.quiz.Blocks[i].Type.Interactive() {
			res, err := s.advanceToQuestionLocked(i)
			res.Skipped = skipped
			return res, err
		}
		s.events.Close(i, domain.EventSkipped, now)
		skipped = append(skipped, i)
	}

	res := s.showPodiumLocked()
	res.Skipped = skipped
	return res, nil
}

// advanceToQuestionLocked is the only place standings are snapshotted: it
// freezes each player's score and rank as they stand before question i is
// scored, for later score-delta rendering. Coming from the lobby the
// snapshot is empty.
func (s *Session) advanceToQuestionLocked(i int) (AdvanceResult, error) {
	block, ok := s.quiz.Block(i)
	if !ok {
		log.Printf("session %s: refusing advance to out-of-range index %d", s.code, i)
		return AdvanceResult{}, domain.ErrInconsistentState
	}

	standings := make(map[string]domain.Standing)
	if s.currentIndex >= 0 {
		for cid, p := range s.players {
			standings[cid] = domain.Standing{Score: p.TotalScore, Rank: p.Rank}
		}
	}
	s.prevStandings = standings

	now := s.now()
	s.currentIndex = i
	s.status = domain.StatusQuestionShow
	s.questionStart = &now
	s.questionEnd = nil
	s.events.Open(i, now)
	s.broadcastLocked()

	return AdvanceResult{
		Status:        s.status,
		QuestionIndex: i,
		Changed:       true,
		Block:         block,
		HasBlock:      true,
	}, nil
}

func (s *Session) advanceOrPodiumLocked(next int) (AdvanceResult, error) {
	if next >= len(s.quiz.Blocks) {
		return s.showPodiumLocked(), nil
	}
	return s.advanceToQuestionLocked(next)
}

// closeQuestionLocked ends the active interactive question: sweep
// unanswered players to TIMEOUT, freeze the end time, rerank and show
// stats.
func (s *Session) closeQuestionLocked(block domain.Block) AdvanceResult {
	now := s.now()
	timedOut := s.timeoutSweepLocked(block, now)
	s.questionEnd = &now
	s.events.Close(s.currentIndex, domain.EventStatsShown, now)
	s.rerankLocked()
	s.status = domain.StatusShowingStats
	s.broadcastLocked()
	return AdvanceResult{
		Status:        s.status,
		QuestionIndex: s.currentIndex,
		Changed:       true,
		TimedOut:      timedOut,
	}
}

func (s *Session) showPodiumLocked() AdvanceResult {
	s.rerankLocked()
	s.status = domain.StatusPodium
	s.questionStart = nil
	s.questionEnd = nil
	s.broadcastLocked()
	return AdvanceResult{Status: s.status, QuestionIndex: s.currentIndex, Changed: true}
}
