package game

import (
	"log"
	"math"
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// Default points range for a correct answer before the multiplier.
const (
	DefaultMaxPoints = 1000
	DefaultMinPoints = 100
)

// SubmitResult reports the outcome of an accepted submission.
type SubmitResult struct {
	Record domain.AnswerRecord
	// AllAnswered is true when every connected PLAYING player now holds a
	// record for the current question, which lets the caller close the
	// question early.
	AllAnswered bool
}

// SubmitAnswer validates and scores one player's submission against the
// active question. Rejections (wrong state, stale index, duplicate,
// unknown player) return ErrRejected and leave all state untouched.
func (s *Session) SubmitAnswer(clientID string, sub domain.AnswerSubmission, ts time.Time) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusQuestionShow {
		return SubmitResult{}, domain.ErrRejected
	}
	block, ok := s.quiz.Block(s.currentIndex)
	if !ok {
		log.Printf("session %s: current index %d outside quiz bounds", s.code, s.currentIndex)
		return SubmitResult{}, domain.ErrInconsistentState
	}
	if !block.Type.Interactive() {
		return SubmitResult{}, domain.ErrRejected
	}
	if sub.QuestionIndex != s.currentIndex {
		return SubmitResult{}, domain.ErrRejected
	}
	p, ok := s.players[clientID]
	if !ok || p.PlayerStatus == domain.PlayerKicked {
		return SubmitResult{}, domain.ErrRejected
	}
	if p.HasAnswered(s.currentIndex) {
		return SubmitResult{}, domain.ErrRejected
	}

	correct := evaluate(block, sub.Answer)
	reaction := s.reactionTimeLocked(block, ts)
	base, final := s.scoreLocked(block, correct, reaction)

	status := domain.AnswerSubmitted
	if block.Type.Scoreable() {
		if correct {
			status = domain.AnswerCorrect
		} else {
			status = domain.AnswerWrong
		}
	}

	record := domain.AnswerRecord{
		QuestionIndex: s.currentIndex,
		BlockType:     block.Type,
		ReactionTime:  reaction,
		AnswerAt:      ts,
		IsCorrect:     correct && block.Type.Scoreable(),
		Status:        status,
		BasePoints:    base,
		FinalPoints:   final,
		PointsData: domain.PointsData{
			QuestionIndex:     s.currentIndex,
			StreakLevelBefore: p.CurrentStreak,
		},
	}
	switch a := sub.Answer.(type) {
	case domain.ChoiceAnswer:
		choice := a.Choice
		record.Choice = &choice
	case domain.JumbleAnswer:
		record.Sequence = append([]int(nil), a.Sequence...)
	case domain.TextAnswer:
		record.Text = a.Text
	}

	s.applyAnswerLocked(p, &record, ts)
	s.rerankLocked()
	s.broadcastLocked()

	return SubmitResult{Record: record, AllAnswered: s.allAnsweredLocked()}, nil
}

// evaluate decides correctness per block kind. A payload variant that does
// not match the block kind is simply wrong.
func evaluate(block domain.Block, answer domain.Answer) bool {
	switch a := answer.(type) {
	case domain.ChoiceAnswer:
		if block.Type != domain.BlockQuiz && block.Type != domain.BlockSurvey {
			return false
		}
		// Surveys have no correct choice; CorrectChoice returns -1 there.
		return a.Choice >= 0 && a.Choice == block.CorrectChoice()
	case domain.JumbleAnswer:
		if block.Type != domain.BlockJumble {
			return false
		}
		if len(a.Sequence) != len(block.Choices) {
			return false
		}
		for i, original := range a.Sequence {
			if original != i {
				return false
			}
		}
		return true
	case domain.TextAnswer:
		if block.Type != domain.BlockOpenEnded {
			return false
		}
		return block.AcceptsText(a.Text)
	}
	return false
}

// reactionTimeLocked measures elapsed time since question start, falling
// back to the block's full time limit when no start marker exists.
func (s *Session) reactionTimeLocked(block domain.Block, ts time.Time) int64 {
	if s.questionStart == nil {
		return block.TimeLimitMs
	}
	rt := ts.Sub(*s.questionStart).Milliseconds()
	if rt < 0 {
		return 0
	}
	return rt
}

// scoreLocked computes (base, final) points. Faster answers earn more:
// base decays linearly from max to half over the time limit, floored at
// the minimum, then the block multiplier applies.
func (s *Session) scoreLocked(block domain.Block, correct bool, reactionMs int64) (int, int) {
	if !correct || !block.Type.Scoreable() {
		return 0, 0
	}
	maxPoints := s.opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	minPoints := s.opts.MinPoints
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}

	limit := block.TimeLimitMs
	if limit <= 0 {
		limit = 1
	}
	base := int(math.Round(float64(maxPoints) * (1 - float64(reactionMs)/float64(2*limit))))
	if base < minPoints {
		base = minPoints
	}
	final := int(math.Round(float64(base) * block.Multiplier()))
	return base, final
}

// applyAnswerLocked appends the record and updates every derived counter
// in one step so the player's aggregates never drift from the answer list.
func (s *Session) applyAnswerLocked(p *domain.Player, record *domain.AnswerRecord, ts time.Time) {
	if record.Status == domain.AnswerCorrect {
		p.CurrentStreak++
		if p.CurrentStreak > p.MaxStreak {
			p.MaxStreak = p.CurrentStreak
		}
	} else {
		p.CurrentStreak = 0
	}
	record.PointsData.StreakLevelAfter = p.CurrentStreak

	p.Answers = append(p.Answers, *record)
	p.TotalScore += record.FinalPoints
	p.LastActivityAt = ts

	switch record.Status {
	case domain.AnswerCorrect:
		p.CorrectCount++
	case domain.AnswerWrong:
		p.IncorrectCount++
	case domain.AnswerTimeout:
		p.UnansweredCount++
	}
	if record.Status != domain.AnswerTimeout {
		p.AnswersCount++
		p.TotalReactionTimeMs += record.ReactionTime
	}
}

// timeoutSweepLocked synthesizes TIMEOUT records for every connected
// PLAYING player without an answer for the current question. Returns how
// many players were timed out. Safe to call twice: the per-index
// uniqueness check makes the second sweep a no-op.
func (s *Session) timeoutSweepLocked(block domain.Block, now time.Time) int {
	swept := 0
	for _, p := range s.players {
		if !p.IsConnected || p.PlayerStatus != domain.PlayerPlaying {
			continue
		}
		if p.HasAnswered(s.currentIndex) {
			continue
		}
		record := domain.AnswerRecord{
			QuestionIndex: s.currentIndex,
			BlockType:     block.Type,
			ReactionTime:  block.TimeLimitMs,
			AnswerAt:      now,
			Status:        domain.AnswerTimeout,
			PointsData: domain.PointsData{
				QuestionIndex:     s.currentIndex,
				StreakLevelBefore: p.CurrentStreak,
			},
		}
		s.applyAnswerLocked(p, &record, now)
		swept++
	}
	return swept
}

// AllAnswered reports whether the open question can close early because
// every connected PLAYING player holds a record for it. False outside
// QUESTION_SHOW, so callers can re-check after roster changes without
// caring about the session's state.
func (s *Session) AllAnswered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != domain.StatusQuestionShow {
		return false
	}
	return s.allAnsweredLocked()
}

// allAnsweredLocked reports whether every connected PLAYING player has a
// record for the current question. False with an empty active roster so a
// lobby of disconnected players does not auto-close questions.
func (s *Session) allAnsweredLocked() bool {
	active := 0
	for _, p := range s.players {
		if !p.IsConnected || p.PlayerStatus != domain.PlayerPlaying {
			continue
		}
		active++
		if !p.HasAnswered(s.currentIndex) {
			return false
		}
	}
	return active > 0
}
