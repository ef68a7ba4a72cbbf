package domain

import "strings"

// BlockType classifies one slide of a quiz definition.
type BlockType string

const (
	BlockQuiz      BlockType = "quiz"
	BlockJumble    BlockType = "jumble"
	BlockSurvey    BlockType = "survey"
	BlockOpenEnded BlockType = "open_ended"
	BlockContent   BlockType = "content"
)

// Interactive reports whether players are expected to respond to the block.
// Content slides are advanced past without a scoring step.
func (t BlockType) Interactive() bool {
	return t != BlockContent
}

// Scoreable reports whether a correct response can earn points.
// Surveys collect responses but never score.
func (t BlockType) Scoreable() bool {
	switch t {
	case BlockQuiz, BlockJumble, BlockOpenEnded:
		return true
	}
	return false
}

// Choice is one possible answer within a block. For jumble blocks the
// slice order is the correct order; for open-ended blocks Answer holds
// an acceptable text.
type Choice struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
	Image   string `json:"image,omitempty"`
}

// Block is one question or content slide of a quiz definition.
type Block struct {
	Type             BlockType `json:"type"`
	Title            string    `json:"title"`
	Choices          []Choice  `json:"choices,omitempty"`
	TimeLimitMs      int64     `json:"time"`
	PointsMultiplier float64   `json:"pointsMultiplier,omitempty"`
}

// Multiplier returns the points multiplier, defaulting to 1.
func (b Block) Multiplier() float64 {
	if b.PointsMultiplier <= 0 {
		return 1
	}
	return b.PointsMultiplier
}

// CorrectChoice returns the index of the first choice flagged correct,
// or -1 when none is.
func (b Block) CorrectChoice() int {
	for i := range b.Choices {
		if b.Choices[i].Correct {
			return i
		}
	}
	return -1
}

// AcceptsText reports whether text matches an acceptable answer,
// compared case-insensitively with surrounding space ignored.
func (b Block) AcceptsText(text string) bool {
	trimmed := strings.TrimSpace(text)
	for i := range b.Choices {
		if strings.EqualFold(strings.TrimSpace(b.Choices[i].Answer), trimmed) {
			return true
		}
	}
	return false
}

// Quiz is the read-only quiz definition a session is played against.
// The coordinator never mutates it.
type Quiz struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Block returns the block at index, with an in-range check.
func (q Quiz) Block(index int) (Block, bool) {
	if index < 0 || index >= len(q.Blocks) {
		return Block{}, false
	}
	return q.Blocks[index], true
}
