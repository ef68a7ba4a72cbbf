package domain

// Answer is the sealed set of payload variants a player can submit.
// Exhaustive type switches over these variants run at submission time
// (scoring) and at result encoding time.
type Answer interface {
	isAnswer()
}

// ChoiceAnswer selects a single choice index (quiz and survey blocks).
type ChoiceAnswer struct {
	Choice int
}

// JumbleAnswer orders the original choice indices (jumble blocks).
type JumbleAnswer struct {
	Sequence []int
}

// TextAnswer carries free text (open-ended blocks).
type TextAnswer struct {
	Text string
}

func (ChoiceAnswer) isAnswer() {}
func (JumbleAnswer) isAnswer() {}
func (TextAnswer) isAnswer()   {}

// AnswerSubmission is one inbound answer addressed to a question index.
// The index is validated against the session's current index before any
// player state is touched.
type AnswerSubmission struct {
	QuestionIndex int
	BlockType     BlockType
	Answer        Answer
}
