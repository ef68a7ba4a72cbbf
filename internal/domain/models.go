package domain

import "time"

// SessionStatus is the lifecycle state of a live game session.
type SessionStatus string

const (
	StatusLobby             SessionStatus = "LOBBY"
	StatusQuestionShow      SessionStatus = "QUESTION_SHOW"
	StatusShowingStats      SessionStatus = "SHOWING_STATS"
	StatusShowingScoreboard SessionStatus = "SHOWING_SCOREBOARD"
	StatusPodium            SessionStatus = "PODIUM"
	StatusEnded             SessionStatus = "ENDED"
)

// PlayerStatus tracks a participant's roster state. Records are never
// deleted; leaving, kicking and disconnecting are all status flips.
type PlayerStatus string

const (
	PlayerPlaying      PlayerStatus = "PLAYING"
	PlayerDisconnected PlayerStatus = "DISCONNECTED"
	PlayerKicked       PlayerStatus = "KICKED"
	PlayerLeft         PlayerStatus = "LEFT"
)

// AnswerStatus is the terminal classification of one AnswerRecord.
type AnswerStatus string

const (
	AnswerSubmitted AnswerStatus = "SUBMITTED"
	AnswerCorrect   AnswerStatus = "CORRECT"
	AnswerWrong     AnswerStatus = "WRONG"
	AnswerTimeout   AnswerStatus = "TIMEOUT"
)

// EventStatus is the lifecycle state of one question event log entry.
type EventStatus string

const (
	EventPending         EventStatus = "PENDING"
	EventActive          EventStatus = "ACTIVE"
	EventSkipped         EventStatus = "SKIPPED"
	EventEnded           EventStatus = "ENDED"
	EventStatsShown      EventStatus = "STATS_SHOWN"
	EventScoreboardShown EventStatus = "SCOREBOARD_SHOWN"
)

// Player is one participant's live record within a session.
type Player struct {
	ClientID  string `json:"cid"`
	AccountID string `json:"accountId,omitempty"`
	Nickname  string `json:"nickname"`
	AvatarID  *int   `json:"avatarId,omitempty"`

	IsConnected  bool         `json:"isConnected"`
	PlayerStatus PlayerStatus `json:"playerStatus"`

	JoinedAt       time.Time `json:"joinedAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	JoinSlideIndex int       `json:"joinSlideIndex"`

	TotalScore int `json:"totalScore"`
	Rank       int `json:"rank"`

	CurrentStreak int `json:"currentStreak"`
	MaxStreak     int `json:"maxStreak"`

	// Answers holds at most one record per question index, append-only.
	Answers []AnswerRecord `json:"answers"`

	CorrectCount        int   `json:"correctCount"`
	IncorrectCount      int   `json:"incorrectCount"`
	UnansweredCount     int   `json:"unansweredCount"`
	AnswersCount        int   `json:"answersCount"`
	TotalReactionTimeMs int64 `json:"totalReactionTimeMs"`
}

// HasAnswered reports whether the player already holds a record for index.
func (p *Player) HasAnswered(index int) bool {
	for i := range p.Answers {
		if p.Answers[i].QuestionIndex == index {
			return true
		}
	}
	return false
}

// AnswerFor returns the record for index, if any.
func (p *Player) AnswerFor(index int) (AnswerRecord, bool) {
	for i := range p.Answers {
		if p.Answers[i].QuestionIndex == index {
			return p.Answers[i], true
		}
	}
	return AnswerRecord{}, false
}

// PointsData is the per-answer scoring breakdown sent back to clients.
type PointsData struct {
	QuestionIndex     int `json:"questionIndex"`
	StreakLevelBefore int `json:"streakLevelBefore"`
	StreakLevelAfter  int `json:"streakLevelAfter"`
}

// AnswerRecord captures one player's submission for one question.
// Immutable once appended.
type AnswerRecord struct {
	QuestionIndex int          `json:"questionIndex"`
	BlockType     BlockType    `json:"blockType"`
	Choice        *int         `json:"choice,omitempty"`
	Sequence      []int        `json:"sequence,omitempty"`
	Text          string       `json:"text,omitempty"`
	ReactionTime  int64        `json:"reactionTimeMs"`
	AnswerAt      time.Time    `json:"answerTimestamp"`
	IsCorrect     bool         `json:"isCorrect"`
	Status        AnswerStatus `json:"status"`
	BasePoints    int          `json:"basePoints"`
	FinalPoints   int          `json:"finalPointsEarned"`
	PointsData    PointsData   `json:"pointsData"`
}

// QuestionEvent is one entry of the per-question lifecycle ledger.
type QuestionEvent struct {
	QuestionIndex int         `json:"questionIndex"`
	StartedAt     time.Time   `json:"startedAt"`
	EndedAt       *time.Time  `json:"endedAt,omitempty"`
	Status        EventStatus `json:"status"`
}

// Standing is a player's score and rank frozen at question-open time,
// used only for rendering scoreboard deltas.
type Standing struct {
	Score int `json:"score"`
	Rank  int `json:"rank"`
}

// Options are session-wide read-only flags.
type Options struct {
	AllowLateJoin  bool `json:"allowLateJoin"`
	EnablePowerups bool `json:"enablePowerups"`
	MaxPoints      int  `json:"maxPoints"`
	MinPoints      int  `json:"minPoints"`
}

// SessionSnapshot is a deep, point-in-time copy of session state handed to
// readers (render layer, protocol encoding). Mutating it never touches the
// live session.
type SessionSnapshot struct {
	Code                 string              `json:"code"`
	QuizID               string              `json:"quizId"`
	HostID               string              `json:"hostId"`
	Status               SessionStatus       `json:"status"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
	QuestionStartTime    *time.Time          `json:"currentQuestionStartTime,omitempty"`
	QuestionEndTime      *time.Time          `json:"currentQuestionEndTime,omitempty"`
	Players              map[string]Player   `json:"players"`
	PreviousStandings    map[string]Standing `json:"previousPlayerStateForScoreboard,omitempty"`
	QuestionEvents       []QuestionEvent     `json:"questionEventsLog"`
	Options              Options             `json:"options"`
	TakenAt              time.Time           `json:"takenAt"`
}
