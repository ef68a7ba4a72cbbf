package protocol

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// Outbound pairs a ready-to-send envelope with its audience. An empty
// TargetCID means broadcast to every participant.
type Outbound struct {
	Envelope  Envelope
	TargetCID string
}

type getReadyContent struct {
	QuestionIndex int              `json:"questionIndex"`
	TotalBlocks   int              `json:"totalGameBlockCount"`
	Type          domain.BlockType `json:"type"`
	Title         string           `json:"title,omitempty"`
	TimeLimitMs   int64            `json:"timeAvailable,omitempty"`
}

// strippedChoice is a choice with correctness withheld. OriginalIndex is
// only set for jumble blocks, whose choices are shuffled before sending.
type strippedChoice struct {
	Answer        string `json:"answer"`
	Image         string `json:"image,omitempty"`
	OriginalIndex *int   `json:"originalIndex,omitempty"`
}

type questionContent struct {
	QuestionIndex int              `json:"questionIndex"`
	Type          domain.BlockType `json:"type"`
	Title         string           `json:"title"`
	TimeLimitMs   int64            `json:"time"`
	Choices       []strippedChoice `json:"choices,omitempty"`
}

type playerResultContent struct {
	QuestionIndex   int               `json:"questionIndex"`
	Type            domain.BlockType  `json:"type"`
	Rank            int               `json:"rank"`
	TotalScore      int               `json:"totalScore"`
	IsCorrect       bool              `json:"isCorrect"`
	Status          string            `json:"status"`
	BasePoints      int               `json:"basePoints"`
	Points          int               `json:"points"`
	Choice          *int              `json:"choice,omitempty"`
	Sequence        []int             `json:"sequence,omitempty"`
	Text            string            `json:"text,omitempty"`
	CorrectChoices  []int             `json:"correctChoices,omitempty"`
	CorrectSequence []int             `json:"correctSequence,omitempty"`
	CorrectTexts    []string          `json:"correctTexts,omitempty"`
	PointsData      domain.PointsData `json:"pointsData"`
}

type statsContent struct {
	QuestionIndex   int              `json:"questionIndex"`
	Type            domain.BlockType `json:"type"`
	ChoiceCounts    []int            `json:"choiceCounts,omitempty"`
	CorrectCount    int              `json:"correctCount"`
	IncorrectCount  int              `json:"incorrectCount"`
	UnansweredCount int              `json:"unansweredCount"`
}

type scoreboardEntry struct {
	CID        string `json:"cid"`
	Nickname   string `json:"nickname"`
	TotalScore int    `json:"totalScore"`
	Rank       int    `json:"rank"`
	Streak     int    `json:"streak"`
	ScoreDelta int    `json:"scoreDelta"`
	RankDelta  int    `json:"rankDelta"`
}

type scoreboardContent struct {
	QuestionIndex int               `json:"questionIndex"`
	Entries       []scoreboardEntry `json:"entries"`
}

type podiumContent struct {
	QuizID  string            `json:"quizId"`
	Entries []scoreboardEntry `json:"entries"`
}

// MessagesFor builds the outbound messages for entering the snapshot's
// state: question broadcasts for QUESTION_SHOW, stats plus targeted
// per-player reveals for SHOWING_STATS, scoreboard and podium broadcasts.
// LOBBY and ENDED produce nothing here.
func MessagesFor(snap domain.SessionSnapshot, quiz domain.Quiz) ([]Outbound, error) {
	switch snap.Status {
	case domain.StatusQuestionShow:
		return questionMessages(snap, quiz)
	case domain.StatusShowingStats:
		return statsMessages(snap, quiz)
	case domain.StatusShowingScoreboard:
		env, err := broadcast(snap.Code, MsgScoreboard, scoreboardContent{
			QuestionIndex: snap.CurrentQuestionIndex,
			Entries:       standings(snap),
		})
		if err != nil {
			return nil, err
		}
		return []Outbound{{Envelope: env}}, nil
	case domain.StatusPodium:
		env, err := broadcast(snap.Code, MsgPodium, podiumContent{
			QuizID:  snap.QuizID,
			Entries: standings(snap),
		})
		if err != nil {
			return nil, err
		}
		return []Outbound{{Envelope: env}}, nil
	}
	return nil, nil
}

// HostSnapshot wraps the full session snapshot for the host surface.
func HostSnapshot(snap domain.SessionSnapshot) (Envelope, error) {
	content, err := EncodeContent(snap)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Channel: ChannelHost,
		Data: Data{
			GameID:  snap.Code,
			Type:    TypeSnapshot,
			Content: content,
		},
	}, nil
}

func questionMessages(snap domain.SessionSnapshot, quiz domain.Quiz) ([]Outbound, error) {
	block, ok := quiz.Block(snap.CurrentQuestionIndex)
	if !ok {
		return nil, fmt.Errorf("question %d missing from quiz %s", snap.CurrentQuestionIndex, quiz.ID)
	}

	ready, err := broadcast(snap.Code, MsgGetReady, getReadyContent{
		QuestionIndex: snap.CurrentQuestionIndex,
		TotalBlocks:   len(quiz.Blocks),
		Type:          block.Type,
		Title:         block.Title,
		TimeLimitMs:   block.TimeLimitMs,
	})
	if err != nil {
		return nil, err
	}
	out := []Outbound{{Envelope: ready}}

	if !block.Type.Interactive() {
		return out, nil
	}

	question, err := broadcast(snap.Code, MsgQuestionStart, questionContent{
		QuestionIndex: snap.CurrentQuestionIndex,
		Type:          block.Type,
		Title:         block.Title,
		TimeLimitMs:   block.TimeLimitMs,
		Choices:       stripChoices(block),
	})
	if err != nil {
		return nil, err
	}
	return append(out, Outbound{Envelope: question}), nil
}

func statsMessages(snap domain.SessionSnapshot, quiz domain.Quiz) ([]Outbound, error) {
	block, ok := quiz.Block(snap.CurrentQuestionIndex)
	if !ok {
		return nil, fmt.Errorf("question %d missing from quiz %s", snap.CurrentQuestionIndex, quiz.ID)
	}

	stats, err := broadcast(snap.Code, MsgStats, computeStats(snap, block))
	if err != nil {
		return nil, err
	}
	out := []Outbound{{Envelope: stats}}

	for cid := range snap.Players {
		player := snap.Players[cid]
		if player.PlayerStatus == domain.PlayerKicked || !player.IsConnected {
			continue
		}
		record, ok := player.AnswerFor(snap.CurrentQuestionIndex)
		if !ok {
			continue
		}
		env, err := playerResult(snap, block, player, record)
		if err != nil {
			return nil, err
		}
		out = append(out, Outbound{Envelope: env, TargetCID: cid})
	}
	return out, nil
}

func playerResult(snap domain.SessionSnapshot, block domain.Block, player domain.Player, record domain.AnswerRecord) (Envelope, error) {
	content := playerResultContent{
		QuestionIndex: record.QuestionIndex,
		Type:          record.BlockType,
		Rank:          player.Rank,
		TotalScore:    player.TotalScore,
		IsCorrect:     record.IsCorrect,
		Status:        string(record.Status),
		BasePoints:    record.BasePoints,
		Points:        record.FinalPoints,
		Choice:        record.Choice,
		Sequence:      record.Sequence,
		Text:          record.Text,
		PointsData:    record.PointsData,
	}

	// Reveal the correct answer, shaped per block kind.
	switch block.Type {
	case domain.BlockQuiz:
		for i := range block.Choices {
			if block.Choices[i].Correct {
				content.CorrectChoices = append(content.CorrectChoices, i)
			}
		}
	case domain.BlockJumble:
		content.CorrectSequence = make([]int, len(block.Choices))
		for i := range block.Choices {
			content.CorrectSequence[i] = i
		}
	case domain.BlockOpenEnded:
		for i := range block.Choices {
			content.CorrectTexts = append(content.CorrectTexts, block.Choices[i].Answer)
		}
	case domain.BlockSurvey:
		// nothing to reveal
	}

	raw, err := EncodeContent(content)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Channel: ChannelPlayer,
		Data: Data{
			GameID:  snap.Code,
			Type:    TypeMessage,
			ID:      MsgPlayerResult,
			Content: raw,
			CID:     player.ClientID,
		},
	}, nil
}

func computeStats(snap domain.SessionSnapshot, block domain.Block) statsContent {
	stats := statsContent{
		QuestionIndex: snap.CurrentQuestionIndex,
		Type:          block.Type,
	}
	if len(block.Choices) > 0 && block.Type != domain.BlockOpenEnded {
		stats.ChoiceCounts = make([]int, len(block.Choices))
	}
	for _, player := range snap.Players {
		record, ok := player.AnswerFor(snap.CurrentQuestionIndex)
		if !ok {
			continue
		}
		switch record.Status {
		case domain.AnswerCorrect:
			stats.CorrectCount++
		case domain.AnswerWrong:
			stats.IncorrectCount++
		case domain.AnswerTimeout:
			stats.UnansweredCount++
		}
		if record.Choice != nil && stats.ChoiceCounts != nil {
			if c := *record.Choice; c >= 0 && c < len(stats.ChoiceCounts) {
				stats.ChoiceCounts[c]++
			}
		}
	}
	return stats
}

// standings orders non-kicked players by rank and attaches score and rank
// deltas against the standings frozen at question-open time.
func standings(snap domain.SessionSnapshot) []scoreboardEntry {
	entries := make([]scoreboardEntry, 0, len(snap.Players))
	for cid, player := range snap.Players {
		if player.PlayerStatus == domain.PlayerKicked {
			continue
		}
		entry := scoreboardEntry{
			CID:        cid,
			Nickname:   player.Nickname,
			TotalScore: player.TotalScore,
			Rank:       player.Rank,
			Streak:     player.CurrentStreak,
		}
		if prev, ok := snap.PreviousStandings[cid]; ok {
			entry.ScoreDelta = player.TotalScore - prev.Score
			if prev.Rank > 0 && player.Rank > 0 {
				entry.RankDelta = prev.Rank - player.Rank
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return entries
}

// stripChoices withholds correctness data from the player broadcast. For
// jumble blocks the definition order is the answer, so choices are
// shuffled and tagged with their original index for submission mapping.
// Open-ended choices hold the acceptable answers and are never sent.
func stripChoices(block domain.Block) []strippedChoice {
	switch block.Type {
	case domain.BlockOpenEnded:
		return nil
	case domain.BlockJumble:
		choices := make([]strippedChoice, len(block.Choices))
		for i := range block.Choices {
			original := i
			choices[i] = strippedChoice{
				Answer:        block.Choices[i].Answer,
				Image:         block.Choices[i].Image,
				OriginalIndex: &original,
			}
		}
		rand.Shuffle(len(choices), func(i, j int) {
			choices[i], choices[j] = choices[j], choices[i]
		})
		return choices
	}

	choices := make([]strippedChoice, len(block.Choices))
	for i := range block.Choices {
		choices[i] = strippedChoice{
			Answer: block.Choices[i].Answer,
			Image:  block.Choices[i].Image,
		}
	}
	return choices
}

func broadcast(gameID string, id int, content any) (Envelope, error) {
	raw, err := EncodeContent(content)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Channel: ChannelPlayer,
		Data: Data{
			GameID:  gameID,
			Type:    TypeMessage,
			ID:      id,
			Content: raw,
		},
	}, nil
}
