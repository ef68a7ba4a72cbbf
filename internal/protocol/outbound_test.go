package protocol

import (
	"strings"
	"testing"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

func outboundQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Blocks: []domain.Block{
			{
				Type:  domain.BlockQuiz,
				Title: "Capital of France?",
				Choices: []domain.Choice{
					{Answer: "London"},
					{Answer: "Paris", Correct: true},
					{Answer: "Berlin"},
				},
				TimeLimitMs:      10000,
				PointsMultiplier: 1,
			},
			{
				Type:  domain.BlockJumble,
				Title: "Order the steps",
				Choices: []domain.Choice{
					{Answer: "first"},
					{Answer: "second"},
					{Answer: "third"},
				},
				TimeLimitMs:      20000,
				PointsMultiplier: 1,
			},
			{
				Type:             domain.BlockOpenEnded,
				Title:            "Type the capital",
				Choices:          []domain.Choice{{Answer: "Paris", Correct: true}},
				TimeLimitMs:      10000,
				PointsMultiplier: 1,
			},
		},
	}
}

func intptr(v int) *int { return &v }

func TestQuestionMessagesStripCorrectness(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusQuestionShow,
		CurrentQuestionIndex: 0,
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected get-ready plus question, got %d messages", len(outs))
	}
	if outs[0].Envelope.Data.ID != MsgGetReady || outs[1].Envelope.Data.ID != MsgQuestionStart {
		t.Fatalf("unexpected ids: %d %d", outs[0].Envelope.Data.ID, outs[1].Envelope.Data.ID)
	}
	for _, out := range outs {
		if out.Envelope.Data.Type != TypeMessage {
			t.Fatalf("data message missing %q type: %+v", TypeMessage, out.Envelope.Data)
		}
	}

	var content questionContent
	if err := DecodeContent(outs[1].Envelope.Data.Content, &content); err != nil {
		t.Fatalf("decode question content: %v", err)
	}
	if len(content.Choices) != 3 {
		t.Fatalf("expected 3 choices, got %d", len(content.Choices))
	}
	// Correctness must never reach the wire for an open question.
	if strings.Contains(outs[1].Envelope.Data.Content, "correct") {
		t.Fatalf("correctness leaked: %s", outs[1].Envelope.Data.Content)
	}
	for _, c := range content.Choices {
		if c.OriginalIndex != nil {
			t.Fatalf("quiz choices must not carry originalIndex: %+v", c)
		}
	}
}

func TestJumbleChoicesCarryOriginalIndex(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusQuestionShow,
		CurrentQuestionIndex: 1,
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var content questionContent
	if err := DecodeContent(outs[1].Envelope.Data.Content, &content); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(content.Choices) != 3 {
		t.Fatalf("expected 3 shuffled choices, got %d", len(content.Choices))
	}
	seen := map[int]bool{}
	for _, c := range content.Choices {
		if c.OriginalIndex == nil {
			t.Fatalf("jumble choice missing originalIndex: %+v", c)
		}
		seen[*c.OriginalIndex] = true
	}
	for i := 0; i < 3; i++ {
		if !seen[i] {
			t.Fatalf("originalIndex set is not a permutation: %v", seen)
		}
	}
}

func TestOpenEndedChoicesNeverSent(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusQuestionShow,
		CurrentQuestionIndex: 2,
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var content questionContent
	if err := DecodeContent(outs[1].Envelope.Data.Content, &content); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(content.Choices) != 0 {
		t.Fatalf("open-ended answers leaked to players: %+v", content.Choices)
	}
}

func TestStatsMessagesIncludeTargetedResults(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusShowingStats,
		CurrentQuestionIndex: 0,
		Players: map[string]domain.Player{
			"p1": {
				ClientID:     "p1",
				Nickname:     "Alice",
				IsConnected:  true,
				PlayerStatus: domain.PlayerPlaying,
				TotalScore:   900,
				Rank:         1,
				Answers: []domain.AnswerRecord{{
					QuestionIndex: 0,
					BlockType:     domain.BlockQuiz,
					Choice:        intptr(1),
					IsCorrect:     true,
					Status:        domain.AnswerCorrect,
					BasePoints:    900,
					FinalPoints:   900,
				}},
			},
			"p2": {
				ClientID:     "p2",
				Nickname:     "Bob",
				IsConnected:  true,
				PlayerStatus: domain.PlayerPlaying,
				Rank:         2,
				Answers: []domain.AnswerRecord{{
					QuestionIndex: 0,
					BlockType:     domain.BlockQuiz,
					Choice:        intptr(0),
					Status:        domain.AnswerWrong,
				}},
			},
			"p3": {
				ClientID:     "p3",
				Nickname:     "Gone",
				IsConnected:  false,
				PlayerStatus: domain.PlayerDisconnected,
				Rank:         3,
				Answers: []domain.AnswerRecord{{
					QuestionIndex: 0,
					BlockType:     domain.BlockQuiz,
					Status:        domain.AnswerTimeout,
				}},
			},
		},
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}

	var stats statsContent
	if outs[0].Envelope.Data.ID != MsgStats {
		t.Fatalf("expected stats broadcast first, got id %d", outs[0].Envelope.Data.ID)
	}
	if err := DecodeContent(outs[0].Envelope.Data.Content, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.CorrectCount != 1 || stats.IncorrectCount != 1 || stats.UnansweredCount != 1 {
		t.Fatalf("unexpected tallies: %+v", stats)
	}
	if len(stats.ChoiceCounts) != 3 || stats.ChoiceCounts[1] != 1 || stats.ChoiceCounts[0] != 1 {
		t.Fatalf("unexpected choice counts: %v", stats.ChoiceCounts)
	}

	// Disconnected players get no targeted result.
	targets := map[string]bool{}
	for _, out := range outs[1:] {
		if out.Envelope.Data.ID != MsgPlayerResult {
			t.Fatalf("expected targeted results after stats, got id %d", out.Envelope.Data.ID)
		}
		targets[out.TargetCID] = true
	}
	if !targets["p1"] || !targets["p2"] || targets["p3"] {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func TestPlayerResultRevealsCorrectAnswer(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusShowingStats,
		CurrentQuestionIndex: 0,
		Players: map[string]domain.Player{
			"p1": {
				ClientID:     "p1",
				Nickname:     "Alice",
				IsConnected:  true,
				PlayerStatus: domain.PlayerPlaying,
				Rank:         1,
				TotalScore:   900,
				Answers: []domain.AnswerRecord{{
					QuestionIndex: 0,
					BlockType:     domain.BlockQuiz,
					Choice:        intptr(1),
					IsCorrect:     true,
					Status:        domain.AnswerCorrect,
					BasePoints:    900,
					FinalPoints:   900,
				}},
			},
		},
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var result playerResultContent
	if err := DecodeContent(outs[1].Envelope.Data.Content, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsCorrect || result.Points != 900 || result.Rank != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.CorrectChoices) != 1 || result.CorrectChoices[0] != 1 {
		t.Fatalf("expected correct choice 1 revealed, got %v", result.CorrectChoices)
	}
}

func TestScoreboardDeltas(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusShowingScoreboard,
		CurrentQuestionIndex: 1,
		Players: map[string]domain.Player{
			"p1": {ClientID: "p1", Nickname: "Alice", PlayerStatus: domain.PlayerPlaying, TotalScore: 1800, Rank: 1, CurrentStreak: 2},
			"p2": {ClientID: "p2", Nickname: "Bob", PlayerStatus: domain.PlayerPlaying, TotalScore: 900, Rank: 2},
			"p3": {ClientID: "p3", Nickname: "Out", PlayerStatus: domain.PlayerKicked},
		},
		PreviousStandings: map[string]domain.Standing{
			"p1": {Score: 900, Rank: 2},
			"p2": {Score: 900, Rank: 1},
		},
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(outs) != 1 || outs[0].Envelope.Data.ID != MsgScoreboard {
		t.Fatalf("expected one scoreboard broadcast, got %+v", outs)
	}

	var content scoreboardContent
	if err := DecodeContent(outs[0].Envelope.Data.Content, &content); err != nil {
		t.Fatalf("decode scoreboard: %v", err)
	}
	if len(content.Entries) != 2 {
		t.Fatalf("kicked players must be excluded, got %d entries", len(content.Entries))
	}
	first := content.Entries[0]
	if first.CID != "p1" || first.ScoreDelta != 900 || first.RankDelta != 1 {
		t.Fatalf("unexpected leader entry: %+v", first)
	}
	second := content.Entries[1]
	if second.CID != "p2" || second.ScoreDelta != 0 || second.RankDelta != -1 {
		t.Fatalf("unexpected runner-up entry: %+v", second)
	}
}

func TestPodiumMessage(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:   "123456",
		QuizID: "quiz-1",
		Status: domain.StatusPodium,
		Players: map[string]domain.Player{
			"p1": {ClientID: "p1", Nickname: "Alice", PlayerStatus: domain.PlayerPlaying, TotalScore: 1800, Rank: 1},
		},
	}

	outs, err := MessagesFor(snap, outboundQuiz())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(outs) != 1 || outs[0].Envelope.Data.ID != MsgPodium {
		t.Fatalf("expected podium broadcast, got %+v", outs)
	}
	var content podiumContent
	if err := DecodeContent(outs[0].Envelope.Data.Content, &content); err != nil {
		t.Fatalf("decode podium: %v", err)
	}
	if content.QuizID != "quiz-1" || len(content.Entries) != 1 {
		t.Fatalf("unexpected podium: %+v", content)
	}
}

func TestLobbyAndEndedProduceNothing(t *testing.T) {
	for _, status := range []domain.SessionStatus{domain.StatusLobby, domain.StatusEnded} {
		outs, err := MessagesFor(domain.SessionSnapshot{Code: "1", Status: status}, outboundQuiz())
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		if len(outs) != 0 {
			t.Fatalf("%s: expected no messages, got %d", status, len(outs))
		}
	}
}

func TestContentSlideOnlySendsGetReady(t *testing.T) {
	quiz := domain.Quiz{
		ID:     "quiz-content",
		Blocks: []domain.Block{{Type: domain.BlockContent, Title: "Welcome"}},
	}
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		Status:               domain.StatusQuestionShow,
		CurrentQuestionIndex: 0,
	}

	outs, err := MessagesFor(snap, quiz)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(outs) != 1 || outs[0].Envelope.Data.ID != MsgGetReady {
		t.Fatalf("expected single get-ready, got %+v", outs)
	}
}

func TestHostSnapshotRoundTrip(t *testing.T) {
	snap := domain.SessionSnapshot{
		Code:                 "123456",
		QuizID:               "quiz-1",
		Status:               domain.StatusQuestionShow,
		CurrentQuestionIndex: 0,
		Players: map[string]domain.Player{
			"p1": {ClientID: "p1", Nickname: "Alice", PlayerStatus: domain.PlayerPlaying},
		},
	}

	env, err := HostSnapshot(snap)
	if err != nil {
		t.Fatalf("host snapshot: %v", err)
	}
	if env.Channel != ChannelHost || env.Data.Type != TypeSnapshot {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	var decoded domain.SessionSnapshot
	if err := DecodeContent(env.Data.Content, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Status != domain.StatusQuestionShow || decoded.Players["p1"].Nickname != "Alice" {
		t.Fatalf("snapshot lost on the wire: %+v", decoded)
	}
}
