package protocol

import (
	"encoding/json"
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// Inbound is the sealed set of typed messages the decoder can produce.
type Inbound interface {
	isInbound()
}

// JoinMessage registers or refreshes a player.
type JoinMessage struct {
	GameID    string
	CID       string
	Nickname  string
	AvatarID  *int
	Timestamp time.Time
}

// AnswerMessage carries one answer submission.
type AnswerMessage struct {
	GameID     string
	CID        string
	Submission domain.AnswerSubmission
	Timestamp  time.Time
}

// AvatarMessage changes a player's avatar.
type AvatarMessage struct {
	GameID    string
	CID       string
	AvatarID  int
	Timestamp time.Time
}

// ControlMessage is a host flow command (NEXT, SKIP, KICK).
type ControlMessage struct {
	GameID    string
	Action    string
	TargetCID string
}

func (JoinMessage) isInbound()    {}
func (AnswerMessage) isInbound()  {}
func (AvatarMessage) isInbound()  {}
func (ControlMessage) isInbound() {}

type joinContent struct {
	Name     string `json:"name"`
	AvatarID *int   `json:"avatarId,omitempty"`
}

type answerContent struct {
	Type          string          `json:"type"`
	Choice        json.RawMessage `json:"choice,omitempty"`
	Text          string          `json:"text,omitempty"`
	QuestionIndex int             `json:"questionIndex"`
}

type avatarContent struct {
	AvatarID int `json:"avatarId"`
}

type controlContent struct {
	Action string `json:"action"`
	CID    string `json:"cid,omitempty"`
}

// DecodeInbound classifies a raw wire message into a typed inbound value.
// The client-reported timetrack is used as the submission timestamp when
// present, otherwise received (the server receive time) applies.
func DecodeInbound(raw []byte, received time.Time) (Inbound, error) {
	env, err := Unmarshal(raw)
	if err != nil {
		return nil, ErrUnknownMessage
	}
	return DecodeEnvelope(env, received)
}

// DecodeEnvelope routes an already-parsed envelope.
func DecodeEnvelope(env Envelope, received time.Time) (Inbound, error) {
	ts := received
	if env.Ext != nil && env.Ext.Timetrack > 0 {
		ts = time.UnixMilli(env.Ext.Timetrack)
	}

	switch env.Data.Type {
	case TypeLogin, TypeJoined, TypeIdentify:
		var content joinContent
		if err := DecodeContent(env.Data.Content, &content); err != nil {
			return nil, ErrUnknownMessage
		}
		if env.Data.CID == "" || content.Name == "" {
			return nil, ErrUnknownMessage
		}
		return JoinMessage{
			GameID:    env.Data.GameID,
			CID:       env.Data.CID,
			Nickname:  content.Name,
			AvatarID:  content.AvatarID,
			Timestamp: ts,
		}, nil

	case TypeGameControl:
		var content controlContent
		if err := DecodeContent(env.Data.Content, &content); err != nil {
			return nil, ErrUnknownMessage
		}
		switch content.Action {
		case ActionNext, ActionSkip, ActionKick:
			return ControlMessage{GameID: env.Data.GameID, Action: content.Action, TargetCID: content.CID}, nil
		}
		return nil, ErrUnknownMessage
	}

	switch env.Data.ID {
	case MsgAnswer, MsgAnswerAlt:
		return decodeAnswer(env, ts)
	case MsgAvatarChange:
		var content avatarContent
		if err := DecodeContent(env.Data.Content, &content); err != nil {
			return nil, ErrUnknownMessage
		}
		if env.Data.CID == "" {
			return nil, ErrUnknownMessage
		}
		return AvatarMessage{GameID: env.Data.GameID, CID: env.Data.CID, AvatarID: content.AvatarID, Timestamp: ts}, nil
	}

	return nil, ErrUnknownMessage
}

func decodeAnswer(env Envelope, ts time.Time) (Inbound, error) {
	var content answerContent
	if err := DecodeContent(env.Data.Content, &content); err != nil {
		return nil, ErrUnknownMessage
	}
	if env.Data.CID == "" {
		return nil, ErrUnknownMessage
	}

	blockType := domain.BlockType(content.Type)
	var answer domain.Answer
	switch blockType {
	case domain.BlockQuiz, domain.BlockSurvey:
		choice, err := decodeSingleChoice(content.Choice)
		if err != nil {
			return nil, ErrUnknownMessage
		}
		answer = domain.ChoiceAnswer{Choice: choice}
	case domain.BlockJumble:
		var sequence []int
		if err := json.Unmarshal(content.Choice, &sequence); err != nil {
			return nil, ErrUnknownMessage
		}
		answer = domain.JumbleAnswer{Sequence: sequence}
	case domain.BlockOpenEnded:
		answer = domain.TextAnswer{Text: content.Text}
	default:
		return nil, ErrUnknownMessage
	}

	return AnswerMessage{
		GameID: env.Data.GameID,
		CID:    env.Data.CID,
		Submission: domain.AnswerSubmission{
			QuestionIndex: content.QuestionIndex,
			BlockType:     blockType,
			Answer:        answer,
		},
		Timestamp: ts,
	}, nil
}

func decodeSingleChoice(raw json.RawMessage) (int, error) {
	var choice int
	if err := json.Unmarshal(raw, &choice); err != nil {
		return 0, err
	}
	return choice, nil
}
