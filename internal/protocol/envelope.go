// Package protocol translates between wire envelopes and typed messages.
// The wire contract double-encodes payloads: Data.Content is a string that
// itself contains a JSON document. External clients depend on this shape,
// so the double encode/decode is isolated here and nothing outside this
// package touches raw content strings.
package protocol

import (
	"encoding/json"
	"errors"
)

// Well-known channels.
const (
	ChannelPlayer = "/service/player"
	ChannelHost   = "/service/host"
)

// Numeric message kinds carried in Data.ID.
const (
	MsgGetReady      = 1
	MsgQuestionStart = 2
	MsgAnswer        = 6
	MsgPlayerResult  = 8
	MsgStats         = 12
	MsgScoreboard    = 13
	MsgPodium        = 14
	MsgAnswerAlt     = 45
	MsgAvatarChange  = 46
)

// Data.Type values on the wire. The first four route inbound envelopes;
// TypeMessage tags id-bearing data messages in both directions, and
// TypeSnapshot tags host state dumps.
const (
	TypeLogin       = "login"
	TypeJoined      = "joined"
	TypeIdentify    = "identify"
	TypeGameControl = "GAME_CONTROL"
	TypeMessage     = "message"
	TypeSnapshot    = "snapshot"
)

// Host control actions.
const (
	ActionNext = "NEXT"
	ActionSkip = "SKIP"
	ActionKick = "KICK"
)

// ErrUnknownMessage marks envelopes with an unrecognized shape. Callers
// log and drop them; they are never fatal.
var ErrUnknownMessage = errors.New("unknown message shape")

// Envelope is the outer wire message.
type Envelope struct {
	Channel string `json:"channel"`
	Data    Data   `json:"data"`
	Ext     *Ext   `json:"ext,omitempty"`
}

// Data is the envelope body. Content is a doubly-encoded JSON document.
type Data struct {
	GameID  string `json:"gameid"`
	Type    string `json:"type,omitempty"`
	ID      int    `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
	CID     string `json:"cid,omitempty"`
}

// Ext carries the client-reported timestamp in ms since epoch.
type Ext struct {
	Timetrack int64 `json:"timetrack"`
}

// EncodeContent marshals v into the nested content string.
func EncodeContent(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeContent parses the nested content string into v.
func DecodeContent(content string, v any) error {
	if content == "" {
		return ErrUnknownMessage
	}
	return json.Unmarshal([]byte(content), v)
}

// Marshal serializes an envelope for the transport.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses a raw wire message into an envelope.
func Unmarshal(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
