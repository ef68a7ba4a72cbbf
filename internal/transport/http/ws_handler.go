package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/app"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/protocol"
)

// WSHandler wires websocket connections into the coordinator. Host and
// player sockets both speak the envelope protocol; the handler decodes
// inbound envelopes, dispatches them, and fans session snapshots back out
// as outbound envelopes.
type WSHandler struct {
	coordinator *app.Coordinator
	upgrader    websocket.Upgrader
}

func NewWSHandler(coordinator *app.Coordinator) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// identity is the canonical player id for one connection. It starts as
// the query-param (or generated) cid and is rebound when a join carries
// its own cid, so answers, targeted results and the disconnect flip all
// use the id the player joined under.
type identity struct {
	mu  sync.Mutex
	cid string
}

func (id *identity) Get() string {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.cid
}

func (id *identity) Set(cid string) {
	id.mu.Lock()
	id.cid = cid
	id.mu.Unlock()
}

type createSessionRequest struct {
	QuizID string `json:"quizId"`
	HostID string `json:"hostId,omitempty"`
}

type createSessionResponse struct {
	PIN    string `json:"pin"`
	QuizID string `json:"quizId"`
	HostID string `json:"hostId"`
}

// CreateSession lets the host surface allocate a session and obtain its
// PIN before opening the websocket.
func (h *WSHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	session, err := h.coordinator.CreateSession(r.Context(), req.QuizID, req.HostID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createSessionResponse{
		PIN:    session.Code(),
		QuizID: session.Quiz().ID,
		HostID: session.HostID(),
	})
}

// ServeWS upgrades the request and runs the connection's read loop.
// role=host drives the flow; role=player joins and answers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	role := r.URL.Query().Get("role")
	if pin == "" || (role != "host" && role != "player") {
		http.Error(w, "missing pin or role", http.StatusBadRequest)
		return
	}
	session, ok := h.coordinator.Session(pin)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	cid := r.URL.Query().Get("cid")
	if cid == "" {
		cid = uuid.NewString()
	}
	ident := &identity{cid: cid}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.coordinator.Subscribe(pin)
	if err != nil {
		_ = conn.WriteJSON(errorEnvelope(pin, err.Error()))
		return
	}
	defer cancel()

	send := make(chan protocol.Envelope, 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for env := range send {
			if err := conn.WriteJSON(env); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		h.pumpSnapshots(session.Quiz(), updates, send, closeSignals, role, ident)
	}()

	joined := false
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		inbound, err := protocol.DecodeInbound(raw, time.Now())
		if err != nil {
			// Unrecognized shapes are logged and dropped, never fatal.
			log.Printf("session %s: dropping unknown message", pin)
			continue
		}
		h.dispatch(r, pin, role, ident, inbound, send, &joined)
	}

	if role == "player" && joined {
		_ = h.coordinator.SetConnection(pin, ident.Get(), false, time.Now())
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, pin, role string, ident *identity, inbound protocol.Inbound, send chan<- protocol.Envelope, joined *bool) {
	ctx := r.Context()
	switch msg := inbound.(type) {
	case protocol.JoinMessage:
		if role != "player" {
			return
		}
		id := msg.CID
		if id == "" {
			id = ident.Get()
		}
		if err := h.coordinator.Join(ctx, pin, id, msg.Nickname, msg.AvatarID, msg.Timestamp); err != nil {
			trySend(send, errorEnvelope(pin, err.Error()))
			return
		}
		ident.Set(id)
		*joined = true

	case protocol.AnswerMessage:
		if role != "player" {
			return
		}
		id := msg.CID
		if id == "" {
			id = ident.Get()
		}
		err := h.coordinator.SubmitAnswer(ctx, pin, id, msg.Submission, msg.Timestamp)
		if err != nil && !errors.Is(err, domain.ErrRejected) {
			log.Printf("session %s: submit from %s failed: %v", pin, id, err)
		}

	case protocol.AvatarMessage:
		if role != "player" {
			return
		}
		id := msg.CID
		if id == "" {
			id = ident.Get()
		}
		if err := h.coordinator.SetAvatar(pin, id, msg.AvatarID, msg.Timestamp); err != nil {
			trySend(send, errorEnvelope(pin, err.Error()))
		}

	case protocol.ControlMessage:
		if role != "host" {
			return
		}
		var err error
		switch msg.Action {
		case protocol.ActionNext:
			_, err = h.coordinator.Advance(ctx, pin)
		case protocol.ActionSkip:
			_, err = h.coordinator.Skip(ctx, pin)
		case protocol.ActionKick:
			err = h.coordinator.Kick(ctx, pin, msg.TargetCID)
		}
		if err != nil {
			trySend(send, errorEnvelope(pin, err.Error()))
		}
	}
}

// pumpSnapshots turns session snapshots into outbound envelopes for this
// connection. Broadcast messages for a state are emitted once per state
// entry; intermediate snapshots (joins, answer counts) only refresh the
// host snapshot.
func (h *WSHandler) pumpSnapshots(quiz domain.Quiz, updates <-chan domain.SessionSnapshot, send chan<- protocol.Envelope, closeSignals <-chan struct{}, role string, ident *identity) {
	var lastStatus domain.SessionStatus
	lastIndex := -2

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			stateChanged := snap.Status != lastStatus || snap.CurrentQuestionIndex != lastIndex
			lastStatus = snap.Status
			lastIndex = snap.CurrentQuestionIndex

			if role == "host" {
				env, err := protocol.HostSnapshot(snap)
				if err == nil {
					if !deliver(send, closeSignals, env) {
						return
					}
				}
			}
			if !stateChanged {
				continue
			}

			outs, err := protocol.MessagesFor(snap, quiz)
			if err != nil {
				log.Printf("session %s: encode outbound: %v", snap.Code, err)
				continue
			}
			for _, out := range outs {
				if out.TargetCID != "" && (role != "player" || out.TargetCID != ident.Get()) {
					continue
				}
				if !deliver(send, closeSignals, out.Envelope) {
					return
				}
			}
		case <-closeSignals:
			return
		}
	}
}

func deliver(send chan<- protocol.Envelope, closeSignals <-chan struct{}, env protocol.Envelope) bool {
	select {
	case send <- env:
		return true
	case <-closeSignals:
		return false
	}
}

func trySend(send chan<- protocol.Envelope, env protocol.Envelope) {
	select {
	case send <- env:
	default:
	}
}

func errorEnvelope(pin, message string) protocol.Envelope {
	content, _ := protocol.EncodeContent(map[string]string{"message": message})
	return protocol.Envelope{
		Channel: protocol.ChannelPlayer,
		Data: protocol.Data{
			GameID:  pin,
			Type:    "error",
			Content: content,
		},
	}
}
