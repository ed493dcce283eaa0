package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the session stream handler. An empty allowedOrigins permits all origins.
func NewWSHandler(service *app.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log.With().Str("component", "ws_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type optionPayload struct {
	Option int `json:"option"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type tickPayload struct {
	Remaining     int    `json:"remaining"`
	RemainingText string `json:"remainingText"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
}

// ServeWS streams one session: state changes, countdown ticks and the final report.
// Clients drive the session with answer, next, previous, jump and submit messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	session, err := h.service.Session(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// push never blocks once the writer has gone away.
	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("session_id", sessionID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				for _, msg := range translateUpdate(update) {
					select {
					case send <- msg:
					case <-writerDone:
						return
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound); err != nil {
			code, msg := wsError(err)
			if !push(outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: msg}}) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(session *app.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "answer":
		var payload optionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.SelectAnswer(payload.Option)
	case "next":
		return session.Next()
	case "previous":
		return session.Previous()
	case "jump":
		var payload indexPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.JumpTo(payload.Index)
	case "submit":
		if sub, _ := session.Submit(); sub.SessionID == "" {
			return domain.ErrSessionNotActive
		}
		return nil
	default:
		return errUnsupported
	}
}

// translateUpdate turns a session update into the messages sent to the client.
// Completion carries the submission and its scored report.
func translateUpdate(update domain.SessionUpdate) []outboundMessage[any] {
	switch update.Kind {
	case domain.UpdateTick:
		return []outboundMessage[any]{{Type: "tick", Payload: tickPayload{
			Remaining:     update.State.TimeRemainingSeconds,
			RemainingText: app.FormatClock(update.State.TimeRemainingSeconds),
		}}}
	case domain.UpdateCompleted:
		msgs := []outboundMessage[any]{{Type: "state", Payload: newSessionView(update.State)}}
		if update.Submission != nil {
			sub := *update.Submission
			msgs = append(msgs,
				outboundMessage[any]{Type: "completed", Payload: sub},
				outboundMessage[any]{Type: "report", Payload: newReportView(app.Score(sub))},
			)
		}
		return msgs
	default:
		return []outboundMessage[any]{{Type: "state", Payload: newSessionView(update.State)}}
	}
}

type wsProtocolError string

func (e wsProtocolError) Error() string { return string(e) }

const (
	errInvalidPayload wsProtocolError = "invalid payload"
	errUnsupported    wsProtocolError = "unsupported message type"
)

func wsError(err error) (ErrCode, string) {
	switch err {
	case errInvalidPayload:
		return ErrInvalidPayload, message(ErrInvalidPayload)
	case errUnsupported:
		return ErrInvalidPayload, errUnsupported.Error()
	}
	for _, m := range []struct {
		target error
		code   ErrCode
	}{
		{domain.ErrSessionNotActive, ErrSessionNotActive},
		{domain.ErrInvalidNavigation, ErrInvalidNavigation},
		{domain.ErrOptionNotFound, ErrInvalidOption},
	} {
		if errors.Is(err, m.target) {
			return m.code, message(m.code)
		}
	}
	return ErrInternal, message(ErrInternal)
}
