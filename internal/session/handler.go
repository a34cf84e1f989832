package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/runner"
	"github.com/gokatarajesh/brainwave/internal/setup"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
	ws "github.com/gokatarajesh/brainwave/pkg/http/ws"
)

// Handler bridges WebSocket connections and sessions.
type Handler struct {
	manager *Manager
	hub     *ws.Hub
	logger  zerolog.Logger
}

// NewHandler creates a session WebSocket handler.
func NewHandler(manager *Manager, hub *ws.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		hub:     hub,
		logger:  logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleConnection serves one connection until the client goes away.
// The token has already been validated and resolved to sess.
func (h *Handler) HandleConnection(conn *websocket.Conn, sess *Session) {
	sessionID := sess.ID()
	wsConn := ws.NewConnection(conn, h.logger.With().Str("session_id", sessionID.String()).Logger())
	h.hub.RegisterConnection(sessionID, wsConn)

	sess.Listen(func(u Update) {
		if err := h.sendState(sessionID, u, ""); err != nil {
			h.logger.Debug().Err(err).Str("session_id", sessionID.String()).Msg("state push failed")
		}
	})

	go wsConn.WritePump()

	// initial render
	_ = h.sendState(sessionID, sess.Current(), "")

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), sess, msg)
	})

	sess.Listen(nil)
	h.hub.UnregisterConnection(sessionID, wsConn)
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, sess *Session, msg ws.Message) error {
	sessionID := sess.ID()

	var action Action
	switch msg.Type {
	case ws.TypeSubmitName:
		var req ws.SubmitNamePayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(sessionID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_name payload", "")
		}
		action = SubmitName{Name: req.Name}
	case ws.TypeStartQuiz:
		var req ws.StartQuizPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(sessionID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid start_quiz payload", "")
		}
		action = StartQuiz{Draft: setup.Draft{
			Category:           req.Category,
			CustomTopic:        req.CustomTopic,
			Level:              req.Level,
			SecondsPerQuestion: req.SecondsPerQuestion,
			QuestionCount:      req.QuestionCount,
		}}
	case ws.TypeSelectAnswer:
		var req ws.SelectAnswerPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(sessionID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload", "")
		}
		action = SelectAnswer{Index: req.Index}
	case ws.TypeNextQuestion:
		action = NextQuestion{}
	case ws.TypeRestart:
		action = Restart{}
	case ws.TypeRequestState:
		return h.sendState(sessionID, sess.Current(), msg.RequestID)
	case ws.TypePing:
		pong, err := ws.NewMessage(ws.TypePong, struct{}{})
		if err != nil {
			return err
		}
		pong.RequestID = msg.RequestID
		return h.hub.Send(sessionID, pong)
	default:
		return h.sendError(sessionID, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type), "")
	}

	if err := sess.Dispatch(ctx, action); err != nil {
		code, message, field := describeError(err)
		return h.sendError(sessionID, msg.RequestID, code, message, field)
	}
	return nil
}

func describeError(err error) (code, message, field string) {
	var rej *setup.RejectionError
	switch {
	case errors.As(err, &rej):
		return httperrors.ErrCodeValidationFailed, rej.Reason, rej.Field
	case errors.Is(err, runner.ErrInvalidOption):
		return httperrors.ErrCodeInvalidOption, "Answer index out of range", ""
	case errors.Is(err, ErrSessionClosed):
		return httperrors.ErrCodeSessionClosed, "Session has ended", ""
	case errors.Is(err, ErrActionUnavailable):
		return httperrors.ErrCodeActionUnavailable, "That action is not available right now", ""
	default:
		return httperrors.ErrCodeInternalError, "Unexpected error", ""
	}
}

func (h *Handler) sendState(sessionID uuid.UUID, u Update, requestID string) error {
	msg, err := ws.NewMessage(ws.TypeSessionState, ws.SessionStatePayload{
		SessionID: sessionID.String(),
		Seq:       u.Seq,
		State:     string(u.View.State()),
		View:      u.View,
	})
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return h.hub.Send(sessionID, msg)
}

func (h *Handler) sendError(sessionID uuid.UUID, requestID, code, message, field string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
		Field:   field,
	})
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return h.hub.Send(sessionID, msg)
}
