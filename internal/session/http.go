package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gokatarajesh/brainwave/internal/auth/jwt"
	"github.com/gokatarajesh/brainwave/internal/setup"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
)

// HTTPHandlers exposes session creation, setup options and the WebSocket upgrade.
type HTTPHandlers struct {
	ws       *Handler
	tokens   *jwt.Manager
	catalog  setup.Catalog
	upgrader *websocket.Upgrader
}

func NewHTTPHandlers(ws *Handler, tokens *jwt.Manager, catalog setup.Catalog, upgrader *websocket.Upgrader) *HTTPHandlers {
	return &HTTPHandlers{ws: ws, tokens: tokens, catalog: catalog, upgrader: upgrader}
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	State     State     `json:"state"`
}

// CreateSession handles POST /v1/sessions.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	sess := h.ws.manager.Create()
	token, expires, err := h.tokens.Issue(sess.ID())
	if err != nil {
		h.ws.manager.Remove(sess.ID())
		h.ws.logger.Error().Err(err).Msg("failed to sign session token")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeTokenIssueFailed, "Could not create session")
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID().String(),
		Token:     token,
		ExpiresAt: expires,
		State:     sess.Current().View.State(),
	})
}

// SetupOptions handles GET /v1/setup/options.
func (h *HTTPHandlers) SetupOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, h.catalog)
}

// HandleWebSocket upgrades the connection for the session named by the token query parameter.
func (h *HTTPHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.ws.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		code := httperrors.ErrCodeInvalidToken
		if errors.Is(err, jwt.ErrExpiredToken) {
			code = httperrors.ErrCodeTokenExpired
		}
		httperrors.RespondUnauthorized(w, code, "Invalid token")
		return
	}

	sess, err := h.ws.manager.Get(claims.SessionID)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.ws.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.ws.HandleConnection(conn, sess)
}
