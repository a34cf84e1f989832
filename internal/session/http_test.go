package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/brainwave/internal/auth/jwt"
	"github.com/gokatarajesh/brainwave/internal/runner"
	"github.com/gokatarajesh/brainwave/internal/setup"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
	ws "github.com/gokatarajesh/brainwave/pkg/http/ws"
)

func newTestServer(t *testing.T) (*httptest.Server, *Manager) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	manager := NewManager(Options{
		Provider:  staticProvider(fiveQuestions(), nil),
		Scheduler: runner.NewManualScheduler(),
	}, time.Hour, logger)
	handler := NewHandler(manager, ws.NewHub(logger), logger)
	upgrader := &websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	handlers := NewHTTPHandlers(handler, jwt.NewManager(jwt.TokenConfig{Secret: []byte("test")}), setup.DefaultCatalog(), upgrader)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", handlers.CreateSession)
	mux.HandleFunc("/v1/setup/options", handlers.SetupOptions)
	mux.HandleFunc("/ws/sessions", handlers.HandleWebSocket)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, manager
}

func createSession(t *testing.T, srv *httptest.Server) createSessionResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body createSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msgType, requestID string, payload any) {
	t.Helper()
	msg, err := ws.NewMessage(msgType, payload)
	require.NoError(t, err)
	msg.RequestID = requestID
	require.NoError(t, conn.WriteJSON(msg))
}

func TestCreateSessionAndSetupOptions(t *testing.T) {
	srv, manager := newTestServer(t)

	body := createSession(t, srv)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, StateOnboarding, body.State)
	assert.Equal(t, 1, manager.Len())

	resp, err := http.Get(srv.URL + "/v1/setup/options")
	require.NoError(t, err)
	defer resp.Body.Close()
	var cat setup.Catalog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Contains(t, cat.Categories, "Geography")
	assert.Equal(t, setup.CustomCategory, cat.CustomCategory)

	resp2, err := http.Get(srv.URL + "/v1/sessions")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketSessionFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createSession(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions?token=" + created.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var state ws.SessionStatePayload
	msg := readMessage(t, conn)
	require.Equal(t, ws.TypeSessionState, msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, string(StateOnboarding), state.State)
	assert.Equal(t, created.SessionID, state.SessionID)

	send(t, conn, ws.TypeSubmitName, "", ws.SubmitNamePayload{Name: "Grace"})
	msg = readMessage(t, conn)
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, string(StateSetup), state.State)
	assert.Equal(t, uint64(1), state.Seq)

	send(t, conn, ws.TypeStartQuiz, "r1", ws.StartQuizPayload{Category: setup.CustomCategory})
	msg = readMessage(t, conn)
	require.Equal(t, ws.TypeError, msg.Type)
	assert.Equal(t, "r1", msg.RequestID)
	var errPayload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, httperrors.ErrCodeValidationFailed, errPayload.Code)
	assert.Equal(t, "custom_topic", errPayload.Field)

	send(t, conn, "dance", "r2", struct{}{})
	msg = readMessage(t, conn)
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, httperrors.ErrCodeUnknownMessageType, errPayload.Code)

	send(t, conn, ws.TypeNextQuestion, "r3", struct{}{})
	msg = readMessage(t, conn)
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, httperrors.ErrCodeActionUnavailable, errPayload.Code)

	send(t, conn, ws.TypeRequestState, "r4", struct{}{})
	msg = readMessage(t, conn)
	assert.Equal(t, ws.TypeSessionState, msg.Type)
	assert.Equal(t, "r4", msg.RequestID)

	send(t, conn, ws.TypePing, "r5", struct{}{})
	msg = readMessage(t, conn)
	assert.Equal(t, ws.TypePong, msg.Type)
	assert.Equal(t, "r5", msg.RequestID)

	send(t, conn, ws.TypeStartQuiz, "", ws.StartQuizPayload{Category: "History", Level: 3})
	for {
		msg = readMessage(t, conn)
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		view, _ := json.Marshal(state.View)
		if strings.Contains(string(view), `"phase":"active"`) {
			assert.Contains(t, string(view), `"remaining_seconds":15`)
			break
		}
	}
}
