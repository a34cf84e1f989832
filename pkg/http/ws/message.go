package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeSubmitName   = "submit_name"
	TypeStartQuiz    = "start_quiz"
	TypeSelectAnswer = "select_answer"
	TypeNextQuestion = "next_question"
	TypeRestart      = "restart"
	TypeRequestState = "request_state"

	// Server -> Client
	TypeSessionState      = "session_state"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePing              = "ping"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Client Messages (incoming)

type SubmitNamePayload struct {
	Name string `json:"name"`
}

type StartQuizPayload struct {
	Category           string `json:"category"`
	CustomTopic        string `json:"custom_topic,omitempty"`
	Level              int    `json:"level"`
	SecondsPerQuestion int    `json:"seconds_per_question"`
	QuestionCount      int    `json:"question_count"`
}

type SelectAnswerPayload struct {
	Index int `json:"index"`
}

// Server Messages (outgoing)

type SessionStatePayload struct {
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	State     string `json:"state"`
	View      any    `json:"view"`
}

type LeaderboardUpdatePayload struct {
	Topic  string             `json:"topic"`
	Window string             `json:"window"`
	Top    []LeaderboardEntry `json:"top"`
}

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Games      int     `json:"games"`
	Accuracy   float64 `json:"accuracy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
