package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

var discard = zerolog.New(io.Discard)

func chatServer(t *testing.T, status int, content string, seen func(body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if seen != nil {
			seen(body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const batchJSON = `{"questions":[
 {"question":"What is H2O?","options":["Water","Salt","Air","Gold"],"correctAnswer":"Water"},
 {"question":"Closest star?","options":["Sirius","Sun","Vega","Rigel"],"correctAnswer":"Sun"}
]}`

func TestChatProviderGenerate(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, http.StatusOK, batchJSON, func(b map[string]any) { body = b })
	p := NewChatProvider(ChatConfig{APIKey: "test-key", BaseURL: srv.URL}, discard)

	qs, err := p.Generate(context.Background(), question.Request{Topic: "Science", Level: 3, Count: 2})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "What is H2O?", qs[0].Prompt)
	assert.Equal(t, 1, qs[1].CorrectIndex())

	assert.Equal(t, DefaultModel, body["model"])
	assert.InDelta(t, 0.5, body["temperature"], 0.001)
	assert.EqualValues(t, 2048, body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	system := msgs[0].(map[string]any)["content"].(string)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.Contains(t, system, `"correctAnswer"`)
	assert.Equal(t, "Generate 2 multiple-choice questions about Science for expert (scientist) level. Each question should have 4 options with only one correct answer.", user)
}

func TestChatProviderFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		content string
		kind    quiz.FailureKind
	}{
		{"bad json", http.StatusOK, "not json", quiz.FailureMalformed},
		{"missing field", http.StatusOK, `{"items":[]}`, quiz.FailureMalformed},
		{"empty content", http.StatusOK, "", quiz.FailureMalformed},
		{"empty batch", http.StatusOK, `{"questions":[]}`, quiz.FailureEmpty},
		{"http error", http.StatusTooManyRequests, "", quiz.FailureTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.content, nil)
			p := NewChatProvider(ChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/"}, discard)

			_, err := p.Generate(context.Background(), question.Request{Topic: "Tech", Level: 1, Count: 5})
			require.Error(t, err)
			assert.Equal(t, tc.kind, quiz.AsGenerationError(err).Kind)
		})
	}
}

func TestGeneratorGenerateAndEnqueue(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "Bearer gen-key", r.Header.Get("Authorization"))

		var req generatorRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "History", req.Category)
		assert.Equal(t, 2, req.Level)

		if strings.HasSuffix(r.URL.Path, "/enqueue") {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(batchJSON))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{GeneratorURL: srv.URL + "/", GeneratorKey: "gen-key"}, discard)
	req := question.Request{Topic: "History", Level: 2, Count: 2}

	qs, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, qs, 2)

	require.NoError(t, g.Enqueue(context.Background(), req))
	assert.Equal(t, []string{"/generate", "/enqueue"}, paths)
}

func TestGeneratorErrors(t *testing.T) {
	g := NewGenerator(GeneratorConfig{}, discard)
	_, err := g.Generate(context.Background(), question.Request{Topic: "x", Count: 1})
	assert.Error(t, err)
	assert.NoError(t, g.Enqueue(context.Background(), question.Request{}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g = NewGenerator(GeneratorConfig{GeneratorURL: srv.URL}, discard)
	_, err = g.Generate(context.Background(), question.Request{Topic: "x", Count: 1})
	require.Error(t, err)
	assert.Equal(t, quiz.FailureTransport, quiz.AsGenerationError(err).Kind)
	assert.Error(t, g.Enqueue(context.Background(), question.Request{Topic: "x", Count: 1}))
}
