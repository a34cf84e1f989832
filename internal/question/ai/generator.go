package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// GeneratorConfig holds connection details for the external generator service.
type GeneratorConfig struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
}

// Generator talks to a standalone question generator over HTTP. It serves
// batches synchronously and accepts asynchronous warm-up requests.
type Generator struct {
	httpClient  *http.Client
	config      GeneratorConfig
	logger      zerolog.Logger
	generateURL string
	enqueueURL  string
}

var (
	_ question.Provider = (*Generator)(nil)
	_ question.Enqueuer = (*Generator)(nil)
)

func NewGenerator(cfg GeneratorConfig, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_generator").Logger(),
		generateURL: base + "/generate",
		enqueueURL:  base + "/enqueue",
	}
}

// Generate synchronously requests a batch from the generator service.
func (g *Generator) Generate(ctx context.Context, req question.Request) ([]quiz.Question, error) {
	if g.config.GeneratorURL == "" {
		return nil, fmt.Errorf("generator endpoint not configured")
	}

	resp, err := g.post(ctx, g.generateURL, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var payload questionsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("decode generator payload: %w", err))
	}
	if payload.Questions == nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("generator payload has no questions field"))
	}
	if len(payload.Questions) == 0 {
		return nil, quiz.NewGenerationError(quiz.FailureEmpty, quiz.ErrEmptyQuestionSet)
	}

	return payload.Questions, nil
}

// Enqueue notifies the generator service to prepare a future batch.
func (g *Generator) Enqueue(ctx context.Context, req question.Request) error {
	if g.config.GeneratorURL == "" {
		return nil
	}

	resp, err := g.post(ctx, g.enqueueURL, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("enqueue returned status %d", resp.StatusCode)
	}
	g.logger.Debug().Str("topic", req.Topic).Int("count", req.Count).Msg("batch enqueued")
	return nil
}

func (g *Generator) post(ctx context.Context, url string, req question.Request) (*http.Response, error) {
	body, err := json.Marshal(generatorRequest{
		Category:   req.Topic,
		Level:      req.Level,
		Difficulty: quiz.LevelDescription(req.Level),
		Count:      req.Count,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	return g.httpClient.Do(httpReq)
}

type generatorRequest struct {
	Category   string `json:"category"`
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// questionsPayload is the shared response shape: {"questions": [...]}.
type questionsPayload struct {
	Questions []quiz.Question `json:"questions"`
}
