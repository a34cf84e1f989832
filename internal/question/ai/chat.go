package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// ChatConfig configures an OpenAI-compatible chat completion endpoint.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// ChatProvider asks a chat completion model for a JSON batch of questions.
type ChatProvider struct {
	client *openai.Client
	cfg    ChatConfig
	logger zerolog.Logger
}

var _ question.Provider = (*ChatProvider)(nil)

func NewChatProvider(cfg ChatConfig, logger zerolog.Logger) *ChatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.5
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.TopP == 0 {
		cfg.TopP = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &ChatProvider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.With().Str("component", "ai_chat").Logger(),
	}
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
					"options": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": quiz.OptionsPerQuestion,
						"maxItems": quiz.OptionsPerQuestion,
					},
					"correctAnswer": map[string]any{"type": "string"},
				},
				"required": []string{"question", "options", "correctAnswer"},
			},
		},
	},
	"required": []string{"questions"},
}

func systemPrompt() string {
	schema, _ := json.MarshalIndent(questionSchema, "", "  ")
	return "You are a quiz question generator that outputs questions in JSON format. " +
		"The JSON object must use the following schema: " + string(schema)
}

func userPrompt(req question.Request) string {
	return fmt.Sprintf(
		"Generate %d multiple-choice questions about %s for %s level. Each question should have %d options with only one correct answer.",
		req.Count, req.Topic, quiz.LevelDescription(req.Level), quiz.OptionsPerQuestion,
	)
}

// Generate performs one chat completion and parses its JSON content.
func (p *ChatProvider) Generate(ctx context.Context, req question.Request) ([]quiz.Question, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		TopP:        p.cfg.TopP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("chat completion failed with status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, errors.New("unexpected chat response format"))
	}

	questions, err := parseQuestions(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().Str("topic", req.Topic).Int("count", len(questions)).Msg("chat batch parsed")
	return questions, nil
}

func parseQuestions(content string) ([]quiz.Question, error) {
	var payload questionsPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("parse chat content: %w", err))
	}
	if payload.Questions == nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, errors.New("chat content has no questions field"))
	}
	if len(payload.Questions) == 0 {
		return nil, quiz.NewGenerationError(quiz.FailureEmpty, quiz.ErrEmptyQuestionSet)
	}
	return payload.Questions, nil
}
