package question

import (
	"context"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// Request asks a provider for a batch of questions.
type Request struct {
	Topic string `json:"topic"`
	Level int    `json:"level"`
	Count int    `json:"count"`
}

// RequestFor builds the provider request for a validated quiz config.
func RequestFor(cfg quiz.Config) Request {
	return Request{Topic: cfg.Topic, Level: cfg.Level, Count: cfg.QuestionCount}
}

// Provider produces questions for a request. Implementations may return fewer
// questions than asked for; callers treat a short batch as the whole quiz.
type Provider interface {
	Generate(ctx context.Context, req Request) ([]quiz.Question, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) ([]quiz.Question, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) ([]quiz.Question, error) {
	return f(ctx, req)
}

// Source is a named provider in the fallback chain.
type Source struct {
	Name     string
	Provider Provider
}

// Enqueuer asks an asynchronous generator to prepare a batch for later.
type Enqueuer interface {
	Enqueue(ctx context.Context, req Request) error
}
