package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/metrics"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

// Service orchestrates the batch cache and the provider chain: cached batch -> AI -> external trivia.
type Service struct {
	cache   BatchCache
	sources []Source
	logger  zerolog.Logger
}

var _ Provider = (*Service)(nil)

func NewService(cache BatchCache, sources []Source, logger zerolog.Logger) *Service {
	return &Service{
		cache:   cache,
		sources: sources,
		logger:  logger.With().Str("component", "question_service").Logger(),
	}
}

// Generate returns at most req.Count questions. Every failure comes back as a
// *quiz.GenerationError carrying the last cause seen.
func (s *Service) Generate(ctx context.Context, req Request) ([]quiz.Question, error) {
	if req.Count <= 0 {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("invalid question count %d", req.Count))
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Take(ctx, req)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("topic", req.Topic).Msg("question cache lookup failed")
		case ok:
			metrics.CacheLookup(true)
			return truncate(cached, req.Count), nil
		default:
			metrics.CacheLookup(false)
		}
	}

	return s.fromSources(ctx, req)
}

// Fill generates a batch straight from the providers and parks it in the cache.
func (s *Service) Fill(ctx context.Context, req Request) error {
	if s.cache == nil {
		return errors.New("question cache not configured")
	}
	questions, err := s.fromSources(ctx, req)
	if err != nil {
		return err
	}
	return s.cache.Put(ctx, req, questions)
}

func (s *Service) fromSources(ctx context.Context, req Request) ([]quiz.Question, error) {
	if len(s.sources) == 0 {
		return nil, quiz.NewGenerationError(quiz.FailureTransport, errors.New("no question providers configured"))
	}

	var lastErr error
	for _, src := range s.sources {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		start := time.Now()
		questions, err := src.Provider.Generate(ctx, req)
		metrics.ObserveGeneration(src.Name, time.Since(start))
		if err == nil && len(questions) == 0 {
			err = quiz.ErrEmptyQuestionSet
		}
		if err != nil {
			genErr := quiz.AsGenerationError(err)
			metrics.GenerationFailed(src.Name, string(genErr.Kind))
			s.logger.Warn().Err(err).Str("provider", src.Name).Str("topic", req.Topic).Msg("question provider failed")
			lastErr = genErr
			continue
		}

		s.logger.Debug().Str("provider", src.Name).Int("count", len(questions)).Msg("questions generated")
		return truncate(questions, req.Count), nil
	}

	return nil, quiz.AsGenerationError(lastErr)
}

func truncate(questions []quiz.Question, count int) []quiz.Question {
	if len(questions) > count {
		return questions[:count]
	}
	return questions
}
