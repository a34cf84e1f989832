package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Filler generates a batch and parks it in the cache.
type Filler interface {
	Fill(ctx context.Context, req Request) error
}

// Prefetcher warms the batch cache so a replayed setup starts without waiting
// on the providers. When warming fails the request is handed to the async
// generator, if one is configured.
type Prefetcher struct {
	filler  Filler
	enqueue Enqueuer
	queue   chan Request
	logger  zerolog.Logger
	timeout time.Duration
}

func NewPrefetcher(filler Filler, enqueue Enqueuer, logger zerolog.Logger, timeout time.Duration, buffer int) *Prefetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if buffer <= 0 {
		buffer = 32
	}
	return &Prefetcher{
		filler:  filler,
		enqueue: enqueue,
		queue:   make(chan Request, buffer),
		logger:  logger.With().Str("component", "question_prefetcher").Logger(),
		timeout: timeout,
	}
}

// Request queues a prefetch. It never blocks; a full queue drops the request.
func (p *Prefetcher) Request(req Request) bool {
	select {
	case p.queue <- req:
		return true
	default:
		p.logger.Debug().Str("topic", req.Topic).Msg("prefetch queue full, dropping request")
		return false
	}
}

// Run blocks until context cancellation.
func (p *Prefetcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("question prefetcher stopping")
			return nil
		case req := <-p.queue:
			p.handle(ctx, req)
		}
	}
}

func (p *Prefetcher) handle(parent context.Context, req Request) {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	err := p.filler.Fill(ctx, req)
	if err == nil {
		p.logger.Debug().Str("topic", req.Topic).Int("level", req.Level).Msg("batch prefetched")
		return
	}

	p.logger.Warn().Err(err).Str("topic", req.Topic).Msg("prefetch failed")
	if p.enqueue != nil {
		if enqueueErr := p.enqueue.Enqueue(ctx, req); enqueueErr != nil {
			p.logger.Error().Err(enqueueErr).Msg("generator enqueue failed")
		}
	}
}
