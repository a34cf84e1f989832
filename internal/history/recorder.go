// Package history records finished quizzes and serves them back.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/db"
	"github.com/gokatarajesh/brainwave/internal/leaderboard"
	"github.com/gokatarajesh/brainwave/internal/quiz"
	"github.com/gokatarajesh/brainwave/internal/scoring"
)

// ResultWriter persists graded results.
type ResultWriter interface {
	Save(ctx context.Context, result quiz.Result, summary scoring.Summary) (db.QuizResult, error)
}

// Board accumulates results into leaderboards.
type Board interface {
	RecordResult(ctx context.Context, req leaderboard.RecordRequest) error
}

// Recorder fans a finished quiz out to the results table and the leaderboards.
// Either destination may be nil.
type Recorder struct {
	results ResultWriter
	board   Board
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRecorder(results ResultWriter, board Board, logger zerolog.Logger) *Recorder {
	return &Recorder{
		results: results,
		board:   board,
		logger:  logger.With().Str("component", "history").Logger(),
		now:     time.Now,
	}
}

// Record stores result in every configured destination. A failing
// destination does not stop the others.
func (r *Recorder) Record(ctx context.Context, result quiz.Result, summary scoring.Summary) error {
	var errs []error

	if r.results != nil {
		row, err := r.results.Save(ctx, result, summary)
		if err != nil {
			errs = append(errs, fmt.Errorf("save result: %w", err))
		} else {
			r.logger.Debug().Str("result_id", row.ResultID.String()).Msg("result stored")
		}
	}

	if r.board != nil {
		if err := r.board.RecordResult(ctx, leaderboard.RequestFor(result, r.now())); err != nil {
			errs = append(errs, fmt.Errorf("update leaderboard: %w", err))
		}
	}

	return errors.Join(errs...)
}
