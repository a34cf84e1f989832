package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/brainwave/internal/db"
	"github.com/gokatarajesh/brainwave/internal/quiz"
	"github.com/gokatarajesh/brainwave/internal/scoring"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ErrPlayerRequired is returned when results are listed without a player name.
var ErrPlayerRequired = errors.New("player name required")

type resultStore interface {
	InsertQuizResult(ctx context.Context, arg db.InsertQuizResultParams) (db.QuizResult, error)
	ListResultsByPlayer(ctx context.Context, arg db.ListResultsByPlayerParams) ([]db.QuizResult, error)
	TopPlayersByTopic(ctx context.Context, arg db.TopPlayersByTopicParams) ([]db.TopPlayersByTopicRow, error)
}

// ResultRepository persists finished quizzes.
type ResultRepository struct {
	store resultStore
	now   func() time.Time
	newID func() uuid.UUID
}

// NewResultRepository constructs a new result repository.
func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store, now: time.Now, newID: uuid.New}
}

// Save stores one result with its graded summary.
func (r *ResultRepository) Save(ctx context.Context, result quiz.Result, summary scoring.Summary) (db.QuizResult, error) {
	return r.store.InsertQuizResult(ctx, db.InsertQuizResultParams{
		ResultID:     r.newID(),
		PlayerName:   strings.TrimSpace(result.PlayerName),
		Topic:        result.Topic,
		TopicKey:     quiz.NormalizeTopic(result.Topic),
		Level:        int16(result.Level),
		CorrectCount: int32(result.CorrectCount),
		TotalCount:   int32(result.TotalCount),
		Percentage:   int32(summary.Percentage),
		Grade:        summary.Grade,
		CompletedAt:  r.now().UTC(),
	})
}

// RecentByPlayer lists a player's latest results, newest first.
func (r *ResultRepository) RecentByPlayer(ctx context.Context, player string, limit int) ([]db.QuizResult, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, ErrPlayerRequired
	}
	return r.store.ListResultsByPlayer(ctx, db.ListResultsByPlayerParams{
		PlayerName: player,
		Limit:      clampLimit(limit),
	})
}

// TopPlayers aggregates correct answers per player for a topic since the given instant.
func (r *ResultRepository) TopPlayers(ctx context.Context, topic string, since time.Time, limit int) ([]db.TopPlayersByTopicRow, error) {
	return r.store.TopPlayersByTopic(ctx, db.TopPlayersByTopicParams{
		TopicKey: quiz.NormalizeTopic(topic),
		Since:    since,
		Limit:    clampLimit(limit),
	})
}

func clampLimit(limit int) int32 {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return int32(limit)
}
