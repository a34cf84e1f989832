// Package db holds the pgx-backed queries for quiz results.
package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the quiz_results statements against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// QuizResult is one row of quiz_results.
type QuizResult struct {
	ResultID     uuid.UUID `db:"result_id" json:"result_id"`
	PlayerName   string    `db:"player_name" json:"player_name"`
	Topic        string    `db:"topic" json:"topic"`
	TopicKey     string    `db:"topic_key" json:"-"`
	Level        int16     `db:"level" json:"level"`
	CorrectCount int32     `db:"correct_count" json:"correct_count"`
	TotalCount   int32     `db:"total_count" json:"total_count"`
	Percentage   int32     `db:"percentage" json:"percentage"`
	Grade        string    `db:"grade" json:"grade"`
	CompletedAt  time.Time `db:"completed_at" json:"completed_at"`
}

const insertQuizResult = `
INSERT INTO quiz_results (
    result_id, player_name, topic, topic_key, level,
    correct_count, total_count, percentage, grade, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING result_id, player_name, topic, topic_key, level,
    correct_count, total_count, percentage, grade, completed_at`

type InsertQuizResultParams struct {
	ResultID     uuid.UUID
	PlayerName   string
	Topic        string
	TopicKey     string
	Level        int16
	CorrectCount int32
	TotalCount   int32
	Percentage   int32
	Grade        string
	CompletedAt  time.Time
}

func (q *Queries) InsertQuizResult(ctx context.Context, arg InsertQuizResultParams) (QuizResult, error) {
	rows, err := q.db.Query(ctx, insertQuizResult,
		arg.ResultID,
		arg.PlayerName,
		arg.Topic,
		arg.TopicKey,
		arg.Level,
		arg.CorrectCount,
		arg.TotalCount,
		arg.Percentage,
		arg.Grade,
		arg.CompletedAt,
	)
	if err != nil {
		return QuizResult{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[QuizResult])
}

const listResultsByPlayer = `
SELECT result_id, player_name, topic, topic_key, level,
    correct_count, total_count, percentage, grade, completed_at
FROM quiz_results
WHERE LOWER(player_name) = LOWER($1)
ORDER BY completed_at DESC
LIMIT $2`

type ListResultsByPlayerParams struct {
	PlayerName string
	Limit      int32
}

func (q *Queries) ListResultsByPlayer(ctx context.Context, arg ListResultsByPlayerParams) ([]QuizResult, error) {
	rows, err := q.db.Query(ctx, listResultsByPlayer, arg.PlayerName, arg.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[QuizResult])
}

const topPlayersByTopic = `
SELECT MAX(player_name)            AS player_name,
       SUM(correct_count)::INT     AS correct_total,
       SUM(total_count)::INT       AS question_total,
       COUNT(*)::INT               AS games
FROM quiz_results
WHERE topic_key = $1 AND completed_at >= $2
GROUP BY LOWER(player_name)
ORDER BY correct_total DESC, question_total ASC
LIMIT $3`

type TopPlayersByTopicParams struct {
	TopicKey string
	Since    time.Time
	Limit    int32
}

type TopPlayersByTopicRow struct {
	PlayerName    string `db:"player_name"`
	CorrectTotal  int32  `db:"correct_total"`
	QuestionTotal int32  `db:"question_total"`
	Games         int32  `db:"games"`
}

func (q *Queries) TopPlayersByTopic(ctx context.Context, arg TopPlayersByTopicParams) ([]TopPlayersByTopicRow, error) {
	rows, err := q.db.Query(ctx, topPlayersByTopic, arg.TopicKey, arg.Since, arg.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[TopPlayersByTopicRow])
}
