package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/brainwave/internal/quiz"
)

const defaultCacheTTL = 30 * time.Minute

// BatchCache holds pre-generated batches. A batch is handed out at most once.
type BatchCache interface {
	Take(ctx context.Context, req Request) ([]quiz.Question, bool, error)
	Put(ctx context.Context, req Request, questions []quiz.Question) error
}

// Cache is the Redis-backed BatchCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BatchCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(req Request) string {
	return fmt.Sprintf("questionbatch:%s:%d:%d", quiz.NormalizeTopic(req.Topic), req.Level, req.Count)
}

// Take removes and returns the batch for req, if any.
func (c *Cache) Take(ctx context.Context, req Request) ([]quiz.Question, bool, error) {
	data, err := c.client.GetDel(ctx, c.key(req)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var questions []quiz.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false, fmt.Errorf("decode cached batch: %w", err)
	}
	return questions, len(questions) > 0, nil
}

// Put stores a batch, replacing any batch already waiting for the same request.
func (c *Cache) Put(ctx context.Context, req Request, questions []quiz.Question) error {
	if len(questions) == 0 {
		return nil
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(req), data, c.ttl).Err()
}
