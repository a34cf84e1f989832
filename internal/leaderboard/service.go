package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/quiz"
	ws "github.com/gokatarajesh/brainwave/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowAllTime}

// ErrUnknownWindow is returned for window names other than daily, weekly and all_time.
var ErrUnknownWindow = errors.New("unknown leaderboard window")

// ParseWindow validates a window name; empty means all_time.
func ParseWindow(raw string) (string, error) {
	switch raw {
	case "":
		return WindowAllTime, nil
	case WindowDaily, WindowWeekly, WindowAllTime:
		return raw, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, raw)
}

// WindowStart returns the first instant counted by window at now. The zero
// time means unbounded.
func WindowStart(window string, now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch window {
	case WindowDaily:
		return day
	case WindowWeekly:
		offset := (int(day.Weekday()) + 6) % 7 // Monday first
		return day.AddDate(0, 0, -offset)
	}
	return time.Time{}
}

// Entry represents a leaderboard record sent to clients.
type Entry struct {
	PlayerName    string  `json:"player_name"`
	Score         int     `json:"score"`
	Games         int     `json:"games"`
	Accuracy      float64 `json:"accuracy"`
	CorrectTotal  int     `json:"-"`
	QuestionTotal int     `json:"-"`
}

// RecordRequest captures one finished quiz.
type RecordRequest struct {
	PlayerName    string
	Topic         string
	CorrectCount  int
	QuestionCount int
	CompletedAt   time.Time
}

// RequestFor builds a RecordRequest from a quiz result.
func RequestFor(result quiz.Result, at time.Time) RecordRequest {
	return RecordRequest{
		PlayerName:    result.PlayerName,
		Topic:         result.Topic,
		CorrectCount:  result.CorrectCount,
		QuestionCount: result.TotalCount,
		CompletedAt:   at,
	}
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	Windows        []string
	RedisKeyPrefix string
	PublishTop     int
}

// Service manages per-topic leaderboards in Redis and emits updates over Pub/Sub.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	windows       []string
	prefix        string
	publishTop    int
	now           func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	publishTop := opts.PublishTop
	if publishTop <= 0 {
		publishTop = 10
	}

	return &Service{
		redis:         redis,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		topN:          topN,
		pubsubChannel: channel,
		windows:       windows,
		prefix:        prefix,
		publishTop:    publishTop,
		now:           time.Now,
	}
}

// Channel is the Pub/Sub channel updates are published on.
func (s *Service) Channel() string {
	return s.pubsubChannel
}

// RecordResult adds a finished quiz to every window of its topic and
// publishes the refreshed top entries.
func (s *Service) RecordResult(ctx context.Context, req RecordRequest) error {
	member := memberKey(req.PlayerName)
	if member == "" || quiz.NormalizeTopic(req.Topic) == "" || req.QuestionCount <= 0 {
		return nil
	}
	at := req.CompletedAt
	if at.IsZero() {
		at = s.now()
	}

	for _, window := range s.windows {
		if err := s.updateWindow(ctx, req, member, window, at); err != nil {
			return err
		}
	}

	s.publishUpdate(ctx, req.Topic, at)
	return nil
}

// Top retrieves the top entries of a topic for the current period of window.
func (s *Service) Top(ctx context.Context, topic, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}
	return s.top(ctx, topic, window, s.now(), limit)
}

func (s *Service) top(ctx context.Context, topic, window string, at time.Time, limit int) ([]Entry, error) {
	zKey := s.leaderboardKey(topic, window, at)
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		meta, err := s.readMeta(ctx, zKey, member)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		meta.Score = int(z.Score)
		entries = append(entries, *meta)
	}
	return entries, nil
}

func (s *Service) updateWindow(ctx context.Context, req RecordRequest, member, window string, at time.Time) error {
	zKey := s.leaderboardKey(req.Topic, window, at)
	metaKey := s.metaKey(zKey, member)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(req.CorrectCount), member)
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "correct", int64(req.CorrectCount))
	pipe.HIncrBy(ctx, metaKey, "questions", int64(req.QuestionCount))
	pipe.HSet(ctx, metaKey, "player_name", strings.TrimSpace(req.PlayerName))
	if ttl := windowTTL(window); ttl > 0 {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, topic string, at time.Time) {
	for _, window := range s.windows {
		entries, err := s.top(ctx, topic, window, at, s.publishTop)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.LeaderboardUpdatePayload{
			Topic:  topic,
			Window: window,
			Top:    toWSEntries(entries),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, zKey, member string) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(zKey, member)).Result()
	if err != nil {
		return nil, err
	}

	entry := &Entry{PlayerName: member}
	if len(data) == 0 {
		return entry, nil
	}
	if name := data["player_name"]; name != "" {
		entry.PlayerName = name
	}
	entry.Games = parseInt(data["games"])
	entry.CorrectTotal = parseInt(data["correct"])
	entry.QuestionTotal = parseInt(data["questions"])
	if entry.QuestionTotal > 0 {
		entry.Accuracy = float64(entry.CorrectTotal) / float64(entry.QuestionTotal)
	}
	return entry, nil
}

// leaderboardKey names the sorted set for a topic window. Daily and weekly
// keys carry their period so a new day or week starts from an empty board.
func (s *Service) leaderboardKey(topic, window string, at time.Time) string {
	base := fmt.Sprintf("%s:%s:%s", s.prefix, quiz.NormalizeTopic(topic), window)
	switch window {
	case WindowDaily:
		return base + ":" + at.UTC().Format("20060102")
	case WindowWeekly:
		year, week := at.UTC().ISOWeek()
		return fmt.Sprintf("%s:%d-W%02d", base, year, week)
	}
	return base
}

func (s *Service) metaKey(zKey, member string) string {
	return fmt.Sprintf("%s:meta:%s", zKey, member)
}

func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 8 * 24 * time.Hour
	}
	return 0
}

func memberKey(playerName string) string {
	return strings.ToLower(strings.TrimSpace(playerName))
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
