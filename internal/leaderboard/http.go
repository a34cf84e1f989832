package leaderboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/quiz"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
	ws "github.com/gokatarajesh/brainwave/pkg/http/ws"
)

// Fallback serves leaderboards from durable storage when Redis is missing or empty.
type Fallback interface {
	TopPlayers(ctx context.Context, topic string, since time.Time, limit int) ([]Entry, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc      *Service
	fallback Fallback
	logger   zerolog.Logger
	now      func() time.Time
}

// NewHTTPHandler constructs a leaderboard HTTP handler. Either source may be nil.
func NewHTTPHandler(svc *Service, fallback Fallback, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		fallback: fallback,
		logger:   logger.With().Str("component", "leaderboard_http").Logger(),
		now:      time.Now,
	}
}

type leaderboardResponse struct {
	Topic       string                `json:"topic"`
	Window      string                `json:"window"`
	Top         []ws.LeaderboardEntry `json:"top"`
	Source      string                `json:"source"`
	RetrievedAt string                `json:"retrievedAt"`
}

// HandleGet responds with the current leaderboard of a topic.
// Route: GET /v1/leaderboards/{topic}?window=weekly&limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	topic := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/leaderboards/"), "/")
	if quiz.NormalizeTopic(topic) == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Topic is required", "topic")
		return
	}

	window, err := ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	resp := leaderboardResponse{Topic: topic, Window: window, Top: []ws.LeaderboardEntry{}, Source: "redis"}

	var fetchErr error
	if h.svc != nil {
		entries, err := h.svc.Top(ctx, topic, window, limit)
		if err == nil {
			resp.Top = toWSEntries(entries)
		} else {
			fetchErr = err
			h.logger.Warn().Err(err).Str("topic", topic).Str("window", window).Msg("redis leaderboard fetch failed")
		}
	}

	if len(resp.Top) == 0 && h.fallback != nil {
		entries, err := h.fallback.TopPlayers(ctx, topic, WindowStart(window, h.now()), limit)
		if err != nil {
			h.logger.Warn().Err(err).Str("topic", topic).Msg("postgres leaderboard fetch failed")
			if fetchErr == nil {
				fetchErr = err
			}
		} else {
			resp.Source = "postgres"
			resp.Top = toWSEntries(entries)
			fetchErr = nil
		}
	}

	if fetchErr != nil {
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeLeaderboardFetchFailed, "Could not load leaderboard")
		return
	}

	resp.RetrievedAt = h.now().UTC().Format(time.RFC3339)
	httperrors.RespondJSON(w, http.StatusOK, resp)
}
