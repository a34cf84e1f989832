package history

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/db"
	"github.com/gokatarajesh/brainwave/internal/db/repository"
	"github.com/gokatarajesh/brainwave/internal/leaderboard"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
)

// ResultReader lists stored results.
type ResultReader interface {
	RecentByPlayer(ctx context.Context, player string, limit int) ([]db.QuizResult, error)
}

// HTTPHandler exposes a player's result history.
type HTTPHandler struct {
	results ResultReader
	logger  zerolog.Logger
}

func NewHTTPHandler(results ResultReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		results: results,
		logger:  logger.With().Str("component", "history_http").Logger(),
	}
}

type resultsResponse struct {
	Player  string          `json:"player"`
	Results []db.QuizResult `json:"results"`
}

// HandleResults serves GET /v1/results?player=NAME&limit=20.
func (h *HTTPHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	if h.results == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Result history is not configured")
		return
	}

	player := r.URL.Query().Get("player")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.results.RecentByPlayer(r.Context(), player, limit)
	if errors.Is(err, repository.ErrPlayerRequired) {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Player name is required", "player")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("player", player).Msg("result history fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeResultsFetchFailed, "Could not load results")
		return
	}
	if rows == nil {
		rows = []db.QuizResult{}
	}

	httperrors.RespondJSON(w, http.StatusOK, resultsResponse{Player: player, Results: rows})
}

// TopPlayerSource aggregates stored results per player.
type TopPlayerSource interface {
	TopPlayers(ctx context.Context, topic string, since time.Time, limit int) ([]db.TopPlayersByTopicRow, error)
}

type leaderboardFallback struct {
	src TopPlayerSource
}

// LeaderboardFallback serves leaderboards straight from the results table.
func LeaderboardFallback(src TopPlayerSource) leaderboard.Fallback {
	return leaderboardFallback{src: src}
}

func (f leaderboardFallback) TopPlayers(ctx context.Context, topic string, since time.Time, limit int) ([]leaderboard.Entry, error) {
	rows, err := f.src.TopPlayers(ctx, topic, since, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboard.Entry, len(rows))
	for i, row := range rows {
		entries[i] = leaderboard.Entry{
			PlayerName:    row.PlayerName,
			Score:         int(row.CorrectTotal),
			Games:         int(row.Games),
			CorrectTotal:  int(row.CorrectTotal),
			QuestionTotal: int(row.QuestionTotal),
		}
		if row.QuestionTotal > 0 {
			entries[i].Accuracy = float64(row.CorrectTotal) / float64(row.QuestionTotal)
		}
	}
	return entries, nil
}
