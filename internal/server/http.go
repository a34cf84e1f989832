package server

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/config"
	"github.com/gokatarajesh/brainwave/internal/logging"
	"github.com/gokatarajesh/brainwave/internal/session"
	httperrors "github.com/gokatarajesh/brainwave/pkg/http/errors"
)

// Handlers groups the feature endpoints mounted by NewHTTPServer. Nil
// entries are left unrouted.
type Handlers struct {
	Sessions    *session.HTTPHandlers
	Results     http.HandlerFunc
	Leaderboard http.HandlerFunc
}

// NewWSUpgrader builds the WebSocket upgrader, accepting the configured origins.
func NewWSUpgrader(cors config.CORS) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cors.AllowedOrigins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// NewHTTPServer wires base routes (health, metrics) and the quiz API.
// pool and redis may be nil when the deployment runs without them.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, handlers Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redis); err != nil {
			log := logging.FromContext(ctx)
			log.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h := handlers.Sessions; h != nil {
		mux.HandleFunc("/v1/sessions", h.CreateSession)
		mux.HandleFunc("/v1/setup/options", h.SetupOptions)
		mux.HandleFunc("/ws/sessions", h.HandleWebSocket)
	}
	if handlers.Results != nil {
		mux.HandleFunc("/v1/results", handlers.Results)
	}
	if handlers.Leaderboard != nil {
		mux.HandleFunc("/v1/leaderboards/", handlers.Leaderboard)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withCORS(cfg.CORS, mux),
	}
}

func withCORS(cors config.CORS, next http.Handler) http.Handler {
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cors.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cors.AllowedOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if cors.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
