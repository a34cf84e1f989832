package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/brainwave/internal/auth/jwt"
	"github.com/gokatarajesh/brainwave/internal/config"
	"github.com/gokatarajesh/brainwave/internal/db"
	"github.com/gokatarajesh/brainwave/internal/db/repository"
	"github.com/gokatarajesh/brainwave/internal/history"
	"github.com/gokatarajesh/brainwave/internal/leaderboard"
	"github.com/gokatarajesh/brainwave/internal/logging"
	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/question/ai"
	"github.com/gokatarajesh/brainwave/internal/question/external"
	"github.com/gokatarajesh/brainwave/internal/server"
	"github.com/gokatarajesh/brainwave/internal/session"
	"github.com/gokatarajesh/brainwave/internal/setup"
	ws "github.com/gokatarajesh/brainwave/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the background workers supervised by Run.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	sessions      *session.Manager
	prefetcher    *question.Prefetcher
	lbBroadcaster *leaderboard.Broadcaster
}

// New bootstraps logger, optional Postgres and Redis, the question pipeline
// and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	catalog := setup.DefaultCatalog()
	if cfg.Session.CatalogPath != "" {
		loaded, err := setup.LoadCatalog(cfg.Session.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load quiz catalog: %w", err)
		}
		catalog = loaded
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		p, err := pgxpool.New(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
	} else {
		logger.Warn().Msg("PG_HOST not set; result history disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; question cache and leaderboards disabled")
	}

	// Question pipeline: AI first, then the public trivia banks.
	var (
		sources  []question.Source
		enqueuer question.Enqueuer
	)
	if cfg.AI.APIKey != "" {
		sources = append(sources, question.Source{Name: "chat", Provider: ai.NewChatProvider(ai.ChatConfig{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		}, logger)})
	}
	if cfg.AI.GeneratorURL != "" {
		generator := ai.NewGenerator(ai.GeneratorConfig{
			GeneratorURL: cfg.AI.GeneratorURL,
			GeneratorKey: cfg.AI.GeneratorKey,
			Timeout:      cfg.AI.HTTPTimeout,
		}, logger)
		sources = append(sources, question.Source{Name: "generator", Provider: generator})
		enqueuer = generator
	}
	triviaHTTP := &http.Client{Timeout: cfg.Trivia.HTTPTimeout}
	if cfg.Trivia.OpenTDBEnabled {
		sources = append(sources, question.Source{
			Name:     "opentdb",
			Provider: external.NewOpenTDBClient(cfg.Trivia.OpenTDBBaseURL, triviaHTTP),
		})
	}
	if cfg.Trivia.TriviaAPIEnabled {
		sources = append(sources, question.Source{
			Name:     "triviaapi",
			Provider: external.NewTriviaAPIClient(cfg.Trivia.TriviaAPIBaseURL, cfg.Trivia.TriviaAPIKey, triviaHTTP),
		})
	}
	if len(sources) == 0 {
		return nil, errors.New("no question source configured (set AI_API_KEY, AI_GENERATOR_URL or enable a trivia fallback)")
	}

	var batchCache question.BatchCache
	if redisClient != nil {
		batchCache = question.NewCache(redisClient, cfg.Prefetch.CacheTTL)
	}
	questionSvc := question.NewService(batchCache, sources, logger)

	var prefetcher *question.Prefetcher
	if batchCache != nil && cfg.Prefetch.Enabled {
		prefetcher = question.NewPrefetcher(questionSvc, enqueuer, logger, cfg.Prefetch.Timeout, cfg.Prefetch.Buffer)
	}

	// Results history and leaderboards.
	var (
		resultWriter history.ResultWriter
		resultReader history.ResultReader
		fallback     leaderboard.Fallback
		board        history.Board
		lbSvc        *leaderboard.Service
	)
	if pool != nil {
		resultRepo := repository.NewResultRepository(db.New(pool))
		resultWriter = resultRepo
		resultReader = resultRepo
		fallback = history.LeaderboardFallback(resultRepo)
	}
	if redisClient != nil {
		lbSvc = leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
			TopN:          cfg.Leaderboard.TopN,
			PubSubChannel: cfg.Leaderboard.PubSubChannel,
			PublishTop:    cfg.Leaderboard.PublishTop,
		})
		board = lbSvc
	}

	sessionOpts := session.Options{
		Provider:          questionSvc,
		Validator:         setup.NewValidator(catalog),
		GenerationTimeout: cfg.Session.GenerationTimeout,
		RecordTimeout:     cfg.Session.RecordTimeout,
		Logger:            logger,
	}
	if resultWriter != nil || board != nil {
		sessionOpts.Recorder = history.NewRecorder(resultWriter, board, logger)
	}
	if prefetcher != nil {
		sessionOpts.Prefetcher = prefetcher
	}

	sessions := session.NewManager(sessionOpts, cfg.Session.IdleTTL, logger)
	wsHub := ws.NewHub(logger)
	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.SessionTokenTTL,
		Issuer: cfg.Name,
	})
	sessionHTTP := session.NewHTTPHandlers(
		session.NewHandler(sessions, wsHub, logger),
		tokens,
		catalog,
		server.NewWSUpgrader(cfg.CORS),
	)

	var lbBroadcaster *leaderboard.Broadcaster
	if lbSvc != nil {
		lbBroadcaster = leaderboard.NewBroadcaster(redisClient, wsHub, lbSvc.Channel(), logger)
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Sessions:    sessionHTTP,
		Results:     history.NewHTTPHandler(resultReader, logger).HandleResults,
		Leaderboard: leaderboard.NewHTTPHandler(lbSvc, fallback, logger).HandleGet,
	})

	logger.Info().
		Int("question_sources", len(sources)).
		Bool("postgres", pool != nil).
		Bool("redis", redisClient != nil).
		Bool("prefetch", prefetcher != nil).
		Msg("application wired")

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		sessions:      sessions,
		prefetcher:    prefetcher,
		lbBroadcaster: lbBroadcaster,
	}, nil
}

// Run starts the HTTP server and background workers and blocks until a
// termination signal, ctx cancellation or a worker failure.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	g.Go(func() error { return a.sessions.Run(gctx) })

	if a.prefetcher != nil {
		g.Go(func() error { return a.prefetcher.Run(gctx) })
	}

	if a.lbBroadcaster != nil {
		g.Go(func() error {
			if err := a.lbBroadcaster.Run(gctx); err != nil {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
			return nil
		})
	}

	err := g.Wait()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return err
}
