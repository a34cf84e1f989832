package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"brainwave"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Session     Session
	Leaderboard Leaderboard
	AI          AI
	Trivia      Trivia
	Prefetch    Prefetch
	CORS        CORS
}

// Postgres captures connection info for the results database. Leaving
// PG_HOST empty disables result history.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:""`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// Enabled reports whether a database host is configured.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

// ConnString renders a libpq style connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.MaxConns)
}

// Redis holds cache + leaderboard configuration. Leaving REDIS_ADDR empty
// disables the batch cache and leaderboards.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Security stores secrets for signing session tokens.
type Security struct {
	JWTSecret       string        `env:"JWT_SECRET,notEmpty"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"2h"`
}

// Session groups quiz session behaviour.
type Session struct {
	IdleTTL           time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	GenerationTimeout time.Duration `env:"QUESTION_GENERATION_TIMEOUT" envDefault:"30s"`
	RecordTimeout     time.Duration `env:"RESULT_RECORD_TIMEOUT" envDefault:"5s"`
	CatalogPath       string        `env:"QUIZ_CATALOG_PATH" envDefault:""`
}

// Leaderboard governs leaderboard sizing and broadcast behavior.
type Leaderboard struct {
	TopN          int    `env:"LEADERBOARD_TOP_N" envDefault:"50"`
	PublishTop    int    `env:"LEADERBOARD_PUBLISH_TOP" envDefault:"10"`
	PubSubChannel string `env:"LEADERBOARD_CHANNEL" envDefault:"lb:updates"`
}

// AI configures the question generators. The chat provider is used when
// AI_API_KEY is set, the generator service when AI_GENERATOR_URL is set.
type AI struct {
	APIKey       string        `env:"AI_API_KEY" envDefault:""`
	BaseURL      string        `env:"AI_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model        string        `env:"AI_MODEL" envDefault:"llama-3.3-70b-versatile"`
	Temperature  float32       `env:"AI_TEMPERATURE" envDefault:"0.5"`
	MaxTokens    int           `env:"AI_MAX_TOKENS" envDefault:"2048"`
	GeneratorURL string        `env:"AI_GENERATOR_URL" envDefault:""`
	GeneratorKey string        `env:"AI_GENERATOR_API_KEY" envDefault:""`
	HTTPTimeout  time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"20s"`
}

// Trivia toggles the public trivia fallbacks.
type Trivia struct {
	OpenTDBEnabled   bool          `env:"OPENTDB_ENABLED" envDefault:"true"`
	OpenTDBBaseURL   string        `env:"OPENTDB_BASE_URL" envDefault:""`
	TriviaAPIEnabled bool          `env:"TRIVIA_API_ENABLED" envDefault:"true"`
	TriviaAPIBaseURL string        `env:"TRIVIA_API_BASE_URL" envDefault:""`
	TriviaAPIKey     string        `env:"TRIVIA_API_KEY" envDefault:""`
	HTTPTimeout      time.Duration `env:"TRIVIA_HTTP_TIMEOUT" envDefault:"6s"`
}

// Prefetch controls background batch generation after each completed quiz.
type Prefetch struct {
	Enabled  bool          `env:"PREFETCH_ENABLED" envDefault:"true"`
	Buffer   int           `env:"PREFETCH_BUFFER" envDefault:"32"`
	Timeout  time.Duration `env:"PREFETCH_TIMEOUT" envDefault:"30s"`
	CacheTTL time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"30m"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadPostgres parses only the database settings, for tools such as the
// migrator that need nothing else.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	if !pg.Enabled() {
		return Postgres{}, errors.New("PG_HOST is required")
	}
	return pg, nil
}
