package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/brainwave/internal/config"
	"github.com/gokatarajesh/brainwave/internal/db/migrations"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func newRootCommand() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply quiz_results schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")

	run := func(action string, fn func(*sql.DB, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("Run goose %s", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, migrationDir, err := open(dir)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := fn(db, migrationDir); err != nil {
					return fmt.Errorf("goose %s: %w", action, err)
				}
				log.Info().Str("command", action).Msg("migrations finished")
				return nil
			},
		}
	}

	root.AddCommand(
		run("up", func(db *sql.DB, d string) error { return goose.Up(db, d) }),
		run("down", func(db *sql.DB, d string) error { return goose.Down(db, d) }),
		run("status", func(db *sql.DB, d string) error { return goose.Status(db, d) }),
	)
	return root
}

// open connects through pgx's database/sql driver and points goose at the
// migration source.
func open(dir string) (*sql.DB, string, error) {
	pg, err := config.LoadPostgres()
	if err != nil {
		return nil, "", err
	}

	migrationDir := "."
	if dir == "" {
		goose.SetBaseFS(migrations.FS)
	} else {
		goose.SetBaseFS(nil)
		if migrationDir, err = filepath.Abs(dir); err != nil {
			return nil, "", fmt.Errorf("resolve migration directory: %w", err)
		}
		if _, err := os.Stat(migrationDir); err != nil {
			return nil, "", fmt.Errorf("migration directory: %w", err)
		}
	}
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, "", err
	}

	db, err := sql.Open("pgx", pg.ConnString())
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Str("migration_dir", migrationDir).
		Msg("connected to database")
	return db, migrationDir, nil
}
