package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"

	_ "github.com/lib/pq"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logging.Fatal().Msg("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if *rollback {
		name, err := database.RollbackLast(ctx, db)
		if errors.Is(err, database.ErrNoMigrations) {
			logging.Info().Msg("no migrations to roll back")
			return
		}
		if err != nil {
			logging.Fatal().Err(err).Msg("rollback failed")
		}
		logging.Info().Str("migration", name).Msg("rolled back")
		return
	}

	applied, err := database.ApplyMigrations(ctx, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}
	for _, name := range applied {
		logging.Info().Str("migration", name).Msg("applied")
	}
	logging.Info().Int("count", len(applied)).Msg("migrations complete")
}
