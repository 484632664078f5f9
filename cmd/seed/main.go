package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "JSON file with ingredients; empty skips")
	tagsPath := flag.String("tags", "data/tags.json", "JSON file with tags; empty skips")
	demoEmail := flag.String("demo-email", "", "create a demo user with this email")
	demoPassword := flag.String("demo-password", "foodgram-demo", "password for the demo user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() { _ = database.Close(db) }()
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)

	if *ingredientsPath != "" {
		var items []types.IngredientInput
		if err := readJSON(*ingredientsPath, &items); err != nil {
			logging.Fatal().Err(err).Msg("failed to read ingredients")
		}
		created := 0
		for i, item := range items {
			if err := validation.Get().Struct(item); err != nil {
				logging.Fatal().Err(err).Int("index", i).Msg("invalid ingredient")
			}
			_, isNew, err := catalog.CreateIngredient(ctx, item)
			if err != nil {
				logging.Fatal().Err(err).Str("name", item.Name).Msg("failed to seed ingredient")
			}
			if isNew {
				created++
			}
		}
		logging.Info().Int("total", len(items)).Int("created", created).Msg("ingredients seeded")
	}

	if *tagsPath != "" {
		var tags []types.TagInput
		if err := readJSON(*tagsPath, &tags); err != nil {
			logging.Fatal().Err(err).Msg("failed to read tags")
		}
		created := 0
		for i, tag := range tags {
			if err := validation.Get().Struct(tag); err != nil {
				logging.Fatal().Err(err).Int("index", i).Msg("invalid tag")
			}
			_, isNew, err := catalog.CreateTag(ctx, tag)
			if err != nil {
				logging.Fatal().Err(err).Str("slug", tag.Slug).Msg("failed to seed tag")
			}
			if isNew {
				created++
			}
		}
		logging.Info().Int("total", len(tags)).Int("created", created).Msg("tags seeded")
	}

	if *demoEmail != "" {
		auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, nil)
		user, err := auth.Register(ctx, &types.RegisterRequest{
			Email:     *demoEmail,
			Username:  "demo",
			FirstName: "Demo",
			LastName:  "User",
			Password:  *demoPassword,
		})
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			logging.Info().Str("email", *demoEmail).Msg("demo user already exists")
		case err != nil:
			logging.Fatal().Err(err).Msg("failed to create demo user")
		default:
			logging.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("demo user created")
		}
	}
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
