// Command seed loads a JSON fixture into the local forum database used by
// DATA_SOURCE=postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/validation"
	"github.com/forum-thread-engine/pkg/logger"
	"github.com/google/uuid"
)

func main() {
	fixturePath := flag.String("fixture", "testdata/fixture.json", "path to the JSON fixture")
	reset := flag.Bool("reset", false, "drop and recreate the schema before loading")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall load timeout")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	raw, err := os.ReadFile(*fixturePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *fixturePath).Msg("Failed to read fixture")
	}
	var fixture repository.Fixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		log.Fatal().Err(err).Str("path", *fixturePath).Msg("Failed to parse fixture")
	}

	if errs := validation.NewValidator().ValidateFixture(&fixture); len(errs) > 0 {
		for _, e := range errs {
			log.Error().Str("field", e.Field).Interface("value", e.Value).Msg(e.Message)
		}
		log.Fatal().Int("errors", len(errs)).Msg("Fixture is invalid")
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *reset {
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset schema")
		}
	}
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	stats, err := repository.NewSeeder(db).Load(ctx, &fixture, func() string { return uuid.New().String() })
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fixture")
	}

	log.Info().
		Int("users", stats.Users).
		Int("posts", stats.Posts).
		Int("comments", stats.Comments).
		Int("reactions", stats.Reactions).
		Int("materials", stats.Materials).
		Dur("duration", time.Since(start)).
		Msg("Fixture loaded")
}
