package main

import (
	"context"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/migrations"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/seeds"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env, cfg.LogLevel)

	if err := database.Connect(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}

	logger.Info().Msg("🔄 Running migrations (just in case)...")
	if err := migrations.Apply(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to migrate")
	}

	intervals, err := cfg.Intervals()
	if err != nil {
		logger.Fatal().Err(err).Msg("❌ Invalid revision intervals")
	}

	ctx := context.Background()
	user, err := seeds.GetOrCreateDemoUser(ctx, database.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to create demo user")
	}

	now := time.Now().In(cfg.Location())
	if _, err := seeds.SeedProblems(ctx, repository.NewProblemRepository(database.DB), user.ID, intervals, now); err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to seed problems")
	}

	logger.Info().Str("email", seeds.DemoEmail).Str("password", seeds.DemoPassword).Msg("✅ Database Seeding Complete!")
}
