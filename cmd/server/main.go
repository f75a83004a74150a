package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/handlers"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/migrations"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/routes"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig

	// Environment-based logger initialization (production = JSON, development = pretty)
	logger.Init(cfg.Env, cfg.LogLevel)
	logger.Info().Str("environment", cfg.Env).Msg("Starting Revision Mania backend...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is not set")
	}

	// 1. Connect Database & Redis
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	database.InitRedis(cfg.RedisAddr, cfg.RedisPassword)

	if err := migrations.Apply(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Problem stores, live feed & auth state
	intervals, err := cfg.Intervals()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid revision intervals")
	}
	sched := services.NewDueScheduler(intervals)

	problems := repository.NewProblemRepository(database.DB)
	users := repository.NewUserRepository(database.DB)

	feed := repository.NewFeed(problems, database.Redis)
	problems.OnCommit(feed.Publish)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Problem feed relay stopped")
		}
	}()

	stores := services.NewStoreRegistry(problems, feed, sched, services.StoreOptions{
		Now:                    time.Now,
		UndoWindow:             cfg.UndoWindow,
		RefreshOriginalOnSolve: cfg.RefreshOriginalOnSolve,
		IdleTimeout:            cfg.StoreIdleTimeout,
	})
	defer stores.Close()
	go stores.Run(ctx)

	hub := services.NewAuthStateHub(func(ctx context.Context, userID string) (*models.User, error) {
		u, err := users.FindByID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return u, err
	})
	hub.OnChange(stores.HandleAuthState)

	mailer := services.NewMailer(cfg)
	handlers.Setup(stores, hub, mailer)

	// 3. Init OAuth
	handlers.InitOAuthConfig()

	// 4. Due digest
	digest := services.NewDigestJob(users, problems, sched, mailer, cfg.Location(), cfg.FrontendURL)
	if err := digest.Start(ctx, cfg.DigestSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule due digest")
	}

	// 5. Init Socket.io & Router
	socketServer := handlers.InitSocketServer()
	defer socketServer.Close()

	r := routes.NewRouter(socketServer)

	// 6. Start Server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("🛑 Shutting down server gracefully...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("✅ Server exited gracefully")
}
