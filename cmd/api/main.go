package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/berryfarm/backend/internal/config"
	"github.com/berryfarm/backend/internal/identity"
	"github.com/berryfarm/backend/internal/leaderboard"
	"github.com/berryfarm/backend/internal/ledger"
	"github.com/berryfarm/backend/internal/migrations"
	"github.com/berryfarm/backend/internal/moderation"
	"github.com/berryfarm/backend/internal/reconcile"
	"github.com/berryfarm/backend/internal/reviews"
	"github.com/berryfarm/backend/internal/rewards"
	"github.com/berryfarm/backend/internal/support"
	"github.com/berryfarm/backend/internal/uploads"
	"github.com/berryfarm/backend/internal/withdrawals"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// Schema migrations
	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		slog.Error("Schema migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema migrations applied")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Ledger
	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(ledgerRepo, logger)

	// Identity
	identityRepo := identity.NewRepository(pool)
	identitySvc := identity.NewService(identityRepo, cfg.JWTSecret)
	identityHandler := identity.NewHandler(identitySvc, ledgerRepo, logger)

	if cfg.OperatorNickname != "" && cfg.OperatorPassword != "" {
		if err := identitySvc.SeedOperator(ctx, cfg.OperatorNickname, cfg.OperatorPassword); err != nil {
			slog.Error("Failed to seed operator account", "error", err)
			os.Exit(1)
		}
		slog.Info("Operator account ready", "nickname", cfg.OperatorNickname)
	}

	// Rewards
	rewardsSvc := rewards.NewService(ledgerSvc, rewards.Config{
		AdRewardMinCents: cfg.AdRewardMinCents,
		AdRewardMaxCents: cfg.AdRewardMaxCents,
		TaskRewards:      cfg.TaskRewards,
	})
	rewardsHandler := rewards.NewHandler(rewardsSvc, logger)

	// Uploads
	uploadsRepo := uploads.NewRepository(pool)
	uploadsHandler := uploads.NewHandler(uploadsRepo, cfg.MaxUploadBytes, logger)

	// Withdrawals & moderation
	withdrawalsRepo := withdrawals.NewRepository(pool)
	withdrawalsSvc := withdrawals.NewService(withdrawalsRepo, ledgerSvc, uploadsRepo, cfg.MinWithdrawFor)
	withdrawalsHandler := withdrawals.NewHandler(withdrawalsSvc, logger)
	moderationHandler := moderation.NewHandler(withdrawalsSvc, logger)

	// Support
	supportRepo := support.NewRepository(pool)
	supportSvc := support.NewService(supportRepo, uploadsRepo)
	supportHandler := support.NewHandler(supportSvc, logger)

	// Reviews
	reviewsRepo := reviews.NewRepository(pool)
	reviewsHandler := reviews.NewHandler(reviewsRepo, logger)

	// Leaderboard, with optional Redis cache
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, leaderboard cache disabled", "error", err)
			cache = nil
		}
	}
	leaderboardRepo := leaderboard.NewRepository(pool)
	leaderboardSvc := leaderboard.NewService(leaderboardRepo, cache, logger)
	leaderboardHandler := leaderboard.NewHandler(leaderboardSvc, logger)

	// Background workers: nightly ledger audit, orphaned evidence sweep
	workers := river.NewWorkers()
	river.AddWorker(workers, reconcile.NewLedgerAuditWorker(pool, logger))
	river.AddWorker(workers, reconcile.NewEvidenceSweepWorker(uploadsRepo, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(6*time.Hour),
				func() (river.JobArgs, *river.InsertOpts) {
					return reconcile.LedgerAuditArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
			river.NewPeriodicJob(
				river.PeriodicInterval(24*time.Hour),
				func() (river.JobArgs, *river.InsertOpts) {
					return reconcile.EvidenceSweepArgs{}, nil
				},
				nil,
			),
		},
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, identitySvc,
		identityHandler, ledgerHandler, rewardsHandler, withdrawalsHandler, moderationHandler,
		supportHandler, reviewsHandler, leaderboardHandler, uploadsHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
