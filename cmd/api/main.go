package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline/threadline-backend/api/routes"
	"github.com/threadline/threadline-backend/internal/items"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/internal/roster"
	"github.com/threadline/threadline-backend/internal/tokens"
	"github.com/threadline/threadline-backend/internal/workflow"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/events"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"github.com/threadline/threadline-backend/pkg/migrate"
	"github.com/threadline/threadline-backend/pkg/pubsub"
	"github.com/threadline/threadline-backend/pkg/push"
	"github.com/threadline/threadline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	publisher, err := events.NewPubSubPublisher(pubsubClient.AssignmentsPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event publisher", err)
		os.Exit(1)
	}

	table, err := workflow.NewTable(cfg.Workflow.FirstStatus())
	if err != nil {
		logg.Error(context.Background(), "invalid workflow configuration", err)
		os.Exit(1)
	}

	rosterService := roster.NewService(dbClient, roster.NewRepository(dbClient.DB()), redisClient, cfg.Workflow.RosterCacheTTL, logg)
	if cfg.FeatureFlags.SeedRoster {
		if err := rosterService.Seed(context.Background(), defaultRoster()); err != nil {
			logg.Error(context.Background(), "failed to seed roster", err)
			os.Exit(1)
		}
	}

	tokenService := tokens.NewService(tokens.NewRepository(dbClient.DB()), logg)
	itemService := items.NewService(dbClient, items.NewRepository(dbClient.DB()), table, rosterService, publisher, logg)

	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	sender, err := push.NewFCMSender(context.Background(), cfg.Push, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create push sender", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(
		notifications.NewRepository(dbClient.DB()), tokenService, sender, dispatchMetrics, cfg.Push, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			PubSub:        pubsubClient,
			Registry:      registry,
			Roster:        rosterService,
			Items:         itemService,
			Tokens:        tokenService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// defaultRoster is the crew a fresh development deployment starts with.
func defaultRoster() map[enums.WorkerRole][]string {
	return map[enums.WorkerRole][]string{
		enums.WorkerRoleThreading: {"Noor"},
		enums.WorkerRoleCutting:   {"Feroz"},
		enums.WorkerRoleAdmin:     {"Admin"},
		enums.WorkerRoleTailor:    {"Salim"},
		enums.WorkerRoleButtoning: {"Bina"},
		enums.WorkerRoleIroning:   {"Iqbal"},
		enums.WorkerRolePackaging: {"Parvin"},
	}
}
