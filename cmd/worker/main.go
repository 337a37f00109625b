package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/database"
	"github.com/mentorhub/mentorhub-api/internal/tasks"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/trigger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName + "-worker",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.Redis.Enabled() {
		logger.Fatal("REDIS_ADDR is required to run the worker")
	}
	if cfg.EventTriggers.ReminderTriggerURL == "" {
		logger.Warn("REMINDER_TRIGGER_URL not set: reminders will be dropped")
	}

	metrics.Init(cfg.Observability.ServiceName + "-worker")

	store, err := database.Open(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if closeErr := store.Close(context.Background()); closeErr != nil {
			logger.Error("Failed to close store", zap.Error(closeErr))
		}
	}()

	reminders := tasks.NewReminderHandler(
		store,
		trigger.NewCaller(httpclient.NewClientWithTimeout(15*time.Second)),
		cfg.EventTriggers.ReminderTriggerURL,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.QueueDB,
		},
		asynq.Config{
			Concurrency:     10,
			ShutdownTimeout: 10 * time.Second,
			Logger:          tasks.NewAsynqLogger(),
		},
	)

	logger.Info("Worker started", zap.Int("queue_db", cfg.Redis.QueueDB))

	// Run blocks until SIGINT or SIGTERM, then drains in-flight tasks
	if err := srv.Run(tasks.NewServeMux(reminders)); err != nil {
		logger.Fatal("Worker stopped", zap.Error(err))
	}
	logger.Info("Worker exited")
}
