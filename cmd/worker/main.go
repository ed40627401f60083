package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"campuslog/internal/cloudinary"
	"campuslog/internal/complaints"
	"campuslog/internal/config"
	"campuslog/internal/logging"
	"campuslog/internal/mirror"
	"campuslog/internal/queue"
	"campuslog/internal/store"
)

// Worker consumes attachment.stored messages from Redis and mirrors the files to Cloudinary.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Queue.Backend == "memory" {
		return fmt.Errorf("queue backend %q is consumed inside the api process", cfg.Queue.Backend)
	}
	if !cfg.Cloudinary.Configured() {
		return fmt.Errorf("cloudinary credentials are required")
	}

	db, err := store.NewDB(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		return err
	}
	if redisClient == nil {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable yet, consumer will keep retrying", zap.String("addr", cfg.RedisAddr))
	}

	c := cfg.Cloudinary
	worker := mirror.NewWorker(
		complaints.NewRepository(db.Client),
		cloudinary.New(c.CloudName, c.APIKey, c.APISecret, c.Folder),
		logger,
	)
	return worker.Run(ctx, queue.NewRedisQueue(redisClient.Client, cfg.Queue.Key))
}
