package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campuslog/internal/auth"
	"campuslog/internal/cloudinary"
	"campuslog/internal/complaints"
	"campuslog/internal/config"
	"campuslog/internal/handler"
	"campuslog/internal/httpmiddleware"
	"campuslog/internal/logging"
	"campuslog/internal/metrics"
	"campuslog/internal/mirror"
	"campuslog/internal/queue"
	"campuslog/internal/scheduling"
	"campuslog/internal/store"
	"campuslog/internal/students"
	"campuslog/internal/uploads"
)

func main() {
	createUser := flag.String("create-user", "", "create or reset an account as name:role:password and exit")
	flag.Parse()

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger, *createUser); err != nil {
		logger.Fatal("api failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger, createUser string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTIssuer, cfg.Auth.JWTKey, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return err
	}
	accounts := auth.NewService(auth.NewUserRepository(db.Client), tokens, logger)
	if createUser != "" {
		return seedUser(ctx, accounts, createUser, logger)
	}

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	if redisClient != nil && !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable at startup", zap.String("addr", cfg.RedisAddr))
	}

	var q queue.Queue
	if cfg.Queue.Backend == "memory" || redisClient == nil {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.Queue.Key)
	}

	files, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	complaintRepo := complaints.NewRepository(db.Client)
	complaintSvc := complaints.NewService(complaintRepo, files, q, complaints.Options{
		StatusWhitelist:    cfg.Complaints.StatusWhitelist,
		RequireDescription: cfg.Mentor.RequireDescription,
		ResponseWindow:     cfg.Complaints.ResponseWindow,
	}, logger)
	schedulingSvc := scheduling.NewService(scheduling.NewRepository(db.Client), logger)

	// attachments are mirrored in-process when nothing else consumes the queue
	if _, inMemory := q.(*queue.InMemory); inMemory {
		worker := mirror.NewWorker(complaintRepo, uploader(cfg, logger), logger.Named("mirror"))
		go func() {
			if err := worker.Run(ctx, q); err != nil {
				logger.Error("attachment mirror exited", zap.Error(err))
			}
		}()
	}

	refresher, err := metrics.NewRefresher(cfg.StatsCron, logger,
		metrics.Source{Name: "unidentified_logs", Gauge: metrics.UnidentifiedLogs, Count: complaintRepo.CountUnidentified},
		metrics.Source{Name: "mentor_queue_items", Gauge: metrics.MentorQueueItems, Count: complaintRepo.CountMentorQueue},
		metrics.Source{Name: "pending_meetings", Gauge: metrics.PendingMeetings, Count: schedulingSvc.Repo().CountPending},
	)
	if err != nil {
		return fmt.Errorf("stats cron: %w", err)
	}
	refresher.RefreshOnce(ctx)
	refresher.Start()
	defer refresher.Stop()

	deps := handler.Deps{
		Complaints:     complaintSvc,
		Scheduling:     schedulingSvc,
		Students:       students.NewRepository(db.Client),
		Accounts:       accounts,
		DB:             db,
		Redis:          redisClient,
		APILimiter:     httpmiddleware.NewTokenBucket(cfg.HTTP.RateLimitPerMin, cfg.HTTP.RateLimitPerMin),
		LoginLimiter:   loginLimiter(cfg, redisClient),
		Logger:         logger,
		UploadDir:      files.Dir(),
		StaticDir:      cfg.HTTP.StaticDir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		LogRequests:    cfg.LogRequests,
	}
	if cfg.Auth.Enabled {
		policy, err := auth.NewPolicy()
		if err != nil {
			return err
		}
		deps.Tokens, deps.Policy = tokens, policy
	} else {
		logger.Warn("authorization disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}

func seedUser(ctx context.Context, accounts *auth.Service, arg string, logger *zap.Logger) error {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 {
		return errors.New("-create-user expects name:role:password")
	}
	if err := accounts.CreateUser(ctx, parts[0], parts[1], parts[2]); err != nil {
		return err
	}
	logger.Info("user saved", zap.String("username", parts[0]), zap.String("role", parts[1]))
	return nil
}

func loginLimiter(cfg config.App, r *store.Redis) httpmiddleware.FailureLimiter {
	local := httpmiddleware.NewTokenBucket(cfg.HTTP.LoginPerMin, cfg.HTTP.LoginPerMin)
	if r == nil {
		return local
	}
	return httpmiddleware.NewRedisWindow(r.Client, "campus:login", cfg.HTTP.LoginPerMin, local)
}

// uploader returns nil when Cloudinary is not configured.
func uploader(cfg config.App, logger *zap.Logger) mirror.Uploader {
	if !cfg.Cloudinary.Configured() {
		logger.Info("cloudinary not configured, attachments stay local")
		return nil
	}
	c := cfg.Cloudinary
	logger.Info("cloudinary configured", zap.String("cloud", c.CloudName))
	return cloudinary.New(c.CloudName, c.APIKey, c.APISecret, c.Folder)
}
