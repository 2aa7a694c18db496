package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/medibook-platform/internal/api/router"
	"github.com/medibook/medibook-platform/internal/chat"
	appconfig "github.com/medibook/medibook-platform/internal/config"
	"github.com/medibook/medibook-platform/internal/http/handlers"
	"github.com/medibook/medibook-platform/internal/notify"
	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/internal/uploads"
	"github.com/medibook/medibook-platform/pkg/logging"
)

func main() {
	// Local development reads .env; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medibook platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Record store: Postgres when configured, in-memory otherwise.
	var recordStore store.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		recordStore = store.NewPostgresStore(pool)
		logger.Info("using postgres record store")
	} else {
		ms := store.NewMemoryStore()
		if cfg.SeedDemoData {
			ms.SeedDemoData()
			logger.Info("seeded demo data")
		}
		recordStore = ms
		logger.Info("using in-memory record store")
	}

	// Optional redis-backed presence for multi-node deployments.
	var presence chat.Presence
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		presence = chat.NewRedisPresence(redisClient, cfg.PresenceTTL)
		logger.Info("chat presence backed by redis", "addr", cfg.RedisAddr)
	}

	// Attachment blob store: S3 when a bucket is configured, local disk
	// otherwise.
	var blobStore uploads.BlobStore
	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		blobStore = uploads.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.PublicBaseURL)
		logger.Info("attachments stored in S3", "bucket", cfg.S3Bucket)
	} else {
		blobStore = uploads.NewDiskStore(cfg.UploadDir)
		logger.Info("attachments stored on disk", "dir", cfg.UploadDir)
	}

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)
	registry := chat.NewRegistry()
	notifier := notify.NewService(logger, recordStore)
	chatHandler := chat.NewHandler(logger, registry, recordStore, notifier, presence, chatMetrics)

	routerCfg := &router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		DirectoryHandler:   handlers.NewDirectoryHandler(recordStore, notifier, logger),
		SymptomsHandler:    handlers.NewSymptomsHandler(recordStore, logger),
		UploadHandler:      handlers.NewUploadHandler(blobStore, cfg.UploadMaxBytes, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		UserJWTSecret:      cfg.UserJWTSecret,
	}
	if cfg.S3Bucket == "" {
		routerCfg.UploadDir = cfg.UploadDir
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
