package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filiksyos/gittodoc/internal/cfg"
	"github.com/filiksyos/gittodoc/internal/events"
	"github.com/filiksyos/gittodoc/internal/github"
	"github.com/filiksyos/gittodoc/internal/history"
	"github.com/filiksyos/gittodoc/internal/ingest"
	"github.com/filiksyos/gittodoc/internal/middleware"
	"github.com/filiksyos/gittodoc/internal/routers"
	"github.com/filiksyos/gittodoc/internal/upload"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("gittodoc stopped: %v", err)
	}
}

func run() error {
	conf := cfg.Load()
	logger := log.New(os.Stdout, "[gittodoc] ", log.LstdFlags|log.Lshortfile)

	if err := os.MkdirAll(conf.TempDir, 0o755); err != nil {
		return err
	}

	var uploader ingest.Uploader
	if conf.S3Bucket != "" {
		storage, err := upload.New(upload.Options{
			Endpoint:  conf.S3Endpoint,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			Region:    conf.S3Region,
			Bucket:    conf.S3Bucket,
			UseSSL:    conf.S3UseSSL,
			PublicURL: conf.S3PublicURL,
		})
		if err != nil {
			return err
		}
		uploader = storage
		logger.Printf("digest uploads enabled (bucket %s)", storage.Bucket())
	} else {
		logger.Println("digest uploads disabled: GITTODOC_S3_BUCKET not set")
	}

	service := ingest.NewService(ingest.Config{
		TempDir:           conf.TempDir,
		CloneTimeout:      conf.CloneTimeout,
		MaxFiles:          conf.MaxFiles,
		MaxTotalSizeBytes: conf.MaxTotalSizeBytes,
		MaxDirectoryDepth: conf.MaxDirectoryDepth,
		GitHubPAT:         conf.GitHubPAT,
	}, uploader, logger)

	stars, err := github.NewStarCounter(conf.StarRepo, conf.GitHubPAT, 10*time.Minute)
	if err != nil {
		return err
	}

	var producer events.Producer
	if len(conf.KafkaBrokers) > 0 {
		producer = events.NewKafkaProducer(conf.KafkaBrokers, conf.KafkaTopic)
		defer producer.Close()
		logger.Printf("ingest events enabled (topic %s)", conf.KafkaTopic)
	}

	var records history.Repository
	if conf.DatabaseURL != "" {
		records, err = history.Open(conf.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Println("ingest history enabled")
	}

	rateLimiter := middleware.NewRateLimiter(conf.RateLimitRequests, conf.RateLimitWindow)
	if conf.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
		})
		defer rdb.Close()
		rateLimiter = middleware.NewRedisRateLimiter(rdb, conf.RateLimitRequests, conf.RateLimitWindow)
		logger.Println("redis-backed rate limiting enabled")
	}
	hostFilter := middleware.NewHostFilter(conf.AllowedHosts)

	router, err := routers.New(routers.Dependencies{
		Ingest:     service,
		Stars:      stars,
		StarRepo:   conf.StarRepo,
		Events:     producer,
		History:    records,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{hostFilter, rateLimiter.Middleware},
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + conf.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
		IdleTimeout:  conf.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server listening on :%s", conf.HTTPPort)
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownGracePeriod)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
