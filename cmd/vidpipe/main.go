package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/croftbox/vidpipe/config"
	HTTPAdapter "github.com/croftbox/vidpipe/internal/adapter/http"
	redispub "github.com/croftbox/vidpipe/internal/adapter/pubsub/redis"
	"github.com/croftbox/vidpipe/internal/adapter/scanner/clamav"
	s3storage "github.com/croftbox/vidpipe/internal/adapter/storage/s3"
	sqlitestore "github.com/croftbox/vidpipe/internal/adapter/storage/sqlite"
	"github.com/croftbox/vidpipe/internal/adapter/transcoder/ffmpeg"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/infrastructure/metrics"
	"github.com/croftbox/vidpipe/internal/service"
	"github.com/croftbox/vidpipe/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting vidpipe on port %d, %d transcode profiles", cfg.Port, len(cfg.Profiles))

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to open store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	videoStore := sqlitestore.NewVideoStore(store)
	annotationStore := sqlitestore.NewAnnotationStore(store)

	objectStorage, err := s3storage.New(s3storage.Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		logger.Error.Printf("failed to connect object storage: %v", err)
		os.Exit(1)
	}
	bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objectStorage.EnsureBucket(bucketCtx); err != nil {
		logger.Error.Printf("failed to prepare bucket: %v", err)
		bucketCancel()
		os.Exit(1)
	}
	bucketCancel()

	transcoder := ffmpeg.NewTranscoder(cfg.DataDir)
	scanner := clamav.NewScanner(cfg.ClamdAddr)
	validator := validation.NewValidator(cfg.AllowedMIMETypes, transcoder)

	promRegistry := prometheus.NewRegistry()
	metricsSink := metrics.NewRegistry(promRegistry)

	eventBus := service.NewEventBus()
	publishers := service.MultiPublisher{eventBus}
	if cfg.RedisAddr != "" {
		redisPublisher := redispub.NewPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisChannel, cfg.RedisDB)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisPublisher.Ping(pingCtx); err != nil {
			logger.Warn.Printf("redis unavailable, progress events stay in-process only: %v", err)
		} else {
			publishers = append(publishers, redisPublisher)
		}
		pingCancel()
		defer func() { _ = redisPublisher.Close() }()
	}

	progress := service.NewProgressRegistry(cfg.ProgressRetention)
	pipeline := service.NewPipeline(
		videoStore,
		objectStorage,
		scanner,
		transcoder,
		validator,
		progress,
		metricsSink,
		publishers,
		service.PipelineConfig{
			Profiles:          cfg.Profiles,
			WorkerLimit:       cfg.WorkerPoolSize,
			ScanTimeout:       cfg.ScanTimeout,
			CallerWait:        cfg.CallerWaitTimeout,
			MaxProcessingTime: cfg.MaxProcessingTime,
			Retry: service.RetryPolicy{
				MaxAttempts: uint64(cfg.RetryMaxAttempts),
				BaseDelay:   cfg.RetryBaseDelay,
				MaxDelay:    cfg.RetryMaxDelay,
			},
		},
	)

	videoSvc := service.NewVideoService(videoStore, pipeline, int64(cfg.MaxUploadSizeMB)<<20)
	annotationSvc := service.NewAnnotationService(annotationStore, videoStore, objectStorage, metricsSink)

	server := HTTPAdapter.NewServer(videoSvc, annotationSvc, eventBus, promRegistry, cfg.AllowedOrigins, cfg.MaxUploadSizeMB)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Periodic eviction of terminal progress records.
	go func() {
		ticker := time.NewTicker(cfg.ProgressRetention)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := progress.Sweep(); n > 0 {
					logger.Debug.Printf("evicted %d terminal progress records", n)
				}
			case <-rootCtx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("shutdown: %v", err)
		}
		rootCancel()
	}()

	logger.Info.Printf("listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server error: %v", err)
		os.Exit(1)
	}
}
