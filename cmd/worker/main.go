package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tomaz/vidsent/internal/config"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/queue"
	"github.com/tomaz/vidsent/internal/repository"
	"github.com/tomaz/vidsent/internal/service"
	"github.com/tomaz/vidsent/internal/storage"
	"github.com/tomaz/vidsent/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database (job index and queue backing store)
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}

	jobRepo := repository.NewJobRepository(db)
	jobQueue := queue.NewGormQueue(db, cfg.Queues.VisibilityTimeout)

	// Initialize object storage
	objectStorage, err := storage.NewStorage(cfg.Storage.Type, &storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Container,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize storage: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s3, ok := objectStorage.(*storage.S3Storage); ok {
		if err := s3.EnsureBucket(ctx); err != nil {
			appLogger.Fatalf("Failed to ensure storage container: %v", err)
		}
	}

	jobs := store.NewJobStore(objectStorage)

	// Initialize external service clients
	prober := service.NewYtDlpClient(&service.YtDlpConfig{
		BinaryPath: cfg.Downloader.YtDlpPath,
	})
	transcriber := service.NewHTTPTranscriber(&service.TranscriberConfig{
		Model:   cfg.Transcribe.Model,
		APIKey:  cfg.Transcribe.APIKey,
		BaseURL: cfg.Transcribe.BaseURL,
	})
	sentiment := service.NewHTTPSentimentClassifier(&service.SentimentConfig{
		Model:   cfg.Sentiment.Model,
		APIKey:  cfg.Sentiment.APIKey,
		BaseURL: cfg.Sentiment.BaseURL,
	})
	zeroshot := service.NewHTTPZeroShotClassifier(&service.ZeroShotConfig{
		Model:   cfg.ZeroShot.Model,
		APIKey:  cfg.ZeroShot.APIKey,
		BaseURL: cfg.ZeroShot.BaseURL,
	})

	// Initialize pipeline stages
	downloadStage := service.NewDownloadService(jobs, jobRepo, jobQueue, prober,
		cfg.Downloader.SubtitleLangs, cfg.Queues.Downloaded, cfg.Queues.Transcribed)
	transcribeStage := service.NewTranscribeService(jobs, jobRepo, jobQueue, transcriber,
		cfg.Queues.Transcribed)
	analyzeStage := service.NewAnalyzeService(jobs, jobRepo, sentiment, zeroshot,
		cfg.Features.Device, cfg.Features.Labels, cfg.ZeroShot.Threshold)

	// Route each queue to its stage behind the shared retry policy
	dispatcher := service.NewDispatcher(service.RetryPolicy{
		MaxAttempts: cfg.Queues.MaxDequeueCount,
		OnExhausted: service.MarkJobFailed(jobs, jobRepo),
	})
	dispatcher.Register(cfg.Queues.New, downloadStage)
	dispatcher.Register(cfg.Queues.Downloaded, transcribeStage)
	dispatcher.Register(cfg.Queues.Transcribed, analyzeStage)

	consumerCfg := &queue.ConsumerConfig{
		PollInterval: cfg.Queues.PollInterval,
	}

	var wg sync.WaitGroup
	for _, queueName := range []string{cfg.Queues.New, cfg.Queues.Downloaded, cfg.Queues.Transcribed} {
		consumer := queue.NewConsumer(jobQueue, queueName, dispatcher.HandlerFunc(), consumerCfg, appLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
	}

	appLogger.Info("Worker started")
	<-ctx.Done()
	appLogger.Info("Shutting down worker...")
	wg.Wait()
	appLogger.Info("Worker exited")
}
