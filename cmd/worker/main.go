// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/config"
	"zapdispatch/internal/db"
	"zapdispatch/internal/dispatch"
	"zapdispatch/internal/gateway"
	"zapdispatch/internal/metrics"
	"zapdispatch/internal/progress"
	"zapdispatch/internal/queue"
	"zapdispatch/internal/repository"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.WithError(err).Warn("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	conn, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	mq, err := queue.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("RabbitMQ connection failed")
	}
	defer mq.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	messageRepo := &repository.MessageRepository{DB: conn}

	dispatcher := dispatch.New(
		campaignRepo,
		messageRepo,
		gateway.NewClient(cfg.Gateway, cfg.SendTimeout, logger),
		progress.NewRedisChannel(rdb, logger),
		cfg.PacingMin,
		cfg.PacingMax,
		logger,
	)

	metrics.Register()

	// SIGINT/SIGTERM stops the loop between messages; an in-flight send
	// still completes and is recorded before the worker exits.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker running, waiting for run jobs")
	err = mq.ConsumeRuns(ctx, func(ctx context.Context, job queue.RunJob) error {
		log := logger.WithField("campaign_id", job.CampaignID)

		var runErr error
		if job.Resume {
			runErr = dispatcher.Resume(ctx, job.CampaignID)
		} else {
			runErr = dispatcher.Run(ctx, job.CampaignID)
		}
		if runErr == nil {
			return nil
		}

		// State conflicts and missing campaigns are dead ends: requeueing
		// cannot fix them, so they are logged and dropped.
		var invalidState *apperrors.ErrInvalidState
		var notFound *apperrors.ErrCampaignNotFound
		if errors.As(runErr, &invalidState) || errors.As(runErr, &notFound) {
			log.WithError(runErr).Warn("run job rejected")
			return nil
		}

		sentry.CaptureException(runErr)
		log.WithError(runErr).Error("run failed")
		return runErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("consumer stopped")
	}
	logger.Info("worker stopped")
}
