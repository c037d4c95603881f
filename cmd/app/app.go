package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meddist/internal-api/internal/api"
	v1 "github.com/meddist/internal-api/internal/api/handler/v1"
	"github.com/meddist/internal-api/internal/cache"
	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/db"
	"github.com/meddist/internal-api/internal/logger"
	"github.com/meddist/internal-api/internal/pkg/events"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/pkg/mailer"
	"github.com/meddist/internal-api/internal/pkg/storage"
	"github.com/meddist/internal-api/internal/pkg/telemetry"
)

const (
	configPath      = "./cmd/app/config.yml"
	shutdownTimeout = 15 * time.Second
)

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	if err = logger.SetLevel(conf.API.LogLevel); err != nil {
		zap.L().Warn("invalid log level, keeping default", zap.String("level", conf.API.LogLevel), zap.Error(err))
	}
	config.Watch(configPath, func(c *config.AppConfig, err error) {
		if err != nil {
			zap.L().Warn("config reload failed", zap.Error(err))
			return
		}
		if err := logger.SetLevel(c.API.LogLevel); err != nil {
			zap.L().Warn("invalid log level on reload", zap.Error(err))
			return
		}
		zap.L().Info("log level reloaded", zap.String("level", c.API.LogLevel))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(conf.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry -> %w", err)
	}

	postgresDB, err := openDatabase(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	var redisClient *redis.Client
	var locker lock.Locker = lock.NopLocker{}
	if conf.Redis.Enabled {
		redisClient, err = cache.OpenRedis(ctx, conf.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize redis -> %w", err)
		}
		locker = lock.NewRedisLocker(redisClient, conf.Inventory.LockTTL)
	}

	store, err := storage.NewS3Store(ctx, conf.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage -> %w", err)
	}

	hub := v1.NewInventoryHub(conf.API.AllowedCORSDomains)
	go hub.Run(ctx)

	publishers := events.Fanout{hub}
	var kafkaPublisher *events.KafkaPublisher
	if conf.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(conf.Kafka)
		publishers = append(publishers, kafkaPublisher)
	} else {
		publishers = append(publishers, events.LogPublisher{})
	}

	s, err := api.NewServer(conf, postgresDB, api.Dependencies{
		Redis:     redisClient,
		Locker:    locker,
		Publisher: publishers,
		Hub:       hub,
		Store:     store,
		Mailer:    mailer.NewSMTPMailer(conf.SMTP),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server -> %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	errs = append(errs, srv.Shutdown(shutdownCtx))
	if kafkaPublisher != nil {
		errs = append(errs, kafkaPublisher.Close())
	}
	if redisClient != nil {
		errs = append(errs, redisClient.Close())
	}
	errs = append(errs, shutdownTracing(shutdownCtx))
	if sqlDB, err := postgresDB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	_ = zap.L().Sync()

	return errors.Join(errs...)
}

func openDatabase(conf *config.AppConfig) (*gorm.DB, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return db.OpenPostgresWithURL(dbURL, conf.API.Environment)
	}

	return db.OpenPostgres(conf.Postgres, conf.API.Environment)
}
