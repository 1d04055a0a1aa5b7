package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminsvc "skoropad/internal/app/services/admin"
	adssvc "skoropad/internal/app/services/ads"
	authsvc "skoropad/internal/app/services/auth"
	"skoropad/internal/app/services/messenger"
	domainads "skoropad/internal/domain/ads"
	domainmessaging "skoropad/internal/domain/messaging"
	domainmoderation "skoropad/internal/domain/moderation"
	domainuser "skoropad/internal/domain/user"
	"skoropad/internal/infra/broker/kafka"
	"skoropad/internal/infra/config"
	mongodb "skoropad/internal/infra/db/mongo"
	ginserver "skoropad/internal/infra/http/gin"
	"skoropad/internal/infra/obs"
	"skoropad/internal/infra/security"
	"skoropad/internal/infra/storage/memory"
	"skoropad/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	hub      *messenger.Hub
	ready    func() error

	producer *kafka.Producer
	consumer *kafka.Consumer
	mongo    *mongodb.Client
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		users   domainuser.Repository
		ads     domainads.Repository
		backend domainmessaging.Backend
		feed    domainmessaging.Feed
		modLog  domainmoderation.LogStore
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		app.mongo = client
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		app.producer = producer
		topic := cfg.Topic("messages.inserted")
		sink := kafka.NewSink(producer, topic)

		kafkaFeed := kafka.NewFeed(logger)
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafkaFeed, logger)
		if err != nil {
			return nil, err
		}
		app.consumer = consumer
		go func() {
			if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("message feed consumer stopped", "error", err)
			}
		}()

		users = mongodb.NewUserRepository(client.DB)
		ads = mongodb.NewAdRepository(client.DB)
		backend = mongodb.NewMessagingStore(client.DB, sink, logger)
		feed = kafkaFeed
		modLog = mongodb.NewModerationLog(client.DB)
	default:
		store := memory.NewMessagingStore()
		users = memory.NewUserRepository()
		ads = memory.NewAdRepository()
		backend = store
		feed = store
		modLog = memory.NewModerationLog()
	}

	sessions := memory.NewSessionStore()
	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	adsService := &adssvc.Service{Ads: ads, Users: users, Logger: logger}
	adminService := &adminsvc.Service{Users: users, Ads: ads, Log: modLog, Logger: logger}

	app.hub = messenger.NewHub(backend, messenger.UserDirectory{Users: users}, feed, logger)

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("image storage unavailable", "error", err)
		} else {
			uploader = client
		}
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Hub: app.hub, Logger: logger},
		Ads:            ginserver.AdsHandler{Service: adsService, Logger: logger},
		Chat:           ginserver.ChatHandler{Hub: app.hub, Logger: logger},
		Admin:          ginserver.AdminHandler{Service: adminService, Hub: app.hub, Logger: logger},
		Upload:         ginserver.UploadHandler{Uploader: uploader, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			logger.Warn("consumer close failed", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("producer close failed", "error", err)
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Close(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
}
