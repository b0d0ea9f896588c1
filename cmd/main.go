package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"userhive/backend/internal/api/handler"
	"userhive/backend/internal/chat"
	"userhive/backend/internal/chathub"
	"userhive/backend/internal/commands"
	"userhive/backend/internal/config"
	"userhive/backend/internal/docstore"
	"userhive/backend/internal/logger"
	"userhive/backend/internal/messaging"
	"userhive/backend/internal/metrics"
	"userhive/backend/internal/models"
	"userhive/backend/internal/outbox"
	"userhive/backend/internal/presence"
	"userhive/backend/internal/storage"
)

func setupDependencies(cfg *config.Config, log *zap.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.OutboxEvent{},
		&docstore.Document{},
	)
	if err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	log.Info("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting userhive backend")
	metrics.Register()

	db, rdb := setupDependencies(cfg, log)

	broker, err := messaging.Connect(cfg.NATSURL, cfg.RequestTimeout, log)
	if err != nil {
		log.Fatal("failed to connect nats", zap.Error(err))
	}
	defer broker.Close()

	users := storage.NewService(db)
	outboxStore := outbox.NewStore()
	runner := commands.NewRunner(db)
	commandSet := commands.NewSet(runner, users, outboxStore, log)

	docs := docstore.NewPostgresStore(db)
	presenceCache := presence.NewRedisCache(rdb)
	presenceEngine := presence.NewEngine(presenceCache, cfg.StatusKeyPrefix, log)
	chatEngine := chat.NewEngine(docs, users, presenceEngine, broker, cfg.ConversationCollection, log)

	presenceHub := chathub.NewHub("connection", log)
	chatHub := chathub.NewHub("chat", log)

	h := handler.NewHandler(cfg, users, commandSet, presenceEngine, chatEngine, presenceHub, chatHub, log)
	h.RegisterPresenceEvents()
	h.RegisterChatEvents()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go presenceHub.Run()
	go chatHub.Run()

	dispatcher := outbox.NewDispatcher(db, broker, cfg.OutboxInterval, cfg.OutboxBatch, log)
	go dispatcher.Run(ctx)

	if err := startInbound(ctx, broker, commandSet, users, log); err != nil {
		log.Fatal("failed to start inbound consumers", zap.Error(err))
	}

	r := gin.Default()
	h.Routes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// startInbound binds the update consumer and the lookup responders.
func startInbound(ctx context.Context, broker *messaging.Client, commandSet *commands.Set, users *storage.Service, log *zap.Logger) error {
	_, err := broker.ConsumeUpdates(ctx, func(ctx context.Context, payload []byte, ack func() error) error {
		in, err := commands.DecodeUpdatePayload(payload)
		if err != nil {
			return err
		}
		_, err = commandSet.UpdateByMicroservice(ctx, in, ack)
		return err
	})
	if err != nil {
		return err
	}

	_, err = broker.Reply(messaging.SubjectFindUserByID, func(_ context.Context, payload []byte) ([]byte, error) {
		var envelope struct {
			Payload uint `json:"payload"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, err
		}
		user, err := users.FindByID(envelope.Payload)
		if err != nil {
			return nil, err
		}
		return json.Marshal(user.Redacted())
	})
	if err != nil {
		return err
	}

	_, err = broker.Reply(messaging.SubjectFindUserByEmail, func(_ context.Context, payload []byte) ([]byte, error) {
		var envelope struct {
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, err
		}
		user, err := users.FindByEmail(envelope.Payload)
		if err != nil {
			return nil, err
		}
		return json.Marshal(user.Redacted())
	})
	if err != nil {
		return err
	}

	log.Info("inbound consumers started",
		zap.String("stream", messaging.UpdateStreamName),
		zap.String("durable", messaging.UpdateConsumerName))
	return nil
}
