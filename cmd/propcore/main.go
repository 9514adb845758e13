package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fundedlabs/propcore/internal/audit"
	"github.com/fundedlabs/propcore/internal/config"
	"github.com/fundedlabs/propcore/internal/messaging"
	"github.com/fundedlabs/propcore/internal/orchestration"
	"github.com/fundedlabs/propcore/internal/server"
	"github.com/fundedlabs/propcore/internal/snapshot"
	"github.com/fundedlabs/propcore/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg, err := config.Load(os.Getenv("PROPCORE_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel, "propcore")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	auditStore, err := audit.Open(cfg.Audit, zapLogger.Named("audit"))
	if err != nil {
		zapLogger.Fatal("failed to open audit store", zap.Error(err))
	}

	kafkaPub := messaging.NewKafkaPublisher(cfg.Kafka, zapLogger.Named("kafka"))
	defer kafkaPub.Close()

	scoreStore := snapshot.NewStore(cfg.Snapshot, zapLogger.Named("snapshot"))
	defer scoreStore.Close()

	publisher := orchestration.NewFanout(kafkaPub, auditStore, scoreStore)
	coordinator := orchestration.New(publisher, zapLogger.Named("coordinator"))

	srv := server.New(zapLogger.Named("http"), coordinator, auditStore, cfg)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		zapLogger.Info("http server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("environment", cfg.Environment))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("http shutdown failed", zap.Error(err))
	}
}
