package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"web/page-recorder/kafka"
)

var (
	storageManager *StorageManager
	dbManager      *DatabaseManager
	eventProducer  *kafka.Producer
	recorder       *Recorder
)

func main() {
	log.Println("🎬 Starting Page Recorder Service...")

	cfg := LoadConfig()

	if err := initializeServices(cfg); err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}

	recorder = NewRecorder(cfg, storageManager, dbManager, eventProducer)

	setupRoutes()

	server := &http.Server{Addr: ":" + cfg.Port}

	go func() {
		log.Printf("🌐 Page recorder listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown: по сигналу добиваем процессы текущего задания,
	// прежде чем выйти — сирот оставлять нельзя
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Println("✅ Page Recorder Service is running")
	<-c

	log.Println("🛑 Shutting down Page Recorder Service...")

	recorder.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP server shutdown: %v", err)
	}

	if eventProducer != nil {
		eventProducer.Close()
	}
	if dbManager != nil {
		dbManager.Close()
	}

	log.Println("✅ Page Recorder Service stopped")
}

func initializeServices(cfg Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(cfg.ProfileBaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	var err error

	storageManager, err = NewStorageManager()
	if err != nil {
		return err
	}

	// Метаданные опциональны: без БД сервис продолжает работать
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		dbManager, err = NewDatabaseManager()
		if err != nil {
			return err
		}
	} else {
		log.Println("⚠️ No database configured, metadata persistence disabled")
	}

	eventProducer, err = kafka.NewProducer()
	if err != nil {
		return err
	}

	log.Println("✅ All services initialized")
	return nil
}
