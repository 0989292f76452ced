package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"user-events/internal/api"
	"user-events/internal/broker"
	"user-events/internal/config"
	"user-events/internal/storage"
	"user-events/internal/store"
	"user-events/pkg/logger"
)

func main() {
	// Initialize logger
	logger.Init(os.Getenv("LOG_MODE") == "prod")
	log := logger.Get()
	defer logger.Sync()

	// Load configuration
	cfg := config.Load()
	log.Infow("loaded configuration",
		"http_addr", cfg.HTTPAddr,
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"group_id", cfg.GroupID,
		"store_capacity", cfg.StoreCapacity,
		"archive_enabled", cfg.ArchiveEnabled,
	)

	// Recent-event store, shared between the consumer and the query path
	recent := store.NewRecentStore(cfg.StoreCapacity)
	metrics := broker.NewMetrics()

	// Optional MySQL archive sink
	var archive broker.Archive
	if cfg.ArchiveEnabled {
		a, err := storage.NewEventArchive(cfg.DSN())
		if err != nil {
			log.Fatalw("failed to connect to MySQL", "error", err)
		}
		defer func() {
			_ = a.Close()
			log.Info("closed MySQL connection")
		}()
		archive = a
	}

	// Publisher owns the produce session for the process lifetime
	publisher, err := broker.NewPublisher(cfg, metrics)
	if err != nil {
		log.Fatalw("failed to create publisher", "error", err)
	}

	// Consumer loop on its own goroutine, sole writer to the store
	consumer, err := broker.NewConsumer(cfg, recent, archive, metrics)
	if err != nil {
		log.Fatalw("failed to create consumer", "error", err)
	}

	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(consumeCtx)
	}()

	// Start API server
	mux := http.NewServeMux()
	server := api.NewServer(publisher, recent, metrics)
	server.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server...")

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelHTTP()
	if err := srv.Shutdown(httpCtx); err != nil {
		log.Errorw("server shutdown error", "error", err)
	}

	// Stop the consumer and join with a bounded grace period
	stopConsumer()
	consumer.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.ShutdownGrace):
		log.Warnw("consumer did not stop within grace period",
			"grace_ms", cfg.ShutdownGrace.Milliseconds(),
		)
	}

	// Flush and close the publisher last so accepted events drain
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancelFlush()
	publisher.Close(flushCtx)

	log.Info("service stopped")
}
