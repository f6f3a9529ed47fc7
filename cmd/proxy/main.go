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

	"github.com/gorilla/handlers"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/api"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/backend"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidatePublisher(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub, err := backend.Open(ctx, cfg)
	if err != nil {
		var connErr *publisher.ConnectionError
		if errors.As(err, &connErr) && connErr.Hint != "" {
			log.Printf("Hint: %s", connErr.Hint)
		}
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer pub.Close()

	router := api.NewRouter(api.NewServer(pub, cfg.Publisher.Topic))
	srv := &http.Server{
		Addr:              cfg.Proxy.Addr,
		Handler:           handlers.LoggingHandler(os.Stdout, handlers.CORS()(router)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Publish proxy listening on %s (backend %s, topic %s)", cfg.Proxy.Addr, cfg.Publisher.Backend, cfg.Publisher.Topic)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Proxy server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Received termination signal. Shutting down...")

	// Set a deadline for clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown timed out: %v", err)
	}

	log.Println("Shutdown complete.")
}
