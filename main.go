package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"orderapi/internal/config"
	"orderapi/internal/events"
	"orderapi/internal/handlers"
	"orderapi/internal/logger"
	"orderapi/internal/metrics"
	"orderapi/internal/repositories"
	"orderapi/internal/services"
)

// server bundles the HTTP app with the resources it must release on shutdown.
type server struct {
	app       *fiber.App
	repo      repositories.OrderRepository
	publisher events.Publisher
}

// newServer connects storage and the event broker and builds the HTTP app.
// Storage failures are fatal; nothing is left open when an error is returned.
func newServer(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*server, error) {
	repo, err := repositories.NewOrderRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		_ = repo.Close(ctx)
		return nil, fmt.Errorf("failed to connect event broker: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	orderService := services.NewOrderService(repo, publisher, m)
	app := handlers.NewApp(handlers.AppOptions{
		Service:   orderService,
		Metrics:   m,
		LogOutput: logOutput,
	})

	return &server{app: app, repo: repo, publisher: publisher}, nil
}

// Close stops the HTTP app and releases storage and broker connections.
func (s *server) Close(ctx context.Context) error {
	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event publisher close: %w", err))
	}
	if err := s.repo.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("storage close: %w", err))
	}
	return errors.Join(errs...)
}

// run serves on addr until a signal arrives on quit or Listen fails, then
// shuts everything down. A Listen failure is returned after cleanup.
func (s *server) run(addr string, quit <-chan os.Signal, shutdownTimeout time.Duration, entry *log.Entry) error {
	listenErr := make(chan error, 1)
	go func() {
		if err := s.app.Listen(addr); err != nil {
			listenErr <- err
		}
	}()

	var runErr error
	select {
	case <-quit:
		entry.Info("Shutting down server...")
	case err := <-listenErr:
		runErr = fmt.Errorf("listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		entry.WithError(err).Error("Error during shutdown")
	}
	return runErr
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logOutput, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	entry := logger.Component("main").WithFields(log.Fields{
		"storage": cfg.Storage.Driver,
		"events":  cfg.Events.Driver,
	})

	srv, err := newServer(context.Background(), cfg, logOutput)
	if err != nil {
		entry.WithError(err).Error("Failed to start order service")
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	entry.Infof("Starting server on %s", cfg.Server.Addr())
	if err := srv.run(cfg.Server.Addr(), quit, cfg.Server.ShutdownTimeout, entry); err != nil {
		entry.WithError(err).Error("Server failed to start")
		os.Exit(1)
	}
	entry.Info("Server gracefully stopped")
}
