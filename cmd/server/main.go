// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/unclebandit/order-email-api/internal/config"
	"github.com/unclebandit/order-email-api/internal/controller"
	"github.com/unclebandit/order-email-api/internal/db"
	"github.com/unclebandit/order-email-api/internal/handler"
	"github.com/unclebandit/order-email-api/internal/logging"
	"github.com/unclebandit/order-email-api/internal/queue"
	"github.com/unclebandit/order-email-api/internal/repository"
	"github.com/unclebandit/order-email-api/internal/service"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New(cfg.Log.Level)
	if !cfg.EnvFileLoaded {
		logger.Debug("No .env file found, using environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History store: postgres when configured, memory otherwise
	var history repository.RenderedEmailRepositoryInterface
	if cfg.Database.URL != "" {
		conn, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("database unavailable", "error", err)
		}
		defer conn.Close()
		history = &repository.RenderedEmailRepository{DB: conn}
		logger.Info("connected to database")
	} else {
		history = repository.NewMemoryRenderedEmailRepository(cfg.Database.HistoryMaxEntries)
		logger.Warn("DATABASE_URL not set, rendered email history kept in memory", "max_entries", cfg.Database.HistoryMaxEntries)
	}

	q := newQueue(cfg, logger)
	if closer, ok := q.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	worker := service.NewWorker(history, logger)
	if err := queue.StartRenderedEmailSubscriber(q, cfg.Queue.RenderedTopic, worker.Handle, logger); err != nil {
		logger.Fatal("failed to start subscriber", "error", err)
	}

	emailService := &service.EmailService{
		Templates:       repository.NewTemplateRepository(cfg.Templates.Paths),
		History:         history,
		Renderer:        service.NewTemplateService(cfg.Templates.RowField, cfg.Templates.RowMarker),
		Introspector:    service.NewStructureService(cfg.Templates.RowField),
		Logger:          logger,
		Queue:           q,
		RenderedTopic:   cfg.Queue.RenderedTopic,
		DefaultTemplate: cfg.Templates.Default,
	}

	emailController := &controller.EmailController{
		EmailService: emailService,
		Logger:       logger,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		StrictStatus: cfg.HTTP.StrictStatus,
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler.NewRouter(emailController, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("server running", "address", cfg.HTTP.Address, "default_template", cfg.Templates.Default)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newQueue(cfg *config.Config, logger *log.Logger) queue.Queue {
	if cfg.Queue.AMQPURL == "" {
		return queue.NewInMemoryQueue(logger)
	}

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, logger)
	if err != nil {
		logger.Fatal("queue unavailable", "error", err)
	}
	logger.Info("connected to RabbitMQ", "topic", cfg.Queue.RenderedTopic)
	return q
}
