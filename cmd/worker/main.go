package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/order-email-api/internal/config"
	"github.com/unclebandit/order-email-api/internal/db"
	"github.com/unclebandit/order-email-api/internal/logging"
	"github.com/unclebandit/order-email-api/internal/queue"
	"github.com/unclebandit/order-email-api/internal/repository"
	"github.com/unclebandit/order-email-api/internal/service"
)

// The worker drains the rendered email queue into postgres, for deployments
// where the API servers publish to RabbitMQ instead of storing in-process.
func main() {
	cfg := config.MustLoad()
	logger := logging.New(cfg.Log.Level)
	if !cfg.EnvFileLoaded {
		logger.Debug("No .env file found, using environment")
	}

	if cfg.Database.URL == "" || cfg.Queue.AMQPURL == "" {
		logger.Fatal("worker needs DATABASE_URL and AMQP_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer conn.Close()

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, logger)
	if err != nil {
		logger.Fatal("queue unavailable", "error", err)
	}
	defer q.Close()

	worker := service.NewWorker(&repository.RenderedEmailRepository{DB: conn}, logger)
	if err := queue.StartRenderedEmailSubscriber(q, cfg.Queue.RenderedTopic, worker.Handle, logger); err != nil {
		logger.Fatal("failed to register consumer", "error", err)
	}

	logger.Info("worker running, waiting for rendered emails", "topic", cfg.Queue.RenderedTopic)
	<-ctx.Done()
	logger.Info("worker stopping")
}
