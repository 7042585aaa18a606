package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unclebandit/order-email-api/internal/model"
	"github.com/unclebandit/order-email-api/internal/repository"
)

// Worker stores rendered emails delivered by the queue
type Worker struct {
	Repo    repository.RenderedEmailRepositoryInterface
	Logger  *log.Logger
	Timeout time.Duration
}

// Constructor
func NewWorker(repo repository.RenderedEmailRepositoryInterface, logger *log.Logger) *Worker {
	return &Worker{
		Repo:    repo,
		Logger:  logger,
		Timeout: 5 * time.Second,
	}
}

// Handle is a queue handler. Undecodable payloads are dropped, store errors are returned for retry.
func (w *Worker) Handle(payload any) error {
	e, ok := w.decode(payload)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	if err := w.Repo.Create(ctx, &e); err != nil {
		w.Logger.Warn("failed to store rendered email", "id", e.ID, "error", err)
		return err
	}
	w.Logger.Info("rendered email stored", "id", e.ID, "operation", e.Operation, "order", e.OrderRef)
	return nil
}

func (w *Worker) decode(payload any) (model.RenderedEmail, bool) {
	var e model.RenderedEmail
	switch p := payload.(type) {
	case model.RenderedEmail:
		e = p
	case *model.RenderedEmail:
		if p != nil {
			e = *p
		}
	case json.RawMessage:
		if err := json.Unmarshal(p, &e); err != nil {
			w.Logger.Warn("invalid rendered email payload", "error", err)
			return e, false
		}
	case []byte:
		return w.decode(json.RawMessage(p))
	default:
		w.Logger.Warn("unexpected payload type", "type", fmt.Sprintf("%T", payload))
		return e, false
	}

	if e.ID == "" {
		w.Logger.Warn("rendered email without ID dropped")
		return e, false
	}
	return e, true
}
