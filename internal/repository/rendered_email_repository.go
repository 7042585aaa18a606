// internal/repository/rendered_email_repository.go
package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	appErrors "github.com/unclebandit/order-email-api/internal/errors"
	"github.com/unclebandit/order-email-api/internal/model"
)

type RenderedEmailRepositoryInterface interface {
	Create(ctx context.Context, e *model.RenderedEmail) error
	GetByID(ctx context.Context, id string) (*model.RenderedEmail, error)
}

// ====================== Postgres ======================

type RenderedEmailRepository struct {
	DB *sql.DB
}

// Create inserts a rendered email; replaying the same ID is a no-op
func (r *RenderedEmailRepository) Create(ctx context.Context, e *model.RenderedEmail) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO rendered_emails (id, template, operation, order_ref, html, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query, e.ID, e.Template, e.Operation, e.OrderRef, e.HTML, e.CreatedAt)
	return err
}

func (r *RenderedEmailRepository) GetByID(ctx context.Context, id string) (*model.RenderedEmail, error) {
	query := `
        SELECT id, template, operation, order_ref, html, created_at
        FROM rendered_emails WHERE id=$1
    `
	var e model.RenderedEmail
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Template, &e.Operation, &e.OrderRef, &e.HTML, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewRenderedEmailNotFound(id)
		}
		return nil, err
	}
	return &e, nil
}

// ====================== In-memory ======================

// DefaultHistoryEntries caps the in-memory history when no capacity is given
const DefaultHistoryEntries = 1000

// MemoryRenderedEmailRepository keeps the most recent renders in process when
// no database is configured. Past capacity the oldest entry is evicted.
type MemoryRenderedEmailRepository struct {
	mu       sync.RWMutex
	capacity int
	emails   map[string]model.RenderedEmail
	order    []string
}

func NewMemoryRenderedEmailRepository(capacity int) *MemoryRenderedEmailRepository {
	if capacity <= 0 {
		capacity = DefaultHistoryEntries
	}
	return &MemoryRenderedEmailRepository{
		capacity: capacity,
		emails:   make(map[string]model.RenderedEmail),
	}
}

func (r *MemoryRenderedEmailRepository) Create(ctx context.Context, e *model.RenderedEmail) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emails[e.ID]; exists {
		return nil
	}
	if len(r.order) >= r.capacity {
		delete(r.emails, r.order[0])
		r.order = r.order[1:]
	}
	r.emails[e.ID] = *e
	r.order = append(r.order, e.ID)
	return nil
}

func (r *MemoryRenderedEmailRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.emails)
}

func (r *MemoryRenderedEmailRepository) GetByID(ctx context.Context, id string) (*model.RenderedEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, appErrors.NewRenderedEmailNotFound(id)
	}
	return &e, nil
}
