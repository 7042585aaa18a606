// internal/service/email_service.go
package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	appErrors "github.com/unclebandit/order-email-api/internal/errors"
	"github.com/unclebandit/order-email-api/internal/model"
	"github.com/unclebandit/order-email-api/internal/queue"
	"github.com/unclebandit/order-email-api/internal/repository"
)

// RequiredFields must be present and non-empty for Generate, checked in this order.
var RequiredFields = []string{"customer", "order", "products", "summary"}

// productsField feeds the row table on Generate when the row field itself is absent.
const productsField = "products"

// RenderResult is the post-processed HTML plus the history ID, empty when recording is off
type RenderResult struct {
	HTML string
	ID   string
}

type EmailService struct {
	Templates    repository.TemplateRepositoryInterface
	History      repository.RenderedEmailRepositoryInterface
	Renderer     *TemplateService
	Introspector *StructureService
	Logger       *log.Logger

	// Queue receives a model.RenderedEmail per successful render; nil disables recording
	Queue           queue.Queue
	RenderedTopic   string
	DefaultTemplate string
}

func ValidateRequired(fields model.FieldMap) error {
	for _, name := range RequiredFields {
		v, ok := fields.Get(name)
		if !ok || v.IsEmpty() {
			return appErrors.NewRequiredField(name)
		}
	}
	return nil
}

// Generate renders an order email. The products list fills the row table
// unless the payload carries the row field explicitly.
func (s *EmailService) Generate(templateName string, fields model.FieldMap) (*RenderResult, error) {
	if err := ValidateRequired(fields); err != nil {
		return nil, err
	}

	fields = fields.Clone()
	if _, ok := fields.Get(s.Renderer.RowField); !ok {
		if products, _ := fields.Get(productsField); products.Kind == model.KindRows {
			fields.Set(s.Renderer.RowField, products)
		}
	}

	return s.render(templateName, model.OperationGenerate, fields)
}

// Replay substitutes arbitrary fields; an empty map is valid.
func (s *EmailService) Replay(templateName string, fields model.FieldMap) (*RenderResult, error) {
	return s.render(templateName, model.OperationReplay, fields)
}

func (s *EmailService) Structure(templateName string) (model.SchemaDescriptor, error) {
	raw, err := s.Templates.Load(s.templateName(templateName))
	if err != nil {
		return model.SchemaDescriptor{}, err
	}
	return s.Introspector.Introspect(raw)
}

func (s *EmailService) Rendered(ctx context.Context, id string) (*model.RenderedEmail, error) {
	if s.History == nil {
		return nil, appErrors.NewRenderedEmailNotFound(id)
	}
	return s.History.GetByID(ctx, id)
}

func (s *EmailService) render(templateName, operation string, fields model.FieldMap) (*RenderResult, error) {
	name := s.templateName(templateName)
	raw, err := s.Templates.Load(name)
	if err != nil {
		return nil, err
	}

	out := PostProcess(s.Renderer.Render(raw, fields))
	return &RenderResult{HTML: out, ID: s.record(name, operation, fields, out)}, nil
}

func (s *EmailService) templateName(name string) string {
	if name == "" {
		return s.DefaultTemplate
	}
	return name
}

// record publishes the render for the history store and returns its ID.
// The store is written by the queue subscriber, so the ID may not be
// retrievable yet when the request returns. Failures are logged only and
// yield an empty ID.
func (s *EmailService) record(templateName, operation string, fields model.FieldMap, out string) string {
	if s.Queue == nil {
		return ""
	}

	e := model.RenderedEmail{
		ID:        uuid.NewString(),
		Template:  templateName,
		Operation: operation,
		HTML:      out,
		CreatedAt: time.Now().UTC(),
	}
	if order, ok := fields.Get("order"); ok && order.Kind == model.KindScalar {
		e.OrderRef = order.Scalar
	}

	if err := s.Queue.Publish(s.RenderedTopic, e); err != nil {
		s.Logger.Warn("failed to publish rendered email", "id", e.ID, "topic", s.RenderedTopic, "error", err)
		return ""
	}
	s.Logger.Debug("rendered email published", "id", e.ID, "operation", operation)
	return e.ID
}
