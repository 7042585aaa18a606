// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidContentType = errors.New("content type is not application/json")
	ErrMalformedJSON      = errors.New("malformed JSON payload")
	// ErrNotObject is returned for valid JSON whose top level is not an object
	ErrNotObject = errors.New("payload is not a JSON object")
)

// RequiredFieldError reports a missing or empty required request field
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("Field '%s' is required.", e.Field)
}

func NewRequiredField(field string) error {
	return &RequiredFieldError{Field: field}
}

// TemplateNotConfiguredError is returned when a logical template name has no path
type TemplateNotConfiguredError struct {
	Name string
}

func (e *TemplateNotConfiguredError) Error() string {
	return fmt.Sprintf("template %q is not configured", e.Name)
}

func NewTemplateNotConfigured(name string) error {
	return &TemplateNotConfiguredError{Name: name}
}

// TemplateUnreadableError wraps the I/O failure behind a template load
type TemplateUnreadableError struct {
	Name string
	Path string
	Err  error
}

func (e *TemplateUnreadableError) Error() string {
	return fmt.Sprintf("template %q (%s) could not be read: %v", e.Name, e.Path, e.Err)
}

func (e *TemplateUnreadableError) Unwrap() error {
	return e.Err
}

func NewTemplateUnreadable(name, path string, err error) error {
	return &TemplateUnreadableError{Name: name, Path: path, Err: err}
}

// RenderedEmailNotFoundError is a sentinel-like error for history lookups
type RenderedEmailNotFoundError struct {
	ID string
}

func (e *RenderedEmailNotFoundError) Error() string {
	return fmt.Sprintf("rendered email with ID %s not found", e.ID)
}

func NewRenderedEmailNotFound(id string) error {
	return &RenderedEmailNotFoundError{ID: id}
}
