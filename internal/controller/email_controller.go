// internal/controller/email_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/order-email-api/internal/errors"
	"github.com/unclebandit/order-email-api/internal/model"
	"github.com/unclebandit/order-email-api/internal/service"
)

const (
	msgInvalidContentType = "Invalid Content-Type. Expected application/json."
	msgInvalidJSON        = "Invalid JSON payload."
	msgInvalidReplay      = "Invalid data or malformed JSON payload."
	msgInvalidMethod      = "Invalid request method."
	msgBodyTooLarge       = "Request body too large."
	msgTemplateFailure    = "Email template could not be loaded."

	// RenderedIDHeader carries the history ID of a recorded render
	RenderedIDHeader = "X-Rendered-Email-Id"
)

type htmlResponse struct {
	HTML string `json:"html"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type replayResponse struct {
	Status  string `json:"status"`
	HTML    string `json:"html,omitempty"`
	Message string `json:"message,omitempty"`
}

type EmailController struct {
	EmailService *service.EmailService
	Logger       *log.Logger
	MaxBodyBytes int64
	// StrictStatus answers request errors with 4xx; otherwise they are 200 with an error body
	StrictStatus bool
}

// Discovery documents the generate endpoint.
func (c *EmailController) Discovery(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, model.GenerateDiscovery())
}

func (c *EmailController) Generate(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		c.writeJSON(w, c.requestStatus(http.StatusUnsupportedMediaType), errorResponse{Error: msgInvalidContentType})
		return
	}

	body, ok := c.readBody(w, r)
	if !ok {
		c.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: msgBodyTooLarge})
		return
	}

	fields, err := model.ParseFieldMap(body)
	switch {
	case errors.Is(err, appErrors.ErrMalformedJSON):
		c.writeJSON(w, c.requestStatus(http.StatusBadRequest), errorResponse{Error: msgInvalidJSON})
		return
	case errors.Is(err, appErrors.ErrNotObject):
		// a JSON scalar or list has none of the required fields
		fields = model.FieldMap{}
	}

	res, err := c.EmailService.Generate(templateParam(r), fields)
	if err != nil {
		var required *appErrors.RequiredFieldError
		if errors.As(err, &required) {
			c.writeJSON(w, c.requestStatus(http.StatusUnprocessableEntity), errorResponse{Error: required.Error()})
			return
		}
		status, msg := c.templateFailure(err)
		c.writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	setRenderedID(w, res)
	c.writeJSON(w, http.StatusOK, htmlResponse{HTML: res.HTML})
}

func (c *EmailController) Structure(w http.ResponseWriter, r *http.Request) {
	schema, err := c.EmailService.Structure(templateParam(r))
	if err != nil {
		status, msg := c.templateFailure(err)
		c.writeJSON(w, status, errorResponse{Error: msg})
		return
	}
	c.writeJSON(w, http.StatusOK, schema)
}

func (c *EmailController) Replay(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		c.writeJSON(w, http.StatusRequestEntityTooLarge, replayResponse{Status: "error", Message: msgBodyTooLarge})
		return
	}

	fields, err := model.ParseFieldMap(body)
	if err != nil {
		c.writeJSON(w, c.requestStatus(http.StatusBadRequest), replayResponse{Status: "error", Message: msgInvalidReplay})
		return
	}

	res, err := c.EmailService.Replay(templateParam(r), fields)
	if err != nil {
		status, msg := c.templateFailure(err)
		c.writeJSON(w, status, replayResponse{Status: "error", Message: msg})
		return
	}

	setRenderedID(w, res)
	c.writeJSON(w, http.StatusOK, replayResponse{Status: "success", HTML: res.HTML})
}

// History returns a previously rendered email by ID.
// Renders are stored by a queue subscriber, so an ID from X-Rendered-Email-Id
// may answer 404 until that delivery has run.
func (c *EmailController) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rendered, err := c.EmailService.Rendered(r.Context(), id)
	if err != nil {
		var notFound *appErrors.RenderedEmailNotFoundError
		if errors.As(err, &notFound) {
			c.writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
			return
		}
		c.Logger.Error("failed to fetch rendered email", "id", id, "error", err)
		c.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch rendered email"})
		return
	}
	c.writeJSON(w, http.StatusOK, rendered)
}

func (c *EmailController) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: msgInvalidMethod})
}

func (c *EmailController) NotFound(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusNotFound, errorResponse{Error: "Route not found."})
}

func (c *EmailController) requestStatus(strict int) int {
	if c.StrictStatus {
		return strict
	}
	return http.StatusOK
}

// templateFailure maps template store errors. Unreadable templates are a server fault.
func (c *EmailController) templateFailure(err error) (int, string) {
	var notConfigured *appErrors.TemplateNotConfiguredError
	if errors.As(err, &notConfigured) {
		return http.StatusNotFound, notConfigured.Error()
	}

	var unreadable *appErrors.TemplateUnreadableError
	if errors.As(err, &unreadable) {
		c.Logger.Error("template unreadable", "template", unreadable.Name, "path", unreadable.Path, "error", unreadable.Err)
		return http.StatusInternalServerError, msgTemplateFailure
	}

	c.Logger.Error("template operation failed", "error", err)
	return http.StatusInternalServerError, msgTemplateFailure
}

func (c *EmailController) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, false
		}
		// a broken body reads as malformed JSON downstream
		return nil, true
	}
	return body, true
}

func templateParam(r *http.Request) string {
	return r.URL.Query().Get("template")
}

func setRenderedID(w http.ResponseWriter, res *service.RenderResult) {
	if res.ID != "" {
		w.Header().Set(RenderedIDHeader, res.ID)
	}
}

func (c *EmailController) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		c.Logger.Error("failed to write response", "status", status, "error", err)
	}
}
