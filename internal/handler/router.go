// internal/handler/router.go
package handler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/order-email-api/internal/controller"
)

// NewRouter wires the email routes behind request id, logging and panic recovery.
func NewRouter(c *controller.EmailController, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.NotFound(c.NotFound)
	r.MethodNotAllowed(c.MethodNotAllowed)

	// Email routes
	r.Get("/api/email", c.Discovery)
	r.Post("/api/email", c.Generate)
	r.Get("/api/email/getstructure", c.Structure)
	r.Post("/api/email/repl", c.Replay)
	r.Get("/api/email/history/{id}", c.History)

	return r
}

// RequestLogger logs one line per request.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
