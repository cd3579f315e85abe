package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	h := newCommandHandler(app.executor, app.service, app.document, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/translations", h.SubmitTranslation)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
		r.Post("/abort", h.AbortAll)
		r.Get("/commands", h.History)
		r.Get("/document", h.Document)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
