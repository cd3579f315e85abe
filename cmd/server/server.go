package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// httpServer wraps the standard library server with start/shutdown helpers.
type httpServer struct {
	server *http.Server
}

// newServer builds the HTTP server around the application's router.
func (app *application) newServer() *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
			Handler:           app.setupRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// start runs the server until it is shut down. A clean shutdown returns nil.
func (s *httpServer) start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// shutdown drains in-flight requests until the context expires.
func (s *httpServer) shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
