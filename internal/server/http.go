package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// NewHTTPServer builds the http.Server for the chat service with production
// timeouts. WebSocket connections are hijacked away from the HTTP server and
// stop being subject to these timeouts once established.
func NewHTTPServer(cfg Config, s *Server) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled or the listener fails, then drains
// the HTTP server and the hub within the configured shutdown timeout.
func Serve(ctx context.Context, cfg Config, srv *http.Server, hub *Hub, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		hub.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("hub shutdown", "error", err)
	}
	return <-errCh
}
