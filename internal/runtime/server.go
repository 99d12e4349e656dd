package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds both the HTTP shutdown and the wait for in-flight forwards.
const ShutdownTimeout = 5 * time.Second

// Serve listens on addr until ctx is cancelled, then shuts the server down gracefully. Forwards
// still running after ShutdownTimeout are abandoned.
func (r *Runtime) Serve(ctx context.Context, addr string, ioTimeout time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return r.serve(ctx, listener, ioTimeout)
}

func (r *Runtime) serve(ctx context.Context, listener net.Listener, ioTimeout time.Duration) error {
	s := &http.Server{
		Handler:      r.Router(),
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		IdleTimeout:  ioTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("serving...", slog.String("address", listener.Addr().String()), slog.String("path", r.path), slog.String("timeout", ioTimeout.String()))
		if err := s.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := r.Handler.Wait(shutdownCtx); err != nil {
		r.logger.Warn("abandoning in-flight forwards", slog.Any("error", err))
	}
	return nil
}
