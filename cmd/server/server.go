package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const readHeaderTimeout = 10 * time.Second

// serve listens on the configured port until ctx is cancelled.
func (app *application) serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", app.config.Server.Port, err)
	}
	return app.serveOn(ctx, ln)
}

// serveOn runs the HTTP server on ln and, when enabled, the scheduler. On
// cancellation it stops the scheduler first, waiting for an in-flight pass,
// then drains HTTP connections within the shutdown timeout.
func (app *application) serveOn(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           app.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if app.config.Scheduler.Enabled {
		app.scheduler.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err, ok := <-serverErr:
		if ok {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	app.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.logger.Info("server shutdown completed")
	return runErr
}
