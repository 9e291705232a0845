package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/opdl/playlistd/internal/server"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the sync daemon: the scheduler loops plus the HTTP API.
// Blocks until SIGINT/SIGTERM, then drains in-flight playlist runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	port := r.config.Server.Port
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	if cmd.Int("port") != 0 {
		port = int(cmd.Int("port"))
	}

	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.settings.EnsureDefaults(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	eng := r.buildEngine(c)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng.scheduler.Start(ctx)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewPlaylistHandler(c.playlists, eng.scheduler, r.logger))
	router.Handler(server.NewSyncHandler(c.playlists, eng.scheduler))
	router.Handler(server.NewSettingsHandler(c.settings))
	router.Handler(server.NewStatusHandler(eng.scheduler))

	addr := fmt.Sprintf("%s:%d", host, port)
	// CORS wraps the whole router so OPTIONS preflights are answered even
	// though routes are registered with method-qualified patterns.
	srv := &http.Server{Addr: addr, Handler: server.CORSMiddleware()(router)}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.logger.Error("server shutdown failed", "error", err)
	}

	eng.scheduler.Wait()
	return nil
}
