// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/metacrate/internal/api"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/form"
	"github.com/starford/metacrate/internal/mcpserver"
	"github.com/starford/metacrate/internal/sse"
	"github.com/starford/metacrate/internal/store"
	"github.com/starford/metacrate/internal/watch"
)

// Run starts the ingestion server that receives pushed crates and blocks
// until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
		slog.SetDefault(logger)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.Settings.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.Settings.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	feed := sse.NewFeed(sse.DefaultBacklog)
	defer feed.Close()

	svc := api.NewService(db, feed)
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(svc, feed, cfg.App.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)

		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// NewHandler builds the root router of the ingestion server.
func NewHandler(svc *api.Service, feed *sse.Feed, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = api.DefaultAllowedOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.CORSMiddleware(allowedOrigins))

	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Get("/", api.Home)
	r.Mount("/api", api.NewRouter(svc, feed))
	return r
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RunWatch re-exports the workspace whenever it changes, pushing each
// export when watch.push is set. It blocks until ctx is cancelled or a
// shutdown signal arrives.
func RunWatch(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.App.LogLevel)
	}

	ws, err := OpenWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	export := func(ctx context.Context) {
		data, err := ws.Service.WriteExport(ctx, "")
		if err != nil {
			logger.Error("watch: export failed", slog.String("error", err.Error()))
			return
		}
		fmt.Fprintf(app.out, "wrote %s (%d bytes)\n", crate.MetadataFile, len(data))
		if !cfg.Watch.Push {
			return
		}
		if res, err := ws.Service.Push(ctx, data); err == nil {
			fmt.Fprintf(app.out, "pushed as %s\n", res.ID)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	wCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		export(wCtx)
		return watch.Watch(wCtx, ws.Files.Root(), cfg.Watch.Debounce,
			[]string{crate.MetadataFile, form.SchematicFile}, logger, export)
	})

	g.Go(func() error {
		waitForShutdown(wCtx, logger)
		cancel()
		return nil
	})

	return g.Wait()
}

// RunMCP serves the workspace tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, app.config.App.LogLevel)
	}

	ws, err := OpenWorkspace(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	logger.Info("mcp: serving on stdio", slog.String("workspace", ws.Files.Root()))
	return mcpserver.New(ws.Service, app.version).ServeStdio()
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
