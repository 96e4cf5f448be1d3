package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/keystore"
	"github.com/starford/metacrate/internal/metaservice"
	"github.com/starford/metacrate/internal/push"
	"github.com/starford/metacrate/internal/storage"
	"github.com/starford/metacrate/internal/store"
)

// NewLogger builds the structured JSON logger used across metacrate.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenSettings opens the configured settings backend. Any failure is
// reported as apperr.ErrSettingsUnavailable wrapping the cause. The returned
// close function releases the backend.
func OpenSettings(ctx context.Context, cfg *Config) (keystore.Store, func() error, error) {
	switch cfg.Settings.Backend {
	case BackendMemory:
		return keystore.NewMemory(), func() error { return nil }, nil

	case BackendRedis:
		r, err := keystore.NewRedis(ctx, &redis.Options{
			Addr:     cfg.Settings.Redis.Addr,
			Password: cfg.Settings.Redis.Password,
			DB:       cfg.Settings.Redis.DB,
		}, cfg.Workspace.PluginID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperr.ErrSettingsUnavailable, err)
		}
		return r, r.Close, nil

	default:
		db, err := store.Open(cfg.Settings.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperr.ErrSettingsUnavailable, err)
		}
		return db.Settings(cfg.Workspace.PluginID), db.Close, nil
	}
}

// Workspace is an opened workspace: its files, settings backend and the
// metadata service over them.
type Workspace struct {
	Files   *storage.FS
	Service *metaservice.Service
	close   func() error
}

// Close releases the settings backend.
func (w *Workspace) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// OpenWorkspace wires the metadata service for cfg.Workspace.Path. When the
// settings backend cannot be opened nothing is initialised and the error
// wraps apperr.ErrSettingsUnavailable.
func OpenWorkspace(ctx context.Context, cfg *Config, logger *slog.Logger) (*Workspace, error) {
	files, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	ns, err := keystore.NewNamespace(files.Root())
	if err != nil {
		return nil, err
	}

	settings, closeSettings, err := OpenSettings(ctx, cfg)
	if err != nil {
		if errors.Is(err, apperr.ErrSettingsUnavailable) {
			logger.Error("settings unavailable, metadata features disabled", slog.String("error", err.Error()))
		}
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Crate.HTTPTimeout}
	vocab, err := crate.NewHTTPVocabulary(cfg.Crate.ContextURL, httpClient, cfg.Crate.VocabularyCacheSize)
	if err != nil {
		_ = closeSettings()
		return nil, err
	}
	pusher := push.New(cfg.Push.URL, push.WithHTTPClient(httpClient), push.WithLogger(logger))

	svc, err := metaservice.New(ctx, ns, settings, files, vocab,
		metaservice.WithPusher(pusher),
		metaservice.WithLogger(logger),
	)
	if err != nil {
		_ = closeSettings()
		return nil, err
	}
	logger.Debug("workspace opened",
		slog.String("workspace", ns.ID),
		slog.String("settings_backend", cfg.Settings.Backend))
	return &Workspace{Files: files, Service: svc, close: closeSettings}, nil
}
