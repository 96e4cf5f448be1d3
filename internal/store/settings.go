package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/metacrate/internal/keystore"
)

// Settings is a keystore.Store persisted in the settings table and scoped
// to one plugin id.
type Settings struct {
	db       *DB
	pluginID string
}

var _ keystore.Store = (*Settings)(nil)

// Settings returns the settings store for pluginID.
func (db *DB) Settings(pluginID string) *Settings {
	return &Settings{db: db, pluginID: pluginID}
}

// Get implements keystore.Store.
func (s *Settings) Get(ctx context.Context, key string) (any, bool, error) {
	var raw string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE plugin = ? AND key = ?`, s.pluginID, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get setting: %w", err)
	}
	v, err := keystore.Decode([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements keystore.Store.
func (s *Settings) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode setting %q: %w", key, err)
	}
	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO settings (plugin, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(plugin, key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, s.pluginID, key, string(raw))
	if err != nil {
		return fmt.Errorf("store: set setting: %w", err)
	}
	return nil
}
