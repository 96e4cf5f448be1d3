package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/models"
)

// InsertCrate stores a received document.
func (db *DB) InsertCrate(ctx context.Context, rec models.CrateRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO crates (id, checksum, body, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Checksum, string(rec.Body), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert crate: %w", err)
	}
	return nil
}

// GetCrate returns a stored document by id, or apperr.ErrNotFound.
func (db *DB) GetCrate(ctx context.Context, id string) (*models.CrateRecord, error) {
	var (
		rec  models.CrateRecord
		body string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, checksum, body, created_at FROM crates WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Checksum, &body, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get crate: %w", err)
	}
	rec.Body = []byte(body)
	return &rec, nil
}

// ListCrates returns stored documents without their bodies, newest first.
func (db *DB) ListCrates(ctx context.Context, limit, offset int) ([]models.CrateRecord, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM crates`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count crates: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, checksum, created_at
		FROM crates
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list crates: %w", err)
	}
	defer rows.Close()

	var out []models.CrateRecord
	for rows.Next() {
		var rec models.CrateRecord
		if err := rows.Scan(&rec.ID, &rec.Checksum, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
