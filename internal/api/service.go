package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/checksum"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/models"
	"github.com/starford/metacrate/internal/sse"
)

// CrateStore persists received documents.
type CrateStore interface {
	InsertCrate(ctx context.Context, rec models.CrateRecord) error
	GetCrate(ctx context.Context, id string) (*models.CrateRecord, error)
	ListCrates(ctx context.Context, limit, offset int) ([]models.CrateRecord, int, error)
}

// Notifier is told about every stored crate.
type Notifier interface {
	PublishInserted(sse.CrateInserted)
}

// Service stores and retrieves ingested crates.
type Service struct {
	db     CrateStore
	notify Notifier
	now    func() time.Time
}

// NewService creates a new ingestion service. notify may be nil.
func NewService(db CrateStore, notify Notifier) *Service {
	return &Service{db: db, notify: notify, now: func() time.Time { return time.Now().UTC() }}
}

// Insert stores body, which must be a JSON object, under a fresh id.
// Invalid or empty input yields an *apperr.ParseError.
func (s *Service) Insert(ctx context.Context, body []byte) (*models.CrateRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &apperr.ParseError{Reason: "no data provided"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, &apperr.ParseError{Reason: "body must be a JSON object", Err: err}
	}

	compact, sum, err := checksum.JSON(trimmed)
	if err != nil {
		return nil, &apperr.ParseError{Reason: "invalid JSON", Err: err}
	}
	rec := models.CrateRecord{
		ID:        uuid.NewString(),
		Checksum:  sum,
		Body:      compact,
		CreatedAt: s.now(),
	}
	if err := s.db.InsertCrate(ctx, rec); err != nil {
		return nil, fmt.Errorf("api: insert crate: %w", err)
	}

	if s.notify != nil {
		s.notify.PublishInserted(sse.CrateInserted{
			ID:        rec.ID,
			Checksum:  rec.Checksum,
			Name:      crateName(rec.Body),
			CreatedAt: rec.CreatedAt,
		})
	}
	return &rec, nil
}

// crateName returns the root dataset name of an RO-Crate document, or "" for
// anything else.
func crateName(body []byte) string {
	doc, err := crate.Parse(body)
	if err != nil {
		return ""
	}
	root, ok := doc.Node(crate.RootID)
	if !ok {
		return ""
	}
	name, _ := root["name"].(string)
	return name
}

// Get returns a stored crate or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.CrateRecord, error) {
	return s.db.GetCrate(ctx, id)
}

// List returns stored crates newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.CrateRecord, int, error) {
	return s.db.ListCrates(ctx, limit, offset)
}
