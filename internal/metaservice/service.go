// Package metaservice owns the metadata state of one workspace: the active
// schematic, the form registry built from it, tag selections, and the
// export/import operations over them.
package metaservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/form"
	"github.com/starford/metacrate/internal/keystore"
	"github.com/starford/metacrate/internal/push"
	"github.com/starford/metacrate/internal/scan"
	"github.com/starford/metacrate/internal/storage"
	"github.com/starford/metacrate/internal/taxonomy"
)

// Pusher delivers an encoded document to an ingestion endpoint.
type Pusher interface {
	Send(ctx context.Context, doc []byte) (*push.Result, error)
}

// TagState is one tag of the taxonomy with its persisted selection. Set is
// false when nothing has been stored for the tag.
type TagState struct {
	Category string `json:"category"`
	Tag      string `json:"tag"`
	Checked  bool   `json:"checked"`
	Set      bool   `json:"set"`
}

// Service coordinates the key store, the workspace files and the crate
// codec for one workspace.
type Service struct {
	ns         keystore.Namespace
	store      keystore.Store
	files      storage.Provider
	scanner    *scan.Scanner
	taxonomy   *taxonomy.Taxonomy
	serializer *crate.Serializer
	pusher     Pusher
	logger     *slog.Logger

	mu       sync.RWMutex
	registry *form.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithTaxonomy replaces the built-in tag catalog.
func WithTaxonomy(tx *taxonomy.Taxonomy) Option {
	return func(s *Service) { s.taxonomy = tx }
}

// WithPusher sets the client Push delivers to.
func WithPusher(p Pusher) Option {
	return func(s *Service) { s.pusher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service for the workspace behind files and loads its state.
// A nil store yields apperr.ErrSettingsUnavailable and nothing is set up.
func New(ctx context.Context, ns keystore.Namespace, store keystore.Store, files storage.Provider, vocab crate.Vocabulary, opts ...Option) (*Service, error) {
	if store == nil || files == nil {
		return nil, apperr.ErrSettingsUnavailable
	}
	s := &Service{
		ns:       ns,
		store:    store,
		files:    files,
		scanner:  scan.New(files, crate.MetadataFile, form.SchematicFile),
		taxonomy: taxonomy.Default(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.serializer = crate.NewSerializer(vocab, files, s.taxonomy)
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Taxonomy returns the tag catalog in use.
func (s *Service) Taxonomy() *taxonomy.Taxonomy { return s.taxonomy }

// Rebuild discards the form and recreates it from persisted state: the
// stored schematic (or the built-in default) and the stored field values.
func (s *Service) Rebuild(ctx context.Context) error {
	sch, err := s.loadSchematic(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]string)
	for _, header := range sch.Headers() {
		names, _ := sch.Get(header)
		for _, name := range names {
			v, ok, err := keystore.Lookup(ctx, s.store, s.ns, func(n keystore.Namespace) string { return n.FieldKey(name) })
			if err != nil {
				return fmt.Errorf("metaservice: load field %q: %w", name, err)
			}
			if str, isStr := v.(string); ok && isStr {
				values[name] = str
			}
		}
	}
	reg := form.NewRegistry(sch, func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})

	s.mu.Lock()
	s.registry = reg
	s.mu.Unlock()
	return nil
}

func (s *Service) loadSchematic(ctx context.Context) (*form.Schematic, error) {
	raw, ok, err := keystore.GetString(ctx, s.store, s.ns.SchematicKey())
	if err != nil {
		return nil, fmt.Errorf("metaservice: load schematic: %w", err)
	}
	if !ok {
		return form.DefaultSchematic(), nil
	}
	parsed, err := form.ParseSchematic([]byte(raw))
	if err == nil {
		parsed, err = form.ImportSchematic(parsed)
	}
	if err != nil {
		s.logger.Warn("metaservice: stored schematic unreadable, using default", slog.String("error", err.Error()))
		return form.DefaultSchematic(), nil
	}
	return parsed, nil
}

// Groups returns the form groups in render order.
func (s *Service) Groups() []form.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Groups()
}

// Fields returns the form fields in render order.
func (s *Service) Fields() []form.Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Fields()
}

// SetField persists a field value and updates the form. Fields not in the
// active schematic yield apperr.ErrNotFound.
func (s *Service) SetField(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry.Field(name); !ok {
		return fmt.Errorf("metaservice: field %q: %w", name, apperr.ErrNotFound)
	}
	if err := s.store.Set(ctx, s.ns.FieldKey(name), value); err != nil {
		return fmt.Errorf("metaservice: set field %q: %w", name, err)
	}
	s.registry.SetValue(name, value)
	return nil
}

// MissingRequired lists required fields that have no value.
func (s *Service) MissingRequired() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.MissingRequired()
}

// Tags returns every tag of the catalog with its selection, by category.
// A tag shared by several categories is listed under each.
func (s *Service) Tags(ctx context.Context) ([]TagState, error) {
	selections, err := s.selections(ctx)
	if err != nil {
		return nil, err
	}
	var out []TagState
	for _, c := range s.taxonomy.Categories() {
		for _, tag := range c.Tags {
			v, set := selections[tag]
			out = append(out, TagState{Category: c.Name, Tag: tag, Checked: v == true, Set: set})
		}
	}
	return out, nil
}

// SetTag persists the selection of tag. Unknown tags yield
// apperr.ErrNotFound.
func (s *Service) SetTag(ctx context.Context, tag string, checked bool) error {
	if !s.taxonomy.Contains(tag) {
		return fmt.Errorf("metaservice: tag %q: %w", tag, apperr.ErrNotFound)
	}
	if err := s.store.Set(ctx, s.ns.TagKey(tag), checked); err != nil {
		return fmt.Errorf("metaservice: set tag %q: %w", tag, err)
	}
	return nil
}

func (s *Service) selections(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for _, tag := range s.taxonomy.AllTags() {
		v, ok, err := keystore.Lookup(ctx, s.store, s.ns, func(n keystore.Namespace) string { return n.TagKey(tag) })
		if err != nil {
			return nil, fmt.Errorf("metaservice: load tag %q: %w", tag, err)
		}
		if ok {
			out[tag] = v
		}
	}
	return out, nil
}

// Export scans the workspace and builds its RO-Crate document. Nothing is
// written.
func (s *Service) Export(ctx context.Context) (*crate.Document, error) {
	return s.export(ctx, s.scanner)
}

func (s *Service) export(ctx context.Context, scanner *scan.Scanner) (*crate.Document, error) {
	entries, err := scanner.ListRecursive(ctx, "")
	if err != nil {
		return nil, err
	}
	selections, err := s.selections(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.serializer.ToGraph(ctx, s.Fields(), selections, entries)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("metaservice: exported", slog.String("workspace", s.ns.ID), slog.Int("nodes", len(doc.Graph)))
	return doc, nil
}

// WriteExport exports the workspace and writes the document to name inside
// it, ro-crate-metadata.json when name is empty. A previous document at name
// is not part of the export. It returns the bytes written.
func (s *Service) WriteExport(ctx context.Context, name string) ([]byte, error) {
	name = outputPath(name, crate.MetadataFile)
	doc, err := s.export(ctx, s.scanner.With(name))
	if err != nil {
		return nil, err
	}
	data, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.files.Write(name, data); err != nil {
		return nil, fmt.Errorf("metaservice: write %s: %w", name, err)
	}
	s.logger.Info("metaservice: crate written", slog.String("path", name), slog.Int("bytes", len(data)))
	return data, nil
}

// Import restores field values and tag selections from an exported
// document, then rebuilds the form. The document is fully decoded before
// anything is written. Every tag of the catalog is overwritten: tags absent
// from the document's keywords are cleared.
func (s *Service) Import(ctx context.Context, data []byte) (*crate.Imported, error) {
	doc, err := crate.Parse(data)
	if err != nil {
		return nil, err
	}
	im, err := crate.FromGraph(doc)
	if err != nil {
		return nil, err
	}

	for _, f := range im.Fields {
		if err := s.store.Set(ctx, s.ns.FieldKey(f.Name), f.Value); err != nil {
			return nil, fmt.Errorf("metaservice: import field %q: %w", f.Name, err)
		}
	}
	for _, tag := range s.taxonomy.AllTags() {
		if err := s.store.Set(ctx, s.ns.TagKey(tag), im.HasKeyword(tag)); err != nil {
			return nil, fmt.Errorf("metaservice: import tag %q: %w", tag, err)
		}
	}
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("metaservice: crate imported", slog.Int("fields", len(im.Fields)), slog.Int("keywords", len(im.Keywords)))
	return im, nil
}

// ExportSchematic derives the schematic from the rendered form.
func (s *Service) ExportSchematic() *form.Schematic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return form.ExportSchematic(s.registry)
}

// WriteSchematic writes the exported schematic to name inside the
// workspace, metadata-schematic.json when name is empty.
func (s *Service) WriteSchematic(name string) ([]byte, error) {
	data, err := s.ExportSchematic().Encode()
	if err != nil {
		return nil, err
	}
	name = outputPath(name, form.SchematicFile)
	if err := s.files.Write(name, data); err != nil {
		return nil, fmt.Errorf("metaservice: write %s: %w", name, err)
	}
	return data, nil
}

// ImportSchematic replaces the active schematic wholesale with data, whose
// "Required items" entry is forced to the built-in list, persists it, and
// rebuilds the form.
func (s *Service) ImportSchematic(ctx context.Context, data []byte) (*form.Schematic, error) {
	in, err := form.ParseSchematic(data)
	if err != nil {
		return nil, err
	}
	sch, err := form.ImportSchematic(in)
	if err != nil {
		return nil, err
	}
	encoded, err := sch.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("metaservice: encode schematic: %w", err)
	}
	if err := s.store.Set(ctx, s.ns.SchematicKey(), string(encoded)); err != nil {
		return nil, fmt.Errorf("metaservice: save schematic: %w", err)
	}
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	return sch.Clone(), nil
}

// Push sends an encoded document to the configured endpoint.
func (s *Service) Push(ctx context.Context, doc []byte) (*push.Result, error) {
	if s.pusher == nil {
		return nil, fmt.Errorf("metaservice: push: no endpoint configured")
	}
	return s.pusher.Send(ctx, doc)
}

// outputPath cleans a workspace-relative output name into the form scan
// entries use, falling back to def when name is empty.
func outputPath(name, def string) string {
	if name == "" {
		return def
	}
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
}
