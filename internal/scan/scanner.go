// Package scan walks a workspace through a storage.Provider and produces the
// snapshot an export is built from.
package scan

import (
	"context"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/models"
	"github.com/starford/metacrate/internal/storage"
)

// Scanner recursively enumerates a workspace.
type Scanner struct {
	files   storage.Provider
	exclude map[string]struct{}
}

// New returns a Scanner over files. Paths listed in exclude (relative,
// slash-separated) are left out of every listing, together with their
// descendants when they are directories.
func New(files storage.Provider, exclude ...string) *Scanner {
	ex := make(map[string]struct{}, len(exclude))
	for _, p := range exclude {
		ex[p] = struct{}{}
	}
	return &Scanner{files: files, exclude: ex}
}

// With returns a Scanner over the same files that also excludes paths.
func (s *Scanner) With(paths ...string) *Scanner {
	ex := make(map[string]struct{}, len(s.exclude)+len(paths))
	for p := range s.exclude {
		ex[p] = struct{}{}
	}
	for _, p := range paths {
		ex[p] = struct{}{}
	}
	return &Scanner{files: s.files, exclude: ex}
}

// ListRecursive returns every entry under root, depth-first, each directory
// immediately followed by its descendants. Listing calls are issued one at a
// time. Any failure aborts the scan with an *apperr.ScanError.
func (s *Scanner) ListRecursive(ctx context.Context, root string) ([]models.FileEntry, error) {
	var out []models.FileEntry
	visited := make(map[string]struct{})
	if err := s.walk(ctx, root, visited, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, visited map[string]struct{}, out *[]models.FileEntry) error {
	if _, ok := visited[dir]; ok {
		return nil
	}
	visited[dir] = struct{}{}

	entries, err := s.files.List(dir)
	if err != nil {
		return &apperr.ScanError{Path: dir, Err: err}
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return &apperr.ScanError{Path: e.Path, Err: err}
		}
		if _, skip := s.exclude[e.Path]; skip {
			continue
		}
		*out = append(*out, e)
		if e.IsDir() {
			if err := s.walk(ctx, e.Path, visited, out); err != nil {
				return err
			}
		}
	}
	return nil
}
