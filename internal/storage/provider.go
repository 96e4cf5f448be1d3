// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/starford/metacrate/internal/models"

// Provider is the interface for workspace file operations.
// All paths are relative to the workspace root and slash-separated.
type Provider interface {
	// List returns the direct children of dir. Hidden entries are skipped.
	List(dir string) ([]models.FileEntry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
