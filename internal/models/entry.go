// Package models defines the domain types shared across metacrate packages.
package models

import "time"

// EntryType classifies a workspace entry the way the Jupyter contents
// service does.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
	TypeNotebook  EntryType = "notebook"
)

// FileEntry is a read-only snapshot of one file or directory in the workspace.
// Path is relative to the workspace root and slash-separated.
type FileEntry struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Type       EntryType `json:"type"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"last_modified"`
	MimeType   string    `json:"mimetype"`
}

// IsDir reports whether the entry is a directory.
func (e FileEntry) IsDir() bool { return e.Type == TypeDirectory }

// CrateRecord is an RO-Crate document received by the ingestion API.
type CrateRecord struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	Body      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
