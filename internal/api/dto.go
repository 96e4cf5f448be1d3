package api

import (
	"encoding/json"
	"time"
)

// InsertResponse acknowledges a stored crate. Data echoes the stored
// document.
type InsertResponse struct {
	Message string          `json:"message"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
}

// MessageResponse carries a status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CrateItem is a stored crate in a list response.
type CrateItem struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// CrateListResponse wraps paginated crate listings.
type CrateListResponse struct {
	Crates []CrateItem `json:"crates"`
	Total  int         `json:"total"`
}

// CrateDetail is a stored crate with its document.
type CrateDetail struct {
	CrateItem
	Data json.RawMessage `json:"data"`
}
