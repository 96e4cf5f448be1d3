// Package apperr defines the error taxonomy shared by metacrate packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrSettingsUnavailable is returned when the settings backend cannot be
	// reached at startup. The workspace feature refuses to start in that case.
	ErrSettingsUnavailable = errors.New("settings unavailable")
)

// ScanError reports a failed directory listing or content read. It aborts
// the whole export.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %q: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ParseError reports an imported document that is not valid JSON or lacks
// a required top-level key.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Reason, e.Err)
	}
	return "parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError reports a failed vocabulary fetch or push.
// Status is zero when no response was received.
type NetworkError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }
