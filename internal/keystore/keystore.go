// Package keystore defines the persistent key-value settings store that
// workspace field values and tag selections live in.
package keystore

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"unicode/utf16"
)

// Store is a persistent mapping from string keys to JSON-serialisable values,
// scoped to one plugin identifier. Get reports ok == false for absent keys,
// which is distinct from a stored false or empty string.
type Store interface {
	Get(ctx context.Context, key string) (value any, ok bool, err error)
	Set(ctx context.Context, key string, value any) error
}

// Namespace builds settings keys for one workspace. Legacy, when set, is the
// prefix older releases wrote under; it is only ever read from.
type Namespace struct {
	ID     string
	Legacy string
}

// NewNamespace derives a namespace from a workspace directory. The id is the
// cleaned absolute path, which keeps workspaces from sharing keys.
func NewNamespace(workspace string) (Namespace, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return Namespace{}, fmt.Errorf("keystore: resolve workspace: %w", err)
	}
	id := filepath.ToSlash(filepath.Clean(abs))
	return Namespace{ID: id, Legacy: LegacyHash(id)}, nil
}

// TagKey is the key holding the boolean selection of tag.
func (n Namespace) TagKey(tag string) string { return n.ID + tag }

// FieldKey is the key holding the value of the form field name.
func (n Namespace) FieldKey(name string) string { return n.ID + "-" + name }

// SchematicKey is the key holding the active schematic.
func (n Namespace) SchematicKey() string { return n.ID + "#schematic" }

// LegacyHash reproduces the 32-bit rolling string hash older releases used as
// the workspace prefix. It is not collision-free.
func LegacyHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}

// Lookup reads key and, when it is absent, the same key under the legacy
// prefix. Values found under the legacy prefix are not copied forward; the
// next Set writes the current key and shadows them.
func Lookup(ctx context.Context, s Store, n Namespace, key func(Namespace) string) (any, bool, error) {
	v, ok, err := s.Get(ctx, key(n))
	if err != nil || ok || n.Legacy == "" {
		return v, ok, err
	}
	return s.Get(ctx, key(Namespace{ID: n.Legacy}))
}

// GetString returns the string stored at key. Absent keys and non-string
// values yield "", false.
func GetString(ctx context.Context, s Store, key string) (string, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	str, isStr := v.(string)
	return str, isStr, nil
}
