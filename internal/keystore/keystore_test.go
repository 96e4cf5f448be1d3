package keystore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_Keys(t *testing.T) {
	ns := Namespace{ID: "/home/u/proj"}
	assert.Equal(t, "/home/u/projDataset", ns.TagKey("Dataset"))
	assert.Equal(t, "/home/u/proj-title", ns.FieldKey("title"))
	assert.Equal(t, "/home/u/proj#schematic", ns.SchematicKey())
}

func TestNewNamespace_AbsoluteAndClean(t *testing.T) {
	dir := t.TempDir()
	ns, err := NewNamespace(filepath.Join(dir, "a", ".."))
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir), ns.ID)
	assert.Equal(t, LegacyHash(ns.ID), ns.Legacy)
}

func TestLookup_FallsBackToLegacyPrefix(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	ns := Namespace{ID: "/w", Legacy: LegacyHash("/w")}
	old := Namespace{ID: ns.Legacy}

	require.NoError(t, mem.Set(ctx, old.TagKey("Dataset"), true))
	require.NoError(t, mem.Set(ctx, old.FieldKey("title"), "Old title"))

	v, ok, err := Lookup(ctx, mem, ns, func(n Namespace) string { return n.TagKey("Dataset") })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, true, v)

	// The current key shadows the legacy one once written.
	require.NoError(t, mem.Set(ctx, ns.FieldKey("title"), "New title"))
	v, ok, err = Lookup(ctx, mem, ns, func(n Namespace) string { return n.FieldKey("title") })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "New title", v)

	_, ok, err = Lookup(ctx, mem, Namespace{ID: "/w"}, func(n Namespace) string { return n.TagKey("Dataset") })
	require.NoError(t, err)
	assert.False(t, ok, "no fallback without a legacy prefix")
}

func TestLegacyHash(t *testing.T) {
	assert.Equal(t, "0", LegacyHash(""))
	assert.Equal(t, "97", LegacyHash("a"))
	// "ab" = 97*31 + 98
	assert.Equal(t, "3105", LegacyHash("ab"))
	// Overflow wraps to a signed 32-bit value.
	assert.NotPanics(t, func() { LegacyHash("/a/rather/long/workspace/path/that/overflows") })
}

// storeContract exercises the behaviour every backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report ok=false")

	require.NoError(t, s.Set(ctx, "flag", false))
	v, ok, err := s.Get(ctx, "flag")
	require.NoError(t, err)
	assert.True(t, ok, "explicit false is present")
	assert.Equal(t, false, v)

	require.NoError(t, s.Set(ctx, "title", "My data"))
	str, ok, err := GetString(ctx, s, "title")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "My data", str)

	require.NoError(t, s.Set(ctx, "title", "Renamed"))
	str, _, _ = GetString(ctx, s, "title")
	assert.Equal(t, "Renamed", str)

	_, ok, err = GetString(ctx, s, "flag")
	require.NoError(t, err)
	assert.False(t, ok, "bool value is not a string")
}

func TestMemory_Contract(t *testing.T) {
	storeContract(t, NewMemory())
}

func TestRedis_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(context.Background(), &redis.Options{Addr: mr.Addr()}, "metacrate:plugin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storeContract(t, s)
	assert.True(t, mr.Exists("metacrate:plugin:title"), "keys are scoped by plugin id")
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewRedis(context.Background(), &redis.Options{Addr: addr}, "p")
	assert.Error(t, err)
}

func TestRedis_RequiresPluginID(t *testing.T) {
	_, err := NewRedis(context.Background(), &redis.Options{Addr: "127.0.0.1:0"}, "")
	assert.Error(t, err)
}
