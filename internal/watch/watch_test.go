package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func start(t *testing.T, root string, ignore ...string) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var calls atomic.Int32
	go Watch(ctx, root, 100*time.Millisecond, ignore, quietLogger(), func(context.Context) {
		calls.Add(1)
	})
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func TestWatch_BurstDebounced(t *testing.T) {
	root := t.TempDir()
	calls := start(t, root)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(root, "data.csv"), []byte{byte('a' + i)}, 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "change did not trigger a re-export")
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("re-exports = %d, want 1", got)
	}
}

func TestWatch_IgnoredAndHiddenPaths(t *testing.T) {
	root := t.TempDir()
	calls := start(t, root, "ro-crate-metadata.json")

	_ = os.WriteFile(filepath.Join(root, "ro-crate-metadata.json"), []byte("{}"), 0o644)
	_ = os.WriteFile(filepath.Join(root, ".metacrate-tmp-1"), []byte("x"), 0o644)

	time.Sleep(400 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("re-exports = %d, want 0", got)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	calls := start(t, root)

	sub := filepath.Join(root, "sub")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "new directory did not trigger a re-export")

	before := calls.Load()
	_ = os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("deep"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() > before
	}, "file in new subdir did not trigger a re-export")
}

func TestHidden(t *testing.T) {
	cases := map[string]bool{
		"a.txt":        false,
		".git/config":  true,
		"sub/.cache/x": true,
		"sub/file.txt": false,
	}
	for in, want := range cases {
		if got := hidden(in); got != want {
			t.Errorf("hidden(%q) = %v, want %v", in, got, want)
		}
	}
}
