package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/metacrate/internal/api"
	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/sse"
	"github.com/starford/metacrate/internal/testutil"
)

func TestNewHandler_Routes(t *testing.T) {
	db := testutil.TestDB(t)
	feed := sse.NewFeed(0)
	defer feed.Close()
	h := NewHandler(api.NewService(db, feed), feed, nil)

	for path, want := range map[string]int{
		"/":             http.StatusOK,
		"/health/live":  http.StatusOK,
		"/health/ready": http.StatusOK,
		"/api/data":     http.StatusOK,
		"/api/crates":   http.StatusOK,
		"/api/nope":     http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("GET %s = %d, want %d", path, w.Code, want)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/insert", strings.NewReader(`{"@graph": []}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("POST /api/insert = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestOpenWorkspace_ExportUsesConfiguredVocabulary(t *testing.T) {
	dir, _ := testutil.TestWorkspace(t, map[string]string{"a.py": "x"})
	vocab := testutil.VocabularyServer(t, "title", "name")

	cfg := NewDefaultConfig()
	cfg.Workspace.Path = dir
	cfg.Settings.Backend = BackendMemory
	cfg.Crate.ContextURL = vocab.URL

	logger := NewLogger(io.Discard, cfg.App.LogLevel)
	ws, err := OpenWorkspace(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenWorkspace: %v", err)
	}
	defer ws.Close()

	if err := ws.Service.SetField(context.Background(), "funding", "ERC"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	doc, err := ws.Service.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	ctxArr, ok := doc.Context.([]any)
	if !ok || len(ctxArr) != 2 || ctxArr[0] != vocab.URL {
		t.Errorf("@context = %#v", doc.Context)
	}
	if _, ok := doc.Node("a.py"); !ok {
		t.Error("file node missing")
	}
}

func TestOpenWorkspace_SettingsUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Workspace.Path = dir
	cfg.Settings.SQLite.Path = filepath.Join(blocker, "metacrate.db")

	_, err := OpenWorkspace(context.Background(), cfg, NewLogger(io.Discard, cfg.App.LogLevel))
	if !errors.Is(err, apperr.ErrSettingsUnavailable) {
		t.Fatalf("err = %v, want ErrSettingsUnavailable", err)
	}
}

func TestOpenWorkspace_VocabularyFailureFailsExport(t *testing.T) {
	dir, _ := testutil.TestWorkspace(t, map[string]string{"a.txt": "x"})
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := NewDefaultConfig()
	cfg.Workspace.Path = dir
	cfg.Settings.Backend = BackendMemory
	cfg.Crate.ContextURL = srv.URL

	ws, err := OpenWorkspace(context.Background(), cfg, NewLogger(io.Discard, cfg.App.LogLevel))
	if err != nil {
		t.Fatalf("OpenWorkspace: %v", err)
	}
	defer ws.Close()

	_, err = ws.Service.WriteExport(context.Background(), "")
	var ne *apperr.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if _, readErr := ws.Files.Read(crate.MetadataFile); readErr == nil {
		t.Error("export written despite vocabulary failure")
	}
}
