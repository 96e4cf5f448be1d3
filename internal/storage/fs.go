package storage

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/metacrate/internal/models"
)

// NotebookMimeType is the encoding reported for Jupyter notebooks.
const NotebookMimeType = "application/x-ipynb+json"

const fallbackMimeType = "application/octet-stream"

// FS implements Provider backed by the local file system.
//
// Symbolic links to files inside the workspace are followed. Links to
// directories, dangling links and links leading outside the workspace are
// not listed and cannot be read.
type FS struct {
	root     string // absolute path to workspace directory
	resolved string // root with symlinks resolved
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &FS{root: abs, resolved: resolved}, nil
}

// Root returns the absolute workspace directory.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the workspace root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == "." || rel == "/" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !within(f.root, abs) {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// resolveLink follows the symlink at abs and returns the target's info. ok
// is false for dangling links and for targets outside the workspace.
func (f *FS) resolveLink(abs string) (os.FileInfo, bool) {
	target, err := filepath.EvalSymlinks(abs)
	if err != nil || !within(f.resolved, target) {
		return nil, false
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, false
	}
	return info, true
}

// List returns the direct children of dir (relative to root), sorted by name.
func (f *FS) List(dir string) ([]models.FileEntry, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	prefix := strings.Trim(filepath.ToSlash(filepath.Clean(filepath.FromSlash(dir))), "/")
	if prefix == "." {
		prefix = ""
	}

	out := make([]models.FileEntry, 0, len(des))
	for _, d := range des {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", name, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, ok := f.resolveLink(filepath.Join(base, name))
			if !ok || target.IsDir() {
				continue
			}
			info = target
		}
		entry := models.FileEntry{
			Path:       path.Join(prefix, name),
			Name:       name,
			Size:       info.Size(),
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
		}
		switch {
		case info.IsDir():
			entry.Type = models.TypeDirectory
			entry.Size = 0
		case strings.HasSuffix(name, ".ipynb"):
			entry.Type = models.TypeNotebook
			entry.MimeType = NotebookMimeType
		default:
			entry.Type = models.TypeFile
			entry.MimeType = mimeTypeOf(name)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read returns the raw bytes of a workspace file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	if target, err := filepath.EvalSymlinks(abs); err == nil && !within(f.resolved, target) {
		return nil, fmt.Errorf("storage: read %s: link leads outside workspace root", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: cannot write to workspace root")
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metacrate-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// mimeTypeOf guesses a media type from the file extension, without parameters.
func mimeTypeOf(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return fallbackMimeType
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return fallbackMimeType
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return fallbackMimeType
	}
	return mt
}
