// Package filecache owns the managed copies of file-backed clipboard
// records. Files are copied into the cache once at insert time, never
// mutated, and deleted together with their record.
package filecache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/HendryAvila/clipvault/internal/clipboard"
)

// ErrTooLarge is wrapped when a file exceeds the configured ceiling.
var ErrTooLarge = errors.New("file too large")

// DefaultMaxFileSize is the default per-file ceiling (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Manager copies referenced files into a cache directory and enforces
// the size ceiling. Cached files are write-once.
type Manager struct {
	dir         string
	maxFileSize int64
	logger      *slog.Logger
}

// New creates the cache directory under dataDir and returns a Manager.
// A maxFileSize of zero falls back to DefaultMaxFileSize.
func New(dataDir string, maxFileSize int64, logger *slog.Logger) (*Manager, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(dataDir, "cache")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("filecache: create cache dir: %w", err)
	}
	return &Manager{dir: dir, maxFileSize: maxFileSize, logger: logger}, nil
}

// Dir returns the cache directory.
func (m *Manager) Dir() string { return m.dir }

// MaxFileSize returns the configured per-file ceiling.
func (m *Manager) MaxFileSize() int64 { return m.maxFileSize }

// CheckSize rejects sizes above the ceiling before any copy is attempted.
func (m *Manager) CheckSize(size int64) error {
	if size > m.maxFileSize {
		return fmt.Errorf("%w: %s exceeds the %s limit",
			ErrTooLarge, clipboard.FormatSize(size), clipboard.FormatSize(m.maxFileSize))
	}
	return nil
}

// Cache copies the file at resolvedPath into the cache directory under a
// name that cannot collide across inserts and returns the cached path
// and the copied size. The size ceiling is enforced before the copy.
func (m *Manager) Cache(resolvedPath string) (string, int64, error) {
	info, err := os.Stat(resolvedPath)
	if err != nil {
		return "", 0, fmt.Errorf("filecache: stat %s: %w", resolvedPath, err)
	}
	if err := m.CheckSize(info.Size()); err != nil {
		return "", 0, err
	}

	src, err := os.Open(resolvedPath)
	if err != nil {
		return "", 0, fmt.Errorf("filecache: open %s: %w", resolvedPath, err)
	}
	defer src.Close()

	cachedPath := filepath.Join(m.dir, uuid.NewString()+"_"+filepath.Base(resolvedPath))
	dst, err := os.OpenFile(cachedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("filecache: create %s: %w", cachedPath, err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(cachedPath) // don't leave a partial copy behind
		return "", 0, fmt.Errorf("filecache: copy %s: %w", resolvedPath, err)
	}

	return cachedPath, n, nil
}

// Remove deletes a cached file. Failures are logged and swallowed: the
// owning record's deletion must succeed regardless.
func (m *Manager) Remove(cachedPath string) {
	if cachedPath == "" {
		return
	}
	if err := os.Remove(cachedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("cache file removal failed", "path", cachedPath, "error", err)
	}
}

// Size returns the total byte size of every file in the cache directory.
func (m *Manager) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("filecache: size: %w", err)
	}
	return total, nil
}
