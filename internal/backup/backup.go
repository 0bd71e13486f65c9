// Package backup keeps timestamped copies of a single file, named
// <file>.bak.<unix-epoch-seconds>.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adamancini/muxup/internal/fsutil"
)

// ErrNotFound is returned when a requested backup does not exist.
var ErrNotFound = errors.New("backup not found")

// Suffix separates the file name from the epoch seconds.
const Suffix = ".bak."

// Backup is one backup copy on disk.
type Backup struct {
	ID        string    `json:"id" yaml:"id"`
	Path      string    `json:"path" yaml:"path"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Size      int64     `json:"size" yaml:"size"`
}

// Manager handles backups of one target file.
type Manager struct {
	target string
	now    func() time.Time
}

// NewManager creates a backup manager for target.
func NewManager(target string) *Manager {
	return NewManagerWithClock(target, time.Now)
}

// NewManagerWithClock creates a backup manager with a custom clock (for testing).
func NewManagerWithClock(target string, now func() time.Time) *Manager {
	return &Manager{target: target, now: now}
}

// Target returns the file being backed up.
func (m *Manager) Target() string {
	return m.target
}

// PathFor returns the backup path for a moment. Two backups within the same
// second share a path; the later one wins.
func (m *Manager) PathFor(t time.Time) string {
	return m.target + Suffix + strconv.FormatInt(t.Unix(), 10)
}

// Create copies the target to a new backup. The target must exist.
func (m *Manager) Create() (*Backup, error) {
	if _, err := os.Stat(m.target); err != nil {
		return nil, fmt.Errorf("failed to back up %s: %w", m.target, err)
	}

	now := m.now()
	path := m.PathFor(now)
	if err := fsutil.CopyFile(m.target, path); err != nil {
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}

	return m.load(path)
}

// List returns all backups sorted by creation time (newest first).
func (m *Manager) List() ([]Backup, error) {
	matches, err := filepath.Glob(globEscape(m.target) + Suffix + "*")
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]Backup, 0, len(matches))
	for _, path := range matches {
		b, err := m.load(path)
		if err != nil {
			continue
		}
		backups = append(backups, *b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get retrieves a backup by ID. Use "latest" to get the most recent backup.
func (m *Manager) Get(id string) (*Backup, error) {
	if id == "latest" {
		backups, err := m.List()
		if err != nil {
			return nil, err
		}
		if len(backups) == 0 {
			return nil, fmt.Errorf("%w: no backups of %s", ErrNotFound, m.target)
		}
		return &backups[0], nil
	}

	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid backup id %q (want unix seconds or latest)", id)
	}
	return m.load(m.target + Suffix + id)
}

// Restore replaces the target with backup id. The current target, if any,
// is backed up first.
func (m *Manager) Restore(id string) (restored *Backup, saved *Backup, err error) {
	b, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}

	// Read first: saving the current file may reuse the same path.
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read backup: %w", err)
	}

	if _, statErr := os.Stat(m.target); statErr == nil {
		saved, err = m.Create()
		if err != nil {
			return nil, nil, err
		}
	}

	if err := fsutil.WriteFileAtomic(m.target, data, 0644); err != nil {
		return nil, saved, fmt.Errorf("failed to restore %s: %w", m.target, err)
	}
	return b, saved, nil
}

// Delete removes a backup by ID.
func (m *Manager) Delete(id string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := os.Remove(b.Path); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

// load stats a backup path and derives its metadata from the suffix.
func (m *Manager) load(path string) (*Backup, error) {
	prefix := m.target + Suffix
	if !strings.HasPrefix(path, prefix) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	id := strings.TrimPrefix(path, prefix)
	secs, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("not a backup file: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a backup file: %s", path)
	}

	return &Backup{
		ID:        id,
		Path:      path,
		CreatedAt: time.Unix(secs, 0),
		Size:      info.Size(),
	}, nil
}

// globEscape escapes glob metacharacters in a literal path.
func globEscape(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
