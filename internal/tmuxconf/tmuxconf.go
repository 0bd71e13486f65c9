// Package tmuxconf writes the bundled tmux configuration.
package tmuxconf

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/backup"
	"github.com/adamancini/muxup/internal/fsutil"
)

//go:embed tmux.conf
var template []byte

// Template returns the bundled configuration.
func Template() []byte {
	out := make([]byte, len(template))
	copy(out, template)
	return out
}

// Result describes one Write call.
type Result struct {
	Path string `json:"path" yaml:"path"`
	// Backup is nil when there was no previous file.
	Backup *backup.Backup `json:"backup,omitempty" yaml:"backup,omitempty"`
	// Unchanged is true when the previous file already matched the template.
	Unchanged bool `json:"unchanged" yaml:"unchanged"`
}

// Writer replaces the configuration file with the template.
type Writer struct {
	path    string
	content []byte
	backups *backup.Manager
	logger  *log.Logger
}

// NewWriter creates a writer for path using the bundled template.
func NewWriter(path string, logger *log.Logger) *Writer {
	return NewWriterWith(path, Template(), backup.NewManager(path), logger)
}

// NewWriterWith creates a writer with explicit content and backup manager.
func NewWriterWith(path string, content []byte, backups *backup.Manager, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Writer{path: path, content: content, backups: backups, logger: logger}
}

// Path returns the configuration file path.
func (w *Writer) Path() string {
	return w.path
}

// Write backs up an existing file, then writes the template through a temp
// file and rename. The backup always happens before the replacement.
func (w *Writer) Write() (*Result, error) {
	result := &Result{Path: w.path}

	previous, err := os.ReadFile(w.path)
	switch {
	case err == nil:
		b, err := w.backups.Create()
		if err != nil {
			return result, fmt.Errorf("failed to back up %s: %w", w.path, err)
		}
		result.Backup = b
		result.Unchanged = string(previous) == string(w.content)
		w.logger.Info("backed up existing config", "backup", b.Path)
	case os.IsNotExist(err):
		w.logger.Debug("no existing config", "path", w.path)
	default:
		return result, fmt.Errorf("failed to read %s: %w", w.path, err)
	}

	if err := fsutil.WriteFileAtomic(w.path, w.content, 0644); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	w.logger.Info("wrote config", "path", w.path)

	return result, nil
}
