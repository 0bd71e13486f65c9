// Package pathreg puts the local bin directory on PATH for this process and
// for future login shells.
package pathreg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ExportLine is appended to the chosen startup file.
const ExportLine = `export PATH="$HOME/.local/bin:$PATH"`

// Result describes one Register call.
type Result struct {
	// ProcessUpdated is true when the directory was prepended to PATH.
	ProcessUpdated bool `json:"process_updated" yaml:"process_updated"`
	// RegisteredIn is the startup file that already mentions the directory.
	RegisteredIn string `json:"registered_in,omitempty" yaml:"registered_in,omitempty"`
	// AppendedTo is the startup file the export line was written to.
	AppendedTo string `json:"appended_to,omitempty" yaml:"appended_to,omitempty"`
}

// Registrar registers one directory.
type Registrar struct {
	dir     string
	home    string
	rcFiles []string
	shell   string
	getenv  func(string) string
	setenv  func(string, string) error
	logger  *log.Logger
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithEnv replaces the process environment accessors.
func WithEnv(getenv func(string) string, setenv func(string, string) error) Option {
	return func(r *Registrar) {
		r.getenv = getenv
		r.setenv = setenv
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registrar) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistrar creates a registrar for dir. rcFiles are the candidate
// startup files, shell is the login shell path ($SHELL).
func NewRegistrar(dir, home string, rcFiles []string, shell string, opts ...Option) *Registrar {
	r := &Registrar{
		dir:     dir,
		home:    home,
		rcFiles: rcFiles,
		shell:   shell,
		getenv:  os.Getenv,
		setenv:  os.Setenv,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InProcessPath reports whether dir is already an entry of PATH.
func (r *Registrar) InProcessPath() bool {
	for _, entry := range filepath.SplitList(r.getenv("PATH")) {
		if filepath.Clean(entry) == filepath.Clean(r.dir) {
			return true
		}
	}
	return false
}

// RegisteredIn returns the first candidate startup file that already puts
// dir on PATH, or "".
func (r *Registrar) RegisteredIn() string {
	for _, rc := range r.rcFiles {
		data, err := os.ReadFile(rc)
		if err != nil {
			continue
		}
		if r.mentions(string(data)) {
			return rc
		}
	}
	return ""
}

// mentions looks for a PATH line naming the directory either literally or
// relative to $HOME or ~.
func (r *Registrar) mentions(content string) bool {
	needles := []string{r.dir}
	if r.home != "" {
		if rel, err := filepath.Rel(r.home, r.dir); err == nil && !strings.HasPrefix(rel, "..") {
			rel = filepath.ToSlash(rel)
			needles = append(needles, "$HOME/"+rel, "${HOME}/"+rel, "~/"+rel)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || !strings.Contains(line, "PATH") {
			continue
		}
		for _, needle := range needles {
			if strings.Contains(line, needle) {
				return true
			}
		}
	}
	return false
}

// Target returns the startup file an export line would be appended to.
func (r *Registrar) Target() string {
	want := ".profile"
	switch filepath.Base(r.shell) {
	case "zsh":
		want = ".zshrc"
	case "bash":
		want = ".bashrc"
	}
	for _, rc := range r.rcFiles {
		if filepath.Base(rc) == want {
			return rc
		}
	}
	if len(r.rcFiles) > 0 {
		return r.rcFiles[len(r.rcFiles)-1]
	}
	return filepath.Join(r.home, want)
}

// Register prepends dir to PATH when missing and appends ExportLine to the
// target startup file unless some candidate already registers it.
func (r *Registrar) Register() (*Result, error) {
	result := &Result{}

	if !r.InProcessPath() {
		current := r.getenv("PATH")
		updated := r.dir
		if current != "" {
			updated = r.dir + string(os.PathListSeparator) + current
		}
		if err := r.setenv("PATH", updated); err != nil {
			return result, fmt.Errorf("failed to update PATH: %w", err)
		}
		result.ProcessUpdated = true
		r.logger.Debug("prepended to PATH", "dir", r.dir)
	}

	if rc := r.RegisteredIn(); rc != "" {
		result.RegisteredIn = rc
		r.logger.Debug("PATH already registered", "file", rc)
		return result, nil
	}

	target := r.Target()
	if err := appendLine(target, ExportLine); err != nil {
		return result, err
	}
	result.AppendedTo = target
	r.logger.Info("added PATH export", "file", target)

	return result, nil
}

func appendLine(path, line string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	var b strings.Builder
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# added by muxup\n")
	b.WriteString(line)
	b.WriteString("\n")

	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}
