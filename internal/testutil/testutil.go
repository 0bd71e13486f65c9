// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// MockCommandRunner records commands and replays canned results.
// Keys are the full command line, e.g. "git pull --ff-only".
type MockCommandRunner struct {
	Commands []string
	Dirs     []string
	Outputs  map[string][]byte
	Errors   map[string]error
	Paths    map[string]string
}

// NewMockCommandRunner returns an empty mock where nothing resolves on PATH.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Outputs: make(map[string][]byte),
		Errors:  make(map[string]error),
		Paths:   make(map[string]string),
	}
}

// Run records the command and returns the configured output or error.
func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.RunInDir(ctx, "", name, args...)
}

// RunInDir records the command with its directory.
func (m *MockCommandRunner) RunInDir(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := strings.TrimSpace(name + " " + strings.Join(args, " "))
	m.Commands = append(m.Commands, cmd)
	m.Dirs = append(m.Dirs, dir)

	if err, ok := m.Errors[cmd]; ok {
		return m.Outputs[cmd], err
	}
	if output, ok := m.Outputs[cmd]; ok {
		return output, nil
	}
	return []byte{}, nil
}

// LookPath resolves names registered in Paths.
func (m *MockCommandRunner) LookPath(name string) (string, error) {
	if p, ok := m.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: %w", name, exec.ErrNotFound)
}

// Ran reports whether cmd was executed.
func (m *MockCommandRunner) Ran(cmd string) bool {
	for _, c := range m.Commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// WriteExecutable writes a shell script to dir/name with mode 0755.
func WriteExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("failed to write executable %s: %v", path, err)
	}
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// SkipOnWindows skips tests that execute POSIX shell scripts.
func SkipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}
