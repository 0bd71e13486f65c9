// Package git clones and inspects the plugin-manager checkout.
package git

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adamancini/muxup/internal/system"
)

// Level represents the severity of a git status.
type Level string

const (
	LevelOK      Level = "ok"      // Clean and in sync
	LevelInfo    Level = "info"    // Behind or ahead, still fast-forwardable
	LevelWarning Level = "warning" // The next pull --ff-only will likely fail
	LevelError   Level = "error"   // Git operation failed
)

// Status represents the git status of the checkout.
type Status struct {
	Path           string `json:"path" yaml:"path"`
	IsGitRepo      bool   `json:"is_git_repo" yaml:"is_git_repo"`
	IsClean        bool   `json:"is_clean" yaml:"is_clean"`
	HasUncommitted bool   `json:"has_uncommitted" yaml:"has_uncommitted"`
	Detached       bool   `json:"detached,omitempty" yaml:"detached,omitempty"`
	Ahead          int    `json:"ahead" yaml:"ahead"`
	Behind         int    `json:"behind" yaml:"behind"`
	CurrentBranch  string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Remote         string `json:"remote,omitempty" yaml:"remote,omitempty"` // e.g. "origin/master"
	Level          Level  `json:"level" yaml:"level"`
	Message        string `json:"message" yaml:"message"`
	Error          error  `json:"-" yaml:"-"`
}

// CanFastForward reports whether `git pull --ff-only` is expected to succeed.
func (s Status) CanFastForward() bool {
	return s.IsGitRepo && !s.Detached && s.Remote != "" && s.Ahead == 0 && s.Level != LevelError
}

// Checker inspects a checkout through the git CLI.
type Checker struct {
	runner    system.CommandRunner
	skipFetch bool
}

// NewCheckerWithRunner creates a Checker with a custom command runner.
func NewCheckerWithRunner(runner system.CommandRunner) *Checker {
	return &Checker{runner: runner}
}

// SetOffline disables the remote fetch, so ahead/behind reflect the last fetch.
func (c *Checker) SetOffline(offline bool) {
	c.skipFetch = offline
}

// CheckRepository reports the state of the checkout at path. It never fails;
// problems are described by Level, Message and Error.
func (c *Checker) CheckRepository(ctx context.Context, path string) Status {
	status := Status{Path: path}

	if _, err := os.Stat(path); err != nil {
		return status.fail(fmt.Errorf("path does not exist: %s", path))
	}

	if out, err := c.git(ctx, path, "rev-parse", "--git-dir"); err != nil || out == "" {
		status.Level = LevelInfo
		status.Message = "not a git repository"
		return status
	}
	status.IsGitRepo = true

	branch, err := c.git(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return status.fail(fmt.Errorf("failed to get current branch: %w", err))
	}
	status.CurrentBranch = branch

	porcelain, err := c.git(ctx, path, "status", "--porcelain")
	if err != nil {
		return status.fail(fmt.Errorf("failed to check working tree: %w", err))
	}
	status.HasUncommitted = porcelain != ""
	status.IsClean = !status.HasUncommitted

	switch {
	case status.HasUncommitted:
		status.Level = LevelWarning
		status.Message = "local changes in the checkout (updates may fail)"
		return status
	case branch == "HEAD":
		status.Detached = true
		status.Level = LevelWarning
		status.Message = "detached HEAD (updates will fail; re-clone with: muxup install)"
		return status
	}

	remote, err := c.git(ctx, path, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	if err != nil || remote == "" {
		status.Level = LevelWarning
		status.Message = "clean (no remote tracking branch; updates will fail)"
		return status
	}
	status.Remote = remote

	// Best effort: a failed fetch leaves the last known counts.
	if !c.skipFetch {
		_, _ = c.git(ctx, path, "fetch", "--quiet")
	}

	ahead, behind, err := c.aheadBehind(ctx, path, remote)
	if err != nil {
		status.Level = LevelOK
		status.Message = "clean"
		return status
	}
	status.Ahead = ahead
	status.Behind = behind

	switch {
	case ahead > 0 && behind > 0:
		status.Level = LevelWarning
		status.Message = fmt.Sprintf("diverged from %s: %d ahead, %d behind (fast-forward will fail)", remote, ahead, behind)
	case behind > 0:
		status.Level = LevelInfo
		status.Message = fmt.Sprintf("%d commits behind remote (run: muxup install)", behind)
	case ahead > 0:
		status.Level = LevelInfo
		status.Message = fmt.Sprintf("%d commits ahead of remote (local commits)", ahead)
	default:
		status.Level = LevelOK
		status.Message = "clean and in sync"
	}

	return status
}

func (s Status) fail(err error) Status {
	s.Level = LevelError
	s.Error = err
	s.Message = err.Error()
	return s
}

// git runs a git subcommand in dir and returns its trimmed output.
func (c *Checker) git(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.runner.RunInDir(ctx, dir, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// aheadBehind parses `git rev-list --left-right --count HEAD...<remote>`.
func (c *Checker) aheadBehind(ctx context.Context, path, remote string) (ahead, behind int, err error) {
	out, err := c.git(ctx, path, "rev-list", "--left-right", "--count", "HEAD..."+remote)
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output: %q", out)
	}
	if ahead, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid ahead count: %w", err)
	}
	if behind, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid behind count: %w", err)
	}
	return ahead, behind, nil
}

// GitAvailable checks if git is available on the system.
func (c *Checker) GitAvailable(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "git", "--version")
	return err == nil
}
