package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/types"
)

// SyncResult describes one Sync call.
type SyncResult struct {
	Dir     string       `json:"dir" yaml:"dir"`
	Action  types.Action `json:"action" yaml:"action"`
	Command string       `json:"command" yaml:"command"`
	Output  string       `json:"output,omitempty" yaml:"output,omitempty"`
}

// Syncer keeps a checkout of one remote repository.
type Syncer struct {
	runner system.CommandRunner
	logger *log.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(runner system.CommandRunner, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Syncer{runner: runner, logger: logger}
}

// IsCheckout reports whether dir holds a git working copy.
func IsCheckout(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Sync clones url into dir when it is not a checkout yet, otherwise
// fast-forwards it. Local history is never rewritten.
func (s *Syncer) Sync(ctx context.Context, url, dir string) (*SyncResult, error) {
	if IsCheckout(dir) {
		return s.update(ctx, dir)
	}
	return s.clone(ctx, url, dir)
}

func (s *Syncer) clone(ctx context.Context, url, dir string) (*SyncResult, error) {
	result := &SyncResult{Dir: dir, Action: types.ActionClone}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return result, fmt.Errorf("%s exists and is not a git checkout", dir)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return result, fmt.Errorf("failed to create %s: %w", filepath.Dir(dir), err)
	}

	args := []string{"clone", "--depth", "1", url, dir}
	result.Command = "git " + strings.Join(args, " ")
	s.logger.Info("cloning", "url", url, "dir", dir)

	output, err := s.runner.Run(ctx, "git", args...)
	result.Output = strings.TrimSpace(string(output))
	if err != nil {
		return result, fmt.Errorf("failed to clone %s: %w\nOutput: %s", url, err, result.Output)
	}
	return result, nil
}

func (s *Syncer) update(ctx context.Context, dir string) (*SyncResult, error) {
	result := &SyncResult{Dir: dir, Action: types.ActionUpdate}

	args := []string{"pull", "--ff-only", "--quiet"}
	result.Command = "git " + strings.Join(args, " ")
	s.logger.Info("updating", "dir", dir)

	output, err := s.runner.RunInDir(ctx, dir, "git", args...)
	result.Output = strings.TrimSpace(string(output))
	if err != nil {
		return result, fmt.Errorf("failed to update %s: %w\nOutput: %s", dir, err, result.Output)
	}
	return result, nil
}
