package state

import (
	"context"
	"time"

	"github.com/adamancini/muxup/internal/artifact"
	"github.com/adamancini/muxup/internal/deps"
	"github.com/adamancini/muxup/internal/git"
	"github.com/adamancini/muxup/internal/system"
)

// CLIReader fills in state by running commands: the shim's version, the
// terminfo lookup and the plugin-manager git status.
type CLIReader struct {
	Runner  system.CommandRunner
	Checker *git.Checker
	Timeout time.Duration
}

// Read implements Reader using external commands. It expects the
// filesystem fields to be filled already.
func (r *CLIReader) Read(ctx context.Context, st *State) error {
	if st.Shim.Exists {
		vctx := ctx
		if r.Timeout > 0 {
			var cancel context.CancelFunc
			vctx, cancel = context.WithTimeout(ctx, r.Timeout)
			defer cancel()
		}
		v, err := artifact.InstalledVersion(vctx, r.Runner, st.Shim.Path)
		if err != nil {
			st.VersionError = err.Error()
		} else {
			st.Version = v.String()
		}
	}

	_, err := r.Runner.Run(ctx, "infocmp", deps.TerminfoEntry)
	st.Terminfo = err == nil

	if st.PluginManager.Checkout && r.Checker != nil {
		if !r.Checker.GitAvailable(ctx) {
			st.PluginManager.Git = &git.Status{
				Path:    st.PluginManager.Dir,
				Level:   git.LevelWarning,
				Message: "git is not installed; cannot inspect or update the checkout",
			}
			return nil
		}
		status := r.Checker.CheckRepository(ctx, st.PluginManager.Dir)
		st.PluginManager.Git = &status
	}

	return nil
}
