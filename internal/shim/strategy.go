// Package shim models how the installed tmux is started: an ordered list of
// launch strategies, each probed before it is used. The same list drives the
// generated wrapper script and the in-process launcher.
package shim

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoStrategy is returned when every strategy's probe fails.
var ErrNoStrategy = errors.New("no launch strategy succeeded")

// ExitNoStrategy is the exit status when nothing can be launched.
const ExitNoStrategy = 127

// ExtractAndRunEnv makes an AppImage unpack itself instead of mounting via FUSE.
const ExtractAndRunEnv = "APPIMAGE_EXTRACT_AND_RUN=1"

// VersionFlag is passed to tmux when probing.
const VersionFlag = "-V"

// Strategy is one way of starting the program.
type Strategy struct {
	Name   string `json:"name" yaml:"name"`
	Binary string `json:"binary" yaml:"binary"`
	// Env holds extra KEY=VALUE pairs for both probe and run.
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`
	// ProbeArgs are run under the chain timeout. Empty means the probe only
	// checks that Binary is an executable file.
	ProbeArgs []string `json:"probe_args,omitempty" yaml:"probe_args,omitempty"`
	// Warning is printed to stderr before running this strategy.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Chain is the ordered strategy list plus what to do when all of them fail.
type Chain struct {
	Strategies []Strategy    `json:"strategies" yaml:"strategies"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	Failure    string        `json:"failure" yaml:"failure"`
}

// DefaultChain returns direct, extract-and-run, then the system fallback.
func DefaultChain(artifact, fallback string, timeout time.Duration) Chain {
	return Chain{
		Strategies: []Strategy{
			{
				Name:      "direct",
				Binary:    artifact,
				ProbeArgs: []string{VersionFlag},
			},
			{
				Name:      "extract-and-run",
				Binary:    artifact,
				Env:       []string{ExtractAndRunEnv},
				ProbeArgs: []string{VersionFlag},
			},
			{
				Name:    "system",
				Binary:  fallback,
				Warning: fmt.Sprintf("tmux: AppImage at %s is not runnable here, using %s", artifact, fallback),
			},
		},
		Timeout: timeout,
		Failure: fmt.Sprintf("tmux: cannot run %s (tried direct and %s) and no fallback at %s. "+
			"Re-run `muxup install --force`, install FUSE (libfuse2) or install tmux with your package manager.",
			artifact, ExtractAndRunEnv, fallback),
	}
}
