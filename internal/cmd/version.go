package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/artifact"
	"github.com/adamancini/muxup/internal/system"
)

// BuildInfo is stamped in at link time.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

var buildInfo = BuildInfo{Version: "dev", Commit: "none", Date: "unknown"}

type versionReport struct {
	Muxup       BuildInfo `json:"muxup" yaml:"muxup"`
	GoVersion   string    `json:"go_version" yaml:"go_version"`
	Tmux        string    `json:"tmux,omitempty" yaml:"tmux,omitempty"`
	TmuxError   string    `json:"tmux_error,omitempty" yaml:"tmux_error,omitempty"`
	ShimPath    string    `json:"shim" yaml:"shim"`
	ShimPresent bool      `json:"shim_present" yaml:"shim_present"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show muxup and tmux versions",
		Long: `Display the muxup build and the tmux version reported by the installed shim.

Examples:
  muxup version
  muxup version -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}
}

func runVersion(cmd *cobra.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	report := versionReport{
		Muxup:     buildInfo,
		GoVersion: runtime.Version(),
		ShimPath:  settings.Paths.Shim,
	}
	if _, err := os.Stat(settings.Paths.Shim); err == nil {
		report.ShimPresent = true
		ctx, cancel := context.WithTimeout(cmd.Context(), settings.ProbeTimeout)
		defer cancel()
		v, err := artifact.InstalledVersion(ctx, &system.DefaultCommandRunner{}, settings.Paths.Shim)
		if err != nil {
			report.TmuxError = err.Error()
		} else {
			report.Tmux = v.String()
		}
	}

	return writer.Render(report, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "muxup version %s (commit %s, built %s, %s)\n",
			report.Muxup.Version, report.Muxup.Commit, report.Muxup.Date, report.GoVersion)
		switch {
		case !report.ShimPresent:
			_, _ = fmt.Fprintf(w, "tmux: not installed (%s missing)\n", report.ShimPath)
		case report.Tmux != "":
			_, _ = fmt.Fprintf(w, "tmux: %s\n", report.Tmux)
		default:
			_, _ = fmt.Fprintf(w, "tmux: unknown (%s)\n", firstLine(report.TmuxError))
		}
		return nil
	})
}
