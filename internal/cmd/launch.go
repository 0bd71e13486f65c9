package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/install"
	"github.com/adamancini/muxup/internal/shim"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch [-- tmux args...]",
		Short: "Run tmux through the same fallbacks as the shim",
		Long: `Launch tries the AppImage, then the AppImage with extract-and-run, then the
system tmux, and runs the first one that works with the given arguments.

The exit status is tmux's own. When nothing works it is 127.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, args)
		},
	}

	// Everything after the first argument belongs to tmux.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runLaunch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	launcher := shim.NewLauncher(install.Chain(settings), os.Environ(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	code, err := launcher.Run(cmd.Context(), args)
	if err != nil && !errors.Is(err, shim.ErrNoStrategy) {
		return &ExitError{Code: code, Err: err}
	}
	if code != 0 {
		// The launcher already reported on stderr.
		return &ExitError{Code: code}
	}
	return nil
}
