package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/output"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, date string) error {
	return newRootCmd(BuildInfo{Version: version, Commit: commit, Date: date}).ExecuteContext(ctx)
}

func newRootCmd(info BuildInfo) *cobra.Command {
	buildInfo = info

	rootCmd := &cobra.Command{
		Use:   "muxup",
		Short: "Idempotent tmux AppImage setup",
		Long: `muxup installs tmux as an AppImage under ~/.local/bin and sets up everything around it:
a launcher shim with fallbacks, clipboard helpers, the tpm plugin manager, ~/.tmux.conf,
terminfo and your shell PATH.

Every step is safe to re-run. Failures are reported as warnings and never stop the run.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: "+strings.Join(output.Formats, ", "))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(
		newInstallCmd(),
		newStatusCmd(),
		newLaunchCmd(),
		newBackupCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)

	_ = rootCmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(output.Formats, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml", "toml", "json")

	return rootCmd
}
