package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/output"
)

// Exit codes other than the generic 1.
const (
	ExitStrict = 2
)

// ExitError carries a process exit status out of a command. A nil Err means
// the status should be used without printing anything.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// loadSettings resolves settings from the --config flag and the environment.
// Ignored malformed values are logged to the command's stderr.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	return config.Load(config.LoadOptions{ConfigPath: configPath, Logger: newLogger(cmd)})
}

func newLogger(cmd *cobra.Command) *log.Logger {
	return output.NewLogger(cmd.ErrOrStderr(), verbose, quiet)
}

// newWriter returns the output writer for the --output flag.
func newWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}
