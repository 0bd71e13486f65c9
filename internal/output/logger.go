package output

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger returns the CLI logger. verbose enables debug lines, quiet
// limits output to errors; quiet wins when both are set.
func NewLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "muxup",
	})
	switch {
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	case verbose:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
