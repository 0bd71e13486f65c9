package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// Color palette, tuned for dark terminal backgrounds.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for commands the user can copy.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// Status markers.
var (
	MarkOK   = SuccessStyle.Render("✓")
	MarkFail = ErrorStyle.Render("✗")
	MarkWarn = WarningStyle.Render("!")
	MarkSkip = SubtitleStyle.Render("-")
)

// NewTable returns a table writing to w with a styled header.
func NewTable(w io.Writer, headers ...interface{}) table.Table {
	headerFmt := func(format string, vals ...interface{}) string {
		return TitleStyle.Render(fmt.Sprintf(format, vals...))
	}
	return table.New(headers...).
		WithWriter(w).
		WithHeaderFormatter(headerFmt)
}
