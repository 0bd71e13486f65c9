// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"

	"github.com/adamancini/muxup/internal/plan"
	"github.com/adamancini/muxup/internal/types"
)

// titleCase capitalizes the first letter of a string.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed with this step
	ResponseNo                   // Skip this step
	ResponseAll                  // Approve all remaining steps
	ResponseQuit                 // Abort interactive mode
)

// Prompter handles interactive prompts.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	scanner    *bufio.Scanner
	approveAll bool
}

// Selection maps each step with changes to whether it was approved.
// Steps without an entry were not asked about and run normally.
type Selection map[types.Step]bool

// Allows reports whether step may run.
func (s Selection) Allows(step types.Step) bool {
	approved, asked := s[step]
	return !asked || approved
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return IsTerminalFile(os.Stdin)
}

// IsTerminalFile reports whether f is a terminal. Non-file writers are not.
func IsTerminalFile(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm asks a yes/no question. EOF and anything but yes mean no.
func (p *Prompter) Confirm(format string, args ...interface{}) bool {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n] ")
	if !p.scanner.Scan() {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	return input == "y" || input == "yes"
}

// PromptForSelection asks once per step that would change something.
// It returns the selection and whether to proceed.
func (p *Prompter) PromptForSelection(pl *plan.Plan) (Selection, bool) {
	selection := make(Selection)
	apply, skipped := 0, 0

	for _, step := range types.AllSteps() {
		items := changing(pl.ForStep(step))
		if len(items) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(p.out, "\n%s:\n", titleCase(string(step)))
		for _, item := range items {
			symbol, verb := actionSymbolVerb(item.Action)
			_, _ = fmt.Fprintf(p.out, "  %s %s (will %s)\n", symbol, item.Description, verb)
		}

		switch p.prompt("    -> Run %s step?", step) {
		case ResponseQuit:
			_, _ = fmt.Fprintln(p.out, "\nAborted.")
			return nil, false
		case ResponseNo:
			_, _ = fmt.Fprintf(p.out, "    %s Skipped\n", skipSymbol)
			selection[step] = false
			skipped++
		default:
			selection[step] = true
			apply++
		}
	}

	_, _ = fmt.Fprintln(p.out, "\nSummary:")
	_, _ = fmt.Fprintf(p.out, "  Will run: %d steps with changes\n", apply)
	if skipped > 0 {
		_, _ = fmt.Fprintf(p.out, "  Skipped: %d\n", skipped)
	}

	if apply == 0 {
		_, _ = fmt.Fprintln(p.out, "No changes selected.")
		return selection, false
	}

	if !p.Confirm("\nProceed with install?") {
		_, _ = fmt.Fprintln(p.out, "Aborted.")
		return selection, false
	}

	return selection, true
}

func changing(items []plan.Item) []plan.Item {
	var out []plan.Item
	for _, item := range items {
		if item.Action.Changes() {
			out = append(out, item)
		}
	}
	return out
}

// Symbols for output
const (
	addSymbol    = "+"
	updateSymbol = "~"
	skipSymbol   = "-"
)

// actionSymbolVerb returns the symbol and verb for a plan action.
func actionSymbolVerb(action types.Action) (symbol, verb string) {
	switch action {
	case types.ActionInstall:
		return addSymbol, "install"
	case types.ActionFetch:
		return addSymbol, "download"
	case types.ActionClone:
		return addSymbol, "clone"
	case types.ActionAppend:
		return addSymbol, "append"
	case types.ActionUpdate:
		return updateSymbol, "update"
	case types.ActionWrite:
		return updateSymbol, "write"
	default:
		return " ", ""
	}
}
