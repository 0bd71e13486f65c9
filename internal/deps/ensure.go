package deps

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/types"
)

// Requirement is an executable and the package that provides it.
// An empty Package means absence is only reported.
type Requirement struct {
	Exe     string `json:"exe" yaml:"exe"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// Outcome is what Ensure did for one requirement.
type Outcome struct {
	Requirement `yaml:",inline"`
	Action      types.Action `json:"action" yaml:"action"`
	Command     string       `json:"command,omitempty" yaml:"command,omitempty"`
	Err         error        `json:"-" yaml:"-"`
}

// OK reports whether the executable is usable after Ensure.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Action != types.ActionWarn
}

// Prerequisites returns the executables the installer itself needs.
func Prerequisites(family types.OSFamily) []Requirement {
	if family.IsDarwin() {
		return []Requirement{{Exe: "git"}}
	}
	return []Requirement{
		{Exe: "git", Package: "git"},
		{Exe: "fusermount", Package: "fuse"},
	}
}

// ClipboardHelpers returns the copy-mode clipboard backends.
func ClipboardHelpers(family types.OSFamily) []Requirement {
	if family.IsDarwin() {
		return []Requirement{{Exe: "pbcopy"}}
	}
	return []Requirement{
		{Exe: "xclip", Package: "xclip"},
		{Exe: "xsel", Package: "xsel"},
		{Exe: "wl-copy", Package: "wl-clipboard"},
	}
}

// Ensurer installs missing requirements. It never aborts: failures are
// logged and reported in the outcomes.
type Ensurer struct {
	runner system.CommandRunner
	pm     *PackageManager
	logger *log.Logger
}

// NewEnsurer creates an Ensurer. pm may be nil.
func NewEnsurer(runner system.CommandRunner, pm *PackageManager, logger *log.Logger) *Ensurer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Ensurer{runner: runner, pm: pm, logger: logger}
}

// Ensure checks each requirement in order and installs the missing ones.
func (e *Ensurer) Ensure(ctx context.Context, reqs []Requirement) []Outcome {
	outcomes := make([]Outcome, 0, len(reqs))
	for _, req := range reqs {
		outcomes = append(outcomes, e.ensure(ctx, req))
	}
	return outcomes
}

func (e *Ensurer) ensure(ctx context.Context, req Requirement) Outcome {
	out := Outcome{Requirement: req, Action: types.ActionNone}

	if system.Has(e.runner, req.Exe) {
		e.logger.Debug("found", "exe", req.Exe)
		return out
	}

	if req.Package == "" {
		out.Action = types.ActionWarn
		e.logger.Warn("missing executable, install it manually", "exe", req.Exe)
		return out
	}

	out.Action = types.ActionInstall
	if e.pm != nil {
		out.Command = strings.Join(e.pm.Command(req.Package), " ")
	}
	e.logger.Info("installing", "exe", req.Exe, "package", req.Package)
	if err := e.pm.Install(ctx, req.Package); err != nil {
		out.Err = err
		e.logger.Warn("could not install package", "package", req.Package, "err", err)
	}
	return out
}

// TerminfoEntry is the terminal description the bundled config selects.
const TerminfoEntry = "tmux-256color"

// TerminfoPackage provides TerminfoEntry on Linux distributions that split it out.
const TerminfoPackage = "ncurses-term"

// EnsureTerminfo makes sure TerminfoEntry is known to the terminfo database.
func (e *Ensurer) EnsureTerminfo(ctx context.Context, family types.OSFamily) Outcome {
	out := Outcome{Requirement: Requirement{Exe: "infocmp", Package: TerminfoPackage}, Action: types.ActionNone}
	if family.IsDarwin() {
		out.Package = ""
	}

	if e.hasTerminfo(ctx) {
		e.logger.Debug("terminfo present", "entry", TerminfoEntry)
		return out
	}

	if out.Package == "" {
		out.Action = types.ActionWarn
		e.logger.Warn("terminfo entry missing; colors may be degraded", "entry", TerminfoEntry)
		return out
	}

	out.Action = types.ActionInstall
	if e.pm != nil {
		out.Command = strings.Join(e.pm.Command(TerminfoPackage), " ")
	}
	if err := e.pm.Install(ctx, TerminfoPackage); err != nil {
		out.Err = err
		e.logger.Warn("could not install terminfo", "package", TerminfoPackage, "err", err)
	}
	return out
}

func (e *Ensurer) hasTerminfo(ctx context.Context) bool {
	_, err := e.runner.Run(ctx, "infocmp", TerminfoEntry)
	return err == nil
}
