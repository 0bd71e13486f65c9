// Package platform detects the OS family and CPU architecture to install for.
package platform

import (
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/types"
)

// Platform describes the target of one install run.
type Platform struct {
	OS         types.OSFamily `json:"os" yaml:"os"`
	Arch       string         `json:"arch" yaml:"arch"`
	Machine    string         `json:"machine,omitempty" yaml:"machine,omitempty"`
	Overridden bool           `json:"overridden" yaml:"overridden"`
}

// MachineFunc returns the hardware name, as `uname -m` prints it.
type MachineFunc func() (string, error)

// Prober resolves a Platform. It never fails.
type Prober struct {
	goos    string
	machine MachineFunc
	logger  *log.Logger
}

// NewProber creates a prober for the running host.
func NewProber(logger *log.Logger) *Prober {
	return NewProberWith(runtime.GOOS, machineName, logger)
}

// NewProberWith creates a prober with a fixed GOOS and machine source (for testing).
func NewProberWith(goos string, machine MachineFunc, logger *log.Logger) *Prober {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Prober{goos: goos, machine: machine, logger: logger}
}

// Probe returns the OS family and arch. A non-"auto" override is used as is.
func (p *Prober) Probe(archOverride string) Platform {
	plat := Platform{OS: types.OSFamilyFor(p.goos)}

	if archOverride != "" && archOverride != types.ArchAuto {
		plat.Arch = archOverride
		plat.Overridden = true
		p.logger.Debug("using arch override", "arch", archOverride)
		return plat
	}

	machine, err := p.machine()
	if err != nil || machine == "" {
		p.logger.Debug("machine name unavailable, using GOARCH", "err", err, "goarch", runtime.GOARCH)
		machine = runtime.GOARCH
	}
	plat.Machine = machine

	arch, known := NormalizeArch(machine)
	if !known {
		p.logger.Warn("unrecognized machine architecture, assuming "+types.ArchX8664, "machine", machine)
	}
	plat.Arch = arch

	return plat
}

// NormalizeArch maps a hardware name to x86_64 or aarch64.
// Unknown names map to x86_64 and report known=false.
func NormalizeArch(machine string) (arch string, known bool) {
	switch strings.ToLower(strings.TrimSpace(machine)) {
	case "x86_64", "amd64":
		return types.ArchX8664, true
	case "aarch64", "arm64":
		return types.ArchAarch64, true
	default:
		return types.ArchX8664, false
	}
}
