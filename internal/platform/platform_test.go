package platform

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/types"
)

func fixedMachine(name string) MachineFunc {
	return func() (string, error) { return name, nil }
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		machine   string
		want      string
		wantKnown bool
	}{
		{"x86_64", types.ArchX8664, true},
		{"amd64", types.ArchX8664, true},
		{"aarch64", types.ArchAarch64, true},
		{"arm64", types.ArchAarch64, true},
		{"ARM64", types.ArchAarch64, true},
		{"riscv64", types.ArchX8664, false},
		{"", types.ArchX8664, false},
	}

	for _, tt := range tests {
		t.Run(tt.machine, func(t *testing.T) {
			got, known := NormalizeArch(tt.machine)
			if got != tt.want || known != tt.wantKnown {
				t.Errorf("NormalizeArch(%q) = (%s, %v), want (%s, %v)", tt.machine, got, known, tt.want, tt.wantKnown)
			}
		})
	}
}

func TestProbeOSFamily(t *testing.T) {
	p := NewProberWith("darwin", fixedMachine("arm64"), nil).Probe(types.ArchAuto)
	if p.OS != types.OSFamilyDarwin {
		t.Errorf("OS = %s, want darwin", p.OS)
	}
	if p.Arch != types.ArchAarch64 {
		t.Errorf("Arch = %s, want aarch64", p.Arch)
	}

	p = NewProberWith("linux", fixedMachine("x86_64"), nil).Probe("")
	if p.OS != types.OSFamilyPosix {
		t.Errorf("OS = %s, want posix", p.OS)
	}
	if p.Machine != "x86_64" {
		t.Errorf("Machine = %s, want x86_64", p.Machine)
	}
}

func TestProbeOverrideVerbatim(t *testing.T) {
	called := false
	machine := func() (string, error) {
		called = true
		return "x86_64", nil
	}

	p := NewProberWith("linux", machine, nil).Probe("Some-Unknown_Arch")
	if p.Arch != "Some-Unknown_Arch" {
		t.Errorf("Arch = %s, want override verbatim", p.Arch)
	}
	if !p.Overridden {
		t.Error("Overridden should be true")
	}
	if called {
		t.Error("machine should not be probed when overridden")
	}
}

func TestProbeUnknownMachineWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	p := NewProberWith("linux", fixedMachine("mips"), logger).Probe(types.ArchAuto)
	if p.Arch != types.ArchX8664 {
		t.Errorf("Arch = %s, want x86_64 fallback", p.Arch)
	}
	if !strings.Contains(buf.String(), "unrecognized machine architecture") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestProbeMachineError(t *testing.T) {
	failing := func() (string, error) { return "", errors.New("uname failed") }

	p := NewProberWith("linux", failing, nil).Probe(types.ArchAuto)
	if p.Machine != runtime.GOARCH {
		t.Errorf("Machine = %s, want GOARCH %s", p.Machine, runtime.GOARCH)
	}
	if p.Arch == "" {
		t.Error("Arch should never be empty")
	}
}

func TestMachineName(t *testing.T) {
	name, err := machineName()
	if err != nil {
		t.Fatalf("machineName() error = %v", err)
	}
	if name == "" {
		t.Error("machine name should not be empty")
	}
}
