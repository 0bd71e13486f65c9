// Package deps makes sure the executables muxup relies on are installed.
package deps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/types"
)

// ErrNoPackageManager is returned by installs when no manager was found.
var ErrNoPackageManager = errors.New("no supported package manager found")

type managerSpec struct {
	name    string
	install []string
	refresh []string
}

// managers is the detection order.
var managers = []managerSpec{
	{name: "apt-get", install: []string{"install", "-y"}, refresh: []string{"update"}},
	{name: "dnf", install: []string{"install", "-y"}},
	{name: "yum", install: []string{"install", "-y"}},
	{name: "pacman", install: []string{"-S", "--noconfirm", "--needed"}},
	{name: "zypper", install: []string{"--non-interactive", "install"}},
	{name: "apk", install: []string{"add", "--no-cache"}},
}

// ManagerNames returns the supported package managers in detection order.
func ManagerNames() []string {
	names := make([]string, len(managers))
	for i, m := range managers {
		names[i] = m.name
	}
	return names
}

// PackageManager installs packages through the host package manager.
type PackageManager struct {
	Name string
	Sudo bool

	spec      managerSpec
	runner    system.CommandRunner
	refreshed bool
}

// DetectPackageManager returns the first supported manager on PATH, or nil.
// macOS always yields nil. sudo is used when not root and sudo exists.
func DetectPackageManager(runner system.CommandRunner, family types.OSFamily, root bool) *PackageManager {
	if family.IsDarwin() {
		return nil
	}

	for _, m := range managers {
		if !system.Has(runner, m.name) {
			continue
		}
		return &PackageManager{
			Name:   m.name,
			Sudo:   !root && system.Has(runner, "sudo"),
			spec:   m,
			runner: runner,
		}
	}
	return nil
}

// Command returns the command line that installs pkgs.
func (pm *PackageManager) Command(pkgs ...string) []string {
	return pm.command(pm.spec.install, pkgs...)
}

func (pm *PackageManager) command(args []string, pkgs ...string) []string {
	var argv []string
	if pm.Sudo {
		argv = append(argv, "sudo")
	}
	argv = append(argv, pm.Name)
	argv = append(argv, args...)
	return append(argv, pkgs...)
}

// Install installs pkgs. A nil manager always fails with ErrNoPackageManager.
func (pm *PackageManager) Install(ctx context.Context, pkgs ...string) error {
	if pm == nil {
		return ErrNoPackageManager
	}
	if len(pkgs) == 0 {
		return nil
	}

	// The package index is refreshed at most once per run.
	if len(pm.spec.refresh) > 0 && !pm.refreshed {
		pm.refreshed = true
		argv := pm.command(pm.spec.refresh)
		_, _ = pm.runner.Run(ctx, argv[0], argv[1:]...)
	}

	argv := pm.Command(pkgs...)
	output, err := pm.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("failed to install %s: %w\nOutput: %s", strings.Join(pkgs, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
