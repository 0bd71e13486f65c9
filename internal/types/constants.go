// Package types provides typed constants shared by the muxup installer.
//
// Enumerated values live here so the prober, the planner and the installer
// agree on names, and so json/yaml output uses stable strings.
package types

import (
	"fmt"
	"strings"
)

// OSFamily is the two-way operating system split the installer cares about.
type OSFamily string

const (
	// OSFamilyPosix covers Linux and every other non-macOS system.
	OSFamilyPosix OSFamily = "posix"
	// OSFamilyDarwin is macOS.
	OSFamilyDarwin OSFamily = "darwin"
)

// OSFamilyFor maps a GOOS value to its family.
func OSFamilyFor(goos string) OSFamily {
	if goos == "darwin" {
		return OSFamilyDarwin
	}
	return OSFamilyPosix
}

// String returns the string representation of the OSFamily.
func (f OSFamily) String() string {
	return string(f)
}

// IsDarwin returns true for macOS.
func (f OSFamily) IsDarwin() bool {
	return f == OSFamilyDarwin
}

// ArchAuto is the architecture override sentinel that requests probing.
const ArchAuto = "auto"

// Normalized architecture names produced by the prober.
const (
	ArchX8664   = "x86_64"
	ArchAarch64 = "aarch64"
)

// ArtifactState describes the installed artifact before an install run.
type ArtifactState string

const (
	// ArtifactAbsent means no artifact file exists yet.
	ArtifactAbsent ArtifactState = "absent"
	// ArtifactPresent means the artifact exists and no refresh was requested.
	ArtifactPresent ArtifactState = "present"
	// ArtifactForceRefresh means a refresh was requested regardless of presence.
	ArtifactForceRefresh ArtifactState = "force-refresh"
)

// String returns the string representation of the ArtifactState.
func (s ArtifactState) String() string {
	return string(s)
}

// NeedsFetch reports whether the state requires downloading the artifact.
func (s ArtifactState) NeedsFetch() bool {
	return s == ArtifactAbsent || s == ArtifactForceRefresh
}

// ResolveArtifactState applies the force flag to a presence check.
func ResolveArtifactState(present, force bool) ArtifactState {
	switch {
	case force:
		return ArtifactForceRefresh
	case present:
		return ArtifactPresent
	default:
		return ArtifactAbsent
	}
}

// Step names one stage of the install workflow.
type Step string

const (
	StepPath          Step = "path"
	StepDependencies  Step = "dependencies"
	StepArtifact      Step = "artifact"
	StepClipboard     Step = "clipboard"
	StepPluginManager Step = "plugin-manager"
	StepConfig        Step = "config"
	StepTerminfo      Step = "terminfo"
)

// AllSteps returns the install steps in execution order.
func AllSteps() []Step {
	return []Step{
		StepPath,
		StepDependencies,
		StepArtifact,
		StepClipboard,
		StepPluginManager,
		StepConfig,
		StepTerminfo,
	}
}

// Validate checks if the Step is a valid value.
func (s Step) Validate() error {
	for _, known := range AllSteps() {
		if s == known {
			return nil
		}
	}
	if s == "" {
		return fmt.Errorf("step is required")
	}
	return fmt.Errorf("invalid step '%s'", s)
}

// String returns the string representation of the Step.
func (s Step) String() string {
	return string(s)
}

// ParseStep parses a step name as given to --skip-step.
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(strings.TrimSpace(s)))
	if err := step.Validate(); err != nil {
		return "", err
	}
	return step, nil
}

// Action is what a step did or would do.
type Action string

const (
	ActionNone    Action = "none"
	ActionInstall Action = "install"
	ActionFetch   Action = "fetch"
	ActionClone   Action = "clone"
	ActionUpdate  Action = "update"
	ActionWrite   Action = "write"
	ActionAppend  Action = "append"
	ActionSkip    Action = "skip"
	ActionWarn    Action = "warn"
)

// String returns the string representation of the Action.
func (a Action) String() string {
	return string(a)
}

// Changes reports whether the action modifies the system.
func (a Action) Changes() bool {
	switch a {
	case ActionInstall, ActionFetch, ActionClone, ActionUpdate, ActionWrite, ActionAppend:
		return true
	}
	return false
}
