// Package plan computes what an install run would change, without changing it.
package plan

import (
	"fmt"
	"strings"

	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/deps"
	"github.com/adamancini/muxup/internal/pathreg"
	"github.com/adamancini/muxup/internal/platform"
	"github.com/adamancini/muxup/internal/state"
	"github.com/adamancini/muxup/internal/types"
)

// Item is one planned action.
type Item struct {
	Step        types.Step   `json:"step" yaml:"step"`
	Action      types.Action `json:"action" yaml:"action"`
	Description string       `json:"description" yaml:"description"`
	Command     string       `json:"command,omitempty" yaml:"command,omitempty"`
}

// Plan is the ordered list of actions for one run.
type Plan struct {
	Platform platform.Platform `json:"platform" yaml:"platform"`
	Items    []Item            `json:"items" yaml:"items"`
}

// Input is everything Compute looks at.
type Input struct {
	Settings *config.Settings
	Platform platform.Platform
	State    *state.State
	// Has reports whether an executable resolves on PATH.
	Has func(exe string) bool
	// PackageManager may be nil.
	PackageManager *deps.PackageManager
}

// Compute returns the plan in step order.
func Compute(in Input) *Plan {
	p := &Plan{Platform: in.Platform}
	s := in.Settings
	st := in.State

	// PATH
	if st.Path.RegisteredIn != "" {
		p.add(types.StepPath, types.ActionNone, fmt.Sprintf("already registered in %s", st.Path.RegisteredIn), "")
	} else {
		target := pathreg.NewRegistrar(s.Paths.LocalBin, s.Paths.Home, s.Paths.RCFiles, s.Shell).Target()
		p.add(types.StepPath, types.ActionAppend, fmt.Sprintf("append PATH export to %s", target), pathreg.ExportLine)
	}

	// Dependencies
	p.requirements(in, types.StepDependencies, deps.Prerequisites(in.Platform.OS))

	// Artifact and shim
	artifactState := types.ResolveArtifactState(st.Artifact.Exists, s.ForceRefresh)
	if artifactState.NeedsFetch() {
		arch := "detected arch " + in.Platform.Arch
		if s.ArchOverridden() {
			arch = "arch override " + s.Arch
		}
		// The arch is shown but does not filter assets.
		p.add(types.StepArtifact, types.ActionFetch,
			fmt.Sprintf("download latest %s asset from %s (%s, %s)", s.AssetPattern, s.ReleaseSlug(), artifactState, arch),
			"")
	} else {
		p.add(types.StepArtifact, types.ActionSkip, "already present, skipping download", "")
	}
	p.add(types.StepArtifact, types.ActionWrite, fmt.Sprintf("rewrite shim %s", s.Paths.Shim), "")

	// Clipboard
	if s.SkipClipboard {
		p.add(types.StepClipboard, types.ActionSkip, "clipboard helpers skipped", "")
	} else {
		p.requirements(in, types.StepClipboard, deps.ClipboardHelpers(in.Platform.OS))
	}

	// Plugin manager
	if st.PluginManager.Checkout {
		p.add(types.StepPluginManager, types.ActionUpdate,
			fmt.Sprintf("fast-forward %s", s.Paths.PluginDir), "git pull --ff-only")
	} else {
		p.add(types.StepPluginManager, types.ActionClone,
			fmt.Sprintf("clone %s", s.PluginManagerURL),
			fmt.Sprintf("git clone --depth 1 %s %s", s.PluginManagerURL, s.Paths.PluginDir))
	}

	// Config
	if st.Config.Exists {
		p.add(types.StepConfig, types.ActionWrite,
			fmt.Sprintf("back up %s to %s<epoch> and write template", s.Paths.ConfigFile, s.Paths.ConfigFile+".bak."), "")
	} else {
		p.add(types.StepConfig, types.ActionWrite, fmt.Sprintf("write template to %s", s.Paths.ConfigFile), "")
	}

	// Terminfo
	if st.Terminfo {
		p.add(types.StepTerminfo, types.ActionNone, fmt.Sprintf("%s present", deps.TerminfoEntry), "")
	} else if in.Platform.OS.IsDarwin() {
		p.add(types.StepTerminfo, types.ActionWarn, fmt.Sprintf("%s missing", deps.TerminfoEntry), "")
	} else {
		p.add(types.StepTerminfo, types.ActionInstall,
			fmt.Sprintf("install %s", deps.TerminfoPackage), commandFor(in.PackageManager, deps.TerminfoPackage))
	}

	return p
}

func (p *Plan) requirements(in Input, step types.Step, reqs []deps.Requirement) {
	var missing int
	for _, req := range reqs {
		if in.Has != nil && in.Has(req.Exe) {
			continue
		}
		missing++
		if req.Package == "" {
			p.add(step, types.ActionWarn, fmt.Sprintf("%s missing, install it manually", req.Exe), "")
			continue
		}
		p.add(step, types.ActionInstall, fmt.Sprintf("install %s for %s", req.Package, req.Exe), commandFor(in.PackageManager, req.Package))
	}
	if missing == 0 {
		names := make([]string, len(reqs))
		for i, req := range reqs {
			names[i] = req.Exe
		}
		p.add(step, types.ActionNone, fmt.Sprintf("found %s", strings.Join(names, ", ")), "")
	}
}

func (p *Plan) add(step types.Step, action types.Action, desc, command string) {
	p.Items = append(p.Items, Item{Step: step, Action: action, Description: desc, Command: command})
}

func commandFor(pm *deps.PackageManager, pkg string) string {
	if pm == nil {
		return ""
	}
	return strings.Join(pm.Command(pkg), " ")
}

// Summary returns counts of changing, skipped and warning items.
func (p *Plan) Summary() (changes, unchanged, warnings int) {
	for _, item := range p.Items {
		switch {
		case item.Action == types.ActionWarn:
			warnings++
		case item.Action.Changes():
			changes++
		default:
			unchanged++
		}
	}
	return
}

// Skip replaces the items of each listed step with a single skip item.
func (p *Plan) Skip(steps ...types.Step) {
	if len(steps) == 0 {
		return
	}
	skipped := make(map[types.Step]bool, len(steps))
	for _, step := range steps {
		skipped[step] = true
	}

	items := p.Items[:0:0]
	for _, item := range p.Items {
		if !skipped[item.Step] {
			items = append(items, item)
			continue
		}
		if len(items) > 0 && items[len(items)-1].Step == item.Step {
			continue
		}
		items = append(items, Item{Step: item.Step, Action: types.ActionSkip, Description: "skipped with --skip-step"})
	}
	p.Items = items
}

// ForStep returns the items of one step.
func (p *Plan) ForStep(step types.Step) []Item {
	var items []Item
	for _, item := range p.Items {
		if item.Step == step {
			items = append(items, item)
		}
	}
	return items
}
