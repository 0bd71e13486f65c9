package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/deps"
	"github.com/adamancini/muxup/internal/platform"
	"github.com/adamancini/muxup/internal/state"
	"github.com/adamancini/muxup/internal/testutil"
	"github.com/adamancini/muxup/internal/types"
)

func hasAll(string) bool { return true }

func linux() platform.Platform {
	return platform.Platform{OS: types.OSFamilyPosix, Arch: types.ArchX8664}
}

func TestComputeFreshHome(t *testing.T) {
	settings := config.Default("/home/u")
	settings.Shell = "/bin/zsh"

	runner := testutil.NewMockCommandRunner()
	runner.Paths["apt-get"] = "/usr/bin/apt-get"
	pm := deps.DetectPackageManager(runner, types.OSFamilyPosix, true)

	p := Compute(Input{
		Settings:       settings,
		Platform:       linux(),
		State:          &state.State{},
		Has:            func(exe string) bool { return exe == "git" },
		PackageManager: pm,
	})

	steps := make([]types.Step, 0, len(p.Items))
	for _, item := range p.Items {
		if len(steps) == 0 || steps[len(steps)-1] != item.Step {
			steps = append(steps, item.Step)
		}
	}
	assert.Equal(t, types.AllSteps(), steps)

	pathItems := p.ForStep(types.StepPath)
	require.Len(t, pathItems, 1)
	assert.Equal(t, types.ActionAppend, pathItems[0].Action)
	assert.Contains(t, pathItems[0].Description, "/home/u/.zshrc")

	depItems := p.ForStep(types.StepDependencies)
	require.Len(t, depItems, 1)
	assert.Equal(t, "apt-get install -y fuse", depItems[0].Command)

	artifactItems := p.ForStep(types.StepArtifact)
	require.Len(t, artifactItems, 2)
	assert.Equal(t, types.ActionFetch, artifactItems[0].Action)
	assert.Equal(t, types.ActionWrite, artifactItems[1].Action)

	assert.Equal(t, types.ActionClone, p.ForStep(types.StepPluginManager)[0].Action)
	assert.Equal(t, "apt-get install -y ncurses-term", p.ForStep(types.StepTerminfo)[0].Command)
}

func TestComputeInstalledHome(t *testing.T) {
	settings := config.Default("/home/u")
	st := &state.State{
		Artifact:      state.FileState{Exists: true},
		Config:        state.FileState{Exists: true},
		PluginManager: state.PluginManagerState{Checkout: true},
		Path:          state.PathState{RegisteredIn: "/home/u/.bashrc"},
		Terminfo:      true,
	}

	p := Compute(Input{Settings: settings, Platform: linux(), State: st, Has: hasAll})

	assert.Equal(t, types.ActionNone, p.ForStep(types.StepPath)[0].Action)
	assert.Equal(t, types.ActionSkip, p.ForStep(types.StepArtifact)[0].Action)
	assert.Equal(t, types.ActionUpdate, p.ForStep(types.StepPluginManager)[0].Action)
	assert.Contains(t, p.ForStep(types.StepConfig)[0].Description, ".bak.")
	assert.Equal(t, types.ActionNone, p.ForStep(types.StepTerminfo)[0].Action)

	changes, _, warnings := p.Summary()
	// shim rewrite, plugin update, config write
	assert.Equal(t, 3, changes)
	assert.Zero(t, warnings)
}

func TestComputeForceRefresh(t *testing.T) {
	settings := config.Default("/home/u")
	settings.ForceRefresh = true
	st := &state.State{Artifact: state.FileState{Exists: true}}

	p := Compute(Input{Settings: settings, Platform: linux(), State: st, Has: hasAll})

	item := p.ForStep(types.StepArtifact)[0]
	assert.Equal(t, types.ActionFetch, item.Action)
	assert.Contains(t, item.Description, string(types.ArtifactForceRefresh))
}

func TestComputeSkipClipboard(t *testing.T) {
	settings := config.Default("/home/u")
	settings.SkipClipboard = true

	p := Compute(Input{Settings: settings, Platform: linux(), State: &state.State{}, Has: hasAll})

	items := p.ForStep(types.StepClipboard)
	require.Len(t, items, 1)
	assert.Equal(t, types.ActionSkip, items[0].Action)
}

func TestComputeDarwinWarnsOnly(t *testing.T) {
	settings := config.Default("/Users/u")
	plat := platform.Platform{OS: types.OSFamilyDarwin, Arch: types.ArchAarch64}

	p := Compute(Input{Settings: settings, Platform: plat, State: &state.State{}, Has: func(string) bool { return false }})

	for _, step := range []types.Step{types.StepDependencies, types.StepClipboard, types.StepTerminfo} {
		for _, item := range p.ForStep(step) {
			assert.Equal(t, types.ActionWarn, item.Action, "step %s", step)
		}
	}
}

func TestComputeArtifactShowsArch(t *testing.T) {
	settings := config.Default("/home/u")

	p := Compute(Input{Settings: settings, Platform: linux(), State: &state.State{}, Has: hasAll})
	assert.Contains(t, p.ForStep(types.StepArtifact)[0].Description, "detected arch x86_64")

	settings.Arch = "riscv64"
	plat := linux()
	plat.Arch = "riscv64"
	p = Compute(Input{Settings: settings, Platform: plat, State: &state.State{}, Has: hasAll})
	assert.Contains(t, p.ForStep(types.StepArtifact)[0].Description, "arch override riscv64")
}

func TestPlanSkip(t *testing.T) {
	settings := config.Default("/home/u")
	p := Compute(Input{Settings: settings, Platform: linux(), State: &state.State{}, Has: func(string) bool { return false }})
	before := len(p.Items)
	require.Greater(t, len(p.ForStep(types.StepClipboard)), 1)

	p.Skip(types.StepClipboard, types.StepArtifact)

	for _, step := range []types.Step{types.StepClipboard, types.StepArtifact} {
		items := p.ForStep(step)
		require.Len(t, items, 1, "step %s", step)
		assert.Equal(t, types.ActionSkip, items[0].Action)
	}
	assert.Less(t, len(p.Items), before)
	assert.Equal(t, types.ActionAppend, p.ForStep(types.StepPath)[0].Action, "other steps untouched")

	// Step order is kept.
	var steps []types.Step
	for _, item := range p.Items {
		if len(steps) == 0 || steps[len(steps)-1] != item.Step {
			steps = append(steps, item.Step)
		}
	}
	assert.Equal(t, types.AllSteps(), steps)
}
