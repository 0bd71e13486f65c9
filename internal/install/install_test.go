package install

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/muxup/internal/backup"
	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/pathreg"
	"github.com/adamancini/muxup/internal/platform"
	"github.com/adamancini/muxup/internal/release"
	"github.com/adamancini/muxup/internal/testutil"
	"github.com/adamancini/muxup/internal/tmuxconf"
	"github.com/adamancini/muxup/internal/types"
)

type fixture struct {
	settings  *config.Settings
	runner    *testutil.MockCommandRunner
	env       map[string]string
	downloads atomic.Int32
	assets    string
	server    *httptest.Server
	clock     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		env:    map[string]string{"PATH": "/usr/bin:/bin"},
		runner: testutil.NewMockCommandRunner(),
		clock:  1700000000,
	}
	f.assets = `{"browser_download_url": "%[1]s/dl/tmux.tar.gz"}, {"browser_download_url": "%[1]s/dl/tmux.AppImage"}`

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"tag_name": "3.5a", "assets": [`+f.assets+`]}`, "http://"+r.Host)
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		f.downloads.Add(1)
		_, _ = w.Write([]byte("appimage"))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.settings = config.Default(t.TempDir())
	f.settings.ReleaseOwner = "o"
	f.settings.ReleaseRepo = "r"
	f.settings.Shell = "/bin/bash"
	f.settings.ProbeTimeout = time.Second

	for _, exe := range []string{"git", "fusermount", "xclip", "xsel", "wl-copy", "apt-get"} {
		f.runner.Paths[exe] = "/usr/bin/" + exe
	}
	f.runner.Outputs[f.settings.Paths.Shim+" -V"] = []byte("tmux 3.5a\n")

	return f
}

func (f *fixture) installer(extra ...Option) *Installer {
	p := f.settings.Paths
	registrar := pathreg.NewRegistrar(p.LocalBin, p.Home, p.RCFiles, f.settings.Shell, pathreg.WithEnv(
		func(k string) string { return f.env[k] },
		func(k, v string) error { f.env[k] = v; return nil },
	))
	clock := func() time.Time {
		f.clock++
		return time.Unix(f.clock, 0)
	}
	writer := tmuxconf.NewWriterWith(p.ConfigFile, tmuxconf.Template(), backup.NewManagerWithClock(p.ConfigFile, clock), nil)
	prober := platform.NewProberWith("linux", func() (string, error) { return "x86_64", nil }, nil)

	opts := []Option{
		WithRunner(f.runner),
		WithProber(prober),
		WithRelease(release.NewClient("o", "r").WithBaseURL(f.server.URL), release.NewDownloader()),
		WithRegistrar(registrar),
		WithConfigWriter(writer),
		WithRoot(true),
	}
	return New(f.settings, append(opts, extra...)...)
}

func (f *fixture) backups(t *testing.T) int {
	t.Helper()
	list, err := backup.NewManager(f.settings.Paths.ConfigFile).List()
	require.NoError(t, err)
	return len(list)
}

func stepsOf(ops []Operation) []types.Step {
	var steps []types.Step
	for _, op := range ops {
		if len(steps) == 0 || steps[len(steps)-1] != op.Step {
			steps = append(steps, op.Step)
		}
	}
	return steps
}

func TestRunOrder(t *testing.T) {
	f := newFixture(t)

	res := f.installer().Run(context.Background())

	assert.Equal(t, types.AllSteps(), stepsOf(res.Operations))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, types.ArchX8664, res.Platform.Arch)
	assert.Zero(t, res.Failed(), "operations: %+v", res.Operations)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := f.installer().Run(context.Background())
	require.Zero(t, first.Failed(), "operations: %+v", first.Operations)
	assert.True(t, first.Artifact.Fetched)
	assert.Equal(t, int32(1), f.downloads.Load())
	assert.Equal(t, 0, f.backups(t))
	assert.Equal(t, "3.5a", first.Artifact.Version)

	second := f.installer().Run(context.Background())
	require.Zero(t, second.Failed(), "operations: %+v", second.Operations)

	assert.False(t, second.Artifact.Fetched)
	assert.Equal(t, types.ArtifactPresent, second.Artifact.State)
	assert.Equal(t, int32(1), f.downloads.Load(), "second run must not download")
	assert.True(t, second.Artifact.ShimWritten)
	assert.Equal(t, 1, f.backups(t))
	require.NotNil(t, second.Config.Backup)

	bashrc, err := os.ReadFile(f.settings.Paths.RCFiles[0])
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(bashrc), pathreg.ExportLine))
	assert.Empty(t, second.Path.AppendedTo)
}

func TestRunBacksUpExistingConfigOncePerRun(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.settings.Paths.ConfigFile, "# mine\n")

	f.installer().Run(context.Background())
	assert.Equal(t, 1, f.backups(t))

	f.installer().Run(context.Background())
	assert.Equal(t, 2, f.backups(t))

	list, err := backup.NewManager(f.settings.Paths.ConfigFile).List()
	require.NoError(t, err)
	oldest, err := os.ReadFile(list[len(list)-1].Path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(oldest))
}

func TestRunForceRefetches(t *testing.T) {
	f := newFixture(t)

	f.installer().Run(context.Background())
	f.settings.ForceRefresh = true
	res := f.installer().Run(context.Background())

	assert.Equal(t, types.ArtifactForceRefresh, res.Artifact.State)
	assert.True(t, res.Artifact.Fetched)
	assert.Equal(t, int32(2), f.downloads.Load())
}

func TestRunContinuesWhenNoAssetMatches(t *testing.T) {
	f := newFixture(t)
	f.assets = `{"browser_download_url": "%[1]s/dl/tmux.tar.gz"}`

	res := f.installer().Run(context.Background())

	assert.Equal(t, types.AllSteps(), stepsOf(res.Operations))
	assert.Equal(t, 1, res.Failed())
	assert.True(t, res.Artifact.ShimWritten)
	assert.FileExists(t, f.settings.Paths.ConfigFile)
	assert.True(t, f.runner.Ran("git clone --depth 1 "+f.settings.PluginManagerURL+" "+f.settings.Paths.PluginDir))

	var artifactOp *Operation
	for idx := range res.Operations {
		if res.Operations[idx].Step == types.StepArtifact && !res.Operations[idx].Success {
			artifactOp = &res.Operations[idx]
		}
	}
	require.NotNil(t, artifactOp)
	assert.Contains(t, artifactOp.Error, "AppImage")
}

func TestRunSkipClipboard(t *testing.T) {
	f := newFixture(t)
	f.settings.SkipClipboard = true
	delete(f.runner.Paths, "xclip")

	res := f.installer().Run(context.Background())

	var clipboard []Operation
	for _, op := range res.Operations {
		if op.Step == types.StepClipboard {
			clipboard = append(clipboard, op)
		}
	}
	require.Len(t, clipboard, 1)
	assert.Equal(t, types.ActionSkip, clipboard[0].Action)
	assert.False(t, f.runner.Ran("apt-get install -y xclip"))
}

func TestRunToleratesPackageFailures(t *testing.T) {
	f := newFixture(t)
	delete(f.runner.Paths, "fusermount")
	f.runner.Errors["apt-get install -y fuse"] = fmt.Errorf("exit status 100")

	res := f.installer().Run(context.Background())

	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, types.AllSteps(), stepsOf(res.Operations))
	assert.NotEmpty(t, res.Warnings)
}

func TestRunArchOverridePassesThrough(t *testing.T) {
	f := newFixture(t)
	f.settings.Arch = "riscv64"

	res := f.installer().Run(context.Background())

	assert.Equal(t, "riscv64", res.Platform.Arch)
	assert.True(t, res.Platform.Overridden)
	assert.True(t, res.Artifact.Fetched)
}

func TestRunStepFilter(t *testing.T) {
	f := newFixture(t)

	inst := f.installer()
	WithStepFilter(func(step types.Step) bool { return step != types.StepArtifact })(inst)
	res := inst.Run(context.Background())

	assert.Equal(t, types.AllSteps(), stepsOf(res.Operations))
	assert.Nil(t, res.Artifact)
	assert.Zero(t, f.downloads.Load())
	assert.NoFileExists(t, f.settings.Paths.Shim)
	assert.FileExists(t, f.settings.Paths.ConfigFile)
}

func TestRunReportsDownloadProgress(t *testing.T) {
	f := newFixture(t)

	var calls int
	var last, total int64
	inst := f.installer(WithProgress(func(downloaded, size int64) {
		calls++
		last, total = downloaded, size
	}))

	res := inst.Run(context.Background())
	require.True(t, res.Artifact.Fetched)

	assert.Positive(t, calls)
	assert.EqualValues(t, len("appimage"), last)
	assert.EqualValues(t, len("appimage"), total)
}

func TestRunCarriesSettingsWarnings(t *testing.T) {
	f := newFixture(t)
	f.settings.Warnings = []string{"environment: MUXUP_PROBE_TIMEOUT: invalid duration \"soon\"; keeping 1s"}

	res := f.installer().Run(context.Background())

	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, f.settings.Warnings[0], res.Warnings[0])
	assert.Zero(t, res.Failed())
}

func TestRunWarnsWithoutPackageManager(t *testing.T) {
	f := newFixture(t)
	delete(f.runner.Paths, "apt-get")

	res := f.installer().Run(context.Background())

	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "no supported package manager") {
			found = true
			assert.Contains(t, w, "apt-get, dnf, yum, pacman, zypper, apk")
		}
	}
	assert.True(t, found, "warnings: %v", res.Warnings)
}
