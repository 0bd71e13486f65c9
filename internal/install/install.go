// Package install runs the whole setup workflow in order. No step aborts
// the run: failures are recorded as operations and warnings.
package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/adamancini/muxup/internal/artifact"
	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/deps"
	"github.com/adamancini/muxup/internal/git"
	"github.com/adamancini/muxup/internal/pathreg"
	"github.com/adamancini/muxup/internal/platform"
	"github.com/adamancini/muxup/internal/release"
	"github.com/adamancini/muxup/internal/shim"
	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/tmuxconf"
	"github.com/adamancini/muxup/internal/types"
)

// Operation records one attempted action.
type Operation struct {
	Step        types.Step   `json:"step" yaml:"step"`
	Action      types.Action `json:"action" yaml:"action"`
	Description string       `json:"description" yaml:"description"`
	Command     string       `json:"command,omitempty" yaml:"command,omitempty"`
	Success     bool         `json:"success" yaml:"success"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of one Run.
type Result struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
	Platform   platform.Platform `json:"platform" yaml:"platform"`
	Operations []Operation       `json:"operations" yaml:"operations"`
	Warnings   []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Artifact      *artifact.Result `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Config        *tmuxconf.Result `json:"config,omitempty" yaml:"config,omitempty"`
	Path          *pathreg.Result  `json:"path,omitempty" yaml:"path,omitempty"`
	PluginManager *git.SyncResult  `json:"plugin_manager,omitempty" yaml:"plugin_manager,omitempty"`
}

// Failed returns the number of failed operations.
func (r *Result) Failed() int {
	n := 0
	for _, op := range r.Operations {
		if !op.Success {
			n++
		}
	}
	return n
}

// Changed returns the number of successful operations that changed something.
func (r *Result) Changed() int {
	n := 0
	for _, op := range r.Operations {
		if op.Success && op.Action.Changes() {
			n++
		}
	}
	return n
}

// Installer wires the components together.
type Installer struct {
	settings   *config.Settings
	runner     system.CommandRunner
	prober     *platform.Prober
	fetcher    artifact.Fetcher
	downloader artifact.Downloader
	registrar  *pathreg.Registrar
	configW    *tmuxconf.Writer
	syncer     *git.Syncer
	root       bool
	allow      func(types.Step) bool
	progress   release.ProgressHook
	logger     *log.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithRunner sets the command runner.
func WithRunner(r system.CommandRunner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithProber sets the platform prober.
func WithProber(p *platform.Prober) Option {
	return func(i *Installer) { i.prober = p }
}

// WithRelease sets the release fetcher and downloader.
func WithRelease(f artifact.Fetcher, d artifact.Downloader) Option {
	return func(i *Installer) {
		i.fetcher = f
		i.downloader = d
	}
}

// WithRegistrar sets the PATH registrar.
func WithRegistrar(r *pathreg.Registrar) Option {
	return func(i *Installer) { i.registrar = r }
}

// WithConfigWriter sets the config writer.
func WithConfigWriter(w *tmuxconf.Writer) Option {
	return func(i *Installer) { i.configW = w }
}

// WithRoot overrides root detection, which decides whether sudo is used.
func WithRoot(root bool) Option {
	return func(i *Installer) { i.root = root }
}

// WithStepFilter runs only the steps allow approves; the rest are recorded
// as skipped.
func WithStepFilter(allow func(types.Step) bool) Option {
	return func(i *Installer) { i.allow = allow }
}

// WithProgress reports artifact download progress to hook. It has no effect
// on a downloader other than *release.Downloader.
func WithProgress(hook release.ProgressHook) Option {
	return func(i *Installer) { i.progress = hook }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Installer with production defaults for everything not set
// by an option.
func New(settings *config.Settings, opts ...Option) *Installer {
	i := &Installer{
		settings: settings,
		root:     os.Geteuid() == 0,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.runner == nil {
		i.runner = &system.DefaultCommandRunner{}
	}
	if i.prober == nil {
		i.prober = platform.NewProber(i.logger)
	}
	if i.fetcher == nil {
		i.fetcher = ReleaseClient(settings)
	}
	if i.downloader == nil {
		i.downloader = release.NewDownloader()
	}
	if d, ok := i.downloader.(*release.Downloader); ok && i.progress != nil {
		d.SetProgressHook(i.progress)
	}
	if i.registrar == nil {
		p := settings.Paths
		i.registrar = pathreg.NewRegistrar(p.LocalBin, p.Home, p.RCFiles, settings.Shell, pathreg.WithLogger(i.logger))
	}
	if i.configW == nil {
		i.configW = tmuxconf.NewWriter(settings.Paths.ConfigFile, i.logger)
	}
	i.syncer = git.NewSyncer(i.runner, i.logger)

	return i
}

// ReleaseClient returns the release API client for the settings.
func ReleaseClient(s *config.Settings) *release.Client {
	client := release.NewClient(s.ReleaseOwner, s.ReleaseRepo).WithToken(s.GitHubToken)
	if s.ReleaseAPI != "" {
		client = client.WithBaseURL(s.ReleaseAPI)
	}
	return client
}

// Chain returns the shim strategy list for the settings.
func Chain(s *config.Settings) shim.Chain {
	return shim.DefaultChain(s.Paths.Artifact, s.FallbackBinary, s.ProbeTimeout)
}

// Run executes every step in order and never returns early.
func (i *Installer) Run(ctx context.Context) *Result {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := i.logger.With("run", res.RunID[:8])
	// Already logged when the settings were loaded.
	res.Warnings = append(res.Warnings, i.settings.Warnings...)

	res.Platform = i.prober.Probe(i.settings.Arch)
	logger.Info("platform", "os", res.Platform.OS, "arch", res.Platform.Arch)

	pm := deps.DetectPackageManager(i.runner, res.Platform.OS, i.root)
	if pm != nil {
		logger.Debug("package manager", "name", pm.Name, "sudo", pm.Sudo)
	} else if !res.Platform.OS.IsDarwin() {
		res.warn(logger, fmt.Sprintf("no supported package manager found (looked for %s); missing packages will not be installed",
			strings.Join(deps.ManagerNames(), ", ")))
	}
	ensurer := deps.NewEnsurer(i.runner, pm, logger)

	steps := []struct {
		step types.Step
		run  func()
	}{
		{types.StepPath, func() { i.registerPath(res, logger) }},
		{types.StepDependencies, func() {
			i.ensure(ctx, res, logger, ensurer, types.StepDependencies, deps.Prerequisites(res.Platform.OS))
		}},
		{types.StepArtifact, func() { i.installArtifact(ctx, res, logger) }},
		{types.StepClipboard, func() {
			if i.settings.SkipClipboard {
				res.record(Operation{Step: types.StepClipboard, Action: types.ActionSkip, Description: "clipboard helpers skipped", Success: true})
				return
			}
			i.ensure(ctx, res, logger, ensurer, types.StepClipboard, deps.ClipboardHelpers(res.Platform.OS))
		}},
		{types.StepPluginManager, func() { i.syncPluginManager(ctx, res, logger) }},
		{types.StepConfig, func() { i.writeConfig(res, logger) }},
		{types.StepTerminfo, func() { i.terminfo(ctx, res, logger, ensurer) }},
	}

	for _, s := range steps {
		if i.allow != nil && !i.allow(s.step) {
			res.record(Operation{Step: s.step, Action: types.ActionSkip, Description: "skipped by user", Success: true})
			continue
		}
		logger.Debug("step", "name", s.step)
		s.run()
	}

	res.FinishedAt = time.Now()
	return res
}

func (i *Installer) registerPath(res *Result, logger *log.Logger) {
	op := Operation{Step: types.StepPath, Action: types.ActionNone}

	pr, err := i.registrar.Register()
	res.Path = pr
	switch {
	case err != nil:
		op.Action = types.ActionAppend
		op.Description = "register PATH"
		op.Error = err.Error()
	case pr.AppendedTo != "":
		op.Action = types.ActionAppend
		op.Description = fmt.Sprintf("appended PATH export to %s", pr.AppendedTo)
		op.Command = pathreg.ExportLine
		op.Success = true
	default:
		op.Description = fmt.Sprintf("already registered in %s", pr.RegisteredIn)
		op.Success = true
	}
	if err != nil {
		res.warn(logger, fmt.Sprintf("PATH registration failed: %v", err))
	}
	res.record(op)
}

func (i *Installer) ensure(ctx context.Context, res *Result, logger *log.Logger, e *deps.Ensurer, step types.Step, reqs []deps.Requirement) {
	for _, out := range e.Ensure(ctx, reqs) {
		res.recordOutcome(logger, step, out)
	}
}

func (i *Installer) terminfo(ctx context.Context, res *Result, logger *log.Logger, e *deps.Ensurer) {
	res.recordOutcome(logger, types.StepTerminfo, e.EnsureTerminfo(ctx, res.Platform.OS))
}

func (i *Installer) installArtifact(ctx context.Context, res *Result, logger *log.Logger) {
	s := i.settings
	inst := artifact.NewInstaller(artifact.Options{
		ArtifactPath: s.Paths.Artifact,
		ShimPath:     s.Paths.Shim,
		AssetPattern: s.AssetPattern,
		Arch:         res.Platform.Arch,
		Chain:        Chain(s),
	}, i.fetcher, i.downloader, i.runner, logger)

	ar, err := inst.Install(ctx, s.ForceRefresh)
	res.Artifact = ar

	op := Operation{Step: types.StepArtifact, Success: err == nil}
	switch {
	case ar.Fetched:
		op.Action = types.ActionFetch
		op.Description = fmt.Sprintf("downloaded %s", ar.AssetURL)
	case ar.State.NeedsFetch():
		op.Action = types.ActionFetch
		op.Description = fmt.Sprintf("download from %s", s.ReleaseSlug())
	default:
		op.Action = types.ActionSkip
		op.Description = "already present, skipping download"
	}
	if err != nil {
		op.Error = err.Error()
		res.warn(logger, fmt.Sprintf("artifact: %v", err))
	}
	res.record(op)

	if ar.ShimWritten {
		res.record(Operation{Step: types.StepArtifact, Action: types.ActionWrite, Description: fmt.Sprintf("wrote shim %s", s.Paths.Shim), Success: true})
	}
	res.Warnings = append(res.Warnings, ar.Warnings...)
}

func (i *Installer) syncPluginManager(ctx context.Context, res *Result, logger *log.Logger) {
	sr, err := i.syncer.Sync(ctx, i.settings.PluginManagerURL, i.settings.Paths.PluginDir)
	res.PluginManager = sr

	op := Operation{
		Step:        types.StepPluginManager,
		Action:      sr.Action,
		Description: fmt.Sprintf("%s %s", sr.Action, sr.Dir),
		Command:     sr.Command,
		Success:     err == nil,
	}
	if err != nil {
		op.Error = err.Error()
		res.warn(logger, fmt.Sprintf("plugin manager: %v", err))
	}
	res.record(op)
}

func (i *Installer) writeConfig(res *Result, logger *log.Logger) {
	cr, err := i.configW.Write()
	res.Config = cr

	op := Operation{Step: types.StepConfig, Action: types.ActionWrite, Success: err == nil}
	op.Description = fmt.Sprintf("wrote %s", i.configW.Path())
	if cr != nil && cr.Backup != nil {
		op.Description = fmt.Sprintf("wrote %s (previous saved as %s)", i.configW.Path(), cr.Backup.Path)
	}
	if err != nil {
		op.Error = err.Error()
		res.warn(logger, fmt.Sprintf("config: %v", err))
	}
	res.record(op)
}

func (r *Result) record(op Operation) {
	r.Operations = append(r.Operations, op)
}

func (r *Result) recordOutcome(logger *log.Logger, step types.Step, out deps.Outcome) {
	op := Operation{
		Step:    step,
		Action:  out.Action,
		Command: out.Command,
		Success: out.Err == nil,
	}
	switch out.Action {
	case types.ActionNone:
		op.Description = fmt.Sprintf("found %s", out.Exe)
	case types.ActionWarn:
		op.Description = fmt.Sprintf("%s missing", out.Exe)
	default:
		op.Description = fmt.Sprintf("install %s for %s", out.Package, out.Exe)
	}
	if !out.OK() {
		if out.Err != nil {
			op.Error = out.Err.Error()
			r.warn(logger, fmt.Sprintf("%s: could not install %s: %v", step, out.Package, out.Err))
		} else {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s is not installed; install it manually", out.Exe))
		}
	}
	r.record(op)
}

func (r *Result) warn(logger *log.Logger, msg string) {
	r.Warnings = append(r.Warnings, msg)
	logger.Debug("warning recorded", "msg", msg)
}
