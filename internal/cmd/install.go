package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/deps"
	"github.com/adamancini/muxup/internal/install"
	"github.com/adamancini/muxup/internal/interactive"
	"github.com/adamancini/muxup/internal/output"
	"github.com/adamancini/muxup/internal/plan"
	"github.com/adamancini/muxup/internal/platform"
	"github.com/adamancini/muxup/internal/state"
	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/types"
)

type installFlags struct {
	force         bool
	arch          string
	skipClipboard bool
	dryRun        bool
	interactive   bool
	strict        bool
	skipSteps     []string
}

func newInstallCmd() *cobra.Command {
	var f installFlags

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or refresh tmux and its setup",
		Long: `Install runs every setup step in order:

  path            register ~/.local/bin in the current process and a shell startup file
  dependencies    git and fuse
  artifact        download the tmux AppImage (only when absent or --force) and rewrite the shim
  clipboard       xclip, xsel and wl-clipboard
  plugin-manager  clone or fast-forward tpm
  config          back up ~/.tmux.conf and write the bundled one
  terminfo        make sure tmux-256color is known

A failing step is reported as a warning and the run continues. Use --strict
to exit with status 2 when anything failed. --skip-step leaves named steps
out of the run (repeat it or give a comma-separated list).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, f)
		},
	}

	cmd.Flags().BoolVar(&f.force, "force", false, "Download the AppImage even when it is already present")
	cmd.Flags().StringVar(&f.arch, "arch", "", "Architecture override (default: detected)")
	cmd.Flags().BoolVar(&f.skipClipboard, "skip-clipboard", false, "Do not install clipboard helpers")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would change without changing anything")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Prompt for each step that would change something")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit 2 when any operation failed")
	cmd.Flags().StringSliceVar(&f.skipSteps, "skip-step", nil, "Steps to leave out of the run")

	stepNames := make([]string, 0, len(types.AllSteps()))
	for _, step := range types.AllSteps() {
		stepNames = append(stepNames, string(step))
	}
	_ = cmd.RegisterFlagCompletionFunc("skip-step", cobra.FixedCompletions(stepNames, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// applyInstallFlags overrides settings with the flags the user actually set.
func applyInstallFlags(cmd *cobra.Command, f installFlags, s *config.Settings) {
	if cmd.Flags().Changed("force") {
		s.ForceRefresh = f.force
	}
	if cmd.Flags().Changed("arch") {
		s.Arch = f.arch
	}
	if cmd.Flags().Changed("skip-clipboard") {
		s.SkipClipboard = f.skipClipboard
	}
}

// parseSkipSteps validates --skip-step values.
func parseSkipSteps(values []string) ([]types.Step, error) {
	steps := make([]types.Step, 0, len(values))
	for _, v := range values {
		step, err := types.ParseStep(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --skip-step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func runInstall(cmd *cobra.Command, f installFlags) error {
	skipped, err := parseSkipSteps(f.skipSteps)
	if err != nil {
		return err
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyInstallFlags(cmd, f, settings)

	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	ctx := cmd.Context()

	if verbose && settings.SourceFile != "" {
		logger.Debug("using settings file", "path", settings.SourceFile)
	}

	if f.interactive && !interactive.IsTerminal() {
		logger.Warn("not running in a terminal; falling back to non-interactive mode")
		f.interactive = false
	}

	runner := &system.DefaultCommandRunner{}
	opts := []install.Option{install.WithLogger(logger), install.WithRunner(runner)}
	if writer.IsText() && !quiet && interactive.IsTerminalFile(cmd.ErrOrStderr()) {
		opts = append(opts, install.WithProgress(output.NewProgress(cmd.ErrOrStderr(), "downloading tmux AppImage")))
	}

	allow := skipFilter(skipped)
	if f.dryRun || f.interactive {
		pl, err := computePlan(ctx, settings, runner, logger)
		if err != nil {
			return err
		}
		pl.Skip(skipped...)

		if f.dryRun {
			return writer.Render(pl, func(w io.Writer) error {
				printPlanText(w, pl)
				return nil
			})
		}

		selection, proceed := interactive.NewPrompter().PromptForSelection(pl)
		if !proceed {
			return nil
		}
		allow = func(step types.Step) bool {
			return skipFilter(skipped)(step) && selection.Allows(step)
		}
	}
	opts = append(opts, install.WithStepFilter(allow))

	result := install.New(settings, opts...).Run(ctx)

	if err := writer.Render(result, func(w io.Writer) error {
		printInstallText(w, result, settings)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return strictExit(f.strict, result)
}

// strictExit returns an ExitStrict error when strict is set and an operation failed.
func strictExit(strict bool, result *install.Result) error {
	if !strict || result.Failed() == 0 {
		return nil
	}
	return &ExitError{
		Code: ExitStrict,
		Err:  fmt.Errorf("%d operation(s) failed", result.Failed()),
	}
}

// skipFilter allows every step not in skipped.
func skipFilter(skipped []types.Step) func(types.Step) bool {
	return func(step types.Step) bool {
		return !slices.Contains(skipped, step)
	}
}

// computePlan snapshots the installed state and plans a run against it.
func computePlan(ctx context.Context, settings *config.Settings, runner system.CommandRunner, logger *log.Logger) (*plan.Plan, error) {
	plat := platform.NewProber(logger).Probe(settings.Arch)

	st, err := state.Inspect(ctx, stateReaders(settings, runner, true)...)
	if err != nil {
		return nil, fmt.Errorf("failed to read current state: %w", err)
	}

	return plan.Compute(plan.Input{
		Settings:       settings,
		Platform:       plat,
		State:          st,
		Has:            func(exe string) bool { return system.Has(runner, exe) },
		PackageManager: deps.DetectPackageManager(runner, plat.OS, os.Geteuid() == 0),
	}), nil
}

func printPlanText(w io.Writer, pl *plan.Plan) {
	changes, unchanged, warnings := pl.Summary()

	_, _ = fmt.Fprintln(w, output.TitleStyle.Render("Planned changes"))
	_, _ = fmt.Fprintln(w, output.SubtitleStyle.Render(fmt.Sprintf("platform %s/%s", pl.Platform.OS, pl.Platform.Arch)))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable(w, "Step", "Action", "Description", "Command")
	for _, item := range pl.Items {
		tbl.AddRow(item.Step, actionLabel(item.Action), item.Description, item.Command)
	}
	tbl.Print()

	_, _ = fmt.Fprintf(w, "\n%d to change, %d unchanged, %d warnings\n", changes, unchanged, warnings)
	if changes == 0 {
		_, _ = fmt.Fprintln(w, "Already up to date. Nothing to do.")
	}
}

func printInstallText(w io.Writer, result *install.Result, settings *config.Settings) {
	_, _ = fmt.Fprintln(w, output.TitleStyle.Render("muxup install"))
	_, _ = fmt.Fprintln(w, output.SubtitleStyle.Render(fmt.Sprintf("platform %s/%s", result.Platform.OS, result.Platform.Arch)))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable(w, "", "Step", "Action", "Description")
	for _, op := range result.Operations {
		desc := op.Description
		if op.Error != "" {
			desc = fmt.Sprintf("%s: %s", desc, firstLine(op.Error))
		}
		tbl.AddRow(operationMark(op), op.Step, actionLabel(op.Action), desc)
	}
	tbl.Print()

	if result.Artifact != nil && result.Artifact.Version != "" {
		_, _ = fmt.Fprintf(w, "\nInstalled: %s\n", output.SuccessStyle.Render(result.Artifact.Version))
	}

	if len(result.Warnings) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, output.WarningStyle.Render("Warnings:"))
		for _, msg := range result.Warnings {
			_, _ = fmt.Fprintf(w, "  %s %s\n", output.MarkWarn, firstLine(msg))
		}
	}

	_, _ = fmt.Fprintln(w)
	if failed := result.Failed(); failed > 0 {
		_, _ = fmt.Fprintln(w, output.ErrorStyle.Render(fmt.Sprintf("Completed with %d failure(s), %d change(s).", failed, result.Changed())))
	} else {
		_, _ = fmt.Fprintln(w, output.SuccessStyle.Render(fmt.Sprintf("Done: %d change(s).", result.Changed())))
	}

	printNextSteps(w, result, settings)
}

func printNextSteps(w io.Writer, result *install.Result, settings *config.Settings) {
	_, _ = fmt.Fprintln(w, "\nNext steps:")
	_, _ = fmt.Fprintf(w, "  - reload the config in a running server: %s\n",
		output.CmdStyle.Render("tmux source "+settings.Paths.ConfigFile))
	_, _ = fmt.Fprintf(w, "  - install plugins from inside tmux: %s\n", output.CmdStyle.Render("prefix + I"))
	if result.Path != nil && result.Path.AppendedTo != "" {
		_, _ = fmt.Fprintf(w, "  - open a new shell (or %s) to pick up the PATH change\n",
			output.CmdStyle.Render("source "+result.Path.AppendedTo))
	}
}

func operationMark(op install.Operation) string {
	switch {
	case !op.Success:
		return output.MarkFail
	case op.Action == types.ActionWarn:
		return output.MarkWarn
	case op.Action == types.ActionSkip:
		return output.MarkSkip
	default:
		return output.MarkOK
	}
}

func actionLabel(a types.Action) string {
	if a == types.ActionNone {
		return "ok"
	}
	return string(a)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
