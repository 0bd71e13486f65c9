package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/git"
	"github.com/adamancini/muxup/internal/install"
	"github.com/adamancini/muxup/internal/output"
	"github.com/adamancini/muxup/internal/state"
	"github.com/adamancini/muxup/internal/system"
)

func newStatusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is installed",
		Long: `Status shows the AppImage, shim and config file, the backups, the tpm checkout
and its git status, PATH registration, terminfo and the installed tmux version.

Nothing is changed. Unless --offline is given, the tpm checkout is fetched to
compare it with its remote and the latest tmux release is looked up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the plugin manager fetch and the release lookup")

	return cmd
}

// stateReaders returns the filesystem reader followed by the command reader.
func stateReaders(settings *config.Settings, runner system.CommandRunner, offline bool) []state.Reader {
	checker := git.NewCheckerWithRunner(runner)
	checker.SetOffline(offline)
	return []state.Reader{
		state.NewFilesystemReader(settings),
		&state.CLIReader{Runner: runner, Checker: checker, Timeout: settings.ProbeTimeout},
	}
}

func runStatus(cmd *cobra.Command, offline bool) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	readers := stateReaders(settings, &system.DefaultCommandRunner{}, offline)
	if !offline {
		readers = append(readers, &state.ReleaseReader{Fetcher: install.ReleaseClient(settings)})
	}

	st, err := state.Inspect(cmd.Context(), readers...)
	if err != nil {
		return fmt.Errorf("failed to read current state: %w", err)
	}

	return writer.Render(st, func(w io.Writer) error {
		printStatusText(w, st)
		return nil
	})
}

func printStatusText(w io.Writer, st *state.State) {
	_, _ = fmt.Fprintln(w, output.TitleStyle.Render("muxup status"))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable(w, "", "Item", "Path", "Details")

	tbl.AddRow(fileMark(st.Artifact), "appimage", st.Artifact.Path, fileDetails(st.Artifact))
	tbl.AddRow(fileMark(st.Shim), "shim", st.Shim.Path, versionDetails(st))
	tbl.AddRow(fileMark(st.Config), "config", st.Config.Path, fmt.Sprintf("%s, %d backup(s)", fileDetails(st.Config), st.Backups))

	pm := st.PluginManager
	switch {
	case !pm.Checkout:
		tbl.AddRow(output.MarkFail, "plugin manager", pm.Dir, "not cloned")
	case pm.Git == nil:
		tbl.AddRow(output.MarkOK, "plugin manager", pm.Dir, "cloned")
	default:
		tbl.AddRow(levelMark(pm.Git.Level), "plugin manager", pm.Dir, pm.Git.Message)
	}

	switch {
	case st.Path.RegisteredIn != "":
		tbl.AddRow(output.MarkOK, "PATH", st.Path.Dir, "registered in "+st.Path.RegisteredIn)
	case st.Path.InProcess:
		tbl.AddRow(output.MarkWarn, "PATH", st.Path.Dir, "in PATH but not in any startup file")
	default:
		tbl.AddRow(output.MarkFail, "PATH", st.Path.Dir, "not registered")
	}

	if st.Terminfo {
		tbl.AddRow(output.MarkOK, "terminfo", "tmux-256color", "present")
	} else {
		tbl.AddRow(output.MarkFail, "terminfo", "tmux-256color", "missing")
	}

	switch {
	case st.Latest != nil && st.Latest.Newer:
		tbl.AddRow(output.MarkWarn, "latest release", st.Latest.Latest, "newer than installed (run: muxup install --force)")
	case st.Latest != nil:
		tbl.AddRow(output.MarkOK, "latest release", st.Latest.Latest, "installed is current")
	case st.LatestError != "":
		tbl.AddRow(output.MarkWarn, "latest release", "", "lookup failed: "+firstLine(st.LatestError))
	}

	tbl.Print()

	if g := pm.Git; g != nil && g.Behind > 0 {
		if g.CanFastForward() {
			_, _ = fmt.Fprintf(w, "\ntpm is %d commit(s) behind; muxup install will fast-forward it.\n", g.Behind)
		} else {
			_, _ = fmt.Fprintf(w, "\ntpm is %d commit(s) behind and cannot be fast-forwarded; muxup install will leave it as is.\n", g.Behind)
		}
	}

	if st.LatestBackup != "" {
		_, _ = fmt.Fprintf(w, "\nLatest backup: %s\n", st.LatestBackup)
	}
	if !st.Shim.Exists {
		_, _ = fmt.Fprintf(w, "\nRun %s to set things up.\n", output.CmdStyle.Render("muxup install"))
	}
}

func fileMark(fs state.FileState) string {
	if fs.Exists {
		return output.MarkOK
	}
	return output.MarkFail
}

func fileDetails(fs state.FileState) string {
	if !fs.Exists {
		return "missing"
	}
	return fmt.Sprintf("%s, modified %s", output.FormatSize(fs.Size), fs.ModTime.Format(time.DateTime))
}

func versionDetails(st *state.State) string {
	switch {
	case !st.Shim.Exists:
		return "missing"
	case st.Version != "":
		return st.Version
	case st.VersionError != "":
		return "version unknown: " + firstLine(st.VersionError)
	default:
		return "present"
	}
}

func levelMark(level git.Level) string {
	switch level {
	case git.LevelOK, git.LevelInfo:
		return output.MarkOK
	case git.LevelWarning:
		return output.MarkWarn
	default:
		return output.MarkFail
	}
}
