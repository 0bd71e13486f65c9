package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/muxup/internal/backup"
	"github.com/adamancini/muxup/internal/interactive"
	"github.com/adamancini/muxup/internal/output"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "List, restore, delete and prune tmux.conf backups",
		Long: `Backup manages the copies install makes before replacing ~/.tmux.conf.

Backups sit next to the file as ~/.tmux.conf.bak.<unix-epoch-seconds>; the
epoch is the backup ID.`,
	}

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDeleteCmd())
	cmd.AddCommand(newBackupPruneCmd())

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		Long:  `List displays all backups, newest first, with their creation time and size.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupList(cmd)
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <id|latest>",
		Short: "Restore from a backup",
		Long: `Restore copies a backup over ~/.tmux.conf.

Use 'latest' as the ID to restore the most recent backup. The current file is
backed up first, so a restore can itself be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupRestore(cmd, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func newBackupDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id|latest>",
		Short: "Delete one backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupDelete(cmd, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func newBackupPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old backups",
		Long: `Prune deletes old backups, keeping only the most recent N backups.

By default, keeps the 30 most recent backups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupPrune(cmd, keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", backup.DefaultKeepCount, "Number of backups to keep")

	return cmd
}

func backupManager(cmd *cobra.Command) (*backup.Manager, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(settings.Paths.ConfigFile), nil
}

// runBackupList lists all backups.
func runBackupList(cmd *cobra.Command) error {
	manager, err := backupManager(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	backups, err := manager.List()
	if err != nil {
		return err
	}
	if backups == nil {
		backups = []backup.Backup{}
	}

	return writer.Render(backups, func(w io.Writer) error {
		if len(backups) == 0 {
			_, _ = fmt.Fprintf(w, "No backups of %s found.\n", manager.Target())
			return nil
		}

		_, _ = fmt.Fprintf(w, "Backups of %s:\n\n", manager.Target())
		tbl := output.NewTable(w, "ID", "Created", "Size", "Path")
		for _, b := range backups {
			tbl.AddRow(b.ID, b.CreatedAt.Format(time.DateTime), output.FormatSize(b.Size), b.Path)
		}
		tbl.Print()
		return nil
	})
}

// runBackupRestore restores from a backup.
func runBackupRestore(cmd *cobra.Command, id string, skipConfirm bool) error {
	manager, err := backupManager(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	bak, err := manager.Get(id)
	if err != nil {
		return err
	}

	if !skipConfirm && interactive.IsTerminal() {
		out := cmd.ErrOrStderr()
		_, _ = fmt.Fprintf(out, "Restoring from backup: %s\n", bak.ID)
		_, _ = fmt.Fprintf(out, "Created: %s\n", bak.CreatedAt.Format(time.DateTime))
		prompter := interactive.NewPrompterWithIO(cmd.InOrStdin(), out)
		if !prompter.Confirm("Replace %s?", manager.Target()) {
			_, _ = fmt.Fprintln(out, "Restore cancelled.")
			return nil
		}
	}

	restored, saved, err := manager.Restore(bak.ID)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	result := struct {
		Restored *backup.Backup `json:"restored" yaml:"restored"`
		Saved    *backup.Backup `json:"saved,omitempty" yaml:"saved,omitempty"`
		Target   string         `json:"target" yaml:"target"`
	}{restored, saved, manager.Target()}

	return writer.Render(result, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "%s Restored %s from %s\n", output.MarkOK, manager.Target(), restored.Path)
		if saved != nil {
			_, _ = fmt.Fprintf(w, "Previous file saved as %s\n", saved.Path)
		}
		return nil
	})
}

// runBackupDelete removes a single backup.
func runBackupDelete(cmd *cobra.Command, id string, skipConfirm bool) error {
	manager, err := backupManager(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	bak, err := manager.Get(id)
	if err != nil {
		return err
	}

	if !skipConfirm && interactive.IsTerminal() {
		prompter := interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.ErrOrStderr())
		if !prompter.Confirm("Delete backup %s (%s)?", bak.ID, bak.CreatedAt.Format(time.DateTime)) {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Delete cancelled.")
			return nil
		}
	}

	if err := manager.Delete(bak.ID); err != nil {
		return err
	}

	return writer.Render(bak, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "%s Deleted %s\n", output.MarkOK, bak.Path)
		return nil
	})
}

// runBackupPrune removes old backups.
func runBackupPrune(cmd *cobra.Command, keep int) error {
	manager, err := backupManager(cmd)
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd)
	if err != nil {
		return err
	}

	result, pruneErr := manager.Prune(keep)
	if result == nil {
		return pruneErr
	}

	err = writer.Render(result, func(w io.Writer) error {
		if len(result.Deleted) == 0 && len(result.Failed) == 0 {
			_, _ = fmt.Fprintf(w, "No backups to prune. Keeping %d backups.\n", result.Kept)
			return nil
		}

		_, _ = fmt.Fprintf(w, "Pruned %d backup(s), keeping %d:\n", len(result.Deleted), result.Kept)
		for _, b := range result.Deleted {
			_, _ = fmt.Fprintf(w, "  - %s (%s)\n", b.ID, b.CreatedAt.Format(time.DateTime))
		}
		for _, id := range result.Failed {
			_, _ = fmt.Fprintf(w, "  %s %s could not be removed\n", output.MarkFail, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return pruneErr
}
