package state

import (
	"context"
	"fmt"
	"os"

	"github.com/adamancini/muxup/internal/backup"
	"github.com/adamancini/muxup/internal/config"
	"github.com/adamancini/muxup/internal/git"
	"github.com/adamancini/muxup/internal/pathreg"
)

// FilesystemReader reads state directly from the managed paths.
type FilesystemReader struct {
	Paths     config.Paths
	Registrar *pathreg.Registrar
}

// NewFilesystemReader creates a reader for the given settings.
func NewFilesystemReader(s *config.Settings) *FilesystemReader {
	return &FilesystemReader{
		Paths:     s.Paths,
		Registrar: pathreg.NewRegistrar(s.Paths.LocalBin, s.Paths.Home, s.Paths.RCFiles, s.Shell),
	}
}

// Read implements Reader using filesystem access.
func (r *FilesystemReader) Read(_ context.Context, st *State) error {
	var err error
	if st.Artifact, err = statFile(r.Paths.Artifact); err != nil {
		return err
	}
	if st.Shim, err = statFile(r.Paths.Shim); err != nil {
		return err
	}
	if st.Config, err = statFile(r.Paths.ConfigFile); err != nil {
		return err
	}

	backups, err := backup.NewManager(r.Paths.ConfigFile).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	st.Backups = len(backups)
	if len(backups) > 0 {
		st.LatestBackup = backups[0].Path
	}

	st.PluginManager = PluginManagerState{
		Dir:      r.Paths.PluginDir,
		Checkout: git.IsCheckout(r.Paths.PluginDir),
	}

	st.Path = PathState{Dir: r.Paths.LocalBin}
	if r.Registrar != nil {
		st.Path.InProcess = r.Registrar.InProcessPath()
		st.Path.RegisteredIn = r.Registrar.RegisteredIn()
	}

	return nil
}

func statFile(path string) (FileState, error) {
	fs := FileState{Path: path}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return fs, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fs, fmt.Errorf("%s is a directory", path)
	}

	fs.Exists = true
	fs.Executable = info.Mode().Perm()&0111 != 0
	fs.Size = info.Size()
	fs.ModTime = info.ModTime()
	return fs, nil
}
