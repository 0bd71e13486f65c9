// Package state takes a snapshot of what a previous install left on disk.
package state

import (
	"context"
	"time"

	"github.com/adamancini/muxup/internal/artifact"
	"github.com/adamancini/muxup/internal/git"
)

// State is the installed state of muxup's managed files.
type State struct {
	Artifact FileState `json:"artifact" yaml:"artifact"`
	Shim     FileState `json:"shim" yaml:"shim"`
	Config   FileState `json:"config" yaml:"config"`

	Backups      int    `json:"backups" yaml:"backups"`
	LatestBackup string `json:"latest_backup,omitempty" yaml:"latest_backup,omitempty"`

	PluginManager PluginManagerState `json:"plugin_manager" yaml:"plugin_manager"`
	Path          PathState          `json:"path" yaml:"path"`

	// Filled by CLIReader.
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	VersionError string `json:"version_error,omitempty" yaml:"version_error,omitempty"`
	Terminfo     bool   `json:"terminfo" yaml:"terminfo"`

	// Filled by ReleaseReader.
	Latest      *artifact.Availability `json:"latest,omitempty" yaml:"latest,omitempty"`
	LatestError string                 `json:"latest_error,omitempty" yaml:"latest_error,omitempty"`
}

// FileState describes one managed file.
type FileState struct {
	Path       string    `json:"path" yaml:"path"`
	Exists     bool      `json:"exists" yaml:"exists"`
	Executable bool      `json:"executable,omitempty" yaml:"executable,omitempty"`
	Size       int64     `json:"size,omitempty" yaml:"size,omitempty"`
	ModTime    time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
}

// PluginManagerState describes the plugin-manager checkout.
type PluginManagerState struct {
	Dir      string      `json:"dir" yaml:"dir"`
	Checkout bool        `json:"checkout" yaml:"checkout"`
	Git      *git.Status `json:"git,omitempty" yaml:"git,omitempty"`
}

// PathState describes the local bin directory's PATH registration.
type PathState struct {
	Dir          string `json:"dir" yaml:"dir"`
	InProcess    bool   `json:"in_process" yaml:"in_process"`
	RegisteredIn string `json:"registered_in,omitempty" yaml:"registered_in,omitempty"`
}

// Reader fills in part of a State.
type Reader interface {
	Read(ctx context.Context, st *State) error
}

// Inspect runs the readers in order on a fresh State.
func Inspect(ctx context.Context, readers ...Reader) (*State, error) {
	st := &State{}
	for _, r := range readers {
		if err := r.Read(ctx, st); err != nil {
			return st, err
		}
	}
	return st, nil
}
