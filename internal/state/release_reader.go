package state

import (
	"context"

	"github.com/adamancini/muxup/internal/artifact"
)

// ReleaseReader compares the installed tmux with the latest release. It
// expects Version to be filled already and records lookup failures in
// LatestError.
type ReleaseReader struct {
	Fetcher artifact.Fetcher
}

// Read implements Reader.
func (r *ReleaseReader) Read(ctx context.Context, st *State) error {
	var installed *artifact.Version
	if st.Version != "" {
		installed, _ = artifact.ParseTag(st.Version)
	}

	latest, err := artifact.CheckLatest(ctx, r.Fetcher, installed)
	if err != nil {
		st.LatestError = err.Error()
		return nil
	}
	st.Latest = latest
	return nil
}
