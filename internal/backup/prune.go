package backup

import (
	"errors"
	"fmt"
	"os"
)

// DefaultKeepCount is how many config backups `muxup backup prune` leaves.
const DefaultKeepCount = 30

// PruneResult lists the backups removed by Prune. Failed holds IDs that could
// not be removed; they still count as kept.
type PruneResult struct {
	Deleted []Backup `json:"deleted" yaml:"deleted"`
	Failed  []string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Kept    int      `json:"kept" yaml:"kept"`
}

// Prune removes all but the newest keep backups. A backup that cannot be
// removed does not stop the others; the joined errors are returned with the
// partial result.
func (m *Manager) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative, got %d", keep)
	}

	backups, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{Kept: min(keep, len(backups))}
	if len(backups) <= keep {
		return result, nil
	}

	var errs []error
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			result.Failed = append(result.Failed, b.ID)
			result.Kept++
			errs = append(errs, fmt.Errorf("backup %s: %w", b.ID, err))
			continue
		}
		result.Deleted = append(result.Deleted, b)
	}

	return result, errors.Join(errs...)
}
