package shim

import (
	"fmt"

	"github.com/adamancini/muxup/internal/fsutil"
)

// WriteFile renders chain and installs it at path with mode 0755.
func WriteFile(path string, chain Chain) error {
	script, err := Render(chain)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, script, 0755); err != nil {
		return fmt.Errorf("failed to install shim: %w", err)
	}
	return nil
}
