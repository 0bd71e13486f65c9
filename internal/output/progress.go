package output

import (
	"fmt"
	"io"
	"sync"
)

// FormatSize formats a byte size as a human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// NewProgress returns a download progress callback that redraws one line on
// w. The line is redrawn when the percentage changes (or every MiB when the
// size is unknown) and finished with a newline once total bytes arrived.
func NewProgress(w io.Writer, label string) func(downloaded, total int64) {
	var (
		mu   sync.Mutex
		last int64 = -1
		done bool
	)

	return func(downloaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}

		var mark int64
		var line string
		if total > 0 {
			mark = downloaded * 100 / total
			line = fmt.Sprintf("%s %s / %s (%d%%)", label, FormatSize(downloaded), FormatSize(total), mark)
		} else {
			mark = downloaded >> 20
			line = fmt.Sprintf("%s %s", label, FormatSize(downloaded))
		}
		if mark == last {
			return
		}
		last = mark

		_, _ = fmt.Fprintf(w, "\r\033[K%s", SubtitleStyle.Render(line))
		if total > 0 && downloaded >= total {
			done = true
			_, _ = fmt.Fprintln(w)
		}
	}
}
