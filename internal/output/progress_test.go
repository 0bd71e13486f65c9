package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.bytes), "FormatSize(%d)", tt.bytes)
	}
}

func TestProgressRedrawsOnPercentChange(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, "tmux.appimage")

	progress(0, 1000)
	progress(1, 1000) // still 0%
	progress(500, 1000)
	progress(1000, 1000)
	progress(1000, 1000)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r"), "one redraw per distinct percentage")
	assert.Contains(t, out, "(50%)")
	assert.Contains(t, out, "(100%)")
	assert.True(t, strings.HasSuffix(out, "\n"), "finished line ends with a newline")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestProgressUnknownSize(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, "tmux.appimage")

	progress(0, -1)
	progress(512, -1)
	progress(2<<20, -1)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r"))
	assert.Contains(t, out, "2.0 MB")
	assert.NotContains(t, out, "%")
}
