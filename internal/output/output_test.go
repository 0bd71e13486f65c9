package output

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func (s sample) String() string { return s.Name }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriterFormats(t *testing.T) {
	v := sample{Name: "tmux", Count: 2}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON).Write(v))
	assert.JSONEq(t, `{"name":"tmux","count":2}`, buf.String())

	buf.Reset()
	require.NoError(t, NewWriter(&buf, FormatYAML).Write(v))
	assert.Equal(t, "name: tmux\ncount: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, NewWriter(&buf, FormatText).Write(v))
	assert.Equal(t, "tmux\n", buf.String())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	called := false
	text := func(w io.Writer) error {
		called = true
		_, err := io.WriteString(w, "pretty\n")
		return err
	}

	require.NoError(t, NewWriter(&buf, FormatText).Render(sample{}, text))
	assert.True(t, called)
	assert.Equal(t, "pretty\n", buf.String())

	called = false
	buf.Reset()
	require.NoError(t, NewWriter(&buf, FormatJSON).Render(sample{Name: "x"}, text))
	assert.False(t, called)
	assert.Contains(t, buf.String(), `"name": "x"`)
}

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, log.InfoLevel, NewLogger(io.Discard, false, false).GetLevel())
	assert.Equal(t, log.DebugLevel, NewLogger(io.Discard, true, false).GetLevel())
	assert.Equal(t, log.ErrorLevel, NewLogger(io.Discard, true, true).GetLevel())
}

func TestNewLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false, false).Info("hello")
	assert.True(t, strings.Contains(buf.String(), "muxup"))
	assert.Contains(t, buf.String(), "hello")
}

func TestNewTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ID", "PATH")
	tbl.AddRow("1700000000", "/home/u/.tmux.conf.bak.1700000000")
	tbl.Print()

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "/home/u/.tmux.conf.bak.1700000000")
}
