// Package output renders command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted --output values.
var Formats = []string{string(FormatText), string(FormatJSON), string(FormatYAML)}

// ParseFormat maps an --output value to a Format. "yml" is accepted as YAML.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want one of text, json, yaml)", s)
}

// Writer renders results to a stream in one format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter returns a Writer for format on w.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// IsText reports whether human-readable output was requested.
func (w *Writer) IsText() bool {
	return w.format == FormatText || w.format == ""
}

// Render calls text for the text format and encodes v otherwise.
func (w *Writer) Render(v any, text func(io.Writer) error) error {
	if w.IsText() && text != nil {
		return text(w.w)
	}
	return w.Write(v)
}

// Write encodes v in the configured format. Text falls back to fmt.Stringer
// or %+v.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		return encodeJSON(w.w, v)
	case FormatYAML:
		return encodeYAML(w.w, v)
	}

	if s, ok := v.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(w.w, s.String())
		return err
	}
	_, err := fmt.Fprintf(w.w, "%+v\n", v)
	return err
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
