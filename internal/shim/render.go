package shim

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"
)

var scriptTemplate = template.Must(template.New("shim").Parse(`#!/bin/sh
# Generated by muxup. Rewritten on every install; local edits are lost.

probe() {
	if command -v timeout >/dev/null 2>&1; then
		timeout {{.TimeoutSeconds}} "$@" >/dev/null 2>&1 </dev/null
		return
	fi
	# No timeout(1) (stock macOS): run in the background under a watchdog.
	"$@" >/dev/null 2>&1 </dev/null &
	muxup_pid=$!
	( sleep {{.TimeoutSeconds}}; kill -9 "$muxup_pid" ) >/dev/null 2>&1 &
	muxup_watchdog=$!
	wait "$muxup_pid"
	muxup_status=$?
	kill "$muxup_watchdog" >/dev/null 2>&1
	return "$muxup_status"
}
{{range .Strategies}}
# {{.Name}}
if [ -x {{.Binary}} ]{{if .ProbeArgs}} && probe {{.EnvPrefix}}{{.Binary}} {{.ProbeArgs}}{{end}}; then
{{- if .Warning}}
	printf '%s\n' {{.Warning}} >&2
{{- end}}
	exec {{.EnvPrefix}}{{.Binary}} "$@"
fi
{{end}}
printf '%s\n' {{.Failure}} >&2
exit {{.ExitCode}}
`))

type scriptStrategy struct {
	Name      string
	Binary    string
	EnvPrefix string
	ProbeArgs string
	Warning   string
}

type scriptData struct {
	Strategies     []scriptStrategy
	TimeoutSeconds int
	Failure        string
	ExitCode       int
}

// Render produces the POSIX sh wrapper for chain. The result is parsed back
// before it is returned, so a quoting mistake surfaces here and not when the
// user starts tmux.
func Render(chain Chain) ([]byte, error) {
	data := scriptData{
		TimeoutSeconds: int(math.Max(1, math.Ceil(chain.Timeout.Seconds()))),
		ExitCode:       ExitNoStrategy,
	}

	var err error
	if data.Failure, err = quote(chain.Failure); err != nil {
		return nil, err
	}

	for _, s := range chain.Strategies {
		ss := scriptStrategy{Name: strings.Join(strings.Fields(s.Name), " ")}
		if ss.Binary, err = quote(s.Binary); err != nil {
			return nil, err
		}
		if ss.ProbeArgs, err = quoteAll(s.ProbeArgs); err != nil {
			return nil, err
		}
		if len(s.Env) > 0 {
			env, err := quoteAll(s.Env)
			if err != nil {
				return nil, err
			}
			ss.EnvPrefix = "env " + env + " "
		}
		if s.Warning != "" {
			if ss.Warning, err = quote(s.Warning); err != nil {
				return nil, err
			}
		}
		data.Strategies = append(data.Strategies, ss)
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render shim: %w", err)
	}

	if err := Validate(buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate parses script as POSIX shell.
func Validate(script []byte) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(bytes.NewReader(script), "shim"); err != nil {
		return fmt.Errorf("generated shim is not valid sh: %w", err)
	}
	return nil
}

func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q for sh: %w", s, err)
	}
	return q, nil
}

func quoteAll(words []string) (string, error) {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		q, err := quote(w)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}
