package shim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Launcher walks a Chain in-process: probe each strategy, run the first that
// passes as a child process and report its exit status.
type Launcher struct {
	chain  Chain
	env    []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewLauncher creates a launcher that runs children with env and the given streams.
func NewLauncher(chain Chain, env []string, stdin io.Reader, stdout, stderr io.Writer) *Launcher {
	return &Launcher{chain: chain, env: env, stdin: stdin, stdout: stdout, stderr: stderr}
}

// Probe reports whether s can be used.
func (l *Launcher) Probe(ctx context.Context, s Strategy) error {
	if err := isExecutable(s.Binary); err != nil {
		return err
	}
	if len(s.ProbeArgs) == 0 {
		return nil
	}

	if l.chain.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.chain.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.Binary, s.ProbeArgs...)
	cmd.Env = append(append([]string{}, l.env...), s.Env...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("probe timed out after %s", l.chain.Timeout)
		}
		return err
	}
	return nil
}

// Select returns the first strategy whose probe passes.
func (l *Launcher) Select(ctx context.Context) (*Strategy, error) {
	for i := range l.chain.Strategies {
		s := l.chain.Strategies[i]
		if err := l.Probe(ctx, s); err == nil {
			return &s, nil
		}
	}
	return nil, ErrNoStrategy
}

// Run starts the selected strategy with args and returns its exit status.
// When no strategy works it prints the chain's failure message and returns
// ExitNoStrategy with ErrNoStrategy.
func (l *Launcher) Run(ctx context.Context, args []string) (int, error) {
	s, err := l.Select(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(l.stderr, l.chain.Failure)
		return ExitNoStrategy, err
	}

	if s.Warning != "" {
		_, _ = fmt.Fprintln(l.stderr, s.Warning)
	}

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Env = append(append([]string{}, l.env...), s.Env...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitCode(exitErr), nil
		}
		return 1, fmt.Errorf("failed to run %s: %w", s.Binary, err)
	}
	return 0, nil
}

// exitCode follows the shell convention of 128+n for a child killed by signal n.
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

func isExecutable(path string) error {
	if path == "" {
		return errors.New("no binary configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
