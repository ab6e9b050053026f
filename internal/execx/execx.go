// Package execx holds the shared subprocess helpers used by the apt and
// systemd adapters.
package execx

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/meshup-dev/meshup/internal/errdefs"
)

// DefaultTimeout bounds a single external command when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 10 * time.Minute

func withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

// CommandExists reports whether bin is resolvable on PATH.
func CommandExists(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// Run executes bin with args and captures output. A non-zero exit is
// returned as *errdefs.SubprocessError so callers can surface the external
// tool's own message.
func Run(ctx context.Context, bin string, args ...string) (string, string, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return out.String(), errBuf.String(), &errdefs.SubprocessError{
				Cmd:      bin,
				ExitCode: ee.ExitCode(),
				Stderr:   errBuf.String(),
			}
		}
		if _, lookErr := exec.LookPath(bin); lookErr != nil {
			return out.String(), errBuf.String(), errdefs.MissingDependency(bin)
		}
		return out.String(), errBuf.String(), err
	}
	return out.String(), errBuf.String(), nil
}

// RunEnv is Run with extra environment entries appended to the inherited
// environment.
func RunEnv(ctx context.Context, env []string, bin string, args ...string) (string, string, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return out.String(), errBuf.String(), &errdefs.SubprocessError{
				Cmd:      bin,
				ExitCode: ee.ExitCode(),
				Stderr:   errBuf.String(),
			}
		}
		return out.String(), errBuf.String(), err
	}
	return out.String(), errBuf.String(), nil
}

// Interactive hands the terminal to bin until it exits. Used for editor and
// shell sessions.
func Interactive(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return &errdefs.SubprocessError{Cmd: bin, ExitCode: ee.ExitCode()}
		}
		return err
	}
	return nil
}
