package plain

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/logging"
	"github.com/meshup-dev/meshup/internal/ops"
)

func newTestLauncher(t *testing.T, input string) (*Launcher, *bytes.Buffer) {
	t.Helper()
	mgr, err := ops.New(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	mgr.HW = &hardware.Detector{Root: t.TempDir()}

	out := &bytes.Buffer{}
	return &Launcher{Mgr: mgr, In: strings.NewReader(input), Out: out}, out
}

func TestRunExitsCleanlyOnEOF(t *testing.T) {
	l, _ := newTestLauncher(t, "")
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() on closed stdin = %v, want nil", err)
	}
}

func TestRunQuit(t *testing.T) {
	l, out := newTestLauncher(t, "quit\n")
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "meshup") {
		t.Fatalf("banner missing from output: %q", out.String())
	}
}

func TestHardwareMenuEntry(t *testing.T) {
	l, out := newTestLauncher(t, "hardware\nquit\n")
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "spi enabled") {
		t.Fatalf("hardware output missing: %q", out.String())
	}
}

func TestLauncherKind(t *testing.T) {
	l, _ := newTestLauncher(t, "")
	if l.Kind() != frontend.KindPlain {
		t.Fatalf("Kind() = %q", l.Kind())
	}
}

func TestPromptChoiceRejectsThenAccepts(t *testing.T) {
	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader("bogus\nbeta\n"))
	got, err := promptChoice(reader, out, "Channel", []string{"stable", "beta"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "beta" {
		t.Fatalf("got %q, want beta", got)
	}
	if !strings.Contains(out.String(), "Invalid choice") {
		t.Fatal("invalid input should be called out")
	}
}

func TestPromptStringDefault(t *testing.T) {
	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader("\n"))
	got, err := promptString(reader, out, "Port", "/dev/ttyUSB0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/dev/ttyUSB0" {
		t.Fatalf("got %q, want default", got)
	}
}

func TestPromptStringEOFWithoutDefault(t *testing.T) {
	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader(""))
	if _, err := promptString(reader, out, "Port", ""); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestRunStopsAfterInputExhausted(t *testing.T) {
	l, out := newTestLauncher(t, "hardware\n")
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := strings.Count(out.String(), "spi enabled"); got != 1 {
		t.Fatalf("hardware dispatched %d times, want exactly once", got)
	}
}

func TestPromptStringDefaultSignalsEOF(t *testing.T) {
	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader(""))
	got, err := promptString(reader, out, "Port", "/dev/ttyUSB0")
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if got != "/dev/ttyUSB0" {
		t.Fatalf("got %q, want the default alongside io.EOF", got)
	}
}

func TestPromptStringFinalUnterminatedLine(t *testing.T) {
	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader("beta"))
	got, err := promptString(reader, out, "Channel", "stable")
	if err != nil {
		t.Fatal(err)
	}
	if got != "beta" {
		t.Fatalf("got %q, want beta", got)
	}
}
