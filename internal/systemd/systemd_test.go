package systemd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func fakeBin(t *testing.T, bin, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fakes require a unix shell")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, bin), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestStatusActiveEnabled(t *testing.T) {
	fakeBin(t, "systemctl", `case "$1" in
is-active) echo active ;;
is-enabled) echo enabled ;;
esac`)

	st, err := New().Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Active || !st.Enabled || st.State != "active" {
		t.Fatalf("status = %+v, want active+enabled", st)
	}
}

func TestStatusInactiveIsNotAnError(t *testing.T) {
	// is-active exits 3 for inactive units; that is a state, not a failure.
	fakeBin(t, "systemctl", `case "$1" in
is-active) echo inactive; exit 3 ;;
is-enabled) echo disabled; exit 1 ;;
esac`)

	st, err := New().Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Active || st.Enabled {
		t.Fatalf("status = %+v, want inactive+disabled", st)
	}
	if st.State != "inactive" {
		t.Fatalf("state = %q, want inactive", st.State)
	}
}

func TestTail(t *testing.T) {
	fakeBin(t, "journalctl", `printf 'line one\nline two\n'`)

	lines, err := New().Tail(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "line one" || lines[1] != "line two" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestFollowStripsCursorAndStopsOnCancel(t *testing.T) {
	// Every poll returns one log line plus a cursor trailer.
	fakeBin(t, "journalctl", `printf 'radio up\n-- cursor: s=abc;i=1\n'`)

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	errc := make(chan error, 1)
	go func() {
		errc <- New().Follow(ctx, 10*time.Millisecond, func(line string) {
			got = append(got, line)
			if len(got) >= 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("Follow returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}
	if len(got) < 3 {
		t.Fatalf("got %d lines, want at least 3", len(got))
	}
	for _, l := range got {
		if strings.Contains(l, "cursor") {
			t.Fatalf("cursor trailer leaked into output: %q", l)
		}
		if l != "radio up" {
			t.Fatalf("unexpected line %q", l)
		}
	}
}
