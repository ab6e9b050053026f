package ops

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/logging"
	"github.com/meshup-dev/meshup/internal/meshcfg"
)

func fakeBin(t *testing.T, dir, bin, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fakes require a unix shell")
	}
	if err := os.WriteFile(filepath.Join(dir, bin), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

// newTestManager pins every adapter to temp roots and a fake PATH so no test
// touches the real system.
func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	sysRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sysRoot, "etc"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sysRoot, "etc/os-release"), []byte("ID=debian\nVERSION_ID=\"12\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m.Apt = &aptpkg.Adapter{Root: sysRoot}
	m.HW = &hardware.Detector{Root: t.TempDir()}
	m.Conf = meshcfg.Open(t.TempDir())

	bins := t.TempDir()
	fakeBin(t, bins, "apt-get", "exit 0")
	fakeBin(t, bins, "dpkg-query", "printf '2.5.11-1'")
	fakeBin(t, bins, "systemctl", `case "$1" in
is-active) echo active ;;
is-enabled) echo enabled ;;
*) exit 0 ;;
esac`)
	fakeBin(t, bins, "journalctl", "printf 'daemon line\\n'")
	t.Setenv("PATH", bins)
	return m
}

func TestCheckHealthySystem(t *testing.T) {
	m := newTestManager(t)
	report := m.Check(context.Background())

	if report.Failed() {
		t.Fatalf("healthy fake system should not fail: %+v", report.Checks)
	}
	byName := map[string]Check{}
	for _, c := range report.Checks {
		byName[c.Name] = c
	}
	for _, name := range []string{"os", "apt", "package", "service", "config"} {
		c, ok := byName[name]
		if !ok {
			t.Fatalf("check %q missing from report", name)
		}
		if c.Status != StatusPass {
			t.Errorf("check %q = %s (%s), want pass", name, c.Status, c.Detail)
		}
	}
	if byName["repository"].Status != StatusWarn {
		t.Errorf("repository check should warn before any install, got %+v", byName["repository"])
	}
}

func TestCheckFailsWithoutApt(t *testing.T) {
	m := newTestManager(t)
	t.Setenv("PATH", t.TempDir())

	report := m.Check(context.Background())
	if !report.Failed() {
		t.Fatal("missing apt-get should fail the report")
	}
}

func TestDebugReportContainsSections(t *testing.T) {
	m := newTestManager(t)
	out := m.DebugReport(context.Background())
	for _, want := range []string{"== host ==", "== hardware ==", "== checks ==", "== config ==", "== daemon log =="} {
		if !strings.Contains(out, want) {
			t.Errorf("debug report missing %q", want)
		}
	}
	if !strings.Contains(out, "daemon line") {
		t.Error("debug report should include journal tail")
	}
}

func TestServiceStatusNeedsNoRoot(t *testing.T) {
	m := newTestManager(t)
	st, err := m.Service(context.Background(), "status")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Active {
		t.Fatalf("status = %+v, want active", st)
	}
}

func TestServiceRejectsUnknownAction(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Service(context.Background(), "explode"); err == nil {
		t.Fatal("expected invalid action error")
	}
}

func TestBackupAndHistory(t *testing.T) {
	m := newTestManager(t)
	if err := os.WriteFile(m.Conf.ConfigPath(), []byte("Lora:\n  Region: EU_868\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := m.BackupConfig()
	if err != nil {
		t.Fatal(err)
	}
	list, err := m.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("ListBackups = %+v, want the one snapshot", list)
	}

	recs, err := m.History(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("fresh journal should be empty, got %d records", len(recs))
	}
}

func TestTailLogs(t *testing.T) {
	m := newTestManager(t)
	lines, err := m.TailLogs(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "daemon line" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestJournalRecordsFrontend(t *testing.T) {
	m := newTestManager(t)
	m.Frontend = "tui"

	rec := m.begin("install", "beta")
	if err := m.complete(rec, "", nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	recs, err := m.History(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("History = %d records, want 1", len(recs))
	}
	if recs[0].Frontend != "tui" {
		t.Fatalf("Frontend = %q, want tui", recs[0].Frontend)
	}
}
