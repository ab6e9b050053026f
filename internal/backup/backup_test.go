package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConf(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config.d"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("Lora:\n  Region: EU_868\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "config.d", "lora-usb.yaml"), []byte("Lora:\n  Port: /dev/ttyUSB0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestCreateLoadRoundTrip(t *testing.T) {
	conf := writeConf(t)
	out := t.TempDir()

	b, err := Create(conf, out)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(b.Files) != 2 {
		t.Fatalf("manifest has %d files, want 2", len(b.Files))
	}
	if _, err := Load(b.Path); err != nil {
		t.Fatalf("Load() should succeed before tamper: %v", err)
	}
}

func TestLoadDetectsTamper(t *testing.T) {
	conf := writeConf(t)
	out := t.TempDir()

	b, err := Create(conf, out)
	if err != nil {
		t.Fatal(err)
	}
	payload := filepath.Join(b.Path, "payload", "config.yaml")
	if err := os.WriteFile(payload, []byte("Lora:\n  Region: US\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(b.Path)
	if err == nil {
		t.Fatal("expected digest mismatch error")
	}
	if !strings.Contains(err.Error(), "backup digest mismatch for config.yaml") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsPathTraversalInManifest(t *testing.T) {
	conf := writeConf(t)
	out := t.TempDir()

	b, err := Create(conf, out)
	if err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(b.Path, "manifest.json")
	raw, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	evil := strings.Replace(string(raw), "config.yaml", "../../etc/passwd", 1)
	if err := os.WriteFile(manifest, []byte(evil), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(b.Path)
	if err == nil || !strings.Contains(err.Error(), "escapes backup root") {
		t.Fatalf("expected traversal rejection, got %v", err)
	}
}

func TestRestoreWritesFilesBack(t *testing.T) {
	conf := writeConf(t)
	out := t.TempDir()

	b, err := Create(conf, out)
	if err != nil {
		t.Fatal(err)
	}

	target := t.TempDir()
	if err := Restore(b.Path, target); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(target, "config.d", "lora-usb.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "/dev/ttyUSB0") {
		t.Fatalf("restored content = %q", got)
	}
}

func TestListNewestFirstAndSkipsBroken(t *testing.T) {
	conf := writeConf(t)
	out := t.TempDir()

	if _, err := Create(conf, out); err != nil {
		t.Fatal(err)
	}
	// A directory without a manifest must not break listing.
	if err := os.MkdirAll(filepath.Join(out, "not-a-backup"), 0o755); err != nil {
		t.Fatal(err)
	}

	list, err := List(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List() returned %d backups, want 1", len(list))
	}
}
