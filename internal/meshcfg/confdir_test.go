package meshcfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meshup-dev/meshup/internal/errdefs"
)

func writeTemplate(t *testing.T, d *Dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(d.AvailableDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(d.AvailableDir(), name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingConfigYieldsDefaults(t *testing.T) {
	d := Open(t.TempDir())
	cfg, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.Logging.LogLevel)
	}
}

func TestSetRegionRoundTrips(t *testing.T) {
	d := Open(t.TempDir())
	if err := d.SetRegion("EU_868"); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}
	cfg, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lora.Region != "EU_868" {
		t.Fatalf("Region = %q", cfg.Lora.Region)
	}

	if err := d.SetRegion("NOWHERE"); err == nil {
		t.Fatal("expected unknown region to be rejected")
	}
}

func TestApplyPresetWritesParameters(t *testing.T) {
	d := Open(t.TempDir())
	if err := d.ApplyPreset("long_range"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	cfg, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lora.Preset != "long_range" || cfg.Lora.SpreadingFactor != 11 || cfg.Lora.TxPower != 30 {
		t.Fatalf("unexpected config after preset: %+v", cfg.Lora)
	}
	b, err := os.ReadFile(d.ConfigPath())
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	if !strings.Contains(string(b), "Preset: long_range") {
		t.Fatalf("expected preset in written yaml: %s", b)
	}
}

func TestActivateCopiesTemplate(t *testing.T) {
	d := Open(t.TempDir())
	writeTemplate(t, d, "waveshare-sx126x.yaml", "Lora:\n  Module: sx1262\n  spidev: /dev/spidev0.0\n")

	if err := d.Activate("waveshare-sx126x"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.ActiveDir(), "waveshare-sx126x.yaml")); err != nil {
		t.Fatalf("expected active overlay: %v", err)
	}

	templates, err := d.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 || !templates[0].Active {
		t.Fatalf("unexpected templates: %+v", templates)
	}

	if err := d.Deactivate("waveshare-sx126x"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := d.Deactivate("waveshare-sx126x"); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivateRejectsInvalidTemplate(t *testing.T) {
	d := Open(t.TempDir())
	writeTemplate(t, d, "broken.yaml", "Lora:\n  NoSuchField: 1\n")
	if err := d.Activate("broken"); err == nil {
		t.Fatal("expected invalid template to be rejected")
	}
}

func TestActivateUnknownTemplate(t *testing.T) {
	d := Open(t.TempDir())
	writeTemplate(t, d, "real.yaml", "Lora:\n  Module: sx1262\n")
	if err := d.Activate("imaginary"); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsConflictingTransports(t *testing.T) {
	d := Open(t.TempDir())
	cfg, err := d.Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Lora.SPIDev = "/dev/spidev0.0"
	cfg.Lora.Port = "/dev/ttyUSB0"
	if err := d.Save(cfg); err == nil {
		t.Fatal("expected mutually exclusive transports to be rejected")
	}
}

func TestLoadKeepsUnmanagedSections(t *testing.T) {
	d := Open(t.TempDir())
	stock := "General:\n  MaxNodes: 200\nLora:\n  Region: US\nDisplay:\n  Rotate: 2\n"
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(d.ConfigPath(), []byte(stock), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := d.Load()
	if err != nil {
		t.Fatalf("Load on a stock config: %v", err)
	}
	if cfg.Lora.Region != "US" {
		t.Fatalf("Region = %q", cfg.Lora.Region)
	}

	if err := d.SetRegion("EU_868"); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}
	raw, err := os.ReadFile(d.ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"General:", "MaxNodes: 200", "Display:", "Rotate: 2"} {
		if !strings.Contains(string(raw), section) {
			t.Fatalf("rewritten config dropped %q:\n%s", section, raw)
		}
	}
	cfg, err = d.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.Lora.Region != "EU_868" {
		t.Fatalf("Region after rewrite = %q", cfg.Lora.Region)
	}
}

func TestLoadStillRejectsUnknownLoraFields(t *testing.T) {
	d := Open(t.TempDir())
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	bad := "Lora:\n  Region: US\n  Regoin: EU_868\n"
	if err := os.WriteFile(d.ConfigPath(), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Load(); err == nil {
		t.Fatal("expected a typo inside a managed section to be rejected")
	}
}
