package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meshup-dev/meshup/internal/hardware"
)

const validProfile = `apiVersion: meshup.profile/v1
kind: HardwareProfile
metadata:
  name: waveshare-sx126x
  description: Waveshare SX126X LoRaWAN HAT
match:
  hatProduct: "SX1262 LoRaWAN HAT"
lora:
  module: sx1262
  spidev: /dev/spidev0.0
  cs: 21
  irq: 16
  busy: 20
  reset: 18
overlays:
  - dtparam=spi=on
`

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidProfile(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "waveshare.yaml", validProfile)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Metadata.Name != "waveshare-sx126x" || p.Lora.CS != 21 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(validProfile, "overlays:", "extras:", 1)
	path := writeProfile(t, t.TempDir(), "bad.yaml", bad)
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestValidateRequirements(t *testing.T) {
	base := Profile{
		APIVersion: APIVersion,
		Kind:       Kind,
		Metadata:   Metadata{Name: "x"},
		Lora:       Lora{Module: "sx1262"},
	}
	if err := Validate(base); err != nil {
		t.Fatalf("base profile should validate: %v", err)
	}

	cases := []func(p *Profile){
		func(p *Profile) { p.APIVersion = "meshup.profile/v2" },
		func(p *Profile) { p.Kind = "Other" },
		func(p *Profile) { p.Metadata.Name = " " },
		func(p *Profile) { p.Lora.Module = "" },
		func(p *Profile) { p.Lora.SPIDev = "/dev/ttyUSB0" },
		func(p *Profile) { p.Match.USBVendorProduct = "nope" },
		func(p *Profile) { p.Overlays = []string{""} },
	}
	for i, mutate := range cases {
		p := base
		mutate(&p)
		if err := Validate(p); err == nil {
			t.Errorf("case %d: expected validation failure", i)
		}
	}
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	got, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil || len(got) != 0 {
		t.Fatalf("LoadDir = %v, %v", got, err)
	}
}

func TestMatchScan(t *testing.T) {
	profiles := []Profile{
		{Metadata: Metadata{Name: "hat"}, Match: Match{HATProduct: "SX1262 LoRaWAN HAT"}},
		{Metadata: Metadata{Name: "usb"}, Match: Match{USBVendorProduct: "1a86:7523"}},
		{Metadata: Metadata{Name: "manual"}},
	}
	scan := hardware.Scan{
		HATProduct: "sx1262 lorawan hat",
		USBModules: []hardware.USBModule{{VendorProduct: "1a86:7523"}},
	}
	got := MatchScan(profiles, scan)
	if len(got) != 2 {
		t.Fatalf("expected hat+usb matches, got %+v", got)
	}
	if MatchScan(profiles, hardware.Scan{}) != nil {
		t.Fatal("empty scan should match nothing")
	}
}
