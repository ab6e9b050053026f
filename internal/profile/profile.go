// Package profile loads per-HAT hardware profiles: small YAML documents
// that map a detected board or USB radio to the config overlay and device
// tree settings it needs.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/meshup-dev/meshup/internal/hardware"
	"gopkg.in/yaml.v3"
)

const (
	APIVersion = "meshup.profile/v1"
	Kind       = "HardwareProfile"
)

var vendorProductRef = regexp.MustCompile(`^[0-9a-f]{4}:[0-9a-f]{4}$`)

type Profile struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Match      Match    `yaml:"match,omitempty"`
	Lora       Lora     `yaml:"lora"`
	Overlays   []string `yaml:"overlays,omitempty"`
}

type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Match selects the hardware a profile applies to. Empty fields match
// nothing; a profile with no match block is manual-select only.
type Match struct {
	HATProduct       string `yaml:"hatProduct,omitempty"`
	USBVendorProduct string `yaml:"usbVendorProduct,omitempty"`
}

type Lora struct {
	Module string `yaml:"module"`
	SPIDev string `yaml:"spidev,omitempty"`
	CS     int    `yaml:"cs,omitempty"`
	IRQ    int    `yaml:"irq,omitempty"`
	Busy   int    `yaml:"busy,omitempty"`
	Reset  int    `yaml:"reset,omitempty"`
}

// Load reads and validates one profile file with strict field checking.
func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("parse profile (%s): %w", filepath.Base(path), err)
	}
	if err := Validate(p); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LoadDir loads every .yaml/.yml profile in dir, sorted by name. A missing
// dir is an empty set, not an error, because profiles are optional.
func LoadDir(dir string) ([]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Profile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		p, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata.Name < out[j].Metadata.Name })
	return out, nil
}

func Validate(p Profile) error {
	if p.APIVersion != APIVersion {
		return fmt.Errorf("apiVersion must be %s", APIVersion)
	}
	if p.Kind != Kind {
		return fmt.Errorf("kind must be %s", Kind)
	}
	if strings.TrimSpace(p.Metadata.Name) == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if strings.TrimSpace(p.Lora.Module) == "" {
		return fmt.Errorf("lora.module is required")
	}
	if p.Lora.SPIDev != "" && !strings.HasPrefix(p.Lora.SPIDev, "/dev/spidev") {
		return fmt.Errorf("lora.spidev must be a /dev/spidev* node, got %q", p.Lora.SPIDev)
	}
	if vp := p.Match.USBVendorProduct; vp != "" && !vendorProductRef.MatchString(vp) {
		return fmt.Errorf("match.usbVendorProduct must look like 1a86:7523, got %q", vp)
	}
	for i, o := range p.Overlays {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("overlays[%d] must not be empty", i)
		}
	}
	return nil
}

// MatchScan returns the profiles whose match block fits the hardware scan.
func MatchScan(profiles []Profile, scan hardware.Scan) []Profile {
	var out []Profile
	for _, p := range profiles {
		if matches(p.Match, scan) {
			out = append(out, p)
		}
	}
	return out
}

func matches(m Match, scan hardware.Scan) bool {
	if m.HATProduct != "" && strings.EqualFold(m.HATProduct, scan.HATProduct) {
		return true
	}
	if m.USBVendorProduct != "" {
		for _, mod := range scan.USBModules {
			if mod.VendorProduct == m.USBVendorProduct {
				return true
			}
		}
	}
	return false
}
