// Package meshcfg manages the daemon's configuration directory: the main
// config.yaml, the shipped templates under available.d, and the active
// overlays under config.d.
package meshcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/lora"
	"github.com/meshup-dev/meshup/internal/meshcfg/parse"
	v1 "github.com/meshup-dev/meshup/internal/meshcfg/schema/v1"
	"github.com/meshup-dev/meshup/internal/meshcfg/validate"
	"gopkg.in/yaml.v3"
)

const DefaultRoot = "/etc/meshtasticd"

// Dir is one daemon configuration directory.
type Dir struct {
	Root string
}

func Open(root string) *Dir {
	if root == "" {
		root = DefaultRoot
	}
	return &Dir{Root: root}
}

func (d *Dir) ConfigPath() string   { return filepath.Join(d.Root, "config.yaml") }
func (d *Dir) AvailableDir() string { return filepath.Join(d.Root, "available.d") }
func (d *Dir) ActiveDir() string    { return filepath.Join(d.Root, "config.d") }

// Template is one shipped per-hardware overlay.
type Template struct {
	Name   string
	Path   string
	Active bool
}

// ListTemplates returns every template in available.d, marking the ones
// already copied into config.d.
func (d *Dir) ListTemplates() ([]Template, error) {
	entries, err := os.ReadDir(d.AvailableDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errdefs.ErrNotFound, d.AvailableDir())
		}
		return nil, err
	}
	var out []Template
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSuffix(e.Name(), ".yaml"), ".yml")
		_, statErr := os.Stat(filepath.Join(d.ActiveDir(), e.Name()))
		out = append(out, Template{
			Name:   name,
			Path:   filepath.Join(d.AvailableDir(), e.Name()),
			Active: statErr == nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Activate copies a template from available.d into config.d. The template
// must parse before it is activated.
func (d *Dir) Activate(name string) error {
	src, err := d.findTemplate(name)
	if err != nil {
		return err
	}
	if _, err := parse.File(src); err != nil {
		return fmt.Errorf("template %s is not valid: %w", name, err)
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.ActiveDir(), 0o755); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(d.ActiveDir(), filepath.Base(src)), b)
}

// Deactivate removes an active overlay from config.d.
func (d *Dir) Deactivate(name string) error {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(d.ActiveDir(), name+ext)
		if _, err := os.Stat(p); err == nil {
			return os.Remove(p)
		}
	}
	return fmt.Errorf("%w: active overlay %s", errdefs.ErrNotFound, name)
}

func (d *Dir) findTemplate(name string) (string, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(d.AvailableDir(), name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: template %s in %s", errdefs.ErrNotFound, name, d.AvailableDir())
}

// Load reads and normalizes the main config. A missing file yields the
// zero config so a fresh install can be configured from scratch.
func (d *Dir) Load() (v1.Config, error) {
	cfg, err := parse.File(d.ConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return validate.NormalizeAndValidate(v1.Config{})
		}
		return v1.Config{}, err
	}
	return validate.NormalizeAndValidate(cfg)
}

// Save validates and atomically rewrites the main config.
func (d *Dir) Save(cfg v1.Config) error {
	cfg, err := validate.NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return err
	}
	return writeAtomic(d.ConfigPath(), b)
}

// SetRegion updates Lora.Region in the main config.
func (d *Dir) SetRegion(code string) error {
	if _, ok := lora.LookupRegion(code); !ok {
		return fmt.Errorf("unknown region %q (%s)", code, strings.Join(lora.RegionCodes(), ","))
	}
	cfg, err := d.Load()
	if err != nil {
		return err
	}
	cfg.Lora.Region = code
	return d.Save(cfg)
}

// ApplyPreset writes a named modem preset's parameters into the main config.
func (d *Dir) ApplyPreset(name string) error {
	p, ok := lora.LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q (%s)", name, strings.Join(lora.PresetNames(), ","))
	}
	cfg, err := d.Load()
	if err != nil {
		return err
	}
	cfg.Lora.Preset = p.Name
	cfg.Lora.Bandwidth = p.Settings.Bandwidth
	cfg.Lora.SpreadingFactor = p.Settings.SpreadingFactor
	cfg.Lora.CodingRate = p.Settings.CodingRate
	cfg.Lora.TxPower = p.Settings.TxPower
	return d.Save(cfg)
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// writeAtomic stages to a sibling temp file and renames into place so the
// daemon never observes a partially written config.
func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
