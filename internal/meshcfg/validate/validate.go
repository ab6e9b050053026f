package validate

import (
	"fmt"
	"strings"

	"github.com/meshup-dev/meshup/internal/lora"
	v1 "github.com/meshup-dev/meshup/internal/meshcfg/schema/v1"
)

// NormalizeAndValidate applies defaults and checks every managed field
// against the radio parameter domains.
func NormalizeAndValidate(cfg v1.Config) (v1.Config, error) {
	if err := cfg.ValidateBasics(); err != nil {
		return v1.Config{}, err
	}

	if cfg.Logging.LogLevel == "" {
		cfg.Logging.LogLevel = v1.LogLevelInfo
	}

	if cfg.Lora.Region != "" {
		if _, ok := lora.LookupRegion(cfg.Lora.Region); !ok {
			return v1.Config{}, fmt.Errorf("Lora.Region %q is not a known region (%s)",
				cfg.Lora.Region, strings.Join(lora.RegionCodes(), ","))
		}
	}
	if cfg.Lora.Preset != "" {
		if _, ok := lora.LookupPreset(cfg.Lora.Preset); !ok {
			return v1.Config{}, fmt.Errorf("Lora.Preset %q is not a known preset (%s)",
				cfg.Lora.Preset, strings.Join(lora.PresetNames(), ","))
		}
	}

	if hasAdvanced(cfg.Lora) {
		s := lora.Settings{
			Bandwidth:       cfg.Lora.Bandwidth,
			SpreadingFactor: cfg.Lora.SpreadingFactor,
			CodingRate:      cfg.Lora.CodingRate,
			TxPower:         cfg.Lora.TxPower,
		}
		if s.TxPower == 0 {
			s.TxPower = lora.TxPowerDefault
		}
		if err := s.Validate(); err != nil {
			return v1.Config{}, fmt.Errorf("Lora advanced settings: %w", err)
		}
	}

	if cfg.Lora.SPIDev != "" && !strings.HasPrefix(cfg.Lora.SPIDev, "/dev/spidev") {
		return v1.Config{}, fmt.Errorf("Lora.spidev must be a /dev/spidev* node, got %q", cfg.Lora.SPIDev)
	}

	return cfg, nil
}

// hasAdvanced reports whether any explicit radio parameter is set; all four
// must then be checked as a unit.
func hasAdvanced(l v1.LoraSection) bool {
	return l.Bandwidth != 0 || l.SpreadingFactor != 0 || l.CodingRate != 0
}
