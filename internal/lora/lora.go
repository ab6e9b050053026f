// Package lora holds the static radio parameter tables: regulatory regions,
// modem presets, and the bounds for advanced settings.
package lora

import (
	"fmt"
	"sort"
)

type Region struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
	Channels  int    `json:"channels"`
}

var regions = map[string]Region{
	"US":     {Code: "US", Name: "United States", Frequency: "902-928 MHz", Channels: 104},
	"EU_433": {Code: "EU_433", Name: "Europe 433 MHz", Frequency: "433 MHz", Channels: 8},
	"EU_868": {Code: "EU_868", Name: "Europe 868 MHz", Frequency: "863-870 MHz", Channels: 8},
	"CN":     {Code: "CN", Name: "China", Frequency: "470-510 MHz", Channels: 20},
	"JP":     {Code: "JP", Name: "Japan", Frequency: "920-923 MHz", Channels: 10},
	"ANZ":    {Code: "ANZ", Name: "Australia/New Zealand", Frequency: "915-928 MHz", Channels: 20},
	"KR":     {Code: "KR", Name: "Korea", Frequency: "920-923 MHz", Channels: 8},
	"TW":     {Code: "TW", Name: "Taiwan", Frequency: "920-925 MHz", Channels: 10},
	"RU":     {Code: "RU", Name: "Russia", Frequency: "868-870 MHz", Channels: 8},
	"IN":     {Code: "IN", Name: "India", Frequency: "865-867 MHz", Channels: 4},
}

// Advanced parameter domains.
var (
	Bandwidths       = []int{125, 250, 500}
	SpreadingFactors = []int{7, 8, 9, 10, 11, 12}
	CodingRates      = []int{5, 6, 7, 8} // 4/5 .. 4/8
)

const (
	TxPowerMin     = 0
	TxPowerMax     = 30
	TxPowerDefault = 20
)

// Settings is one radio parameter set.
type Settings struct {
	Bandwidth       int `json:"bandwidth" yaml:"bandwidth"`
	SpreadingFactor int `json:"spreadingFactor" yaml:"spreadingFactor"`
	CodingRate      int `json:"codingRate" yaml:"codingRate"`
	TxPower         int `json:"txPower" yaml:"txPower"`
}

// Preset is a named parameter set for a common use case.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Settings    Settings `json:"settings"`
}

var presets = map[string]Preset{
	"general": {
		Name:        "general",
		Description: "balanced settings for general use",
		Settings:    Settings{Bandwidth: 125, SpreadingFactor: 7, CodingRate: 5, TxPower: 20},
	},
	"long_range": {
		Name:        "long_range",
		Description: "maximum range (slow, high power)",
		Settings:    Settings{Bandwidth: 125, SpreadingFactor: 11, CodingRate: 8, TxPower: 30},
	},
	"fast": {
		Name:        "fast",
		Description: "fast data rate (shorter range)",
		Settings:    Settings{Bandwidth: 250, SpreadingFactor: 7, CodingRate: 5, TxPower: 20},
	},
	"low_power": {
		Name:        "low_power",
		Description: "battery-efficient (reduced range)",
		Settings:    Settings{Bandwidth: 125, SpreadingFactor: 9, CodingRate: 5, TxPower: 10},
	},
}

// LookupRegion returns the region for code.
func LookupRegion(code string) (Region, bool) {
	r, ok := regions[code]
	return r, ok
}

// RegionCodes returns all region codes sorted for stable prompts and tables.
func RegionCodes() []string {
	out := make([]string, 0, len(regions))
	for code := range regions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Regions returns all regions ordered by code.
func Regions() []Region {
	codes := RegionCodes()
	out := make([]Region, 0, len(codes))
	for _, c := range codes {
		out = append(out, regions[c])
	}
	return out
}

// LookupPreset returns the preset for name; the general preset for "".
func LookupPreset(name string) (Preset, bool) {
	if name == "" {
		name = "general"
	}
	p, ok := presets[name]
	return p, ok
}

// PresetNames returns all preset names sorted.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks a settings value against the parameter domains.
func (s Settings) Validate() error {
	if !containsInt(Bandwidths, s.Bandwidth) {
		return fmt.Errorf("bandwidth %d kHz is not one of %v", s.Bandwidth, Bandwidths)
	}
	if !containsInt(SpreadingFactors, s.SpreadingFactor) {
		return fmt.Errorf("spreading factor %d is not one of %v", s.SpreadingFactor, SpreadingFactors)
	}
	if !containsInt(CodingRates, s.CodingRate) {
		return fmt.Errorf("coding rate 4/%d is not one of 4/{5..8}", s.CodingRate)
	}
	if s.TxPower < TxPowerMin || s.TxPower > TxPowerMax {
		return fmt.Errorf("tx power %d dBm is outside %d..%d", s.TxPower, TxPowerMin, TxPowerMax)
	}
	return nil
}

// Estimate summarizes expected range and speed for a settings value. These
// are rough buckets; terrain and antennas dominate in practice.
func (s Settings) Estimate() (rangeEstimate, speedEstimate string) {
	switch {
	case s.SpreadingFactor <= 7:
		return "short (< 5 km)", "fast"
	case s.SpreadingFactor <= 9:
		return "medium (5-10 km)", "medium"
	default:
		return "long (> 10 km)", "slow"
	}
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
