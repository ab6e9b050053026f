package lora

import "testing"

func TestLookupRegion(t *testing.T) {
	r, ok := LookupRegion("EU_868")
	if !ok {
		t.Fatal("expected EU_868 to exist")
	}
	if r.Frequency != "863-870 MHz" || r.Channels != 8 {
		t.Fatalf("unexpected region data: %+v", r)
	}
	if _, ok := LookupRegion("XX"); ok {
		t.Fatal("did not expect region XX")
	}
}

func TestRegionCodesSortedAndComplete(t *testing.T) {
	codes := RegionCodes()
	if len(codes) != 10 {
		t.Fatalf("expected 10 regions, got %d", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range PresetNames() {
		p, ok := LookupPreset(name)
		if !ok {
			t.Fatalf("preset %s missing", name)
		}
		if err := p.Settings.Validate(); err != nil {
			t.Errorf("preset %s does not validate: %v", name, err)
		}
	}
}

func TestLookupPresetDefaultsToGeneral(t *testing.T) {
	p, ok := LookupPreset("")
	if !ok || p.Name != "general" {
		t.Fatalf("expected general preset, got %+v ok=%v", p, ok)
	}
}

func TestSettingsValidateBounds(t *testing.T) {
	bad := []Settings{
		{Bandwidth: 100, SpreadingFactor: 7, CodingRate: 5, TxPower: 20},
		{Bandwidth: 125, SpreadingFactor: 6, CodingRate: 5, TxPower: 20},
		{Bandwidth: 125, SpreadingFactor: 7, CodingRate: 9, TxPower: 20},
		{Bandwidth: 125, SpreadingFactor: 7, CodingRate: 5, TxPower: 31},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("expected %+v to fail validation", s)
		}
	}
}

func TestEstimateBuckets(t *testing.T) {
	r, speed := Settings{SpreadingFactor: 7}.Estimate()
	if r != "short (< 5 km)" || speed != "fast" {
		t.Fatalf("sf7 estimate = %q/%q", r, speed)
	}
	r, speed = Settings{SpreadingFactor: 12}.Estimate()
	if r != "long (> 10 km)" || speed != "slow" {
		t.Fatalf("sf12 estimate = %q/%q", r, speed)
	}
}
