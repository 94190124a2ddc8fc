package mode

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"manual", Manual},
		{"Hybrid", Hybrid},
		{"fully-auto", FullyAuto},
		{"FULLY_AUTO", FullyAuto},
		{" fullyAuto ", FullyAuto},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := Parse("turbo"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Parse(turbo) error = %v, want ErrUnknownMode", err)
	}
}

func TestMode_Valid(t *testing.T) {
	for _, m := range All {
		if !m.Valid() {
			t.Errorf("%v.Valid() = false", m)
		}
	}
	if Mode(0).Valid() || Mode(42).Valid() {
		t.Error("out-of-range modes should be invalid")
	}
}

func TestMode_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(struct {
		M Mode `json:"mode"`
	}{FullyAuto})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `{"mode":"fully-auto"}` {
		t.Fatalf("Marshal = %s", data)
	}

	var out struct {
		M Mode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"hybrid"}`), &out); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if out.M != Hybrid {
		t.Errorf("Unmarshal = %v, want hybrid", out.M)
	}

	if err := json.Unmarshal([]byte(`{"mode":"bogus"}`), &out); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestConfigurationFor(t *testing.T) {
	manual, ok := ConfigurationFor(Manual)
	if !ok {
		t.Fatal("ConfigurationFor(Manual) not ok")
	}
	if manual.UserControlLevel != 100 || manual.AutoEnhancement || manual.ProactiveSuggestions {
		t.Errorf("unexpected manual configuration: %+v", manual)
	}

	auto, _ := ConfigurationFor(FullyAuto)
	if !auto.AutoEnhancement || auto.InterventionStyle != StyleProactive {
		t.Errorf("unexpected fully-auto configuration: %+v", auto)
	}

	if _, ok := ConfigurationFor(Mode(9)); ok {
		t.Error("ConfigurationFor(invalid) should not be ok")
	}
}

func TestConfiguration_Augment(t *testing.T) {
	tests := []struct {
		mode Mode
		want Augmentation
	}{
		{Manual, Augmentation{"minimal", "explicit", "conservative"}},
		{Hybrid, Augmentation{"moderate", "contextual", "balanced"}},
		{FullyAuto, Augmentation{"comprehensive", "continuous", "creative"}},
	}

	for _, tt := range tests {
		cfg, _ := ConfigurationFor(tt.mode)
		if got := cfg.Augment(); got != tt.want {
			t.Errorf("%v.Augment() = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}
