package tradfri

import (
	"errors"
	"strings"
	"testing"
)

func TestSpectrumFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  Spectrum
	}{
		{"TRADFRI bulb E27 CWS opal 600lm", SpectrumRGB},
		{"TRADFRI bulb E14 C/WS opal 600", SpectrumRGB},
		{"TRADFRI bulb E27 WS opal 980lm", SpectrumWhite},
		{"TRADFRI bulb GU10 WS 400lm", SpectrumWhite},
		{"TRADFRI bulb E27 W opal 1000lm", SpectrumNone},
		{"TRADFRI bulb E27 CWS", SpectrumRGB},
		{"", SpectrumNone},
	}

	for _, tt := range tests {
		if got := SpectrumFromModel(tt.model); got != tt.want {
			t.Errorf("SpectrumFromModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	level := 50
	tests := []struct {
		name       string
		acc        *Accessory
		want       Kind
		wantReason string
	}{
		{
			name: "rgb bulb",
			acc:  bulb(1, "", Light{Spectrum: SpectrumRGB}),
			want: KindColorLightBulb,
		},
		{
			name: "white spectrum bulb",
			acc:  bulb(1, "", Light{Spectrum: SpectrumWhite}),
			want: KindWhiteSpectrumLightBulb,
		},
		{
			name: "plain bulb",
			acc:  bulb(1, "", Light{Spectrum: SpectrumNone}),
			want: KindDimmableLightBulb,
		},
		{
			name: "only the first light counts",
			acc:  bulb(1, "", Light{Spectrum: SpectrumWhite}, Light{Spectrum: SpectrumRGB}),
			want: KindWhiteSpectrumLightBulb,
		},
		{
			name:       "bulb without lights",
			acc:        bulb(1, ""),
			want:       KindUnsupported,
			wantReason: "no light entries",
		},
		{
			name: "plug",
			acc:  plug(2, Plug{OnOff: true}),
			want: KindSmartPlug,
		},
		{
			name:       "plug without entries",
			acc:        plug(2),
			want:       KindUnsupported,
			wantReason: "no plug entries",
		},
		{
			name: "battery remote",
			acc:  remote(3, PowerSourceInternalBattery, &level),
			want: KindBatteryDevice,
		},
		{
			name: "external battery",
			acc:  remote(3, PowerSourceExternalBattery, nil),
			want: KindBatteryDevice,
		},
		{
			name:       "mains repeater",
			acc:        &Accessory{ID: 4, Type: AccessorySignalRepeater, DeviceInfo: DeviceInfo{PowerSource: PowerSourceAC}},
			want:       KindUnsupported,
			wantReason: "unsupported power source",
		},
		{
			name:       "unknown power source",
			acc:        &Accessory{ID: 5, Type: AccessoryBlind},
			want:       KindUnsupported,
			wantReason: "unsupported power source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.acc)
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
			if tt.wantReason == "" {
				if err != nil {
					t.Errorf("Classify() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrUnsupportedAccessory) {
				t.Fatalf("Classify() error = %v, want ErrUnsupportedAccessory", err)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("Classify() error = %v, want reason %q", err, tt.wantReason)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	accs := []*Accessory{
		bulb(1, "", Light{Spectrum: SpectrumRGB}),
		bulb(2, ""),
		plug(3, Plug{}),
		remote(4, PowerSourceBattery, nil),
	}

	for _, acc := range accs {
		first, firstErr := Classify(acc)
		for i := 0; i < 10; i++ {
			got, err := Classify(acc)
			if got != first || (err == nil) != (firstErr == nil) {
				t.Fatalf("Classify(%d) run %d = %q/%v, want %q/%v", acc.ID, i, got, err, first, firstErr)
			}
		}
	}
}

func TestNewDevice(t *testing.T) {
	svc, _, _ := newTestServices()
	level := 80
	tests := []struct {
		kind    Kind
		acc     *Accessory
		wantErr bool
	}{
		{kind: KindColorLightBulb, acc: bulb(1, "", Light{Spectrum: SpectrumRGB})},
		{kind: KindWhiteSpectrumLightBulb, acc: bulb(2, "", Light{Spectrum: SpectrumWhite})},
		{kind: KindDimmableLightBulb, acc: bulb(3, "", Light{})},
		{kind: KindSmartPlug, acc: plug(4, Plug{})},
		{kind: KindBatteryDevice, acc: remote(5, PowerSourceBattery, &level)},
		{kind: KindLightBulb, acc: bulb(6, "", Light{}), wantErr: true},
		{kind: KindUnsupported, acc: bulb(7, ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d, err := newDevice(tt.kind, svc, tt.acc)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedAccessory) {
					t.Errorf("newDevice() error = %v, want ErrUnsupportedAccessory", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("newDevice() error = %v", err)
			}
			if d.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", d.Kind(), tt.kind)
			}
		})
	}
}
