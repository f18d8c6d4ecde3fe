package tradfri

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestLightBulb_RefreshAndWrite(t *testing.T) {
	svc, host, cmd := newTestServices()
	l := NewLightBulb(svc, bulb(65537, "TRADFRI bulb E27 opal 1000lm"))

	l.Refresh(bulb(65537, "", Light{OnOff: true}))
	if got := l.Description().Properties[0].Value; got != true {
		t.Errorf("on = %v, want true", got)
	}
	if n := len(host.changesFor(PropertyOn)); n != 1 {
		t.Errorf("on changes = %d, want 1", n)
	}

	p, _ := l.Property(PropertyOn)
	if err := p.SetValue(context.Background(), false); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if calls := cmd.Calls(); len(calls) != 1 || calls[0] != "light 65537 on=false" {
		t.Errorf("commander calls = %v", calls)
	}
}

func TestDimmableLightBulb_Properties(t *testing.T) {
	svc, _, cmd := newTestServices()
	l := NewDimmableLightBulb(svc, bulb(65538, "TRADFRI bulb E27 W opal 1000lm"))

	names := propertyNames(l)
	want := []string{PropertyOn, PropertyBrightness}
	if !equalStrings(names, want) {
		t.Fatalf("properties = %v, want %v", names, want)
	}

	l.Refresh(bulb(65538, "", Light{OnOff: true, Dimmer: 40}))
	p, _ := l.Property(PropertyBrightness)
	if got := p.Value(); got != 40 {
		t.Errorf("brightness = %v, want 40", got)
	}

	if err := p.SetValue(context.Background(), float64(75)); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if calls := cmd.Calls(); len(calls) != 1 || calls[0] != "brightness 65538 75" {
		t.Errorf("commander calls = %v", calls)
	}

	if err := p.SetValue(context.Background(), 150); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetValue(150) error = %v, want ErrOutOfRange", err)
	}
}

func TestWhiteSpectrumLightBulb_ColorTemperature(t *testing.T) {
	svc, _, cmd := newTestServices()
	l := NewWhiteSpectrumLightBulb(svc, bulb(65539, "TRADFRI bulb E27 WS opal 980lm"))

	if !equalStrings(l.Types(), []string{"Light", "OnOffSwitch", "ColorControl"}) {
		t.Errorf("Types() = %v", l.Types())
	}

	l.Refresh(bulb(65539, "", Light{OnOff: true, Dimmer: 100, ColorTemperature: 50}))
	p, ok := l.Property(PropertyColorTemperature)
	if !ok {
		t.Fatal("colorTemperature property missing")
	}
	if got := p.Value(); got != 3000 {
		t.Errorf("colorTemperature = %v, want 3000", got)
	}

	if err := p.SetValue(context.Background(), 2500); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if calls := cmd.Calls(); len(calls) != 1 || calls[0] != "colortemp 65539 25.0" {
		t.Errorf("commander calls = %v", calls)
	}

	if err := p.SetValue(context.Background(), 1999); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetValue(1999) error = %v, want ErrOutOfRange", err)
	}
}

func TestColorLightBulb_Color(t *testing.T) {
	svc, host, cmd := newTestServices()
	l := NewColorLightBulb(svc, bulb(65540, "TRADFRI bulb E27 CWS opal 600lm"))

	l.Refresh(bulb(65540, "", Light{OnOff: true, Dimmer: 10, Color: "FF00AA"}))
	p, _ := l.Property(PropertyColor)
	if got := p.Value(); got != "#FF00AA" {
		t.Errorf("color = %v, want #FF00AA", got)
	}

	if err := p.SetValue(context.Background(), "#00FF00"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if calls := cmd.Calls(); len(calls) != 1 || calls[0] != "color 65540 00FF00" {
		t.Errorf("commander calls = %v", calls)
	}

	// The gateway echoing the written colour is not a change.
	l.Refresh(bulb(65540, "", Light{OnOff: true, Dimmer: 10, Color: "00FF00"}))
	if got := p.Value(); got != "#00FF00" {
		t.Errorf("color after echo = %v, want #00FF00", got)
	}

	// An empty colour reading keeps the cached value.
	l.Refresh(bulb(65540, "", Light{OnOff: true, Dimmer: 10}))
	if got := p.Value(); got != "#00FF00" {
		t.Errorf("color after empty reading = %v, want #00FF00", got)
	}
	if n := len(host.changesFor(PropertyColor)); n != 2 {
		t.Errorf("color changes = %d, want 2", n)
	}

	if err := p.SetValue(context.Background(), "green"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetValue(green) error = %v, want ErrInvalidValue", err)
	}
}

func TestLightBulb_EmptyLightListKeepsCache(t *testing.T) {
	svc, host, _ := newTestServices()
	l := NewDimmableLightBulb(svc, bulb(1, ""))

	l.Refresh(bulb(1, "", Light{OnOff: true, Dimmer: 60}))
	before := len(host.changes)

	l.Refresh(bulb(1, ""))

	if len(host.changes) != before {
		t.Errorf("empty refresh produced %d notifications", len(host.changes)-before)
	}
	p, _ := l.Property(PropertyBrightness)
	if got := p.Value(); got != 60 {
		t.Errorf("brightness = %v, want 60", got)
	}
}

func TestSmartPlug(t *testing.T) {
	svc, host, cmd := newTestServices()
	p := NewSmartPlug(svc, plug(65550, Plug{OnOff: true}))

	if p.Kind() != KindSmartPlug {
		t.Errorf("Kind() = %q, want %q", p.Kind(), KindSmartPlug)
	}

	p.Refresh(plug(65550, Plug{OnOff: true}))
	p.Refresh(plug(65550))
	if n := len(host.changesFor(PropertyOn)); n != 1 {
		t.Errorf("on changes = %d, want 1", n)
	}

	on, _ := p.Property(PropertyOn)
	if got := on.Value(); got != true {
		t.Errorf("on = %v, want true", got)
	}

	if err := on.SetValue(context.Background(), false); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if calls := cmd.Calls(); len(calls) != 1 || calls[0] != "plug 65550 on=false" {
		t.Errorf("commander calls = %v", calls)
	}
}

func TestBatteryDevice(t *testing.T) {
	svc, host, cmd := newTestServices()
	level := 87
	b := NewBatteryDevice(svc, remote(65560, PowerSourceInternalBattery, &level))

	b.Refresh(remote(65560, PowerSourceInternalBattery, &level))
	p, _ := b.Property(PropertyBatteryLevel)
	if got := p.Value(); got != 87 {
		t.Errorf("batteryLevel = %v, want 87", got)
	}

	b.Refresh(remote(65560, PowerSourceInternalBattery, nil))
	if got := p.Value(); got != 87 {
		t.Errorf("batteryLevel after missing reading = %v, want 87", got)
	}
	if n := len(host.changesFor(PropertyBatteryLevel)); n != 1 {
		t.Errorf("batteryLevel changes = %d, want 1", n)
	}

	if err := p.SetValue(context.Background(), 50); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetValue() error = %v, want ErrReadOnly", err)
	}
	if len(cmd.Calls()) != 0 {
		t.Errorf("read-only write reached the gateway: %v", cmd.Calls())
	}
}

func TestDevice_WriteFailureIsLoggedNotReturned(t *testing.T) {
	svc, host, cmd := newTestServices()
	cmd.err = errGatewayDown
	logger := &recordingLogger{}
	svc.Logger = logger

	p := NewSmartPlug(svc, plug(7, Plug{}))
	on, _ := p.Property(PropertyOn)

	if err := on.SetValue(context.Background(), true); err != nil {
		t.Fatalf("SetValue() error = %v, want nil", err)
	}
	if got := on.Value(); got != true {
		t.Errorf("on = %v, want true (no rollback)", got)
	}
	if n := len(host.changesFor(PropertyOn)); n != 1 {
		t.Errorf("on changes = %d, want 1", n)
	}
	if logger.errorCount() != 1 {
		t.Errorf("error logs = %d, want 1", logger.errorCount())
	}
}

func TestDevice_Description(t *testing.T) {
	svc, _, _ := newTestServices()
	acc := bulb(65541, "TRADFRI bulb GU10 WS 400lm", Light{OnOff: false, Dimmer: 0, ColorTemperature: 0})
	acc.DeviceInfo.FirmwareVersion = "2.3.087"
	l := NewWhiteSpectrumLightBulb(svc, acc)
	l.Refresh(acc)

	desc := l.Description()
	if desc.ID != "65541" || desc.Title != "bulb-65541" {
		t.Errorf("ID/Title = %q/%q", desc.ID, desc.Title)
	}
	if desc.Context != SchemaContext {
		t.Errorf("Context = %q", desc.Context)
	}

	data, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	props := decoded["properties"].([]any)
	if len(props) != 3 {
		t.Fatalf("properties = %d, want 3", len(props))
	}
	on := props[0].(map[string]any)
	if on["value"] != false {
		t.Errorf("on value = %v, want false to be encoded", on["value"])
	}
	if on["@type"] != "OnOffProperty" {
		t.Errorf("on @type = %v", on["@type"])
	}
	ct := props[2].(map[string]any)
	if ct["minimum"] != float64(2000) || ct["maximum"] != float64(4000) {
		t.Errorf("colorTemperature range = %v..%v", ct["minimum"], ct["maximum"])
	}
}

func TestAdd_DuplicatePanics(t *testing.T) {
	svc, _, _ := newTestServices()
	l := NewLightBulb(svc, bulb(1, ""))

	defer func() {
		if recover() == nil {
			t.Error("add() with duplicate name did not panic")
		}
	}()
	add(&l.device, NewProperty[bool](PropertyOn, Metadata{}, nil))
}

func propertyNames(d Device) []string {
	var names []string
	for _, p := range d.Properties() {
		names = append(names, p.Name())
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
