package tradfri

import (
	"context"
	"math"
	"strings"
)

// Property names exposed by light and plug models.
const (
	PropertyOn               = "on"
	PropertyBrightness       = "brightness"
	PropertyColorTemperature = "colorTemperature"
	PropertyColor            = "color"
	PropertyBatteryLevel     = "batteryLevel"
)

func onOffMetadata(description string) Metadata {
	return Metadata{
		SemanticType: "OnOffProperty",
		Type:         ValueTypeBoolean,
		Title:        "On",
		Description:  description,
	}
}

// LightBulb is a light that can only be switched on and off.
type LightBulb struct {
	device
	on *Property[bool]
}

// NewLightBulb builds an on/off light for acc.
func NewLightBulb(svc Services, acc *Accessory) *LightBulb {
	l := &LightBulb{}
	l.initLightBulb(l, svc, acc, KindLightBulb, "Light", "OnOffSwitch")
	return l
}

func (l *LightBulb) initLightBulb(self Device, svc Services, acc *Accessory, kind Kind, types ...string) {
	l.setup(self, svc, acc, kind, types...)
	id := acc.ID
	l.on = add(&l.device, NewProperty(PropertyOn, onOffMetadata("Whether the light is on"),
		func(ctx context.Context, v bool) error {
			return svc.Commander.SetLightOnOff(ctx, id, v)
		}))
}

// Refresh implements Device.
func (l *LightBulb) Refresh(acc *Accessory) {
	light, ok := acc.firstLight()
	if !ok {
		return
	}
	l.on.update(light.OnOff)
}

// DimmableLightBulb is a LightBulb with brightness control.
type DimmableLightBulb struct {
	LightBulb
	brightness *Property[int]
}

// NewDimmableLightBulb builds a dimmable light for acc.
func NewDimmableLightBulb(svc Services, acc *Accessory) *DimmableLightBulb {
	l := &DimmableLightBulb{}
	l.initDimmable(l, svc, acc, KindDimmableLightBulb, "Light", "OnOffSwitch")
	return l
}

func (l *DimmableLightBulb) initDimmable(self Device, svc Services, acc *Accessory, kind Kind, types ...string) {
	l.initLightBulb(self, svc, acc, kind, types...)
	id := acc.ID
	l.brightness = add(&l.device, NewProperty(PropertyBrightness, Metadata{
		SemanticType: "BrightnessProperty",
		Type:         ValueTypeInteger,
		Title:        "Brightness",
		Description:  "The brightness of the bulb",
		Unit:         "percent",
		Minimum:      intPtr(0),
		Maximum:      intPtr(100),
	}, func(ctx context.Context, v int) error {
		return svc.Commander.SetBrightness(ctx, id, v)
	}))
}

// Refresh implements Device.
func (l *DimmableLightBulb) Refresh(acc *Accessory) {
	l.LightBulb.Refresh(acc)

	light, ok := acc.firstLight()
	if !ok {
		return
	}
	l.brightness.update(light.Dimmer)
}

// WhiteSpectrumLightBulb is a DimmableLightBulb with an adjustable white point.
type WhiteSpectrumLightBulb struct {
	DimmableLightBulb
	colorTemperature *Property[int]
}

// NewWhiteSpectrumLightBulb builds a white-spectrum light for acc.
func NewWhiteSpectrumLightBulb(svc Services, acc *Accessory) *WhiteSpectrumLightBulb {
	l := &WhiteSpectrumLightBulb{}
	l.initDimmable(l, svc, acc, KindWhiteSpectrumLightBulb, "Light", "OnOffSwitch", "ColorControl")

	id := acc.ID
	l.colorTemperature = add(&l.device, NewProperty(PropertyColorTemperature, Metadata{
		SemanticType: "ColorTemperatureProperty",
		Type:         ValueTypeInteger,
		Title:        "Color temperature",
		Description:  "Color temperature of the bulb",
		Unit:         "kelvin",
		Minimum:      intPtr(MinColorTemperature),
		Maximum:      intPtr(MaxColorTemperature),
	}, func(ctx context.Context, v int) error {
		return svc.Commander.SetColorTemperature(ctx, id, KelvinToPercent(float64(v)))
	}))
	return l
}

// Refresh implements Device.
func (l *WhiteSpectrumLightBulb) Refresh(acc *Accessory) {
	l.DimmableLightBulb.Refresh(acc)

	light, ok := acc.firstLight()
	if !ok {
		return
	}
	l.colorTemperature.update(int(math.Round(PercentToKelvin(light.ColorTemperature))))
}

// ColorLightBulb is a DimmableLightBulb with full colour control.
type ColorLightBulb struct {
	DimmableLightBulb
	color *Property[string]
}

// NewColorLightBulb builds a colour light for acc.
func NewColorLightBulb(svc Services, acc *Accessory) *ColorLightBulb {
	l := &ColorLightBulb{}
	l.initDimmable(l, svc, acc, KindColorLightBulb, "Light", "OnOffSwitch", "ColorControl")

	id := acc.ID
	l.color = add(&l.device, NewProperty(PropertyColor, Metadata{
		SemanticType: "ColorProperty",
		Type:         ValueTypeString,
		Title:        "Color",
		Description:  "Color of the bulb",
	}, func(ctx context.Context, v string) error {
		return svc.Commander.SetColor(ctx, id, strings.TrimPrefix(v, "#"))
	}).withValidator(validateColor))
	return l
}

// Refresh implements Device.
func (l *ColorLightBulb) Refresh(acc *Accessory) {
	l.DimmableLightBulb.Refresh(acc)

	light, ok := acc.firstLight()
	if !ok || light.Color == "" {
		return
	}
	l.color.update("#" + light.Color)
}
