package tradfri

import "fmt"

// Classify decides which device model represents acc.
//
// Only the first entry of a sub-list is consulted:
//  1. Lightbulbs: "rgb" spectrum → ColorLightBulb, "white" → WhiteSpectrumLightBulb,
//     anything else → DimmableLightBulb. No light entries → unsupported.
//  2. Plugs → SmartPlug. No plug entries → unsupported.
//  3. Anything else on battery power → BatteryDevice, otherwise unsupported.
//
// Returns:
//   - Kind: The chosen variant, or KindUnsupported
//   - error: Wraps ErrUnsupportedAccessory with the reason when unsupported
func Classify(acc *Accessory) (Kind, error) {
	switch acc.Type {
	case AccessoryLightbulb:
		light, ok := acc.firstLight()
		if !ok {
			return KindUnsupported, fmt.Errorf("%w: no light entries", ErrUnsupportedAccessory)
		}
		switch light.Spectrum {
		case SpectrumRGB:
			return KindColorLightBulb, nil
		case SpectrumWhite:
			return KindWhiteSpectrumLightBulb, nil
		default:
			return KindDimmableLightBulb, nil
		}

	case AccessoryPlug:
		if _, ok := acc.firstPlug(); !ok {
			return KindUnsupported, fmt.Errorf("%w: no plug entries", ErrUnsupportedAccessory)
		}
		return KindSmartPlug, nil

	default:
		if acc.DeviceInfo.PowerSource.Tag() == "battery" {
			return KindBatteryDevice, nil
		}
		return KindUnsupported, fmt.Errorf("%w: unsupported power source", ErrUnsupportedAccessory)
	}
}

// newDevice constructs the model for a classified kind.
func newDevice(kind Kind, svc Services, acc *Accessory) (Device, error) {
	switch kind {
	case KindColorLightBulb:
		return NewColorLightBulb(svc, acc), nil
	case KindWhiteSpectrumLightBulb:
		return NewWhiteSpectrumLightBulb(svc, acc), nil
	case KindDimmableLightBulb:
		return NewDimmableLightBulb(svc, acc), nil
	case KindSmartPlug:
		return NewSmartPlug(svc, acc), nil
	case KindBatteryDevice:
		return NewBatteryDevice(svc, acc), nil
	default:
		return nil, fmt.Errorf("%w: no model for kind %q", ErrUnsupportedAccessory, kind)
	}
}
