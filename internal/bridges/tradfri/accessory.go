package tradfri

import "strings"

// AccessoryType is the gateway's category code for an accessory.
type AccessoryType int

// Accessory categories reported by the gateway (key 5750).
const (
	AccessoryRemote         AccessoryType = 0
	AccessorySlaveRemote    AccessoryType = 1
	AccessoryLightbulb      AccessoryType = 2
	AccessoryPlug           AccessoryType = 3
	AccessoryMotionSensor   AccessoryType = 4
	AccessorySignalRepeater AccessoryType = 6
	AccessoryBlind          AccessoryType = 7
	AccessorySoundRemote    AccessoryType = 8
)

// String returns the category tag used in logs and device descriptions.
func (t AccessoryType) String() string {
	switch t {
	case AccessoryRemote:
		return "remote"
	case AccessorySlaveRemote:
		return "slaveRemote"
	case AccessoryLightbulb:
		return "lightbulb"
	case AccessoryPlug:
		return "plug"
	case AccessoryMotionSensor:
		return "motionSensor"
	case AccessorySignalRepeater:
		return "signalRepeater"
	case AccessoryBlind:
		return "blind"
	case AccessorySoundRemote:
		return "soundRemote"
	default:
		return "unknown"
	}
}

// PowerSource is the gateway's power-source code (device info key 6).
type PowerSource int

// Power sources reported by the gateway.
const (
	PowerSourceUnknown         PowerSource = 0
	PowerSourceInternalBattery PowerSource = 1
	PowerSourceExternalBattery PowerSource = 2
	PowerSourceBattery         PowerSource = 3
	PowerSourcePoE             PowerSource = 4
	PowerSourceUSB             PowerSource = 5
	PowerSourceAC              PowerSource = 6
	PowerSourceSolar           PowerSource = 7
)

// Tag collapses the power-source code to the tag the classifier uses.
// All three battery codes map to "battery".
func (p PowerSource) Tag() string {
	switch p {
	case PowerSourceInternalBattery, PowerSourceExternalBattery, PowerSourceBattery:
		return "battery"
	case PowerSourcePoE:
		return "poe"
	case PowerSourceUSB:
		return "usb"
	case PowerSourceAC:
		return "ac"
	case PowerSourceSolar:
		return "solar"
	default:
		return "unknown"
	}
}

// Spectrum is a light's colour capability class.
type Spectrum string

// Light spectrums.
const (
	SpectrumNone  Spectrum = "none"
	SpectrumWhite Spectrum = "white"
	SpectrumRGB   Spectrum = "rgb"
)

// SpectrumFromModel derives the spectrum from a TRÅDFRI model number.
// "CWS" and "C/WS" bulbs are full colour, "WS" bulbs are white spectrum.
func SpectrumFromModel(model string) Spectrum {
	padded := " " + model + " "
	switch {
	case strings.Contains(padded, " CWS ") || strings.Contains(padded, " C/WS "):
		return SpectrumRGB
	case strings.Contains(padded, " WS "):
		return SpectrumWhite
	default:
		return SpectrumNone
	}
}

// Accessory is one snapshot of a gateway accessory.
//
// Snapshots are produced by the gateway client on every observed change and
// are read-only to the rest of the package.
type Accessory struct {
	ID         int
	Name       string
	Type       AccessoryType
	DeviceInfo DeviceInfo

	Lights    []Light
	Plugs     []Plug
	Sensors   []Sensor
	Switches  []Switch
	Repeaters []Repeater
	Blinds    []Blind
}

// DeviceInfo is the accessory's identification and power block.
type DeviceInfo struct {
	Manufacturer    string
	ModelNumber     string
	SerialNumber    string
	FirmwareVersion string
	PowerSource     PowerSource

	// Battery is the charge percentage, nil when the accessory reports none.
	Battery *int
}

// Light is one light reading.
type Light struct {
	OnOff bool

	// Dimmer is the brightness in percent (0–100).
	Dimmer int

	// Color is the colour as six hex digits without a leading '#'.
	Color string

	// ColorTemperature is the white point in percent (0 warm … 100 cold).
	ColorTemperature float64

	Spectrum Spectrum
}

// Plug is one plug reading.
type Plug struct {
	OnOff  bool
	Dimmer int
}

// Sensor is one sensor reading.
type Sensor struct {
	Value float64
}

// Switch is one switch entry. The bridge only counts entries.
type Switch struct{}

// Repeater is one repeater entry. The bridge only counts entries.
type Repeater struct{}

// Blind is one blind reading.
type Blind struct {
	Position float64
}

// firstLight returns the first light entry, if any.
func (a *Accessory) firstLight() (Light, bool) {
	if len(a.Lights) == 0 {
		return Light{}, false
	}
	return a.Lights[0], true
}

// firstPlug returns the first plug entry, if any.
func (a *Accessory) firstPlug() (Plug, bool) {
	if len(a.Plugs) == 0 {
		return Plug{}, false
	}
	return a.Plugs[0], true
}
