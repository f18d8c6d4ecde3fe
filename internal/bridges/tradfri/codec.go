package tradfri

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Gateway resource paths.
const (
	pathDevices        = "/15001"
	pathAuthentication = "/15011/9063"
)

// Gateway value ranges.
const (
	maxDimmer = 254
	minMireds = 250
	maxMireds = 454

	// maxColorXY is the gateway's full scale for CIE x/y coordinates.
	maxColorXY = 65279
)

// wireAccessory is an accessory as the gateway encodes it. Keys are the
// gateway's numeric resource ids.
type wireAccessory struct {
	Name      string            `json:"9001"`
	ID        int               `json:"9003"`
	Type      int               `json:"5750"`
	Info      wireDeviceInfo    `json:"3"`
	Lights    []wireLight       `json:"3311"`
	Plugs     []wirePlug        `json:"3312"`
	Sensors   []wireSensor      `json:"3300"`
	Switches  []json.RawMessage `json:"15009"`
	Repeaters []json.RawMessage `json:"15014"`
	Blinds    []wireBlind       `json:"15015"`
}

type wireDeviceInfo struct {
	Manufacturer    string `json:"0"`
	ModelNumber     string `json:"1"`
	SerialNumber    string `json:"2"`
	FirmwareVersion string `json:"3"`
	PowerSource     int    `json:"6"`
	Battery         *int   `json:"9"`
}

type wireLight struct {
	OnOff  *int    `json:"5850,omitempty"`
	Dimmer *int    `json:"5851,omitempty"`
	Color  *string `json:"5706,omitempty"`
	Mireds *int    `json:"5711,omitempty"`
	ColorX *int    `json:"5709,omitempty"`
	ColorY *int    `json:"5710,omitempty"`
}

type wirePlug struct {
	OnOff  *int `json:"5850,omitempty"`
	Dimmer *int `json:"5851,omitempty"`
}

type wireSensor struct {
	Value float64 `json:"5700"`
}

type wireBlind struct {
	Position float64 `json:"5536"`
}

// DecodeAccessory parses a gateway accessory payload.
func DecodeAccessory(data []byte) (*Accessory, error) {
	var w wireAccessory
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: accessory: %v", ErrDecodingFailed, err)
	}

	acc := &Accessory{
		ID:   w.ID,
		Name: w.Name,
		Type: AccessoryType(w.Type),
		DeviceInfo: DeviceInfo{
			Manufacturer:    w.Info.Manufacturer,
			ModelNumber:     w.Info.ModelNumber,
			SerialNumber:    w.Info.SerialNumber,
			FirmwareVersion: w.Info.FirmwareVersion,
			PowerSource:     PowerSource(w.Info.PowerSource),
			Battery:         w.Info.Battery,
		},
	}

	spectrum := SpectrumFromModel(w.Info.ModelNumber)
	for _, l := range w.Lights {
		light := Light{Spectrum: spectrum}
		if l.OnOff != nil {
			light.OnOff = *l.OnOff == 1
		}
		if l.Dimmer != nil {
			light.Dimmer = dimmerToPercent(*l.Dimmer)
		}
		if l.Color != nil {
			light.Color = *l.Color
		}
		if l.Mireds != nil {
			light.ColorTemperature = miredsToPercent(*l.Mireds)
		}
		acc.Lights = append(acc.Lights, light)
	}
	for _, p := range w.Plugs {
		plug := Plug{}
		if p.OnOff != nil {
			plug.OnOff = *p.OnOff == 1
		}
		if p.Dimmer != nil {
			plug.Dimmer = dimmerToPercent(*p.Dimmer)
		}
		acc.Plugs = append(acc.Plugs, plug)
	}
	for _, s := range w.Sensors {
		acc.Sensors = append(acc.Sensors, Sensor{Value: s.Value})
	}
	for range w.Switches {
		acc.Switches = append(acc.Switches, Switch{})
	}
	for range w.Repeaters {
		acc.Repeaters = append(acc.Repeaters, Repeater{})
	}
	for _, b := range w.Blinds {
		acc.Blinds = append(acc.Blinds, Blind{Position: b.Position})
	}

	return acc, nil
}

// decodeDeviceIDs parses the /15001 listing.
func decodeDeviceIDs(data []byte) ([]int, error) {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: device list: %v", ErrDecodingFailed, err)
	}
	return ids, nil
}

// lightCommand encodes a single light update.
func lightCommand(l wireLight) []byte {
	data, _ := json.Marshal(map[string][]wireLight{"3311": {l}})
	return data
}

// plugCommand encodes a single plug update.
func plugCommand(p wirePlug) []byte {
	data, _ := json.Marshal(map[string][]wirePlug{"3312": {p}})
	return data
}

func devicePath(accessoryID int) string {
	return pathDevices + "/" + strconv.Itoa(accessoryID)
}

func boolToInt(v bool) *int {
	n := 0
	if v {
		n = 1
	}
	return &n
}

func dimmerToPercent(d int) int {
	return clamp(int(math.Round(float64(d)/maxDimmer*100)), 0, 100)
}

func percentToDimmer(p int) int {
	return clamp(int(math.Round(float64(p)/100*maxDimmer)), 0, maxDimmer)
}

// miredsToPercent maps the white point to percent, 0 being the warmest
// (maxMireds) and 100 the coldest (minMireds).
func miredsToPercent(m int) float64 {
	p := float64(maxMireds-m) / (maxMireds - minMireds) * 100
	return math.Max(0, math.Min(100, p))
}

func percentToMireds(p float64) int {
	return clamp(int(math.Round(maxMireds-p/100*(maxMireds-minMireds))), minMireds, maxMireds)
}

// hexToXY converts "rrggbb" to the gateway's scaled CIE 1931 x/y pair
// using the sRGB primaries with gamma expansion.
func hexToXY(hex string) (x, y int, err error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, fmt.Errorf("%w: %q is not rrggbb", ErrInvalidValue, hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not rrggbb", ErrInvalidValue, hex)
	}

	r := expandGamma(float64(v>>16&0xff) / 255)
	g := expandGamma(float64(v>>8&0xff) / 255)
	b := expandGamma(float64(v&0xff) / 255)

	X := r*0.4124 + g*0.3576 + b*0.1805
	Y := r*0.2126 + g*0.7152 + b*0.0722
	Z := r*0.0193 + g*0.1192 + b*0.9505

	sum := X + Y + Z
	if sum == 0 {
		// Black has no chromaticity; use the D65 white point.
		return int(math.Round(0.3127 * maxColorXY)), int(math.Round(0.3290 * maxColorXY)), nil
	}
	return int(math.Round(X / sum * maxColorXY)), int(math.Round(Y / sum * maxColorXY)), nil
}

func expandGamma(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
