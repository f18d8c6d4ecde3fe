package tradfri

// Colour temperature range exposed to the host, in kelvin.
const (
	MinColorTemperature = 2000
	MaxColorTemperature = 4000

	kelvinPerPercent = (MaxColorTemperature - MinColorTemperature) / 100.0
)

// PercentToKelvin maps the gateway's colour temperature percentage
// (0–100) onto kelvin (2000–4000). It is the exact inverse of KelvinToPercent.
func PercentToKelvin(percent float64) float64 {
	return MinColorTemperature + kelvinPerPercent*percent
}

// KelvinToPercent maps kelvin (2000–4000) onto the gateway's percentage.
func KelvinToPercent(kelvin float64) float64 {
	return (kelvin - MinColorTemperature) / kelvinPerPercent
}
