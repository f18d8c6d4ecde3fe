// Package tradfri bridges an IKEA TRÅDFRI gateway to Gray Logic.
//
// The gateway pushes accessory snapshots over CoAP observe. The bridge
// classifies each accessory once, builds a typed device model with a fixed
// set of properties, keeps the properties' cached values in step with later
// snapshots, and turns property writes back into gateway commands.
//
// # Architecture
//
//	Gateway (CoAP/DTLS) → Client → Dispatcher → Registry / UnsupportedSet
//	                                   ↓
//	                              Device models → Host (MQTT + InfluxDB)
//	                                   ↑
//	        MQTT commands / HTTP API → Property.SetValue → Commander
//
// # Device models
//
//   - DimmableLightBulb: on, brightness
//   - WhiteSpectrumLightBulb: on, brightness, colorTemperature (kelvin)
//   - ColorLightBulb: on, brightness, color (#RRGGBB)
//   - SmartPlug: on
//   - BatteryDevice: batteryLevel (read-only), for remotes and sensors
//
// Accessories that fit none of these are recorded in the UnsupportedSet and
// never classified again.
//
// # Writes
//
// Property writes are validated, cached and announced immediately, then
// forwarded to the gateway. A failed forward is logged and counted but not
// returned to the caller; the next gateway snapshot restores the real state.
package tradfri
