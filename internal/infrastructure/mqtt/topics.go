package mqtt

import "fmt"

const (
	// TopicPrefix is the root of every topic this bridge touches.
	TopicPrefix = "graylogic"

	// Protocol is the protocol segment used in all bridge topics.
	Protocol = "tradfri"
)

// Topics builds the bridge's MQTT topics.
//
// All topics use the flat scheme graylogic/{category}/tradfri/{device_id}:
//
//	topics := mqtt.Topics{}
//	topics.State("65537")   // graylogic/state/tradfri/65537
type Topics struct{}

// State returns the retained property-state topic for a device.
//
// Example: graylogic/state/tradfri/65537
func (Topics) State(deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, deviceID)
}

// Command returns the command topic for a device.
//
// Example: graylogic/command/tradfri/65537
func (Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, Protocol, deviceID)
}

// Ack returns the command acknowledgement topic for a device.
//
// Example: graylogic/ack/tradfri/65537
func (Topics) Ack(deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, Protocol, deviceID)
}

// Discovery returns the retained device-description topic for a device.
//
// Example: graylogic/discovery/tradfri/65537
func (Topics) Discovery(deviceID string) string {
	return fmt.Sprintf("%s/discovery/%s/%s", TopicPrefix, Protocol, deviceID)
}

// Health returns the bridge health topic. It doubles as the LWT topic.
//
// Example: graylogic/health/tradfri
func (Topics) Health() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}

// AllCommands returns the wildcard pattern matching commands for every device.
//
// Pattern: graylogic/command/tradfri/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, Protocol)
}

// DeviceIDFromTopic returns the last topic segment, or "" when the topic has none.
func DeviceIDFromTopic(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == '/' {
			return topic[i+1:]
		}
	}
	return ""
}
