package tradfri

import (
	"encoding/json"
	"fmt"
	"time"
)

// MQTT message types exchanged between Gray Logic Core and the TRÅDFRI bridge.

// protocol is the protocol identifier carried in bridge messages.
const protocol = "tradfri"

// CommandMessage is sent from Core to the bridge to write a device property.
// Topic: graylogic/command/tradfri/{device_id}
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with acknowledgments.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// DeviceID is the accessory id. Defaults to the topic's last segment.
	DeviceID string `json:"device_id"`

	// Property is the property name, e.g. "brightness".
	Property string `json:"property"`

	// Value is the new value. JSON numbers are accepted for integer properties
	// when they are whole.
	Value any `json:"value"`

	// Source indicates where the command originated ("api", "automation", ...).
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the value passed validation and was forwarded.
	// A gateway failure after this point is only logged.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command was rejected before reaching the gateway.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core to acknowledge a command.
// Topic: graylogic/ack/tradfri/{device_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Property  string    `json:"property"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidCommand   = "INVALID_COMMAND"
	ErrCodeDeviceNotFound   = "DEVICE_NOT_FOUND"
	ErrCodePropertyNotFound = "PROPERTY_NOT_FOUND"
	ErrCodeReadOnly         = "READ_ONLY"
	ErrCodeInvalidValue     = "INVALID_VALUE"
	ErrCodeOutOfRange       = "OUT_OF_RANGE"
	ErrCodeBridgeError      = "BRIDGE_ERROR"
)

// StateMessage is sent from the bridge to Core when a property changes.
// It carries every known property of the device so the retained message
// is a complete snapshot.
// Topic: graylogic/state/tradfri/{device_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
	Changed   string         `json:"changed"`
	Protocol  string         `json:"protocol"`
}

// DiscoveryMessage announces a device to Core.
// Topic: graylogic/discovery/tradfri/{device_id}
// QoS: 1, Retained: Yes
type DiscoveryMessage struct {
	DeviceDescription
	Timestamp time.Time `json:"timestamp"`
	Protocol  string    `json:"protocol"`
	Gateway   string    `json:"gateway"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline indicates the bridge is not connected (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's operational status.
// Topic: graylogic/health/tradfri
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// Gateway describes the gateway session.
	Gateway *GatewayStatus `json:"gateway,omitempty"`

	DevicesManaged int `json:"devices_managed"`
	Unsupported    int `json:"unsupported"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// GatewayStatus describes the gateway session.
type GatewayStatus struct {
	// Status is "connected" or "disconnected".
	Status  string `json:"status"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// UnmarshalJSON unmarshals a CommandMessage, accepting an empty timestamp.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type Alias CommandMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// NewAckMessage creates an acceptance for a command.
func NewAckMessage(cmd CommandMessage) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Property:  cmd.Property,
		Status:    AckAccepted,
		Protocol:  protocol,
	}
}

// NewAckError creates a rejection with error details.
func NewAckError(cmd CommandMessage, code, message string) AckMessage {
	ack := NewAckMessage(cmd)
	ack.Status = AckFailed
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}

// NewStateMessage snapshots every property of d that has a value.
func NewStateMessage(d Device, changed string) StateMessage {
	state := make(map[string]any)
	for _, p := range d.Properties() {
		if v := p.Value(); v != nil {
			state[p.Name()] = v
		}
	}
	return StateMessage{
		DeviceID:  d.ID(),
		Timestamp: time.Now().UTC(),
		State:     state,
		Changed:   changed,
		Protocol:  protocol,
	}
}

// NewDiscoveryMessage describes d for Core.
func NewDiscoveryMessage(d Device, gateway string) DiscoveryMessage {
	return DiscoveryMessage{
		DeviceDescription: d.Description(),
		Timestamp:         time.Now().UTC(),
		Protocol:          protocol,
		Gateway:           gateway,
	}
}
