package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementProperty is the measurement holding device property history.
const MeasurementProperty = "tradfri_property"

// WritePropertyValue records one property value change.
//
// Booleans and numbers are stored in the "value" field. Strings (colours)
// are stored in "value_str" so the numeric field keeps a single type.
// Unsupported value types are dropped.
//
// Example:
//
//	client.WritePropertyValue("65537", "Lightbulb", "brightness", 40)
func (c *Client) WritePropertyValue(deviceID, deviceType, property string, value any) {
	if !c.IsConnected() {
		return
	}

	point := NewPropertyPoint(deviceID, deviceType, property, value, time.Now())
	if point == nil {
		return
	}
	c.writeAPI.WritePoint(point)
}

// NewPropertyPoint builds the point written by WritePropertyValue.
// It returns nil for value types that have no field mapping.
func NewPropertyPoint(deviceID, deviceType, property string, value any, ts time.Time) *write.Point {
	fields := make(map[string]interface{}, 1)

	switch v := value.(type) {
	case bool:
		fields["value"] = v
	case int:
		fields["value"] = float64(v)
	case int64:
		fields["value"] = float64(v)
	case float64:
		fields["value"] = v
	case string:
		fields["value_str"] = v
	default:
		return nil
	}

	return write.NewPoint(
		MeasurementProperty,
		map[string]string{
			"device_id":   deviceID,
			"device_type": deviceType,
			"property":    property,
		},
		fields,
		ts,
	)
}
