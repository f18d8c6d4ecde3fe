// Package influxdb records TRÅDFRI property history in InfluxDB.
//
// Every property value change the bridge observes is written as one point
// in the "tradfri_property" measurement, tagged with device_id,
// device_type and property. History is optional; when disabled the bridge
// runs without it.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history off
//	}
//	client.SetOnError(func(err error) { logger.Warn("influx write", "error", err) })
//	client.WritePropertyValue("65537", "Lightbulb", "on", true)
package influxdb
