// Package mqtt connects the TRÅDFRI bridge to the Gray Logic MQTT bus.
//
// The bridge publishes device descriptions and property state, and
// receives property commands, over the flat topic scheme
// graylogic/{category}/tradfri/{device_id}.
//
// # Features
//
//   - Auto-reconnect with subscription restoration
//   - Last Will on graylogic/health/tradfri for crash detection
//   - Panic recovery around message handlers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1, handleCommand)
package mqtt
