// Package api implements the HTTP REST API of the TRÅDFRI bridge.
//
// This package provides:
//   - Read access to the device registry and the unsupported accessory list
//   - Property reads and writes using the same path as MQTT commands
//   - The bridge health snapshot
//   - Prometheus metrics on /metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The server is a thin view over the bridge. Writes go through
// Bridge.WriteProperty, so validation, the optimistic cache update and
// the MQTT state publish behave exactly as they do for bus commands.
//
// # Graceful Degradation
//
// The API keeps serving while the gateway is unreachable. Reads return the
// last cached values and writes are validated and cached; forwarding
// failures show up in the logs and the write failure counter.
package api
