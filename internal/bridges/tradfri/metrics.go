package tradfri

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects bridge counters on a private registry.
//
// All methods are safe on a nil receiver so components work without metrics.
type Metrics struct {
	registry *prometheus.Registry

	accessoryUpdates prometheus.Counter
	dispatchPanics   prometheus.Counter
	devices          prometheus.Gauge
	unsupported      prometheus.Gauge
	writeFailures    *prometheus.CounterVec
	commands         *prometheus.CounterVec
	gatewayConnected prometheus.Gauge
}

// NewMetrics creates and registers the bridge collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		accessoryUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graylogic_tradfri_accessory_updates_total",
			Help: "Accessory snapshots received from the gateway",
		}),
		dispatchPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graylogic_tradfri_dispatch_panics_total",
			Help: "Panics recovered while handling accessory snapshots",
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graylogic_tradfri_devices",
			Help: "Registered device models",
		}),
		unsupported: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graylogic_tradfri_unsupported_accessories",
			Help: "Accessories rejected by classification",
		}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graylogic_tradfri_write_failures_total",
			Help: "Property writes the gateway did not accept",
		}, []string{"property"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graylogic_tradfri_commands_total",
			Help: "Property write commands received from the host, by result",
		}, []string{"result"}),
		gatewayConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graylogic_tradfri_gateway_connected",
			Help: "1 if the gateway session is up, 0 otherwise",
		}),
	}

	m.registry.MustRegister(
		m.accessoryUpdates,
		m.dispatchPanics,
		m.devices,
		m.unsupported,
		m.writeFailures,
		m.commands,
		m.gatewayConnected,
	)
	return m
}

// Registry returns the registry for exposing via promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SetGatewayConnected records the gateway session state.
func (m *Metrics) SetGatewayConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.gatewayConnected.Set(1)
		return
	}
	m.gatewayConnected.Set(0)
}

// CommandHandled counts a host command by result ("accepted" or "failed").
func (m *Metrics) CommandHandled(result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(result).Inc()
}

func (m *Metrics) accessoryUpdate() {
	if m == nil {
		return
	}
	m.accessoryUpdates.Inc()
}

func (m *Metrics) dispatchPanic() {
	if m == nil {
		return
	}
	m.dispatchPanics.Inc()
}

func (m *Metrics) setCounts(devices, unsupported int) {
	if m == nil {
		return
	}
	m.devices.Set(float64(devices))
	m.unsupported.Set(float64(unsupported))
}

func (m *Metrics) writeFailed(property string) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues(property).Inc()
}
