package tradfri

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/mqtt"
)

// commandTimeout bounds a property write coming from Core.
const commandTimeout = 5 * time.Second

// Bridge connects one gateway session to Gray Logic Core.
// It handles:
//   - Turning accessory snapshots into device models via the Dispatcher
//   - Announcing devices and publishing property changes over MQTT
//   - Receiving property writes over MQTT and acknowledging them
//   - Health reporting and graceful shutdown
//
// Bridge implements Host.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	bridgeID    string
	gatewayName string
	qos         byte

	mqtt       MQTTClient
	gateway    Gateway
	dispatcher *Dispatcher
	session    *Session
	health     *HealthReporter
	telemetry  PropertyRecorder
	store      UnsupportedRecorder
	metrics    *Metrics

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// It is satisfied by *mqtt.Client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Gateway is the gateway session the bridge drives.
// It is satisfied by *Client.
type Gateway interface {
	Commander
	AccessorySource
	GatewayState
}

// PropertyRecorder stores property values as time series (optional).
// It is satisfied by *influxdb.Client.
type PropertyRecorder interface {
	WritePropertyValue(deviceID, deviceType, property string, value any)
}

// UnsupportedRecorder persists rejected accessories (optional).
// It is satisfied by *Store.
type UnsupportedRecorder interface {
	SaveUnsupported(ctx context.Context, gateway string, e UnsupportedEntry) error
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// BridgeID identifies the bridge in health messages. Required.
	BridgeID string

	// GatewayName is the paired gateway's name.
	GatewayName string

	// Version is the bridge software version.
	Version string

	// QoS is used for every publish and subscription. Default: 1
	QoS byte

	// HealthInterval is how often health is published. Default: 30s
	HealthInterval time.Duration

	// Debug logs every accessory snapshot.
	Debug bool

	// MQTTClient is the MQTT client implementation. Required.
	MQTTClient MQTTClient

	// Gateway is the connected gateway client. Required.
	Gateway Gateway

	// Session holds classification state. A new one is created if nil.
	Session *Session

	// Telemetry is optional.
	Telemetry PropertyRecorder

	// Store is optional.
	Store UnsupportedRecorder

	// Metrics is optional.
	Metrics *Metrics

	// Logger is optional.
	Logger Logger
}

// NewBridge creates a new bridge instance. Call Start, then Run.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.BridgeID == "" {
		return nil, fmt.Errorf("bridge ID is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}

	session := opts.Session
	if session == nil {
		session = NewSession()
	}
	qos := opts.QoS
	if qos == 0 {
		qos = 1
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		bridgeID:    opts.BridgeID,
		gatewayName: opts.GatewayName,
		qos:         qos,
		mqtt:        opts.MQTTClient,
		gateway:     opts.Gateway,
		session:     session,
		telemetry:   opts.Telemetry,
		store:       opts.Store,
		metrics:     opts.Metrics,
		done:        make(chan struct{}),
		ctx:         ctx,
		ctxCancel:   ctxCancel,
		logger:      opts.Logger,
	}

	dispatcher, err := NewDispatcher(DispatcherOptions{
		Session:       session,
		Host:          b,
		Commander:     opts.Gateway,
		Logger:        opts.Logger,
		Metrics:       opts.Metrics,
		Debug:         opts.Debug,
		OnUnsupported: b.recordUnsupported,
	})
	if err != nil {
		ctxCancel()
		return nil, err
	}
	b.dispatcher = dispatcher

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:    opts.BridgeID,
		GatewayName: opts.GatewayName,
		Version:     opts.Version,
		Interval:    opts.HealthInterval,
		Publisher:   opts.MQTTClient,
		Gateway:     opts.Gateway,
		Session:     session,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to commands and begins health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	topic := mqtt.Topics{}.AllCommands()
	if err := b.mqtt.Subscribe(topic, b.qos, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	b.health.Start(ctx)

	b.logInfo("bridge started",
		"bridge_id", b.bridgeID,
		"gateway", b.gatewayName)
	return nil
}

// Run feeds gateway snapshots to the dispatcher until ctx is cancelled,
// Stop is called, or the gateway session drops.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-b.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := b.gateway.ObserveDevices(ctx, b.dispatcher.OnAccessoryUpdated)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends health reporting and aborts in-flight commands.
// Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.ctxCancel()
		b.health.Stop()
		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// Session returns the bridge's classification state.
func (b *Bridge) Session() *Session {
	return b.session
}

// Health returns the current health snapshot.
func (b *Bridge) Health() HealthMessage {
	return b.health.Snapshot()
}

// DeviceAdded implements Host. It publishes the retained device description.
func (b *Bridge) DeviceAdded(d Device) {
	payload, err := json.Marshal(NewDiscoveryMessage(d, b.gatewayName))
	if err != nil {
		b.logError("failed to marshal device description", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.Discovery(d.ID()), payload, b.qos, true); err != nil {
		b.logError("failed to publish device description", err)
	}
	b.logInfo("device added",
		"device_id", d.ID(),
		"title", d.Title(),
		"kind", string(d.Kind()))
}

// PropertyChanged implements Host. It publishes the device's retained state
// and records the new value.
func (b *Bridge) PropertyChanged(d Device, p Binding) {
	payload, err := json.Marshal(NewStateMessage(d, p.Name()))
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.State(d.ID()), payload, b.qos, true); err != nil {
		b.logError("failed to publish state", err)
	}

	if b.telemetry != nil {
		b.telemetry.WritePropertyValue(d.ID(), string(d.Kind()), p.Name(), p.Value())
	}

	b.logDebug("property changed",
		"device_id", d.ID(),
		"property", p.Name(),
		"value", p.Value())
}

// WriteProperty validates and applies a property write from Core or the API.
//
// Returns:
//   - error: ErrDeviceNotFound, ErrPropertyNotFound, ErrReadOnly,
//     ErrInvalidValue or ErrOutOfRange. Gateway failures are not returned.
func (b *Bridge) WriteProperty(ctx context.Context, deviceID, property string, value any) error {
	d, err := b.session.Registry.Lookup(deviceID)
	if err != nil {
		return err
	}
	p, ok := d.Property(property)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrPropertyNotFound, deviceID, property)
	}
	return p.SetValue(ctx, value)
}

// handleMQTTMessage handles a property write command.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.metrics.CommandHandled(string(AckFailed))
		return fmt.Errorf("parsing command on %s: %w", topic, err)
	}
	if cmd.DeviceID == "" {
		cmd.DeviceID = mqtt.DeviceIDFromTopic(topic)
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"property", cmd.Property)

	if cmd.Property == "" {
		b.publishAckError(cmd, ErrCodeInvalidCommand, "property is required")
		return nil
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := b.WriteProperty(ctx, cmd.DeviceID, cmd.Property, cmd.Value); err != nil {
		b.publishAckError(cmd, ackCode(err), err.Error())
		return nil
	}
	b.publishAck(cmd)
	return nil
}

// ackCode maps a write error to an acknowledgement error code.
func ackCode(err error) string {
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return ErrCodeDeviceNotFound
	case errors.Is(err, ErrPropertyNotFound):
		return ErrCodePropertyNotFound
	case errors.Is(err, ErrReadOnly):
		return ErrCodeReadOnly
	case errors.Is(err, ErrOutOfRange):
		return ErrCodeOutOfRange
	case errors.Is(err, ErrInvalidValue):
		return ErrCodeInvalidValue
	default:
		return ErrCodeBridgeError
	}
}

func (b *Bridge) publishAck(cmd CommandMessage) {
	b.metrics.CommandHandled(string(AckAccepted))
	b.publishJSON(mqtt.Topics{}.Ack(cmd.DeviceID), NewAckMessage(cmd))
}

func (b *Bridge) publishAckError(cmd CommandMessage, code, message string) {
	b.metrics.CommandHandled(string(AckFailed))
	b.publishJSON(mqtt.Topics{}.Ack(cmd.DeviceID), NewAckError(cmd, code, message))
	b.logWarn("command rejected",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"code", code,
		"message", message)
}

func (b *Bridge) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logError("failed to marshal message", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		b.logError("failed to publish message", err)
	}
}

// recordUnsupported persists a rejected accessory in the background.
func (b *Bridge) recordUnsupported(e UnsupportedEntry) {
	if b.store == nil {
		return
	}
	select {
	case <-b.done:
		return
	default:
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
		defer cancel()
		if err := b.store.SaveUnsupported(ctx, b.gatewayName, e); err != nil {
			b.logError("failed to record unsupported accessory", err)
		}
	}()
}

// SetLogger sets the logger for the bridge and its health reporter.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	b.health.SetLogger(logger)
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
