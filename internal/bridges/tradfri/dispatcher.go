package tradfri

import (
	"fmt"
	"sync"
	"time"
)

// Dispatcher turns accessory snapshots into device models and refreshes.
//
// Each accessory id is classified at most once and gets at most one model.
// Snapshots are handled one at a time even when the gateway client
// delivers them from several goroutines. A panic while handling one
// snapshot is recovered and logged; later snapshots are still processed.
type Dispatcher struct {
	session *Session
	svc     Services
	debug   bool

	// onUnsupported is called once per rejected accessory (optional).
	onUnsupported func(UnsupportedEntry)

	now func() time.Time
	mu  sync.Mutex
}

// DispatcherOptions holds configuration for creating a dispatcher.
type DispatcherOptions struct {
	// Session owns the registry and unsupported set. Required.
	Session *Session

	// Host receives DeviceAdded and PropertyChanged. Required.
	Host Host

	// Commander receives property writes. Required.
	Commander Commander

	// Logger is optional.
	Logger Logger

	// Metrics is optional.
	Metrics *Metrics

	// Debug logs every snapshot received.
	Debug bool

	// OnUnsupported is called once for each newly rejected accessory.
	OnUnsupported func(UnsupportedEntry)
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if opts.Host == nil {
		return nil, fmt.Errorf("host is required")
	}
	if opts.Commander == nil {
		return nil, fmt.Errorf("commander is required")
	}

	return &Dispatcher{
		session: opts.Session,
		svc: Services{
			Host:      opts.Host,
			Commander: opts.Commander,
			Logger:    opts.Logger,
			Metrics:   opts.Metrics,
		},
		debug:         opts.Debug,
		onUnsupported: opts.OnUnsupported,
		now:           time.Now,
	}, nil
}

// Session returns the dispatcher's session.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// OnAccessoryUpdated handles one snapshot:
//  1. A registered accessory is refreshed.
//  2. A rejected accessory is ignored.
//  3. Otherwise it is classified; a supported accessory gets a model that
//     is registered, announced to the host and refreshed straight away.
func (d *Dispatcher) OnAccessoryUpdated(acc *Accessory) {
	if acc == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.svc.Metrics.dispatchPanic()
			d.logError("recovered panic handling accessory update",
				"accessory_id", acc.ID,
				"panic", r)
		}
	}()

	d.svc.Metrics.accessoryUpdate()
	if d.debug {
		d.logDebug("received accessory update",
			"accessory_id", acc.ID,
			"name", acc.Name,
			"type", acc.Type.String())
	}

	if dev, ok := d.session.Registry.Get(acc.ID); ok {
		dev.Refresh(acc)
		return
	}

	if d.session.Unsupported.Contains(acc.ID) {
		return
	}

	dev, err := d.create(acc)
	if err != nil {
		d.reject(acc, err)
		return
	}

	d.svc.Host.DeviceAdded(dev)
	d.syncGauges()
	dev.Refresh(acc)
}

// create classifies and constructs a model, registering it on success.
// A panic during construction counts as a rejection so the accessory is
// never classified again.
func (d *Dispatcher) create(acc *Accessory) (dev Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.svc.Metrics.dispatchPanic()
			dev, err = nil, fmt.Errorf("%w: construction panicked: %v", ErrUnsupportedAccessory, r)
		}
	}()

	kind, err := Classify(acc)
	if err != nil {
		return nil, err
	}

	dev, err = newDevice(kind, d.svc, acc)
	if err != nil {
		return nil, err
	}
	if err := d.session.Registry.Add(dev); err != nil {
		return nil, err
	}

	d.logInfo("created device",
		"accessory_id", acc.ID,
		"name", acc.Name,
		"kind", string(kind))
	return dev, nil
}

func (d *Dispatcher) reject(acc *Accessory, cause error) {
	reason := trimSentinel(cause)

	entry := UnsupportedEntry{
		AccessoryID: acc.ID,
		Name:        acc.Name,
		Type:        acc.Type,
		Category:    acc.Type.String(),
		Reason:      reason,
		FirstSeen:   d.now().UTC(),
	}
	if !d.session.Unsupported.Add(entry) {
		return
	}

	d.logWarn("unsupported accessory",
		"accessory_id", acc.ID,
		"name", acc.Name,
		"type", acc.Type.String(),
		"reason", reason)
	d.syncGauges()

	if d.onUnsupported != nil {
		d.onUnsupported(entry)
	}
}

// trimSentinel drops the "tradfri: unsupported accessory: " prefix.
func trimSentinel(err error) string {
	msg := err.Error()
	prefix := ErrUnsupportedAccessory.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func (d *Dispatcher) syncGauges() {
	d.svc.Metrics.setCounts(d.session.Registry.Len(), d.session.Unsupported.Len())
}

func (d *Dispatcher) logDebug(msg string, keysAndValues ...any) {
	if d.svc.Logger != nil {
		d.svc.Logger.Debug(msg, keysAndValues...)
	}
}

func (d *Dispatcher) logInfo(msg string, keysAndValues ...any) {
	if d.svc.Logger != nil {
		d.svc.Logger.Info(msg, keysAndValues...)
	}
}

func (d *Dispatcher) logWarn(msg string, keysAndValues ...any) {
	if d.svc.Logger != nil {
		d.svc.Logger.Warn(msg, keysAndValues...)
	}
}

func (d *Dispatcher) logError(msg string, keysAndValues ...any) {
	if d.svc.Logger != nil {
		d.svc.Logger.Error(msg, keysAndValues...)
	}
}
