package tradfri

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// recordingHost records host notifications.
type recordingHost struct {
	mu      sync.Mutex
	added   []Device
	changes []change
}

type change struct {
	deviceID string
	property string
	value    any
}

func (h *recordingHost) DeviceAdded(d Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, d)
}

func (h *recordingHost) PropertyChanged(d Device, p Binding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, change{deviceID: d.ID(), property: p.Name(), value: p.Value()})
}

func (h *recordingHost) addedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.added)
}

func (h *recordingHost) changesFor(property string) []change {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []change
	for _, c := range h.changes {
		if c.property == property {
			out = append(out, c)
		}
	}
	return out
}

// recordingCommander records gateway writes and can be told to fail.
type recordingCommander struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (c *recordingCommander) record(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
	return c.err
}

func (c *recordingCommander) SetLightOnOff(_ context.Context, id int, on bool) error {
	return c.record("light %d on=%t", id, on)
}

func (c *recordingCommander) SetPlugOnOff(_ context.Context, id int, on bool) error {
	return c.record("plug %d on=%t", id, on)
}

func (c *recordingCommander) SetBrightness(_ context.Context, id int, percent int) error {
	return c.record("brightness %d %d", id, percent)
}

func (c *recordingCommander) SetColor(_ context.Context, id int, hex string) error {
	return c.record("color %d %s", id, hex)
}

func (c *recordingCommander) SetColorTemperature(_ context.Context, id int, percent float64) error {
	return c.record("colortemp %d %.1f", id, percent)
}

func (c *recordingCommander) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// recordingLogger counts log calls by level.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

var errGatewayDown = errors.New("gateway down")

func newTestServices() (Services, *recordingHost, *recordingCommander) {
	host := &recordingHost{}
	cmd := &recordingCommander{}
	return Services{Host: host, Commander: cmd, Logger: &recordingLogger{}}, host, cmd
}

// Accessory builders.

func bulb(id int, model string, lights ...Light) *Accessory {
	return &Accessory{
		ID:         id,
		Name:       fmt.Sprintf("bulb-%d", id),
		Type:       AccessoryLightbulb,
		DeviceInfo: DeviceInfo{Manufacturer: "IKEA of Sweden", ModelNumber: model, PowerSource: PowerSourceAC},
		Lights:     lights,
	}
}

func plug(id int, plugs ...Plug) *Accessory {
	return &Accessory{
		ID:         id,
		Name:       fmt.Sprintf("plug-%d", id),
		Type:       AccessoryPlug,
		DeviceInfo: DeviceInfo{ModelNumber: "TRADFRI control outlet", PowerSource: PowerSourceAC},
		Plugs:      plugs,
	}
}

func remote(id int, power PowerSource, battery *int) *Accessory {
	return &Accessory{
		ID:         id,
		Name:       fmt.Sprintf("remote-%d", id),
		Type:       AccessoryRemote,
		DeviceInfo: DeviceInfo{ModelNumber: "TRADFRI remote control", PowerSource: power, Battery: battery},
		Switches:   []Switch{{}},
	}
}
