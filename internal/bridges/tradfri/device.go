package tradfri

import (
	"context"
	"strconv"
)

// SchemaContext is the @context advertised with every device description.
const SchemaContext = "https://iot.mozilla.org/schemas/"

// Kind names a device model variant.
type Kind string

// Device model variants. KindLightBulb names the on/off base embedded by
// the other lights; Classify never picks it on its own.
const (
	KindBatteryDevice          Kind = "BatteryDevice"
	KindLightBulb              Kind = "LightBulb"
	KindDimmableLightBulb      Kind = "DimmableLightBulb"
	KindWhiteSpectrumLightBulb Kind = "WhiteSpectrumLightBulb"
	KindColorLightBulb         Kind = "ColorLightBulb"
	KindSmartPlug              Kind = "SmartPlug"
	KindUnsupported            Kind = "Unsupported"
)

// Device is a classified accessory with a fixed set of properties.
type Device interface {
	// ID is the accessory id as a string, used in topics and URLs.
	ID() string

	// AccessoryID is the gateway's numeric accessory id.
	AccessoryID() int

	// Title is the accessory name captured at creation.
	Title() string

	// Kind is the model variant.
	Kind() Kind

	// Types is the device's @type set.
	Types() []string

	// Properties returns the properties in insertion order.
	Properties() []Binding

	// Property looks up a property by name.
	Property(name string) (Binding, bool)

	// Refresh copies the snapshot's readings into the cached property values.
	// An empty relevant sub-list leaves the cache untouched.
	Refresh(acc *Accessory)

	// Description returns the device as advertised to the host.
	Description() DeviceDescription
}

// Host receives device lifecycle and property change notifications.
type Host interface {
	// DeviceAdded is called once per device, before its first refresh.
	DeviceAdded(d Device)

	// PropertyChanged is called when a cached property value changes.
	PropertyChanged(d Device, p Binding)
}

// Commander sends property writes to the gateway.
type Commander interface {
	SetLightOnOff(ctx context.Context, accessoryID int, on bool) error
	SetPlugOnOff(ctx context.Context, accessoryID int, on bool) error
	SetBrightness(ctx context.Context, accessoryID int, percent int) error
	SetColor(ctx context.Context, accessoryID int, hex string) error
	SetColorTemperature(ctx context.Context, accessoryID int, percent float64) error
}

// AccessorySource delivers accessory snapshots until ctx is cancelled.
type AccessorySource interface {
	ObserveDevices(ctx context.Context, onUpdate func(*Accessory)) error
}

// Logger is the logging interface used by the package.
// It is satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Services are the collaborators every device model uses.
type Services struct {
	Host      Host
	Commander Commander
	Logger    Logger

	// Metrics is optional.
	Metrics *Metrics
}

// DeviceDescription is the host-facing description of a device.
type DeviceDescription struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Context    string                `json:"@context"`
	Types      []string              `json:"@type"`
	Kind       Kind                  `json:"kind"`
	Properties []PropertyDescription `json:"properties"`
	Model      string                `json:"model,omitempty"`
	Firmware   string                `json:"firmware,omitempty"`
	Accessory  string                `json:"accessory_type"`
}

// PropertyDescription pairs a property's name with its metadata and value.
type PropertyDescription struct {
	Name string `json:"name"`
	Metadata
	Value any `json:"value"`
}

// device holds what every variant shares. Variants embed it and register
// their properties with add during construction.
type device struct {
	self        Device
	accessoryID int
	title       string
	kind        Kind
	types       []string
	info        DeviceInfo
	category    AccessoryType

	props  []Binding
	byName map[string]Binding

	svc Services
}

func (d *device) setup(self Device, svc Services, acc *Accessory, kind Kind, types ...string) {
	d.self = self
	d.accessoryID = acc.ID
	d.title = acc.Name
	d.kind = kind
	d.types = types
	d.info = acc.DeviceInfo
	d.category = acc.Type
	d.byName = make(map[string]Binding)
	d.svc = svc
}

// add registers a property and wires its change and failure callbacks.
// Property names are unique; a duplicate name panics because it is a
// programming error in a variant constructor.
func add[T propertyValue](d *device, p *Property[T]) *Property[T] {
	if _, dup := d.byName[p.name]; dup {
		panic("tradfri: duplicate property " + p.name)
	}
	p.changed = d.propertyChanged
	p.writeFailed = d.writeFailed
	d.props = append(d.props, p)
	d.byName[p.name] = p
	return p
}

func (d *device) propertyChanged(p Binding) {
	if d.svc.Host != nil {
		d.svc.Host.PropertyChanged(d.self, p)
	}
}

func (d *device) writeFailed(p Binding, err error) {
	d.svc.Metrics.writeFailed(p.Name())
	if d.svc.Logger != nil {
		d.svc.Logger.Error("failed to forward property write",
			"device_id", d.ID(),
			"device", d.title,
			"property", p.Name(),
			"error", err)
	}
}

// ID implements Device.
func (d *device) ID() string {
	return strconv.Itoa(d.accessoryID)
}

// AccessoryID implements Device.
func (d *device) AccessoryID() int {
	return d.accessoryID
}

// Title implements Device.
func (d *device) Title() string {
	return d.title
}

// Kind implements Device.
func (d *device) Kind() Kind {
	return d.kind
}

// Types implements Device.
func (d *device) Types() []string {
	out := make([]string, len(d.types))
	copy(out, d.types)
	return out
}

// Properties implements Device.
func (d *device) Properties() []Binding {
	out := make([]Binding, len(d.props))
	copy(out, d.props)
	return out
}

// Property implements Device.
func (d *device) Property(name string) (Binding, bool) {
	p, ok := d.byName[name]
	return p, ok
}

// Description implements Device.
func (d *device) Description() DeviceDescription {
	desc := DeviceDescription{
		ID:         d.ID(),
		Title:      d.title,
		Context:    SchemaContext,
		Types:      d.Types(),
		Kind:       d.kind,
		Properties: make([]PropertyDescription, 0, len(d.props)),
		Model:      d.info.ModelNumber,
		Firmware:   d.info.FirmwareVersion,
		Accessory:  d.category.String(),
	}
	for _, p := range d.props {
		desc.Properties = append(desc.Properties, PropertyDescription{
			Name:     p.Name(),
			Metadata: p.Metadata(),
			Value:    p.Value(),
		})
	}
	return desc
}
