package tradfri

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sync"
)

// Property value types.
const (
	ValueTypeBoolean = "boolean"
	ValueTypeInteger = "integer"
	ValueTypeString  = "string"
)

// Metadata describes a property to the host.
type Metadata struct {
	// SemanticType is the schema @type, e.g. "BrightnessProperty".
	SemanticType string `json:"@type,omitempty"`

	// Type is the primitive value type: boolean, integer or string.
	Type string `json:"type"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Minimum     *int   `json:"minimum,omitempty"`
	Maximum     *int   `json:"maximum,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
}

// Binding is the type-erased view of a property used by hosts and transports.
type Binding interface {
	// Name is the property name, unique within its device.
	Name() string

	// Metadata describes the property.
	Metadata() Metadata

	// Value returns the cached value, or nil before the first refresh.
	Value() any

	// SetValue validates v, caches it, and forwards it to the gateway.
	// Only validation failures are returned; forwarding failures are logged.
	SetValue(ctx context.Context, v any) error
}

// propertyValue lists the primitive types a property may hold.
type propertyValue interface {
	bool | int | string
}

// Setter forwards a property value to the gateway.
type Setter[T propertyValue] func(ctx context.Context, v T) error

// Property is a single typed device attribute with a cached value.
//
// The value type is fixed by T and the setter is fixed at construction.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Writes from the host and
//     refreshes from the gateway may interleave; the last one wins.
type Property[T propertyValue] struct {
	name     string
	meta     Metadata
	set      Setter[T]
	validate func(T) error

	mu       sync.RWMutex
	value    T
	hasValue bool

	// Installed by the owning device.
	changed     func(Binding)
	writeFailed func(Binding, error)
}

// NewProperty creates a property. A nil setter makes the property read-only.
func NewProperty[T propertyValue](name string, meta Metadata, set Setter[T]) *Property[T] {
	if set == nil {
		meta.ReadOnly = true
	}
	if meta.Type == "" {
		meta.Type = valueTypeOf[T]()
	}
	return &Property[T]{name: name, meta: meta, set: set}
}

// withValidator adds a format check applied to writes.
func (p *Property[T]) withValidator(fn func(T) error) *Property[T] {
	p.validate = fn
	return p
}

// Name implements Binding.
func (p *Property[T]) Name() string {
	return p.name
}

// Metadata implements Binding.
func (p *Property[T]) Metadata() Metadata {
	return p.meta
}

// Value implements Binding.
func (p *Property[T]) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.hasValue {
		return nil
	}
	return p.value
}

// Get returns the typed cached value and whether one has been set.
func (p *Property[T]) Get() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.hasValue
}

// update stores v and announces it when it differs from the cached value.
// The first value is always announced.
func (p *Property[T]) update(v T) bool {
	p.mu.Lock()
	if p.hasValue && p.value == v {
		p.mu.Unlock()
		return false
	}
	p.value = v
	p.hasValue = true
	changed := p.changed
	p.mu.Unlock()

	if changed != nil {
		changed(p)
	}
	return true
}

// SetValue implements Binding.
//
// The value is checked against the property's type, range and format. A
// valid value is cached and announced before it is forwarded, and a
// forwarding failure leaves the cached value in place.
//
// Returns:
//   - error: ErrReadOnly, ErrInvalidValue or ErrOutOfRange; never a forwarding error
func (p *Property[T]) SetValue(ctx context.Context, v any) error {
	if p.meta.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, p.name)
	}

	typed, err := coerce[T](v)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if err := p.checkRange(typed); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if p.validate != nil {
		if err := p.validate(typed); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}

	p.update(typed)

	if err := p.set(ctx, typed); err != nil {
		p.mu.RLock()
		failed := p.writeFailed
		p.mu.RUnlock()
		if failed != nil {
			failed(p, err)
		}
	}
	return nil
}

func (p *Property[T]) checkRange(v T) error {
	n, ok := any(v).(int)
	if !ok {
		return nil
	}
	if p.meta.Minimum != nil && n < *p.meta.Minimum {
		return fmt.Errorf("%w: %d < %d", ErrOutOfRange, n, *p.meta.Minimum)
	}
	if p.meta.Maximum != nil && n > *p.meta.Maximum {
		return fmt.Errorf("%w: %d > %d", ErrOutOfRange, n, *p.meta.Maximum)
	}
	return nil
}

// coerce converts a host-supplied value to T. JSON numbers arrive as
// float64 and are accepted for integer properties when they are whole.
func coerce[T propertyValue](v any) (T, error) {
	var zero T
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	if _, wantInt := any(zero).(int); wantInt {
		var n float64
		switch x := v.(type) {
		case float64:
			n = x
		case float32:
			n = float64(x)
		case int64:
			n = float64(x)
		case int32:
			n = float64(x)
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return zero, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, x)
			}
			n = f
		default:
			return zero, fmt.Errorf("%w: want integer, got %T", ErrInvalidValue, v)
		}
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return zero, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, n)
		}
		return any(int(n)).(T), nil
	}

	return zero, fmt.Errorf("%w: want %s, got %T", ErrInvalidValue, valueTypeOf[T](), v)
}

func valueTypeOf[T propertyValue]() string {
	var zero T
	switch any(zero).(type) {
	case bool:
		return ValueTypeBoolean
	case int:
		return ValueTypeInteger
	default:
		return ValueTypeString
	}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateColor accepts "#RRGGBB".
func validateColor(v string) error {
	if !colorPattern.MatchString(v) {
		return fmt.Errorf("%w: %q is not #RRGGBB", ErrInvalidValue, v)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
