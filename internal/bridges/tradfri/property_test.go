package tradfri

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestProperty_UpdateNotifiesOnChangeOnly(t *testing.T) {
	p := NewProperty[int]("level", Metadata{}, nil)
	var notified []any
	p.changed = func(b Binding) { notified = append(notified, b.Value()) }

	if v := p.Value(); v != nil {
		t.Errorf("Value() before first update = %v, want nil", v)
	}

	p.update(0)
	p.update(0)
	p.update(5)
	p.update(5)
	p.update(0)

	want := []any{0, 5, 0}
	if len(notified) != len(want) {
		t.Fatalf("notifications = %v, want %v", notified, want)
	}
	for i := range want {
		if notified[i] != want[i] {
			t.Errorf("notification[%d] = %v, want %v", i, notified[i], want[i])
		}
	}
}

func TestProperty_NilSetterIsReadOnly(t *testing.T) {
	p := NewProperty[int]("level", Metadata{}, nil)

	if !p.Metadata().ReadOnly {
		t.Error("Metadata().ReadOnly = false, want true")
	}
	if got := p.Metadata().Type; got != ValueTypeInteger {
		t.Errorf("Metadata().Type = %q, want %q", got, ValueTypeInteger)
	}

	err := p.SetValue(context.Background(), 10)
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetValue() error = %v, want ErrReadOnly", err)
	}
	if _, ok := p.Get(); ok {
		t.Error("read-only write changed the cached value")
	}
}

func TestProperty_SetValueValidation(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr error
		want    int
	}{
		{name: "int", value: 42, want: 42},
		{name: "whole float64 from JSON", value: float64(10), want: 10},
		{name: "json.Number", value: json.Number("7"), want: 7},
		{name: "minimum", value: 0, want: 0},
		{name: "maximum", value: 100, want: 100},
		{name: "fractional float", value: 10.5, wantErr: ErrInvalidValue},
		{name: "string", value: "50", wantErr: ErrInvalidValue},
		{name: "bool", value: true, wantErr: ErrInvalidValue},
		{name: "below minimum", value: -1, wantErr: ErrOutOfRange},
		{name: "above maximum", value: 101, wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent []int
			p := NewProperty("brightness", Metadata{Minimum: intPtr(0), Maximum: intPtr(100)},
				func(_ context.Context, v int) error {
					sent = append(sent, v)
					return nil
				})

			err := p.SetValue(context.Background(), tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SetValue(%v) error = %v, want %v", tt.value, err, tt.wantErr)
				}
				if len(sent) != 0 {
					t.Errorf("rejected value was forwarded: %v", sent)
				}
				if _, ok := p.Get(); ok {
					t.Error("rejected value was cached")
				}
				return
			}

			if err != nil {
				t.Fatalf("SetValue(%v) error = %v", tt.value, err)
			}
			if got, _ := p.Get(); got != tt.want {
				t.Errorf("cached value = %d, want %d", got, tt.want)
			}
			if len(sent) != 1 || sent[0] != tt.want {
				t.Errorf("forwarded = %v, want [%d]", sent, tt.want)
			}
		})
	}
}

func TestProperty_ForwardFailureKeepsValue(t *testing.T) {
	p := NewProperty("on", Metadata{}, func(context.Context, bool) error {
		return errGatewayDown
	})

	var failures []error
	var notified int
	p.writeFailed = func(_ Binding, err error) { failures = append(failures, err) }
	p.changed = func(Binding) { notified++ }

	if err := p.SetValue(context.Background(), true); err != nil {
		t.Fatalf("SetValue() error = %v, want nil", err)
	}

	if got, ok := p.Get(); !ok || !got {
		t.Errorf("cached value = %v (set=%v), want true", got, ok)
	}
	if notified != 1 {
		t.Errorf("change notifications = %d, want 1", notified)
	}
	if len(failures) != 1 || !errors.Is(failures[0], errGatewayDown) {
		t.Errorf("write failures = %v, want [gateway down]", failures)
	}
}

func TestProperty_Validator(t *testing.T) {
	p := NewProperty("color", Metadata{}, func(context.Context, string) error { return nil }).
		withValidator(validateColor)

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"#00ff00", false},
		{"#ABCDEF", false},
		{"00ff00", true},
		{"#00ff0", true},
		{"#gg0000", true},
		{"", true},
	}

	for _, tt := range tests {
		err := p.SetValue(context.Background(), tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidValue) {
			t.Errorf("SetValue(%q) error = %v, want ErrInvalidValue", tt.value, err)
		}
	}
}
