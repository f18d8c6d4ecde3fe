package tradfri

import (
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	svc, _, _ := newTestServices()
	r := NewRegistry()

	a := NewSmartPlug(svc, plug(20))
	b := NewLightBulb(svc, bulb(10, ""))

	if err := r.Add(a); err != nil {
		t.Fatalf("Add(a) error = %v", err)
	}
	if err := r.Add(b); err != nil {
		t.Fatalf("Add(b) error = %v", err)
	}
	if err := r.Add(NewSmartPlug(svc, plug(20))); err == nil {
		t.Error("Add() with duplicate id error = nil, want error")
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	devices := r.Devices()
	if len(devices) != 2 || devices[0].ID() != "20" || devices[1].ID() != "10" {
		t.Errorf("Devices() not in registration order: %v", devices)
	}

	if d, ok := r.Get(10); !ok || d != Device(b) {
		t.Errorf("Get(10) = %v, %v", d, ok)
	}

	if _, err := r.Lookup("20"); err != nil {
		t.Errorf("Lookup(20) error = %v", err)
	}
	for _, id := range []string{"99", "abc", ""} {
		if _, err := r.Lookup(id); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Lookup(%q) error = %v, want ErrDeviceNotFound", id, err)
		}
	}
}

func TestUnsupportedSet(t *testing.T) {
	s := NewUnsupportedSet()

	if !s.Add(UnsupportedEntry{AccessoryID: 5, Reason: "no plug entries"}) {
		t.Error("Add() first time = false, want true")
	}
	if s.Add(UnsupportedEntry{AccessoryID: 5, Reason: "other"}) {
		t.Error("Add() second time = true, want false")
	}
	s.Add(UnsupportedEntry{AccessoryID: 2})

	if !s.Contains(5) || s.Contains(3) {
		t.Error("Contains() mismatch")
	}

	entries := s.Entries()
	if len(entries) != 2 || entries[0].AccessoryID != 2 || entries[1].AccessoryID != 5 {
		t.Errorf("Entries() = %v", entries)
	}
	if entries[1].Reason != "no plug entries" {
		t.Errorf("Entries()[1].Reason = %q, first reason should be kept", entries[1].Reason)
	}
}
