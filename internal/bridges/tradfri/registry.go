package tradfri

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Registry maps accessory ids to their device models.
//
// Entries are only ever added. Reads are safe from any goroutine; writes
// come from the Dispatcher.
type Registry struct {
	mu      sync.RWMutex
	devices map[int]Device
	order   []int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[int]Device)}
}

// Add registers d. Adding a second device with the same id is an error.
func (r *Registry) Add(d Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.AccessoryID()
	if _, exists := r.devices[id]; exists {
		return fmt.Errorf("device %d already registered", id)
	}
	r.devices[id] = d
	r.order = append(r.order, id)
	return nil
}

// Get returns the device for an accessory id.
func (r *Registry) Get(accessoryID int) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[accessoryID]
	return d, ok
}

// Lookup returns the device for a string id as used in topics and URLs.
func (r *Registry) Lookup(id string) (Device, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	d, ok := r.Get(n)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	return d, nil
}

// Devices returns all devices in registration order.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// UnsupportedEntry records an accessory that could not be classified.
type UnsupportedEntry struct {
	AccessoryID int           `json:"accessory_id"`
	Name        string        `json:"name"`
	Type        AccessoryType `json:"type_code"`
	Category    string        `json:"type"`
	Reason      string        `json:"reason"`
	FirstSeen   time.Time     `json:"first_seen"`
}

// UnsupportedSet holds accessories that were examined and rejected.
// An id in the set is never classified again.
type UnsupportedSet struct {
	mu      sync.RWMutex
	entries map[int]UnsupportedEntry
}

// NewUnsupportedSet creates an empty set.
func NewUnsupportedSet() *UnsupportedSet {
	return &UnsupportedSet{entries: make(map[int]UnsupportedEntry)}
}

// Add records e. It returns false when the id was already present.
func (s *UnsupportedSet) Add(e UnsupportedEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.AccessoryID]; exists {
		return false
	}
	s.entries[e.AccessoryID] = e
	return true
}

// Contains reports whether the accessory was rejected.
func (s *UnsupportedSet) Contains(accessoryID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[accessoryID]
	return ok
}

// Entries returns all rejected accessories ordered by id.
func (s *UnsupportedSet) Entries() []UnsupportedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UnsupportedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccessoryID < out[j].AccessoryID })
	return out
}

// Len returns the number of rejected accessories.
func (s *UnsupportedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Session owns the classification state for one gateway connection.
// Several sessions can coexist in one process.
type Session struct {
	Registry    *Registry
	Unsupported *UnsupportedSet
}

// NewSession creates a session with empty state.
func NewSession() *Session {
	return &Session{
		Registry:    NewRegistry(),
		Unsupported: NewUnsupportedSet(),
	}
}
