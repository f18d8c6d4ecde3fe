package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-tradfri/internal/bridges/tradfri"
)

// setPropertyRequest is the body of PUT /devices/{id}/properties/{name}.
type setPropertyRequest struct {
	Value json.RawMessage `json:"value"`
}

// handleListDevices returns every registered device in registration order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.bridge.Session().Registry.Devices()
	out := make([]tradfri.DeviceDescription, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Description())
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": out, "count": len(out)})
}

// handleGetDevice returns a single device description.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.bridge.Session().Registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, d.Description())
}

// handleGetProperty returns one property with its metadata and cached value.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProperty(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, describe(p))
}

// handleSetProperty writes a property value.
//
// The body is {"value": ...}. The response is the property after the
// write was cached; whether the gateway accepted it is reported through
// state updates, not here.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeBadRequest(w, "invalid value")
		return
	}

	if err := s.bridge.WriteProperty(r.Context(), id, name, value); err != nil {
		s.logger.Debug("property write rejected", "device_id", id, "property", name, "error", err)
		writeBridgeError(w, err)
		return
	}

	p, ok := s.lookupProperty(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, describe(p))
}

// handleListUnsupported returns the accessories the bridge rejected.
func (s *Server) handleListUnsupported(w http.ResponseWriter, _ *http.Request) {
	entries := s.bridge.Session().Unsupported.Entries()
	writeJSON(w, http.StatusOK, map[string]any{"accessories": entries, "count": len(entries)})
}

// lookupProperty resolves the {id} and {name} URL parameters, writing a
// 404 when either is unknown.
func (s *Server) lookupProperty(w http.ResponseWriter, r *http.Request) (tradfri.Binding, bool) {
	d, err := s.bridge.Session().Registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "device not found")
		return nil, false
	}
	p, ok := d.Property(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w, "property not found")
		return nil, false
	}
	return p, true
}

func describe(p tradfri.Binding) tradfri.PropertyDescription {
	return tradfri.PropertyDescription{
		Name:     p.Name(),
		Metadata: p.Metadata(),
		Value:    p.Value(),
	}
}
