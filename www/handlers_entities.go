package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hairops/store"
)

// --- Zones ---

func (h *Handlers) apiListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.engine.DB().ListZones()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, zones)
}

func (h *Handlers) apiGetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.engine.DB().GetZone(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, zone)
}

func (h *Handlers) apiCreateZone(w http.ResponseWriter, r *http.Request) {
	var z store.Zone
	if err := decodeJSON(r, &z); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if z.Name == "" {
		h.jsonError(w, "name is required", http.StatusUnprocessableEntity)
		return
	}
	if err := h.engine.DB().CreateZone(&z); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("zone", z.ID, "created", "", z.Name, h.getUsername(r))
	h.jsonOK(w, z)
}

func (h *Handlers) apiUpdateZone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	old, err := h.engine.DB().GetZone(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	var z store.Zone
	if err := decodeJSON(r, &z); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	z.ID = id
	if err := h.engine.DB().UpdateZone(&z); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("zone", id, "updated", old.Name, z.Name, h.getUsername(r))
	h.jsonOK(w, z)
}

func (h *Handlers) apiDeleteZone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DB().DeleteZone(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("zone", id, "deleted", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

// --- Providers ---

func (h *Handlers) apiListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.engine.DB().ListProviders()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, providers)
}

func (h *Handlers) apiGetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.engine.DB().GetProvider(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, provider)
}

func (h *Handlers) apiCreateProvider(w http.ResponseWriter, r *http.Request) {
	var p store.Provider
	if err := decodeJSON(r, &p); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		h.jsonError(w, "name is required", http.StatusUnprocessableEntity)
		return
	}
	if err := h.engine.DB().CreateProvider(&p); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("provider", p.ID, "created", "", p.Name, h.getUsername(r))
	h.jsonOK(w, p)
}

func (h *Handlers) apiUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.engine.DB().GetProvider(id); err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	var p store.Provider
	if err := decodeJSON(r, &p); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = id
	if err := h.engine.DB().UpdateProvider(&p); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("provider", id, "updated", "", p.Name, h.getUsername(r))
	h.jsonOK(w, p)
}

func (h *Handlers) apiDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DB().DeleteProvider(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("provider", id, "deleted", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

// --- Clients ---

func (h *Handlers) apiListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.engine.DB().ListClients(r.URL.Query().Get("zone_id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, clients)
}

func (h *Handlers) apiGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.engine.DB().GetClient(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, client)
}

func (h *Handlers) apiCreateClient(w http.ResponseWriter, r *http.Request) {
	var c store.Client
	if err := decodeJSON(r, &c); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c.Name == "" {
		h.jsonError(w, "name is required", http.StatusUnprocessableEntity)
		return
	}
	if c.MinLevel > c.MaxLevel {
		h.jsonError(w, "min_level exceeds max_level", http.StatusUnprocessableEntity)
		return
	}
	if err := h.engine.DB().CreateClient(&c); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("client", c.ID, "created", "", c.Name, h.getUsername(r))
	h.jsonOK(w, c)
}

func (h *Handlers) apiUpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.engine.DB().GetClient(id); err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	var c store.Client
	if err := decodeJSON(r, &c); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c.MinLevel > c.MaxLevel {
		h.jsonError(w, "min_level exceeds max_level", http.StatusUnprocessableEntity)
		return
	}
	c.ID = id
	if err := h.engine.DB().UpdateClient(&c); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("client", id, "updated", "", c.Name, h.getUsername(r))
	h.jsonOK(w, c)
}

func (h *Handlers) apiDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DB().DeleteClient(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("client", id, "deleted", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

// --- Vehicles ---

func (h *Handlers) apiListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.engine.DB().ListVehicles()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, vehicles)
}

func (h *Handlers) apiGetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.engine.DB().GetVehicle(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, vehicle)
}

func (h *Handlers) apiCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v store.Vehicle
	if err := decodeJSON(r, &v); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v.Plate == "" {
		h.jsonError(w, "plate is required", http.StatusUnprocessableEntity)
		return
	}
	if v.Capacity <= 0 {
		h.jsonError(w, "capacity must be positive", http.StatusUnprocessableEntity)
		return
	}
	if err := h.engine.DB().CreateVehicle(&v); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("vehicle", v.ID, "created", "", v.Plate, h.getUsername(r))
	h.jsonOK(w, v)
}

func (h *Handlers) apiUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.engine.DB().GetVehicle(id); err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	var v store.Vehicle
	if err := decodeJSON(r, &v); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v.Capacity <= 0 {
		h.jsonError(w, "capacity must be positive", http.StatusUnprocessableEntity)
		return
	}
	v.ID = id
	if err := h.engine.DB().UpdateVehicle(&v); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("vehicle", id, "updated", "", v.Plate, h.getUsername(r))
	h.jsonOK(w, v)
}

func (h *Handlers) apiDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DB().DeleteVehicle(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.DB().AppendAudit("vehicle", id, "deleted", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "deleted"})
}
