package handler

import (
	"net/http"

	"sensemaker/internal/domain"
)

// SetConfigRequest is the body of POST /api/tray-configs.
type SetConfigRequest struct {
	Name     string                           `json:"name"`
	Controls []domain.AssessmentControlConfig `json:"assessment_control_configs"`
}

// SetDefaultRequest is the body of PUT .../default-tray-config.
type SetDefaultRequest struct {
	Config domain.Address `json:"config"`
}

// ListConfigs returns every tray configuration
func (h *Handler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.svc.ListConfigs(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list tray configs", err)
		return
	}
	writeJSON(w, configs, http.StatusOK)
}

// GetConfig returns the current version of one tray configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	cfg, err := h.svc.GetConfig(r.Context(), addr)
	if err != nil {
		h.fail(w, r, "Failed to get tray config", err)
		return
	}
	if cfg == nil {
		notFound(w, "tray config", addr.String())
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

// SetConfig creates a tray configuration
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req SetConfigRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, "Invalid tray config", err)
		return
	}
	cfg, err := h.svc.SetConfig(r.Context(), req.Name, req.Controls)
	if err != nil {
		h.fail(w, r, "Failed to create tray config", err)
		return
	}
	writeJSON(w, cfg, http.StatusCreated)
}

// UpdateConfig revises the tray configuration written at {revision}
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	revision, err := addressParam(r, "revision")
	if err != nil {
		h.fail(w, r, "Invalid revision", err)
		return
	}
	var cfg domain.AssessmentTrayConfig
	if err := decode(w, r, &cfg); err != nil {
		h.fail(w, r, "Invalid tray config", err)
		return
	}
	addr, err := h.svc.UpdateConfig(r.Context(), revision, cfg)
	if err != nil {
		h.fail(w, r, "Failed to update tray config", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}

// DeleteConfig tombstones the tray configuration written at {revision}
func (h *Handler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	revision, err := addressParam(r, "revision")
	if err != nil {
		h.fail(w, r, "Invalid revision", err)
		return
	}
	addr, err := h.svc.DeleteConfig(r.Context(), revision)
	if err != nil {
		h.fail(w, r, "Failed to delete tray config", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}

// GetDefaultConfig returns the default tray configuration of a resource definition
func (h *Handler) GetDefaultConfig(w http.ResponseWriter, r *http.Request) {
	rd, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	cfg, err := h.svc.GetDefaultConfig(r.Context(), rd)
	if err != nil {
		h.fail(w, r, "Failed to get default tray config", err)
		return
	}
	if cfg == nil {
		notFound(w, "default tray config", rd.String())
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

// SetDefaultConfig points a resource definition at a tray configuration
func (h *Handler) SetDefaultConfig(w http.ResponseWriter, r *http.Request) {
	rd, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	var req SetDefaultRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, "Invalid default tray config", err)
		return
	}
	addr, err := h.svc.SetDefaultConfig(r.Context(), rd, req.Config)
	if err != nil {
		h.fail(w, r, "Failed to set default tray config", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}
