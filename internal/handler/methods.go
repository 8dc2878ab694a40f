package handler

import (
	"net/http"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/method"
)

// RunMethod computes a method for one resource
func (h *Handler) RunMethod(w http.ResponseWriter, r *http.Request) {
	var in method.RunInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, "Invalid run request", err)
		return
	}
	res, err := h.svc.RunMethod(r.Context(), in)
	if err != nil {
		h.fail(w, r, "Failed to run method", err)
		return
	}
	writeJSON(w, res, http.StatusCreated)
}

// UpdateMethod revises the method written at {revision}
func (h *Handler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	revision, err := addressParam(r, "revision")
	if err != nil {
		h.fail(w, r, "Invalid revision", err)
		return
	}
	var m domain.Method
	if err := decode(w, r, &m); err != nil {
		h.fail(w, r, "Invalid method", err)
		return
	}
	addr, err := h.svc.UpdateMethod(r.Context(), revision, m)
	if err != nil {
		h.fail(w, r, "Failed to update method", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}

// DeleteMethod tombstones the method written at {revision}
func (h *Handler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	revision, err := addressParam(r, "revision")
	if err != nil {
		h.fail(w, r, "Invalid revision", err)
		return
	}
	addr, err := h.svc.DeleteMethod(r.Context(), revision)
	if err != nil {
		h.fail(w, r, "Failed to delete method", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}

// MethodsForDimension lists methods using {address} as an input or output
func (h *Handler) MethodsForDimension(w http.ResponseWriter, r *http.Request) {
	dim, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	role := domain.DimensionRole(r.URL.Query().Get("role"))
	if !role.Valid() {
		h.fail(w, r, "Invalid role", fault.Newf(fault.CodeInvalidInput, "role %q must be input or output", role))
		return
	}
	methods, err := h.svc.MethodsForDimension(r.Context(), dim, role)
	if err != nil {
		h.fail(w, r, "Failed to list methods", err)
		return
	}
	writeJSON(w, methods, http.StatusOK)
}
