package handler

import (
	"net/http"

	"sensemaker/internal/codec"
	"sensemaker/internal/fault"
)

// RegisterApplet registers a JSON or YAML bundle. A bundle whose name is
// already registered returns the existing registration with 200.
func (h *Handler) RegisterApplet(w http.ResponseWriter, r *http.Request) {
	c := codec.ForContentType(r.Header.Get("Content-Type"))
	in, err := c.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, "Invalid applet bundle", fault.Wrap(fault.CodeInvalidInput, "parse "+c.Format()+" bundle", err))
		return
	}
	reg, err := h.svc.RegisterApplet(r.Context(), *in)
	if err != nil {
		h.fail(w, r, "Failed to register applet", err)
		return
	}
	status := http.StatusOK
	if reg.Created {
		status = http.StatusCreated
	}
	writeJSON(w, reg, status)
}

// ListApplets returns one registration per applet
func (h *Handler) ListApplets(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListApplets(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list applets", err)
		return
	}
	writeJSON(w, regs, http.StatusOK)
}

// GetApplet returns the registration under {name}, as YAML with ?format=yaml
func (h *Handler) GetApplet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	reg, err := h.svc.GetApplet(r.Context(), name)
	if err != nil {
		h.fail(w, r, "Failed to get applet", err)
		return
	}
	if reg == nil {
		notFound(w, "applet", name)
		return
	}
	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		if err := codec.NewYAMLCodec().Export(reg, w); err != nil {
			h.logger.Error("failed to export applet", "applet", name, "error", err)
		}
		return
	}
	writeJSON(w, reg, http.StatusOK)
}

// AppletsForResourceDef returns the registrations that declared a resource definition
func (h *Handler) AppletsForResourceDef(w http.ResponseWriter, r *http.Request) {
	rd, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	regs, err := h.svc.AppletsForResourceDef(r.Context(), rd)
	if err != nil {
		h.fail(w, r, "Failed to list applets", err)
		return
	}
	writeJSON(w, regs, http.StatusOK)
}
