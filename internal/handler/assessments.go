package handler

import (
	"net/http"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
)

// CreateAssessmentResponse is the reply to POST /api/assessments.
type CreateAssessmentResponse struct {
	Assessment *domain.Assessment `json:"assessment"`
	Address    domain.Address     `json:"address"`
}

// CreateAssessment records an assessment
func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateAssessmentInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, "Invalid assessment", err)
		return
	}
	a, addr, err := h.svc.CreateAssessment(r.Context(), in)
	if err != nil {
		h.fail(w, r, "Failed to create assessment", err)
		return
	}
	writeJSON(w, CreateAssessmentResponse{Assessment: a, Address: addr}, http.StatusCreated)
}

// AssessmentsFor lists the assessments of {address} along ?dimension=
func (h *Handler) AssessmentsFor(w http.ResponseWriter, r *http.Request) {
	resource, err := addressParam(r, "address")
	if err != nil {
		h.fail(w, r, "Invalid address", err)
		return
	}
	dim := domain.Address(r.URL.Query().Get("dimension"))
	if !dim.IsEntity() {
		h.fail(w, r, "Invalid dimension", fault.Newf(fault.CodeInvalidInput, "dimension %q is not an entity address", dim))
		return
	}
	found, err := h.svc.AssessmentsFor(r.Context(), resource, dim)
	if err != nil {
		h.fail(w, r, "Failed to list assessments", err)
		return
	}
	if found == nil {
		found = []domain.Assessment{}
	}
	writeJSON(w, found, http.StatusOK)
}

// ListControls returns every registered assessment control
func (h *Handler) ListControls(w http.ResponseWriter, r *http.Request) {
	controls, err := h.svc.ListControls(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list assessment controls", err)
		return
	}
	writeJSON(w, controls, http.StatusOK)
}

// RegisterControl records an assessment control registration
func (h *Handler) RegisterControl(w http.ResponseWriter, r *http.Request) {
	var reg domain.AssessmentControlRegistration
	if err := decode(w, r, &reg); err != nil {
		h.fail(w, r, "Invalid assessment control", err)
		return
	}
	addr, err := h.svc.RegisterControl(r.Context(), reg)
	if err != nil {
		h.fail(w, r, "Failed to register assessment control", err)
		return
	}
	writeJSON(w, AddressResponse{Address: addr}, http.StatusCreated)
}
