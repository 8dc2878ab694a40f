package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/service"
)

// maxBodyBytes caps request bodies, bundles included.
const maxBodyBytes = 1 << 20

// Handler serves the sensemaker API
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a new handler
func New(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger.With("component", "http")}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tray-configs", h.ListConfigs)
	mux.HandleFunc("POST /api/tray-configs", h.SetConfig)
	mux.HandleFunc("GET /api/tray-configs/{address}", h.GetConfig)
	mux.HandleFunc("PUT /api/tray-configs/{revision}", h.UpdateConfig)
	mux.HandleFunc("DELETE /api/tray-configs/{revision}", h.DeleteConfig)
	mux.HandleFunc("GET /api/resource-defs/{address}/default-tray-config", h.GetDefaultConfig)
	mux.HandleFunc("PUT /api/resource-defs/{address}/default-tray-config", h.SetDefaultConfig)

	mux.HandleFunc("GET /api/applets", h.ListApplets)
	mux.HandleFunc("POST /api/applets", h.RegisterApplet)
	mux.HandleFunc("GET /api/applets/{name}", h.GetApplet)
	mux.HandleFunc("GET /api/resource-defs/{address}/applets", h.AppletsForResourceDef)

	mux.HandleFunc("POST /api/methods/run", h.RunMethod)
	mux.HandleFunc("PUT /api/methods/{revision}", h.UpdateMethod)
	mux.HandleFunc("DELETE /api/methods/{revision}", h.DeleteMethod)
	mux.HandleFunc("GET /api/dimensions/{address}/methods", h.MethodsForDimension)

	mux.HandleFunc("POST /api/assessments", h.CreateAssessment)
	mux.HandleFunc("GET /api/resources/{address}/assessments", h.AssessmentsFor)
	mux.HandleFunc("GET /api/assessment-controls", h.ListControls)
	mux.HandleFunc("POST /api/assessment-controls", h.RegisterControl)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AddressResponse carries the address an operation produced.
type AddressResponse struct {
	Address domain.Address `json:"address"`
}

// statusFor maps a fault code onto an HTTP status.
func statusFor(code fault.Code) int {
	switch code {
	case fault.CodeNotFound:
		return http.StatusNotFound
	case fault.CodeInvalidInput:
		return http.StatusBadRequest
	case fault.CodeInvalidReference, fault.CodeComputation:
		return http.StatusUnprocessableEntity
	case fault.CodeTypeMismatch:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail reports err, logging server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code := fault.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, ErrorResponse{Error: msg, Code: string(code), Details: err.Error()}, status)
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fault.Wrap(fault.CodeInvalidInput, "invalid request body", err)
	}
	return nil
}

func addressParam(r *http.Request, name string) (domain.Address, error) {
	addr := domain.Address(r.PathValue(name))
	if addr.Space() == domain.SpaceUnknown {
		return "", fault.Newf(fault.CodeInvalidInput, "%s %q is not a ledger address", name, addr)
	}
	return addr, nil
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

func notFound(w http.ResponseWriter, what, key string) {
	writeJSON(w, ErrorResponse{
		Error:   what + " not found",
		Code:    string(fault.CodeNotFound),
		Details: key,
	}, http.StatusNotFound)
}
