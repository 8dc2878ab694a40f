package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/ledger/badger"
	"sensemaker/internal/method"
	"sensemaker/internal/registry"
	"sensemaker/internal/service"
	"sensemaker/internal/tray"
)

const bundleYAML = `
name: todo
ranges:
  - name: "0-10"
    kind:
      integer: {min: 0, max: 10}
dimensions:
  - name: importance
    range: "0-10"
  - name: total_importance
    range: "0-10"
    computed: true
resource_defs:
  - resource_name: task_item
methods:
  - name: total
    target_resource_def: task_item
    input_dimensions: [importance]
    output_dimension: total_importance
    program: Sum
cultural_contexts: []
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	l, err := badger.Open(badger.InMemoryConfig("tester"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	New(service.New(l, "tester", nil, logger), logger).Register(mux)
	srv := httptest.NewServer(Chain(mux, Recover(logger), CORS, Logger(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func read[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func register(t *testing.T, srv *httptest.Server) registry.Registration {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/applets", "application/yaml", bundleYAML)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return read[registry.Registration](t, resp)
}

func TestRegisterApplet(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)
	assert.Equal(t, "todo", reg.Config.Name)
	assert.Len(t, reg.Config.Dimensions, 2)

	resp := do(t, http.MethodPost, srv.URL+"/api/applets", "application/yaml", bundleYAML)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	again := read[registry.Registration](t, resp)
	assert.Equal(t, reg.Address, again.Address)

	resp = do(t, http.MethodGet, srv.URL+"/api/applets/todo", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, reg.Address, read[registry.Registration](t, resp).Address)

	resp = do(t, http.MethodGet, srv.URL+"/api/applets/todo?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	resp = do(t, http.MethodGet, srv.URL+"/api/applets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]registry.Registration](t, resp), 1)

	rd := reg.Config.ResourceDefs["task_item"]
	resp = do(t, http.MethodGet, srv.URL+"/api/resource-defs/"+rd.String()+"/applets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]registry.Registration](t, resp), 1)
}

func TestRegisterAppletErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/applets", "application/yaml", "name: [unclosed")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(fault.CodeInvalidInput), read[ErrorResponse](t, resp).Code)

	resp = do(t, http.MethodPost, srv.URL+"/api/applets", "application/json",
		`{"name":"bad","ranges":[],"resource_defs":[],"cultural_contexts":[{"name":"c","resource_def":"missing","thresholds":[],"order_by":[]}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/applets/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunMethodOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)
	rd := reg.Config.ResourceDefs["task_item"]
	importance := reg.Config.Dimensions["importance"]
	total := reg.Config.Methods["total"]
	task, err := ledger.HashEntity(domain.ResourceDef{Name: "a task"})
	require.NoError(t, err)

	run := method.RunInput{Resource: task, ResourceDef: rd, Method: total}
	resp := do(t, http.MethodPost, srv.URL+"/api/methods/run", "application/json", run)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, string(fault.CodeComputation), read[ErrorResponse](t, resp).Code)

	for _, v := range []int64{2, 5} {
		resp := do(t, http.MethodPost, srv.URL+"/api/assessments", "application/json", domain.CreateAssessmentInput{
			Value: domain.IntegerValue(v), Dimension: importance, Resource: task, ResourceDef: rd,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/methods/run", "application/json", run)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := read[method.Result](t, resp)
	assert.Equal(t, domain.IntegerValue(7), res.Assessment.Value)

	resp = do(t, http.MethodGet, srv.URL+"/api/resources/"+task.String()+"/assessments?dimension="+reg.Config.Dimensions["total_importance"].String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]domain.Assessment](t, resp), 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/dimensions/"+importance.String()+"/methods?role=input", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]json.RawMessage](t, resp), 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/dimensions/"+importance.String()+"/methods?role=sideways", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMethodOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)
	methodsURL := srv.URL + "/api/dimensions/" + reg.Config.Dimensions["importance"].String() + "/methods?role=input"

	resp := do(t, http.MethodGet, methodsURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	methods := read[[]struct {
		Revision domain.Address `json:"revision"`
	}](t, resp)
	require.Len(t, methods, 1)

	resp = do(t, http.MethodDelete, srv.URL+"/api/methods/"+methods[0].Revision.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, read[AddressResponse](t, resp).Address.IsRevision())

	resp = do(t, http.MethodGet, methodsURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, read[[]json.RawMessage](t, resp))

	resp = do(t, http.MethodDelete, srv.URL+"/api/methods/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrayConfigsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)
	rd := reg.Config.ResourceDefs["task_item"]
	importance := reg.Config.Dimensions["importance"]

	resp := do(t, http.MethodGet, srv.URL+"/api/resource-defs/"+rd.String()+"/default-tray-config", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tray-configs", "application/json", SetConfigRequest{
		Name: "tray",
		Controls: []domain.AssessmentControlConfig{{
			Input:  domain.AssessmentWidgetConfig{Dimension: importance},
			Output: domain.AssessmentWidgetConfig{Dimension: importance},
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cfg := read[tray.Config](t, resp)

	resp = do(t, http.MethodGet, srv.URL+"/api/tray-configs/"+cfg.Address.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tray", read[tray.Config](t, resp).Value.Name)

	resp = do(t, http.MethodPut, srv.URL+"/api/resource-defs/"+rd.String()+"/default-tray-config", "application/json",
		SetDefaultRequest{Config: cfg.Address})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := cfg.Value
	updated.Name = "tray v2"
	resp = do(t, http.MethodPut, srv.URL+"/api/tray-configs/"+cfg.Revision.String(), "application/json", updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newAddr := read[AddressResponse](t, resp).Address

	resp = do(t, http.MethodGet, srv.URL+"/api/resource-defs/"+rd.String()+"/default-tray-config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	def := read[tray.Config](t, resp)
	assert.Equal(t, "tray v2", def.Value.Name)
	assert.Equal(t, newAddr, def.Address)

	resp = do(t, http.MethodGet, srv.URL+"/api/tray-configs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]tray.Config](t, resp), 1)

	resp = do(t, http.MethodPut, srv.URL+"/api/tray-configs/"+cfg.Address.String(), "application/json", updated)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "entity address is not a revision")
}

func TestBadAddress(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/tray-configs/not-an-address", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tray-configs/Eunknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssessmentControls(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/api/assessment-controls", "application/json", domain.AssessmentControlRegistration{
		AppletID: "todo", ControlKey: "stars", Name: "Stars", Kind: domain.ControlInput,
		RangeKind: domain.RangeKind{Integer: &domain.IntegerRange{Min: 0, Max: 5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/assessment-controls", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, read[[]json.RawMessage](t, resp), 1)
}

func TestStatusFor(t *testing.T) {
	for code, want := range map[fault.Code]int{
		fault.CodeNotFound:         http.StatusNotFound,
		fault.CodeInvalidInput:     http.StatusBadRequest,
		fault.CodeInvalidReference: http.StatusUnprocessableEntity,
		fault.CodeComputation:      http.StatusUnprocessableEntity,
		fault.CodeTypeMismatch:     http.StatusConflict,
		fault.CodeWriteFailure:     http.StatusInternalServerError,
		fault.CodeUnknown:          http.StatusInternalServerError,
	} {
		assert.Equal(t, want, statusFor(code), code)
	}
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := Chain(panics, Recover(logger), CORS, Logger(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.NotFoundHandler(), mark("outer"), nil, mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
