package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"telemetryd/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	// Use a unique in-memory DB per test to avoid cross-test contamination.
	dsn := "file:httpapi_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo, err := store.New(db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(repo)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rw := httptest.NewRecorder()
	s.Handler().ServeHTTP(rw, req)
	return rw
}

func TestRootDescription(t *testing.T) {
	s := newTestServer(t)
	rw := do(t, s, http.MethodGet, "/", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var resp apiDescription
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ValueTypeLink != "/type" || resp.ValueLink != "/value" {
		t.Fatalf("unexpected description: %+v", resp)
	}
	if rw.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestGetTypeNotFound(t *testing.T) {
	s := newTestServer(t)
	rw := do(t, s, http.MethodGet, "/type/5/", "")
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestPutTypeThenGet(t *testing.T) {
	s := newTestServer(t)
	rw := do(t, s, http.MethodPut, "/type/5/", `{"type_name":"Temp","type_unit":"C"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rw.Code, rw.Body.String())
	}

	rw = do(t, s, http.MethodGet, "/type/5/", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var vt store.ValueType
	if err := json.Unmarshal(rw.Body.Bytes(), &vt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vt.ID != 5 || vt.TypeName != "Temp" || vt.TypeUnit != "C" {
		t.Fatalf("unexpected type: %+v", vt)
	}
}

func TestValueFilters(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for _, ts := range []int64{10, 20, 30} {
		if err := s.repo.AddValue(ctx, ts, 1, float64(ts), 1); err != nil {
			t.Fatalf("add value: %v", err)
		}
	}
	if err := s.repo.AddValue(ctx, 15, 2, 15, 1); err != nil {
		t.Fatalf("add value: %v", err)
	}

	rw := do(t, s, http.MethodGet, "/value/?type_id=1&start=15&end=25", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rw.Code, rw.Body.String())
	}
	var values []store.Value
	if err := json.Unmarshal(rw.Body.Bytes(), &values); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(values) != 1 || values[0].Time != 20 {
		t.Fatalf("expected the time-20 row, got %+v", values)
	}

	rw = do(t, s, http.MethodGet, "/value/?type_id=99", "")
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown type, got %d", rw.Code)
	}

	rw = do(t, s, http.MethodGet, "/value/?start=abc", "")
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start, got %d", rw.Code)
	}
}

func TestDeviceAndLocationEndpoints(t *testing.T) {
	s := newTestServer(t)

	rw := do(t, s, http.MethodPost, "/location/", `{"id":1,"location_name":"Lab","location_description":"Test lab"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("post location: expected 200, got %d body=%s", rw.Code, rw.Body.String())
	}

	rw = do(t, s, http.MethodPost, "/device/", `{"id":1,"device_name":"Sensor A","device_description":"","location_id":1}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("post device: expected 200, got %d body=%s", rw.Code, rw.Body.String())
	}

	if err := s.repo.AddValue(context.Background(), 10, 1, 1.5, 1); err != nil {
		t.Fatalf("add value: %v", err)
	}

	rw = do(t, s, http.MethodGet, "/devices/", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("list devices: expected 200, got %d", rw.Code)
	}
	var devices []store.Device
	if err := json.Unmarshal(rw.Body.Bytes(), &devices); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(devices) != 1 || devices[0].DeviceName != "Sensor A" {
		t.Fatalf("unexpected devices: %+v", devices)
	}

	rw = do(t, s, http.MethodGet, "/devicevalues/1/", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("device values: expected 200, got %d", rw.Code)
	}
	var values []store.Value
	if err := json.Unmarshal(rw.Body.Bytes(), &values); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(values) != 1 || values[0].Value != 1.5 {
		t.Fatalf("unexpected values: %+v", values)
	}

	rw = do(t, s, http.MethodGet, "/locationvalues/1/", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("location values: expected 200, got %d", rw.Code)
	}
	values = nil
	if err := json.Unmarshal(rw.Body.Bytes(), &values); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("expected 1 value for location 1, got %+v", values)
	}

	rw = do(t, s, http.MethodGet, "/location/99/", "")
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rw := do(t, s, http.MethodGet, "/healthz", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rw.Body.Bytes(), &resp)
	if resp["ok"] != true {
		t.Fatalf("expected ok=true, got %v", resp)
	}
}
