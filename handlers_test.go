package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kwv/geolayers/layers"
)

func trackerWithSource(t *testing.T, id string) *layers.StateTracker {
	t.Helper()
	trace, err := layers.ParseTraceJSON([]byte(`{"mode":"lines+markers","lon":[0,1,2],"lat":[0,1,0]}`))
	if err != nil {
		t.Fatalf("Parsing fixture trace: %v", err)
	}
	state := layers.NewStateTracker()
	state.Update(id, trace, layers.Convert(trace, layers.OptionsForTrace(trace)))
	return state
}

func TestHealthEndpoint(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status struct {
		Status    string `json:"status"`
		HasLayers bool   `json:"hasLayers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Invalid health JSON: %v", err)
	}
	if status.Status != "ok" || status.HasLayers {
		t.Errorf("Unexpected health: %+v", status)
	}
}

func TestLayersEndpoint(t *testing.T) {
	server := newHTTPServer(trackerWithSource(t, "fleet"))

	req := httptest.NewRequest(http.MethodGet, "/layers.json", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("Invalid layers JSON: %v", err)
	}
	if _, ok := all["fleet"]; !ok {
		t.Errorf("Expected fleet in response, got keys %v", all)
	}
}

func TestLayersByIDEndpoint(t *testing.T) {
	server := newHTTPServer(trackerWithSource(t, "fleet"))

	req := httptest.NewRequest(http.MethodGet, "/layers/fleet.json", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var set layers.LayerSet
	if err := json.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("Invalid layer set JSON: %v", err)
	}
	if set.Lines == nil || set.Lines.Layout.Visibility != layers.VisibilityVisible {
		t.Error("Expected a visible line layer")
	}
}

func TestLayersByIDUnknownSource(t *testing.T) {
	server := newHTTPServer(trackerWithSource(t, "fleet"))

	req := httptest.NewRequest(http.MethodGet, "/layers/nope.json", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestConvertEndpoint(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	body := strings.NewReader(`{
		"mode": "markers",
		"lon": [1, 2, 3],
		"lat": [4, 5, 6],
		"marker": {"color": ["a", "b", "a"]}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var set struct {
		Markers struct {
			Paint map[string]json.RawMessage `json:"paint"`
		} `json:"markers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("Invalid conversion JSON: %v", err)
	}

	stops, ok := set.Markers.Paint["circle-color"]
	if !ok {
		t.Fatal("Expected circle-color paint entry")
	}
	if !strings.Contains(string(stops), `"stops"`) {
		t.Errorf("Expected a stop spec for categorical colors, got %s", stops)
	}
}

func TestConvertEndpointMethodNotAllowed(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	req := httptest.NewRequest(http.MethodGet, "/convert", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestConvertEndpointBadPayload(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestPreviewSVGEndpoint(t *testing.T) {
	server := newHTTPServer(trackerWithSource(t, "fleet"))

	req := httptest.NewRequest(http.MethodGet, "/preview.svg", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Unexpected content type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("Expected SVG body")
	}
}

func TestPreviewNoLayers(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	req := httptest.NewRequest(http.MethodGet, "/preview.svg", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	server := newHTTPServer(layers.NewStateTracker())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/preview.svg") {
		t.Error("Expected index page to embed the preview")
	}

	req = httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", rec.Code)
	}
}
