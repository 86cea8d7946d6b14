package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	query       string
	body        string
	contentType string
	auth        string

	// canned response
	statusCode   int
	responseBody string
	headers      map[string]string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	for k, v := range h.headers {
		w.Header().Set(k, v)
	}
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL+"/", "")
	return c, srv
}

const featureBody = `{
	"id": "ft-abc123def456",
	"kind": "Point",
	"geometry": {"type": "Point", "coordinates": [106.8, -6.2]},
	"properties": {
		"name": "Well",
		"crop": "Rice",
		"season": "Dry Season",
		"color": "#10b981",
		"notes": "",
		"createdAt": "2024-08-17T06:30:00Z"
	},
	"area_ha": 0
}`

func TestHTTPClient_ListFeatures(t *testing.T) {
	h := &testHandler{
		responseBody: `{"features": [` + featureBody + `], "total": 3, "crops": ["Rice", "Corn"]}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	list, err := c.ListFeatures(context.Background(), model.FeatureFilter{Search: "well", Crop: "Rice"})
	if err != nil {
		t.Fatalf("ListFeatures() error = %v", err)
	}

	if h.method != http.MethodGet || h.path != "/v1/features" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.query != "crop=Rice&search=well" {
		t.Errorf("query = %q", h.query)
	}
	if len(list.Features) != 1 || list.Total != 3 || len(list.Crops) != 2 {
		t.Fatalf("list = %+v", list)
	}
	f := list.Features[0]
	if f.ID != "ft-abc123def456" || f.Properties.Name != "Well" {
		t.Errorf("feature = %+v", f)
	}
	if _, ok := f.Geometry.Geometry().(orb.Point); !ok {
		t.Errorf("geometry = %T, want orb.Point", f.Geometry.Geometry())
	}
}

func TestHTTPClient_ListFeatures_NoFilter(t *testing.T) {
	h := &testHandler{responseBody: `{"features": [], "total": 0}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	if _, err := c.ListFeatures(context.Background(), model.FeatureFilter{}); err != nil {
		t.Fatal(err)
	}
	if h.query != "" {
		t.Errorf("query = %q, want empty", h.query)
	}
}

func TestHTTPClient_GetFeature(t *testing.T) {
	h := &testHandler{responseBody: featureBody}
	c, srv := newTestClient(h)
	defer srv.Close()

	f, err := c.GetFeature(context.Background(), "ft-abc123def456")
	if err != nil {
		t.Fatalf("GetFeature() error = %v", err)
	}
	if h.path != "/v1/features/ft-abc123def456" {
		t.Errorf("path = %q", h.path)
	}
	if f.Properties.Season != "Dry Season" {
		t.Errorf("season = %q", f.Properties.Season)
	}
}

func TestHTTPClient_UpdateFeature(t *testing.T) {
	h := &testHandler{responseBody: featureBody}
	c, srv := newTestClient(h)
	defer srv.Close()

	notes := "fenced"
	if _, err := c.UpdateFeature(context.Background(), "ft-abc123def456", model.AttributePatch{Notes: &notes}); err != nil {
		t.Fatalf("UpdateFeature() error = %v", err)
	}
	if h.method != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", h.method)
	}
	if h.body != `{"notes":"fenced"}` {
		t.Errorf("body = %s", h.body)
	}
	if h.contentType != "application/json" {
		t.Errorf("content type = %q", h.contentType)
	}
}

func TestHTTPClient_DeleteFeature(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNoContent}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.DeleteFeature(context.Background(), "ft-1"); err != nil {
		t.Fatalf("DeleteFeature() error = %v", err)
	}
	if h.method != http.MethodDelete || h.path != "/v1/features/ft-1" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
}

func TestHTTPClient_Draw(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"feature": ` + featureBody + `, "layers": []}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	f, err := c.Draw(context.Background(), model.ShapeMarker, orb.Point{106.8, -6.2})
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if h.path != "/v1/draw" || h.method != http.MethodPost {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	for _, want := range []string{`"action":"create"`, `"shape":"marker"`, `"type":"Point"`} {
		if !strings.Contains(h.body, want) {
			t.Errorf("body %s missing %s", h.body, want)
		}
	}
	if f.ID != "ft-abc123def456" {
		t.Errorf("id = %q", f.ID)
	}
}

func TestHTTPClient_Import(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"features": [], "skipped": [{"index": 2, "reason": "missing geometry"}]}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	doc := `{"type": "FeatureCollection", "features": []}`
	res, err := c.Import(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if h.body != doc {
		t.Errorf("body should be sent verbatim, got %s", h.body)
	}
	if h.contentType != "application/geo+json" {
		t.Errorf("content type = %q", h.contentType)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Index != 2 {
		t.Errorf("skipped = %+v", res.Skipped)
	}
}

func TestHTTPClient_Export(t *testing.T) {
	h := &testHandler{
		responseBody: `{"type": "FeatureCollection", "features": []}`,
		headers:      map[string]string{"Content-Disposition": `attachment; filename="agritag_2024-08-17.geojson"`},
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	data, name, err := c.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name != "agritag_2024-08-17.geojson" {
		t.Errorf("filename = %q", name)
	}
	if !strings.Contains(string(data), "FeatureCollection") {
		t.Errorf("data = %s", data)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status": "ok"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.path != "/v1/health" || status != "ok" {
		t.Errorf("path = %q status = %q", h.path, status)
	}
}

func TestHTTPClient_Token(t *testing.T) {
	h := &testHandler{responseBody: `{"status": "ok"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "s3cret")
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", h.auth)
	}
}

// --- Error handling ---

func TestHTTPClient_Errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"JSONBody", http.StatusBadRequest, `{"error": "validation failed: color: must be #RRGGBB"}`, "validation failed: color: must be #RRGGBB"},
		{"NotFound", http.StatusNotFound, `{"error": "feature not found: ft-x"}`, "feature not found: ft-x"},
		{"NonJSONBody", http.StatusInternalServerError, "internal server error", "internal server error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "").GetFeature(context.Background(), "ft-x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Message != tc.wantMsg {
				t.Errorf("got %d %q", apiErr.StatusCode, apiErr.Message)
			}
		})
	}
}

func TestHTTPClient_ExportError(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized, responseBody: `{"error": "invalid token"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, _, err := c.Export(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}
