package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/export"
	"github.com/fbz-tec/storexport/core/jobs"
	"github.com/fbz-tec/storexport/core/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	e, err := export.New(catalog.NewDemoStore(testNow), jobs.NewMemoryStore(), export.Options{
		Dir:            t.TempDir(),
		DownloadSecret: "test-secret",
		Metrics:        metrics.New(reg),
		Clock:          func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(e, reg)
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestExportLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/exports", map[string]any{
		"kind": "user", "fields": []string{"Username"}, "formats": []string{"csv"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /exports = %d %s", w.Code, w.Body)
	}
	created := decode[export.CreateResult](t, w)
	if created.Total != 3 {
		t.Errorf("total = %d", created.Total)
	}

	w = do(t, s, http.MethodPost, "/exports/"+created.JobID+"/batches", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST batches = %d %s", w.Code, w.Body)
	}
	batch := decode[export.BatchResult](t, w)
	if !batch.Completed || len(batch.Downloads) != 1 {
		t.Fatalf("batch = %+v", batch)
	}

	w = do(t, s, http.MethodGet, "/exports/"+created.JobID, nil)
	st := decode[export.Status](t, w)
	if w.Code != http.StatusOK || st.State != jobs.StateCompleted || st.Progress != 100 {
		t.Errorf("GET /exports/:id = %d %+v", w.Code, st)
	}

	dl := batch.Downloads[0]
	q := url.Values{"job": {dl.JobID}, "format": {dl.Format}, "token": {dl.Token}}
	w = do(t, s, http.MethodGet, "/downloads?"+q.Encode(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /downloads = %d %s", w.Code, w.Body)
	}
	if !strings.HasPrefix(w.Body.String(), "ID,Username\n") {
		t.Errorf("body = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, dl.Filename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}

	w = do(t, s, http.MethodGet, "/exports/"+created.JobID+"/downloads", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), dl.Filename) {
		t.Errorf("GET downloads = %d %s", w.Code, w.Body)
	}

	w = do(t, s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "storexport_") {
		t.Errorf("GET /metrics = %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		kind   export.ErrorKind
	}{
		{"empty selection", http.MethodPost, "/exports", map[string]any{"kind": "user"}, http.StatusBadRequest, export.KindValidation},
		{"zero match", http.MethodPost, "/exports", map[string]any{
			"kind": "order", "fields": []string{"ID"}, "filters": map[string]any{"order_statuses": []string{"wc-refunded"}},
		}, http.StatusUnprocessableEntity, export.KindEmptyResult},
		{"unknown job", http.MethodPost, "/exports/missing/batches", nil, http.StatusNotFound, export.KindJobNotFound},
		{"unknown status", http.MethodGet, "/exports/missing", nil, http.StatusNotFound, export.KindJobNotFound},
		{"bad token", http.MethodGet, "/downloads?job=x&format=csv&token=nope", nil, http.StatusForbidden, export.KindSecurity},
		{"missing params", http.MethodGet, "/downloads", nil, http.StatusForbidden, export.KindSecurity},
		{"unknown kind", http.MethodGet, "/catalog/coupon", nil, http.StatusBadRequest, export.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body)
			}
			body := decode[errorBody](t, w)
			if body.Error != tt.kind {
				t.Errorf("error kind = %s, want %s", body.Error, tt.kind)
			}
			if tt.kind == export.KindSecurity && body.Message != "access denied" {
				t.Errorf("security message = %q", body.Message)
			}
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/catalog/product", nil)
	cat := decode[export.Catalog](t, w)
	if w.Code != http.StatusOK || len(cat.Taxonomies) != 2 {
		t.Errorf("GET /catalog/product = %d %+v", w.Code, cat)
	}

	w = do(t, s, http.MethodGet, "/catalog/order/options", nil)
	opts := decode[struct {
		Options []catalog.Option `json:"options"`
	}](t, w)
	if w.Code != http.StatusOK || len(opts.Options) != 3 {
		t.Errorf("GET options = %d %+v", w.Code, opts)
	}

	w = do(t, s, http.MethodPost, "/preview", map[string]any{"kind": "user", "fields": []string{"ID", "Email"}})
	p := decode[export.Preview](t, w)
	if w.Code != http.StatusOK || len(p.Rows) != 3 || p.Columns[1] != "Email" {
		t.Errorf("POST /preview = %d %+v", w.Code, p)
	}

	w = do(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d", w.Code)
	}
}
