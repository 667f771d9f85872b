package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"siteledger/internal/adapters/httpapi"
	"siteledger/internal/blob"
	"siteledger/internal/core"
	"siteledger/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func setupHandler(t *testing.T, opts ...httpapi.Option) (*core.Service, *httpapi.Handler) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	return svc, httpapi.NewHandler(svc, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out
}

func seedSites(t *testing.T, h http.Handler) {
	t.Helper()
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"id":"S1","name":"North Yard"}`), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"id":"S2","name":"River Bridge"}`), http.StatusCreated)
}

func TestRequestWorkflowOverHTTP(t *testing.T) {
	_, h := setupHandler(t)
	seedSites(t, h)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/inventory",
		`{"id":"I1","name":"Cement","unit":"bags","site_id":"S1","current_stock":"10","min_stock":"2","max_stock":"50"}`), http.StatusCreated)

	resp := do(t, h, http.MethodPost, "/api/v1/requests",
		`{"id":"R1","site_id":"S2","requested_by":"ana","material":"cement","quantity":"8","unit":"bags","source":{"kind":"site","site_id":"S1"}}`)
	expectStatus(t, resp, http.StatusCreated)

	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/requests/R1/approve", `{"approver":"lead"}`), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/requests/R1/advance", ""), http.StatusOK)
	resp = do(t, h, http.MethodPost, "/api/v1/requests/R1/complete", "")
	expectStatus(t, resp, http.StatusOK)
	var completed struct {
		Request core.MaterialRequest `json:"request"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &completed); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if completed.Request.Status != "completed" || completed.Request.CompletedAt == nil {
		t.Fatalf("unexpected request %+v", completed.Request)
	}

	resp = do(t, h, http.MethodPost, "/api/v1/requests/R1/complete", "")
	expectStatus(t, resp, http.StatusConflict)
	if kind := decodeError(t, resp).Kind; kind != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", kind)
	}

	resp = do(t, h, http.MethodGet, "/api/v1/inventory/I1/movements", "")
	expectStatus(t, resp, http.StatusOK)
	var ledger struct {
		Movements []core.StockMovement `json:"movements"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &ledger); err != nil {
		t.Fatalf("decode movements: %v", err)
	}
	if len(ledger.Movements) != 2 || ledger.Movements[1].Resulting.String() != "2" {
		t.Fatalf("unexpected ledger %+v", ledger.Movements)
	}

	resp = do(t, h, http.MethodGet, "/api/v1/requests?status=completed&site=S2", "")
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(resp.Body.String(), `"id":"R1"`) {
		t.Fatalf("expected R1 in listing: %s", resp.Body.String())
	}
}

func TestErrorKindStatusMapping(t *testing.T) {
	_, h := setupHandler(t)
	seedSites(t, h)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/workers", `{"id":"W1","name":"Lina","role":"welder"}`), http.StatusCreated)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{"missing request", http.MethodPost, "/api/v1/requests/R9/approve", `{"approver":"lead"}`, http.StatusNotFound, "not_found"},
		{"missing site", http.MethodGet, "/api/v1/sites/S9", "", http.StatusNotFound, "not_found"},
		{"validation", http.MethodPost, "/api/v1/sites", `{"name":"  "}`, http.StatusBadRequest, "validation_error"},
		{"same site transfer", http.MethodPost, "/api/v1/transfers", `{"subject_kind":"worker","subject_id":"W1","from_site_id":"S1","to_site_id":"S1"}`, http.StatusBadRequest, "validation_error"},
		{"dangling reference", http.MethodPost, "/api/v1/transfers", `{"subject_kind":"worker","subject_id":"W9","from_site_id":"S1","to_site_id":"S2"}`, http.StatusUnprocessableEntity, "invalid_reference"},
		{"stale site", http.MethodPost, "/api/v1/transfers", `{"subject_kind":"worker","subject_id":"W1","from_site_id":"S1","to_site_id":"S2"}`, http.StatusConflict, "stale_site_reference"},
		{"negative stock", http.MethodPost, "/api/v1/inventory", `{"name":"Sand","unit":"t","site_id":"S1","current_stock":"-1","min_stock":"0","max_stock":"5"}`, http.StatusConflict, "negative_stock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, h, tc.method, tc.path, tc.body)
			expectStatus(t, resp, tc.status)
			if kind := decodeError(t, resp).Kind; kind != tc.kind {
				t.Fatalf("expected kind %q, got %q", tc.kind, kind)
			}
		})
	}
}

func TestMalformedBodies(t *testing.T) {
	_, h := setupHandler(t)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"name":`), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"name":"x","colour":"red"}`), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/requests",
		`{"site_id":"S1","material":"x","quantity":"1","unit":"t","source":"warehouse"}`), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodDelete, "/api/v1/sites", ""), http.StatusMethodNotAllowed)
}

func TestTransferFlowAndReports(t *testing.T) {
	_, h := setupHandler(t)
	seedSites(t, h)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/machines", `{"id":"M1","name":"Excavator","type":"excavator","site_id":"S1","fuel_level":80}`), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/transfers",
		`{"id":"X1","subject_kind":"machine","subject_id":"M1","from_site_id":"S1","to_site_id":"S2","requested_by":"ops"}`), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/transfers/X1/approve", `{"approver":"lead"}`), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/transfers/X1/advance", ""), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/transfers/X1/complete", ""), http.StatusOK)

	resp := do(t, h, http.MethodGet, "/api/v1/sites/S2", "")
	expectStatus(t, resp, http.StatusOK)
	var site struct {
		Site core.Site `json:"site"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &site); err != nil {
		t.Fatalf("decode site: %v", err)
	}
	if len(site.Site.MachineIDs) != 1 || site.Site.MachineIDs[0] != "M1" {
		t.Fatalf("expected M1 at S2, got %+v", site.Site.MachineIDs)
	}

	resp = do(t, h, http.MethodGet, "/api/v1/reports/dashboard", "")
	expectStatus(t, resp, http.StatusOK)
	var dashboard struct {
		Counts core.DashboardCounts `json:"counts"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &dashboard); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dashboard.Counts.TransfersByStatus["completed"] != 1 {
		t.Fatalf("unexpected dashboard %+v", dashboard.Counts)
	}
	for _, path := range []string{"/api/v1/reports/low-stock", "/api/v1/reports/site-progress", "/api/v1/reports/supplier-trips", "/api/v1/inventory", "/api/v1/transfers?kind=machine"} {
		expectStatus(t, do(t, h, http.MethodGet, path, ""), http.StatusOK)
	}
}

func TestBackupRoutes(t *testing.T) {
	_, bare := setupHandler(t)
	expectStatus(t, do(t, bare, http.MethodPost, "/api/v1/backups", ""), http.StatusNotFound)

	store, err := blob.Open(context.Background(), blob.Config{Driver: string(blob.DriverMemory)})
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	_, h := setupHandler(t, httpapi.WithBackupStore(store))
	seedSites(t, h)
	resp := do(t, h, http.MethodPost, "/api/v1/backups", "")
	expectStatus(t, resp, http.StatusCreated)
	var created struct {
		Backup blob.Info `json:"backup"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if !strings.HasPrefix(created.Backup.Key, core.SnapshotPrefix) {
		t.Fatalf("unexpected backup key %q", created.Backup.Key)
	}

	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"id":"S3","name":"Harbour"}`), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/backups/restore", `{"key":"`+created.Backup.Key+`"}`), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodGet, "/api/v1/sites/S3", ""), http.StatusNotFound)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/backups/restore", `{"key":"snapshots/missing.json"}`), http.StatusNotFound)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/backups/restore", `{}`), http.StatusBadRequest)
	if _, err := store.Put(context.Background(), core.SnapshotPrefix+"torn.json", strings.NewReader(`{"sites":[`), blob.PutOptions{}); err != nil {
		t.Fatalf("put torn snapshot: %v", err)
	}
	for _, key := range []string{"snapshots/torn.json", "../../etc/passwd", "/etc/passwd"} {
		resp := do(t, h, http.MethodPost, "/api/v1/backups/restore", `{"key":"`+key+`"}`)
		expectStatus(t, resp, http.StatusBadRequest)
		if got := decodeError(t, resp); got.Kind != string(domain.ErrValidation) {
			t.Fatalf("key %s: expected validation kind, got %+v", key, got)
		}
	}

	resp = do(t, h, http.MethodGet, "/api/v1/backups", "")
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(resp.Body.String(), created.Backup.Key) {
		t.Fatalf("expected backup in listing: %s", resp.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics recorder: %v", err)
	}
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithMetricsRecorder(recorder))
	h := httpapi.NewHandler(svc, httpapi.WithMetrics(reg))

	expectStatus(t, do(t, h, http.MethodGet, "/healthz", ""), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodPost, "/api/v1/sites", `{"name":"North Yard"}`), http.StatusCreated)
	resp := do(t, h, http.MethodGet, "/metrics", "")
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(resp.Body.String(), `siteledger_core_commands_total{operation="add_site",status="success"} 1`) {
		t.Fatalf("expected command counter in metrics output:\n%s", resp.Body.String())
	}

	_, noMetrics := setupHandler(t)
	expectStatus(t, do(t, noMetrics, http.MethodGet, "/metrics", ""), http.StatusNotFound)
}
