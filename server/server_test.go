package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return New(Config{TaxRate: invoicing.Pct(15)}, zap.NewNop(), reg), reg
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
}

func TestTotals(t *testing.T) {
	s, _ := newTestServer(t)

	testCases := []struct {
		name string
		body string
		want invoicing.DocumentTotals
	}{
		{
			name: "configured flat rate",
			body: `{"items":[{"id":"a","quantity":10,"rate":500}]}`,
			want: invoicing.DocumentTotals{Subtotal: invoicing.R(5000), TaxAmount: invoicing.R(750), GrandTotal: invoicing.R(5750)},
		},
		{
			name: "per item policy",
			body: `{"items":[{"id":"a","quantity":1,"rate":100,"taxRate":0},{"id":"b","quantity":"2","rate":"50","taxRate":15}],"tax":{"mode":"per-item","default":15}}`,
			want: invoicing.DocumentTotals{Subtotal: invoicing.R(200), TaxAmount: invoicing.R(15), GrandTotal: invoicing.R(215)},
		},
		{
			name: "lenient numbers",
			body: `{"items":[{"id":"a","quantity":"abc","rate":100},{"id":"b","quantity":1,"rate":10,"discount":50}]}`,
			want: invoicing.DocumentTotals{Subtotal: invoicing.R(0), TaxAmount: invoicing.R(0), GrandTotal: invoicing.R(0)},
		},
		{
			name: "no items",
			body: `{}`,
			want: invoicing.DocumentTotals{Subtotal: invoicing.R(0), TaxAmount: invoicing.R(0), GrandTotal: invoicing.R(0)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/v1/totals", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("POST /api/v1/totals status = %d, want 200: %s", w.Code, w.Body)
			}
			var resp struct {
				Items  []json.RawMessage         `json:"items"`
				Totals invoicing.DocumentTotals `json:"totals"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response %s: %v", w.Body, err)
			}
			got := resp.Totals
			if !got.Subtotal.Equal(tc.want.Subtotal) || !got.TaxAmount.Equal(tc.want.TaxAmount) || !got.GrandTotal.Equal(tc.want.GrandTotal) {
				t.Errorf("totals = %s, want %v", w.Body, tc.want)
			}
			if resp.Items == nil {
				t.Errorf("items = null, want a list")
			}
		})
	}
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(t)

	items := make([]string, 25)
	for i := range items {
		items[i] = `{"id":"` + string(rune('a'+i)) + `","quantity":1,"rate":1}`
	}
	list := "[" + strings.Join(items, ",") + "]"

	testCases := []struct {
		name  string
		body  string
		sizes []int
	}{
		{name: "default layout", body: `{"items":` + list + `}`, sizes: []int{17, 8}},
		{name: "custom layout", body: `{"items":` + list + `,"layout":{"capacities":[10]}}`, sizes: []int{10, 10, 5}},
		{name: "no items", body: `{"items":[]}`, sizes: []int{0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/v1/pages", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("POST /api/v1/pages status = %d, want 200: %s", w.Code, w.Body)
			}
			var resp struct {
				Pages []struct {
					PageNumber int               `json:"pageNumber"`
					TotalPages int               `json:"totalPages"`
					Items      []json.RawMessage `json:"items"`
					ShowHeader bool              `json:"showHeader"`
					ShowFooter bool              `json:"showFooter"`
				} `json:"pages"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response %s: %v", w.Body, err)
			}
			if len(resp.Pages) != len(tc.sizes) {
				t.Fatalf("got %d pages, want %d: %s", len(resp.Pages), len(tc.sizes), w.Body)
			}
			for i, p := range resp.Pages {
				if len(p.Items) != tc.sizes[i] || p.TotalPages != len(tc.sizes) || p.ShowHeader != (i == 0) || p.ShowFooter != (i == len(tc.sizes)-1) {
					t.Errorf("page %d = %d items, %d pages, header %v, footer %v", i+1, len(p.Items), p.TotalPages, p.ShowHeader, p.ShowFooter)
				}
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	testCases := []struct {
		name   string
		target string
		body   string
	}{
		{name: "zero capacity", target: "/api/v1/pages", body: `{"layout":{"capacities":[17,0]}}`},
		{name: "negative page limit", target: "/api/v1/pages", body: `{"layout":{"capacities":[17],"maxPages":-1}}`},
		{name: "malformed json", target: "/api/v1/totals", body: `{"items":`},
		{name: "unknown tax mode", target: "/api/v1/totals", body: `{"tax":{"mode":"vat"}}`},
		{name: "invalid capacities parameter", target: "/api/v1/preview?capacities=17,x", body: `{}`},
		{name: "invalid page limit parameter", target: "/api/v1/preview?maxPages=-2", body: `{}`},
		{name: "unknown document kind", target: "/api/v1/preview", body: `{"kind":"receipt"}`},
		{name: "unknown format", target: "/api/v1/preview?format=pdf", body: `{}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tc.target, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("POST %s status = %d, want 400: %s", tc.target, w.Code, w.Body)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
				t.Errorf("POST %s body = %s, want an error message", tc.target, w.Body)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"kind":"quotation","number":"Q-7","items":[{"id":"a","description":"Labour","quantity":2,"rate":100,"taxRate":15}]}`

	w := do(t, s, http.MethodPost, "/api/v1/preview", body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/preview status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Document struct {
			Number string `json:"number"`
		} `json:"document"`
		Tax    invoicing.TaxPolicy      `json:"tax"`
		Totals invoicing.DocumentTotals `json:"totals"`
		Pages  []json.RawMessage        `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response %s: %v", w.Body, err)
	}
	if resp.Document.Number != "Q-7" || resp.Tax.Mode() != invoicing.PerItemMode || len(resp.Pages) != 1 {
		t.Errorf("preview = %s", w.Body)
	}
	if !resp.Totals.GrandTotal.Equal(invoicing.R(230)) {
		t.Errorf("grand total = %v, want 230", resp.Totals.GrandTotal.Decimal())
	}

	w = do(t, s, http.MethodPost, "/api/v1/preview?format=markdown&capacities=1&maxPages=0", body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/preview?format=markdown status = %d, want 200: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
	for _, want := range []string{"# Quotation Q-7", "| Labour |", "*Page 1 of 1*", "R 230.00"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("markdown preview lacks %q:\n%s", want, w.Body)
		}
	}
}

func TestConfiguredTaxPolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(Config{Tax: invoicing.PerItemRate(invoicing.Pct(10)), TaxRate: invoicing.Pct(10)}, zap.NewNop(), nil)

	// item a has no rate and takes the 10% default, item b keeps its 0%.
	items := `[{"id":"a","quantity":1,"rate":100},{"id":"b","quantity":1,"rate":100,"taxRate":0}]`
	testCases := []struct {
		target string
		body   string
	}{
		{target: "/api/v1/totals", body: `{"items":` + items + `}`},
		{target: "/api/v1/preview", body: `{"kind":"invoice","items":` + items + `}`},
	}
	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tc.target, tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("POST %s status = %d, want 200: %s", tc.target, w.Code, w.Body)
			}
			var resp struct {
				Tax    invoicing.TaxPolicy      `json:"tax"`
				Totals invoicing.DocumentTotals `json:"totals"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response %s: %v", w.Body, err)
			}
			if resp.Tax.Mode() != invoicing.PerItemMode {
				t.Errorf("tax = %v, want the configured per-item policy", resp.Tax)
			}
			if !resp.Totals.TaxAmount.Equal(invoicing.R(10)) || !resp.Totals.GrandTotal.Equal(invoicing.R(210)) {
				t.Errorf("totals = %s, want tax 10 and grand total 210", w.Body)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	s, reg := newTestServer(t)
	do(t, s, http.MethodPost, "/api/v1/totals", `{"items":[{"id":"a","quantity":1,"rate":1}]}`)
	do(t, s, http.MethodPost, "/api/v1/totals", `{"items":`)
	do(t, s, http.MethodGet, "/health", "")

	if got := testutil.ToFloat64(s.metrics.requests.WithLabelValues("POST", "/api/v1/totals", "200")); got != 1 {
		t.Errorf("successful totals requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.requests.WithLabelValues("POST", "/api/v1/totals", "400")); got != 1 {
		t.Errorf("failed totals requests = %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(reg, "invoicing_document_items"); err != nil || n != 1 {
		t.Errorf("GatherAndCount(invoicing_document_items) = %d, %v, want 1", n, err)
	}

	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "invoicing_http_requests_total") {
		t.Errorf("GET /metrics = %d:\n%s", w.Code, w.Body)
	}
}

func TestRunShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(Config{Port: 0}, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want a clean shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
