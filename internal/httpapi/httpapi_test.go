package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	tbl, err := patterns.Load(context.Background(), nil, 0.8)
	if err != nil {
		t.Fatalf("patterns.Load() error = %v", err)
	}
	return &Handler{
		Orchestrator: &orchestrate.Orchestrator{
			Cache:    cache.New(nil),
			Breaker:  breaker.New(),
			Patterns: tbl,
		},
		CORSOrigin: "*",
	}
}

func TestServeHTTPOptionsPreflight(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/translate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestServeHTTPRejectsNonPost(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/translate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestServeHTTPRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/translate", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServeHTTPRejectsTooShortQuery(t *testing.T) {
	h := newTestHandler(t)
	body, _ := json.Marshal(map[string]string{"query": "ab"})
	req := httptest.NewRequest(http.MethodPost, "/translate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServeHTTPTranslatesPatternMatch(t *testing.T) {
	h := newTestHandler(t)
	body, _ := json.Marshal(map[string]interface{}{"query": "mono red creatures"})
	req := httptest.NewRequest(http.MethodPost, "/translate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}

	var out responseBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	if !out.Success || out.Source != "pattern_match" {
		t.Errorf("response = %+v, unexpected", out)
	}
	if w.Header().Get("x-request-id") == "" {
		t.Error("expected an x-request-id header to be set")
	}
}

func TestServeHTTPPreservesInboundRequestID(t *testing.T) {
	h := newTestHandler(t)
	body, _ := json.Marshal(map[string]interface{}{"query": "mono red creatures"})
	req := httptest.NewRequest(http.MethodPost, "/translate", bytes.NewReader(body))
	req.Header.Set("x-request-id", "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Header().Get("x-request-id") != "req-123" {
		t.Errorf("x-request-id = %q, want req-123", w.Header().Get("x-request-id"))
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestReadinessOK(t *testing.T) {
	handler := Readiness(func() error { return nil })
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestReadinessFailure(t *testing.T) {
	handler := Readiness(func() error { return errors.New("db unreachable") })
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
