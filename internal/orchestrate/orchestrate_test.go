package orchestrate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/llm"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	tbl, err := patterns.Load(context.Background(), nil, 0.8)
	if err != nil {
		t.Fatalf("patterns.Load() error = %v", err)
	}
	return &Orchestrator{
		Cache:    cache.New(nil),
		Breaker:  breaker.New(),
		Patterns: tbl,
	}
}

func TestHandleRejectsPathologicalInput(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Handle(context.Background(), Request{Query: "ab"})
	if resp.Success {
		t.Fatal("expected failure for too-short input")
	}
	if resp.ErrKind != "input_invalid" {
		t.Errorf("ErrKind = %q, want input_invalid", resp.ErrKind)
	}
}

func TestHandleDebugForceFallback(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Handle(context.Background(), Request{Query: "mono red creatures", Debug: Debug{ForceFallback: true}})
	if !resp.Success || resp.Source != "fallback" || !resp.Fallback {
		t.Errorf("Handle() = %+v, expected forced fallback", resp)
	}
}

func TestHandleCacheHit(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Patterns = nil // isolate: only the cache should be consulted

	o.Cache.Put(context.Background(), "mono red creatures", "|", "", cache.PutParams{
		InputText:           "mono red creatures",
		Query:               "c:r t:creature",
		Source:              "deterministic",
		ExplanationReadable: "Parsed deterministically.",
		Confidence:          0.9,
		ShowAffiliate:       true,
	})

	resp := o.Handle(context.Background(), Request{Query: "mono red creatures", UseCache: true})
	if !resp.Cached || resp.Source != "cache" {
		t.Errorf("Handle() = %+v, expected a cache hit", resp)
	}
	if resp.ScryfallQuery != "c:r t:creature" {
		t.Errorf("ScryfallQuery = %q, want c:r t:creature", resp.ScryfallQuery)
	}
	if resp.Explanation.Readable != "Parsed deterministically." || resp.Explanation.Confidence != 0.9 {
		t.Errorf("Explanation = %+v, expected round-tripped cache explanation", resp.Explanation)
	}
}

func TestHandlePatternMatchTakesPrecedenceOverNoAPIKey(t *testing.T) {
	o := newTestOrchestrator(t) // APIKey is empty, which would otherwise force fallback
	resp := o.Handle(context.Background(), Request{Query: "mono red creatures"})
	if resp.Source != "pattern_match" {
		t.Errorf("Source = %q, want pattern_match", resp.Source)
	}
	if resp.ScryfallQuery != "c=r id=r t:creature" {
		t.Errorf("ScryfallQuery = %q, want c=r id=r t:creature", resp.ScryfallQuery)
	}
}

func TestHandleNoAPIKeyFallsBack(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Patterns = nil
	resp := o.Handle(context.Background(), Request{Query: "some totally novel query text"})
	if !resp.Fallback || resp.Source != "fallback" {
		t.Errorf("Handle() = %+v, expected fallback when APIKey is empty", resp)
	}
}

func TestHandleRawSyntaxPassthrough(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Patterns = nil
	o.APIKey = "test-key"

	resp := o.Handle(context.Background(), Request{Query: "c:r t:creature mv<=3"})
	if resp.Source != "raw_syntax" {
		t.Errorf("Source = %q, want raw_syntax", resp.Source)
	}
}

func TestHandleDeterministicPath(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Patterns = nil
	o.APIKey = "test-key"

	resp := o.Handle(context.Background(), Request{Query: "red creatures"})
	if resp.Source != "deterministic" {
		t.Errorf("Source = %q, want deterministic", resp.Source)
	}
	if !strings.Contains(resp.ScryfallQuery, "c:r") || !strings.Contains(resp.ScryfallQuery, "t:creature") {
		t.Errorf("ScryfallQuery = %q, unexpected", resp.ScryfallQuery)
	}
}

func TestHandleLLMPathOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"scryfallQuery\": \"c:wu t:creature\", \"explanation\": \"approximated\", \"confidence\": 0.8}"}}]}`)
	}))
	defer srv.Close()

	o := newTestOrchestrator(t)
	o.Patterns = nil
	o.APIKey = "test-key"
	o.LLM = llm.NewClient(srv.URL, "test-key")

	resp := o.Handle(context.Background(), Request{Query: "teal sparkly thing"})
	if resp.Source != "ai" {
		t.Errorf("Source = %q, want ai", resp.Source)
	}
	if !resp.Success {
		t.Errorf("expected success, got %+v", resp)
	}
}

func TestHandleLLMFailureFallsBackAndRecordsBreakerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := newTestOrchestrator(t)
	o.Patterns = nil
	o.APIKey = "test-key"
	o.LLM = llm.NewClient(srv.URL, "test-key")

	resp := o.Handle(context.Background(), Request{Query: "teal sparkly thing"})
	if resp.Source != "fallback" || !resp.Fallback {
		t.Errorf("Handle() = %+v, expected fallback on LLM failure", resp)
	}
	if o.Breaker.Allow() == false {
		// one failure is below the threshold; breaker should still be closed
		t.Error("expected breaker to still allow calls after a single failure")
	}
}

func TestHandleSimulateAiFailureForcesFallback(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Patterns = nil
	o.APIKey = "test-key"

	resp := o.Handle(context.Background(), Request{Query: "some totally novel query text", Debug: Debug{SimulateAiFailure: true}})
	if resp.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", resp.Source)
	}
}
