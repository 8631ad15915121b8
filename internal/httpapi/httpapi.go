// Package httpapi exposes the orchestrator over HTTP, matching the
// request/response shapes and status-code policy in spec.md §6.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
	"github.com/rs/zerolog"
)

// Handler serves the translation endpoint and CORS preflight.
type Handler struct {
	Orchestrator *orchestrate.Orchestrator
	CORSOrigin   string
	Log          *zerolog.Logger
}

type requestBody struct {
	Query   string `json:"query"`
	Filters *struct {
		Format        string   `json:"format"`
		ColorIdentity []string `json:"colorIdentity"`
		MaxCmc        *float64 `json:"maxCmc"`
	} `json:"filters"`
	UseCache  *bool  `json:"useCache"`
	CacheSalt string `json:"cacheSalt"`
	Debug     *struct {
		ForceFallback        bool `json:"forceFallback"`
		SimulateAiFailure    bool `json:"simulateAiFailure"`
		OverlyBroadThreshold int  `json:"overlyBroadThreshold"`
	} `json:"debug"`
}

type explanationBody struct {
	Readable    string   `json:"readable"`
	Assumptions []string `json:"assumptions"`
	Confidence  float64  `json:"confidence"`
}

type responseBody struct {
	OriginalQuery    string          `json:"originalQuery"`
	ScryfallQuery    string          `json:"scryfallQuery"`
	Explanation      explanationBody `json:"explanation"`
	ResponseTimeMs   int64           `json:"responseTimeMs"`
	Success          bool            `json:"success"`
	Source           string          `json:"source,omitempty"`
	Cached           bool            `json:"cached,omitempty"`
	Fallback         bool            `json:"fallback,omitempty"`
	ValidationIssues []string        `json:"validationIssues,omitempty"`
	ShowAffiliate    bool            `json:"showAffiliate,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// ServeHTTP handles both the translation POST and the CORS OPTIONS
// preflight (spec.md §6 "Inbound HTTP").
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", h.CORSOrigin)

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, x-session-id, x-request-id")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	requestID := r.Header.Get("x-request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("x-request-id", requestID)
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if len(body.Query) < 3 || len(body.Query) > 500 {
		writeError(w, http.StatusBadRequest, "query must be between 3 and 500 characters")
		return
	}

	req := orchestrate.Request{
		Query:     body.Query,
		CacheSalt: body.CacheSalt,
	}
	if body.UseCache != nil {
		req.UseCache = *body.UseCache
	} else {
		req.UseCache = true
	}
	if body.Filters != nil {
		req.Filters = orchestrate.Filters{
			Format:        body.Filters.Format,
			ColorIdentity: body.Filters.ColorIdentity,
			MaxCmc:        body.Filters.MaxCmc,
		}
	}
	if body.Debug != nil {
		req.Debug = orchestrate.Debug{
			ForceFallback:        body.Debug.ForceFallback,
			SimulateAiFailure:    body.Debug.SimulateAiFailure,
			OverlyBroadThreshold: body.Debug.OverlyBroadThreshold,
		}
	}

	ctx := r.Context()
	start := time.Now()
	resp := h.Orchestrator.Handle(ctx, req)

	if resp.ErrKind == "input_invalid" {
		writeError(w, http.StatusBadRequest, "input failed sanitisation")
		return
	}

	out := responseBody{
		OriginalQuery:  resp.OriginalQuery,
		ScryfallQuery:  resp.ScryfallQuery,
		ResponseTimeMs: resp.ResponseTimeMs,
		Success:        resp.Success,
		Source:         resp.Source,
		Cached:         resp.Cached,
		Fallback:       resp.Fallback,
		ShowAffiliate:  resp.ShowAffiliate,
		Explanation: explanationBody{
			Readable:    resp.Explanation.Readable,
			Assumptions: resp.Explanation.Assumptions,
			Confidence:  resp.Explanation.Confidence,
		},
		ValidationIssues: resp.ValidationIssues,
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.Log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("httpapi: failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseBody{Success: false, Error: msg})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness reports whether the orchestrator's collaborators are usable.
// Wired as a closure in cmd/server so it can check the store's ping.
func Readiness(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := check(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
