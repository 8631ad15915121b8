// Package orchestrate composes every other component into the single
// request-handling pipeline (spec.md §4.10, component C10).
package orchestrate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/fallback"
	"github.com/nathanmartins/scryfallnl/internal/llm"
	"github.com/nathanmartins/scryfallnl/internal/mapping"
	"github.com/nathanmartins/scryfallnl/internal/normalize"
	"github.com/nathanmartins/scryfallnl/internal/parser"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
	"github.com/nathanmartins/scryfallnl/internal/render"
	"github.com/nathanmartins/scryfallnl/internal/store"
	"github.com/nathanmartins/scryfallnl/internal/validate"
	"github.com/rs/zerolog"
)

// Filters mirrors the inbound request's optional filters (spec.md §6).
type Filters struct {
	Format        string
	ColorIdentity []string
	MaxCmc        *float64
}

// Debug carries the request's debug overrides (spec.md §6).
type Debug struct {
	ForceFallback        bool
	SimulateAiFailure    bool
	OverlyBroadThreshold int
}

// Request is the orchestrator's input.
type Request struct {
	Query     string
	Filters   Filters
	UseCache  bool
	CacheSalt string
	Debug     Debug
}

// Explanation is the nested explanation object in every response.
type Explanation struct {
	Readable    string
	Assumptions []string
	Confidence  float64
}

// Response is the orchestrator's output, matching spec.md §6's success
// body shape plus the error kind used when input sanitisation fails.
type Response struct {
	OriginalQuery     string
	ScryfallQuery     string
	Explanation       Explanation
	ResponseTimeMs     int64
	Success           bool
	Source            string
	Cached            bool
	Fallback          bool
	ValidationIssues  []string
	ShowAffiliate     bool

	ErrKind string // non-empty only on a hard failure (input_invalid)
}

// Orchestrator wires the cache, pattern table, circuit breaker, LLM client
// and fallback builder into the precedence chain described in spec.md
// §4.10.
type Orchestrator struct {
	Cache   *cache.Cache
	Store   *store.Store
	Breaker *breaker.Breaker
	LLM     *llm.Client
	APIKey  string
	Patterns *patterns.Table
	Log     *zerolog.Logger

	// Background is used for fire-and-forget durable writes; nil runs them
	// inline (used by tests).
	Background func(func())
}

func (o *Orchestrator) background(fn func()) {
	if o.Background != nil {
		o.Background(fn)
		return
	}
	fn()
}

// Handle runs the full precedence chain for one request.
func (o *Orchestrator) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := Response{OriginalQuery: req.Query}

	// 1. Input sanitisation.
	sanitized, ok := sanitize(req.Query)
	if !ok {
		resp.ErrKind = "input_invalid"
		resp.Success = false
		resp.ResponseTimeMs = time.Since(start).Milliseconds()
		return resp
	}

	normalized := normalize.Normalize(sanitized)
	fingerprint := normalize.FingerprintForm(sanitized)
	filtersJSON := filtersKey(req.Filters)

	// 2. Debug force-fallback.
	if req.Debug.ForceFallback {
		return o.finishFallback(ctx, req, normalized, fingerprint, filtersJSON, start)
	}

	// 3. Cache lookups.
	if req.UseCache {
		if hit, ok := o.Cache.Get(ctx, fingerprint, filtersJSON, req.CacheSalt); ok {
			readable := hit.ExplanationReadable
			if readable == "" {
				readable = "Served from cache."
			}
			resp.ScryfallQuery = hit.Query
			resp.Source = "cache"
			resp.Cached = true
			resp.Success = true
			resp.ShowAffiliate = hit.ShowAffiliate
			resp.Explanation = Explanation{Readable: readable, Assumptions: hit.Assumptions, Confidence: hit.Confidence}
			resp.ResponseTimeMs = time.Since(start).Milliseconds()
			return resp
		}
	}

	// 4. Pattern-match table.
	if o.Patterns != nil {
		if rule, ok := o.Patterns.Match(normalized); ok {
			readable := "Matched a known pattern."
			o.background(func() {
				o.Cache.Put(context.Background(), fingerprint, filtersJSON, req.CacheSalt, cache.PutParams{
					InputText:           sanitized,
					Query:               rule.Query,
					Source:              "pattern_match",
					ExplanationReadable: readable,
					Confidence:          rule.Confidence,
					ShowAffiliate:       true,
				})
			})
			resp.ScryfallQuery = rule.Query
			resp.Source = "pattern_match"
			resp.Success = true
			resp.ShowAffiliate = true
			resp.Explanation = Explanation{Readable: readable, Confidence: rule.Confidence}
			resp.ResponseTimeMs = time.Since(start).Milliseconds()
			return resp
		}
	}

	// 5. Circuit / API-key gate.
	if o.APIKey == "" || !o.Breaker.Allow() || req.Debug.SimulateAiFailure {
		if req.Debug.SimulateAiFailure && o.Breaker.Allow() {
			o.Breaker.RecordFailure()
		}
		return o.finishFallback(ctx, req, normalized, fingerprint, filtersJSON, start)
	}

	// 6. Raw-syntax detector.
	if looksLikeRawSyntax(sanitized) {
		v := validate.Validate(sanitized)
		resp.ScryfallQuery = v.Query
		resp.Source = "raw_syntax"
		resp.Success = true
		resp.ValidationIssues = flagStrings(v.Flags)
		resp.Explanation = Explanation{Readable: "Interpreted as raw Scryfall syntax.", Confidence: 0.95}
		resp.ResponseTimeMs = time.Since(start).Milliseconds()
		return resp
	}

	// 7. Deterministic attempt.
	built := parser.Build(normalized)
	if built.ShortCircuitQuery != "" || strings.TrimSpace(built.IR.Remaining) == "" {
		query := built.ShortCircuitQuery
		var warnings []string
		if query == "" {
			query = render.Render(built.IR)
			warnings = built.IR.Warnings
		}
		v := validate.Validate(query)
		readable := "Parsed deterministically."
		o.background(func() {
			o.Cache.Put(context.Background(), fingerprint, filtersJSON, req.CacheSalt, cache.PutParams{
				InputText:           sanitized,
				Query:               v.Query,
				Source:              "deterministic",
				ExplanationReadable: readable,
				Assumptions:         warnings,
				Confidence:          0.9,
				ShowAffiliate:       true,
			})
		})
		resp.ScryfallQuery = v.Query
		resp.Source = "deterministic"
		resp.Success = true
		resp.ShowAffiliate = true
		resp.ValidationIssues = flagStrings(v.Flags)
		resp.Explanation = Explanation{Readable: readable, Assumptions: warnings, Confidence: 0.9}
		resp.ResponseTimeMs = time.Since(start).Milliseconds()
		return resp
	}

	// 8. LLM path.
	llmResp, err := o.runLLM(ctx, sanitized, built)
	if err != nil {
		// 9. LLM failure.
		o.Breaker.RecordFailure()
		return o.finishFallback(ctx, req, normalized, fingerprint, filtersJSON, start)
	}
	o.Breaker.RecordSuccess()

	v := validate.Validate(llmResp.ScryfallQuery)
	finalQuery := appendRequestFilters(v.Query, req.Filters)

	if llmResp.Confidence >= 0.65 {
		o.background(func() {
			o.Cache.Put(context.Background(), fingerprint, filtersJSON, req.CacheSalt, cache.PutParams{
				InputText:           sanitized,
				Query:               finalQuery,
				Source:              "ai",
				ExplanationReadable: llmResp.Explanation,
				Confidence:          llmResp.Confidence,
				ShowAffiliate:       true,
			})
		})
	}
	// Auto-seeding a new pattern_rules row above confidence 0.8 is left
	// undone: spec.md §9 leaves open whether an unreviewed AI answer should
	// be allowed to become a future exact-match rule without moderation.

	resp.ScryfallQuery = finalQuery
	resp.Source = "ai"
	resp.Success = true
	resp.ShowAffiliate = true
	resp.ValidationIssues = flagStrings(v.Flags)
	resp.Explanation = Explanation{Readable: llmResp.Explanation, Confidence: llmResp.Confidence}
	resp.ResponseTimeMs = time.Since(start).Milliseconds()
	return resp
}

func (o *Orchestrator) runLLM(ctx context.Context, sanitized string, built parser.Result) (llm.ParsedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	query := sanitized
	nonEnglish := llm.IsNonEnglish(sanitized)
	if nonEnglish {
		translated, err := o.LLM.Translate(ctx, "gpt-4o-mini", "Translate the user's text to English. Respond with only the translation.", sanitized)
		if err == nil && translated.ScryfallQuery != "" {
			query = translated.ScryfallQuery
		}
	}

	tier := llm.ClassifyTier(query)
	suspectedCardName := len(strings.Fields(query)) <= 4 && len(built.IR.Remaining) > 0
	model := llm.ModelFor(suspectedCardName, nonEnglish)
	prompt := llm.BuildSystemPrompt(tier, nil)

	return o.LLM.Translate(ctx, model, prompt, query)
}

func (o *Orchestrator) finishFallback(ctx context.Context, req Request, normalized, fingerprint, filtersJSON string, start time.Time) Response {
	query, confidence := fallback.Build(normalized, fallback.Filters{
		Format:        req.Filters.Format,
		ColorIdentity: req.Filters.ColorIdentity,
	})
	v := validate.Validate(query)
	readable := "Built from deterministic approximations."

	if confidence >= 0.65 {
		o.background(func() {
			o.Cache.Put(context.Background(), fingerprint, filtersJSON, req.CacheSalt, cache.PutParams{
				InputText:           req.Query,
				Query:               v.Query,
				Source:              "fallback",
				ExplanationReadable: readable,
				Confidence:          confidence,
				ShowAffiliate:       true,
			})
		})
	}

	return Response{
		OriginalQuery:    req.Query,
		ScryfallQuery:    v.Query,
		Source:           "fallback",
		Success:          true,
		Fallback:         true,
		ShowAffiliate:    true,
		ValidationIssues: flagStrings(v.Flags),
		Explanation:      Explanation{Readable: readable, Confidence: confidence},
		ResponseTimeMs:   time.Since(start).Milliseconds(),
	}
}

func flagStrings(flags []validate.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

func filtersKey(f Filters) string {
	var b strings.Builder
	b.WriteString(f.Format)
	b.WriteString("|")
	b.WriteString(strings.Join(f.ColorIdentity, ""))
	if f.MaxCmc != nil {
		fmt.Fprintf(&b, "|%v", *f.MaxCmc)
	}
	return b.String()
}

func appendRequestFilters(query string, f Filters) string {
	if f.Format != "" && !strings.Contains(query, "f:"+f.Format) {
		query = strings.TrimSpace(query + " f:" + f.Format)
	}
	if len(f.ColorIdentity) > 0 {
		query = strings.TrimSpace(query + " id:" + strings.Join(f.ColorIdentity, ""))
	}
	return query
}

var (
	operatorTokenRE = regexp.MustCompile(`\b[a-zA-Z]+[:=<>]`)
	emptyOperatorRE = regexp.MustCompile(`\b[a-zA-Z]+:\s*(?:[a-zA-Z]+:|$)`)
	nonAlnumRE      = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// sanitize applies spec.md §4.10 step 1: reject pathological input,
// otherwise strip duplicate tokens (case-insensitive). An empty operator
// such as a trailing "t:" is not stripped: it rejects the input.
func sanitize(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 3 {
		return "", false
	}
	if len(operatorTokenRE.FindAllString(trimmed, -1)) > 15 {
		return "", false
	}
	if emptyOperatorRE.MatchString(trimmed) {
		return "", false
	}
	if float64(len(nonAlnumRE.FindAllString(trimmed, -1)))/float64(len(trimmed)) > 0.5 {
		return "", false
	}
	if maxRepeat(trimmed) > 5 {
		return "", false
	}

	words := strings.Fields(trimmed)
	seen := map[string]bool{}
	out := words[:0]
	for _, w := range words {
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return strings.Join(out, " "), true
}

// maxRepeat returns the length of the longest run of one character
// repeated back to back ("aaaaaa" -> 6).
func maxRepeat(s string) int {
	best, run := 0, 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > best {
			best = run
		}
	}
	return best
}

// looksLikeRawSyntax reports whether the query is already mostly Scryfall
// operator syntax (spec.md §4.10 step 6): every recognised key is in
// ValidSearchKeys and more than 70% of tokens are operator-shaped.
func looksLikeRawSyntax(query string) bool {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return false
	}
	operatorCount := 0
	for _, t := range tokens {
		key, _, found := splitOperatorToken(t)
		if !found {
			continue
		}
		if !mapping.ValidSearchKeys[strings.ToLower(key)] {
			return false
		}
		operatorCount++
	}
	return float64(operatorCount)/float64(len(tokens)) > 0.7
}

func splitOperatorToken(tok string) (key, value string, found bool) {
	tok = strings.TrimPrefix(tok, "-")
	for _, sep := range []string{":", "<=", ">=", "=", "<", ">"} {
		if i := strings.Index(tok, sep); i > 0 {
			return tok[:i], tok[i+len(sep):], true
		}
	}
	return "", "", false
}
