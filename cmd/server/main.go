// Command server runs the HTTP translation API: natural-language Magic:
// The Gathering card search converted to Scryfall query syntax.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/config"
	"github.com/nathanmartins/scryfallnl/internal/httpapi"
	"github.com/nathanmartins/scryfallnl/internal/llm"
	"github.com/nathanmartins/scryfallnl/internal/logging"
	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
	"github.com/nathanmartins/scryfallnl/internal/store"
	"github.com/nathanmartins/scryfallnl/internal/workerqueue"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logging.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("server: failed to open durable store")
	}
	defer db.Close()

	patternTable, err := patterns.Load(ctx, db, 0.8)
	if err != nil {
		log.Fatal().Err(err).Msg("server: failed to load pattern table")
	}

	queue := workerqueue.New(4, log)
	defer queue.StopWait()

	orch := &orchestrate.Orchestrator{
		Cache:    cache.New(db),
		Store:    db,
		Breaker:  breaker.New(),
		LLM:      llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey),
		APIKey:   cfg.LLMAPIKey,
		Patterns: patternTable,
		Log:      log,
		Background: func(fn func()) {
			queue.Submit(fn)
		},
	}

	if cfg.RunQueryValidationChecks {
		runStartupSelfTest(orch, log)
	}

	handler := &httpapi.Handler{Orchestrator: orch, CORSOrigin: cfg.CORSOrigin, Log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpapi.Health)
	mux.HandleFunc("GET /readyz", httpapi.Readiness(func() error {
		return db.Ping(ctx)
	}))
	mux.Handle("POST /translate", handler)
	mux.Handle("OPTIONS /translate", handler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server: graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server: listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server: listen failed")
	}
}

// selfTestQueries are known-good inputs exercised at boot when
// RUN_QUERY_VALIDATION_CHECKS is set (spec.md §6).
var selfTestQueries = []string{
	"mono red creatures",
	"destroy creature",
	"cheap green ramp",
	"blue or black creatures",
}

func runStartupSelfTest(orch *orchestrate.Orchestrator, log *zerolog.Logger) {
	for _, q := range selfTestQueries {
		resp := orch.Handle(context.Background(), orchestrate.Request{Query: q, UseCache: false})
		if !resp.Success {
			log.Warn().Str("query", q).Msg("server: startup self-test query did not succeed")
			continue
		}
		log.Info().Str("query", q).Str("scryfallQuery", resp.ScryfallQuery).Str("source", resp.Source).Msg("server: startup self-test ok")
	}
}
