// Command mcpserver exposes the translator over the Model Context
// Protocol, adapted from the original MTG Commander Assistant MCP server:
// where that server called Scryfall directly for every tool, this one
// leads with the natural-language-to-Scryfall translator and uses the
// Scryfall client only to preview results, look up the banned list and
// check commander legality.
package main

import (
	"context"
	"fmt"
	"log"

	scryfall "github.com/BlueMonday/go-scryfall"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/config"
	"github.com/nathanmartins/scryfallnl/internal/llm"
	"github.com/nathanmartins/scryfallnl/internal/logging"
	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
	"github.com/nathanmartins/scryfallnl/internal/store"
)

// translatorMCPServer wraps the MCP server with the translator
// orchestrator plus a Scryfall client for the card-lookup tools; startup
// fails if that client cannot be created.
type translatorMCPServer struct {
	orchestrator   *orchestrate.Orchestrator
	scryfallClient *scryfall.Client
}

func newTranslatorMCPServer(ctx context.Context) (*translatorMCPServer, error) {
	cfg := config.Load()
	log := logging.Get()

	db, err := store.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open durable store: %w", err)
	}

	patternTable, err := patterns.Load(ctx, db, 0.8)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern table: %w", err)
	}

	orch := &orchestrate.Orchestrator{
		Cache:    cache.New(db),
		Store:    db,
		Breaker:  breaker.New(),
		LLM:      llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey),
		APIKey:   cfg.LLMAPIKey,
		Patterns: patternTable,
		Log:      log,
	}

	scryfallClient, err := scryfall.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Scryfall client: %w", err)
	}

	return &translatorMCPServer{orchestrator: orch, scryfallClient: scryfallClient}, nil
}

func main() {
	ctx := context.Background()

	s, err := newTranslatorMCPServer(ctx)
	if err != nil {
		log.Fatalf("Failed to create translator MCP server: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"Scryfall Natural-Language Translator",
		"1.0.0",
		server.WithRecovery(),
	)

	s.registerTools(mcpServer)

	log.Println("Starting translator MCP server...")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func (s *translatorMCPServer) registerTools(mcpServer *server.MCPServer) {
	translateTool := mcp.NewTool("translate_query",
		mcp.WithDescription("Translate a natural-language Magic: The Gathering card description into Scryfall search syntax"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language description, e.g. 'cheap green ramp' or 'blue or black creatures'"),
		),
		mcp.WithString("format",
			mcp.Description("Optional format filter, e.g. 'commander', 'modern'"),
		),
	)
	mcpServer.AddTool(translateTool, s.handleTranslate)

	previewTool := mcp.NewTool("preview_search",
		mcp.WithDescription("Translate a natural-language query and immediately run it against Scryfall, returning the first matching cards"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language description"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default 10, max 50)"),
		),
	)
	mcpServer.AddTool(previewTool, s.handlePreviewSearch)

	bannedListTool := mcp.NewTool("get_banned_list",
		mcp.WithDescription("Get the current list of cards banned in Commander format"),
	)
	mcpServer.AddTool(bannedListTool, s.handleGetBannedList)

	legalityTool := mcp.NewTool("check_commander_legality",
		mcp.WithDescription("Check if a card is legal in Commander format"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Card name to check legality"),
		),
	)
	mcpServer.AddTool(legalityTool, s.handleCheckLegality)
}
