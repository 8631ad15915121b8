package main

import (
	"context"
	"fmt"
	"strings"

	scryfall "github.com/BlueMonday/go-scryfall"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
)

func (s *translatorMCPServer) handleTranslate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := orchestrate.Request{Query: query, UseCache: true}
	if format, ok := request.GetArguments()["format"].(string); ok && format != "" {
		req.Filters.Format = format
	}

	resp := s.orchestrator.Handle(ctx, req)
	if resp.ErrKind != "" {
		return mcp.NewToolResultError(fmt.Sprintf("query rejected: %s", resp.ErrKind)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Scryfall query: %s\n", resp.ScryfallQuery)
	fmt.Fprintf(&out, "Source: %s (confidence %.2f)\n", resp.Source, resp.Explanation.Confidence)
	if resp.Explanation.Readable != "" {
		fmt.Fprintf(&out, "%s\n", resp.Explanation.Readable)
	}
	for _, a := range resp.Explanation.Assumptions {
		fmt.Fprintf(&out, "- assumption: %s\n", a)
	}
	return mcp.NewToolResultText(out.String()), nil
}

func (s *translatorMCPServer) handlePreviewSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := s.orchestrator.Handle(ctx, orchestrate.Request{Query: query, UseCache: true})
	if resp.ErrKind != "" {
		return mcp.NewToolResultError(fmt.Sprintf("query rejected: %s", resp.ErrKind)), nil
	}

	limit := 10
	if limitVal, ok := request.GetArguments()["limit"].(float64); ok {
		limit = int(limitVal)
		if limit > 50 {
			limit = 50
		}
	}

	result, err := s.scryfallClient.SearchCards(ctx, resp.ScryfallQuery, scryfall.SearchCardsOptions{Unique: "cards", Order: "name"})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("translated to %q but Scryfall search failed: %v", resp.ScryfallQuery, err)), nil
	}
	if len(result.Cards) > limit {
		result.Cards = result.Cards[:limit]
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Translated %q -> %s\n\n", query, resp.ScryfallQuery)
	fmt.Fprintf(&out, "Found %d cards (showing %d):\n\n", result.TotalCards, len(result.Cards))
	for i, card := range result.Cards {
		fmt.Fprintf(&out, "%d. %s %s - %s\n", i+1, card.Name, card.ManaCost, card.TypeLine)
	}
	return mcp.NewToolResultText(out.String()), nil
}

func (s *translatorMCPServer) handleGetBannedList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.scryfallClient.SearchCards(ctx, "banned:commander", scryfall.SearchCardsOptions{Order: "name"})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch banned list: %v", err)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Commander banned list (%d cards):\n\n", result.TotalCards)
	for i, card := range result.Cards {
		fmt.Fprintf(&out, "%d. %s\n", i+1, card.Name)
	}
	return mcp.NewToolResultText(out.String()), nil
}

func (s *translatorMCPServer) handleCheckLegality(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	card, err := s.scryfallClient.GetCardByName(ctx, name, false, scryfall.GetCardByNameOptions{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %v", err)), nil
	}

	status := "not legal"
	switch card.Legalities.Commander {
	case "legal":
		status = "legal"
	case "banned":
		status = "banned"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s is %s in Commander.", card.Name, status)), nil
}
