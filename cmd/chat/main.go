// Command chat is an interactive terminal shell for the translator: type a
// natural-language card description, see the Scryfall query it becomes.
// Adapted from the original MTG Commander Assistant chat UI, which drove a
// Claude tool-calling loop over MCP; this version talks to the local
// orchestrator directly, since there is no conversational agent left to
// loop with.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathanmartins/scryfallnl/internal/breaker"
	"github.com/nathanmartins/scryfallnl/internal/cache"
	"github.com/nathanmartins/scryfallnl/internal/config"
	"github.com/nathanmartins/scryfallnl/internal/llm"
	"github.com/nathanmartins/scryfallnl/internal/logging"
	"github.com/nathanmartins/scryfallnl/internal/orchestrate"
	"github.com/nathanmartins/scryfallnl/internal/patterns"
	"github.com/nathanmartins/scryfallnl/internal/store"
)

var (
	userMsgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	assistantMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	errorMsgStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type errMsg error

type responseMsg string

type model struct {
	viewport     viewport.Model
	messages     []string
	textarea     textarea.Model
	orchestrator *orchestrate.Orchestrator
	err          error
}

func initialModel(orch *orchestrate.Orchestrator) model {
	ta := textarea.New()
	ta.Placeholder = "Describe a card, e.g. 'cheap green ramp'..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 500
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)
	vp.SetContent("Natural-language Scryfall translator\nType a description and press enter.\n\n")

	return model{
		textarea:     ta,
		viewport:     vp,
		orchestrator: orch,
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			query := strings.TrimSpace(m.textarea.Value())
			if query == "" {
				return m, nil
			}
			m.messages = append(m.messages, userMsgStyle.Render("You: ")+query)
			m.redraw()
			m.textarea.Reset()
			return m, m.translate(query)
		}

	case responseMsg:
		m.messages = append(m.messages, assistantMsgStyle.Render("Scryfall: ")+string(msg))
		m.redraw()

	case errMsg:
		m.err = msg
		m.messages = append(m.messages, errorMsgStyle.Render(fmt.Sprintf("Error: %v", msg)))
		m.redraw()
		return m, nil
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *model) redraw() {
	m.viewport.SetContent(strings.Join(m.messages, "\n\n") + "\n\n")
	m.viewport.GotoBottom()
}

func (m model) translate(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		resp := m.orchestrator.Handle(ctx, orchestrate.Request{Query: query, UseCache: true})
		if resp.ErrKind != "" {
			return errMsg(fmt.Errorf("rejected: %s", resp.ErrKind))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", resp.ScryfallQuery)
		fmt.Fprintf(&b, "%s", dimStyle.Render(fmt.Sprintf(
			"source=%s confidence=%.2f cached=%v %dms",
			resp.Source, resp.Explanation.Confidence, resp.Cached, resp.ResponseTimeMs)))
		if resp.Explanation.Readable != "" {
			fmt.Fprintf(&b, "\n%s", dimStyle.Render(resp.Explanation.Readable))
		}
		return responseMsg(b.String())
	}
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s", m.viewport.View(), m.textarea.View()) + "\n\n(ctrl+c to quit)"
}

func main() {
	cfg := config.Load()
	log := logging.Get()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.SQLitePath)
	if err != nil {
		fmt.Printf("Error opening durable store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	patternTable, err := patterns.Load(ctx, db, 0.8)
	if err != nil {
		fmt.Printf("Error loading pattern table: %v\n", err)
		os.Exit(1)
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

	p := tea.NewProgram(initialModel(orch), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
