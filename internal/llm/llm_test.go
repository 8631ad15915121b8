package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifyTier(t *testing.T) {
	cases := map[string]Tier{
		"mono red creatures":                       TierSimple,
		"blue or black creatures with flying":       TierMedium,
		"creatures that cost less than four mana and draw a card when they enter the battlefield for commander": TierComplex,
	}
	for q, want := range cases {
		if got := ClassifyTier(q); got != want {
			t.Errorf("ClassifyTier(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestIsNonEnglish(t *testing.T) {
	if IsNonEnglish("mono red creatures") {
		t.Error("expected plain ASCII text to be treated as English")
	}
	if !IsNonEnglish("criaturas vermelhas monocoloridas não") {
		t.Error("expected text with non-ASCII characters to be flagged non-English")
	}
}

func TestModelFor(t *testing.T) {
	if ModelFor(false, false) != "gpt-4o-mini" {
		t.Error("expected the light model for an ordinary query")
	}
	if ModelFor(true, false) != "gpt-4o" {
		t.Error("expected the strong model for a suspected card name")
	}
	if ModelFor(false, true) != "gpt-4o" {
		t.Error("expected the strong model for non-English input")
	}
}

func TestParseContentFencedJSON(t *testing.T) {
	pc, err := parseContent("```json\n{\"scryfallQuery\": \"c:r t:creature\", \"explanation\": \"mono red\", \"confidence\": 0.8}\n```")
	if err != nil {
		t.Fatalf("parseContent() error = %v", err)
	}
	if pc.ScryfallQuery != "c:r t:creature" || pc.Confidence != 0.8 {
		t.Errorf("parseContent() = %+v, unexpected result", pc)
	}
}

func TestParseContentRawString(t *testing.T) {
	pc, err := parseContent("c:r t:creature")
	if err != nil {
		t.Fatalf("parseContent() error = %v", err)
	}
	if pc.ScryfallQuery != "c:r t:creature" || pc.Confidence != 0.55 {
		t.Errorf("parseContent() = %+v, unexpected result", pc)
	}
}

func TestTranslateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing/incorrect Authorization header: %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"scryfallQuery\": \"c:r t:creature\", \"explanation\": \"mono red creatures\", \"confidence\": 0.75}"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	pc, err := c.Translate(context.Background(), "gpt-4o-mini", "system", "mono red creatures")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if pc.ScryfallQuery != "c:r t:creature" || pc.Confidence != 0.75 {
		t.Errorf("Translate() = %+v, unexpected result", pc)
	}
}

func TestTranslateRetriesOnRetryableStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"c:g"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	pc, err := c.Translate(context.Background(), "gpt-4o-mini", "system", "green")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if pc.ScryfallQuery != "c:g" {
		t.Errorf("Translate() = %+v, unexpected result", pc)
	}
}

func TestTranslateNonRetryableStatusFailsFast(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.Translate(context.Background(), "gpt-4o-mini", "system", "green")
	if err == nil {
		t.Fatal("expected an error on a non-2xx, non-retryable status")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 401)", attempts)
	}
}

func TestBuildSystemPromptIncludesDynamicRules(t *testing.T) {
	prompt := BuildSystemPrompt(TierComplex, []string{"treat \"wrath\" as board wipe"})
	if !strings.Contains(prompt, "treat \"wrath\" as board wipe") {
		t.Errorf("BuildSystemPrompt() = %q, expected dynamic rule to be included", prompt)
	}
	if !strings.Contains(prompt, "long and may combine") {
		t.Errorf("BuildSystemPrompt() = %q, expected complex-tier guidance", prompt)
	}
}
