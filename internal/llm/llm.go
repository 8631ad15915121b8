// Package llm implements the chat-completion fallback client: timeout,
// retry/backoff, response-shape validation, and tiered model/prompt
// selection (spec.md §4.9, component C9).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2
	backoffUnit    = 400 * time.Millisecond
)

var retryableStatus = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

// Tier is the prompt/model sizing bucket, chosen by word count.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// ClassifyTier buckets a query by its word count, per spec.md §4.9.
func ClassifyTier(query string) Tier {
	n := len(strings.Fields(query))
	switch {
	case n <= 4:
		return TierSimple
	case n <= 12:
		return TierMedium
	default:
		return TierComplex
	}
}

var nonASCIILatinRE = regexp.MustCompile(`[^\x00-\x7F]`)

// IsNonEnglish reports whether text likely isn't English, by presence of
// non-Latin scripts or other non-ASCII characters (spec.md §4.9).
func IsNonEnglish(text string) bool {
	return nonASCIILatinRE.MatchString(text)
}

// Client sends chat-completion requests to an OpenAI-compatible endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ParsedContent is the decoded shape of a successful completion, whether it
// arrived as a raw Scryfall string or a fenced JSON block.
type ParsedContent struct {
	ScryfallQuery string
	Explanation   string
	Confidence    float64
}

// ModelFor picks a stronger model for suspected card-name queries and
// non-English input, a lighter one otherwise (spec.md §4.9).
func ModelFor(suspectedCardName, nonEnglish bool) string {
	if suspectedCardName || nonEnglish {
		return "gpt-4o"
	}
	return "gpt-4o-mini"
}

// Translate sends one chat-completion request (with retry/backoff) and
// returns the parsed content.
func (c *Client) Translate(ctx context.Context, model, systemPrompt, userQuery string) (ParsedContent, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userQuery},
		},
		Temperature: 0.2,
	}

	content, err := c.doWithRetry(ctx, req)
	if err != nil {
		return ParsedContent{}, err
	}

	return parseContent(content)
}

func (c *Client) doWithRetry(ctx context.Context, req chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffUnit * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("llm: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("llm: request failed: %w", err)
			continue
		}

		content, parseErr := readChatResponse(resp)
		resp.Body.Close()

		if retryableStatus[resp.StatusCode] {
			lastErr = fmt.Errorf("llm: retryable status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("llm: non-2xx status %d", resp.StatusCode)
		}
		if parseErr != nil {
			return "", parseErr
		}
		return content, nil
	}
	return "", lastErr
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// readChatResponse validates that choices[0].message.content is a string,
// per spec.md §4.9: a number, boolean, null or object there is an error.
func readChatResponse(resp *http.Response) (string, error) {
	var parsed chatCompletionResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: response has no choices")
	}

	raw := parsed.Choices[0].Message.Content
	content, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("llm: choices[0].message.content is not a string")
	}
	return content, nil
}

var fencedJSONRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseContent accepts either a raw Scryfall query string or a fenced JSON
// block shaped like {scryfallQuery, explanation, confidence}.
func parseContent(content string) (ParsedContent, error) {
	content = strings.TrimSpace(content)

	if m := fencedJSONRE.FindStringSubmatch(content); m != nil {
		return decodeJSONContent(m[1])
	}
	if strings.HasPrefix(content, "{") {
		if pc, err := decodeJSONContent(content); err == nil {
			return pc, nil
		}
	}

	return ParsedContent{ScryfallQuery: content, Explanation: "", Confidence: 0.55}, nil
}

func decodeJSONContent(raw string) (ParsedContent, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return ParsedContent{}, fmt.Errorf("llm: decode fenced JSON: %w", err)
	}
	return ParsedContent{
		ScryfallQuery: cast.ToString(obj["scryfallQuery"]),
		Explanation:   cast.ToString(obj["explanation"]),
		Confidence:    cast.ToFloat64(obj["confidence"]),
	}, nil
}

// BuildSystemPrompt composes the system prompt from the tier and any
// dynamic rules fetched from storage (spec.md §4.9).
func BuildSystemPrompt(tier Tier, dynamicRules []string) string {
	var b strings.Builder
	b.WriteString("Translate the user's natural-language Magic: The Gathering card search into Scryfall query syntax. ")
	switch tier {
	case TierSimple:
		b.WriteString("The query is short; prefer the most literal interpretation.")
	case TierComplex:
		b.WriteString("The query is long and may combine several constraints; be precise about each one.")
	default:
		b.WriteString("Balance literalness with the query's evident intent.")
	}
	if len(dynamicRules) > 0 {
		b.WriteString(" Known translation rules:\n")
		for _, r := range dynamicRules {
			b.WriteString("- " + r + "\n")
		}
	}
	b.WriteString(" Respond with a fenced JSON block: {\"scryfallQuery\": ..., \"explanation\": ..., \"confidence\": 0.0-1.0}.")
	return b.String()
}
