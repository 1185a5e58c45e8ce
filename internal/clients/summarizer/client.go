// Package summarizer turns news articles into a structured qualitative
// assessment through an OpenAI-compatible chat completion API.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// Client produces news summaries through a chat completion model.
type Client struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewClient creates a new summarizer client. baseURL overrides the API
// endpoint when non-empty, which also lets tests point at a local server.
func NewClient(apiKey, model, baseURL string, log zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.With().Str("client", "summarizer").Logger(),
	}
}

// Summarize analyzes the articles for one fund and returns a structured
// assessment with sentiment, relevance, themes and risks.
func (c *Client) Summarize(ctx context.Context, symbol, displayName string, articles []domain.Article) (*domain.SummaryResult, error) {
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles to summarize for %s", symbol)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a financial analyst. Respond only with valid JSON, no markdown formatting.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(symbol, displayName, articles),
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	result, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("sentiment", result.Sentiment).
		Float64("relevance", result.Relevance).
		Msg("Summarized news")
	return result, nil
}

// buildPrompt formats the articles and the requested JSON shape.
func buildPrompt(symbol, displayName string, articles []domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are analyzing news for %s (%s).\n\n", symbol, displayName)
	b.WriteString("Recent articles related to this fund and its sector:\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "Article %d:\n", i+1)
		fmt.Fprintf(&b, "  Title: %s\n", a.Title)
		fmt.Fprintf(&b, "  Source: %s\n", a.Source)
		if a.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", a.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString(`Provide an analysis as JSON with these fields:

1. "summary" (string): 2-3 sentences covering the main themes across all articles, focused on actionable investment insight.
2. "sentiment_score" (number): overall sentiment from -1.0 (very negative) to 1.0 (very positive).
3. "relevance_score" (number): relevance of the articles to the fund's investment thesis, from 0.0 to 1.0.
4. "key_themes" (array of strings): 2-4 key investment themes.
5. "risk_factors" (array of strings): 2-4 risks or concerns mentioned.

Respond ONLY with the JSON object.`)
	return b.String()
}

// parseResponse extracts the JSON payload from the model output, repairing
// malformed JSON when plain parsing fails.
func parseResponse(content string) (*domain.SummaryResult, error) {
	text := stripCodeFence(strings.TrimSpace(content))

	var result domain.SummaryResult
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return &result, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON after repair: %w", err)
	}
	return &result, nil
}

// stripCodeFence removes a surrounding markdown code block if present.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
