// Package newsapi searches recent news headlines through the NewsAPI
// /v2/everything endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

const defaultBaseURL = "https://newsapi.org"

// sectorTerms broadens fund-name searches with common sector vocabulary.
var sectorTerms = map[string][]string{
	"technology":       {"tech", "software"},
	"healthcare":       {"healthcare", "pharmaceutical"},
	"energy":           {"energy", "oil"},
	"financial":        {"bank", "financial"},
	"aerospace":        {"aerospace", "defense"},
	"real estate":      {"real estate", "REIT"},
	"consumer":         {"consumer", "retail"},
	"emerging markets": {"emerging markets", "China"},
}

// Client is a NewsAPI client.
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	log      zerolog.Logger
}

// NewClient creates a new NewsAPI client. pageSize bounds the number of
// articles requested per search.
func NewClient(apiKey string, pageSize int, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:  defaultBaseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		log:      log.With().Str("client", "newsapi").Logger(),
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint for tests.
func NewClientWithBaseURL(baseURL, apiKey string, pageSize int, log zerolog.Logger) *Client {
	c := NewClient(apiKey, pageSize, log)
	c.baseURL = baseURL
	return c
}

// Search returns recent articles mentioning the symbol within the window.
// A missing API key is not an error: it returns no articles so the caller
// can proceed without qualitative evidence.
func (c *Client) Search(ctx context.Context, symbol, displayName string, window time.Duration) ([]domain.Article, error) {
	if c.apiKey == "" {
		c.log.Warn().Str("symbol", symbol).Msg("News API key not configured, skipping search")
		return nil, nil
	}

	now := time.Now().UTC()
	params := url.Values{}
	params.Set("q", buildQuery(symbol, displayName))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	params.Set("from", now.Add(-window).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	reqURL := c.baseURL + "/v2/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title  string `json:"title"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI error: %s", result.Message)
	}

	articles := make([]domain.Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		// NewsAPI replaces withdrawn articles with a placeholder title.
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			published = now
		}
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			Description: a.Description,
			PublishedAt: published,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("articles", len(articles)).
		Msg("News search complete")
	return articles, nil
}

// buildQuery combines the quoted ticker with sector vocabulary drawn from
// the fund's display name.
func buildQuery(symbol, displayName string) string {
	terms := []string{fmt.Sprintf("%q", symbol)}
	lower := strings.ToLower(displayName)
	for sector, extra := range sectorTerms {
		if strings.Contains(lower, sector) {
			terms = append(terms, extra...)
			break
		}
	}
	return strings.Join(terms, " OR ")
}
