package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// Client is a minimal chat-completions client used for custom-interest
// curation. Curation is best-effort: any failure yields an empty slice, and
// the caller falls back to the regular article pool.
type Client struct {
	url    string
	model  string
	apiKey string
	hc     *http.Client
	logger *slog.Logger
}

func NewClient(url, model, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		url:    url,
		model:  model,
		apiKey: apiKey,
		hc:     &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether the client is configured to make calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.url != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type curatedArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Category    string `json:"category"`
}

var jsonArrayExpr = regexp.MustCompile(`(?s)\[.*\]`)

// CurateArticles asks the model for articles matching the subscriber's
// custom interests and extracts the JSON array from its reply.
func (c *Client) CurateArticles(ctx context.Context, preferences, customInterests string) ([]models.Article, error) {
	if !c.Enabled() {
		return nil, nil
	}

	prompt := fmt.Sprintf(`Please curate the latest technology news based on these preferences: %s
With specific focus on: %s

Provide a JSON list of articles with the following format:
[
    {
        "title": "Article title",
        "description": "Brief description",
        "url": "https://example.com",
        "source": "Source name",
        "category": "Category"
    }
]`, preferences, customInterests)

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a technology news curator. Provide curated news articles in the requested JSON format."},
			{Role: "user", Content: prompt},
		},
		Model:       c.model,
		Stream:      false,
		Temperature: 0.7,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("llm new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("llm request", "model", c.model, "status", resp.StatusCode, "latency", time.Since(start))

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("llm decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm response has no choices")
	}

	return extractArticles(parsed.Choices[0].Message.Content)
}

// extractArticles pulls the first JSON array out of model text, tolerating
// prose around it.
func extractArticles(content string) ([]models.Article, error) {
	match := jsonArrayExpr.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in llm response")
	}

	var curated []curatedArticle
	if err := json.Unmarshal([]byte(match), &curated); err != nil {
		return nil, fmt.Errorf("parse curated articles: %w", err)
	}

	var out []models.Article
	for _, a := range curated {
		if a.Title == "" || a.URL == "" {
			continue
		}
		out = append(out, models.Article{
			Title:        a.Title,
			Description:  a.Description,
			URL:          a.URL,
			Source:       a.Source,
			CategoryHint: a.Category,
		})
	}
	return out, nil
}
