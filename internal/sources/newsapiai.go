package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// upscAIKeywords are the per-request keyword expressions for NewsAPI.ai.
var upscAIKeywords = []string{
	`UPSC OR "civil service"`,
	"government policy india",
	"supreme court india",
	"economy india",
	"environment policy india",
}

const indiaLocationURI = "http://en.wikipedia.org/wiki/India"

// NewsAPIAI pulls India-focused articles from the NewsAPI.ai getArticles
// endpoint. Articles arrive with a full body, which becomes both the
// truncated description and the content field.
type NewsAPIAI struct {
	BaseURL string
	APIKey  string
	Delay   time.Duration
	client  *http.Client
	logger  *slog.Logger
}

func NewNewsAPIAI(apiKey string, logger *slog.Logger) *NewsAPIAI {
	return &NewsAPIAI{
		BaseURL: "https://newsapi.ai",
		APIKey:  apiKey,
		Delay:   2 * time.Second,
		client:  newHTTPClient(15 * time.Second),
		logger:  logger,
	}
}

func (n *NewsAPIAI) Name() string { return "newsapi.ai" }

type newsAPIAIResponse struct {
	Articles struct {
		Results []struct {
			Title    string `json:"title"`
			Body     string `json:"body"`
			URL      string `json:"url"`
			DateTime string `json:"dateTime"`
			Source   struct {
				Title string `json:"title"`
			} `json:"source"`
		} `json:"results"`
	} `json:"articles"`
}

func (n *NewsAPIAI) Fetch(ctx context.Context) ([]models.Article, error) {
	now := time.Now()
	dateStart := now.AddDate(0, 0, -1).Format("2006-01-02")
	dateEnd := now.Format("2006-01-02")

	var articles []models.Article
	for i, keyword := range upscAIKeywords {
		if i > 0 {
			if err := sleepCtx(ctx, n.Delay); err != nil {
				return articles, err
			}
		}
		batch, err := n.fetchKeyword(ctx, keyword, dateStart, dateEnd)
		if err != nil {
			n.logger.Warn("newsapi.ai keyword query failed", "keyword", keyword, "error", err)
			continue
		}
		articles = append(articles, batch...)
	}
	return articles, nil
}

func (n *NewsAPIAI) fetchKeyword(ctx context.Context, keyword, dateStart, dateEnd string) ([]models.Article, error) {
	body := map[string]any{
		"action":                 "getArticles",
		"keyword":                keyword,
		"articlesPage":           1,
		"articlesCount":          50,
		"articlesSortBy":         "date",
		"dataType":               []string{"news"},
		"forceMaxDataTimeWindow": 31,
		"resultType":             "articles",
		"dateStart":              dateStart,
		"dateEnd":                dateEnd,
		"lang":                   []string{"eng"},
		"locationUri":            indiaLocationURI,
		"apiKey":                 n.APIKey,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.BaseURL+"/api/v1/article/getArticles", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for keyword %q", resp.StatusCode, keyword)
	}

	var payload newsAPIAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var out []models.Article
	for _, a := range payload.Articles.Results {
		if a.Title == "" || a.URL == "" {
			continue
		}
		source := a.Source.Title
		if source == "" {
			source = "NewsAPI.ai Source"
		}
		out = append(out, models.Article{
			Title:       a.Title,
			Description: bodyToDescription(a.Body),
			URL:         a.URL,
			Source:      source,
			PublishedAt: a.DateTime,
			Content:     a.Body,
		})
	}
	return out, nil
}

// bodyToDescription cuts the full article body down to a preview.
func bodyToDescription(body string) string {
	if body == "" {
		return ""
	}
	if len(body) > 300 {
		return body[:300] + "..."
	}
	return body
}
