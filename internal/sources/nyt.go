package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// nytRelevanceKeywords keeps only world-section items that matter to Indian
// current affairs.
var nytRelevanceKeywords = []string{
	"india", "international", "diplomacy", "foreign",
	"parliament", "modi", "delhi", "supreme court",
}

// NYT fetches the TimesWire world feed and the world Top Stories in one
// source, filtered down to relevant titles.
type NYT struct {
	BaseURL string
	APIKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewNYT(apiKey string, logger *slog.Logger) *NYT {
	return &NYT{
		BaseURL: "https://api.nytimes.com",
		APIKey:  apiKey,
		client:  newHTTPClient(10 * time.Second),
		logger:  logger,
	}
}

func (n *NYT) Name() string { return "nytimes" }

type nytResponse struct {
	Results []struct {
		Title         string `json:"title"`
		Abstract      string `json:"abstract"`
		URL           string `json:"url"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

func (n *NYT) Fetch(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article

	wire, err := n.fetchFeed(ctx, "/svc/news/v3/content/all/world.json", "NYT TimesWire")
	if err != nil {
		n.logger.Warn("nyt timeswire fetch failed", "error", err)
	} else {
		articles = append(articles, wire...)
	}

	top, err := n.fetchFeed(ctx, "/svc/topstories/v2/world.json", "NYT Top Stories")
	if err != nil {
		n.logger.Warn("nyt top stories fetch failed", "error", err)
	} else {
		articles = append(articles, top...)
	}

	return articles, nil
}

func (n *NYT) fetchFeed(ctx context.Context, path, sourceName string) ([]models.Article, error) {
	q := url.Values{}
	q.Set("api-key", n.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}

	var payload nytResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", path, err)
	}

	var out []models.Article
	for _, item := range payload.Results {
		if !isRelevantNYTTitle(item.Title) {
			continue
		}
		out = append(out, models.Article{
			Title:        item.Title,
			Description:  item.Abstract,
			URL:          item.URL,
			Source:       sourceName,
			PublishedAt:  item.PublishedDate,
			Content:      item.Abstract,
			CategoryHint: "International Relations",
		})
	}
	return out, nil
}

func isRelevantNYTTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range nytRelevanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
