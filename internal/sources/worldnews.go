package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// WorldNews pulls international coverage from the World News API. Everything
// it returns carries an International Relations category hint; the
// categorizer treats the hint as metadata only.
type WorldNews struct {
	BaseURL string
	APIKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewWorldNews(apiKey string, logger *slog.Logger) *WorldNews {
	return &WorldNews{
		BaseURL: "https://api.worldnewsapi.com",
		APIKey:  apiKey,
		client:  newHTTPClient(10 * time.Second),
		logger:  logger,
	}
}

func (w *WorldNews) Name() string { return "worldnewsapi" }

type worldNewsResponse struct {
	News []struct {
		Title       string `json:"title"`
		Text        string `json:"text"`
		URL         string `json:"url"`
		PublishDate string `json:"publish_date"`
		Source      string `json:"source"`
	} `json:"news"`
}

func (w *WorldNews) Fetch(ctx context.Context) ([]models.Article, error) {
	q := url.Values{}
	q.Set("api-key", w.APIKey)
	q.Set("text", "India OR International Relations")
	q.Set("language", "en")
	q.Set("number", "30")
	q.Set("sort", "publish-time")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BaseURL+"/search-news?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search-news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var payload worldNewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var out []models.Article
	for _, item := range payload.News {
		out = append(out, models.Article{
			Title:        item.Title,
			Description:  item.Text,
			URL:          item.URL,
			Source:       item.Source,
			PublishedAt:  item.PublishDate,
			Content:      item.Text,
			CategoryHint: "International Relations",
		})
	}
	return out, nil
}
