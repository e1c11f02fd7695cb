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

// upscSearchTerms are queried one by one against /v2/everything.
var upscSearchTerms = []string{"UPSC", "government policy", "india economy", "supreme court"}

// indianOutlets post-filters results to the papers the study digest covers.
var indianOutlets = []string{"hindu", "times", "indian", "express"}

// NewsAPI pulls current-affairs articles from NewsAPI.org.
type NewsAPI struct {
	BaseURL string
	APIKey  string
	// Delay paces consecutive term queries. Zero in tests.
	Delay  time.Duration
	client *http.Client
	logger *slog.Logger
}

func NewNewsAPI(apiKey string, logger *slog.Logger) *NewsAPI {
	return &NewsAPI{
		BaseURL: "https://newsapi.org",
		APIKey:  apiKey,
		Delay:   time.Second,
		client:  newHTTPClient(10 * time.Second),
		logger:  logger,
	}
}

func (n *NewsAPI) Name() string { return "newsapi.org" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Fetch queries each search term over the last 24 hours and keeps only
// articles from the covered Indian outlets. A failed term logs and moves on.
func (n *NewsAPI) Fetch(ctx context.Context) ([]models.Article, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.Format("2006-01-02")

	var articles []models.Article
	for i, term := range upscSearchTerms {
		if i > 0 {
			if err := sleepCtx(ctx, n.Delay); err != nil {
				return articles, err
			}
		}
		batch, err := n.fetchTerm(ctx, term, from, to)
		if err != nil {
			n.logger.Warn("newsapi term query failed", "term", term, "error", err)
			continue
		}
		articles = append(articles, batch...)
	}
	return articles, nil
}

func (n *NewsAPI) fetchTerm(ctx context.Context, term, from, to string) ([]models.Article, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("from", from)
	q.Set("to", to)
	q.Set("language", "en")
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", "20")
	q.Set("apiKey", n.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", term, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for term %q", resp.StatusCode, term)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("api status %q", payload.Status)
	}

	var out []models.Article
	for _, a := range payload.Articles {
		if !isIndianOutlet(a.Source.Name) {
			continue
		}
		out = append(out, models.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}
	return out, nil
}

func isIndianOutlet(sourceName string) bool {
	name := strings.ToLower(sourceName)
	for _, s := range indianOutlets {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// NewsAPITech is the tech-digest variant: one broad technology query, no
// outlet filter.
type NewsAPITech struct {
	BaseURL string
	APIKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewNewsAPITech(apiKey string, logger *slog.Logger) *NewsAPITech {
	return &NewsAPITech{
		BaseURL: "https://newsapi.org",
		APIKey:  apiKey,
		client:  newHTTPClient(10 * time.Second),
		logger:  logger,
	}
}

func (n *NewsAPITech) Name() string { return "newsapi.org/tech" }

func (n *NewsAPITech) Fetch(ctx context.Context) ([]models.Article, error) {
	q := url.Values{}
	q.Set("q", `"artificial intelligence" OR ai OR cloud OR cybersecurity OR startup OR technology`)
	q.Set("from", time.Now().AddDate(0, 0, -1).Format("2006-01-02"))
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", "20")
	q.Set("apiKey", n.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tech query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var out []models.Article
	for _, a := range payload.Articles {
		out = append(out, models.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}
	return out, nil
}
