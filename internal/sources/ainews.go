package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/farizanjum/newsdigest/pkg/models"
)

const aiNewsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// AINews scrapes the artificialintelligence-news.com listing page. Listing
// markup only; it does not follow through to article pages.
type AINews struct {
	BaseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewAINews(logger *slog.Logger) *AINews {
	return &AINews{
		BaseURL: "https://www.artificialintelligence-news.com",
		client:  newHTTPClient(15 * time.Second),
		logger:  logger,
	}
}

func (a *AINews) Name() string { return "ai-news" }

func (a *AINews) Fetch(ctx context.Context) ([]models.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", aiNewsUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var articles []models.Article
	doc.Find("article.post").Each(func(_ int, sel *goquery.Selection) {
		titleSel := sel.Find("h2.entry-title a")
		title := strings.TrimSpace(titleSel.Text())
		link, _ := titleSel.Attr("href")
		if title == "" || link == "" {
			return
		}

		desc := strings.TrimSpace(sel.Find("div.entry-content p").First().Text())

		published := ""
		if dt, ok := sel.Find("time.entry-date").Attr("datetime"); ok {
			published = dt
		}

		articles = append(articles, models.Article{
			Title:       title,
			Description: desc,
			URL:         link,
			Source:      "AI News",
			PublishedAt: published,
		})
	})

	return articles, nil
}
