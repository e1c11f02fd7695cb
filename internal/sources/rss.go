package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// defaultTechFeeds are the RSS feeds backing the tech digest.
var defaultTechFeeds = []string{
	"https://techcrunch.com/feed/",
	"https://www.theverge.com/rss/index.xml",
	"https://www.artificialintelligence-news.com/feed/",
}

// RSS reads tech articles from a set of RSS/Atom feeds. A feed that fails to
// parse is skipped; the rest still contribute.
type RSS struct {
	FeedURLs []string
	parser   *gofeed.Parser
	logger   *slog.Logger
}

func NewRSS(feedURLs []string, logger *slog.Logger) *RSS {
	if len(feedURLs) == 0 {
		feedURLs = defaultTechFeeds
	}
	return &RSS{FeedURLs: feedURLs, parser: gofeed.NewParser(), logger: logger}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	for _, feedURL := range r.FeedURLs {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Warn("skipping feed", "url", feedURL, "error", err)
			continue
		}
		for _, item := range feed.Items {
			if item.Title == "" || item.Link == "" {
				continue
			}
			articles = append(articles, models.Article{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.Link,
				Source:      feed.Title,
				PublishedAt: itemPublished(item),
				Content:     item.Content,
			})
		}
	}
	return articles, nil
}

func itemPublished(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	return item.Published
}
