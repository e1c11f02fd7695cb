package sources

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// Source is one upstream provider of articles. Implementations degrade
// gracefully: a failed request yields an error and whatever partial results
// were collected before it.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Article, error)
}

// Fetcher aggregates a set of sources. One source failing never stops the
// others; errors are logged and the run continues.
type Fetcher struct {
	sources []Source
	logger  *slog.Logger
}

func NewFetcher(logger *slog.Logger, sources ...Source) *Fetcher {
	return &Fetcher{sources: sources, logger: logger}
}

// FetchAll runs every source sequentially and merges the results in source
// order. Sequential on purpose: the upstream APIs rate-limit, and the
// adapters already pace their own calls.
func (f *Fetcher) FetchAll(ctx context.Context) []models.Article {
	var all []models.Article
	for _, src := range f.sources {
		articles, err := src.Fetch(ctx)
		if err != nil {
			f.logger.Error("source fetch failed", "source", src.Name(), "error", err)
		}
		if len(articles) > 0 {
			f.logger.Info("source contributed articles", "source", src.Name(), "count", len(articles))
			all = append(all, articles...)
		}
	}
	return all
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// sleepCtx pauses between paced upstream calls, returning early when the
// context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
