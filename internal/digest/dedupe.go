package digest

import (
	"sort"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// titleSimilarityThreshold is the normalized edit-similarity above which two
// titles are treated as the same story.
const titleSimilarityThreshold = 0.85

// TitleSimilarity returns a case-insensitive similarity ratio in [0,1]
// between two article titles.
func TitleSimilarity(a, b string) float64 {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	return strutil.Similarity(a, b, lev)
}

// Dedupe removes near-duplicate articles. Input order is preserved and
// decides which of two near-duplicates survives: always the first seen.
// Articles without a URL or title are dropped. O(n²) over kept titles,
// fine for daily volumes.
func Dedupe(articles []models.Article) []models.Article {
	unique := make([]models.Article, 0, len(articles))
	seenURLs := make(map[string]struct{}, len(articles))
	seenTitles := make([]string, 0, len(articles))

	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		if a.URL == "" || title == "" {
			continue
		}
		if _, ok := seenURLs[a.URL]; ok {
			continue
		}

		duplicate := false
		for _, existing := range seenTitles {
			if TitleSimilarity(title, existing) > titleSimilarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		unique = append(unique, a)
		seenURLs[a.URL] = struct{}{}
		seenTitles = append(seenTitles, title)
	}

	return unique
}

// ParsePublished parses the best-effort timestamp string adapters produce.
func ParsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, "T") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterToday keeps only articles published on now's calendar date. This is
// a strict freshness gate: unparseable dates drop the article.
func FilterToday(articles []models.Article, now time.Time) []models.Article {
	y, m, d := now.Date()
	kept := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		t, ok := ParsePublished(a.PublishedAt)
		if !ok {
			continue
		}
		ty, tm, td := t.In(now.Location()).Date()
		if ty == y && tm == m && td == d {
			kept = append(kept, a)
		}
	}
	return kept
}

// SortByPublishedDesc orders articles newest-first by the raw timestamp
// string, matching the lexical ordering of ISO-8601 dates. Stable, so
// same-timestamp articles keep their fetch order.
func SortByPublishedDesc(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt > articles[j].PublishedAt
	})
}
