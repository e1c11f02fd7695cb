package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const aiNewsListing = `<html><body>
<article class="post">
  <h2 class="entry-title"><a href="https://www.artificialintelligence-news.com/a1">Model release roundup</a></h2>
  <div class="entry-content"><p>A survey of this week's model releases.</p></div>
  <time class="entry-date" datetime="2026-08-30T05:00:00+00:00">Aug 30</time>
</article>
<article class="post">
  <h2 class="entry-title"><a href="">Broken entry</a></h2>
</article>
<article class="post">
  <h2 class="entry-title"><a href="https://www.artificialintelligence-news.com/a2">Chip supply update</a></h2>
</article>
</body></html>`

func TestAINewsScrapesListing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
			t.Errorf("expected browser user agent, got %q", ua)
		}
		io.WriteString(w, aiNewsListing)
	}))
	defer srv.Close()

	src := NewAINews(discardLogger())
	src.BaseURL = srv.URL

	articles, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (broken entry skipped), got %d", len(articles))
	}
	first := articles[0]
	if first.Title != "Model release roundup" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Description != "A survey of this week's model releases." {
		t.Fatalf("description = %q", first.Description)
	}
	if first.PublishedAt != "2026-08-30T05:00:00+00:00" {
		t.Fatalf("published = %q", first.PublishedAt)
	}
	if first.Source != "AI News" {
		t.Fatalf("source = %q", first.Source)
	}
}

func TestAINewsNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewAINews(discardLogger())
	src.BaseURL = srv.URL

	articles, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error on non-200")
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
}
