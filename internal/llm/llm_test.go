package llm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractArticles(t *testing.T) {
	t.Parallel()

	content := `Here are today's picks:
[
  {"title": "Quantum chip milestone", "description": "New qubit record.",
   "url": "https://example.com/q", "source": "Example", "category": "AI"},
  {"title": "", "url": "https://example.com/skip"}
]
Let me know if you need more.`

	articles, err := extractArticles(content)
	if err != nil {
		t.Fatalf("extractArticles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article (titleless skipped), got %d", len(articles))
	}
	if articles[0].CategoryHint != "AI" {
		t.Fatalf("category hint = %q", articles[0].CategoryHint)
	}
}

func TestExtractArticlesNoArray(t *testing.T) {
	t.Parallel()

	if _, err := extractArticles("Sorry, I cannot find any articles today."); err == nil {
		t.Fatal("expected error when no JSON array present")
	}
}

func TestCurateArticles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices": [{"message": {"content":
			"[{\"title\": \"Robotics roundup\", \"url\": \"https://example.com/r\", \"source\": \"Wire\"}]"
		}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "test-key", discardLogger())
	articles, err := c.CurateArticles(context.Background(), "all", "robotics")
	if err != nil {
		t.Fatalf("CurateArticles: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Robotics roundup" {
		t.Fatalf("got %+v", articles)
	}
}

func TestCurateArticlesDisabledClient(t *testing.T) {
	t.Parallel()

	c := NewClient("https://example.com", "m", "", discardLogger())
	articles, err := c.CurateArticles(context.Background(), "all", "robotics")
	if err != nil || articles != nil {
		t.Fatalf("disabled client must be a no-op, got %v / %v", articles, err)
	}
}
