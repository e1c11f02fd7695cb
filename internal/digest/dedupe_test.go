package digest

import (
	"testing"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

func TestDedupeDropsMissingFields(t *testing.T) {
	t.Parallel()

	in := []models.Article{
		{Title: "Valid article about policy", URL: "https://example.com/a"},
		{Title: "", URL: "https://example.com/b"},
		{Title: "No URL here", URL: ""},
		{Title: "   ", URL: "https://example.com/c"},
	}
	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 article, got %d", len(out))
	}
	if out[0].URL != "https://example.com/a" {
		t.Fatalf("wrong survivor: %s", out[0].URL)
	}
}

func TestDedupeExactURL(t *testing.T) {
	t.Parallel()

	in := []models.Article{
		{Title: "Parliament passes landmark education bill", URL: "https://example.com/x"},
		{Title: "Completely different monsoon coverage story", URL: "https://example.com/x"},
	}
	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected URL duplicate to be dropped, got %d articles", len(out))
	}
	if out[0].Title != "Parliament passes landmark education bill" {
		t.Fatalf("first-seen article should survive, got %q", out[0].Title)
	}
}

func TestDedupeNearIdenticalTitles(t *testing.T) {
	t.Parallel()

	// One-word difference on a long title pushes similarity well over the
	// threshold.
	in := []models.Article{
		{Title: "Supreme Court reserves verdict on electoral bonds scheme challenge", URL: "https://a.example.com/1"},
		{Title: "Supreme Court reserves verdict on electoral bonds scheme challenges", URL: "https://b.example.com/2"},
		{Title: "Monsoon session of parliament begins with opposition protests", URL: "https://c.example.com/3"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected near-duplicate titles to collapse, got %d articles", len(out))
	}
	if out[0].URL != "https://a.example.com/1" {
		t.Fatalf("first-seen near-duplicate should survive, got %s", out[0].URL)
	}
}

func TestDedupeKeptTitlesPairwiseDistinct(t *testing.T) {
	t.Parallel()

	in := []models.Article{
		{Title: "India signs new trade agreement with European Union", URL: "https://example.com/1"},
		{Title: "RBI holds repo rate steady for fourth consecutive time", URL: "https://example.com/2"},
		{Title: "India signs new trade agreement with European Unions", URL: "https://example.com/3"},
		{Title: "ISRO announces next lunar mission timeline", URL: "https://example.com/4"},
	}
	out := Dedupe(in)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if sim := TitleSimilarity(out[i].Title, out[j].Title); sim > titleSimilarityThreshold {
				t.Fatalf("kept titles %q and %q have similarity %.3f > %.2f",
					out[i].Title, out[j].Title, sim, titleSimilarityThreshold)
			}
		}
	}
}

func TestTitleSimilarityCaseInsensitive(t *testing.T) {
	t.Parallel()

	if sim := TitleSimilarity("Union Budget 2026 Highlights", "UNION BUDGET 2026 HIGHLIGHTS"); sim != 1.0 {
		t.Fatalf("case-only difference should be identical, got %.3f", sim)
	}
}

func TestParsePublished(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		ok   bool
		date string
	}{
		{"2026-08-30T09:15:00Z", true, "2026-08-30"},
		{"2026-08-30T09:15:00", true, "2026-08-30"},
		{"2026-08-30 09:15:00", true, "2026-08-30"},
		{"2026-08-30", true, "2026-08-30"},
		{"yesterday", false, ""},
		{"", false, ""},
	}
	for _, tc := range cases {
		got, ok := ParsePublished(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParsePublished(%q): ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got.Format("2006-01-02") != tc.date {
			t.Fatalf("ParsePublished(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.date)
		}
	}
}

func TestFilterToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	in := []models.Article{
		{Title: "today morning", URL: "u1", PublishedAt: "2026-08-30T06:00:00Z"},
		{Title: "yesterday", URL: "u2", PublishedAt: "2026-08-29T23:59:00Z"},
		{Title: "tomorrow", URL: "u3", PublishedAt: "2026-08-31T00:01:00Z"},
		{Title: "unparseable", URL: "u4", PublishedAt: "a while ago"},
		{Title: "date only", URL: "u5", PublishedAt: "2026-08-30"},
	}
	out := FilterToday(in, now)
	if len(out) != 2 {
		t.Fatalf("expected 2 same-day articles, got %d", len(out))
	}
	for _, a := range out {
		if a.URL != "u1" && a.URL != "u5" {
			t.Fatalf("unexpected survivor %s", a.URL)
		}
	}
}

func TestSortByPublishedDesc(t *testing.T) {
	t.Parallel()

	in := []models.Article{
		{Title: "a", PublishedAt: "2026-08-30T06:00:00Z"},
		{Title: "b", PublishedAt: "2026-08-30T12:00:00Z"},
		{Title: "c", PublishedAt: "2026-08-30T09:00:00Z"},
	}
	SortByPublishedDesc(in)
	if in[0].Title != "b" || in[1].Title != "c" || in[2].Title != "a" {
		t.Fatalf("wrong order: %s %s %s", in[0].Title, in[1].Title, in[2].Title)
	}
}
