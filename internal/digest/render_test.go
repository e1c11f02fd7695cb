package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

func testRenderer() *Renderer {
	return NewRenderer("", "https://digest.example.com", nil)
}

func TestRenderUPSCEmptyInput(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	out := r.RenderUPSC(map[string][]models.Article{}, date, "someone@example.com")
	if !strings.Contains(out, "No relevant articles found for today") {
		t.Fatal("empty input must render the no-articles document")
	}
	if !strings.Contains(out, "August 30, 2026") {
		t.Fatal("no-articles document should carry the date")
	}
}

func TestRenderUPSCIdempotent(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	grouped := map[string][]models.Article{
		"Economy": {{Title: "GDP report released", URL: "https://example.com/gdp", Source: "The Hindu", PublishedAt: "2026-08-30T10:00:00Z", Description: "Quarterly growth numbers exceeded projections across most sectors."}},
	}

	a := r.RenderUPSC(grouped, date, "a@example.com")
	b := r.RenderUPSC(grouped, date, "a@example.com")
	if a != b {
		t.Fatal("rendering the same input twice must be byte-identical")
	}
}

func TestRenderUPSCCategoryCap(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	var arts []models.Article
	for i := 0; i < 7; i++ {
		arts = append(arts, models.Article{
			Title:       fmt.Sprintf("Polity article %d", i),
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Description: "A long enough description to avoid the placeholder fallback text.",
		})
	}
	out := r.RenderUPSC(map[string][]models.Article{"Polity": arts}, date, "")

	for i := 0; i < 4; i++ {
		if !strings.Contains(out, fmt.Sprintf("Polity article %d", i)) {
			t.Fatalf("article %d within cap missing", i)
		}
	}
	for i := 4; i < 7; i++ {
		if strings.Contains(out, fmt.Sprintf("Polity article %d", i)) {
			t.Fatalf("article %d beyond cap rendered", i)
		}
	}
	if !strings.Contains(out, "and 3 more articles") {
		t.Fatal("overflow notice missing")
	}
}

func TestRenderUPSCEncodesRecipientLinks(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	grouped := map[string][]models.Article{
		"Polity": {{Title: "Bill passed", URL: "https://example.com/bill", Description: "The upper house cleared the bill after a lengthy debate session."}},
	}

	out := r.RenderUPSC(grouped, date, "user+tag@example.com")
	if !strings.Contains(out, "/unsubscribe/user%2Btag%40example.com") {
		t.Fatal("unsubscribe link must URL-encode the email")
	}
	if !strings.Contains(out, "/preferences?email=user%2Btag%40example.com") {
		t.Fatal("preferences link must URL-encode the email")
	}
}

func TestRenderUPSCCategoryOrder(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	grouped := map[string][]models.Article{
		"Indian Society": {{Title: "Society piece", URL: "https://example.com/s", Description: "Coverage of demographic shifts in major metropolitan regions."}},
		"Polity":         {{Title: "Polity piece", URL: "https://example.com/p", Description: "Parliamentary proceedings from the ongoing monsoon session."}},
	}

	out := r.RenderUPSC(grouped, date, "")
	polityIdx := strings.Index(out, "Polity piece")
	societyIdx := strings.Index(out, "Society piece")
	if polityIdx < 0 || societyIdx < 0 {
		t.Fatal("both categories should render")
	}
	if polityIdx > societyIdx {
		t.Fatal("categories must render in fixed declaration order")
	}
}

func TestCleanDescription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   models.Article
		want string
	}{
		{
			name: "strips tags and entities",
			in:   models.Article{Description: "<p>Growth &amp; inflation   figures were released today by the ministry</p>"},
			want: "Growth & inflation figures were released today by the ministry",
		},
		{
			name: "short description falls back to content",
			in:   models.Article{Description: "short", Content: "The full content body is long enough to serve as the description."},
			want: "The full content body is long enough to serve as the description.",
		},
		{
			name: "no usable text gets placeholder",
			in:   models.Article{Description: "", Content: ""},
			want: placeholderDescription,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanDescription(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanDescriptionWordCap(t *testing.T) {
	t.Parallel()

	words := strings.Repeat("word ", 60)
	got := CleanDescription(models.Article{Description: words})
	if fields := strings.Fields(got); len(fields) != maxDescriptionWords {
		t.Fatalf("expected %d words, got %d", maxDescriptionWords, len(fields))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatal("truncated description must end with ellipsis")
	}
}

func TestFormatPublished(t *testing.T) {
	t.Parallel()

	if got := FormatPublished("2026-08-30T15:04:00Z"); got != "August 30, 2026 at 3:04 PM" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPublished("last tuesday"); got != "last tuesday" {
		t.Fatalf("unparseable input must pass through, got %q", got)
	}
}

func TestRenderTechCapAndSharpening(t *testing.T) {
	t.Parallel()

	r := testRenderer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	var arts []models.Article
	for i := 0; i < 12; i++ {
		arts = append(arts, models.Article{
			Title:       fmt.Sprintf("Tech story %d", i),
			URL:         fmt.Sprintf("https://techcrunch.com/story-%d", i),
			Description: "A description with enough length to avoid the short-text fallback.",
		})
	}
	out := r.RenderTech(arts, date, "t@example.com")

	if strings.Contains(out, "Tech story 10") {
		t.Fatal("tech digest must cap at 10 articles")
	}
	if !strings.Contains(out, "TechCrunch") {
		t.Fatal("source should be sharpened from URL host")
	}
}

func TestCategorizeTechBuckets(t *testing.T) {
	t.Parallel()

	in := []models.Article{
		{Title: "OpenAI ships new model", URL: "u1"},
		{Title: "AWS region outage postmortem", URL: "u2"},
		{Title: "Ransomware hits hospital chain", URL: "u3"},
		{Title: "Startup raises series A round", URL: "u4"},
		{Title: "New keyboard reviewed", URL: "u5"},
	}
	grouped := CategorizeTech(in)

	expect := map[string]string{
		"AI & Machine Learning":  "u1",
		"Cloud & Infrastructure": "u2",
		"Cybersecurity":          "u3",
		"Startups & Funding":     "u4",
		"Other Tech News":        "u5",
	}
	for bucket, wantURL := range expect {
		arts := grouped[bucket]
		if len(arts) != 1 || arts[0].URL != wantURL {
			t.Fatalf("bucket %s: want [%s], got %+v", bucket, wantURL, arts)
		}
	}
}
