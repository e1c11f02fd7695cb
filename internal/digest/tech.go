package digest

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

const (
	maxTechArticles     = 10
	maxTechDescription  = 250
	techPlaceholderDesc = "Click below to read the full article and stay updated with the latest tech news."
)

// techTopics maps a display bucket to the keywords that pull an article into
// it. Unlike the study digest there is no eligibility gate: anything that
// matches nothing lands in Other.
var techTopics = []struct {
	Name     string
	Keywords []string
}{
	{"AI & Machine Learning", []string{"ai", "artificial intelligence", "machine learning", "llm", "neural", "openai", "anthropic", "deepmind", "chatgpt", "gpt"}},
	{"Cloud & Infrastructure", []string{"cloud", "aws", "azure", "kubernetes", "serverless", "devops", "infrastructure", "data center", "datacenter"}},
	{"Cybersecurity", []string{"security", "breach", "hack", "vulnerability", "ransomware", "malware", "phishing", "exploit", "zero-day"}},
	{"Startups & Funding", []string{"startup", "funding", "venture", "series a", "series b", "ipo", "acquisition", "valuation", "unicorn"}},
}

// knownTechHosts sharpens generic source names using the article URL host.
var knownTechHosts = map[string]string{
	"techcrunch.com":     "TechCrunch",
	"www.theverge.com":   "The Verge",
	"arstechnica.com":    "Ars Technica",
	"www.wired.com":      "Wired",
	"venturebeat.com":    "VentureBeat",
	"www.engadget.com":   "Engadget",
	"news.ycombinator.com": "Hacker News",
	"artificialintelligence-news.com":     "AI News",
	"www.artificialintelligence-news.com": "AI News",
}

// CategorizeTech buckets tech articles by topic keyword, first match in
// declaration order wins. Unmatched articles go to "Other Tech News".
func CategorizeTech(articles []models.Article) map[string][]models.Article {
	grouped := make(map[string][]models.Article)
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Description)
		bucket := "Other Tech News"
		for _, topic := range techTopics {
			matched := false
			for _, kw := range topic.Keywords {
				if keywordMatches(text, kw) {
					matched = true
					break
				}
			}
			if matched {
				bucket = topic.Name
				break
			}
		}
		grouped[bucket] = append(grouped[bucket], a)
	}
	return grouped
}

// keywordMatches is a whole-word containment check for already-lowercased
// text, cheap enough to skip the regexp cache used by the study categorizer.
func keywordMatches(lowerText, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(lowerText[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordByte(lowerText[start-1])
		afterOK := end == len(lowerText) || !isWordByte(lowerText[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// SharpenTechSource replaces a missing or generic source name with the
// publication derived from the article URL host, when the host is known.
func SharpenTechSource(a models.Article) string {
	if a.Source != "" && a.Source != "Unknown" && a.Source != "Unknown Source" {
		return a.Source
	}
	u, err := url.Parse(a.URL)
	if err == nil {
		if name, ok := knownTechHosts[strings.ToLower(u.Host)]; ok {
			return name
		}
		if host := strings.TrimPrefix(u.Host, "www."); host != "" {
			return host
		}
	}
	return "Tech News"
}

// RenderTech renders the flat tech digest: top articles newest-first, no
// category gate, shorter descriptions than the study digest.
func (r *Renderer) RenderTech(articles []models.Article, date time.Time, recipientEmail string) string {
	if len(articles) > maxTechArticles {
		articles = articles[:maxTechArticles]
	}

	var blocks strings.Builder
	for _, a := range articles {
		title := a.Title
		if title == "" {
			title = "No Title"
		}
		articleURL := a.URL
		if articleURL == "" {
			articleURL = "#"
		}

		desc := cleanText(a.Description)
		if len(desc) < minDescriptionLength {
			desc = techPlaceholderDesc
		}
		if len(desc) > maxTechDescription {
			desc = desc[:maxTechDescription] + "..."
		}

		fmt.Fprintf(&blocks, `
<div class="article-block">
  <div class="article-title"><a href="%s" target="_blank">%s</a></div>
  <div class="article-meta"><span class="source">%s</span> <span class="date">%s</span></div>
  <div class="article-description">%s</div>
  <a href="%s" class="article-link" target="_blank">Read More &rarr;</a>
</div>`,
			articleURL,
			html.EscapeString(title),
			html.EscapeString(SharpenTechSource(a)),
			html.EscapeString(FormatPublished(a.PublishedAt)),
			html.EscapeString(desc),
			articleURL)
	}

	if blocks.Len() == 0 {
		return r.RenderEmpty(date)
	}

	doc := strings.ReplaceAll(techTemplate, "{{ARTICLE_BLOCKS}}", blocks.String())
	doc = strings.ReplaceAll(doc, "{{current_date}}", date.Format("January 2, 2006"))
	doc = strings.ReplaceAll(doc, "{{UNSUBSCRIBE_LINK}}", r.unsubscribeURL(recipientEmail))
	doc = strings.ReplaceAll(doc, "{{PREFERENCES_LINK}}", r.preferencesURL(recipientEmail))
	return doc
}

const techTemplate = `<!DOCTYPE html>
<html>
<head>
<title>Tech Daily Digest</title>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f8f9fa; line-height: 1.6; }
  .container { max-width: 800px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
  .header { text-align: center; margin-bottom: 40px; border-bottom: 3px solid #1a73e8; padding-bottom: 20px; }
  .header h1 { color: #1a73e8; margin: 0; font-size: 2.5em; }
  .header p { color: #666; margin: 10px 0 0 0; font-size: 1.1em; }
  .article-block { margin-bottom: 30px; padding: 20px; border: 1px solid #e9ecef; border-radius: 8px; background-color: #ffffff; }
  .article-title a { color: #202124; text-decoration: none; font-weight: bold; font-size: 1.2em; display: block; margin-bottom: 10px; }
  .article-meta { color: #666; font-size: 0.9em; margin: 10px 0; }
  .article-meta .source { font-weight: bold; color: #1a73e8; }
  .article-description { margin: 15px 0; line-height: 1.7; color: #444; }
  .article-link { color: #1a73e8; text-decoration: none; font-weight: bold; display: inline-block; margin-top: 10px; padding: 8px 16px; border: 2px solid #1a73e8; border-radius: 5px; }
  .footer { text-align: center; margin-top: 50px; padding-top: 30px; border-top: 2px solid #e9ecef; font-size: 0.9em; color: #666; }
  .footer a { color: #1a73e8; text-decoration: none; font-weight: bold; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Tech Daily Digest</h1>
    <p>{{current_date}}</p>
  </div>
  {{ARTICLE_BLOCKS}}
  <div class="footer">
    <p><strong>Manage Your Subscription</strong></p>
    <p><a href="{{UNSUBSCRIBE_LINK}}">Unsubscribe</a> | <a href="{{PREFERENCES_LINK}}">Manage Preferences</a></p>
  </div>
</div>
</body>
</html>`
