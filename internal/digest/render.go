package digest

import (
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/farizanjum/newsdigest/pkg/models"
)

const (
	maxArticlesPerCategory = 4
	maxDescriptionWords    = 40
	minDescriptionLength   = 30

	placeholderDescription = "Click to read the full article."
)

var (
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// Renderer turns grouped articles into a self-contained HTML digest via
// literal placeholder substitution. No templating-language control flow.
type Renderer struct {
	template string
	baseURL  string
	logger   *slog.Logger
}

// NewRenderer loads the external template when a path is given, falling back
// to the built-in one on any read failure.
func NewRenderer(templatePath, baseURL string, logger *slog.Logger) *Renderer {
	tmpl := upscTemplate
	if templatePath != "" {
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			if logger != nil {
				logger.Warn("digest template not readable, using built-in", "path", templatePath, "error", err)
			}
		} else {
			tmpl = string(raw)
		}
	}
	return &Renderer{template: tmpl, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// RenderUPSC produces the categorized digest document for one day. Empty
// input renders the fixed no-articles document instead.
func (r *Renderer) RenderUPSC(grouped map[string][]models.Article, date time.Time, recipientEmail string) string {
	total := 0
	for _, arts := range grouped {
		total += len(arts)
	}
	if total == 0 {
		return r.RenderEmpty(date)
	}

	doc := strings.ReplaceAll(r.template, "{{CATEGORY_BLOCKS}}", categoryBlocks(grouped))
	doc = strings.ReplaceAll(doc, "{{current_date}}", date.Format("January 2, 2006"))
	doc = strings.ReplaceAll(doc, "{{UNSUBSCRIBE_LINK}}", r.unsubscribeURL(recipientEmail))
	doc = strings.ReplaceAll(doc, "{{PREFERENCES_LINK}}", r.preferencesURL(recipientEmail))
	return doc
}

// RenderEmpty is the fixed placeholder document for days with no surviving
// articles. Always succeeds; zero articles is a valid terminal state.
func (r *Renderer) RenderEmpty(date time.Time) string {
	return fmt.Sprintf(emptyTemplate, date.Format("2006-01-02"), date.Format("January 2, 2006"))
}

func (r *Renderer) unsubscribeURL(email string) string {
	if email == "" {
		return r.baseURL + "/unsubscribe"
	}
	return r.baseURL + "/unsubscribe/" + url.QueryEscape(email)
}

func (r *Renderer) preferencesURL(email string) string {
	if email == "" {
		return r.baseURL + "/preferences"
	}
	return r.baseURL + "/preferences?email=" + url.QueryEscape(email)
}

// categoryBlocks emits one block per non-empty category, in the fixed
// category order, capped at maxArticlesPerCategory articles each.
func categoryBlocks(grouped map[string][]models.Article) string {
	var b strings.Builder
	for _, cat := range Categories {
		articles := grouped[cat.Name]
		if len(articles) == 0 {
			continue
		}

		shown := articles
		if len(shown) > maxArticlesPerCategory {
			shown = shown[:maxArticlesPerCategory]
		}

		fmt.Fprintf(&b, `<div class="category-block"><div class="section-title">%s (%d)</div>`,
			html.EscapeString(cat.Name), len(shown))
		for _, a := range shown {
			writeArticleBlock(&b, a)
		}
		if remaining := len(articles) - maxArticlesPerCategory; remaining > 0 {
			fmt.Fprintf(&b, `<div class="more-notice">... and %d more articles in this category</div>`, remaining)
		}
		b.WriteString("</div>")
	}
	return b.String()
}

func writeArticleBlock(b *strings.Builder, a models.Article) {
	title := a.Title
	if title == "" {
		title = "No Title"
	}
	source := a.Source
	if source == "" {
		source = "Unknown Source"
	}
	articleURL := a.URL
	if articleURL == "" {
		articleURL = "#"
	}

	fmt.Fprintf(b, `
<div class="article-block">
  <div class="article-title"><a href="%s" target="_blank">%s</a></div>
  <div class="article-meta"><span class="source">%s</span> <span class="date">%s</span></div>
  <div class="article-description">%s</div>
  <a href="%s" class="article-link" target="_blank">Read More &rarr;</a>
</div>`,
		articleURL,
		html.EscapeString(title),
		html.EscapeString(source),
		html.EscapeString(FormatPublished(a.PublishedAt)),
		html.EscapeString(CleanDescription(a)),
		articleURL)
}

// CleanDescription strips markup and entities, collapses whitespace,
// substitutes content or a placeholder when the description is too short,
// and caps the result at maxDescriptionWords words.
func CleanDescription(a models.Article) string {
	desc := cleanText(a.Description)
	if len(desc) < minDescriptionLength {
		if content := cleanText(a.Content); len(content) >= minDescriptionLength {
			desc = content
		} else {
			desc = placeholderDescription
		}
	}
	return truncateWords(desc, maxDescriptionWords)
}

func cleanText(s string) string {
	s = tagExpr.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = whitespaceExpr.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + "..."
}

// FormatPublished renders a display date from the raw timestamp, falling
// back to the raw string when it cannot be parsed.
func FormatPublished(raw string) string {
	t, ok := ParsePublished(raw)
	if !ok {
		if raw == "" {
			return "Today"
		}
		return raw
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

const upscTemplate = `<!DOCTYPE html>
<html>
<head>
<title>UPSC Daily Digest</title>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f8f9fa; line-height: 1.6; }
  .container { max-width: 800px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
  .header { text-align: center; margin-bottom: 40px; border-bottom: 3px solid #2c3e50; padding-bottom: 20px; }
  .header h1 { color: #2c3e50; margin: 0; font-size: 2.5em; }
  .header p { color: #666; margin: 10px 0 0 0; font-size: 1.1em; }
  .section-title { font-size: 1.8em; font-weight: bold; color: #2c3e50; margin: 40px 0 25px 0; border-left: 5px solid #3498db; background-color: #f8f9fa; padding: 15px; border-radius: 5px; }
  .category-block { margin-bottom: 40px; }
  .article-block { margin-bottom: 30px; padding: 20px; border: 1px solid #e9ecef; border-radius: 8px; background-color: #ffffff; }
  .article-title a { color: #2c3e50; text-decoration: none; font-weight: bold; font-size: 1.2em; display: block; margin-bottom: 10px; }
  .article-meta { color: #666; font-size: 0.9em; margin: 10px 0; }
  .article-meta .source { font-weight: bold; color: #3498db; }
  .article-description { margin: 15px 0; line-height: 1.7; color: #444; }
  .article-link { color: #3498db; text-decoration: none; font-weight: bold; display: inline-block; margin-top: 10px; padding: 8px 16px; border: 2px solid #3498db; border-radius: 5px; }
  .more-notice { text-align: center; margin: 15px 0; color: #666; font-style: italic; }
  .footer { text-align: center; margin-top: 50px; padding-top: 30px; border-top: 2px solid #e9ecef; font-size: 0.9em; color: #666; }
  .footer a { color: #3498db; text-decoration: none; font-weight: bold; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>UPSC Daily Digest</h1>
    <p>{{current_date}}</p>
  </div>
  {{CATEGORY_BLOCKS}}
  <div class="footer">
    <p><strong>Manage Your Subscription</strong></p>
    <p><a href="{{UNSUBSCRIBE_LINK}}">Unsubscribe</a> | <a href="{{PREFERENCES_LINK}}">Manage Preferences</a></p>
  </div>
</div>
</body>
</html>`

const emptyTemplate = `<html>
<head>
<title>UPSC Daily Digest - %s</title>
<style>
  body { font-family: Arial, sans-serif; margin: 20px; }
  .header { text-align: center; margin-bottom: 30px; }
  .message { text-align: center; color: #666; font-size: 18px; }
</style>
</head>
<body>
<div class="header">
  <h1>UPSC Daily Digest</h1>
  <p>Date: %s</p>
</div>
<div class="message">
  <p>No relevant articles found for today. Please check back tomorrow!</p>
</div>
</body>
</html>`
