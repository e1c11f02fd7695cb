package digest

import (
	"regexp"
	"strings"
	"sync"

	"github.com/farizanjum/newsdigest/pkg/models"
)

// Keyword tier weights. Primary keywords also gate eligibility: an article
// with no primary hit in its title or description is dropped outright.
const (
	primaryWeight   = 3.0
	secondaryWeight = 2.0
	tertiaryWeight  = 1.0
)

// Category is one of the fixed UPSC study topics with its weighted keyword
// tiers.
type Category struct {
	Name      string
	Primary   []string
	Secondary []string
	Tertiary  []string
}

// Categories is the closed category set. Slice order is the tie-break order:
// when two categories score equally for an article, the earlier entry wins.
var Categories = []Category{
	{
		Name:      "Polity",
		Primary:   []string{"polity", "constitution", "parliament", "legislation", "supreme court", "judiciary"},
		Secondary: []string{"bill", "law", "amendment", "governor", "president", "cabinet", "election commission"},
		Tertiary:  []string{"fundamental rights", "directive principles", "constitutional", "democracy"},
	},
	{
		Name:      "Governance",
		Primary:   []string{"governance", "policy", "administration", "bureaucracy"},
		Secondary: []string{"transparency", "accountability", "good governance", "public service"},
		Tertiary:  []string{"civil service", "e-governance", "governance reforms", "digital india", "right to information"},
	},
	{
		Name:      "Environment",
		Primary:   []string{"environment", "climate", "biodiversity", "wildlife", "forest"},
		Secondary: []string{"pollution", "conservation", "sustainable", "ecology"},
		Tertiary:  []string{"global warming", "carbon", "greenhouse", "environmental", "species", "ecosystem", "natural resources"},
	},
	{
		Name:      "Economy",
		Primary:   []string{"economy", "gdp", "inflation", "fiscal", "monetary"},
		Secondary: []string{"budget", "tax", "bank", "finance", "economic", "trade"},
		Tertiary:  []string{"industry", "investment", "stock market", "employment", "unemployment", "agriculture", "msme", "niti aayog", "economic survey"},
	},
	{
		Name:      "Science",
		Primary:   []string{"science", "technology", "research", "innovation", "isro", "space"},
		Secondary: []string{"nasa", "scientist", "discovery", "invention", "scientific"},
		Tertiary:  []string{"satellite", "quantum", "nobel", "biotech", "genome", "dna", "physics", "chemistry", "biology"},
	},
	{
		Name:      "Scheme",
		Primary:   []string{"scheme", "yojana", "mission", "initiative", "programme"},
		Secondary: []string{"government scheme", "flagship", "campaign", "pradhan mantri"},
		Tertiary:  []string{"ujjwala", "jan dhan", "ayushman", "swachh bharat", "beti bachao", "mudra", "startup india", "digital india"},
	},
	{
		Name:      "Editorial",
		Primary:   []string{"editorial", "opinion", "analysis", "column"},
		Secondary: []string{"perspective", "viewpoint", "commentary", "leader"},
		Tertiary:  []string{"edit", "op-ed", "thought", "insight"},
	},
	{
		Name:      "International Relations",
		Primary:   []string{"international", "foreign", "diplomacy", "bilateral", "multilateral"},
		Secondary: []string{"united nations", "un", "world bank", "imf", "global"},
		Tertiary:  []string{"geopolitics", "india-china", "india-us", "india-pakistan", "summit", "treaty", "agreement", "border", "trade deal", "foreign policy"},
	},
	{
		Name:      "Indian Society",
		Primary:   []string{"society", "social", "culture", "demography", "population"},
		Secondary: []string{"gender", "women", "child", "education", "health"},
		Tertiary:  []string{"poverty", "inequality", "tribal", "caste", "minority", "diversity", "urban", "rural", "migration", "social justice"},
	},
}

var (
	patternOnce  sync.Once
	wordPatterns map[string]*regexp.Regexp
)

// keywordPattern returns the word-boundary matcher for a keyword. Boundaries
// keep "ai" from matching inside "said" and "un" inside "united".
func keywordPattern(keyword string) *regexp.Regexp {
	patternOnce.Do(func() {
		wordPatterns = make(map[string]*regexp.Regexp)
		for _, cat := range Categories {
			for _, tier := range [][]string{cat.Primary, cat.Secondary, cat.Tertiary} {
				for _, kw := range tier {
					k := strings.ToLower(kw)
					if _, ok := wordPatterns[k]; !ok {
						wordPatterns[k] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`)
					}
				}
			}
		}
	})
	return wordPatterns[strings.ToLower(keyword)]
}

// HasPrimaryKeyword reports whether any of the category's primary keywords
// appears whole-word in the text.
func HasPrimaryKeyword(text string, cat Category) bool {
	for _, kw := range cat.Primary {
		if keywordPattern(kw).MatchString(text) {
			return true
		}
	}
	return false
}

// CategoryScore sums the weighted keyword hits for one category over the
// given text. Each keyword contributes its tier weight at most once.
func CategoryScore(text string, cat Category) float64 {
	score := 0.0
	for _, kw := range cat.Primary {
		if keywordPattern(kw).MatchString(text) {
			score += primaryWeight
		}
	}
	for _, kw := range cat.Secondary {
		if keywordPattern(kw).MatchString(text) {
			score += secondaryWeight
		}
	}
	for _, kw := range cat.Tertiary {
		if keywordPattern(kw).MatchString(text) {
			score += tertiaryWeight
		}
	}
	return score
}

// Categorize assigns every article to its single best-fit category. Articles
// whose title and description contain no primary keyword of any category are
// dropped. The returned map only carries the fixed category names; iterate
// Categories for a deterministic order.
func Categorize(articles []models.Article) map[string][]models.Article {
	grouped := make(map[string][]models.Article, len(Categories))

	for _, a := range articles {
		var eligible []Category
		for _, cat := range Categories {
			if HasPrimaryKeyword(a.Title, cat) || HasPrimaryKeyword(a.Description, cat) {
				eligible = append(eligible, cat)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		fullText := a.Title + " " + a.Description + " " + a.Content
		best := eligible[0]
		bestScore := CategoryScore(fullText, best)
		for _, cat := range eligible[1:] {
			if s := CategoryScore(fullText, cat); s > bestScore {
				best = cat
				bestScore = s
			}
		}

		grouped[best.Name] = append(grouped[best.Name], a)
	}

	return grouped
}
