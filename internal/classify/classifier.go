package classify

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"postmill/internal/textutil"
)

// Tag selection limits.
const (
	TagThreshold = 0.1
	MaxTags      = 8
	MinTags      = 3

	// parentBonus multiplies the score of tags under the chosen category.
	parentBonus = 1.5
)

// Heuristic tags appended after keyword scoring.
const (
	TagBeginner             = "beginner"
	TagIntermediate         = "intermediate"
	TagAdvanced             = "advanced"
	TagSpainSpanish         = "spain-spanish"
	TagLatinAmericanSpanish = "latin-american-spanish"
)

var regionIndicators = map[string][]string{
	TagSpainSpanish: {
		"spain", "españa", "madrid", "barcelona", "seville", "sevilla",
		"castilian", "castellano", "vosotros", "peninsular",
	},
	TagLatinAmericanSpanish: {
		"latin america", "latin american", "latinoamérica", "mexico", "méxico",
		"argentina", "colombia", "peru", "perú", "chile", "caribbean", "voseo",
	},
}

// Result is the outcome of classifying a text.
type Result struct {
	Category   string   `json:"category"`
	CategoryID string   `json:"category_id"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
}

// Classifier scores text against a taxonomy. It is safe for concurrent use.
type Classifier struct {
	taxonomy Taxonomy

	regions       *ahocorasick.Matcher
	regionNeedles []string
	regionTag     []string
}

// New builds a classifier for the given taxonomy.
func New(t Taxonomy) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}

	c := &Classifier{taxonomy: t}
	for _, tag := range []string{TagSpainSpanish, TagLatinAmericanSpanish} {
		for _, word := range regionIndicators[tag] {
			// Padded so matches land on word boundaries of normalized text.
			c.regionNeedles = append(c.regionNeedles, " "+textutil.Normalize(word)+" ")
			c.regionTag = append(c.regionTag, tag)
		}
	}
	c.regions = ahocorasick.NewStringMatcher(c.regionNeedles)
	return c, nil
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns a shared classifier over DefaultTaxonomy.
func Default() *Classifier {
	defaultOnce.Do(func() {
		c, err := New(DefaultTaxonomy())
		if err != nil {
			panic(err)
		}
		defaultClassifier = c
	})
	return defaultClassifier
}

// Classify is shorthand for Default().Classify.
func Classify(title, body string) Result {
	return Default().Classify(title, body)
}

// Taxonomy returns the taxonomy the classifier scores against.
func (c *Classifier) Taxonomy() Taxonomy {
	return c.taxonomy
}

// Classify picks the best category and a ranked tag list for title and body.
func (c *Classifier) Classify(title, body string) Result {
	text := title + " " + body
	tokens := textutil.Tokenize(text)
	distinct := distinctTokens(tokens)
	n := float64(len(tokens))

	res := Result{}
	best := 0.0
	bestIdx := -1
	for i, cat := range c.taxonomy.Categories {
		score := phraseScore(cat.Keywords, cat.Weight, distinct) / max(n/100, 1)
		if score > best {
			best = score
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		cat := c.taxonomy.Categories[bestIdx]
		res.Category, res.CategoryID = cat.Name, cat.ID
		res.Confidence = min(1, best)
	} else {
		cat, _ := c.taxonomy.Category(FallbackCategory)
		res.Category, res.CategoryID = cat.Name, cat.ID
	}

	res.Tags = c.selectTags(res.CategoryID, distinct, n)
	res.Tags = appendMissing(res.Tags, complexityTag(textutil.Words(text)))
	for _, tag := range c.regionTags(text) {
		res.Tags = appendMissing(res.Tags, tag)
	}
	return res
}

type scoredTag struct {
	id    string
	score float64
}

func (c *Classifier) selectTags(categoryID string, distinct []string, n float64) []string {
	scored := make([]scoredTag, 0, len(c.taxonomy.Tags))
	for _, tag := range c.taxonomy.Tags {
		score := phraseScore(tag.Keywords, tag.Weight, distinct)
		if tag.CategoryID == categoryID {
			score *= parentBonus
		}
		scored = append(scored, scoredTag{id: tag.ID, score: score / max(n/50, 1)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	var tags []string
	for _, s := range scored {
		if s.score > TagThreshold && len(tags) < MaxTags {
			tags = append(tags, s.id)
		}
	}
	// Backfill to the minimum with the next best tags that matched at all.
	for _, s := range scored[len(tags):] {
		if len(tags) >= MinTags || s.score <= 0 {
			break
		}
		tags = append(tags, s.id)
	}
	return tags
}

func (c *Classifier) regionTags(text string) []string {
	padded := []byte(" " + textutil.Normalize(text) + " ")
	hits := c.regions.Match(padded)
	if len(hits) == 0 {
		return nil
	}
	found := make(map[string]bool)
	for _, idx := range hits {
		found[c.regionTag[idx]] = true
	}
	var tags []string
	for _, tag := range []string{TagSpainSpanish, TagLatinAmericanSpanish} {
		if found[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// phraseScore returns (sum of matched weights) x (match count). Every
// keyword that matches contributes weight once.
func phraseScore(keywords []string, weight float64, tokens []string) float64 {
	matched := 0
	for _, kw := range keywords {
		if phraseMatches(kw, tokens) {
			matched++
		}
	}
	return weight * float64(matched) * float64(matched)
}

// phraseMatches reports whether every word of phrase fuzzily matches some
// token, where fuzzy means substring in either direction.
func phraseMatches(phrase string, tokens []string) bool {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		ok := false
		for _, t := range tokens {
			if strings.Contains(t, w) || strings.Contains(w, t) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func complexityTag(words []string) string {
	if len(words) == 0 {
		return TagBeginner
	}
	long := 0
	for _, w := range words {
		if len([]rune(w)) > 8 {
			long++
		}
	}
	ratio := float64(long) / float64(len(words))
	switch {
	case ratio < 0.1:
		return TagBeginner
	case ratio < 0.2:
		return TagIntermediate
	default:
		return TagAdvanced
	}
}

func distinctTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func appendMissing(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
