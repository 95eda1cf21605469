// Package draft produces templated lesson bodies from catalog topics.
package draft

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"postmill/internal/core"
	"postmill/internal/textutil"
)

// ExcerptLength caps the excerpt in runes.
const ExcerptLength = 200

type section struct {
	heading string
	body    string
}

// Generator renders drafts. Regeneration draws from a seeded source so runs
// are reproducible for a fixed seed.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. A zero seed uses the
// current time.
func NewGenerator(seed int64) *Generator {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Draft renders the first-pass article for topic.
func (g *Generator) Draft(topic core.Topic) string {
	name := strings.ToLower(topic.Title)
	k := keywordsOf(topic)

	steps := make([]string, 0, len(k))
	for i, kw := range k {
		steps = append(steps, fmt.Sprintf("%d. %s", i+1, stepLines[i%len(stepLines)](kw)))
	}

	return render([]section{
		{"Introduction", fmt.Sprintf("Welcome to this %s %s lesson on %s. %s",
			topic.Difficulty, strings.ToLower(topic.Category), name, ensurePeriod(topic.Description))},
		{"Why It Matters", fmt.Sprintf("Understanding %s helps you speak with more confidence. "+
			"Learners who get comfortable with %s and %s find that conversations start to flow naturally.",
			name, k[0], k[len(k)/2])},
		{"Examples", bulletList(k, func(kw string) string {
			return fmt.Sprintf("**%s**: listen for %s in real conversations and repeat the pattern aloud.", kw, kw)
		})},
		{"Step-by-Step Guide", strings.Join(steps, "\n")},
		{"Common Mistakes", fmt.Sprintf("Many learners confuse %s with similar forms. "+
			"Slow down and check each %s before you speak, and write your own sentences to test yourself.",
			k[0], k[len(k)-1])},
		{"Conclusion", fmt.Sprintf("With regular practice, %s becomes second nature. "+
			"Come back to this guide whenever you need a refresher.", name)},
	})
}

var stepLines = []func(string) string{
	func(kw string) string { return fmt.Sprintf("Review the basics of %s.", kw) },
	func(kw string) string { return fmt.Sprintf("Practice %s with short sentences.", kw) },
	func(kw string) string { return fmt.Sprintf("Use %s in a conversation this week.", kw) },
	func(kw string) string { return fmt.Sprintf("Explain %s to a friend in your own words.", kw) },
}

var introPool = []string{
	"Most textbooks rush through %s, so this guide takes it one piece at a time.",
	"If %s has ever tripped you up, you are in good company.",
	"Native speakers rarely think about %s, yet it shapes almost every sentence they say.",
	"Here is a fresh look at %s built around the situations where it actually shows up.",
	"Think of %s as a toolkit rather than a list of rules to memorize.",
}

var extraPool = []section{
	{"A Quick Self-Check", "Cover the examples above and try to produce each form from memory. Mark the ones you hesitate on and revisit them tomorrow."},
	{"Real-World Scenario", "Picture yourself ordering coffee or asking for directions. Every exchange is a chance to try what you learned here."},
	{"Memory Hooks", "Pair each new form with an image or a short story. Odd associations tend to stick longer than plain repetition."},
	{"Listening Practice", "Find a short clip or podcast episode and note every time the pattern appears. Replay the tricky parts at half speed."},
}

// Regenerate renders an alternate article for topic. Introduction and an
// extra section are drawn from fixed pools, sections are reordered and built
// from the topic's own description and keywords, and any sentence that
// falls inside a hint segment is rewritten.
func (g *Generator) Regenerate(topic core.Topic, hints []string) string {
	g.mu.Lock()
	intro := introPool[g.rng.IntN(len(introPool))]
	extra := extraPool[g.rng.IntN(len(extraPool))]
	g.mu.Unlock()

	name := strings.ToLower(topic.Title)
	k := keywordsOf(topic)

	desc := textutil.SplitSentences(topic.Description)
	overview := ensurePeriod(topic.Description)
	if len(desc) > 1 {
		// Lead with the last point of the description.
		overview = strings.Join(append([]string{desc[len(desc)-1]}, desc[:len(desc)-1]...), " ")
	}

	terms := bulletList(k, func(kw string) string {
		return fmt.Sprintf("**%s**: a core part of %s for %s learners.", kw, name, topic.Difficulty)
	})

	plan := make([]string, 0, len(k))
	for i := len(k) - 1; i >= 0; i-- {
		plan = append(plan, fmt.Sprintf("- Spend five minutes on %s, then say three sentences that use it.", k[i]))
	}

	body := render([]section{
		{"Getting Started", fmt.Sprintf(intro, name)},
		{"Overview", overview},
		{"Key Terms", terms},
		extra,
		{"Practice Plan", strings.Join(plan, "\n")},
		{"Wrapping Up", fmt.Sprintf("Keep %s in rotation and it will feel automatic before long.", k[0])},
	})
	return rewriteHinted(body, hints)
}

// Excerpt returns the topic description clipped for listings.
func Excerpt(topic core.Topic) string {
	if strings.TrimSpace(topic.Description) == "" {
		return fmt.Sprintf("A %s lesson on %s.", topic.Difficulty, strings.ToLower(topic.Title))
	}
	return textutil.Truncate(topic.Description, ExcerptLength)
}

func render(sections []section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(s.heading)
		b.WriteString("\n\n")
		b.WriteString(s.body)
	}
	b.WriteString("\n")
	return b.String()
}

func bulletList(items []string, line func(string) string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + line(it)
	}
	return strings.Join(lines, "\n")
}

// keywordsOf returns the topic keywords, or the lowercased title when the
// topic has none. The result is never empty.
func keywordsOf(topic core.Topic) []string {
	var out []string
	for _, kw := range topic.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		out = []string{strings.ToLower(topic.Title)}
	}
	return out
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

// Excerpt returns the listing excerpt for topic.
func (g *Generator) Excerpt(topic core.Topic) string {
	return Excerpt(topic)
}
