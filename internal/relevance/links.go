package relevance

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"postmill/internal/core"
	"postmill/internal/textutil"
)

// Link insertion limits.
const (
	MaxLinks             = 3  // links inserted per pass
	sentencesPerTarget   = 2  // candidate sentences per target
	anchorsPerTarget     = 3  // candidate anchors per target
	minSentenceLength    = 20 // runes; shorter sentences never carry a link
	excerptMatchingWords = 5
)

// LinkSuggestion proposes linking Sentence to the target post.
type LinkSuggestion struct {
	TargetID   string  `json:"target_id"`
	TargetSlug int     `json:"target_slug"`
	AnchorText string  `json:"anchor_text"`
	Sentence   string  `json:"sentence"`
	Score      float64 `json:"score"`
}

// Markdown renders the link that follows the sentence.
func (s LinkSuggestion) Markdown() string {
	return fmt.Sprintf("[%s](%s)", s.AnchorText, core.PostURL(s.TargetSlug))
}

// LinkSuggestions proposes in-body links from the post with id postID to
// its strongest related posts.
func LinkSuggestions(postID string, corpus []core.Post) []LinkSuggestion {
	idx := newIndex(corpus)
	i, ok := idx.byID[postID]
	if !ok {
		return nil
	}
	return idx.suggestions(idx.profiles[i])
}

// SuggestFor is LinkSuggestions for a post that is not in corpus yet.
func SuggestFor(post core.Post, corpus []core.Post) []LinkSuggestion {
	return newIndex(corpus).suggestions(newProfile(post))
}

func (idx *index) suggestions(src profile) []LinkSuggestion {
	sentences := bodySentences(src.post.Body)
	if len(sentences) == 0 {
		return nil
	}

	var out []LinkSuggestion
	for _, edge := range idx.related(src) {
		if edge.Score < LinkThreshold {
			continue
		}
		target := idx.profiles[idx.byID[edge.To]]

		matched := matchingSentences(sentences, mentionTerms(target.post))
		if len(matched) == 0 {
			continue
		}
		anchors := anchorTexts(src, target, edge.Relationship)
		for i, sentence := range matched {
			out = append(out, LinkSuggestion{
				TargetID:   target.post.ID,
				TargetSlug: target.post.Slug,
				AnchorText: anchors[i%len(anchors)],
				Sentence:   sentence,
				Score:      edge.Score,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// bodySentences returns the prose sentences of a markdown body, skipping
// headings and anything too short to carry a link.
func bodySentences(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, s := range textutil.SplitSentences(trimmed) {
			if len([]rune(s)) > minSentenceLength {
				out = append(out, s)
			}
		}
	}
	return out
}

// mentionTerms are the phrases whose presence in a sentence ties it to the
// target: its tags, its category and the top words of its excerpt.
func mentionTerms(target core.Post) []string {
	var terms []string
	for _, tag := range target.Tags {
		terms = append(terms, strings.ToLower(strings.ReplaceAll(tag, "-", " ")))
	}
	if target.Category != "" {
		terms = append(terms, strings.ToLower(target.Category))
	}
	terms = append(terms, textutil.SignificantWords(target.Excerpt, excerptMatchingWords)...)
	return terms
}

func matchingSentences(sentences, terms []string) []string {
	var out []string
	for _, s := range sentences {
		norm := " " + textutil.Normalize(s) + " "
		for _, term := range terms {
			t := textutil.Normalize(term)
			if t != "" && strings.Contains(norm, " "+t+" ") {
				out = append(out, s)
				break
			}
		}
		if len(out) == sentencesPerTarget {
			break
		}
	}
	return out
}

// anchorTexts returns up to three distinct anchors: the target title, a
// category phrase for same-category targets, a phrase per shared tag, then
// generic fallbacks.
func anchorTexts(src, target profile, rel core.Relationship) []string {
	candidates := []string{target.post.Title}
	if rel == core.SameCategory && target.post.Category != "" {
		candidates = append(candidates, fmt.Sprintf("more %s lessons", strings.ToLower(target.post.Category)))
	}
	for _, tag := range target.post.Tags {
		if src.tags[strings.ToLower(tag)] {
			candidates = append(candidates, fmt.Sprintf("our guide to %s", strings.ReplaceAll(tag, "-", " ")))
		}
	}
	candidates = append(candidates, "this related lesson", "read more")

	seen := make(map[string]bool)
	var anchors []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		anchors = append(anchors, c)
		if len(anchors) == anchorsPerTarget {
			break
		}
	}
	return anchors
}

// ApplyLinks inserts up to MaxLinks suggestions into body, appending each
// link after its sentence. A sentence already followed by a link is left
// alone, and a target the body already links to is never linked twice.
// It returns the new body and the suggestions that were applied.
func ApplyLinks(body string, suggestions []LinkSuggestion) (string, []LinkSuggestion) {
	if len(suggestions) == 0 {
		return body, nil
	}
	linked := LinkedURLs(body)

	var applied []LinkSuggestion
	for _, s := range suggestions {
		if len(applied) == MaxLinks {
			break
		}
		url := core.PostURL(s.TargetSlug)
		if linked[url] {
			continue
		}
		start := sentenceOffset(body, s.Sentence)
		if start < 0 {
			continue
		}
		end := start + len(s.Sentence)
		if endsInLink(s.Sentence) || strings.HasPrefix(body[end:], " [") {
			continue
		}
		body = body[:end] + " " + s.Markdown() + body[end:]
		linked[url] = true
		applied = append(applied, s)
	}
	return body, applied
}

// sentenceOffset finds sentence on one of the lines bodySentences reads,
// so a heading that repeats the text is never linked. It returns -1 when
// there is no such line.
func sentenceOffset(body, sentence string) int {
	offset := 0
	for _, line := range strings.SplitAfter(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			if i := strings.Index(line, sentence); i >= 0 {
				return offset + i
			}
		}
		offset += len(line)
	}
	return -1
}

func endsInLink(sentence string) bool {
	s := strings.TrimRight(sentence, " .!?")
	return strings.HasSuffix(s, ")") && strings.Contains(s, "](")
}

// LinkedURLs renders body as markdown and returns every link target in it.
func LinkedURLs(body string) map[string]bool {
	urls := make(map[string]bool)
	if strings.TrimSpace(body) == "" {
		return urls
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML([]byte(body), p, renderer)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rendered))
	if err != nil {
		return urls
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			urls[href] = true
		}
	})
	return urls
}
