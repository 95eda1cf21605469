// Package textutil holds the tokenization helpers shared by the similarity
// engine, the classifier and the relevance graph.
package textutil

import (
	"sort"
	"strings"
	"unicode"
)

var stopWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
		"to", "was", "were", "will", "with", "this", "but", "they", "you",
		"have", "had", "what", "said", "each", "which", "she", "do", "how",
		"their", "if", "up", "out", "many", "then", "them", "these", "so",
		"some", "her", "would", "make", "like", "into", "him", "time", "two",
		"your", "can", "when", "more", "about", "also", "not", "than", "our",
		"all", "any", "one", "there", "been", "who", "may", "use", "used",
	} {
		stopWords[w] = true
	}
}

// IsStopWord reports whether w is in the shared stop-word list.
func IsStopWord(w string) bool {
	return stopWords[w]
}

// Normalize lowercases text, drops punctuation and symbols, and collapses
// whitespace to single spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the normalized words of text.
func Words(text string) []string {
	n := Normalize(text)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// Tokenize splits text on anything that is not a letter or digit and keeps
// lowercase words longer than two characters that are not stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// WordSet returns the distinct elements of words.
func WordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets score 0.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if large[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// LowerSet lowercases and trims items into a set, dropping empty entries.
func LowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			set[it] = true
		}
	}
	return set
}

// SignificantWords returns up to n tokens ordered by frequency, most
// frequent first, ties broken alphabetically.
func SignificantWords(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

// SplitSentences splits text into sentences. A sentence ends at '.', '!' or
// '?' followed by whitespace, or at a line break. Surrounding whitespace is
// trimmed and empty pieces are dropped; the terminal punctuation is kept.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			flush(i)
			start = i + 1
			continue
		}
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush(i + 1)
			}
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return sentences
}

// Truncate clips text to at most max runes, cutting at a word boundary and
// appending an ellipsis when anything was removed.
func Truncate(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
