package draft

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"postmill/internal/textutil"
)

var synonyms = map[string]string{
	"learners":      "students",
	"learn":         "pick up",
	"practice":      "rehearse",
	"helps":         "allows",
	"understanding": "grasping",
	"confidence":    "assurance",
	"conversations": "exchanges",
	"conversation":  "dialogue",
	"naturally":     "effortlessly",
	"common":        "frequent",
	"mistakes":      "errors",
	"similar":       "comparable",
	"speak":         "talk",
	"sentences":     "lines",
	"guide":         "walkthrough",
	"basics":        "fundamentals",
	"real":          "genuine",
	"short":         "brief",
	"regular":       "steady",
	"whenever":      "any time",
	"need":          "want",
	"quick":         "fast",
	"repeat":        "echo",
	"aloud":         "out loud",
	"many":          "plenty of",
	"start":         "begin",
	"own":           "personal",
	"friend":        "companion",
	"test":          "quiz",
	"for example":   "for instance",
	"second nature": "automatic",
}

var synonymPattern = func() *regexp.Regexp {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	// Longest first so phrases win over their component words.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(keys, "|") + `)\b`)
}()

// Mutate rewrites text through a fixed synonym table. Whole words only;
// a leading capital is preserved.
func Mutate(text string) string {
	return synonymPattern.ReplaceAllStringFunc(text, func(match string) string {
		repl, ok := synonyms[strings.ToLower(match)]
		if !ok {
			return match
		}
		first, _ := utf8.DecodeRuneInString(match)
		if unicode.IsUpper(first) {
			r, size := utf8.DecodeRuneInString(repl)
			return string(unicode.ToUpper(r)) + repl[size:]
		}
		return repl
	})
}

// rewriteHinted mutates every sentence of body whose normalized text falls
// inside one of the hint segments. Headings are left alone.
func rewriteHinted(body string, hints []string) string {
	if len(hints) == 0 {
		return body
	}
	norm := make([]string, 0, len(hints))
	for _, h := range hints {
		if n := textutil.Normalize(h); n != "" {
			norm = append(norm, n)
		}
	}
	if len(norm) == 0 {
		return body
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences := textutil.SplitSentences(line)
		changed := false
		for j, s := range sentences {
			if hinted(textutil.Normalize(s), norm) {
				sentences[j] = Mutate(s)
				changed = true
			}
		}
		if changed {
			lines[i] = strings.Join(sentences, " ")
		}
	}
	return strings.Join(lines, "\n")
}

func hinted(sentence string, hints []string) bool {
	if sentence == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(h, sentence) {
			return true
		}
	}
	return false
}

// Mutate applies the synonym table to text.
func (g *Generator) Mutate(text string) string {
	return Mutate(text)
}
