// Package similarity scores how alike two texts are and checks a draft
// against the published corpus for near-duplicates.
package similarity

import (
	"math"
	"sort"
	"strings"

	"postmill/internal/textutil"
)

// Signal weights for the combined score.
const (
	JaccardWeight = 0.4
	CosineWeight  = 0.4
	EditWeight    = 0.2
)

// MaxEditRunes caps the input of the edit-distance signal. Levenshtein is
// quadratic, so longer texts are compared on their leading runes only.
const MaxEditRunes = 2000

// Breakdown holds the individual signals behind a combined score.
type Breakdown struct {
	Jaccard  float64 `json:"jaccard"`
	Cosine   float64 `json:"cosine"`
	Edit     float64 `json:"edit"`
	Combined float64 `json:"combined"`
}

// Similarity returns the weighted similarity of a and b in [0,1].
func Similarity(a, b string) float64 {
	return Compare(a, b).Combined
}

// Compare normalizes both texts and returns the full signal breakdown.
func Compare(a, b string) Breakdown {
	return compareNormalized(textutil.Normalize(a), textutil.Normalize(b))
}

func compareNormalized(na, nb string) Breakdown {
	if na == "" || nb == "" {
		return Breakdown{}
	}
	if na == nb {
		return Breakdown{Jaccard: 1, Cosine: 1, Edit: 1, Combined: 1}
	}

	wa := strings.Fields(na)
	wb := strings.Fields(nb)

	bd := Breakdown{
		Jaccard: textutil.Jaccard(textutil.WordSet(wa), textutil.WordSet(wb)),
		Cosine:  cosine(wa, wb),
		Edit:    editSimilarity(na, nb),
	}
	bd.Combined = clamp(JaccardWeight*bd.Jaccard + CosineWeight*bd.Cosine + EditWeight*bd.Edit)
	return bd
}

// cosine builds term-frequency vectors over the sorted joint vocabulary and
// returns the cosine of the angle between them.
func cosine(wa, wb []string) float64 {
	fa := termFrequencies(wa)
	fb := termFrequencies(wb)

	vocab := make([]string, 0, len(fa)+len(fb))
	for w := range fa {
		vocab = append(vocab, w)
	}
	for w := range fb {
		if _, ok := fa[w]; !ok {
			vocab = append(vocab, w)
		}
	}
	sort.Strings(vocab)

	var dot, normA, normB float64
	for _, w := range vocab {
		x, y := fa[w], fb[w]
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func termFrequencies(words []string) map[string]float64 {
	tf := make(map[string]float64, len(words))
	for _, w := range words {
		tf[w]++
	}
	return tf
}

// editSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
func editSimilarity(a, b string) float64 {
	ra := capRunes([]rune(a))
	rb := capRunes([]rune(b))
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return clamp(1 - float64(Levenshtein(ra, rb))/float64(longest))
}

func capRunes(r []rune) []rune {
	if len(r) > MaxEditRunes {
		return r[:MaxEditRunes]
	}
	return r
}

// Levenshtein returns the edit distance between a and b using two rows.
func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
