package similarity

import (
	"fmt"
	"sort"
	"strings"

	"postmill/internal/core"
	"postmill/internal/textutil"
)

// Thresholds used by the uniqueness gate and its recommendations.
const (
	UniqueThreshold  = 0.3 // a draft is unique when its corpus maximum is below this
	ReviewThreshold  = 0.3
	SectionThreshold = 0.5
	RewriteThreshold = 0.7
)

// Segment detection parameters.
const (
	WindowSize       = 50  // words per sliding window
	SegmentThreshold = 0.8 // window similarity above this is a duplicate
	MaxWindows       = 60  // windows sampled per text
)

// ValidateUniqueness compares a draft and its title against every post in
// the corpus and reports the highest per-post similarity.
func ValidateUniqueness(draft, title string, corpus []core.Post) core.SimilarityVerdict {
	normDraft := textutil.Normalize(draft)
	if normDraft == "" || len(corpus) == 0 {
		return core.SimilarityVerdict{Score: 0, Unique: true}
	}
	normTitle := textutil.Normalize(title)

	verdict := core.SimilarityVerdict{}
	var mostSimilar *core.PostComparison

	for _, post := range corpus {
		cmp := core.PostComparison{
			PostID:       post.ID,
			Slug:         post.Slug,
			Title:        post.Title,
			TitleScore:   compareNormalized(normTitle, textutil.Normalize(post.Title)).Combined,
			ContentScore: compareNormalized(normDraft, textutil.Normalize(post.Body)).Combined,
		}
		cmp.Score = max(cmp.TitleScore, cmp.ContentScore)

		if cmp.Score >= ReviewThreshold {
			cmp.DuplicateSegments = DuplicateSegments(draft, post.Body)
		}

		verdict.Comparisons = append(verdict.Comparisons, cmp)
		if mostSimilar == nil || cmp.Score > mostSimilar.Score {
			c := cmp
			mostSimilar = &c
		}
	}

	sort.SliceStable(verdict.Comparisons, func(i, j int) bool {
		return verdict.Comparisons[i].Score > verdict.Comparisons[j].Score
	})

	verdict.Score = mostSimilar.Score
	verdict.MostSimilarID = mostSimilar.PostID
	verdict.Unique = verdict.Score < UniqueThreshold
	verdict.Recommendations = recommendations(verdict.Score, *mostSimilar)
	return verdict
}

func recommendations(score float64, closest core.PostComparison) []string {
	var recs []string
	switch {
	case score > RewriteThreshold:
		recs = append(recs, fmt.Sprintf("Rewrite entirely: content is nearly identical to %q (%.0f%% similar)", closest.Title, score*100))
	case score > SectionThreshold:
		recs = append(recs, fmt.Sprintf("Rewrite duplicate sections similar to %q (%.0f%% similar)", closest.Title, score*100))
	case score > ReviewThreshold:
		recs = append(recs, fmt.Sprintf("Review and modify passages overlapping %q (%.0f%% similar)", closest.Title, score*100))
	}
	if n := len(closest.DuplicateSegments); n > 0 && score > ReviewThreshold {
		recs = append(recs, fmt.Sprintf("%d duplicate segment(s) found against %q", n, closest.Title))
	}
	return recs
}

type window struct {
	text  string
	norm  string
	words map[string]bool
}

// DuplicateSegments slides a 50-word window over both texts and returns the
// draft windows whose similarity to any body window exceeds 0.8, deduplicated
// by exact text in first-seen order.
func DuplicateSegments(draft, body string) []string {
	dw := windows(textutil.Words(draft))
	bw := windows(textutil.Words(body))
	if len(dw) == 0 || len(bw) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var segments []string
	for _, d := range dw {
		if seen[d.text] {
			continue
		}
		for _, b := range bw {
			// Combined = 0.4J + 0.4C + 0.2E <= 0.4J + 0.6, so J <= 0.5 cannot
			// exceed the segment threshold.
			if textutil.Jaccard(d.words, b.words) <= 0.5 {
				continue
			}
			if compareNormalized(d.norm, b.norm).Combined > SegmentThreshold {
				seen[d.text] = true
				segments = append(segments, d.text)
				break
			}
		}
	}
	return segments
}

// windows builds stride-1 windows over words, sampled down to MaxWindows
// evenly spaced windows for long texts. Texts shorter than one window yield
// a single window.
func windows(words []string) []window {
	if len(words) == 0 {
		return nil
	}
	if len(words) <= WindowSize {
		return []window{newWindow(words)}
	}

	total := len(words) - WindowSize + 1
	starts := make([]int, 0, min(total, MaxWindows))
	if total <= MaxWindows {
		for i := 0; i < total; i++ {
			starts = append(starts, i)
		}
	} else {
		step := float64(total-1) / float64(MaxWindows-1)
		last := -1
		for k := 0; k < MaxWindows; k++ {
			s := int(float64(k)*step + 0.5)
			if s != last {
				starts = append(starts, s)
				last = s
			}
		}
	}

	out := make([]window, 0, len(starts))
	for _, s := range starts {
		out = append(out, newWindow(words[s:s+WindowSize]))
	}
	return out
}

func newWindow(words []string) window {
	text := strings.Join(words, " ")
	return window{text: text, norm: text, words: textutil.WordSet(words)}
}
