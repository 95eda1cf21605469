// Package relevance scores how related published posts are, suggests and
// inserts in-body links between them, and keeps related-post lists in step
// as the corpus grows.
package relevance

import (
	"sort"
	"strings"

	"postmill/internal/core"
	"postmill/internal/textutil"
)

// Signal weights of the pairwise relevance score.
const (
	CategoryWeight = 0.3
	TagWeight      = 0.4
	ContentWeight  = 0.2
	KeywordWeight  = 0.1
)

const (
	RelatedThreshold = 0.3 // minimum score for a related post
	MaxRelated       = 5
	LinkThreshold    = 0.5 // minimum score for an in-body link target

	significantWords = 50
)

// profile caches the per-post sets the score needs.
type profile struct {
	post     core.Post
	category string
	tags     map[string]bool
	keywords map[string]bool
	words    map[string]bool
}

func newProfile(p core.Post) profile {
	return profile{
		post:     p,
		category: strings.ToLower(strings.TrimSpace(p.Category)),
		tags:     textutil.LowerSet(p.Tags),
		keywords: textutil.LowerSet(p.Keywords),
		words:    textutil.WordSet(textutil.SignificantWords(p.Body, significantWords)),
	}
}

// Score returns the relevance of b to a and the label of the signal that
// contributed most.
func Score(a, b core.Post) (float64, core.Relationship) {
	return score(newProfile(a), newProfile(b))
}

func score(a, b profile) (float64, core.Relationship) {
	var cat, tags, content, kw float64
	if a.category != "" && a.category == b.category {
		cat = CategoryWeight
	}
	tags = TagWeight * textutil.Jaccard(a.tags, b.tags)
	content = ContentWeight * overlap(a.words, b.words)
	if len(a.keywords) > 0 && len(b.keywords) > 0 {
		kw = KeywordWeight * textutil.Jaccard(a.keywords, b.keywords)
	}

	label, best := core.SameCategory, cat
	if tags > best {
		label, best = core.SharedTags, tags
	}
	if kw > best {
		label, best = core.SharedKeywords, kw
	}
	if content > best {
		label = core.TextualOverlap
	}
	return min(1, cat+tags+content+kw), label
}

// overlap is |a ∩ b| / min(|a|, |b|).
func overlap(a, b map[string]bool) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	if len(small) == 0 {
		return 0
	}
	n := 0
	for w := range small {
		if large[w] {
			n++
		}
	}
	return float64(n) / float64(len(small))
}

// index holds profiles for a whole corpus so repeated queries do not
// recompute significant words.
type index struct {
	profiles []profile
	byID     map[string]int
}

func newIndex(corpus []core.Post) *index {
	idx := &index{
		profiles: make([]profile, len(corpus)),
		byID:     make(map[string]int, len(corpus)),
	}
	for i, p := range corpus {
		idx.profiles[i] = newProfile(p)
		idx.byID[p.ID] = i
	}
	return idx
}

// related scores src against every other post in the index and keeps the
// best MaxRelated at or above RelatedThreshold, ties broken by slug.
func (idx *index) related(src profile) []core.RelevanceEdge {
	var edges []core.RelevanceEdge
	slugs := make(map[string]int)
	for _, p := range idx.profiles {
		if p.post.ID == src.post.ID {
			continue
		}
		s, label := score(src, p)
		if s < RelatedThreshold {
			continue
		}
		edges = append(edges, core.RelevanceEdge{From: src.post.ID, To: p.post.ID, Score: s, Relationship: label})
		slugs[p.post.ID] = p.post.Slug
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		return slugs[edges[i].To] < slugs[edges[j].To]
	})
	if len(edges) > MaxRelated {
		edges = edges[:MaxRelated]
	}
	return edges
}

// RelatedPosts returns the top related posts of the post with id postID.
// An unknown id yields no edges.
func RelatedPosts(postID string, corpus []core.Post) []core.RelevanceEdge {
	idx := newIndex(corpus)
	i, ok := idx.byID[postID]
	if !ok {
		return nil
	}
	return idx.related(idx.profiles[i])
}

// RelatedTo scores a post that need not be part of corpus yet, such as a
// draft about to be published.
func RelatedTo(post core.Post, corpus []core.Post) []core.RelevanceEdge {
	return newIndex(corpus).related(newProfile(post))
}

// RelatedIDs flattens edges into their target ids.
func RelatedIDs(edges []core.RelevanceEdge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.To
	}
	return ids
}
