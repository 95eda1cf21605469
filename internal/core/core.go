package core

import (
	"fmt"
	"time"
)

// Difficulty is the learner level a topic targets.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Topic is a predefined subject used to seed one generated post.
type Topic struct {
	ID          string     `json:"id" yaml:"id"`                   // Stable identity used for the used-topic set
	Title       string     `json:"title" yaml:"title"`             // Working title of the post
	Description string     `json:"description" yaml:"description"` // One or two sentence summary
	Category    string     `json:"category" yaml:"category"`       // Editorial category hint
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`   // Learner level
	Keywords    []string   `json:"keywords" yaml:"keywords"`       // Seed keywords for drafting and linking
}

// Post is the durable unit of the corpus.
type Post struct {
	ID             string    `json:"id"`               // Opaque unique identifier
	Slug           int       `json:"slug"`             // Sequential public identifier, assigned at publish
	TopicID        string    `json:"topic_id"`         // Topic that seeded this post
	Title          string    `json:"title"`            // Post title
	Excerpt        string    `json:"excerpt"`          // Short teaser
	Body           string    `json:"body"`             // Markdown body
	Category       string    `json:"category"`         // Category name chosen by the classifier
	Tags           []string  `json:"tags"`             // Tag ids chosen by the classifier
	Keywords       []string  `json:"keywords"`         // Keywords carried over from the topic
	CreatedAt      time.Time `json:"created_at"`       // Publish time
	UpdatedAt      time.Time `json:"updated_at"`       // Last body or link change
	Featured       bool      `json:"featured"`         // Highlighted by the rendering layer
	RelatedPostIDs []string  `json:"related_post_ids"` // Forward related-post list
}

// URL returns the site-relative path used for in-body links.
func (p Post) URL() string {
	return PostURL(p.Slug)
}

// PostURL returns the site-relative path for a slug.
func PostURL(slug int) string {
	return fmt.Sprintf("/posts/%d", slug)
}

// HasRelated reports whether id is already in the related-post list.
func (p Post) HasRelated(id string) bool {
	for _, existing := range p.RelatedPostIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate slices safely.
func (p Post) Clone() Post {
	c := p
	c.Tags = append([]string(nil), p.Tags...)
	c.Keywords = append([]string(nil), p.Keywords...)
	c.RelatedPostIDs = append([]string(nil), p.RelatedPostIDs...)
	return c
}

// PostSummary is the compact view returned by the control surface.
type PostSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      int       `json:"slug"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the compact view of a post.
func (p Post) Summary() PostSummary {
	return PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Category:  p.Category,
		Tags:      append([]string(nil), p.Tags...),
		CreatedAt: p.CreatedAt,
	}
}

// Relationship labels the dominant signal of a relevance edge.
type Relationship string

const (
	SameCategory   Relationship = "same-category"
	SharedTags     Relationship = "shared-tags"
	SharedKeywords Relationship = "shared-keywords"
	TextualOverlap Relationship = "textual-overlap"
)

// RelevanceEdge is a scored relationship between two posts.
type RelevanceEdge struct {
	From         string       `json:"from"`
	To           string       `json:"to"`
	Score        float64      `json:"score"`
	Relationship Relationship `json:"relationship"`
}

// PostComparison is the similarity of a draft against one published post.
type PostComparison struct {
	PostID            string   `json:"post_id"`
	Slug              int      `json:"slug"`
	Title             string   `json:"title"`
	TitleScore        float64  `json:"title_score"`
	ContentScore      float64  `json:"content_score"`
	Score             float64  `json:"score"`
	DuplicateSegments []string `json:"duplicate_segments,omitempty"`
}

// SimilarityVerdict is the outcome of a uniqueness check.
type SimilarityVerdict struct {
	Score           float64          `json:"score"`
	Unique          bool             `json:"unique"`
	MostSimilarID   string           `json:"most_similar_id,omitempty"`
	Comparisons     []PostComparison `json:"comparisons,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
}

// Segments returns every duplicate segment across all comparisons.
func (v SimilarityVerdict) Segments() []string {
	var out []string
	for _, c := range v.Comparisons {
		out = append(out, c.DuplicateSegments...)
	}
	return out
}
