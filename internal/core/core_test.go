package core

import (
	"testing"
	"time"
)

func TestDifficultyValid(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want bool
	}{
		{Beginner, true},
		{Intermediate, true},
		{Advanced, true},
		{"expert", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.d.Valid(); got != tt.want {
			t.Errorf("Difficulty(%q).Valid() = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestPostURL(t *testing.T) {
	p := Post{Slug: 12}
	if got := p.URL(); got != "/posts/12" {
		t.Errorf("URL() = %q, want /posts/12", got)
	}
}

func TestPostClone(t *testing.T) {
	original := Post{
		ID:             "a",
		Tags:           []string{"grammar"},
		Keywords:       []string{"verbs"},
		RelatedPostIDs: []string{"b"},
	}

	clone := original.Clone()
	clone.Tags[0] = "changed"
	clone.RelatedPostIDs = append(clone.RelatedPostIDs, "c")

	if original.Tags[0] != "grammar" {
		t.Error("Clone should not share the tags slice")
	}
	if len(original.RelatedPostIDs) != 1 {
		t.Error("Clone should not share the related slice")
	}
	if !clone.HasRelated("c") || original.HasRelated("c") {
		t.Error("HasRelated mismatch after clone")
	}
}

func TestPostSummary(t *testing.T) {
	now := time.Now().UTC()
	p := Post{ID: "x", Title: "Ser vs Estar", Slug: 3, Category: "Grammar", Tags: []string{"verbs"}, CreatedAt: now}

	s := p.Summary()
	if s.ID != "x" || s.Slug != 3 || s.Category != "Grammar" || !s.CreatedAt.Equal(now) {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestVerdictSegments(t *testing.T) {
	v := SimilarityVerdict{Comparisons: []PostComparison{
		{DuplicateSegments: []string{"one"}},
		{},
		{DuplicateSegments: []string{"two", "three"}},
	}}
	if got := len(v.Segments()); got != 3 {
		t.Errorf("Segments() len = %d, want 3", got)
	}
}
