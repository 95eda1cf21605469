package draft

import (
	"strings"
	"testing"

	"postmill/internal/core"
)

func sampleTopic() core.Topic {
	return core.Topic{
		ID:          "verb-conjugation",
		Title:       "Verb Conjugation",
		Description: "How verbs change for person and tense. Start with regular verbs in the present.",
		Category:    "Grammar",
		Difficulty:  core.Beginner,
		Keywords:    []string{"verb", "conjugation", "endings"},
	}
}

func TestDraftSections(t *testing.T) {
	body := NewGenerator(1).Draft(sampleTopic())

	headings := []string{"## Introduction", "## Why It Matters", "## Examples", "## Step-by-Step Guide", "## Common Mistakes", "## Conclusion"}
	last := -1
	for _, h := range headings {
		idx := strings.Index(body, h)
		if idx < 0 {
			t.Fatalf("missing section %q", h)
		}
		if idx <= last {
			t.Errorf("section %q out of order", h)
		}
		last = idx
	}
	if !strings.Contains(body, "beginner grammar lesson on verb conjugation") {
		t.Errorf("introduction not derived from topic:\n%s", body)
	}
	if !strings.Contains(body, "- **endings**") {
		t.Errorf("examples should list keywords:\n%s", body)
	}
}

func TestDraftDeterministic(t *testing.T) {
	a := NewGenerator(1).Draft(sampleTopic())
	b := NewGenerator(99).Draft(sampleTopic())
	if a != b {
		t.Error("Draft should not depend on the seed")
	}
}

func TestRegenerate(t *testing.T) {
	topic := sampleTopic()
	first := NewGenerator(7).Draft(topic)
	again := NewGenerator(7).Regenerate(topic, nil)

	if again == first {
		t.Fatal("regenerated text should differ from the first draft")
	}
	if again != NewGenerator(7).Regenerate(topic, nil) {
		t.Error("same seed should regenerate the same text")
	}
	if !strings.Contains(again, "## Key Terms") || !strings.Contains(again, "## Practice Plan") {
		t.Errorf("regenerated text missing sections:\n%s", again)
	}
	// Description sentences are reordered.
	if !strings.Contains(again, "Start with regular verbs in the present. How verbs change") {
		t.Errorf("overview should lead with the last description sentence:\n%s", again)
	}
}

func TestRegenerateRewritesHintedSentences(t *testing.T) {
	topic := sampleTopic()
	plain := NewGenerator(3).Regenerate(topic, nil)
	hinted := NewGenerator(3).Regenerate(topic, []string{plain})

	if hinted == plain {
		t.Fatal("hinted sentences should be rewritten")
	}
	if !strings.Contains(hinted, "three lines that use it") {
		t.Errorf("expected synonym rewrite in practice plan:\n%s", hinted)
	}
	for _, h := range []string{"## Getting Started", "## Overview", "## Wrapping Up"} {
		if !strings.Contains(hinted, h) {
			t.Errorf("heading %q should survive rewriting", h)
		}
	}
}

func TestMutate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Learners practice common mistakes.", "Students rehearse frequent errors."},
		{"Practice the basics, for example daily.", "Rehearse the fundamentals, for instance daily."},
		{"I learned a lot", "I learned a lot"},
		{"nothing to change here", "nothing to change here"},
	}
	for _, tt := range tests {
		if got := Mutate(tt.in); got != tt.want {
			t.Errorf("Mutate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	body := NewGenerator(1).Draft(sampleTopic())
	if Mutate(body) == body {
		t.Error("Mutate should change a generated draft")
	}
}

func TestExcerpt(t *testing.T) {
	topic := sampleTopic()
	if got := Excerpt(topic); got != topic.Description {
		t.Errorf("Excerpt = %q, want description", got)
	}

	topic.Description = strings.Repeat("long description words ", 30)
	got := Excerpt(topic)
	if len([]rune(got)) > ExcerptLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("Excerpt not clipped: %q", got)
	}

	topic.Description = ""
	if got := Excerpt(topic); got != "A beginner lesson on verb conjugation." {
		t.Errorf("Excerpt fallback = %q", got)
	}
}

func TestKeywordsFallback(t *testing.T) {
	topic := core.Topic{Title: "Numbers", Difficulty: core.Beginner}
	body := NewGenerator(1).Draft(topic)
	if !strings.Contains(body, "**numbers**") {
		t.Errorf("title should stand in for missing keywords:\n%s", body)
	}
}
