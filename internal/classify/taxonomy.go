// Package classify assigns a category and a set of tags to lesson text by
// scoring it against a fixed keyword taxonomy.
package classify

import (
	"fmt"
	"strings"
)

// FallbackCategory is used when no category keyword matches.
const FallbackCategory = "learning-tips"

// Category is a top-level lesson category.
type Category struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Weight   float64  `json:"weight" yaml:"weight"`
}

// Tag is a fine-grained label. CategoryID names its parent category.
type Tag struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	Weight     float64  `json:"weight" yaml:"weight"`
	CategoryID string   `json:"category_id" yaml:"category_id"`
}

// Taxonomy is the full set of categories and tags.
type Taxonomy struct {
	Categories []Category `json:"categories" yaml:"categories"`
	Tags       []Tag      `json:"tags" yaml:"tags"`
}

// Validate checks ids are unique, weights positive, and every tag points at
// a known category. The fallback category must exist.
func (t Taxonomy) Validate() error {
	cats := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		if c.ID == "" {
			return fmt.Errorf("category %q has no id", c.Name)
		}
		if cats[c.ID] {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("category %q: weight must be positive", c.ID)
		}
		cats[c.ID] = true
	}
	if !cats[FallbackCategory] {
		return fmt.Errorf("fallback category %q is missing", FallbackCategory)
	}

	tags := make(map[string]bool, len(t.Tags))
	for _, tag := range t.Tags {
		if tag.ID == "" {
			return fmt.Errorf("tag %q has no id", tag.Name)
		}
		if tags[tag.ID] {
			return fmt.Errorf("duplicate tag id %q", tag.ID)
		}
		if tag.Weight <= 0 {
			return fmt.Errorf("tag %q: weight must be positive", tag.ID)
		}
		if !cats[tag.CategoryID] {
			return fmt.Errorf("tag %q references unknown category %q", tag.ID, tag.CategoryID)
		}
		tags[tag.ID] = true
	}
	return nil
}

// Category returns the category with the given id.
func (t Taxonomy) Category(id string) (Category, bool) {
	for _, c := range t.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryByName looks a category up by display name, case-insensitively.
func (t Taxonomy) CategoryByName(name string) (Category, bool) {
	for _, c := range t.Categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

// DefaultTaxonomy returns the built-in Spanish-learning taxonomy.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Categories: []Category{
			{
				ID:       "grammar",
				Name:     "Grammar",
				Keywords: []string{"grammar", "verb", "conjugation", "tense", "subjunctive", "preterite", "imperfect", "pronoun", "article", "gender", "agreement", "ser estar", "por para", "sentence structure"},
				Weight:   1.0,
			},
			{
				ID:       "vocabulary",
				Name:     "Vocabulary",
				Keywords: []string{"vocabulary", "words", "phrases", "expressions", "idioms", "false friends", "cognates", "slang", "numbers", "colors", "food"},
				Weight:   1.0,
			},
			{
				ID:       "pronunciation",
				Name:     "Pronunciation",
				Keywords: []string{"pronunciation", "accent", "sound", "rolled", "vowels", "stress", "intonation", "listening", "spelling"},
				Weight:   1.0,
			},
			{
				ID:       "culture",
				Name:     "Culture",
				Keywords: []string{"culture", "tradition", "holiday", "festival", "customs", "history", "music", "etiquette", "region"},
				Weight:   0.9,
			},
			{
				ID:       "travel",
				Name:     "Travel",
				Keywords: []string{"travel", "trip", "airport", "hotel", "restaurant", "directions", "shopping", "ordering", "tourist"},
				Weight:   0.9,
			},
			{
				ID:       FallbackCategory,
				Name:     "Learning Tips",
				Keywords: []string{"study", "practice", "learning", "habit", "motivation", "fluency", "method", "memorize", "immersion"},
				Weight:   0.8,
			},
		},
		Tags: []Tag{
			{ID: "verbs", Name: "Verbs", Keywords: []string{"verb", "infinitive", "conjugate"}, Weight: 1.0, CategoryID: "grammar"},
			{ID: "verb-conjugation", Name: "Verb Conjugation", Keywords: []string{"conjugation", "conjugate", "endings"}, Weight: 1.0, CategoryID: "grammar"},
			{ID: "irregular-verbs", Name: "Irregular Verbs", Keywords: []string{"irregular", "stem change", "irregular verb"}, Weight: 1.0, CategoryID: "grammar"},
			{ID: "past-tense", Name: "Past Tense", Keywords: []string{"preterite", "imperfect", "past tense"}, Weight: 1.0, CategoryID: "grammar"},
			{ID: "subjunctive", Name: "Subjunctive", Keywords: []string{"subjunctive", "mood", "wishes"}, Weight: 1.0, CategoryID: "grammar"},
			{ID: "pronouns", Name: "Pronouns", Keywords: []string{"pronoun", "object pronoun", "reflexive"}, Weight: 0.9, CategoryID: "grammar"},
			{ID: "ser-estar", Name: "Ser vs Estar", Keywords: []string{"ser estar", "permanent", "temporary"}, Weight: 0.9, CategoryID: "grammar"},
			{ID: "everyday-phrases", Name: "Everyday Phrases", Keywords: []string{"phrases", "greetings", "everyday", "conversation"}, Weight: 1.0, CategoryID: "vocabulary"},
			{ID: "idioms", Name: "Idioms", Keywords: []string{"idioms", "expressions", "sayings"}, Weight: 0.9, CategoryID: "vocabulary"},
			{ID: "false-friends", Name: "False Friends", Keywords: []string{"false friends", "cognates"}, Weight: 0.9, CategoryID: "vocabulary"},
			{ID: "food-vocabulary", Name: "Food Vocabulary", Keywords: []string{"food", "fruit", "market", "kitchen"}, Weight: 0.8, CategoryID: "vocabulary"},
			{ID: "accent-marks", Name: "Accent Marks", Keywords: []string{"accent marks", "tilde", "stress"}, Weight: 0.9, CategoryID: "pronunciation"},
			{ID: "rolled-r", Name: "Rolled R", Keywords: []string{"rolled", "trill", "tongue"}, Weight: 0.9, CategoryID: "pronunciation"},
			{ID: "listening", Name: "Listening", Keywords: []string{"listening", "podcast", "audio"}, Weight: 0.8, CategoryID: "pronunciation"},
			{ID: "holidays", Name: "Holidays", Keywords: []string{"holiday", "festival", "celebration"}, Weight: 0.8, CategoryID: "culture"},
			{ID: "etiquette", Name: "Etiquette", Keywords: []string{"etiquette", "polite", "formal", "informal"}, Weight: 0.8, CategoryID: "culture"},
			{ID: "restaurants", Name: "Restaurants", Keywords: []string{"restaurant", "ordering", "menu", "waiter"}, Weight: 0.8, CategoryID: "travel"},
			{ID: "directions", Name: "Directions", Keywords: []string{"directions", "street", "map", "left right"}, Weight: 0.8, CategoryID: "travel"},
			{ID: "study-habits", Name: "Study Habits", Keywords: []string{"study", "habit", "routine", "daily practice"}, Weight: 0.8, CategoryID: FallbackCategory},
			{ID: "memorization", Name: "Memorization", Keywords: []string{"memorize", "flashcards", "spaced repetition"}, Weight: 0.8, CategoryID: FallbackCategory},
		},
	}
}
