package classify

import (
	"strings"
	"testing"
)

func TestDefaultTaxonomyIsValid(t *testing.T) {
	if err := DefaultTaxonomy().Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}
}

func TestTaxonomyValidate(t *testing.T) {
	base := func() Taxonomy {
		return Taxonomy{
			Categories: []Category{
				{ID: "grammar", Name: "Grammar", Weight: 1},
				{ID: FallbackCategory, Name: "Learning Tips", Weight: 1},
			},
			Tags: []Tag{{ID: "verbs", Name: "Verbs", Weight: 1, CategoryID: "grammar"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Taxonomy)
		wantErr string
	}{
		{"valid", func(*Taxonomy) {}, ""},
		{"unknown parent", func(tx *Taxonomy) { tx.Tags[0].CategoryID = "nope" }, "unknown category"},
		{"missing fallback", func(tx *Taxonomy) { tx.Categories = tx.Categories[:1] }, "fallback"},
		{"duplicate tag", func(tx *Taxonomy) { tx.Tags = append(tx.Tags, tx.Tags[0]) }, "duplicate tag"},
		{"zero weight", func(tx *Taxonomy) { tx.Categories[0].Weight = 0 }, "weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClassify_Grammar(t *testing.T) {
	res := Classify("Verb Conjugation Basics",
		"Learning to conjugate a verb in the present tense is the first step. Regular verb endings follow patterns.")

	if res.Category != "Grammar" || res.CategoryID != "grammar" {
		t.Errorf("category = %q (%q), want Grammar", res.Category, res.CategoryID)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", res.Confidence)
	}
	if len(res.Tags) == 0 || res.Tags[0] != "verb-conjugation" {
		t.Errorf("tags = %v, want verb-conjugation first", res.Tags)
	}
	if !contains(res.Tags, "verbs") {
		t.Errorf("tags = %v, want verbs", res.Tags)
	}
}

func TestClassify_EmptyInputFallsBack(t *testing.T) {
	res := Classify("", "")
	if res.Category != "Learning Tips" {
		t.Errorf("category = %q, want Learning Tips", res.Category)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
	if len(res.Tags) != 1 || res.Tags[0] != TagBeginner {
		t.Errorf("tags = %v, want [beginner]", res.Tags)
	}
}

func TestClassify_TagMinimumBackfill(t *testing.T) {
	// A long document dilutes every tag below the threshold.
	body := "verb idioms holiday" + strings.Repeat(" lorem", 1000)
	res := Classify("", body)

	for _, want := range []string{"verbs", "idioms", "holidays"} {
		if !contains(res.Tags, want) {
			t.Errorf("tags = %v, missing backfilled %q", res.Tags, want)
		}
	}
	if len(res.Tags) < MinTags {
		t.Errorf("got %d tags, want at least %d", len(res.Tags), MinTags)
	}
}

func TestClassify_TagCap(t *testing.T) {
	var keywords []string
	for _, tag := range DefaultTaxonomy().Tags {
		keywords = append(keywords, tag.Keywords...)
	}
	res := Classify("Everything", strings.Join(keywords, " "))

	taxonomyTags := 0
	for _, tag := range res.Tags {
		if _, heuristic := map[string]bool{
			TagBeginner: true, TagIntermediate: true, TagAdvanced: true,
			TagSpainSpanish: true, TagLatinAmericanSpanish: true,
		}[tag]; !heuristic {
			taxonomyTags++
		}
	}
	if taxonomyTags > MaxTags {
		t.Errorf("got %d taxonomy tags, cap is %d", taxonomyTags, MaxTags)
	}
}

func TestClassify_RegionTags(t *testing.T) {
	res := Classify("Saying you all", "Vosotros is common in Spain while Mexico uses ustedes.")
	if !contains(res.Tags, TagSpainSpanish) || !contains(res.Tags, TagLatinAmericanSpanish) {
		t.Errorf("tags = %v, want both region tags", res.Tags)
	}

	res = Classify("Reading", "A careful perusal of the text helps.")
	if contains(res.Tags, TagLatinAmericanSpanish) {
		t.Errorf("region tags should match whole words only, got %v", res.Tags)
	}
}

func TestComplexityTag(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", TagBeginner},
		{"el gato come pan", TagBeginner},
		{"extraordinarily complicated conjugations", TagAdvanced},
		{"one two three four five six seven eight nine pronunciation", TagIntermediate},
	}
	for _, tt := range tests {
		if got := complexityTag(strings.Fields(tt.text)); got != tt.want {
			t.Errorf("complexityTag(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestPhraseMatches(t *testing.T) {
	tokens := []string{"conjugating", "verbs", "quickly"}
	tests := []struct {
		phrase string
		want   bool
	}{
		{"verb", true},
		{"conjugat", true},
		{"verb conjugating", true},
		{"irregular verb", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := phraseMatches(tt.phrase, tokens); got != tt.want {
			t.Errorf("phraseMatches(%q) = %v, want %v", tt.phrase, got, tt.want)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
