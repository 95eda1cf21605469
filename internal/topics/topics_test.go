package topics

import (
	"os"
	"path/filepath"
	"testing"

	"postmill/internal/core"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := Validate(DefaultCatalog()); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestPoolNext(t *testing.T) {
	pool, err := NewPool(DefaultCatalog())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	used := map[string]bool{}
	seen := map[string]bool{}
	for i := 0; i < pool.Len(); i++ {
		topic, ok := pool.Next(used)
		if !ok {
			t.Fatalf("pool exhausted after %d topics, want %d", i, pool.Len())
		}
		if seen[topic.ID] {
			t.Fatalf("topic %q handed out twice", topic.ID)
		}
		seen[topic.ID] = true
		used[topic.ID] = true
	}

	if _, ok := pool.Next(used); ok {
		t.Error("expected exhausted pool")
	}
	if rem := pool.Remaining(used); len(rem) != 0 {
		t.Errorf("Remaining = %d, want 0", len(rem))
	}
}

func TestPoolRemaining(t *testing.T) {
	pool, err := NewPool(DefaultCatalog())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	rem := pool.Remaining(map[string]bool{"verb-conjugation": true})
	if len(rem) != pool.Len()-1 {
		t.Errorf("Remaining = %d, want %d", len(rem), pool.Len()-1)
	}
	for _, topic := range rem {
		if topic.ID == "verb-conjugation" {
			t.Error("used topic returned by Remaining")
		}
	}
}

func TestValidate(t *testing.T) {
	good := core.Topic{ID: "a", Title: "A", Difficulty: core.Beginner}
	tests := []struct {
		name   string
		topics []core.Topic
		ok     bool
	}{
		{"valid", []core.Topic{good}, true},
		{"empty", nil, false},
		{"missing id", []core.Topic{{Title: "A", Difficulty: core.Beginner}}, false},
		{"duplicate", []core.Topic{good, good}, false},
		{"bad difficulty", []core.Topic{{ID: "a", Title: "A", Difficulty: "expert"}}, false},
		{"blank title", []core.Topic{{ID: "a", Title: "  ", Difficulty: core.Beginner}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.topics)
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	content := `topics:
  - id: numbers
    title: Counting to One Hundred
    description: Numbers and how to say them.
    category: Vocabulary
    difficulty: beginner
    keywords: [numbers, counting]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	topics, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(topics) != 1 || topics[0].ID != "numbers" || topics[0].Difficulty != core.Beginner {
		t.Fatalf("unexpected topics: %+v", topics)
	}
	if len(topics[0].Keywords) != 2 {
		t.Errorf("keywords = %v", topics[0].Keywords)
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("topics: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestMatchTitle(t *testing.T) {
	tests := []struct {
		topic, post string
		want        bool
	}{
		{"Verb Conjugation", "verb conjugation", true},
		{"Verb Conjugation", "Mastering Verb Conjugation Fast", true},
		{"Irregular Verbs and Stem Changes", "irregular verbs", true},
		{"Ser vs Estar", "Por vs Para", false},
		{"", "anything", false},
	}
	for _, tt := range tests {
		if got := MatchTitle(tt.topic, tt.post); got != tt.want {
			t.Errorf("MatchTitle(%q, %q) = %v, want %v", tt.topic, tt.post, got, tt.want)
		}
	}
}

func TestDeriveUsed(t *testing.T) {
	used := DeriveUsed(DefaultCatalog(), []string{"Verb Conjugation", "A Guide to False Friends"})
	if !used["verb-conjugation"] || !used["false-friends"] {
		t.Errorf("used = %v", used)
	}
	if used["irregular-verbs"] {
		t.Error("irregular-verbs should not match")
	}
}
