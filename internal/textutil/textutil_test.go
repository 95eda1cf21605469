package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  ¿Qué   tal?\n\tBien.  ", "qué tal bien"},
		{"well-known", "wellknown"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The verb IS irregular, and it conjugates in the past tense.")
	want := []string{"verb", "irregular", "conjugates", "past", "tense"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestJaccard(t *testing.T) {
	a := WordSet([]string{"a", "b", "c"})
	b := WordSet([]string{"b", "c", "d"})
	if got := Jaccard(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Jaccard = %v, want 0.5", got)
	}
	if got := Jaccard(map[string]bool{}, map[string]bool{}); got != 0 {
		t.Errorf("Jaccard of empty sets = %v, want 0", got)
	}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Error("Jaccard should be symmetric")
	}
}

func TestSignificantWords(t *testing.T) {
	text := "verbs verbs verbs tense tense mood"
	got := SignificantWords(text, 2)
	want := []string{"verbs", "tense"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SignificantWords = %v, want %v", got, want)
	}
	if SignificantWords(text, 0) != nil {
		t.Error("n=0 should return nil")
	}
}

func TestSplitSentences(t *testing.T) {
	text := "First sentence here. Second one!\nThird line without stop\nVersion 1.5 is fine? Yes."
	got := SplitSentences(text)
	want := []string{
		"First sentence here.",
		"Second one!",
		"Third line without stop",
		"Version 1.5 is fine?",
		"Yes.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSentences = %#v, want %#v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short text", 50); got != "short text" {
		t.Errorf("Truncate short = %q", got)
	}
	got := Truncate("the quick brown fox jumps over the lazy dog", 18)
	if got != "the quick brown..." {
		t.Errorf("Truncate = %q", got)
	}
}
