package similarity

import (
	"math"
	"strings"
	"testing"

	"postmill/internal/core"
)

var samplePairs = [][2]string{
	{"The preterite tense describes completed actions.", "The imperfect tense describes ongoing actions in the past."},
	{"Hola, ¿cómo estás?", "hola como estas"},
	{"Learn Spanish greetings", "Spanish greetings for travellers and beginners"},
	{"ser and estar", "por and para"},
	{"a", "completely different and much longer sentence about vocabulary"},
	{"", "not empty"},
}

func TestSimilarity_Symmetry(t *testing.T) {
	for _, p := range samplePairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_Identity(t *testing.T) {
	texts := []string{
		"The subjunctive mood expresses wishes.",
		"Vocabulary: la casa, el perro, el gato!",
		strings.Repeat("repeated words make long texts ", 200),
	}
	for _, text := range texts {
		if got := Similarity(text, text); got != 1 {
			t.Errorf("Similarity(a, a) = %v, want 1", got)
		}
	}
}

func TestSimilarity_Range(t *testing.T) {
	for _, p := range samplePairs {
		s := Similarity(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestSimilarity_EmptyInput(t *testing.T) {
	if got := Similarity("", ""); got != 0 {
		t.Errorf("Similarity of empty texts = %v, want 0", got)
	}
	if got := Similarity("!!!", "words"); got != 0 {
		t.Errorf("Similarity with punctuation-only text = %v, want 0", got)
	}
}

func TestSimilarity_NormalizationEquivalence(t *testing.T) {
	if got := Similarity("Hola, ¿Cómo   estás?", "hola cómo estás"); got != 1 {
		t.Errorf("texts equal after normalization should score 1, got %v", got)
	}
}

func TestCompare_Breakdown(t *testing.T) {
	bd := Compare("red blue green", "red blue yellow")
	if math.Abs(bd.Jaccard-0.5) > 1e-9 {
		t.Errorf("Jaccard = %v, want 0.5", bd.Jaccard)
	}
	want := JaccardWeight*bd.Jaccard + CosineWeight*bd.Cosine + EditWeight*bd.Edit
	if math.Abs(bd.Combined-want) > 1e-9 {
		t.Errorf("Combined = %v, want %v", bd.Combined, want)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"año", "ano", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValidateUniqueness_EmptyCorpus(t *testing.T) {
	v := ValidateUniqueness("some draft text", "Title", nil)
	if !v.Unique || v.Score != 0 {
		t.Errorf("empty corpus should be trivially unique, got %+v", v)
	}
}

func TestValidateUniqueness_EmptyDraft(t *testing.T) {
	corpus := []core.Post{{ID: "1", Title: "Existing", Body: "Existing body"}}
	v := ValidateUniqueness("   ", "Title", corpus)
	if !v.Unique || v.Score != 0 {
		t.Errorf("empty draft should be trivially unique, got %+v", v)
	}
}

func TestValidateUniqueness_IdenticalBody(t *testing.T) {
	body := longBody("conjugation")
	corpus := []core.Post{
		{ID: "other", Slug: 1, Title: "Food vocabulary", Body: "Words for fruit, vegetables and the market."},
		{ID: "same", Slug: 2, Title: "Verb Conjugation Basics", Body: body},
	}

	v := ValidateUniqueness(body, "A brand new title", corpus)
	if v.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", v.Score)
	}
	if v.Unique {
		t.Error("identical body must not be unique")
	}
	if v.MostSimilarID != "same" {
		t.Errorf("MostSimilarID = %q, want same", v.MostSimilarID)
	}
	if v.Comparisons[0].PostID != "same" || len(v.Comparisons[0].DuplicateSegments) == 0 {
		t.Errorf("expected duplicate segments against the identical post, got %+v", v.Comparisons[0])
	}
	if len(v.Recommendations) == 0 || !strings.Contains(v.Recommendations[0], "Rewrite entirely") {
		t.Errorf("expected rewrite-entirely recommendation, got %v", v.Recommendations)
	}
}

func TestValidateUniqueness_TitleDominates(t *testing.T) {
	corpus := []core.Post{{ID: "p1", Title: "Spanish Greetings", Body: "Completely unrelated body about numbers and counting."}}
	v := ValidateUniqueness("A fresh draft about weather expressions and seasons.", "Spanish Greetings", corpus)
	if v.Comparisons[0].TitleScore != 1 {
		t.Errorf("TitleScore = %v, want 1", v.Comparisons[0].TitleScore)
	}
	if v.Score != 1 || v.Unique {
		t.Errorf("title match should make the draft non-unique, got %+v", v)
	}
}

func TestValidateUniqueness_DistinctDraftIsUnique(t *testing.T) {
	corpus := []core.Post{{ID: "p1", Title: "Numbers", Body: "Uno dos tres cuatro cinco. Counting is easy once you practice daily."}}
	v := ValidateUniqueness("Greetings in the morning include buenos días while evenings call for buenas noches.", "Greetings", corpus)
	if !v.Unique {
		t.Errorf("expected unique verdict, got score %v", v.Score)
	}
	if len(v.Recommendations) != 0 {
		t.Errorf("unique drafts need no recommendations, got %v", v.Recommendations)
	}
}

func TestRecommendationThresholds(t *testing.T) {
	closest := core.PostComparison{Title: "X"}
	tests := []struct {
		score float64
		want  string
	}{
		{0.75, "Rewrite entirely"},
		{0.6, "Rewrite duplicate sections"},
		{0.4, "Review and modify"},
	}
	for _, tt := range tests {
		recs := recommendations(tt.score, closest)
		if len(recs) == 0 || !strings.HasPrefix(recs[0], tt.want) {
			t.Errorf("score %.2f: got %v, want prefix %q", tt.score, recs, tt.want)
		}
	}
	if recs := recommendations(0.2, closest); len(recs) != 0 {
		t.Errorf("score 0.2 should yield no recommendations, got %v", recs)
	}
}

func TestDuplicateSegments(t *testing.T) {
	shared := longBody("subjunctive")
	draft := shared + " " + strings.Repeat("entirely fresh material about weather ", 20)
	body := strings.Repeat("unrelated opening about food markets ", 20) + " " + shared

	segments := DuplicateSegments(draft, body)
	if len(segments) == 0 {
		t.Fatal("expected duplicate segments for shared passage")
	}

	seen := make(map[string]bool)
	for _, s := range segments {
		if seen[s] {
			t.Errorf("segment %q reported twice", s)
		}
		seen[s] = true
		if n := len(strings.Fields(s)); n != WindowSize {
			t.Errorf("segment has %d words, want %d", n, WindowSize)
		}
	}
}

func TestDuplicateSegments_NoOverlap(t *testing.T) {
	a := strings.Repeat("alpha beta gamma delta ", 30)
	b := strings.Repeat("uno dos tres cuatro ", 30)
	if got := DuplicateSegments(a, b); len(got) != 0 {
		t.Errorf("expected no segments, got %d", len(got))
	}
}

func TestWindows_Sampling(t *testing.T) {
	words := strings.Fields(strings.Repeat("w ", 1000))
	ws := windows(words)
	if len(ws) > MaxWindows {
		t.Errorf("got %d windows, want at most %d", len(ws), MaxWindows)
	}
	short := windows([]string{"just", "a", "few"})
	if len(short) != 1 || short[0].text != "just a few" {
		t.Errorf("short text should yield one window, got %+v", short)
	}
}

func longBody(subject string) string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("Learning the " + subject + " requires steady practice with real sentences from daily conversation. ")
		b.WriteString("Each lesson builds on patterns you already know and adds a few new forms to remember. ")
	}
	return b.String()
}
