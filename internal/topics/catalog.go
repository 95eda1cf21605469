package topics

import "postmill/internal/core"

// DefaultCatalog returns the built-in Spanish lesson topics.
func DefaultCatalog() []core.Topic {
	return []core.Topic{
		{
			ID:          "verb-conjugation",
			Title:       "Verb Conjugation",
			Description: "How Spanish verbs change their endings for person and tense, starting with regular -ar, -er and -ir verbs in the present.",
			Category:    "Grammar",
			Difficulty:  core.Beginner,
			Keywords:    []string{"verb", "conjugation", "endings", "present tense"},
		},
		{
			ID:          "irregular-verbs",
			Title:       "Irregular Verbs",
			Description: "The most common irregular verbs, stem changes, and how to conjugate ser, ir, tener and hacer without memorizing every form.",
			Category:    "Grammar",
			Difficulty:  core.Intermediate,
			Keywords:    []string{"irregular", "verb", "conjugation", "stem change"},
		},
		{
			ID:          "ser-vs-estar",
			Title:       "Ser vs Estar",
			Description: "Two verbs for to be: when to describe permanent traits with ser and temporary states with estar.",
			Category:    "Grammar",
			Difficulty:  core.Beginner,
			Keywords:    []string{"ser", "estar", "permanent", "temporary"},
		},
		{
			ID:          "preterite-vs-imperfect",
			Title:       "Preterite vs Imperfect",
			Description: "Choosing between the two past tenses: completed actions in the preterite and background or habits in the imperfect.",
			Category:    "Grammar",
			Difficulty:  core.Intermediate,
			Keywords:    []string{"preterite", "imperfect", "past tense"},
		},
		{
			ID:          "subjunctive-mood",
			Title:       "The Subjunctive Mood",
			Description: "Using the subjunctive for wishes, doubts and emotions, and the triggers that call for it.",
			Category:    "Grammar",
			Difficulty:  core.Advanced,
			Keywords:    []string{"subjunctive", "mood", "wishes", "doubt"},
		},
		{
			ID:          "everyday-greetings",
			Title:       "Everyday Greetings",
			Description: "Greetings and small talk phrases for mornings, evenings and meeting someone new.",
			Category:    "Vocabulary",
			Difficulty:  core.Beginner,
			Keywords:    []string{"greetings", "phrases", "conversation"},
		},
		{
			ID:          "false-friends",
			Title:       "False Friends",
			Description: "Words that look like English but mean something else, and how to avoid embarrassing mix-ups.",
			Category:    "Vocabulary",
			Difficulty:  core.Intermediate,
			Keywords:    []string{"false friends", "cognates", "vocabulary"},
		},
		{
			ID:          "food-at-the-market",
			Title:       "Food at the Market",
			Description: "Names of fruit, vegetables and everyday food, plus the phrases you need to buy them at a market.",
			Category:    "Vocabulary",
			Difficulty:  core.Beginner,
			Keywords:    []string{"food", "market", "fruit", "vocabulary"},
		},
		{
			ID:          "rolling-your-rs",
			Title:       "Rolling Your Rs",
			Description: "Exercises for the single tap and the rolled trill, with words to practice each sound.",
			Category:    "Pronunciation",
			Difficulty:  core.Intermediate,
			Keywords:    []string{"rolled", "trill", "pronunciation", "tongue"},
		},
		{
			ID:          "accent-marks",
			Title:       "Accent Marks and Stress",
			Description: "Where the stress falls in a Spanish word and when a written accent mark changes it.",
			Category:    "Pronunciation",
			Difficulty:  core.Beginner,
			Keywords:    []string{"accent marks", "stress", "spelling"},
		},
		{
			ID:          "ordering-at-a-restaurant",
			Title:       "Ordering at a Restaurant",
			Description: "Reading a menu, asking the waiter for recommendations, and paying the bill politely.",
			Category:    "Travel",
			Difficulty:  core.Beginner,
			Keywords:    []string{"restaurant", "ordering", "menu", "waiter"},
		},
		{
			ID:          "holidays-and-festivals",
			Title:       "Holidays and Festivals",
			Description: "Major celebrations across the Spanish-speaking world and the vocabulary that comes with them.",
			Category:    "Culture",
			Difficulty:  core.Intermediate,
			Keywords:    []string{"holiday", "festival", "celebration", "tradition"},
		},
		{
			ID:          "daily-study-habits",
			Title:       "Building Daily Study Habits",
			Description: "Short daily routines, spaced repetition and immersion tricks that keep practice consistent.",
			Category:    "Learning Tips",
			Difficulty:  core.Beginner,
			Keywords:    []string{"study", "habit", "routine", "spaced repetition"},
		},
	}
}
