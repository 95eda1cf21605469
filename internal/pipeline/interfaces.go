package pipeline

import (
	"context"

	"postmill/internal/classify"
	"postmill/internal/core"
)

// TopicSource hands out the next topic that has not been written yet
type TopicSource interface {
	Next(used map[string]bool) (core.Topic, bool)
}

// Drafter renders article bodies and their rewrites
type Drafter interface {
	// Draft renders the first-pass body for a topic
	Draft(topic core.Topic) string

	// Regenerate renders an alternate body, rewording sentences found in hints
	Regenerate(topic core.Topic, hints []string) string

	// Mutate applies phrase substitution to an existing body
	Mutate(text string) string

	// Excerpt returns the short listing summary for a topic
	Excerpt(topic core.Topic) string
}

// Classifier assigns a category and tags to an article
type Classifier interface {
	Classify(title, body string) classify.Result
}

// CorpusStore is the published post collection the pipeline reads and
// appends to
type CorpusStore interface {
	Posts() []core.Post
	UsedTopics() map[string]bool
	Publish(ctx context.Context, post core.Post) (core.Post, error)
	Update(ctx context.Context, posts []core.Post) error
}

// EventTracker receives generation outcome events
type EventTracker interface {
	IsEnabled() bool
	TrackEvent(ctx context.Context, event string, properties map[string]interface{}) error
}
