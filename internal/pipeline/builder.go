package pipeline

import (
	"fmt"

	"postmill/internal/classify"
	"postmill/internal/core"
	"postmill/internal/draft"
	"postmill/internal/topics"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	catalog  []core.Topic
	taxonomy *classify.Taxonomy
	seed     int64
	tracker  EventTracker
	config   *Config
}

// NewBuilder creates a new pipeline builder with the built-in catalog and
// taxonomy
func NewBuilder() *Builder {
	return &Builder{
		catalog: topics.DefaultCatalog(),
		config:  DefaultConfig(),
	}
}

// WithCatalog sets the topic catalog
func (b *Builder) WithCatalog(catalog []core.Topic) *Builder {
	b.catalog = catalog
	return b
}

// WithTaxonomy replaces the default classification taxonomy
func (b *Builder) WithTaxonomy(t classify.Taxonomy) *Builder {
	b.taxonomy = &t
	return b
}

// WithSeed fixes the regeneration seed
func (b *Builder) WithSeed(seed int64) *Builder {
	b.seed = seed
	return b
}

// WithTracker sets the analytics tracker
func (b *Builder) WithTracker(tracker EventTracker) *Builder {
	b.tracker = tracker
	return b
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// Build constructs the pipeline over corpus.
func (b *Builder) Build(corpus CorpusStore) (*Pipeline, error) {
	if corpus == nil {
		return nil, fmt.Errorf("corpus is required")
	}

	pool, err := topics.NewPool(b.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic pool: %w", err)
	}

	classifier := classify.Default()
	if b.taxonomy != nil {
		if classifier, err = classify.New(*b.taxonomy); err != nil {
			return nil, fmt.Errorf("failed to build classifier: %w", err)
		}
	}

	return NewPipeline(pool, draft.NewGenerator(b.seed), classifier, corpus, b.tracker, b.config), nil
}
