// Package pipeline drives one generation run from topic selection to a
// published, interlinked post.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"postmill/internal/core"
	"postmill/internal/logger"
	"postmill/internal/relevance"
	"postmill/internal/similarity"
)

var (
	// ErrNoTopicsAvailable means every catalog topic already has a post.
	ErrNoTopicsAvailable = errors.New("no topics available")

	// ErrRunInProgress is returned by TryGenerate while another run holds
	// the pipeline.
	ErrRunInProgress = errors.New("generation already in progress")

	// ErrNotUnique is returned in strict mode when the rewritten draft
	// still fails validation.
	ErrNotUnique = errors.New("draft is not unique")
)

// Stage names one step of a run.
type Stage string

const (
	StageSelectTopic       Stage = "select_topic"
	StageDraft             Stage = "draft"
	StageValidate          Stage = "validate"
	StageRegenerate        Stage = "regenerate"
	StageMutate            Stage = "mutate"
	StageClassify          Stage = "classify"
	StageComputeLinks      Stage = "compute_links"
	StagePersist           Stage = "persist"
	StageUpdateBacklinks   Stage = "update_backlinks"
	StageDone              Stage = "done"
	StageNoTopicsAvailable Stage = "no_topics_available"
)

// Event names reported to the tracker.
const (
	EventPostGenerated      = "post_generated"
	EventGenerationDeclined = "generation_declined"
	EventGenerationFailed   = "generation_failed"
)

// Config holds pipeline configuration
type Config struct {
	// StrictUniqueness validates the mutated draft once more and rejects
	// it when it is still too similar to the corpus.
	StrictUniqueness bool

	// Featured marks generated posts as featured.
	Featured bool

	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		StrictUniqueness: false,
		Featured:         false,
		Timeout:          2 * time.Minute,
	}
}

// Result describes a finished run.
type Result struct {
	Post         core.Post     `json:"post"`
	Topic        core.Topic    `json:"topic"`
	Score        float64       `json:"score"`         // similarity of the accepted body
	InitialScore float64       `json:"initial_score"` // similarity of the first draft
	Regenerated  bool          `json:"regenerated"`
	Mutated      bool          `json:"mutated"`
	Links        int           `json:"links"`     // in-body links inserted into the new post
	Backlinks    int           `json:"backlinks"` // older posts that gained a related id
	Rescanned    int           `json:"rescanned"` // older posts whose body gained links
	Stages       []Stage       `json:"stages"`
	Duration     time.Duration `json:"duration"`
}

func (r *Result) enter(s Stage) {
	r.Stages = append(r.Stages, s)
}

// Pipeline orchestrates generation. At most one run executes at a time.
type Pipeline struct {
	topics     TopicSource
	drafter    Drafter
	classifier Classifier
	corpus     CorpusStore
	tracker    EventTracker
	maintainer *relevance.Maintainer

	config *Config
	log    *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	running atomic.Bool
}

// NewPipeline creates a new pipeline with all dependencies. tracker may be
// nil.
func NewPipeline(
	topics TopicSource,
	drafter Drafter,
	classifier Classifier,
	corpus CorpusStore,
	tracker EventTracker,
	config *Config,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}

	return &Pipeline{
		topics:     topics,
		drafter:    drafter,
		classifier: classifier,
		corpus:     corpus,
		tracker:    tracker,
		maintainer: relevance.NewMaintainer(),
		config:     config,
		log:        logger.Get(),
		now:        time.Now,
	}
}

// WithClock replaces the time source used for post timestamps.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.maintainer.WithClock(now)
	return p
}

// Running reports whether a run or a relink is executing.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Generate runs the pipeline, waiting for any active run to finish first.
func (p *Pipeline) Generate(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run(ctx)
}

// TryGenerate runs the pipeline unless a run is already active, in which
// case it returns ErrRunInProgress without waiting.
func (p *Pipeline) TryGenerate(ctx context.Context) (*Result, error) {
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.mu.Unlock()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	p.running.Store(true)
	defer p.running.Store(false)

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	res := &Result{}
	defer func() { res.Duration = time.Since(start) }()

	res.enter(StageSelectTopic)
	topic, ok := p.topics.Next(p.corpus.UsedTopics())
	if !ok {
		res.enter(StageNoTopicsAvailable)
		p.log.Info("generation declined: topic pool exhausted")
		p.track(ctx, EventGenerationDeclined, map[string]interface{}{"reason": "no_topics_available"})
		return res, ErrNoTopicsAvailable
	}
	res.Topic = topic
	log := p.log.With("topic", topic.ID)

	corpus := p.corpus.Posts()

	res.enter(StageDraft)
	body := p.drafter.Draft(topic)

	res.enter(StageValidate)
	verdict := similarity.ValidateUniqueness(body, topic.Title, corpus)
	res.InitialScore = verdict.Score
	res.Score = verdict.Score

	if !verdict.Unique {
		log.Info("draft too similar, regenerating",
			"score", verdict.Score, "closest", verdict.MostSimilarID, "segments", len(verdict.Segments()))

		res.enter(StageRegenerate)
		body = p.drafter.Regenerate(topic, verdict.Segments())
		res.Regenerated = true

		res.enter(StageValidate)
		verdict = similarity.ValidateUniqueness(body, topic.Title, corpus)
		res.Score = verdict.Score

		if !verdict.Unique {
			res.enter(StageMutate)
			body = p.drafter.Mutate(body)
			res.Mutated = true

			if p.config.StrictUniqueness {
				res.enter(StageValidate)
				verdict = similarity.ValidateUniqueness(body, topic.Title, corpus)
				res.Score = verdict.Score
				if !verdict.Unique {
					err := fmt.Errorf("%w: score %.2f against post %s", ErrNotUnique, verdict.Score, verdict.MostSimilarID)
					p.fail(ctx, res, err)
					return res, err
				}
			} else {
				log.Warn("accepting mutated draft without revalidation", "score", verdict.Score)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		p.fail(ctx, res, err)
		return res, err
	}

	res.enter(StageClassify)
	class := p.classifier.Classify(topic.Title, body)

	now := p.now().UTC()
	post := core.Post{
		ID:        uuid.NewString(),
		TopicID:   topic.ID,
		Title:     topic.Title,
		Excerpt:   p.drafter.Excerpt(topic),
		Body:      body,
		Category:  class.Category,
		Tags:      class.Tags,
		Keywords:  append([]string(nil), topic.Keywords...),
		CreatedAt: now,
		UpdatedAt: now,
		Featured:  p.config.Featured,
	}

	res.enter(StageComputeLinks)
	post.RelatedPostIDs = relevance.RelatedIDs(relevance.RelatedTo(post, corpus))
	var applied []relevance.LinkSuggestion
	post.Body, applied = relevance.ApplyLinks(post.Body, relevance.SuggestFor(post, corpus))
	res.Links = len(applied)

	res.enter(StagePersist)
	published, err := p.corpus.Publish(ctx, post)
	if err != nil {
		err = fmt.Errorf("failed to publish post: %w", err)
		p.fail(ctx, res, err)
		return res, err
	}
	res.Post = published

	res.enter(StageUpdateBacklinks)
	if err := p.updateBacklinks(ctx, res); err != nil {
		// The post is already durable; older posts keep their previous links.
		log.Error("backlink update failed", "error", err, "slug", published.Slug)
	}

	res.enter(StageDone)
	log.Info("post generated",
		"slug", res.Post.Slug, "category", res.Post.Category, "tags", len(res.Post.Tags),
		"score", res.Score, "regenerated", res.Regenerated, "mutated", res.Mutated,
		"related", len(res.Post.RelatedPostIDs), "backlinks", res.Backlinks)
	p.track(ctx, EventPostGenerated, map[string]interface{}{
		"slug":        res.Post.Slug,
		"topic":       topic.ID,
		"category":    res.Post.Category,
		"score":       res.Score,
		"regenerated": res.Regenerated,
		"mutated":     res.Mutated,
		"backlinks":   res.Backlinks,
	})
	return res, nil
}

// updateBacklinks adds the new post to its related posts' lists and
// re-inserts links across the corpus, writing every change in one batch.
func (p *Pipeline) updateBacklinks(ctx context.Context, res *Result) error {
	all := p.corpus.Posts()
	backlinked := p.maintainer.AddBacklinks(res.Post, all)
	merged := relevance.Merge(all, backlinked)
	rescanned := p.maintainer.Rescan(merged)
	final := relevance.Merge(merged, rescanned)

	changed := make(map[string]bool, len(backlinked)+len(rescanned))
	for _, c := range backlinked {
		changed[c.ID] = true
	}
	for _, c := range rescanned {
		changed[c.ID] = true
		if c.ID != res.Post.ID {
			res.Rescanned++
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var batch []core.Post
	for _, post := range final {
		if changed[post.ID] {
			batch = append(batch, post)
		}
	}
	if err := p.corpus.Update(ctx, batch); err != nil {
		res.Rescanned = 0
		return err
	}

	res.Backlinks = len(backlinked)
	for _, post := range batch {
		if post.ID == res.Post.ID {
			res.Post = post
		}
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, res *Result, err error) {
	p.log.Error("generation failed", "error", err, "topic", res.Topic.ID, "stage", res.Stages[len(res.Stages)-1])
	p.track(ctx, EventGenerationFailed, map[string]interface{}{
		"topic": res.Topic.ID,
		"error": err.Error(),
	})
}

func (p *Pipeline) track(ctx context.Context, event string, props map[string]interface{}) {
	if p.tracker == nil || !p.tracker.IsEnabled() {
		return
	}
	if err := p.tracker.TrackEvent(context.WithoutCancel(ctx), event, props); err != nil {
		p.log.Warn("failed to track event", "event", event, "error", err)
	}
}

// Relink restores the backlink of every post to the posts it lists as
// related, re-inserts automatic links across the whole corpus and persists
// the changed posts in one batch. It shares the run lock with Generate, so
// a relink counts as a running pipeline.
func (p *Pipeline) Relink(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running.Store(true)
	defer p.running.Store(false)

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	all := p.corpus.Posts()
	changed := make(map[string]bool)
	backlinks := 0
	for i := range all {
		added := p.maintainer.AddBacklinks(all[i], all)
		if len(added) == 0 {
			continue
		}
		all = relevance.Merge(all, added)
		for _, c := range added {
			changed[c.ID] = true
		}
		backlinks += len(added)
	}

	rescanned := p.maintainer.Rescan(all)
	all = relevance.Merge(all, rescanned)
	for _, c := range rescanned {
		changed[c.ID] = true
	}
	if len(changed) == 0 {
		return 0, nil
	}

	batch := make([]core.Post, 0, len(changed))
	for _, post := range all {
		if changed[post.ID] {
			batch = append(batch, post)
		}
	}
	if err := p.corpus.Update(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to persist relinked posts: %w", err)
	}
	p.log.Info("corpus relinked", "posts", len(batch), "backlinks", backlinks, "rescanned", len(rescanned))
	return len(batch), nil
}
