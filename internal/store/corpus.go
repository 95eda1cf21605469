package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"postmill/internal/core"
	"postmill/internal/logger"
	"postmill/internal/topics"
)

// Record keys.
const (
	PostPrefix    = "posts/"
	KeyIndex      = "index/posts"
	KeyCounter    = "counter/slug"
	KeyUsedTopics = "topics/used"
)

// PostKey returns the record key for slug. Zero padding keeps List ordered.
func PostKey(slug int) string {
	return fmt.Sprintf("%s%08d", PostPrefix, slug)
}

// IndexEntry is one line of the corpus index.
type IndexEntry struct {
	ID    string `json:"id"`
	Slug  int    `json:"slug"`
	Title string `json:"title"`
}

// Report describes what Load found and repaired.
type Report struct {
	Posts         int  `json:"posts"`
	Adopted       int  `json:"adopted"`        // post records missing from the index
	Dangling      int  `json:"dangling"`       // index entries without a post record
	CounterBefore int  `json:"counter_before"` // stored counter, 0 if absent
	CounterAfter  int  `json:"counter_after"`
	DerivedTopics bool `json:"derived_topics"` // used-topic set rebuilt from titles
	Repaired      bool `json:"repaired"`       // repairs were written back
}

// Corpus is the in-memory view of every published post plus the slug
// counter and the used-topic set, kept in step with the record store.
type Corpus struct {
	mu      sync.RWMutex
	store   RecordStore
	posts   []core.Post // ordered by slug
	byID    map[string]int
	counter int
	used    map[string]bool
	log     *slog.Logger
}

// NewCorpus returns an empty corpus over s. Call Load before use.
func NewCorpus(s RecordStore) *Corpus {
	return &Corpus{
		store:   s,
		byID:    make(map[string]int),
		counter: 1,
		used:    make(map[string]bool),
		log:     logger.Get(),
	}
}

// Load reads the corpus from the store and reconciles the index, counter
// and used-topic set with the post records actually present. catalog seeds
// the used-topic set when none was stored.
func (c *Corpus) Load(ctx context.Context, catalog []core.Topic) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.store.List(ctx, PostPrefix)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list posts: %w", err)
	}
	posts := make([]core.Post, 0, len(records))
	for _, r := range records {
		var p core.Post
		if err := json.Unmarshal(r.Value, &p); err != nil {
			return Report{}, fmt.Errorf("failed to decode %s: %w", r.Key, err)
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })

	var index []IndexEntry
	if err := c.getJSON(ctx, KeyIndex, &index); err != nil && !errors.Is(err, ErrNotFound) {
		return Report{}, err
	}
	counter := 0
	if err := c.getJSON(ctx, KeyCounter, &counter); err != nil && !errors.Is(err, ErrNotFound) {
		return Report{}, err
	}
	var usedList []string
	usedErr := c.getJSON(ctx, KeyUsedTopics, &usedList)
	if usedErr != nil && !errors.Is(usedErr, ErrNotFound) {
		return Report{}, usedErr
	}

	rep := Report{Posts: len(posts), CounterBefore: counter}

	indexed := make(map[int]bool, len(index))
	for _, e := range index {
		indexed[e.Slug] = true
	}
	present := make(map[int]bool, len(posts))
	for _, p := range posts {
		present[p.Slug] = true
		if !indexed[p.Slug] {
			rep.Adopted++
		}
	}
	for _, e := range index {
		if !present[e.Slug] {
			rep.Dangling++
		}
	}

	maxSlug := 0
	for _, p := range posts {
		maxSlug = max(maxSlug, p.Slug)
	}
	rep.CounterAfter = max(len(posts)+1, maxSlug+1)

	used := make(map[string]bool)
	if errors.Is(usedErr, ErrNotFound) {
		titles := make([]string, len(posts))
		for i, p := range posts {
			titles[i] = p.Title
		}
		used = topics.DeriveUsed(catalog, titles)
		rep.DerivedTopics = len(posts) > 0
	} else {
		for _, id := range usedList {
			used[id] = true
		}
	}
	usedBefore := len(used)
	for _, p := range posts {
		if p.TopicID != "" {
			used[p.TopicID] = true
		}
	}

	c.posts = posts
	c.reindex()
	c.counter = rep.CounterAfter
	c.used = used

	needsRepair := rep.Adopted > 0 || rep.Dangling > 0 || len(index) != len(posts) ||
		rep.CounterBefore != rep.CounterAfter || rep.DerivedTopics || len(used) != usedBefore
	if needsRepair && (len(posts) > 0 || rep.CounterBefore != 0) {
		batch, err := c.stateRecords()
		if err != nil {
			return rep, err
		}
		if err := c.store.PutBatch(ctx, batch); err != nil {
			return rep, fmt.Errorf("failed to write reconciled state: %w", err)
		}
		rep.Repaired = true
		c.log.Warn("corpus reconciled",
			"posts", rep.Posts,
			"adopted", rep.Adopted,
			"dangling", rep.Dangling,
			"counter_before", rep.CounterBefore,
			"counter_after", rep.CounterAfter,
			"derived_topics", rep.DerivedTopics)
	}

	c.log.Info("corpus loaded", "posts", len(posts), "next_slug", c.counter, "used_topics", len(c.used))
	return rep, nil
}

// Posts returns copies of every post ordered by slug.
func (c *Corpus) Posts() []core.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Post, len(c.posts))
	for i, p := range c.posts {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of published posts.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}

// Get returns the post with id.
func (c *Corpus) Get(id string) (core.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return core.Post{}, false
	}
	return c.posts[i].Clone(), true
}

// BySlug returns the post with slug or ErrNotFound.
func (c *Corpus) BySlug(slug int) (core.Post, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.Search(len(c.posts), func(i int) bool { return c.posts[i].Slug >= slug })
	if i < len(c.posts) && c.posts[i].Slug == slug {
		return c.posts[i].Clone(), nil
	}
	return core.Post{}, ErrNotFound
}

// NextSlug returns the slug the next publish will receive.
func (c *Corpus) NextSlug() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counter
}

// UsedTopics returns a copy of the used-topic id set.
func (c *Corpus) UsedTopics() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.used))
	for id := range c.used {
		out[id] = true
	}
	return out
}

// Publish assigns the next slug to post and writes the post, index,
// counter and used-topic set in one batch. Memory is only updated once the
// batch commits.
func (c *Corpus) Publish(ctx context.Context, post core.Post) (core.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if _, dup := c.byID[post.ID]; dup {
		return core.Post{}, fmt.Errorf("post %s already published", post.ID)
	}
	post = post.Clone()
	post.Slug = c.counter

	prevPosts, prevCounter, prevUsed := c.posts, c.counter, c.used

	c.posts = append(append([]core.Post(nil), c.posts...), post)
	c.counter = post.Slug + 1
	c.used = copySet(prevUsed)
	if post.TopicID != "" {
		c.used[post.TopicID] = true
	}

	batch, err := c.stateRecords()
	if err == nil {
		var rec Record
		rec, err = postRecord(post)
		batch = append([]Record{rec}, batch...)
	}
	if err == nil {
		err = c.store.PutBatch(ctx, batch)
	}
	if err != nil {
		c.posts, c.counter, c.used = prevPosts, prevCounter, prevUsed
		return core.Post{}, fmt.Errorf("failed to publish post: %w", err)
	}

	c.byID[post.ID] = len(c.posts) - 1
	return post.Clone(), nil
}

// Update rewrites existing posts in one batch. Posts are matched by id and
// must keep their slug.
func (c *Corpus) Update(ctx context.Context, posts []core.Post) error {
	if len(posts) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := make([]Record, 0, len(posts))
	for _, p := range posts {
		i, ok := c.byID[p.ID]
		if !ok {
			return fmt.Errorf("cannot update unknown post %s", p.ID)
		}
		if c.posts[i].Slug != p.Slug {
			return fmt.Errorf("post %s: slug changed from %d to %d", p.ID, c.posts[i].Slug, p.Slug)
		}
		rec, err := postRecord(p)
		if err != nil {
			return err
		}
		batch = append(batch, rec)
	}
	if err := c.store.PutBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to update posts: %w", err)
	}

	for _, p := range posts {
		c.posts[c.byID[p.ID]] = p.Clone()
	}
	return nil
}

// Check verifies the cross-record invariants: slugs are exactly 1..N in
// order, the counter is N+1, ids are unique, and related ids point at
// published posts.
func (c *Corpus) Check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var problems []error
	ids := make(map[string]bool, len(c.posts))
	for i, p := range c.posts {
		if p.Slug != i+1 {
			problems = append(problems, fmt.Errorf("post %s has slug %d, expected %d", p.ID, p.Slug, i+1))
		}
		if ids[p.ID] {
			problems = append(problems, fmt.Errorf("duplicate post id %s", p.ID))
		}
		ids[p.ID] = true
	}
	if c.counter != len(c.posts)+1 {
		problems = append(problems, fmt.Errorf("slug counter is %d, expected %d", c.counter, len(c.posts)+1))
	}
	for _, p := range c.posts {
		for _, rel := range p.RelatedPostIDs {
			if !ids[rel] {
				problems = append(problems, fmt.Errorf("post %s relates to unknown post %s", p.ID, rel))
			}
		}
	}
	return errors.Join(problems...)
}

// stateRecords encodes index, counter and used-topic set. Callers hold mu.
func (c *Corpus) stateRecords() ([]Record, error) {
	index := make([]IndexEntry, len(c.posts))
	for i, p := range c.posts {
		index[i] = IndexEntry{ID: p.ID, Slug: p.Slug, Title: p.Title}
	}
	used := make([]string, 0, len(c.used))
	for id := range c.used {
		used = append(used, id)
	}
	sort.Strings(used)

	idx, err := json.Marshal(index)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	usedJSON, err := json.Marshal(used)
	if err != nil {
		return nil, fmt.Errorf("failed to encode used topics: %w", err)
	}
	return []Record{
		{Key: KeyIndex, Value: idx},
		{Key: KeyCounter, Value: []byte(strconv.Itoa(c.counter))},
		{Key: KeyUsedTopics, Value: usedJSON},
	}, nil
}

func (c *Corpus) reindex() {
	c.byID = make(map[string]int, len(c.posts))
	for i, p := range c.posts {
		c.byID[p.ID] = i
	}
}

func (c *Corpus) getJSON(ctx context.Context, key string, v any) error {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func postRecord(p core.Post) (Record, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode post %d: %w", p.Slug, err)
	}
	return Record{Key: PostKey(p.Slug), Value: data}, nil
}

func copySet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k := range in {
		out[k] = true
	}
	return out
}
