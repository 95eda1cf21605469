package relevance

import (
	"log/slog"
	"time"

	"postmill/internal/core"
	"postmill/internal/logger"
)

// Maintainer keeps related-post lists and in-body links consistent after a
// publish. It only computes changes; persisting them is the caller's job.
type Maintainer struct {
	log *slog.Logger
	now func() time.Time
}

// NewMaintainer returns a maintainer that stamps changes with the wall clock.
func NewMaintainer() *Maintainer {
	return &Maintainer{
		log: logger.Get(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (m *Maintainer) WithClock(now func() time.Time) *Maintainer {
	m.now = now
	return m
}

// AddBacklinks appends published.ID to the related list of every post that
// published lists as related. Only the forward direction computed at publish
// time is enforced. It returns the modified copies.
func (m *Maintainer) AddBacklinks(published core.Post, corpus []core.Post) []core.Post {
	targets := make(map[string]bool, len(published.RelatedPostIDs))
	for _, id := range published.RelatedPostIDs {
		targets[id] = true
	}

	var changed []core.Post
	for _, p := range corpus {
		if !targets[p.ID] || p.ID == published.ID || p.HasRelated(published.ID) {
			continue
		}
		c := p.Clone()
		c.RelatedPostIDs = append(c.RelatedPostIDs, published.ID)
		changed = append(changed, c)
	}

	if len(changed) > 0 {
		m.log.Debug("backlinks added", "post_id", published.ID, "targets", len(changed))
	}
	return changed
}

// Rescan looks for new link opportunities in every post body against the
// rest of the corpus. Posts whose body changed come back with UpdatedAt
// bumped. Cost is one related-post pass per post, so a full rescan is
// quadratic in corpus size.
func (m *Maintainer) Rescan(corpus []core.Post) []core.Post {
	idx := newIndex(corpus)
	now := m.now()

	var changed []core.Post
	for _, src := range idx.profiles {
		suggestions := idx.suggestions(src)
		if len(suggestions) == 0 {
			continue
		}
		body, applied := ApplyLinks(src.post.Body, suggestions)
		if len(applied) == 0 || body == src.post.Body {
			continue
		}
		c := src.post.Clone()
		c.Body = body
		c.UpdatedAt = now
		changed = append(changed, c)
	}

	m.log.Debug("corpus rescanned", "posts", len(corpus), "changed", len(changed))
	return changed
}

// Merge overlays changed posts onto corpus by id and returns the result.
func Merge(corpus, changed []core.Post) []core.Post {
	byID := make(map[string]core.Post, len(changed))
	for _, c := range changed {
		byID[c.ID] = c
	}
	out := make([]core.Post, len(corpus))
	for i, p := range corpus {
		if c, ok := byID[p.ID]; ok {
			out[i] = c
		} else {
			out[i] = p
		}
	}
	return out
}
