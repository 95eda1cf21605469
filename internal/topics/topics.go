// Package topics holds the fixed topic catalog and the pool that hands out
// unused topics to the generation pipeline.
package topics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"postmill/internal/core"
)

// catalogFile is the on-disk layout of a topic catalog.
type catalogFile struct {
	Topics []core.Topic `yaml:"topics"`
}

// LoadCatalog reads a YAML topic catalog from path.
func LoadCatalog(path string) ([]core.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topic catalog: %w", err)
	}
	if err := Validate(file.Topics); err != nil {
		return nil, fmt.Errorf("invalid topic catalog %s: %w", path, err)
	}
	return file.Topics, nil
}

// Validate checks every topic has a unique id, a title, and a known difficulty.
func Validate(topics []core.Topic) error {
	if len(topics) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]bool, len(topics))
	for i, t := range topics {
		if t.ID == "" {
			return fmt.Errorf("topic %d has no id", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate topic id %q", t.ID)
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("topic %q has no title", t.ID)
		}
		if !t.Difficulty.Valid() {
			return fmt.Errorf("topic %q has unknown difficulty %q", t.ID, t.Difficulty)
		}
	}
	return nil
}

// Pool hands out topics in catalog order, skipping used ones.
type Pool struct {
	topics []core.Topic
}

// NewPool validates topics and returns a pool over them.
func NewPool(topics []core.Topic) (*Pool, error) {
	if err := Validate(topics); err != nil {
		return nil, err
	}
	return &Pool{topics: append([]core.Topic(nil), topics...)}, nil
}

// Topics returns a copy of the catalog.
func (p *Pool) Topics() []core.Topic {
	return append([]core.Topic(nil), p.topics...)
}

// Len returns the catalog size.
func (p *Pool) Len() int {
	return len(p.topics)
}

// Next returns the first topic whose id is not in used.
func (p *Pool) Next(used map[string]bool) (core.Topic, bool) {
	for _, t := range p.topics {
		if !used[t.ID] {
			return t, true
		}
	}
	return core.Topic{}, false
}

// Remaining returns every topic not yet used, in catalog order.
func (p *Pool) Remaining(used map[string]bool) []core.Topic {
	var out []core.Topic
	for _, t := range p.topics {
		if !used[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// MatchTitle reports whether a post title and a topic title overlap by
// case-insensitive substring in either direction. It only seeds the used
// set for corpora that predate explicit topic tracking.
func MatchTitle(topicTitle, postTitle string) bool {
	a := strings.ToLower(strings.TrimSpace(topicTitle))
	b := strings.ToLower(strings.TrimSpace(postTitle))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// DeriveUsed returns the ids of topics whose title matches any of titles.
func DeriveUsed(topics []core.Topic, titles []string) map[string]bool {
	used := make(map[string]bool)
	for _, t := range topics {
		for _, title := range titles {
			if MatchTitle(t.Title, title) {
				used[t.ID] = true
				break
			}
		}
	}
	return used
}
