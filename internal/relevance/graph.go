package relevance

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"postmill/internal/core"
)

// Graph is the weighted relevance graph of a corpus. Edge weights are
// pairwise relevance scores.
type Graph struct {
	g      *simple.WeightedUndirectedGraph
	posts  map[int64]core.Post
	nodeOf map[string]int64
}

// Community is a cluster of closely related posts.
type Community struct {
	Label   string   `json:"label"` // most common category in the cluster
	PostIDs []string `json:"post_ids"`
}

// BuildGraph connects every pair of posts scoring at least minScore.
func BuildGraph(corpus []core.Post, minScore float64) *Graph {
	gr := &Graph{
		g:      simple.NewWeightedUndirectedGraph(0, 0),
		posts:  make(map[int64]core.Post, len(corpus)),
		nodeOf: make(map[string]int64, len(corpus)),
	}
	idx := newIndex(corpus)
	for i, p := range corpus {
		id := int64(i)
		gr.posts[id] = p
		gr.nodeOf[p.ID] = id
		gr.g.AddNode(simple.Node(id))
	}

	for i := range idx.profiles {
		for j := i + 1; j < len(idx.profiles); j++ {
			s, _ := score(idx.profiles[i], idx.profiles[j])
			if s < minScore || s <= 0 {
				continue
			}
			gr.g.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(int64(i)),
				T: simple.Node(int64(j)),
				W: s,
			})
		}
	}
	return gr
}

// EdgeCount returns the number of edges in the graph.
func (gr *Graph) EdgeCount() int {
	return gr.g.Edges().Len()
}

// Edges returns every edge, strongest first.
func (gr *Graph) Edges() []core.RelevanceEdge {
	var out []core.RelevanceEdge
	it := gr.g.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		from, to := gr.posts[e.From().ID()], gr.posts[e.To().ID()]
		if from.Slug > to.Slug {
			from, to = to, from
		}
		_, label := Score(from, to)
		out = append(out, core.RelevanceEdge{From: from.ID, To: to.ID, Score: e.Weight(), Relationship: label})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Communities runs Louvain modularity optimisation and returns the clusters,
// largest first, with the modularity Q of the partition. A graph without
// edges yields one singleton cluster per post and Q = 0.
func (gr *Graph) Communities(resolution float64) ([]Community, float64) {
	if gr.g.Nodes().Len() == 0 {
		return nil, 0
	}

	var groups [][]graph.Node
	q := 0.0
	if gr.EdgeCount() == 0 {
		nodes := gr.g.Nodes()
		for nodes.Next() {
			groups = append(groups, []graph.Node{nodes.Node()})
		}
	} else {
		reduced := community.Modularize(gr.g, resolution, nil)
		groups = reduced.Communities()
		q = community.Q(gr.g, groups, resolution)
	}

	out := make([]Community, 0, len(groups))
	for _, group := range groups {
		posts := make([]core.Post, 0, len(group))
		for _, n := range group {
			posts = append(posts, gr.posts[n.ID()])
		}
		sort.Slice(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })

		c := Community{Label: dominantCategory(posts)}
		for _, p := range posts {
			c.PostIDs = append(c.PostIDs, p.ID)
		}
		out = append(out, c)
	}

	first := func(c Community) int { return gr.posts[gr.nodeOf[c.PostIDs[0]]].Slug }
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].PostIDs) != len(out[j].PostIDs) {
			return len(out[i].PostIDs) > len(out[j].PostIDs)
		}
		return first(out[i]) < first(out[j])
	})
	return out, q
}

func dominantCategory(posts []core.Post) string {
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, p := range posts {
		counts[p.Category]++
		if n := counts[p.Category]; n > bestN {
			best, bestN = p.Category, n
		}
	}
	return best
}
