package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"postmill/internal/core"
	"postmill/internal/relevance"
	"postmill/internal/store"
)

// PostListResponse is returned by GET /api/posts
type PostListResponse struct {
	Posts []core.PostSummary `json:"posts"`
	Total int                `json:"total"`
}

// RelatedResponse is returned by GET /api/posts/{slug}/related
type RelatedResponse struct {
	Post    core.PostSummary   `json:"post"`
	Related []core.PostSummary `json:"related"`
}

// ClusterResponse is returned by GET /api/clusters
type ClusterResponse struct {
	Communities []relevance.Community `json:"communities"`
	Modularity  float64               `json:"modularity"`
	Edges       int                   `json:"edges"`
}

// handleListPosts handles GET /api/posts. Optional category and tag query
// parameters filter the list; newest posts come first.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	tag := r.URL.Query().Get("tag")
	featured := r.URL.Query().Get("featured") == "true"

	posts := s.corpus.Posts()
	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug > posts[j].Slug })

	out := make([]core.PostSummary, 0, len(posts))
	for _, p := range posts {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		if featured && !p.Featured {
			continue
		}
		out = append(out, p.Summary())
	}

	s.respondJSON(w, http.StatusOK, PostListResponse{Posts: out, Total: len(out)})
}

// handleGetPost handles GET /api/posts/{slug}
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}

// handleRelatedPosts handles GET /api/posts/{slug}/related
func (s *Server) handleRelatedPosts(w http.ResponseWriter, r *http.Request) {
	post, ok := s.postFromPath(w, r)
	if !ok {
		return
	}

	related := make([]core.PostSummary, 0, len(post.RelatedPostIDs))
	for _, id := range post.RelatedPostIDs {
		if p, found := s.corpus.Get(id); found {
			related = append(related, p.Summary())
		}
	}
	s.respondJSON(w, http.StatusOK, RelatedResponse{Post: post.Summary(), Related: related})
}

// handleClusters handles GET /api/clusters
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	resolution := 1.0
	if v := r.URL.Query().Get("resolution"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.respondError(w, http.StatusBadRequest, "resolution must be a positive number")
			return
		}
		resolution = f
	}

	g := relevance.BuildGraph(s.corpus.Posts(), relevance.RelatedThreshold)
	communities, q := g.Communities(resolution)
	s.respondJSON(w, http.StatusOK, ClusterResponse{
		Communities: communities,
		Modularity:  q,
		Edges:       g.EdgeCount(),
	})
}

func (s *Server) postFromPath(w http.ResponseWriter, r *http.Request) (core.Post, bool) {
	slug, err := strconv.Atoi(chi.URLParam(r, "slug"))
	if err != nil || slug < 1 {
		s.respondError(w, http.StatusBadRequest, "slug must be a positive integer")
		return core.Post{}, false
	}

	post, err := s.corpus.BySlug(slug)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "post not found")
		return core.Post{}, false
	}
	if err != nil {
		s.log.Error("failed to load post", "slug", slug, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return core.Post{}, false
	}
	return post, true
}

func hasTag(p core.Post, tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
