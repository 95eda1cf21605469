package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"postmill/internal/core"
	"postmill/internal/pipeline"
	"postmill/internal/scheduler"
)

// APIResponse is the envelope for control routes.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Post    *core.PostSummary `json:"post,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Uptime     string              `json:"uptime"`
	Posts      int                 `json:"posts"`
	NextSlug   int                 `json:"next_slug"`
	UsedTopics int                 `json:"used_topics"`
	Generating bool                `json:"generating"`
	Scheduler  bool                `json:"scheduler_running"`
	Jobs       []scheduler.JobInfo `json:"jobs"`
}

// GenerationDetails accompanies a successful generate response.
type GenerationDetails struct {
	Topic        string           `json:"topic"`
	Score        float64          `json:"score"`
	InitialScore float64          `json:"initial_score"`
	Regenerated  bool             `json:"regenerated"`
	Mutated      bool             `json:"mutated"`
	Backlinks    int              `json:"backlinks"`
	Stages       []pipeline.Stage `json:"stages"`
	Duration     string           `json:"duration"`
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := s.corpus.Check(); err != nil {
		s.log.Error("corpus consistency check failed", "error", err)
		checks["corpus"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}

	checks["corpus"] = "ok"
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Checks: checks,
	})
}

// handleStatus handles the /api/status endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusResponse{
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Posts:      s.corpus.Len(),
		NextSlug:   s.corpus.NextSlug(),
		UsedTopics: len(s.corpus.UsedTopics()),
		Generating: s.generator.Running(),
	}
	if s.scheduler != nil {
		status.Scheduler = s.scheduler.Running()
		status.Jobs = s.scheduler.List()
	}
	s.respondJSON(w, http.StatusOK, status)
}

// handleGenerate handles POST /api/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// A dropped client must not cancel a run between publish and backlinks.
	res, err := s.generator.TryGenerate(context.WithoutCancel(r.Context()))
	if err != nil {
		s.respondGenerationError(w, err)
		return
	}

	summary := res.Post.Summary()
	s.respondJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("published post %d", res.Post.Slug),
		Post:    &summary,
		Data: GenerationDetails{
			Topic:        res.Topic.ID,
			Score:        res.Score,
			InitialScore: res.InitialScore,
			Regenerated:  res.Regenerated,
			Mutated:      res.Mutated,
			Backlinks:    res.Backlinks,
			Stages:       res.Stages,
			Duration:     res.Duration.String(),
		},
	})
}

// respondGenerationError maps pipeline outcomes to responses. Declined runs
// are not failures.
func (s *Server) respondGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoTopicsAvailable), errors.Is(err, pipeline.ErrNotUnique):
		s.respondJSON(w, http.StatusOK, APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, pipeline.ErrRunInProgress), errors.Is(err, scheduler.ErrJobRunning):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.log.Error("generation failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleSchedulerStart handles POST /api/scheduler/start
func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireScheduler(w) {
		return
	}
	s.scheduler.Start()
	s.respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: "scheduler started"})
}

// handleSchedulerStop handles POST /api/scheduler/stop
func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireScheduler(w) {
		return
	}
	s.scheduler.Stop()
	s.respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: "scheduler stopped"})
}

// handleListJobs handles GET /api/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []scheduler.JobInfo
	if s.scheduler != nil {
		jobs = s.scheduler.List()
	}
	s.respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: fmt.Sprintf("%d jobs", len(jobs)), Data: jobs})
}

func (s *Server) handleEnableJob(w http.ResponseWriter, r *http.Request) {
	if !s.requireScheduler(w) {
		return
	}
	s.jobAction(w, r, "enabled", s.scheduler.Enable)
}

func (s *Server) handleDisableJob(w http.ResponseWriter, r *http.Request) {
	if !s.requireScheduler(w) {
		return
	}
	s.jobAction(w, r, "disabled", s.scheduler.Disable)
}

func (s *Server) jobAction(w http.ResponseWriter, r *http.Request, verb string, action func(string) error) {
	name := chi.URLParam(r, "name")
	if err := action(name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: fmt.Sprintf("job %s %s", name, verb)})
}

// handleRunJob handles POST /api/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if !s.requireScheduler(w) {
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.scheduler.Run(context.WithoutCancel(r.Context()), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondGenerationError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: fmt.Sprintf("job %s completed", name)})
}

func (s *Server) requireScheduler(w http.ResponseWriter) bool {
	if s.scheduler == nil {
		s.respondError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return false
	}
	return true
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes a failed APIResponse
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, APIResponse{Success: false, Message: message})
}
