// Package scheduler runs named jobs on cron schedules with a per-job
// in-flight guard.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"postmill/internal/logger"
)

var (
	// ErrUnknownJob is returned for a job name that was never registered.
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobRunning is returned when a job is triggered while its previous
	// run is still active.
	ErrJobRunning = errors.New("job already running")
)

// EventJobRun is reported to the tracker after every run.
const EventJobRun = "scheduler_job_run"

// JobFunc is the work a job performs.
type JobFunc func(ctx context.Context) error

// EventTracker receives job run events.
type EventTracker interface {
	IsEnabled() bool
	TrackEvent(ctx context.Context, event string, properties map[string]interface{}) error
}

// JobInfo is a snapshot of a registered job.
type JobInfo struct {
	Name      string        `json:"name"`
	Spec      string        `json:"spec"`
	Enabled   bool          `json:"enabled"`
	Running   bool          `json:"running"`
	Runs      int           `json:"runs"`
	Skipped   int           `json:"skipped"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Duration  time.Duration `json:"last_duration"`
	Next      time.Time     `json:"next,omitempty"`
}

type job struct {
	name    string
	spec    string
	fn      JobFunc
	entryID cron.EntryID
	enabled bool
	running bool

	runs     int
	skipped  int
	lastRun  time.Time
	lastErr  error
	duration time.Duration
}

// Scheduler manages cron-based job scheduling with timezone support.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	tracker  EventTracker
	log      *slog.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	started bool
}

// NewScheduler creates a new scheduler for the given timezone.
func NewScheduler(timezone string) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	log := logger.Get().With("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		location: loc,
		log:      log,
		jobs:     make(map[string]*job),
	}, nil
}

// WithTracker reports every run to tracker.
func (s *Scheduler) WithTracker(tracker EventTracker) *Scheduler {
	s.tracker = tracker
	return s
}

// Location returns the scheduler's time zone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Register adds an enabled job that fires on spec (standard five-field cron
// syntax or a descriptor such as @hourly).
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	if err := s.schedule(j); err != nil {
		return err
	}
	s.jobs[name] = j
	return nil
}

// schedule adds j to cron. Callers hold mu.
func (s *Scheduler) schedule(j *job) error {
	id, err := s.cron.AddFunc(j.spec, func() {
		if err := s.execute(context.Background(), j.name); err != nil && !errors.Is(err, ErrJobRunning) {
			s.log.Warn("scheduled job failed", "job", j.name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	j.entryID = id
	j.enabled = true
	return nil
}

// Enable resumes scheduled runs of a job.
func (s *Scheduler) Enable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.enabled {
		return nil
	}
	if err := s.schedule(j); err != nil {
		return err
	}
	s.log.Info("job enabled", "job", name)
	return nil
}

// Disable stops scheduled runs of a job. A run in progress finishes and
// manual runs stay possible.
func (s *Scheduler) Disable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !j.enabled {
		return nil
	}
	s.cron.Remove(j.entryID)
	j.entryID = 0
	j.enabled = false
	s.log.Info("job disabled", "job", name)
	return nil
}

// Run executes a job now and waits for it. It returns ErrJobRunning when
// the job is already in flight.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	return s.execute(ctx, name)
}

func (s *Scheduler) execute(ctx context.Context, name string) (err error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.running {
		j.skipped++
		s.mu.Unlock()
		s.log.Info("skipping job, previous run still active", "job", name)
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	j.running = true
	fn := j.fn
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}

		elapsed := time.Since(start)
		s.mu.Lock()
		j.running = false
		j.runs++
		j.lastRun = start
		j.lastErr = err
		j.duration = elapsed
		s.mu.Unlock()

		s.log.Info("job finished", "job", name, "duration", elapsed, "error", err)
		s.track(ctx, name, elapsed, err)
	}()

	return fn(ctx)
}

func (s *Scheduler) track(ctx context.Context, name string, elapsed time.Duration, runErr error) {
	if s.tracker == nil || !s.tracker.IsEnabled() {
		return
	}
	props := map[string]interface{}{
		"job":         name,
		"duration_ms": elapsed.Milliseconds(),
		"success":     runErr == nil,
	}
	if runErr != nil {
		props["error"] = runErr.Error()
	}
	if err := s.tracker.TrackEvent(context.WithoutCancel(ctx), EventJobRun, props); err != nil {
		s.log.Warn("failed to track job run", "job", name, "error", err)
	}
}

// List returns every registered job ordered by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:     j.name,
			Spec:     j.spec,
			Enabled:  j.enabled,
			Running:  j.running,
			Runs:     j.runs,
			Skipped:  j.skipped,
			LastRun:  j.lastRun,
			Duration: j.duration,
		}
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		if j.enabled && s.started {
			info.Next = s.cron.Entry(j.entryID).Next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
		s.log.Info("scheduler started", "jobs", len(s.jobs), "timezone", s.location.String())
	}
}

// Stop halts the scheduler. The returned context is done once scheduled
// runs in progress have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.started = false
	s.log.Info("scheduler stopped")
	return s.cron.Stop()
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
