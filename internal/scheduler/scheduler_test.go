package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler("UTC")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	t.Cleanup(func() { <-s.Stop().Done() })
	return s
}

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler("America/New_York")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	if s.Location().String() != "America/New_York" {
		t.Errorf("location = %q, want 'America/New_York'", s.Location().String())
	}

	if _, err := NewScheduler("Invalid/Zone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name    string
		job     string
		spec    string
		wantErr bool
	}{
		{"standard spec", "generate", "0 9 * * *", false},
		{"descriptor", "rescan", "@hourly", false},
		{"duplicate", "generate", "@daily", true},
		{"empty name", "", "@daily", true},
		{"bad spec", "broken", "every day", true},
		{"seconds field rejected", "precise", "0 0 9 * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(tt.job, tt.spec, noop)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register(%q, %q) error = %v, wantErr %v", tt.job, tt.spec, err, tt.wantErr)
			}
		})
	}

	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("expected 2 cron entries, got %d", got)
	}
}

func TestRunRecordsOutcome(t *testing.T) {
	s := newTestScheduler(t)
	calls := 0
	_ = s.Register("ok", "@daily", func(context.Context) error { calls++; return nil })
	_ = s.Register("bad", "@daily", func(context.Context) error { return errors.New("boom") })
	_ = s.Register("panics", "@daily", func(context.Context) error { panic("oops") })

	if err := s.Run(context.Background(), "ok"); err != nil {
		t.Fatalf("Run ok: %v", err)
	}
	if err := s.Run(context.Background(), "bad"); err == nil {
		t.Fatal("expected job error")
	}
	if err := s.Run(context.Background(), "panics"); err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("panic should surface as error, got %v", err)
	}
	if err := s.Run(context.Background(), "missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Run missing = %v, want ErrUnknownJob", err)
	}

	jobs := s.List()
	if len(jobs) != 3 || jobs[0].Name != "bad" || jobs[1].Name != "ok" {
		t.Fatalf("List = %+v", jobs)
	}
	if calls != 1 || jobs[1].Runs != 1 || jobs[1].LastRun.IsZero() || jobs[1].LastError != "" {
		t.Errorf("ok job = %+v", jobs[1])
	}
	if jobs[0].LastError != "boom" {
		t.Errorf("bad job LastError = %q", jobs[0].LastError)
	}
}

func TestRunSkipsWhileInFlight(t *testing.T) {
	s := newTestScheduler(t)
	started := make(chan struct{})
	release := make(chan struct{})
	_ = s.Register("slow", "@daily", func(context.Context) error {
		close(started)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Run(context.Background(), "slow")
	}()
	<-started

	if err := s.Run(context.Background(), "slow"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("second Run = %v, want ErrJobRunning", err)
	}
	if info := s.List()[0]; !info.Running || info.Skipped != 1 {
		t.Errorf("in-flight info = %+v", info)
	}

	close(release)
	wg.Wait()
	if info := s.List()[0]; info.Running || info.Runs != 1 {
		t.Errorf("finished info = %+v", info)
	}
}

func TestEnableDisable(t *testing.T) {
	s := newTestScheduler(t)
	_ = s.Register("generate", "@daily", func(context.Context) error { return nil })

	if err := s.Disable("generate"); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if len(s.cron.Entries()) != 0 || s.List()[0].Enabled {
		t.Error("disabled job should have no cron entry")
	}
	if err := s.Run(context.Background(), "generate"); err != nil {
		t.Errorf("manual run of disabled job: %v", err)
	}

	if err := s.Enable("generate"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.Enable("generate"); err != nil {
		t.Fatalf("Enable twice: %v", err)
	}
	if len(s.cron.Entries()) != 1 || !s.List()[0].Enabled {
		t.Error("enabled job should have exactly one cron entry")
	}

	if err := s.Disable("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Disable unknown = %v", err)
	}
	if err := s.Enable("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Enable unknown = %v", err)
	}
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t)
	_ = s.Register("generate", "@daily", func(context.Context) error { return nil })

	if s.Running() {
		t.Fatal("new scheduler should not be running")
	}
	s.Start()
	s.Start()
	if !s.Running() {
		t.Fatal("scheduler should be running")
	}
	if next := s.List()[0].Next; next.Before(time.Now()) {
		t.Errorf("next run %v should be in the future", next)
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not finish")
	}
	if s.Running() {
		t.Error("scheduler should be stopped")
	}
}

type countingTracker struct {
	mu    sync.Mutex
	props []map[string]interface{}
}

func (c *countingTracker) IsEnabled() bool { return true }

func (c *countingTracker) TrackEvent(_ context.Context, event string, props map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event == EventJobRun {
		c.props = append(c.props, props)
	}
	return nil
}

func TestTrackerReceivesRuns(t *testing.T) {
	tracker := &countingTracker{}
	s := newTestScheduler(t).WithTracker(tracker)
	_ = s.Register("generate", "@daily", func(context.Context) error { return errors.New("declined") })

	_ = s.Run(context.Background(), "generate")

	if len(tracker.props) != 1 {
		t.Fatalf("tracked %d runs, want 1", len(tracker.props))
	}
	if tracker.props[0]["success"] != false || tracker.props[0]["job"] != "generate" {
		t.Errorf("props = %v", tracker.props[0])
	}
}
