package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"postmill/internal/config"
	"postmill/internal/logger"
	"postmill/internal/observability"
	"postmill/internal/pipeline"
	"postmill/internal/scheduler"
	"postmill/internal/server"
)

// Scheduled job names.
const (
	jobGenerate = "generate"
	jobRelink   = "relink"
)

// NewServeCmd creates the serve command for starting the scheduler and the
// HTTP control surface
func NewServeCmd() *cobra.Command {
	var (
		port        int
		host        string
		noScheduler bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the generation scheduler and HTTP control API",
		Long: `Start postmill as a long-running service.

The service provides:
  • A cron scheduler that generates one post per tick
  • A weekly relink job that refreshes in-body links across the corpus
  • A control API to trigger runs and manage jobs
  • A read-only post feed for the rendering layer

Examples:
  # Start with defaults (port 8080, daily generation at 06:00 UTC)
  postmill serve

  # Start on a custom port without the scheduler
  postmill serve --port 3000 --no-scheduler`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host, noScheduler)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Disable scheduled jobs")

	return cmd
}

func runServe(ctx context.Context, port int, host string, noScheduler bool) error {
	log := logger.Get()
	cfg := config.Get()

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("Corpus loaded", "posts", a.corpus.Len(), "next_slug", a.corpus.NextSlug(), "driver", a.records.Driver())

	tracker, err := observability.NewPostHogClient(cfg.PostHog)
	if err != nil {
		return fmt.Errorf("failed to initialize analytics: %w", err)
	}
	defer func() {
		if err := tracker.Shutdown(context.Background()); err != nil {
			log.Warn("Failed to flush analytics", "error", err)
		}
	}()

	p, err := a.newPipeline(tracker)
	if err != nil {
		return err
	}

	var jobs server.JobScheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && !noScheduler {
		sched, err = newScheduler(cfg.Scheduler, p, tracker)
		if err != nil {
			return err
		}
		jobs = sched
		if cfg.Scheduler.AutoStart {
			sched.Start()
		}
	}

	srv := server.New(serverCfg, a.corpus, p, jobs)

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()

		if sched != nil {
			select {
			case <-sched.Stop().Done():
			case <-shutdownCtx.Done():
				log.Warn("Scheduled run still active at shutdown")
			}
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed, forcing close", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		log.Info("Server stopped successfully")
	}

	return nil
}

// newScheduler registers the generation and relink jobs.
func newScheduler(cfg config.Scheduler, p *pipeline.Pipeline, tracker scheduler.EventTracker) (*scheduler.Scheduler, error) {
	sched, err := scheduler.NewScheduler(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	sched.WithTracker(tracker)

	if err := sched.Register(jobGenerate, cfg.GenerateSpec, func(ctx context.Context) error {
		_, err := p.TryGenerate(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	if cfg.RelinkSpec != "" {
		if err := sched.Register(jobRelink, cfg.RelinkSpec, func(ctx context.Context) error {
			_, err := p.Relink(ctx)
			return err
		}); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
