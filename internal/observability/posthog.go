// Package observability reports generation outcomes to PostHog.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/posthog/posthog-go"

	"postmill/internal/config"
	"postmill/internal/logger"
)

// systemID is the distinct id used for events raised by the pipeline itself.
const systemID = "postmill"

// EventProperties contains properties for an event
type EventProperties map[string]interface{}

// PostHogClient wraps the PostHog SDK for product analytics
type PostHogClient struct {
	client  posthog.Client
	enabled bool
	log     *slog.Logger
}

// NewPostHogClient creates a client from cfg. A disabled config yields a
// client whose calls are no-ops.
func NewPostHogClient(cfg config.PostHog) (*PostHogClient, error) {
	if !cfg.Enabled {
		return &PostHogClient{enabled: false, log: logger.Get()}, nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PostHog enabled but missing API key")
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &PostHogClient{
		client:  client,
		enabled: true,
		log:     logger.Get(),
	}, nil
}

// IsEnabled returns whether PostHog tracking is enabled
func (p *PostHogClient) IsEnabled() bool {
	return p != nil && p.enabled
}

// TrackEvent enqueues a system event with properties.
func (p *PostHogClient) TrackEvent(ctx context.Context, event string, properties map[string]interface{}) error {
	return p.Capture(ctx, systemID, event, properties)
}

// Capture sends an event to PostHog
func (p *PostHogClient) Capture(ctx context.Context, distinctID string, event string, properties EventProperties) error {
	if !p.IsEnabled() {
		return nil
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	if err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		p.log.Warn("posthog enqueue failed", "event", event, "error", err)
		return err
	}
	return nil
}

// Shutdown flushes pending events and closes the client.
func (p *PostHogClient) Shutdown(ctx context.Context) error {
	if !p.IsEnabled() {
		return nil
	}

	return p.client.Close()
}
