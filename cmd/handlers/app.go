package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postmill/internal/config"
	"postmill/internal/core"
	"postmill/internal/logger"
	"postmill/internal/pipeline"
	"postmill/internal/store"
	"postmill/internal/topics"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func field(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func box(title string, lines ...string) string {
	return boxStyle.Render(titleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

// app bundles the loaded corpus and its backing store for one command.
type app struct {
	cfg     *config.Config
	records *store.SQLStore
	corpus  *store.Corpus
	catalog []core.Topic
	report  store.Report
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Get()

	catalog, err := loadCatalog(cfg.Topics)
	if err != nil {
		return nil, err
	}

	records, err := store.Open(cfg.Store.Driver, cfg.Store.Path, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Store.StoreTimeout())
	defer cancel()

	corpus := store.NewCorpus(records)
	report, err := corpus.Load(loadCtx, catalog)
	if err != nil {
		records.Close()
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	if report.Repaired {
		logger.Warn("corpus state repaired on load",
			"adopted", report.Adopted, "dangling", report.Dangling,
			"counter_before", report.CounterBefore, "counter_after", report.CounterAfter)
	}

	return &app{cfg: cfg, records: records, corpus: corpus, catalog: catalog, report: report}, nil
}

func (a *app) Close() error {
	return a.records.Close()
}

func (a *app) newPipeline(tracker pipeline.EventTracker) (*pipeline.Pipeline, error) {
	gen := a.cfg.Generation
	return pipeline.NewBuilder().
		WithCatalog(a.catalog).
		WithSeed(gen.Seed).
		WithTracker(tracker).
		WithConfig(&pipeline.Config{
			StrictUniqueness: gen.StrictUniqueness,
			Featured:         gen.Featured,
			Timeout:          gen.RunTimeout(),
		}).
		Build(a.corpus)
}

func loadCatalog(cfg config.Topics) ([]core.Topic, error) {
	if cfg.CatalogFile == "" {
		return topics.DefaultCatalog(), nil
	}
	catalog, err := topics.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic catalog: %w", err)
	}
	return catalog, nil
}
