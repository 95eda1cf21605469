package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postmill/internal/observability"
	"postmill/internal/pipeline"
)

// NewGenerateCmd creates the generate command for one-off runs
func NewGenerateCmd() *cobra.Command {
	var (
		count  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and publish posts now",
		Long: `Run the generation pipeline immediately.

Each run picks the next unused catalog topic, drafts a lesson, checks it
against the corpus for near-duplicates, classifies it, inserts links and
publishes it. Runs stop early once every topic has a post.

Examples:
  postmill generate
  postmill generate --count 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			tracker, err := observability.NewPostHogClient(a.cfg.PostHog)
			if err != nil {
				return fmt.Errorf("failed to initialize analytics: %w", err)
			}
			defer tracker.Shutdown(cmd.Context())

			p, err := a.newPipeline(tracker)
			if err != nil {
				return err
			}

			var results []*pipeline.Result
			for i := 0; i < count; i++ {
				res, err := p.Generate(cmd.Context())
				if errors.Is(err, pipeline.ErrNoTopicsAvailable) {
					fmt.Fprintln(os.Stderr, warnStyle.Render("No unused topics remain; nothing to generate."))
					break
				}
				if err != nil {
					return err
				}
				results = append(results, res)
				if !asJSON {
					fmt.Println(renderResult(res))
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of posts to generate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func renderResult(res *pipeline.Result) string {
	status := okStyle.Render("unique")
	switch {
	case res.Mutated:
		status = warnStyle.Render("accepted after rewrite")
	case res.Regenerated:
		status = okStyle.Render("unique after regeneration")
	}

	stages := make([]string, len(res.Stages))
	for i, s := range res.Stages {
		stages[i] = string(s)
	}

	return box(fmt.Sprintf("#%d %s", res.Post.Slug, res.Post.Title),
		field("Category", res.Post.Category),
		field("Tags", strings.Join(res.Post.Tags, ", ")),
		field("Similarity", fmt.Sprintf("%.2f (first draft %.2f) %s", res.Score, res.InitialScore, status)),
		field("Related", len(res.Post.RelatedPostIDs)),
		field("Links", res.Links),
		field("Backlinks", res.Backlinks),
		field("Stages", strings.Join(stages, " → ")),
		field("Took", res.Duration.Round(time.Millisecond)),
	)
}
