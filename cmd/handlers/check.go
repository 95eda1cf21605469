package handlers

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"postmill/internal/classify"
	"postmill/internal/similarity"
)

// NewCheckCmd creates the check command for reviewing a hand-written draft
func NewCheckCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check a draft for near-duplicates and preview its classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read draft: %w", err)
			}
			body := string(data)

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			verdict := similarity.ValidateUniqueness(body, title, a.corpus.Posts())
			result := classify.Classify(title, body)

			state := okStyle.Render("unique")
			if !verdict.Unique {
				state = errStyle.Render("too similar")
			}
			lines := []string{
				field("Similarity", fmt.Sprintf("%.2f %s", verdict.Score, state)),
				field("Category", fmt.Sprintf("%s (%.2f)", result.Category, result.Confidence)),
				field("Tags", strings.Join(result.Tags, ", ")),
			}
			if verdict.MostSimilarID != "" {
				if p, ok := a.corpus.Get(verdict.MostSimilarID); ok {
					lines = append(lines, field("Closest", fmt.Sprintf("#%d %s", p.Slug, p.Title)))
				}
			}
			fmt.Println(box("Draft review", lines...))

			for _, r := range verdict.Recommendations {
				fmt.Println(" • " + r)
			}
			if segs := verdict.Segments(); len(segs) > 0 {
				fmt.Println(titleStyle.Render(fmt.Sprintf("%d duplicate segments", len(segs))))
				for _, s := range segs {
					fmt.Println(dimStyle.Render("  " + s))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the draft")
	return cmd
}
