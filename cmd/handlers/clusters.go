package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"postmill/internal/relevance"
)

// NewClustersCmd creates the clusters command
func NewClustersCmd() *cobra.Command {
	var (
		resolution float64
		minScore   float64
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group posts into communities of the relevance graph",
		Long: `Build the relevance graph of the corpus and partition it with Louvain
modularity optimisation. Useful for spotting thin categories and posts that
nothing links to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			g := relevance.BuildGraph(a.corpus.Posts(), minScore)
			communities, q := g.Communities(resolution)

			fmt.Println(titleStyle.Render(fmt.Sprintf("%d communities, %d edges, modularity %.3f",
				len(communities), g.EdgeCount(), q)))
			for i, c := range communities {
				fmt.Printf("%2d. %s %s\n", i+1, c.Label, dimStyle.Render(fmt.Sprintf("(%d posts)", len(c.PostIDs))))
				for _, id := range c.PostIDs {
					if p, ok := a.corpus.Get(id); ok {
						fmt.Printf("      #%-4d %s\n", p.Slug, p.Title)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&resolution, "resolution", 1.0, "Louvain resolution; higher values give smaller communities")
	cmd.Flags().Float64Var(&minScore, "min-score", relevance.RelatedThreshold, "Minimum relevance score for an edge")
	return cmd
}
