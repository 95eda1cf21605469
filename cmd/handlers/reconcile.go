package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReconcileCmd creates the reconcile command
func NewReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair and verify corpus state",
		Long: `Load the corpus, repairing the post index, slug counter and
used-topic set from the stored post records, then verify the corpus
invariants.

Loading always repairs; this command reports what was changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rep := a.report
			state := okStyle.Render("clean")
			if rep.Repaired {
				state = warnStyle.Render("repaired")
			}
			location := a.records.Path()
			if location == "" {
				location = "postgres"
			}
			fmt.Println(box("Corpus "+state,
				field("Store", location),
				field("Posts", rep.Posts),
				field("Adopted", rep.Adopted),
				field("Dangling", rep.Dangling),
				field("Counter", fmt.Sprintf("%d → %d", rep.CounterBefore, rep.CounterAfter)),
				field("Topics", fmt.Sprintf("%d used (derived: %v)", len(a.corpus.UsedTopics()), rep.DerivedTopics)),
			))

			if err := a.corpus.Check(); err != nil {
				fmt.Println(errStyle.Render("Consistency check failed"))
				return err
			}
			fmt.Println(okStyle.Render("Consistency check passed"))
			return nil
		},
	}
}
