package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"postmill/internal/topics"
)

// NewTopicsCmd creates the topics command
func NewTopicsCmd() *cobra.Command {
	var remaining bool

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List catalog topics and whether they have been written",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			pool, err := topics.NewPool(a.catalog)
			if err != nil {
				return err
			}
			used := a.corpus.UsedTopics()
			left := pool.Remaining(used)

			fmt.Println(titleStyle.Render(fmt.Sprintf("%d topics, %d remaining", pool.Len(), len(left))))
			list := pool.Topics()
			if remaining {
				list = left
			}
			for _, t := range list {
				mark := okStyle.Render("open")
				if used[t.ID] {
					mark = dimStyle.Render("used")
				}
				fmt.Printf("  %s  %-28s %-36s %s\n", mark, t.ID, t.Title, dimStyle.Render(fmt.Sprintf("%s/%s", t.Category, t.Difficulty)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remaining, "remaining", false, "Only show topics without a post")
	return cmd
}
