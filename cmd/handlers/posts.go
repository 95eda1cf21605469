package handlers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"postmill/internal/relevance"
)

// NewPostsCmd creates the posts command group
func NewPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect published posts",
	}
	cmd.AddCommand(newPostsListCmd(), newPostsShowCmd(), newPostsRelatedCmd())
	return cmd
}

func newPostsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			posts := a.corpus.Posts()
			sort.Slice(posts, func(i, j int) bool { return posts[i].Slug > posts[j].Slug })

			fmt.Println(titleStyle.Render(fmt.Sprintf("%d posts", len(posts))))
			for _, p := range posts {
				if category != "" && !strings.EqualFold(p.Category, category) {
					continue
				}
				fmt.Printf("%4d  %-40s %s\n", p.Slug, p.Title, dimStyle.Render(p.Category))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show posts in this category")
	return cmd
}

func newPostsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a post with its body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slug must be a number: %w", err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.corpus.BySlug(slug)
			if err != nil {
				return fmt.Errorf("post %d: %w", slug, err)
			}

			fmt.Println(box(fmt.Sprintf("#%d %s", p.Slug, p.Title),
				field("ID", p.ID),
				field("URL", p.URL()),
				field("Category", p.Category),
				field("Tags", strings.Join(p.Tags, ", ")),
				field("Keywords", strings.Join(p.Keywords, ", ")),
				field("Related", len(p.RelatedPostIDs)),
				field("Created", p.CreatedAt.Format("2006-01-02 15:04")),
				field("Updated", p.UpdatedAt.Format("2006-01-02 15:04")),
			))
			fmt.Println()
			fmt.Println(p.Excerpt)
			fmt.Println()
			fmt.Println(p.Body)
			return nil
		},
	}
}

func newPostsRelatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related <slug>",
		Short: "Show stored related posts and current relevance scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slug must be a number: %w", err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.corpus.BySlug(slug)
			if err != nil {
				return fmt.Errorf("post %d: %w", slug, err)
			}

			fmt.Println(titleStyle.Render("Stored related posts"))
			for _, id := range p.RelatedPostIDs {
				if r, ok := a.corpus.Get(id); ok {
					fmt.Printf("  #%-4d %s\n", r.Slug, r.Title)
				} else {
					fmt.Printf("  %s %s\n", errStyle.Render("missing"), id)
				}
			}

			corpus := a.corpus.Posts()
			fmt.Println(titleStyle.Render("Current relevance"))
			for _, e := range relevance.RelatedPosts(p.ID, corpus) {
				r, _ := a.corpus.Get(e.To)
				fmt.Printf("  #%-4d %-40s %.2f %s\n", r.Slug, r.Title, e.Score, dimStyle.Render(string(e.Relationship)))
			}

			fmt.Println(titleStyle.Render("Link suggestions"))
			for _, s := range relevance.LinkSuggestions(p.ID, corpus) {
				fmt.Printf("  %s\n    %s\n", s.Markdown(), dimStyle.Render(s.Sentence))
			}
			return nil
		},
	}
}
