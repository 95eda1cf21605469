package handlers

import (
	"context"
	"testing"

	"postmill/internal/config"
	"postmill/internal/store"
	"postmill/internal/topics"
)

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCmd()
	want := []string{"serve", "generate", "posts", "topics", "reconcile", "clusters", "check"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("POSTMILL_STORE_PATH", dir)
	t.Setenv("POSTMILL_GENERATION_SEED", "11")
	config.Reset()
	t.Cleanup(config.Reset)

	root := NewRootCmd()
	root.SetArgs([]string{"generate", "--count", "2"})
	if err := root.Execute(); err != nil {
		t.Fatalf("generate: %v", err)
	}

	s, err := store.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	c := store.NewCorpus(s)
	rep, err := c.Load(context.Background(), topics.DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Posts != 2 || rep.Repaired || c.NextSlug() != 3 {
		t.Errorf("report = %+v, next slug %d", rep, c.NextSlug())
	}
}
