package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// TemplateLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateLoader.
// want maps each dialogue the loader must serve to its number of static resources.
func TemplateLoaderContractTest(t *testing.T, loader ports.TemplateLoader, want map[string]int) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for name, count := range want {
			tmpl, err := loader.Load(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error loading %s: %v", name, err)
			}
			if tmpl.Name != name {
				t.Errorf("name mismatch: got %q, want %q", tmpl.Name, name)
			}
			if len(tmpl.Resources) != count {
				t.Errorf("%s: got %d resources, want %d", name, len(tmpl.Resources), count)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-dialogue")
		if !errors.Is(err, domain.ErrDialogueNotFound) {
			t.Errorf("expected ErrDialogueNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing dialogues: %v", err)
		}
		if len(names) != len(want) {
			t.Errorf("expected %d dialogues, got %d", len(want), len(names))
		}
		lookup := make(map[string]bool)
		for _, n := range names {
			lookup[n] = true
		}
		for name := range want {
			if !lookup[name] {
				t.Errorf("dialogue %s missing from list", name)
			}
		}
	})
}
