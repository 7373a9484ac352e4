// integration_test.go
//
// An end-to-end pass over the registry, reconciler, and tree packages
// together, standing in for a caller driving several parents' worth of
// children through repeated reconciliation.
package chunktree_test

import (
	"fmt"
	"testing"

	"chunktree/pkg/ctree"
	"chunktree/pkg/reconciler"
	"chunktree/pkg/registry"
)

func keyOf(s string) ctree.Key { return ctree.Key(s) }

func TestRegistryDrivesIndependentTreesPerParent(t *testing.T) {
	reg := registry.New[string, string]()

	inserted := map[string][]string{}
	recon := func(parent string, children []string) {
		reg.GetTreeFor(parent, &registry.Reconcile[string]{
			Resolve: keyOf,
			Options: reconciler.Options[string]{
				Children:  children,
				ChunkSize: 3,
				Debug:     true,
				Callbacks: reconciler.Callbacks[string]{
					OnInsert: func(item string, idx int) {
						inserted[parent] = append(inserted[parent], item)
					},
				},
			},
		})
	}

	recon("folder-a", []string{"a1", "a2", "a3"})
	recon("folder-b", []string{"b1", "b2"})

	treeA, ok := reg.Peek("folder-a")
	if !ok {
		t.Fatalf("expected folder-a to be registered")
	}
	treeB, ok := reg.Peek("folder-b")
	if !ok {
		t.Fatalf("expected folder-b to be registered")
	}

	if got, want := ctree.CollectLeaves(treeA), []string{"a1", "a2", "a3"}; !equal(got, want) {
		t.Fatalf("folder-a leaves = %v, want %v", got, want)
	}
	if got, want := ctree.CollectLeaves(treeB), []string{"b1", "b2"}; !equal(got, want) {
		t.Fatalf("folder-b leaves = %v, want %v", got, want)
	}

	// Reconciling one parent again must never touch the other's tree.
	recon("folder-a", []string{"a1", "a2", "a3", "a4"})
	if got, want := ctree.CollectLeaves(treeB), []string{"b1", "b2"}; !equal(got, want) {
		t.Fatalf("folder-b leaves changed after reconciling folder-a: got %v, want %v", got, want)
	}
	if got, want := ctree.CollectLeaves(treeA), []string{"a1", "a2", "a3", "a4"}; !equal(got, want) {
		t.Fatalf("folder-a leaves = %v, want %v", got, want)
	}

	reg.Release("folder-b")
	if _, ok := reg.Peek("folder-b"); ok {
		t.Fatalf("expected folder-b to be released")
	}
	if reg.Len() != 1 {
		t.Fatalf("registry.Len() = %d, want 1", reg.Len())
	}
}

// TestLargeSequenceSurvivesManyShuffles drives a few hundred items
// through a long run of random-looking (but deterministic) edits and
// checks the tree stays internally consistent and in the exact order
// requested after every step.
func TestLargeSequenceSurvivesManyShuffles(t *testing.T) {
	const n = 300
	seq := make([]string, n)
	for i := range seq {
		seq[i] = fmt.Sprintf("row-%d", i)
	}

	tree := ctree.NewTree[string]()
	reconciler.Reconcile(tree, keyOf, reconciler.Options[string]{Children: seq, ChunkSize: 8, Debug: true})

	cur := append([]string{}, seq...)
	for step := 0; step < 40; step++ {
		i := (step * 7) % len(cur)
		j := (step*7 + 13) % len(cur)
		cur[i], cur[j] = cur[j], cur[i]

		reconciler.Reconcile(tree, keyOf, reconciler.Options[string]{Children: cur, ChunkSize: 8, Debug: true})
		if got := ctree.CollectLeaves(tree); !equal(got, cur) {
			t.Fatalf("step %d: leaves = %v, want %v", step, got, cur)
		}
		if err := ctree.ValidateState(tree, 8); err != nil {
			t.Fatalf("step %d: invalid tree state: %v", step, err)
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
