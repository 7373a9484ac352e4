package debugdump

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chunktree/pkg/ctree"
	"chunktree/pkg/reconciler"
)

func TestDumpAppendsOneLinePerCall(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "reconcile.log")
	d := Open(logPath)

	keyOf := func(s string) ctree.Key { return ctree.Key(s) }

	tree := ctree.NewTree[string]()
	reconciler.Reconcile(tree, keyOf, reconciler.Options[string]{
		Children:  []string{"a", "b", "c"},
		ChunkSize: 3,
	})

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := Dump(d, "after-seed", at, tree, keyOf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if err := Dump(d, "after-seed-again", at, tree, keyOf); err != nil {
		t.Fatalf("second Dump: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), string(data))
	}
	if !strings.Contains(lines[0], `"label":"after-seed"`) {
		t.Errorf("first line missing expected label: %q", lines[0])
	}
	if !strings.Contains(lines[0], `"leaves":["a","b","c"]`) {
		t.Errorf("first line missing expected leaves: %q", lines[0])
	}
}
