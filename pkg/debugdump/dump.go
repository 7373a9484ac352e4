// Package debugdump writes an append-only, line-oriented log of
// reconciliation snapshots, for use while chasing down a reconciler bug
// offline. It is not part of the reconciler's hot path: nothing in
// pkg/reconciler or pkg/ctree calls it, and it is meant to be wired in
// by a caller's own Callbacks around a Reconcile call.
//
// Grounded on pkg/turdb's file locking (lock_unix.go / lock_windows.go):
// several processes may be dumping snapshots of independent trees to the
// same log directory at once, so each write takes an exclusive advisory
// lock on the destination file for the duration of the write.
package debugdump

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"chunktree/pkg/ctree"
)

// ErrLogBusy is returned when another process holds the destination
// file's lock. Dump never waits for the lock to be released.
var ErrLogBusy = fmt.Errorf("debugdump: log file is locked by another process")

// Dumper appends JSON-lines snapshots to a single log file.
type Dumper struct {
	path string
}

// Open returns a Dumper that appends to path, creating it if necessary.
func Open(path string) *Dumper {
	return &Dumper{path: path}
}

// snapshot is one line of the dump log: a flattened view of a tree's
// leaves alongside its modified-chunk count, stamped by the caller.
type snapshot struct {
	At             time.Time `json:"at"`
	Label          string    `json:"label"`
	Leaves         []string  `json:"leaves"`
	ModifiedChunks int       `json:"modified_chunks"`
}

// Dump appends one snapshot line describing tree's current leaf keys
// under label. at is supplied by the caller since this package never
// calls time.Now itself in a way that would make two dumps of the same
// state disagree.
func Dump[Item comparable](d *Dumper, label string, at time.Time, tree *ctree.Tree[Item], keyOf func(Item) ctree.Key) error {
	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return err
	}
	defer unlockFile(f)

	leaves := ctree.CollectLeaves(tree)
	keys := make([]string, len(leaves))
	for i, item := range leaves {
		keys[i] = string(keyOf(item))
	}

	line, err := json.Marshal(snapshot{
		At:             at,
		Label:          label,
		Leaves:         keys,
		ModifiedChunks: len(tree.ModifiedChunks()),
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return err
	}
	return f.Sync()
}
