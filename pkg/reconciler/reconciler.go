// pkg/reconciler/reconciler.go
//
// Package reconciler drives a ctree.Cursor and its mutator operations
// from a desired sequence of items, turning the difference between the
// tree's current leaves and that sequence into a minimal set of
// Remove/InsertBefore/InsertAfter calls.
//
// Grounded on the teacher's pkg/mvcc/transaction.go for the small,
// explicit state a single reconciliation carries (here: a read pointer
// and a lazily-filled key cache, in place of a transaction's savepoint
// stack) and on pkg/sql/executor/executor.go's single-pass driving loop
// over an ordered input, firing callbacks as it goes.
package reconciler

import "chunktree/pkg/ctree"

// KeyResolver maps an item handle to its stable identity token. It must
// be referentially stable for the lifetime of the item: two different
// items live at the same time must never resolve to the same key.
type KeyResolver[Item comparable] func(item Item) ctree.Key

// Callbacks are optional hooks fired during reconciliation. They are not
// re-entrant: a callback must not call back into the reconciler for the
// tree it was invoked from.
type Callbacks[Item comparable] struct {
	// OnInsert fires for each item newly present in the tree.
	OnInsert func(item Item, finalIndex int)
	// OnUpdate fires when a match swaps a leaf's item in place.
	OnUpdate func(item Item, finalIndex int)
	// OnIndexChange fires for each already-present item whose final
	// index differs from its pre-reconciliation index.
	OnIndexChange func(item Item, finalIndex int)
}

func (cb Callbacks[Item]) fireInsert(item Item, idx int) {
	if cb.OnInsert != nil {
		cb.OnInsert(item, idx)
	}
}

func (cb Callbacks[Item]) fireUpdate(item Item, idx int) {
	if cb.OnUpdate != nil {
		cb.OnUpdate(item, idx)
	}
}

func (cb Callbacks[Item]) fireIndexChange(item Item, idx int) {
	if cb.OnIndexChange != nil {
		cb.OnIndexChange(item, idx)
	}
}

// Options configures one reconciliation run.
type Options[Item comparable] struct {
	// Children is the desired ordered sequence of item handles.
	Children []Item
	// ChunkSize is the fanout bound C; must be >= 2.
	ChunkSize int
	// Debug turns on the after-every-mutation consistency check.
	Debug bool
	Callbacks[Item]
}

// state holds the bookkeeping a single Reconcile call carries across its
// one pass over Options.Children.
type state[Item comparable] struct {
	children        []Item
	resolve         KeyResolver[Item]
	childrenPointer int
	childKeys       map[int]ctree.Key
}

func newState[Item comparable](children []Item, resolve KeyResolver[Item]) *state[Item] {
	return &state[Item]{
		children:  children,
		resolve:   resolve,
		childKeys: make(map[int]ctree.Key),
	}
}

func (s *state[Item]) keyAt(i int) ctree.Key {
	if k, ok := s.childKeys[i]; ok {
		return k
	}
	k := s.resolve(s.children[i])
	s.childKeys[i] = k
	return k
}

// lookahead scans the unread suffix of s.children for item, trying
// identity first (a forward linear scan for the exact handle) and
// falling back to a key-based scan only if that fails. Returns the
// offset from s.childrenPointer at which item was found, or -1.
func (s *state[Item]) lookahead(item Item, leafKey ctree.Key) int {
	for i := s.childrenPointer; i < len(s.children); i++ {
		if s.children[i] == item {
			return i - s.childrenPointer
		}
	}
	for i := s.childrenPointer; i < len(s.children); i++ {
		if s.keyAt(i) == leafKey {
			return i - s.childrenPointer
		}
	}
	return -1
}

// Reconcile mutates tree in place so its leaves, read left to right,
// equal opts.Children, while keeping every chunk's fanout within
// opts.ChunkSize. It reports nothing directly; the affected chunks are
// left in tree.ModifiedChunks() and changes are reported through
// opts.Callbacks as they happen.
func Reconcile[Item comparable](tree *ctree.Tree[Item], resolve KeyResolver[Item], opts Options[Item]) {
	tree.ClearModifiedChunks()

	cur := ctree.NewCursor(tree, opts.ChunkSize)
	cur.SetDebug(opts.Debug)

	s := newState(opts.Children, resolve)
	insertionsMinusRemovals := 0

	for {
		leaf := cur.ReadLeaf()
		if leaf == nil {
			break
		}
		leafItem, _ := leaf.Item()
		leafKey := leaf.Key()

		offset := s.lookahead(leafItem, leafKey)
		if offset < 0 {
			cur.Remove()
			insertionsMinusRemovals--
			continue
		}

		if offset > 0 {
			newLeaves := make([]*ctree.Node[Item], offset)
			for j := 0; j < offset; j++ {
				idx := s.childrenPointer + j
				newLeaves[j] = ctree.NewLeaf(s.keyAt(idx), s.children[idx])
			}
			cur.InsertBefore(newLeaves)
			for j := 0; j < offset; j++ {
				opts.fireInsert(s.children[s.childrenPointer+j], s.childrenPointer+j)
			}
			insertionsMinusRemovals += offset
		}

		matchedIdx := s.childrenPointer + offset
		matchedItem := s.children[matchedIdx]
		if matchedItem != leafItem {
			leaf.SetItem(matchedItem)
			cur.InvalidateChunk()
			opts.fireUpdate(matchedItem, matchedIdx)
		}

		if insertionsMinusRemovals != 0 {
			opts.fireIndexChange(matchedItem, matchedIdx)
		}

		s.childrenPointer = matchedIdx + 1
	}

	if s.childrenPointer < len(s.children) {
		tailLen := len(s.children) - s.childrenPointer
		newLeaves := make([]*ctree.Node[Item], tailLen)
		for j := 0; j < tailLen; j++ {
			idx := s.childrenPointer + j
			newLeaves[j] = ctree.NewLeaf(s.keyAt(idx), s.children[idx])
		}
		cur.ReturnToPreviousLeaf()
		cur.InsertAfter(newLeaves)
		for j := 0; j < tailLen; j++ {
			opts.fireInsert(s.children[s.childrenPointer+j], s.childrenPointer+j)
		}
	}

	tree.ClearMovedKeys()
}
