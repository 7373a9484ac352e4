// pkg/ctree/cursor.go
package ctree

// Cursor is the reconciler's working position within a Tree. It is an
// explicit, standalone record — never hidden in package-level state — so
// that nothing outside the reconciler's own call stack can observe a
// half-moved cursor. A Cursor must not be shared across goroutines and
// must not be re-entered while one of its own methods is on the stack.
//
// Grounded on pkg/cowbtree/cursor.go's stack-of-frames design, adapted
// from a B+-tree key cursor to a chunk/leaf position cursor: where that
// cursor's frame holds (node, pos) pairs with each node reachable via its
// parent's child list, ours holds just the index at each level, because
// the ancestor itself is always recoverable from the descendant's own
// parent pointer (see exitChunk).
type Cursor[Item comparable] struct {
	tree *Tree[Item]

	chunkSize int

	// pointerChunk is the ancestor currently being scanned. nil means the
	// tree root.
	pointerChunk *Node[Item]

	// pointerIndex is the position within pointerChunk's children (or the
	// root's children, if pointerChunk is nil). -1 means "before the
	// first child".
	pointerIndex int

	// indexStack holds, root-first, the index at which each ancestor on
	// the path to pointerChunk is nested in its own parent. Used by
	// exitChunk to pop back up in O(1) per level.
	indexStack []int

	// reachedEnd is a terminal flag: once set, the cursor refuses further
	// forward motion until returnToPreviousLeaf clears it.
	reachedEnd bool

	// cachedNode is the descendant currently at (pointerChunk, pointerIndex),
	// or nil at the -1 position or after reachedEnd. Invalidated on every
	// move; mutators that change structure without moving must clear it
	// explicitly.
	cachedNode *Node[Item]

	// debug gates the consistency check mutator operations run after
	// every call; it has no effect at all when false.
	debug bool
}

// SetDebug turns the after-every-mutation ValidateState check on or off.
func (c *Cursor[Item]) SetDebug(on bool) { c.debug = on }

func (c *Cursor[Item]) checkInvariants() {
	if !c.debug {
		return
	}
	if err := ValidateState(c.tree, c.chunkSize); err != nil {
		panic("chunktree: debug validation failed: " + err.Error())
	}
}

// NewCursor creates a cursor positioned before the first child of tree,
// using chunkSize as the fanout bound C for any structural mutation
// performed through it.
func NewCursor[Item comparable](tree *Tree[Item], chunkSize int) *Cursor[Item] {
	if chunkSize < 2 {
		panic("chunktree: chunkSize must be at least 2")
	}
	return &Cursor[Item]{
		tree:         tree,
		chunkSize:    chunkSize,
		pointerChunk: nil,
		pointerIndex: -1,
	}
}

// Tree returns the tree this cursor traverses.
func (c *Cursor[Item]) Tree() *Tree[Item] { return c.tree }

// AtStart reports whether the cursor sits at the sentinel "before the
// first child of the root" position.
func (c *Cursor[Item]) AtStart() bool {
	return c.pointerChunk == nil && c.pointerIndex == -1 && !c.reachedEnd
}

// ReachedEnd reports whether a forward scan has run off the end of the
// tree. Calling ReadLeaf again without an intervening
// ReturnToPreviousLeaf is a programmer error.
func (c *Cursor[Item]) ReachedEnd() bool { return c.reachedEnd }

func (c *Cursor[Item]) currentChildren() []*Node[Item] {
	if c.pointerChunk == nil {
		return c.tree.children
	}
	return c.pointerChunk.children
}

func (c *Cursor[Item]) setChildren(children []*Node[Item]) {
	if c.pointerChunk == nil {
		c.tree.children = children
	} else {
		c.pointerChunk.children = children
	}
}

// currentNode returns the descendant at the cursor's current position,
// or nil at the -1 position or past the end of the current ancestor.
func (c *Cursor[Item]) currentNode() *Node[Item] {
	if c.pointerIndex < 0 {
		return nil
	}
	children := c.currentChildren()
	if c.pointerIndex >= len(children) {
		return nil
	}
	return children[c.pointerIndex]
}

// Current returns the descendant the cursor is positioned on, using the
// cached reference when available.
func (c *Cursor[Item]) Current() *Node[Item] {
	if c.cachedNode != nil {
		return c.cachedNode
	}
	n := c.currentNode()
	c.cachedNode = n
	return n
}

// enterChunk descends into the chunk at the cursor's current position,
// positioning at its first child (or last, if end is true). Panics if
// the current position is not a chunk, or if that chunk is empty
// (invariant 4 forbids empty chunks from ever existing).
func (c *Cursor[Item]) enterChunk(end bool) {
	cur := c.currentNode()
	if cur == nil || !cur.IsChunk() {
		panic("chunktree: enter_chunk on a non-chunk position")
	}
	if len(cur.children) == 0 {
		panic("chunktree: enter_chunk on an empty chunk")
	}
	c.indexStack = append(c.indexStack, c.pointerIndex)
	c.pointerChunk = cur
	if end {
		c.pointerIndex = len(cur.children) - 1
	} else {
		c.pointerIndex = 0
	}
	c.cachedNode = nil
}

// exitChunk moves the cursor up to the parent of pointerChunk, restoring
// the index at which pointerChunk was nested. Panics at the root.
func (c *Cursor[Item]) exitChunk() {
	if c.pointerChunk == nil {
		panic("chunktree: exit_chunk at the root")
	}
	n := len(c.indexStack)
	idx := c.indexStack[n-1]
	c.indexStack = c.indexStack[:n-1]
	c.pointerChunk = c.pointerChunk.parent
	c.pointerIndex = idx
	c.cachedNode = nil
}

// descendToLeaf enters any chunk at the cursor's current position,
// repeatedly, at the start (end=false) or end (end=true) of each level,
// until the position holds a leaf or there is nothing there.
func (c *Cursor[Item]) descendToLeaf(end bool) *Node[Item] {
	for {
		cur := c.currentNode()
		if cur == nil {
			c.cachedNode = nil
			return nil
		}
		if !cur.IsChunk() {
			c.cachedNode = cur
			return cur
		}
		c.enterChunk(end)
	}
}

// ReadLeaf advances the cursor to the next leaf in document order and
// returns it, or nil if the cursor has run off the end of the tree (in
// which case ReachedEnd becomes true). Panics if called again after
// ReachedEnd is already true.
func (c *Cursor[Item]) ReadLeaf() *Node[Item] {
	if c.reachedEnd {
		panic("chunktree: read_leaf called past reached_end")
	}
	for {
		children := c.currentChildren()
		if c.pointerIndex+1 < len(children) {
			c.pointerIndex++
			c.cachedNode = nil
			break
		}
		if c.pointerChunk == nil {
			c.reachedEnd = true
			c.cachedNode = nil
			return nil
		}
		c.exitChunk()
	}
	return c.descendToLeaf(false)
}

// ReturnToPreviousLeaf moves the cursor to the leaf immediately before
// its current position (the reverse of ReadLeaf) and returns it, or nil
// if the cursor is already at the start.
func (c *Cursor[Item]) ReturnToPreviousLeaf() *Node[Item] {
	if c.reachedEnd {
		c.reachedEnd = false
		c.cachedNode = nil
		return c.descendToLeaf(true)
	}
	if c.pointerChunk == nil && c.pointerIndex == -1 {
		c.cachedNode = nil
		return nil
	}
	for {
		if c.pointerIndex-1 >= 0 {
			c.pointerIndex--
			c.cachedNode = nil
			break
		}
		if c.pointerChunk == nil {
			c.pointerIndex = -1
			c.cachedNode = nil
			return nil
		}
		c.exitChunk()
	}
	return c.descendToLeaf(true)
}

// InvalidateChunk walks parent links from pointerChunk up to, but not
// including, the root, inserting every chunk on that path into the
// tree's modified-chunks set. Idempotent.
func (c *Cursor[Item]) InvalidateChunk() {
	for n := c.pointerChunk; n != nil; n = n.parent {
		c.tree.addModifiedChunk(n)
	}
}

// SavedPointer is a restorable cursor position: either the sentinel
// "start", or a (chunk, node) pair identifying a specific descendant.
type SavedPointer[Item comparable] struct {
	isStart bool
	chunk   *Node[Item]
	node    *Node[Item]
}

// Save captures the cursor's current position for later restoration.
// Restoring is O(depth*fanout); it is meant for the rare anchor points
// insertion uses, not per-leaf bookkeeping.
func (c *Cursor[Item]) Save() SavedPointer[Item] {
	if c.pointerChunk == nil && c.pointerIndex == -1 && !c.reachedEnd {
		return SavedPointer[Item]{isStart: true}
	}
	return SavedPointer[Item]{chunk: c.pointerChunk, node: c.currentNode()}
}

func childrenOf[Item comparable](tree *Tree[Item], chunk *Node[Item]) []*Node[Item] {
	if chunk == nil {
		return tree.children
	}
	return chunk.children
}

// Restore returns the cursor to a previously saved position, recomputing
// pointerIndex and indexStack by scanning. Panics if the saved chunk has
// been detached from the tree, or the saved node is no longer present in
// its chunk.
func (c *Cursor[Item]) Restore(sp SavedPointer[Item]) {
	c.cachedNode = nil
	c.reachedEnd = false
	if sp.isStart {
		c.pointerChunk = nil
		c.pointerIndex = -1
		c.indexStack = c.indexStack[:0]
		return
	}

	siblings := childrenOf(c.tree, sp.chunk)
	idx := indexOfNode(siblings, sp.node)
	if idx < 0 {
		panic("chunktree: restore — saved node is no longer present in its chunk")
	}

	var stack []int
	for cur := sp.chunk; cur != nil; cur = cur.parent {
		parentSiblings := childrenOf(c.tree, cur.parent)
		pidx := indexOfNode(parentSiblings, cur)
		if pidx < 0 {
			panic("chunktree: restore — saved chunk is detached from the tree")
		}
		stack = append(stack, pidx)
	}
	// stack was built leaf-to-root; reverse to root-first.
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}

	c.pointerChunk = sp.chunk
	c.pointerIndex = idx
	c.indexStack = stack
}
