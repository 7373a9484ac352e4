// pkg/ctree/compose.go
//
// Compose and SeedTree build a tree directly from a literal shape rather
// than incrementally through a Cursor. They exist for tests that need to
// assert behavior starting from a specific irregular tree rather than
// one grown from empty, mirroring the concrete before/after shapes used
// to pin down the balancing algorithm.
package ctree

// Compose builds a chunk directly from the given children, wiring each
// child's parent pointer. The chunk's own key is freshly generated, same
// as one built through ordinary insertion.
func Compose[Item comparable](children ...*Node[Item]) *Node[Item] {
	chunk := newChunk[Item]()
	chunk.children = children
	for _, c := range children {
		c.parent = chunk
	}
	return chunk
}

// SeedTree replaces tree's top-level children directly, clearing each
// child's parent pointer (the top level has no enclosing chunk).
func SeedTree[Item comparable](tree *Tree[Item], children []*Node[Item]) {
	for _, c := range children {
		c.parent = nil
	}
	tree.children = children
}
