// pkg/ctree/validate.go
package ctree

import "fmt"

// ValidateState walks the whole tree and checks invariants 2-4 from the
// data model: every chunk has between 1 and chunkSize children, no chunk
// is empty, and every chunk's parent link is consistent with its
// parent's child list. It does not check invariant 1 (leaf order), since
// it has no desired sequence to compare against (tests compare
// CollectLeaves instead), nor invariant 5 (leaf keys match the resolver),
// since it has no resolver to call.
//
// This is purely a diagnostic: Options.Debug gates whether mutator calls
// invoke it, and when disabled it has no observable effect on a run.
func ValidateState[Item comparable](tree *Tree[Item], chunkSize int) error {
	return validateChildren(tree.children, nil, chunkSize)
}

func validateChildren[Item comparable](children []*Node[Item], parent *Node[Item], chunkSize int) error {
	for _, n := range children {
		if n.parent != parent {
			return fmt.Errorf("chunktree: node %q has parent link inconsistent with its container", n.key)
		}
		if n.IsChunk() {
			if len(n.children) == 0 {
				return fmt.Errorf("chunktree: chunk %q has no children", n.key)
			}
			if len(n.children) > chunkSize {
				return fmt.Errorf("chunktree: chunk %q has %d children, exceeding chunk size %d", n.key, len(n.children), chunkSize)
			}
			if err := validateChildren(n.children, n, chunkSize); err != nil {
				return err
			}
		}
	}
	return nil
}

// CollectLeaves returns every leaf's item, in document order, by an
// in-order traversal of the tree. Used by tests to assert the order
// invariant directly against the desired children sequence.
func CollectLeaves[Item comparable](tree *Tree[Item]) []Item {
	var out []Item
	var walk func(children []*Node[Item])
	walk = func(children []*Node[Item]) {
		for _, n := range children {
			if n.IsChunk() {
				walk(n.children)
			} else {
				item, _ := n.Item()
				out = append(out, item)
			}
		}
	}
	walk(tree.children)
	return out
}
