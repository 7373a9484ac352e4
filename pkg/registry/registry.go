// pkg/registry/registry.go
//
// Package registry is the reconciler's entry point: get-or-create a tree
// for a parent, optionally reconcile it against a desired children
// sequence, and return it.
//
// The spec's JavaScript original keys a WeakMap on the parent item's
// object identity so entries vanish with the garbage collector. Go has
// no such hook a plain map can lean on, so — per the data model's own
// design note ("never couple the cache's lifetime to garbage collection;
// require explicit release") — Registry is a map keyed on the parent's
// already-resolved identity token, protected by a mutex, with an
// explicit Release for the caller to call when a parent goes away, plus
// an optional LRU capacity bound for callers who want one anyway.
// Grounded on pkg/mvcc/manager.go's TransactionManager (map keyed by id
// under a sync.RWMutex), the registration idiom in
// pkg/cowbtree/register.go, and pkg/cache/query_cache.go's
// container/list-backed LRU eviction.
package registry

import (
	"container/list"
	"sync"

	"chunktree/pkg/ctree"
	"chunktree/pkg/reconciler"
)

// NoCapacity disables LRU eviction: the registry grows without bound
// until callers Release entries themselves.
const NoCapacity = 0

// entry pairs a tree with the list.Element tracking its recency, the
// same (key, element) pairing pkg/cache/query_cache.go's queryCacheEntry
// uses for its LRU cache.
type entry[ParentKey comparable, Item comparable] struct {
	key     ParentKey
	tree    *ctree.Tree[Item]
	element *list.Element
}

// Registry owns one Tree per parent, keyed by the parent's identity token.
type Registry[ParentKey comparable, Item comparable] struct {
	mu       sync.RWMutex
	trees    map[ParentKey]*entry[ParentKey, Item]
	lru      *list.List
	capacity int

	evictions int64
}

// New creates an empty registry with no capacity bound: entries live
// until explicitly Released.
func New[ParentKey comparable, Item comparable]() *Registry[ParentKey, Item] {
	return NewWithCapacity[ParentKey, Item](NoCapacity)
}

// NewWithCapacity creates an empty registry that evicts its
// least-recently-used parent once more than capacity trees are held.
// A capacity of NoCapacity (0) disables eviction.
func NewWithCapacity[ParentKey comparable, Item comparable](capacity int) *Registry[ParentKey, Item] {
	return &Registry[ParentKey, Item]{
		trees:    make(map[ParentKey]*entry[ParentKey, Item]),
		lru:      list.New(),
		capacity: capacity,
	}
}

// Reconcile bundles the options needed to reconcile a tree immediately
// after it is looked up or created.
type Reconcile[Item comparable] struct {
	Resolve reconciler.KeyResolver[Item]
	Options reconciler.Options[Item]
}

// GetTreeFor looks up the tree for parentKey, creating one if absent,
// and — if recon is non-nil — reconciles it against recon.Options.Children
// before returning it. Every call counts as an access for LRU purposes.
func (r *Registry[ParentKey, Item]) GetTreeFor(parentKey ParentKey, recon *Reconcile[Item]) *ctree.Tree[Item] {
	tree := r.getOrCreate(parentKey)
	if recon != nil {
		reconciler.Reconcile(tree, recon.Resolve, recon.Options)
	}
	return tree
}

func (r *Registry[ParentKey, Item]) getOrCreate(parentKey ParentKey) *ctree.Tree[Item] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.trees[parentKey]; ok {
		r.lru.MoveToFront(e.element)
		return e.tree
	}

	e := &entry[ParentKey, Item]{key: parentKey, tree: ctree.NewTree[Item]()}
	e.element = r.lru.PushFront(e)
	r.trees[parentKey] = e
	r.evictOverCapacityLocked()
	return e.tree
}

// evictOverCapacityLocked drops the least-recently-used parents until
// the registry is back within capacity. Called with mu held.
func (r *Registry[ParentKey, Item]) evictOverCapacityLocked() {
	if r.capacity == NoCapacity {
		return
	}
	for len(r.trees) > r.capacity {
		back := r.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry[ParentKey, Item])
		r.lru.Remove(back)
		delete(r.trees, e.key)
		r.evictions++
	}
}

// Peek returns the tree for parentKey without creating one or touching
// its LRU recency, and whether it was present.
func (r *Registry[ParentKey, Item]) Peek(parentKey ParentKey) (*ctree.Tree[Item], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.trees[parentKey]
	if !ok {
		return nil, false
	}
	return e.tree, true
}

// Release evicts the tree for parentKey, if any. Callers must invoke
// this when a parent item becomes unreachable — the registry has no
// other way to learn that.
func (r *Registry[ParentKey, Item]) Release(parentKey ParentKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.trees[parentKey]
	if !ok {
		return
	}
	r.lru.Remove(e.element)
	delete(r.trees, parentKey)
}

// Len returns the number of parents currently tracked.
func (r *Registry[ParentKey, Item]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trees)
}

// Stats is a snapshot of registry occupancy, in the spirit of
// pkg/cache's MemoryBudgetStats/QueryCacheStats: a capacity, a current
// count, and how much eviction pressure the registry has seen.
type Stats struct {
	Capacity  int
	Count     int
	Evictions int64
}

// Stats reports the registry's current occupancy and eviction count.
func (r *Registry[ParentKey, Item]) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Capacity: r.capacity, Count: len(r.trees), Evictions: r.evictions}
}
