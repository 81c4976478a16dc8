package tree

import (
	"math"

	"github.com/benz9527/xtree/lib/infra"
)

// rbNode is an arena slot. Links are NodeID handles instead of pointers, so
// the parent back-reference is a plain index and never an ownership cycle.
type rbNode[K infra.OrderedKey] struct {
	key    K
	parent NodeID
	left   NodeID
	right  NodeID
	color  RBColor
	inUse  bool
}

// rbArena is an auto growth slot table with a recycle list.
// Slot 0 is reserved, then the zero NodeID is always the nil leaf.
// The *rbNode returned by node() is invalidated by the next allocate().
type rbArena[K infra.OrderedKey] struct {
	slots    []rbNode[K]
	recycled []NodeID
}

func newRBArena[K infra.OrderedKey](capacity int) *rbArena[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &rbArena[K]{
		slots:    make([]rbNode[K], 1, capacity+1),
		recycled: make([]NodeID, 0, 16),
	}
}

func (arena *rbArena[K]) allocate(key K, color RBColor) NodeID {
	if l := len(arena.recycled); l > 0 {
		id := arena.recycled[l-1]
		arena.recycled = arena.recycled[:l-1]
		arena.slots[id] = rbNode[K]{key: key, color: color, inUse: true}
		return id
	}
	if uint64(len(arena.slots)) > math.MaxUint32 {
		panic( /* debug assertion */ "[rbtree] arena node id overflow")
	}
	arena.slots = append(arena.slots, rbNode[K]{key: key, color: color, inUse: true})
	return NodeID(len(arena.slots) - 1)
}

func (arena *rbArena[K]) free(id NodeID) {
	if id == NilNodeID || int(id) >= len(arena.slots) || !arena.slots[id].inUse {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] free an unallocated node")
	}
	arena.slots[id] = rbNode[K]{}
	arena.recycled = append(arena.recycled, id)
}

func (arena *rbArena[K]) node(id NodeID) *rbNode[K] {
	if id == NilNodeID {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] dereference a nil leaf")
	}
	return &arena.slots[id]
}

// colorOf treats the nil leaf as black without materializing a sentinel.
func (arena *rbArena[K]) colorOf(id NodeID) RBColor {
	if id == NilNodeID {
		return Black
	}
	return arena.slots[id].color
}

func (arena *rbArena[K]) live() int {
	return len(arena.slots) - 1 - len(arena.recycled)
}

func (arena *rbArena[K]) reset() {
	clear(arena.slots)
	arena.slots = arena.slots[:1]
	arena.recycled = arena.recycled[:0]
}
