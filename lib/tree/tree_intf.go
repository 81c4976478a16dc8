package tree

import "github.com/benz9527/xtree/lib/infra"

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (dir RBDirection) opposite() RBDirection {
	return -dir
}

// NodeID addresses a node slot inside the tree's arena.
// A NodeID is only meaningful for the tree that issued it, and a remove with
// two children relocates the successor, so handles are not stable across
// removes.
type NodeID uint32

// NilNodeID marks an absent node (nil leaf).
const NilNodeID NodeID = 0

// RBNode is a read-only snapshot of a node.
type RBNode[K infra.OrderedKey] interface {
	ID() NodeID
	Key() K
	Color() RBColor
}

// RBVisit is emitted for every node by the read-only walks. Parent, Left and
// Right are NilNodeID when absent.
type RBVisit[K infra.OrderedKey] struct {
	Key       K
	ID        NodeID
	Parent    NodeID
	Left      NodeID
	Right     NodeID
	Depth     int
	Color     RBColor
	Direction RBDirection
}

type RBTree[K infra.OrderedKey] interface {
	Len() int64
	Desc() bool
	Height() int
	BlackHeight() int
	Root() RBNode[K]
	Min() RBNode[K]
	Max() RBNode[K]
	Insert(key K) error
	Remove(key K) error
	RemoveMin() (RBNode[K], error)
	Search(key K) (RBNode[K], error)
	Foreach(action func(idx int64, color RBColor, key K) bool)
	PreOrder(action func(visit RBVisit[K]) bool)
	LevelOrder(action func(visit RBVisit[K]) bool)
	Release()
}
