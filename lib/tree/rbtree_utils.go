package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// rbtree rule validation utilities.
// All of them only use the read-only walks, so they work on any RBTree.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

var (
	ErrRBTreeRootViolation  = errors.New("[rbtree] root violation")
	ErrRBTreeRedViolation   = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation = errors.New("[rbtree] black violation")
	ErrRBTreeOrderViolation = errors.New("[rbtree] order violation")
	ErrRBTreeLinkViolation  = errors.New("[rbtree] link violation")
)

// RootViolationValidate checks the root is black and has no parent.
func RootViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	root := tree.Root()
	if root == nil {
		if tree.Len() != 0 {
			return fmt.Errorf("%w: nil root with %d nodes", ErrRBTreeRootViolation, tree.Len())
		}
		return nil
	}
	if root.Color() != Black {
		return fmt.Errorf("%w: red root %v", ErrRBTreeRootViolation, root.Key())
	}
	var err error
	tree.LevelOrder(func(visit RBVisit[K]) bool {
		if visit.Parent != NilNodeID || visit.Direction != Root {
			err = fmt.Errorf("%w: root %v has a parent", ErrRBTreeRootViolation, visit.Key)
		}
		return false
	})
	return err
}

// RedViolationValidate checks no red node has a red child. BFS visits the
// parent before its children.
func RedViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	colors := make(map[NodeID]RBColor, tree.Len())
	var err error
	tree.LevelOrder(func(visit RBVisit[K]) bool {
		colors[visit.ID] = visit.Color
		if visit.Color == Red && visit.Parent != NilNodeID && colors[visit.Parent] == Red {
			err = fmt.Errorf("%w: red node %v under a red parent", ErrRBTreeRedViolation, visit.Key)
			return false
		}
		return true
	})
	return err
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each nil leaf to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	depths := make(map[NodeID]int, tree.Len())
	leafDepth := -1
	var err error
	tree.LevelOrder(func(visit RBVisit[K]) bool {
		depth := depths[visit.Parent]
		if visit.Color == Black {
			depth++
		}
		depths[visit.ID] = depth
		if /* nil leaves */ visit.Left != NilNodeID && visit.Right != NilNodeID {
			return true
		}
		if leafDepth < 0 {
			leafDepth = depth
		} else if leafDepth != depth {
			err = fmt.Errorf("%w: nil leaf under %v has black depth %d, expected %d",
				ErrRBTreeBlackViolation, visit.Key, depth, leafDepth)
			return false
		}
		return true
	})
	return err
}

// OrderViolationValidate checks the inorder walk is strictly ascending,
// or strictly descending for a tree built with WithRBTreeDesc.
func OrderViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	kcmp := infra.OrderedKeyComparator[K](infra.AscKeyComparator[K])
	if tree.Desc() {
		kcmp = infra.DescKeyComparator[K]
	}
	var (
		prev K
		err  error
	)
	tree.Foreach(func(idx int64, color RBColor, key K) bool {
		if idx > 0 && kcmp(prev, key) >= 0 {
			err = fmt.Errorf("%w: %v is followed by %v", ErrRBTreeOrderViolation, prev, key)
			return false
		}
		prev = key
		return true
	})
	return err
}

// LinkViolationValidate checks the parent handles are the inverse of the
// children handles and the walk reaches exactly Len() nodes.
func LinkViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	parents := make(map[NodeID]NodeID, tree.Len())
	var (
		visited int64
		err     error
	)
	tree.LevelOrder(func(visit RBVisit[K]) bool {
		visited++
		if expected, ok := parents[visit.ID]; ok && expected != visit.Parent {
			err = fmt.Errorf("%w: node %v parent %d, owned by %d",
				ErrRBTreeLinkViolation, visit.Key, visit.Parent, expected)
			return false
		} else if !ok && visit.Parent != NilNodeID {
			err = fmt.Errorf("%w: node %v is not owned by its parent %d",
				ErrRBTreeLinkViolation, visit.Key, visit.Parent)
			return false
		}
		for _, child := range []NodeID{visit.Left, visit.Right} {
			if child == NilNodeID {
				continue
			}
			if _, dup := parents[child]; dup {
				err = fmt.Errorf("%w: node %d owned twice", ErrRBTreeLinkViolation, child)
				return false
			}
			parents[child] = visit.ID
		}
		return true
	})
	if err == nil && visited != tree.Len() {
		err = fmt.Errorf("%w: reached %d nodes, expected %d", ErrRBTreeLinkViolation, visited, tree.Len())
	}
	return err
}

// Validate runs every rule and combines the violations.
func Validate[K infra.OrderedKey](tree RBTree[K]) error {
	return infra.WrapErrorStackWithMessage(multierr.Combine(
		RootViolationValidate[K](tree),
		RedViolationValidate[K](tree),
		BlackViolationValidate[K](tree),
		OrderViolationValidate[K](tree),
		LinkViolationValidate[K](tree),
	), "[rbtree] invariant violation")
}
