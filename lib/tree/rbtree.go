package tree

import (
	"errors"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	ErrRBTreeDuplicateKey = errors.New("[rbtree] duplicate key")
	ErrRBTreeNotFound     = errors.New("[rbtree] key not found")
	ErrRBTreeIsEmpty      = errors.New("[rbtree] there is no element")
)

var _ RBNode[uint8] = (*rbNodeView[uint8])(nil)

// rbNodeView is the value copied out of an arena slot, it never
// references the slot again.
type rbNodeView[K infra.OrderedKey] struct {
	key   K
	id    NodeID
	color RBColor
}

func (view *rbNodeView[K]) ID() NodeID     { return view.id }
func (view *rbNodeView[K]) Key() K         { return view.key }
func (view *rbNodeView[K]) Color() RBColor { return view.color }

var _ RBTree[uint8] = (*rbTree[uint8])(nil)

type rbTree[K infra.OrderedKey] struct {
	arena     *rbArena[K]
	kcmp      infra.OrderedKeyComparator[K]
	stats     *rbTreeStats
	statsName string
	root      NodeID
	count     int64
	isDesc    bool
}

func (tree *rbTree[K]) node(id NodeID) *rbNode[K] {
	return tree.arena.node(id)
}

func (tree *rbTree[K]) isRed(id NodeID) bool {
	return tree.arena.colorOf(id) == Red
}

func (tree *rbTree[K]) isBlack(id NodeID) bool {
	return tree.arena.colorOf(id) == Black
}

func (tree *rbTree[K]) child(id NodeID, dir RBDirection) NodeID {
	n := tree.node(id)
	switch dir {
	case Left:
		return n.left
	case Right:
		return n.right
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[rbtree] load child by unknown direction")
}

func (tree *rbTree[K]) setChild(id NodeID, dir RBDirection, child NodeID) {
	n := tree.node(id)
	switch dir {
	case Left:
		n.left = child
	case Right:
		n.right = child
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] store child by unknown direction")
	}
}

// direction reports which side of its parent the node hangs on.
func (tree *rbTree[K]) direction(id NodeID) RBDirection {
	p := tree.node(id).parent
	if p == NilNodeID {
		return Root
	}
	if tree.node(p).left == id {
		return Left
	}
	return Right
}

func (tree *rbTree[K]) minimum(id NodeID) NodeID {
	for id != NilNodeID && tree.node(id).left != NilNodeID {
		id = tree.node(id).left
	}
	return id
}

func (tree *rbTree[K]) maximum(id NodeID) NodeID {
	for id != NilNodeID && tree.node(id).right != NilNodeID {
		id = tree.node(id).right
	}
	return id
}

func (tree *rbTree[K]) view(id NodeID) RBNode[K] {
	if id == NilNodeID {
		return nil
	}
	n := tree.node(id)
	return &rbNodeView[K]{
		id:    id,
		key:   n.key,
		color: n.color,
	}
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) Desc() bool {
	return tree.isDesc
}

func (tree *rbTree[K]) Root() RBNode[K] {
	return tree.view(tree.root)
}

func (tree *rbTree[K]) Min() RBNode[K] {
	return tree.view(tree.minimum(tree.root))
}

func (tree *rbTree[K]) Max() RBNode[K] {
	return tree.view(tree.maximum(tree.root))
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// So the longest root to NIL path is at most twice the shortest one,
// height <= 2*log2(n+1).

// rotate lifts x's child on the opposite side of dir into x's position and
// moves x down toward dir. Colors are untouched.
func (tree *rbTree[K]) rotate(x NodeID, dir RBDirection) {
	y := tree.child(x, dir.opposite())
	if y == NilNodeID {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate node x without the lifted child")
	}

	p, xDir := tree.node(x).parent, tree.direction(x)
	inner := tree.child(y, dir)
	tree.setChild(x, dir.opposite(), inner)
	if inner != NilNodeID {
		tree.node(inner).parent = x
	}
	tree.setChild(y, dir, x)
	tree.node(x).parent = y
	tree.node(y).parent = p

	if xDir == Root {
		tree.root = y
	} else {
		tree.setChild(p, xDir, y)
	}
	tree.stats.IncreaseRotationCount()
}

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K]) leftRotate(x NodeID) {
	tree.rotate(x, Left)
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K]) rightRotate(x NodeID) {
	tree.rotate(x, Right)
}

// Insert rejects a present key with ErrRBTreeDuplicateKey and leaves the
// tree untouched.
// i1: Empty rbtree, insert directly, but root node is painted to black.
func (tree *rbTree[K]) Insert(key K) error {
	if /* i1 */ tree.root == NilNodeID {
		tree.root = tree.arena.allocate(key, Black)
		tree.count++
		tree.stats.RecordInsert(true, 0)
		return nil
	}

	var (
		y     NodeID
		dir   = Root
		depth = 0
	)
	for x := tree.root; x != NilNodeID; depth++ {
		y = x
		res := tree.kcmp(key, tree.node(x).key)
		if /* equal */ res == 0 {
			tree.stats.RecordInsert(false, depth)
			return ErrRBTreeDuplicateKey
		} else /* less */ if res < 0 {
			dir = Left
		} else /* greater */ {
			dir = Right
		}
		x = tree.child(x, dir)
	}

	z := tree.arena.allocate(key, Red)
	tree.node(z).parent = y
	tree.setChild(y, dir, z)
	tree.count++
	tree.insertRebalance(z)
	tree.stats.RecordInsert(true, depth)
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black (or X is root), nothing to fix.

im2: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im3: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation X and P swap roles, then enter im4 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im4: Handle im3 scenario, current node is the same direction as parent.

	    [G]                 [P]
	    / \    rotate(G)    / \
	  <P> [U]  ========>  <X> <G>
	  /      and repaint        \
	<X>                         [U]
*/
func (tree *rbTree[K]) insertRebalance(x NodeID) {
	for /* im1 */ tree.isRed(tree.node(x).parent) {
		p := tree.node(x).parent
		gp := tree.node(p).parent // p is red, then it is not the root
		pDir := tree.direction(p)

		if uncle := tree.child(gp, pDir.opposite()); /* im2 */ tree.isRed(uncle) {
			tree.node(p).color = Black
			tree.node(uncle).color = Black
			tree.node(gp).color = Red
			x = gp
			continue
		}

		if /* im3 */ tree.direction(x) != pDir {
			tree.rotate(p, pDir)
			x, p = p, x
		}

		/* im4 */
		tree.node(p).color = Black
		tree.node(gp).color = Red
		tree.rotate(gp, pDir.opposite())
		break
	}
	tree.node(tree.root).color = Black
}

// transplant replaces the subtree rooted at u with the subtree rooted at v.
func (tree *rbTree[K]) transplant(u, v NodeID) {
	p := tree.node(u).parent
	if dir := tree.direction(u); dir == Root {
		tree.root = v
	} else {
		tree.setChild(p, dir, v)
	}
	if v != NilNodeID {
		tree.node(v).parent = p
	}
}

/*
r1: Z has at most one child C, splice Z out and C takes its place.

	  |                  |
	  Z                  C
	   \    ======>
	    C

r2: Z has left and right child. Find the succ S, the minimum of
Z's right subtree. S has no left child. S takes Z's position and color,
S's right child X takes S's old position.

	    |                    |
	    Z                    S
	   / \                  / \
	  L   R   ======>      L   R
	     /                    /
	    S                    X
	     \
	      X

The slot of Z is recycled, S survives with a new position.
If the removed color (Z's in r1, S's in r2) is black, X's path lost
a black node. (black-violation)
*/
func (tree *rbTree[K]) removeNode(z NodeID) {
	var (
		x, xParent   NodeID
		zn           = tree.node(z)
		removedColor = zn.color
	)

	if /* r1 */ zn.left == NilNodeID {
		x, xParent = zn.right, zn.parent
		tree.transplant(z, x)
	} else if /* r1 */ zn.right == NilNodeID {
		x, xParent = zn.left, zn.parent
		tree.transplant(z, x)
	} else /* r2 */ {
		zl, zr := zn.left, zn.right
		y := tree.minimum(zr)
		removedColor = tree.node(y).color
		x = tree.node(y).right
		if tree.node(y).parent == z {
			xParent = y
		} else {
			xParent = tree.node(y).parent
			tree.transplant(y, x)
			tree.node(y).right = zr
			tree.node(zr).parent = y
		}
		tree.transplant(z, y)
		tree.node(y).left = zl
		tree.node(zl).parent = y
		tree.node(y).color = tree.node(z).color
	}

	tree.arena.free(z)
	tree.count--

	if removedColor == Black {
		tree.removeRebalance(x, xParent)
	}
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries an extra black. X may be a NIL leaf, so its parent P is tracked
explicitly.
Sc is the sibling S's child on the same side as X (near nephew).
Sd is the sibling S's child on the opposite side of X (far nephew).

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
Repaint S into black, P into red, rotate P toward X.
Recompute S, enter rm2-rm4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Sibling S, nephew node Sc and Sd are black.
Repaint S into red to satisfy p4 locally, then move the extra black up to P.
If P is red, the loop stops and P is repainted black.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: Sibling S is black, nephew node Sc is red and Sd is black.
Repaint Sc into black, S into red, rotate S away from X.
Enter rm4 to fix.

	                        {P}
	  {P}                   / \
	  / \    r-rotate(S)  [X] [Sc]
	[X] [S]  ==========>        \
	    / \                     <S>
	  <Sc> [Sd]                   \
	                              [Sd]

rm4: Sibling S is black, nephew node Sd is red.
S takes P's color, P and Sd are repainted black, rotate P toward X.
The extra black is absorbed, stop.

	  {P}                   {S}
	  / \    l-rotate(P)    / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 {Sc} <Sd>          [X] {Sc}
*/
func (tree *rbTree[K]) removeRebalance(x, parent NodeID) {
	for x != tree.root && tree.isBlack(x) {
		dir := Left
		if tree.node(parent).left != x {
			dir = Right
		}

		sibling := tree.child(parent, dir.opposite())
		if /* rm1 */ tree.isRed(sibling) {
			tree.node(sibling).color = Black
			tree.node(parent).color = Red
			tree.rotate(parent, dir)
			sibling = tree.child(parent, dir.opposite())
		}

		sc, sd := tree.child(sibling, dir), tree.child(sibling, dir.opposite())
		if /* rm2 */ tree.isBlack(sc) && tree.isBlack(sd) {
			tree.node(sibling).color = Red
			x = parent
			parent = tree.node(x).parent
			continue
		}

		if /* rm3 */ tree.isBlack(sd) {
			tree.node(sc).color = Black
			tree.node(sibling).color = Red
			tree.rotate(sibling, dir.opposite())
			sibling = tree.child(parent, dir.opposite())
			sd = tree.child(sibling, dir.opposite())
		}

		/* rm4 */
		tree.node(sibling).color = tree.node(parent).color
		tree.node(parent).color = Black
		tree.node(sd).color = Black
		tree.rotate(parent, dir)
		x, parent = tree.root, NilNodeID
	}
	if x != NilNodeID {
		tree.node(x).color = Black
	}
}

// Remove deletes the key, a missing key reports ErrRBTreeNotFound and leaves
// the tree untouched.
func (tree *rbTree[K]) Remove(key K) error {
	z := tree.search(key)
	if z == NilNodeID {
		tree.stats.RecordRemove(false)
		return ErrRBTreeNotFound
	}
	tree.removeNode(z)
	tree.stats.RecordRemove(true)
	return nil
}

func (tree *rbTree[K]) RemoveMin() (RBNode[K], error) {
	if tree.count <= 0 {
		return nil, ErrRBTreeIsEmpty
	}
	z := tree.minimum(tree.root)
	res := tree.view(z)
	tree.removeNode(z)
	tree.stats.RecordRemove(true)
	return res, nil
}

func (tree *rbTree[K]) search(key K) NodeID {
	for aux := tree.root; aux != NilNodeID; {
		res := tree.kcmp(key, tree.node(aux).key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = tree.node(aux).right
		} else {
			aux = tree.node(aux).left
		}
	}
	return NilNodeID
}

func (tree *rbTree[K]) Search(key K) (RBNode[K], error) {
	if id := tree.search(key); id != NilNodeID {
		return tree.view(id), nil
	}
	return nil, ErrRBTreeNotFound
}

// Height counts the nodes on the longest root to NIL path.
func (tree *rbTree[K]) Height() int {
	height := 0
	tree.LevelOrder(func(visit RBVisit[K]) bool {
		height = max(height, visit.Depth+1)
		return true
	})
	return height
}

// BlackHeight counts the black nodes on any root to NIL path, the root
// included and the NIL leaf excluded. Uniform by p4, so the leftmost path
// is enough.
func (tree *rbTree[K]) BlackHeight() int {
	bh := 0
	for aux := tree.root; aux != NilNodeID; aux = tree.node(aux).left {
		if tree.isBlack(aux) {
			bh++
		}
	}
	return bh
}

func (tree *rbTree[K]) visit(id NodeID, depth int) RBVisit[K] {
	n := tree.node(id)
	return RBVisit[K]{
		ID:        id,
		Key:       n.key,
		Color:     n.color,
		Parent:    n.parent,
		Left:      n.left,
		Right:     n.right,
		Depth:     depth,
		Direction: tree.direction(id),
	}
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	aux := tree.root
	if tree.count <= 0 || aux == NilNodeID {
		return
	}

	stack := make([]NodeID, 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != NilNodeID; aux = tree.node(aux).left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if n := tree.node(aux); !action(idx, n.color, n.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = tree.node(aux).right; aux != NilNodeID; aux = tree.node(aux).left {
			stack = append(stack, aux)
		}
	}
}

// PreOrder visits node, left subtree, right subtree.
func (tree *rbTree[K]) PreOrder(action func(visit RBVisit[K]) bool) {
	if tree.root == NilNodeID {
		return
	}

	type frame struct {
		id    NodeID
		depth int
	}
	stack := make([]frame, 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, frame{id: tree.root})

	for size := len(stack); size > 0; size = len(stack) {
		top := stack[size-1]
		stack = stack[:size-1]
		v := tree.visit(top.id, top.depth)
		if !action(v) {
			return
		}
		if v.Right != NilNodeID {
			stack = append(stack, frame{id: v.Right, depth: top.depth + 1})
		}
		if v.Left != NilNodeID {
			stack = append(stack, frame{id: v.Left, depth: top.depth + 1})
		}
	}
}

// LevelOrder visits the nodes by BFS, left to right in each level.
func (tree *rbTree[K]) LevelOrder(action func(visit RBVisit[K]) bool) {
	if tree.root == NilNodeID {
		return
	}

	type frame struct {
		id    NodeID
		depth int
	}
	queue := make([]frame, 0, tree.count)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, frame{id: tree.root})

	for head := 0; head < len(queue); head++ {
		v := tree.visit(queue[head].id, queue[head].depth)
		if !action(v) {
			return
		}
		if v.Left != NilNodeID {
			queue = append(queue, frame{id: v.Left, depth: v.Depth + 1})
		}
		if v.Right != NilNodeID {
			queue = append(queue, frame{id: v.Right, depth: v.Depth + 1})
		}
	}
}

func (tree *rbTree[K]) Release() {
	tree.stats.RecordRelease(tree.count)
	tree.arena.reset()
	tree.root = NilNodeID
	tree.count = 0
}

type RBTreeOpt[K infra.OrderedKey] func(*rbTree[K])

func WithRBTreeDesc[K infra.OrderedKey]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.isDesc = true
	}
}

// WithRBTreeArenaCap pre-sizes the node arena.
func WithRBTreeArenaCap[K infra.OrderedKey](capacity int) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.arena = newRBArena[K](capacity)
	}
}

// WithRBTreeStats enables the otel instruments under the given name.
func WithRBTreeStats[K infra.OrderedKey](name string) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.statsName = name
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	tree := &rbTree[K]{
		count:  0,
		isDesc: false,
	}

	for _, o := range opts {
		if o != nil {
			o(tree)
		}
	}

	if tree.arena == nil {
		tree.arena = newRBArena[K](64)
	}
	tree.kcmp = infra.AscKeyComparator[K]
	if tree.isDesc {
		tree.kcmp = infra.DescKeyComparator[K]
	}
	if len(tree.statsName) > 0 {
		tree.stats = newRBTreeStats(tree.statsName)
	}
	return tree
}
