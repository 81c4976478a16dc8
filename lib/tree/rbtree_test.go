package tree

import (
	"math"
	mrand "math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

type checkData struct {
	color RBColor
	key   uint64
}

func requireInorder(t *testing.T, tree RBTree[uint64], expected []checkData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		require.Equal(t, expected[idx].color, color, "key %d", key)
		require.Equal(t, expected[idx].key, key)
		return true
	})
	require.NoError(t, Validate(tree))
}

func collectKeys[K infra.OrderedKey](tree RBTree[K]) []K {
	keys := make([]K, 0, tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key K) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func collectPreOrder(tree RBTree[uint64]) []RBVisit[uint64] {
	visits := make([]RBVisit[uint64], 0, tree.Len())
	tree.PreOrder(func(visit RBVisit[uint64]) bool {
		visits = append(visits, visit)
		return true
	})
	return visits
}

func TestNilNode(t *testing.T) {
	tree := NewRBTree[uint64]()
	require.Nil(t, tree.Root())
	require.Nil(t, tree.Min())
	require.Nil(t, tree.Max())
	require.Equal(t, 0, tree.Height())
	require.Equal(t, 0, tree.BlackHeight())
	require.NoError(t, Validate(tree))

	x, err := tree.Search(1)
	require.ErrorIs(t, err, ErrRBTreeNotFound)
	require.Nil(t, x)

	x, err = tree.RemoveMin()
	require.ErrorIs(t, err, ErrRBTreeIsEmpty)
	require.Nil(t, x)

	tree.PreOrder(func(visit RBVisit[uint64]) bool {
		t.Fatal("empty tree must not be visited")
		return true
	})
}

func TestRbtree_InsertLeftRotateAtRoot(t *testing.T) {
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{10, 20, 30} {
		require.NoError(t, tree.Insert(key))
	}
	requireInorder(t, tree, []checkData{
		{Red, 10}, {Black, 20}, {Red, 30},
	})

	root := tree.Root()
	require.Equal(t, uint64(20), root.Key())
	require.Equal(t, Black, root.Color())
	require.Equal(t, NodeID(2), root.ID())

	visits := make([]RBVisit[uint64], 0, 3)
	tree.LevelOrder(func(visit RBVisit[uint64]) bool {
		visits = append(visits, visit)
		return true
	})
	require.Equal(t, []RBVisit[uint64]{
		{Key: 20, ID: 2, Parent: NilNodeID, Left: 1, Right: 3, Depth: 0, Color: Black, Direction: Root},
		{Key: 10, ID: 1, Parent: 2, Left: NilNodeID, Right: NilNodeID, Depth: 1, Color: Red, Direction: Left},
		{Key: 30, ID: 3, Parent: 2, Left: NilNodeID, Right: NilNodeID, Depth: 1, Color: Red, Direction: Right},
	}, visits)
}

func TestRbtree_InsertThenRemoveRoot(t *testing.T) {
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{10, 20, 30, 15} {
		require.NoError(t, tree.Insert(key))
	}
	requireInorder(t, tree, []checkData{
		{Black, 10}, {Red, 15}, {Black, 20}, {Black, 30},
	})

	require.NoError(t, tree.Insert(5))
	require.NoError(t, tree.Insert(1))
	requireInorder(t, tree, []checkData{
		{Red, 1}, {Black, 5}, {Red, 10}, {Black, 15}, {Black, 20}, {Black, 30},
	})

	require.NoError(t, tree.Remove(20))
	requireInorder(t, tree, []checkData{
		{Red, 1}, {Black, 5}, {Black, 10}, {Red, 15}, {Black, 30},
	})
	require.Equal(t, uint64(10), tree.Root().Key())
	require.Equal(t, Black, tree.Root().Color())
	require.Equal(t, 2, tree.BlackHeight())

	// The slot of 20 is recycled.
	require.NoError(t, tree.Insert(40))
	x, err := tree.Search(40)
	require.NoError(t, err)
	require.Equal(t, NodeID(2), x.ID())
	require.NoError(t, Validate(tree))
}

func TestRbtreeLeftAndRightRotate_Succ(t *testing.T) {
	tree := NewRBTree[uint64]()

	require.NoError(t, tree.Insert(52))
	requireInorder(t, tree, []checkData{{Black, 52}})

	require.NoError(t, tree.Insert(47))
	requireInorder(t, tree, []checkData{{Red, 47}, {Black, 52}})

	require.NoError(t, tree.Insert(3))
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 47}, {Red, 52}})

	require.NoError(t, tree.Insert(35))
	requireInorder(t, tree, []checkData{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}})

	require.NoError(t, tree.Insert(24))
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}})

	// remove

	require.NoError(t, tree.Remove(24))
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52}})

	require.NoError(t, tree.Remove(47))
	requireInorder(t, tree, []checkData{{Black, 3}, {Black, 35}, {Black, 52}})

	require.NoError(t, tree.Remove(52))
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 35}})

	require.NoError(t, tree.Remove(3))
	requireInorder(t, tree, []checkData{{Black, 35}})

	require.NoError(t, tree.Remove(35))
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
}

func TestRbtree_RemoveMin(t *testing.T) {
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{52, 47, 3, 35, 24} {
		require.NoError(t, tree.Insert(key))
	}
	require.Equal(t, uint64(3), tree.Min().Key())
	require.Equal(t, uint64(52), tree.Max().Key())

	expected := [][]checkData{
		{{Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}},
		{{Black, 35}, {Black, 47}, {Black, 52}},
		{{Black, 47}, {Red, 52}},
		{{Black, 52}},
		{},
	}
	for i, key := range []uint64{3, 24, 35, 47, 52} {
		x, err := tree.RemoveMin()
		require.NoError(t, err)
		require.Equal(t, key, x.Key())
		requireInorder(t, tree, expected[i])
	}
	require.Nil(t, tree.Root())
}

func TestRbtree_DuplicateAndNotFoundKeepTree(t *testing.T) {
	tree := NewRBTree[uint64]()
	for i := uint64(0); i < 64; i++ {
		require.NoError(t, tree.Insert(i*3))
	}
	before := collectPreOrder(tree)

	for i := uint64(0); i < 64; i++ {
		require.ErrorIs(t, tree.Insert(i*3), ErrRBTreeDuplicateKey)
		require.ErrorIs(t, tree.Remove(i*3+1), ErrRBTreeNotFound)
		_, err := tree.Search(i*3 + 2)
		require.ErrorIs(t, err, ErrRBTreeNotFound)
	}
	require.Equal(t, before, collectPreOrder(tree))
	require.Equal(t, int64(64), tree.Len())
	require.NoError(t, Validate(tree))
}

func TestRbtree_SearchReadOnlyHandle(t *testing.T) {
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{8, 4, 12, 2, 6} {
		require.NoError(t, tree.Insert(key))
	}
	x, err := tree.Search(6)
	require.NoError(t, err)
	require.Equal(t, uint64(6), x.Key())
	require.Equal(t, Red, x.Color())

	// The handle is a snapshot, later rebalancing does not leak into it.
	require.NoError(t, tree.Insert(5))
	require.Equal(t, Red, x.Color())
	y, err := tree.Search(6)
	require.NoError(t, err)
	require.Equal(t, x.ID(), y.ID())
	require.Equal(t, Black, y.Color())
}

func TestRbtree_Rotate(t *testing.T) {
	tree := NewRBTree[uint64]().(*rbTree[uint64])
	for _, key := range []uint64{20, 10, 30, 25, 35} {
		require.NoError(t, tree.Insert(key))
	}
	root := tree.root
	right := tree.node(root).right

	tree.leftRotate(root)
	require.Equal(t, right, tree.root)
	require.Equal(t, root, tree.node(right).left)
	require.Equal(t, right, tree.node(root).parent)
	require.Equal(t, uint64(25), tree.node(tree.node(root).right).key)
	require.NoError(t, LinkViolationValidate[uint64](tree))
	require.NoError(t, OrderViolationValidate[uint64](tree))

	tree.rightRotate(right)
	require.Equal(t, root, tree.root)
	require.Equal(t, NilNodeID, tree.node(root).parent)
	require.NoError(t, LinkViolationValidate[uint64](tree))
	require.NoError(t, Validate[uint64](tree))

	leaf := tree.node(tree.node(root).left)
	require.Equal(t, uint64(10), leaf.key)
	require.Panics(t, func() {
		tree.leftRotate(tree.node(root).left)
	})
	require.Panics(t, func() {
		tree.rightRotate(tree.node(root).left)
	})
}

func rbtreeRandomInsertAndRemoveRunCore(t *testing.T, total int, violationCheck bool, opts ...RBTreeOpt[uint64]) {
	tree := NewRBTree[uint64](opts...)
	keys := make([]uint64, 0, total)
	for _, i := range mrand.Perm(total) {
		keys = append(keys, uint64(i)*7+1)
	}

	for i, key := range keys {
		require.NoError(t, tree.Insert(key))
		if violationCheck {
			require.NoError(t, Validate(tree))
		}
		n := float64(i + 1)
		require.LessOrEqual(t, float64(tree.Height()), 2*math.Log2(n+1))
	}

	removed := make(map[uint64]struct{}, total/2)
	for _, i := range mrand.Perm(total)[:total/2] {
		require.NoError(t, tree.Remove(keys[i]))
		removed[keys[i]] = struct{}{}
		if violationCheck {
			require.NoError(t, Validate(tree))
		}
	}

	expected := make([]uint64, 0, total-len(removed))
	for _, key := range keys {
		if _, ok := removed[key]; !ok {
			expected = append(expected, key)
		}
	}
	sort.Slice(expected, func(i, j int) bool {
		return expected[i] < expected[j]
	})
	if tree.(*rbTree[uint64]).isDesc {
		sort.Slice(expected, func(i, j int) bool {
			return expected[i] > expected[j]
		})
	}
	require.Equal(t, expected, collectKeys(tree))
	require.NoError(t, Validate(tree))
	require.LessOrEqual(t, float64(tree.Height()), 2*math.Log2(float64(tree.Len())+1))

	for _, key := range expected {
		require.NoError(t, tree.Remove(key))
	}
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.Equal(t, 0, tree.(*rbTree[uint64]).arena.live())
}

func TestRbtreeRandomInsertAndRemove(t *testing.T) {
	type testcase struct {
		name           string
		total          int
		violationCheck bool
		opts           []RBTreeOpt[uint64]
	}
	testcases := []testcase{
		{
			name:           "violation check 1000",
			total:          1000,
			violationCheck: true,
		},
		{
			name:           "violation check desc 1000",
			total:          1000,
			violationCheck: true,
			opts:           []RBTreeOpt[uint64]{WithRBTreeDesc[uint64]()},
		},
		{
			name:  "arena cap 100000",
			total: 100000,
			opts:  []RBTreeOpt[uint64]{WithRBTreeArenaCap[uint64](100000)},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveRunCore(tt, tc.total, tc.violationCheck, tc.opts...)
		})
	}
}

func TestRbtreeInsertAndRemove_SequentialNumber(t *testing.T) {
	tree := NewRBTree[int64](WithRBTreeDesc[int64]())
	for i := int64(0); i < 2000; i++ {
		require.NoError(t, tree.Insert(i))
	}
	require.NoError(t, Validate(tree))
	keys := collectKeys(tree)
	for i, key := range keys {
		require.Equal(t, int64(1999-i), key)
	}

	for i := int64(0); i < 2000; i += 2 {
		require.NoError(t, tree.Remove(i))
	}
	require.NoError(t, Validate(tree))
	require.Equal(t, int64(1000), tree.Len())
	require.Equal(t, int64(1999), tree.Min().Key())
	require.Equal(t, int64(1), tree.Max().Key())
}

func TestRbtree_FloatKeys(t *testing.T) {
	tree := NewRBTree[float64]()
	for _, key := range []float64{1.5, -2, 0, 3.25, math.Inf(1), math.Inf(-1)} {
		require.NoError(t, tree.Insert(key))
	}
	require.ErrorIs(t, tree.Insert(0), ErrRBTreeDuplicateKey)
	require.Equal(t, []float64{math.Inf(-1), -2, 0, 1.5, 3.25, math.Inf(1)}, collectKeys(tree))
	require.NoError(t, Validate(tree))
}

func TestRbtree_WalkEarlyStop(t *testing.T) {
	tree := NewRBTree[uint64]()
	for i := uint64(1); i <= 31; i++ {
		require.NoError(t, tree.Insert(i))
	}
	count := 0
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		count++
		return idx < 4
	})
	require.Equal(t, 5, count)

	count = 0
	tree.PreOrder(func(visit RBVisit[uint64]) bool {
		count++
		return visit.Depth < 2
	})
	require.Equal(t, 3, count)

	depths := make([]int, 0, 31)
	tree.LevelOrder(func(visit RBVisit[uint64]) bool {
		depths = append(depths, visit.Depth)
		return true
	})
	require.True(t, sort.IntsAreSorted(depths))
	require.Equal(t, tree.Height(), depths[len(depths)-1]+1)
}

func TestRBTree_Release(t *testing.T) {
	tree := NewRBTree[uint64]()
	rand := uint64(mrand.Uint32() % 1_000)
	for i := uint64(0); i < 10_000; i++ {
		require.NoError(t, tree.Insert(i))
		if i%1000 == rand {
			require.NoError(t, RedViolationValidate(tree))
			require.NoError(t, BlackViolationValidate(tree))
		}
	}
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())

	require.NoError(t, tree.Insert(7))
	require.Equal(t, NodeID(1), tree.Root().ID())
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, mrand.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	tree := NewRBTree[int]()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(i)
	}
}
