package tree

import (
	randv2 "math/rand"
	"sort"
	"testing"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type checkData struct {
	color RBColor
	key   uint64
}

func rbtreeCheck(t *testing.T, tree *rbTree[uint64], expected []checkData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.nav.foreach(tree.root, tree.count, func(idx int64, h rbHandle) bool {
		require.Equal(t, expected[idx].color, tree.arena.at(h).color)
		require.Equal(t, expected[idx].key, tree.arena.at(h).key)
		return true
	})
	require.NoError(t, RedViolationValidate[uint64](tree))
	require.NoError(t, BlackViolationValidate[uint64](tree))
	require.NoError(t, ParentLinkValidate[uint64](tree))
}

func TestRBNilNode(t *testing.T) {
	var nilNode RBNode[uint64] = nil
	require.True(t, nilNode == nil)

	tree := newRBTree[uint64]()
	require.Nil(t, tree.Root())
	require.Nil(t, tree.RBRoot())
	require.True(t, tree.IsEmpty())
	require.Equal(t, 0, tree.Height())
	require.Equal(t, 0, tree.LeafCount())
	require.Empty(t, tree.Traverse(InOrder))
	require.ErrorIs(t, tree.Delete(1), ErrEmptyTree)
	_, err := tree.DeleteMin()
	require.ErrorIs(t, err, ErrEmptyTree)
	require.NoError(t, ValidateRBTree[uint64](tree))

	tree.Insert(1)
	root := tree.RBRoot()
	require.Nil(t, root.Left())
	require.Nil(t, root.Right())
	require.Nil(t, root.Parent())
	require.Equal(t, Black, root.Color())
}

func TestRbtreeLeftAndRightRotate_Pred(t *testing.T) {
	tree := newRBTree[uint64]()

	tree.Insert(52)
	rbtreeCheck(t, tree, []checkData{
		{Black, 52},
	})

	tree.Insert(47)
	rbtreeCheck(t, tree, []checkData{
		{Red, 47}, {Black, 52},
	})

	tree.Insert(3)
	rbtreeCheck(t, tree, []checkData{
		{Red, 3}, {Black, 47}, {Red, 52},
	})

	tree.Insert(35)
	rbtreeCheck(t, tree, []checkData{
		{Black, 3},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	tree.Insert(24)
	rbtreeCheck(t, tree, []checkData{
		{Red, 3},
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	// remove

	require.NoError(t, tree.Delete(24))
	rbtreeCheck(t, tree, []checkData{
		{Black, 3},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	require.NoError(t, tree.Delete(47))
	rbtreeCheck(t, tree, []checkData{
		{Black, 3},
		{Black, 35},
		{Black, 52},
	})

	require.NoError(t, tree.Delete(52))
	rbtreeCheck(t, tree, []checkData{
		{Red, 3}, {Black, 35},
	})

	require.NoError(t, tree.Delete(3))
	rbtreeCheck(t, tree, []checkData{
		{Black, 35},
	})

	require.NoError(t, tree.Delete(35))
	require.Equal(t, int64(0), tree.Len())
	require.True(t, tree.IsEmpty())
	require.ErrorIs(t, tree.Delete(35), ErrEmptyTree)
}

func TestRbtree_RemoveMin(t *testing.T) {
	tree := newRBTree[uint64]()

	tree.Insert(52)
	tree.Insert(47)
	tree.Insert(3)
	tree.Insert(35)
	tree.Insert(24)
	rbtreeCheck(t, tree, []checkData{
		{Red, 3},
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	// remove min

	x, err := tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(3), x)
	rbtreeCheck(t, tree, []checkData{
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(24), x)
	rbtreeCheck(t, tree, []checkData{
		{Black, 35},
		{Black, 47},
		{Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(35), x)
	rbtreeCheck(t, tree, []checkData{
		{Black, 47}, {Red, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(47), x)
	rbtreeCheck(t, tree, []checkData{
		{Black, 52},
	})

	x, err = tree.DeleteMin()
	require.NoError(t, err)
	require.Equal(t, uint64(52), x)
	require.Equal(t, int64(0), tree.Len())
}

func TestRbtreeDeleteFixupCases(t *testing.T) {
	type testcase struct {
		name     string
		inserts  []uint64
		removes  []uint64
		expected []checkData
	}
	testcases := []testcase{
		{
			name:    "black sibling with black nephews",
			inserts: []uint64{10, 20, 30, 40},
			removes: []uint64{40, 10},
			expected: []checkData{
				{Black, 20}, {Red, 30},
			},
		},
		{
			name:    "red sibling",
			inserts: []uint64{10, 20, 30, 40, 50, 60},
			removes: []uint64{10},
			expected: []checkData{
				{Black, 20}, {Red, 30}, {Black, 40}, {Black, 50}, {Red, 60},
			},
		},
		{
			name:    "right sibling with red left nephew",
			inserts: []uint64{10, 20, 30, 40, 50},
			removes: []uint64{10},
			expected: []checkData{
				{Black, 20}, {Black, 30}, {Black, 40}, {Red, 50},
			},
		},
		{
			name:    "right sibling with red right nephew",
			inserts: []uint64{10, 20, 30, 40},
			removes: []uint64{10},
			expected: []checkData{
				{Black, 20}, {Black, 30}, {Black, 40},
			},
		},
		{
			name:    "left sibling with red left nephew",
			inserts: []uint64{40, 30, 20, 10},
			removes: []uint64{40},
			expected: []checkData{
				{Black, 10}, {Black, 20}, {Black, 30},
			},
		},
		{
			name:    "left sibling with red right nephew",
			inserts: []uint64{40, 20, 50, 30},
			removes: []uint64{50},
			expected: []checkData{
				{Black, 20}, {Black, 30}, {Black, 40},
			},
		},
		{
			name:    "one child splice at root",
			inserts: []uint64{10, 20},
			removes: []uint64{10},
			expected: []checkData{
				{Black, 20},
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := newRBTree[uint64]()
			for _, k := range tc.inserts {
				tree.Insert(k)
			}
			for _, k := range tc.removes {
				require.NoError(tt, tree.Delete(k))
			}
			rbtreeCheck(tt, tree, tc.expected)
		})
	}
}

func TestRbtreeTraverse(t *testing.T) {
	tree := newRBTree[uint64]()
	for _, k := range []uint64{10, 20, 30, 40, 50, 25} {
		tree.Insert(k)
	}
	rbtreeCheck(t, tree, []checkData{
		{Black, 10}, {Black, 20}, {Red, 25}, {Black, 30}, {Red, 40}, {Black, 50},
	})
	require.Equal(t, []uint64{20, 10, 40, 30, 25, 50}, tree.Traverse(PreOrder))
	require.Equal(t, []uint64{10, 25, 30, 50, 40, 20}, tree.Traverse(PostOrder))
	require.Equal(t, 4, tree.Height())
	require.Equal(t, 3, tree.LeafCount())

	require.NoError(t, tree.Delete(40))
	rbtreeCheck(t, tree, []checkData{
		{Black, 10}, {Black, 20}, {Black, 25}, {Red, 30}, {Black, 50},
	})
	require.ErrorIs(t, tree.Delete(40), ErrKeyNotFound)

	minKey, ok := tree.Min()
	require.True(t, ok)
	require.Equal(t, uint64(10), minKey)
	maxKey, ok := tree.Max()
	require.True(t, ok)
	require.Equal(t, uint64(50), maxKey)
}

func TestRbtreeDuplicatedInsert(t *testing.T) {
	tree := newRBTree[uint64]()
	for _, k := range []uint64{5, 3, 8, 1, 4} {
		tree.Insert(k)
	}
	pre := tree.Traverse(PreOrder)
	height, leaves := tree.Height(), tree.LeafCount()
	for _, k := range []uint64{5, 3, 8, 1, 4} {
		tree.Insert(k)
	}
	require.Equal(t, pre, tree.Traverse(PreOrder))
	require.Equal(t, height, tree.Height())
	require.Equal(t, leaves, tree.LeafCount())
	require.Equal(t, int64(5), tree.Len())
}

func TestRbtreeArenaReuse(t *testing.T) {
	tree := newRBTree[uint64]()
	for i := uint64(1); i <= 100; i++ {
		tree.Insert(i)
	}
	slots := len(tree.arena.slots)
	for i := uint64(1); i <= 50; i++ {
		require.NoError(t, tree.Delete(i))
	}
	require.Len(t, tree.arena.free, 50)
	require.Equal(t, int64(50), tree.arena.allocated)
	for i := uint64(101); i <= 150; i++ {
		tree.Insert(i)
	}
	require.Empty(t, tree.arena.free)
	require.Equal(t, slots, len(tree.arena.slots))
	require.NoError(t, ValidateRBTree[uint64](tree))
}

func rbtreeRandomInsertAndRemoveSequentialNumberRunCore(t *testing.T, desc bool) {
	total := uint64(1000)
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	opts := make([]RBTreeOpt[uint64], 0, 1)
	if desc {
		opts = append(opts, WithRBTreeDesc[uint64]())
	}
	tree := newRBTree[uint64](opts...)

	expectedKey := func(idx int64, size uint64) uint64 {
		if desc {
			return size - 1 - uint64(idx)
		}
		return uint64(idx)
	}

	for i := uint64(0); i < insertTotal; i++ {
		tree.Insert(i)
		require.NoError(t, RedViolationValidate[uint64](tree))
		require.NoError(t, BlackViolationValidate[uint64](tree))
	}
	tree.Foreach(func(idx int64, key uint64) bool {
		require.Equal(t, expectedKey(idx, insertTotal), key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		tree.Insert(i)
		require.NoError(t, RedViolationValidate[uint64](tree))
		require.NoError(t, BlackViolationValidate[uint64](tree))
	}
	tree.Foreach(func(idx int64, key uint64) bool {
		require.Equal(t, expectedKey(idx, insertTotal+removeTotal), key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.True(t, tree.Search(i))
		require.NoError(t, tree.Delete(i))
		require.False(t, tree.Search(i))
		require.NoError(t, ValidateRBTree[uint64](tree))
	}
	tree.Foreach(func(idx int64, key uint64) bool {
		require.Equal(t, expectedKey(idx, insertTotal), key)
		return true
	})
}

func TestRbtreeRandomInsertAndRemove_SequentialNumber(t *testing.T) {
	type testcase struct {
		name string
		desc bool
	}
	testcases := []testcase{
		{
			name: "asc",
		},
		{
			name: "desc",
			desc: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveSequentialNumberRunCore(tt, tc.desc)
		})
	}
}

func TestRBTreeRandomInsertAndRemove_SequentialNumber_Release(t *testing.T) {
	insertTotal := uint64(100_000)

	tree := newRBTree[uint64]()

	rand := uint64(randv2.Uint32() % 1_000)
	for i := uint64(0); i < insertTotal; i++ {
		tree.Insert(i)
		if i%1000 == rand {
			require.NoError(t, RedViolationValidate[uint64](tree))
			require.NoError(t, BlackViolationValidate[uint64](tree))
		}
	}
	tree.Foreach(func(idx int64, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())

	tree.Insert(7)
	require.Equal(t, []uint64{7}, tree.Traverse(InOrder))
}

func rbtreeRandomInsertAndRemoveRunCore(t *testing.T, total int, violationCheck bool) {
	tree := newRBTree[uint64]()
	oracle := redblacktree.NewWith(func(a, b interface{}) int {
		x, y := a.(uint64), b.(uint64)
		if x == y {
			return 0
		} else if x < y {
			return -1
		}
		return 1
	})

	insertElements := make([]uint64, 0, total)
	for i := 0; i < total; i++ {
		insertElements = append(insertElements, randv2.Uint64()%uint64(total*4))
	}
	removeElements := lo.Samples(insertElements, total/4)

	for _, k := range insertElements {
		tree.Insert(k)
		oracle.Put(k, struct{}{})
		if violationCheck {
			require.NoError(t, RedViolationValidate[uint64](tree))
			require.NoError(t, BlackViolationValidate[uint64](tree))
		}
	}
	uniq := lo.Uniq(insertElements)
	sort.Slice(uniq, func(i, j int) bool {
		return uniq[i] < uniq[j]
	})
	require.Equal(t, uniq, tree.Traverse(InOrder))

	for _, k := range removeElements {
		_, found := oracle.Get(k)
		err := tree.Delete(k)
		if found {
			require.NoError(t, err)
			oracle.Remove(k)
		} else {
			require.ErrorIs(t, err, ErrKeyNotFound)
		}
		if violationCheck {
			require.NoError(t, ValidateRBTree[uint64](tree))
		}
	}
	expected := lo.Map(oracle.Keys(), func(k interface{}, _ int) uint64 {
		return k.(uint64)
	})
	require.Equal(t, expected, tree.Traverse(InOrder))
	require.Equal(t, int64(oracle.Size()), tree.Len())
	require.NoError(t, ValidateRBTree[uint64](tree))
}

func TestRbtreeRandomInsertAndRemove_RandomNumber(t *testing.T) {
	type testcase struct {
		name           string
		total          int
		violationCheck bool
	}
	testcases := []testcase{
		{
			name:  "random 200000",
			total: 200000,
		},
		{
			name:           "violation check random 5000",
			total:          5000,
			violationCheck: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveRunCore(tt, tc.total, tc.violationCheck)
		})
	}
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(i)
	}
}
