package tree

import (
	"github.com/benz9527/xbst/lib/infra"
)

type avlNode[K infra.OrderedKey] struct {
	left   *avlNode[K]
	right  *avlNode[K]
	key    K
	height int32
}

func (node *avlNode[K]) Key() K {
	return node.key
}

func (node *avlNode[K]) Left() BSTNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[K]) Right() BSTNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *avlNode[K]) Height() int {
	return int(avlHeight(node))
}

// The absent node has height 0, a leaf has height 1.
func avlHeight[K infra.OrderedKey](node *avlNode[K]) int32 {
	if node == nil {
		return 0
	}
	return node.height
}

func (node *avlNode[K]) fixHeight() {
	node.height = 1 + max(avlHeight(node.left), avlHeight(node.right))
}

func (node *avlNode[K]) balanceFactor() int32 {
	return avlHeight(node.left) - avlHeight(node.right)
}

// avlSignal is reported by a recursive insert step to its parent.
type avlSignal uint8

const (
	// The subtree height is unchanged, nothing to do upward.
	avlUnchanged avlSignal = iota
	// A rotation restored the subtree height, nothing to do upward.
	avlRebalanced
	avlGrewLeft
	avlGrewRight
	// A fresh leaf replaced an absent slot.
	avlGrewLeaf
)

func (s avlSignal) settled() bool {
	return s == avlUnchanged || s == avlRebalanced
}

// avlSelector picks the node a recursive delete is looking for.
type avlSelector uint8

const (
	avlSelectKey avlSelector = iota
	avlSelectMin
	avlSelectMax
)

func avlLinks[K infra.OrderedKey]() links[*avlNode[K], K] {
	return links[*avlNode[K], K]{
		none:  nil,
		left:  func(n *avlNode[K]) *avlNode[K] { return n.left },
		right: func(n *avlNode[K]) *avlNode[K] { return n.right },
		key:   func(n *avlNode[K]) K { return n.key },
	}
}

type avlTree[K infra.OrderedKey] struct {
	root      *avlNode[K]
	count     int64
	cmp       infra.OrderedKeyComparator[K]
	nav       links[*avlNode[K], K]
	stats     *treeStats
	isDesc    bool
	statsName string
}

func (tree *avlTree[K]) Len() int64 {
	return tree.count
}

func (tree *avlTree[K]) IsEmpty() bool {
	return tree.root == nil
}

func (tree *avlTree[K]) Root() BSTNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

/*
leftRotate lifts the right child Y over X and returns the new subtree root.

	  |                         |
	  X                         Y
	 / \     leftRotate(X)     / \
	L   Y    ============>    X   Yr
	   / \                   / \
	 Yl   Yr                L   Yl
*/
func (tree *avlTree[K]) leftRotate(x *avlNode[K]) *avlNode[K] {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avl] left rotate node x is nil or x.right is nil")
	}

	y := x.right
	x.right, y.left = y.left, x
	x.fixHeight()
	y.fixHeight()
	tree.stats.RecordRotation(Left)
	return y
}

/*
rightRotate lifts the left child Y over X and returns the new subtree root.

	     |                         |
	     X                         Y
	    / \     rightRotate(X)    / \
	   Y   R    ============>   Yl   X
	  / \                           / \
	Yl   Yr                       Yr   R
*/
func (tree *avlTree[K]) rightRotate(x *avlNode[K]) *avlNode[K] {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avl] right rotate node x is nil or x.left is nil")
	}

	y := x.left
	x.left, y.right = y.right, x
	x.fixHeight()
	y.fixHeight()
	tree.stats.RecordRotation(Right)
	return y
}

// Duplicated key is ignored.
func (tree *avlTree[K]) Insert(key K) {
	tree.insert(&tree.root, key)
}

/*
ai1: The child reports unchanged or rebalanced, pass it upward directly.

ai2: |bf| = 2 and the left grandchild side grew. (LL)

	    X             L
	   /             / \
	  L    ====>   LL   X
	 /
	LL

ai3: |bf| = 2 and the right side of the left child grew. (LR)
Left rotate L first, then enter ai2.

ai4, ai5: Mirror of ai2 and ai3. (RR, RL)

ai6: |bf| < 2 but the height changed, report the grown side.
*/
func (tree *avlTree[K]) insert(slot **avlNode[K], key K) avlSignal {
	x := *slot
	if x == nil {
		*slot = &avlNode[K]{
			key:    key,
			height: 1,
		}
		tree.count++
		tree.stats.IncreaseInsertCount()
		return avlGrewLeaf
	}

	var (
		sig  avlSignal
		side RBDirection
	)
	res := tree.cmp(key, x.key)
	if /* equal */ res == 0 {
		return avlUnchanged
	} else /* less */ if res < 0 {
		sig, side = tree.insert(&x.left, key), Left
	} else /* greater */ {
		sig, side = tree.insert(&x.right, key), Right
	}

	if /* ai1 */ sig.settled() {
		return sig
	}

	before := x.height
	x.fixHeight()
	switch bf := x.balanceFactor(); {
	case bf > 1:
		if /* ai3 */ sig == avlGrewRight {
			x.left = tree.leftRotate(x.left)
			tree.stats.RecordRebalance("LR")
		} else /* ai2 */ {
			tree.stats.RecordRebalance("LL")
		}
		*slot = tree.rightRotate(x)
		return avlRebalanced
	case bf < -1:
		if /* ai5 */ sig == avlGrewLeft {
			x.right = tree.rightRotate(x.right)
			tree.stats.RecordRebalance("RL")
		} else /* ai4 */ {
			tree.stats.RecordRebalance("RR")
		}
		*slot = tree.leftRotate(x)
		return avlRebalanced
	default:
	}

	if x.height == before {
		return avlUnchanged
	}
	if /* ai6 */ side == Left {
		return avlGrewLeft
	}
	return avlGrewRight
}

func (tree *avlTree[K]) Search(key K) bool {
	for aux := tree.root; aux != nil; {
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return true
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return false
}

func (tree *avlTree[K]) Height() int {
	return tree.nav.height(tree.root)
}

func (tree *avlTree[K]) LeafCount() int {
	return tree.nav.leaves(tree.root)
}

func (tree *avlTree[K]) Traverse(order TraverseOrder) []K {
	return tree.nav.traverse(tree.root, tree.count, order)
}

func (tree *avlTree[K]) Foreach(action func(idx int64, key K) bool) {
	tree.nav.foreach(tree.root, tree.count, func(idx int64, n *avlNode[K]) bool {
		return action(idx, n.key)
	})
}

// Min returns the first key in tree order.
// It is the greatest key if the tree is built with WithAVLTreeDesc.
func (tree *avlTree[K]) Min() (K, bool) {
	if tree.root == nil {
		var zero K
		return zero, false
	}
	return tree.nav.minimum(tree.root).key, true
}

// Max returns the last key in tree order.
func (tree *avlTree[K]) Max() (K, bool) {
	if tree.root == nil {
		var zero K
		return zero, false
	}
	return tree.nav.maximum(tree.root).key, true
}

// Release drops all nodes and stops the size gauge.
func (tree *avlTree[K]) Release() {
	tree.root = nil
	tree.count = 0
	tree.stats.Unregister()
}

type AVLTreeOpt[K infra.OrderedKey] func(*avlTree[K])

func WithAVLTreeDesc[K infra.OrderedKey]() AVLTreeOpt[K] {
	return func(tree *avlTree[K]) {
		tree.isDesc = true
	}
}

func WithAVLTreeStats[K infra.OrderedKey](name string) AVLTreeOpt[K] {
	return func(tree *avlTree[K]) {
		tree.statsName = name
	}
}

func NewAVLTree[K infra.OrderedKey](opts ...AVLTreeOpt[K]) AVLTree[K] {
	tree := &avlTree[K]{
		count:  0,
		isDesc: false,
		nav:    avlLinks[K](),
	}

	for _, o := range opts {
		o(tree)
	}

	tree.cmp = infra.AscOrderedKeyComparator[K]()
	if tree.isDesc {
		tree.cmp = infra.DescOrderedKeyComparator[K]()
	}
	if tree.statsName != "" {
		tree.stats = newTreeStats("avl", tree.statsName, tree.Len)
	}
	return tree
}
