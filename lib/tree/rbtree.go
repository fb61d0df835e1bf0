package tree

import (
	"github.com/benz9527/xbst/lib/infra"
)

type rbTree[K infra.OrderedKey] struct {
	arena     *rbArena[K]
	root      rbHandle
	count     int64
	cmp       infra.OrderedKeyComparator[K]
	nav       links[rbHandle, K]
	stats     *treeStats
	isDesc    bool
	statsName string
}

func (tree *rbTree[K]) parentOf(h rbHandle) rbHandle {
	if h == rbNil {
		return rbNil
	}
	return tree.arena.at(h).parent
}

func (tree *rbTree[K]) leftOf(h rbHandle) rbHandle {
	if h == rbNil {
		return rbNil
	}
	return tree.arena.at(h).left
}

func (tree *rbTree[K]) rightOf(h rbHandle) rbHandle {
	if h == rbNil {
		return rbNil
	}
	return tree.arena.at(h).right
}

// All nil leaves are considered black.
func (tree *rbTree[K]) isRed(h rbHandle) bool {
	return h != rbNil && tree.arena.at(h).color == Red
}

func (tree *rbTree[K]) isBlack(h rbHandle) bool {
	return !tree.isRed(h)
}

func (tree *rbTree[K]) paint(h rbHandle, color RBColor) {
	if h == rbNil {
		return
	}
	tree.arena.at(h).color = color
}

func (tree *rbTree[K]) direction(h rbHandle) RBDirection {
	if h == rbNil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}

	p := tree.parentOf(h)
	if p == rbNil {
		return Root
	}
	if tree.leftOf(p) == h {
		return Left
	}
	return Right
}

func (tree *rbTree[K]) sibling(h rbHandle) rbHandle {
	switch dir := tree.direction(h); dir {
	case Left:
		return tree.rightOf(tree.parentOf(h))
	case Right:
		return tree.leftOf(tree.parentOf(h))
	default:
	}
	return rbNil
}

// link puts child into the dir slot of parent and rebinds the child's
// parent handle. Root direction replaces the tree root.
func (tree *rbTree[K]) link(parent rbHandle, dir RBDirection, child rbHandle) {
	switch dir {
	case Root:
		tree.root = child
	case Left:
		tree.arena.at(parent).left = child
	case Right:
		tree.arena.at(parent).right = child
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to link")
	}
	if child != rbNil {
		if dir == Root {
			parent = rbNil
		}
		tree.arena.at(child).parent = parent
	}
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) IsEmpty() bool {
	return tree.root == rbNil
}

func (tree *rbTree[K]) Root() BSTNode[K] {
	if tree.root == rbNil {
		return nil
	}
	return tree.view(tree.root)
}

func (tree *rbTree[K]) RBRoot() RBNode[K] {
	return tree.view(tree.root)
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
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.

/*
leftRotate lifts the right child S over X, relinking parents.

	  |                        |
	  X                        S
	 / \   leftRotate(X)      / \
	L   S  ============>     X   Sr
	   / \                  / \
	 Sl   Sr               L   Sl
*/
func (tree *rbTree[K]) leftRotate(x rbHandle) {
	y := tree.rightOf(x)
	if x == rbNil || y == rbNil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, dir := tree.parentOf(x), tree.direction(x)
	tree.link(x, Right, tree.leftOf(y))
	tree.link(y, Left, x)
	tree.link(p, dir, y)
	tree.stats.RecordRotation(Left)
}

/*
rightRotate lifts the left child S over X, relinking parents.

	     |                       |
	     X                       S
	    / \   rightRotate(X)    / \
	   S   R  =============>  Sl   X
	  / \                         / \
	Sl   Sr                      Sr   R
*/
func (tree *rbTree[K]) rightRotate(x rbHandle) {
	y := tree.leftOf(x)
	if x == rbNil || y == rbNil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, dir := tree.parentOf(x), tree.direction(x)
	tree.link(x, Left, tree.rightOf(y))
	tree.link(y, Right, x)
	tree.link(p, dir, y)
	tree.stats.RecordRotation(Right)
}

// search reports whether the key exists and the last node visited.
// The last node is the would-be parent if the key is absent.
func (tree *rbTree[K]) search(key K) (bool, rbHandle) {
	last := rbNil
	for aux := tree.root; aux != rbNil; {
		last = aux
		res := tree.cmp(key, tree.arena.at(aux).key)
		if res == 0 {
			return true, aux
		} else if res < 0 {
			aux = tree.leftOf(aux)
		} else {
			aux = tree.rightOf(aux)
		}
	}
	return false, last
}

func (tree *rbTree[K]) Search(key K) bool {
	found, _ := tree.search(key)
	return found
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
// Duplicated key is ignored.
func (tree *rbTree[K]) Insert(key K) {
	found, y := tree.search(key)
	if found {
		return
	}

	z := tree.arena.alloc(key)
	tree.count++
	tree.stats.IncreaseInsertCount()
	if /* i1 */ y == rbNil {
		tree.link(rbNil, Root, z)
		return
	}

	tree.arena.at(z).color = Red
	if tree.cmp(key, tree.arena.at(y).key) < 0 {
		tree.link(y, Left, z)
	} else {
		tree.link(y, Right, z)
	}
	tree.insertRebalance(z)
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black, nothing violated.

im2: Current node X's parent P is red and P is root, repaint P into black.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation may be still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K]) insertRebalance(x rbHandle) {
	for x != rbNil {
		p := tree.parentOf(x)
		if p == rbNil {
			tree.paint(x, Black)
			return
		}

		if /* im1 */ tree.isBlack(p) {
			return
		}

		g := tree.parentOf(p)
		if /* im2 */ g == rbNil {
			tree.paint(p, Black)
			return
		}

		if u := tree.sibling(p); /* im3 */ tree.isRed(u) {
			tree.paint(p, Black)
			tree.paint(u, Black)
			tree.paint(g, Red)
			tree.stats.RecordRebalance("rb.insert.recolor")
			x = g
			continue
		}

		dir, pdir := tree.direction(x), tree.direction(p)
		if /* im4 */ dir != pdir {
			switch dir {
			case Left:
				tree.rightRotate(p)
			case Right:
				tree.leftRotate(p)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] insert violate (im4)")
			}
			tree.stats.RecordRebalance("rb.insert.inner")
			x, p = p, x // enter im5 to fix
		}

		switch /* im5 */ pdir {
		case Left:
			tree.rightRotate(g)
		case Right:
			tree.leftRotate(g)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate (im5)")
		}
		tree.stats.RecordRebalance("rb.insert.outer")
		tree.paint(p, Black)
		tree.paint(g, Red)
		return
	}
}

func (tree *rbTree[K]) Delete(key K) error {
	if tree.root == rbNil {
		return ErrEmptyTree
	}
	found, v := tree.search(key)
	if !found {
		return ErrKeyNotFound
	}
	tree.deleteNode(v)
	tree.count--
	tree.stats.IncreaseDeleteCount()
	return nil
}

// DeleteMin removes the first key in tree order.
func (tree *rbTree[K]) DeleteMin() (K, error) {
	if tree.root == rbNil {
		var zero K
		return zero, ErrEmptyTree
	}
	v := tree.nav.minimum(tree.root)
	key := tree.arena.at(v).key
	tree.deleteNode(v)
	tree.count--
	tree.stats.IncreaseDeleteCount()
	return key, nil
}

// replacement is the in-order predecessor with two children, the only
// child with one, otherwise nil.
func (tree *rbTree[K]) replacement(v rbHandle) rbHandle {
	l, r := tree.leftOf(v), tree.rightOf(v)
	if l != rbNil && r != rbNil {
		return tree.nav.maximum(l)
	}
	if l != rbNil {
		return l
	}
	return r
}

/*
r1: V has no child. The root is removed directly. Otherwise fix the
double black first while V is still linked, then detach V.

r2: V has exactly one child U. Splice U into V's slot, then fix the double
black at U or repaint U into black.

r3: V has two children. Copy the predecessor's key into V, then remove the
predecessor, which has at most one child (enter r1 or r2).

Double black: V is black and U is absent or black.
*/
func (tree *rbTree[K]) deleteNode(v rbHandle) {
	u := tree.replacement(v)
	doubleBlack := tree.isBlack(v) && tree.isBlack(u)

	if /* r1 */ u == rbNil {
		if tree.parentOf(v) == rbNil {
			tree.root = rbNil
		} else {
			if doubleBlack {
				tree.adjustDoubleBlack(v)
			}
			tree.link(tree.parentOf(v), tree.direction(v), rbNil)
		}
		tree.arena.release(v)
		return
	}

	if /* r2 */ tree.leftOf(v) == rbNil || tree.rightOf(v) == rbNil {
		tree.link(tree.parentOf(v), tree.direction(v), u)
		tree.arena.release(v)
		if doubleBlack {
			tree.adjustDoubleBlack(u)
		} else {
			tree.paint(u, Black)
		}
		return
	}

	/* r3 */
	tree.arena.at(v).key = tree.arena.at(u).key
	tree.deleteNode(u)
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries an extra black. P is its parent, S its sibling.

rm1: X is the root, the extra black is dropped.

rm2: X has no sibling, push the extra black up to P.

rm3: S is red, so P and both nephews must be black. Repaint P into red,
S into black, rotate P towards X. X gets a black sibling, re-evaluate.

	  [P]                   [S]
	  / \    l-rotate(P)    / \
	[X] <S>  ==========>  <P> [Sd]
	    / \               / \
	 [Sc] [Sd]          [X] [Sc]

rm4: S is black with a red child, the left nephew is checked first.
(LL) S is left, S.left is red: S.left takes S's color, S takes P's color,
right rotate P.
(LR) S is left, S.right is red: S.right takes P's color, left rotate S,
right rotate P.
(RL) S is right, S.left is red: S.left takes P's color, right rotate S,
left rotate P.
(RR) S is right, S.right is red: S.right takes S's color, S takes P's
color, left rotate P.
Then P is painted black and the fix is done.

	  {P}                   {S}
	  / \    l-rotate(P)    / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 {Sc} <Sd>          [X] {Sc}

rm5: S and both nephews are black. Repaint S into red. A black P takes
the extra black and recurse, a red P is repainted into black and done.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]
*/
func (tree *rbTree[K]) adjustDoubleBlack(x rbHandle) {
	for {
		p := tree.parentOf(x)
		if /* rm1 */ p == rbNil {
			return
		}

		s := tree.sibling(x)
		if /* rm2 */ s == rbNil {
			x = p
			continue
		}

		if /* rm3 */ tree.isRed(s) {
			tree.paint(p, Red)
			tree.paint(s, Black)
			if tree.direction(s) == Right {
				tree.leftRotate(p)
			} else {
				tree.rightRotate(p)
			}
			tree.stats.RecordRebalance("rb.red-sibling")
			continue
		}

		sl, sr := tree.leftOf(s), tree.rightOf(s)
		if /* rm4 */ tree.isRed(sl) || tree.isRed(sr) {
			sdir := tree.direction(s)
			pColor := tree.arena.at(p).color
			if tree.isRed(sl) {
				if sdir == Left {
					tree.paint(sl, tree.arena.at(s).color)
					tree.paint(s, pColor)
					tree.rightRotate(p)
					tree.stats.RecordRebalance("rb.LL")
				} else {
					tree.paint(sl, pColor)
					tree.rightRotate(s)
					tree.leftRotate(p)
					tree.stats.RecordRebalance("rb.RL")
				}
			} else {
				if sdir == Left {
					tree.paint(sr, pColor)
					tree.leftRotate(s)
					tree.rightRotate(p)
					tree.stats.RecordRebalance("rb.LR")
				} else {
					tree.paint(sr, tree.arena.at(s).color)
					tree.paint(s, pColor)
					tree.leftRotate(p)
					tree.stats.RecordRebalance("rb.RR")
				}
			}
			tree.paint(p, Black)
			return
		}

		/* rm5 */
		tree.paint(s, Red)
		tree.stats.RecordRebalance("rb.black-sibling")
		if tree.isBlack(p) {
			x = p
			continue
		}
		tree.paint(p, Black)
		return
	}
}

func (tree *rbTree[K]) Height() int {
	return tree.nav.height(tree.root)
}

func (tree *rbTree[K]) LeafCount() int {
	return tree.nav.leaves(tree.root)
}

func (tree *rbTree[K]) Traverse(order TraverseOrder) []K {
	return tree.nav.traverse(tree.root, tree.count, order)
}

func (tree *rbTree[K]) Foreach(action func(idx int64, key K) bool) {
	tree.nav.foreach(tree.root, tree.count, func(idx int64, h rbHandle) bool {
		return action(idx, tree.arena.at(h).key)
	})
}

// Min returns the first key in tree order.
// It is the greatest key if the tree is built with WithRBTreeDesc.
func (tree *rbTree[K]) Min() (K, bool) {
	if tree.root == rbNil {
		var zero K
		return zero, false
	}
	return tree.arena.at(tree.nav.minimum(tree.root)).key, true
}

// Max returns the last key in tree order.
func (tree *rbTree[K]) Max() (K, bool) {
	if tree.root == rbNil {
		var zero K
		return zero, false
	}
	return tree.arena.at(tree.nav.maximum(tree.root)).key, true
}

// Release drops all nodes at once, the arena is kept for reuse.
// The size gauge is no longer reported afterwards.
func (tree *rbTree[K]) Release() {
	tree.root = rbNil
	tree.count = 0
	tree.arena.reset()
	tree.stats.Unregister()
}

type RBTreeOpt[K infra.OrderedKey] func(*rbTree[K])

func WithRBTreeDesc[K infra.OrderedKey]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.isDesc = true
	}
}

func WithRBTreeStats[K infra.OrderedKey](name string) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.statsName = name
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	return newRBTree[K](opts...)
}

func newRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) *rbTree[K] {
	tree := &rbTree[K]{
		arena:  newRBArena[K](16),
		count:  0,
		isDesc: false,
	}
	tree.nav = links[rbHandle, K]{
		none:  rbNil,
		left:  tree.leftOf,
		right: tree.rightOf,
		key: func(h rbHandle) K {
			return tree.arena.at(h).key
		},
	}

	for _, o := range opts {
		o(tree)
	}

	tree.cmp = infra.AscOrderedKeyComparator[K]()
	if tree.isDesc {
		tree.cmp = infra.DescOrderedKeyComparator[K]()
	}
	if tree.statsName != "" {
		tree.stats = newTreeStats("rb", tree.statsName, tree.Len)
	}
	return tree
}
