package tree

/*
ad1: The node has two children. Borrow the key from the taller subtree.
The predecessor (max of left) is taken on equal heights, otherwise the
successor (min of right). The borrowed node is removed recursively.

	  X                  P
	 / \   swap(X, P)   / \
	L   R  =========>  L   R
	 \                  \
	  P                  X (removed)

ad2: The node has at most one child. Splice the child into the slot.

Every level on the way back up fixes its height and rebalances,
a rotation never stops the walk since delete may shrink the height.
*/
func (tree *avlTree[K]) delete(slot **avlNode[K], sel avlSelector, key K) (K, bool) {
	x := *slot
	if x == nil {
		var zero K
		return zero, false
	}

	var res int64
	switch sel {
	case avlSelectKey:
		res = tree.cmp(key, x.key)
	case avlSelectMin:
		if x.left != nil {
			res = -1
		}
	case avlSelectMax:
		if x.right != nil {
			res = 1
		}
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avl] unknown delete selector")
	}

	var (
		removed K
		found   bool
	)
	if res < 0 {
		removed, found = tree.delete(&x.left, sel, key)
	} else if res > 0 {
		removed, found = tree.delete(&x.right, sel, key)
	} else if /* ad1 */ x.left != nil && x.right != nil {
		removed, found = x.key, true
		if avlHeight(x.left) >= avlHeight(x.right) {
			x.key, _ = tree.delete(&x.left, avlSelectMax, key)
		} else {
			x.key, _ = tree.delete(&x.right, avlSelectMin, key)
		}
	} else /* ad2 */ {
		if x.left != nil {
			*slot = x.left
		} else {
			*slot = x.right
		}
		x.left, x.right = nil, nil
		tree.count--
		return x.key, true
	}

	*slot = tree.rebalance(x)
	return removed, found
}

// rebalance picks the single rotation when the grandchild heights tie.
func (tree *avlTree[K]) rebalance(x *avlNode[K]) *avlNode[K] {
	x.fixHeight()
	switch bf := x.balanceFactor(); {
	case bf > 1:
		if avlHeight(x.left.left) < avlHeight(x.left.right) {
			x.left = tree.leftRotate(x.left)
			tree.stats.RecordRebalance("LR")
		} else {
			tree.stats.RecordRebalance("LL")
		}
		return tree.rightRotate(x)
	case bf < -1:
		if avlHeight(x.right.right) < avlHeight(x.right.left) {
			x.right = tree.rightRotate(x.right)
			tree.stats.RecordRebalance("RL")
		} else {
			tree.stats.RecordRebalance("RR")
		}
		return tree.leftRotate(x)
	default:
	}
	return x
}

func (tree *avlTree[K]) Delete(key K) error {
	if tree.root == nil {
		return ErrEmptyTree
	}
	if _, found := tree.delete(&tree.root, avlSelectKey, key); !found {
		return ErrKeyNotFound
	}
	tree.stats.IncreaseDeleteCount()
	return nil
}

// DeleteMin removes the first key in tree order.
func (tree *avlTree[K]) DeleteMin() (K, error) {
	return tree.deleteBorder(avlSelectMin)
}

// DeleteMax removes the last key in tree order.
func (tree *avlTree[K]) DeleteMax() (K, error) {
	return tree.deleteBorder(avlSelectMax)
}

func (tree *avlTree[K]) deleteBorder(sel avlSelector) (K, error) {
	var zero K
	if tree.root == nil {
		return zero, ErrEmptyTree
	}
	key, _ := tree.delete(&tree.root, sel, zero)
	tree.stats.IncreaseDeleteCount()
	return key, nil
}

// Update always inserts newKey, even if oldKey is absent.
// The delete error is still reported.
func (tree *avlTree[K]) Update(oldKey, newKey K) error {
	err := tree.Delete(oldKey)
	tree.Insert(newKey)
	return err
}
