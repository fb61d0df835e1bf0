package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xbst/lib/infra"
)

// avl rule validation utilities.

func bstHeight[K infra.OrderedKey](node BSTNode[K]) int {
	if node == nil {
		return 0
	}
	return 1 + max(bstHeight(node.Left()), bstHeight(node.Right()))
}

// Postorder traversal to validate |height(left) - height(right)| <= 1.
func AVLBalanceViolationValidate[K infra.OrderedKey](tree AVLTree[K]) error {
	var walk func(node BSTNode[K]) (int, error)
	walk = func(node BSTNode[K]) (int, error) {
		if node == nil {
			return 0, nil
		}
		lh, err := walk(node.Left())
		if err != nil {
			return 0, err
		}
		rh, err := walk(node.Right())
		if err != nil {
			return 0, err
		}
		if bf := lh - rh; bf > 1 || bf < -1 {
			return 0, fmt.Errorf("avl balance violation at key %v, balance factor %d", node.Key(), bf)
		}
		return 1 + max(lh, rh), nil
	}
	_, err := walk(tree.Root())
	return err
}

type heightView interface {
	Height() int
}

// The cached height of every node must match the real subtree height.
func AVLHeightViolationValidate[K infra.OrderedKey](tree AVLTree[K]) error {
	var walk func(node BSTNode[K]) error
	walk = func(node BSTNode[K]) error {
		if node == nil {
			return nil
		}
		hv, ok := node.(heightView)
		if !ok {
			return nil
		}
		if actual := bstHeight(node); hv.Height() != actual {
			return fmt.Errorf("avl height violation at key %v, cached %d, real %d", node.Key(), hv.Height(), actual)
		}
		if err := walk(node.Left()); err != nil {
			return err
		}
		return walk(node.Right())
	}
	return walk(tree.Root())
}

// In-order keys must be strictly monotonic. The direction is taken from
// the first pair, so both ascending and descending trees pass.
func OrderViolationValidate[K infra.OrderedKey](tree OrderedSet[K]) error {
	keys := tree.Traverse(InOrder)
	if len(keys) < 2 {
		return nil
	}
	asc := keys[0] < keys[1]
	for i := 1; i < len(keys); i++ {
		prev, cur := keys[i-1], keys[i]
		if prev == cur || (prev < cur) != asc {
			return fmt.Errorf("bst order violation at index %d, key %v after %v", i, cur, prev)
		}
	}
	return nil
}

var errAVLNilTree = errors.New("avl tree is nil")

func ValidateAVLTree[K infra.OrderedKey](tree AVLTree[K]) error {
	if tree == nil {
		return errAVLNilTree
	}
	return multierr.Combine(
		AVLBalanceViolationValidate(tree),
		AVLHeightViolationValidate(tree),
		OrderViolationValidate[K](tree),
	)
}
