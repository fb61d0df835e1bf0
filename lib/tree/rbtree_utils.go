package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xbst/lib/infra"
)

func isBlack[K infra.OrderedKey](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K infra.OrderedKey](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

func isRoot[K infra.OrderedKey](node RBNode[K]) bool {
	return node != nil && node.Parent() == nil
}

func rbLeft[K infra.OrderedKey](node RBNode[K]) RBNode[K] {
	if l, ok := node.Left().(RBNode[K]); ok {
		return l
	}
	return nil
}

func rbRight[K infra.OrderedKey](node RBNode[K]) RBNode[K] {
	if r, ok := node.Right().(RBNode[K]); ok {
		return r
	}
	return nil
}

func blackDepthTo[K infra.OrderedKey](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	size := tree.Len()
	aux := tree.RBRoot()
	if size <= 0 || aux == nil {
		return nil
	}
	if isRed[K](aux) {
		return errors.New("rbtree red violation, root is red")
	}

	stack := make([]RBNode[K], 0, size>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = rbLeft[K](aux) {
		stack = append(stack, aux)
	}

	for top := len(stack); top > 0; top = len(stack) {
		if aux = stack[top-1]; isRed[K](aux) {
			if isRed[K](rbLeft[K](aux)) || isRed[K](rbRight[K](aux)) {
				return fmt.Errorf("rbtree red violation at key %v", aux.Key())
			}
		}

		stack = stack[:top-1]
		for aux = rbRight[K](aux); aux != nil; aux = rbLeft[K](aux) {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load all nodes with a nil leaf.
func bfsLeaves[K infra.OrderedKey](tree RBTree[K]) []RBNode[K] {
	size := tree.Len()
	aux := tree.RBRoot()
	if size <= 0 || aux == nil {
		return nil
	}

	leaves := make([]RBNode[K], 0, size>>1+1)
	queue := make([]RBNode[K], 0, size>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := rbLeft[K](aux), rbRight[K](aux)
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
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

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	leaves := bfsLeaves[K](tree)
	if leaves == nil {
		return nil
	}

	root := tree.RBRoot()
	blackDepth := blackDepthTo[K](leaves[0], root)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K](leaves[i], root); depth != blackDepth {
			return fmt.Errorf("rbtree black violation at key %v, black depth %d, expected %d",
				leaves[i].Key(), depth, blackDepth)
		}
	}
	return nil
}

// Every child must point back to its parent and the root has no parent.
func ParentLinkValidate[K infra.OrderedKey](tree RBTree[K]) error {
	root := tree.RBRoot()
	if root == nil {
		return nil
	}
	if !isRoot[K](root) {
		return errors.New("rbtree parent link violation, root has a parent")
	}

	queue := []RBNode[K]{root}
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		for _, child := range []RBNode[K]{rbLeft[K](aux), rbRight[K](aux)} {
			if child == nil {
				continue
			}
			if p := child.Parent(); p == nil || p.Key() != aux.Key() {
				return fmt.Errorf("rbtree parent link violation at key %v", child.Key())
			}
			queue = append(queue, child)
		}
	}
	return nil
}

var errRBNilTree = errors.New("rbtree is nil")

func ValidateRBTree[K infra.OrderedKey](tree RBTree[K]) error {
	if tree == nil {
		return errRBNilTree
	}
	return multierr.Combine(
		RedViolationValidate(tree),
		BlackViolationValidate(tree),
		ParentLinkValidate(tree),
		OrderViolationValidate[K](tree),
	)
}
