package tree

import (
	"github.com/samber/lo"

	"github.com/benz9527/xbst/lib/infra"
)

// links abstracts the child accessors of a binary tree node, so the
// pointer based AVL nodes and the arena based rbtree handles share the
// same traversal code.
type links[N comparable, K infra.OrderedKey] struct {
	none  N
	left  func(N) N
	right func(N) N
	key   func(N) K
}

func (l links[N, K]) isNone(n N) bool {
	return n == l.none
}

// Inorder traversal to implement the DFS.
func (l links[N, K]) foreach(root N, size int64, action func(idx int64, n N) bool) {
	if size <= 0 || l.isNone(root) {
		return
	}

	stack := make([]N, 0, size>>1+1)
	defer func() {
		clear(stack)
	}()

	aux := root
	for ; !l.isNone(aux); aux = l.left(aux) {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for top := len(stack); top > 0; top = len(stack) {
		if aux = stack[top-1]; !action(idx, aux) {
			return
		}
		idx++
		stack = stack[:top-1]
		for aux = l.right(aux); !l.isNone(aux); aux = l.left(aux) {
			stack = append(stack, aux)
		}
	}
}

// traverse returns a fresh slice on every call.
func (l links[N, K]) traverse(root N, size int64, order TraverseOrder) []K {
	if size <= 0 || l.isNone(root) {
		return []K{}
	}

	keys := make([]K, 0, size)
	switch order {
	case InOrder:
		l.foreach(root, size, func(_ int64, n N) bool {
			keys = append(keys, l.key(n))
			return true
		})
	case PreOrder, PostOrder:
		stack := make([]N, 0, size>>1+1)
		stack = append(stack, root)
		for top := len(stack); top > 0; top = len(stack) {
			aux := stack[top-1]
			stack = stack[:top-1]
			keys = append(keys, l.key(aux))
			first, second := l.right(aux), l.left(aux)
			if /* root, right, left then reversed */ order == PostOrder {
				first, second = second, first
			}
			if !l.isNone(first) {
				stack = append(stack, first)
			}
			if !l.isNone(second) {
				stack = append(stack, second)
			}
		}
		clear(stack)
		if order == PostOrder {
			keys = lo.Reverse(keys)
		}
	default:
		// impossible run to here
		panic( /* debug assertion */ "[tree] unknown traverse order")
	}
	return keys
}

func (l links[N, K]) height(n N) int {
	if l.isNone(n) {
		return 0
	}
	return 1 + max(l.height(l.left(n)), l.height(l.right(n)))
}

// leaves counts the nodes without any child.
func (l links[N, K]) leaves(n N) int {
	if l.isNone(n) {
		return 0
	}
	left, right := l.left(n), l.right(n)
	if l.isNone(left) && l.isNone(right) {
		return 1
	}
	return l.leaves(left) + l.leaves(right)
}

func (l links[N, K]) minimum(n N) N {
	aux := n
	for ; !l.isNone(aux) && !l.isNone(l.left(aux)); aux = l.left(aux) {
	}
	return aux
}

func (l links[N, K]) maximum(n N) N {
	aux := n
	for ; !l.isNone(aux) && !l.isNone(l.right(aux)); aux = l.right(aux) {
	}
	return aux
}
