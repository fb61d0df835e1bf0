package tree

import (
	"github.com/benz9527/xbst/lib/infra"
)

// rbHandle is the index of a node inside the arena.
// The zero handle is the nil leaf.
type rbHandle uint32

const rbNil rbHandle = 0

type rbSlot[K infra.OrderedKey] struct {
	parent rbHandle
	left   rbHandle
	right  rbHandle
	key    K
	color  RBColor
}

// rbArena owns every node of one rbtree. Parent, left and right are plain
// handles, so the parent relation never keeps a node alive.
// Released slots are chained in a free list and reused by later allocs.
type rbArena[K infra.OrderedKey] struct {
	slots     []rbSlot[K]
	free      []rbHandle
	allocated int64
}

func newRBArena[K infra.OrderedKey](capacity int) *rbArena[K] {
	arena := &rbArena[K]{
		slots: make([]rbSlot[K], 1, capacity+1),
		free:  make([]rbHandle, 0, capacity>>2),
	}
	return arena
}

// A slot pointer must not be kept across alloc, the slots may move.
func (arena *rbArena[K]) at(h rbHandle) *rbSlot[K] {
	if h == rbNil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] access the nil leaf slot")
	}
	return &arena.slots[h]
}

// New slots are black by default.
func (arena *rbArena[K]) alloc(key K) rbHandle {
	arena.allocated++
	if size := len(arena.free); size > 0 {
		h := arena.free[size-1]
		arena.free = arena.free[:size-1]
		arena.slots[h] = rbSlot[K]{key: key}
		return h
	}
	arena.slots = append(arena.slots, rbSlot[K]{key: key})
	return rbHandle(len(arena.slots) - 1)
}

func (arena *rbArena[K]) release(h rbHandle) {
	if h == rbNil {
		return
	}
	arena.slots[h] = rbSlot[K]{}
	arena.free = append(arena.free, h)
	arena.allocated--
}

func (arena *rbArena[K]) reset() {
	clear(arena.slots)
	arena.slots = arena.slots[:1]
	arena.free = arena.free[:0]
	arena.allocated = 0
}

// rbNodeView exposes a slot as a read-only RBNode.
type rbNodeView[K infra.OrderedKey] struct {
	tree *rbTree[K]
	h    rbHandle
}

func (tree *rbTree[K]) view(h rbHandle) RBNode[K] {
	if h == rbNil {
		return nil
	}
	return rbNodeView[K]{tree: tree, h: h}
}

func (node rbNodeView[K]) Key() K {
	return node.tree.arena.at(node.h).key
}

func (node rbNodeView[K]) Color() RBColor {
	return node.tree.arena.at(node.h).color
}

func (node rbNodeView[K]) Left() BSTNode[K] {
	if l := node.tree.arena.at(node.h).left; l != rbNil {
		return node.tree.view(l)
	}
	return nil
}

func (node rbNodeView[K]) Right() BSTNode[K] {
	if r := node.tree.arena.at(node.h).right; r != rbNil {
		return node.tree.view(r)
	}
	return nil
}

func (node rbNodeView[K]) Parent() RBNode[K] {
	return node.tree.view(node.tree.arena.at(node.h).parent)
}
