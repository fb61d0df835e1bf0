package tree

import (
	"errors"

	"github.com/benz9527/xbst/lib/infra"
)

var (
	ErrKeyNotFound = errors.New("[tree] key not found")
	ErrEmptyTree   = errors.New("[tree] empty tree")
)

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (d RBDirection) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

type TraverseOrder uint8

const (
	PreOrder TraverseOrder = iota
	InOrder
	PostOrder
)

func (o TraverseOrder) String() string {
	switch o {
	case PreOrder:
		return "PreOrder"
	case InOrder:
		return "InOrder"
	case PostOrder:
		return "PostOrder"
	default:
	}
	return "Unknown"
}

// BSTNode is a read-only view of a tree node.
// Absent children are reported as nil interfaces.
type BSTNode[K infra.OrderedKey] interface {
	Key() K
	Left() BSTNode[K]
	Right() BSTNode[K]
}

type RBNode[K infra.OrderedKey] interface {
	BSTNode[K]
	Color() RBColor
	Parent() RBNode[K]
}

// OrderedSet is the contract shared by the AVL and the red-black engine.
// Neither implementation is safe for concurrent use.
type OrderedSet[K infra.OrderedKey] interface {
	Len() int64
	IsEmpty() bool
	Root() BSTNode[K]
	// Insert ignores duplicated keys.
	Insert(key K)
	Delete(key K) error
	Search(key K) bool
	Height() int
	LeafCount() int
	Traverse(order TraverseOrder) []K
	Foreach(action func(idx int64, key K) bool)
}

type AVLTree[K infra.OrderedKey] interface {
	OrderedSet[K]
	Min() (K, bool)
	Max() (K, bool)
	DeleteMin() (K, error)
	DeleteMax() (K, error)
	// Update deletes oldKey then inserts newKey. If newKey is already
	// present the set shrinks by one.
	Update(oldKey, newKey K) error
	Release()
}

type RBTree[K infra.OrderedKey] interface {
	OrderedSet[K]
	RBRoot() RBNode[K]
	Min() (K, bool)
	Max() (K, bool)
	DeleteMin() (K, error)
	Release()
}
