package broadphase

import (
	"fmt"

	"github.com/akmonengine/broadphase/actor"
)

// nullNode marks an absent parent, child, root or free-list link
const nullNode int32 = -1

// NodeID is the handle returned to callers. The generation changes every time
// the slot is released, so a handle kept after RemoveObject is reported as
// ErrInvalidHandle instead of silently addressing a recycled node.
type NodeID struct {
	index      int32
	generation uint32
}

// NullNode is the id of no node. It is never valid.
var NullNode = NodeID{index: nullNode}

func (id NodeID) Index() int32 {
	return id.index
}

func (id NodeID) Generation() uint32 {
	return id.generation
}

func (id NodeID) IsNull() bool {
	return id.index == nullNode
}

func (id NodeID) String() string {
	if id.IsNull() {
		return "NodeID(null)"
	}
	return fmt.Sprintf("NodeID(%d#%d)", id.index, id.generation)
}

// less orders ids by slot, then by generation
func (id NodeID) less(other NodeID) bool {
	if id.index != other.index {
		return id.index < other.index
	}
	return id.generation < other.generation
}

// LeafData is the opaque two-integer payload of a leaf
type LeafData struct {
	A, B int32
}

type nodeKind uint8

const (
	nodeFree nodeKind = iota
	nodeLeaf
	nodeInternal
)

func (k nodeKind) String() string {
	switch k {
	case nodeFree:
		return "free"
	case nodeLeaf:
		return "leaf"
	case nodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// node is one arena slot. kind decides which fields are meaningful:
//   - free: next
//   - leaf: parent, aabb (fat), data, pointer; height 0
//   - internal: parent, aabb (union of children), children, height >= 1
type node struct {
	kind       nodeKind
	generation uint32
	height     int32

	parent   int32
	next     int32
	children [2]int32

	aabb    actor.AABB
	data    LeafData
	pointer any
}

func (n *node) isLeaf() bool {
	return n.kind == nodeLeaf
}

// childIndex returns 0 or 1 depending on which slot of n holds child, or -1
func (n *node) childIndex(child int32) int {
	if n.children[0] == child {
		return 0
	}
	if n.children[1] == child {
		return 1
	}
	return -1
}
