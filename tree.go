package broadphase

import (
	"fmt"

	"github.com/akmonengine/broadphase/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// Tree is a dynamic AABB tree: a self-balancing bounding volume hierarchy whose
// leaves hold a fat AABB and an opaque payload.
//
// Nodes live in an arena and reference each other by index, so the arena can
// grow without invalidating handles. Leaves store their tight AABB inflated by
// FatInflatePercentage, which lets small motions be absorbed by UpdateObject
// without touching the structure.
//
// A Tree is not safe for concurrent use. Read-only queries may run in parallel
// as long as no mutating call overlaps them.
type Tree struct {
	arena arena
	root  int32

	leafCount      int
	insertionCount int

	fatInflatePercentage float64
	logger               logrus.FieldLogger
}

// NewTree creates an empty tree. Zero fields of config take their default value.
func NewTree(config Config) *Tree {
	config = config.withDefaults()

	return &Tree{
		arena:                newArena(config.InitialCapacity, config.MaxCapacity, config.Logger),
		root:                 nullNode,
		fatInflatePercentage: config.FatInflatePercentage,
		logger:               config.Logger,
	}
}

// AddObject inserts a leaf carrying two integers and returns its handle
func (t *Tree) AddObject(aabb actor.AABB, a, b int32) (NodeID, error) {
	leaf, err := t.addLeaf(aabb)
	if err != nil {
		return NullNode, err
	}
	t.arena.nodes[leaf].data = LeafData{A: a, B: b}

	return t.handle(leaf), nil
}

// AddObjectPointer inserts a leaf carrying an arbitrary value. The tree never
// inspects the value.
func (t *Tree) AddObjectPointer(aabb actor.AABB, data any) (NodeID, error) {
	leaf, err := t.addLeaf(aabb)
	if err != nil {
		return NullNode, err
	}
	t.arena.nodes[leaf].pointer = data

	return t.handle(leaf), nil
}

func (t *Tree) addLeaf(aabb actor.AABB) (int32, error) {
	if !aabb.IsValid() {
		return nullNode, fmt.Errorf("adding object %v: %w", aabb, ErrInvalidAABB)
	}

	leaf, err := t.arena.allocate()
	if err != nil {
		return nullNode, fmt.Errorf("allocating leaf: %w", err)
	}
	t.arena.nodes[leaf].aabb = aabb.Fatten(t.fatInflatePercentage)

	if err := t.insertLeaf(leaf); err != nil {
		t.arena.release(leaf)
		return nullNode, fmt.Errorf("inserting leaf: %w", err)
	}
	t.leafCount++

	return leaf, nil
}

// RemoveObject detaches the leaf and releases its slot. The handle, and any
// copy of it, becomes invalid.
func (t *Tree) RemoveObject(id NodeID) error {
	leaf, err := t.resolveLeaf(id)
	if err != nil {
		return fmt.Errorf("removing %v: %w", id, err)
	}

	t.removeLeaf(leaf)
	t.arena.release(leaf)
	t.leafCount--

	return nil
}

// UpdateObject moves a leaf to a new tight AABB. When the current fat AABB
// already contains it and forceReinsert is false nothing happens and false is
// returned. Otherwise the leaf is re-fattened and reinserted, keeping its
// handle, and true is returned.
func (t *Tree) UpdateObject(id NodeID, aabb actor.AABB, forceReinsert bool) (bool, error) {
	leaf, err := t.resolveLeaf(id)
	if err != nil {
		return false, fmt.Errorf("updating %v: %w", id, err)
	}
	if !aabb.IsValid() {
		return false, fmt.Errorf("updating %v to %v: %w", id, aabb, ErrInvalidAABB)
	}

	if !forceReinsert && t.arena.nodes[leaf].aabb.Contains(aabb) {
		return false, nil
	}

	t.removeLeaf(leaf)
	t.arena.nodes[leaf].aabb = aabb.Fatten(t.fatInflatePercentage)

	// The removal released the old parent, so the reinsertion never needs to grow
	if err := t.insertLeaf(leaf); err != nil {
		t.arena.release(leaf)
		t.leafCount--
		return false, fmt.Errorf("reinserting %v: %w", id, err)
	}

	return true, nil
}

// GetFatAABB returns the stored AABB of any live node: the fat box of a leaf,
// or the union of the children of an internal node
func (t *Tree) GetFatAABB(id NodeID) (actor.AABB, error) {
	index, err := t.resolve(id)
	if err != nil {
		return actor.AABB{}, err
	}
	return t.arena.nodes[index].aabb, nil
}

// GetLeafData returns the integer payload given to AddObject
func (t *Tree) GetLeafData(id NodeID) (int32, int32, error) {
	leaf, err := t.resolveLeaf(id)
	if err != nil {
		return 0, 0, err
	}
	data := t.arena.nodes[leaf].data
	return data.A, data.B, nil
}

// GetLeafPointer returns the value given to AddObjectPointer, nil for integer leaves
func (t *Tree) GetLeafPointer(id NodeID) (any, error) {
	leaf, err := t.resolveLeaf(id)
	if err != nil {
		return nil, err
	}
	return t.arena.nodes[leaf].pointer, nil
}

// IsLeaf reports whether id is a live leaf
func (t *Tree) IsLeaf(id NodeID) (bool, error) {
	index, err := t.resolve(id)
	if err != nil {
		return false, err
	}
	return t.arena.nodes[index].isLeaf(), nil
}

// Root returns the root handle, NullNode for an empty tree
func (t *Tree) Root() NodeID {
	if t.root == nullNode {
		return NullNode
	}
	return t.handle(t.root)
}

// GetRootAABB returns the bounds of the whole tree. ok is false when the tree is empty.
func (t *Tree) GetRootAABB() (aabb actor.AABB, ok bool) {
	if t.root == nullNode {
		return actor.AABB{}, false
	}
	return t.arena.nodes[t.root].aabb, true
}

// Height returns the cached height of the root, 0 for an empty tree
func (t *Tree) Height() int {
	if t.root == nullNode {
		return 0
	}
	return int(t.arena.nodes[t.root].height)
}

// ComputeHeight recomputes the height by walking the whole tree.
// Used to verify the cached heights.
func (t *Tree) ComputeHeight() int {
	if t.root == nullNode {
		return 0
	}
	return t.computeHeight(t.root)
}

func (t *Tree) computeHeight(index int32) int {
	n := &t.arena.nodes[index]
	if n.isLeaf() {
		return 0
	}

	height1 := t.computeHeight(n.children[0])
	height2 := t.computeHeight(n.children[1])
	return 1 + max(height1, height2)
}

// Reset empties the tree. Every outstanding handle becomes invalid.
func (t *Tree) Reset() {
	t.arena.reset()
	t.root = nullNode
	t.leafCount = 0
	t.insertionCount = 0

	t.logger.WithField("capacity", t.arena.capacity()).Debug("tree reset")
}

// ShiftOrigin moves the world origin to newOrigin: every stored AABB is
// translated by -newOrigin. Handles and structure are unchanged.
func (t *Tree) ShiftOrigin(newOrigin mgl64.Vec3) {
	offset := newOrigin.Mul(-1)
	for i := range t.arena.nodes {
		if t.arena.nodes[i].kind == nodeFree {
			continue
		}
		t.arena.nodes[i].aabb = t.arena.nodes[i].aabb.Translate(offset)
	}
}

func (t *Tree) IsEmpty() bool {
	return t.root == nullNode
}

// LeafCount is the number of objects currently stored
func (t *Tree) LeafCount() int {
	return t.leafCount
}

// NodeCount is the number of slots in use, leaves and internal nodes
func (t *Tree) NodeCount() int {
	return t.arena.count
}

// Capacity is the number of slots in the arena, used or free
func (t *Tree) Capacity() int {
	return t.arena.capacity()
}

// InsertionCount is the number of leaf insertions, reinsertions included,
// since creation or the last Reset
func (t *Tree) InsertionCount() int {
	return t.insertionCount
}

func (t *Tree) handle(index int32) NodeID {
	return NodeID{index: index, generation: t.arena.nodes[index].generation}
}

// resolve maps a handle to a live slot
func (t *Tree) resolve(id NodeID) (int32, error) {
	if id.index < 0 || int(id.index) >= len(t.arena.nodes) {
		return nullNode, fmt.Errorf("%v out of range [0, %d): %w", id, len(t.arena.nodes), ErrInvalidHandle)
	}

	n := &t.arena.nodes[id.index]
	if n.kind == nodeFree {
		return nullNode, fmt.Errorf("%v is free: %w", id, ErrInvalidHandle)
	}
	if n.generation != id.generation {
		return nullNode, fmt.Errorf("%v is stale (generation %d): %w", id, n.generation, ErrInvalidHandle)
	}

	return id.index, nil
}

func (t *Tree) resolveLeaf(id NodeID) (int32, error) {
	index, err := t.resolve(id)
	if err != nil {
		return nullNode, err
	}
	if !t.arena.nodes[index].isLeaf() {
		return nullNode, fmt.Errorf("%v: %w", id, ErrNotALeaf)
	}
	return index, nil
}
