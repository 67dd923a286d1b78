package broadphase

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// arena stores every node of a tree in one growable slice. Free slots form a
// singly linked list through node.next.
type arena struct {
	nodes       []node
	freeList    int32
	count       int
	maxCapacity int
	logger      logrus.FieldLogger
}

func newArena(capacity, maxCapacity int, logger logrus.FieldLogger) arena {
	a := arena{
		nodes:       make([]node, capacity),
		freeList:    nullNode,
		maxCapacity: maxCapacity,
		logger:      logger,
	}
	for i := range a.nodes {
		a.nodes[i].generation = 1
	}
	a.thread(0)

	return a
}

func (a *arena) capacity() int {
	return len(a.nodes)
}

// thread links the slots [from, capacity) in front of the current free list
func (a *arena) thread(from int) {
	for i := len(a.nodes) - 1; i >= from; i-- {
		n := &a.nodes[i]
		n.kind = nodeFree
		n.height = -1
		n.parent = nullNode
		n.children = [2]int32{nullNode, nullNode}
		n.pointer = nil
		n.next = a.freeList
		a.freeList = int32(i)
	}
}

// grow doubles the capacity, bounded by maxCapacity
func (a *arena) grow() error {
	oldCapacity := len(a.nodes)
	newCapacity := max(oldCapacity*2, 1)
	if newCapacity > a.maxCapacity {
		newCapacity = a.maxCapacity
	}
	if newCapacity <= oldCapacity {
		a.logger.WithField("capacity", oldCapacity).Warn("node arena cannot grow")
		return fmt.Errorf("growing beyond %d nodes: %w", oldCapacity, ErrCapacityExhausted)
	}

	a.nodes = append(a.nodes, make([]node, newCapacity-oldCapacity)...)
	for i := oldCapacity; i < newCapacity; i++ {
		a.nodes[i].generation = 1
	}
	a.thread(oldCapacity)

	a.logger.WithFields(logrus.Fields{
		"from": oldCapacity,
		"to":   newCapacity,
	}).Debug("node arena grown")

	return nil
}

// allocate pops a slot off the free list, growing the arena when it is empty.
// The slot comes back as a detached leaf.
func (a *arena) allocate() (int32, error) {
	if a.freeList == nullNode {
		if err := a.grow(); err != nil {
			return nullNode, err
		}
	}

	id := a.freeList
	n := &a.nodes[id]
	a.freeList = n.next

	n.kind = nodeLeaf
	n.height = 0
	n.parent = nullNode
	n.next = nullNode
	n.children = [2]int32{nullNode, nullNode}
	n.data = LeafData{}
	n.pointer = nil
	a.count++

	return id, nil
}

// release pushes id back onto the free list and invalidates its handles
func (a *arena) release(id int32) {
	n := &a.nodes[id]
	n.kind = nodeFree
	n.height = -1
	n.parent = nullNode
	n.children = [2]int32{nullNode, nullNode}
	n.pointer = nil
	n.generation = nextGeneration(n.generation)
	n.next = a.freeList
	a.freeList = id
	a.count--
}

// reset frees every slot at once. Handles to slots in use are invalidated.
func (a *arena) reset() {
	for i := range a.nodes {
		if a.nodes[i].kind != nodeFree {
			a.nodes[i].generation = nextGeneration(a.nodes[i].generation)
		}
	}
	a.freeList = nullNode
	a.thread(0)
	a.count = 0
}

// nextGeneration skips 0 so the zero NodeID never matches a live slot
func nextGeneration(g uint32) uint32 {
	g++
	if g == 0 {
		g = 1
	}
	return g
}
