package broadphase

import (
	"fmt"
	"sort"
	"sync"

	"github.com/akmonengine/broadphase/actor"
)

// NodePair is a candidate pair: A is the queried leaf, B the leaf it overlaps
type NodePair struct {
	A NodeID
	B NodeID
}

// stackPool keeps traversal stacks out of the tree so read-only queries can
// run concurrently
var stackPool = sync.Pool{
	New: func() interface{} {
		stack := make([]int32, 0, 64)
		return &stack
	},
}

// Query visits every leaf whose fat AABB overlaps aabb, depth first
func (t *Tree) Query(aabb actor.AABB, callback OverlapCallback) error {
	if !aabb.IsValid() {
		return fmt.Errorf("querying %v: %w", aabb, ErrInvalidAABB)
	}
	t.query(aabb, callback.OnOverlap)
	return nil
}

func (t *Tree) query(aabb actor.AABB, visit func(id NodeID) bool) {
	if t.root == nullNode {
		return
	}

	stackPtr := stackPool.Get().(*[]int32)
	stack := append((*stackPtr)[:0], t.root)
	defer func() {
		*stackPtr = stack[:0]
		stackPool.Put(stackPtr)
	}()

	nodes := t.arena.nodes
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &nodes[index]
		if !n.aabb.Overlaps(aabb) {
			continue
		}

		if n.isLeaf() {
			if !visit(NodeID{index: index, generation: n.generation}) {
				return
			}
		} else {
			stack = append(stack, n.children[0], n.children[1])
		}
	}
}

// ReportOverlapping returns every leaf whose fat AABB overlaps aabb. A leaf
// whose own box is used as the query is part of the result.
func (t *Tree) ReportOverlapping(aabb actor.AABB) ([]NodeID, error) {
	if !aabb.IsValid() {
		return nil, fmt.Errorf("querying %v: %w", aabb, ErrInvalidAABB)
	}

	var result []NodeID
	t.query(aabb, func(id NodeID) bool {
		result = append(result, id)
		return true
	})

	return result, nil
}

// ReportOverlappingPairs queries the tree with the fat AABB of each leaf in
// ids[start:end] and returns one (queried, hit) pair per overlap. A leaf is
// never paired with itself. Two moved leaves that overlap are reported twice,
// once from each side.
func (t *Tree) ReportOverlappingPairs(ids []NodeID, start, end int) ([]NodePair, error) {
	if start < 0 || end > len(ids) || start > end {
		return nil, fmt.Errorf("[%d:%d] of %d ids: %w", start, end, len(ids), ErrInvalidRange)
	}

	var pairs []NodePair
	for _, id := range ids[start:end] {
		leaf, err := t.resolveLeaf(id)
		if err != nil {
			return nil, fmt.Errorf("reporting pairs of %v: %w", id, err)
		}

		t.query(t.arena.nodes[leaf].aabb, func(hit NodeID) bool {
			if hit.index != leaf {
				pairs = append(pairs, NodePair{A: id, B: hit})
			}
			return true
		})
	}

	return pairs, nil
}

// Raycast visits the leaves hit by ray, depth first. The ray is clipped every
// time the callback returns a smaller positive fraction, so later nodes are
// tested against a shorter segment; the fraction never grows back.
// A ray with a NaN component misses everything.
func (t *Tree) Raycast(ray actor.Ray, callback RaycastCallback) {
	if t.root == nullNode || !ray.IsValid() {
		return
	}

	maxFraction := ray.MaxFraction

	stackPtr := stackPool.Get().(*[]int32)
	stack := append((*stackPtr)[:0], t.root)
	defer func() {
		*stackPtr = stack[:0]
		stackPool.Put(stackPtr)
	}()

	nodes := t.arena.nodes
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &nodes[index]
		clipped := ray.Clip(maxFraction)
		if _, hit := n.aabb.IntersectRay(clipped); !hit {
			continue
		}

		if !n.isLeaf() {
			stack = append(stack, n.children[0], n.children[1])
			continue
		}

		value := callback.OnRaycastHit(NodeID{index: index, generation: n.generation}, clipped)
		if value == 0 {
			// The client has terminated the ray cast
			return
		}
		if value > 0 && value < maxFraction {
			maxFraction = value
		}
	}
}

// sortNodePairs orders pairs by A then B so duplicates end up adjacent
func sortNodePairs(pairs []NodePair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A.less(pairs[j].A)
		}
		return pairs[i].B.less(pairs[j].B)
	})
}
