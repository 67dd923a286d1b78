package broadphase

import "fmt"

// Validate checks the structure and metrics of the whole tree:
// parent/child links, heights, AABB unions, AVL balance and the free list.
// It returns an error wrapping ErrInvalidTree describing the first violation.
func (t *Tree) Validate() error {
	nodes := t.arena.nodes
	reachable := 0
	leaves := 0

	if t.root != nullNode {
		if nodes[t.root].parent != nullNode {
			return fmt.Errorf("root %d has parent %d: %w", t.root, nodes[t.root].parent, ErrInvalidTree)
		}

		stack := []int32{t.root}
		for len(stack) > 0 {
			index := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			reachable++

			if reachable > t.arena.count {
				return fmt.Errorf("more reachable nodes than the %d allocated: %w", t.arena.count, ErrInvalidTree)
			}

			n := &nodes[index]
			switch n.kind {
			case nodeLeaf:
				leaves++
				if n.height != 0 {
					return fmt.Errorf("leaf %d has height %d: %w", index, n.height, ErrInvalidTree)
				}
				continue
			case nodeInternal:
			default:
				return fmt.Errorf("%s node %d linked in the tree: %w", n.kind, index, ErrInvalidTree)
			}

			for _, child := range n.children {
				if child < 0 || int(child) >= len(nodes) {
					return fmt.Errorf("node %d has child %d outside [0, %d): %w", index, child, len(nodes), ErrInvalidTree)
				}
			}

			child1 := &nodes[n.children[0]]
			child2 := &nodes[n.children[1]]

			if child1.parent != index || child2.parent != index {
				return fmt.Errorf("children of %d do not point back to it: %w", index, ErrInvalidTree)
			}
			if height := 1 + max(child1.height, child2.height); n.height != height {
				return fmt.Errorf("node %d has height %d, expected %d: %w", index, n.height, height, ErrInvalidTree)
			}
			if aabb := child1.aabb.Merge(child2.aabb); n.aabb != aabb {
				return fmt.Errorf("node %d has AABB %v, expected %v: %w", index, n.aabb, aabb, ErrInvalidTree)
			}
			if balance := child2.height - child1.height; balance > 1 || balance < -1 {
				return fmt.Errorf("node %d has balance %d: %w", index, balance, ErrInvalidTree)
			}

			stack = append(stack, n.children[0], n.children[1])
		}
	}

	if reachable != t.arena.count {
		return fmt.Errorf("%d reachable nodes, %d allocated: %w", reachable, t.arena.count, ErrInvalidTree)
	}
	if leaves != t.leafCount {
		return fmt.Errorf("%d reachable leaves, %d counted: %w", leaves, t.leafCount, ErrInvalidTree)
	}

	free := 0
	for index := t.arena.freeList; index != nullNode; index = nodes[index].next {
		if nodes[index].kind != nodeFree {
			return fmt.Errorf("%s node %d in the free list: %w", nodes[index].kind, index, ErrInvalidTree)
		}
		free++
		if free > len(nodes) {
			return fmt.Errorf("free list loops: %w", ErrInvalidTree)
		}
	}
	if free+t.arena.count != len(nodes) {
		return fmt.Errorf("%d free + %d allocated != %d capacity: %w", free, t.arena.count, len(nodes), ErrInvalidTree)
	}

	return nil
}

// MaxBalance returns the largest height difference between two siblings
func (t *Tree) MaxBalance() int {
	maxBalance := 0
	nodes := t.arena.nodes
	for i := range nodes {
		n := &nodes[i]
		if n.kind != nodeInternal || n.height <= 1 {
			continue
		}

		balance := nodes[n.children[1]].height - nodes[n.children[0]].height
		if balance < 0 {
			balance = -balance
		}
		maxBalance = max(maxBalance, int(balance))
	}

	return maxBalance
}

// AreaRatio is the summed surface area of every node divided by the root area,
// a measure of the tree quality. Lower is better.
func (t *Tree) AreaRatio() float64 {
	if t.root == nullNode {
		return 0.0
	}

	rootArea := t.arena.nodes[t.root].aabb.SurfaceArea()
	if rootArea == 0 {
		return 0.0
	}

	totalArea := 0.0
	for i := range t.arena.nodes {
		if t.arena.nodes[i].kind == nodeFree {
			continue
		}
		totalArea += t.arena.nodes[i].aabb.SurfaceArea()
	}

	return totalArea / rootArea
}
