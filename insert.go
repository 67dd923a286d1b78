package broadphase

import "github.com/akmonengine/broadphase/actor"

// insertLeaf links a detached leaf into the tree. The only failure is the
// allocation of the new parent, in which case the tree is left untouched.
func (t *Tree) insertLeaf(leaf int32) error {
	if t.root == nullNode {
		t.root = leaf
		t.arena.nodes[leaf].parent = nullNode
		t.insertionCount++
		return nil
	}

	leafAABB := t.arena.nodes[leaf].aabb
	sibling := t.findBestSibling(leafAABB)

	// allocate may grow the arena: no node pointer is held across it
	newParent, err := t.arena.allocate()
	if err != nil {
		return err
	}

	nodes := t.arena.nodes
	oldParent := nodes[sibling].parent

	parent := &nodes[newParent]
	parent.kind = nodeInternal
	parent.parent = oldParent
	parent.aabb = leafAABB.Merge(nodes[sibling].aabb)
	parent.height = nodes[sibling].height + 1
	parent.children = [2]int32{sibling, leaf}

	if oldParent != nullNode {
		// The sibling was not the root
		nodes[oldParent].children[nodes[oldParent].childIndex(sibling)] = newParent
	} else {
		t.root = newParent
	}
	nodes[sibling].parent = newParent
	nodes[leaf].parent = newParent

	t.refit(newParent)
	t.insertionCount++

	return nil
}

// findBestSibling descends from the root with the surface area heuristic.
// At each internal node it compares the cost of pairing the new leaf with the
// node itself against the cheapest cost of pushing the leaf into a child.
func (t *Tree) findBestSibling(leafAABB actor.AABB) int32 {
	nodes := t.arena.nodes
	index := t.root

	for !nodes[index].isLeaf() {
		n := &nodes[index]

		area := n.aabb.SurfaceArea()
		combinedArea := n.aabb.Merge(leafAABB).SurfaceArea()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea

		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		cost1 := t.descentCost(n.children[0], leafAABB, inheritanceCost)
		cost2 := t.descentCost(n.children[1], leafAABB, inheritanceCost)

		if cost < cost1 && cost < cost2 {
			break
		}

		if cost1 < cost2 {
			index = n.children[0]
		} else {
			index = n.children[1]
		}
	}

	return index
}

// descentCost is the same formula for both children: a leaf child pays the
// full area of the merged box, an internal child only the area it gains
func (t *Tree) descentCost(child int32, leafAABB actor.AABB, inheritanceCost float64) float64 {
	c := &t.arena.nodes[child]
	newArea := c.aabb.Merge(leafAABB).SurfaceArea()

	if c.isLeaf() {
		return newArea + inheritanceCost
	}
	return newArea - c.aabb.SurfaceArea() + inheritanceCost
}

// refit walks from index up to the root, rebalancing each ancestor and then
// recomputing its AABB and height from its children
func (t *Tree) refit(index int32) {
	for index != nullNode {
		index = t.balance(index)

		nodes := t.arena.nodes
		n := &nodes[index]
		child1 := &nodes[n.children[0]]
		child2 := &nodes[n.children[1]]

		n.height = 1 + max(child1.height, child2.height)
		n.aabb = child1.aabb.Merge(child2.aabb)

		index = n.parent
	}
}
