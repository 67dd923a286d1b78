package broadphase

// removeLeaf unlinks leaf from the tree and releases its parent. The leaf slot
// itself stays allocated so the caller can reinsert or release it.
func (t *Tree) removeLeaf(leaf int32) {
	nodes := t.arena.nodes

	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := nodes[leaf].parent
	grandParent := nodes[parent].parent
	sibling := nodes[parent].children[1-nodes[parent].childIndex(leaf)]

	if grandParent != nullNode {
		// Destroy parent and connect sibling to grandParent
		nodes[grandParent].children[nodes[grandParent].childIndex(parent)] = sibling
		nodes[sibling].parent = grandParent
		t.arena.release(parent)

		// Adjust ancestor bounds
		t.refit(grandParent)
	} else {
		t.root = sibling
		nodes[sibling].parent = nullNode
		t.arena.release(parent)
	}

	nodes[leaf].parent = nullNode
}
