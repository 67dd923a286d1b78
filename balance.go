package broadphase

// balance restores the AVL property at iA, whose children must already be
// balanced subtrees, and returns the index of the node now at iA's position.
// A leaf paired with a tall subtree leaves a height difference larger than 2:
// the demoted node is rebalanced again until the leaf has sunk deep enough.
func (t *Tree) balance(iA int32) int32 {
	nodes := t.arena.nodes
	A := &nodes[iA]
	if A.isLeaf() {
		return iA
	}

	B := &nodes[A.children[0]]
	C := &nodes[A.children[1]]
	balance := C.height - B.height

	var iUp int32
	switch {
	case balance > 1:
		// Rotate C up
		iUp = t.rotateUp(iA, 1)
	case balance < -1:
		// Rotate B up
		iUp = t.rotateUp(iA, 0)
	default:
		return iA
	}

	// A was demoted to up.children[0] and may still lean too far
	t.balance(iA)

	up := &nodes[iUp]
	child1 := &nodes[up.children[0]]
	child2 := &nodes[up.children[1]]
	up.height = 1 + max(child1.height, child2.height)
	up.aabb = child1.aabb.Merge(child2.aabb)

	return iUp
}

// rotateUp promotes A.children[side] into A's position. The heavier grandchild
// stays under the promoted node, the lighter one is handed to A.
func (t *Tree) rotateUp(iA int32, side int) int32 {
	nodes := t.arena.nodes
	A := &nodes[iA]

	iUp := A.children[side]
	iOther := A.children[1-side]
	up := &nodes[iUp]
	other := &nodes[iOther]

	iHeavy, iLight := up.children[0], up.children[1]
	if nodes[iHeavy].height <= nodes[iLight].height {
		iHeavy, iLight = iLight, iHeavy
	}
	heavy := &nodes[iHeavy]
	light := &nodes[iLight]

	// Swap A and up
	up.children[0] = iA
	up.parent = A.parent
	A.parent = iUp

	// A's old parent should point to up
	if up.parent != nullNode {
		grandParent := &nodes[up.parent]
		grandParent.children[grandParent.childIndex(iA)] = iUp
	} else {
		t.root = iUp
	}

	// Rotate
	up.children[1] = iHeavy
	A.children[side] = iLight
	light.parent = iA

	A.aabb = other.aabb.Merge(light.aabb)
	up.aabb = A.aabb.Merge(heavy.aabb)

	A.height = 1 + max(other.height, light.height)
	up.height = 1 + max(A.height, heavy.height)

	return iUp
}
