package broadphase

import (
	"fmt"

	"github.com/akmonengine/broadphase/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// AABB_MULTIPLIER scales the displacement used to predict where a moving proxy goes next
const AABB_MULTIPLIER = 2.0

// BroadPhase tracks proxies in a Tree and turns their motion into candidate
// pairs. Proxies created or moved since the last pair update are kept in a
// move buffer; only those are queried.
type BroadPhase struct {
	tree       *Tree
	moveBuffer []NodeID
	logger     logrus.FieldLogger
}

func NewBroadPhase(config Config) *BroadPhase {
	config = config.withDefaults()

	return &BroadPhase{
		tree:       NewTree(config),
		moveBuffer: make([]NodeID, 0, 16),
		logger:     config.Logger,
	}
}

// Tree exposes the underlying tree for queries and diagnostics
func (bp *BroadPhase) Tree() *Tree {
	return bp.tree
}

// CreateProxy adds a proxy for aabb carrying userData
func (bp *BroadPhase) CreateProxy(aabb actor.AABB, userData any) (NodeID, error) {
	id, err := bp.tree.AddObjectPointer(aabb, userData)
	if err != nil {
		return NullNode, err
	}
	bp.bufferMove(id)

	return id, nil
}

func (bp *BroadPhase) DestroyProxy(id NodeID) error {
	if err := bp.tree.RemoveObject(id); err != nil {
		bp.logger.WithFields(logrus.Fields{"proxy": id, "error": err}).Warn("destroying proxy")
		return err
	}
	bp.unbufferMove(id)

	return nil
}

// MoveProxy updates the proxy to its new tight aabb. When the proxy leaves its
// fat AABB, the new fat AABB is stretched along the displacement so a proxy
// moving steadily is not reinserted every step.
func (bp *BroadPhase) MoveProxy(id NodeID, aabb actor.AABB, displacement mgl64.Vec3) (bool, error) {
	fat, err := bp.tree.GetFatAABB(id)
	if err != nil {
		bp.logger.WithFields(logrus.Fields{"proxy": id, "error": err}).Warn("moving proxy")
		return false, err
	}
	if fat.Contains(aabb) {
		return false, nil
	}

	predicted := aabb.Merge(aabb.Translate(displacement.Mul(AABB_MULTIPLIER)))
	if _, err := bp.tree.UpdateObject(id, predicted, true); err != nil {
		return false, err
	}
	bp.bufferMove(id)

	return true, nil
}

// TouchProxy queues the proxy for the next pair update without moving it
func (bp *BroadPhase) TouchProxy(id NodeID) error {
	if _, err := bp.tree.resolveLeaf(id); err != nil {
		return err
	}
	bp.bufferMove(id)
	return nil
}

func (bp *BroadPhase) GetUserData(id NodeID) (any, error) {
	return bp.tree.GetLeafPointer(id)
}

func (bp *BroadPhase) GetFatAABB(id NodeID) (actor.AABB, error) {
	return bp.tree.GetFatAABB(id)
}

// TestOverlap checks the fat AABBs of two proxies
func (bp *BroadPhase) TestOverlap(a, b NodeID) (bool, error) {
	aabbA, err := bp.tree.GetFatAABB(a)
	if err != nil {
		return false, err
	}
	aabbB, err := bp.tree.GetFatAABB(b)
	if err != nil {
		return false, err
	}
	return aabbA.Overlaps(aabbB), nil
}

func (bp *BroadPhase) ProxyCount() int {
	return bp.tree.LeafCount()
}

// MoveCount is the number of proxies waiting for the next pair update
func (bp *BroadPhase) MoveCount() int {
	n := 0
	for _, id := range bp.moveBuffer {
		if !id.IsNull() {
			n++
		}
	}
	return n
}

// UpdatePairs reports every unique pair involving at least one moved proxy,
// in a deterministic order, then empties the move buffer
func (bp *BroadPhase) UpdatePairs(callback func(userDataA, userDataB any)) error {
	moved := bp.drainMoves()

	pairs, err := bp.tree.ReportOverlappingPairs(moved, 0, len(moved))
	if err != nil {
		return err
	}

	return bp.emitPairs(pairs, callback)
}

// FindPairsParallel does the same work as UpdatePairs but splits the moved
// proxies over workersCount goroutines. The tree is only read meanwhile.
func (bp *BroadPhase) FindPairsParallel(workersCount int, callback func(userDataA, userDataB any)) error {
	moved := bp.drainMoves()
	workersCount = max(DEFAULT_WORKERS, workersCount)

	results := make([][]NodePair, workersCount)
	errs := make([]error, workersCount)
	taskRange(workersCount, len(moved), func(workerID, start, end int) {
		results[workerID], errs[workerID] = bp.tree.ReportOverlappingPairs(moved, start, end)
	})

	var pairs []NodePair
	for i := range results {
		if errs[i] != nil {
			return errs[i]
		}
		pairs = append(pairs, results[i]...)
	}

	return bp.emitPairs(pairs, callback)
}

// emitPairs orients each pair lowest id first, sorts, drops duplicates and
// calls back with the user data of both proxies
func (bp *BroadPhase) emitPairs(pairs []NodePair, callback func(userDataA, userDataB any)) error {
	for i, p := range pairs {
		if p.B.less(p.A) {
			pairs[i] = NodePair{A: p.B, B: p.A}
		}
	}
	sortNodePairs(pairs)

	for i := 0; i < len(pairs); i++ {
		if i > 0 && pairs[i] == pairs[i-1] {
			continue
		}

		userDataA, err := bp.tree.GetLeafPointer(pairs[i].A)
		if err != nil {
			return fmt.Errorf("pair %v: %w", pairs[i], err)
		}
		userDataB, err := bp.tree.GetLeafPointer(pairs[i].B)
		if err != nil {
			return fmt.Errorf("pair %v: %w", pairs[i], err)
		}
		callback(userDataA, userDataB)
	}

	return nil
}

// Query forwards to the tree
func (bp *BroadPhase) Query(aabb actor.AABB, callback OverlapCallback) error {
	return bp.tree.Query(aabb, callback)
}

// Raycast forwards to the tree
func (bp *BroadPhase) Raycast(ray actor.Ray, callback RaycastCallback) {
	bp.tree.Raycast(ray, callback)
}

func (bp *BroadPhase) ShiftOrigin(newOrigin mgl64.Vec3) {
	bp.tree.ShiftOrigin(newOrigin)
}

func (bp *BroadPhase) bufferMove(id NodeID) {
	bp.moveBuffer = append(bp.moveBuffer, id)
}

func (bp *BroadPhase) unbufferMove(id NodeID) {
	for i := range bp.moveBuffer {
		if bp.moveBuffer[i] == id {
			bp.moveBuffer[i] = NullNode
		}
	}
}

// drainMoves returns the live, deduplicated move buffer and resets it
func (bp *BroadPhase) drainMoves() []NodeID {
	moved := make([]NodeID, 0, len(bp.moveBuffer))
	seen := make(map[NodeID]struct{}, len(bp.moveBuffer))
	for _, id := range bp.moveBuffer {
		if id.IsNull() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		moved = append(moved, id)
	}
	bp.moveBuffer = bp.moveBuffer[:0]

	return moved
}
