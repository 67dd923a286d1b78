package broadphase

import (
	"fmt"
	"sort"

	"github.com/akmonengine/broadphase/actor"
	"github.com/sirupsen/logrus"
)

const DEFAULT_WORKERS = 1

// Pair is two colliders whose tight AABBs overlap, with their proxies
// ordered lowest id first
type Pair struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
	Proxies   NodePair
}

// World is the collision system driving a BroadPhase: it moves colliders,
// keeps their proxies up to date and reports overlapping pairs every Step.
type World struct {
	// List of all colliders in the world
	Colliders  []*actor.Collider
	BroadPhase *BroadPhase
	Workers    int

	Events Events

	proxies map[*actor.Collider]NodeID
	// candidates are the broad-phase pairs still overlapping by fat AABB,
	// stored lowest id first
	candidates map[NodePair]struct{}
	pairs      []Pair
	logger     logrus.FieldLogger
}

func NewWorld(config Config) *World {
	config = config.withDefaults()

	return &World{
		BroadPhase: NewBroadPhase(config),
		Workers:    DEFAULT_WORKERS,
		Events:     NewEvents(),
		proxies:    make(map[*actor.Collider]NodeID),
		candidates: make(map[NodePair]struct{}),
		logger:     config.Logger,
	}
}

// AddCollider adds a collider to the world and creates its proxy
func (w *World) AddCollider(collider *actor.Collider) error {
	if _, ok := w.proxies[collider]; ok {
		return nil
	}

	id, err := w.BroadPhase.CreateProxy(collider.ComputeAABB(), collider)
	if err != nil {
		return fmt.Errorf("adding collider %v: %w", collider.Id, err)
	}
	w.proxies[collider] = id
	w.Colliders = append(w.Colliders, collider)

	return nil
}

// RemoveCollider removes a collider and every pair it was part of
func (w *World) RemoveCollider(collider *actor.Collider) error {
	id, ok := w.proxies[collider]
	if !ok {
		return fmt.Errorf("removing collider %v: %w", collider.Id, ErrInvalidHandle)
	}

	if err := w.BroadPhase.DestroyProxy(id); err != nil {
		return fmt.Errorf("removing collider %v: %w", collider.Id, err)
	}
	delete(w.proxies, collider)

	for pair := range w.candidates {
		if pair.A == id || pair.B == id {
			delete(w.candidates, pair)
		}
	}

	k := -1
	for i, c := range w.Colliders {
		if c == collider {
			k = i
			break
		}
	}
	if k != -1 {
		w.Colliders = append(w.Colliders[:k], w.Colliders[k+1:]...)
	}

	w.Events.forget(id)

	return nil
}

// Proxy returns the tree handle of a collider
func (w *World) Proxy(collider *actor.Collider) (NodeID, bool) {
	id, ok := w.proxies[collider]
	return id, ok
}

func (w *World) Step(dt float64) error {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	// Phase 1: move colliders and refresh their tight bounds
	task(w.Workers, w.Colliders, func(collider *actor.Collider) {
		collider.Integrate(dt)
		collider.ComputeAABB()
	})

	// Phase 2: update proxies, the tree is not safe for concurrent writes
	for _, collider := range w.Colliders {
		if _, err := w.BroadPhase.MoveProxy(w.proxies[collider], collider.AABB(), collider.Displacement()); err != nil {
			return fmt.Errorf("moving collider %v: %w", collider.Id, err)
		}
	}

	// Phase 3: new candidate pairs from the moved proxies
	if err := w.updateCandidates(); err != nil {
		return err
	}

	// Phase 4: keep the candidates whose tight bounds overlap
	w.pairs = w.overlappingPairs()

	w.Events.recordOverlaps(w.pairs)
	w.Events.flush()

	return nil
}

func (w *World) updateCandidates() error {
	addPair := func(userDataA, userDataB any) {
		a := w.proxies[userDataA.(*actor.Collider)]
		b := w.proxies[userDataB.(*actor.Collider)]
		if b.less(a) {
			a, b = b, a
		}
		w.candidates[NodePair{A: a, B: b}] = struct{}{}
	}

	var err error
	if w.Workers > 1 {
		err = w.BroadPhase.FindPairsParallel(w.Workers, addPair)
	} else {
		err = w.BroadPhase.UpdatePairs(addPair)
	}
	if err != nil {
		return fmt.Errorf("updating pairs: %w", err)
	}

	// Drop the candidates whose fat AABBs separated
	for pair := range w.candidates {
		overlap, err := w.BroadPhase.TestOverlap(pair.A, pair.B)
		if err != nil {
			w.logger.WithFields(logrus.Fields{"pair": pair, "error": err}).Warn("dropping stale pair")
			delete(w.candidates, pair)
			continue
		}
		if !overlap {
			delete(w.candidates, pair)
		}
	}

	return nil
}

// overlappingPairs filters the candidates, sorted by proxy id
func (w *World) overlappingPairs() []Pair {
	keys := make([]NodePair, 0, len(w.candidates))
	for pair := range w.candidates {
		keys = append(keys, pair)
	}
	sortNodePairs(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, key := range keys {
		a, errA := w.BroadPhase.GetUserData(key.A)
		b, errB := w.BroadPhase.GetUserData(key.B)
		if errA != nil || errB != nil {
			continue
		}
		colliderA := a.(*actor.Collider)
		colliderB := b.(*actor.Collider)

		if colliderA.BodyType == actor.BodyTypeStatic && colliderB.BodyType == actor.BodyTypeStatic {
			continue
		}
		if colliderA.IsSleeping && colliderB.IsSleeping {
			continue
		}
		if colliderA.AABB().Overlaps(colliderB.AABB()) {
			pairs = append(pairs, Pair{ColliderA: colliderA, ColliderB: colliderB, Proxies: key})
		}
	}

	return pairs
}

// Pairs returns the overlapping pairs found by the last Step
func (w *World) Pairs() []Pair {
	return w.pairs
}

// QueryAABB returns the colliders whose tight bounds overlap aabb, sorted by proxy id
func (w *World) QueryAABB(aabb actor.AABB) ([]*actor.Collider, error) {
	ids, err := w.BroadPhase.Tree().ReportOverlapping(aabb)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })

	var result []*actor.Collider
	for _, id := range ids {
		data, err := w.BroadPhase.GetUserData(id)
		if err != nil {
			return nil, err
		}
		collider := data.(*actor.Collider)
		if collider.AABB().Overlaps(aabb) {
			result = append(result, collider)
		}
	}

	return result, nil
}

// Raycast returns the first collider whose tight bounds are hit by ray, and the
// fraction along the ray where it is entered. ok is false when nothing is hit.
func (w *World) Raycast(ray actor.Ray) (hit *actor.Collider, fraction float64, ok bool) {
	fraction = ray.MaxFraction

	w.BroadPhase.Raycast(ray, RaycastFunc(func(id NodeID, clipped actor.Ray) float64 {
		data, err := w.BroadPhase.GetUserData(id)
		if err != nil {
			return -1
		}
		collider := data.(*actor.Collider)

		f, intersects := collider.AABB().IntersectRay(clipped)
		if !intersects {
			return -1
		}

		hit, fraction, ok = collider, f, true
		if f == 0 {
			// Origin inside the collider, nothing can be closer
			return 0
		}
		return f
	}))

	return hit, fraction, ok
}
