package broadphase

import "github.com/akmonengine/broadphase/actor"

// OverlapCallback is invoked by Query for every leaf whose fat AABB overlaps
// the query box. Returning false stops the traversal.
// Implementations must not modify the tree.
type OverlapCallback interface {
	OnOverlap(id NodeID) bool
}

// OverlapFunc adapts a function to OverlapCallback
type OverlapFunc func(id NodeID) bool

func (f OverlapFunc) OnOverlap(id NodeID) bool {
	return f(id)
}

// RaycastCallback is invoked by Raycast for every leaf whose fat AABB is hit
// by the ray clipped to the current max fraction. The returned value controls
// the traversal:
//   - 0 stops the ray cast
//   - a value in (0, ray.MaxFraction) clips the ray for the remaining nodes
//   - a negative value ignores this leaf
//
// Any other value keeps the current max fraction.
// Implementations must not modify the tree.
type RaycastCallback interface {
	OnRaycastHit(id NodeID, ray actor.Ray) float64
}

// RaycastFunc adapts a function to RaycastCallback
type RaycastFunc func(id NodeID, ray actor.Ray) float64

func (f RaycastFunc) OnRaycastHit(id NodeID, ray actor.Ray) float64 {
	return f(id, ray)
}
