package broadphase

import "errors"

var (
	// ErrInvalidHandle is returned for ids that are out of range, free, or stale
	ErrInvalidHandle = errors.New("invalid node handle")

	// ErrNotALeaf is returned when a leaf-only operation receives an internal node
	ErrNotALeaf = errors.New("node is not a leaf")

	// ErrInvalidAABB is returned for boxes with Min > Max on some axis or NaN components
	ErrInvalidAABB = errors.New("invalid AABB")

	// ErrCapacityExhausted is returned when the node arena cannot grow any further
	ErrCapacityExhausted = errors.New("node capacity exhausted")

	// ErrInvalidRange is returned by ReportOverlappingPairs for a bad [start, end) window
	ErrInvalidRange = errors.New("invalid id range")

	// ErrInvalidTree is returned by Validate when an invariant does not hold
	ErrInvalidTree = errors.New("invalid tree")
)
