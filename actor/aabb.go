package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB builds a box from two opposite corners, in any order
func NewAABB(a, b mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// IsValid reports whether Min <= Max on every axis and no component is NaN
func (a AABB) IsValid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(a.Min[i]) || math.IsNaN(a.Max[i]) {
			return false
		}
		if a.Min[i] > a.Max[i] {
			return false
		}
	}
	return true
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Contains checks if other lies entirely inside a (touching faces included)
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Min.Y() <= other.Min.Y() && a.Min.Z() <= other.Min.Z() &&
		other.Max.X() <= a.Max.X() && other.Max.Y() <= a.Max.Y() && other.Max.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Merge returns the smallest box enclosing both a and other
func (a AABB) Merge(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{
			math.Min(a.Min[0], other.Min[0]),
			math.Min(a.Min[1], other.Min[1]),
			math.Min(a.Min[2], other.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Max(a.Max[0], other.Max[0]),
			math.Max(a.Max[1], other.Max[1]),
			math.Max(a.Max[2], other.Max[2]),
		},
	}
}

// Inflate grows the box by margin on both sides of every axis
func (a AABB) Inflate(margin mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Sub(margin), Max: a.Max.Add(margin)}
}

// Fatten inflates every axis by extent*percentage/2 on each side.
// A percentage of 0 returns the box unchanged.
func (a AABB) Fatten(percentage float64) AABB {
	if percentage == 0 {
		return a
	}
	return a.Inflate(a.Extents().Mul(percentage / 2))
}

// Translate moves the box by offset
func (a AABB) Translate(offset mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(offset), Max: a.Max.Add(offset)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the full size of the box along each axis
func (a AABB) Extents() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Extents().Mul(0.5)
}

func (a AABB) Volume() float64 {
	e := a.Extents()
	return e.X() * e.Y() * e.Z()
}

// SurfaceArea is the cost metric used by the tree when placing leaves
func (a AABB) SurfaceArea() float64 {
	e := a.Extents()
	return 2.0 * (e.X()*e.Y() + e.Y()*e.Z() + e.Z()*e.X())
}

// IntersectRay clips the ray segment [0, ray.MaxFraction] against the box slabs.
// It returns the entry fraction along ray.Direction() and whether the segment hits.
// A ray starting inside the box reports fraction 0. A ray with a NaN
// component never hits.
func (a AABB) IntersectRay(ray Ray) (float64, bool) {
	if !ray.IsValid() {
		return 0, false
	}

	tMin := 0.0
	tMax := ray.MaxFraction
	d := ray.Direction()

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < rayParallelEpsilon {
			// Parallel to the slab: the origin has to be between the planes
			if ray.From[i] < a.Min[i] || ray.From[i] > a.Max[i] {
				return 0, false
			}
			continue
		}

		inv := 1.0 / d[i]
		t1 := (a.Min[i] - ray.From[i]) * inv
		t2 := (a.Max[i] - ray.From[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// TriangleAABB returns the tight bounds of a triangle
func TriangleAABB(a, b, c mgl64.Vec3) AABB {
	return PointsAABB(a, b, c)
}

// PointsAABB returns the tight bounds of a point cloud.
// An empty cloud gives the zero box at the origin.
func PointsAABB(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	min := points[0]
	max := points[0]
	for _, p := range points[1:] {
		min[0] = math.Min(min[0], p[0])
		min[1] = math.Min(min[1], p[1])
		min[2] = math.Min(min[2], p[2])

		max[0] = math.Max(max[0], p[0])
		max[1] = math.Max(max[1], p[1])
		max[2] = math.Max(max[2], p[2])
	}

	return AABB{Min: min, Max: max}
}
