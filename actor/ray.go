package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// rayParallelEpsilon is the direction component below which a ray is treated
// as parallel to a slab
const rayParallelEpsilon = 1e-12

// Ray is the segment From + t*(To-From) for t in [0, MaxFraction].
// Fractions are expressed in units of the From->To segment, so 1 reaches To.
type Ray struct {
	From        mgl64.Vec3
	To          mgl64.Vec3
	MaxFraction float64
}

// NewRay creates a ray covering the whole From->To segment
func NewRay(from, to mgl64.Vec3) Ray {
	return Ray{From: from, To: to, MaxFraction: 1.0}
}

// IsValid reports whether no endpoint component nor the max fraction is NaN
func (r Ray) IsValid() bool {
	if math.IsNaN(r.MaxFraction) {
		return false
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(r.From[i]) || math.IsNaN(r.To[i]) {
			return false
		}
	}
	return true
}

func (r Ray) Direction() mgl64.Vec3 {
	return r.To.Sub(r.From)
}

// PointAt returns the point reached at the given fraction
func (r Ray) PointAt(fraction float64) mgl64.Vec3 {
	return r.From.Add(r.Direction().Mul(fraction))
}

// Clip returns a copy of the ray limited to fraction
func (r Ray) Clip(fraction float64) Ray {
	r.MaxFraction = fraction
	return r
}

// AABB bounds the clipped segment
func (r Ray) AABB() AABB {
	return NewAABB(r.From, r.PointAt(r.MaxFraction))
}
