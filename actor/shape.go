package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeTriangle
)

// ShapeInterface is implemented by every shape that can be tracked by the broad phase
type ShapeInterface interface {
	// ComputeAABB calculates the tight axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform) AABB
	Type() ShapeType
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) AABB {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	// The 8 corners in local space
	corners := [8]mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}

	for i := range corners {
		corners[i] = transform.Apply(corners[i])
	}

	return PointsAABB(corners[:]...)
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB is not affected by rotation, only by position
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// ComputeAABB gives the plane a slab of PlaneThickness below its surface and
// stretches it to PlaneInfinity along every axis not aligned with the normal
func (p *Plane) ComputeAABB(transform Transform) AABB {
	planePoint := p.Normal.Mul(-p.Distance)

	min := planePoint.Sub(p.Normal.Mul(PlaneThickness)).Add(transform.Position)
	max := planePoint.Add(transform.Position)
	box := NewAABB(min, max)

	for i := 0; i < 3; i++ {
		if math.Abs(p.Normal[i]) < 1.0 {
			box.Min[i] = -PlaneInfinity
			box.Max[i] = PlaneInfinity
		}
	}

	return box
}

const (
	PlaneThickness = 1.0
	PlaneInfinity  = 1e10
)

// Triangle is a single face, typically one triangle of a static mesh
type Triangle struct {
	A, B, C mgl64.Vec3
}

func (t *Triangle) Type() ShapeType { return ShapeTypeTriangle }

func (t *Triangle) ComputeAABB(transform Transform) AABB {
	return TriangleAABB(transform.Apply(t.A), transform.Apply(t.B), transform.Apply(t.C))
}
