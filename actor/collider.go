package actor

import "github.com/go-gl/mathgl/mgl64"

// BodyType represents how a collider moves
type BodyType int

const (
	// BodyTypeDynamic colliders move with their velocity every step
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic colliders never move (e.g., ground, walls)
	// Two static colliders never form a pair
	BodyTypeStatic
)

// Collider is an object tracked by the broad phase
type Collider struct {
	Id interface{}

	PreviousTransform Transform
	Transform         Transform
	Velocity          mgl64.Vec3

	BodyType   BodyType
	IsTrigger  bool
	IsSleeping bool

	Shape ShapeInterface
	aabb  AABB
}

// NewCollider creates a collider and computes its initial bounds
func NewCollider(transform Transform, shape ShapeInterface, bodyType BodyType) *Collider {
	c := &Collider{
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		BodyType:          bodyType,
	}
	c.ComputeAABB()

	return c
}

// ComputeAABB refreshes the cached tight bounds from the current transform
func (c *Collider) ComputeAABB() AABB {
	c.aabb = c.Shape.ComputeAABB(c.Transform)
	return c.aabb
}

// AABB returns the bounds computed by the last ComputeAABB call
func (c *Collider) AABB() AABB {
	return c.aabb
}

// Integrate advances a dynamic, awake collider along its velocity
func (c *Collider) Integrate(dt float64) {
	c.PreviousTransform = c.Transform
	if c.BodyType == BodyTypeStatic || c.IsSleeping {
		return
	}

	c.Transform.Position = c.Transform.Position.Add(c.Velocity.Mul(dt))
}

// Displacement is how far the collider moved during the last Integrate
func (c *Collider) Displacement() mgl64.Vec3 {
	return c.Transform.Position.Sub(c.PreviousTransform.Position)
}
