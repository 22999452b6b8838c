package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypePlane ShapeType = iota
	ShapeTypeSphere
	ShapeTypeBox
	ShapeTypeCylinder
	ShapeTypeConvexMesh

	// ShapeTypeCount is the number of shape kinds, used to size dispatch tables
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypeConvexMesh:
		return "convex mesh"
	}
	return "unknown"
}

// ShapeInterface is the interface that all collision shapes implement.
// The set of shapes is closed: every implementation lives in this package,
// and Type reports which one it is.
type ShapeInterface interface {
	Type() ShapeType
	// Body returns the rigid body the shape is attached to, nil before Attach
	Body() *RigidBody
	// ComputeBounds recalculates the world-space bounding volumes
	// for the shape placed at the given transform
	ComputeBounds(transform Transform)
	GetAABB() AABB
	GetBoundingSphere() BoundingSphere
	GetOBB() OBB
	// ComputeMass calculates the mass of the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	// Support returns the furthest local-space point along a local-space direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// GetContactFeature returns the local-space vertices of the feature (point, edge or face)
	// most aligned with the direction
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3

	base() *collider
}

// collider holds what every shape shares: its owner and the derived bounding volumes
type collider struct {
	body   *RigidBody
	aabb   AABB
	sphere BoundingSphere
	obb    OBB
}

func (c *collider) base() *collider {
	return c
}

func (c *collider) Body() *RigidBody {
	return c.body
}

func (c *collider) GetAABB() AABB {
	return c.aabb
}

func (c *collider) GetBoundingSphere() BoundingSphere {
	return c.sphere
}

func (c *collider) GetOBB() OBB {
	return c.obb
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	collider
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

// LocalCorners returns the 8 corners in a fixed order: the bottom face first
// (front-right, back-right, back-left, front-left), then the top face in the same order.
// Front is +Z, right is +X, bottom is -Y.
func (b *Box) LocalCorners() [8]mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	return [8]mgl64.Vec3{
		{+hx, -hy, +hz},
		{+hx, -hy, -hz},
		{-hx, -hy, -hz},
		{-hx, -hy, +hz},
		{+hx, +hy, +hz},
		{+hx, +hy, -hz},
		{-hx, +hy, -hz},
		{-hx, +hy, +hz},
	}
}

// WorldCorners returns LocalCorners placed by the transform, in the same order
func (b *Box) WorldCorners(transform Transform) [8]mgl64.Vec3 {
	corners := b.LocalCorners()
	for i := range corners {
		corners[i] = transform.ToWorld(corners[i])
	}
	return corners
}

func (b *Box) ComputeBounds(transform Transform) {
	corners := b.WorldCorners(transform)

	b.aabb = aabbFromPoints(corners[:])
	b.sphere = BoundingSphere{Center: transform.Position, Radius: b.HalfExtents.Len()}
	b.obb = newOBB(AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}, transform)
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(b.HalfExtents, mass)
}

func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()

	hx := b.HalfExtents.X()
	hy := b.HalfExtents.Y()
	hz := b.HalfExtents.Z()

	// The 6 faces, vertices counter-clockwise seen from outside
	faces := [6]struct {
		normal   mgl64.Vec3
		vertices [4]mgl64.Vec3
	}{
		{normal: mgl64.Vec3{1, 0, 0}, vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{normal: mgl64.Vec3{-1, 0, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{normal: mgl64.Vec3{0, 1, 0}, vertices: [4]mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{normal: mgl64.Vec3{0, -1, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}}},
		{normal: mgl64.Vec3{0, 0, 1}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{normal: mgl64.Vec3{0, 0, -1}, vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}

	best := 0
	bestDot := -math.MaxFloat64
	for i, face := range faces {
		if dot := dir.Dot(face.normal); dot > bestDot {
			bestDot = dot
			best = i
		}
	}

	return faces[best].vertices[:]
}

// Sphere represents a spherical collision shape
type Sphere struct {
	collider
	Radius float64
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

func (s *Sphere) ComputeBounds(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
	s.sphere = BoundingSphere{Center: transform.Position, Radius: s.Radius}
	s.obb = newOBB(AABB{Min: radiusVec.Mul(-1), Max: radiusVec}, transform)
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r², identical on every axis
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Plane represents a half-space collision shape.
// Points p with Normal·p - Offset <= 0 are inside (solid); the boundary plane
// is Normal·p = Offset. Normal and Offset are expressed in the body local space.
type Plane struct {
	collider
	Normal mgl64.Vec3 // Plane normal (must be normalized)
	Offset float64    // Signed distance of the plane from the origin, along the normal
}

// planeFeatureSize is the half-size of the finite square standing in for the plane
// in support queries and manifold clipping
const planeFeatureSize = 1000.0

func (p *Plane) Type() ShapeType {
	return ShapeTypePlane
}

// WorldPlane returns the plane normal and offset in world space
func (p *Plane) WorldPlane(transform Transform) (mgl64.Vec3, float64) {
	normal := transform.Rotation.Rotate(p.Normal).Normalize()
	offset := p.Offset + normal.Dot(transform.Position)

	return normal, offset
}

// SignedDistance returns the distance of a world point above the plane at transform (negative below)
func (p *Plane) SignedDistance(point mgl64.Vec3, transform Transform) float64 {
	normal, offset := p.WorldPlane(transform)
	return normal.Dot(point) - offset
}

func (p *Plane) ComputeBounds(transform Transform) {
	normal, offset := p.WorldPlane(transform)
	inf := math.Inf(1)

	min := mgl64.Vec3{-inf, -inf, -inf}
	max := mgl64.Vec3{inf, inf, inf}
	// Only an axis-aligned half-space is bounded, on the side its normal points to
	for axis := range 3 {
		switch {
		case normal[axis] == 1:
			max[axis] = offset
		case normal[axis] == -1:
			min[axis] = -offset
		}
	}
	p.aabb = AABB{Min: min, Max: max}

	center := normal.Mul(offset)
	p.sphere = BoundingSphere{Center: center, Radius: inf}

	tangent1, tangent2 := getTangentBasis(normal)
	p.obb = OBB{
		Center:      center,
		HalfExtents: mgl64.Vec3{inf, inf, inf},
		Axes:        [3]mgl64.Vec3{tangent1, normal, tangent2},
	}
}

// ComputeMass returns an infinite mass: half-spaces are always static
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support approximates the half-space with a large slab below the plane
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tangent1, tangent2 := getTangentBasis(p.Normal)
	point := p.Normal.Mul(p.Offset)

	if direction.Dot(tangent1) < 0 {
		point = point.Sub(tangent1.Mul(planeFeatureSize))
	} else {
		point = point.Add(tangent1.Mul(planeFeatureSize))
	}
	if direction.Dot(tangent2) < 0 {
		point = point.Sub(tangent2.Mul(planeFeatureSize))
	} else {
		point = point.Add(tangent2.Mul(planeFeatureSize))
	}
	if direction.Dot(p.Normal) < 0 {
		point = point.Sub(p.Normal.Mul(planeFeatureSize))
	}

	return point
}

// GetContactFeature returns a large square lying in the plane
func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := getTangentBasis(p.Normal)
	center := p.Normal.Mul(p.Offset)

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-planeFeatureSize)).Add(tangent2.Mul(-planeFeatureSize)),
		center.Add(tangent1.Mul(-planeFeatureSize)).Add(tangent2.Mul(planeFeatureSize)),
		center.Add(tangent1.Mul(planeFeatureSize)).Add(tangent2.Mul(planeFeatureSize)),
		center.Add(tangent1.Mul(planeFeatureSize)).Add(tangent2.Mul(-planeFeatureSize)),
	}
}

// getTangentBasis returns two unit vectors orthogonal to the normal and to each other
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// TangentBasis is the exported form of the tangent basis used by planes
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return getTangentBasis(normal)
}
