package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// cylinderFeatureSegments is the number of rim points used to approximate a cap in contact features
const cylinderFeatureSegments = 8

// Cylinder is a solid cylinder centered on the body origin, its axis along local Y
type Cylinder struct {
	collider
	Radius     float64
	HalfHeight float64
}

// NewCylinder creates a cylinder from its radius and full height
func NewCylinder(radius, height float64) *Cylinder {
	return &Cylinder{Radius: radius, HalfHeight: height / 2}
}

func (c *Cylinder) Type() ShapeType {
	return ShapeTypeCylinder
}

// Axis returns the world-space unit axis of the cylinder at transform
func (c *Cylinder) Axis(transform Transform) mgl64.Vec3 {
	return transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0}).Normalize()
}

func (c *Cylinder) ComputeBounds(transform Transform) {
	axis := c.Axis(transform)

	// Exact extent of a disc-capped cylinder along each world axis
	var extent mgl64.Vec3
	for i := range 3 {
		radial := math.Sqrt(math.Max(0, 1-axis[i]*axis[i]))
		extent[i] = c.HalfHeight*math.Abs(axis[i]) + c.Radius*radial
	}

	c.aabb = AABB{Min: transform.Position.Sub(extent), Max: transform.Position.Add(extent)}
	c.sphere = BoundingSphere{
		Center: transform.Position,
		Radius: math.Sqrt(c.Radius*c.Radius + c.HalfHeight*c.HalfHeight),
	}

	local := mgl64.Vec3{c.Radius, c.HalfHeight, c.Radius}
	c.obb = newOBB(AABB{Min: local.Mul(-1), Max: local}, transform)
}

func (c *Cylinder) ComputeMass(density float64) float64 {
	volume := math.Pi * c.Radius * c.Radius * 2 * c.HalfHeight

	return density * volume
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	h := 2 * c.HalfHeight
	r2 := c.Radius * c.Radius

	side := mass * (3*r2 + h*h) / 12.0
	axial := 0.5 * mass * r2

	return mgl64.Diag3(mgl64.Vec3{side, axial, side})
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	y := c.HalfHeight
	if direction.Y() < 0 {
		y = -y
	}

	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if radial.LenSqr() < 1e-16 {
		return mgl64.Vec3{0, y, 0}
	}
	radial = radial.Normalize().Mul(c.Radius)

	return mgl64.Vec3{radial.X(), y, radial.Z()}
}

// GetContactFeature returns a cap polygon when the direction runs along the axis,
// otherwise the side segment furthest along the direction
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()

	if math.Abs(dir.Y()) > 0.7071 {
		y := c.HalfHeight
		if dir.Y() < 0 {
			y = -y
		}

		rim := make([]mgl64.Vec3, cylinderFeatureSegments)
		for i := range cylinderFeatureSegments {
			angle := 2 * math.Pi * float64(i) / cylinderFeatureSegments
			if y < 0 {
				angle = -angle
			}
			rim[i] = mgl64.Vec3{c.Radius * math.Cos(angle), y, c.Radius * math.Sin(angle)}
		}
		return rim
	}

	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}.Normalize().Mul(c.Radius)
	return []mgl64.Vec3{
		{radial.X(), -c.HalfHeight, radial.Z()},
		{radial.X(), c.HalfHeight, radial.Z()},
	}
}
