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

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Center returns the middle point of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfExtents returns half the size of the box on each axis
func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// aabbFromPoints returns the tightest AABB enclosing the given points
func aabbFromPoints(points []mgl64.Vec3) AABB {
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

// BoundingSphere is a world-space sphere enclosing a shape
type BoundingSphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Overlaps checks if two bounding spheres touch or overlap
func (s BoundingSphere) Overlaps(other BoundingSphere) bool {
	r := s.Radius + other.Radius
	return s.Center.Sub(other.Center).LenSqr() <= r*r
}

// ContainsPoint checks if a point lies inside the sphere
func (s BoundingSphere) ContainsPoint(point mgl64.Vec3) bool {
	return point.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}

// OBB is an oriented bounding box: a center, half-extents along the body axes,
// and those axes in world space.
type OBB struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Axes        [3]mgl64.Vec3
}

// newOBB builds the OBB of a local-space box [min, max] placed by transform
func newOBB(local AABB, transform Transform) OBB {
	return OBB{
		Center:      transform.ToWorld(local.Center()),
		HalfExtents: local.HalfExtents(),
		Axes:        transform.Axes(),
	}
}

// Corners returns the 8 world-space corners of the box
func (o OBB) Corners() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := range 8 {
		p := o.Center
		for axis := range 3 {
			sign := 1.0
			if i&(1<<axis) == 0 {
				sign = -1.0
			}
			p = p.Add(o.Axes[axis].Mul(sign * o.HalfExtents[axis]))
		}
		corners[i] = p
	}

	return corners
}

// ContainsPoint checks if a world-space point lies inside the box
func (o OBB) ContainsPoint(point mgl64.Vec3) bool {
	d := point.Sub(o.Center)
	for axis := range 3 {
		if math.Abs(d.Dot(o.Axes[axis])) > o.HalfExtents[axis] {
			return false
		}
	}
	return true
}

// Overlaps tests two OBBs against each other with the separating axis theorem
func (o OBB) Overlaps(other OBB) bool {
	t := other.Center.Sub(o.Center)

	axes := make([]mgl64.Vec3, 0, 15)
	axes = append(axes, o.Axes[:]...)
	axes = append(axes, other.Axes[:]...)
	for i := range 3 {
		for j := range 3 {
			cross := o.Axes[i].Cross(other.Axes[j])
			if cross.LenSqr() > 1e-12 {
				axes = append(axes, cross.Normalize())
			}
		}
	}

	for _, axis := range axes {
		if math.Abs(t.Dot(axis)) > o.projectedRadius(axis)+other.projectedRadius(axis) {
			return false
		}
	}
	return true
}

func (o OBB) projectedRadius(axis mgl64.Vec3) float64 {
	return o.HalfExtents[0]*math.Abs(o.Axes[0].Dot(axis)) +
		o.HalfExtents[1]*math.Abs(o.Axes[1].Dot(axis)) +
		o.HalfExtents[2]*math.Abs(o.Axes[2].Dot(axis))
}
