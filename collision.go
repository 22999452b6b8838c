package rigid

import (
	"errors"
	"log/slog"
	"math"

	"github.com/akmonengine/rigid/actor"
	"github.com/akmonengine/rigid/constraint"
	"github.com/akmonengine/rigid/epa"
	"github.com/akmonengine/rigid/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// parallelEpsilon decides when a cylinder axis is parallel or perpendicular to a plane normal
	parallelEpsilon = 1e-9

	// insideTolerance accepts points lying on a box face or a triangle edge
	insideTolerance = 1e-9
)

// collideFunc tests a pair and records its contacts in resolver, when not nil.
// Contacts follow the pair order: the normal points from b toward a.
type collideFunc func(d *Detector, a, b *actor.RigidBody, resolver *constraint.ContactResolver) bool

// pairRoutine is a dispatch table entry. swap reverses the arguments so a routine
// written for (box, plane) also serves (plane, box).
type pairRoutine struct {
	collide collideFunc
	swap    bool
}

var pairRoutines = buildPairRoutines()

func buildPairRoutines() [actor.ShapeTypeCount][actor.ShapeTypeCount]pairRoutine {
	var table [actor.ShapeTypeCount][actor.ShapeTypeCount]pairRoutine

	for a := range actor.ShapeTypeCount {
		for b := range actor.ShapeTypeCount {
			table[a][b] = pairRoutine{collide: collideConvex}
		}
	}

	register := func(a, b actor.ShapeType, collide collideFunc) {
		table[a][b] = pairRoutine{collide: collide}
		if a != b {
			table[b][a] = pairRoutine{collide: collide, swap: true}
		}
	}

	// Two half-spaces never collide
	table[actor.ShapeTypePlane][actor.ShapeTypePlane] = pairRoutine{}

	register(actor.ShapeTypeSphere, actor.ShapeTypePlane, collideSpherePlane)
	register(actor.ShapeTypeBox, actor.ShapeTypePlane, collideBoxPlane)
	register(actor.ShapeTypeCylinder, actor.ShapeTypePlane, collideCylinderPlane)
	register(actor.ShapeTypeConvexMesh, actor.ShapeTypePlane, collideMeshPlane)
	register(actor.ShapeTypeSphere, actor.ShapeTypeSphere, collideSphereSphere)
	register(actor.ShapeTypeBox, actor.ShapeTypeConvexMesh, collideBoxMesh)

	return table
}

// Detector is the narrow phase: it dispatches a body pair to a closed-form routine
// for its shape kinds, or to GJK and EPA for any other convex pair.
// A Detector keeps scratch buffers and is not safe for concurrent use.
type Detector struct {
	Logger *slog.Logger

	simplex  gjk.Simplex
	polytope epa.PolytopeBuilder
}

// NewDetector creates a detector logging to logger, or to slog.Default() when nil
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{Logger: logger}
}

// Collide reports whether a and b intersect and appends their contacts to resolver.
// A nil resolver turns the call into an overlap query. Contacts beyond the resolver
// capacity are dropped.
func (d *Detector) Collide(a, b *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	if a.Shape == nil || b.Shape == nil {
		return false
	}

	routine := pairRoutines[a.Shape.Type()][b.Shape.Type()]
	if routine.collide == nil {
		return false
	}
	if routine.swap {
		a, b = b, a
	}

	return routine.collide(d, a, b, resolver)
}

// Overlaps reports whether a and b intersect, without generating contacts
func (d *Detector) Overlaps(a, b *actor.RigidBody) bool {
	return d.Collide(a, b, nil)
}

// Distance returns the gap between a and b, measured with GJK.
// Against a plane the gap is the signed distance of the other body's lowest point.
// Bodies without a shape, and two planes, are infinitely far apart.
func (d *Detector) Distance(a, b *actor.RigidBody) gjk.DistanceResult {
	if a.Shape == nil || b.Shape == nil {
		return gjk.DistanceResult{Distance: math.Inf(1)}
	}

	aIsPlane := a.Shape.Type() == actor.ShapeTypePlane
	bIsPlane := b.Shape.Type() == actor.ShapeTypePlane
	switch {
	case aIsPlane && bIsPlane:
		return gjk.DistanceResult{Distance: math.Inf(1)}
	case bIsPlane:
		return planeDistance(a, b, 1)
	case aIsPlane:
		return planeDistance(b, a, -1)
	}

	return gjk.Distance(a, b)
}

// planeDistance measures body against planeBody; sign orients Separation as A - B
func planeDistance(body, planeBody *actor.RigidBody, sign float64) gjk.DistanceResult {
	normal, offset := planeBody.Shape.(*actor.Plane).WorldPlane(planeBody.Transform)
	distance := normal.Dot(body.SupportWorld(normal.Mul(-1))) - offset
	if distance <= 0 {
		return gjk.DistanceResult{Overlapping: true}
	}

	return gjk.DistanceResult{Distance: distance, Separation: normal.Mul(sign * distance)}
}

func addContact(resolver *constraint.ContactResolver, a, b *actor.RigidBody, position, normal mgl64.Vec3, penetration float64) {
	if resolver != nil {
		resolver.AddContact(a, b, position, normal, penetration)
	}
}

// collideConvex is the generic path: GJK for the overlap, EPA for the translation
// vector and manifold clipping for the contact points
func collideConvex(d *Detector, a, b *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	if !gjk.GJK(a, b, &d.simplex) {
		return false
	}
	if resolver == nil {
		return true
	}

	result, err := d.polytope.EPA(a, b, &d.simplex)
	if err != nil {
		if !errors.Is(err, epa.ErrNotConverged) {
			return false
		}
		d.Logger.Debug("penetration estimate kept",
			slog.String("shapeA", a.Shape.Type().String()),
			slog.String("shapeB", b.Shape.Type().String()),
			slog.Float64("depth", result.Depth),
			slog.Any("error", err),
		)
	}

	// Touching: nothing to push apart
	if result.IsZero() {
		return true
	}

	manifold := epa.GenerateManifold(a, b, result.Normal, result.Depth)
	normal := result.Normal.Mul(-1)
	for _, point := range manifold.Slice() {
		addContact(resolver, a, b, point.Position, normal, point.Penetration)
	}

	return true
}

// collideSpherePlane produces a single contact at the sphere center projected on the plane
func collideSpherePlane(_ *Detector, sphereBody, planeBody *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	sphere := sphereBody.Shape.(*actor.Sphere)
	plane := planeBody.Shape.(*actor.Plane)
	normal, offset := plane.WorldPlane(planeBody.Transform)

	center := sphereBody.Transform.Position
	distance := normal.Dot(center) - offset
	if distance > sphere.Radius {
		return false
	}

	addContact(resolver, sphereBody, planeBody, center.Sub(normal.Mul(distance)), normal, sphere.Radius-distance)
	return true
}

// collideBoxPlane tests the 8 corners, bottom face first, in the order of Box.LocalCorners
func collideBoxPlane(_ *Detector, boxBody, planeBody *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	box := boxBody.Shape.(*actor.Box)
	plane := planeBody.Shape.(*actor.Plane)
	normal, offset := plane.WorldPlane(planeBody.Transform)

	collision := false
	for _, corner := range box.WorldCorners(boxBody.Transform) {
		distance := normal.Dot(corner) - offset
		if distance > 0 {
			continue
		}
		collision = true
		addContact(resolver, boxBody, planeBody, corner, normal, -distance)
	}

	return collision
}

// collideMeshPlane tests every distinct vertex of the mesh, like the box corners
func collideMeshPlane(_ *Detector, meshBody, planeBody *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	mesh := meshBody.Shape.(*actor.ConvexMesh)
	plane := planeBody.Shape.(*actor.Plane)
	normal, offset := plane.WorldPlane(planeBody.Transform)

	collision := false
	for _, vertex := range mesh.Vertices() {
		point := meshBody.Transform.ToWorld(vertex)
		distance := normal.Dot(point) - offset
		if distance > 0 {
			continue
		}
		collision = true
		addContact(resolver, meshBody, planeBody, point, normal, -distance)
	}

	return collision
}

// collideCylinderPlane picks the candidate points from the cylinder orientation:
//   - axis along the normal: both cap centers
//   - axis across the normal: both ends of the lowest side line
//   - tilted: the lowest rim point of each cap, and the center of the lower cap
//
// Every candidate on or below the plane gives a contact with its own penetration.
func collideCylinderPlane(_ *Detector, cylinderBody, planeBody *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	cylinder := cylinderBody.Shape.(*actor.Cylinder)
	plane := planeBody.Shape.(*actor.Plane)
	normal, offset := plane.WorldPlane(planeBody.Transform)

	center := cylinderBody.Transform.Position
	axis := cylinder.Axis(cylinderBody.Transform)
	alignment := axis.Dot(normal)

	top := center.Add(axis.Mul(cylinder.HalfHeight))
	bottom := center.Sub(axis.Mul(cylinder.HalfHeight))

	var candidates [3]mgl64.Vec3
	count := 0

	if math.Abs(alignment) >= 1-parallelEpsilon {
		candidates[0], candidates[1] = bottom, top
		count = 2
	} else {
		// Direction inside the cap plane pointing down the plane normal
		radial := normal.Sub(axis.Mul(alignment)).Normalize().Mul(cylinder.Radius)

		candidates[0] = bottom.Sub(radial)
		candidates[1] = top.Sub(radial)
		count = 2

		if math.Abs(alignment) > parallelEpsilon {
			lowerCap := bottom
			if alignment < 0 {
				lowerCap = top
			}
			candidates[2] = lowerCap
			count = 3
		}
	}

	collision := false
	for _, point := range candidates[:count] {
		distance := normal.Dot(point) - offset
		if distance > 0 {
			continue
		}
		collision = true
		addContact(resolver, cylinderBody, planeBody, point, normal, -distance)
	}

	return collision
}

// collideSphereSphere is the closed form of two spheres, the contact lying on the surface of b
func collideSphereSphere(_ *Detector, a, b *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	radiusA := a.Shape.(*actor.Sphere).Radius
	radiusB := b.Shape.(*actor.Sphere).Radius

	delta := a.Transform.Position.Sub(b.Transform.Position)
	radii := radiusA + radiusB
	distanceSqr := delta.LenSqr()
	if distanceSqr > radii*radii {
		return false
	}

	distance := math.Sqrt(distanceSqr)
	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-12 {
		normal = delta.Mul(1.0 / distance)
	}

	position := b.Transform.Position.Add(normal.Mul(radiusB))
	addContact(resolver, a, b, position, normal, radii-distance)
	return true
}

// collideBoxMesh runs collideBoxTriangle on every triangle of the mesh.
// A box crossing no triangle is either outside the hull or fully inside it, which
// collideConvex tells apart.
func collideBoxMesh(d *Detector, boxBody, meshBody *actor.RigidBody, resolver *constraint.ContactResolver) bool {
	box := boxBody.Shape.(*actor.Box)
	mesh := meshBody.Shape.(*actor.ConvexMesh)

	if !box.GetAABB().Overlaps(mesh.GetAABB()) {
		return false
	}

	collision := false
	for i := range mesh.TriangleCount() {
		triangle := mesh.WorldTriangle(i, meshBody.Transform)
		if collideBoxTriangle(boxBody, meshBody, box, triangle, resolver) {
			collision = true
		}
	}
	if collision {
		return true
	}

	return collideConvex(d, boxBody, meshBody, resolver)
}

// collideBoxTriangle tests a box against one world triangle with the separating axis theorem.
// Contacts carry the triangle normal, turned toward the box:
//   - the triangle vertices inside the box, when there are any
//   - otherwise the box corners under the triangle plane whose projection falls inside the triangle
//   - otherwise the deepest box corner along the normal
func collideBoxTriangle(boxBody, meshBody *actor.RigidBody, box *actor.Box, triangle actor.Triangle, resolver *constraint.ContactResolver) bool {
	normal := triangle.Normal()
	if normal == (mgl64.Vec3{}) {
		return false
	}

	transform := boxBody.Transform
	center := transform.Position
	axes := transform.Axes()

	if !boxTriangleOverlap(center, axes, box.HalfExtents, triangle, normal) {
		return false
	}
	if resolver == nil {
		return true
	}

	if normal.Dot(center.Sub(triangle[0])) < 0 {
		normal = normal.Mul(-1)
	}

	// Lowest point of the box along the normal
	lowest := boxBody.SupportWorld(normal.Mul(-1))
	lowestDistance := lowest.Dot(normal)

	found := false
	for _, vertex := range triangle {
		if !insideBox(transform.ToLocal(vertex), box.HalfExtents) {
			continue
		}
		found = true
		addContact(resolver, boxBody, meshBody, vertex, normal, math.Max(vertex.Dot(normal)-lowestDistance, 0))
	}
	if found {
		return true
	}

	for _, corner := range box.WorldCorners(transform) {
		distance := corner.Sub(triangle[0]).Dot(normal)
		if distance > 0 {
			continue
		}
		if !insideTriangle(corner, triangle, normal) {
			continue
		}
		found = true
		addContact(resolver, boxBody, meshBody, corner, normal, -distance)
	}
	if found {
		return true
	}

	addContact(resolver, boxBody, meshBody, lowest, normal, math.Max(triangle[0].Dot(normal)-lowestDistance, 0))
	return true
}

// boxTriangleOverlap tests the 13 separating axes of a box and a triangle:
// the 3 box face normals, the triangle normal, and the 9 edge cross products
func boxTriangleOverlap(center mgl64.Vec3, axes [3]mgl64.Vec3, halfExtents mgl64.Vec3, triangle actor.Triangle, normal mgl64.Vec3) bool {
	edges := [3]mgl64.Vec3{
		triangle[1].Sub(triangle[0]),
		triangle[2].Sub(triangle[1]),
		triangle[0].Sub(triangle[2]),
	}

	var candidates [13]mgl64.Vec3
	candidates[0], candidates[1], candidates[2] = axes[0], axes[1], axes[2]
	candidates[3] = normal
	n := 4
	for _, axis := range axes {
		for _, edge := range edges {
			candidates[n] = axis.Cross(edge)
			n++
		}
	}

	for _, axis := range candidates {
		if axis.LenSqr() < 1e-18 {
			continue
		}

		radius := halfExtents.X()*math.Abs(axis.Dot(axes[0])) +
			halfExtents.Y()*math.Abs(axis.Dot(axes[1])) +
			halfExtents.Z()*math.Abs(axis.Dot(axes[2]))
		c := center.Dot(axis)

		p0, p1, p2 := triangle[0].Dot(axis), triangle[1].Dot(axis), triangle[2].Dot(axis)
		minP := math.Min(p0, math.Min(p1, p2))
		maxP := math.Max(p0, math.Max(p1, p2))

		if minP > c+radius || maxP < c-radius {
			return false
		}
	}

	return true
}

func insideBox(local, halfExtents mgl64.Vec3) bool {
	for i := range 3 {
		if math.Abs(local[i]) > halfExtents[i]+insideTolerance {
			return false
		}
	}
	return true
}

// insideTriangle reports whether the projection of point along normal falls inside the triangle
func insideTriangle(point mgl64.Vec3, triangle actor.Triangle, normal mgl64.Vec3) bool {
	for i := range 3 {
		a := triangle[i]
		b := triangle[(i+1)%3]
		edgeNormal := b.Sub(a).Cross(normal)
		// Triangle interior is on the side of the third vertex
		third := triangle[(i+2)%3]
		side := third.Sub(a).Dot(edgeNormal)
		if point.Sub(a).Dot(edgeNormal)*side < -insideTolerance {
			return false
		}
	}
	return true
}
