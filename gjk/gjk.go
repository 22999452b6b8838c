// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for convex shapes.
//
// GJK works on the Minkowski difference A - B of two convex shapes, only through
// their support functions. The shapes overlap exactly when the difference contains
// the origin. Two queries are provided:
//   - GJK: a boolean overlap test that leaves a tetrahedron enclosing the origin
//     in the simplex, the starting polytope of EPA.
//   - Distance: the separation between the shapes when they do not overlap.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
//   - Ericson: "Real-Time Collision Detection" (2005), closest point queries
package gjk

import (
	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds both queries
	MaxIterations = 64

	// DistanceTolerance is the relative progress under which Distance stops refining
	DistanceTolerance = 1e-10

	// touchingDistanceSqr is the squared distance treated as contact
	touchingDistanceSqr = 1e-16
)

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// It is a fixed-size value so queries never allocate.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

func (s *Simplex) contains(p mgl64.Vec3) bool {
	for i := 0; i < s.Count; i++ {
		if s.Points[i] == p {
			return true
		}
	}
	return false
}

// MinkowskiSupport computes the support point of the Minkowski difference A - B:
// furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a, b *actor.RigidBody, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// GJK reports whether two convex bodies overlap.
//
// On overlap the simplex usually holds a tetrahedron containing the origin, which EPA
// expands. When the shapes merely touch, the simplex may stop at a lower dimension.
func GJK(a, b *actor.RigidBody, simplex *Simplex) bool {
	// Starting toward the other shape typically reduces iterations
	direction := b.Transform.Position.Sub(a.Transform.Position)
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Reset()
	simplex.push(MinkowskiSupport(a, b, direction))

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < touchingDistanceSqr {
		return true
	}

	for range MaxIterations {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin: the origin cannot be enclosed
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.push(newPoint)

		// Reduces the simplex to its feature closest to the origin and updates the direction
		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin dispatches on the simplex dimension.
// Only the tetrahedron can enclose the origin; lower dimensions return true
// only when the origin lies exactly on them (touching shapes).
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles the segment case, A being the newest point
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Origin behind A: A alone is the closest feature
	if ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Origin past B: B alone is the closest feature
	if ab.Dot(ao) >= ab.LenSqr() {
		simplex.Points[0] = b
		simplex.Count = 1
		*direction = b.Mul(-1)
		return direction.LenSqr() < touchingDistanceSqr
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		// Origin on the segment
		return true
	}

	*direction = abPerp
	return false
}

// triangle handles the triangle case, A being the newest point.
// Collinear points degrade to the line case.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-10 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return line(simplex, direction)
	}

	// Edge AB region
	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	// Edge AC region
	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	side := abc.Dot(ao)
	switch {
	case side > 1e-12:
		*direction = abc
	case side < -1e-12:
		// Below: swap winding so the next tetrahedron keeps a consistent orientation
		simplex.Points[0] = b
		simplex.Points[1] = c
		simplex.Points[2] = a
		*direction = abc.Mul(-1)
	default:
		// Origin in the triangle plane, inside the triangle
		return true
	}

	return false
}

// tetrahedron tests the origin against the three faces sharing the newest point A.
// Face normals are oriented away from the fourth vertex.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3]
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	// Flat tetrahedron: drop the oldest point
	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		simplex.Points[0] = c
		simplex.Points[1] = b
		simplex.Points[2] = a
		simplex.Count = 3
		return triangle(simplex, direction)
	}

	if abc.Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = b
		simplex.Points[2] = a
		simplex.Count = 3
		return triangle(simplex, direction)
	}

	if acd.Dot(ao) > 0 {
		simplex.Points[0] = d
		simplex.Points[1] = c
		simplex.Points[2] = a
		simplex.Count = 3
		return triangle(simplex, direction)
	}

	if adb.Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = d
		simplex.Points[2] = a
		simplex.Count = 3
		return triangle(simplex, direction)
	}

	return true
}
