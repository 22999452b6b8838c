package gjk

import (
	"math"

	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceResult is the outcome of a Distance query
type DistanceResult struct {
	// Overlapping is true when the shapes touch or interpenetrate
	Overlapping bool
	// Distance is the gap between the shapes, 0 when overlapping
	Distance float64
	// Separation is the point of A - B closest to the origin.
	// Translating A by -Separation brings the shapes into contact.
	Separation mgl64.Vec3
	Iterations int
}

// Distance computes the minimum distance between two convex bodies.
//
// It follows the closest-point formulation of GJK: v is the point of the current
// simplex nearest to the origin, each iteration adds the support point along -v and
// reduces the simplex to the smallest feature still holding v. It stops when the
// support point no longer brings v closer to the origin.
func Distance(a, b *actor.RigidBody) DistanceResult {
	var simplex Simplex

	direction := a.Transform.Position.Sub(b.Transform.Position)
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}
	v := MinkowskiSupport(a, b, direction.Mul(-1))
	simplex.push(v)

	for i := range MaxIterations {
		vv := v.Dot(v)
		if vv < touchingDistanceSqr {
			return DistanceResult{Overlapping: true, Iterations: i}
		}

		w := MinkowskiSupport(a, b, v.Mul(-1))

		// No significant progress toward the origin: v is the closest point
		if vv-v.Dot(w) <= DistanceTolerance*vv || simplex.contains(w) {
			return separated(v, i)
		}

		simplex.push(w)

		var inside bool
		v, inside = closestToOrigin(&simplex)
		if inside {
			return DistanceResult{Overlapping: true, Iterations: i}
		}
	}

	return separated(v, MaxIterations)
}

func separated(v mgl64.Vec3, iterations int) DistanceResult {
	distance := v.Len()
	if distance < math.Sqrt(touchingDistanceSqr) {
		return DistanceResult{Overlapping: true, Iterations: iterations}
	}
	return DistanceResult{Distance: distance, Separation: v, Iterations: iterations}
}

// closestToOrigin returns the point of the simplex closest to the origin and reduces
// the simplex to the vertices supporting it. inside is true when a tetrahedron
// encloses the origin.
func closestToOrigin(simplex *Simplex) (mgl64.Vec3, bool) {
	switch simplex.Count {
	case 1:
		return simplex.Points[0], false
	case 2:
		return closestOnSegment(simplex), false
	case 3:
		return closestOnTriangle(simplex), false
	}
	return closestOnTetrahedron(simplex)
}

func closestOnSegment(simplex *Simplex) mgl64.Vec3 {
	a, b := simplex.Points[0], simplex.Points[1]
	ab := b.Sub(a)

	denom := ab.Dot(ab)
	if denom < 1e-20 {
		simplex.Count = 1
		return a
	}

	t := -a.Dot(ab) / denom
	switch {
	case t <= 0:
		simplex.Count = 1
		return a
	case t >= 1:
		simplex.Points[0] = b
		simplex.Count = 1
		return b
	}
	return a.Add(ab.Mul(t))
}

// closestOnTriangle follows the Voronoi region walk of Ericson, with the query point at the origin
func closestOnTriangle(simplex *Simplex) mgl64.Vec3 {
	a, b, c := simplex.Points[0], simplex.Points[1], simplex.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)

	ap := a.Mul(-1)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		simplex.set(a)
		return a
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		simplex.set(b)
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		simplex.set(a, b)
		return a.Add(ab.Mul(t))
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		simplex.set(c)
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		simplex.set(a, c)
		return a.Add(ac.Mul(t))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		simplex.set(b, c)
		return b.Add(c.Sub(b).Mul(t))
	}

	denom := va + vb + vc
	if math.Abs(denom) < 1e-20 {
		// Degenerate triangle: fall back to its longest edge
		simplex.set(a, b)
		return closestOnSegment(simplex)
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// closestOnTetrahedron checks the faces the origin lies outside of, keeping the closest.
// When it lies outside none, the tetrahedron encloses it.
func closestOnTetrahedron(simplex *Simplex) (mgl64.Vec3, bool) {
	a, b, c, d := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]

	faces := [4][4]mgl64.Vec3{
		{a, b, c, d},
		{a, c, d, b},
		{a, d, b, c},
		{b, d, c, a},
	}

	found := false
	best := Simplex{}
	var bestPoint mgl64.Vec3
	bestDistance := math.MaxFloat64

	for _, face := range faces {
		if !originOutsideFace(face[0], face[1], face[2], face[3]) {
			continue
		}

		candidate := Simplex{Points: [4]mgl64.Vec3{face[0], face[1], face[2]}, Count: 3}
		point := closestOnTriangle(&candidate)
		if distance := point.Dot(point); distance < bestDistance {
			found = true
			bestDistance = distance
			bestPoint = point
			best = candidate
		}
	}

	if !found {
		return mgl64.Vec3{}, true
	}

	*simplex = best
	return bestPoint, false
}

// originOutsideFace reports whether the origin and the opposite vertex lie on different
// sides of the plane through a, b, c. A flat tetrahedron counts every face as outside.
func originOutsideFace(a, b, c, opposite mgl64.Vec3) bool {
	normal := b.Sub(a).Cross(c.Sub(a))
	signOrigin := a.Mul(-1).Dot(normal)
	signOpposite := opposite.Sub(a).Dot(normal)

	if math.Abs(signOpposite) < 1e-14 {
		return true
	}
	return signOrigin*signOpposite < 0
}

// set replaces the simplex points
func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}
