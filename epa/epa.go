// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects an overlap to determine:
//   - Penetration depth (how far shapes overlap)
//   - Penetration direction (the direction to separate shapes)
//
// The algorithm expands a polytope (starting from GJK's final simplex) toward the boundary
// of the Minkowski difference, finding the face closest to the origin, which gives the
// Minimum Translation Vector (MTV) separating the shapes.
// GenerateManifold then turns the MTV into 1-4 contact points by clipping shape features.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/rigid/actor"
	"github.com/akmonengine/rigid/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion.
	// Polyhedra converge in 5-15 iterations. Deeply overlapping curved shapes need
	// up to about 200, the polytope has to follow the surface around the origin.
	EPAMaxIterations = 256

	// EPATolerance defines when EPA has converged: the support point along the closest
	// face normal improves the face distance by less than this amount.
	EPATolerance = 0.0001

	// TouchingDepth is the depth under which the shapes are considered touching,
	// resolved as a zero translation vector
	TouchingDepth = 1e-9

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	// This helps with numerical stability and axis-aligned collisions.
	NormalSnapThreshold = 1e-8

	// maxPolytopeFaces bounds the polytope growth, each iteration adds two faces
	maxPolytopeFaces = 1024
)

// ErrNotConverged is returned when the polytope stopped before converging: out of
// iterations, out of faces, or a degenerate expansion. The Result still holds the
// best estimate found.
var ErrNotConverged = errors.New("epa: did not converge")

// Result is the minimum translation found by EPA.
// Normal points from A toward B: translating A by -Normal*Depth separates the shapes.
type Result struct {
	Normal     mgl64.Vec3
	Depth      float64
	Iterations int
}

// MTV returns the minimum translation vector Normal*Depth, the zero vector when touching
func (r Result) MTV() mgl64.Vec3 {
	return r.Normal.Mul(r.Depth)
}

// IsZero reports a touching or degenerate configuration with nothing to resolve
func (r Result) IsZero() bool {
	return r.Depth <= TouchingDepth
}

// EPA computes the penetration of two overlapping bodies, using a fresh builder.
// Callers running many queries should keep a PolytopeBuilder and call its EPA method.
func EPA(a, b *actor.RigidBody, simplex *gjk.Simplex) (Result, error) {
	var builder PolytopeBuilder
	return builder.EPA(a, b, simplex)
}

// EPA computes penetration depth and direction for overlapping convex shapes.
//
// Algorithm overview:
//  1. Start with simplex from GJK (tetrahedron containing origin)
//  2. Build initial polytope faces from simplex
//  3. Find face closest to origin
//  4. Get support point in face normal direction
//  5. If converged (new point doesn't improve distance) → done
//  6. Otherwise, expand polytope by adding support point
//  7. Repeat from step 3
//
// GJK may stop on a point, segment or triangle holding the origin; the simplex is then
// completed into a tetrahedron. When no tetrahedron can be built (flat Minkowski
// difference), the zero Result is returned.
func (builder *PolytopeBuilder) EPA(a, b *actor.RigidBody, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 4 && !completeSimplex(a, b, simplex) {
		return Result{}, nil
	}

	builder.Reset()
	builder.BuildInitialFaces(simplex)

	var best Result
	for i := range EPAMaxIterations {
		closestFaceIndex := builder.FindClosestFaceIndex()
		if closestFaceIndex < 0 {
			break
		}
		closestFace := builder.faces[closestFaceIndex]
		best = Result{Normal: closestFace.Normal, Depth: closestFace.Distance, Iterations: i + 1}

		support := gjk.MinkowskiSupport(a, b, closestFace.Normal)
		distance := support.Dot(closestFace.Normal)

		if distance-closestFace.Distance < EPATolerance || builder.hasPoint(support) {
			return finalize(best), nil
		}

		if err := builder.AddPointAndRebuildFaces(support, closestFaceIndex); err != nil {
			// The current face is the best estimate
			return finalize(best), err
		}
	}

	return finalize(best), fmt.Errorf("%w after %d iterations", ErrNotConverged, EPAMaxIterations)
}

// completeSimplex grows a GJK simplex of 1-3 points into a tetrahedron with support
// points along directions orthogonal to the current feature
func completeSimplex(a, b *actor.RigidBody, simplex *gjk.Simplex) bool {
	const epsilon = 1e-9

	if simplex.Count == 0 {
		return false
	}

	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	if simplex.Count == 2 && simplex.Points[1].Sub(simplex.Points[0]).LenSqr() <= epsilon {
		simplex.Count = 1
	}

	if simplex.Count == 1 {
		p0 := simplex.Points[0]
		for _, axis := range axes {
			p := gjk.MinkowskiSupport(a, b, axis)
			if p.Sub(p0).LenSqr() > epsilon {
				simplex.Points[1] = p
				simplex.Count = 2
				break
			}
		}
		if simplex.Count < 2 {
			return false
		}
	}

	if simplex.Count == 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		segment := p1.Sub(p0).Normalize()
		tangent1, tangent2 := actor.TangentBasis(segment)

		for _, direction := range [4]mgl64.Vec3{tangent1, tangent1.Mul(-1), tangent2, tangent2.Mul(-1)} {
			p := gjk.MinkowskiSupport(a, b, direction)
			if p.Sub(p0).Cross(segment).LenSqr() > epsilon {
				simplex.Points[2] = p
				simplex.Count = 3
				break
			}
		}
		if simplex.Count < 3 {
			return false
		}
	}

	p0 := simplex.Points[0]
	normal := simplex.Points[1].Sub(p0).Cross(simplex.Points[2].Sub(p0))
	if normal.LenSqr() < epsilon*epsilon {
		return false
	}
	normal = normal.Normalize()

	for _, direction := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
		p := gjk.MinkowskiSupport(a, b, direction)
		if math.Abs(p.Sub(p0).Dot(normal)) > epsilon {
			simplex.Points[3] = p
			simplex.Count = 4
			return true
		}
	}

	return false
}

func finalize(result Result) Result {
	if result.Depth <= TouchingDepth || math.IsInf(result.Depth, 0) {
		return Result{Iterations: result.Iterations}
	}
	result.Normal = snapNormalToAxis(result.Normal)
	return result
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned collisions (box on ground)
// by preventing tiny floating-point errors from causing jitter in tangent directions.
//
// Components with absolute value < NormalSnapThreshold are set to 0, then the
// vector is renormalized.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := range 3 {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}

	return normal.Mul(1.0 / length)
}
