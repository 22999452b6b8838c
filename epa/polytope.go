package epa

import (
	"fmt"
	"math"
	"slices"

	"github.com/akmonengine/rigid/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope. Its points wind counter-clockwise seen from
// outside, so (P1-P0)x(P2-P0) is the outward normal.
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // Distance from the origin to the face plane
}

// Edge is a directed polytope edge. A horizon edge keeps the winding of the
// visible face it came from, so the face built on it is outward as well.
type Edge struct {
	A, B mgl64.Vec3
}

// PolytopeBuilder manages polytope expansion. Its buffers are kept between queries,
// so a builder reused by the same caller stops allocating once warmed up.
// A builder is not safe for concurrent use.
type PolytopeBuilder struct {
	faces  []Face
	points []mgl64.Vec3

	horizon        []Edge
	visibleIndices []int
}

// Reset prepares the builder for reuse
func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.points = b.points[:0]
	b.horizon = b.horizon[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// Faces returns the current polytope faces
func (b *PolytopeBuilder) Faces() []Face {
	return b.faces
}

// BuildInitialFaces creates the initial polytope from a GJK tetrahedron simplex
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) {
	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	b.points = append(b.points, p0, p1, p2, p3)

	b.faces = append(b.faces,
		createFaceOutward(p0, p1, p2, p3), // Face ABC, opposite point is D
		createFaceOutward(p0, p2, p3, p1), // Face ACD, opposite point is B
		createFaceOutward(p0, p3, p1, p2), // Face ADB, opposite point is C
		createFaceOutward(p1, p3, p2, p0), // Face BDC, opposite point is A
	)
}

// createFaceOutward winds the triangle so its normal points away from oppositePoint,
// a vertex of the tetrahedron that is not on the face
func createFaceOutward(p0, p1, p2, oppositePoint mgl64.Vec3) Face {
	if p1.Sub(p0).Cross(p2.Sub(p0)).Dot(oppositePoint.Sub(p0)) > 0 {
		p1, p2 = p2, p1
	}
	return newFace(p0, p1, p2)
}

// newFace builds a face from counter-clockwise points.
// Zero-area triangles get an infinite distance so they are never the closest face.
func newFace(p0, p1, p2 mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	normalLength := normal.Len()
	if normalLength < 1e-12 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = math.Inf(1)
		return face
	}

	face.Normal = normal.Mul(1.0 / normalLength)
	// The origin is inside the polytope, a negative distance only comes from rounding
	// when it lies on the face plane
	face.Distance = p0.Dot(face.Normal)
	return face
}

// FindClosestFaceIndex returns the index of the face closest to the origin.
// Returns -1 if no valid face exists.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	closestIndex := -1
	minDistance := math.Inf(1)

	for i := range b.faces {
		if b.faces[i].Distance < minDistance {
			closestIndex = i
			minDistance = b.faces[i].Distance
		}
	}

	return closestIndex
}

func (b *PolytopeBuilder) hasPoint(point mgl64.Vec3) bool {
	return slices.Contains(b.points, point)
}

// findVisibleFaces populates visibleIndices with faces visible from the support point
func (b *PolytopeBuilder) findVisibleFaces(support mgl64.Vec3) {
	b.visibleIndices = b.visibleIndices[:0]

	for i := range b.faces {
		face := &b.faces[i]
		if support.Sub(face.Points[0]).Dot(face.Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

// findHorizon collects the edges of the visible region boundary.
// An edge shared by two visible faces appears once in each direction and cancels out.
func (b *PolytopeBuilder) findHorizon() {
	b.horizon = b.horizon[:0]

	for _, faceIdx := range b.visibleIndices {
		points := b.faces[faceIdx].Points

		for i := range 3 {
			edge := Edge{A: points[i], B: points[(i+1)%3]}

			if k := slices.Index(b.horizon, Edge{A: edge.B, B: edge.A}); k >= 0 {
				b.horizon = slices.Delete(b.horizon, k, k+1)
				continue
			}
			b.horizon = append(b.horizon, edge)
		}
	}
}

// removeVisibleFaces removes faces marked in visibleIndices using swap-with-last,
// from the highest index down so the remaining indices stay valid
func (b *PolytopeBuilder) removeVisibleFaces() {
	slices.Sort(b.visibleIndices)

	for i := len(b.visibleIndices) - 1; i >= 0; i-- {
		idx := b.visibleIndices[i]
		last := len(b.faces) - 1
		b.faces[idx] = b.faces[last]
		b.faces = b.faces[:last]
	}
}

// AddPointAndRebuildFaces expands the polytope by adding a support point:
//  1. Finds the faces visible from the support point
//  2. Collects the horizon, the boundary of the visible region
//  3. Removes the visible faces
//  4. Closes the hole with faces joining each horizon edge to the support point
//
// The polytope is left untouched when the visible region is degenerate (the closest
// face does not see the point, or every face does) or when the new faces would
// exceed maxPolytopeFaces. Both cases return ErrNotConverged.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) error {
	b.findVisibleFaces(support)

	if !slices.Contains(b.visibleIndices, closestIndex) || len(b.visibleIndices) == len(b.faces) {
		return fmt.Errorf("%w: degenerate visible region (%d of %d faces)", ErrNotConverged, len(b.visibleIndices), len(b.faces))
	}

	b.findHorizon()

	if len(b.faces)-len(b.visibleIndices)+len(b.horizon) > maxPolytopeFaces {
		return fmt.Errorf("%w: more than %d faces", ErrNotConverged, maxPolytopeFaces)
	}

	b.points = append(b.points, support)
	b.removeVisibleFaces()

	for _, edge := range b.horizon {
		b.faces = append(b.faces, newFace(edge.A, edge.B, support))
	}

	return nil
}
