package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is three local-space vertices, counter-clockwise seen from the front face
type Triangle [3]mgl64.Vec3

// Normal returns the unit front-face normal, or the zero vector for a degenerate triangle
func (t Triangle) Normal() mgl64.Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.LenSqr() < 1e-24 {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// ConvexMesh is a convex polytope, or a loose triangle soup, described by triangles.
// Vertices and triangles are stored deduplicated; triangles reference vertices by index.
type ConvexMesh struct {
	collider
	vertices  []mgl64.Vec3
	triangles [][3]int
	local     AABB
	// bounding sphere in local space
	localSphere BoundingSphere
}

// NewConvexMesh builds a mesh from a triangle list.
// Identical vertices are merged, and so are triangles with the same vertices in the same winding.
func NewConvexMesh(triangles []Triangle) (*ConvexMesh, error) {
	if len(triangles) == 0 {
		return nil, fmt.Errorf("convex mesh: %w", ErrEmptyGeometry)
	}

	mesh := &ConvexMesh{}
	index := make(map[mgl64.Vec3]int, len(triangles)*3)
	seen := make(map[[3]int]struct{}, len(triangles))

	for _, triangle := range triangles {
		var ids [3]int
		for i, v := range triangle {
			id, ok := index[v]
			if !ok {
				id = len(mesh.vertices)
				index[v] = id
				mesh.vertices = append(mesh.vertices, v)
			}
			ids[i] = id
		}

		key := canonicalWinding(ids)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		mesh.triangles = append(mesh.triangles, ids)
	}

	mesh.local = aabbFromPoints(mesh.vertices)
	mesh.localSphere = enclosingSphere(mesh.vertices, mesh.local)

	return mesh, nil
}

// enclosingSphere returns Ritter's sphere of the points, or the sphere centered on
// their bounding box when that one is smaller
func enclosingSphere(points []mgl64.Vec3, bounds AABB) BoundingSphere {
	boxSphere := BoundingSphere{Center: bounds.Center()}
	for _, p := range points {
		boxSphere.Radius = math.Max(boxSphere.Radius, p.Sub(boxSphere.Center).Len())
	}

	farthest := func(from mgl64.Vec3) mgl64.Vec3 {
		best, bestDistance := from, 0.0
		for _, p := range points {
			if d := p.Sub(from).LenSqr(); d > bestDistance {
				best, bestDistance = p, d
			}
		}
		return best
	}

	y := farthest(points[0])
	z := farthest(y)
	ritter := BoundingSphere{Center: y.Add(z).Mul(0.5), Radius: z.Sub(y).Len() * 0.5}

	for _, p := range points {
		distance := p.Sub(ritter.Center).Len()
		if distance <= ritter.Radius {
			continue
		}
		radius := (ritter.Radius + distance) * 0.5
		ritter.Center = ritter.Center.Add(p.Sub(ritter.Center).Mul((radius - ritter.Radius) / distance))
		ritter.Radius = radius
	}

	if boxSphere.Radius < ritter.Radius {
		return boxSphere
	}
	return ritter
}

// canonicalWinding rotates the index cycle so it starts at its smallest index,
// making two windings of the same orientation compare equal
func canonicalWinding(ids [3]int) [3]int {
	switch {
	case ids[1] < ids[0] && ids[1] < ids[2]:
		return [3]int{ids[1], ids[2], ids[0]}
	case ids[2] < ids[0] && ids[2] < ids[1]:
		return [3]int{ids[2], ids[0], ids[1]}
	}
	return ids
}

func (m *ConvexMesh) Type() ShapeType {
	return ShapeTypeConvexMesh
}

// Vertices returns the deduplicated local-space vertices
func (m *ConvexMesh) Vertices() []mgl64.Vec3 {
	return m.vertices
}

// Triangles returns the deduplicated triangles as vertex index triples
func (m *ConvexMesh) Triangles() [][3]int {
	return m.triangles
}

// TriangleCount returns the number of distinct triangles
func (m *ConvexMesh) TriangleCount() int {
	return len(m.triangles)
}

// Triangle returns the i-th triangle in local space
func (m *ConvexMesh) Triangle(i int) Triangle {
	ids := m.triangles[i]
	return Triangle{m.vertices[ids[0]], m.vertices[ids[1]], m.vertices[ids[2]]}
}

// WorldTriangle returns the i-th triangle placed by transform
func (m *ConvexMesh) WorldTriangle(i int, transform Transform) Triangle {
	t := m.Triangle(i)
	return Triangle{transform.ToWorld(t[0]), transform.ToWorld(t[1]), transform.ToWorld(t[2])}
}

func (m *ConvexMesh) ComputeBounds(transform Transform) {
	var min, max mgl64.Vec3
	for i, v := range m.vertices {
		w := transform.ToWorld(v)
		if i == 0 {
			min, max = w, w
		}
		for axis := range 3 {
			min[axis] = math.Min(min[axis], w[axis])
			max[axis] = math.Max(max[axis], w[axis])
		}
	}

	m.aabb = AABB{Min: min, Max: max}
	m.sphere = BoundingSphere{Center: transform.ToWorld(m.localSphere.Center), Radius: m.localSphere.Radius}
	m.obb = newOBB(m.local, transform)
}

// ComputeMass uses the enclosed volume of the triangles; open or flat soups
// fall back to the volume of their local bounding box.
func (m *ConvexMesh) ComputeMass(density float64) float64 {
	return density * m.volume()
}

func (m *ConvexMesh) volume() float64 {
	volume := 0.0
	for i := range m.triangles {
		t := m.Triangle(i)
		volume += t[0].Dot(t[1].Cross(t[2])) / 6.0
	}
	volume = math.Abs(volume)

	if volume < 1e-9 {
		size := m.local.Max.Sub(m.local.Min)
		volume = size.X() * size.Y() * size.Z()
	}
	return volume
}

// ComputeInertia approximates the tensor with the one of the local bounding box
func (m *ConvexMesh) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(m.local.HalfExtents(), mass)
}

func (m *ConvexMesh) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := m.vertices[0]
	bestDot := best.Dot(direction)

	for _, v := range m.vertices[1:] {
		if dot := v.Dot(direction); dot > bestDot {
			bestDot = dot
			best = v
		}
	}
	return best
}

// GetContactFeature returns the triangle whose normal is the most aligned with the direction
func (m *ConvexMesh) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()

	best := 0
	bestDot := -math.MaxFloat64
	for i := range m.triangles {
		if dot := m.Triangle(i).Normal().Dot(dir); dot > bestDot {
			bestDot = dot
			best = i
		}
	}

	t := m.Triangle(best)
	return t[:]
}
