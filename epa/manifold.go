package epa

import (
	"math"

	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints bounds the contacts generated for one pair
const MaxManifoldPoints = 4

// clipTolerance keeps points lying on a clipping plane
const clipTolerance = 1e-6

// ManifoldPoint is a world space contact point with its own penetration
type ManifoldPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// Manifold is a fixed-size set of 1-4 contact points
type Manifold struct {
	Points [MaxManifoldPoints]ManifoldPoint
	Count  int
}

func (m *Manifold) add(point ManifoldPoint) {
	if m.Count < MaxManifoldPoints {
		m.Points[m.Count] = point
		m.Count++
	}
}

// Slice returns the used points
func (m *Manifold) Slice() []ManifoldPoint {
	return m.Points[:m.Count]
}

// GenerateManifold creates contact points for a collision using Sutherland-Hodgman clipping.
//
// A contact manifold is a set of 1-4 contact points that represent where two shapes touch.
// Multiple points provide stability (preventing rotation/jitter) and distribute forces realistically.
//
// Algorithm:
//  1. Get contact features from each shape (point, edge, or face)
//  2. Transform features to world space
//  3. Determine incident (fewer points) and reference (more points) features
//  4. Clip incident feature against reference feature's side planes
//  5. Keep points that are behind the reference face, each with its own depth
//  6. Reduce to max 4 points if needed
//
// normal is the EPA direction, from A toward B, and depth the EPA penetration.
func GenerateManifold(bodyA, bodyB *actor.RigidBody, normal mgl64.Vec3, depth float64) Manifold {
	var manifold Manifold

	featureA := worldFeature(bodyA, normal)
	featureB := worldFeature(bodyB, normal.Mul(-1))

	// The reference face belongs to the shape with the richer feature.
	// Its outward normal is the direction toward the other shape.
	incident, reference := featureB, featureA
	outward := normal
	if len(featureB) > len(featureA) {
		incident, reference = featureA, featureB
		outward = normal.Mul(-1)
	}

	if len(incident) == 1 {
		manifold.add(ManifoldPoint{Position: incident[0], Penetration: depth})
		return manifold
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	candidates := make([]ManifoldPoint, 0, len(clipped))
	if len(reference) > 0 {
		for _, point := range clipped {
			// Signed distance outside the reference face, negative when penetrating
			distance := point.Sub(reference[0]).Dot(outward)
			if distance <= clipTolerance {
				candidates = append(candidates, ManifoldPoint{
					Position:    point,
					Penetration: math.Max(-distance, 0),
				})
			}
		}
	}

	if len(candidates) == 0 {
		// The deepest point of B toward A
		manifold.add(ManifoldPoint{Position: bodyB.SupportWorld(normal.Mul(-1)), Penetration: depth})
		return manifold
	}

	if len(candidates) > MaxManifoldPoints {
		candidates = reduceTo4Points(candidates, normal)
	}
	for _, point := range candidates {
		manifold.add(point)
	}

	return manifold
}

func worldFeature(body *actor.RigidBody, direction mgl64.Vec3) []mgl64.Vec3 {
	localDirection := body.Transform.InverseRotation.Rotate(direction)
	feature := body.Shape.GetContactFeature(localDirection)

	return transformFeature(feature, body.Transform)
}

func transformFeature(feature []mgl64.Vec3, transform actor.Transform) []mgl64.Vec3 {
	result := make([]mgl64.Vec3, len(feature))
	for i, point := range feature {
		result[i] = transform.ToWorld(point)
	}
	return result
}

// clipIncidentAgainstReference clips the incident feature against the side planes of the
// reference feature, each plane containing a reference edge and the contact normal.
// Plane references (very large quads) and single points do not clip.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if isLargePlane(reference) || len(reference) < 2 {
		return incident
	}

	output := incident
	center := computeCenter(reference)

	for i := range reference {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-20 {
			continue
		}
		clipNormal = clipNormal.Normalize()

		// Points inward, toward the center of the reference feature
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane implements Sutherland-Hodgman for a single plane,
// keeping the side planeNormal points to
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+2)
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -clipTolerance {
			output = append(output, current)
			if nextDist < -clipTolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -clipTolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	// A two point polygon walks its segment twice
	if len(polygon) == 2 && len(output) > 2 {
		output = dedupe(output)
	}

	return output
}

// lineIntersectPlane calculates the intersection between a line segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)

	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := math.Max(0, math.Min(1, -dist/denom))
	return p1.Add(dir.Mul(t))
}

func dedupe(points []mgl64.Vec3) []mgl64.Vec3 {
	result := points[:0]
	for _, point := range points {
		duplicate := false
		for _, kept := range result {
			if kept.ApproxEqualThreshold(point, clipTolerance) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, point)
		}
	}
	return result
}

// computeCenter calculates the centroid of a set of points
func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// isLargePlane detects the large quad standing in for a half-space
func isLargePlane(feature []mgl64.Vec3) bool {
	if len(feature) != 4 {
		return false
	}

	for i := range feature {
		for j := i + 1; j < len(feature); j++ {
			if feature[i].Sub(feature[j]).Len() > 100 {
				return true
			}
		}
	}
	return false
}

// reduceTo4Points keeps the extreme points along the two tangent directions,
// in their original order
func reduceTo4Points(points []ManifoldPoint, normal mgl64.Vec3) []ManifoldPoint {
	tangent1, tangent2 := actor.TangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXval, maxXval := math.Inf(1), math.Inf(-1)
	minYval, maxYval := math.Inf(1), math.Inf(-1)

	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < minXval {
			minXval, minX = x, i
		}
		if x > maxXval {
			maxXval, maxX = x, i
		}
		if y < minYval {
			minYval, minY = y, i
		}
		if y > maxYval {
			maxYval, maxY = y, i
		}
	}

	result := make([]ManifoldPoint, 0, MaxManifoldPoints)
	for i, p := range points {
		if i == minX || i == maxX || i == minY || i == maxY {
			result = append(result, p)
		}
	}

	return result
}
