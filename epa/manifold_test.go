package epa

import (
	"testing"

	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestComputeCenter(t *testing.T) {
	tests := []struct {
		name     string
		points   []mgl64.Vec3
		expected mgl64.Vec3
	}{
		{"empty slice", []mgl64.Vec3{}, mgl64.Vec3{0, 0, 0}},
		{"single point", []mgl64.Vec3{{1, 2, 3}}, mgl64.Vec3{1, 2, 3}},
		{"two points", []mgl64.Vec3{{0, 0, 0}, {2, 4, 6}}, mgl64.Vec3{1, 2, 3}},
		{"square corners", []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}, mgl64.Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireVecInDelta(t, tt.expected, computeCenter(tt.points), 1e-9)
		})
	}
}

func TestIsLargePlane(t *testing.T) {
	tests := []struct {
		name     string
		feature  []mgl64.Vec3
		expected bool
	}{
		{"not 4 points", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, false},
		{"small quad", []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}, false},
		{"large quad", []mgl64.Vec3{{-500, -500, 0}, {500, -500, 0}, {500, 500, 0}, {-500, 500, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, isLargePlane(tt.feature))
		})
	}
}

func TestLineIntersectPlane(t *testing.T) {
	origin := mgl64.Vec3{}
	up := mgl64.Vec3{0, 1, 0}

	t.Run("crossing segment", func(t *testing.T) {
		point := lineIntersectPlane(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 3, 0}, origin, up)
		requireVecInDelta(t, mgl64.Vec3{}, point, 1e-12)
	})

	t.Run("parallel segment", func(t *testing.T) {
		point := lineIntersectPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 0}, origin, up)
		require.Equal(t, mgl64.Vec3{0, 1, 0}, point)
	})

	t.Run("clamped to the segment", func(t *testing.T) {
		point := lineIntersectPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 2, 0}, origin, up)
		require.Equal(t, mgl64.Vec3{0, 1, 0}, point)
	})
}

func TestClipPolygonAgainstPlane(t *testing.T) {
	square := []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}

	t.Run("fully inside", func(t *testing.T) {
		result := clipPolygonAgainstPlane(square, mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{1, 0, 0})
		require.Len(t, result, 4)
	})

	t.Run("fully outside", func(t *testing.T) {
		result := clipPolygonAgainstPlane(square, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{1, 0, 0})
		require.Empty(t, result)
	})

	t.Run("cut in half", func(t *testing.T) {
		result := clipPolygonAgainstPlane(square, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
		require.Len(t, result, 4)
		for _, point := range result {
			require.GreaterOrEqual(t, point.X(), -1e-9)
		}
	})

	t.Run("segment", func(t *testing.T) {
		result := clipPolygonAgainstPlane([]mgl64.Vec3{{-2, 0, 0}, {2, 0, 0}}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0})
		require.Len(t, result, 2)
		requireVecInDelta(t, mgl64.Vec3{-2, 0, 0}, result[0], 1e-12)
		requireVecInDelta(t, mgl64.Vec3{1, 0, 0}, result[1], 1e-12)
	})
}

func TestClipIncidentAgainstReference(t *testing.T) {
	up := mgl64.Vec3{0, 1, 0}

	t.Run("large plane reference does not clip", func(t *testing.T) {
		incident := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}
		reference := []mgl64.Vec3{{-500, 0, -500}, {500, 0, -500}, {500, 0, 500}, {-500, 0, 500}}

		require.Len(t, clipIncidentAgainstReference(incident, reference, up), 2)
	})

	t.Run("point reference does not clip", func(t *testing.T) {
		incident := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}

		require.Len(t, clipIncidentAgainstReference(incident, []mgl64.Vec3{{0, 1, 0}}, up), 2)
	})

	t.Run("edge clipped to the reference square", func(t *testing.T) {
		incident := []mgl64.Vec3{{-2, 0, 0}, {2, 0, 0}}
		reference := []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}

		result := clipIncidentAgainstReference(incident, reference, up)
		require.Len(t, result, 2)
		for _, point := range result {
			require.InDelta(t, 1.0, abs(point.X()), 1e-9)
		}
	})
}

func TestReduceTo4Points(t *testing.T) {
	points := []ManifoldPoint{
		{Position: mgl64.Vec3{-1, 0, -1}, Penetration: 0.1},
		{Position: mgl64.Vec3{0, 0, 0}, Penetration: 0.2},
		{Position: mgl64.Vec3{1, 0, -1}, Penetration: 0.1},
		{Position: mgl64.Vec3{1, 0, 1}, Penetration: 0.1},
		{Position: mgl64.Vec3{-1, 0, 1}, Penetration: 0.1},
	}

	result := reduceTo4Points(points, mgl64.Vec3{0, 1, 0})
	require.LessOrEqual(t, len(result), 4)
	for _, point := range result {
		require.Contains(t, points, point)
		require.NotEqual(t, mgl64.Vec3{}, point.Position, "the center is never an extreme")
	}

	require.Equal(t, result, reduceTo4Points(points, mgl64.Vec3{0, 1, 0}), "deterministic")
}

func TestGenerateManifold(t *testing.T) {
	up := mgl64.Vec3{0, 1, 0}

	t.Run("box resting on box", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
		b := createBox(t, mgl64.Vec3{0, 1.9, 0}, mgl64.Vec3{1, 1, 1})

		manifold := GenerateManifold(a, b, up, 0.1)
		require.Equal(t, 4, manifold.Count)
		for _, point := range manifold.Slice() {
			require.InDelta(t, 0.1, point.Penetration, 1e-9)
			require.InDelta(t, 0.9, point.Position.Y(), 1e-9)
		}
	})

	t.Run("box overhanging a box", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
		b := createBox(t, mgl64.Vec3{1, 1.9, 0}, mgl64.Vec3{1, 1, 1})

		manifold := GenerateManifold(a, b, up, 0.1)
		require.Equal(t, 4, manifold.Count)
		for _, point := range manifold.Slice() {
			require.GreaterOrEqual(t, point.Position.X(), -1e-9)
			require.LessOrEqual(t, point.Position.X(), 1+1e-9)
		}
	})

	t.Run("sphere on box", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
		b := createSphere(t, mgl64.Vec3{0, 1.9, 0}, 1)

		manifold := GenerateManifold(a, b, up, 0.1)
		require.Equal(t, 1, manifold.Count)
		requireVecInDelta(t, mgl64.Vec3{0, 0.9, 0}, manifold.Points[0].Position, 1e-9)
		require.Equal(t, 0.1, manifold.Points[0].Penetration)
	})

	t.Run("rotated box keeps its world feature", func(t *testing.T) {
		a := createBox(t, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
		b, err := actor.NewRigidBody(
			actor.NewTransformAt(mgl64.Vec3{0, 1.9, 0}, mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})),
			&actor.Box{HalfExtents: mgl64.Vec3{2, 1, 0.5}},
			actor.BodyTypeDynamic,
			1,
		)
		require.NoError(t, err)

		manifold := GenerateManifold(a, b, up, 0.1)
		require.Equal(t, 4, manifold.Count)
		for _, point := range manifold.Slice() {
			// B spans x in [-0.5, 0.5] once rotated, A clips z to [-1, 1]
			require.LessOrEqual(t, abs(point.Position.X()), 0.5+1e-9)
			require.LessOrEqual(t, abs(point.Position.Z()), 1+1e-9)
		}
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
