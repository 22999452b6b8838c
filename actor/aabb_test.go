package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestAABBOverlaps(t *testing.T) {
	unit := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		other    AABB
		expected bool
	}{
		{"separated on X", AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}}, false},
		{"separated on Y", AABB{Min: mgl64.Vec3{0, -3, 0}, Max: mgl64.Vec3{1, -2, 1}}, false},
		{"separated on Z", AABB{Min: mgl64.Vec3{0, 0, 2}, Max: mgl64.Vec3{1, 1, 3}}, false},
		{"partial overlap", AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{1.5, 1.5, 1.5}}, true},
		{"contained", AABB{Min: mgl64.Vec3{0.25, 0.25, 0.25}, Max: mgl64.Vec3{0.75, 0.75, 0.75}}, true},
		{"face touching", AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, true},
		{"corner touching", AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"infinite half-space below", AABB{Min: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}, Max: mgl64.Vec3{math.Inf(1), 0, math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, unit.Overlaps(tt.other))
			require.Equal(t, tt.expected, tt.other.Overlaps(unit))
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	require.True(t, box.ContainsPoint(mgl64.Vec3{0, 0, 0}))
	require.True(t, box.ContainsPoint(mgl64.Vec3{1, 1, 1}))
	require.True(t, box.ContainsPoint(mgl64.Vec3{-1, 0, 1}))
	require.False(t, box.ContainsPoint(mgl64.Vec3{1.0001, 0, 0}))
	require.Equal(t, mgl64.Vec3{0, 0, 0}, box.Center())
	require.Equal(t, mgl64.Vec3{1, 1, 1}, box.HalfExtents())
}

func TestBoundingSphere(t *testing.T) {
	a := BoundingSphere{Center: mgl64.Vec3{0, 0, 0}, Radius: 1}

	require.True(t, a.Overlaps(BoundingSphere{Center: mgl64.Vec3{2, 0, 0}, Radius: 1}))
	require.False(t, a.Overlaps(BoundingSphere{Center: mgl64.Vec3{2.01, 0, 0}, Radius: 1}))
	require.True(t, a.ContainsPoint(mgl64.Vec3{0, 1, 0}))
	require.False(t, a.ContainsPoint(mgl64.Vec3{0, 1, 0.1}))
}

func TestOBB(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	obb := newOBB(AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, NewTransformAt(mgl64.Vec3{0, 0, 0}, rotation))

	t.Run("corners lie at the rotated extents", func(t *testing.T) {
		for _, corner := range obb.Corners() {
			require.InDelta(t, math.Sqrt(3), corner.Len(), 1e-9)
			require.InDelta(t, 1, math.Abs(corner.Y()), 1e-9)
		}
	})

	t.Run("contains point", func(t *testing.T) {
		// (1.3, 0, 0) is outside the axis-aligned box but inside the 45° rotated one
		require.True(t, obb.ContainsPoint(mgl64.Vec3{1.3, 0, 0}))
		require.False(t, obb.ContainsPoint(mgl64.Vec3{1.5, 0, 0}))
	})

	t.Run("separating axis", func(t *testing.T) {
		near := newOBB(AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, NewTransformAt(mgl64.Vec3{2.3, 0, 0}, mgl64.QuatIdent()))
		far := newOBB(AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, NewTransformAt(mgl64.Vec3{2.5, 0, 0}, mgl64.QuatIdent()))

		require.True(t, obb.Overlaps(near))
		require.False(t, obb.Overlaps(far))
	})
}
