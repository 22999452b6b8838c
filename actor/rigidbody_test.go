package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func createBox(t *testing.T, position mgl64.Vec3, bodyType BodyType) *RigidBody {
	t.Helper()
	body, err := NewRigidBody(NewTransformAt(position, mgl64.QuatIdent()), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, bodyType, 1)
	require.NoError(t, err)
	return body
}

func TestNewRigidBody(t *testing.T) {
	t.Run("dynamic mass from density", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)

		require.Equal(t, 8.0, body.Material.GetMass())
		require.Equal(t, 1.0/8.0, body.InverseMass())
		require.InDelta(t, 8.0*8.0/12.0, body.InertiaLocal.At(0, 0), 1e-12)
	})

	t.Run("static bodies have zero inverse mass", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeStatic)

		require.True(t, math.IsInf(body.Material.GetMass(), 1))
		require.Equal(t, 0.0, body.InverseMass())
		require.Equal(t, mgl64.Mat3{}, body.GetInverseInertiaWorld())
	})

	t.Run("nil shape", func(t *testing.T) {
		_, err := NewRigidBody(NewTransform(), nil, BodyTypeDynamic, 1)
		require.ErrorIs(t, err, ErrNilShape)
	})

	t.Run("shape already attached elsewhere", func(t *testing.T) {
		sphere := &Sphere{Radius: 1}
		_, err := NewRigidBody(NewTransform(), sphere, BodyTypeDynamic, 1)
		require.NoError(t, err)

		_, err = NewRigidBody(NewTransform(), sphere, BodyTypeDynamic, 1)
		require.ErrorIs(t, err, ErrAlreadyAttached)
	})

	t.Run("infinite mass override", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.SetMass(math.Inf(1))

		require.Equal(t, 0.0, body.InverseMass())
	})
}

func TestIntegrate(t *testing.T) {
	gravity := mgl64.Vec3{0, -10, 0}

	t.Run("gravity", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{0, 10, 0}, BodyTypeDynamic)
		body.Integrate(0.1, gravity)

		requireVecInDelta(t, mgl64.Vec3{0, -1, 0}, body.Velocity, 1e-12)
		requireVecInDelta(t, mgl64.Vec3{0, 9.9, 0}, body.Transform.Position, 1e-12)
	})

	t.Run("force becomes acceleration through the inverse mass", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.AddForce(mgl64.Vec3{16, 0, 0})
		body.Integrate(0.5, mgl64.Vec3{})

		requireVecInDelta(t, mgl64.Vec3{1, 0, 0}, body.Velocity, 1e-12)
		requireVecInDelta(t, mgl64.Vec3{0.5, 0, 0}, body.Transform.Position, 1e-12)
		require.Equal(t, mgl64.Vec3{}, body.AccumulatedForce(), "accumulators are cleared")
	})

	t.Run("torque spins the body", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.AddTorque(mgl64.Vec3{0, 1, 0})
		body.Integrate(0.1, mgl64.Vec3{})

		require.Greater(t, body.AngularVelocity.Y(), 0.0)
		require.InDelta(t, 1.0, body.Transform.Rotation.Len(), 1e-12)
		require.Equal(t, mgl64.Vec3{}, body.AccumulatedTorque())
	})

	t.Run("force at point adds torque", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.AddForceAtPoint(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})

		require.Equal(t, mgl64.Vec3{0, -1, 0}, body.AccumulatedTorque())
	})

	t.Run("static bodies never move", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{0, 1, 0}, BodyTypeStatic)
		body.AddForce(mgl64.Vec3{100, 100, 100})
		body.ApplyImpulse(mgl64.Vec3{100, 0, 0}, mgl64.Vec3{1, 1, 0})
		body.Translate(mgl64.Vec3{1, 0, 0})
		body.Integrate(1, gravity)

		require.Equal(t, mgl64.Vec3{0, 1, 0}, body.Transform.Position)
		require.Equal(t, mgl64.Vec3{}, body.Velocity)
		require.Equal(t, mgl64.Vec3{}, body.AngularVelocity)
	})

	t.Run("infinite mass dynamic body never moves", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.SetMass(math.Inf(1))
		body.Integrate(1, gravity)

		require.Equal(t, mgl64.Vec3{}, body.Transform.Position)
	})

	t.Run("linear damping", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.Material.LinearDamping = 0.5
		body.Velocity = mgl64.Vec3{1, 0, 0}
		body.Integrate(1, mgl64.Vec3{})

		require.InDelta(t, math.Exp(-0.5), body.Velocity.X(), 1e-12)
	})

	t.Run("sleeping bodies are frozen", func(t *testing.T) {
		body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
		body.Sleep()
		body.Integrate(1, gravity)

		require.Equal(t, mgl64.Vec3{}, body.Transform.Position)
	})
}

func TestApplyImpulse(t *testing.T) {
	body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)

	t.Run("through the center of mass", func(t *testing.T) {
		body.ApplyImpulse(mgl64.Vec3{8, 0, 0}, mgl64.Vec3{})

		require.Equal(t, mgl64.Vec3{1, 0, 0}, body.Velocity)
		require.Equal(t, mgl64.Vec3{}, body.AngularVelocity)
	})

	t.Run("off center", func(t *testing.T) {
		body.Velocity = mgl64.Vec3{}
		body.ApplyImpulse(mgl64.Vec3{0, 8, 0}, mgl64.Vec3{1, 0, 0})

		require.Equal(t, mgl64.Vec3{0, 1, 0}, body.Velocity)
		require.Greater(t, body.AngularVelocity.Z(), 0.0)
		require.Greater(t, body.VelocityAt(mgl64.Vec3{1, 0, 0}).Y(), 1.0)
	})
}

func TestTrySleep(t *testing.T) {
	body := createBox(t, mgl64.Vec3{}, BodyTypeDynamic)
	body.Velocity = mgl64.Vec3{0.01, 0, 0}

	body.TrySleep(0.05, 0.1, 0.05)
	require.False(t, body.IsSleeping)
	body.TrySleep(0.05, 0.1, 0.05)
	require.True(t, body.IsSleeping)
	require.Equal(t, mgl64.Vec3{}, body.Velocity)

	body.Awake()
	body.Velocity = mgl64.Vec3{1, 0, 0}
	body.TrySleep(1, 0.1, 0.05)
	require.False(t, body.IsSleeping)
}

func TestSupportWorld(t *testing.T) {
	body, err := NewRigidBody(
		NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})),
		&Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
		BodyTypeDynamic,
		1,
	)
	require.NoError(t, err)

	support := body.SupportWorld(mgl64.Vec3{1, 0, 0})
	require.InDelta(t, 5+math.Sqrt2, support.X(), 1e-9)
	require.InDelta(t, 0.0, support.Y(), 1e-9)
}
