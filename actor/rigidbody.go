package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

type Material struct {
	Density     float64
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping  float64 // 0.0 - 1.0, typical: 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Transform should be changed through SetTransform, SetPosition or SetRotation
	// so the collider bounding volumes follow. A direct assignment is picked up by
	// SyncTransform, which World.Step calls on every body.
	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // Angular velocity (rad/s)

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64
	// IsTrigger bodies report overlaps through events but never receive contacts
	IsTrigger bool

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Collision shape, set by Attach
	Shape ShapeInterface
}

// NewRigidBody creates a new rigid body with the given properties and attaches the shape.
// density is used to calculate mass for dynamic bodies (ignored for static)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) (*RigidBody, error) {
	if shape == nil {
		return nil, fmt.Errorf("new rigid body: %w", ErrNilShape)
	}

	rb := &RigidBody{
		Transform: transform.normalized(),
		BodyType:  bodyType,
	}

	if bodyType == BodyTypeStatic {
		rb.Material = Material{mass: math.Inf(1)}
	} else {
		rb.Material = Material{
			Density: density,
			mass:    shape.ComputeMass(density),
		}
	}

	if err := Attach(shape, rb); err != nil {
		return nil, fmt.Errorf("new rigid body: %w", err)
	}
	rb.computeInertia()

	return rb, nil
}

// SetMass overrides the mass computed from the density; +Inf makes the body immovable
func (rb *RigidBody) SetMass(mass float64) {
	rb.Material.mass = mass
	rb.computeInertia()
}

func (rb *RigidBody) computeInertia() {
	if rb.InverseMass() == 0 || rb.Shape == nil {
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}

	rb.InertiaLocal = rb.Shape.ComputeInertia(rb.Material.mass)
	if math.Abs(rb.InertiaLocal.Det()) < 1e-18 {
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}
	rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
}

// InverseMass returns 1/mass, or 0 for static bodies and infinite masses
func (rb *RigidBody) InverseMass() float64 {
	mass := rb.Material.mass
	if rb.BodyType == BodyTypeStatic || math.IsInf(mass, 1) || mass <= 0 {
		return 0
	}
	return 1.0 / mass
}

// SetTransform moves the body and refreshes its collider bounds
func (rb *RigidBody) SetTransform(transform Transform) {
	rb.Transform = transform.normalized()
	rb.refreshBounds()
}

// SetPosition moves the body and refreshes its collider bounds
func (rb *RigidBody) SetPosition(position mgl64.Vec3) {
	rb.Transform.Position = position
	rb.refreshBounds()
}

// SetRotation orients the body and refreshes its collider bounds
func (rb *RigidBody) SetRotation(rotation mgl64.Quat) {
	rb.Transform.Rotation = rotation
	rb.Transform = rb.Transform.normalized()
	rb.refreshBounds()
}

// Translate moves a movable body by delta; immovable bodies ignore it
func (rb *RigidBody) Translate(delta mgl64.Vec3) {
	if rb.InverseMass() == 0 {
		return
	}
	rb.SetPosition(rb.Transform.Position.Add(delta))
}

// SyncTransform renormalizes the rotation and recomputes the collider bounds
// after Transform was assigned directly
func (rb *RigidBody) SyncTransform() {
	rb.Transform = rb.Transform.normalized()
	rb.refreshBounds()
}

func (rb *RigidBody) refreshBounds() {
	if rb.Shape != nil {
		rb.Shape.ComputeBounds(rb.Transform)
	}
}

func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate advances the body by dt with semi-implicit Euler:
// forces become velocities, velocities move the transform, then accumulators are cleared.
// Bodies with an inverse mass of 0 never move.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	invMass := rb.InverseMass()
	if invMass == 0 || rb.IsSleeping {
		rb.ClearForces()
		return
	}

	// Linear
	acceleration := gravity.Add(rb.accumulatedForce.Mul(invMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))

	// Angular
	angularAcceleration := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// dq/dt = 0.5 * ω * q
	omega := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omega.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.refreshBounds()
	rb.ClearForces()
}

// AddForce accumulates a force (N) applied at the center of mass
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.InverseMass() == 0 {
		return
	}
	rb.Awake()
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
}

// AddForceAtPoint accumulates a force applied at a world-space point, producing torque
func (rb *RigidBody) AddForceAtPoint(force, point mgl64.Vec3) {
	if rb.InverseMass() == 0 {
		return
	}
	rb.AddForce(force)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(point.Sub(rb.Transform.Position).Cross(force))
}

// AddTorque accumulates a torque (N⋅m)
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.InverseMass() == 0 {
		return
	}
	rb.Awake()
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

// AccumulatedForce returns the force gathered since the last integration
func (rb *RigidBody) AccumulatedForce() mgl64.Vec3 {
	return rb.accumulatedForce
}

// AccumulatedTorque returns the torque gathered since the last integration
func (rb *RigidBody) AccumulatedTorque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyImpulse changes the velocities by an impulse applied at a world-space point
func (rb *RigidBody) ApplyImpulse(impulse, point mgl64.Vec3) {
	invMass := rb.InverseMass()
	if invMass == 0 {
		return
	}

	rb.Velocity = rb.Velocity.Add(impulse.Mul(invMass))
	r := point.Sub(rb.Transform.Position)
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// VelocityAt returns the velocity of the body material at a world-space point
func (rb *RigidBody) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	r := point.Sub(rb.Transform.Position)
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// SupportWorld returns the shape extreme point along a world-space direction
func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := rb.Transform.InverseRotation.Rotate(direction)
	localSupport := rb.Shape.Support(localDirection)

	return rb.Transform.ToWorld(localSupport)
}

// GetInertiaWorld returns the inertia tensor in world space
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld returns the inverse inertia tensor in world space, zero for immovable bodies
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.InverseMass() == 0 {
		return mgl64.Mat3{}
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
