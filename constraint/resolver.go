package constraint

import (
	"math"

	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for the positional correction.
	// 0 is a rigid contact, removing the whole penetration in one Resolve.
	// Higher values = softer contacts (more penetration, smoother)
	// Typical soft range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 0.0

	// DefaultCapacity is the contact pool size used when none is configured
	DefaultCapacity = 256

	effectiveMassEpsilon = 1e-10
)

// Settings tunes the contact resolution
type Settings struct {
	// RestitutionThreshold is the approach speed under which contacts do not bounce
	RestitutionThreshold float64 `yaml:"restitution_threshold"`
	// PositionCorrection is the share (0..1) of the penetration removed per Resolve
	PositionCorrection float64 `yaml:"position_correction"`
	// PenetrationSlop is the penetration left uncorrected. The default 0 resolves
	// contacts to touching; a small slop trades depth for fewer corrections.
	PenetrationSlop float64 `yaml:"penetration_slop"`
	Compliance      float64 `yaml:"compliance"`
}

func DefaultSettings() Settings {
	return Settings{
		RestitutionThreshold: 1.0,
		PositionCorrection:   1.0,
		PenetrationSlop:      0,
		Compliance:           DefaultCompliance,
	}
}

// ContactResolver is a fixed-capacity contact pool and the sequential impulse solver
// consuming it. Storage is allocated once by NewContactResolver; Reset reuses it.
//
// ContactCount() + ContactsLeft() == Capacity() at all times.
type ContactResolver struct {
	Settings Settings

	contacts []Contact
	count    int
	dropped  int
}

// NewContactResolver allocates a pool of capacity contacts; a negative capacity is treated as 0
func NewContactResolver(capacity int, settings Settings) *ContactResolver {
	return &ContactResolver{
		Settings: settings,
		contacts: make([]Contact, max(capacity, 0)),
	}
}

// AddContact records a contact if the pool has room. Beyond capacity the contact is
// dropped and counted by Dropped; false is returned.
func (r *ContactResolver) AddContact(bodyA, bodyB *actor.RigidBody, position, normal mgl64.Vec3, penetration float64) bool {
	if !r.HasFreeContacts() {
		r.dropped++
		return false
	}

	r.contacts[r.count] = Contact{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Position:    position,
		Normal:      normal,
		Penetration: penetration,
		anchorA:     bodyA.Transform.Position,
		anchorB:     bodyB.Transform.Position,
	}
	r.count++

	return true
}

// Reset empties the pool without releasing its storage
func (r *ContactResolver) Reset() {
	clear(r.contacts[:r.count])
	r.count = 0
	r.dropped = 0
}

func (r *ContactResolver) Capacity() int {
	return len(r.contacts)
}

func (r *ContactResolver) ContactCount() int {
	return r.count
}

func (r *ContactResolver) ContactsLeft() int {
	return len(r.contacts) - r.count
}

func (r *ContactResolver) HasFreeContacts() bool {
	return r.count < len(r.contacts)
}

// Dropped returns the number of contacts rejected since the last Reset
func (r *ContactResolver) Dropped() int {
	return r.dropped
}

// Contact returns the contact stored at index i, which must be lower than ContactCount
func (r *ContactResolver) Contact(i int) Contact {
	return r.contacts[:r.count][i]
}

// Contacts returns a view over the stored contacts, valid until the next Reset
func (r *ContactResolver) Contacts() []Contact {
	return r.contacts[:r.count]
}

// Resolve runs one pass of sequential impulses over the contacts, in insertion order.
//
// For each contact:
//  1. Normal impulse cancelling the approaching velocity, with restitution above
//     RestitutionThreshold
//  2. Coulomb friction impulse, static then dynamic
//  3. Positional correction of the penetration still left, shared by inverse mass
//
// Bodies with an inverse mass of 0 are never affected.
func (r *ContactResolver) Resolve(dt float64) {
	for i := range r.count {
		contact := &r.contacts[i]
		bodyA, bodyB := contact.BodyA, contact.BodyB

		if isFrozen(bodyA) && isFrozen(bodyB) {
			continue
		}

		r.solveVelocity(contact)
		r.solvePosition(contact, dt)

		clampSmallVelocities(bodyA)
		clampSmallVelocities(bodyB)
	}
}

func isFrozen(body *actor.RigidBody) bool {
	return body.InverseMass() == 0 || body.IsSleeping
}

func (r *ContactResolver) solveVelocity(contact *Contact) {
	bodyA, bodyB := contact.BodyA, contact.BodyB
	normal := contact.Normal
	point := contact.Position

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	inertiaA := bodyA.GetInverseInertiaWorld()
	inertiaB := bodyB.GetInverseInertiaWorld()

	rA := point.Sub(bodyA.Transform.Position)
	rB := point.Sub(bodyB.Transform.Position)

	relativeVel := bodyA.VelocityAt(point).Sub(bodyB.VelocityAt(point))
	normalVel := relativeVel.Dot(normal)

	// Separating or resting
	if normalVel >= 0 {
		return
	}

	effectiveMassNormal := invMassA + invMassB +
		angularTerm(inertiaA, rA, normal) +
		angularTerm(inertiaB, rB, normal)
	if effectiveMassNormal < effectiveMassEpsilon {
		return
	}

	restitution := 0.0
	if -normalVel > r.Settings.RestitutionThreshold {
		restitution = ComputeRestitution(bodyA.Material, bodyB.Material)
	}

	lambdaNormal := -(1 + restitution) * normalVel / effectiveMassNormal
	normalImpulse := normal.Mul(lambdaNormal)
	bodyA.ApplyImpulse(normalImpulse, point)
	bodyB.ApplyImpulse(normalImpulse.Mul(-1), point)

	// Friction, on the velocity left after the normal impulse
	relativeVel = bodyA.VelocityAt(point).Sub(bodyB.VelocityAt(point))
	tangentVel := relativeVel.Sub(normal.Mul(relativeVel.Dot(normal)))
	tangentSpeed := tangentVel.Len()
	if tangentSpeed < 1e-9 {
		return
	}
	tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

	effectiveMassTangent := invMassA + invMassB +
		angularTerm(inertiaA, rA, tangentDir) +
		angularTerm(inertiaB, rB, tangentDir)
	if effectiveMassTangent < effectiveMassEpsilon {
		return
	}

	// Coulomb's law: |friction| <= mu * |normal impulse|
	lambdaTangent := -tangentSpeed / effectiveMassTangent
	if math.Abs(lambdaTangent) > ComputeStaticFriction(bodyA.Material, bodyB.Material)*lambdaNormal {
		lambdaTangent = -ComputeDynamicFriction(bodyA.Material, bodyB.Material) * lambdaNormal
	}

	frictionImpulse := tangentDir.Mul(lambdaTangent)
	bodyA.ApplyImpulse(frictionImpulse, point)
	bodyB.ApplyImpulse(frictionImpulse.Mul(-1), point)
}

func (r *ContactResolver) solvePosition(contact *Contact, dt float64) {
	penetration := contact.CurrentPenetration() - r.Settings.PenetrationSlop
	if penetration <= 0 {
		return
	}

	invMassA := contact.BodyA.InverseMass()
	invMassB := contact.BodyB.InverseMass()
	totalWeight := invMassA + invMassB
	if totalWeight < effectiveMassEpsilon {
		return
	}

	alphaTilde := 0.0
	if dt > 0 {
		alphaTilde = r.Settings.Compliance / (dt * dt)
	}

	lambda := r.Settings.PositionCorrection * penetration / (totalWeight + alphaTilde)
	correction := contact.Normal.Mul(lambda)

	contact.BodyA.Translate(correction.Mul(invMassA))
	contact.BodyB.Translate(correction.Mul(-invMassB))
}

// angularTerm is the rotational share of the effective mass along direction at arm r
func angularTerm(inverseInertia mgl64.Mat3, r, direction mgl64.Vec3) float64 {
	rCrossD := r.Cross(direction)
	return inverseInertia.Mul3x1(rCrossD).Dot(rCrossD)
}
