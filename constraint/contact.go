package constraint

import (
	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a single contact point between two bodies, valid for the step that produced it.
// Normal is a unit vector pointing from BodyB toward BodyA, Penetration is >= 0.
type Contact struct {
	BodyA       *actor.RigidBody
	BodyB       *actor.RigidBody
	Position    mgl64.Vec3
	Normal      mgl64.Vec3
	Penetration float64

	// Body positions when the contact was recorded, to track the correction already applied
	anchorA mgl64.Vec3
	anchorB mgl64.Vec3
}

// CurrentPenetration is the penetration left once the displacement of both bodies
// since the contact was recorded is taken into account
func (c *Contact) CurrentPenetration() float64 {
	movedA := c.BodyA.Transform.Position.Sub(c.anchorA)
	movedB := c.BodyB.Transform.Position.Sub(c.anchorB)

	return c.Penetration - movedA.Sub(movedB).Dot(c.Normal)
}
