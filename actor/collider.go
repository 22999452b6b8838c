package actor

import "errors"

var (
	// ErrNilBody is returned when a shape is attached to a nil body
	ErrNilBody = errors.New("nil rigid body")
	// ErrNilShape is returned when a nil shape is attached
	ErrNilShape = errors.New("nil shape")
	// ErrAlreadyAttached is returned when either the shape or the body is already bound
	ErrAlreadyAttached = errors.New("collider already attached")
	// ErrEmptyGeometry is returned when a mesh is built from no triangles
	ErrEmptyGeometry = errors.New("empty geometry")
)

// Attach binds the shape to the body, one shape per body and one body per shape,
// then computes the shape bounding volumes at the body transform.
func Attach(shape ShapeInterface, body *RigidBody) error {
	if shape == nil {
		return ErrNilShape
	}
	if body == nil {
		return ErrNilBody
	}

	c := shape.base()
	if c.body != nil || body.Shape != nil {
		return ErrAlreadyAttached
	}

	c.body = body
	body.Shape = shape
	body.Transform = body.Transform.normalized()
	shape.ComputeBounds(body.Transform)

	return nil
}
