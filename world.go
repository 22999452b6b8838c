package rigid

import (
	"log/slog"

	"github.com/akmonengine/rigid/actor"
	"github.com/akmonengine/rigid/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Compliance presets for constraint.Settings.Compliance, from the stiffest to the softest
const (
	ComplianceConcrete = 0.04e-9
	ComplianceWood     = 0.16e-9
	ComplianceTendon   = 0.2e-7
	ComplianceLeather  = 14e-8
	ComplianceRubber   = 1e-6
	ComplianceMuscle   = 0.2e-3
	ComplianceFat      = 1e-3
)

var compliancePresets = map[string]float64{
	"concrete": ComplianceConcrete,
	"wood":     ComplianceWood,
	"tendon":   ComplianceTendon,
	"leather":  ComplianceLeather,
	"rubber":   ComplianceRubber,
	"muscle":   ComplianceMuscle,
	"fat":      ComplianceFat,
}

// CompliancePreset returns the compliance of a named material ("concrete", "wood", "rubber"...)
func CompliancePreset(name string) (float64, bool) {
	compliance, ok := compliancePresets[name]
	return compliance, ok
}

// Config holds the World settings
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3 `yaml:"gravity"`
	Substeps int        `yaml:"substeps"`

	CellSize  float64 `yaml:"cell_size"`
	GridCells int     `yaml:"grid_cells"`

	// ContactCapacity is the size of the contact pool, contacts beyond it are dropped
	ContactCapacity int                 `yaml:"contact_capacity"`
	Solver          constraint.Settings `yaml:"solver"`

	// A body sleeps once slower than SleepVelocity for SleepTime seconds
	SleepTime     float64 `yaml:"sleep_time"`
	SleepVelocity float64 `yaml:"sleep_velocity"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:         mgl64.Vec3{0, -9.81, 0},
		Substeps:        4,
		CellSize:        2.0,
		GridCells:       1024,
		ContactCapacity: constraint.DefaultCapacity,
		Solver:          constraint.DefaultSettings(),
		SleepTime:       0.1,
		SleepVelocity:   0.05,
	}
}

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Detector    *Detector
	Resolver    *constraint.ContactResolver
	Logger      *slog.Logger

	SleepTime     float64
	SleepVelocity float64

	Events Events
}

// NewWorld creates an empty world. A nil logger logs to slog.Default().
func NewWorld(config Config, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}

	return &World{
		Gravity:       config.Gravity,
		Substeps:      max(config.Substeps, 1),
		SpatialGrid:   NewSpatialGrid(config.CellSize, config.GridCells),
		Detector:      NewDetector(logger),
		Resolver:      constraint.NewContactResolver(config.ContactCapacity, config.Solver),
		Logger:        logger,
		SleepTime:     config.SleepTime,
		SleepVelocity: config.SleepVelocity,
		Events:        NewEvents(),
	}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	w.Events.forget(body)
}

// Step advances the simulation by dt, split into Substeps.
// Each substep runs the broad phase, the narrow phase, one Resolve pass and the integration.
// Events are sent to listeners once, at the end of the step.
func (w *World) Step(dt float64) {
	substeps := max(w.Substeps, 1)
	h := dt / float64(substeps)
	dropped := 0

	for _, body := range w.Bodies {
		body.SyncTransform()
	}

	for range substeps {
		w.Resolver.Reset()

		w.detectCollisions()
		dropped += w.Resolver.Dropped()

		// One pass is enough thanks to substeps
		w.Resolver.Resolve(h)

		for _, body := range w.Bodies {
			body.Integrate(h, w.Gravity)
		}

		w.trySleep(h)
	}

	if dropped > 0 {
		w.Logger.Warn("contact pool saturated",
			slog.Int("dropped", dropped),
			slog.Int("capacity", w.Resolver.Capacity()),
		)
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

// Contacts returns the contacts of the last substep, valid until the next Step
func (w *World) Contacts() []constraint.Contact {
	return w.Resolver.Contacts()
}

func (w *World) detectCollisions() {
	w.SpatialGrid.Build(w.Bodies)

	for _, pair := range w.SpatialGrid.FindPairs(w.Bodies) {
		bodyA, bodyB := pair.BodyA, pair.BodyB

		if bodyA.IsTrigger || bodyB.IsTrigger {
			if w.Detector.Overlaps(bodyA, bodyB) {
				w.Events.recordTrigger(bodyA, bodyB)
			}
			continue
		}

		first := w.Resolver.ContactCount()
		if !w.Detector.Collide(bodyA, bodyB, w.Resolver) {
			continue
		}

		w.Events.recordCollision(bodyA, bodyB, w.Resolver.Contacts()[first:])
		w.wakeOnContact(bodyA, bodyB)
	}
}

// wakeOnContact wakes a sleeping body hit by a moving one
func (w *World) wakeOnContact(bodyA, bodyB *actor.RigidBody) {
	if bodyA.IsSleeping && w.isMoving(bodyB) {
		bodyA.Awake()
	}
	if bodyB.IsSleeping && w.isMoving(bodyA) {
		bodyB.Awake()
	}
}

func (w *World) isMoving(body *actor.RigidBody) bool {
	if body.IsSleeping || body.InverseMass() == 0 {
		return false
	}
	return body.Velocity.Len() >= w.SleepVelocity || body.AngularVelocity.Len() >= w.SleepVelocity
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, w.SleepTime, w.SleepVelocity)
	}
}
