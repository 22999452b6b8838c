// Command boxdrop loads a scene description, runs it for a fixed number of steps and
// prints where every body came to rest.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/rigid"
	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/profile"
	"gopkg.in/yaml.v3"
)

type Scene struct {
	World    rigid.Config `yaml:"world"`
	Material string       `yaml:"material"`
	Steps    int          `yaml:"steps"`
	Timestep float64      `yaml:"timestep"`
	Bodies   []BodyDesc   `yaml:"bodies"`
}

type BodyDesc struct {
	Name    string `yaml:"name"`
	Shape   string `yaml:"shape"`
	Static  bool   `yaml:"static"`
	Trigger bool   `yaml:"trigger"`

	Position mgl64.Vec3 `yaml:"position"`
	// AxisAngle is a rotation axis followed by an angle in radians
	AxisAngle [4]float64 `yaml:"axis_angle"`

	HalfExtents mgl64.Vec3       `yaml:"half_extents"`
	Radius      float64          `yaml:"radius"`
	Height      float64          `yaml:"height"`
	Normal      mgl64.Vec3       `yaml:"normal"`
	Offset      float64          `yaml:"offset"`
	Triangles   []actor.Triangle `yaml:"triangles"`

	Density     float64 `yaml:"density"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
}

var errUnknownShape = errors.New("unknown shape")

func loadScene(path string) (Scene, error) {
	scene := Scene{
		World:    rigid.DefaultConfig(),
		Steps:    120,
		Timestep: 1.0 / 60.0,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return scene, err
	}
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return scene, fmt.Errorf("parse %s: %w", path, err)
	}

	return scene, nil
}

func (desc BodyDesc) shape() (actor.ShapeInterface, error) {
	switch desc.Shape {
	case "plane":
		return &actor.Plane{Normal: desc.Normal.Normalize(), Offset: desc.Offset}, nil
	case "sphere":
		return &actor.Sphere{Radius: desc.Radius}, nil
	case "box":
		return &actor.Box{HalfExtents: desc.HalfExtents}, nil
	case "cylinder":
		return actor.NewCylinder(desc.Radius, desc.Height), nil
	case "mesh":
		return actor.NewConvexMesh(desc.Triangles)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownShape, desc.Shape)
	}
}

func (desc BodyDesc) build() (*actor.RigidBody, error) {
	shape, err := desc.shape()
	if err != nil {
		return nil, fmt.Errorf("body %s: %w", desc.Name, err)
	}

	rotation := mgl64.QuatIdent()
	axis := mgl64.Vec3{desc.AxisAngle[0], desc.AxisAngle[1], desc.AxisAngle[2]}
	if axis.Len() > 0 {
		rotation = mgl64.QuatRotate(desc.AxisAngle[3], axis.Normalize())
	}

	bodyType := actor.BodyTypeDynamic
	if desc.Static {
		bodyType = actor.BodyTypeStatic
	}

	body, err := actor.NewRigidBody(actor.NewTransformAt(desc.Position, rotation), shape, bodyType, desc.Density)
	if err != nil {
		return nil, fmt.Errorf("body %s: %w", desc.Name, err)
	}
	body.IsTrigger = desc.Trigger
	body.Material.Restitution = desc.Restitution
	body.Material.StaticFriction = desc.Friction
	body.Material.DynamicFriction = desc.Friction * 0.8

	return body, nil
}

func main() {
	scenePath := flag.String("scene", "example/boxdrop/scene.yaml", "scene description")
	profiling := flag.String("profile", "", "write a cpu or mem profile")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	switch *profiling {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*scenePath, logger); err != nil {
		logger.Error("boxdrop failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(scenePath string, logger *slog.Logger) error {
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	if scene.Material != "" {
		compliance, ok := rigid.CompliancePreset(scene.Material)
		if !ok {
			return fmt.Errorf("unknown material %q", scene.Material)
		}
		scene.World.Solver.Compliance = compliance
	}

	world := rigid.NewWorld(scene.World, logger)
	names := make(map[*actor.RigidBody]string, len(scene.Bodies))
	for _, desc := range scene.Bodies {
		body, err := desc.build()
		if err != nil {
			return err
		}
		world.AddBody(body)
		names[body] = desc.Name
	}

	world.Events.Subscribe(rigid.EventCollisionEnter, func(event rigid.Event) {
		e := event.(rigid.CollisionEnterEvent)
		logger.Info("collision", slog.String("a", names[e.BodyA]), slog.String("b", names[e.BodyB]),
			slog.Float64("penetration", e.Penetration))
	})
	world.Events.Subscribe(rigid.EventTriggerEnter, func(event rigid.Event) {
		e := event.(rigid.TriggerEnterEvent)
		logger.Info("trigger enter", slog.String("a", names[e.BodyA]), slog.String("b", names[e.BodyB]))
	})
	world.Events.Subscribe(rigid.EventSleep, func(event rigid.Event) {
		logger.Info("sleep", slog.String("body", names[event.(rigid.SleepEvent).Body]))
	})

	logger.Info("scene loaded", slog.String("path", scenePath), slog.Int("bodies", len(world.Bodies)),
		slog.Int("steps", scene.Steps))

	for range scene.Steps {
		world.Step(scene.Timestep)
	}

	for _, body := range world.Bodies {
		position := body.Transform.Position
		fmt.Printf("%-8s pos=(%7.3f %7.3f %7.3f) vel=%.4f sleeping=%v\n",
			names[body], position.X(), position.Y(), position.Z(), body.Velocity.Len(), body.IsSleeping)
	}
	fmt.Printf("contacts in last substep: %d\n", len(world.Contacts()))

	return nil
}
