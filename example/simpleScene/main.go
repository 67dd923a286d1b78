package main

import (
	"fmt"

	"github.com/akmonengine/broadphase"
	"github.com/akmonengine/broadphase/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// SetupScene creates a ground plane and a row of falling cubes
func SetupScene(logger *logrus.Logger) (*broadphase.World, []*actor.Collider, error) {
	config := broadphase.DefaultConfig()
	config.FatInflatePercentage = 0.2
	config.Logger = logger

	world := broadphase.NewWorld(config)
	world.Workers = 4

	ground := actor.NewCollider(
		actor.Transform{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent()},
		&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0.0},
		actor.BodyTypeStatic,
	)
	ground.Id = "ground"
	if err := world.AddCollider(ground); err != nil {
		return nil, nil, err
	}

	cubes := make([]*actor.Collider, 0, 8)
	for i := 0; i < 8; i++ {
		cube := actor.NewCollider(
			actor.Transform{
				Position: mgl64.Vec3{float64(i) * 1.5, 2.0 + float64(i), 0},
				Rotation: mgl64.QuatRotate(0.3*float64(i), mgl64.Vec3{0, 0, 1}),
			},
			&actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
			actor.BodyTypeDynamic,
		)
		cube.Id = fmt.Sprintf("cube-%d", i)
		cube.Velocity = mgl64.Vec3{0, -4.0, 0}
		if err := world.AddCollider(cube); err != nil {
			return nil, nil, err
		}
		cubes = append(cubes, cube)
	}

	return world, cubes, nil
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	world, cubes, err := SetupScene(logger)
	if err != nil {
		logger.WithError(err).Fatal("scene setup failed")
	}

	world.Events.Subscribe(broadphase.OVERLAP_ENTER, func(event broadphase.Event) {
		e := event.(broadphase.OverlapEnterEvent)
		logger.WithFields(logrus.Fields{"a": e.ColliderA.Id, "b": e.ColliderB.Id}).Info("overlap enter")
	})
	world.Events.Subscribe(broadphase.OVERLAP_EXIT, func(event broadphase.Event) {
		e := event.(broadphase.OverlapExitEvent)
		logger.WithFields(logrus.Fields{"a": e.ColliderA.Id, "b": e.ColliderB.Id}).Info("overlap exit")
	})

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 180

	for step := 0; step < maxSteps; step++ {
		// Cubes touching the ground stop and fall asleep
		for _, cube := range cubes {
			if cube.AABB().Min.Y() <= 0 {
				cube.Velocity = mgl64.Vec3{}
				cube.IsSleeping = true
			}
		}

		if err := world.Step(dt); err != nil {
			logger.WithError(err).Fatal("step failed")
		}
	}

	tree := world.BroadPhase.Tree()
	if err := tree.Validate(); err != nil {
		logger.WithError(err).Fatal("tree is invalid")
	}

	ray := actor.NewRay(mgl64.Vec3{-5, 0.25, 0}, mgl64.Vec3{20, 0.25, 0})
	if hit, fraction, ok := world.Raycast(ray); ok {
		logger.WithFields(logrus.Fields{"collider": hit.Id, "fraction": fraction}).Info("ray hit")
	}

	logger.WithFields(logrus.Fields{
		"leaves":     tree.LeafCount(),
		"nodes":      tree.NodeCount(),
		"capacity":   tree.Capacity(),
		"height":     tree.ComputeHeight(),
		"maxBalance": tree.MaxBalance(),
		"areaRatio":  tree.AreaRatio(),
		"pairs":      len(world.Pairs()),
	}).Info("simulation done")
}
