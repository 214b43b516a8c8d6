package main

import (
	"fmt"

	"github.com/akmonengine/quill"
	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/toi"
	"github.com/go-gl/mathgl/mgl64"
)

// SetupScene builds a small world: a ground plane, a stack of boxes, a ball
// and a dumbbell compound.
func SetupScene(cfg quill.Config) (*quill.World, *quill.Collider) {
	world := quill.NewWorld(cfg)
	world.Workers = 4

	ground, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
	world.Add(ground, geom.Identity(), "ground")

	box, _ := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	world.Add(box, geom.Translate(0, 0.5, 0), "box-bottom")
	world.Add(box, geom.Translate(0.2, 1.45, 0), "box-top")

	ball, _ := geom.NewBall(0.5)
	ballCollider := world.Add(ball, geom.Translate(3, 4, 0), "ball")

	sphere, _ := geom.NewBall(0.4)
	bar, _ := geom.NewCapsule(mgl64.Vec3{0, -0.8, 0}, mgl64.Vec3{0, 0.8, 0}, 0.1)
	dumbbell, _ := geom.NewCompound([]geom.CompoundPart{
		{Isometry: geom.Translate(0, -0.8, 0), Shape: sphere},
		{Isometry: geom.Identity(), Shape: bar},
		{Isometry: geom.Translate(0, 0.8, 0), Shape: sphere},
	})
	world.Add(dumbbell, geom.Translate(-3, 1.2, 0), "dumbbell")

	return world, ballCollider
}

func main() {
	cfg := quill.DefaultConfig()
	world, ball := SetupScene(cfg)

	world.Events.Subscribe(quill.PairBegin, func(e quill.PairEvent) {
		fmt.Printf("  event: %v and %v begin touching\n", e.A.UserData, e.B.UserData)
	})
	world.Events.Subscribe(quill.PairEnd, func(e quill.PairEvent) {
		fmt.Printf("  event: %v and %v separate\n", e.A.UserData, e.B.UserData)
	})

	fmt.Println("=== contact detection while the ball falls ===")
	const dt = 1.0 / 30.0
	velocity := mgl64.Vec3{0, -3, 0}

	for step := 0; step < 40; step++ {
		iso := ball.Isometry()
		iso.Translation = iso.Translation.Add(velocity.Mul(dt))
		world.SetIsometry(ball, iso)
		world.Update()

		contacts := world.Contacts(0.01)
		if len(contacts) > 0 {
			fmt.Printf("step %d: %d touching pair(s)\n", step, len(contacts))
			for _, m := range contacts {
				deepest := m.Points[m.Deepest()]
				fmt.Printf("  normal %v, %d point(s), max depth %.4f\n",
					m.Normal, len(m.Points), deepest.Depth)
			}
		}
		world.Events.Flush()
	}

	fmt.Println("\n=== world ray cast ===")
	ray := geom.Ray{Origin: mgl64.Vec3{-5, 0.5, 0}, Dir: mgl64.Vec3{1, 0, 0}}
	if collider, hit, ok := world.CastRay(ray, 100, true); ok {
		fmt.Printf("ray hits %v at t=%.3f, normal %v\n", collider.UserData, hit.TOI, hit.Normal)
	}

	fmt.Println("\n=== pairwise queries ===")
	ballShape, _ := geom.NewBall(1)
	boxShape, _ := geom.NewCuboid(mgl64.Vec3{1, 1, 1})

	dist, _ := quill.Distance(ballShape, geom.Translate(0, 0, 0), boxShape, geom.Translate(5, 0, 0), cfg)
	fmt.Printf("ball to box distance: %.3f\n", dist)

	closest, _ := quill.ClosestPoints(ballShape, geom.Identity(), boxShape, geom.Translate(5, 0, 0), cfg)
	fmt.Printf("witnesses: %v and %v\n", closest.WitnessA, closest.WitnessB)

	fmt.Println("\n=== time of impact ===")
	motionA := toi.Motion{Start: geom.Identity(), LinVel: mgl64.Vec3{1, 0, 0}}
	motionB := toi.Motion{Start: geom.Translate(10, 0, 0), LinVel: mgl64.Vec3{-1, 0, 0}}
	res, err := quill.TimeOfImpact(ballShape, motionA, ballShape, motionB, 10, cfg)
	if err == nil {
		fmt.Printf("two unit balls closing at 2: %v at t=%.3f\n", res.Status, res.TOI)
	}

	fmt.Printf("\ntree quality: %.2f over %d colliders\n", world.Tree().Quality(), world.Count())
}
