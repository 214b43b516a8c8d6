package quill

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/toi"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("ball pairs use the closed form", func(t *testing.T) {
		a, _ := geom.NewBall(1)
		b, _ := geom.NewBall(2)

		d, err := Distance(a, geom.Identity(), b, geom.Translate(7, 0, 0), cfg)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, d, 1e-12)

		d, err = Distance(a, geom.Identity(), b, geom.Translate(2, 0, 0), cfg)
		require.NoError(t, err)
		assert.Zero(t, d, "overlapping shapes report zero distance")
	})

	t.Run("convex pair", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{1, 1, 1})
		ball, _ := geom.NewBall(0.5)

		d, err := Distance(box, geom.Identity(), ball, geom.Translate(0, 4, 0), cfg)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, d, 1e-5)
	})

	t.Run("half space", func(t *testing.T) {
		plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
		ball, _ := geom.NewBall(1)

		d, err := Distance(plane, geom.Identity(), ball, geom.Translate(0, 3, 0), cfg)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, d, 1e-9)

		// Role order must not change the answer.
		d, err = Distance(ball, geom.Translate(0, 3, 0), plane, geom.Identity(), cfg)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, d, 1e-9)
	})

	t.Run("half space pair is rejected", func(t *testing.T) {
		plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
		_, err := Distance(plane, geom.Identity(), plane, geom.Translate(0, 5, 0), cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("NaN placement is rejected", func(t *testing.T) {
		a, _ := geom.NewBall(1)
		bad := geom.Translate(math.NaN(), 0, 0)
		_, err := Distance(a, bad, a, geom.Identity(), cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestClosestPoints(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("witnesses and normal", func(t *testing.T) {
		a, _ := geom.NewBall(1)
		b, _ := geom.NewBall(1)

		c, err := ClosestPoints(a, geom.Identity(), b, geom.Translate(5, 0, 0), cfg)
		require.NoError(t, err)
		assert.False(t, c.Overlapping)
		assert.InDelta(t, 3.0, c.Distance, 1e-9)
		assert.InDelta(t, 1.0, c.WitnessA.X(), 1e-9)
		assert.InDelta(t, 4.0, c.WitnessB.X(), 1e-9)
		assert.InDelta(t, 1.0, c.Normal.X(), 1e-9)
	})

	t.Run("flipped roles mirror the result", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{1, 1, 1})
		ball, _ := geom.NewBall(0.5)
		isoBall := geom.Translate(0, 4, 0)

		ab, err := ClosestPoints(box, geom.Identity(), ball, isoBall, cfg)
		require.NoError(t, err)
		ba, err := ClosestPoints(ball, isoBall, box, geom.Identity(), cfg)
		require.NoError(t, err)

		assert.InDelta(t, ab.Distance, ba.Distance, 1e-9)
		assert.InDelta(t, 0, ab.WitnessA.Sub(ba.WitnessB).Len(), 1e-9)
		assert.InDelta(t, 0, ab.Normal.Add(ba.Normal).Len(), 1e-9)
	})

	t.Run("trimesh distance to a ball", func(t *testing.T) {
		mesh, err := geom.NewTriMesh(
			[]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			[][3]uint32{{0, 1, 2}, {0, 2, 3}},
		)
		require.NoError(t, err)
		ball, _ := geom.NewBall(1)

		c, err := ClosestPoints(mesh, geom.Identity(), ball, geom.Translate(0.5, 0.5, 3), cfg)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, c.Distance, 1e-5)
		assert.InDelta(t, 0, c.WitnessA.Z(), 1e-5, "witness on the mesh plane")
	})

	t.Run("compound distance matches the nearest part", func(t *testing.T) {
		ball, _ := geom.NewBall(0.5)
		comp, _ := geom.NewCompound([]geom.CompoundPart{
			{Isometry: geom.Translate(-4, 0, 0), Shape: ball},
			{Isometry: geom.Translate(4, 0, 0), Shape: ball},
		})
		probe, _ := geom.NewBall(1)

		c, err := ClosestPoints(comp, geom.Identity(), probe, geom.Translate(8, 0, 0), cfg)
		require.NoError(t, err)
		// Nearest part center 4 apart from the probe: 4 - 0.5 - 1.
		assert.InDelta(t, 2.5, c.Distance, 1e-5)

		// Against each part directly, the minimum must agree.
		best := math.Inf(1)
		for _, x := range []float64{-4, 4} {
			d, err := Distance(ball, geom.Translate(x, 0, 0), probe, geom.Translate(8, 0, 0), cfg)
			require.NoError(t, err)
			best = math.Min(best, d)
		}
		assert.InDelta(t, best, c.Distance, 1e-5)
	})
}

func TestContactQuery(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("overlapping cubes through the dispatcher", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})

		m, found, err := Contact(box, geom.Identity(), box, geom.Translate(0.5, 0, 0), 0.01, cfg)
		require.NoError(t, err)
		require.True(t, found)

		assert.InDelta(t, 1.0, m.Normal.X(), 1e-3)
		require.NotEmpty(t, m.Points)
		assert.InDelta(t, 0.5, m.Points[m.Deepest()].Depth, 1e-3)
	})

	t.Run("separated beyond margin", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})

		_, found, err := Contact(box, geom.Identity(), box, geom.Translate(3, 0, 0), 0.01, cfg)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("speculative contact within margin", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})

		m, found, err := Contact(box, geom.Identity(), box, geom.Translate(0, 1.05, 0), 0.1, cfg)
		require.NoError(t, err)
		require.True(t, found)
		assert.Negative(t, m.Points[m.Deepest()].Depth, "separated pair carries negative depth")
	})

	t.Run("ball on plane single point", func(t *testing.T) {
		plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
		ball, _ := geom.NewBall(1)

		m, found, err := Contact(plane, geom.Identity(), ball, geom.Translate(0, 0.8, 0), 0.01, cfg)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, m.Points, 1)
		assert.InDelta(t, 0.2, m.Points[0].Depth, 1e-6)
		assert.InDelta(t, 1.0, m.Normal.Y(), 1e-6)
	})

	t.Run("negative margin is rejected", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
		_, _, err := Contact(box, geom.Identity(), box, geom.Identity(), -0.1, cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("compound merges part manifolds", func(t *testing.T) {
		// A two-ball dumbbell resting on a plane: both ends touch with the
		// same normal, so their points merge into one manifold.
		ball, _ := geom.NewBall(0.5)
		dumbbell, _ := geom.NewCompound([]geom.CompoundPart{
			{Isometry: geom.Translate(-2, 0, 0), Shape: ball},
			{Isometry: geom.Translate(2, 0, 0), Shape: ball},
		})
		plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})

		m, found, err := Contact(dumbbell, geom.Translate(0, 0.45, 0), plane, geom.Identity(), 0.01, cfg)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, m.Points, 2, "both ends touch")
		for _, p := range m.Points {
			assert.InDelta(t, 0.05, p.Depth, 1e-6)
		}
	})
}

func TestIntersecting(t *testing.T) {
	cfg := DefaultConfig()

	box, _ := geom.NewCuboid(mgl64.Vec3{1, 1, 1})
	ball, _ := geom.NewBall(1)
	plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})

	tests := []struct {
		name     string
		a, b     geom.Shape
		isoB     geom.Isometry
		expected bool
	}{
		{"overlapping boxes", box, box, geom.Translate(1, 1, 0), true},
		{"separated boxes", box, box, geom.Translate(5, 0, 0), false},
		{"ball touching plane region", plane, ball, geom.Translate(0, 0.5, 0), true},
		{"ball above plane", plane, ball, geom.Translate(0, 2, 0), false},
		{"ball ball overlap", ball, ball, geom.Translate(1.5, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Intersecting(tt.a, geom.Identity(), tt.b, tt.isoB, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("height field terrain", func(t *testing.T) {
		field, err := geom.NewHeightField([][]float64{
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		}, mgl64.Vec3{1, 1, 1})
		require.NoError(t, err)

		hit, err := Intersecting(field, geom.Identity(), ball, geom.Translate(0, 0.5, 0), cfg)
		require.NoError(t, err)
		assert.True(t, hit, "ball overlapping the surface")

		hit, err = Intersecting(field, geom.Identity(), ball, geom.Translate(0, 3, 0), cfg)
		require.NoError(t, err)
		assert.False(t, hit, "ball hovering above the surface")
	})

	t.Run("composite early exit", func(t *testing.T) {
		ballSmall, _ := geom.NewBall(0.5)
		comp, _ := geom.NewCompound([]geom.CompoundPart{
			{Isometry: geom.Translate(-4, 0, 0), Shape: ballSmall},
			{Isometry: geom.Translate(4, 0, 0), Shape: ballSmall},
		})

		hit, err := Intersecting(comp, geom.Identity(), ball, geom.Translate(4.5, 0, 0), cfg)
		require.NoError(t, err)
		assert.True(t, hit)

		hit, err = Intersecting(comp, geom.Identity(), ball, geom.Translate(0, 8, 0), cfg)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}

func TestCastRayQuery(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("ball closed form", func(t *testing.T) {
		ball, _ := geom.NewBall(1)
		ray := geom.Ray{Origin: mgl64.Vec3{0, 0, -5}, Dir: mgl64.Vec3{0, 0, 1}}

		hit, ok, err := CastRay(ray, ball, geom.Identity(), 100, true, cfg)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 4.0, hit.TOI, 1e-9)
		assert.InDelta(t, -1.0, hit.Normal.Z(), 1e-9)
	})

	t.Run("positioned shape", func(t *testing.T) {
		box, _ := geom.NewCuboid(mgl64.Vec3{1, 1, 1})
		iso := geom.Translate(10, 0, 0)
		ray := geom.Ray{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}

		hit, ok, err := CastRay(ray, box, iso, 100, true, cfg)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 9.0, hit.TOI, 1e-9)
		assert.InDelta(t, -1.0, hit.Normal.X(), 1e-9)
	})

	t.Run("support map march on a hull", func(t *testing.T) {
		// The hull has no closed-form ray cast; the generic conservative
		// march must land on the surface.
		hull, err := geom.NewConvexHull([]mgl64.Vec3{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
		})
		require.NoError(t, err)

		ray := geom.Ray{Origin: mgl64.Vec3{-5, 0.2, 0.1}, Dir: mgl64.Vec3{1, 0, 0}}
		hit, ok, err2 := CastRay(ray, hull, geom.Identity(), 100, false, cfg)
		require.NoError(t, err2)
		require.True(t, ok)
		assert.InDelta(t, 4.0, hit.TOI, 1e-4)
		assert.InDelta(t, -1.0, hit.Normal.X(), 1e-2)
	})

	t.Run("compound parts", func(t *testing.T) {
		ball, _ := geom.NewBall(1)
		comp, err := geom.NewCompound([]geom.CompoundPart{
			{Isometry: geom.Translate(0, 0, 0), Shape: ball},
			{Isometry: geom.Translate(5, 0, 0), Shape: ball},
		})
		require.NoError(t, err)

		// The nearer part wins.
		hit, ok, err := CastRay(geom.Ray{Origin: mgl64.Vec3{-5, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, comp, geom.Identity(), 100, false, cfg)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 4.0, hit.TOI, 1e-9)
		assert.InDelta(t, -1.0, hit.Normal.X(), 1e-9)

		// A ray starting between the parts hits the far one.
		hit, ok, err = CastRay(geom.Ray{Origin: mgl64.Vec3{2.5, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, comp, geom.Identity(), 100, false, cfg)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 1.5, hit.TOI, 1e-9)
	})

	t.Run("compound with a hull part", func(t *testing.T) {
		// The hull has no closed-form intersection; the per-part cast must
		// fall back to the support map march instead of skipping the part.
		hull, err := geom.NewConvexHull([]mgl64.Vec3{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
		})
		require.NoError(t, err)
		comp, err := geom.NewCompound([]geom.CompoundPart{{Isometry: geom.Identity(), Shape: hull}})
		require.NoError(t, err)

		ray := geom.Ray{Origin: mgl64.Vec3{-5, 0.2, 0.1}, Dir: mgl64.Vec3{1, 0, 0}}
		hit, ok, err := CastRay(ray, comp, geom.Identity(), 100, false, cfg)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 4.0, hit.TOI, 1e-4)
		assert.InDelta(t, -1.0, hit.Normal.X(), 1e-2)
	})

	t.Run("miss", func(t *testing.T) {
		ball, _ := geom.NewBall(1)
		ray := geom.Ray{Origin: mgl64.Vec3{0, 5, -5}, Dir: mgl64.Vec3{0, 0, 1}}
		_, ok, err := CastRay(ray, ball, geom.Identity(), 100, true, cfg)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		ball, _ := geom.NewBall(1)
		ray := geom.Ray{Origin: mgl64.Vec3{0, 0, -5}, Dir: mgl64.Vec3{0, 0, 1}}

		_, _, err := CastRay(ray, ball, geom.Identity(), -1, true, cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery)

		_, _, err = CastRay(geom.Ray{Origin: ray.Origin}, ball, geom.Identity(), 100, true, cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery, "zero direction")
	})
}

func TestTimeOfImpactQuery(t *testing.T) {
	cfg := DefaultConfig()
	ball, _ := geom.NewBall(1)

	t.Run("closing balls", func(t *testing.T) {
		motionA := toi.Motion{Start: geom.Identity(), LinVel: mgl64.Vec3{1, 0, 0}}
		motionB := toi.Motion{Start: geom.Translate(10, 0, 0), LinVel: mgl64.Vec3{-1, 0, 0}}

		res, err := TimeOfImpact(ball, motionA, ball, motionB, 10, cfg)
		require.NoError(t, err)
		require.Equal(t, toi.Impact, res.Status)
		assert.InDelta(t, 4.0, res.TOI, 1e-3)
	})

	t.Run("ball dropping on a plane", func(t *testing.T) {
		plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
		motionPlane := toi.Motion{Start: geom.Identity()}
		motionBall := toi.Motion{Start: geom.Translate(0, 5, 0), LinVel: mgl64.Vec3{0, -2, 0}}

		res, err := TimeOfImpact(plane, motionPlane, ball, motionBall, 10, cfg)
		require.NoError(t, err)
		require.Equal(t, toi.Impact, res.Status)
		assert.InDelta(t, 2.0, res.TOI, 1e-3, "surface 4 above the plane, closing at 2")
	})

	t.Run("compound part sweeps", func(t *testing.T) {
		small, _ := geom.NewBall(0.5)
		comp, _ := geom.NewCompound([]geom.CompoundPart{
			{Isometry: geom.Translate(0, -2, 0), Shape: small},
			{Isometry: geom.Translate(0, 2, 0), Shape: small},
		})

		motionComp := toi.Motion{Start: geom.Identity(), LinVel: mgl64.Vec3{1, 0, 0}}
		motionBall := toi.Motion{Start: geom.Translate(10, 2, 0)}

		res, err := TimeOfImpact(comp, motionComp, ball, motionBall, 20, cfg)
		require.NoError(t, err)
		require.Equal(t, toi.Impact, res.Status)
		// The upper part's surface starts 8.5 from the ball's, closing at 1.
		assert.InDelta(t, 8.5, res.TOI, 1e-2)
	})

	t.Run("negative horizon is rejected", func(t *testing.T) {
		motion := toi.Motion{Start: geom.Identity()}
		_, err := TimeOfImpact(ball, motion, ball, motion, -1, cfg)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestConfigDefaults(t *testing.T) {
	var zero Config
	assert.Equal(t, DefaultConfig().BVHMargin, zero.bvhMargin())
	assert.Equal(t, DefaultConfig().RebuildQualityThreshold, zero.rebuildThreshold())

	disabled := Config{RebuildQualityThreshold: -1}
	assert.Negative(t, disabled.rebuildThreshold(), "negative threshold disables rebuilds")

	cfg := Config{MaxGJKIterations: 7}
	assert.Equal(t, 7, cfg.toiParams().MaxGJKIterations, "gjk cap reaches the advancement solver")

	plane, _ := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
	assert.ErrorIs(t, unsupportedPair(plane, plane), ErrInvalidQuery)
}
