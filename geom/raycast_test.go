package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func checkHit(t *testing.T, hit RayHit, ok bool, wantTOI float64, wantNormal mgl64.Vec3) {
	t.Helper()
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.TOI-wantTOI) > 1e-9 {
		t.Errorf("TOI %v, want %v", hit.TOI, wantTOI)
	}
	if hit.Normal.Sub(wantNormal).Len() > 1e-9 {
		t.Errorf("normal %v, want %v", hit.Normal, wantNormal)
	}
}

func TestBallCastRay(t *testing.T) {
	b, _ := NewBall(1)

	t.Run("head on", func(t *testing.T) {
		hit, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{-5, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false)
		checkHit(t, hit, ok, 4, mgl64.Vec3{-1, 0, 0})
	})

	t.Run("miss", func(t *testing.T) {
		if _, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{-5, 2, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false); ok {
			t.Error("ray passing above must miss")
		}
	})

	t.Run("grazing", func(t *testing.T) {
		hit, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{-5, 1, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false)
		if !ok {
			t.Fatal("tangent ray must still hit")
		}
		if math.Abs(hit.TOI-5) > 1e-6 {
			t.Errorf("tangent TOI %v, want 5", hit.TOI)
		}
	})

	t.Run("origin inside solid", func(t *testing.T) {
		hit, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{0.2, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, true)
		checkHit(t, hit, ok, 0, mgl64.Vec3{-1, 0, 0})
	})

	t.Run("origin inside hollow exits", func(t *testing.T) {
		hit, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{0.2, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false)
		if !ok {
			t.Fatal("expected the exit hit")
		}
		if math.Abs(hit.TOI-0.8) > 1e-9 {
			t.Errorf("exit TOI %v, want 0.8", hit.TOI)
		}
		// The reported normal faces the origin, back into the ball.
		if hit.Normal.Sub(mgl64.Vec3{-1, 0, 0}).Len() > 1e-9 {
			t.Errorf("inner normal %v, want (-1,0,0)", hit.Normal)
		}
	})

	t.Run("beyond cutoff", func(t *testing.T) {
		if _, ok := b.CastRayLocal(Ray{Origin: mgl64.Vec3{-5, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 3, false); ok {
			t.Error("hit past maxTOI must be rejected")
		}
	})
}

func TestCuboidCastRay(t *testing.T) {
	c, _ := NewCuboid(mgl64.Vec3{1, 2, 3})

	hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{-10, 0.5, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false)
	checkHit(t, hit, ok, 9, mgl64.Vec3{-1, 0, 0})

	hit, ok = c.CastRayLocal(Ray{Origin: mgl64.Vec3{0, 10, 0}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
	checkHit(t, hit, ok, 8, mgl64.Vec3{0, 1, 0})

	if _, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{-10, 2.5, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false); ok {
		t.Error("ray above the box must miss")
	}

	// A hollow cast from inside exits through the nearest slab, not the one
	// that bounded the entry interval.
	thin, _ := NewCuboid(mgl64.Vec3{0.5, 1, 1})
	hit, ok = thin.CastRayLocal(Ray{Origin: mgl64.Vec3{0.4, 0, 0}, Dir: mgl64.Vec3{1, 0, 2}}, 100, false)
	checkHit(t, hit, ok, 0.1, mgl64.Vec3{1, 0, 0})
}

func TestCapsuleCastRay(t *testing.T) {
	c, _ := NewCapsuleY(1, 0.5)

	t.Run("lateral", func(t *testing.T) {
		hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 0, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, 100, false)
		checkHit(t, hit, ok, 4.5, mgl64.Vec3{1, 0, 0})
	})

	t.Run("cap", func(t *testing.T) {
		hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{0, 5, 0}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
		checkHit(t, hit, ok, 3.5, mgl64.Vec3{0, 1, 0})
	})

	t.Run("miss past the cap", func(t *testing.T) {
		if _, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 1.6, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, 100, false); ok {
			t.Error("ray above the top cap must miss")
		}
	})
}

func TestCylinderCastRay(t *testing.T) {
	c, _ := NewCylinder(1, 0.5)

	hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{0.2, 5, 0}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
	checkHit(t, hit, ok, 4, mgl64.Vec3{0, 1, 0})

	hit, ok = c.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 0.5, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, 100, false)
	checkHit(t, hit, ok, 4.5, mgl64.Vec3{1, 0, 0})
}

func TestConeCastRay(t *testing.T) {
	c, _ := NewCone(1, 1)

	t.Run("base disk", func(t *testing.T) {
		hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{0.2, -5, 0.2}, Dir: mgl64.Vec3{0, 1, 0}}, 100, false)
		checkHit(t, hit, ok, 4, mgl64.Vec3{0, -1, 0})
	})

	t.Run("lateral surface", func(t *testing.T) {
		// At y=0 the cone's radius is 0.5.
		hit, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 0, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, 100, false)
		if !ok {
			t.Fatal("expected a lateral hit")
		}
		if math.Abs(hit.TOI-4.5) > 1e-9 {
			t.Errorf("TOI %v, want 4.5", hit.TOI)
		}
		if hit.Normal.X() <= 0 || hit.Normal.Y() <= 0 {
			t.Errorf("lateral normal %v must tilt up and out", hit.Normal)
		}
	})

	t.Run("above the apex", func(t *testing.T) {
		if _, ok := c.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 1.5, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, 100, false); ok {
			t.Error("ray above the apex must miss")
		}
	})
}

func TestTriangleCastRay(t *testing.T) {
	tri, _ := NewTriangle(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 2, 0})

	hit, ok := tri.CastRayLocal(Ray{Origin: mgl64.Vec3{0.5, 0.5, 3}, Dir: mgl64.Vec3{0, 0, -1}}, 100, false)
	checkHit(t, hit, ok, 3, mgl64.Vec3{0, 0, 1})

	// From behind, the normal flips so it still faces the ray.
	hit, ok = tri.CastRayLocal(Ray{Origin: mgl64.Vec3{0.5, 0.5, -3}, Dir: mgl64.Vec3{0, 0, 1}}, 100, false)
	checkHit(t, hit, ok, 3, mgl64.Vec3{0, 0, -1})

	if _, ok := tri.CastRayLocal(Ray{Origin: mgl64.Vec3{1.5, 1.5, 3}, Dir: mgl64.Vec3{0, 0, -1}}, 100, false); ok {
		t.Error("ray outside the triangle must miss")
	}
}

func TestHalfSpaceCastRay(t *testing.T) {
	h, _ := NewHalfSpace(mgl64.Vec3{0, 1, 0})

	hit, ok := h.CastRayLocal(Ray{Origin: mgl64.Vec3{1, 5, 2}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
	checkHit(t, hit, ok, 5, mgl64.Vec3{0, 1, 0})

	if _, ok := h.CastRayLocal(Ray{Origin: mgl64.Vec3{0, 5, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, false); ok {
		t.Error("ray parallel to the plane must miss")
	}

	hit, ok = h.CastRayLocal(Ray{Origin: mgl64.Vec3{0, -1, 0}, Dir: mgl64.Vec3{0, 1, 0}}, 100, true)
	checkHit(t, hit, ok, 0, mgl64.Vec3{0, -1, 0})
}

func TestTriMeshCastRay(t *testing.T) {
	// A unit square in the z=0 plane, two triangles.
	mesh, err := NewTriMesh(
		[]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[][3]uint32{{0, 1, 2}, {0, 2, 3}},
	)
	if err != nil {
		t.Fatal(err)
	}

	hit, ok := mesh.CastRayLocal(Ray{Origin: mgl64.Vec3{0.5, 0.5, 5}, Dir: mgl64.Vec3{0, 0, -1}}, 100, false)
	checkHit(t, hit, ok, 5, mgl64.Vec3{0, 0, 1})

	if _, ok := mesh.CastRayLocal(Ray{Origin: mgl64.Vec3{2, 2, 5}, Dir: mgl64.Vec3{0, 0, -1}}, 100, false); ok {
		t.Error("ray beside the mesh must miss")
	}
}

func TestHeightFieldCastRay(t *testing.T) {
	flat, err := NewHeightField([][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}, mgl64.Vec3{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("vertical drop", func(t *testing.T) {
		hit, ok := flat.CastRayLocal(Ray{Origin: mgl64.Vec3{0.3, 5, -0.2}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
		checkHit(t, hit, ok, 5, mgl64.Vec3{0, 1, 0})
	})

	t.Run("outside the grid", func(t *testing.T) {
		if _, ok := flat.CastRayLocal(Ray{Origin: mgl64.Vec3{5, 5, 5}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false); ok {
			t.Error("ray outside the field footprint must miss")
		}
	})

	t.Run("sloped cell", func(t *testing.T) {
		slope, err := NewHeightField([][]float64{
			{0, 1},
			{0, 1},
		}, mgl64.Vec3{1, 1, 1})
		if err != nil {
			t.Fatal(err)
		}
		hit, ok := slope.CastRayLocal(Ray{Origin: mgl64.Vec3{0, 5, 0}, Dir: mgl64.Vec3{0, -1, 0}}, 100, false)
		if !ok {
			t.Fatal("expected a hit on the slope")
		}
		// At x=0 the surface interpolates to height 0.5.
		if math.Abs(hit.TOI-4.5) > 1e-9 {
			t.Errorf("TOI %v, want 4.5", hit.TOI)
		}
		if hit.Normal.Y() <= 0 {
			t.Errorf("slope normal %v must point upward", hit.Normal)
		}
	})
}
