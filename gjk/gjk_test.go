package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func mustBall(t *testing.T, radius float64) *geom.Ball {
	t.Helper()
	b, err := geom.NewBall(radius)
	if err != nil {
		t.Fatalf("NewBall(%v): %v", radius, err)
	}
	return b
}

func mustCuboid(t *testing.T, he mgl64.Vec3) *geom.Cuboid {
	t.Helper()
	c, err := geom.NewCuboid(he)
	if err != nil {
		t.Fatalf("NewCuboid(%v): %v", he, err)
	}
	return c
}

func TestSupport(t *testing.T) {
	t.Run("separated balls along x", func(t *testing.T) {
		a := mustBall(t, 1)
		b := mustBall(t, 1)

		sp := Support(a, geom.Identity(), b, geom.Translate(3, 0, 0), mgl64.Vec3{1, 0, 0})

		// max(A.x) - min(B.x) = 1 - 2 = -1
		if math.Abs(sp.W.X()-(-1)) > 1e-12 {
			t.Errorf("expected support W.x = -1, got %v", sp.W.X())
		}
		if math.Abs(sp.A.X()-1) > 1e-12 {
			t.Errorf("expected witness on A at x=1, got %v", sp.A.X())
		}
		if math.Abs(sp.B.X()-2) > 1e-12 {
			t.Errorf("expected witness on B at x=2, got %v", sp.B.X())
		}
	})

	t.Run("rotated cuboid", func(t *testing.T) {
		box := mustCuboid(t, mgl64.Vec3{1, 1, 1})
		iso := geom.NewIsometry(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))

		sp := Support(box, iso, mustBall(t, 1), geom.Translate(10, 0, 0), mgl64.Vec3{1, 0, 0})

		// A corner of the rotated unit box reaches sqrt(2) along x.
		if math.Abs(sp.A.X()-math.Sqrt2) > 1e-9 {
			t.Errorf("expected rotated corner at x=sqrt(2), got %v", sp.A.X())
		}
	})
}

func TestDistance(t *testing.T) {
	cfg := Params{}

	t.Run("disjoint balls", func(t *testing.T) {
		tests := []struct {
			name     string
			centerA  mgl64.Vec3
			radiusA  float64
			centerB  mgl64.Vec3
			radiusB  float64
			expected float64
		}{
			{"axis aligned", mgl64.Vec3{0, 0, 0}, 1, mgl64.Vec3{5, 0, 0}, 1, 3},
			{"diagonal", mgl64.Vec3{0, 0, 0}, 1, mgl64.Vec3{3, 4, 0}, 2, 2},
			{"small radii", mgl64.Vec3{-1, 0, 0}, 0.25, mgl64.Vec3{1, 0, 0}, 0.25, 1.5},
			{"3d offset", mgl64.Vec3{1, 2, 3}, 0.5, mgl64.Vec3{4, 6, 3}, 1.5, 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				a := mustBall(t, tt.radiusA)
				b := mustBall(t, tt.radiusB)
				isoA := geom.Isometry{Translation: tt.centerA, Rotation: mgl64.QuatIdent()}
				isoB := geom.Isometry{Translation: tt.centerB, Rotation: mgl64.QuatIdent()}

				res := Distance(a, isoA, b, isoB, cfg)

				if res.Overlapping {
					t.Fatal("expected separated result")
				}
				if math.Abs(res.Distance-tt.expected) > 1e-5 {
					t.Errorf("expected distance %v, got %v", tt.expected, res.Distance)
				}

				// Witnesses lie on each surface, separated by the distance.
				gap := res.WitnessB.Sub(res.WitnessA).Len()
				if math.Abs(gap-tt.expected) > 1e-5 {
					t.Errorf("witness gap %v does not match distance %v", gap, tt.expected)
				}

				// Normal points from A toward B.
				toB := tt.centerB.Sub(tt.centerA).Normalize()
				if res.Normal.Sub(toB).Len() > 1e-5 {
					t.Errorf("expected normal %v, got %v", toB, res.Normal)
				}
			})
		}
	})

	t.Run("overlapping balls", func(t *testing.T) {
		a := mustBall(t, 1)
		b := mustBall(t, 1)

		res := Distance(a, geom.Identity(), b, geom.Translate(1.5, 0, 0), cfg)

		if !res.Overlapping {
			t.Fatal("expected overlap")
		}
		if res.Simplex.Count != 4 && res.Simplex.Count != 0 {
			// A touching configuration can also collapse to fewer points,
			// but a clear overlap must enclose the origin.
			t.Errorf("expected enclosing simplex, got %d points", res.Simplex.Count)
		}
	})

	t.Run("separated boxes", func(t *testing.T) {
		a := mustCuboid(t, mgl64.Vec3{1, 1, 1})
		b := mustCuboid(t, mgl64.Vec3{1, 1, 1})

		res := Distance(a, geom.Identity(), b, geom.Translate(5, 0, 0), cfg)

		if res.Overlapping {
			t.Fatal("expected separated result")
		}
		if math.Abs(res.Distance-3) > 1e-6 {
			t.Errorf("expected distance 3, got %v", res.Distance)
		}
	})

	t.Run("box face to ball", func(t *testing.T) {
		box := mustCuboid(t, mgl64.Vec3{1, 1, 1})
		ball := mustBall(t, 0.5)

		res := Distance(box, geom.Identity(), ball, geom.Translate(0, 3, 0), cfg)

		if math.Abs(res.Distance-1.5) > 1e-6 {
			t.Errorf("expected distance 1.5, got %v", res.Distance)
		}
		if math.Abs(res.WitnessA.Y()-1) > 1e-6 {
			t.Errorf("expected witness on box face y=1, got %v", res.WitnessA)
		}
		if math.Abs(res.WitnessB.Y()-2.5) > 1e-6 {
			t.Errorf("expected witness on ball surface y=2.5, got %v", res.WitnessB)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := mustCuboid(t, mgl64.Vec3{1, 0.5, 2})
		b := mustBall(t, 0.75)
		isoA := geom.NewIsometry(mgl64.Vec3{0.1, 0.2, 0.3}, mgl64.QuatRotate(0.4, mgl64.Vec3{1, 2, 3}.Normalize()))
		isoB := geom.Translate(3, 1, -2)

		first := Distance(a, isoA, b, isoB, cfg)
		for i := 0; i < 10; i++ {
			again := Distance(a, isoA, b, isoB, cfg)
			if again.Distance != first.Distance || again.WitnessA != first.WitnessA || again.WitnessB != first.WitnessB {
				t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
			}
		}
	})

	t.Run("coincident centers", func(t *testing.T) {
		a := mustBall(t, 1)
		b := mustBall(t, 1)

		res := Distance(a, geom.Identity(), b, geom.Identity(), cfg)
		if !res.Overlapping {
			t.Error("coincident balls must overlap")
		}
	})
}

func TestIntersecting(t *testing.T) {
	tests := []struct {
		name     string
		offset   mgl64.Vec3
		expected bool
	}{
		{"clear overlap", mgl64.Vec3{1, 0, 0}, true},
		{"clear separation", mgl64.Vec3{5, 0, 0}, false},
		{"near touch outside", mgl64.Vec3{2.01, 0, 0}, false},
		{"near touch inside", mgl64.Vec3{1.99, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustBall(t, 1)
			b := mustBall(t, 1)
			got := Intersecting(a, geom.Identity(), b, geom.Isometry{Translation: tt.offset, Rotation: mgl64.QuatIdent()}, Params{})
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSimplexClosest(t *testing.T) {
	t.Run("segment interior", func(t *testing.T) {
		var s Simplex
		s.Push(SupportPoint{W: mgl64.Vec3{-1, 1, 0}})
		s.Push(SupportPoint{W: mgl64.Vec3{1, 1, 0}})

		v := s.Closest()
		if v.Sub(mgl64.Vec3{0, 1, 0}).Len() > 1e-12 {
			t.Errorf("expected closest (0,1,0), got %v", v)
		}
		if s.Count != 2 {
			t.Errorf("expected simplex kept as segment, got %d points", s.Count)
		}
	})

	t.Run("segment vertex region", func(t *testing.T) {
		var s Simplex
		s.Push(SupportPoint{W: mgl64.Vec3{2, 0, 0}})
		s.Push(SupportPoint{W: mgl64.Vec3{4, 0, 0}})

		v := s.Closest()
		if v.Sub(mgl64.Vec3{2, 0, 0}).Len() > 1e-12 {
			t.Errorf("expected closest (2,0,0), got %v", v)
		}
		if s.Count != 1 {
			t.Errorf("expected reduction to a vertex, got %d points", s.Count)
		}
	})

	t.Run("triangle face region", func(t *testing.T) {
		var s Simplex
		s.Push(SupportPoint{W: mgl64.Vec3{-1, -1, 2}})
		s.Push(SupportPoint{W: mgl64.Vec3{1, -1, 2}})
		s.Push(SupportPoint{W: mgl64.Vec3{0, 1, 2}})

		v := s.Closest()
		if math.Abs(v.Z()-2) > 1e-12 {
			t.Errorf("expected closest on plane z=2, got %v", v)
		}
		if s.Count != 3 {
			t.Errorf("expected simplex kept as triangle, got %d points", s.Count)
		}

		// The weights must reconstruct the same point.
		var rebuilt mgl64.Vec3
		for i := 0; i < s.Count; i++ {
			rebuilt = rebuilt.Add(s.Points[i].W.Mul(s.Lambda[i]))
		}
		if rebuilt.Sub(v).Len() > 1e-12 {
			t.Errorf("barycentric weights rebuild %v, want %v", rebuilt, v)
		}
	})

	t.Run("tetrahedron containing origin", func(t *testing.T) {
		var s Simplex
		s.Push(SupportPoint{W: mgl64.Vec3{-1, -1, -1}})
		s.Push(SupportPoint{W: mgl64.Vec3{2, 0, 0}})
		s.Push(SupportPoint{W: mgl64.Vec3{0, 2, 0}})
		s.Push(SupportPoint{W: mgl64.Vec3{0, 0, 2}})

		v := s.Closest()
		if v.Len() > 1e-12 {
			t.Errorf("expected zero vector for enclosed origin, got %v", v)
		}
		if s.Count != 4 {
			t.Errorf("expected simplex kept intact, got %d points", s.Count)
		}
	})

	t.Run("tetrahedron origin outside", func(t *testing.T) {
		var s Simplex
		s.Push(SupportPoint{W: mgl64.Vec3{-1, -1, 1}})
		s.Push(SupportPoint{W: mgl64.Vec3{1, -1, 1}})
		s.Push(SupportPoint{W: mgl64.Vec3{0, 1, 1}})
		s.Push(SupportPoint{W: mgl64.Vec3{0, 0, 3}})

		v := s.Closest()
		if math.Abs(v.Z()-1) > 1e-12 {
			t.Errorf("expected closest on the z=1 face, got %v", v)
		}
		if s.Count >= 4 {
			t.Errorf("expected reduction below 4 points, got %d", s.Count)
		}
	})
}
