package gjk

import "github.com/go-gl/mathgl/mgl64"

// SupportPoint is one point of the Minkowski difference A - B, tagged with
// the witness pair that produced it so closest points on the original shapes
// can be reconstructed from the simplex.
type SupportPoint struct {
	W mgl64.Vec3 // support of A - B (world frame)
	A mgl64.Vec3 // support of A (world frame)
	B mgl64.Vec3 // support of B (world frame)
}

// Simplex is the GJK working set: 1 to 4 Minkowski points, with the
// barycentric weights of the point of the simplex closest to the origin.
// A 3D simplex never needs more than 4 points; once it holds 4 points
// containing the origin, the shapes overlap.
type Simplex struct {
	Points [4]SupportPoint
	Lambda [4]float64
	Count  int
}

// Push appends a support point. The caller guarantees Count < 4.
func (s *Simplex) Push(p SupportPoint) {
	s.Points[s.Count] = p
	s.Count++
}

// Witnesses returns the closest points on A and B reconstructed from the
// barycentric weights of the last Closest call.
func (s *Simplex) Witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var onA, onB mgl64.Vec3
	for i := 0; i < s.Count; i++ {
		onA = onA.Add(s.Points[i].A.Mul(s.Lambda[i]))
		onB = onB.Add(s.Points[i].B.Mul(s.Lambda[i]))
	}
	return onA, onB
}

// Closest computes the point of the simplex closest to the origin by
// Voronoi-region case analysis, reduces the simplex to the feature
// supporting that point, and records the barycentric weights.
//
// When the simplex is a tetrahedron containing the origin it is left intact
// (Count stays 4) and the zero vector is returned: the shapes overlap.
func (s *Simplex) Closest() mgl64.Vec3 {
	switch s.Count {
	case 1:
		s.Lambda[0] = 1
		return s.Points[0].W
	case 2:
		return s.closestSegment()
	case 3:
		return s.closestTriangle()
	case 4:
		return s.closestTetrahedron()
	}
	return mgl64.Vec3{}
}

func (s *Simplex) closestSegment() mgl64.Vec3 {
	a := s.Points[0].W
	b := s.Points[1].W
	ab := b.Sub(a)

	lenSqr := ab.Dot(ab)
	if lenSqr < 1e-18 {
		// Degenerate segment: drop the duplicate.
		s.Count = 1
		s.Lambda[0] = 1
		return a
	}

	t := -a.Dot(ab) / lenSqr
	switch {
	case t <= 0: // vertex region A
		s.Count = 1
		s.Lambda[0] = 1
		return a
	case t >= 1: // vertex region B
		s.Points[0] = s.Points[1]
		s.Count = 1
		s.Lambda[0] = 1
		return b
	default: // edge region
		s.Lambda[0] = 1 - t
		s.Lambda[1] = t
		return a.Add(ab.Mul(t))
	}
}

// triangleBary is the closest point of triangle (a, b, c) to the origin with
// its barycentric coordinates, by Voronoi-region analysis. The mask reports
// which vertices support the closest point (bit i set = vertex i used).
func triangleBary(a, b, c mgl64.Vec3) (point mgl64.Vec3, u, v, w float64, mask uint8) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, 1, 0, 0, 0b001 // vertex A
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, 0, 1, 0, 0b010 // vertex B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		return a.Add(ab.Mul(t)), 1 - t, t, 0, 0b011 // edge AB
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, 0, 0, 1, 0b100 // vertex C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		return a.Add(ac.Mul(t)), 1 - t, 0, t, 0b101 // edge AC
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(t)), 0, 1 - t, t, 0b110 // edge BC
	}

	denom := 1.0 / (va + vb + vc)
	v = vb * denom
	w = vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), 1 - v - w, v, w, 0b111 // face
}

func (s *Simplex) closestTriangle() mgl64.Vec3 {
	point, u, v, w, mask := triangleBary(s.Points[0].W, s.Points[1].W, s.Points[2].W)
	s.reduceTriangle(u, v, w, mask)
	return point
}

// reduceTriangle keeps the vertices named by mask and stores their weights.
func (s *Simplex) reduceTriangle(u, v, w float64, mask uint8) {
	weights := [3]float64{u, v, w}
	n := 0
	for i := 0; i < 3; i++ {
		if mask&(1<<i) != 0 {
			s.Points[n] = s.Points[i]
			s.Lambda[n] = weights[i]
			n++
		}
	}
	s.Count = n
}

func (s *Simplex) closestTetrahedron() mgl64.Vec3 {
	a := s.Points[0].W
	b := s.Points[1].W
	c := s.Points[2].W
	d := s.Points[3].W

	outsideABC := originOutsidePlane(a, b, c, d)
	outsideACD := originOutsidePlane(a, c, d, b)
	outsideADB := originOutsidePlane(a, d, b, c)
	outsideBDC := originOutsidePlane(b, d, c, a)

	if !outsideABC && !outsideACD && !outsideADB && !outsideBDC {
		// Origin inside the tetrahedron: overlap, keep all four points.
		return mgl64.Vec3{}
	}

	// Probe every face the origin is outside of and keep the closest.
	type faceCase struct {
		outside bool
		idx     [3]int
	}
	faces := [4]faceCase{
		{outsideABC, [3]int{0, 1, 2}},
		{outsideACD, [3]int{0, 2, 3}},
		{outsideADB, [3]int{0, 3, 1}},
		{outsideBDC, [3]int{1, 3, 2}},
	}

	bestDist := -1.0
	var bestPoint mgl64.Vec3
	var bestWeights [3]float64
	var bestMask uint8
	var bestIdx [3]int

	for _, f := range faces {
		if !f.outside {
			continue
		}
		p0 := s.Points[f.idx[0]].W
		p1 := s.Points[f.idx[1]].W
		p2 := s.Points[f.idx[2]].W
		point, u, v, w, mask := triangleBary(p0, p1, p2)
		distSqr := point.Dot(point)
		if bestDist < 0 || distSqr < bestDist {
			bestDist = distSqr
			bestPoint = point
			bestWeights = [3]float64{u, v, w}
			bestMask = mask
			bestIdx = f.idx
		}
	}

	// Reduce to the winning face's supporting feature.
	var kept [4]SupportPoint
	var lambda [4]float64
	n := 0
	for i := 0; i < 3; i++ {
		if bestMask&(1<<i) != 0 {
			kept[n] = s.Points[bestIdx[i]]
			lambda[n] = bestWeights[i]
			n++
		}
	}
	s.Points = kept
	s.Lambda = lambda
	s.Count = n
	return bestPoint
}

// originOutsidePlane reports whether the origin lies on the opposite side of
// plane (a, b, c) from d. Degenerate (flat) tetrahedra count as outside so
// the simplex gets reduced instead of looping.
func originOutsidePlane(a, b, c, d mgl64.Vec3) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	signOrigin := -a.Dot(n)
	signD := d.Sub(a).Dot(n)
	if signD > -1e-14 && signD < 1e-14 {
		return true
	}
	return signOrigin*signD < 0
}
