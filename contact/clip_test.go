package contact

import (
	"testing"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePairKey(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, MakePairKey(a, b), MakePairKey(b, a), "both orders produce the same key")

	key := MakePairKey(a, a)
	assert.Equal(t, a, key.A)
	assert.Equal(t, a, key.B)
}

func TestManifoldDeepest(t *testing.T) {
	m := Manifold{Points: []Point{
		{Depth: 0.1},
		{Depth: 0.5},
		{Depth: 0.3},
	}}
	assert.Equal(t, 1, m.Deepest())

	empty := Manifold{}
	assert.Equal(t, -1, empty.Deepest())
}

func TestBuildFaceContact(t *testing.T) {
	// Two unit cubes overlapping by half along x: a full face contact.
	box, err := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0.5, 0, 0)
	normal := mgl64.Vec3{1, 0, 0}

	m := Build(box, isoA, box, isoB, normal, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, 0, 0}, 0.5, 0.01)

	require.Len(t, m.Points, 4, "face on face clips to the full quad")
	for _, p := range m.Points {
		assert.InDelta(t, 0.5, p.Depth, 1e-4)
		// Points in A's frame sit on its +x face, in B's frame on its -x face.
		assert.InDelta(t, 0.5, p.LocalA.X(), 1e-9)
		assert.InDelta(t, -0.5, p.LocalB.X(), 1e-9)
	}
}

func TestBuildPartialOverlap(t *testing.T) {
	// The top box hangs off the edge: clipping trims the contact region to
	// the overlap footprint.
	box, err := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0.7, 0.95, 0)
	normal := mgl64.Vec3{0, 1, 0}

	m := Build(box, isoA, box, isoB, normal, mgl64.Vec3{0.35, 0.5, 0}, mgl64.Vec3{0.35, 0.45, 0}, 0.05, 0.01)

	require.NotEmpty(t, m.Points)
	require.LessOrEqual(t, len(m.Points), 4)
	for _, p := range m.Points {
		assert.InDelta(t, 0.05, p.Depth, 1e-9)
		// The overlap strip in A's frame spans x in [0.2, 0.5].
		assert.GreaterOrEqual(t, p.LocalA.X(), 0.2-1e-9)
		assert.LessOrEqual(t, p.LocalA.X(), 0.5+1e-9)
	}
}

func TestBuildCurvedSingle(t *testing.T) {
	// A ball has no flat feature, so the manifold is the witness pair.
	ball, err := geom.NewBall(0.5)
	require.NoError(t, err)
	box, err := geom.NewCuboid(mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0, 1.4, 0)
	normal := mgl64.Vec3{0, 1, 0}

	m := Build(box, isoA, ball, isoB, normal, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0.9, 0}, 0.1, 0.01)

	require.Len(t, m.Points, 1)
	assert.InDelta(t, 0.1, m.Points[0].Depth, 1e-9)
	assert.InDelta(t, 1.0, m.Points[0].LocalA.Y(), 1e-9)
	assert.InDelta(t, -0.5, m.Points[0].LocalB.Y(), 1e-9)
}

func TestBuildHalfSpaceReference(t *testing.T) {
	plane, err := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
	require.NoError(t, err)
	box, err := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0, 0.45, 0)
	normal := mgl64.Vec3{0, 1, 0}

	m := Build(plane, isoA, box, isoB, normal, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, -0.05, 0}, 0.05, 0.01)

	require.Len(t, m.Points, 4, "the whole bottom face rests on the plane")
	for _, p := range m.Points {
		assert.InDelta(t, 0.05, p.Depth, 1e-9)
		assert.InDelta(t, -0.5, p.LocalB.Y(), 1e-9)
	}
}

func TestBuildMarginKeepsSeparatedPoints(t *testing.T) {
	// Boxes 0.1 apart: within a 0.2 margin the face pair still produces a
	// speculative manifold with negative depth.
	box, err := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0, 1.1, 0)
	normal := mgl64.Vec3{0, 1, 0}

	m := Build(box, isoA, box, isoB, normal, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, 0.6, 0}, -0.1, 0.2)

	require.Len(t, m.Points, 4)
	for _, p := range m.Points {
		assert.InDelta(t, -0.1, p.Depth, 1e-9, "separated points carry negative depth")
	}
}

func TestBuildReducesToFourPoints(t *testing.T) {
	// A cylinder cap approximates to an octagon; resting on a plane it must
	// reduce to the four-point cap while keeping the full depth.
	plane, err := geom.NewHalfSpace(mgl64.Vec3{0, 1, 0})
	require.NoError(t, err)
	cyl, err := geom.NewCylinder(1, 2)
	require.NoError(t, err)

	isoA := geom.Identity()
	isoB := geom.Translate(0, 0.9, 0)
	normal := mgl64.Vec3{0, 1, 0}

	m := Build(plane, isoA, cyl, isoB, normal, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, -0.1, 0}, 0.1, 0.01)

	require.Len(t, m.Points, 4, "octagonal cap reduces to the extremal four")
	for _, p := range m.Points {
		assert.InDelta(t, 0.1, p.Depth, 1e-9)
	}
}

func TestBuildDeterministic(t *testing.T) {
	box, err := geom.NewCuboid(mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	isoA := geom.NewIsometry(mgl64.Vec3{0.1, 0, 0}, mgl64.QuatRotate(0.05, mgl64.Vec3{0, 0, 1}))
	isoB := geom.Translate(0.3, 0.95, 0)
	normal := mgl64.Vec3{0, 1, 0}

	first := Build(box, isoA, box, isoB, normal, mgl64.Vec3{0.3, 0.5, 0}, mgl64.Vec3{0.3, 0.45, 0}, 0.05, 0.05)
	for i := 0; i < 10; i++ {
		again := Build(box, isoA, box, isoB, normal, mgl64.Vec3{0.3, 0.5, 0}, mgl64.Vec3{0.3, 0.45, 0}, 0.05, 0.05)
		require.Equal(t, first.Points, again.Points, "run %d differs", i)
	}
}
