package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HeightField is a rectangular grid of heights sampled along the local y
// axis, centered on the origin in the x-z plane. Each grid cell is two
// triangles. Like meshes, height fields are boundaries without volume.
//
// heights[row][col] samples z = row, x = col. Scale stretches the field:
// X and Z scale the cell footprint, Y scales the heights.
type HeightField struct {
	heights    [][]float64
	rows, cols int
	Scale      mgl64.Vec3
	aabb       AABB
}

// NewHeightField builds a height field from a rows x cols grid, requiring at
// least one cell (2x2 samples) and uniform row lengths.
func NewHeightField(heights [][]float64, scale mgl64.Vec3) (*HeightField, error) {
	if len(heights) < 2 || len(heights[0]) < 2 {
		return nil, fmt.Errorf("%w: height field needs at least 2x2 samples", ErrDegenerateShape)
	}
	cols := len(heights[0])
	for i, row := range heights {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: height field row %d has %d samples, want %d", ErrDegenerateShape, i, len(row), cols)
		}
	}
	if scale.X() <= 0 || scale.Y() <= 0 || scale.Z() <= 0 {
		return nil, fmt.Errorf("%w: height field scale %v", ErrDegenerateShape, scale)
	}

	owned := make([][]float64, len(heights))
	for i, row := range heights {
		owned[i] = append([]float64(nil), row...)
	}

	h := &HeightField{heights: owned, rows: len(owned), cols: cols, Scale: scale}

	minH, maxH := math.Inf(1), math.Inf(-1)
	for _, row := range owned {
		for _, v := range row {
			minH = math.Min(minH, v)
			maxH = math.Max(maxH, v)
		}
	}
	halfX := scale.X() * float64(cols-1) / 2
	halfZ := scale.Z() * float64(h.rows-1) / 2
	h.aabb = AABB{
		Min: mgl64.Vec3{-halfX, minH * scale.Y(), -halfZ},
		Max: mgl64.Vec3{halfX, maxH * scale.Y(), halfZ},
	}

	return h, nil
}

func (h *HeightField) Kind() Kind { return KindHeightField }

func (h *HeightField) IsConvex() bool { return false }

func (h *HeightField) CCDThickness() float64 { return 0 }

func (h *HeightField) LocalAABB() AABB { return h.aabb }

func (h *HeightField) AABB(iso Isometry) AABB { return h.aabb.Transform(iso) }

// MassProperties is zero: height fields are boundaries.
func (h *HeightField) MassProperties(float64) MassProperties { return MassProperties{} }

// vertex returns the sample position for grid coordinates (row, col).
func (h *HeightField) vertex(row, col int) mgl64.Vec3 {
	halfX := h.Scale.X() * float64(h.cols-1) / 2
	halfZ := h.Scale.Z() * float64(h.rows-1) / 2
	return mgl64.Vec3{
		float64(col)*h.Scale.X() - halfX,
		h.heights[row][col] * h.Scale.Y(),
		float64(row)*h.Scale.Z() - halfZ,
	}
}

// NumParts is two triangles per cell.
func (h *HeightField) NumParts() int { return (h.rows - 1) * (h.cols - 1) * 2 }

// Part returns the i-th triangle, row-major over cells, the diagonal split
// alternating with the first of the two triangles covering the lower-left.
func (h *HeightField) Part(i int) (Isometry, Shape) {
	cell := i / 2
	row := cell / (h.cols - 1)
	col := cell % (h.cols - 1)

	v00 := h.vertex(row, col)
	v01 := h.vertex(row, col+1)
	v10 := h.vertex(row+1, col)
	v11 := h.vertex(row+1, col+1)

	// Winding keeps the upward face (+y for a flat field) as the front.
	if i%2 == 0 {
		return Identity(), &Triangle{A: v00, B: v10, C: v01}
	}
	return Identity(), &Triangle{A: v01, B: v10, C: v11}
}

// PartsOverlapping clips the query box to the cell grid and emits the
// triangles of every cell in the clipped range.
func (h *HeightField) PartsOverlapping(aabb AABB, f func(i int) bool) {
	halfX := h.Scale.X() * float64(h.cols-1) / 2
	halfZ := h.Scale.Z() * float64(h.rows-1) / 2

	minCol := int(math.Floor((aabb.Min.X() + halfX) / h.Scale.X()))
	maxCol := int(math.Floor((aabb.Max.X() + halfX) / h.Scale.X()))
	minRow := int(math.Floor((aabb.Min.Z() + halfZ) / h.Scale.Z()))
	maxRow := int(math.Floor((aabb.Max.Z() + halfZ) / h.Scale.Z()))

	minCol = max(0, minCol)
	minRow = max(0, minRow)
	maxCol = min(h.cols-2, maxCol)
	maxRow = min(h.rows-2, maxRow)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			base := (row*(h.cols-1) + col) * 2
			if !f(base) || !f(base+1) {
				return
			}
		}
	}
}

// CastRayLocal walks the cell grid along the ray's x-z footprint and tests
// the two triangles of each visited cell, returning the first hit. Cells are
// visited in ray order, so the first triangle hit is the nearest.
func (h *HeightField) CastRayLocal(ray Ray, maxTOI float64, _ bool) (RayHit, bool) {
	// Clip the ray against the field bounds first.
	entry, ok := h.aabb.Loosened(1e-9).RayCast(ray, maxTOI)
	if !ok {
		return RayHit{}, false
	}

	halfX := h.Scale.X() * float64(h.cols-1) / 2
	halfZ := h.Scale.Z() * float64(h.rows-1) / 2

	toCell := func(p mgl64.Vec3) (int, int) {
		col := int(math.Floor((p.X() + halfX) / h.Scale.X()))
		row := int(math.Floor((p.Z() + halfZ) / h.Scale.Z()))
		return clampInt(row, 0, h.rows-2), clampInt(col, 0, h.cols-2)
	}

	row, col := toCell(ray.At(entry))

	// DDA stepping state over the x-z grid.
	stepCol, stepRow := 0, 0
	tDeltaCol, tDeltaRow := math.Inf(1), math.Inf(1)
	tNextCol, tNextRow := math.Inf(1), math.Inf(1)

	if math.Abs(ray.Dir.X()) > 1e-14 {
		stepCol = 1
		nextBoundary := float64(col+1)*h.Scale.X() - halfX
		if ray.Dir.X() < 0 {
			stepCol = -1
			nextBoundary = float64(col)*h.Scale.X() - halfX
		}
		tDeltaCol = math.Abs(h.Scale.X() / ray.Dir.X())
		tNextCol = (nextBoundary - ray.Origin.X()) / ray.Dir.X()
	}
	if math.Abs(ray.Dir.Z()) > 1e-14 {
		stepRow = 1
		nextBoundary := float64(row+1)*h.Scale.Z() - halfZ
		if ray.Dir.Z() < 0 {
			stepRow = -1
			nextBoundary = float64(row)*h.Scale.Z() - halfZ
		}
		tDeltaRow = math.Abs(h.Scale.Z() / ray.Dir.Z())
		tNextRow = (nextBoundary - ray.Origin.Z()) / ray.Dir.Z()
	}

	for {
		// Test the two triangles of the current cell.
		base := (row*(h.cols-1) + col) * 2
		best := RayHit{TOI: math.Inf(1)}
		found := false
		for _, i := range []int{base, base + 1} {
			_, tri := h.Part(i)
			if hit, ok := tri.(*Triangle).CastRayLocal(ray, maxTOI, false); ok && hit.TOI < best.TOI {
				best = hit
				found = true
			}
		}
		if found {
			return best, true
		}

		// Advance to the next cell along the ray. A vertical ray never
		// leaves its starting cell.
		if stepCol == 0 && stepRow == 0 {
			return RayHit{}, false
		}
		if tNextCol < tNextRow {
			if tNextCol > maxTOI {
				return RayHit{}, false
			}
			col += stepCol
			tNextCol += tDeltaCol
		} else {
			if tNextRow > maxTOI {
				return RayHit{}, false
			}
			row += stepRow
			tNextRow += tDeltaRow
		}
		if row < 0 || row > h.rows-2 || col < 0 || col > h.cols-2 {
			return RayHit{}, false
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
