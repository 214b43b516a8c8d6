// Package quill is a 3D geometric query engine: exact distances, penetration
// depths, contact manifolds, ray casts and times of impact between convex
// and composite shapes, plus a World maintaining a bounding volume hierarchy
// over many moving colliders.
//
// Shapes live in package geom; the solvers live in gjk, epa, contact and
// toi. This package dispatches each query to the cheapest applicable
// routine per shape pair and hosts the World.
package quill

import (
	"errors"

	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/toi"
)

// ErrInvalidQuery reports arguments that make a query meaningless: negative
// ray lengths or time horizons, NaN poses, or a shape pair no routine can
// serve. Non-convergence of an iterative solver is never an error; results
// carry a Converged flag instead.
var ErrInvalidQuery = errors.New("quill: invalid query")

// Config carries every tunable the queries read. There are no globals:
// callers thread a Config explicitly, and the zero value of each field means
// "use the default".
type Config struct {
	// Tolerance is the length-scale epsilon of the iterative solvers.
	Tolerance float64
	// Iteration caps per solver.
	MaxGJKIterations int
	MaxEPAIterations int
	MaxTOIIterations int
	// BVHMargin is how much the World's tree fattens resting leaves.
	BVHMargin float64
	// RebuildQualityThreshold triggers a tree rebuild when the BVH quality
	// metric exceeds it. Zero keeps the default; negative disables
	// rebuilds.
	RebuildQualityThreshold float64
}

// DefaultConfig returns the tuning the engine was validated with.
func DefaultConfig() Config {
	return Config{
		Tolerance:               1e-9,
		MaxGJKIterations:        gjk.DefaultMaxIterations,
		MaxEPAIterations:        epa.DefaultMaxIterations,
		MaxTOIIterations:        toi.DefaultMaxIterations,
		BVHMargin:               0.1,
		RebuildQualityThreshold: 4.0,
	}
}

func (c Config) gjkParams() gjk.Params {
	return gjk.Params{Tolerance: c.Tolerance, MaxIterations: c.MaxGJKIterations}
}

func (c Config) epaParams() epa.Params {
	return epa.Params{Tolerance: c.Tolerance, MaxIterations: c.MaxEPAIterations}
}

func (c Config) toiParams() toi.Params {
	return toi.Params{
		Tolerance:        c.Tolerance,
		MaxIterations:    c.MaxTOIIterations,
		MaxGJKIterations: c.MaxGJKIterations,
	}
}

func (c Config) bvhMargin() float64 {
	if c.BVHMargin <= 0 {
		return DefaultConfig().BVHMargin
	}
	return c.BVHMargin
}

func (c Config) rebuildThreshold() float64 {
	if c.RebuildQualityThreshold == 0 {
		return DefaultConfig().RebuildQualityThreshold
	}
	return c.RebuildQualityThreshold
}
