// Package toi computes the time of impact of two moving shapes by
// conservative advancement: repeatedly measure the separation, bound how
// fast it can close, and advance time by the ratio. The result is the first
// instant the shapes touch, or proof that they cannot within the horizon.
package toi

import (
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Motion is a constant-velocity screw motion over one query interval: the
// pose at t = 0 plus a linear velocity and an angular velocity (axis times
// angular speed, radians per unit time).
type Motion struct {
	Start  geom.Isometry
	LinVel mgl64.Vec3
	AngVel mgl64.Vec3
}

// At returns the pose at time t: translation integrates linearly, rotation
// spins about the angular velocity axis.
func (m Motion) At(t float64) geom.Isometry {
	iso := m.Start
	iso.Translation = m.Start.Translation.Add(m.LinVel.Mul(t))

	speed := m.AngVel.Len()
	if speed > 1e-14 {
		spin := mgl64.QuatRotate(speed*t, m.AngVel.Mul(1/speed))
		iso.Rotation = spin.Mul(m.Start.Rotation).Normalize()
	}
	return iso
}
