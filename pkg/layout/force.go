package layout

import (
	"cogentcore.org/core/math32"

	"github.com/vanderheijden86/orrery/pkg/scene"
)

// body is the per-node simulation state. Positions are read and written
// through the node itself; velocity and force live here.
type body struct {
	n   *scene.Node
	vel math32.Vector3
	frc math32.Vector3
}

// step advances the simulation by one iteration and returns the largest
// displacement any node made.
func (e *Engine) step(bodies []body, springs [][2]int) float32 {
	for i := range bodies {
		bodies[i].frc = math32.Vector3{}
	}

	// Every pair repels.
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			e.repulse(&bodies[i], &bodies[j])
		}
	}

	// Every directed edge is a spring between its endpoints.
	for _, s := range springs {
		e.attract(&bodies[s[0]], &bodies[s[1]])
	}

	// Gentle pull toward the centroid keeps the part from drifting.
	center := centroid(bodies)
	for i := range bodies {
		b := &bodies[i]
		b.frc = b.frc.Add(center.Sub(b.n.Pos).MulScalar(e.cfg.Gravity))
	}

	var maxDisp float32
	for i := range bodies {
		b := &bodies[i]
		b.vel = b.vel.Add(b.frc).MulScalar(e.cfg.Damping)
		if speed := b.vel.Length(); speed > e.cfg.MaxStep {
			b.vel = b.vel.MulScalar(e.cfg.MaxStep / speed)
		}
		b.n.Pos = b.n.Pos.Add(b.vel)
		if d := b.vel.Length(); d > maxDisp {
			maxDisp = d
		}
	}
	return maxDisp
}

// repulse applies Coulomb repulsion F = k/d² between a and b, with a
// strong separation branch for nearly coincident nodes.
func (e *Engine) repulse(a, b *body) {
	delta := a.n.Pos.Sub(b.n.Pos)
	dist := delta.Length()

	if dist < e.cfg.RestLength {
		if dist < 1 {
			dist = 1
			// Coincident nodes have no separation direction; derive a
			// deterministic one from their IDs.
			delta = nudge(a.n.ID(), b.n.ID())
		}
		force := e.cfg.Repulsion * (e.cfg.RestLength - dist) / dist * 0.5
		push := delta.MulScalar(force / dist)
		a.frc = a.frc.Add(push)
		b.frc = b.frc.Sub(push)
		return
	}

	force := e.cfg.Repulsion / (dist * dist)
	push := delta.MulScalar(force / dist)
	a.frc = a.frc.Add(push)
	b.frc = b.frc.Sub(push)
}

// attract applies Hooke's law F = k·(d-rest) along the edge a -> b.
func (e *Engine) attract(a, b *body) {
	delta := b.n.Pos.Sub(a.n.Pos)
	dist := delta.Length()
	if dist < 1 {
		dist = 1
	}

	force := e.cfg.SpringStrength * (dist - e.cfg.RestLength)
	pull := delta.MulScalar(force / dist)
	a.frc = a.frc.Add(pull)
	b.frc = b.frc.Sub(pull)
}

func centroid(bodies []body) math32.Vector3 {
	var sum math32.Vector3
	if len(bodies) == 0 {
		return sum
	}
	for i := range bodies {
		sum = sum.Add(bodies[i].n.Pos)
	}
	return sum.DivScalar(float32(len(bodies)))
}

// nudge returns a small deterministic offset for a coincident node pair.
// It is never the zero vector: if both IDs are 3 mod 7 the z component
// cannot be.
func nudge(a, b int64) math32.Vector3 {
	return math32.Vec3(
		float32(a%7-3)*0.1,
		float32(b%7-3)*0.1,
		float32((a+b)%7-3)*0.1,
	)
}
