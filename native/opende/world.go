// Package opende is a pure Go rigid body engine with the shape of the ODE
// API: a world of bodies, joints attached to body pairs (nil is the static
// environment), per-axis joint parameters and a QuickStep iterative solver.
package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

// World owns bodies and joints and advances them in time.
type World struct {
	gravity    mgl64.Vec3
	erp        float64
	cfm        float64
	iterations int

	env    *rigid.Body
	bodies []*Body
	joints []Joint
}

func NewWorld() *World {
	return &World{
		erp:        0.2,
		cfm:        1e-10,
		iterations: 20,
		env:        rigid.NewStaticBody(),
	}
}

func (w *World) SetGravity(g mgl64.Vec3) { w.gravity = g }
func (w *World) Gravity() mgl64.Vec3     { return w.gravity }
func (w *World) SetERP(erp float64)      { w.erp = erp }
func (w *World) ERP() float64            { return w.erp }
func (w *World) SetCFM(cfm float64)      { w.cfm = cfm }
func (w *World) CFM() float64            { return w.cfm }

func (w *World) SetQuickStepNumIterations(n int) {
	if n > 0 {
		w.iterations = n
	}
}

func (w *World) QuickStepNumIterations() int { return w.iterations }

func (w *World) NumBodies() int { return len(w.bodies) }

// NumJoints returns the number of live joints registered with the world.
func (w *World) NumJoints() int { return len(w.joints) }

func (w *World) addJoint(j Joint) {
	w.joints = append(w.joints, j)
}

func (w *World) removeJoint(j Joint) {
	for i, other := range w.joints {
		if other == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			return
		}
	}
}

func (w *World) removeBody(b *Body) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// QuickStep advances the world by dt. Accumulated body forces are cleared.
func (w *World) QuickStep(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range w.bodies {
		if b.enabled {
			b.rb.IntegrateVelocity(w.gravity, dt)
		}
	}

	var all []*rigid.Row
	perJoint := make([][]*rigid.Row, len(w.joints))
	for i, j := range w.joints {
		base := j.base()
		if base.b1 == nil && base.b2 == nil {
			continue
		}
		rows := j.rows(base.params(dt))
		perJoint[i] = rows
		all = append(all, rows...)
	}
	rigid.Solve(all, w.iterations)

	for i, j := range w.joints {
		base := j.base()
		if base.feedback == nil {
			continue
		}
		var wr rigid.Wrench
		wr.Accumulate(perJoint[i], dt)
		base.feedback.F1 = wr.ForceA
		base.feedback.T1 = wr.TorqueA
		base.feedback.F2 = wr.ForceB
		base.feedback.T2 = wr.TorqueB
	}

	for _, b := range w.bodies {
		if b.enabled {
			b.rb.IntegratePosition(dt)
		}
		b.rb.ClearForces()
	}
}
