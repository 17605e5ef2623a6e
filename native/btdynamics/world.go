// Package btdynamics is a pure Go rigid body engine with the shape of the
// Bullet dynamics API: a discrete dynamics world, rigid bodies created from
// a mass and start transform, and typed constraints with limit motors.
package btdynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

// ContactSolverInfo holds the sequential impulse solver settings.
type ContactSolverInfo struct {
	NumIterations int
	ERP           float64
	GlobalCFM     float64
}

type DynamicsWorld struct {
	gravity     mgl64.Vec3
	info        ContactSolverInfo
	bodies      []*RigidBody
	constraints []TypedConstraint
	localTime   float64
}

func NewDiscreteDynamicsWorld() *DynamicsWorld {
	return &DynamicsWorld{
		gravity: mgl64.Vec3{0, 0, -10},
		info:    ContactSolverInfo{NumIterations: 10, ERP: 0.2},
	}
}

func (w *DynamicsWorld) SetGravity(g mgl64.Vec3)       { w.gravity = g }
func (w *DynamicsWorld) Gravity() mgl64.Vec3           { return w.gravity }
func (w *DynamicsWorld) SolverInfo() *ContactSolverInfo { return &w.info }

func (w *DynamicsWorld) AddRigidBody(b *RigidBody) {
	if b == nil || b.world == w {
		return
	}
	b.world = w
	w.bodies = append(w.bodies, b)
}

func (w *DynamicsWorld) RemoveRigidBody(b *RigidBody) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			b.world = nil
			return
		}
	}
}

func (w *DynamicsWorld) NumCollisionObjects() int { return len(w.bodies) }

// AddConstraint registers c with the world. Collision filtering between
// linked bodies is accepted for API compatibility; the world has no collision
// detection.
func (w *DynamicsWorld) AddConstraint(c TypedConstraint, disableCollisionsBetweenLinkedBodies bool) {
	if c == nil {
		return
	}
	for _, other := range w.constraints {
		if other == c {
			return
		}
	}
	c.base().disableCollisions = disableCollisionsBetweenLinkedBodies
	w.constraints = append(w.constraints, c)
}

func (w *DynamicsWorld) RemoveConstraint(c TypedConstraint) {
	for i, other := range w.constraints {
		if other == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return
		}
	}
}

func (w *DynamicsWorld) NumConstraints() int { return len(w.constraints) }

func (w *DynamicsWorld) Constraint(i int) TypedConstraint {
	if i < 0 || i >= len(w.constraints) {
		return nil
	}
	return w.constraints[i]
}

// StepSimulation advances the world. With maxSubSteps == 0 a single step of
// timeStep is taken; otherwise time accumulates and fixed substeps run, at
// most maxSubSteps of them. Forces are cleared afterwards. It returns the
// number of substeps taken.
func (w *DynamicsWorld) StepSimulation(timeStep float64, maxSubSteps int, fixedTimeStep float64) int {
	steps := 0
	if maxSubSteps == 0 {
		if timeStep > 0 {
			w.singleStep(timeStep)
			steps = 1
		}
	} else {
		if fixedTimeStep <= 0 {
			fixedTimeStep = 1.0 / 60
		}
		w.localTime += timeStep
		steps = int(math.Floor(w.localTime/fixedTimeStep + 1e-9))
		w.localTime -= float64(steps) * fixedTimeStep
		if steps > maxSubSteps {
			steps = maxSubSteps
		}
		for i := 0; i < steps; i++ {
			w.singleStep(fixedTimeStep)
		}
	}
	for _, b := range w.bodies {
		b.ClearForces()
	}
	return steps
}

func (w *DynamicsWorld) singleStep(dt float64) {
	for _, b := range w.bodies {
		b.rb.IntegrateVelocity(w.gravity, dt)
	}

	p := rigid.Params{ERP: w.info.ERP, CFM: w.info.GlobalCFM, DT: dt}
	var all []*rigid.Row
	perConstraint := make([][]*rigid.Row, len(w.constraints))
	for i, c := range w.constraints {
		if !c.IsEnabled() {
			continue
		}
		rows := c.rows(p)
		perConstraint[i] = rows
		all = append(all, rows...)
	}
	iters := w.info.NumIterations
	if iters <= 0 {
		iters = 10
	}
	rigid.Solve(all, iters)

	for i, c := range w.constraints {
		base := c.base()
		base.appliedImpulse = 0
		for _, r := range perConstraint[i] {
			base.appliedImpulse += math.Abs(r.Lambda)
		}
		if base.needsFeedback && base.feedback != nil {
			var wr rigid.Wrench
			wr.Accumulate(perConstraint[i], dt)
			base.feedback.AppliedForceBodyA = wr.ForceA
			base.feedback.AppliedTorqueBodyA = wr.TorqueA
			base.feedback.AppliedForceBodyB = wr.ForceB
			base.feedback.AppliedTorqueBodyB = wr.TorqueB
		}
	}

	for _, b := range w.bodies {
		b.rb.IntegratePosition(dt)
	}
}
