package bullet

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/btdynamics"
	"github.com/milk9111/jointsim/physics"
)

// joint registers one typed constraint with the world and reads back its
// feedback.
type joint struct {
	physics.Unsupported
	engine   *Engine
	native   btdynamics.TypedConstraint
	feedback btdynamics.JointFeedback
}

func (j *joint) register(c btdynamics.TypedConstraint) {
	c.EnableFeedback(true)
	c.SetJointFeedback(&j.feedback)
	j.engine.world.AddConstraint(c, true)
	j.native = c
}

func (j *joint) DetachImpl() {
	if j.native != nil {
		j.engine.world.RemoveConstraint(j.native)
		j.native = nil
	}
}

func (j *joint) ForceTorqueImpl() (physics.Wrench, error) {
	if j.native == nil {
		return physics.Wrench{}, physics.ErrNotCreated
	}
	fb := j.feedback
	return physics.Wrench{
		Force1:  fb.AppliedForceBodyA,
		Torque1: fb.AppliedTorqueBodyA,
		Force2:  fb.AppliedForceBodyB,
		Torque2: fb.AppliedTorqueBodyB,
	}, nil
}

// relativeRate is the child's angular velocity about axis relative to the
// parent.
func (j *joint) relativeRate(axis mgl64.Vec3) float64 {
	a, b := j.native.RigidBodyA(), j.native.RigidBodyB()
	return b.AngularVelocity().Sub(a.AngularVelocity()).Dot(axis)
}

// addTorque applies t about axis to the child and the reaction to the parent.
func (j *joint) addTorque(axis mgl64.Vec3, t float64) {
	torque := axis.Mul(t)
	if b := j.native.RigidBodyB(); !b.IsStaticObject() {
		b.ApplyTorque(torque)
	}
	if a := j.native.RigidBodyA(); !a.IsStaticObject() {
		a.ApplyTorque(torque.Mul(-1))
	}
}

// axisJoint keeps the stops the native constraint has no separate setter
// for and turns per-step force totals into increments.
type axisJoint struct {
	joint
	applied    physics.ForceAccumulator
	lo, hi     [2]float64
	pushLimits func(i int)
}

func (j *axisJoint) initAxes(push func(i int)) {
	j.applied = physics.NewForceAccumulator(2)
	j.lo = [2]float64{-common.Unlimited, -common.Unlimited}
	j.hi = [2]float64{common.Unlimited, common.Unlimited}
	j.pushLimits = push
}

func (j *axisJoint) ClearForcesImpl()                    { j.applied.Clear() }
func (j *axisJoint) DampingMode(int) physics.DampingMode { return physics.DampingExplicit }

func (j *axisJoint) HighStopImpl(i int) (float64, error) {
	if j.native == nil {
		return 0, physics.ErrNotCreated
	}
	return j.hi[i], nil
}

func (j *axisJoint) LowStopImpl(i int) (float64, error) {
	if j.native == nil {
		return 0, physics.ErrNotCreated
	}
	return j.lo[i], nil
}

func (j *axisJoint) SetHighStopImpl(i int, a float64) error {
	if j.native == nil {
		return physics.ErrNotCreated
	}
	j.hi[i] = a
	j.pushLimits(i)
	return nil
}

func (j *axisJoint) SetLowStopImpl(i int, a float64) error {
	if j.native == nil {
		return physics.ErrNotCreated
	}
	j.lo[i] = a
	j.pushLimits(i)
	return nil
}
