package ode

import (
	"github.com/milk9111/jointsim/native/opende"
	"github.com/milk9111/jointsim/physics"
)

// joint holds what every ODE joint kind shares: the native handle and its
// feedback record.
type joint struct {
	physics.Unsupported
	engine   *Engine
	native   opende.Joint
	feedback opende.JointFeedback
}

func (j *joint) attach(cfg physics.JointConfig, native opende.Joint, parent, child physics.Link) {
	native.Attach(body(parent), body(child))
	native.SetFeedback(&j.feedback)
	if o := cfg.ODE; o != nil {
		native.SetParam(opende.ParamCFM, o.CFM)
		native.SetParam(opende.ParamERP, o.ERP)
		native.SetParam(opende.ParamSuspensionCFM, o.SuspensionCFM)
		native.SetParam(opende.ParamSuspensionERP, o.SuspensionERP)
		for i := 0; i < cfg.Type.AngleCount(); i++ {
			native.SetParam(opende.ParamFudgeFactor.Axis(i), o.FudgeFactor)
			native.SetParam(opende.ParamBounce.Axis(i), o.Bounce)
		}
	}
	j.native = native
}

func (j *joint) DetachImpl() {
	if j.native != nil {
		j.native.Destroy()
		j.native = nil
	}
}

func (j *joint) ForceTorqueImpl() (physics.Wrench, error) {
	if j.native == nil {
		return physics.Wrench{}, physics.ErrNotCreated
	}
	fb := j.feedback
	return physics.Wrench{Force1: fb.F1, Torque1: fb.T1, Force2: fb.F2, Torque2: fb.T2}, nil
}

// axisJoint adds the parameter table of joints with indexed axes.
type axisJoint struct {
	joint
	applied physics.ForceAccumulator
}

func (j *axisJoint) param(p opende.Param, i int) (float64, error) {
	if j.native == nil {
		return 0, physics.ErrNotCreated
	}
	return j.native.Param(p.Axis(i)), nil
}

func (j *axisJoint) setParam(p opende.Param, i int, v float64) error {
	if j.native == nil {
		return physics.ErrNotCreated
	}
	j.native.SetParam(p.Axis(i), v)
	return nil
}

// delta converts a per-step total into the torque still to add.
func (j *axisJoint) delta(i int, total float64) float64 {
	if j.applied == nil {
		j.applied = physics.NewForceAccumulator(2)
	}
	return j.applied.Delta(i, total)
}

func (j *axisJoint) ClearForcesImpl()                       { j.applied.Clear() }
func (j *axisJoint) DampingMode(int) physics.DampingMode    { return physics.DampingExplicit }
func (j *axisJoint) HighStopImpl(i int) (float64, error)    { return j.param(opende.ParamHiStop, i) }
func (j *axisJoint) LowStopImpl(i int) (float64, error)     { return j.param(opende.ParamLoStop, i) }
func (j *axisJoint) MaxForceImpl(i int) (float64, error)    { return j.param(opende.ParamFMax, i) }
func (j *axisJoint) SetHighStopImpl(i int, a float64) error { return j.setParam(opende.ParamHiStop, i, a) }
func (j *axisJoint) SetLowStopImpl(i int, a float64) error  { return j.setParam(opende.ParamLoStop, i, a) }
func (j *axisJoint) SetMaxForceImpl(i int, f float64) error { return j.setParam(opende.ParamFMax, i, f) }

// SetVelocityImpl sets the motor target velocity; it needs a max force to act.
func (j *axisJoint) SetVelocityImpl(i int, v float64) error {
	return j.setParam(opende.ParamVel, i, v)
}
