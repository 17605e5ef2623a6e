package ode

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/opende"
	"github.com/milk9111/jointsim/physics"
)

type Hinge struct {
	*physics.BaseJoint
	axisJoint
	hinge *opende.HingeJoint
}

func newHinge(e *Engine) physics.Joint {
	j := &Hinge{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge, Name, e.ctx, j)
	return j
}

func (j *Hinge) AttachImpl(parent, child physics.Link) error {
	n := opende.NewHingeJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetAnchor(j.InitialAnchor())
	n.SetAxis(j.InitialAxis(0))
	j.hinge = n
	return nil
}

func (j *Hinge) DetachImpl() {
	j.joint.DetachImpl()
	j.hinge = nil
}

func (j *Hinge) SetAnchorImpl(_ int, v mgl64.Vec3) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.hinge.SetAnchor(v)
	return nil
}

func (j *Hinge) AxisImpl(int) (mgl64.Vec3, error) {
	if j.hinge == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	return j.hinge.Axis(), nil
}

func (j *Hinge) SetAxisImpl(_ int, v mgl64.Vec3) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.hinge.SetAxis(v)
	return nil
}

func (j *Hinge) AngleImpl(int) (float64, error) {
	if j.hinge == nil {
		return 0, physics.ErrNotCreated
	}
	return j.hinge.Angle(), nil
}

func (j *Hinge) VelocityImpl(int) (float64, error) {
	if j.hinge == nil {
		return 0, physics.ErrNotCreated
	}
	return j.hinge.AngleRate(), nil
}

func (j *Hinge) SetForceImpl(i int, f float64) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.hinge.AddTorque(j.delta(i, f))
	return nil
}

// Hinge2 is a steering axis (index 0) carrying a wheel axis (index 1).
type Hinge2 struct {
	*physics.BaseJoint
	axisJoint
	hinge2 *opende.Hinge2Joint
}

func newHinge2(e *Engine) physics.Joint {
	j := &Hinge2{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge2, Name, e.ctx, j)
	return j
}

func (j *Hinge2) AttachImpl(parent, child physics.Link) error {
	n := opende.NewHinge2Joint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetAnchor(j.InitialAnchor())
	n.SetAxis1(j.InitialAxis(0))
	n.SetAxis2(j.InitialAxis(1))
	j.hinge2 = n
	return nil
}

func (j *Hinge2) DetachImpl() {
	j.joint.DetachImpl()
	j.hinge2 = nil
}

func (j *Hinge2) DampingMode(int) physics.DampingMode { return physics.DampingUnsupported }

func (j *Hinge2) SetAnchorImpl(_ int, v mgl64.Vec3) error {
	if j.hinge2 == nil {
		return physics.ErrNotCreated
	}
	j.hinge2.SetAnchor(v)
	return nil
}

func (j *Hinge2) AxisImpl(i int) (mgl64.Vec3, error) {
	if j.hinge2 == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	if i == 1 {
		return j.hinge2.Axis2(), nil
	}
	return j.hinge2.Axis1(), nil
}

func (j *Hinge2) SetAxisImpl(i int, v mgl64.Vec3) error {
	if j.hinge2 == nil {
		return physics.ErrNotCreated
	}
	if i == 1 {
		j.hinge2.SetAxis2(v)
	} else {
		j.hinge2.SetAxis1(v)
	}
	return nil
}

func (j *Hinge2) AngleImpl(i int) (float64, error) {
	if j.hinge2 == nil {
		return 0, physics.ErrNotCreated
	}
	if i == 1 {
		return 0, physics.NotImplemented("ode hinge2 has no angle for the wheel axis")
	}
	return j.hinge2.Angle1(), nil
}

func (j *Hinge2) VelocityImpl(i int) (float64, error) {
	if j.hinge2 == nil {
		return 0, physics.ErrNotCreated
	}
	if i == 1 {
		return j.hinge2.Angle2Rate(), nil
	}
	return j.hinge2.Angle1Rate(), nil
}

func (j *Hinge2) SetForceImpl(i int, f float64) error {
	if j.hinge2 == nil {
		return physics.ErrNotCreated
	}
	d := j.delta(i, f)
	if i == 1 {
		j.hinge2.AddTorques(0, d)
	} else {
		j.hinge2.AddTorques(d, 0)
	}
	return nil
}
