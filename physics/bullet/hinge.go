package bullet

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/btdynamics"
	"github.com/milk9111/jointsim/physics"
)

type Hinge struct {
	*physics.BaseJoint
	axisJoint
	hinge *btdynamics.HingeConstraint
}

func newHinge(e *Engine) (physics.Joint, error) {
	j := &Hinge{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge, Name, e.ctx, j)
	return j, nil
}

func (j *Hinge) AttachImpl(parent, child physics.Link) error {
	a, b := rigidBody(parent), rigidBody(child)
	anchor, axis := j.InitialAnchor(), j.InitialAxis(0)
	c := btdynamics.NewHingeConstraint(a, b,
		pointInBody(a, anchor), pointInBody(b, anchor),
		vectorInBody(a, axis), vectorInBody(b, axis))
	j.initAxes(func(int) { j.hinge.SetLimit(j.lo[0], j.hi[0]) })
	j.register(c)
	j.hinge = c
	return nil
}

func (j *Hinge) DetachImpl() {
	j.joint.DetachImpl()
	j.hinge = nil
}

func (j *Hinge) AxisImpl(int) (mgl64.Vec3, error) {
	if j.hinge == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	return j.hinge.Axis(), nil
}

func (j *Hinge) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("bullet hinge axis is fixed in the constraint frames")
}

func (j *Hinge) AngleImpl(int) (float64, error) {
	if j.hinge == nil {
		return 0, physics.ErrNotCreated
	}
	return j.hinge.HingeAngle(), nil
}

func (j *Hinge) VelocityImpl(int) (float64, error) {
	if j.hinge == nil {
		return 0, physics.ErrNotCreated
	}
	return j.relativeRate(j.hinge.Axis()), nil
}

// SetVelocityImpl drives the angular motor; the motor impulse comes from
// the max force over one step.
func (j *Hinge) SetVelocityImpl(_ int, v float64) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.hinge.EnableAngularMotor(true, v, j.hinge.MaxMotorImpulse())
	return nil
}

func (j *Hinge) SetForceImpl(i int, f float64) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.addTorque(j.hinge.Axis(), j.applied.Delta(i, f))
	return nil
}

func (j *Hinge) MaxForceImpl(int) (float64, error) {
	if j.hinge == nil {
		return 0, physics.ErrNotCreated
	}
	return j.hinge.MaxMotorImpulse() / j.engine.ctx.StepSize, nil
}

func (j *Hinge) SetMaxForceImpl(_ int, f float64) error {
	if j.hinge == nil {
		return physics.ErrNotCreated
	}
	j.hinge.SetMaxMotorImpulse(f * j.engine.ctx.StepSize)
	return nil
}

// Hinge2 only exposes its axes, angles and per-axis stops.
type Hinge2 struct {
	*physics.BaseJoint
	axisJoint
	hinge2 *btdynamics.Hinge2Constraint
}

func newHinge2(e *Engine) (physics.Joint, error) {
	j := &Hinge2{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge2, Name, e.ctx, j)
	return j, nil
}

func (j *Hinge2) AttachImpl(parent, child physics.Link) error {
	axis1, axis2 := j.InitialAxis(0), j.InitialAxis(1)
	if d := axis1.Dot(axis2); math.Abs(d) > 1e-6 {
		j.Logger().Warn("hinge2 axes are not orthogonal", "joint", j.Name(), "dot", d)
	}
	c := btdynamics.NewHinge2Constraint(rigidBody(parent), rigidBody(child), j.InitialAnchor(), axis1, axis2)
	j.initAxes(func(i int) {
		m := j.hinge2.RotationalLimitMotor(i)
		m.LoLimit, m.HiLimit = j.lo[i], j.hi[i]
	})
	j.register(c)
	j.hinge2 = c
	return nil
}

func (j *Hinge2) DetachImpl() {
	j.joint.DetachImpl()
	j.hinge2 = nil
}

func (j *Hinge2) DampingMode(int) physics.DampingMode { return physics.DampingUnsupported }

func (j *Hinge2) AxisImpl(i int) (mgl64.Vec3, error) {
	if j.hinge2 == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	if i == 1 {
		return j.hinge2.Axis2(), nil
	}
	return j.hinge2.Axis1(), nil
}

func (j *Hinge2) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("bullet hinge2 axes are fixed at construction")
}

func (j *Hinge2) AngleImpl(i int) (float64, error) {
	if j.hinge2 == nil {
		return 0, physics.ErrNotCreated
	}
	if i == 1 {
		return j.hinge2.Angle2(), nil
	}
	return j.hinge2.Angle1(), nil
}
