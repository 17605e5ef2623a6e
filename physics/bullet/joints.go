package bullet

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/btdynamics"
	"github.com/milk9111/jointsim/physics"
)

var unitX = mgl64.Vec3{1, 0, 0}

// Ball is a point to point constraint with pivots relative to each body's
// centre of mass. Only its anchor and feedback are available.
type Ball struct {
	*physics.BaseJoint
	joint
	ball *btdynamics.Point2PointConstraint
}

func newBall(e *Engine) (physics.Joint, error) {
	j := &Ball{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointBall, Name, e.ctx, j)
	return j, nil
}

func (j *Ball) AttachImpl(parent, child physics.Link) error {
	a, b := rigidBody(parent), rigidBody(child)
	anchor := j.InitialAnchor()
	c := btdynamics.NewPoint2PointConstraint(a, b, pointInBody(a, anchor), pointInBody(b, anchor))
	j.register(c)
	j.ball = c
	return nil
}

func (j *Ball) DetachImpl() {
	j.joint.DetachImpl()
	j.ball = nil
}

func (j *Ball) SetAnchorImpl(_ int, v mgl64.Vec3) error {
	if j.ball == nil {
		return physics.ErrNotCreated
	}
	j.ball.SetPivotA(pointInBody(j.ball.RigidBodyA(), v))
	j.ball.SetPivotB(pointInBody(j.ball.RigidBodyB(), v))
	return nil
}

func newScrew(e *Engine) (physics.Joint, error) {
	e.ctx.Logger.Warn("screw joint is not available", "engine", Name)
	return nil, fmt.Errorf("%w: bullet screw constraint is copied from BulletSlider, not a screw joint", physics.ErrNotImplemented)
}

// Slider translates the child along the configured axis, which becomes the
// X axis of both constraint frames.
type Slider struct {
	*physics.BaseJoint
	axisJoint
	slider *btdynamics.SliderConstraint
}

func newSlider(e *Engine) (physics.Joint, error) {
	j := &Slider{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointSlider, Name, e.ctx, j)
	return j, nil
}

func (j *Slider) AttachImpl(parent, child physics.Link) error {
	a, b := rigidBody(parent), rigidBody(child)
	axis := j.InitialAxis(0)
	frameA := btdynamics.NewTransform(mgl64.QuatBetweenVectors(unitX, vectorInBody(a, axis)), pointInBody(a, b.CenterOfMassPosition()))
	frameB := btdynamics.NewTransform(mgl64.QuatBetweenVectors(unitX, vectorInBody(b, axis)), mgl64.Vec3{})
	c := btdynamics.NewSliderConstraint(a, b, frameA, frameB, true)
	j.initAxes(func(int) {
		j.slider.SetLowerLinLimit(j.lo[0])
		j.slider.SetUpperLinLimit(j.hi[0])
	})
	j.register(c)
	j.slider = c
	return nil
}

func (j *Slider) DetachImpl() {
	j.joint.DetachImpl()
	j.slider = nil
}

func (j *Slider) AxisImpl(int) (mgl64.Vec3, error) {
	if j.slider == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	return j.slider.Axis(), nil
}

func (j *Slider) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("bullet slider axis is fixed in the constraint frames")
}

func (j *Slider) AngleImpl(int) (float64, error) {
	if j.slider == nil {
		return 0, physics.ErrNotCreated
	}
	return j.slider.LinearPos(), nil
}

func (j *Slider) VelocityImpl(int) (float64, error) {
	if j.slider == nil {
		return 0, physics.ErrNotCreated
	}
	return j.slider.LinearVelocity(), nil
}

func (j *Slider) SetVelocityImpl(_ int, v float64) error {
	if j.slider == nil {
		return physics.ErrNotCreated
	}
	j.slider.SetPoweredLinMotor(true)
	j.slider.SetTargetLinMotorVelocity(v)
	return nil
}

func (j *Slider) SetForceImpl(i int, f float64) error {
	if j.slider == nil {
		return physics.ErrNotCreated
	}
	force := j.slider.Axis().Mul(j.applied.Delta(i, f))
	if b := j.slider.RigidBodyB(); !b.IsStaticObject() {
		b.ApplyCentralForce(force)
	}
	if a := j.slider.RigidBodyA(); !a.IsStaticObject() {
		a.ApplyCentralForce(force.Mul(-1))
	}
	return nil
}

func (j *Slider) MaxForceImpl(int) (float64, error) {
	if j.slider == nil {
		return 0, physics.ErrNotCreated
	}
	return j.slider.MaxLinMotorForce(), nil
}

func (j *Slider) SetMaxForceImpl(_ int, f float64) error {
	if j.slider == nil {
		return physics.ErrNotCreated
	}
	j.slider.SetMaxLinMotorForce(f)
	return nil
}

type Universal struct {
	*physics.BaseJoint
	axisJoint
	universal *btdynamics.UniversalConstraint
}

func newUniversal(e *Engine) (physics.Joint, error) {
	j := &Universal{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointUniversal, Name, e.ctx, j)
	return j, nil
}

func (j *Universal) AttachImpl(parent, child physics.Link) error {
	c := btdynamics.NewUniversalConstraint(rigidBody(parent), rigidBody(child), j.InitialAnchor(), j.InitialAxis(0), j.InitialAxis(1))
	j.initAxes(func(i int) {
		m := j.universal.RotationalLimitMotor(i)
		m.LoLimit, m.HiLimit = j.lo[i], j.hi[i]
	})
	j.register(c)
	j.universal = c
	return nil
}

func (j *Universal) DetachImpl() {
	j.joint.DetachImpl()
	j.universal = nil
}

func (j *Universal) axis(i int) mgl64.Vec3 {
	if i == 1 {
		return j.universal.Axis2()
	}
	return j.universal.Axis1()
}

func (j *Universal) AxisImpl(i int) (mgl64.Vec3, error) {
	if j.universal == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	return j.axis(i), nil
}

func (j *Universal) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("bullet universal axes are fixed at construction")
}

func (j *Universal) AngleImpl(i int) (float64, error) {
	if j.universal == nil {
		return 0, physics.ErrNotCreated
	}
	if i == 1 {
		return j.universal.Angle2(), nil
	}
	return j.universal.Angle1(), nil
}

func (j *Universal) VelocityImpl(i int) (float64, error) {
	if j.universal == nil {
		return 0, physics.ErrNotCreated
	}
	return j.relativeRate(j.axis(i)), nil
}

func (j *Universal) SetVelocityImpl(i int, v float64) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	m := j.universal.RotationalLimitMotor(i)
	m.EnableMotor = true
	m.TargetVelocity = v
	return nil
}

func (j *Universal) SetForceImpl(i int, f float64) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	j.addTorque(j.axis(i), j.applied.Delta(i, f))
	return nil
}

func (j *Universal) MaxForceImpl(i int) (float64, error) {
	if j.universal == nil {
		return 0, physics.ErrNotCreated
	}
	return j.universal.RotationalLimitMotor(i).MaxMotorForce, nil
}

func (j *Universal) SetMaxForceImpl(i int, f float64) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	j.universal.RotationalLimitMotor(i).MaxMotorForce = f
	return nil
}

// Fixed welds the child to the parent in their relative pose at attach.
type Fixed struct {
	*physics.BaseJoint
	joint
}

func newFixed(e *Engine) (physics.Joint, error) {
	j := &Fixed{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointFixed, Name, e.ctx, j)
	return j, nil
}

func (j *Fixed) AttachImpl(parent, child physics.Link) error {
	a, b := rigidBody(parent), rigidBody(child)
	frameA := a.CenterOfMassTransform().Inverse().Mul(b.CenterOfMassTransform())
	j.register(btdynamics.NewFixedConstraint(a, b, frameA, btdynamics.IdentityTransform()))
	return nil
}
