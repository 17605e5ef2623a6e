package chipmunk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/jointsim/physics"
)

// Hinge is a pivot with a rotary limit and a simple motor. Its axis is +z
// or -z.
type Hinge struct {
	*physics.BaseJoint
	axisJoint
	sign   float64
	phase0 float64
	limit  *cp.RotaryLimitJoint
	motor  *cp.SimpleMotor
}

func newHinge(e *Engine) physics.Joint {
	j := &Hinge{}
	j.engine = e
	j.initAxis()
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge, Name, e.ctx, j)
	return j
}

func (j *Hinge) AttachImpl(parent, child physics.Link) error {
	axis := j.InitialAxis(0)
	if math.Abs(axis.X()) > 1e-9 || math.Abs(axis.Y()) > 1e-9 {
		return physics.NotImplemented("%s hinge axis %v is not along z", Name, axis)
	}
	if err := j.links(parent, child); err != nil {
		return err
	}
	j.sign = 1
	if axis.Z() < 0 {
		j.sign = -1
	}
	j.phase0 = j.phase()
	a, b := j.parent.body, j.child.body

	limit := cp.NewRotaryLimitJoint(a, b, -planeLimit, planeLimit)
	motor := cp.NewSimpleMotor(a, b, 0)
	motor.SetMaxForce(0)
	j.limit = limit.Class.(*cp.RotaryLimitJoint)
	j.motor = motor.Class.(*cp.SimpleMotor)
	j.register(cp.NewPivotJoint(a, b, vec(j.InitialAnchor())), limit, motor)
	j.pushLimits()
	return nil
}

// pushLimits maps the stops to the raw angle difference the limit measures.
func (j *Hinge) pushLimits() {
	lo, hi := planar(j.lo), planar(j.hi)
	if j.sign < 0 {
		lo, hi = -hi, -lo
	}
	j.limit.Min, j.limit.Max = j.phase0+lo, j.phase0+hi
}

func (j *Hinge) AxisImpl(int) (mgl64.Vec3, error) { return mgl64.Vec3{0, 0, j.sign}, nil }

func (j *Hinge) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("set axis on %s", Name)
}

func (j *Hinge) AngleImpl(int) (float64, error) {
	return j.sign * (j.phase() - j.phase0), nil
}

func (j *Hinge) VelocityImpl(int) (float64, error) {
	return j.sign * (j.child.body.AngularVelocity() - j.parent.body.AngularVelocity()), nil
}

// SetVelocityImpl sets the motor rate. The motor drives b.w - a.w to -rate.
func (j *Hinge) SetVelocityImpl(_ int, v float64) error {
	j.motor.Rate = -j.sign * v
	return nil
}

func (j *Hinge) MaxForceImpl(int) (float64, error) { return j.motor.MaxForce(), nil }

func (j *Hinge) SetMaxForceImpl(_ int, f float64) error {
	if f < 0 {
		return fmt.Errorf("negative max force %g", f)
	}
	j.motor.SetMaxForce(f)
	return nil
}

func (j *Hinge) SetForceImpl(i int, total float64) error {
	t := j.sign * j.applied.Delta(i, total)
	if j.child.dynamic() {
		j.child.body.SetTorque(j.child.body.Torque() + t)
	}
	if j.parent.dynamic() {
		j.parent.body.SetTorque(j.parent.body.Torque() - t)
	}
	return nil
}

func (j *Hinge) SetHighStopImpl(_ int, a float64) error {
	j.hi = a
	j.pushLimits()
	return nil
}

func (j *Hinge) SetLowStopImpl(_ int, a float64) error {
	j.lo = a
	j.pushLimits()
	return nil
}

// Slider is a groove on the parent holding a point of the child, with a gear
// keeping their relative angle. Its axis lies in the XY plane.
type Slider struct {
	*physics.BaseJoint
	axisJoint
	origin, axis cp.Vector // parent frame
	anchor       cp.Vector // child frame
	groove       *cp.GrooveJoint
}

func newSlider(e *Engine) physics.Joint {
	j := &Slider{}
	j.engine = e
	j.initAxis()
	j.BaseJoint = physics.NewBaseJoint(physics.JointSlider, Name, e.ctx, j)
	return j
}

func (j *Slider) AttachImpl(parent, child physics.Link) error {
	axis := j.InitialAxis(0)
	if math.Abs(axis.Z()) > 1e-9 || vec(axis).Length() < 1e-9 {
		return physics.NotImplemented("%s slider axis %v is not in the XY plane", Name, axis)
	}
	if err := j.links(parent, child); err != nil {
		return err
	}
	a, b := j.parent.body, j.child.body
	anchor := vec(j.InitialAnchor())
	j.origin = a.WorldToLocal(anchor)
	j.axis = vec(axis).Normalize().Unrotate(a.Rotation())
	j.anchor = b.WorldToLocal(anchor)

	groove := cp.NewGrooveJoint(a, b, j.grooveAt(-planeLimit), j.grooveAt(planeLimit), j.anchor)
	j.groove = groove.Class.(*cp.GrooveJoint)
	j.register(groove, cp.NewGearJoint(a, b, j.phase(), 1))
	return nil
}

func (j *Slider) grooveAt(x float64) cp.Vector { return j.origin.Add(j.axis.Mult(x)) }

func (j *Slider) pushLimits() {
	j.groove.GrooveA = j.grooveAt(planar(j.lo))
	j.groove.GrooveB = j.grooveAt(planar(j.hi))
}

func (j *Slider) worldAxis() cp.Vector { return j.axis.Rotate(j.parent.body.Rotation()) }
func (j *Slider) point() cp.Vector     { return j.child.body.LocalToWorld(j.anchor) }

func (j *Slider) AxisImpl(int) (mgl64.Vec3, error) {
	a := j.worldAxis()
	return mgl64.Vec3{a.X, a.Y, 0}, nil
}

func (j *Slider) SetAxisImpl(int, mgl64.Vec3) error {
	return physics.NotImplemented("set axis on %s", Name)
}

func (j *Slider) AngleImpl(int) (float64, error) {
	origin := j.parent.body.LocalToWorld(j.origin)
	return j.point().Sub(origin).Dot(j.worldAxis()), nil
}

func (j *Slider) VelocityImpl(int) (float64, error) {
	p := j.point()
	v := j.child.body.VelocityAtWorldPoint(p).Sub(j.parent.body.VelocityAtWorldPoint(p))
	return v.Dot(j.worldAxis()), nil
}

func (j *Slider) SetForceImpl(i int, total float64) error {
	f := j.worldAxis().Mult(j.applied.Delta(i, total))
	p := j.point()
	if j.child.dynamic() {
		j.child.body.ApplyForceAtWorldPoint(f, p)
	}
	if j.parent.dynamic() {
		j.parent.body.ApplyForceAtWorldPoint(f.Neg(), p)
	}
	return nil
}

func (j *Slider) SetHighStopImpl(_ int, a float64) error {
	j.hi = a
	j.pushLimits()
	return nil
}

func (j *Slider) SetLowStopImpl(_ int, a float64) error {
	j.lo = a
	j.pushLimits()
	return nil
}

// Fixed is a pivot with a gear.
type Fixed struct {
	*physics.BaseJoint
	joint
}

func newFixed(e *Engine) physics.Joint {
	j := &Fixed{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointFixed, Name, e.ctx, j)
	return j
}

func (j *Fixed) AttachImpl(parent, child physics.Link) error {
	if err := j.links(parent, child); err != nil {
		return err
	}
	a, b := j.parent.body, j.child.body
	j.register(cp.NewPivotJoint(a, b, vec(j.InitialAnchor())), cp.NewGearJoint(a, b, j.phase(), 1))
	return nil
}
