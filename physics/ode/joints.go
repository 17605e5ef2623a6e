package ode

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/opende"
	"github.com/milk9111/jointsim/physics"
)

// Ball only supports its anchor and force feedback.
type Ball struct {
	*physics.BaseJoint
	joint
	ball *opende.BallJoint
}

func newBall(e *Engine) physics.Joint {
	j := &Ball{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointBall, Name, e.ctx, j)
	return j
}

func (j *Ball) AttachImpl(parent, child physics.Link) error {
	n := opende.NewBallJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetAnchor(j.InitialAnchor())
	j.ball = n
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
	j.ball.SetAnchor(v)
	return nil
}

type Slider struct {
	*physics.BaseJoint
	axisJoint
	slider *opende.SliderJoint
}

func newSlider(e *Engine) physics.Joint {
	j := &Slider{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointSlider, Name, e.ctx, j)
	return j
}

func (j *Slider) AttachImpl(parent, child physics.Link) error {
	n := opende.NewSliderJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetAxis(j.InitialAxis(0))
	j.slider = n
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

func (j *Slider) SetAxisImpl(_ int, v mgl64.Vec3) error {
	if j.slider == nil {
		return physics.ErrNotCreated
	}
	j.slider.SetAxis(v)
	return nil
}

func (j *Slider) AngleImpl(int) (float64, error) {
	if j.slider == nil {
		return 0, physics.ErrNotCreated
	}
	return j.slider.Position(), nil
}

func (j *Slider) VelocityImpl(int) (float64, error) {
	if j.slider == nil {
		return 0, physics.ErrNotCreated
	}
	return j.slider.PositionRate(), nil
}

func (j *Slider) SetForceImpl(i int, f float64) error {
	if j.slider == nil {
		return physics.ErrNotCreated
	}
	j.slider.AddForce(j.delta(i, f))
	return nil
}

// Screw reports its rotation as the angle; translation follows the thread
// pitch.
type Screw struct {
	*physics.BaseJoint
	axisJoint
	screw *opende.ScrewJoint
}

func newScrew(e *Engine) physics.Joint {
	j := &Screw{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointScrew, Name, e.ctx, j)
	return j
}

func (j *Screw) AttachImpl(parent, child physics.Link) error {
	n := opende.NewScrewJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetThreadPitch(j.Config().ThreadPitch)
	n.SetAnchor(j.InitialAnchor())
	n.SetAxis(j.InitialAxis(0))
	j.screw = n
	return nil
}

func (j *Screw) DetachImpl() {
	j.joint.DetachImpl()
	j.screw = nil
}

func (j *Screw) SetAnchorImpl(_ int, v mgl64.Vec3) error {
	if j.screw == nil {
		return physics.ErrNotCreated
	}
	j.screw.SetAnchor(v)
	return nil
}

func (j *Screw) AxisImpl(int) (mgl64.Vec3, error) {
	if j.screw == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	return j.screw.Axis(), nil
}

func (j *Screw) SetAxisImpl(_ int, v mgl64.Vec3) error {
	if j.screw == nil {
		return physics.ErrNotCreated
	}
	j.screw.SetAxis(v)
	return nil
}

func (j *Screw) AngleImpl(int) (float64, error) {
	if j.screw == nil {
		return 0, physics.ErrNotCreated
	}
	return j.screw.Angle(), nil
}

func (j *Screw) VelocityImpl(int) (float64, error) {
	if j.screw == nil {
		return 0, physics.ErrNotCreated
	}
	return j.screw.AngleRate(), nil
}

func (j *Screw) SetForceImpl(i int, f float64) error {
	if j.screw == nil {
		return physics.ErrNotCreated
	}
	j.screw.AddTorque(j.delta(i, f))
	return nil
}

type Universal struct {
	*physics.BaseJoint
	axisJoint
	universal *opende.UniversalJoint
}

func newUniversal(e *Engine) physics.Joint {
	j := &Universal{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointUniversal, Name, e.ctx, j)
	return j
}

func (j *Universal) AttachImpl(parent, child physics.Link) error {
	n := opende.NewUniversalJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetAnchor(j.InitialAnchor())
	n.SetAxis1(j.InitialAxis(0))
	n.SetAxis2(j.InitialAxis(1))
	j.universal = n
	return nil
}

func (j *Universal) DetachImpl() {
	j.joint.DetachImpl()
	j.universal = nil
}

func (j *Universal) SetAnchorImpl(_ int, v mgl64.Vec3) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	j.universal.SetAnchor(v)
	return nil
}

func (j *Universal) AxisImpl(i int) (mgl64.Vec3, error) {
	if j.universal == nil {
		return mgl64.Vec3{}, physics.ErrNotCreated
	}
	if i == 1 {
		return j.universal.Axis2(), nil
	}
	return j.universal.Axis1(), nil
}

func (j *Universal) SetAxisImpl(i int, v mgl64.Vec3) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	if i == 1 {
		j.universal.SetAxis2(v)
	} else {
		j.universal.SetAxis1(v)
	}
	return nil
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
	if i == 1 {
		return j.universal.Angle2Rate(), nil
	}
	return j.universal.Angle1Rate(), nil
}

func (j *Universal) SetForceImpl(i int, f float64) error {
	if j.universal == nil {
		return physics.ErrNotCreated
	}
	d := j.delta(i, f)
	if i == 1 {
		j.universal.AddTorques(0, d)
	} else {
		j.universal.AddTorques(d, 0)
	}
	return nil
}

// Fixed locks the child to the parent in its pose at attach time.
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
	n := opende.NewFixedJoint(j.engine.world)
	j.attach(j.Config(), n, parent, child)
	n.SetFixed()
	return nil
}
