package simbody

import (
	"github.com/milk9111/jointsim/native/simtk"
	"github.com/milk9111/jointsim/physics"
)

type Hinge struct {
	*physics.BaseJoint
	dofJoint
}

func newHinge(e *Engine) physics.Joint {
	j := &Hinge{}
	j.engine = e
	j.initDofs()
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge, Name, e.ctx, j)
	return j
}

func (j *Hinge) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Hinge) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewPin(parent, xPF, mass, xBM, j.InitialAxis(0))
}

type Slider struct {
	*physics.BaseJoint
	dofJoint
}

func newSlider(e *Engine) physics.Joint {
	j := &Slider{}
	j.engine = e
	j.initDofs()
	j.BaseJoint = physics.NewBaseJoint(physics.JointSlider, Name, e.ctx, j)
	return j
}

func (j *Slider) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Slider) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewSlider(parent, xPF, mass, xBM, j.InitialAxis(0))
}

// Screw reports the rotation as its coordinate.
type Screw struct {
	*physics.BaseJoint
	dofJoint
}

func newScrew(e *Engine) physics.Joint {
	j := &Screw{}
	j.engine = e
	j.initDofs()
	j.BaseJoint = physics.NewBaseJoint(physics.JointScrew, Name, e.ctx, j)
	return j
}

func (j *Screw) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Screw) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewScrew(parent, xPF, mass, xBM, j.InitialAxis(0), j.Config().ThreadPitch)
}

type Universal struct {
	*physics.BaseJoint
	dofJoint
}

func newUniversal(e *Engine) physics.Joint {
	j := &Universal{}
	j.engine = e
	j.initDofs()
	j.BaseJoint = physics.NewBaseJoint(physics.JointUniversal, Name, e.ctx, j)
	return j
}

func (j *Universal) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Universal) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewUniversal(parent, xPF, mass, xBM, j.InitialAxis(0), j.InitialAxis(1))
}

// Ball is a spherical mobilizer with no indexed operations.
type Ball struct {
	*physics.BaseJoint
	joint
}

func newBall(e *Engine) physics.Joint {
	j := &Ball{}
	j.engine = e
	j.BaseJoint = physics.NewBaseJoint(physics.JointBall, Name, e.ctx, j)
	return j
}

func (j *Ball) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Ball) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewBall(parent, xPF, mass, xBM)
}

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

func (j *Fixed) AttachImpl(parent, child physics.Link) error { return j.attach(j, parent, child) }

func (j *Fixed) mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody {
	return simtk.NewWeld(parent, xPF, mass, xBM)
}
