package dart

import (
	"github.com/milk9111/jointsim/native/dartsim"
	"github.com/milk9111/jointsim/physics"
)

type Hinge struct {
	*physics.BaseJoint
	dofJoint
}

func newHinge(e *Engine) physics.Joint {
	j := &Hinge{}
	j.engine, j.dtype = e, dartsim.RevoluteJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge, Name, e.ctx, j)
	return j
}

func (j *Hinge) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}

// Hinge2 is a universal joint: the second axis turns with the first.
type Hinge2 struct {
	*physics.BaseJoint
	dofJoint
}

func newHinge2(e *Engine) physics.Joint {
	j := &Hinge2{}
	j.engine, j.dtype = e, dartsim.UniversalJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointHinge2, Name, e.ctx, j)
	return j
}

func (j *Hinge2) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}

type Slider struct {
	*physics.BaseJoint
	dofJoint
}

func newSlider(e *Engine) physics.Joint {
	j := &Slider{}
	j.engine, j.dtype = e, dartsim.PrismaticJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointSlider, Name, e.ctx, j)
	return j
}

func (j *Slider) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}

type Universal struct {
	*physics.BaseJoint
	dofJoint
}

func newUniversal(e *Engine) physics.Joint {
	j := &Universal{}
	j.engine, j.dtype = e, dartsim.UniversalJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointUniversal, Name, e.ctx, j)
	return j
}

func (j *Universal) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}

// Ball has no indexed operations.
type Ball struct {
	*physics.BaseJoint
	joint
}

func newBall(e *Engine) physics.Joint {
	j := &Ball{}
	j.engine, j.dtype = e, dartsim.BallJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointBall, Name, e.ctx, j)
	return j
}

func (j *Ball) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}

type Fixed struct {
	*physics.BaseJoint
	joint
}

func newFixed(e *Engine) physics.Joint {
	j := &Fixed{}
	j.engine, j.dtype = e, dartsim.WeldJoint
	j.BaseJoint = physics.NewBaseJoint(physics.JointFixed, Name, e.ctx, j)
	return j
}

func (j *Fixed) AttachImpl(parent, child physics.Link) error {
	return j.attach(j.BaseJoint, parent, child)
}
