// Package ode binds the physics joint API to the ODE-style engine in
// native/opende.
package ode

import (
	"fmt"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/opende"
	"github.com/milk9111/jointsim/physics"
)

const Name = "ode"

type Engine struct {
	ctx    *physics.EngineContext
	world  *opende.World
	ground *Link
}

// New is the physics.Factory for ODE.
func New(ctx *physics.EngineContext) (physics.Engine, error) {
	w := opende.NewWorld()
	w.SetGravity(ctx.Gravity)
	w.SetERP(ctx.ERP)
	w.SetCFM(ctx.CFM)
	w.SetQuickStepNumIterations(ctx.Iterations)
	e := &Engine{ctx: ctx, world: w}
	ground := physics.LinkConfig{Name: physics.GroundLinkName, Static: true, Pose: common.PoseIdent()}
	e.ground = &Link{BaseLink: physics.NewBaseLink(ground, nil), engine: e}
	return e, nil
}

var jointFactories = map[physics.JointType]func(e *Engine) physics.Joint{
	physics.JointHinge:     newHinge,
	physics.JointHinge2:    newHinge2,
	physics.JointBall:      newBall,
	physics.JointSlider:    newSlider,
	physics.JointScrew:     newScrew,
	physics.JointUniversal: newUniversal,
	physics.JointFixed:     newFixed,
}

func (e *Engine) Name() string                    { return Name }
func (e *Engine) Context() *physics.EngineContext { return e.ctx }
func (e *Engine) Ground() physics.Link            { return e.ground }
func (e *Engine) ConstraintCount() int            { return e.world.NumJoints() }
func (e *Engine) InitModel(*physics.Model) error  { return nil }
func (e *Engine) Fini()                           {}

func (e *Engine) NewLink(m *physics.Model, cfg physics.LinkConfig) (physics.Link, error) {
	return &Link{BaseLink: physics.NewBaseLink(cfg, m), engine: e}, nil
}

func (e *Engine) NewJoint(t physics.JointType) (physics.Joint, error) {
	f, ok := jointFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", physics.ErrUnsupportedJoint, t, Name)
	}
	return f(e), nil
}

func (e *Engine) Step(dt float64) error {
	e.world.QuickStep(dt)
	return nil
}
