// Package bullet binds the physics joint API to the Bullet-style engine in
// native/btdynamics.
package bullet

import (
	"fmt"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/btdynamics"
	"github.com/milk9111/jointsim/physics"
)

const Name = "bullet"

type Engine struct {
	ctx    *physics.EngineContext
	world  *btdynamics.DynamicsWorld
	ground *Link
}

// New is the physics.Factory for Bullet.
func New(ctx *physics.EngineContext) (physics.Engine, error) {
	w := btdynamics.NewDiscreteDynamicsWorld()
	w.SetGravity(ctx.Gravity)
	info := w.SolverInfo()
	info.NumIterations = ctx.Iterations
	info.ERP = ctx.ERP
	info.GlobalCFM = ctx.CFM
	e := &Engine{ctx: ctx, world: w}
	ground := physics.LinkConfig{Name: physics.GroundLinkName, Static: true, Pose: common.PoseIdent()}
	e.ground = &Link{BaseLink: physics.NewBaseLink(ground, nil), engine: e}
	return e, nil
}

var jointFactories = map[physics.JointType]func(e *Engine) (physics.Joint, error){
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
func (e *Engine) ConstraintCount() int            { return e.world.NumConstraints() }
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
	return f(e)
}

// Step runs one fixed substep of dt.
func (e *Engine) Step(dt float64) error {
	e.world.StepSimulation(dt, 1, dt)
	return nil
}
