// Package chipmunk binds the physics joint API to the planar Chipmunk port
// github.com/jakecoffman/cp. Models live in the XY plane: hinges turn about
// z, sliders move in the plane and the z component of gravity is dropped.
package chipmunk

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/physics"
)

const Name = "chipmunk"

// planeLimit replaces unlimited stops; cp constraints need finite bounds.
const planeLimit = 1e6

type Engine struct {
	ctx       *physics.EngineContext
	space     *cp.Space
	ground    *Link
	errorBias float64
}

// New is the physics.Factory for Chipmunk.
func New(ctx *physics.EngineContext) (physics.Engine, error) {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: ctx.Gravity.X(), Y: ctx.Gravity.Y()})
	if ctx.Iterations > 0 {
		space.Iterations = uint(ctx.Iterations)
	}
	e := &Engine{ctx: ctx, space: space}
	if ctx.ERP > 0 && ctx.ERP < 1 && ctx.StepSize > 0 {
		// fraction of the error left after one second when ERP is corrected per step
		e.errorBias = math.Pow(1-ctx.ERP, 1/ctx.StepSize)
	}
	ground := physics.LinkConfig{Name: physics.GroundLinkName, Static: true, Pose: common.PoseIdent()}
	e.ground = &Link{BaseLink: physics.NewBaseLink(ground, nil), engine: e, body: space.StaticBody}
	return e, nil
}

var jointFactories = map[physics.JointType]func(e *Engine) physics.Joint{
	physics.JointHinge:  newHinge,
	physics.JointSlider: newSlider,
	physics.JointFixed:  newFixed,
}

func (e *Engine) Name() string                    { return Name }
func (e *Engine) Context() *physics.EngineContext { return e.ctx }
func (e *Engine) Ground() physics.Link            { return e.ground }
func (e *Engine) InitModel(*physics.Model) error  { return nil }

func (e *Engine) ConstraintCount() int {
	n := 0
	e.space.EachConstraint(func(*cp.Constraint) { n++ })
	return n
}

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
	e.space.Step(dt)
	return nil
}

func (e *Engine) Fini() {}

// add registers c with the space using the engine's error correction.
func (e *Engine) add(c *cp.Constraint) *cp.Constraint {
	if e.errorBias > 0 {
		c.SetErrorBias(e.errorBias)
	}
	return e.space.AddConstraint(c)
}

func (e *Engine) remove(c *cp.Constraint) {
	if c != nil && e.space.ContainsConstraint(c) {
		e.space.RemoveConstraint(c)
	}
}
