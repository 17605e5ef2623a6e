// Package dart binds the physics joint API to the DART-style facade in
// native/dartsim. Each model becomes one skeleton; joints re-parent body
// nodes at Attach and own their limits, damping and force limits from then
// on. Positions and velocities need the skeleton to be added to the world.
package dart

import (
	"errors"
	"fmt"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/dartsim"
	"github.com/milk9111/jointsim/physics"
)

const Name = "dart"

type Engine struct {
	ctx    *physics.EngineContext
	world  *dartsim.World
	ground *Link
	skels  map[*physics.Model]*dartsim.Skeleton
	joints []*joint
}

// New is the physics.Factory for DART.
func New(ctx *physics.EngineContext) (physics.Engine, error) {
	w := dartsim.NewWorld("default")
	w.SetGravity(ctx.Gravity)
	w.SetTimeStep(ctx.StepSize)
	w.SetIterations(ctx.Iterations)
	e := &Engine{ctx: ctx, world: w, skels: make(map[*physics.Model]*dartsim.Skeleton)}
	ground := physics.LinkConfig{Name: physics.GroundLinkName, Static: true, Pose: common.PoseIdent()}
	e.ground = &Link{BaseLink: physics.NewBaseLink(ground, nil), engine: e}
	return e, nil
}

var jointFactories = map[physics.JointType]func(e *Engine) physics.Joint{
	physics.JointHinge:     newHinge,
	physics.JointHinge2:    newHinge2,
	physics.JointBall:      newBall,
	physics.JointSlider:    newSlider,
	physics.JointUniversal: newUniversal,
	physics.JointFixed:     newFixed,
}

func (e *Engine) Name() string                    { return Name }
func (e *Engine) Context() *physics.EngineContext { return e.ctx }
func (e *Engine) Ground() physics.Link            { return e.ground }
func (e *Engine) ConstraintCount() int            { return len(e.joints) }

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

// skeleton returns the skeleton holding the links of m.
func (e *Engine) skeleton(m *physics.Model) *dartsim.Skeleton {
	if s, ok := e.skels[m]; ok {
		return s
	}
	name := "links"
	if m != nil {
		name = m.Name
	}
	s := dartsim.NewSkeleton(name)
	e.skels[m] = s
	return s
}

// InitModel builds the model's skeleton by adding it to the world.
func (e *Engine) InitModel(m *physics.Model) error {
	s, ok := e.skels[m]
	if !ok || s.IsBuilt() {
		return nil
	}
	if err := e.world.AddSkeleton(s); err != nil {
		return err
	}
	e.ctx.Logger.Debug("dart skeleton built", "skeleton", s.Name(), "bodies", s.NumBodyNodes(), "dofs", s.NumDofs())
	return nil
}

func (e *Engine) Step(dt float64) error {
	if dt != e.world.TimeStep() {
		e.world.SetTimeStep(dt)
	}
	return e.world.Step()
}

func (e *Engine) Fini() {
	for _, s := range e.skels {
		e.world.RemoveSkeleton(s)
	}
	e.skels = make(map[*physics.Model]*dartsim.Skeleton)
	e.joints = nil
}

func (e *Engine) addJoint(j *joint) { e.joints = append(e.joints, j) }

func (e *Engine) removeJoint(j *joint) {
	for i, o := range e.joints {
		if o == j {
			e.joints = append(e.joints[:i], e.joints[i+1:]...)
			return
		}
	}
}

// native classifies a dartsim error for the joint API.
func native(err error) error {
	if errors.Is(err, dartsim.ErrNotBuilt) {
		return fmt.Errorf("%w: %v", physics.ErrNotInitialized, err)
	}
	return err
}
