// Package simbody binds the physics joint API to the Simbody-style
// multibody facade in native/simtk. Joints become mobilizers of one tree per
// engine; run-time values exist only once the tree is realized and the
// integrator holds an advanced state.
package simbody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/simtk"
	"github.com/milk9111/jointsim/physics"
)

const Name = "simbody"

type Engine struct {
	ctx    *physics.EngineContext
	ground *Link
	links  []*Link
	joints []mobilizer

	sys    *simtk.MultibodySystem
	forces *simtk.DiscreteForces
	integ  *simtk.Integrator

	// built is set by the first InitModel; dirty marks a topology change
	// that is applied before the next step.
	built bool
	dirty bool
}

// New is the physics.Factory for Simbody.
func New(ctx *physics.EngineContext) (physics.Engine, error) {
	e := &Engine{ctx: ctx}
	ground := physics.LinkConfig{Name: physics.GroundLinkName, Static: true, Pose: common.PoseIdent()}
	e.ground = &Link{BaseLink: physics.NewBaseLink(ground, nil), engine: e}
	return e, nil
}

var jointFactories = map[physics.JointType]func(e *Engine) physics.Joint{
	physics.JointHinge:     newHinge,
	physics.JointBall:      newBall,
	physics.JointSlider:    newSlider,
	physics.JointScrew:     newScrew,
	physics.JointUniversal: newUniversal,
	physics.JointFixed:     newFixed,
}

func (e *Engine) Name() string                    { return Name }
func (e *Engine) Context() *physics.EngineContext { return e.ctx }
func (e *Engine) Ground() physics.Link            { return e.ground }
func (e *Engine) ConstraintCount() int            { return len(e.joints) }

// Initialized reports whether the integrator holds an advanced state.
func (e *Engine) Initialized() bool { return e.state() != nil }

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

// InitModel realizes the tree with the model's links and joints.
func (e *Engine) InitModel(*physics.Model) error {
	e.built = true
	return e.build()
}

func (e *Engine) Step(dt float64) error {
	if e.dirty && e.built {
		if err := e.build(); err != nil {
			return err
		}
	}
	st := e.state()
	if st == nil {
		return nil
	}
	if err := e.integ.StepBy(dt); err != nil {
		return fmt.Errorf("simbody step: %w", err)
	}
	return e.forces.ClearAllForces(st)
}

func (e *Engine) Fini() {
	e.links, e.joints = nil, nil
	e.sys, e.forces, e.integ = nil, nil, nil
	e.built, e.dirty = false, false
}

func (e *Engine) state() *simtk.State {
	if e.integ == nil {
		return nil
	}
	return e.integ.AdvancedState()
}

func (e *Engine) addLink(l *Link) {
	e.links = append(e.links, l)
	e.dirty = true
}

func (e *Engine) removeLink(l *Link) {
	for i, other := range e.links {
		if other == l {
			e.links = append(e.links[:i], e.links[i+1:]...)
			e.rebuild()
			return
		}
	}
}

func (e *Engine) addJoint(m mobilizer) {
	e.joints = append(e.joints, m)
	e.dirty = true
}

func (e *Engine) removeJoint(j *joint) {
	for i, m := range e.joints {
		if m.base() == j {
			e.joints = append(e.joints[:i], e.joints[i+1:]...)
			e.rebuild()
			return
		}
	}
}

// rebuild applies a removal to a realized tree right away. Additions wait
// for the next step because the new joint is still attaching.
func (e *Engine) rebuild() {
	e.dirty = true
	if !e.built {
		return
	}
	if err := e.build(); err != nil {
		e.ctx.Logger.Error("simbody rebuild failed", "err", err)
	}
}

// snapshot is the motion carried over a rebuild.
type snapshot struct {
	poses map[*Link]common.Pose
	ang   map[*Link]mgl64.Vec3
	lin   map[*Link]mgl64.Vec3
	q     map[*joint][]float64
	u     map[*joint][]float64
}

func (e *Engine) capture() snapshot {
	s := snapshot{
		poses: make(map[*Link]common.Pose),
		ang:   make(map[*Link]mgl64.Vec3),
		lin:   make(map[*Link]mgl64.Vec3),
		q:     make(map[*joint][]float64),
		u:     make(map[*joint][]float64),
	}
	st := e.state()
	if st == nil {
		return s
	}
	for _, l := range e.links {
		if l.mobod == nil {
			continue
		}
		if x, err := l.mobod.BodyTransform(st); err == nil {
			s.poses[l] = x
		}
		if a, v, err := l.mobod.BodyVelocity(st); err == nil {
			s.ang[l], s.lin[l] = a, v
		}
	}
	for _, m := range e.joints {
		j := m.base()
		if j.mobod == nil {
			continue
		}
		q := make([]float64, j.mobod.NumQ())
		u := make([]float64, j.mobod.NumU())
		for i := range q {
			q[i], _ = j.mobod.OneQ(st, i)
		}
		for i := range u {
			u[i], _ = j.mobod.OneU(st, i)
		}
		s.q[j], s.u[j] = q, u
	}
	return s
}

// build creates a new system from the attached links and joints, restores
// the captured motion and initializes the integrator. Joints that have not
// been configured yet get their stops and damping afterwards.
func (e *Engine) build() error {
	snap := e.capture()
	sys := simtk.NewMultibodySystem()
	sys.SetGravity(e.ctx.Gravity)

	inboard := make(map[*Link]mobilizer, len(e.joints))
	for _, m := range e.joints {
		j := m.base()
		if prev, ok := inboard[j.child]; ok {
			return fmt.Errorf("simbody: link %q is the child of joints %q and %q: closed loops are not supported",
				j.child.Name(), prev.Name(), m.Name())
		}
		inboard[j.child] = m
		j.mobod = nil
	}
	for _, l := range e.links {
		l.mobod, l.free = nil, false
	}

	ident := common.PoseIdent()
	visiting := make(map[*Link]bool)
	var mobilize func(l *Link) (*simtk.MobilizedBody, error)
	mobilize = func(l *Link) (*simtk.MobilizedBody, error) {
		if l == e.ground {
			return sys.Ground(), nil
		}
		if l.mobod != nil {
			return l.mobod, nil
		}
		if visiting[l] {
			return nil, fmt.Errorf("simbody: joint loop through link %q", l.Name())
		}
		visiting[l] = true

		cfg := l.Config()
		mass := simtk.MassProperties{Mass: cfg.Mass, Inertia: cfg.Inertia}
		switch m := inboard[l]; {
		case l.Static():
			l.mobod = simtk.NewWeld(sys.Ground(), l.InitialPose(), mass, ident)
		case m == nil:
			l.mobod = simtk.NewFree(sys.Ground(), ident, mass, ident)
			l.free = true
		default:
			j := m.base()
			parent, err := mobilize(j.parent)
			if err != nil {
				return nil, err
			}
			anchor := common.NewPose(m.InitialAnchor(), mgl64.QuatIdent())
			xPF := j.parent.InitialPose().Inverse().Compose(anchor)
			xBM := l.InitialPose().Inverse().Compose(anchor)
			j.mobod = m.mobilize(parent, xPF, mass, xBM)
			l.mobod = j.mobod
		}
		l.mobod.SetName(l.Name())
		l.mobod.SetGravityEnabled(cfg.Gravity)
		return l.mobod, nil
	}
	for _, l := range e.links {
		if _, err := mobilize(l); err != nil {
			return err
		}
	}
	for _, m := range e.joints {
		if _, err := mobilize(m.base().child); err != nil {
			return err
		}
		if f, ok := m.(forceOwner); ok {
			f.addForces(sys.Forces())
		}
	}

	st, err := sys.RealizeTopology()
	if err != nil {
		return err
	}
	for _, l := range e.links {
		if !l.free {
			continue
		}
		pose, ok := snap.poses[l]
		if !ok {
			pose = l.InitialPose()
		}
		if err := l.mobod.SetFreeTransform(st, pose); err != nil {
			return err
		}
		if err := l.mobod.SetFreeVelocity(st, snap.ang[l], snap.lin[l]); err != nil {
			return err
		}
	}
	for _, m := range e.joints {
		j := m.base()
		for i, v := range snap.q[j] {
			_ = j.mobod.SetOneQ(st, i, v)
		}
		for i, v := range snap.u[j] {
			_ = j.mobod.SetOneU(st, i, v)
		}
	}

	integ := simtk.NewIntegrator(sys)
	integ.SetConstraintIterations(e.ctx.Iterations)
	integ.SetStopERP(e.ctx.ERP)
	if err := integ.Initialize(st); err != nil {
		return err
	}
	e.sys, e.forces, e.integ = sys, simtk.NewDiscreteForces(sys.Forces()), integ
	e.dirty = false

	for _, m := range e.joints {
		if j := m.base(); !j.configured {
			j.configured = true
			m.ApplyConfig()
		}
	}
	e.ctx.Logger.Debug("simbody topology realized", "bodies", sys.NumMobilizedBodies(), "joints", len(e.joints))
	return nil
}
