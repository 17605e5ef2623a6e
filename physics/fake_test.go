package physics

import (
	"errors"
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine integrates hinge angles directly with unit inertia.
type fakeEngine struct {
	ctx        *EngineContext
	ground     *fakeLink
	hinges     []*fakeHinge
	events     []string
	failAttach bool
	initModels []string
}

func newFakeEngine(ctx *EngineContext) (Engine, error) {
	return &fakeEngine{
		ctx:    ctx,
		ground: &fakeLink{BaseLink: NewBaseLink(LinkConfig{Name: GroundLinkName, Static: true}, nil)},
	}, nil
}

func fakeRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("fake", newFakeEngine)
	return r
}

func (e *fakeEngine) Name() string            { return "fake" }
func (e *fakeEngine) Context() *EngineContext { return e.ctx }
func (e *fakeEngine) Ground() Link            { return e.ground }
func (e *fakeEngine) ConstraintCount() int    { return len(e.hinges) }
func (e *fakeEngine) Fini()                   {}

func (e *fakeEngine) NewLink(m *Model, cfg LinkConfig) (Link, error) {
	l := &fakeLink{BaseLink: NewBaseLink(cfg, m)}
	return l, nil
}

func (e *fakeEngine) NewJoint(t JointType) (Joint, error) {
	if t != JointHinge && t != JointBall {
		return nil, ErrUnsupportedJoint
	}
	j := &fakeHinge{e: e, hi: common.Unlimited, lo: -common.Unlimited}
	j.BaseJoint = NewBaseJoint(t, "fake", e.ctx, j)
	return j, nil
}

func (e *fakeEngine) InitModel(m *Model) error {
	e.initModels = append(e.initModels, m.Name)
	return nil
}

func (e *fakeEngine) Step(dt float64) error {
	e.events = append(e.events, "step")
	for _, j := range e.hinges {
		j.vel += j.force * dt
		j.angle += j.vel * dt
		if j.angle > j.hi {
			j.angle, j.vel = j.hi, 0
		}
		if j.angle < j.lo {
			j.angle, j.vel = j.lo, 0
		}
	}
	return nil
}

type fakeLink struct {
	*BaseLink
}

func (l *fakeLink) Init() error { return nil }
func (l *fakeLink) Fini()                       {}
func (l *fakeLink) WorldPose() common.Pose      { return l.InitialPose() }
func (l *fakeLink) LinearVelocity() mgl64.Vec3  { return mgl64.Vec3{} }
func (l *fakeLink) AngularVelocity() mgl64.Vec3 { return mgl64.Vec3{} }
func (l *fakeLink) AddForce(mgl64.Vec3)         {}
func (l *fakeLink) AddTorque(mgl64.Vec3)        {}

type fakeHinge struct {
	*BaseJoint
	Unsupported
	e *fakeEngine

	angle, vel, force float64
	hi, lo            float64
}

func (j *fakeHinge) AttachImpl(parent, child Link) error {
	if j.e.failAttach {
		return errors.New("native joint creation failed")
	}
	j.e.hinges = append(j.e.hinges, j)
	return nil
}

func (j *fakeHinge) DetachImpl() {
	for i, h := range j.e.hinges {
		if h == j {
			j.e.hinges = append(j.e.hinges[:i], j.e.hinges[i+1:]...)
			return
		}
	}
}

func (j *fakeHinge) AngleImpl(int) (float64, error)    { return j.angle, nil }
func (j *fakeHinge) VelocityImpl(int) (float64, error) { return j.vel, nil }
func (j *fakeHinge) HighStopImpl(int) (float64, error) { return j.hi, nil }
func (j *fakeHinge) LowStopImpl(int) (float64, error)  { return j.lo, nil }

func (j *fakeHinge) DampingMode(int) DampingMode {
	if j.Type() != JointHinge {
		return DampingUnsupported
	}
	return DampingExplicit
}

func (j *fakeHinge) SetVelocityImpl(_ int, v float64) error {
	j.vel = v
	return nil
}

func (j *fakeHinge) SetForceImpl(_ int, f float64) error {
	j.e.events = append(j.e.events, "force")
	j.force = f
	return nil
}

func (j *fakeHinge) ClearForcesImpl() {
	j.e.events = append(j.e.events, "clear")
	j.force = 0
}

func (j *fakeHinge) SetHighStopImpl(_ int, a float64) error {
	j.hi = a
	return nil
}

func (j *fakeHinge) SetLowStopImpl(_ int, a float64) error {
	j.lo = a
	return nil
}

type recordSystem struct {
	e *fakeEngine
	f func(w *World)
}

func (s *recordSystem) Update(w *World) {
	s.e.events = append(s.e.events, "system")
	if s.f != nil {
		s.f(w)
	}
}
