package physics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/sdf"
)

// BaseJoint implements the public Joint operations once: lifecycle gate,
// index gate, engine call, error classification and logging. Engine joints
// embed a *BaseJoint created by NewBaseJoint.
type BaseJoint struct {
	kind   JointType
	engine string
	ctx    *EngineContext
	impl   JointImpl

	state  Lifecycle
	cfg    JointConfig
	model  *Model
	parent Link
	child  Link

	anchor  mgl64.Vec3
	axes    [2]mgl64.Vec3
	forces  [2]float64
	damping [2]float64
}

func NewBaseJoint(kind JointType, engine string, ctx *EngineContext, impl JointImpl) *BaseJoint {
	return &BaseJoint{kind: kind, engine: engine, ctx: ctx, impl: impl}
}

func (b *BaseJoint) Name() string        { return b.cfg.Name }
func (b *BaseJoint) Type() JointType     { return b.kind }
func (b *BaseJoint) Engine() string      { return b.engine }
func (b *BaseJoint) State() Lifecycle    { return b.state }
func (b *BaseJoint) Config() JointConfig { return b.cfg }
func (b *BaseJoint) AngleCount() int     { return b.kind.AngleCount() }
func (b *BaseJoint) Parent() Link        { return b.parent }
func (b *BaseJoint) Child() Link         { return b.child }
func (b *BaseJoint) Model() *Model       { return b.model }
func (b *BaseJoint) SetModel(m *Model)   { b.model = m }

func (b *BaseJoint) Context() *EngineContext { return b.ctx }

func (b *BaseJoint) Logger() *slog.Logger {
	if b.ctx == nil || b.ctx.Logger == nil {
		return slog.Default()
	}
	return b.ctx.Logger
}

// InitialAnchor is the anchor computed at Attach.
func (b *BaseJoint) InitialAnchor() mgl64.Vec3 { return b.anchor }

// InitialAxis is configured axis i rotated into the world at Attach.
func (b *BaseJoint) InitialAxis(i int) mgl64.Vec3 {
	if i < 0 || i >= len(b.axes) {
		return mgl64.Vec3{}
	}
	return b.axes[i]
}

// fail wraps err with the joint and operation and logs it.
func (b *BaseJoint) fail(op string, index int, err error) error {
	if err == nil {
		return nil
	}
	je := &JointError{Engine: b.engine, Joint: b.cfg.Name, Op: op, Index: index, Err: err}
	b.Logger().Log(context.Background(), errorLevel(err), "joint operation failed",
		"engine", b.engine, "joint", b.cfg.Name, "op", op, "index", index, "err", err)
	return je
}

func (b *BaseJoint) created() error {
	switch b.state {
	case Constructed:
		return nil
	case Destroyed:
		return ErrDestroyed
	}
	return ErrNotCreated
}

// gate checks the lifecycle and, for joints with indexed degrees of freedom,
// the index.
func (b *BaseJoint) gate(index int) error {
	if err := b.created(); err != nil {
		return err
	}
	n := b.kind.AngleCount()
	if n > 0 && (index < 0 || index >= n) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	return nil
}

func (b *BaseJoint) Load(e *sdf.Element) error {
	switch b.state {
	case Constructed:
		return b.fail("load", -1, ErrAlreadyCreated)
	case Destroyed:
		return b.fail("load", -1, ErrDestroyed)
	}
	cfg, err := LoadJointConfig(e)
	if err != nil {
		return b.fail("load", -1, err)
	}
	if cfg.Type != b.kind {
		b.cfg.Name = cfg.Name
		return b.fail("load", -1, fmt.Errorf("%w: element is %s, joint is %s", ErrTypeMismatch, cfg.Type, b.kind))
	}
	b.cfg = cfg
	b.state = Loaded
	return nil
}

func (b *BaseJoint) loadedForAttach(op string) error {
	switch b.state {
	case Loaded:
		return nil
	case Uninitialized:
		return b.fail(op, -1, ErrNotLoaded)
	case Constructed:
		return b.fail(op, -1, ErrAlreadyCreated)
	}
	return b.fail(op, -1, ErrDestroyed)
}

// Init resolves the parent and child links through the model and attaches.
func (b *BaseJoint) Init() error {
	if err := b.loadedForAttach("init"); err != nil {
		return err
	}
	if b.model == nil {
		return b.fail("init", -1, fmt.Errorf("%w: joint has no model", ErrNilLink))
	}
	parent, err := b.model.resolveLink(b.cfg.Parent)
	if err != nil {
		return b.fail("init", -1, err)
	}
	child, err := b.model.resolveLink(b.cfg.Child)
	if err != nil {
		return b.fail("init", -1, err)
	}
	return b.Attach(parent, child)
}

func (b *BaseJoint) Attach(parent, child Link) error {
	if err := b.loadedForAttach("attach"); err != nil {
		return err
	}
	if parent == nil || child == nil {
		return b.fail("attach", -1, ErrNilLink)
	}

	childPose := child.WorldPose()
	b.anchor = childPose.TransformPoint(b.cfg.Pose.Pos)
	modelPose := common.PoseIdent()
	if b.model != nil {
		modelPose = b.model.Pose
	}
	for i := range b.axes {
		b.axes[i] = modelPose.RotateVector(b.cfg.Axis(i).XYZ)
	}
	b.parent, b.child = parent, child

	if err := b.impl.AttachImpl(parent, child); err != nil {
		b.parent, b.child = nil, nil
		return b.fail("attach", -1, err)
	}
	b.state = Constructed
	b.forces = [2]float64{}
	if d, ok := b.impl.(ConfigDeferrer); !ok || !d.DeferConfig() {
		b.ApplyConfig()
	}
	return nil
}

// ApplyConfig pushes the configured stops and damping to the engine.
// Failures are logged by the setters.
func (b *BaseJoint) ApplyConfig() {
	for i := 0; i < b.kind.AngleCount(); i++ {
		ax := b.cfg.Axis(i)
		if common.IsLimited(ax.Upper) {
			_ = b.SetHighStop(i, ax.Upper)
		}
		if common.IsLimited(ax.Lower) {
			_ = b.SetLowStop(i, ax.Lower)
		}
		if ax.Damping > 0 {
			_ = b.SetDamping(i, ax.Damping)
		}
	}
}

// Fini detaches the native joint. The joint cannot be used afterwards.
func (b *BaseJoint) Fini() {
	if b.state == Constructed {
		b.impl.DetachImpl()
	}
	b.parent, b.child = nil, nil
	b.state = Destroyed
}

// Update pushes the resistance of every axis for the coming step: explicit
// damping where the engine has no native damper, and Coulomb friction.
func (b *BaseJoint) Update() {
	if b.created() != nil {
		return
	}
	for i := 0; i < b.kind.AngleCount(); i++ {
		c := b.explicitDamping(i)
		mu := b.cfg.Axis(i).Friction
		if c == 0 && mu <= 0 {
			continue
		}
		v, err := b.impl.VelocityImpl(i)
		if err != nil {
			continue
		}
		f := b.forces[i] - c*v
		if mu > 0 && v != 0 {
			f -= math.Copysign(mu, v)
		}
		if err := b.impl.SetForceImpl(i, b.truncate(i, f)); err != nil {
			b.Logger().Debug("joint resistance skipped", "joint", b.cfg.Name, "index", i, "err", err)
		}
	}
}

func (b *BaseJoint) explicitDamping(i int) float64 {
	if i >= len(b.damping) || b.impl.DampingMode(i) != DampingExplicit {
		return 0
	}
	return b.damping[i]
}

// Reset withdraws the forces applied for the current step, including what
// was already pushed to the native bodies, then clears the record.
func (b *BaseJoint) Reset() {
	if b.state == Constructed {
		for i := 0; i < b.kind.AngleCount(); i++ {
			if err := b.impl.SetForceImpl(i, 0); err != nil && !errors.Is(err, ErrNotImplemented) {
				b.Logger().Debug("reset force skipped", "joint", b.cfg.Name, "index", i, "err", err)
			}
		}
	}
	b.ClearForces()
}

func (b *BaseJoint) ClearForces() {
	b.forces = [2]float64{}
	if b.state == Constructed {
		b.impl.ClearForcesImpl()
	}
}

func (b *BaseJoint) anchorGate(index int) error {
	if err := b.created(); err != nil {
		return err
	}
	n := max(b.kind.AngleCount(), 1)
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	return nil
}

func (b *BaseJoint) Anchor(index int) (mgl64.Vec3, error) {
	if err := b.anchorGate(index); err != nil {
		return mgl64.Vec3{}, b.fail("anchor", index, err)
	}
	return b.anchor, nil
}

func (b *BaseJoint) SetAnchor(index int, v mgl64.Vec3) error {
	if err := b.anchorGate(index); err != nil {
		return b.fail("set anchor", index, err)
	}
	if err := b.impl.SetAnchorImpl(index, v); err != nil {
		return b.fail("set anchor", index, err)
	}
	b.anchor = v
	return nil
}

func (b *BaseJoint) Axis(index int) (mgl64.Vec3, error) {
	if err := b.gate(index); err != nil {
		return mgl64.Vec3{}, b.fail("axis", index, err)
	}
	v, err := b.impl.AxisImpl(index)
	if err != nil {
		return mgl64.Vec3{}, b.fail("axis", index, err)
	}
	return v, nil
}

func (b *BaseJoint) SetAxis(index int, v mgl64.Vec3) error {
	if err := b.gate(index); err != nil {
		return b.fail("set axis", index, err)
	}
	if v.Len() < 1e-12 {
		return b.fail("set axis", index, errors.New("zero axis"))
	}
	return b.fail("set axis", index, b.impl.SetAxisImpl(index, v.Normalize()))
}

// getter runs a gated float read.
func (b *BaseJoint) getter(op string, index int, read func(int) (float64, error)) (float64, error) {
	if err := b.gate(index); err != nil {
		return errorValue(err), b.fail(op, index, err)
	}
	v, err := read(index)
	if err != nil {
		return errorValue(err), b.fail(op, index, err)
	}
	return v, nil
}

// setter runs a gated float write.
func (b *BaseJoint) setter(op string, index int, v float64, write func(int, float64) error) error {
	if err := b.gate(index); err != nil {
		return b.fail(op, index, err)
	}
	return b.fail(op, index, write(index, v))
}

func (b *BaseJoint) Angle(index int) (float64, error) {
	return b.getter("angle", index, b.impl.AngleImpl)
}

func (b *BaseJoint) Velocity(index int) (float64, error) {
	return b.getter("velocity", index, b.impl.VelocityImpl)
}

// SetVelocity sets the rate of axis index, clamped to its velocity limit.
func (b *BaseJoint) SetVelocity(index int, v float64) error {
	if limit := b.cfg.Axis(index).Velocity; limit >= 0 {
		v = common.Clamp(v, -limit, limit)
	}
	return b.setter("set velocity", index, v, b.impl.SetVelocityImpl)
}

// SetForce adds f to the force applied on axis index during the next step.
// The total is clamped to the configured effort limit.
func (b *BaseJoint) SetForce(index int, f float64) error {
	if err := b.gate(index); err != nil {
		return b.fail("set force", index, err)
	}
	if index >= len(b.forces) {
		return b.fail("set force", index, ErrIndexOutOfRange)
	}
	total := b.truncate(index, b.forces[index]+f)
	if err := b.impl.SetForceImpl(index, total); err != nil {
		return b.fail("set force", index, err)
	}
	b.forces[index] = total
	return nil
}

// truncate clamps f to the effort limit of axis index, if one is set.
func (b *BaseJoint) truncate(index int, f float64) float64 {
	if effort := b.cfg.Axis(index).Effort; effort >= 0 {
		return common.Clamp(f, -effort, effort)
	}
	return f
}

// Force returns the force recorded for the current step.
func (b *BaseJoint) Force(index int) (float64, error) {
	return b.getter("force", index, func(i int) (float64, error) {
		if i >= len(b.forces) {
			return 0, ErrIndexOutOfRange
		}
		return b.forces[i], nil
	})
}

func (b *BaseJoint) SetHighStop(index int, a float64) error {
	return b.setter("set high stop", index, a, b.impl.SetHighStopImpl)
}

func (b *BaseJoint) SetLowStop(index int, a float64) error {
	return b.setter("set low stop", index, a, b.impl.SetLowStopImpl)
}

func (b *BaseJoint) HighStop(index int) (float64, error) {
	return b.getter("high stop", index, b.impl.HighStopImpl)
}

func (b *BaseJoint) LowStop(index int) (float64, error) {
	return b.getter("low stop", index, b.impl.LowStopImpl)
}

func (b *BaseJoint) SetMaxForce(index int, f float64) error {
	return b.setter("set max force", index, f, b.impl.SetMaxForceImpl)
}

func (b *BaseJoint) MaxForce(index int) (float64, error) {
	return b.getter("max force", index, b.impl.MaxForceImpl)
}

func (b *BaseJoint) SetDamping(index int, d float64) error {
	if err := b.gate(index); err != nil {
		return b.fail("set damping", index, err)
	}
	if d < 0 {
		return b.fail("set damping", index, fmt.Errorf("negative damping %g", d))
	}
	switch b.impl.DampingMode(index) {
	case DampingExplicit:
	case DampingNative:
		if err := b.impl.SetDampingImpl(index, d); err != nil {
			return b.fail("set damping", index, err)
		}
	default:
		return b.fail("set damping", index, NotImplemented("%s damping on %s", b.kind, b.engine))
	}
	if index < len(b.damping) {
		b.damping[index] = d
	}
	return nil
}

func (b *BaseJoint) Damping(index int) (float64, error) {
	return b.getter("damping", index, func(i int) (float64, error) {
		if i >= len(b.damping) {
			return 0, ErrIndexOutOfRange
		}
		return b.damping[i], nil
	})
}

func (b *BaseJoint) ForceTorque() (Wrench, error) {
	if err := b.created(); err != nil {
		return Wrench{}, b.fail("force torque", -1, err)
	}
	w, err := b.impl.ForceTorqueImpl()
	if err != nil {
		return Wrench{}, b.fail("force torque", -1, err)
	}
	return w, nil
}
