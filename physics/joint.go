package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/sdf"
)

// Wrench is the constraint force and torque a joint applies to its parent
// (1) and child (2) link, in world coordinates.
type Wrench struct {
	Force1  mgl64.Vec3
	Torque1 mgl64.Vec3
	Force2  mgl64.Vec3
	Torque2 mgl64.Vec3
}

// Joint is the engine independent joint API. Getters return the value and
// the error; a failed getter returns 0 or NaN depending on the error kind.
type Joint interface {
	Name() string
	Type() JointType
	Engine() string
	State() Lifecycle
	Config() JointConfig
	AngleCount() int
	Parent() Link
	Child() Link
	Model() *Model
	SetModel(m *Model)

	Load(e *sdf.Element) error
	Init() error
	Attach(parent, child Link) error
	Fini()

	// Update runs before every engine step.
	Update()
	// Reset drops forces applied for the current step.
	Reset()
	// ClearForces runs after every engine step.
	ClearForces()

	Anchor(index int) (mgl64.Vec3, error)
	SetAnchor(index int, v mgl64.Vec3) error
	Axis(index int) (mgl64.Vec3, error)
	SetAxis(index int, v mgl64.Vec3) error
	Angle(index int) (float64, error)
	Velocity(index int) (float64, error)
	SetVelocity(index int, v float64) error
	SetForce(index int, f float64) error
	Force(index int) (float64, error)
	SetHighStop(index int, a float64) error
	SetLowStop(index int, a float64) error
	HighStop(index int) (float64, error)
	LowStop(index int) (float64, error)
	SetMaxForce(index int, f float64) error
	MaxForce(index int) (float64, error)
	SetDamping(index int, d float64) error
	Damping(index int) (float64, error)
	ForceTorque() (Wrench, error)
}

type DampingMode int

const (
	DampingUnsupported DampingMode = iota
	// DampingExplicit joints get -c*v applied as a force before each step.
	DampingExplicit
	// DampingNative joints hand the coefficient to the engine.
	DampingNative
)

// JointImpl is what an engine implements for each joint kind. BaseJoint
// has already checked the lifecycle and the index when these are called.
type JointImpl interface {
	AttachImpl(parent, child Link) error
	DetachImpl()
	SetAnchorImpl(index int, v mgl64.Vec3) error
	AxisImpl(index int) (mgl64.Vec3, error)
	SetAxisImpl(index int, v mgl64.Vec3) error
	AngleImpl(index int) (float64, error)
	VelocityImpl(index int) (float64, error)
	SetVelocityImpl(index int, v float64) error
	// SetForceImpl sets the total generalized force for the coming step,
	// replacing any earlier value in the same step.
	SetForceImpl(index int, f float64) error
	ClearForcesImpl()
	HighStopImpl(index int) (float64, error)
	LowStopImpl(index int) (float64, error)
	SetHighStopImpl(index int, a float64) error
	SetLowStopImpl(index int, a float64) error
	MaxForceImpl(index int) (float64, error)
	SetMaxForceImpl(index int, f float64) error
	DampingMode(index int) DampingMode
	SetDampingImpl(index int, d float64) error
	ForceTorqueImpl() (Wrench, error)
}

// ConfigDeferrer is implemented by joints whose configured stops and damping
// can only be applied once the engine has built its model. The engine calls
// BaseJoint.ApplyConfig itself.
type ConfigDeferrer interface {
	DeferConfig() bool
}

// Unsupported implements every JointImpl method as not implemented. Engine
// joints embed it and override what they support.
type Unsupported struct{}

func (Unsupported) AttachImpl(Link, Link) error { return NotImplemented("attach") }
func (Unsupported) DetachImpl()                 {}
func (Unsupported) SetAnchorImpl(int, mgl64.Vec3) error {
	return NotImplemented("set anchor")
}
func (Unsupported) AxisImpl(int) (mgl64.Vec3, error) {
	return mgl64.Vec3{}, NotImplemented("axis")
}
func (Unsupported) SetAxisImpl(int, mgl64.Vec3) error  { return NotImplemented("set axis") }
func (Unsupported) AngleImpl(int) (float64, error)     { return 0, NotImplemented("angle") }
func (Unsupported) VelocityImpl(int) (float64, error)  { return 0, NotImplemented("velocity") }
func (Unsupported) SetVelocityImpl(int, float64) error { return NotImplemented("set velocity") }
func (Unsupported) SetForceImpl(int, float64) error    { return NotImplemented("set force") }
func (Unsupported) ClearForcesImpl()                      {}
func (Unsupported) HighStopImpl(int) (float64, error)  { return 0, NotImplemented("high stop") }
func (Unsupported) LowStopImpl(int) (float64, error)   { return 0, NotImplemented("low stop") }
func (Unsupported) SetHighStopImpl(int, float64) error { return NotImplemented("set high stop") }
func (Unsupported) SetLowStopImpl(int, float64) error  { return NotImplemented("set low stop") }
func (Unsupported) MaxForceImpl(int) (float64, error)  { return 0, NotImplemented("max force") }
func (Unsupported) SetMaxForceImpl(int, float64) error { return NotImplemented("set max force") }
func (Unsupported) DampingMode(int) DampingMode        { return DampingUnsupported }
func (Unsupported) SetDampingImpl(int, float64) error  { return NotImplemented("set damping") }
func (Unsupported) ForceTorqueImpl() (Wrench, error)   { return Wrench{}, NotImplemented("force torque") }

// ForceAccumulator turns total per-axis forces into increments for engines
// whose native API only adds forces.
type ForceAccumulator []float64

func NewForceAccumulator(n int) ForceAccumulator { return make(ForceAccumulator, n) }

// Delta records total for axis i and returns the amount not applied yet.
func (a ForceAccumulator) Delta(i int, total float64) float64 {
	if i < 0 || i >= len(a) {
		return 0
	}
	d := total - a[i]
	a[i] = total
	return d
}

func (a ForceAccumulator) Clear() {
	for i := range a {
		a[i] = 0
	}
}
