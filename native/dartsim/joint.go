package dartsim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

type JointType int

const (
	WeldJoint JointType = iota
	RevoluteJoint
	PrismaticJoint
	UniversalJoint
	BallJoint
	FreeJoint
)

func (t JointType) String() string {
	switch t {
	case WeldJoint:
		return "WeldJoint"
	case RevoluteJoint:
		return "RevoluteJoint"
	case PrismaticJoint:
		return "PrismaticJoint"
	case UniversalJoint:
		return "UniversalJoint"
	case BallJoint:
		return "BallJoint"
	case FreeJoint:
		return "FreeJoint"
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// NumDofs is the number of generalized speeds of the joint type.
func (t JointType) NumDofs() int {
	switch t {
	case RevoluteJoint, PrismaticJoint:
		return 1
	case UniversalJoint:
		return 2
	case BallJoint:
		return 3
	case FreeJoint:
		return 6
	}
	return 0
}

func (t JointType) scalar() bool {
	return t == RevoluteJoint || t == PrismaticJoint || t == UniversalJoint
}

// JointProperties locate the joint frame in the parent and child body frames.
// Axes are expressed in the joint frame.
type JointProperties struct {
	Name                string
	Type                JointType
	TransformFromParent common.Pose
	TransformFromChild  common.Pose
	Axis                mgl64.Vec3
	Axis2               mgl64.Vec3
}

func (p JointProperties) validate() error {
	if p.Name == "" {
		return fmt.Errorf("dartsim: joint needs a name")
	}
	switch p.Type {
	case RevoluteJoint, PrismaticJoint:
		if p.Axis.Len() < 1e-12 {
			return fmt.Errorf("dartsim: %s %q needs an axis", p.Type, p.Name)
		}
	case UniversalJoint:
		if p.Axis.Len() < 1e-12 || p.Axis2.Len() < 1e-12 {
			return fmt.Errorf("dartsim: %s %q needs two axes", p.Type, p.Name)
		}
	}
	return nil
}

type Joint struct {
	skel  *Skeleton
	props JointProperties
	child *BodyNode

	limitEnforced    bool
	lower, upper     []float64
	forceLo, forceHi []float64
	damping          []float64
	commands         []float64
}

func newJoint(s *Skeleton, props JointProperties, child *BodyNode) *Joint {
	n := props.Type.NumDofs()
	j := &Joint{
		skel:     s,
		props:    props,
		child:    child,
		lower:    make([]float64, n),
		upper:    make([]float64, n),
		forceLo:  make([]float64, n),
		forceHi:  make([]float64, n),
		damping:  make([]float64, n),
		commands: make([]float64, n),
	}
	for k := 0; k < n; k++ {
		j.lower[k], j.upper[k] = math.Inf(-1), math.Inf(1)
		j.forceLo[k], j.forceHi[k] = math.Inf(-1), math.Inf(1)
	}
	return j
}

func (j *Joint) Name() string              { return j.props.Name }
func (j *Joint) Type() JointType           { return j.props.Type }
func (j *Joint) NumDofs() int              { return j.props.Type.NumDofs() }
func (j *Joint) ChildBodyNode() *BodyNode  { return j.child }
func (j *Joint) ParentBodyNode() *BodyNode { return j.child.parent }
func (j *Joint) Properties() JointProperties {
	return j.props
}

func (j *Joint) dof(i int) error {
	if i < 0 || i >= j.NumDofs() {
		return fmt.Errorf("%w: %s %q has %d dofs, asked for %d", ErrDofIndex, j.props.Type, j.props.Name, j.NumDofs(), i)
	}
	return nil
}

func (j *Joint) axisDof(i int) error {
	if !j.props.Type.scalar() {
		return fmt.Errorf("dartsim: %s %q has no axis", j.props.Type, j.props.Name)
	}
	return j.dof(i)
}

// Axis returns axis i in the joint frame.
func (j *Joint) Axis(i int) (mgl64.Vec3, error) {
	if err := j.axisDof(i); err != nil {
		return mgl64.Vec3{}, err
	}
	if i == 1 {
		return common.Normalize(j.props.Axis2), nil
	}
	return common.Normalize(j.props.Axis), nil
}

// SetAxis changes axis i in the joint frame. The coordinates of the joint
// are kept.
func (j *Joint) SetAxis(i int, axis mgl64.Vec3) error {
	if err := j.axisDof(i); err != nil {
		return err
	}
	if axis.Len() < 1e-12 {
		return fmt.Errorf("dartsim: %s %q: zero axis", j.props.Type, j.props.Name)
	}
	if i == 1 {
		j.props.Axis2 = axis
	} else {
		j.props.Axis = axis
	}
	j.skel.dirty = true
	return nil
}

// WorldAxis returns axis i in world coordinates.
func (j *Joint) WorldAxis(i int) (mgl64.Vec3, error) {
	a, err := j.Axis(i)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	parent := common.PoseIdent()
	if p := j.child.parent; p != nil {
		if parent, err = p.WorldTransform(); err != nil {
			return mgl64.Vec3{}, err
		}
	}
	f := parent.Compose(j.props.TransformFromParent)
	if i == 1 && j.skel.IsBuilt() {
		q0, err := j.Position(0)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		a = mgl64.QuatRotate(q0, common.Normalize(j.props.Axis)).Rotate(a)
	}
	return f.RotateVector(a), nil
}

func (j *Joint) SetPositionLimitEnforced(on bool) { j.limitEnforced = on }
func (j *Joint) IsPositionLimitEnforced() bool    { return j.limitEnforced }

func (j *Joint) SetPositionLowerLimit(i int, v float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	j.lower[i] = v
	return nil
}

func (j *Joint) SetPositionUpperLimit(i int, v float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	j.upper[i] = v
	return nil
}

func (j *Joint) PositionLowerLimit(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.lower[i], nil
}

func (j *Joint) PositionUpperLimit(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.upper[i], nil
}

func (j *Joint) SetDampingCoefficient(i int, c float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	if c < 0 {
		return fmt.Errorf("dartsim: %s %q: negative damping %g", j.props.Type, j.props.Name, c)
	}
	j.damping[i] = c
	return nil
}

func (j *Joint) DampingCoefficient(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.damping[i], nil
}

func (j *Joint) SetForceLowerLimit(i int, f float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	j.forceLo[i] = f
	return nil
}

func (j *Joint) SetForceUpperLimit(i int, f float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	j.forceHi[i] = f
	return nil
}

func (j *Joint) ForceLowerLimit(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.forceLo[i], nil
}

func (j *Joint) ForceUpperLimit(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.forceHi[i], nil
}

// SetForce sets the command for dof i. It is clamped to the force limits
// when applied and reset after each world step.
func (j *Joint) SetForce(i int, f float64) error {
	if err := j.dof(i); err != nil {
		return err
	}
	j.commands[i] = f
	return nil
}

func (j *Joint) Force(i int) (float64, error) {
	if err := j.dof(i); err != nil {
		return math.NaN(), err
	}
	return j.commands[i], nil
}

// coord returns the state indices of dof i of a scalar joint.
func (j *Joint) coord(i int) (q, u int, err error) {
	if err := j.dof(i); err != nil {
		return 0, 0, err
	}
	if !j.props.Type.scalar() {
		return 0, 0, fmt.Errorf("dartsim: %s %q has no scalar position", j.props.Type, j.props.Name)
	}
	if err := j.skel.ensure(); err != nil {
		return 0, 0, err
	}
	mb := j.skel.sys.Body(j.child.index)
	return mb.QIndex() + i, mb.UIndex() + i, nil
}

func (j *Joint) Position(i int) (float64, error) {
	q, _, err := j.coord(i)
	if err != nil {
		return math.NaN(), err
	}
	return j.skel.state.Q[q], nil
}

func (j *Joint) SetPosition(i int, v float64) error {
	q, _, err := j.coord(i)
	if err != nil {
		return err
	}
	j.skel.state.Q[q] = v
	return nil
}

func (j *Joint) Velocity(i int) (float64, error) {
	_, u, err := j.coord(i)
	if err != nil {
		return math.NaN(), err
	}
	return j.skel.state.U[u], nil
}

func (j *Joint) SetVelocity(i int, v float64) error {
	_, u, err := j.coord(i)
	if err != nil {
		return err
	}
	j.skel.state.U[u] = v
	return nil
}
