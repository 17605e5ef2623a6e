// Package multibody is a reduced-coordinate dynamics kernel: a tree of rigid
// bodies, each connected to its parent by a mobilizer that contributes
// generalized coordinates Q and speeds U.
package multibody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

// Ground is the parent index of bodies mobilized directly from the world.
const Ground = -1

type Kind int

const (
	Weld Kind = iota
	Pin
	Slider
	Screw
	Universal
	Ball
	Free
)

var kindNames = [...]string{"weld", "pin", "slider", "screw", "universal", "ball", "free"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// NQ is the number of generalized coordinates of the mobilizer.
func (k Kind) NQ() int {
	switch k {
	case Pin, Slider, Screw:
		return 1
	case Universal:
		return 2
	case Ball:
		return 4
	case Free:
		return 7
	}
	return 0
}

// NU is the number of generalized speeds of the mobilizer.
func (k Kind) NU() int {
	switch k {
	case Pin, Slider, Screw:
		return 1
	case Universal:
		return 2
	case Ball:
		return 3
	case Free:
		return 6
	}
	return 0
}

// Scalar reports whether each speed of the mobilizer is the derivative of
// one coordinate.
func (k Kind) Scalar() bool {
	return k == Pin || k == Slider || k == Screw || k == Universal
}

// Mobilizer connects a body to its parent. The inboard frame F is fixed in
// the parent, the outboard frame M in the child; the mobilizer moves M
// relative to F.
type Mobilizer struct {
	Kind          Kind
	Parent        int
	InboardFrame  common.Pose
	OutboardFrame common.Pose
	// Axis is expressed in F. For Universal it is the first axis and Axis2
	// the second one at zero first angle.
	Axis  mgl64.Vec3
	Axis2 mgl64.Vec3
	// Pitch couples Screw rotation to translation: q/Pitch metres.
	Pitch float64
}

// Body is a rigid body whose frame origin is its centre of mass.
type Body struct {
	Name      string
	Mass      float64
	Inertia   mgl64.Vec3
	Gravity   bool
	Mobilizer Mobilizer

	qIndex int
	uIndex int
}

func (b *Body) QIndex() int { return b.qIndex }
func (b *Body) UIndex() int { return b.uIndex }

type System struct {
	Gravity mgl64.Vec3
	bodies  []*Body
	nq, nu  int
}

func NewSystem() *System {
	return &System{}
}

// AddBody appends b and returns its index. The parent must already exist.
func (s *System) AddBody(b Body) (int, error) {
	m := &b.Mobilizer
	if m.Parent != Ground && (m.Parent < 0 || m.Parent >= len(s.bodies)) {
		return 0, fmt.Errorf("multibody: body %q: parent %d does not exist", b.Name, m.Parent)
	}
	switch m.Kind {
	case Pin, Slider, Screw, Universal:
		if m.Axis.Len() < 1e-12 {
			return 0, fmt.Errorf("multibody: body %q: %s mobilizer needs an axis", b.Name, m.Kind)
		}
		m.Axis = m.Axis.Normalize()
	}
	if m.Kind == Universal {
		if m.Axis2.Len() < 1e-12 {
			return 0, fmt.Errorf("multibody: body %q: universal mobilizer needs a second axis", b.Name)
		}
		m.Axis2 = m.Axis2.Normalize()
	}
	if m.Kind == Screw && m.Pitch == 0 {
		return 0, fmt.Errorf("multibody: body %q: screw pitch must be non-zero", b.Name)
	}
	if m.InboardFrame.Rot == (mgl64.Quat{}) {
		m.InboardFrame.Rot = mgl64.QuatIdent()
	}
	if m.OutboardFrame.Rot == (mgl64.Quat{}) {
		m.OutboardFrame.Rot = mgl64.QuatIdent()
	}
	b.qIndex, b.uIndex = s.nq, s.nu
	s.nq += m.Kind.NQ()
	s.nu += m.Kind.NU()
	s.bodies = append(s.bodies, &b)
	return len(s.bodies) - 1, nil
}

func (s *System) NumBodies() int { return len(s.bodies) }
func (s *System) NQ() int        { return s.nq }
func (s *System) NU() int        { return s.nu }

func (s *System) Body(i int) *Body {
	if i < 0 || i >= len(s.bodies) {
		return nil
	}
	return s.bodies[i]
}

// State holds coordinates, speeds and the forces applied for the next step.
type State struct {
	Time float64
	Q    []float64
	U    []float64

	MobilityForces []float64
	BodyForces     []mgl64.Vec3
	BodyTorques    []mgl64.Vec3
}

// DefaultState returns the zero configuration at rest.
func (s *System) DefaultState() *State {
	st := &State{
		Q:              make([]float64, s.nq),
		U:              make([]float64, s.nu),
		MobilityForces: make([]float64, s.nu),
		BodyForces:     make([]mgl64.Vec3, len(s.bodies)),
		BodyTorques:    make([]mgl64.Vec3, len(s.bodies)),
	}
	for _, b := range s.bodies {
		switch b.Mobilizer.Kind {
		case Ball:
			st.Q[b.qIndex] = 1
		case Free:
			st.Q[b.qIndex+3] = 1
		}
	}
	return st
}

func (st *State) Clone() *State {
	c := *st
	c.Q = append([]float64(nil), st.Q...)
	c.U = append([]float64(nil), st.U...)
	c.MobilityForces = append([]float64(nil), st.MobilityForces...)
	c.BodyForces = append([]mgl64.Vec3(nil), st.BodyForces...)
	c.BodyTorques = append([]mgl64.Vec3(nil), st.BodyTorques...)
	return &c
}

// ClearForces zeroes every applied force.
func (st *State) ClearForces() {
	for i := range st.MobilityForces {
		st.MobilityForces[i] = 0
	}
	for i := range st.BodyForces {
		st.BodyForces[i] = mgl64.Vec3{}
		st.BodyTorques[i] = mgl64.Vec3{}
	}
}

func quatAt(q []float64, i int) mgl64.Quat {
	return mgl64.Quat{W: q[i], V: mgl64.Vec3{q[i+1], q[i+2], q[i+3]}}.Normalize()
}

func setQuat(q []float64, i int, r mgl64.Quat) {
	q[i], q[i+1], q[i+2], q[i+3] = r.W, r.V[0], r.V[1], r.V[2]
}

// mobilizerTransform returns X_FM for body b at coordinates q.
func (b *Body) mobilizerTransform(q []float64) common.Pose {
	m := b.Mobilizer
	x := common.PoseIdent()
	switch m.Kind {
	case Pin:
		x.Rot = mgl64.QuatRotate(q[b.qIndex], m.Axis)
	case Slider:
		x.Pos = m.Axis.Mul(q[b.qIndex])
	case Screw:
		x.Pos = m.Axis.Mul(q[b.qIndex] / m.Pitch)
		x.Rot = mgl64.QuatRotate(q[b.qIndex], m.Axis)
	case Universal:
		x.Rot = mgl64.QuatRotate(q[b.qIndex], m.Axis).Mul(mgl64.QuatRotate(q[b.qIndex+1], m.Axis2))
	case Ball:
		x.Rot = quatAt(q, b.qIndex)
	case Free:
		x.Pos = mgl64.Vec3{q[b.qIndex], q[b.qIndex+1], q[b.qIndex+2]}
		x.Rot = quatAt(q, b.qIndex+3)
	}
	return x
}

// frames are the ground-frame poses of a body's F, M and body frames.
type frames struct {
	F, M, B common.Pose
}

func (s *System) kinematics(q []float64) []frames {
	out := make([]frames, len(s.bodies))
	for i, b := range s.bodies {
		parent := common.PoseIdent()
		if b.Mobilizer.Parent != Ground {
			parent = out[b.Mobilizer.Parent].B
		}
		f := parent.Compose(b.Mobilizer.InboardFrame)
		m := f.Compose(b.mobilizerTransform(q))
		out[i] = frames{F: f, M: m, B: m.Compose(b.Mobilizer.OutboardFrame.Inverse())}
	}
	return out
}

// Poses returns the ground-frame pose of every body.
func (s *System) Poses(st *State) []common.Pose {
	fr := s.kinematics(st.Q)
	out := make([]common.Pose, len(fr))
	for i := range fr {
		out[i] = fr[i].B
	}
	return out
}

// BodyPose returns the ground-frame pose of body i.
func (s *System) BodyPose(st *State, i int) common.Pose {
	return s.Poses(st)[i]
}
