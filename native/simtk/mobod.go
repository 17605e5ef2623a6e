package simtk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/multibody"
)

// MobilizedBody is a body together with the mobilizer connecting it to its
// parent. X_PF locates the inboard frame on the parent, X_BM the outboard
// frame on this body.
type MobilizedBody struct {
	sys       *MultibodySystem
	index     int
	parent    *MobilizedBody
	kind      multibody.Kind
	body      MassProperties
	xPF, xBM  Transform
	axis      mgl64.Vec3
	axis2     mgl64.Vec3
	pitch     float64
	name      string
	noGravity bool
}

func (s *MultibodySystem) newMobod(kind multibody.Kind, parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform) *MobilizedBody {
	return &MobilizedBody{sys: s, kind: kind, parent: parent, xPF: xPF, body: body, xBM: xBM}
}

func NewPin(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform, axis mgl64.Vec3) *MobilizedBody {
	m := parent.sys.newMobod(multibody.Pin, parent, xPF, body, xBM)
	m.axis = axis
	return parent.sys.add(m)
}

func NewSlider(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform, axis mgl64.Vec3) *MobilizedBody {
	m := parent.sys.newMobod(multibody.Slider, parent, xPF, body, xBM)
	m.axis = axis
	return parent.sys.add(m)
}

// NewScrew couples rotation about axis with translation along it, pitch in
// radians per metre.
func NewScrew(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform, axis mgl64.Vec3, pitch float64) *MobilizedBody {
	m := parent.sys.newMobod(multibody.Screw, parent, xPF, body, xBM)
	m.axis = axis
	m.pitch = pitch
	return parent.sys.add(m)
}

func NewUniversal(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform, axis1, axis2 mgl64.Vec3) *MobilizedBody {
	m := parent.sys.newMobod(multibody.Universal, parent, xPF, body, xBM)
	m.axis, m.axis2 = axis1, axis2
	return parent.sys.add(m)
}

func NewBall(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform) *MobilizedBody {
	return parent.sys.add(parent.sys.newMobod(multibody.Ball, parent, xPF, body, xBM))
}

func NewWeld(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform) *MobilizedBody {
	return parent.sys.add(parent.sys.newMobod(multibody.Weld, parent, xPF, body, xBM))
}

func NewFree(parent *MobilizedBody, xPF Transform, body MassProperties, xBM Transform) *MobilizedBody {
	return parent.sys.add(parent.sys.newMobod(multibody.Free, parent, xPF, body, xBM))
}

func (m *MobilizedBody) SetName(name string)            { m.name = name }
func (m *MobilizedBody) Name() string                   { return m.name }
func (m *MobilizedBody) IsGround() bool                 { return m.index == multibody.Ground }
func (m *MobilizedBody) Parent() *MobilizedBody         { return m.parent }
func (m *MobilizedBody) NumQ() int                      { return m.kind.NQ() }
func (m *MobilizedBody) NumU() int                      { return m.kind.NU() }
func (m *MobilizedBody) MassProperties() MassProperties { return m.body }

// SetGravityEnabled must be called before the topology is realized.
func (m *MobilizedBody) SetGravityEnabled(on bool) {
	m.noGravity = !on
	m.sys.invalidate()
}

func (m *MobilizedBody) coord(st *State, i int, nq bool) (int, error) {
	if err := st.check(); err != nil {
		return 0, err
	}
	if m.IsGround() {
		return 0, fmt.Errorf("simtk: ground has no mobilities")
	}
	b := st.sys.sys.Body(m.index)
	n, base := m.kind.NU(), b.UIndex()
	if nq {
		n, base = m.kind.NQ(), b.QIndex()
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("simtk: %s mobilizer %q has no coordinate %d", m.kind, m.name, i)
	}
	return base + i, nil
}

func (m *MobilizedBody) OneQ(st *State, i int) (float64, error) {
	k, err := m.coord(st, i, true)
	if err != nil {
		return math.NaN(), err
	}
	return st.mb.Q[k], nil
}

func (m *MobilizedBody) SetOneQ(st *State, i int, v float64) error {
	k, err := m.coord(st, i, true)
	if err != nil {
		return err
	}
	st.mb.Q[k] = v
	return nil
}

func (m *MobilizedBody) OneU(st *State, i int) (float64, error) {
	k, err := m.coord(st, i, false)
	if err != nil {
		return math.NaN(), err
	}
	return st.mb.U[k], nil
}

func (m *MobilizedBody) SetOneU(st *State, i int, v float64) error {
	k, err := m.coord(st, i, false)
	if err != nil {
		return err
	}
	st.mb.U[k] = v
	return nil
}

// BodyTransform returns X_GB, the body frame in ground.
func (m *MobilizedBody) BodyTransform(st *State) (Transform, error) {
	if err := st.check(); err != nil {
		return Transform{}, err
	}
	if m.IsGround() {
		return Transform{Rot: mgl64.QuatIdent()}, nil
	}
	return st.sys.sys.BodyPose(st.mb, m.index), nil
}

// BodyVelocity returns the angular velocity and centre of mass linear
// velocity in ground.
func (m *MobilizedBody) BodyVelocity(st *State) (ang, lin mgl64.Vec3, err error) {
	if err := st.check(); err != nil {
		return ang, lin, err
	}
	if m.IsGround() {
		return ang, lin, nil
	}
	l, a := st.sys.sys.Velocities(st.mb)
	return a[m.index], l[m.index], nil
}

// SetFreeTransform places a Free mobilized body at X_GB.
func (m *MobilizedBody) SetFreeTransform(st *State, x Transform) error {
	if err := st.check(); err != nil {
		return err
	}
	return st.sys.sys.SetFreePose(st.mb, m.index, x)
}

func (m *MobilizedBody) SetFreeVelocity(st *State, ang, lin mgl64.Vec3) error {
	if err := st.check(); err != nil {
		return err
	}
	return st.sys.sys.SetFreeVelocity(st.mb, m.index, lin, ang)
}

// MobilizerAxis returns axis i of a pin, slider, screw or universal
// mobilizer in ground.
func (m *MobilizedBody) MobilizerAxis(st *State, i int) (mgl64.Vec3, error) {
	if m.IsGround() || !m.kind.Scalar() || i < 0 || i >= m.kind.NU() {
		return mgl64.Vec3{}, fmt.Errorf("simtk: %s mobilizer %q has no axis %d", m.kind, m.name, i)
	}
	parent, err := m.parent.BodyTransform(st)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	f := parent.Compose(m.xPF)
	if i == 0 {
		return f.RotateVector(m.axis.Normalize()), nil
	}
	q0, err := m.OneQ(st, 0)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return f.RotateVector(mgl64.QuatRotate(q0, m.axis.Normalize()).Rotate(m.axis2.Normalize())), nil
}
