// Package simtk is a Simbody-style facade over the multibody kernel. Bodies
// are added as mobilized bodies of a MultibodySystem; all run-time values
// (coordinates, speeds, stop bounds, damping) live in a State that only exists
// once the topology is realized.
package simtk

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/multibody"
)

// Transform is a rigid transform between two frames.
type Transform = common.Pose

var (
	// ErrTopologyNotRealized is returned when a State is needed before RealizeTopology.
	ErrTopologyNotRealized = errors.New("simtk: topology not realized")
	// ErrStaleState is returned for a State created by an earlier topology.
	ErrStaleState = errors.New("simtk: state belongs to a previous topology")
)

type MassProperties struct {
	Mass    float64
	Inertia mgl64.Vec3
}

type MultibodySystem struct {
	gravity mgl64.Vec3
	ground  *MobilizedBody
	mobods  []*MobilizedBody
	forces  *GeneralForceSubsystem

	sys     *multibody.System
	version int
}

func NewMultibodySystem() *MultibodySystem {
	s := &MultibodySystem{}
	s.ground = &MobilizedBody{sys: s, index: multibody.Ground, name: "ground"}
	s.forces = &GeneralForceSubsystem{sys: s}
	return s
}

func (s *MultibodySystem) Ground() *MobilizedBody         { return s.ground }
func (s *MultibodySystem) Forces() *GeneralForceSubsystem { return s.forces }
func (s *MultibodySystem) SetGravity(g mgl64.Vec3)        { s.gravity = g; s.invalidate() }
func (s *MultibodySystem) Gravity() mgl64.Vec3            { return s.gravity }
func (s *MultibodySystem) NumMobilizedBodies() int        { return len(s.mobods) }
func (s *MultibodySystem) IsTopologyRealized() bool       { return s.sys != nil }

func (s *MultibodySystem) invalidate() { s.sys = nil }

// RealizeTopology builds the multibody tree and returns its default state.
func (s *MultibodySystem) RealizeTopology() (*State, error) {
	sys := multibody.NewSystem()
	sys.Gravity = s.gravity
	for _, m := range s.mobods {
		parent := m.parent.index
		idx, err := sys.AddBody(multibody.Body{
			Name:    m.name,
			Mass:    m.body.Mass,
			Inertia: m.body.Inertia,
			Gravity: !m.noGravity,
			Mobilizer: multibody.Mobilizer{
				Kind:          m.kind,
				Parent:        parent,
				InboardFrame:  m.xPF,
				OutboardFrame: m.xBM,
				Axis:          m.axis,
				Axis2:         m.axis2,
				Pitch:         m.pitch,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("simtk: realize topology: %w", err)
		}
		m.index = idx
	}
	s.version++
	s.sys = sys
	st := &State{
		sys:     s,
		version: s.version,
		mb:      sys.DefaultState(),
		vars:    make(map[int]float64),
	}
	for _, f := range s.forces.elements {
		f.initState(st)
	}
	return st, nil
}

func (s *MultibodySystem) add(m *MobilizedBody) *MobilizedBody {
	if m.parent == nil {
		m.parent = s.ground
	}
	if m.xPF.Rot == (mgl64.Quat{}) {
		m.xPF.Rot = mgl64.QuatIdent()
	}
	if m.xBM.Rot == (mgl64.Quat{}) {
		m.xBM.Rot = mgl64.QuatIdent()
	}
	m.index = len(s.mobods)
	s.mobods = append(s.mobods, m)
	s.invalidate()
	return m
}

// State holds coordinates, speeds, applied discrete forces and the instance
// variables of force elements.
type State struct {
	sys     *MultibodySystem
	version int
	mb      *multibody.State
	vars    map[int]float64
}

func (st *State) Time() float64 { return st.mb.Time }
func (st *State) NQ() int       { return len(st.mb.Q) }
func (st *State) NU() int       { return len(st.mb.U) }

func (st *State) check() error {
	if st == nil || st.sys.sys == nil {
		return ErrTopologyNotRealized
	}
	if st.version != st.sys.version {
		return ErrStaleState
	}
	return nil
}

func (st *State) Clone() *State {
	c := &State{sys: st.sys, version: st.version, mb: st.mb.Clone(), vars: make(map[int]float64, len(st.vars))}
	for k, v := range st.vars {
		c.vars[k] = v
	}
	return c
}
