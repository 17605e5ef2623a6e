package physics

import (
	"fmt"

	"github.com/milk9111/jointsim/common"
)

// GroundLinkName is the parent name that refers to the world's static link.
const GroundLinkName = "world"

type Model struct {
	Name   string
	Static bool
	Pose   common.Pose

	world  *World
	links  []Link
	joints []Joint
}

func NewModel(name string, static bool, pose common.Pose) *Model {
	return &Model{Name: name, Static: static, Pose: pose}
}

func (m *Model) World() *World   { return m.world }
func (m *Model) Links() []Link   { return append([]Link(nil), m.links...) }
func (m *Model) Joints() []Joint { return append([]Joint(nil), m.joints...) }

func (m *Model) AddLink(l Link) error {
	if m.Link(l.Name()) != nil {
		return fmt.Errorf("model %q: duplicate link %q", m.Name, l.Name())
	}
	m.links = append(m.links, l)
	return nil
}

func (m *Model) AddJoint(j Joint) error {
	if m.Joint(j.Name()) != nil {
		return fmt.Errorf("model %q: duplicate joint %q", m.Name, j.Name())
	}
	j.SetModel(m)
	m.joints = append(m.joints, j)
	return nil
}

func (m *Model) Link(name string) Link {
	for _, l := range m.links {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

func (m *Model) Joint(name string) Joint {
	for _, j := range m.joints {
		if j.Name() == name {
			return j
		}
	}
	return nil
}

func (m *Model) resolveLink(name string) (Link, error) {
	if name == GroundLinkName && m.world != nil {
		return m.world.Ground(), nil
	}
	if l := m.Link(name); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("%w: model %q has no link %q", ErrNilLink, m.Name, name)
}

// Init initializes links, then joints.
func (m *Model) Init() error {
	for _, l := range m.links {
		if err := l.Init(); err != nil {
			return fmt.Errorf("model %q: link %q: %w", m.Name, l.Name(), err)
		}
	}
	for _, j := range m.joints {
		if err := j.Init(); err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
	}
	return nil
}

// Fini destroys joints before links so native constraints are deregistered
// while their bodies still exist.
func (m *Model) Fini() {
	for _, j := range m.joints {
		j.Fini()
	}
	for _, l := range m.links {
		l.Fini()
	}
}

// RemoveJoint destroys one joint while the simulation runs.
func (m *Model) RemoveJoint(name string) error {
	for i, j := range m.joints {
		if j.Name() == name {
			j.Fini()
			m.joints = append(m.joints[:i], m.joints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("model %q has no joint %q", m.Name, name)
}
