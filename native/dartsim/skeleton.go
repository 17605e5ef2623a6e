package dartsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/multibody"
)

type BodyNodeProperties struct {
	Name    string
	Mass    float64
	Inertia mgl64.Vec3
	Gravity bool
	// Transform is the initial world pose of the centre of mass.
	Transform common.Pose
}

type BodyNode struct {
	skel        *Skeleton
	props       BodyNodeProperties
	parentJoint *Joint
	parent      *BodyNode
	index       int
	builtJoint  *Joint

	extForce, extTorque mgl64.Vec3
}

type Skeleton struct {
	name   string
	world  *World
	mobile bool
	nodes  []*BodyNode

	sys   *multibody.System
	state *multibody.State
	dirty bool
}

func NewSkeleton(name string) *Skeleton {
	return &Skeleton{name: name, mobile: true}
}

func (s *Skeleton) Name() string           { return s.name }
func (s *Skeleton) IsMobile() bool         { return s.mobile }
func (s *Skeleton) NumBodyNodes() int      { return len(s.nodes) }
func (s *Skeleton) IsBuilt() bool          { return s.sys != nil }
func (s *Skeleton) BodyNodes() []*BodyNode { return s.nodes }

// SetMobile(false) welds every root body to the world.
func (s *Skeleton) SetMobile(mobile bool) {
	if s.mobile != mobile {
		s.mobile = mobile
		s.dirty = true
	}
}

func (s *Skeleton) BodyNode(name string) *BodyNode {
	for _, b := range s.nodes {
		if b.props.Name == name {
			return b
		}
	}
	return nil
}

func (s *Skeleton) Joint(name string) *Joint {
	for _, b := range s.nodes {
		if b.parentJoint.props.Name == name {
			return b.parentJoint
		}
	}
	return nil
}

func (s *Skeleton) NumDofs() int {
	n := 0
	for _, b := range s.nodes {
		n += b.parentJoint.NumDofs()
	}
	return n
}

// CreateBodyNode adds a root body connected to the world by a free joint.
func (s *Skeleton) CreateBodyNode(props BodyNodeProperties) (*BodyNode, error) {
	if props.Name == "" {
		return nil, fmt.Errorf("dartsim: body node needs a name")
	}
	if s.BodyNode(props.Name) != nil {
		return nil, fmt.Errorf("dartsim: skeleton %q already has body node %q", s.name, props.Name)
	}
	if props.Mass <= 0 {
		return nil, fmt.Errorf("dartsim: body node %q: mass must be positive", props.Name)
	}
	b := &BodyNode{skel: s, props: props, index: -1}
	b.parentJoint = newJoint(s, JointProperties{Name: props.Name + "_root", Type: FreeJoint}, b)
	s.nodes = append(s.nodes, b)
	s.dirty = true
	return b, nil
}

func (b *BodyNode) Name() string              { return b.props.Name }
func (b *BodyNode) Skeleton() *Skeleton       { return b.skel }
func (b *BodyNode) ParentJoint() *Joint       { return b.parentJoint }
func (b *BodyNode) ParentBodyNode() *BodyNode { return b.parent }
func (b *BodyNode) Mass() float64             { return b.props.Mass }
func (b *BodyNode) AddExtForce(f mgl64.Vec3)  { b.extForce = b.extForce.Add(f) }
func (b *BodyNode) AddExtTorque(t mgl64.Vec3) { b.extTorque = b.extTorque.Add(t) }

func (b *BodyNode) ClearExternalForces() {
	b.extForce, b.extTorque = mgl64.Vec3{}, mgl64.Vec3{}
}

// MoveTo replaces the parent joint of b. A nil parent means the world.
func (b *BodyNode) MoveTo(parent *BodyNode, props JointProperties) (*Joint, error) {
	if parent != nil {
		if parent.skel != b.skel {
			return nil, fmt.Errorf("dartsim: body nodes %q and %q are in different skeletons", parent.Name(), b.Name())
		}
		for p := parent; p != nil; p = p.parent {
			if p == b {
				return nil, fmt.Errorf("dartsim: moving %q under %q would create a loop", b.Name(), parent.Name())
			}
		}
	}
	if err := props.validate(); err != nil {
		return nil, err
	}
	if b.skel.IsBuilt() {
		x, err := b.WorldTransform()
		if err != nil {
			return nil, err
		}
		b.props.Transform = x
	}
	b.parent = parent
	b.parentJoint = newJoint(b.skel, props, b)
	b.skel.dirty = true
	return b.parentJoint, nil
}

// WorldTransform returns the centre of mass pose. Before the skeleton is
// built it is the initial pose.
func (b *BodyNode) WorldTransform() (common.Pose, error) {
	if !b.skel.IsBuilt() {
		return b.props.Transform, nil
	}
	if err := b.skel.ensure(); err != nil {
		return common.Pose{}, err
	}
	return b.skel.sys.BodyPose(b.skel.state, b.index), nil
}

func (b *BodyNode) Velocity() (lin, ang mgl64.Vec3, err error) {
	if !b.skel.IsBuilt() {
		return lin, ang, nil
	}
	if err := b.skel.ensure(); err != nil {
		return lin, ang, err
	}
	l, a := b.skel.sys.Velocities(b.skel.state)
	return l[b.index], a[b.index], nil
}

func (j *Joint) kind(mobile bool) multibody.Kind {
	switch j.props.Type {
	case RevoluteJoint:
		return multibody.Pin
	case PrismaticJoint:
		return multibody.Slider
	case UniversalJoint:
		return multibody.Universal
	case BallJoint:
		return multibody.Ball
	case FreeJoint:
		if !mobile {
			return multibody.Weld
		}
		return multibody.Free
	}
	return multibody.Weld
}

// build creates the multibody tree, parents first, and carries over the
// coordinates of joints that existed in the previous tree.
func (s *Skeleton) build() error {
	type saved struct{ q, u []float64 }
	prev := map[*Joint]saved{}
	if s.sys != nil {
		for _, b := range s.nodes {
			if b.index < 0 || b.builtJoint != b.parentJoint {
				continue
			}
			mb := s.sys.Body(b.index)
			if mb == nil || mb.Mobilizer.Kind != b.parentJoint.kind(s.mobile) {
				continue
			}
			nq, nu := mb.Mobilizer.Kind.NQ(), mb.Mobilizer.Kind.NU()
			prev[b.parentJoint] = saved{
				q: append([]float64(nil), s.state.Q[mb.QIndex():mb.QIndex()+nq]...),
				u: append([]float64(nil), s.state.U[mb.UIndex():mb.UIndex()+nu]...),
			}
		}
	}

	order := make([]*BodyNode, 0, len(s.nodes))
	placed := map[*BodyNode]bool{}
	for len(order) < len(s.nodes) {
		progress := false
		for _, b := range s.nodes {
			if placed[b] || (b.parent != nil && !placed[b.parent]) {
				continue
			}
			placed[b] = true
			order = append(order, b)
			progress = true
		}
		if !progress {
			return fmt.Errorf("dartsim: skeleton %q has a body node outside the tree", s.name)
		}
	}

	sys := multibody.NewSystem()
	for _, b := range order {
		j := b.parentJoint
		parent := multibody.Ground
		if b.parent != nil {
			parent = b.parent.index
		}
		inboard, outboard := j.props.TransformFromParent, j.props.TransformFromChild
		if j.props.Type == FreeJoint {
			inboard, outboard = common.PoseIdent(), common.PoseIdent()
			if !s.mobile {
				inboard = b.props.Transform
			}
		}
		idx, err := sys.AddBody(multibody.Body{
			Name:    b.props.Name,
			Mass:    b.props.Mass,
			Inertia: b.props.Inertia,
			Gravity: b.props.Gravity,
			Mobilizer: multibody.Mobilizer{
				Kind:          j.kind(s.mobile),
				Parent:        parent,
				InboardFrame:  inboard,
				OutboardFrame: outboard,
				Axis:          j.props.Axis,
				Axis2:         j.props.Axis2,
			},
		})
		if err != nil {
			return fmt.Errorf("dartsim: build skeleton %q: %w", s.name, err)
		}
		b.index = idx
		b.builtJoint = j
	}

	st := sys.DefaultState()
	for _, b := range order {
		j := b.parentJoint
		mb := sys.Body(b.index)
		if old, ok := prev[j]; ok {
			copy(st.Q[mb.QIndex():], old.q)
			copy(st.U[mb.UIndex():], old.u)
			continue
		}
		if mb.Mobilizer.Kind == multibody.Free {
			if err := sys.SetFreePose(st, b.index, b.props.Transform); err != nil {
				return err
			}
		}
	}
	s.sys, s.state, s.dirty = sys, st, false
	return nil
}

func (s *Skeleton) ensure() error {
	if s.sys == nil {
		return ErrNotBuilt
	}
	if s.dirty {
		return s.build()
	}
	return nil
}

func (s *Skeleton) step(dt float64, g mgl64.Vec3, iterations int) error {
	if err := s.ensure(); err != nil {
		return err
	}
	defer s.resetCommands()
	if !s.mobile {
		return nil
	}
	s.sys.Gravity = g
	nu := s.sys.NU()
	p := multibody.StepParams{
		Lower:      make([]float64, nu),
		Upper:      make([]float64, nu),
		Damping:    make([]float64, nu),
		Iterations: iterations,
	}
	for _, b := range s.nodes {
		j := b.parentJoint
		base := s.sys.Body(b.index).UIndex()
		for k := 0; k < j.NumDofs(); k++ {
			p.Lower[base+k], p.Upper[base+k] = -common.Unlimited, common.Unlimited
			if j.limitEnforced {
				p.Lower[base+k], p.Upper[base+k] = j.lower[k], j.upper[k]
			}
			p.Damping[base+k] = j.damping[k]
			s.state.MobilityForces[base+k] = common.Clamp(j.commands[k], j.forceLo[k], j.forceHi[k])
		}
		s.state.BodyForces[b.index] = b.extForce
		s.state.BodyTorques[b.index] = b.extTorque
	}
	return s.sys.Step(s.state, dt, p)
}

func (s *Skeleton) resetCommands() {
	if s.state != nil {
		s.state.ClearForces()
	}
	for _, b := range s.nodes {
		b.ClearExternalForces()
		for k := range b.parentJoint.commands {
			b.parentJoint.commands[k] = 0
		}
	}
}
