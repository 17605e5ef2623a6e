package simtk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type forceElement interface {
	initState(st *State)
}

// GeneralForceSubsystem holds the force elements of a system.
type GeneralForceSubsystem struct {
	sys      *MultibodySystem
	elements []forceElement
	nextID   int
}

func (g *GeneralForceSubsystem) add(e forceElement) int {
	g.nextID++
	g.elements = append(g.elements, e)
	g.sys.invalidate()
	return g.nextID
}

// DiscreteForces are forces set directly in a State and held until cleared.
type DiscreteForces struct {
	forces *GeneralForceSubsystem
}

func NewDiscreteForces(forces *GeneralForceSubsystem) *DiscreteForces {
	return &DiscreteForces{forces: forces}
}

// SetOneMobilityForce replaces the generalized force on mobility which of mobod.
func (d *DiscreteForces) SetOneMobilityForce(st *State, mobod *MobilizedBody, which int, f float64) error {
	k, err := mobod.coord(st, which, false)
	if err != nil {
		return err
	}
	st.mb.MobilityForces[k] = f
	return nil
}

func (d *DiscreteForces) OneMobilityForce(st *State, mobod *MobilizedBody, which int) (float64, error) {
	k, err := mobod.coord(st, which, false)
	if err != nil {
		return math.NaN(), err
	}
	return st.mb.MobilityForces[k], nil
}

// AddInBodyForce adds a torque and a force at the centre of mass, in ground.
func (d *DiscreteForces) AddInBodyForce(st *State, mobod *MobilizedBody, torque, force mgl64.Vec3) error {
	if err := st.check(); err != nil {
		return err
	}
	if mobod.IsGround() {
		return nil
	}
	st.mb.BodyForces[mobod.index] = st.mb.BodyForces[mobod.index].Add(force)
	st.mb.BodyTorques[mobod.index] = st.mb.BodyTorques[mobod.index].Add(torque)
	return nil
}

func (d *DiscreteForces) ClearAllForces(st *State) error {
	if err := st.check(); err != nil {
		return err
	}
	st.mb.ClearForces()
	return nil
}

// MobilityLinearStop limits one mobility to [lower, upper]. The bounds are
// instance variables of the State.
type MobilityLinearStop struct {
	id           int
	mobod        *MobilizedBody
	which        int
	defLo, defHi float64
}

func NewMobilityLinearStop(forces *GeneralForceSubsystem, mobod *MobilizedBody, which int, lower, upper float64) *MobilityLinearStop {
	s := &MobilityLinearStop{mobod: mobod, which: which, defLo: lower, defHi: upper}
	s.id = forces.add(s)
	return s
}

func (s *MobilityLinearStop) initState(st *State) {
	st.vars[s.loKey()] = s.defLo
	st.vars[s.hiKey()] = s.defHi
}

func (s *MobilityLinearStop) loKey() int { return 2 * s.id }
func (s *MobilityLinearStop) hiKey() int { return 2*s.id + 1 }

func (s *MobilityLinearStop) Mobod() *MobilizedBody { return s.mobod }
func (s *MobilityLinearStop) Which() int            { return s.which }

// SetBounds sets both stops; lower must not exceed upper.
func (s *MobilityLinearStop) SetBounds(st *State, lower, upper float64) error {
	if err := st.check(); err != nil {
		return err
	}
	if lower > upper {
		return fmt.Errorf("simtk: stop bounds lower %g > upper %g", lower, upper)
	}
	st.vars[s.loKey()] = lower
	st.vars[s.hiKey()] = upper
	return nil
}

func (s *MobilityLinearStop) LowerBound(st *State) (float64, error) {
	if err := st.check(); err != nil {
		return math.NaN(), err
	}
	return st.vars[s.loKey()], nil
}

func (s *MobilityLinearStop) UpperBound(st *State) (float64, error) {
	if err := st.check(); err != nil {
		return math.NaN(), err
	}
	return st.vars[s.hiKey()], nil
}

// MobilityLinearDamper applies -c*u to one mobility. The coefficient is an
// instance variable of the State.
type MobilityLinearDamper struct {
	id    int
	mobod *MobilizedBody
	which int
	def   float64
}

func NewMobilityLinearDamper(forces *GeneralForceSubsystem, mobod *MobilizedBody, which int, damping float64) *MobilityLinearDamper {
	d := &MobilityLinearDamper{mobod: mobod, which: which, def: damping}
	d.id = forces.add(d)
	return d
}

func (d *MobilityLinearDamper) initState(st *State) { st.vars[-d.id] = d.def }

func (d *MobilityLinearDamper) SetDamping(st *State, c float64) error {
	if err := st.check(); err != nil {
		return err
	}
	if c < 0 {
		return fmt.Errorf("simtk: negative damping %g", c)
	}
	st.vars[-d.id] = c
	return nil
}

func (d *MobilityLinearDamper) Damping(st *State) (float64, error) {
	if err := st.check(); err != nil {
		return math.NaN(), err
	}
	return st.vars[-d.id], nil
}
