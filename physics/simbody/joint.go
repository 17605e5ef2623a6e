package simbody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/simtk"
	"github.com/milk9111/jointsim/physics"
)

// mobilizer is a joint kind the engine can turn into a mobilized body.
type mobilizer interface {
	physics.Joint
	ApplyConfig()
	InitialAnchor() mgl64.Vec3
	base() *joint
	mobilize(parent *simtk.MobilizedBody, xPF simtk.Transform, mass simtk.MassProperties, xBM simtk.Transform) *simtk.MobilizedBody
}

// forceOwner joints add stop and damper elements to every new system.
type forceOwner interface {
	addForces(g *simtk.GeneralForceSubsystem)
}

type joint struct {
	physics.Unsupported
	engine        *Engine
	parent, child *Link
	mobod         *simtk.MobilizedBody
	configured    bool
}

func (j *joint) base() *joint { return j }

// DeferConfig leaves stops and damping to the engine, which applies them
// once the tree is realized.
func (j *joint) DeferConfig() bool { return true }

func (j *joint) attach(self mobilizer, parent, child physics.Link) error {
	p, ok := parent.(*Link)
	c, ok2 := child.(*Link)
	if !ok || !ok2 {
		return fmt.Errorf("%w: links do not belong to the %s engine", physics.ErrNilLink, Name)
	}
	if c == j.engine.ground || c.Static() {
		return fmt.Errorf("child link %q is static", c.Name())
	}
	j.parent, j.child = p, c
	j.configured = false
	j.engine.addJoint(self)
	return nil
}

func (j *joint) DetachImpl() {
	j.engine.removeJoint(j)
	j.parent, j.child, j.mobod = nil, nil, nil
}

// state returns the advanced state once the joint is part of a realized tree.
func (j *joint) state() (*simtk.State, error) {
	if j.mobod == nil {
		return nil, physics.ErrNotInitialized
	}
	st := j.engine.state()
	if st == nil {
		return nil, physics.ErrNotInitialized
	}
	return st, nil
}

// dofJoint is a joint with scalar mobilities: pin, slider, screw and
// universal. Stops and damping are kept here so they survive rebuilds.
type dofJoint struct {
	joint
	stops   []*simtk.MobilityLinearStop
	dampers []*simtk.MobilityLinearDamper
	lo, hi  [2]float64
	damping [2]float64
}

func (j *dofJoint) initDofs() {
	j.lo = [2]float64{-common.Unlimited, -common.Unlimited}
	j.hi = [2]float64{common.Unlimited, common.Unlimited}
}

func (j *dofJoint) addForces(g *simtk.GeneralForceSubsystem) {
	j.stops, j.dampers = nil, nil
	for i := 0; i < j.mobod.NumU(); i++ {
		j.stops = append(j.stops, simtk.NewMobilityLinearStop(g, j.mobod, i, j.lo[i], j.hi[i]))
		j.dampers = append(j.dampers, simtk.NewMobilityLinearDamper(g, j.mobod, i, j.damping[i]))
	}
}

func (j *dofJoint) AxisImpl(i int) (mgl64.Vec3, error) {
	st, err := j.state()
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return j.mobod.MobilizerAxis(st, i)
}

func (j *dofJoint) SetAxisImpl(i int, v mgl64.Vec3) error {
	j.engine.ctx.Logger.Debug("simbody mobilizer axes are fixed in the topology", "index", i, "axis", v)
	return physics.NotImplemented("set axis on %s", Name)
}

func (j *dofJoint) AngleImpl(i int) (float64, error) {
	st, err := j.state()
	if err != nil {
		return 0, err
	}
	return j.mobod.OneQ(st, i)
}

func (j *dofJoint) VelocityImpl(i int) (float64, error) {
	st, err := j.state()
	if err != nil {
		return 0, err
	}
	return j.mobod.OneU(st, i)
}

func (j *dofJoint) SetVelocityImpl(i int, v float64) error {
	st, err := j.state()
	if err != nil {
		return err
	}
	return j.mobod.SetOneU(st, i, v)
}

func (j *dofJoint) SetForceImpl(i int, f float64) error {
	st, err := j.state()
	if err != nil {
		return err
	}
	return j.engine.forces.SetOneMobilityForce(st, j.mobod, i, f)
}

func (j *dofJoint) HighStopImpl(i int) (float64, error) {
	st, err := j.state()
	if err != nil {
		return 0, err
	}
	return j.stops[i].UpperBound(st)
}

func (j *dofJoint) LowStopImpl(i int) (float64, error) {
	st, err := j.state()
	if err != nil {
		return 0, err
	}
	return j.stops[i].LowerBound(st)
}

func (j *dofJoint) setBounds(i int, lo, hi float64) error {
	st, err := j.state()
	if err != nil {
		return err
	}
	if err := j.stops[i].SetBounds(st, lo, hi); err != nil {
		return err
	}
	j.lo[i], j.hi[i] = lo, hi
	return nil
}

func (j *dofJoint) SetHighStopImpl(i int, a float64) error { return j.setBounds(i, j.lo[i], a) }
func (j *dofJoint) SetLowStopImpl(i int, a float64) error  { return j.setBounds(i, a, j.hi[i]) }

func (j *dofJoint) MaxForceImpl(int) (float64, error) { return 0, nil }

func (j *dofJoint) SetMaxForceImpl(i int, f float64) error {
	j.engine.ctx.Logger.Debug("max force is meaningless for simbody mobilizers", "index", i, "force", f)
	return nil
}

func (j *dofJoint) DampingMode(int) physics.DampingMode { return physics.DampingNative }

func (j *dofJoint) SetDampingImpl(i int, d float64) error {
	st, err := j.state()
	if err != nil {
		return err
	}
	if err := j.dampers[i].SetDamping(st, d); err != nil {
		return err
	}
	j.damping[i] = d
	return nil
}
