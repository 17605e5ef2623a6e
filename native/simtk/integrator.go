package simtk

import (
	"errors"
	"math"

	"github.com/milk9111/jointsim/native/multibody"
)

// ErrNotInitialized is returned when stepping an integrator before Initialize.
var ErrNotInitialized = errors.New("simtk: integrator not initialized")

// Integrator advances a copy of an initial State. The advanced state is nil
// until Initialize succeeds.
type Integrator struct {
	sys        *MultibodySystem
	state      *State
	iterations int
	erp        float64
}

// NewIntegrator returns a semi-explicit Euler integrator with implicit damping.
func NewIntegrator(sys *MultibodySystem) *Integrator {
	return &Integrator{sys: sys, iterations: 20, erp: 0.2}
}

func (in *Integrator) Initialize(st *State) error {
	if err := st.check(); err != nil {
		return err
	}
	in.state = st.Clone()
	return nil
}

func (in *Integrator) IsInitialized() bool {
	return in.state != nil && in.state.check() == nil
}

// AdvancedState returns the integrator's state, or nil before Initialize.
func (in *Integrator) AdvancedState() *State {
	if !in.IsInitialized() {
		return nil
	}
	return in.state
}

func (in *Integrator) Time() float64 {
	if in.state == nil {
		return 0
	}
	return in.state.Time()
}

func (in *Integrator) SetConstraintIterations(n int) {
	if n > 0 {
		in.iterations = n
	}
}

// SetStopERP sets the fraction of stop violation corrected per step.
func (in *Integrator) SetStopERP(erp float64) {
	if erp > 0 && erp <= 1 {
		in.erp = erp
	}
}

// StepBy advances the advanced state by dt.
func (in *Integrator) StepBy(dt float64) error {
	if !in.IsInitialized() {
		return ErrNotInitialized
	}
	st := in.state
	nu := st.NU()
	p := multibody.StepParams{Iterations: in.iterations, ERP: in.erp}
	for _, e := range in.sys.forces.elements {
		switch f := e.(type) {
		case *MobilityLinearStop:
			k, err := f.mobod.coord(st, f.which, false)
			if err != nil {
				return err
			}
			if p.Lower == nil {
				p.Lower = filled(nu, math.Inf(-1))
				p.Upper = filled(nu, math.Inf(1))
			}
			p.Lower[k] = math.Max(p.Lower[k], st.vars[f.loKey()])
			p.Upper[k] = math.Min(p.Upper[k], st.vars[f.hiKey()])
		case *MobilityLinearDamper:
			k, err := f.mobod.coord(st, f.which, false)
			if err != nil {
				return err
			}
			if p.Damping == nil {
				p.Damping = make([]float64, nu)
			}
			p.Damping[k] += st.vars[-f.id]
		}
	}
	return in.sys.sys.Step(st.mb, dt, p)
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
