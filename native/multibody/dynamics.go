package multibody

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/milk9111/jointsim/common"
)

// column is one generalized speed's effect: angular velocity hw and linear
// velocity hv of the point o, for every body outboard of owner.
type column struct {
	owner  int
	hw, hv mgl64.Vec3
	o      mgl64.Vec3
}

func (s *System) columns(q []float64, fr []frames) []column {
	cols := make([]column, 0, s.nu)
	for i, b := range s.bodies {
		m := b.Mobilizer
		rf := fr[i].F
		o := rf.Pos
		switch m.Kind {
		case Pin:
			cols = append(cols, column{owner: i, hw: rf.RotateVector(m.Axis), o: o})
		case Slider:
			cols = append(cols, column{owner: i, hv: rf.RotateVector(m.Axis), o: o})
		case Screw:
			ax := rf.RotateVector(m.Axis)
			cols = append(cols, column{owner: i, hw: ax, hv: ax.Mul(1 / m.Pitch), o: o})
		case Universal:
			a2 := mgl64.QuatRotate(q[b.qIndex], m.Axis).Rotate(m.Axis2)
			cols = append(cols,
				column{owner: i, hw: rf.RotateVector(m.Axis), o: o},
				column{owner: i, hw: rf.RotateVector(a2), o: o})
		case Ball:
			for _, e := range unitAxes {
				cols = append(cols, column{owner: i, hw: rf.RotateVector(e), o: o})
			}
		case Free:
			for _, e := range unitAxes {
				cols = append(cols, column{owner: i, hv: rf.RotateVector(e), o: o})
			}
			for _, e := range unitAxes {
				cols = append(cols, column{owner: i, hw: rf.RotateVector(e), o: fr[i].M.Pos})
			}
		}
	}
	return cols
}

var unitAxes = []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// outboard reports whether body b is owner or one of its descendants.
func (s *System) outboard(owner, b int) bool {
	for b != Ground {
		if b == owner {
			return true
		}
		b = s.bodies[b].Mobilizer.Parent
	}
	return false
}

// jacobians returns, per body, the linear (at the centre of mass) and
// angular velocity contributed by each generalized speed.
func (s *System) jacobians(cols []column, fr []frames) (jv, jw [][]mgl64.Vec3) {
	jv = make([][]mgl64.Vec3, len(s.bodies))
	jw = make([][]mgl64.Vec3, len(s.bodies))
	for b := range s.bodies {
		jv[b] = make([]mgl64.Vec3, len(cols))
		jw[b] = make([]mgl64.Vec3, len(cols))
		com := fr[b].B.Pos
		for k, c := range cols {
			if !s.outboard(c.owner, b) {
				continue
			}
			jv[b][k] = c.hv.Add(c.hw.Cross(com.Sub(c.o)))
			jw[b][k] = c.hw
		}
	}
	return jv, jw
}

// Velocities returns every body's centre of mass linear velocity and angular
// velocity in the ground frame.
func (s *System) Velocities(st *State) (lin, ang []mgl64.Vec3) {
	fr := s.kinematics(st.Q)
	jv, jw := s.jacobians(s.columns(st.Q, fr), fr)
	lin = make([]mgl64.Vec3, len(s.bodies))
	ang = make([]mgl64.Vec3, len(s.bodies))
	for b := range s.bodies {
		for k, u := range st.U {
			lin[b] = lin[b].Add(jv[b][k].Mul(u))
			ang[b] = ang[b].Add(jw[b][k].Mul(u))
		}
	}
	return lin, ang
}

// StepParams are per-speed limits and damping applied during a step. Nil
// slices mean no limits or damping. Limits apply to scalar speeds only.
type StepParams struct {
	Lower, Upper []float64
	Damping      []float64
	ERP          float64
	Iterations   int
}

// Step advances st by dt with linearly implicit damping and velocity-level
// unilateral limits. Gyroscopic terms are included, other velocity product
// terms are not. Applied forces are left in place.
func (s *System) Step(st *State, dt float64, p StepParams) error {
	if dt <= 0 {
		return nil
	}
	n := s.nu
	if n == 0 {
		st.Time += dt
		return nil
	}
	fr := s.kinematics(st.Q)
	cols := s.columns(st.Q, fr)
	jv, jw := s.jacobians(cols, fr)

	M := mat.NewDense(n, n, nil)
	tau := make([]float64, n)
	copy(tau, st.MobilityForces)

	for b, body := range s.bodies {
		rot := fr[b].B.Rot.Mat4().Mat3()
		iw := rot.Mul3(mgl64.Diag3(body.Inertia)).Mul3(rot.Transpose())

		var vb, wb mgl64.Vec3
		for k, u := range st.U {
			vb = vb.Add(jv[b][k].Mul(u))
			wb = wb.Add(jw[b][k].Mul(u))
		}
		f := st.BodyForces[b]
		if body.Gravity {
			f = f.Add(s.Gravity.Mul(body.Mass))
		}
		t := st.BodyTorques[b].Sub(wb.Cross(iw.Mul3x1(wb)))

		for i := 0; i < n; i++ {
			if jv[b][i] == (mgl64.Vec3{}) && jw[b][i] == (mgl64.Vec3{}) {
				continue
			}
			tau[i] += jv[b][i].Dot(f) + jw[b][i].Dot(t)
			iwi := iw.Mul3x1(jw[b][i])
			for j := 0; j < n; j++ {
				v := body.Mass*jv[b][i].Dot(jv[b][j]) + iwi.Dot(jw[b][j])
				if v != 0 {
					M.Set(i, j, M.At(i, j)+v)
				}
			}
		}
	}

	A := mat.DenseCopyOf(M)
	for i := 0; i < n; i++ {
		d := 1e-12
		if i < len(p.Damping) && p.Damping[i] > 0 {
			d += dt * p.Damping[i]
		}
		A.Set(i, i, A.At(i, i)+d)
	}

	rhs := mat.NewVecDense(n, nil)
	rhs.MulVec(M, mat.NewVecDense(n, append([]float64(nil), st.U...)))
	for i := 0; i < n; i++ {
		rhs.SetVec(i, rhs.AtVec(i)+dt*tau[i])
	}

	var W mat.Dense
	if err := W.Inverse(A); err != nil {
		if c, ok := err.(mat.Condition); !ok || math.IsInf(float64(c), 1) {
			return fmt.Errorf("multibody: step: singular mass matrix: %w", err)
		}
	}
	var u mat.VecDense
	u.MulVec(&W, rhs)

	s.enforceLimits(st, &u, &W, dt, p)

	for i := 0; i < n; i++ {
		st.U[i] = u.AtVec(i)
	}
	s.integrateQ(st, dt)
	st.Time += dt
	return nil
}

type limitRow struct {
	u      int
	target float64
	lo, hi float64
	lambda float64
}

func (s *System) enforceLimits(st *State, u *mat.VecDense, W *mat.Dense, dt float64, p StepParams) {
	if p.Lower == nil && p.Upper == nil {
		return
	}
	erp := p.ERP
	if erp <= 0 {
		erp = 0.2
	}
	var rows []limitRow
	for _, b := range s.bodies {
		if !b.Mobilizer.Kind.Scalar() {
			continue
		}
		for k := 0; k < b.Mobilizer.Kind.NU(); k++ {
			ui, qi := b.uIndex+k, b.qIndex+k
			pos := st.Q[qi]
			lo, hi := math.Inf(-1), math.Inf(1)
			if ui < len(p.Lower) {
				lo = p.Lower[ui]
			}
			if ui < len(p.Upper) {
				hi = p.Upper[ui]
			}
			if lo > hi {
				continue
			}
			if common.IsLimited(hi) {
				target := (hi - pos) / dt
				if pos > hi {
					target = erp * (hi - pos) / dt
				}
				rows = append(rows, limitRow{u: ui, target: target, lo: math.Inf(-1), hi: 0})
			}
			if common.IsLimited(lo) {
				target := (lo - pos) / dt
				if pos < lo {
					target = erp * (lo - pos) / dt
				}
				rows = append(rows, limitRow{u: ui, target: target, lo: 0, hi: math.Inf(1)})
			}
		}
	}
	if len(rows) == 0 {
		return
	}
	iters := p.Iterations
	if iters <= 0 {
		iters = 20
	}
	n := u.Len()
	for it := 0; it < iters; it++ {
		for r := range rows {
			row := &rows[r]
			wii := W.At(row.u, row.u)
			if wii <= 1e-14 {
				continue
			}
			delta := (row.target - u.AtVec(row.u)) / wii
			next := common.Clamp(row.lambda+delta, row.lo, row.hi)
			delta = next - row.lambda
			row.lambda = next
			if delta == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				u.SetVec(i, u.AtVec(i)+W.At(i, row.u)*delta)
			}
		}
	}
}

func (s *System) integrateQ(st *State, dt float64) {
	for _, b := range s.bodies {
		qi, ui := b.qIndex, b.uIndex
		switch b.Mobilizer.Kind {
		case Pin, Slider, Screw, Universal:
			for k := 0; k < b.Mobilizer.Kind.NU(); k++ {
				st.Q[qi+k] += dt * st.U[ui+k]
			}
		case Ball:
			integrateQuat(st.Q, qi, mgl64.Vec3{st.U[ui], st.U[ui+1], st.U[ui+2]}, dt)
		case Free:
			for k := 0; k < 3; k++ {
				st.Q[qi+k] += dt * st.U[ui+k]
			}
			integrateQuat(st.Q, qi+3, mgl64.Vec3{st.U[ui+3], st.U[ui+4], st.U[ui+5]}, dt)
		}
	}
}

func integrateQuat(q []float64, i int, w mgl64.Vec3, dt float64) {
	r := quatAt(q, i)
	r = r.Add(mgl64.Quat{V: w}.Mul(r).Scale(0.5 * dt)).Normalize()
	setQuat(q, i, r)
}

// SetFreePose places a Free-mobilized body at the ground-frame pose x.
func (s *System) SetFreePose(st *State, i int, x common.Pose) error {
	b := s.Body(i)
	if b == nil || b.Mobilizer.Kind != Free {
		return fmt.Errorf("multibody: body %d is not free", i)
	}
	fr := s.kinematics(st.Q)
	xfm := fr[i].F.Inverse().Compose(x).Compose(b.Mobilizer.OutboardFrame)
	st.Q[b.qIndex], st.Q[b.qIndex+1], st.Q[b.qIndex+2] = xfm.Pos[0], xfm.Pos[1], xfm.Pos[2]
	setQuat(st.Q, b.qIndex+3, xfm.Rot)
	return nil
}

// SetFreeVelocity sets a Free-mobilized body's centre of mass velocity and
// angular velocity, both in the ground frame and relative to its parent.
func (s *System) SetFreeVelocity(st *State, i int, lin, ang mgl64.Vec3) error {
	b := s.Body(i)
	if b == nil || b.Mobilizer.Kind != Free {
		return fmt.Errorf("multibody: body %d is not free", i)
	}
	fr := s.kinematics(st.Q)
	vm := lin.Add(ang.Cross(fr[i].M.Pos.Sub(fr[i].B.Pos)))
	vl := fr[i].F.InverseRotateVector(vm)
	wl := fr[i].F.InverseRotateVector(ang)
	for k := 0; k < 3; k++ {
		st.U[b.uIndex+k] = vl[k]
		st.U[b.uIndex+3+k] = wl[k]
	}
	return nil
}
