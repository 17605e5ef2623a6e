package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Row is one scalar velocity constraint J*v = RHS between two bodies, solved
// for an impulse Lambda clamped to [Lo, Hi]. B may be nil for a row against
// the static world.
type Row struct {
	A, B       *Body
	LinA, AngA mgl64.Vec3
	LinB, AngB mgl64.Vec3

	RHS    float64
	CFM    float64
	Lo, Hi float64

	Lambda float64

	mLinA, mAngA mgl64.Vec3
	mLinB, mAngB mgl64.Vec3
	denom        float64
}

// NewRow returns an equality row with unbounded impulse.
func NewRow(a, b *Body) *Row {
	return &Row{A: a, B: b, Lo: math.Inf(-1), Hi: math.Inf(1)}
}

func (r *Row) prepare() {
	r.denom = r.CFM
	if a := r.A; a != nil && !a.Static() {
		r.mLinA = r.LinA.Mul(a.InvMass())
		r.mAngA = a.InvInertiaWorld().Mul3x1(r.AngA)
		r.denom += r.LinA.Dot(r.mLinA) + r.AngA.Dot(r.mAngA)
	}
	if b := r.B; b != nil && !b.Static() {
		r.mLinB = r.LinB.Mul(b.InvMass())
		r.mAngB = b.InvInertiaWorld().Mul3x1(r.AngB)
		r.denom += r.LinB.Dot(r.mLinB) + r.AngB.Dot(r.mAngB)
	}
}

// Velocity returns J*v for the current body velocities.
func (r *Row) Velocity() float64 {
	v := 0.0
	if r.A != nil {
		v += r.LinA.Dot(r.A.LinVel) + r.AngA.Dot(r.A.AngVel)
	}
	if r.B != nil {
		v += r.LinB.Dot(r.B.LinVel) + r.AngB.Dot(r.B.AngVel)
	}
	return v
}

func (r *Row) apply(impulse float64) {
	if a := r.A; a != nil && !a.Static() {
		a.LinVel = a.LinVel.Add(r.mLinA.Mul(impulse))
		a.AngVel = a.AngVel.Add(r.mAngA.Mul(impulse))
	}
	if b := r.B; b != nil && !b.Static() {
		b.LinVel = b.LinVel.Add(r.mLinB.Mul(impulse))
		b.AngVel = b.AngVel.Add(r.mAngB.Mul(impulse))
	}
}

// Solve runs projected Gauss-Seidel over rows, updating body velocities in place.
func Solve(rows []*Row, iterations int) {
	for _, r := range rows {
		r.prepare()
		r.Lambda = 0
	}
	for it := 0; it < iterations; it++ {
		for _, r := range rows {
			if r.denom < 1e-14 {
				continue
			}
			delta := (r.RHS - r.Velocity() - r.CFM*r.Lambda) / r.denom
			next := r.Lambda + delta
			if next < r.Lo {
				next = r.Lo
			} else if next > r.Hi {
				next = r.Hi
			}
			delta = next - r.Lambda
			r.Lambda = next
			if delta != 0 {
				r.apply(delta)
			}
		}
	}
}

// Wrench is the force and torque a set of rows applied to each body.
type Wrench struct {
	ForceA, TorqueA mgl64.Vec3
	ForceB, TorqueB mgl64.Vec3
}

// Accumulate adds the constraint force of rows over a step of length dt.
// Torques are about each body's centre of mass.
func (w *Wrench) Accumulate(rows []*Row, dt float64) {
	if dt <= 0 {
		return
	}
	for _, r := range rows {
		f := r.Lambda / dt
		w.ForceA = w.ForceA.Add(r.LinA.Mul(f))
		w.TorqueA = w.TorqueA.Add(r.AngA.Mul(f))
		w.ForceB = w.ForceB.Add(r.LinB.Mul(f))
		w.TorqueB = w.TorqueB.Add(r.AngB.Mul(f))
	}
}
