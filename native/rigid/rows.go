package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

// Params are the error reduction and constraint force mixing used to build rows.
type Params struct {
	ERP float64
	CFM float64
	DT  float64
}

func (p Params) bias() float64 {
	if p.DT <= 0 {
		return 0
	}
	return p.ERP / p.DT
}

// PointRows keeps the world points pa (fixed in a) and pb (fixed in b) together
// along each of dirs.
func PointRows(a, b *Body, pa, pb mgl64.Vec3, dirs []mgl64.Vec3, p Params) []*Row {
	ra := pa.Sub(a.Pos)
	rb := pb.Sub(b.Pos)
	errv := pb.Sub(pa)
	rows := make([]*Row, 0, len(dirs))
	for _, e := range dirs {
		r := NewRow(a, b)
		r.LinA = e.Mul(-1)
		r.AngA = ra.Cross(e).Mul(-1)
		r.LinB = e
		r.AngB = rb.Cross(e)
		r.RHS = -p.bias() * errv.Dot(e)
		r.CFM = p.CFM
		rows = append(rows, r)
	}
	return rows
}

// Axes returns the world basis vectors.
func Axes() []mgl64.Vec3 {
	return []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// AngularRow constrains the relative angular velocity of b with respect to a
// about e to drive the rotation error err (radians about e) to zero.
func AngularRow(a, b *Body, e mgl64.Vec3, err float64, p Params) *Row {
	r := NewRow(a, b)
	r.AngA = e.Mul(-1)
	r.AngB = e
	r.RHS = -p.bias() * err
	r.CFM = p.CFM
	return r
}

// AlignRows keeps axis aa (world, fixed in a) and ab (world, fixed in b)
// parallel using two rows perpendicular to aa.
func AlignRows(a, b *Body, aa, ab mgl64.Vec3, p Params) []*Row {
	u, v := common.Perpendicular(aa)
	// rotation that takes ab onto aa
	corr := ab.Cross(aa)
	return []*Row{
		AngularRow(a, b, u, -corr.Dot(u), p),
		AngularRow(a, b, v, -corr.Dot(v), p),
	}
}

// LockRows keeps the relative orientation of a and b equal to rel0 = qa^-1 * qb.
func LockRows(a, b *Body, rel0 mgl64.Quat, p Params) []*Row {
	errv := OrientationError(a, b, rel0)
	rows := make([]*Row, 0, 3)
	for _, e := range Axes() {
		rows = append(rows, AngularRow(a, b, e, errv.Dot(e), p))
	}
	return rows
}

// OrientationError returns the small-angle rotation vector (world frame) by
// which b has turned relative to a since the relative orientation was rel0.
func OrientationError(a, b *Body, rel0 mgl64.Quat) mgl64.Vec3 {
	rel := a.Rot.Conjugate().Mul(b.Rot)
	d := rel.Mul(rel0.Conjugate())
	if d.W < 0 {
		d = d.Scale(-1)
	}
	return a.Rot.Rotate(d.V.Mul(2))
}

// RelativeAngle returns the rotation of b relative to a about axisA (a's
// local frame) since their relative orientation was rel0.
func RelativeAngle(a, b *Body, rel0 mgl64.Quat, axisA mgl64.Vec3) float64 {
	rel := a.Rot.Conjugate().Mul(b.Rot)
	d := rel.Mul(rel0.Conjugate())
	return common.SkewAngle(d, axisA)
}

// Limit describes one joint DOF's stops and motor.
type Limit struct {
	Lo, Hi      float64
	Vel, FMax   float64
	Bounce      float64
	StopERP     float64
	StopCFM     float64
	FudgeFactor float64
}

// NewLimit returns an unlimited, unpowered DOF.
func NewLimit() Limit {
	return Limit{Lo: -math.Inf(1), Hi: math.Inf(1), FudgeFactor: 1, StopERP: -1}
}

func (l Limit) HasStops() bool {
	return common.IsLimited(l.Lo) || common.IsLimited(l.Hi)
}

// Rows returns the motor and stop rows for a DOF at position pos. tmpl
// supplies the Jacobian; its RHS and bounds are overwritten.
func (l Limit) Rows(tmpl Row, pos float64, p Params) []*Row {
	var rows []*Row
	if l.FMax > 0 {
		r := tmpl
		r.RHS = l.Vel
		imp := l.FMax * p.DT * l.FudgeFactor
		r.Lo, r.Hi = -imp, imp
		r.CFM = p.CFM
		rows = append(rows, &r)
	}
	if l.Lo > l.Hi {
		return rows
	}
	erp := p.ERP
	if l.StopERP >= 0 {
		erp = l.StopERP
	}
	cfm := p.CFM
	if l.StopCFM > 0 {
		cfm = l.StopCFM
	}
	if p.DT <= 0 {
		return rows
	}
	vel := tmpl.Velocity()
	if common.IsLimited(l.Hi) {
		r := tmpl
		r.CFM = cfm
		r.Lo, r.Hi = math.Inf(-1), 0
		if pos <= l.Hi {
			r.RHS = (l.Hi - pos) / p.DT
		} else {
			r.RHS = erp * (l.Hi - pos) / p.DT
			if l.Bounce > 0 && vel > 0 {
				r.RHS = math.Min(r.RHS, -l.Bounce*vel)
			}
		}
		rows = append(rows, &r)
	}
	if common.IsLimited(l.Lo) {
		r := tmpl
		r.CFM = cfm
		r.Lo, r.Hi = 0, math.Inf(1)
		if pos >= l.Lo {
			r.RHS = (l.Lo - pos) / p.DT
		} else {
			r.RHS = erp * (l.Lo - pos) / p.DT
			if l.Bounce > 0 && vel < 0 {
				r.RHS = math.Max(r.RHS, -l.Bounce*vel)
			}
		}
		rows = append(rows, &r)
	}
	return rows
}

// AngularTemplate is the Jacobian for relative rotation of b about e.
func AngularTemplate(a, b *Body, e mgl64.Vec3) Row {
	return Row{A: a, B: b, AngA: e.Mul(-1), AngB: e}
}

// LinearTemplate is the Jacobian for relative sliding of b along e, measured
// at world point pb fixed in b.
func LinearTemplate(a, b *Body, e, pb mgl64.Vec3) Row {
	ra := pb.Sub(a.Pos)
	rb := pb.Sub(b.Pos)
	return Row{
		A: a, B: b,
		LinA: e.Mul(-1), AngA: ra.Cross(e).Mul(-1),
		LinB: e, AngB: rb.Cross(e),
	}
}
