package opende

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// Hinge2Joint is a steering axis fixed to body 1 and a wheel axis fixed to
// body 2, with a soft suspension along the steering axis. Only the angle
// about the first axis is measurable.
type Hinge2Joint struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	ref1             mgl64.Vec3
	c0               float64
}

func NewHinge2Joint(w *World) *Hinge2Joint {
	j := &Hinge2Joint{axis1: mgl64.Vec3{0, 0, 1}, axis2: mgl64.Vec3{0, 1, 0}}
	j.init(w, j, 2)
	j.ref1 = j.axis2
	return j
}

func (j *Hinge2Joint) Type() JointType { return JointTypeHinge2 }

func (j *Hinge2Joint) SetAnchor(p mgl64.Vec3) { j.anchor1, j.anchor2 = j.anchors(p) }
func (j *Hinge2Joint) Anchor() mgl64.Vec3     { return j.rb1().PointToWorld(j.anchor1) }
func (j *Hinge2Joint) Anchor2() mgl64.Vec3    { return j.rb2().PointToWorld(j.anchor2) }

func (j *Hinge2Joint) SetAxis1(a mgl64.Vec3) {
	j.axis1 = j.rb1().VectorToLocal(common.Normalize(a))
	j.reference()
}

func (j *Hinge2Joint) SetAxis2(a mgl64.Vec3) {
	j.axis2 = j.rb2().VectorToLocal(common.Normalize(a))
	j.reference()
}

func (j *Hinge2Joint) reference() {
	a1, a2 := j.Axis1(), j.Axis2()
	j.c0 = a1.Dot(a2)
	j.ref1 = j.rb1().VectorToLocal(common.Normalize(a2.Sub(a1.Mul(j.c0))))
}

func (j *Hinge2Joint) Axis1() mgl64.Vec3 { return j.rb1().VectorToWorld(j.axis1) }
func (j *Hinge2Joint) Axis2() mgl64.Vec3 { return j.rb2().VectorToWorld(j.axis2) }

func (j *Hinge2Joint) Angle1() float64 {
	a1, a2 := j.Axis1(), j.Axis2()
	ref := j.rb1().VectorToWorld(j.ref1)
	proj := a2.Sub(a1.Mul(a1.Dot(a2)))
	return math.Atan2(ref.Cross(proj).Dot(a1), ref.Dot(proj))
}

func (j *Hinge2Joint) Angle1Rate() float64 { return j.relativeAngularVel(j.Axis1()) }
func (j *Hinge2Joint) Angle2Rate() float64 { return j.relativeAngularVel(j.Axis2()) }

func (j *Hinge2Joint) AddTorques(t1, t2 float64) {
	j.addTorque(j.Axis1().Mul(t1).Add(j.Axis2().Mul(t2)))
}

func (j *Hinge2Joint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	a1, a2 := j.Axis1(), j.Axis2()
	pa, pb := a.PointToWorld(j.anchor1), b.PointToWorld(j.anchor2)
	u, v := common.Perpendicular(a1)

	rows := rigid.PointRows(a, b, pa, pb, []mgl64.Vec3{a1}, j.suspensionParams(p.DT))
	rows = append(rows, rigid.PointRows(a, b, pa, pb, []mgl64.Vec3{u, v}, p)...)
	rows = append(rows, rigid.AngularRow(a, b, a1.Cross(a2).Mul(-1), a1.Dot(a2)-j.c0, p))
	rows = append(rows, j.limots[0].Rows(rigid.AngularTemplate(a, b, a1), j.Angle1(), p)...)

	// the wheel axis has no angle, so only its motor is used
	wheel := j.limots[1].Limit
	wheel.Lo, wheel.Hi = math.Inf(-1), math.Inf(1)
	return append(rows, wheel.Rows(rigid.AngularTemplate(a, b, a2), 0, p)...)
}
