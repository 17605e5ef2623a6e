package opende

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// UniversalJoint keeps axis 1 (fixed in body 1) perpendicular to axis 2
// (fixed in body 2) around a shared anchor.
type UniversalJoint struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	ref1, ref2       mgl64.Vec3
	c0               float64
}

func NewUniversalJoint(w *World) *UniversalJoint {
	j := &UniversalJoint{axis1: mgl64.Vec3{1, 0, 0}, axis2: mgl64.Vec3{0, 1, 0}}
	j.init(w, j, 2)
	j.ref1, j.ref2 = j.axis2, j.axis1
	return j
}

func (j *UniversalJoint) Type() JointType { return JointTypeUniversal }

func (j *UniversalJoint) SetAnchor(p mgl64.Vec3) { j.anchor1, j.anchor2 = j.anchors(p) }
func (j *UniversalJoint) Anchor() mgl64.Vec3     { return j.rb1().PointToWorld(j.anchor1) }
func (j *UniversalJoint) Anchor2() mgl64.Vec3    { return j.rb2().PointToWorld(j.anchor2) }

func (j *UniversalJoint) SetAxis1(a mgl64.Vec3) {
	j.axis1 = j.rb1().VectorToLocal(common.Normalize(a))
	j.reference()
}

func (j *UniversalJoint) SetAxis2(a mgl64.Vec3) {
	j.axis2 = j.rb2().VectorToLocal(common.Normalize(a))
	j.reference()
}

func (j *UniversalJoint) reference() {
	a1, a2 := j.Axis1(), j.Axis2()
	j.c0 = a1.Dot(a2)
	j.ref1 = j.rb1().VectorToLocal(common.Normalize(a2.Sub(a1.Mul(j.c0))))
	j.ref2 = j.rb2().VectorToLocal(common.Normalize(a1.Sub(a2.Mul(j.c0))))
}

func (j *UniversalJoint) Axis1() mgl64.Vec3 { return j.rb1().VectorToWorld(j.axis1) }
func (j *UniversalJoint) Axis2() mgl64.Vec3 { return j.rb2().VectorToWorld(j.axis2) }

func (j *UniversalJoint) Angle1() float64 {
	a1, a2 := j.Axis1(), j.Axis2()
	ref := j.rb1().VectorToWorld(j.ref1)
	proj := a2.Sub(a1.Mul(a1.Dot(a2)))
	return math.Atan2(ref.Cross(proj).Dot(a1), ref.Dot(proj))
}

func (j *UniversalJoint) Angle2() float64 {
	a1, a2 := j.Axis1(), j.Axis2()
	ref := j.rb2().VectorToWorld(j.ref2)
	proj := a1.Sub(a2.Mul(a1.Dot(a2)))
	return -math.Atan2(ref.Cross(proj).Dot(a2), ref.Dot(proj))
}

func (j *UniversalJoint) Angle1Rate() float64 { return j.relativeAngularVel(j.Axis1()) }
func (j *UniversalJoint) Angle2Rate() float64 { return j.relativeAngularVel(j.Axis2()) }

func (j *UniversalJoint) AddTorques(t1, t2 float64) {
	j.addTorque(j.Axis1().Mul(t1).Add(j.Axis2().Mul(t2)))
}

func (j *UniversalJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	a1, a2 := j.Axis1(), j.Axis2()
	rows := rigid.PointRows(a, b, a.PointToWorld(j.anchor1), b.PointToWorld(j.anchor2), rigid.Axes(), p)
	rows = append(rows, rigid.AngularRow(a, b, a1.Cross(a2).Mul(-1), a1.Dot(a2)-j.c0, p))
	rows = append(rows, j.limots[0].Rows(rigid.AngularTemplate(a, b, a1), j.Angle1(), p)...)
	return append(rows, j.limots[1].Rows(rigid.AngularTemplate(a, b, a2), j.Angle2(), p)...)
}
