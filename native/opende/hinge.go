package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

type HingeJoint struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	qrel             mgl64.Quat
}

func NewHingeJoint(w *World) *HingeJoint {
	j := &HingeJoint{axis1: mgl64.Vec3{0, 0, 1}, axis2: mgl64.Vec3{0, 0, 1}, qrel: mgl64.QuatIdent()}
	j.init(w, j, 1)
	return j
}

func (j *HingeJoint) Type() JointType { return JointTypeHinge }

func (j *HingeJoint) SetAnchor(p mgl64.Vec3) { j.anchor1, j.anchor2 = j.anchors(p) }
func (j *HingeJoint) Anchor() mgl64.Vec3     { return j.rb1().PointToWorld(j.anchor1) }
func (j *HingeJoint) Anchor2() mgl64.Vec3    { return j.rb2().PointToWorld(j.anchor2) }

// SetAxis sets the hinge axis in world coordinates and makes the current
// relative orientation the zero angle.
func (j *HingeJoint) SetAxis(a mgl64.Vec3) {
	a = common.Normalize(a)
	j.axis1 = j.rb1().VectorToLocal(a)
	j.axis2 = j.rb2().VectorToLocal(a)
	j.qrel = j.relativeRotation()
}

func (j *HingeJoint) Axis() mgl64.Vec3 { return j.rb1().VectorToWorld(j.axis1) }

func (j *HingeJoint) Angle() float64 {
	return rigid.RelativeAngle(j.rb1(), j.rb2(), j.qrel, j.axis1)
}

func (j *HingeJoint) AngleRate() float64 { return j.relativeAngularVel(j.Axis()) }

func (j *HingeJoint) AddTorque(t float64) { j.addTorque(j.Axis().Mul(t)) }

func (j *HingeJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	axis := j.Axis()
	rows := rigid.PointRows(a, b, a.PointToWorld(j.anchor1), b.PointToWorld(j.anchor2), rigid.Axes(), p)
	rows = append(rows, rigid.AlignRows(a, b, axis, b.VectorToWorld(j.axis2), p)...)
	return append(rows, j.limots[0].Rows(rigid.AngularTemplate(a, b, axis), j.Angle(), p)...)
}
