package opende

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// ScrewJoint couples rotation about an axis with translation along it:
// position = angle / thread pitch, with the pitch in radians per metre.
type ScrewJoint struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	qrel             mgl64.Quat
	pitch            float64
}

func NewScrewJoint(w *World) *ScrewJoint {
	j := &ScrewJoint{axis1: mgl64.Vec3{1, 0, 0}, axis2: mgl64.Vec3{1, 0, 0}, qrel: mgl64.QuatIdent(), pitch: 1}
	j.init(w, j, 1)
	return j
}

func (j *ScrewJoint) Type() JointType { return JointTypeScrew }

func (j *ScrewJoint) SetThreadPitch(p float64) { j.pitch = p }
func (j *ScrewJoint) ThreadPitch() float64     { return j.pitch }

func (j *ScrewJoint) SetAnchor(p mgl64.Vec3) { j.anchor1, j.anchor2 = j.anchors(p) }
func (j *ScrewJoint) Anchor() mgl64.Vec3     { return j.rb1().PointToWorld(j.anchor1) }

func (j *ScrewJoint) SetAxis(a mgl64.Vec3) {
	a = common.Normalize(a)
	j.axis1 = j.rb1().VectorToLocal(a)
	j.axis2 = j.rb2().VectorToLocal(a)
	j.qrel = j.relativeRotation()
}

func (j *ScrewJoint) Axis() mgl64.Vec3 { return j.rb1().VectorToWorld(j.axis1) }

func (j *ScrewJoint) Angle() float64 {
	return rigid.RelativeAngle(j.rb1(), j.rb2(), j.qrel, j.axis1)
}

func (j *ScrewJoint) AngleRate() float64 { return j.relativeAngularVel(j.Axis()) }

func (j *ScrewJoint) Position() float64 {
	return j.rb2().PointToWorld(j.anchor2).Sub(j.Anchor()).Dot(j.Axis())
}

func (j *ScrewJoint) AddTorque(t float64) { j.addTorque(j.Axis().Mul(t)) }

func (j *ScrewJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	axis := j.Axis()
	pa, pb := a.PointToWorld(j.anchor1), b.PointToWorld(j.anchor2)
	pos := pb.Sub(pa).Dot(axis)
	angle := j.Angle()
	u, v := common.Perpendicular(axis)

	rows := rigid.AlignRows(a, b, axis, b.VectorToWorld(j.axis2), p)
	rows = append(rows, rigid.PointRows(a, b, pa.Add(axis.Mul(pos)), pb, []mgl64.Vec3{u, v}, p)...)

	couple := rigid.LinearTemplate(a, b, axis, pb)
	target := 0.0
	if math.Abs(j.pitch) > 1e-12 {
		k := 1 / j.pitch
		couple.AngA = couple.AngA.Add(axis.Mul(k))
		couple.AngB = couple.AngB.Sub(axis.Mul(k))
		target = angle * k
	}
	row := rigid.NewRow(a, b)
	row.LinA, row.AngA, row.LinB, row.AngB = couple.LinA, couple.AngA, couple.LinB, couple.AngB
	row.RHS = -p.ERP / p.DT * (pos - target)
	row.CFM = p.CFM
	rows = append(rows, row)

	return append(rows, j.limots[0].Rows(rigid.AngularTemplate(a, b, axis), angle, p)...)
}
