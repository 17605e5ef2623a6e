package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// SliderJoint allows body 2 to translate along an axis fixed in body 1.
type SliderJoint struct {
	jointBase
	axis1  mgl64.Vec3
	offset mgl64.Vec3
	qrel   mgl64.Quat
}

func NewSliderJoint(w *World) *SliderJoint {
	j := &SliderJoint{axis1: mgl64.Vec3{1, 0, 0}, qrel: mgl64.QuatIdent()}
	j.init(w, j, 1)
	return j
}

func (j *SliderJoint) Type() JointType { return JointTypeSlider }

// SetAxis sets the slide axis in world coordinates; the current body
// separation becomes position zero.
func (j *SliderJoint) SetAxis(a mgl64.Vec3) {
	j.axis1 = j.rb1().VectorToLocal(common.Normalize(a))
	j.qrel = j.relativeRotation()
	j.offset = j.rb1().PointToLocal(j.rb2().Pos)
}

func (j *SliderJoint) Axis() mgl64.Vec3 { return j.rb1().VectorToWorld(j.axis1) }

func (j *SliderJoint) Position() float64 {
	return j.rb2().Pos.Sub(j.rb1().PointToWorld(j.offset)).Dot(j.Axis())
}

func (j *SliderJoint) PositionRate() float64 {
	b := j.rb2()
	return b.LinVel.Sub(j.rb1().PointVelocity(b.Pos)).Dot(j.Axis())
}

// AddForce pushes body 2 along the axis and body 1 the opposite way.
func (j *SliderJoint) AddForce(f float64) {
	force := j.Axis().Mul(f)
	if j.b2 != nil {
		j.b2.AddForce(force)
	}
	if j.b1 != nil {
		j.b1.AddForceAtPos(force.Mul(-1), j.rb2().Pos)
	}
}

func (j *SliderJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	axis := j.Axis()
	pos := j.Position()
	onLine := a.PointToWorld(j.offset).Add(axis.Mul(pos))
	u, v := common.Perpendicular(axis)

	rows := rigid.LockRows(a, b, j.qrel, p)
	rows = append(rows, rigid.PointRows(a, b, onLine, b.Pos, []mgl64.Vec3{u, v}, p)...)
	return append(rows, j.limots[0].Rows(rigid.LinearTemplate(a, b, axis, b.Pos), pos, p)...)
}
