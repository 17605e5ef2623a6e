package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

type BallJoint struct {
	jointBase
	anchor1, anchor2 mgl64.Vec3
}

func NewBallJoint(w *World) *BallJoint {
	j := &BallJoint{}
	j.init(w, j, 0)
	return j
}

func (j *BallJoint) Type() JointType { return JointTypeBall }

func (j *BallJoint) SetAnchor(p mgl64.Vec3) { j.anchor1, j.anchor2 = j.anchors(p) }
func (j *BallJoint) Anchor() mgl64.Vec3     { return j.rb1().PointToWorld(j.anchor1) }
func (j *BallJoint) Anchor2() mgl64.Vec3    { return j.rb2().PointToWorld(j.anchor2) }

func (j *BallJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	return rigid.PointRows(a, b, a.PointToWorld(j.anchor1), b.PointToWorld(j.anchor2), rigid.Axes(), p)
}
