package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

type FixedJoint struct {
	jointBase
	offset mgl64.Vec3
	qrel   mgl64.Quat
}

func NewFixedJoint(w *World) *FixedJoint {
	j := &FixedJoint{qrel: mgl64.QuatIdent()}
	j.init(w, j, 0)
	return j
}

func (j *FixedJoint) Type() JointType { return JointTypeFixed }

// SetFixed locks the current relative pose of the attached bodies.
func (j *FixedJoint) SetFixed() {
	j.qrel = j.relativeRotation()
	j.offset = j.rb1().PointToLocal(j.rb2().Pos)
}

func (j *FixedJoint) rows(p rigid.Params) []*rigid.Row {
	a, b := j.rb1(), j.rb2()
	rows := rigid.PointRows(a, b, a.PointToWorld(j.offset), b.Pos, rigid.Axes(), p)
	return append(rows, rigid.LockRows(a, b, j.qrel, p)...)
}
