package btdynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

// FixedConstraint welds frameInA on A to frameInB on B.
type FixedConstraint struct {
	constraintBase
	frameA, frameB Transform
	qrel           mgl64.Quat
}

func NewFixedConstraint(rbA, rbB *RigidBody, frameInA, frameInB Transform) *FixedConstraint {
	c := &FixedConstraint{constraintBase: newConstraintBase(rbA, rbB), frameA: frameInA, frameB: frameInB}
	c.qrel = c.a().Rot.Conjugate().Mul(c.b().Rot)
	return c
}

func (c *FixedConstraint) ConstraintType() ConstraintType { return FixedConstraintType }

func (c *FixedConstraint) rows(p rigid.Params) []*rigid.Row {
	a, b := c.a(), c.b()
	pa := c.rbA.CenterOfMassTransform().Mul(c.frameA).Origin
	pb := c.rbB.CenterOfMassTransform().Mul(c.frameB).Origin
	rows := rigid.PointRows(a, b, pa, pb, rigid.Axes(), p)
	return append(rows, rigid.LockRows(a, b, c.qrel, p)...)
}
