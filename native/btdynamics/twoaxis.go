package btdynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// twoAxis is the geometry shared by the hinge2 and universal constraints:
// axis 1 is fixed in body A, axis 2 in body B, around a common anchor.
type twoAxis struct {
	constraintBase
	anchorA, anchorB mgl64.Vec3
	axis1, axis2     mgl64.Vec3
	ref1, ref2       mgl64.Vec3
	c0               float64
	motors           [2]RotationalLimitMotor
}

func newTwoAxis(rbA, rbB *RigidBody, anchor, axis1, axis2 mgl64.Vec3) twoAxis {
	t := twoAxis{constraintBase: newConstraintBase(rbA, rbB)}
	a, b := t.a(), t.b()
	axis1, axis2 = common.Normalize(axis1), common.Normalize(axis2)
	t.anchorA = a.PointToLocal(anchor)
	t.anchorB = b.PointToLocal(anchor)
	t.axis1 = a.VectorToLocal(axis1)
	t.axis2 = b.VectorToLocal(axis2)
	t.c0 = axis1.Dot(axis2)
	t.ref1 = a.VectorToLocal(common.Normalize(axis2.Sub(axis1.Mul(t.c0))))
	t.ref2 = b.VectorToLocal(common.Normalize(axis1.Sub(axis2.Mul(t.c0))))
	t.motors[0] = newRotationalLimitMotor()
	t.motors[1] = newRotationalLimitMotor()
	return t
}

func (t *twoAxis) Anchor() mgl64.Vec3  { return t.a().PointToWorld(t.anchorA) }
func (t *twoAxis) Anchor2() mgl64.Vec3 { return t.b().PointToWorld(t.anchorB) }
func (t *twoAxis) Axis1() mgl64.Vec3   { return t.a().VectorToWorld(t.axis1) }
func (t *twoAxis) Axis2() mgl64.Vec3   { return t.b().VectorToWorld(t.axis2) }

func (t *twoAxis) Angle1() float64 {
	a1, a2 := t.Axis1(), t.Axis2()
	ref := t.a().VectorToWorld(t.ref1)
	proj := a2.Sub(a1.Mul(a1.Dot(a2)))
	return math.Atan2(ref.Cross(proj).Dot(a1), ref.Dot(proj))
}

func (t *twoAxis) Angle2() float64 {
	a1, a2 := t.Axis1(), t.Axis2()
	ref := t.b().VectorToWorld(t.ref2)
	proj := a1.Sub(a2.Mul(a1.Dot(a2)))
	return -math.Atan2(ref.Cross(proj).Dot(a2), ref.Dot(proj))
}

// RotationalLimitMotor returns the limit motor of axis index (0 or 1), or nil.
func (t *twoAxis) RotationalLimitMotor(index int) *RotationalLimitMotor {
	if index < 0 || index >= len(t.motors) {
		return nil
	}
	return &t.motors[index]
}

func (t *twoAxis) rows(p rigid.Params) []*rigid.Row {
	a, b := t.a(), t.b()
	a1, a2 := t.Axis1(), t.Axis2()
	rows := rigid.PointRows(a, b, a.PointToWorld(t.anchorA), b.PointToWorld(t.anchorB), rigid.Axes(), p)
	rows = append(rows, rigid.AngularRow(a, b, a1.Cross(a2).Mul(-1), a1.Dot(a2)-t.c0, p))
	rows = append(rows, t.motors[0].limit().Rows(rigid.AngularTemplate(a, b, a1), t.Angle1(), p)...)
	return append(rows, t.motors[1].limit().Rows(rigid.AngularTemplate(a, b, a2), t.Angle2(), p)...)
}

// Hinge2Constraint models a wheel: axis 1 steers (fixed in A), axis 2 spins
// (fixed in B). Anchor and axes are given in world coordinates.
type Hinge2Constraint struct {
	twoAxis
}

func NewHinge2Constraint(rbA, rbB *RigidBody, anchor, axis1, axis2 mgl64.Vec3) *Hinge2Constraint {
	return &Hinge2Constraint{twoAxis: newTwoAxis(rbA, rbB, anchor, axis1, axis2)}
}

func (c *Hinge2Constraint) ConstraintType() ConstraintType { return D6SpringConstraintType }

// SetUpperLimit limits the steering angle about axis 1.
func (c *Hinge2Constraint) SetUpperLimit(ang1max float64) { c.motors[0].HiLimit = ang1max }

// SetLowerLimit limits the steering angle about axis 1.
func (c *Hinge2Constraint) SetLowerLimit(ang1min float64) { c.motors[0].LoLimit = ang1min }

// UniversalConstraint is a cardan joint: axis 1 fixed in A, axis 2 fixed in
// B, both through the anchor and kept perpendicular.
type UniversalConstraint struct {
	twoAxis
}

func NewUniversalConstraint(rbA, rbB *RigidBody, anchor, axis1, axis2 mgl64.Vec3) *UniversalConstraint {
	return &UniversalConstraint{twoAxis: newTwoAxis(rbA, rbB, anchor, axis1, axis2)}
}

func (c *UniversalConstraint) ConstraintType() ConstraintType { return D6ConstraintType }

func (c *UniversalConstraint) SetUpperLimit(ang1max, ang2max float64) {
	c.motors[0].HiLimit = ang1max
	c.motors[1].HiLimit = ang2max
}

func (c *UniversalConstraint) SetLowerLimit(ang1min, ang2min float64) {
	c.motors[0].LoLimit = ang1min
	c.motors[1].LoLimit = ang2min
}
