package btdynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

// Point2PointConstraint joins a pivot on A to a pivot on B, leaving all
// rotations free. Pivots are in each body's local frame.
type Point2PointConstraint struct {
	constraintBase
	pivotA, pivotB mgl64.Vec3
}

func NewPoint2PointConstraint(rbA, rbB *RigidBody, pivotInA, pivotInB mgl64.Vec3) *Point2PointConstraint {
	return &Point2PointConstraint{constraintBase: newConstraintBase(rbA, rbB), pivotA: pivotInA, pivotB: pivotInB}
}

func (c *Point2PointConstraint) ConstraintType() ConstraintType { return Point2PointConstraintType }

func (c *Point2PointConstraint) PivotInA() mgl64.Vec3     { return c.pivotA }
func (c *Point2PointConstraint) PivotInB() mgl64.Vec3     { return c.pivotB }
func (c *Point2PointConstraint) SetPivotA(p mgl64.Vec3)   { c.pivotA = p }
func (c *Point2PointConstraint) SetPivotB(p mgl64.Vec3)   { c.pivotB = p }

func (c *Point2PointConstraint) rows(p rigid.Params) []*rigid.Row {
	a, b := c.a(), c.b()
	return rigid.PointRows(a, b, a.PointToWorld(c.pivotA), b.PointToWorld(c.pivotB), rigid.Axes(), p)
}
