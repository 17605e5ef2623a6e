package btdynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// HingeConstraint restricts two bodies to rotate about a shared axis.
type HingeConstraint struct {
	constraintBase
	pivotA, pivotB mgl64.Vec3
	axisA, axisB   mgl64.Vec3
	qrel           mgl64.Quat

	lower, upper     float64
	softness         float64
	biasFactor       float64
	relaxationFactor float64

	motorEnabled bool
	motorVel     float64
	motorImpulse float64
}

// NewHingeConstraint creates a hinge from pivots and axes given in each
// body's local frame. The current relative orientation is angle zero.
func NewHingeConstraint(rbA, rbB *RigidBody, pivotInA, pivotInB, axisInA, axisInB mgl64.Vec3) *HingeConstraint {
	c := &HingeConstraint{
		constraintBase: newConstraintBase(rbA, rbB),
		pivotA:         pivotInA,
		pivotB:         pivotInB,
		axisA:          common.Normalize(axisInA),
		axisB:          common.Normalize(axisInB),
		lower:          1,
		upper:          -1,
	}
	c.qrel = c.a().Rot.Conjugate().Mul(c.b().Rot)
	c.SetLimit(1, -1)
	return c
}

func (c *HingeConstraint) ConstraintType() ConstraintType { return HingeConstraintType }

// SetLimit sets the angular stops and resets softness, bias and relaxation
// to their defaults. low > high removes the limit.
func (c *HingeConstraint) SetLimit(low, high float64) {
	c.SetLimitParams(low, high, 0.9, 0.3, 1.0)
}

func (c *HingeConstraint) SetLimitParams(low, high, softness, biasFactor, relaxationFactor float64) {
	c.lower, c.upper = low, high
	c.softness = softness
	c.biasFactor = biasFactor
	c.relaxationFactor = relaxationFactor
}

func (c *HingeConstraint) LowerLimit() float64 { return c.lower }
func (c *HingeConstraint) UpperLimit() float64 { return c.upper }
func (c *HingeConstraint) HasLimit() bool      { return c.lower <= c.upper }

func (c *HingeConstraint) EnableAngularMotor(enable bool, targetVelocity, maxMotorImpulse float64) {
	c.motorEnabled = enable
	c.motorVel = targetVelocity
	c.motorImpulse = maxMotorImpulse
}

func (c *HingeConstraint) EnableMotor(enable bool)          { c.motorEnabled = enable }
func (c *HingeConstraint) SetMaxMotorImpulse(impulse float64) { c.motorImpulse = impulse }
func (c *HingeConstraint) MotorEnabled() bool               { return c.motorEnabled }
func (c *HingeConstraint) MotorTargetVelocity() float64     { return c.motorVel }
func (c *HingeConstraint) MaxMotorImpulse() float64         { return c.motorImpulse }

// Axis returns the hinge axis in world coordinates.
func (c *HingeConstraint) Axis() mgl64.Vec3 { return c.a().VectorToWorld(c.axisA) }

func (c *HingeConstraint) PivotInA() mgl64.Vec3 { return c.pivotA }
func (c *HingeConstraint) PivotInB() mgl64.Vec3 { return c.pivotB }

func (c *HingeConstraint) HingeAngle() float64 {
	return rigid.RelativeAngle(c.a(), c.b(), c.qrel, c.axisA)
}

func (c *HingeConstraint) rows(p rigid.Params) []*rigid.Row {
	a, b := c.a(), c.b()
	axis := c.Axis()
	rows := rigid.PointRows(a, b, a.PointToWorld(c.pivotA), b.PointToWorld(c.pivotB), rigid.Axes(), p)
	rows = append(rows, rigid.AlignRows(a, b, axis, b.VectorToWorld(c.axisB), p)...)

	l := rigid.NewLimit()
	if c.HasLimit() {
		l.Lo, l.Hi = c.lower, c.upper
		l.StopERP = c.biasFactor
	}
	if c.motorEnabled && p.DT > 0 {
		l.Vel = c.motorVel
		l.FMax = c.motorImpulse / p.DT
	}
	return append(rows, l.Rows(rigid.AngularTemplate(a, b, axis), c.HingeAngle(), p)...)
}
