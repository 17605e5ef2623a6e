package btdynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// SliderConstraint lets B translate along the X axis of frameInA while all
// relative rotation is locked.
type SliderConstraint struct {
	constraintBase
	frameA, frameB Transform
	useFrameA      bool
	qrel           mgl64.Quat

	lowerLin, upperLin float64

	poweredLinMotor bool
	targetLinVel    float64
	maxLinForce     float64
}

func NewSliderConstraint(rbA, rbB *RigidBody, frameInA, frameInB Transform, useLinearReferenceFrameA bool) *SliderConstraint {
	c := &SliderConstraint{
		constraintBase: newConstraintBase(rbA, rbB),
		frameA:         frameInA,
		frameB:         frameInB,
		useFrameA:      useLinearReferenceFrameA,
		lowerLin:       1,
		upperLin:       -1,
	}
	c.qrel = c.a().Rot.Conjugate().Mul(c.b().Rot)
	return c
}

func (c *SliderConstraint) ConstraintType() ConstraintType { return SliderConstraintType }

func (c *SliderConstraint) LowerLinLimit() float64     { return c.lowerLin }
func (c *SliderConstraint) UpperLinLimit() float64     { return c.upperLin }
func (c *SliderConstraint) SetLowerLinLimit(v float64) { c.lowerLin = v }
func (c *SliderConstraint) SetUpperLinLimit(v float64) { c.upperLin = v }

func (c *SliderConstraint) SetPoweredLinMotor(on bool)          { c.poweredLinMotor = on }
func (c *SliderConstraint) PoweredLinMotor() bool               { return c.poweredLinMotor }
func (c *SliderConstraint) SetTargetLinMotorVelocity(v float64) { c.targetLinVel = v }
func (c *SliderConstraint) TargetLinMotorVelocity() float64     { return c.targetLinVel }
func (c *SliderConstraint) SetMaxLinMotorForce(f float64)       { c.maxLinForce = math.Max(f, 0) }
func (c *SliderConstraint) MaxLinMotorForce() float64           { return c.maxLinForce }

func (c *SliderConstraint) frameAWorld() Transform { return c.rbA.CenterOfMassTransform().Mul(c.frameA) }
func (c *SliderConstraint) frameBWorld() Transform { return c.rbB.CenterOfMassTransform().Mul(c.frameB) }

// Axis returns the sliding direction in world coordinates.
func (c *SliderConstraint) Axis() mgl64.Vec3 {
	f := c.frameBWorld()
	if c.useFrameA {
		f = c.frameAWorld()
	}
	return common.Normalize(f.Basis.Rotate(mgl64.Vec3{1, 0, 0}))
}

func (c *SliderConstraint) LinearPos() float64 {
	return c.frameBWorld().Origin.Sub(c.frameAWorld().Origin).Dot(c.Axis())
}

// LinearVelocity returns the relative velocity of B along the axis.
func (c *SliderConstraint) LinearVelocity() float64 {
	pb := c.frameBWorld().Origin
	return c.b().PointVelocity(pb).Sub(c.a().PointVelocity(pb)).Dot(c.Axis())
}

func (c *SliderConstraint) rows(p rigid.Params) []*rigid.Row {
	a, b := c.a(), c.b()
	axis := c.Axis()
	pos := c.LinearPos()
	pa := c.frameAWorld().Origin.Add(axis.Mul(pos))
	pb := c.frameBWorld().Origin
	u, v := common.Perpendicular(axis)

	rows := rigid.LockRows(a, b, c.qrel, p)
	rows = append(rows, rigid.PointRows(a, b, pa, pb, []mgl64.Vec3{u, v}, p)...)

	l := rigid.NewLimit()
	if c.lowerLin <= c.upperLin {
		l.Lo, l.Hi = c.lowerLin, c.upperLin
	}
	if c.poweredLinMotor {
		l.Vel, l.FMax = c.targetLinVel, c.maxLinForce
	}
	return append(rows, l.Rows(rigid.LinearTemplate(a, b, axis, pb), pos, p)...)
}
