package btdynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

type ConstraintType int

const (
	Point2PointConstraintType ConstraintType = iota + 3
	HingeConstraintType
	ConeTwistConstraintType
	D6ConstraintType
	SliderConstraintType
	ContactConstraintType
	D6SpringConstraintType
	GearConstraintType
	FixedConstraintType
)

// JointFeedback receives the force and torque a constraint applied to its
// bodies in the last substep.
type JointFeedback struct {
	AppliedForceBodyA  mgl64.Vec3
	AppliedTorqueBodyA mgl64.Vec3
	AppliedForceBodyB  mgl64.Vec3
	AppliedTorqueBodyB mgl64.Vec3
}

// TypedConstraint is implemented by every constraint in this package.
type TypedConstraint interface {
	ConstraintType() ConstraintType
	RigidBodyA() *RigidBody
	RigidBodyB() *RigidBody
	IsEnabled() bool
	SetEnabled(bool)
	EnableFeedback(bool)
	NeedsFeedback() bool
	SetJointFeedback(*JointFeedback)
	JointFeedback() *JointFeedback
	AppliedImpulse() float64

	base() *constraintBase
	rows(p rigid.Params) []*rigid.Row
}

type constraintBase struct {
	rbA, rbB          *RigidBody
	enabled           bool
	needsFeedback     bool
	feedback          *JointFeedback
	appliedImpulse    float64
	disableCollisions bool
}

func newConstraintBase(a, b *RigidBody) constraintBase {
	if a == nil {
		a = FixedBody()
	}
	if b == nil {
		b = FixedBody()
	}
	return constraintBase{rbA: a, rbB: b, enabled: true}
}

func (c *constraintBase) base() *constraintBase { return c }

func (c *constraintBase) RigidBodyA() *RigidBody            { return c.rbA }
func (c *constraintBase) RigidBodyB() *RigidBody            { return c.rbB }
func (c *constraintBase) IsEnabled() bool                   { return c.enabled }
func (c *constraintBase) SetEnabled(on bool)                { c.enabled = on }
func (c *constraintBase) NeedsFeedback() bool               { return c.needsFeedback }
func (c *constraintBase) SetJointFeedback(fb *JointFeedback) { c.feedback = fb }
func (c *constraintBase) JointFeedback() *JointFeedback     { return c.feedback }
func (c *constraintBase) AppliedImpulse() float64           { return c.appliedImpulse }

func (c *constraintBase) EnableFeedback(on bool) {
	c.needsFeedback = on
	if on && c.feedback == nil {
		c.feedback = &JointFeedback{}
	}
}

func (c *constraintBase) a() *rigid.Body { return c.rbA.rb }
func (c *constraintBase) b() *rigid.Body { return c.rbB.rb }

// RotationalLimitMotor is the limit and motor state of one rotational DOF.
// LoLimit > HiLimit leaves the DOF free.
type RotationalLimitMotor struct {
	LoLimit        float64
	HiLimit        float64
	TargetVelocity float64
	MaxMotorForce  float64
	EnableMotor    bool
	Bounce         float64
	StopERP        float64
}

func newRotationalLimitMotor() RotationalLimitMotor {
	return RotationalLimitMotor{LoLimit: 1, HiLimit: -1, StopERP: 0.2}
}

// IsLimited reports whether the DOF has active stops.
func (m *RotationalLimitMotor) IsLimited() bool { return m.LoLimit <= m.HiLimit }

func (m *RotationalLimitMotor) limit() rigid.Limit {
	l := rigid.NewLimit()
	if m.IsLimited() {
		l.Lo, l.Hi = m.LoLimit, m.HiLimit
	}
	if m.EnableMotor {
		l.Vel, l.FMax = m.TargetVelocity, m.MaxMotorForce
	}
	l.Bounce = m.Bounce
	l.StopERP = m.StopERP
	return l
}
