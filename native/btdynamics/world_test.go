package btdynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld() *DynamicsWorld {
	w := NewDiscreteDynamicsWorld()
	w.SetGravity(mgl64.Vec3{})
	w.SolverInfo().NumIterations = 50
	return w
}

func newBody(w *DynamicsWorld, pos mgl64.Vec3) *RigidBody {
	b := NewRigidBody(1, mgl64.Vec3{0.1, 0.1, 0.1}, NewTransform(mgl64.QuatIdent(), pos))
	w.AddRigidBody(b)
	return b
}

func TestHingeLimit(t *testing.T) {
	w := newWorld()
	ground := NewRigidBody(0, mgl64.Vec3{}, IdentityTransform())
	w.AddRigidBody(ground)
	b := newBody(w, mgl64.Vec3{})

	c := NewHingeConstraint(ground, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})
	c.SetLimit(-0.1, 0.4)
	c.EnableFeedback(true)
	w.AddConstraint(c, true)

	for i := 0; i < 2000; i++ {
		b.ApplyTorque(mgl64.Vec3{0, 0, 0.1})
		w.StepSimulation(0.001, 1, 0.001)
	}
	assert.InDelta(t, 0.4, c.HingeAngle(), 1e-3)
	assert.InDelta(t, -0.1, c.JointFeedback().AppliedTorqueBodyB.Z(), 1e-2)
	assert.Equal(t, mgl64.Vec3{}, b.TotalTorque())
}

func TestHingeMotor(t *testing.T) {
	w := newWorld()
	b := newBody(w, mgl64.Vec3{})
	c := NewHingeConstraint(nil, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0})
	c.EnableAngularMotor(true, 2, 1)
	w.AddConstraint(c, false)

	for i := 0; i < 50; i++ {
		w.StepSimulation(0.01, 0, 0)
	}
	assert.InDelta(t, 2, b.AngularVelocity().X(), 1e-6)
	assert.Greater(t, c.HingeAngle(), 0.5)
}

func TestConstraintRegistration(t *testing.T) {
	w := newWorld()
	a := newBody(w, mgl64.Vec3{})
	b := newBody(w, mgl64.Vec3{1, 0, 0})

	p2p := NewPoint2PointConstraint(a, b, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{-0.5, 0, 0})
	fixed := NewFixedConstraint(a, b, IdentityTransform(), NewTransform(mgl64.QuatIdent(), mgl64.Vec3{-1, 0, 0}))
	w.AddConstraint(p2p, true)
	w.AddConstraint(p2p, true)
	w.AddConstraint(fixed, true)
	require.Equal(t, 2, w.NumConstraints())
	assert.Equal(t, TypedConstraint(fixed), w.Constraint(1))
	assert.Nil(t, w.Constraint(5))

	w.RemoveConstraint(p2p)
	assert.Equal(t, 1, w.NumConstraints())
	w.RemoveConstraint(p2p)
	assert.Equal(t, 1, w.NumConstraints())
}

func TestStepSimulationSubsteps(t *testing.T) {
	w := newWorld()
	b := newBody(w, mgl64.Vec3{})
	b.SetLinearVelocity(mgl64.Vec3{1, 0, 0})

	assert.Equal(t, 0, w.StepSimulation(0.004, 10, 0.01))
	assert.Equal(t, 0.0, b.CenterOfMassPosition().X())
	assert.Equal(t, 1, w.StepSimulation(0.007, 10, 0.01))
	assert.InDelta(t, 0.01, b.CenterOfMassPosition().X(), 1e-9)
	assert.Equal(t, 2, w.StepSimulation(0.1, 2, 0.01))
}

func TestHinge2LimitMotors(t *testing.T) {
	w := newWorld()
	ground := NewRigidBody(0, mgl64.Vec3{}, IdentityTransform())
	b := newBody(w, mgl64.Vec3{})
	c := NewHinge2Constraint(ground, b, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0})
	w.AddConstraint(c, true)

	require.Nil(t, c.RotationalLimitMotor(2))
	m := c.RotationalLimitMotor(1)
	require.NotNil(t, m)
	assert.False(t, m.IsLimited())
	m.LoLimit, m.HiLimit = -0.2, 0.2
	assert.True(t, c.RotationalLimitMotor(1).IsLimited())

	c.SetUpperLimit(0.3)
	c.SetLowerLimit(-0.3)
	assert.Equal(t, 0.3, c.RotationalLimitMotor(0).HiLimit)

	b.SetAngularVelocity(mgl64.Vec3{0, 1, 0})
	for i := 0; i < 1000; i++ {
		w.StepSimulation(0.001, 0, 0)
	}
	assert.InDelta(t, 0.2, c.Angle2(), 1e-2)
	assert.InDelta(t, 0, c.Angle1(), 1e-3)
}

func TestSliderLimits(t *testing.T) {
	w := newWorld()
	b := newBody(w, mgl64.Vec3{})
	c := NewSliderConstraint(nil, b, IdentityTransform(), IdentityTransform(), true)
	c.SetLowerLinLimit(-0.5)
	c.SetUpperLinLimit(0.25)
	w.AddConstraint(c, true)

	b.SetLinearVelocity(mgl64.Vec3{1, 1, 0})
	for i := 0; i < 1000; i++ {
		w.StepSimulation(0.001, 0, 0)
	}
	assert.InDelta(t, 0.25, c.LinearPos(), 1e-3)
	assert.InDelta(t, 0, b.CenterOfMassPosition().Y(), 1e-3)
	assert.False(t, math.IsNaN(c.LinearVelocity()))
}

func TestConstraintSettings(t *testing.T) {
	w := newWorld()
	b := newBody(w, mgl64.Vec3{})
	assert.Equal(t, 1, w.NumCollisionObjects())

	h := NewHingeConstraint(nil, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})
	h.SetLimit(-0.2, 0.3)
	assert.Equal(t, -0.2, h.LowerLimit())
	assert.Equal(t, 0.3, h.UpperLimit())
	h.EnableAngularMotor(true, 1.5, 0.01)
	assert.True(t, h.MotorEnabled())
	assert.Equal(t, 1.5, h.MotorTargetVelocity())

	s := NewSliderConstraint(nil, b, IdentityTransform(), IdentityTransform(), true)
	s.SetLowerLinLimit(-1)
	s.SetUpperLinLimit(2)
	s.SetPoweredLinMotor(true)
	s.SetTargetLinMotorVelocity(0.5)
	assert.Equal(t, -1.0, s.LowerLinLimit())
	assert.Equal(t, 2.0, s.UpperLinLimit())
	assert.True(t, s.PoweredLinMotor())
	assert.Equal(t, 0.5, s.TargetLinMotorVelocity())
}

func TestBodyState(t *testing.T) {
	w := newWorld()
	b := newBody(w, mgl64.Vec3{})
	b.SetMassProps(2, mgl64.Vec3{0.2, 0.2, 0.2})
	b.SetCenterOfMassTransform(NewTransform(mgl64.QuatIdent(), mgl64.Vec3{1, 2, 3}))
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.CenterOfMassPosition())

	b.ApplyForce(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{})
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, b.TotalForce())
	w.StepSimulation(0.1, 0, 0)
	assert.Equal(t, mgl64.Vec3{}, b.TotalForce())
	// a = F/m = 1
	assert.InDelta(t, 0.1, b.LinearVelocity().X(), 1e-9)
}
