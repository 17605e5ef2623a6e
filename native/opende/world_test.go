package opende

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendulum(w *World) *Body {
	b := NewBody(w)
	b.SetMass(Mass{Mass: 1, I: mgl64.Vec3{0.1, 0.1, 0.1}})
	return b
}

func TestHingeSaturatesAtHighStop(t *testing.T) {
	w := NewWorld()
	b := newPendulum(w)
	j := NewHingeJoint(w)
	j.Attach(nil, b)
	j.SetAnchor(mgl64.Vec3{})
	j.SetAxis(mgl64.Vec3{0, 0, 1})
	j.SetParam(ParamLoStop, -0.1)
	j.SetParam(ParamHiStop, 0.4)
	fb := &JointFeedback{}
	j.SetFeedback(fb)

	maxAngle := math.Inf(-1)
	for i := 0; i < 2000; i++ {
		j.AddTorque(0.1)
		w.QuickStep(0.001)
		maxAngle = math.Max(maxAngle, j.Angle())
	}
	assert.InDelta(t, 0.4, j.Angle(), 1e-3)
	assert.LessOrEqual(t, maxAngle, 0.41)
	assert.InDelta(t, 0, j.AngleRate(), 1e-3)
	assert.InDelta(t, -0.1, fb.T2.Z(), 1e-2)
}

func TestHingeAngleFollowsRotation(t *testing.T) {
	w := NewWorld()
	b := newPendulum(w)
	j := NewHingeJoint(w)
	j.Attach(nil, b)
	j.SetAnchor(mgl64.Vec3{})
	j.SetAxis(mgl64.Vec3{0, 0, 1})

	b.SetAngularVel(mgl64.Vec3{0, 0, 1})
	for i := 0; i < 500; i++ {
		w.QuickStep(0.001)
	}
	assert.InDelta(t, 0.5, j.Angle(), 1e-3)
	assert.InDelta(t, 1, j.AngleRate(), 1e-6)
	assert.InDelta(t, 0, j.Anchor2().Len(), 1e-6)
}

func TestParamGroups(t *testing.T) {
	w := NewWorld()
	j := NewUniversalJoint(w)

	assert.True(t, math.IsInf(j.Param(ParamLoStop), -1))
	assert.Equal(t, 1.0, j.Param(ParamFudgeFactor))
	assert.Equal(t, w.ERP(), j.Param(ParamStopERP))

	j.SetParam(ParamHiStop2, 0.7)
	j.SetParam(ParamFMax.Axis(1), 3)
	assert.Equal(t, 0.7, j.Param(ParamHiStop2))
	assert.Equal(t, 3.0, j.Param(ParamFMax2))
	assert.True(t, math.IsInf(j.Param(ParamHiStop), 1))

	j.SetParam(ParamFMax, -4)
	assert.Equal(t, 0.0, j.Param(ParamFMax))

	j.SetParam(ParamCFM, 1e-3)
	assert.Equal(t, 1e-3, j.Param(ParamCFM))
}

func TestDestroyDeregistersJoint(t *testing.T) {
	w := NewWorld()
	b := newPendulum(w)
	j := NewSliderJoint(w)
	j.Attach(nil, b)
	j.SetAxis(mgl64.Vec3{1, 0, 0})
	require.Equal(t, 1, w.NumJoints())

	j.Destroy()
	assert.Equal(t, 0, w.NumJoints())
	j.Destroy()
	assert.Equal(t, 0, w.NumJoints())

	b.SetLinearVel(mgl64.Vec3{0, 1, 0})
	w.QuickStep(0.01)
	assert.InDelta(t, 0.01, b.Position().Y(), 1e-9)
}

func TestSliderMotorReachesVelocity(t *testing.T) {
	w := NewWorld()
	w.SetGravity(mgl64.Vec3{0, 0, -9.8})
	b := newPendulum(w)
	j := NewSliderJoint(w)
	j.Attach(nil, b)
	j.SetAxis(mgl64.Vec3{1, 0, 0})
	j.SetParam(ParamVel, 0.5)
	j.SetParam(ParamFMax, 100)

	for i := 0; i < 100; i++ {
		w.QuickStep(0.001)
	}
	assert.InDelta(t, 0.5, j.PositionRate(), 1e-3)
	assert.InDelta(t, 0, b.Position().Z(), 1e-3)
	assert.InDelta(t, 0.05, j.Position(), 2e-3)
}

func TestScrewCouplesTranslation(t *testing.T) {
	w := NewWorld()
	b := newPendulum(w)
	j := NewScrewJoint(w)
	j.Attach(nil, b)
	j.SetThreadPitch(2)
	j.SetAnchor(mgl64.Vec3{})
	j.SetAxis(mgl64.Vec3{0, 0, 1})

	for i := 0; i < 1000; i++ {
		j.AddTorque(0.05)
		w.QuickStep(0.001)
	}
	require.Greater(t, j.Angle(), 0.01)
	assert.InDelta(t, j.Angle()/2, j.Position(), 1e-3)
}

func TestUniversalAngles(t *testing.T) {
	w := NewWorld()
	b := newPendulum(w)
	j := NewUniversalJoint(w)
	j.Attach(nil, b)
	j.SetAnchor(mgl64.Vec3{})
	j.SetAxis1(mgl64.Vec3{1, 0, 0})
	j.SetAxis2(mgl64.Vec3{0, 1, 0})

	b.SetAngularVel(mgl64.Vec3{0.5, 0, 0})
	for i := 0; i < 200; i++ {
		w.QuickStep(0.001)
	}
	assert.InDelta(t, 0.1, j.Angle1(), 2e-3)
	assert.InDelta(t, 0, j.Angle2(), 2e-3)
}

func TestDisabledBodyIsNotIntegrated(t *testing.T) {
	w := NewWorld()
	w.SetGravity(mgl64.Vec3{0, 0, -9.81})
	w.SetQuickStepNumIterations(30)
	assert.Equal(t, 30, w.QuickStepNumIterations())

	b := newPendulum(w)
	b.Disable()
	require.False(t, b.IsEnabled())
	w.QuickStep(0.01)
	assert.Equal(t, mgl64.Vec3{}, b.Position())

	b.Enable()
	w.QuickStep(0.01)
	assert.Less(t, b.Position().Z(), 0.0)
}
