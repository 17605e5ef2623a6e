package ode

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/sdf"
)

func loadWorld(t *testing.T, joints string) *physics.World {
	t.Helper()
	doc := `<world name="w">
	<gravity>0 0 0</gravity>
	<physics><max_step_size>0.001</max_step_size></physics>
	<model name="m">
		<link name="arm"><inertial><mass>1</mass><inertia><ixx>0.1</ixx><iyy>0.1</iyy><izz>0.1</izz></inertia></inertial></link>
		<link name="wheel"><pose>0 0 -1 0 0 0</pose><inertial><mass>1</mass><inertia><ixx>0.1</ixx><iyy>0.1</iyy><izz>0.1</izz></inertia></inertial></link>
		` + joints + `
	</model>
</world>`
	root, err := sdf.Parse([]byte(doc))
	require.NoError(t, err)
	reg := physics.NewRegistry()
	require.NoError(t, reg.Register(Name, New))
	w, err := physics.LoadWorld(root, reg, physics.LoadOptions{Engine: Name, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	require.NoError(t, w.Init())
	return w
}

const stopHinge = `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
	<axis><xyz>0 0 1</xyz><limit><lower>-0.1</lower><upper>0.4</upper></limit></axis></joint>`

func TestHingeSaturatesAtStop(t *testing.T) {
	w := loadWorld(t, stopHinge)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	hi, err := j.HighStop(0)
	require.NoError(t, err)
	assert.Equal(t, 0.4, hi)

	maxAngle := math.Inf(-1)
	for i := 0; i < 2000; i++ {
		require.NoError(t, j.SetForce(0, 0.1))
		require.NoError(t, w.Step(1))
		a, err := j.Angle(0)
		require.NoError(t, err)
		maxAngle = math.Max(maxAngle, a)
	}
	a, _ := j.Angle(0)
	assert.InDelta(t, 0.4, a, 1e-2)
	assert.LessOrEqual(t, maxAngle, 0.41)

	ft, err := j.ForceTorque()
	require.NoError(t, err)
	assert.InDelta(t, -0.1, ft.Torque2.Z(), 1e-2)
}

func TestForceIsTotalPerStep(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	require.NoError(t, j.SetForce(0, 0.05))
	require.NoError(t, j.SetForce(0, 0.05))
	f, err := j.Force(0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, f)
	require.NoError(t, w.Step(100))

	// v = tau/I * t
	v, err := j.Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1*0.001/0.1, v, 1e-4)
}

func TestHinge2WheelAngleNotImplemented(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="revolute2"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 1</xyz></axis><axis2><xyz>0 1 0</xyz></axis2></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	_, err = j.Angle(0)
	assert.NoError(t, err)
	a, err := j.Angle(1)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)
	assert.Equal(t, 0.0, a)

	assert.ErrorIs(t, j.SetDamping(0, 1), physics.ErrNotImplemented)
}

func TestBallSupportsAnchorOnly(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="ball"><parent>world</parent><child>arm</child><pose>0 0 1 0 0 0</pose></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	p, err := j.Anchor(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, p.Sub(mgl64.Vec3{0, 0, 1}).Len(), 1e-9)

	_, err = j.Angle(0)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)
	assert.ErrorIs(t, j.SetHighStop(0, 1), physics.ErrNotImplemented)
	_, err = j.ForceTorque()
	assert.NoError(t, err)
}

func TestSliderAndFixed(t *testing.T) {
	w := loadWorld(t, `<joint name="s" type="prismatic"><parent>world</parent><child>arm</child>
		<axis><xyz>1 0 0</xyz><limit><lower>-1</lower><upper>0.05</upper></limit></axis></joint>
		<joint name="f" type="fixed"><parent>arm</parent><child>wheel</child></joint>`)
	s, err := w.Joint("m", "s")
	require.NoError(t, err)
	assert.Equal(t, 2, w.Engine().ConstraintCount())

	for i := 0; i < 500; i++ {
		require.NoError(t, s.SetForce(0, 1))
		require.NoError(t, w.Step(1))
	}
	x, err := s.Angle(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, x, 5e-3)

	wheel := w.Model("m").Link("wheel")
	assert.InDelta(t, x, wheel.WorldPose().Pos.X(), 5e-3)
	assert.InDelta(t, -1, wheel.WorldPose().Pos.Z(), 5e-3)
}

func TestRemoveJointDestroysConstraint(t *testing.T) {
	w := loadWorld(t, stopHinge)
	require.Equal(t, 1, w.Engine().ConstraintCount())
	require.NoError(t, w.Model("m").RemoveJoint("j"))
	assert.Equal(t, 0, w.Engine().ConstraintCount())
}
