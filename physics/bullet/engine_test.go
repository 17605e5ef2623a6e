package bullet

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

func newEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := physics.DefaultEngineContext()
	ctx.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(ctx)
	require.NoError(t, err)
	return e.(*Engine)
}

func TestHingeSaturatesAtStop(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 1</xyz><limit><lower>-0.1</lower><upper>0.4</upper></limit></axis></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	lo, err := j.LowStop(0)
	require.NoError(t, err)
	assert.Equal(t, -0.1, lo)

	prev := math.Inf(-1)
	maxAngle := prev
	for i := 0; i < 2000; i++ {
		require.NoError(t, j.SetForce(0, 0.1))
		require.NoError(t, w.Step(1))
		a, err := j.Angle(0)
		require.NoError(t, err)
		if a < 0.39 {
			assert.GreaterOrEqual(t, a, prev-1e-9)
		}
		prev = a
		maxAngle = math.Max(maxAngle, a)
	}
	assert.InDelta(t, 0.4, prev, 1e-2)
	assert.LessOrEqual(t, maxAngle, 0.41)
}

func TestHingeMotorUsesImpulsePerStep(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	require.NoError(t, j.SetMaxForce(0, 10))
	f, err := j.MaxForce(0)
	require.NoError(t, err)
	assert.InDelta(t, 10, f, 1e-9)
	assert.InDelta(t, 10*0.001, j.(*Hinge).hinge.MaxMotorImpulse(), 1e-12)

	require.NoError(t, j.SetVelocity(0, 0.5))
	require.NoError(t, w.Step(50))
	v, err := j.Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-3)
}

func TestHinge2AngleBeforeInit(t *testing.T) {
	j, err := newEngine(t).NewJoint(physics.JointHinge2)
	require.NoError(t, err)

	a, err := j.Angle(0)
	assert.ErrorIs(t, err, physics.ErrNotCreated)
	assert.Equal(t, 0.0, a)
}

func TestHinge2Capabilities(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="revolute2"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 1</xyz><limit><lower>-0.2</lower><upper>0.2</upper></limit></axis>
		<axis2><xyz>0 1 0</xyz></axis2></joint>`)
	j, err := w.Joint("m", "j")
	require.NoError(t, err)

	m := j.(*Hinge2).hinge2.RotationalLimitMotor(0)
	assert.Equal(t, -0.2, m.LoLimit)
	assert.Equal(t, 0.2, m.HiLimit)

	_, err = j.Angle(1)
	assert.NoError(t, err)
	assert.ErrorIs(t, j.SetForce(0, 1), physics.ErrNotImplemented)
	assert.ErrorIs(t, j.SetVelocity(0, 1), physics.ErrNotImplemented)
	assert.ErrorIs(t, j.SetMaxForce(0, 1), physics.ErrNotImplemented)
	assert.ErrorIs(t, j.SetAxis(0, mgl64.Vec3{1, 0, 0}), physics.ErrNotImplemented)
	_, err = j.ForceTorque()
	assert.NoError(t, err)
}

func TestScrewFailsAtConstruction(t *testing.T) {
	j, err := newEngine(t).NewJoint(physics.JointScrew)
	assert.Nil(t, j)
	require.ErrorIs(t, err, physics.ErrNotImplemented)
	assert.Contains(t, err.Error(), "not a screw joint")
}

func TestBallAndSlider(t *testing.T) {
	w := loadWorld(t, `<joint name="b" type="ball"><parent>world</parent><child>arm</child></joint>`)
	b, err := w.Joint("m", "b")
	require.NoError(t, err)
	assert.ErrorIs(t, b.SetHighStop(0, 1), physics.ErrNotImplemented)
	_, err = b.Velocity(0)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)

	w = loadWorld(t, `<joint name="s" type="prismatic"><parent>world</parent><child>arm</child>
		<axis><xyz>1 0 0</xyz><limit><lower>-1</lower><upper>0.05</upper></limit></axis></joint>`)
	s, err := w.Joint("m", "s")
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		require.NoError(t, s.SetForce(0, 1))
		require.NoError(t, w.Step(1))
	}
	x, err := s.Angle(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, x, 5e-3)
}

func TestRemoveJointDeregisters(t *testing.T) {
	w := loadWorld(t, `<joint name="j" type="universal"><parent>world</parent><child>arm</child>
		<axis><xyz>1 0 0</xyz></axis><axis2><xyz>0 1 0</xyz></axis2></joint>`)
	require.Equal(t, 1, w.Engine().ConstraintCount())
	require.NoError(t, w.Model("m").RemoveJoint("j"))
	assert.Equal(t, 0, w.Engine().ConstraintCount())
}
