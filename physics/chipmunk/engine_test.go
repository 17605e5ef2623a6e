package chipmunk

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

const inertial = `<inertial><mass>1</mass><inertia><ixx>0.1</ixx><iyy>0.1</iyy><izz>0.1</izz></inertia></inertial>`

func loadWorld(t *testing.T, joints string) (*physics.World, error) {
	t.Helper()
	doc := `<world name="w">
	<gravity>0 0 -9.81</gravity>
	<physics><max_step_size>0.001</max_step_size></physics>
	<model name="m">
		<link name="arm">` + inertial + `</link>
		<link name="wheel"><pose>1 0 0 0 0 0</pose>` + inertial + `</link>
		` + joints + `
	</model>
</world>`
	root, err := sdf.Parse([]byte(doc))
	require.NoError(t, err)
	reg := physics.NewRegistry()
	require.NoError(t, reg.Register(Name, New))
	w, err := physics.LoadWorld(root, reg, physics.LoadOptions{Engine: Name, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	return w, w.Init()
}

func TestHingeSaturatesAtStop(t *testing.T) {
	w, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 1</xyz><limit><lower>-0.1</lower><upper>0.4</upper></limit></axis></joint>`)
	require.NoError(t, err)
	j := w.Model("m").Joint("j")
	assert.Equal(t, 3, w.Engine().ConstraintCount())

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

	// z gravity is dropped, so the arm stays on its pivot
	p := w.Model("m").Link("arm").WorldPose().Pos
	assert.InDelta(t, 0, p.X(), 1e-6)
	assert.InDelta(t, 0, p.Y(), 1e-6)
}

func TestNegativeAxisHinge(t *testing.T) {
	w, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 -1</xyz><limit><lower>-1</lower><upper>0.2</upper></limit></axis></joint>`)
	require.NoError(t, err)
	j := w.Model("m").Joint("j")

	for i := 0; i < 1000; i++ {
		require.NoError(t, j.SetForce(0, 0.1))
		require.NoError(t, w.Step(1))
	}
	a, err := j.Angle(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, a, 1e-2)
	assert.Less(t, w.Model("m").Link("arm").AngularVelocity().Z(), 1e-6)
	ax, err := j.Axis(0)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, 0, -1}, ax)
}

func TestHingeMotor(t *testing.T) {
	w, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>`)
	require.NoError(t, err)
	j := w.Model("m").Joint("j")

	require.NoError(t, j.SetVelocity(0, 0.5))
	require.NoError(t, w.Step(10))
	v, err := j.Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9, "motor without max force does nothing")

	require.NoError(t, j.SetMaxForce(0, 10))
	f, err := j.MaxForce(0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, f)
	require.NoError(t, w.Step(50))
	v, err = j.Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestSliderSaturatesAndFollowsAxis(t *testing.T) {
	w, err := loadWorld(t, `<joint name="s" type="prismatic"><parent>world</parent><child>arm</child>
		<axis><xyz>1 0 0</xyz><limit><lower>-1</lower><upper>0.05</upper></limit></axis></joint>`)
	require.NoError(t, err)
	s := w.Model("m").Joint("s")

	for i := 0; i < 500; i++ {
		require.NoError(t, s.SetForce(0, 1))
		require.NoError(t, w.Step(1))
	}
	x, err := s.Angle(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, x, 5e-3)
	assert.InDelta(t, x, w.Model("m").Link("arm").WorldPose().Pos.X(), 1e-9)

	assert.ErrorIs(t, s.SetVelocity(0, 1), physics.ErrNotImplemented)
	assert.ErrorIs(t, s.SetMaxForce(0, 1), physics.ErrNotImplemented)
	_, err = s.Velocity(0)
	assert.NoError(t, err)
}

func TestFixedHoldsWheel(t *testing.T) {
	w, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>
		<joint name="f" type="fixed"><parent>arm</parent><child>wheel</child></joint>`)
	require.NoError(t, err)
	j := w.Model("m").Joint("j")
	f := w.Model("m").Joint("f")
	assert.ErrorIs(t, f.SetHighStop(0, 1), physics.ErrNotImplemented)

	for i := 0; i < 200; i++ {
		require.NoError(t, j.SetForce(0, 1))
		require.NoError(t, w.Step(1))
	}
	a, err := j.Angle(0)
	require.NoError(t, err)
	require.Greater(t, a, 0.0)
	p := w.Model("m").Link("wheel").WorldPose().Pos
	assert.InDelta(t, math.Cos(a), p.X(), 1e-2)
	assert.InDelta(t, math.Sin(a), p.Y(), 1e-2)

	require.NoError(t, w.Model("m").RemoveJoint("f"))
	assert.Equal(t, 3, w.Engine().ConstraintCount())
}

func TestPlanarRestrictions(t *testing.T) {
	_, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>1 0 0</xyz></axis></joint>`)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)

	_, err = loadWorld(t, `<joint name="s" type="prismatic"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>`)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)

	e, err := New(physics.DefaultEngineContext())
	require.NoError(t, err)
	for _, kind := range []physics.JointType{physics.JointBall, physics.JointHinge2, physics.JointScrew, physics.JointUniversal} {
		_, err := e.NewJoint(kind)
		assert.ErrorIs(t, err, physics.ErrUnsupportedJoint, kind.String())
	}
}

func TestHingeExplicitDamping(t *testing.T) {
	w, err := loadWorld(t, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
		<axis><xyz>0 0 1</xyz><dynamics><damping>1</damping></dynamics></axis></joint>`)
	require.NoError(t, err)
	j := w.Model("m").Joint("j")

	w.Model("m").Link("arm").(*Link).body.SetAngularVelocity(1)
	require.NoError(t, w.Step(100))
	v, err := j.Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-1), v, 1e-2)

	_, err = j.ForceTorque()
	assert.ErrorIs(t, err, physics.ErrNotImplemented)
}
