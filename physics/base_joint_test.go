package physics

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/common"
)

const hingeDoc = `<joint name="hinge" type="revolute">
	<parent>world</parent>
	<child>arm</child>
	<pose>0 0 0.5 0 0 0</pose>
	<axis>
		<xyz>0 0 1</xyz>
		<limit><lower>-0.5</lower><upper>0.5</upper><effort>1</effort></limit>
	</axis>
</joint>`

type hingeFixture struct {
	engine *fakeEngine
	model  *Model
	joint  *fakeHinge
	arm    Link
}

func newHingeFixture(t *testing.T, logger *slog.Logger) hingeFixture {
	t.Helper()
	ctx := DefaultEngineContext()
	ctx.Logger = logger
	e, err := newFakeEngine(ctx)
	require.NoError(t, err)
	fe := e.(*fakeEngine)

	w := NewWorld("test", fe)
	m := NewModel("m", false, common.NewPose(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent()))
	require.NoError(t, w.AddModel(m))
	arm, err := fe.NewLink(m, LinkConfig{Name: "arm", Mass: 1, Inertia: mgl64.Vec3{1, 1, 1}, Pose: common.NewPose(mgl64.Vec3{0, 0, 1}, mgl64.QuatIdent())})
	require.NoError(t, err)
	require.NoError(t, m.AddLink(arm))

	j, err := fe.NewJoint(JointHinge)
	require.NoError(t, err)
	j.SetModel(m)
	require.NoError(t, j.Load(mustParse(t, hingeDoc)))
	require.NoError(t, m.AddJoint(j))
	return hingeFixture{engine: fe, model: m, joint: j.(*fakeHinge), arm: arm}
}

func TestJointNotCreated(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	assert.Equal(t, Loaded, j.State())

	a, err := j.Angle(0)
	assert.ErrorIs(t, err, ErrNotCreated)
	assert.Equal(t, 0.0, a)

	anchor, err := j.Anchor(0)
	assert.ErrorIs(t, err, ErrNotCreated)
	assert.Equal(t, mgl64.Vec3{}, anchor)

	var je *JointError
	require.ErrorAs(t, j.SetForce(0, 1), &je)
	assert.Equal(t, "set force", je.Op)
	assert.Equal(t, "hinge", je.Joint)
	assert.Equal(t, "fake", je.Engine)
}

func TestJointInitAttaches(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())
	assert.Equal(t, Constructed, j.State())
	assert.Equal(t, GroundLinkName, j.Parent().Name())
	assert.Equal(t, "arm", j.Child().Name())

	anchor, err := j.Anchor(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, anchor.Sub(mgl64.Vec3{1, 0, 1.5}).Len(), 1e-12, "anchor %v", anchor)

	// Configured stops are pushed at attach.
	hi, err := j.HighStop(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, hi)
	lo, err := j.LowStop(0)
	require.NoError(t, err)
	assert.Equal(t, -0.5, lo)

	assert.ErrorIs(t, j.Init(), ErrAlreadyCreated)
}

func TestJointIndexOutOfRange(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	require.NoError(t, f.joint.Init())

	for _, idx := range []int{-1, 1, 5} {
		v, err := f.joint.Angle(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.True(t, math.IsNaN(v))
	}
	_, err := f.joint.Anchor(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestJointNotImplementedLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	f := newHingeFixture(t, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, f.joint.Init())
	buf.Reset()

	err := f.joint.SetAxis(0, mgl64.Vec3{1, 0, 0})
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `op="set axis"`)

	mf, err := f.joint.MaxForce(0)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Equal(t, 0.0, mf)

	buf.Reset()
	_, err = f.joint.Angle(3)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestJointAttachFailures(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	assert.ErrorIs(t, f.joint.Attach(nil, f.arm), ErrNilLink)
	assert.Equal(t, Loaded, f.joint.State())

	f.engine.failAttach = true
	assert.Error(t, f.joint.Init())
	assert.Equal(t, Loaded, f.joint.State())
	assert.Nil(t, f.joint.Child())

	f.engine.failAttach = false
	require.NoError(t, f.joint.Init())
	assert.Equal(t, 1, f.engine.ConstraintCount())
}

func TestJointLoadTypeMismatch(t *testing.T) {
	e, err := newFakeEngine(DefaultEngineContext())
	require.NoError(t, err)
	j, err := e.NewJoint(JointBall)
	require.NoError(t, err)
	err = j.Load(mustParse(t, hingeDoc))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, Uninitialized, j.State())
	assert.ErrorIs(t, j.Init(), ErrNotLoaded)
}

func TestSetForceAccumulatesAndClamps(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())

	require.NoError(t, j.SetForce(0, 0.25))
	require.NoError(t, j.SetForce(0, 0.5))
	got, err := j.Force(0)
	require.NoError(t, err)
	assert.Equal(t, 0.75, got)

	// Effort is 1.
	require.NoError(t, j.SetForce(0, 3))
	got, _ = j.Force(0)
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 1.0, j.force)

	j.Reset()
	got, _ = j.Force(0)
	assert.Equal(t, 0.0, got)
	assert.Equal(t, 0.0, j.force)
}

func TestExplicitDamping(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())
	require.NoError(t, j.SetDamping(0, 0.5))
	assert.Error(t, j.SetDamping(0, -1))
	d, err := j.Damping(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, d)

	require.NoError(t, j.SetVelocity(0, 2))
	require.NoError(t, j.SetForce(0, 0.25))
	j.Update()
	assert.InDelta(t, 0.25-1.0, j.force, 1e-12)
}

func TestJointFini(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	require.NoError(t, f.joint.Init())
	f.joint.Fini()
	assert.Equal(t, Destroyed, f.joint.State())
	assert.Equal(t, 0, f.engine.ConstraintCount())

	_, err := f.joint.Velocity(0)
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, f.joint.Load(mustParse(t, hingeDoc)), ErrDestroyed)
	f.joint.Fini()
}

func TestUnsupportedKindHasNoAngles(t *testing.T) {
	e, err := newFakeEngine(DefaultEngineContext())
	require.NoError(t, err)
	j, err := e.NewJoint(JointBall)
	require.NoError(t, err)
	require.NoError(t, j.Load(mustParse(t, `<joint name="b" type="ball"><parent>world</parent><child>c</child></joint>`)))
	child, err := e.NewLink(nil, LinkConfig{Name: "c", Mass: 1, Inertia: mgl64.Vec3{1, 1, 1}})
	require.NoError(t, err)
	require.NoError(t, j.Attach(e.Ground(), child))

	_, err = j.Anchor(0)
	require.NoError(t, err)
	_, err = j.ForceTorque()
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.ErrorIs(t, j.SetDamping(0, 1), ErrNotImplemented)
}

func TestDampingRespectsEffort(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())
	require.NoError(t, j.SetDamping(0, 0.5))
	require.NoError(t, j.SetVelocity(0, -2))

	// Effort is 1; 0.9 applied plus 1.0 of damping is truncated.
	require.NoError(t, j.SetForce(0, 0.9))
	j.Update()
	assert.Equal(t, 1.0, j.force)
	got, err := j.Force(0)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)
}

func TestResetWithdrawsAppliedForce(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())
	require.NoError(t, j.SetForce(0, 0.5))

	j.e.events = nil
	j.Reset()
	assert.Equal(t, []string{"force", "clear"}, j.e.events)
	assert.Equal(t, 0.0, j.force)
}

func TestJointResistance(t *testing.T) {
	cases := []struct {
		name              string
		damping, friction float64
		velocity, applied float64
		want              float64
	}{
		{"friction opposes motion", 0, 0.3, 2, 0, -0.3},
		{"friction opposes reverse motion", 0, 0.3, -2, 0.1, 0.4},
		{"no friction at rest", 0, 0.3, 0, 0.1, 0.1},
		{"damping and friction", 0.1, 0.2, 2, 0, -0.4},
		{"truncated to effort", 0, 0.5, -2, 0.8, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHingeFixture(t, discardLogger())
			j := f.joint
			require.NoError(t, j.Init())
			j.cfg.Axes[0].Friction = tc.friction
			if tc.damping > 0 {
				require.NoError(t, j.SetDamping(0, tc.damping))
			}
			require.NoError(t, j.SetVelocity(0, tc.velocity))
			require.NoError(t, j.SetForce(0, tc.applied))
			j.Update()
			assert.InDelta(t, tc.want, j.force, 1e-12)
		})
	}
}

func TestSetVelocityRespectsLimit(t *testing.T) {
	f := newHingeFixture(t, discardLogger())
	j := f.joint
	require.NoError(t, j.Init())
	j.cfg.Axes[0].Velocity = 1.5

	for _, tc := range []struct{ in, want float64 }{{2, 1.5}, {-3, -1.5}, {1, 1}} {
		require.NoError(t, j.SetVelocity(0, tc.in))
		assert.Equal(t, tc.want, j.vel, "in=%v", tc.in)
	}
}
