package engines

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/physics/bullet"
	"github.com/milk9111/jointsim/sdf"
)

var allEngines = []string{"ode", "bullet", "simbody", "dart", "chipmunk"}

var allKinds = []physics.JointType{
	physics.JointHinge, physics.JointHinge2, physics.JointBall, physics.JointSlider,
	physics.JointScrew, physics.JointUniversal, physics.JointFixed,
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine(t *testing.T, name string) physics.Engine {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	ctx := physics.DefaultEngineContext()
	ctx.Logger = discard()
	e, err := reg.New(name, ctx)
	require.NoError(t, err)
	return e
}

func loadWorld(t *testing.T, engine, joint string) *physics.World {
	t.Helper()
	doc := `<world name="w">
	<gravity>0 0 0</gravity>
	<physics><max_step_size>0.001</max_step_size></physics>
	<model name="m">
		<link name="arm"><inertial><mass>1</mass><inertia><ixx>0.1</ixx><iyy>0.1</iyy><izz>0.1</izz></inertia></inertial></link>
		` + joint + `
	</model>
</world>`
	root, err := sdf.Parse([]byte(doc))
	require.NoError(t, err)
	reg, err := NewRegistry()
	require.NoError(t, err)
	w, err := physics.LoadWorld(root, reg, physics.LoadOptions{Engine: engine, Logger: discard()})
	require.NoError(t, err)
	require.NoError(t, w.Init())
	return w
}

const freeHinge = `<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>`

const stopHinge = `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
	<axis><xyz>0 0 1</xyz><limit><lower>-0.1</lower><upper>0.4</upper></limit></axis></joint>`

func TestRegistryNames(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.ElementsMatch(t, allEngines, reg.Names())
	assert.Contains(t, reg.Names(), Default)
	assert.Equal(t, allEngines, Names())
	assert.Error(t, Register(reg))
}

func TestOperationsBeforeAttachFail(t *testing.T) {
	for _, engine := range allEngines {
		for _, kind := range allKinds {
			t.Run(engine+"/"+kind.String(), func(t *testing.T) {
				j, err := newEngine(t, engine).NewJoint(kind)
				if err != nil {
					t.Skipf("%s cannot build %s: %v", engine, kind, err)
				}
				plausible := func(v float64, err error) {
					t.Helper()
					assert.ErrorIs(t, err, physics.ErrNotCreated)
					assert.True(t, v == 0 || math.IsNaN(v), "got %g", v)
				}
				plausible(j.Angle(0))
				plausible(j.Velocity(0))
				plausible(j.Force(0))
				plausible(j.HighStop(0))
				plausible(j.LowStop(0))
				plausible(j.MaxForce(0))
				plausible(j.Damping(0))

				_, err = j.Anchor(0)
				assert.ErrorIs(t, err, physics.ErrNotCreated)
				_, err = j.Axis(0)
				assert.ErrorIs(t, err, physics.ErrNotCreated)
				_, err = j.ForceTorque()
				assert.ErrorIs(t, err, physics.ErrNotCreated)
				assert.ErrorIs(t, j.SetForce(0, 1), physics.ErrNotCreated)
				assert.ErrorIs(t, j.SetHighStop(0, 1), physics.ErrNotCreated)
				assert.ErrorIs(t, j.SetVelocity(0, 1), physics.ErrNotCreated)
				assert.NotPanics(t, j.Update)
				assert.NotPanics(t, j.ClearForces)
			})
		}
	}
}

func TestStopRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		low, high float64
	}{
		{"symmetric", -0.5, 0.5},
		{"closed", 0, 0},
		{"negative", -1, -0.2},
		{"wide", 0.1, 2},
	}
	for _, engine := range allEngines {
		for _, tc := range cases {
			t.Run(engine+"/"+tc.name, func(t *testing.T) {
				j, err := loadWorld(t, engine, freeHinge).Joint("m", "j")
				require.NoError(t, err)
				require.NoError(t, j.SetLowStop(0, tc.low))
				require.NoError(t, j.SetHighStop(0, tc.high))
				lo, err := j.LowStop(0)
				require.NoError(t, err)
				hi, err := j.HighStop(0)
				require.NoError(t, err)
				assert.InDelta(t, tc.low, lo, 1e-12)
				assert.InDelta(t, tc.high, hi, 1e-12)
			})
		}
	}
}

func TestAnchorIsIdempotent(t *testing.T) {
	for _, engine := range allEngines {
		t.Run(engine, func(t *testing.T) {
			w := loadWorld(t, engine, `<joint name="j" type="revolute"><parent>world</parent><child>arm</child>
				<pose>0.5 0.25 0 0 0 0</pose><axis><xyz>0 0 1</xyz></axis></joint>`)
			j, err := w.Joint("m", "j")
			require.NoError(t, err)
			first, err := j.Anchor(0)
			require.NoError(t, err)
			assert.InDelta(t, 0.5, first.X(), 1e-12)
			assert.InDelta(t, 0.25, first.Y(), 1e-12)
			for i := 0; i < 3; i++ {
				again, err := j.Anchor(0)
				require.NoError(t, err)
				assert.Equal(t, first, again)
			}
		})
	}
}

func TestForceDoesNotPersist(t *testing.T) {
	for _, engine := range allEngines {
		t.Run(engine, func(t *testing.T) {
			w := loadWorld(t, engine, freeHinge)
			j, err := w.Joint("m", "j")
			require.NoError(t, err)

			require.NoError(t, j.SetForce(0, 0.1))
			require.NoError(t, w.Step(1))
			v1, err := j.Velocity(0)
			require.NoError(t, err)
			require.Greater(t, v1, 0.0)

			require.NoError(t, w.Step(1))
			v2, err := j.Velocity(0)
			require.NoError(t, err)
			assert.InDelta(t, v1, v2, 1e-6*v1+1e-12)
			f, err := j.Force(0)
			require.NoError(t, err)
			assert.Equal(t, 0.0, f)
		})
	}
}

func TestResetWithdrawsForce(t *testing.T) {
	for _, engine := range allEngines {
		t.Run(engine, func(t *testing.T) {
			ref := loadWorld(t, engine, freeHinge)
			rj, err := ref.Joint("m", "j")
			require.NoError(t, err)
			require.NoError(t, rj.SetForce(0, 1))
			require.NoError(t, ref.Step(1))
			want, err := rj.Velocity(0)
			require.NoError(t, err)
			require.Greater(t, want, 0.0)

			w := loadWorld(t, engine, freeHinge)
			j, err := w.Joint("m", "j")
			require.NoError(t, err)

			require.NoError(t, j.SetForce(0, 1))
			j.Reset()
			f, err := j.Force(0)
			require.NoError(t, err)
			assert.Equal(t, 0.0, f)
			require.NoError(t, w.Step(1))
			v, err := j.Velocity(0)
			require.NoError(t, err)
			assert.InDelta(t, 0, v, 1e-9)

			require.NoError(t, j.SetForce(0, 1))
			j.Reset()
			require.NoError(t, j.SetForce(0, 1))
			require.NoError(t, w.Step(1))
			v, err = j.Velocity(0)
			require.NoError(t, err)
			assert.InDelta(t, want, v, 1e-6*want)
		})
	}
}

func TestDestroyedJointLeavesSolver(t *testing.T) {
	for _, engine := range allEngines {
		t.Run(engine, func(t *testing.T) {
			w := loadWorld(t, engine, stopHinge)
			j, err := w.Joint("m", "j")
			require.NoError(t, err)
			require.Positive(t, w.Engine().ConstraintCount())

			require.NoError(t, w.Model("m").RemoveJoint("j"))
			assert.Zero(t, w.Engine().ConstraintCount())
			assert.Equal(t, physics.Destroyed, j.State())
			assert.NoError(t, w.Step(10))
			_, err = j.Angle(0)
			assert.ErrorIs(t, err, physics.ErrDestroyed)
		})
	}
}

func TestHingeSaturatesOnEveryEngine(t *testing.T) {
	for _, engine := range allEngines {
		t.Run(engine, func(t *testing.T) {
			w := loadWorld(t, engine, stopHinge)
			j, err := w.Joint("m", "j")
			require.NoError(t, err)

			prev := math.Inf(-1)
			maxAngle := prev
			for i := 0; i < 2000; i++ {
				require.NoError(t, j.SetForce(0, 0.1))
				require.NoError(t, w.Step(1))
				a, err := j.Angle(0)
				require.NoError(t, err)
				if a < 0.39 {
					require.GreaterOrEqual(t, a, prev-1e-6, "step %d", i)
				}
				prev = a
				maxAngle = math.Max(maxAngle, a)
			}
			assert.InDelta(t, 0.4, prev, 1e-2)
			assert.LessOrEqual(t, maxAngle, 0.41)
		})
	}
}

func TestBulletHinge2AngleBeforeInit(t *testing.T) {
	j, err := newEngine(t, bullet.Name).NewJoint(physics.JointHinge2)
	require.NoError(t, err)
	a, err := j.Angle(0)
	assert.ErrorIs(t, err, physics.ErrNotCreated)
	assert.Equal(t, 0.0, a)
}

func TestBulletScrewIsASlider(t *testing.T) {
	j, err := newEngine(t, bullet.Name).NewJoint(physics.JointScrew)
	assert.Nil(t, j)
	require.ErrorIs(t, err, physics.ErrNotImplemented)
	assert.Contains(t, err.Error(), "not a screw joint")
}
