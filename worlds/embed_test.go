package worlds

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/config"
	"github.com/milk9111/jointsim/controller"
	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/physics/engines"
	"github.com/milk9111/jointsim/sdf"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func load(t *testing.T, name, engine string) *physics.World {
	t.Helper()
	data, err := Load(name)
	require.NoError(t, err)
	root, err := sdf.Parse(data)
	require.NoError(t, err)
	reg, err := engines.NewRegistry()
	require.NoError(t, err)
	w, err := physics.LoadWorld(root, reg, physics.LoadOptions{Engine: engine, Logger: discard()})
	require.NoError(t, err)
	require.NoError(t, w.Init())
	t.Cleanup(w.Fini)
	return w
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"double_pendulum", "hinge_stops", "joints"}, Names())
}

func TestPathForms(t *testing.T) {
	a, err := Load("hinge_stops")
	require.NoError(t, err)
	b, err := Load("worlds/hinge_stops.world")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = Load("missing")
	assert.Error(t, err)

	for _, name := range []string{"pd.tengo", "scripts/pd.tengo", "worlds/scripts/pd.tengo"} {
		src, err := LoadScript(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(src), "force")
	}
}

func TestDiskOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Dir, "hinge_stops.world"), []byte("<world/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Dir, "scripts", "pd.tengo"), []byte("force := 0"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	data, err := Load("hinge_stops")
	require.NoError(t, err)
	assert.Equal(t, "<world/>", string(data))
	_, ok := ModTime("hinge_stops")
	assert.True(t, ok)

	src, err := LoadScript("pd.tengo")
	require.NoError(t, err)
	assert.Equal(t, "force := 0", string(src))

	data, err = Load("joints")
	require.NoError(t, err)
	assert.Contains(t, string(data), "revolute2")
	_, ok = ModTime("joints")
	assert.False(t, ok)
}

func TestIsFile(t *testing.T) {
	for _, tc := range []struct {
		name string
		want bool
	}{
		{"hinge_stops", false},
		{"hinge_stops.world", false},
		{"worlds/joints.world", false},
		{"testdata/arm.world", true},
		{"/tmp/arm.world", true},
	} {
		assert.Equal(t, tc.want, IsFile(tc.name), tc.name)
	}
}

func TestHingeStopsOnEveryEngine(t *testing.T) {
	bind := []config.Controller{{Model: "arm", Joint: "j", Script: "push.tengo"}}
	for _, name := range engines.Names() {
		t.Run(name, func(t *testing.T) {
			w := load(t, "hinge_stops", name)
			rt, err := controller.New(discard(), LoadScript, bind)
			require.NoError(t, err)
			w.AddSystem(rt)

			require.NoError(t, w.Step(2000))
			j, err := w.Joint("arm", "j")
			require.NoError(t, err)
			a, err := j.Angle(0)
			require.NoError(t, err)
			assert.InDelta(t, 0.4, a, 1e-2)
		})
	}
}

func TestDoublePendulumFalls(t *testing.T) {
	for _, name := range engines.Names() {
		t.Run(name, func(t *testing.T) {
			w := load(t, "double_pendulum", name)
			m := w.Model("pendulum")
			require.NotNil(t, m)

			require.NoError(t, w.Step(300))
			assert.Less(t, m.Link("upper").WorldPose().Pos.Y(), -0.05)
			for _, j := range m.Joints() {
				_, err := j.Angle(0)
				assert.NoError(t, err, j.Name())
			}
		})
	}
}

func TestJointsShowcase(t *testing.T) {
	w := load(t, "joints", engines.Default)
	assert.Len(t, w.Models(), 7)
	assert.Equal(t, 8, w.Engine().ConstraintCount())
	require.NoError(t, w.Step(100))

	s, err := w.Joint("slider", "joint")
	require.NoError(t, err)
	x, err := s.Angle(0)
	require.NoError(t, err)
	assert.Less(t, x, 0.0)
}

func TestScriptsCompile(t *testing.T) {
	entries, err := ScriptsFS.ReadDir("scripts")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		_, err := controller.New(discard(), LoadScript, []config.Controller{{Model: "m", Joint: "j", Script: e.Name()}})
		assert.NoError(t, err, e.Name())
	}
}
