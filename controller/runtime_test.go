package controller

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/config"
	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/physics/ode"
	"github.com/milk9111/jointsim/sdf"
)

type scripts map[string]string

func (s scripts) load(name string) ([]byte, error) {
	src, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("no script %q", name)
	}
	return []byte(src), nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func loadWorld(t *testing.T) *physics.World {
	t.Helper()
	doc := `<world name="w">
	<gravity>0 0 0</gravity>
	<physics><max_step_size>0.001</max_step_size></physics>
	<model name="m">
		<link name="arm"><inertial><mass>1</mass><inertia><ixx>0.1</ixx><iyy>0.1</iyy><izz>0.1</izz></inertia></inertial></link>
		<joint name="j" type="revolute"><parent>world</parent><child>arm</child><axis><xyz>0 0 1</xyz></axis></joint>
	</model>
</world>`
	root, err := sdf.Parse([]byte(doc))
	require.NoError(t, err)
	reg := physics.NewRegistry()
	require.NoError(t, reg.Register(ode.Name, ode.New))
	w, err := physics.LoadWorld(root, reg, physics.LoadOptions{Engine: ode.Name, Logger: discard()})
	require.NoError(t, err)
	require.NoError(t, w.Init())
	return w
}

var bind = []config.Controller{{Model: "m", Joint: "j", Script: "scripts/pd.tengo"}}

const pd = `
target := 0.3
force := -2.0 * (angle - target) - 0.5 * velocity
`

func TestPDControllerReachesTarget(t *testing.T) {
	w := loadWorld(t)
	rt, err := New(discard(), scripts{"scripts/pd.tengo": pd}.load, bind)
	require.NoError(t, err)
	w.AddSystem(rt)

	require.NoError(t, w.Step(3000))
	a, err := w.Model("m").Joint("j").Angle(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, a, 1e-2)
}

func TestScriptStateAndInputs(t *testing.T) {
	w := loadWorld(t)
	src := `
state.calls = is_undefined(state.calls) ? 1 : state.calls + 1
state.last = [time, dt, axis, joint, model]
`
	rt, err := New(discard(), scripts{"s.tengo": src}.load, []config.Controller{{Model: "m", Joint: "j", Script: "s.tengo"}})
	require.NoError(t, err)
	w.AddSystem(rt)
	require.NoError(t, w.Step(3))

	state := rt.bindings[0].state.Value
	require.Contains(t, state, "calls")
	require.Contains(t, state, "last")
	assert.Equal(t, "3", state["calls"].String())
	assert.Equal(t, `[0.002, 0.001, 0, "j", "m"]`, state["last"].String())
	f, err := w.Model("m").Joint("j").Force(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)
}

func TestScriptMayIgnoreInputs(t *testing.T) {
	w := loadWorld(t)
	rt, err := New(discard(), scripts{"push.tengo": "force := 1.0"}.load, []config.Controller{{Model: "m", Joint: "j", Script: "push.tengo"}})
	require.NoError(t, err)
	w.AddSystem(rt)
	require.NoError(t, w.Step(2))

	// v = tau/I * t
	v, err := w.Model("m").Joint("j").Velocity(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/0.1*0.002, v, 1e-4)
}

func TestFailingBindingIsSkipped(t *testing.T) {
	cases := map[string]config.Controller{
		"runtime error": {Model: "m", Joint: "j", Script: "index.tengo"},
		"string force":  {Model: "m", Joint: "j", Script: "str.tengo"},
		"unknown joint": {Model: "m", Joint: "nope", Script: "scripts/pd.tengo"},
	}
	src := scripts{
		"index.tengo":      "x := [1]\nx[5] = 2\nforce := 1.0",
		"str.tengo":        `force := "push"`,
		"scripts/pd.tengo": pd,
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			w := loadWorld(t)
			rt, err := New(discard(), src.load, []config.Controller{c})
			require.NoError(t, err)
			w.AddSystem(rt)
			require.NoError(t, w.Step(10))
			v, err := w.Model("m").Joint("j").Velocity(0)
			require.NoError(t, err)
			assert.Equal(t, 0.0, v)
		})
	}
}

func TestNewFailsOnBadScript(t *testing.T) {
	_, err := New(discard(), scripts{"bad.tengo": "force := ("}.load, []config.Controller{{Model: "m", Joint: "j", Script: "bad.tengo"}})
	assert.Error(t, err)
	_, err = New(discard(), scripts{}.load, bind)
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	src := scripts{"scripts/pd.tengo": "force := 1.0"}
	rt, err := New(discard(), src.load, bind)
	require.NoError(t, err)
	w := loadWorld(t)
	w.AddSystem(rt)

	src["scripts/pd.tengo"] = "force := -1.0"
	n, err := rt.Reload("/home/me/project/scripts/pd.tengo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = rt.Reload("other.tengo")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, w.Step(1))
	v, err := w.Model("m").Joint("j").Velocity(0)
	require.NoError(t, err)
	assert.Less(t, v, 0.0)

	src["scripts/pd.tengo"] = "force := ("
	_, err = rt.Reload("scripts/pd.tengo")
	assert.Error(t, err)
	require.NoError(t, w.Step(1))
	v2, err := w.Model("m").Joint("j").Velocity(0)
	require.NoError(t, err)
	assert.Less(t, v2, v)
}
