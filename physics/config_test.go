package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/sdf"
)

func mustParse(t *testing.T, doc string) *sdf.Element {
	t.Helper()
	e, err := sdf.Parse([]byte(doc))
	require.NoError(t, err)
	return e
}

func TestLoadJointConfig(t *testing.T) {
	e := mustParse(t, `<joint name="wheel" type="revolute2">
		<parent>chassis</parent>
		<child>tyre</child>
		<pose>0 0 0.5 0 0 0</pose>
		<axis>
			<xyz>0 0 2</xyz>
			<limit><lower>-0.3</lower><upper>0.3</upper><effort>5</effort></limit>
			<dynamics><damping>0.1</damping><friction>0.2</friction></dynamics>
		</axis>
		<axis2><xyz>0 1 0</xyz><limit><velocity>3</velocity></limit></axis2>
		<physics>
			<provide_feedback>true</provide_feedback>
			<ode><cfm>0.01</cfm><fudge_factor>1</fudge_factor><suspension><erp>0.5</erp></suspension></ode>
		</physics>
	</joint>`)

	cfg, err := LoadJointConfig(e)
	require.NoError(t, err)
	assert.Equal(t, "wheel", cfg.Name)
	assert.Equal(t, JointHinge2, cfg.Type)
	assert.Equal(t, "chassis", cfg.Parent)
	assert.Equal(t, "tyre", cfg.Child)
	assert.Equal(t, mgl64.Vec3{0, 0, 0.5}, cfg.Pose.Pos)
	require.Len(t, cfg.Axes, 2)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, cfg.Axes[0].XYZ)
	assert.Equal(t, -0.3, cfg.Axes[0].Lower)
	assert.Equal(t, 5.0, cfg.Axes[0].Effort)
	assert.Equal(t, 0.1, cfg.Axes[0].Damping)
	assert.Equal(t, 0.2, cfg.Axes[0].Friction)
	assert.Equal(t, -1.0, cfg.Axes[0].Velocity)
	assert.Equal(t, 3.0, cfg.Axes[1].Velocity)
	assert.Equal(t, common.Unlimited, cfg.Axes[1].Upper)
	assert.Equal(t, -1.0, cfg.Axes[1].Effort)
	assert.Equal(t, 1.0, cfg.ThreadPitch)
	assert.True(t, cfg.ProvideFeedback)
	require.NotNil(t, cfg.ODE)
	assert.Equal(t, 0.01, cfg.ODE.CFM)
	assert.Equal(t, 0.2, cfg.ODE.ERP)
	assert.Equal(t, 0.5, cfg.ODE.SuspensionERP)
}

func TestLoadJointConfigMissingElements(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no parent", `<joint name="j" type="revolute"><child>c</child><axis><xyz>0 0 1</xyz></axis></joint>`},
		{"no child", `<joint name="j" type="revolute"><parent>p</parent><axis><xyz>0 0 1</xyz></axis></joint>`},
		{"no axis", `<joint name="j" type="prismatic"><parent>p</parent><child>c</child></joint>`},
		{"no axis2", `<joint name="j" type="universal"><parent>p</parent><child>c</child><axis><xyz>0 0 1</xyz></axis></joint>`},
		{"no xyz", `<joint name="j" type="screw"><parent>p</parent><child>c</child><axis/></joint>`},
		{"no name", `<joint type="ball"><parent>p</parent><child>c</child></joint>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJointConfig(mustParse(t, tt.doc))
			assert.ErrorIs(t, err, ErrMissingElement)
		})
	}
}

func TestLoadJointConfigBallNeedsNoAxis(t *testing.T) {
	cfg, err := LoadJointConfig(mustParse(t, `<joint name="j" type="ball"><parent>world</parent><child>c</child></joint>`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Axes)
	assert.Equal(t, common.Unlimited, cfg.Axis(0).Upper)
}

func TestLoadLinkConfig(t *testing.T) {
	cfg, err := LoadLinkConfig(mustParse(t, `<link name="arm">
		<pose>0 0 1 0 0 0</pose>
		<gravity>false</gravity>
		<inertial><mass>2</mass><inertia><izz>0.1</izz></inertia></inertial>
	</link>`), true)
	require.NoError(t, err)
	assert.Equal(t, "arm", cfg.Name)
	assert.Equal(t, 2.0, cfg.Mass)
	assert.Equal(t, mgl64.Vec3{1, 1, 0.1}, cfg.Inertia)
	assert.False(t, cfg.Gravity)
	assert.True(t, cfg.Static)

	_, err = LoadLinkConfig(mustParse(t, `<link name="bad"><inertial><mass>0</mass></inertial></link>`), false)
	assert.Error(t, err)
}
