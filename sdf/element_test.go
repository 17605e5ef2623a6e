package sdf

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<?xml version="1.0"?>
<sdf version="1.6">
  <world name="w">
    <model name="arm">
      <pose>1 0 0 0 0 0</pose>
      <link name="base"/>
      <link name="upper"><inertial><mass>2.5</mass></inertial></link>
      <joint name="shoulder" type="revolute">
        <parent>base</parent>
        <child>upper</child>
        <axis>
          <xyz>0 0 1</xyz>
          <limit><lower>-0.1</lower><upper>0.4</upper></limit>
        </axis>
        <physics><provide_feedback>true</provide_feedback></physics>
      </joint>
    </model>
  </world>
</sdf>`

func TestParseTree(t *testing.T) {
	root, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "sdf", root.Name)

	model := root.Element("world").Element("model")
	require.NotNil(t, model)
	name, ok := model.Attr("name")
	assert.True(t, ok)
	assert.Equal(t, "arm", name)
	assert.Len(t, model.Elements("link"), 2)

	joint := model.Element("joint")
	assert.Equal(t, "sdf/world/model/joint", joint.Path())
	parent, err := joint.Get("parent")
	require.NoError(t, err)
	assert.Equal(t, "base", parent)

	xyz, err := joint.Element("axis").Vector3("xyz")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, xyz)

	upper, err := joint.Element("axis").Element("limit").FloatOr("upper", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, upper, 1e-12)

	fb, err := joint.Element("physics").BoolOr("provide_feedback", false)
	require.NoError(t, err)
	assert.True(t, fb)

	pose, err := model.Pose("pose")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, pose.Pos)
}

func TestGetterErrors(t *testing.T) {
	root, err := Parse([]byte(`<joint><axis><xyz>0 1</xyz></axis><bad>x</bad></joint>`))
	require.NoError(t, err)

	_, err = root.Get("child")
	assert.True(t, errors.Is(err, ErrMissing))

	_, err = root.Element("axis").Vector3("xyz")
	assert.Error(t, err)

	_, err = root.FloatOr("bad", 1)
	assert.Error(t, err)

	v, err := root.FloatOr("absent", 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	var nilEl *Element
	assert.Nil(t, nilEl.Element("x"))
	assert.False(t, nilEl.HasElement("x"))
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse([]byte("   "))
	assert.Error(t, err)
}
