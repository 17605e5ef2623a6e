package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestPoseComposeInverse(t *testing.T) {
	p := PoseFromXYZRPY(1, 2, 3, 0.1, -0.4, 1.2)
	o := PoseFromXYZRPY(-0.5, 0, 2, 0.3, 0.2, -0.7)

	id := p.Compose(p.Inverse())
	assert.InDelta(t, 0, id.Pos.Len(), 1e-9)
	assert.InDelta(t, 1, math.Abs(id.Rot.W), 1e-9)

	pt := mgl64.Vec3{0.2, -1, 4}
	direct := p.Compose(o).TransformPoint(pt)
	nested := p.TransformPoint(o.TransformPoint(pt))
	assert.InDelta(t, 0, direct.Sub(nested).Len(), 1e-9)
	assert.InDelta(t, 0, p.InverseTransformPoint(p.TransformPoint(pt)).Sub(pt).Len(), 1e-9)
}

func TestPoseRPYRoundTrip(t *testing.T) {
	p := PoseFromXYZRPY(0, 0, 0, 0.3, -0.2, 1.1)
	r, pi, y := p.RPY()
	assert.InDelta(t, 0.3, r, 1e-9)
	assert.InDelta(t, -0.2, pi, 1e-9)
	assert.InDelta(t, 1.1, y, 1e-9)
}

func TestZeroPoseIsIdentity(t *testing.T) {
	var p Pose
	v := mgl64.Vec3{1, 2, 3}
	assert.Equal(t, v, p.TransformPoint(v))
}

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, WrapAngle(tc.in), 1e-9, "in=%v", tc.in)
	}
}

func TestPerpendicularBasis(t *testing.T) {
	for _, n := range []mgl64.Vec3{{0, 0, 1}, {1, 0, 0}, {0.3, -0.5, 0.2}} {
		p, q := Perpendicular(n)
		n = Normalize(n)
		assert.InDelta(t, 0, p.Dot(n), 1e-9)
		assert.InDelta(t, 0, q.Dot(n), 1e-9)
		assert.InDelta(t, 0, p.Dot(q), 1e-9)
		assert.InDelta(t, 1, p.Len(), 1e-9)
		assert.InDelta(t, 0, p.Cross(q).Sub(n).Len(), 1e-9)
	}
}
