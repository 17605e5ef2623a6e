package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: rotate by Rot, then translate by Pos.
type Pose struct {
	Pos mgl64.Vec3
	Rot mgl64.Quat
}

func PoseIdent() Pose {
	return Pose{Rot: mgl64.QuatIdent()}
}

func NewPose(pos mgl64.Vec3, rot mgl64.Quat) Pose {
	return Pose{Pos: pos, Rot: rot}
}

// PoseFromXYZRPY builds a pose from a translation and fixed-axis roll, pitch, yaw.
func PoseFromXYZRPY(x, y, z, roll, pitch, yaw float64) Pose {
	return Pose{
		Pos: mgl64.Vec3{x, y, z},
		Rot: mgl64.AnglesToQuat(yaw, pitch, roll, mgl64.ZYX).Normalize(),
	}
}

// Compose returns p*o: o expressed in p's frame, mapped to p's parent frame.
func (p Pose) Compose(o Pose) Pose {
	return Pose{
		Pos: p.Pos.Add(p.rot().Rotate(o.Pos)),
		Rot: p.rot().Mul(o.rot()).Normalize(),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.rot().Conjugate()
	return Pose{Pos: inv.Rotate(p.Pos).Mul(-1), Rot: inv}
}

// TransformPoint maps a point from the local frame into the parent frame.
func (p Pose) TransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.Pos.Add(p.rot().Rotate(v))
}

// RotateVector maps a direction from the local frame into the parent frame.
func (p Pose) RotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return p.rot().Rotate(v)
}

func (p Pose) InverseTransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.rot().Conjugate().Rotate(v.Sub(p.Pos))
}

func (p Pose) InverseRotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return p.rot().Conjugate().Rotate(v)
}

// RPY returns roll, pitch, yaw of the rotation.
func (p Pose) RPY() (roll, pitch, yaw float64) {
	q := p.rot()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	sp := 2 * (w*y - z*x)
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}
	pitch = math.Asin(sp)
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// rot treats the zero quaternion as identity so zero-value poses are usable.
func (p Pose) rot() mgl64.Quat {
	if p.Rot.W == 0 && p.Rot.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return p.Rot
}

// Normalize returns v scaled to unit length, or the zero vector if v is degenerate.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Perpendicular returns two unit vectors forming a right-handed basis with n.
func Perpendicular(n mgl64.Vec3) (p, q mgl64.Vec3) {
	n = Normalize(n)
	if math.Abs(n[2]) > 0.7071 {
		a := n[1]*n[1] + n[2]*n[2]
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{0, -n[2] * k, n[1] * k}
	} else {
		a := n[0]*n[0] + n[1]*n[1]
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{-n[1] * k, n[0] * k, 0}
	}
	q = n.Cross(p)
	return p, q
}

// SkewAngle returns the signed angle of rotation q about unit axis.
func SkewAngle(q mgl64.Quat, axis mgl64.Vec3) float64 {
	return WrapAngle(2 * math.Atan2(q.V.Dot(axis), q.W))
}
