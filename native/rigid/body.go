// Package rigid is the maximal-coordinate rigid body kernel shared by the
// opende and btdynamics engines: bodies, Jacobian rows and a projected
// Gauss-Seidel impulse solver.
package rigid

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

// Body is a rigid body whose frame origin is its centre of mass.
type Body struct {
	Pos    mgl64.Vec3
	Rot    mgl64.Quat
	LinVel mgl64.Vec3
	AngVel mgl64.Vec3

	Mass    float64
	Inertia mgl64.Vec3 // principal moments in the body frame

	Force  mgl64.Vec3
	Torque mgl64.Vec3

	GravityMode    bool
	LinearDamping  float64
	AngularDamping float64

	invMass    float64
	invInertia mgl64.Vec3
	static     bool

	UserData any
}

// NewBody returns a dynamic body. Non-positive mass or inertia components
// are treated as infinite along that direction.
func NewBody(mass float64, inertia mgl64.Vec3) *Body {
	b := &Body{Rot: mgl64.QuatIdent(), GravityMode: true}
	b.SetMass(mass, inertia)
	return b
}

// NewStaticBody returns a body that is never moved by the solver.
func NewStaticBody() *Body {
	return &Body{Rot: mgl64.QuatIdent(), static: true}
}

func (b *Body) SetMass(mass float64, inertia mgl64.Vec3) {
	b.Mass = mass
	b.Inertia = inertia
	b.static = mass <= 0
	b.invMass = 0
	b.invInertia = mgl64.Vec3{}
	if b.static {
		return
	}
	b.invMass = 1 / mass
	for i := 0; i < 3; i++ {
		if inertia[i] > 0 {
			b.invInertia[i] = 1 / inertia[i]
		}
	}
}

func (b *Body) Static() bool { return b.static }

func (b *Body) InvMass() float64 { return b.invMass }

func (b *Body) Pose() common.Pose { return common.NewPose(b.Pos, b.Rot) }

func (b *Body) SetPose(p common.Pose) {
	b.Pos = p.Pos
	b.Rot = p.Rot.Normalize()
}

// InvInertiaWorld returns R * I^-1 * R^T.
func (b *Body) InvInertiaWorld() mgl64.Mat3 {
	if b.static {
		return mgl64.Mat3{}
	}
	r := b.Rot.Mat4().Mat3()
	return r.Mul3(mgl64.Diag3(b.invInertia)).Mul3(r.Transpose())
}

// InertiaWorld returns R * I * R^T.
func (b *Body) InertiaWorld() mgl64.Mat3 {
	r := b.Rot.Mat4().Mat3()
	return r.Mul3(mgl64.Diag3(b.Inertia)).Mul3(r.Transpose())
}

func (b *Body) PointToWorld(local mgl64.Vec3) mgl64.Vec3 { return b.Pos.Add(b.Rot.Rotate(local)) }

func (b *Body) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return b.Rot.Conjugate().Rotate(world.Sub(b.Pos))
}

func (b *Body) VectorToWorld(local mgl64.Vec3) mgl64.Vec3 { return b.Rot.Rotate(local) }

func (b *Body) VectorToLocal(world mgl64.Vec3) mgl64.Vec3 { return b.Rot.Conjugate().Rotate(world) }

// PointVelocity returns the world velocity of a world point rigidly attached to b.
func (b *Body) PointVelocity(world mgl64.Vec3) mgl64.Vec3 {
	return b.LinVel.Add(b.AngVel.Cross(world.Sub(b.Pos)))
}

func (b *Body) AddForce(f mgl64.Vec3) { b.Force = b.Force.Add(f) }

func (b *Body) AddTorque(t mgl64.Vec3) { b.Torque = b.Torque.Add(t) }

// AddForceAtPoint applies f at a world point, adding the induced torque.
func (b *Body) AddForceAtPoint(f, world mgl64.Vec3) {
	b.Force = b.Force.Add(f)
	b.Torque = b.Torque.Add(world.Sub(b.Pos).Cross(f))
}

func (b *Body) ClearForces() {
	b.Force = mgl64.Vec3{}
	b.Torque = mgl64.Vec3{}
}

// IntegrateVelocity applies gravity and accumulated forces over dt.
func (b *Body) IntegrateVelocity(gravity mgl64.Vec3, dt float64) {
	if b.static {
		return
	}
	acc := b.Force.Mul(b.invMass)
	if b.GravityMode {
		acc = acc.Add(gravity)
	}
	b.LinVel = b.LinVel.Add(acc.Mul(dt))

	iw := b.InertiaWorld()
	gyro := b.AngVel.Cross(iw.Mul3x1(b.AngVel))
	b.AngVel = b.AngVel.Add(b.InvInertiaWorld().Mul3x1(b.Torque.Sub(gyro)).Mul(dt))

	if b.LinearDamping > 0 {
		b.LinVel = b.LinVel.Mul(1 / (1 + dt*b.LinearDamping))
	}
	if b.AngularDamping > 0 {
		b.AngVel = b.AngVel.Mul(1 / (1 + dt*b.AngularDamping))
	}
}

// IntegratePosition advances position and orientation with the current velocities.
func (b *Body) IntegratePosition(dt float64) {
	if b.static {
		return
	}
	b.Pos = b.Pos.Add(b.LinVel.Mul(dt))
	w := mgl64.Quat{W: 0, V: b.AngVel}
	b.Rot = b.Rot.Add(w.Mul(b.Rot).Scale(0.5 * dt)).Normalize()
}
