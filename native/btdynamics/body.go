package btdynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/rigid"
)

// Transform is a rigid transform with a rotation basis and an origin.
type Transform struct {
	Basis  mgl64.Quat
	Origin mgl64.Vec3
}

func IdentityTransform() Transform { return Transform{Basis: mgl64.QuatIdent()} }

func NewTransform(basis mgl64.Quat, origin mgl64.Vec3) Transform {
	return Transform{Basis: basis, Origin: origin}
}

func (t Transform) pose() common.Pose { return common.NewPose(t.Origin, t.Basis) }

func transformFromPose(p common.Pose) Transform { return Transform{Basis: p.Rot, Origin: p.Pos} }

func (t Transform) Mul(o Transform) Transform { return transformFromPose(t.pose().Compose(o.pose())) }

func (t Transform) Inverse() Transform { return transformFromPose(t.pose().Inverse()) }

func (t Transform) Apply(v mgl64.Vec3) mgl64.Vec3 { return t.pose().TransformPoint(v) }

// RigidBody is a body whose transform is its centre of mass. A zero mass
// makes it static.
type RigidBody struct {
	rb          *rigid.Body
	world       *DynamicsWorld
	UserPointer any
}

func NewRigidBody(mass float64, localInertia mgl64.Vec3, startTransform Transform) *RigidBody {
	rb := rigid.NewBody(mass, localInertia)
	if mass <= 0 {
		rb = rigid.NewStaticBody()
	}
	rb.SetPose(startTransform.pose())
	b := &RigidBody{rb: rb}
	rb.UserData = b
	return b
}

var fixedBody = NewRigidBody(0, mgl64.Vec3{}, IdentityTransform())

// FixedBody returns the shared static body used by single-body constraints.
func FixedBody() *RigidBody { return fixedBody }

func (b *RigidBody) IsStaticObject() bool { return b.rb.Static() }
func (b *RigidBody) InvMass() float64     { return b.rb.InvMass() }

func (b *RigidBody) CenterOfMassTransform() Transform { return transformFromPose(b.rb.Pose()) }

func (b *RigidBody) SetCenterOfMassTransform(t Transform) { b.rb.SetPose(t.pose()) }

func (b *RigidBody) CenterOfMassPosition() mgl64.Vec3 { return b.rb.Pos }
func (b *RigidBody) Orientation() mgl64.Quat          { return b.rb.Rot }
func (b *RigidBody) LinearVelocity() mgl64.Vec3       { return b.rb.LinVel }
func (b *RigidBody) AngularVelocity() mgl64.Vec3      { return b.rb.AngVel }
func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3)   { b.rb.LinVel = v }
func (b *RigidBody) SetAngularVelocity(v mgl64.Vec3)  { b.rb.AngVel = v }
func (b *RigidBody) ApplyTorque(t mgl64.Vec3)         { b.rb.AddTorque(t) }
func (b *RigidBody) ApplyCentralForce(f mgl64.Vec3)   { b.rb.AddForce(f) }
func (b *RigidBody) TotalForce() mgl64.Vec3           { return b.rb.Force }
func (b *RigidBody) TotalTorque() mgl64.Vec3          { return b.rb.Torque }
func (b *RigidBody) ClearForces()                     { b.rb.ClearForces() }

// ApplyForce applies f at relPos, an offset from the centre of mass in world axes.
func (b *RigidBody) ApplyForce(f, relPos mgl64.Vec3) {
	b.rb.AddForceAtPoint(f, b.rb.Pos.Add(relPos))
}

func (b *RigidBody) SetGravityEnabled(on bool) { b.rb.GravityMode = on }

func (b *RigidBody) SetDamping(linear, angular float64) {
	b.rb.LinearDamping = linear
	b.rb.AngularDamping = angular
}

func (b *RigidBody) SetMassProps(mass float64, inertia mgl64.Vec3) { b.rb.SetMass(mass, inertia) }
