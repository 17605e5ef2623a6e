package bullet

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/btdynamics"
	"github.com/milk9111/jointsim/physics"
)

// Link owns a rigid body for dynamic links. Static links and the ground use
// the shared fixed body.
type Link struct {
	*physics.BaseLink
	engine *Engine
	body   *btdynamics.RigidBody
}

func (l *Link) Init() error {
	if l.Static() || l.body != nil {
		return nil
	}
	cfg := l.Config()
	pose := l.InitialPose()
	b := btdynamics.NewRigidBody(cfg.Mass, cfg.Inertia, btdynamics.NewTransform(pose.Rot, pose.Pos))
	b.SetGravityEnabled(cfg.Gravity)
	b.UserPointer = l
	l.engine.world.AddRigidBody(b)
	l.body = b
	return nil
}

func (l *Link) Fini() {
	if l.body != nil {
		l.engine.world.RemoveRigidBody(l.body)
		l.body = nil
	}
}

func (l *Link) WorldPose() common.Pose {
	if l.body == nil {
		return l.InitialPose()
	}
	return common.NewPose(l.body.CenterOfMassPosition(), l.body.Orientation())
}

func (l *Link) LinearVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	return l.body.LinearVelocity()
}

func (l *Link) AngularVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	return l.body.AngularVelocity()
}

func (l *Link) AddForce(f mgl64.Vec3) {
	if l.body != nil {
		l.body.ApplyCentralForce(f)
	}
}

func (l *Link) AddTorque(t mgl64.Vec3) {
	if l.body != nil {
		l.body.ApplyTorque(t)
	}
}

// rigidBody returns the body a constraint should use for l.
func rigidBody(l physics.Link) *btdynamics.RigidBody {
	if bl, ok := l.(*Link); ok && bl.body != nil {
		return bl.body
	}
	return btdynamics.FixedBody()
}

func pointInBody(b *btdynamics.RigidBody, p mgl64.Vec3) mgl64.Vec3 {
	return b.CenterOfMassTransform().Inverse().Apply(p)
}

func vectorInBody(b *btdynamics.RigidBody, v mgl64.Vec3) mgl64.Vec3 {
	return b.Orientation().Inverse().Rotate(v)
}
