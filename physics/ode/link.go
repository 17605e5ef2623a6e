package ode

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/opende"
	"github.com/milk9111/jointsim/physics"
)

// Link is a dynamic body, or the environment when static.
type Link struct {
	*physics.BaseLink
	engine *Engine
	body   *opende.Body
}

func (l *Link) Init() error {
	if l.Static() || l.body != nil {
		return nil
	}
	cfg := l.Config()
	pose := l.InitialPose()
	b := opende.NewBody(l.engine.world)
	b.SetMass(opende.Mass{Mass: cfg.Mass, I: cfg.Inertia})
	b.SetPosition(pose.Pos)
	b.SetQuaternion(pose.Rot)
	b.SetGravityMode(cfg.Gravity)
	l.body = b
	return nil
}

func (l *Link) Fini() {
	if l.body != nil {
		l.body.Destroy()
		l.body = nil
	}
}

func (l *Link) WorldPose() common.Pose {
	if l.body == nil {
		return l.InitialPose()
	}
	return common.NewPose(l.body.Position(), l.body.Quaternion())
}

func (l *Link) LinearVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	return l.body.LinearVel()
}

func (l *Link) AngularVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	return l.body.AngularVel()
}

func (l *Link) AddForce(f mgl64.Vec3) {
	if l.body != nil {
		l.body.AddForce(f)
	}
}

func (l *Link) AddTorque(t mgl64.Vec3) {
	if l.body != nil {
		l.body.AddTorque(t)
	}
}

// body returns the native body of a link, nil for the environment.
func body(l physics.Link) *opende.Body {
	if ol, ok := l.(*Link); ok {
		return ol.body
	}
	return nil
}
