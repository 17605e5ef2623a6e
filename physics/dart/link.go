package dart

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/dartsim"
	"github.com/milk9111/jointsim/physics"
)

// Link is a body node of its model's skeleton. Static links and the ground
// have no node and act as the world.
type Link struct {
	*physics.BaseLink
	engine *Engine
	node   *dartsim.BodyNode
}

func (l *Link) Init() error {
	if l.Static() || l.node != nil {
		return nil
	}
	cfg := l.Config()
	n, err := l.engine.skeleton(l.Model()).CreateBodyNode(dartsim.BodyNodeProperties{
		Name:      cfg.Name,
		Mass:      cfg.Mass,
		Inertia:   cfg.Inertia,
		Gravity:   cfg.Gravity,
		Transform: l.InitialPose(),
	})
	if err != nil {
		return err
	}
	l.node = n
	return nil
}

// Fini drops the node handle. Body nodes leave the world with their skeleton.
func (l *Link) Fini() { l.node = nil }

func (l *Link) WorldPose() common.Pose {
	if l.node != nil {
		if x, err := l.node.WorldTransform(); err == nil {
			return x
		}
	}
	return l.InitialPose()
}

func (l *Link) LinearVelocity() mgl64.Vec3 {
	if l.node == nil {
		return mgl64.Vec3{}
	}
	lin, _, _ := l.node.Velocity()
	return lin
}

func (l *Link) AngularVelocity() mgl64.Vec3 {
	if l.node == nil {
		return mgl64.Vec3{}
	}
	_, ang, _ := l.node.Velocity()
	return ang
}

func (l *Link) AddForce(f mgl64.Vec3) {
	if l.node != nil {
		l.node.AddExtForce(f)
	}
}

func (l *Link) AddTorque(t mgl64.Vec3) {
	if l.node != nil {
		l.node.AddExtTorque(t)
	}
}
