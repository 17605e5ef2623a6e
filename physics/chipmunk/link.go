package chipmunk

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/physics"
)

// Link is a cp body. Static links get their own static body at their pose;
// the ground is the space's static body.
type Link struct {
	*physics.BaseLink
	engine *Engine
	body   *cp.Body
}

func (l *Link) Init() error {
	if l.body != nil {
		return nil
	}
	cfg := l.Config()
	pose := l.InitialPose()
	_, _, yaw := pose.RPY()

	var b *cp.Body
	if l.Static() {
		b = cp.NewStaticBody()
	} else {
		if cfg.Mass <= 0 || cfg.Inertia.Z() <= 0 {
			return fmt.Errorf("link %q needs a positive mass and izz", cfg.Name)
		}
		b = cp.NewBody(cfg.Mass, cfg.Inertia.Z())
		if !cfg.Gravity {
			b.SetVelocityUpdateFunc(func(body *cp.Body, _ cp.Vector, damping, dt float64) {
				cp.BodyUpdateVelocity(body, cp.Vector{}, damping, dt)
			})
		}
	}
	b.SetPosition(cp.Vector{X: pose.Pos.X(), Y: pose.Pos.Y()})
	b.SetAngle(yaw)
	b.UserData = l
	l.engine.space.AddBody(b)
	l.body = b
	return nil
}

func (l *Link) Fini() {
	if l.body != nil && l.body != l.engine.space.StaticBody {
		l.engine.space.RemoveBody(l.body)
	}
	l.body = nil
}

func (l *Link) dynamic() bool {
	return l.body != nil && l.body.GetType() == cp.BODY_DYNAMIC
}

// WorldPose keeps the initial height of the link.
func (l *Link) WorldPose() common.Pose {
	init := l.InitialPose()
	if l.body == nil {
		return init
	}
	p := l.body.Position()
	rot := mgl64.QuatRotate(l.body.Angle(), mgl64.Vec3{0, 0, 1})
	return common.NewPose(mgl64.Vec3{p.X, p.Y, init.Pos.Z()}, rot)
}

func (l *Link) LinearVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	v := l.body.Velocity()
	return mgl64.Vec3{v.X, v.Y, 0}
}

func (l *Link) AngularVelocity() mgl64.Vec3 {
	if l.body == nil {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{0, 0, l.body.AngularVelocity()}
}

func (l *Link) AddForce(f mgl64.Vec3) {
	if l.dynamic() {
		l.body.ApplyForceAtWorldPoint(cp.Vector{X: f.X(), Y: f.Y()}, l.body.Position())
	}
}

func (l *Link) AddTorque(t mgl64.Vec3) {
	if l.dynamic() {
		l.body.SetTorque(l.body.Torque() + t.Z())
	}
}
