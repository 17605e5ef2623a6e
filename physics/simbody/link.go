package simbody

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/simtk"
	"github.com/milk9111/jointsim/physics"
)

// Link is mobilized from ground by a free mobilizer, by its inboard joint,
// or welded when static.
type Link struct {
	*physics.BaseLink
	engine *Engine
	mobod  *simtk.MobilizedBody
	free   bool
	added  bool
}

func (l *Link) Init() error {
	if !l.added {
		l.added = true
		l.engine.addLink(l)
	}
	return nil
}

func (l *Link) Fini() {
	if l.added {
		l.added = false
		l.engine.removeLink(l)
	}
	l.mobod = nil
}

func (l *Link) WorldPose() common.Pose {
	if st := l.engine.state(); st != nil && l.mobod != nil {
		if x, err := l.mobod.BodyTransform(st); err == nil {
			return x
		}
	}
	return l.InitialPose()
}

func (l *Link) velocity() (ang, lin mgl64.Vec3) {
	if st := l.engine.state(); st != nil && l.mobod != nil {
		ang, lin, _ = l.mobod.BodyVelocity(st)
	}
	return ang, lin
}

func (l *Link) LinearVelocity() mgl64.Vec3 {
	_, lin := l.velocity()
	return lin
}

func (l *Link) AngularVelocity() mgl64.Vec3 {
	ang, _ := l.velocity()
	return ang
}

func (l *Link) AddForce(f mgl64.Vec3) {
	if st := l.engine.state(); st != nil && l.mobod != nil {
		_ = l.engine.forces.AddInBodyForce(st, l.mobod, mgl64.Vec3{}, f)
	}
}

func (l *Link) AddTorque(t mgl64.Vec3) {
	if st := l.engine.state(); st != nil && l.mobod != nil {
		_ = l.engine.forces.AddInBodyForce(st, l.mobod, t, mgl64.Vec3{})
	}
}
