package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
)

// Link is a rigid body as seen by joints. Engines wrap their native body.
type Link interface {
	Name() string
	Model() *Model
	Static() bool
	Config() LinkConfig
	Init() error
	Fini()
	WorldPose() common.Pose
	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	AddForce(f mgl64.Vec3)
	AddTorque(t mgl64.Vec3)
}

// BaseLink holds the engine independent part of a Link.
type BaseLink struct {
	cfg   LinkConfig
	model *Model
}

func NewBaseLink(cfg LinkConfig, model *Model) *BaseLink {
	return &BaseLink{cfg: cfg, model: model}
}

func (l *BaseLink) Name() string       { return l.cfg.Name }
func (l *BaseLink) Model() *Model      { return l.model }
func (l *BaseLink) Static() bool       { return l.cfg.Static }
func (l *BaseLink) Config() LinkConfig { return l.cfg }

// InitialPose is the configured pose in the world.
func (l *BaseLink) InitialPose() common.Pose {
	if l.model == nil {
		return l.cfg.Pose
	}
	return l.model.Pose.Compose(l.cfg.Pose)
}
