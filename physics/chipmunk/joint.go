package chipmunk

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/physics"
)

// joint owns the cp constraints that together make up one joint.
type joint struct {
	physics.Unsupported
	engine        *Engine
	parent, child *Link
	parts         []*cp.Constraint
}

func (j *joint) links(parent, child physics.Link) error {
	p, ok := parent.(*Link)
	c, ok2 := child.(*Link)
	if !ok || !ok2 || p.body == nil || c.body == nil {
		return fmt.Errorf("%w: links do not belong to the %s engine", physics.ErrNilLink, Name)
	}
	j.parent, j.child = p, c
	return nil
}

func (j *joint) register(parts ...*cp.Constraint) {
	for _, c := range parts {
		j.parts = append(j.parts, j.engine.add(c))
	}
}

func (j *joint) DetachImpl() {
	for _, c := range j.parts {
		j.engine.remove(c)
	}
	j.parts = nil
	j.parent, j.child = nil, nil
}

// phase is the child's angle relative to the parent.
func (j *joint) phase() float64 {
	return j.child.body.Angle() - j.parent.body.Angle()
}

// axisJoint keeps the stops and turns per-step force totals into the
// increments cp bodies accumulate.
type axisJoint struct {
	joint
	applied physics.ForceAccumulator
	lo, hi  float64
}

func (j *axisJoint) initAxis() {
	j.applied = physics.NewForceAccumulator(1)
	j.lo, j.hi = -common.Unlimited, common.Unlimited
}

func (j *axisJoint) ClearForcesImpl()                    { j.applied.Clear() }
func (j *axisJoint) DampingMode(int) physics.DampingMode { return physics.DampingExplicit }
func (j *axisJoint) HighStopImpl(int) (float64, error)   { return j.hi, nil }
func (j *axisJoint) LowStopImpl(int) (float64, error)    { return j.lo, nil }

func vec(v mgl64.Vec3) cp.Vector { return cp.Vector{X: v.X(), Y: v.Y()} }

func planar(v float64) float64 { return common.Clamp(v, -planeLimit, planeLimit) }
