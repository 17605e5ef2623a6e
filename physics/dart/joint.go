package dart

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/native/dartsim"
	"github.com/milk9111/jointsim/physics"
)

type joint struct {
	physics.Unsupported
	engine *Engine
	dtype  dartsim.JointType
	native *dartsim.Joint
	child  *Link
}

// attach moves the child body node under the parent with a joint frame at
// the anchor, aligned with the world.
func (j *joint) attach(b *physics.BaseJoint, parent, child physics.Link) error {
	p, ok := parent.(*Link)
	c, ok2 := child.(*Link)
	if !ok || !ok2 {
		return fmt.Errorf("%w: links do not belong to the %s engine", physics.ErrNilLink, Name)
	}
	if c.node == nil {
		return fmt.Errorf("child link %q is static", c.Name())
	}
	if pj := c.node.ParentJoint(); pj.Type() != dartsim.FreeJoint {
		return fmt.Errorf("link %q is already the child of joint %q: closed loops are not supported", c.Name(), pj.Name())
	}

	frame := common.NewPose(b.InitialAnchor(), mgl64.QuatIdent())
	fromParent := frame
	if p.node != nil {
		fromParent = p.WorldPose().Inverse().Compose(frame)
	}
	nj, err := c.node.MoveTo(p.node, dartsim.JointProperties{
		Name:                b.Name(),
		Type:                j.dtype,
		TransformFromParent: fromParent,
		TransformFromChild:  c.WorldPose().Inverse().Compose(frame),
		Axis:                b.InitialAxis(0),
		Axis2:               b.InitialAxis(1),
	})
	if err != nil {
		return err
	}
	nj.SetPositionLimitEnforced(true)
	for i := 0; i < nj.NumDofs(); i++ {
		_ = nj.SetPositionLowerLimit(i, -common.Unlimited)
		_ = nj.SetPositionUpperLimit(i, common.Unlimited)
		_ = nj.SetForceLowerLimit(i, -common.Unlimited)
		_ = nj.SetForceUpperLimit(i, common.Unlimited)
	}
	j.native, j.child = nj, c
	j.engine.addJoint(j)
	return nil
}

// DetachImpl returns the child body node to a free root joint.
func (j *joint) DetachImpl() {
	j.engine.removeJoint(j)
	if j.child != nil && j.child.node != nil && j.child.node.ParentJoint() == j.native {
		props := dartsim.JointProperties{Name: j.child.Name() + "_root", Type: dartsim.FreeJoint}
		if _, err := j.child.node.MoveTo(nil, props); err != nil {
			j.engine.ctx.Logger.Error("dart detach failed", "joint", j.native.Name(), "err", err)
		}
	}
	j.native, j.child = nil, nil
}

func (j *joint) built() error {
	if !j.native.ChildBodyNode().Skeleton().IsBuilt() {
		return fmt.Errorf("%w: %v", physics.ErrNotInitialized, dartsim.ErrNotBuilt)
	}
	return nil
}

// dofJoint is a joint with scalar degrees of freedom.
type dofJoint struct {
	joint
}

func (j *dofJoint) AxisImpl(i int) (mgl64.Vec3, error) {
	v, err := j.native.WorldAxis(i)
	return v, native(err)
}

// SetAxisImpl takes a world axis and stores it in the joint frame. The
// second axis is given in the zero configuration of the first.
func (j *dofJoint) SetAxisImpl(i int, v mgl64.Vec3) error {
	frame := j.native.Properties().TransformFromParent
	if p := j.native.ParentBodyNode(); p != nil {
		x, err := p.WorldTransform()
		if err != nil {
			return native(err)
		}
		frame = x.Compose(frame)
	}
	local := frame.InverseRotateVector(v)
	if i == 1 && j.native.ChildBodyNode().Skeleton().IsBuilt() {
		q0, err := j.native.Position(0)
		if err != nil {
			return native(err)
		}
		a0, err := j.native.Axis(0)
		if err != nil {
			return err
		}
		local = mgl64.QuatRotate(-q0, a0).Rotate(local)
	}
	return j.native.SetAxis(i, local)
}

func (j *dofJoint) AngleImpl(i int) (float64, error) {
	v, err := j.native.Position(i)
	return v, native(err)
}

func (j *dofJoint) VelocityImpl(i int) (float64, error) {
	v, err := j.native.Velocity(i)
	return v, native(err)
}

func (j *dofJoint) SetVelocityImpl(i int, v float64) error {
	return native(j.native.SetVelocity(i, v))
}

// SetForceImpl sets the command for the next step. dartsim clamps it to the
// force limits and resets it after the step.
func (j *dofJoint) SetForceImpl(i int, f float64) error {
	if err := j.built(); err != nil {
		return err
	}
	return j.native.SetForce(i, f)
}

func (j *dofJoint) ClearForcesImpl() {
	for i := 0; i < j.native.NumDofs(); i++ {
		_ = j.native.SetForce(i, 0)
	}
}

func (j *dofJoint) HighStopImpl(i int) (float64, error) { return j.native.PositionUpperLimit(i) }
func (j *dofJoint) LowStopImpl(i int) (float64, error)  { return j.native.PositionLowerLimit(i) }

func (j *dofJoint) SetHighStopImpl(i int, a float64) error {
	return j.native.SetPositionUpperLimit(i, a)
}

func (j *dofJoint) SetLowStopImpl(i int, a float64) error {
	return j.native.SetPositionLowerLimit(i, a)
}

func (j *dofJoint) MaxForceImpl(i int) (float64, error) { return j.native.ForceUpperLimit(i) }

func (j *dofJoint) SetMaxForceImpl(i int, f float64) error {
	if f < 0 {
		return fmt.Errorf("negative max force %g", f)
	}
	if err := j.native.SetForceLowerLimit(i, -f); err != nil {
		return err
	}
	return j.native.SetForceUpperLimit(i, f)
}

func (j *dofJoint) DampingMode(int) physics.DampingMode { return physics.DampingNative }

func (j *dofJoint) SetDampingImpl(i int, d float64) error {
	return j.native.SetDampingCoefficient(i, d)
}
