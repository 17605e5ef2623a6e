package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

type JointType int

const (
	JointTypeHinge JointType = iota + 1
	JointTypeHinge2
	JointTypeBall
	JointTypeSlider
	JointTypeScrew
	JointTypeUniversal
	JointTypeFixed
)

// JointFeedback receives the constraint force and torque applied to each
// body during the last step. Torques are about the body's centre of mass.
type JointFeedback struct {
	F1, T1 mgl64.Vec3
	F2, T2 mgl64.Vec3
}

// Joint is implemented by every joint type in this package.
type Joint interface {
	Type() JointType
	// Attach connects two bodies. A nil body is the static environment.
	Attach(b1, b2 *Body)
	Body(i int) *Body
	SetParam(p Param, v float64)
	Param(p Param) float64
	SetFeedback(fb *JointFeedback)
	Feedback() *JointFeedback
	// Destroy removes the joint from its world.
	Destroy()

	base() *jointBase
	rows(p rigid.Params) []*rigid.Row
}

type jointBase struct {
	world    *World
	self     Joint
	b1, b2   *Body
	limots   []limot
	erp      float64
	cfm      float64
	suspERP  float64
	suspCFM  float64
	feedback *JointFeedback
}

func (j *jointBase) init(w *World, self Joint, axes int) {
	j.world = w
	j.self = self
	j.erp, j.cfm = -1, -1
	j.suspERP, j.suspCFM = -1, -1
	j.limots = make([]limot, axes)
	for i := range j.limots {
		j.limots[i] = newLimot()
	}
	w.addJoint(self)
}

func (j *jointBase) base() *jointBase { return j }

func (j *jointBase) Attach(b1, b2 *Body) {
	j.b1, j.b2 = b1, b2
}

func (j *jointBase) Body(i int) *Body {
	if i == 0 {
		return j.b1
	}
	return j.b2
}

func (j *jointBase) SetFeedback(fb *JointFeedback) { j.feedback = fb }
func (j *jointBase) Feedback() *JointFeedback      { return j.feedback }

func (j *jointBase) Destroy() {
	if j.world == nil {
		return
	}
	j.world.removeJoint(j.self)
	j.world = nil
	j.b1, j.b2 = nil, nil
}

func (j *jointBase) SetParam(p Param, v float64) {
	base, axis := p.split()
	switch base {
	case ParamERP:
		j.erp = v
	case ParamCFM:
		j.cfm = v
	case ParamSuspensionERP:
		j.suspERP = v
	case ParamSuspensionCFM:
		j.suspCFM = v
	default:
		if axis < len(j.limots) {
			j.limots[axis].set(base, v)
		}
	}
}

func (j *jointBase) Param(p Param) float64 {
	base, axis := p.split()
	w := j.worldOrDefault()
	switch base {
	case ParamERP:
		return orDefault(j.erp, w.erp)
	case ParamCFM:
		return orDefault(j.cfm, w.cfm)
	case ParamSuspensionERP:
		return orDefault(j.suspERP, w.erp)
	case ParamSuspensionCFM:
		return orDefault(j.suspCFM, w.cfm)
	}
	if axis < len(j.limots) {
		if v, ok := j.limots[axis].get(base, w); ok {
			return v
		}
	}
	return 0
}

func (j *jointBase) worldOrDefault() *World {
	if j.world != nil {
		return j.world
	}
	return NewWorld()
}

func orDefault(v, def float64) float64 {
	if v < 0 {
		return def
	}
	return v
}

func (j *jointBase) params(dt float64) rigid.Params {
	w := j.worldOrDefault()
	return rigid.Params{ERP: orDefault(j.erp, w.erp), CFM: orDefault(j.cfm, w.cfm), DT: dt}
}

func (j *jointBase) suspensionParams(dt float64) rigid.Params {
	w := j.worldOrDefault()
	return rigid.Params{ERP: orDefault(j.suspERP, w.erp), CFM: orDefault(j.suspCFM, w.cfm), DT: dt}
}

func (j *jointBase) rb1() *rigid.Body {
	if j.b1 == nil {
		return j.env()
	}
	return j.b1.rb
}

func (j *jointBase) rb2() *rigid.Body {
	if j.b2 == nil {
		return j.env()
	}
	return j.b2.rb
}

func (j *jointBase) env() *rigid.Body {
	if j.world == nil {
		return rigid.NewStaticBody()
	}
	return j.world.env
}

// addTorque applies t to body 2 and the reaction to body 1.
func (j *jointBase) addTorque(t mgl64.Vec3) {
	if j.b1 != nil {
		j.b1.AddTorque(t.Mul(-1))
	}
	if j.b2 != nil {
		j.b2.AddTorque(t)
	}
}

func (j *jointBase) relativeRotation() mgl64.Quat {
	return j.rb1().Rot.Conjugate().Mul(j.rb2().Rot)
}

func (j *jointBase) relativeAngularVel(axis mgl64.Vec3) float64 {
	return j.rb2().AngVel.Sub(j.rb1().AngVel).Dot(axis)
}

// anchors stores a world point in both body frames.
func (j *jointBase) anchors(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return j.rb1().PointToLocal(p), j.rb2().PointToLocal(p)
}
