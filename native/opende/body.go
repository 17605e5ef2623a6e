package opende

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/native/rigid"
)

// Mass is a body's total mass and principal moments of inertia.
type Mass struct {
	Mass float64
	I    mgl64.Vec3
}

// Body is a dynamic body in a World.
type Body struct {
	world   *World
	rb      *rigid.Body
	enabled bool
	Data    any
}

// NewBody creates a body with unit mass at the origin.
func NewBody(w *World) *Body {
	b := &Body{world: w, rb: rigid.NewBody(1, mgl64.Vec3{1, 1, 1}), enabled: true}
	b.rb.UserData = b
	w.bodies = append(w.bodies, b)
	return b
}

func (b *Body) SetMass(m Mass)             { b.rb.SetMass(m.Mass, m.I) }
func (b *Body) Mass() Mass                 { return Mass{Mass: b.rb.Mass, I: b.rb.Inertia} }
func (b *Body) SetPosition(p mgl64.Vec3)   { b.rb.Pos = p }
func (b *Body) Position() mgl64.Vec3       { return b.rb.Pos }
func (b *Body) SetQuaternion(q mgl64.Quat) { b.rb.Rot = q.Normalize() }
func (b *Body) Quaternion() mgl64.Quat     { return b.rb.Rot }
func (b *Body) SetLinearVel(v mgl64.Vec3)  { b.rb.LinVel = v }
func (b *Body) LinearVel() mgl64.Vec3      { return b.rb.LinVel }
func (b *Body) SetAngularVel(v mgl64.Vec3) { b.rb.AngVel = v }
func (b *Body) AngularVel() mgl64.Vec3     { return b.rb.AngVel }
func (b *Body) AddForce(f mgl64.Vec3)      { b.rb.AddForce(f) }
func (b *Body) AddTorque(t mgl64.Vec3)     { b.rb.AddTorque(t) }
func (b *Body) Force() mgl64.Vec3          { return b.rb.Force }
func (b *Body) Torque() mgl64.Vec3         { return b.rb.Torque }
func (b *Body) SetGravityMode(on bool)     { b.rb.GravityMode = on }
func (b *Body) GravityMode() bool          { return b.rb.GravityMode }
func (b *Body) Enable()                    { b.enabled = true }
func (b *Body) Disable()                   { b.enabled = false }
func (b *Body) IsEnabled() bool            { return b.enabled }

func (b *Body) AddForceAtPos(f, pos mgl64.Vec3) { b.rb.AddForceAtPoint(f, pos) }

func (b *Body) SetDamping(linear, angular float64) {
	b.rb.LinearDamping = linear
	b.rb.AngularDamping = angular
}

// Destroy removes the body from its world. Joints attached to it are detached.
func (b *Body) Destroy() {
	if b.world == nil {
		return
	}
	for _, j := range append([]Joint(nil), b.world.joints...) {
		base := j.base()
		if base.b1 == b || base.b2 == b {
			j.Attach(nil, nil)
		}
	}
	b.world.removeBody(b)
	b.world = nil
}
