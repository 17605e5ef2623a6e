package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/jointsim/common"
	"github.com/milk9111/jointsim/sdf"
)

// AxisConfig is one <axis> or <axis2> element. XYZ is in the model frame.
type AxisConfig struct {
	XYZ      mgl64.Vec3
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
	Damping  float64
	Friction float64
}

// ODEConfig holds <physics><ode> joint settings.
type ODEConfig struct {
	CFM           float64
	ERP           float64
	FudgeFactor   float64
	SuspensionCFM float64
	SuspensionERP float64
	Bounce        float64
}

type JointConfig struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	// Pose is the joint frame relative to the child link.
	Pose            common.Pose
	Axes            []AxisConfig
	ThreadPitch     float64
	ProvideFeedback bool
	// ODE is nil when the joint has no <physics><ode> element.
	ODE *ODEConfig
}

// Axis returns axis i, or an unlimited zero axis when absent.
func (c JointConfig) Axis(i int) AxisConfig {
	if i >= 0 && i < len(c.Axes) {
		return c.Axes[i]
	}
	return AxisConfig{Lower: -common.Unlimited, Upper: common.Unlimited, Effort: -1, Velocity: -1}
}

func missing(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingElement, fmt.Sprintf(format, args...))
}

// LoadJointConfig reads a <joint> element.
func LoadJointConfig(e *sdf.Element) (JointConfig, error) {
	var cfg JointConfig
	if e == nil {
		return cfg, missing("<joint>")
	}
	name, ok := e.Attr("name")
	if !ok || name == "" {
		return cfg, missing("joint name attribute in <%s>", e.Path())
	}
	cfg.Name = name
	typ, ok := e.Attr("type")
	if !ok {
		return cfg, missing("type attribute of joint %q", name)
	}
	t, err := ParseJointType(typ)
	if err != nil {
		return cfg, err
	}
	cfg.Type = t

	if cfg.Parent, err = e.Get("parent"); err != nil {
		return cfg, missing("<parent> of joint %q", name)
	}
	if cfg.Child, err = e.Get("child"); err != nil {
		return cfg, missing("<child> of joint %q", name)
	}
	if cfg.Pose, err = e.Pose("pose"); err != nil {
		return cfg, err
	}
	if cfg.ThreadPitch, err = e.FloatOr("thread_pitch", 1); err != nil {
		return cfg, err
	}
	if cfg.ThreadPitch == 0 {
		return cfg, fmt.Errorf("joint %q: thread_pitch must be non-zero", name)
	}

	for i, tag := range []string{"axis", "axis2"} {
		ae := e.Element(tag)
		if ae == nil {
			if i < t.AxisCount() {
				return cfg, missing("<%s> of %s joint %q", tag, t, name)
			}
			break
		}
		ax, err := loadAxis(ae)
		if err != nil {
			return cfg, fmt.Errorf("joint %q: %w", name, err)
		}
		cfg.Axes = append(cfg.Axes, ax)
	}

	if p := e.Element("physics"); p != nil {
		if cfg.ProvideFeedback, err = p.BoolOr("provide_feedback", false); err != nil {
			return cfg, err
		}
		if o := p.Element("ode"); o != nil {
			ode, err := loadODE(o)
			if err != nil {
				return cfg, err
			}
			cfg.ODE = &ode
		}
	}
	return cfg, nil
}

func loadAxis(e *sdf.Element) (AxisConfig, error) {
	ax := AxisConfig{Lower: -common.Unlimited, Upper: common.Unlimited, Effort: -1, Velocity: -1}
	xyz, err := e.Vector3("xyz")
	if err != nil {
		return ax, missing("<xyz> in <%s>", e.Path())
	}
	if xyz.Len() < 1e-12 {
		return ax, fmt.Errorf("<%s>: zero axis", e.Path())
	}
	ax.XYZ = xyz.Normalize()

	if l := e.Element("limit"); l != nil {
		for _, f := range []struct {
			tag string
			dst *float64
		}{
			{"lower", &ax.Lower},
			{"upper", &ax.Upper},
			{"effort", &ax.Effort},
			{"velocity", &ax.Velocity},
			{"damping", &ax.Damping},
			{"friction", &ax.Friction},
		} {
			if *f.dst, err = l.FloatOr(f.tag, *f.dst); err != nil {
				return ax, err
			}
		}
	}
	if d := e.Element("dynamics"); d != nil {
		if ax.Damping, err = d.FloatOr("damping", ax.Damping); err != nil {
			return ax, err
		}
		if ax.Friction, err = d.FloatOr("friction", ax.Friction); err != nil {
			return ax, err
		}
	}
	if ax.Damping < 0 {
		return ax, fmt.Errorf("<%s>: negative damping %g", e.Path(), ax.Damping)
	}
	return ax, nil
}

func loadODE(e *sdf.Element) (ODEConfig, error) {
	c := ODEConfig{ERP: 0.2, SuspensionERP: 0.2}
	var err error
	if c.CFM, err = e.FloatOr("cfm", c.CFM); err != nil {
		return c, err
	}
	if c.ERP, err = e.FloatOr("erp", c.ERP); err != nil {
		return c, err
	}
	if c.FudgeFactor, err = e.FloatOr("fudge_factor", c.FudgeFactor); err != nil {
		return c, err
	}
	if c.Bounce, err = e.FloatOr("bounce", c.Bounce); err != nil {
		return c, err
	}
	if s := e.Element("suspension"); s != nil {
		if c.SuspensionCFM, err = s.FloatOr("cfm", c.SuspensionCFM); err != nil {
			return c, err
		}
		if c.SuspensionERP, err = s.FloatOr("erp", c.SuspensionERP); err != nil {
			return c, err
		}
	}
	return c, nil
}

type LinkConfig struct {
	Name string
	// Pose is relative to the model; its origin is the centre of mass.
	Pose    common.Pose
	Mass    float64
	Inertia mgl64.Vec3
	Gravity bool
	Static  bool
}

// LoadLinkConfig reads a <link> element of a model.
func LoadLinkConfig(e *sdf.Element, static bool) (LinkConfig, error) {
	cfg := LinkConfig{Mass: 1, Inertia: mgl64.Vec3{1, 1, 1}, Gravity: true, Static: static}
	name, ok := e.Attr("name")
	if !ok || name == "" {
		return cfg, missing("link name attribute in <%s>", e.Path())
	}
	cfg.Name = name
	var err error
	if cfg.Pose, err = e.Pose("pose"); err != nil {
		return cfg, err
	}
	if cfg.Gravity, err = e.BoolOr("gravity", true); err != nil {
		return cfg, err
	}
	if in := e.Element("inertial"); in != nil {
		if cfg.Mass, err = in.FloatOr("mass", 1); err != nil {
			return cfg, err
		}
		if it := in.Element("inertia"); it != nil {
			for i, tag := range []string{"ixx", "iyy", "izz"} {
				if cfg.Inertia[i], err = it.FloatOr(tag, 1); err != nil {
					return cfg, err
				}
			}
		}
	}
	if cfg.Mass <= 0 {
		return cfg, fmt.Errorf("link %q: mass must be positive, got %g", name, cfg.Mass)
	}
	for i := 0; i < 3; i++ {
		if cfg.Inertia[i] <= 0 {
			return cfg, fmt.Errorf("link %q: inertia must be positive, got %v", name, cfg.Inertia)
		}
	}
	return cfg, nil
}
