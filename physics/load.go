package physics

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/jointsim/sdf"
)

// LoadOptions override values read from the world file. Zero values keep
// the file's settings.
type LoadOptions struct {
	Engine     string
	Logger     *slog.Logger
	StepSize   float64
	Iterations int
}

// LoadWorld builds a world from an <sdf> or <world> element on the named
// engine. The world still has to be initialized.
func LoadWorld(root *sdf.Element, reg *Registry, opts LoadOptions) (*World, error) {
	we := root
	if root != nil && root.Name == "sdf" {
		we = root.Element("world")
	}
	if we == nil || we.Name != "world" {
		return nil, missing("<world>")
	}
	name, _ := we.Attr("name")
	if name == "" {
		name = "default"
	}

	ctx, err := loadContext(we, opts)
	if err != nil {
		return nil, fmt.Errorf("world %q: %w", name, err)
	}
	engine, err := reg.New(opts.Engine, ctx)
	if err != nil {
		return nil, err
	}
	w := NewWorld(name, engine)
	for _, me := range we.Elements("model") {
		m, err := loadModel(me, engine)
		if err != nil {
			engine.Fini()
			return nil, fmt.Errorf("world %q: %w", name, err)
		}
		if err := w.AddModel(m); err != nil {
			engine.Fini()
			return nil, err
		}
	}
	return w, nil
}

func loadContext(we *sdf.Element, opts LoadOptions) (*EngineContext, error) {
	ctx := DefaultEngineContext()
	if opts.Logger != nil {
		ctx.Logger = opts.Logger
	}
	var err error
	if we.HasElement("gravity") {
		if ctx.Gravity, err = we.Vector3("gravity"); err != nil {
			return nil, err
		}
	}
	if p := we.Element("physics"); p != nil {
		if p.HasElement("gravity") {
			if ctx.Gravity, err = p.Vector3("gravity"); err != nil {
				return nil, err
			}
		}
		if ctx.StepSize, err = p.FloatOr("max_step_size", ctx.StepSize); err != nil {
			return nil, err
		}
		if ode := p.Element("ode"); ode != nil {
			if s := ode.Element("solver"); s != nil {
				if ctx.Iterations, err = s.IntOr("iters", ctx.Iterations); err != nil {
					return nil, err
				}
			}
			if c := ode.Element("constraints"); c != nil {
				if ctx.ERP, err = c.FloatOr("erp", ctx.ERP); err != nil {
					return nil, err
				}
				if ctx.CFM, err = c.FloatOr("cfm", ctx.CFM); err != nil {
					return nil, err
				}
			}
		}
	}
	if opts.StepSize > 0 {
		ctx.StepSize = opts.StepSize
	}
	if opts.Iterations > 0 {
		ctx.Iterations = opts.Iterations
	}
	if ctx.StepSize <= 0 {
		return nil, fmt.Errorf("step size must be positive, got %g", ctx.StepSize)
	}
	if ctx.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", ctx.Iterations)
	}
	return ctx, nil
}

func loadModel(me *sdf.Element, engine Engine) (*Model, error) {
	name, ok := me.Attr("name")
	if !ok || name == "" {
		return nil, missing("model name attribute in <%s>", me.Path())
	}
	static, err := me.BoolOr("static", false)
	if err != nil {
		return nil, err
	}
	pose, err := me.Pose("pose")
	if err != nil {
		return nil, err
	}
	m := NewModel(name, static, pose)

	for _, le := range me.Elements("link") {
		cfg, err := LoadLinkConfig(le, static)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		l, err := engine.NewLink(m, cfg)
		if err != nil {
			return nil, fmt.Errorf("model %q: link %q: %w", name, cfg.Name, err)
		}
		if err := m.AddLink(l); err != nil {
			return nil, err
		}
	}

	for _, je := range me.Elements("joint") {
		typ, _ := je.Attr("type")
		t, err := ParseJointType(typ)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		j, err := engine.NewJoint(t)
		if err != nil {
			jn, _ := je.Attr("name")
			return nil, fmt.Errorf("model %q: joint %q: %w", name, jn, err)
		}
		j.SetModel(m)
		if err := j.Load(je); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		if err := m.AddJoint(j); err != nil {
			return nil, err
		}
	}
	return m, nil
}
