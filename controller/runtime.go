// Package controller drives joints from tengo scripts. Each binding runs its
// script once per world step and applies the script's force to one axis.
package controller

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/jointsim/config"
	"github.com/milk9111/jointsim/physics"
)

// Source reads a script by the name used in the configuration.
type Source func(name string) ([]byte, error)

// prelude unpacks the per-step inputs into script variables. Scripts may use
// any subset of them; error positions are one line off.
const prelude = "angle := __joint.angle; velocity := __joint.velocity; time := __joint.time; dt := __joint.dt; " +
	"axis := __joint.axis; joint := __joint.joint; model := __joint.model; state := __state\n"

type binding struct {
	cfg      config.Controller
	compiled *tengo.Compiled
	state    *tengo.Map
}

// Runtime is a physics.System running one compiled script per binding.
type Runtime struct {
	logger   *slog.Logger
	source   Source
	bindings []*binding
}

// New compiles the script of every controller. A script that does not
// compile fails the whole runtime.
func New(logger *slog.Logger, source Source, controllers []config.Controller) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{logger: logger, source: source}
	for _, c := range controllers {
		compiled, err := r.compile(c.Script)
		if err != nil {
			return nil, fmt.Errorf("controller %s/%s: %w", c.Model, c.Joint, err)
		}
		r.bindings = append(r.bindings, &binding{
			cfg:      c,
			compiled: compiled,
			state:    &tengo.Map{Value: map[string]tengo.Object{}},
		})
	}
	return r, nil
}

func (r *Runtime) Len() int { return len(r.bindings) }

func (r *Runtime) compile(name string) (*tengo.Compiled, error) {
	src, err := r.source(name)
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	script := tengo.NewScript(append([]byte(prelude), src...))
	_ = script.Add("__joint", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", name, err)
	}
	return compiled, nil
}

// Reload recompiles the scripts loaded from path. Bindings keep their old
// script when the new one does not compile.
func (r *Runtime) Reload(path string) (int, error) {
	n := 0
	for _, b := range r.bindings {
		if !samePath(b.cfg.Script, path) {
			continue
		}
		compiled, err := r.compile(b.cfg.Script)
		if err != nil {
			return n, err
		}
		b.compiled = compiled
		n++
		r.logger.Info("controller reloaded", "model", b.cfg.Model, "joint", b.cfg.Joint, "script", b.cfg.Script)
	}
	return n, nil
}

// samePath matches a configured script name against a changed file.
func samePath(script, changed string) bool {
	s, c := filepath.ToSlash(filepath.Clean(script)), filepath.ToSlash(filepath.Clean(changed))
	return s == c || strings.HasSuffix(c, "/"+s) || strings.HasSuffix(s, "/"+c)
}

// Update runs every binding. Failures are logged and skip that binding for
// this step.
func (r *Runtime) Update(w *physics.World) {
	for _, b := range r.bindings {
		if err := r.run(w, b); err != nil {
			r.logger.Warn("controller skipped", "model", b.cfg.Model, "joint", b.cfg.Joint, "err", err)
		}
	}
}

func (r *Runtime) run(w *physics.World, b *binding) error {
	j, err := w.Joint(b.cfg.Model, b.cfg.Joint)
	if err != nil {
		return err
	}
	axis := b.cfg.Axis
	angle, err := j.Angle(axis)
	if err != nil {
		return err
	}
	velocity, err := j.Velocity(axis)
	if err != nil {
		return err
	}

	inputs := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"angle":    &tengo.Float{Value: angle},
		"velocity": &tengo.Float{Value: velocity},
		"time":     &tengo.Float{Value: w.SimTime()},
		"dt":       &tengo.Float{Value: w.StepSize()},
		"axis":     &tengo.Int{Value: int64(axis)},
		"joint":    &tengo.String{Value: b.cfg.Joint},
		"model":    &tengo.String{Value: b.cfg.Model},
	}}
	c := b.compiled
	if err := c.Set("__joint", inputs); err != nil {
		return err
	}
	if err := c.Set("__state", b.state); err != nil {
		return err
	}
	if err := c.Run(); err != nil {
		return fmt.Errorf("run script %s: %w", b.cfg.Script, err)
	}
	if !c.IsDefined("force") {
		return nil
	}
	force, ok := toFloat(c.Get("force").Object())
	if !ok {
		return fmt.Errorf("script %s: force is %s, not a number", b.cfg.Script, c.Get("force").ValueType())
	}
	return j.SetForce(axis, force)
}

func toFloat(obj tengo.Object) (float64, bool) {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, true
	case *tengo.Int:
		return float64(v.Value), true
	}
	return 0, false
}
