package physics

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// EngineContext carries the settings shared by an engine and its joints.
type EngineContext struct {
	Logger     *slog.Logger
	Gravity    mgl64.Vec3
	StepSize   float64
	Iterations int
	ERP        float64
	CFM        float64
}

func DefaultEngineContext() *EngineContext {
	return &EngineContext{
		Logger:     slog.Default(),
		Gravity:    mgl64.Vec3{0, 0, -9.81},
		StepSize:   0.001,
		Iterations: 50,
		ERP:        0.2,
		CFM:        1e-10,
	}
}

type Engine interface {
	Name() string
	Context() *EngineContext
	// Ground is the static link that "world" parents resolve to.
	Ground() Link
	NewLink(m *Model, cfg LinkConfig) (Link, error)
	NewJoint(t JointType) (Joint, error)
	// InitModel runs after the model's links and joints are initialized.
	InitModel(m *Model) error
	Step(dt float64) error
	// ConstraintCount is the number of native constraints registered.
	ConstraintCount() int
	Fini()
}

type Factory func(ctx *EngineContext) (Engine, error)

// Registry maps engine names to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("register engine %q: nil factory", name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("engine %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) New(name string, ctx *EngineContext) (Engine, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (have %v)", name, r.Names())
	}
	if ctx == nil {
		ctx = DefaultEngineContext()
	}
	if ctx.Logger == nil {
		ctx.Logger = slog.Default()
	}
	return f(ctx)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
