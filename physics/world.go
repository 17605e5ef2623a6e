package physics

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrWorldNotInitialized is returned when stepping a world whose Init did not
// succeed.
var ErrWorldNotInitialized = errors.New("world not initialized")

// System runs once per world step, before joints are updated.
type System interface {
	Update(w *World)
}

// World owns the clock and the models, and is the only caller of per-step
// joint operations.
type World struct {
	Name string

	engine  Engine
	systems []System
	models  []*Model

	simTime     float64
	iterations  uint64
	initialized bool
}

func NewWorld(name string, engine Engine) *World {
	return &World{Name: name, engine: engine}
}

func (w *World) Engine() Engine       { return w.engine }
func (w *World) Ground() Link         { return w.engine.Ground() }
func (w *World) Systems() []System    { return append([]System(nil), w.systems...) }
func (w *World) SimTime() float64     { return w.simTime }
func (w *World) Iterations() uint64   { return w.iterations }
func (w *World) StepSize() float64    { return w.engine.Context().StepSize }
func (w *World) Initialized() bool    { return w.initialized }
func (w *World) Models() []*Model     { return append([]*Model(nil), w.models...) }
func (w *World) Logger() *slog.Logger { return w.engine.Context().Logger }

// AddSystem appends s to the systems run at the start of every step, in
// insertion order. A nil system is ignored.
func (w *World) AddSystem(s System) {
	if s != nil {
		w.systems = append(w.systems, s)
	}
}

func (w *World) AddModel(m *Model) error {
	if w.Model(m.Name) != nil {
		return fmt.Errorf("world %q: duplicate model %q", w.Name, m.Name)
	}
	m.world = w
	w.models = append(w.models, m)
	return nil
}

func (w *World) Model(name string) *Model {
	for _, m := range w.models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Joint looks a joint up by model and joint name.
func (w *World) Joint(model, joint string) (Joint, error) {
	m := w.Model(model)
	if m == nil {
		return nil, fmt.Errorf("world %q has no model %q", w.Name, model)
	}
	j := m.Joint(joint)
	if j == nil {
		return nil, fmt.Errorf("model %q has no joint %q", model, joint)
	}
	return j, nil
}

// Init initializes every model, then lets the engine build it.
func (w *World) Init() error {
	for _, m := range w.models {
		if err := m.Init(); err != nil {
			return fmt.Errorf("world %q: %w", w.Name, err)
		}
		if err := w.engine.InitModel(m); err != nil {
			return fmt.Errorf("world %q: engine %s: model %q: %w", w.Name, w.engine.Name(), m.Name, err)
		}
	}
	w.initialized = true
	w.Logger().Debug("world initialized", "world", w.Name, "engine", w.engine.Name(), "models", len(w.models))
	return nil
}

// Step advances the world n times. Each step runs systems, joint updates,
// the engine step, then clears the forces applied for that step.
func (w *World) Step(n int) error {
	if !w.initialized {
		return ErrWorldNotInitialized
	}
	dt := w.StepSize()
	for i := 0; i < n; i++ {
		for _, s := range w.systems {
			s.Update(w)
		}
		w.eachJoint(Joint.Update)
		if err := w.engine.Step(dt); err != nil {
			return fmt.Errorf("world %q: step %d: %w", w.Name, w.iterations, err)
		}
		w.eachJoint(Joint.ClearForces)
		w.simTime += dt
		w.iterations++
	}
	return nil
}

func (w *World) eachJoint(f func(Joint)) {
	for _, m := range w.models {
		for _, j := range m.joints {
			f(j)
		}
	}
}

func (w *World) Fini() {
	for _, m := range w.models {
		m.Fini()
	}
	w.engine.Fini()
	w.initialized = false
}
