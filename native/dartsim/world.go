// Package dartsim is a DART-style facade over the multibody kernel. Joints
// own their limits, damping coefficients, force limits and axes, so those can
// be changed at any time; positions and velocities exist only once the
// skeleton has been built by adding it to a World.
package dartsim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNotBuilt is returned for state access on a skeleton not yet added to a world.
	ErrNotBuilt = errors.New("dartsim: skeleton not built")
	// ErrDofIndex is returned for a degree of freedom the joint does not have.
	ErrDofIndex = errors.New("dartsim: dof index out of range")
)

type World struct {
	name       string
	gravity    mgl64.Vec3
	timeStep   float64
	time       float64
	iterations int
	skeletons  []*Skeleton
}

func NewWorld(name string) *World {
	return &World{
		name:       name,
		gravity:    mgl64.Vec3{0, 0, -9.81},
		timeStep:   0.001,
		iterations: 20,
	}
}

func (w *World) Name() string            { return w.name }
func (w *World) SetGravity(g mgl64.Vec3) { w.gravity = g }
func (w *World) Gravity() mgl64.Vec3     { return w.gravity }
func (w *World) TimeStep() float64       { return w.timeStep }
func (w *World) Time() float64           { return w.time }
func (w *World) NumSkeletons() int       { return len(w.skeletons) }

func (w *World) SetTimeStep(dt float64) {
	if dt > 0 {
		w.timeStep = dt
	}
}

// SetIterations sets the limit solver iterations per step.
func (w *World) SetIterations(n int) {
	if n > 0 {
		w.iterations = n
	}
}

// AddSkeleton builds s and adds it to the world.
func (w *World) AddSkeleton(s *Skeleton) error {
	if s.world != nil {
		return fmt.Errorf("dartsim: skeleton %q already belongs to world %q", s.name, s.world.name)
	}
	if w.Skeleton(s.name) != nil {
		return fmt.Errorf("dartsim: world %q already has a skeleton named %q", w.name, s.name)
	}
	if err := s.build(); err != nil {
		return err
	}
	s.world = w
	w.skeletons = append(w.skeletons, s)
	return nil
}

func (w *World) RemoveSkeleton(s *Skeleton) {
	for i, o := range w.skeletons {
		if o == s {
			w.skeletons = append(w.skeletons[:i], w.skeletons[i+1:]...)
			s.world = nil
			return
		}
	}
}

func (w *World) Skeleton(name string) *Skeleton {
	for _, s := range w.skeletons {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Step advances every skeleton by one time step and resets joint commands
// and external forces.
func (w *World) Step() error {
	for _, s := range w.skeletons {
		if err := s.step(w.timeStep, w.gravity, w.iterations); err != nil {
			return fmt.Errorf("dartsim: step skeleton %q: %w", s.name, err)
		}
	}
	w.time += w.timeStep
	return nil
}
