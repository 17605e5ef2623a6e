// Package engines registers every engine binding with a physics.Registry.
package engines

import (
	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/physics/bullet"
	"github.com/milk9111/jointsim/physics/chipmunk"
	"github.com/milk9111/jointsim/physics/dart"
	"github.com/milk9111/jointsim/physics/ode"
	"github.com/milk9111/jointsim/physics/simbody"
)

// Default is the engine used when none is configured.
const Default = ode.Name

var factories = []struct {
	name    string
	factory physics.Factory
}{
	{ode.Name, ode.New},
	{bullet.Name, bullet.New},
	{simbody.Name, simbody.New},
	{dart.Name, dart.New},
	{chipmunk.Name, chipmunk.New},
}

// Register adds every engine to r.
func Register(r *physics.Registry) error {
	for _, f := range factories {
		if err := r.Register(f.name, f.factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every engine.
func NewRegistry() (*physics.Registry, error) {
	r := physics.NewRegistry()
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Names lists the engines in registration order.
func Names() []string {
	names := make([]string, len(factories))
	for i, f := range factories {
		names[i] = f.name
	}
	return names
}
