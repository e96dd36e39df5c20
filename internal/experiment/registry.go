package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/plant"
)

var (
	ErrUnknownPlant      = errors.New("experiment: unknown plant")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
	ErrUnknownController = errors.New("experiment: unknown controller")
)

type Registry struct {
	plants      map[string]func() dynamo.System
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(map[string]float64) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func() dynamo.System),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(map[string]float64) dynamo.Controller),
	}

	r.plants["thermal"] = func() dynamo.System { return plant.NewThermal() }
	r.plants["motor"] = func() dynamo.System { return plant.NewMotor() }
	r.plants["spring_mass"] = func() dynamo.System { return plant.NewSpringMass() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.controllers["none"] = func(params map[string]float64) dynamo.Controller {
		dim := int(params["dim"])
		if dim == 0 {
			dim = 1
		}
		return control.NewNone(dim)
	}
	r.controllers["manual"] = func(params map[string]float64) dynamo.Controller {
		dim := int(params["dim"])
		if dim == 0 {
			dim = 1
		}
		return control.NewManual(dim, params["u"])
	}
	r.controllers["pid"] = func(params map[string]float64) dynamo.Controller {
		c := pid.New(params["kp"], params["ti"], params["td"])
		return control.NewLoop(c, params["target"], 0)
	}

	return r
}

func (r *Registry) GetPlant(name string) (dynamo.System, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPlant, name, r.ListPlants())
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, params map[string]float64) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
	}
	return fn(params), nil
}

func (r *Registry) ListPlants() []string {
	names := make([]string, 0, len(r.plants))
	for name := range r.plants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the tracking metrics for a loop regulating state
// component index towards target.
func (r *Registry) DefaultMetrics(target float64, index int) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewIAE(target, index),
		metrics.NewErrorStdDev(target, index),
		metrics.NewOvershoot(target, index),
		metrics.NewControlEffort(),
		metrics.NewNonFinite(),
	}
}
