package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/dynamo"
	"github.com/san-kum/stepviz/internal/integrators"
	"github.com/san-kum/stepviz/internal/lti"
)

// SystemBuilder assembles a transfer function from experiment options.
type SystemBuilder func(Options) (lti.TransferFunction, error)

type Registry struct {
	systems map[string]SystemBuilder
	aliases map[string]string
	solvers map[string]func() lti.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		systems: make(map[string]SystemBuilder),
		aliases: make(map[string]string),
		solvers: make(map[string]func() lti.Solver),
	}

	r.RegisterSystem(config.SystemFirst, func(o Options) (lti.TransferFunction, error) {
		return lti.FirstOrder(o.Gain, o.TimeConstant)
	})
	r.RegisterSystem(config.SystemSecond, func(o Options) (lti.TransferFunction, error) {
		return lti.SecondOrder(o.Gain, o.Damping, o.NaturalFrequency)
	})
	r.aliases["first-order"] = config.SystemFirst
	r.aliases["second-order"] = config.SystemSecond

	r.RegisterSolver("zoh", func() lti.Solver { return lti.NewZOH() })
	r.registerIntegrated("euler", func() dynamo.Integrator { return integrators.NewEuler() }, false)
	r.registerIntegrated("rk4", func() dynamo.Integrator { return integrators.NewRK4() }, false)
	r.registerIntegrated("rk45", func() dynamo.Integrator { return integrators.NewRK45() }, true)
	// RK4 has no embedded error estimate, so the simulator adapts it by
	// step doubling.
	r.registerIntegrated("rk4-adaptive", func() dynamo.Integrator { return integrators.NewRK4() }, true)

	return r
}

// RegisterSystem adds or replaces a system builder.
func (r *Registry) RegisterSystem(name string, fn SystemBuilder) {
	r.systems[r.resolve(name)] = fn
}

func (r *Registry) RegisterSolver(name string, fn func() lti.Solver) {
	r.solvers[strings.ToLower(name)] = fn
}

func (r *Registry) registerIntegrated(name string, newInteg func() dynamo.Integrator, adaptive bool) {
	r.RegisterSolver(name, func() lti.Solver { return lti.NewIntegrated(name, newInteg, adaptive) })
}

func (r *Registry) resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

func (r *Registry) GetSystem(name string) (SystemBuilder, error) {
	fn, ok := r.systems[r.resolve(name)]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetSolver(name string) (lti.Solver, error) {
	fn, ok := r.solvers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListSystems() []string {
	return sortedKeys(r.systems)
}

func (r *Registry) ListSolvers() []string {
	return sortedKeys(r.solvers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
