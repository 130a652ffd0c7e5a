// Package automation runs scripted batches of step response experiments
// described in YAML.
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/experiment"
	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/logging"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Unset fields fall back to the slider
// defaults of the system type, or to the named preset.
type ScenarioStep struct {
	System   string             `yaml:"system"`
	Preset   string             `yaml:"preset"`
	Solver   string             `yaml:"solver"`
	Samples  int                `yaml:"samples"`
	Duration float64            `yaml:"duration"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult pairs a step with its report.
type StepResult struct {
	Step   ScenarioStep
	Report *experiment.Report
	Paths  *export.Paths
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Options resolves the step against its preset and the slider defaults.
func (s ScenarioStep) Options() (experiment.Options, error) {
	system := config.NormalizeSystem(s.System)
	if system == "" {
		system = config.DefaultSystem
	}
	if _, ok := config.Ranges[system]; !ok {
		return experiment.Options{}, fmt.Errorf("unknown system: %s", s.System)
	}

	cfg := config.DefaultConfig()
	cfg.System = system
	cfg.Params = config.DefaultParams(system)
	if s.Preset != "" {
		p := config.GetPreset(system, s.Preset)
		if p == nil {
			return experiment.Options{}, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets(system))
		}
		cfg.Params = p.Params
		cfg.Samples = p.Samples
	}
	if s.Solver != "" {
		cfg.Solver = s.Solver
	}
	if s.Samples != 0 {
		cfg.Samples = s.Samples
	}
	cfg.Duration = s.Duration

	opts := experiment.OptionsFromConfig(cfg)
	for name, v := range s.Params {
		var err error
		if opts, err = opts.WithParam(name, v); err != nil {
			return experiment.Options{}, err
		}
	}
	return opts, nil
}

// RunScenario executes the steps in order and stops at the first failure.
// Steps with save_as are exported under outDir.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *zap.Logger, outDir string) ([]StepResult, error) {
	log = logging.OrNop(log)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		opts, err := step.Options()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("system", opts.System),
		)

		report, err := experiment.Run(ctx, opts, registry, log)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		res := StepResult{Step: step, Report: report}
		if step.SaveAs != "" {
			paths, err := export.Dir(filepath.Join(outDir, step.SaveAs), report, 8, 6)
			if err != nil {
				return results, fmt.Errorf("step %d export: %w", i+1, err)
			}
			res.Paths = &paths
		}
		results = append(results, res)
	}

	return results, nil
}
