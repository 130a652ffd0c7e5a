package config

import "sort"

var Presets = map[string]map[string]*Config{
	SystemFirst: {
		"fast": {
			System: SystemFirst, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 1, TimeConstant: 0.5},
		},
		"slow": {
			System: SystemFirst, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 1, TimeConstant: 5},
		},
		"amplifier": {
			System: SystemFirst, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 10, TimeConstant: 2},
		},
	},
	SystemSecond: {
		"default": {
			System: SystemSecond, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 1, Damping: 0.7, NaturalFrequency: 1},
		},
		"underdamped": {
			System: SystemSecond, Solver: DefaultSolver, Samples: 400,
			Params: ParamsConfig{Gain: 1, Damping: 0.2, NaturalFrequency: 2},
		},
		"critical": {
			System: SystemSecond, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 1, Damping: 1.0, NaturalFrequency: 1},
		},
		"overdamped": {
			System: SystemSecond, Solver: DefaultSolver, Samples: DefaultSamples,
			Params: ParamsConfig{Gain: 1, Damping: 2.0, NaturalFrequency: 1},
		},
		"undamped": {
			System: SystemSecond, Solver: DefaultSolver, Samples: 400,
			Params: ParamsConfig{Gain: 1, Damping: 0, NaturalFrequency: 1},
		},
	},
}

func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[NormalizeSystem(system)]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[NormalizeSystem(system)]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
