package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SystemFirst  = "first"
	SystemSecond = "second"
)

const (
	DefaultSystem    = SystemSecond
	DefaultSolver    = "zoh"
	DefaultSamples   = 100
	DefaultGain      = 1.0
	DefaultTau       = 1.0
	DefaultZeta      = 0.7
	DefaultOmega     = 1.0
	DefaultWidth     = 70
	DefaultHeight    = 15
	DefaultTheme     = "cyberpunk"
	DefaultLogLevel  = "info"
	DefaultExportDir = "stepviz-out"
)

type Config struct {
	System   string       `yaml:"system"`
	Solver   string       `yaml:"solver"`
	Samples  int          `yaml:"samples"`
	Duration float64      `yaml:"duration"`
	Params   ParamsConfig `yaml:"params"`
	Plot     PlotConfig   `yaml:"plot"`
	Log      LogConfig    `yaml:"log"`
}

type ParamsConfig struct {
	Gain             float64 `yaml:"k"`
	TimeConstant     float64 `yaml:"tau"`
	Damping          float64 `yaml:"zeta"`
	NaturalFrequency float64 `yaml:"wn"`
}

type PlotConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Theme     string `yaml:"theme"`
	ExportDir string `yaml:"export_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

func DefaultConfig() *Config {
	return &Config{
		System:  DefaultSystem,
		Solver:  DefaultSolver,
		Samples: DefaultSamples,
		Params: ParamsConfig{
			Gain:             DefaultGain,
			TimeConstant:     DefaultTau,
			Damping:          DefaultZeta,
			NaturalFrequency: DefaultOmega,
		},
		Plot: PlotConfig{
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			Theme:     DefaultTheme,
			ExportDir: DefaultExportDir,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.System = NormalizeSystem(cfg.System)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NormalizeSystem maps the accepted spellings of a system type onto
// SystemFirst or SystemSecond. Unknown names are returned unchanged.
func NormalizeSystem(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first", "first-order", "first_order", "1":
		return SystemFirst
	case "second", "second-order", "second_order", "2":
		return SystemSecond
	}
	return name
}

// ParamNames lists the slider parameters of a system type in display order.
func ParamNames(system string) []string {
	switch NormalizeSystem(system) {
	case SystemFirst:
		return []string{"k", "tau"}
	case SystemSecond:
		return []string{"k", "zeta", "wn"}
	}
	return nil
}

func (p ParamsConfig) Get(name string) (float64, error) {
	switch name {
	case "k":
		return p.Gain, nil
	case "tau":
		return p.TimeConstant, nil
	case "zeta":
		return p.Damping, nil
	case "wn":
		return p.NaturalFrequency, nil
	}
	return 0, fmt.Errorf("unknown parameter: %s", name)
}

func (p *ParamsConfig) Set(name string, value float64) error {
	switch name {
	case "k":
		p.Gain = value
	case "tau":
		p.TimeConstant = value
	case "zeta":
		p.Damping = value
	case "wn":
		p.NaturalFrequency = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
