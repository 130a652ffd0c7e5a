// Package tui is the interactive step response explorer.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/experiment"
	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/viz"
)

var systems = []string{config.SystemFirst, config.SystemSecond}

const sliderWidth = 24

// Model holds the slider state and the report of the last pipeline run.
// Every parameter change re-runs the pipeline before the next frame.
type Model struct {
	cfg      *config.Config
	registry *experiment.Registry
	log      *zap.Logger

	system  string
	params  [2]config.ParamsConfig
	cursor  int
	solver  string
	theme   viz.Theme
	styles  viz.Styles
	presets int

	editing bool
	editBuf string

	report *experiment.Report
	err    error
	status string

	width  int
	height int
}

func New(cfg *config.Config, registry *experiment.Registry, log *zap.Logger) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	log = logging.OrNop(log)

	system := config.NormalizeSystem(cfg.System)
	if _, ok := config.Ranges[system]; !ok {
		system = config.DefaultSystem
	}

	var params [2]config.ParamsConfig
	for i, s := range systems {
		params[i] = config.DefaultParams(s)
	}
	params[indexOf(systems, system)] = cfg.Params

	theme := viz.GetTheme(cfg.Plot.Theme)
	m := Model{
		cfg:      cfg,
		registry: registry,
		log:      log,
		system:   system,
		params:   params,
		solver:   cfg.Solver,
		theme:    theme,
		styles:   viz.NewStyles(theme),
		width:    cfg.Plot.Width + 20,
		height:   cfg.Plot.Height + 20,
	}
	m.recompute()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Report returns the last successful pipeline result, nil when the current
// parameters are invalid.
func (m Model) Report() *experiment.Report { return m.report }

func (m Model) Err() error { return m.err }

func (m Model) System() string { return m.system }

func (m Model) Params() config.ParamsConfig { return m.params[m.sys()] }

func (m Model) sys() int { return indexOf(systems, m.system) }

func (m Model) Options() experiment.Options {
	p := m.params[m.sys()]
	return experiment.Options{
		System:           m.system,
		Gain:             p.Gain,
		TimeConstant:     p.TimeConstant,
		Damping:          p.Damping,
		NaturalFrequency: p.NaturalFrequency,
		Solver:           m.solver,
		Samples:          m.cfg.Samples,
		Duration:         m.cfg.Duration,
	}
}

func (m *Model) recompute() {
	report, err := experiment.Run(context.Background(), m.Options(), m.registry, m.log)
	if err != nil {
		m.report = nil
		m.err = err
		m.log.Debug("pipeline rejected parameters", zap.Error(err))
		return
	}
	m.report = report
	m.err = nil
}

type exportedMsg struct {
	paths export.Paths
	err   error
}

func exportCmd(dir string, report *experiment.Report) tea.Cmd {
	return func() tea.Msg {
		paths, err := export.Dir(dir, report, 8, 6)
		return exportedMsg{paths: paths, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.editKey(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
			m.log.Warn("export failed", zap.Error(msg.err))
		} else {
			m.status = "exported " + msg.paths.JSON
			m.log.Info("exported report", zap.String("csv", msg.paths.CSV), zap.String("json", msg.paths.JSON), zap.String("png", msg.paths.PNG))
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := config.ParamNames(m.system)
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.system = systems[(m.sys()+1)%len(systems)]
		m.cursor = min(m.cursor, len(config.ParamNames(m.system))-1)
		m.presets = 0
		m.recompute()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(names)-1 {
			m.cursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "enter":
		m.editing = true
		m.editBuf = ""
	case "r":
		m.params[m.sys()] = config.DefaultParams(m.system)
		m.status = "reset to defaults"
		m.recompute()
	case "p":
		m.nextPreset()
	case "s":
		solvers := m.registry.ListSolvers()
		m.solver = solvers[(indexOf(solvers, m.solver)+1)%len(solvers)]
		m.status = "solver " + m.solver
		m.recompute()
	case "t":
		m.theme = viz.NextTheme(m.theme.Name)
		m.styles = viz.NewStyles(m.theme)
	case "e":
		if m.report == nil {
			m.status = "nothing to export"
			return m, nil
		}
		m.status = "exporting..."
		return m, exportCmd(m.cfg.Plot.ExportDir, m.report)
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		v, err := strconv.ParseFloat(strings.TrimSpace(m.editBuf), 64)
		m.editBuf = ""
		if err != nil {
			m.status = "not a number"
			return m, nil
		}
		m.set(v)
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-eE") {
			m.editBuf += s
		}
	}
	return m, nil
}

// nudge moves the selected slider by dir steps.
func (m *Model) nudge(dir int) {
	name := config.ParamNames(m.system)[m.cursor]
	r, err := config.GetRange(m.system, name)
	if err != nil {
		return
	}
	p := m.params[m.sys()]
	v, _ := p.Get(name)
	m.set(v + float64(dir)*r.Step)
}

// set assigns the selected slider, clamped and snapped to its range.
func (m *Model) set(v float64) {
	name := config.ParamNames(m.system)[m.cursor]
	if err := m.setParam(name, v); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) setParam(name string, v float64) error {
	r, err := config.GetRange(m.system, name)
	if err != nil {
		return err
	}
	p := m.params[m.sys()]
	old, err := p.Get(name)
	if err != nil {
		return err
	}
	v = r.Clamp(v)
	if v == old {
		return nil
	}
	if err := p.Set(name, v); err != nil {
		return err
	}
	m.params[m.sys()] = p
	m.status = ""
	m.recompute()
	return nil
}

func (m *Model) nextPreset() {
	names := config.ListPresets(m.system)
	if len(names) == 0 {
		return
	}
	name := names[m.presets%len(names)]
	m.presets++
	preset := config.GetPreset(m.system, name)
	m.params[m.sys()] = preset.Params
	m.status = "preset " + name
	m.recompute()
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(viz.GradientText("Interactive Step Response Visualizer", m.theme.Primary, m.theme.Secondary))
	b.WriteString("\n\n")

	tabs := make([]string, len(systems))
	for i, sys := range systems {
		label := experiment.SystemTitle(sys)
		if sys == m.system {
			tabs[i] = s.Selected.Render("[" + label + "]")
		} else {
			tabs[i] = s.Label.Render(" " + label + " ")
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString(s.Label.Render("   solver: ") + s.Value.Render(m.solver))
	b.WriteString("\n\n")

	b.WriteString(m.sliders())
	b.WriteString("\n")

	chartWidth := max(m.width-16, 20)
	chartHeight := max(m.cfg.Plot.Height, 5)
	if m.err != nil {
		b.WriteString(s.Panel.Render(s.Error.Render("error: " + m.err.Error())))
	} else if m.report != nil {
		chart, err := viz.Chart(m.report, chartWidth, chartHeight, m.theme)
		if err != nil {
			chart = s.Error.Render(err.Error())
		}
		info := lipgloss.JoinVertical(lipgloss.Left,
			s.Label.Render("G(s) = ")+s.Value.Render(m.report.TransferFunction.String()),
			"",
			viz.StyledSummary(m.report.Metrics, s),
		)
		b.WriteString(chart)
		b.WriteString("\n\n")
		b.WriteString(s.Panel.Render(info))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(s.Label.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(s.KeyHint.Render("tab system  ↑↓ select  ←→ adjust  enter type value  p preset  s solver  t theme  r reset  e export  q quit"))
	return b.String()
}

func (m Model) sliders() string {
	s := m.styles
	p := m.params[m.sys()]
	var lines []string
	for i, name := range config.ParamNames(m.system) {
		r, err := config.GetRange(m.system, name)
		if err != nil {
			continue
		}
		v, _ := p.Get(name)

		cursor := "  "
		label := s.Label.Render(fmt.Sprintf("%-24s", r.Label))
		if i == m.cursor {
			cursor = s.Selected.Render("▸ ")
			label = s.Selected.Render(fmt.Sprintf("%-24s", r.Label))
		}

		value := s.Value.Render(fmt.Sprintf("%6.2f", v))
		if i == m.cursor && m.editing {
			value = s.Value.Render(fmt.Sprintf("%6s_", m.editBuf))
		}

		lines = append(lines, fmt.Sprintf("%s%s %s %s  %s",
			cursor, label,
			s.Label.Render(fmt.Sprintf("%g", r.Min)),
			s.SliderBar(r.Fraction(v), sliderWidth)+" "+s.Label.Render(fmt.Sprintf("%g", r.Max)),
			value,
		))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Run starts the TUI on the alternate screen.
func Run(cfg *config.Config, registry *experiment.Registry, log *zap.Logger) error {
	p := tea.NewProgram(New(cfg, registry, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
