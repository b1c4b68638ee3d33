package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/metrics"
	"github.com/san-kum/dynjoint/internal/scenario"
	"github.com/san-kum/dynjoint/internal/viz"
	"github.com/sirupsen/logrus"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var presetInfo = map[string]string{
	"default": "pull until the connector breaks",
	"locked":  "unbreakable for the whole run",
	"soft":    "finite spring, slow pull",
	"rigid":   "single fixed constraint",
	"planar":  "same pull on the chipmunk engine",
}

type state int

const (
	stateMenu state = iota
	stateSim
)

const (
	historyLen = 60
	pullStep   = 0.5
	maxSpeed   = 8
)

type model struct {
	state    state
	cursor   int
	presets  []string
	selected string

	runner  *scenario.Runner
	metrics []scenario.Metric
	paused  bool
	speed   int
	dist    []float64
	force   []float64
	err     error

	log   *logrus.Logger
	tail  *logTail
	theme viz.Theme

	width  int
	height int
}

func newModel(log *logrus.Logger, tail *logTail) model {
	return model{
		state:   stateMenu,
		presets: config.ListPresets(),
		speed:   1,
		log:     log,
		tail:    tail,
		theme:   viz.Themes[0],
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim || m.runner == nil {
			return m, nil
		}
		if !m.paused {
			for i := 0; i < m.speed && !m.runner.Done(); i++ {
				m.step()
			}
		}
		if m.runner.Done() || m.err != nil {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) step() {
	if err := m.runner.Step(); err != nil {
		m.err = err
		return
	}
	samples := m.runner.Samples()
	s := samples[len(samples)-1]
	m.dist = appendHistory(m.dist, s.Distance)
	m.force = appendHistory(m.force, s.Force)
}

func appendHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyLen {
		h = h[1:]
	}
	return h
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.start()
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
		m.runner = nil
		return m, tea.ClearScreen
	case " ":
		m.paused = !m.paused
	case "u":
		if m.runner != nil {
			m.runner.Override(!m.runner.Unbreakable())
		}
	case "a":
		if m.runner != nil {
			m.runner.ClearOverride()
		}
	case "+", "=":
		if m.runner != nil {
			m.runner.SetPullRate(m.runner.PullRate() + pullStep)
		}
	case "-", "_":
		if m.runner != nil {
			m.runner.SetPullRate(m.runner.PullRate() - pullStep)
		}
	case "]":
		m.speed = min(m.speed*2, maxSpeed)
	case "[":
		m.speed = max(m.speed/2, 1)
	case "d":
		if m.runner != nil {
			if err := m.runner.Drop(); err != nil {
				m.err = err
			}
		}
	case "t":
		m.theme = m.theme.Next()
	case "r":
		m.start()
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m *model) start() {
	m.state = stateSim
	m.paused = false
	m.err = nil
	m.dist, m.force = nil, nil

	cfg := config.GetPreset(m.selected)
	if cfg == nil {
		m.err = fmt.Errorf("preset %q not found", m.selected)
		m.runner = nil
		return
	}
	r, err := scenario.NewRunner(cfg, m.log)
	if err != nil {
		m.err = err
		m.runner = nil
		return
	}
	m.metrics = metrics.Standard(cfg)
	for _, mt := range m.metrics {
		r.AddMetric(mt)
	}
	m.runner = r
}

func (m model) View() string {
	switch m.state {
	case stateSim:
		return m.viewSim()
	default:
		return m.viewMenu()
	}
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n   " + cyan.Bold(true).Render("dynjoint") + dim.Render("  breakable joint playground") + "\n\n")

	for i, name := range m.presets {
		cursor := "  "
		style := dim
		if i == m.cursor {
			cursor = cyan.Render("▸ ")
			style = white
		}
		b.WriteString(fmt.Sprintf("   %s%-10s %s\n", cursor, style.Render(name), dimmer.Render(presetInfo[name])))
	}

	b.WriteString("\n" + dim.Render("   ↑/↓ select  enter run  q quit") + "\n")
	return b.String()
}

func (m model) viewSim() string {
	var b strings.Builder

	if m.runner == nil {
		b.WriteString("\n   " + red.Render(fmt.Sprintf("error: %v", m.err)) + "\n")
		b.WriteString("\n" + dim.Render("   esc menu  r retry  q quit") + "\n")
		return b.String()
	}

	r := m.runner
	cfg := r.Config()
	header := fmt.Sprintf("%s  t=%.2fs  pull=%s/s  x%d", viz.Title.Render(cfg.Name), r.Time(), viz.Num(r.PullRate()), m.speed)
	if m.paused {
		header += "  " + dim.Render("paused")
	}
	b.WriteString("\n " + header + "  " + viz.Status(r.Live(), r.Unbreakable()) + "\n\n")

	sceneW := max(20, min(m.width-6, 70))
	scene := lipgloss.NewStyle().Foreground(m.theme.Link).Render(viz.SceneOf(r).Render(sceneW, 8))
	b.WriteString(viz.Panel.BorderForeground(m.theme.Primary).Render(scene) + "\n")

	b.WriteString(viz.ConstraintTable(r.Constraints()) + "\n\n")

	sparkW := max(10, min(m.width-20, historyLen))
	b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("distance"), cyan.Render(viz.Sparkline(m.dist, sparkW))))
	b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("force   "), cyan.Render(viz.Sparkline(m.force, sparkW))))

	var parts []string
	for _, mt := range m.metrics {
		parts = append(parts, dim.Render(mt.Name()+"=")+white.Render(viz.Num(mt.Value())))
	}
	b.WriteString("\n   " + strings.Join(parts, "  ") + "\n")

	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}
	if lines := m.tail.Lines(); len(lines) > 0 {
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString("   " + dimmer.Render(l) + "\n")
		}
	}

	b.WriteString("\n" + dim.Render("   space pause  u unbreakable  a auto  ±pull  [/] speed  d drop  t theme  r restart  esc menu  q quit") + "\n")
	return b.String()
}

// RunInteractive opens the alt-screen playground. A non-empty preset skips
// the menu.
func RunInteractive(preset string, level logrus.Level) error {
	tail := newLogTail(4)
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(level)
	log.AddHook(tail)

	m := newModel(log, tail)
	if preset != "" {
		m.selected = preset
		m.start()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
