package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"crnsim/internal/ssa"
)

const (
	sparkWidth      = 50
	historyCapacity = 600
)

type TickMsg time.Time

// LiveModel animates one stochastic realization, firing reaction events
// between frames until the horizon or absorption.
type LiveModel struct {
	engine  *ssa.Engine
	stepper *ssa.Stepper
	species []string
	network string

	x0   ssa.State
	seed int64
	tMax float64

	history [][]float64
	running bool
	err     error
}

func NewLiveModel(engine *ssa.Engine, species []string, network string, x0 ssa.State, seed int64, tMax float64) LiveModel {
	m := LiveModel{
		engine:  engine,
		species: species,
		network: network,
		x0:      x0,
		seed:    seed,
		tMax:    tMax,
		running: true,
	}
	m.reset()
	return m
}

func (m *LiveModel) reset() {
	m.stepper = m.engine.Stepper(m.x0, m.seed)
	m.history = make([][]float64, len(m.species))
	m.record()
}

func (m *LiveModel) record() {
	x := m.stepper.State()
	for i := range m.history {
		m.history[i] = append(m.history[i], x[i])
		if len(m.history[i]) > historyCapacity {
			m.history[i] = m.history[i][1:]
		}
	}
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
			m.running = true
			m.err = nil
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// advance fires events until simulated time moves one frame forward, so
// wall-clock playback tracks simulated time roughly uniformly.
func (m *LiveModel) advance() {
	frame := m.tMax / 300
	target := m.stepper.Time() + frame
	for m.stepper.Time() < target && !m.stepper.Absorbed() && m.stepper.Time() < m.tMax {
		if err := m.stepper.Step(); err != nil {
			m.err = err
			return
		}
	}
	m.record()
	if m.stepper.Absorbed() || m.stepper.Time() >= m.tMax {
		m.running = false
	}
}

func (m LiveModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("crnsim live · %s", m.network)))
	b.WriteString("\n\n")

	x := m.stepper.State()
	for i, name := range m.species {
		b.WriteString(LabelStyle.Render(name))
		b.WriteString(SparklineChart(m.history[i], sparkWidth))
		b.WriteString(ValueStyle.Render(fmt.Sprintf("  %8.0f", x[i])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("t"))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%.3f / %.1f  ", m.stepper.Time(), m.tMax)))
	b.WriteString(ProgressBar(m.stepper.Time()/m.tMax, 40))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(StatusAbsorbed.Render(fmt.Sprintf("error: %v", m.err)))
	case m.stepper.Absorbed():
		b.WriteString(StatusAbsorbed.Render("absorbed"))
	case m.running:
		b.WriteString(StatusRunning.Render("running"))
	default:
		b.WriteString(Subtle.Render("paused"))
	}

	b.WriteString("\n")
	b.WriteString(Subtle.Render("space pause · r reset · q quit"))
	b.WriteString("\n")
	return b.String()
}
