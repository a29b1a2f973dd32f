package viz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/metrics"
	"github.com/san-kum/particlelife/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	statsWidth      = 48
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live terminal view of a running simulator.
type Model struct {
	ctx     context.Context
	sim     *sim.Simulator
	canvas  *Canvas
	palette []lipgloss.Style
	theme   Theme
	speed   *metrics.Speed

	writeParams func(io.Writer) error

	width, height int
	running       bool
	showHelp      bool
	showParams    bool
	params        string
	message       string
	err           error
	frame         int

	energyHistory []float64
	speedHistory  []float64
	simTime       float64
	steps         int
}

// NewModel wraps s in a bubbletea model. Steps run under ctx.
func NewModel(ctx context.Context, s *sim.Simulator) Model {
	m := Model{
		ctx:           ctx,
		sim:           s,
		canvas:        NewCanvas(width, height),
		theme:         Themes[0],
		speed:         metrics.NewSpeed(),
		writeParams:   s.WriteParams,
		width:         width,
		height:        height,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		speedHistory:  make([]float64, 0, historyCapacity),
	}
	s.View(func(f sim.Frame) { m.palette = Palette(f.Types) })
	m.draw()
	return m
}

// Run shows s in the terminal until the user quits or ctx is done.
func Run(ctx context.Context, s *sim.Simulator) error {
	p := tea.NewProgram(NewModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-statsWidth-6, 10)
		m.height = max(msg.Height-4, 5)
		m.canvas = NewCanvas(m.width, m.height)
		m.draw()
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		m.frame++
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "space":
		m.running = !m.running
	case "w":
		if m.sim.ToggleWrap() {
			m.message = "wrap on"
		} else {
			m.message = "wrap off"
		}
	case "tab":
		m.showParams = !m.showParams
		if m.showParams {
			m.refreshParams()
		}
	case "+", "=":
		m.scaleTime(sim.TimeScaleFactor)
	case "-", "_":
		m.scaleTime(1 / sim.TimeScaleFactor)
	case "t":
		m.theme = NextTheme(m.theme.Name)
	case "?":
		m.showHelp = !m.showHelp
	default:
		if len(msg.Runes) == 1 {
			if p := config.PresetForKey(msg.Runes[0]); p != nil {
				m.applyPreset(p.Name)
			}
		}
	}
	return m, nil
}

func (m *Model) scaleTime(factor float64) {
	if err := m.sim.ScaleTime(factor); err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("dt %.4f", m.sim.World().DeltaTime)
}

func (m *Model) applyPreset(name string) {
	if err := m.sim.ApplyPreset(name); err != nil {
		m.message = err.Error()
		return
	}
	m.message = "preset " + name
	m.energyHistory = m.energyHistory[:0]
	m.speedHistory = m.speedHistory[:0]
	m.err = nil
	if m.showParams {
		m.refreshParams()
	}
}

// refreshParams redraws the parameter dump. A failed write is shown in the
// status line and the previous dump stays up.
func (m *Model) refreshParams() {
	var b strings.Builder
	if err := m.writeParams(&b); err != nil {
		m.message = "params: " + err.Error()
		return
	}
	m.params = b.String()
}

// step advances the simulator and records the energy of the new state.
func (m *Model) step() {
	if err := m.sim.Step(m.ctx); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.sim.View(func(f sim.Frame) {
		m.speed.Observe(f.Particles, f.World, f.Time)
		m.simTime, m.steps = f.Time, f.Steps
		m.energyHistory = appendBounded(m.energyHistory, metrics.Kinetic(f.Particles))
	})
	m.speedHistory = appendBounded(m.speedHistory, m.speed.Value())
}

func appendBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// draw plots every particle into the canvas, colored by type.
func (m *Model) draw() {
	m.canvas.Clear()
	f := m.sim.Snapshot()
	defer m.sim.Release(f)

	cw, ch := m.canvas.SubWidth(), m.canvas.SubHeight()
	sx, sy := float64(cw)/f.World.Width, float64(ch)/f.World.Height
	for _, p := range f.Particles {
		x := min(int(p.Pos.X*sx), cw-1)
		y := min(int(p.Pos.Y*sy), ch-1)
		m.canvas.SetColor(x, y, p.Type)
	}
	if !f.World.Wrap {
		m.canvas.DrawRect(0, 0, cw-1, ch-1)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.running:
		return StatusRunning.Render(AnimatedSpinner(m.frame) + " RUNNING")
	default:
		return StatusPaused.Render("PAUSED")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.Render(m.palette))

	world := m.sim.World()
	perf := m.sim.Perf()

	var s strings.Builder
	s.WriteString(GradientText("PARTICLE LIFE", m.theme.Primary, m.theme.Secondary) + "\n\n")
	s.WriteString(m.status() + "\n\n")
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(m.theme.graph().Render(chart) + "\n")
	}
	s.WriteString(MetricLabel.Render("Speed") + SparklineChart(m.speedHistory, 24) + "\n\n")

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("t", fmt.Sprintf("%.1f", m.simTime))
	row("tsps", fmt.Sprintf("%.1f", perf.StepsPerSec))
	row("Steps", fmt.Sprintf("%d", m.steps))
	row("dt", fmt.Sprintf("%.4f", world.DeltaTime))
	row("Friction", fmt.Sprintf("%.3f", world.Friction))
	row("Wrap", fmt.Sprintf("%v", world.Wrap))
	row("Backend", m.sim.BackendName())
	s.WriteString(MetricLabel.Render("Headroom") + ProgressBar(1-loadFraction(perf.AvgStep), 20) + "\n")

	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	} else if m.message != "" {
		s.WriteString("\n" + KeyHint.Render(m.message) + "\n")
	}
	s.WriteString(KeyHint.Render("\nSP:Pause W:Wrap TAB:Params\n+/-:Time T:Theme ?:Help Q:Quit"))

	statsView := m.theme.panel().Render(s.String())
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showParams && m.params != "" {
		main = lipgloss.JoinVertical(lipgloss.Left, main, m.theme.graph().Render(m.params))
	}
	if m.showHelp {
		return m.theme.header().Render("KEYBOARD SHORTCUTS") + "\n" + helpText() + "\n" + main
	}
	return main
}

// loadFraction maps the mean step time onto a 60 Hz frame budget.
func loadFraction(avg time.Duration) float64 {
	return float64(avg) / float64(time.Second/60)
}

func helpText() string {
	var b strings.Builder
	b.WriteString("  Space    pause/resume\n")
	b.WriteString("  W        toggle wrapping\n")
	b.WriteString("  Tab      show interaction parameters\n")
	b.WriteString("  + / -    scale time step\n")
	fmt.Fprintf(&b, "  T        cycle themes (%s)\n", strings.Join(ThemeNames(), ", "))
	b.WriteString("  Q / Esc  quit\n")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(&b, "  Shift+%c  %s\n", p.Key, p.Name)
	}
	return b.String()
}
