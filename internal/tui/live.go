// Package tui runs a control loop interactively in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/viz"
)

type Options struct {
	Title         string
	Frame         time.Duration
	StepsPerFrame int
	History       int
	GraphWidth    int
	GraphHeight   int
}

func DefaultOptions() Options {
	return Options{
		Frame:         50 * time.Millisecond,
		StepsPerFrame: 5,
		History:       400,
		GraphWidth:    70,
		GraphHeight:   8,
	}
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the live view. The measured quantity is state component 0.
type Model struct {
	opts    Options
	session *sim.Session
	ctrl    dynamo.Controller

	measured []float64
	controls []float64
	paused   bool
	err      error
}

// New starts a session on exp, which must already be set up.
func New(exp *experiment.Experiment, opts Options) (*Model, error) {
	sess, err := exp.Start()
	if err != nil {
		return nil, err
	}
	def := DefaultOptions()
	if opts.Frame <= 0 {
		opts.Frame = def.Frame
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = def.StepsPerFrame
	}
	if opts.History <= 0 {
		opts.History = def.History
	}
	if opts.GraphWidth <= 0 {
		opts.GraphWidth = def.GraphWidth
	}
	if opts.GraphHeight <= 0 {
		opts.GraphHeight = def.GraphHeight
	}
	if opts.Title == "" {
		opts.Title = exp.Config().Plant
	}

	m := &Model{
		opts:    opts,
		session: sess,
		ctrl:    exp.Controller(),
	}
	m.record(sess.State(), nil)
	return m, nil
}

func (m *Model) Init() tea.Cmd { return tick(m.opts.Frame) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tickMsg:
		if !m.paused && m.err == nil {
			m.advance(m.opts.StepsPerFrame)
		}
		return m, tick(m.opts.Frame)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case " ":
		m.paused = !m.paused
	case "r":
		if r, ok := m.ctrl.(dynamo.Resetter); ok {
			r.Reset()
		}
	case "+", "=":
		m.nudgeKp(1)
	case "-", "_":
		m.nudgeKp(-1)
	}
	return nil
}

// nudgeKp moves kp by a tenth of its magnitude, or by 0.1 near zero.
func (m *Model) nudgeKp(sign float64) {
	c, ok := m.ctrl.(dynamo.Configurable)
	if !ok {
		return
	}
	kp, ok := c.GetParams()["kp"]
	if !ok {
		return
	}
	step := math.Max(math.Abs(kp)*0.1, 0.1)
	_ = c.SetParam("kp", kp+sign*step)
}

func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		tk, err := m.session.Step()
		if err != nil {
			m.err = err
			return
		}
		m.record(tk.State, tk.Control)
	}
}

func (m *Model) record(x dynamo.State, u dynamo.Control) {
	if len(x) > 0 {
		m.measured = appendCapped(m.measured, x[0], m.opts.History)
	}
	if len(u) > 0 {
		m.controls = appendCapped(m.controls, u[0], m.opts.History)
	}
}

func appendCapped(s []float64, v float64, n int) []float64 {
	s = append(s, v)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func (m *Model) View() string {
	var b strings.Builder

	status := "running"
	if m.paused {
		status = "paused"
	}
	b.WriteString(viz.Title.Render(m.opts.Title) + "  " + viz.Label.Render(status) + "\n\n")

	b.WriteString(viz.Graph(m.measured, m.opts.GraphWidth, m.opts.GraphHeight, "measurement") + "\n\n")
	b.WriteString(viz.Graph(m.controls, m.opts.GraphWidth, m.opts.GraphHeight, "control") + "\n\n")

	b.WriteString(viz.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, m.fields()...)) + "\n")

	if m.err != nil {
		b.WriteString(viz.Warn.Render(fmt.Sprintf("stopped: %v", m.err)) + "\n")
	}
	b.WriteString(viz.Hint.Render("space pause · r reset controller · +/- kp · q quit"))
	return b.String()
}

func (m *Model) fields() []string {
	rows := []string{viz.Field("t       ", m.session.Time())}
	if len(m.measured) > 0 {
		rows = append(rows, viz.Field("x       ", m.measured[len(m.measured)-1]))
	}
	if len(m.controls) > 0 {
		rows = append(rows, viz.Field("u       ", m.controls[len(m.controls)-1]))
	}
	if loop, ok := m.ctrl.(*control.Loop); ok {
		kp, ti, td := loop.PID.Gains()
		rows = append(rows,
			viz.Field("target  ", loop.Target),
			viz.Field("kp      ", kp),
			viz.Field("ti      ", ti),
			viz.Field("td      ", td),
			viz.Field("integral", loop.PID.Integral()),
		)
	}
	return rows
}

// Paused reports whether stepping is suspended.
func (m *Model) Paused() bool { return m.paused }

// Err returns the error that stopped the session, if any.
func (m *Model) Err() error { return m.err }

// Run shows the live view until the user quits.
func Run(exp *experiment.Experiment, opts Options) error {
	m, err := New(exp, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
