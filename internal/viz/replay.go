package viz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

const (
	fps          = 60
	canvasWidth  = 80
	canvasHeight = 24
	trailLength  = 120
	energyWindow = 300
	viewMargin   = 2.0
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Options tune a replay. Zero values pick defaults.
type Options struct {
	Title   string
	Rate    float64 // simulated seconds per wall second
	Theme   string
	GIFPath string
}

// Model replays a finished trajectory: the cart and its links on a braille
// canvas, with the energy history beside it.
type Model struct {
	ps      physics.ParameterSet
	traj    *dynamo.Trajectory
	energy  []float64
	view    physics.Bounds
	title   string
	gifPath string

	canvas *Canvas
	cam    camera
	trail  []physics.Point

	t        float64
	frame    int
	rate     float64
	playing  bool
	recorder *Recorder
	theme    Theme
	styles   styles
	status   string
	showHelp bool
}

// NewModel prepares a replay of traj, which must have been produced with
// the layout of ps.
func NewModel(ps physics.ParameterSet, traj *dynamo.Trajectory, opts Options) (Model, error) {
	if traj == nil || traj.Len() == 0 {
		return Model{}, errors.New("empty trajectory")
	}
	if traj.Dof != ps.Dof() {
		return Model{}, fmt.Errorf("%w: trajectory has dof %d, parameters have %d", dynamo.ErrDimensionMismatch, traj.Dof, ps.Dof())
	}

	if opts.Title == "" {
		opts.Title = ps.Topology().String()
	}
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "cartsim.gif"
	}

	series := physics.EnergySeries(ps, traj)
	energy := make([]float64, len(series))
	for i, e := range series {
		energy[i] = e.Total
	}

	theme := ThemeByName(opts.Theme)
	m := Model{
		ps:      ps,
		traj:    traj,
		energy:  energy,
		view:    ps.Viewport(traj, viewMargin),
		title:   opts.Title,
		gifPath: opts.GIFPath,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		cam:     newCamera(fps),
		trail:   make([]physics.Point, 0, trailLength),
		t:       traj.Times[0],
		rate:    opts.Rate,
		playing: true,
		theme:   theme,
		styles:  newStyles(theme),
	}
	m.cam.jump(traj.States[0][0])
	return m, nil
}

// Play runs the replay full screen until the user quits.
func Play(ps physics.ParameterSet, traj *dynamo.Trajectory, opts Options) error {
	m, err := NewModel(ps, traj, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.seek(0)
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.rate = min(m.rate*2, 64)
		case "-", "_":
			m.rate = max(m.rate/2, 1.0/16)
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.playing {
			m.advance(m.rate / fps)
		}
		m.draw(true)
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

// advance moves the playhead by dt simulated seconds, looping at the end.
func (m *Model) advance(dt float64) {
	end := m.traj.Times[m.traj.Len()-1]
	m.t += dt
	if m.t > end {
		m.t = m.traj.Times[0]
		m.trail = m.trail[:0]
	}
	m.frame = frameAt(m.traj.Times, m.t)
	m.remember()
}

func (m *Model) seek(frame int) {
	m.frame = max(0, min(frame, m.traj.Len()-1))
	m.t = m.traj.Times[m.frame]
	m.trail = m.trail[:0]
	m.cam.jump(m.traj.States[m.frame][0])
}

// scrub pauses and steps one percent of the run in dir.
func (m *Model) scrub(dir int) {
	m.playing = false
	step := max(1, m.traj.Len()/100)
	m.seek(m.frame + dir*step)
}

// remember extends the trail with the outermost moving point.
func (m *Model) remember() {
	pose, err := m.ps.Pose(m.traj.States[m.frame])
	if err != nil {
		return
	}
	tip := pose.Pivot
	if n := len(pose.Links); n > 0 {
		tip = pose.Links[n-1]
	}
	m.trail = append(m.trail, tip)
	if len(m.trail) > trailLength {
		m.trail = m.trail[1:]
	}
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder(m.theme, 2)
		m.status = "recording"
		return
	}
	rec := m.recorder
	m.recorder = nil
	if err := rec.Save(m.gifPath); err != nil {
		m.status = "gif: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", rec.Frames(), m.gifPath)
}

// frameAt returns the last sample index with time ≤ t.
func frameAt(times []float64, t float64) int {
	i := sort.SearchFloat64s(times, t+1e-9)
	return max(0, min(i-1, len(times)-1))
}

// draw renders the current frame. With ease the camera spring steps toward
// the cart; otherwise the camera stays where it is.
func (m *Model) draw(ease bool) {
	m.canvas.Clear()
	state := m.traj.States[m.frame]
	pose, err := m.ps.Pose(state)
	if err != nil {
		return
	}

	center := m.cam.x
	if ease {
		center = m.cam.follow(pose.Pivot.X)
	}
	w, h := m.canvas.PixelSize()
	p := newProjection(m.view, center, w, h)

	_, railY := p.dot(physics.Point{})
	m.canvas.DashH(railY, 3)

	for _, pt := range m.trail {
		x, y := p.dot(pt)
		m.canvas.Set(x, y)
	}

	x0, y0 := p.dot(physics.Point{X: pose.Pivot.X - physics.CartWidth/2, Y: physics.CartHeight})
	x1, y1 := p.dot(physics.Point{X: pose.Pivot.X + physics.CartWidth/2})
	m.canvas.DrawRect(x0, y0, x1, y1)

	ax, ay := p.dot(pose.Pivot)
	for _, link := range pose.Links {
		bx, by := p.dot(link)
		m.canvas.DrawLine(ax, ay, bx, by)
		m.canvas.FillDisc(bx, by, 2)
		ax, ay = bx, by
	}
}

func (m Model) View() string {
	m.draw(false)
	s := m.styles

	var b strings.Builder
	b.WriteString(s.header.Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.recorder != nil:
		b.WriteString(s.recording.Render(fmt.Sprintf("● REC %d", m.recorder.Frames())))
	case m.playing:
		b.WriteString(s.playing.Render("▶ PLAYING"))
	default:
		b.WriteString(s.paused.Render("❚❚ PAUSED"))
	}
	b.WriteString("\n\n")

	start, end := m.traj.Times[0], m.traj.Times[m.traj.Len()-1]
	fraction := 0.0
	if end > start {
		fraction = (m.traj.Times[m.frame] - start) / (end - start)
	}
	b.WriteString(ProgressBar(fraction, 30) + "\n\n")

	row := func(label, value string) {
		b.WriteString(s.label.Render(label) + s.value.Render(value) + "\n")
	}
	state := m.traj.States[m.frame]
	row("time", fmt.Sprintf("%.2f / %.2f s", m.traj.Times[m.frame], end))
	row("rate", fmt.Sprintf("%gx", m.rate))
	for i, v := range state {
		row(dynamo.ChannelName(m.traj.Dof, i), fmt.Sprintf("%+.4f", v))
	}
	row("energy", fmt.Sprintf("%.4f", m.energy[m.frame]))

	if window := m.energy[max(0, m.frame-energyWindow) : m.frame+1]; len(window) > 1 {
		chart := asciigraph.Plot(window, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		b.WriteString(s.graph.Render(chart) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + s.value.Render(m.status) + "\n")
	}
	b.WriteString(s.help.Render("SPACE pause  [ ] scrub  +/- rate\nR restart  T theme  G gif  ? help  Q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, s.canvas.Render(m.canvas.String()), s.panel.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  space   pause or resume playback
  [ ]     step back or forward one percent of the run
  + -     double or halve the playback rate
  r       restart from the first sample
  t       cycle color theme
  g       start or stop GIF capture
  ?       toggle this help
  q       quit
`
