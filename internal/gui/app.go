// Package gui replays a trajectory in a raylib window.
package gui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/harmonica"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

const (
	screenW = 1280
	screenH = 720
	fps     = 60
	trailN  = 200
)

// Monochrome palette.
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

type App struct {
	Params  physics.ParameterSet
	Traj    *dynamo.Trajectory
	Title   string
	Energy  []float64
	View    physics.Bounds
	Camera  rl.Camera2D
	Font    rl.Font
	Time    float64
	Frame   int
	Rate    float64
	Running bool

	spring       harmonica.Spring
	camX, camVel float64
	trail        []rl.Vector2
}

func initWindow(title string) {
	rl.InitWindow(screenW, screenH, title)
	rl.SetTargetFPS(fps)
	rl.SetExitKey(0)
}

// NewApp sizes the camera so the whole swing of the links fits the window
// height. The window must already be open.
func NewApp(ps physics.ParameterSet, traj *dynamo.Trajectory, title string) *App {
	view := ps.Viewport(traj, 2)
	zoom := float32(screenH*0.8) / float32(view.Height())

	series := physics.EnergySeries(ps, traj)
	energy := make([]float64, len(series))
	for i, e := range series {
		energy[i] = e.Total
	}

	a := &App{
		Params: ps,
		Traj:   traj,
		Title:  title,
		Energy: energy,
		View:   view,
		Camera: rl.Camera2D{
			Offset: rl.NewVector2(screenW/2, screenH*0.45),
			Target: rl.NewVector2(float32(traj.States[0][0]), float32(-(view.MaxY+view.MinY)/2)),
			Zoom:   zoom,
		},
		Font:    rl.GetFontDefault(),
		Time:    traj.Times[0],
		Rate:    1,
		Running: true,
		spring:  harmonica.NewSpring(harmonica.FPS(fps), 3.0, 1.0),
		camX:    traj.States[0][0],
		trail:   make([]rl.Vector2, 0, trailN),
	}
	return a
}

// Run opens the window and blocks until it is closed.
func Run(ps physics.ParameterSet, traj *dynamo.Trajectory, title string) error {
	if traj == nil || traj.Len() == 0 {
		return fmt.Errorf("empty trajectory")
	}
	if traj.Dof != ps.Dof() {
		return fmt.Errorf("%w: trajectory has dof %d, parameters have %d", dynamo.ErrDimensionMismatch, traj.Dof, ps.Dof())
	}

	initWindow("cartsim :: " + title)
	defer rl.CloseWindow()
	NewApp(ps, traj, title).RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !rl.IsKeyPressed(rl.KeyQ) {
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.Running = !a.Running
	case rl.IsKeyPressed(rl.KeyR):
		a.seek(0)
	case rl.IsKeyPressed(rl.KeyLeft):
		a.Running = false
		a.seek(a.Frame - max(1, a.Traj.Len()/100))
	case rl.IsKeyPressed(rl.KeyRight):
		a.Running = false
		a.seek(a.Frame + max(1, a.Traj.Len()/100))
	case rl.IsKeyPressed(rl.KeyUp):
		a.Rate = min(a.Rate*2, 64)
	case rl.IsKeyPressed(rl.KeyDown):
		a.Rate = max(a.Rate/2, 1.0/16)
	}

	if a.Running {
		end := a.Traj.Times[a.Traj.Len()-1]
		a.Time += a.Rate * float64(rl.GetFrameTime())
		if a.Time > end {
			a.Time = a.Traj.Times[0]
			a.trail = a.trail[:0]
		}
		a.Frame = max(0, sort.SearchFloat64s(a.Traj.Times, a.Time+1e-9)-1)
	}

	a.camX, a.camVel = a.spring.Update(a.camX, a.camVel, a.Traj.States[a.Frame][0])
	a.Camera.Target.X = float32(a.camX)
}

func (a *App) seek(frame int) {
	a.Frame = max(0, min(frame, a.Traj.Len()-1))
	a.Time = a.Traj.Times[a.Frame]
	a.trail = a.trail[:0]
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode2D(a.Camera)
	a.drawRail()
	a.drawCart()
	rl.EndMode2D()

	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("cartsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Title), 150, 34, 16, ColText)

	status, col := "PLAYING", ColSelect
	if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	state := a.Traj.States[a.Frame]
	a.drawText(fmt.Sprintf("t = %7.2f s   rate %gx", a.Traj.Times[a.Frame], a.Rate), 30, 70, 16, ColText)
	for i, v := range state {
		a.drawText(fmt.Sprintf("%-11s %+.4f", dynamo.ChannelName(a.Traj.Dof, i), v), 30, 100+22*i, 16, ColAccent)
	}

	a.DrawTelemetry()
	a.drawText("[SPACE] PAUSE  [R] RESTART  [<- ->] SCRUB  [UP/DOWN] RATE  [Q] QUIT", 640, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", rl.GetFPS()), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
