package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/cartsim/internal/physics"
)

// world converts a physics point to camera space, where y grows downward.
func world(p physics.Point) rl.Vector2 {
	return rl.NewVector2(float32(p.X), float32(-p.Y))
}

func (a *App) drawRail() {
	for x := a.View.MinX; x <= a.View.MaxX; x++ {
		rl.DrawLineV(world(physics.Point{X: x, Y: a.View.MinY}), world(physics.Point{X: x, Y: a.View.MaxY}), ColGrid)
	}
	rl.DrawLineEx(world(physics.Point{X: a.View.MinX}), world(physics.Point{X: a.View.MaxX}), 0.05, ColTextDim)
}

func (a *App) drawCart() {
	pose, err := a.Params.Pose(a.Traj.States[a.Frame])
	if err != nil {
		return
	}

	corner := world(physics.Point{X: pose.Pivot.X - physics.CartWidth/2, Y: physics.CartHeight})
	rl.DrawRectangleV(corner, rl.NewVector2(physics.CartWidth, physics.CartHeight), ColAccent)

	tip := pose.Pivot
	from := world(pose.Pivot)
	for _, link := range pose.Links {
		to := world(link)
		rl.DrawLineEx(from, to, 0.12, ColText)
		rl.DrawCircleV(to, 0.25, ColSelect)
		from, tip = to, link
	}
	rl.DrawCircleV(world(pose.Pivot), 0.12, ColTextDim)

	a.trail = append(a.trail, world(tip))
	if len(a.trail) > trailN {
		a.trail = a.trail[1:]
	}
	if len(a.trail) > 1 {
		rl.DrawLineStrip(a.trail, ColTextDim)
	}
}

// DrawTelemetry plots total energy up to the current frame.
func (a *App) DrawTelemetry() {
	data := a.Energy[:a.Frame+1]
	if len(data) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := data[0], data[0]
	for _, v := range a.Energy {
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	n := len(a.Energy)
	points := make([]rl.Vector2, len(data))
	for i, val := range data {
		px := float32(rectX) + float32(i)/float32(n)*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		points[i] = rl.NewVector2(px, float32(rectY+height)-float32(norm)*float32(height))
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("E: %.3e", data[len(data)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}
