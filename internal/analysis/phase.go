package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

// PhasePortrait pairs two channels of a trajectory, typically a coordinate
// and its rate. Samples too short for either channel are skipped.
func PhasePortrait(traj *dynamo.Trajectory, xChannel, yChannel int) []physics.Point {
	points := make([]physics.Point, 0, traj.Len())
	if xChannel < 0 || yChannel < 0 {
		return points
	}
	for _, s := range traj.States {
		if xChannel < len(s) && yChannel < len(s) {
			points = append(points, physics.Point{X: s[xChannel], Y: s[yChannel]})
		}
	}
	return points
}

// PoincareSection records (recordX, recordY) each time channel crossIdx
// rises through threshold, interpolating linearly between samples.
func PoincareSection(traj *dynamo.Trajectory, crossIdx int, threshold float64, recordX, recordY int) []physics.Point {
	var out []physics.Point
	for i := 1; i < len(traj.States); i++ {
		prev, curr := traj.States[i-1], traj.States[i]
		if crossIdx >= len(curr) || recordX >= len(curr) || recordY >= len(curr) {
			return out
		}
		a, b := prev[crossIdx], curr[crossIdx]
		if !(a < threshold && b >= threshold) {
			continue
		}
		u := (threshold - a) / (b - a)
		out = append(out, physics.Point{
			X: prev[recordX] + u*(curr[recordX]-prev[recordX]),
			Y: prev[recordY] + u*(curr[recordY]-prev[recordY]),
		})
	}
	return out
}

// PhaseToASCII scatters points on a width×height character grid, with
// axes drawn where zero is in view.
func PhaseToASCII(points []physics.Point, width, height int) string {
	if len(points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX, maxX = minX-0.1*rangeX, maxX+0.1*rangeX
	minY, maxY = minY-0.1*rangeY, maxY+0.1*rangeY
	rangeX, rangeY = maxX-minX, maxY-minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range grid[r] {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}

	for _, p := range points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}
