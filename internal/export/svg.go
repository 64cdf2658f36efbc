package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/san-kum/cartsim/internal/analysis"
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

const (
	svgBackground = "#0a0a0a"
	svgForeground = "#e6e6e6"
	svgPad        = 40.0
)

// SVGOptions size an SVG drawing. Zero values pick 640×480 and cyan.
type SVGOptions struct {
	Width, Height int
	Stroke        string
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.Stroke == "" {
		o.Stroke = "#00ccff"
	}
	return o
}

// extent returns the bounding box of points grown by 10% on each side.
func extent(points []physics.Point) physics.Bounds {
	b := physics.Bounds{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	for _, p := range points {
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
	}
	dx, dy := b.Width(), b.Height()
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	b.MinX, b.MaxX = b.MinX-0.1*dx, b.MaxX+0.1*dx
	b.MinY, b.MaxY = b.MinY-0.1*dy, b.MaxY+0.1*dy
	return b
}

// plotArea maps world coordinates into the padded drawing area.
type plotArea struct {
	b             physics.Bounds
	width, height float64
	sx, sy        float64
}

func newPlotArea(b physics.Bounds, width, height int, equal bool) plotArea {
	w, h := float64(width)-2*svgPad, float64(height)-2*svgPad
	sx, sy := w/b.Width(), h/b.Height()
	if equal {
		sx = math.Min(sx, sy)
		sy = sx
	}
	return plotArea{b: b, width: float64(width), height: float64(height), sx: sx, sy: sy}
}

func (a plotArea) at(p physics.Point) (float64, float64) {
	return svgPad + (p.X-a.b.MinX)*a.sx, a.height - svgPad - (p.Y-a.b.MinY)*a.sy
}

func svgHeader(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, svgBackground)
}

func svgText(sb *strings.Builder, x, y float64, anchor, text string) {
	fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="12" text-anchor="%s">%s</text>
`, x, y, svgForeground, anchor, text)
}

// WritePhaseSVG draws channel yChannel against xChannel as one polyline
// with labelled axes.
func WritePhaseSVG(w io.Writer, traj *dynamo.Trajectory, xChannel, yChannel int, opts SVGOptions) error {
	points := analysis.PhasePortrait(traj, xChannel, yChannel)
	if len(points) < 2 {
		return fmt.Errorf("%w: channels %d and %d give %d points", dynamo.ErrDimensionMismatch, xChannel, yChannel, len(points))
	}
	opts = opts.withDefaults()
	area := newPlotArea(extent(points), opts.Width, opts.Height, false)

	var sb strings.Builder
	svgHeader(&sb, opts.Width, opts.Height)

	fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s" stroke-width="0.5"/>
`, svgPad, svgPad, area.width-2*svgPad, area.height-2*svgPad, svgForeground)

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, opts.Stroke)
	for i, p := range points {
		x, y := area.at(p)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	svgText(&sb, area.width/2, area.height-svgPad/3, "middle", dynamo.ChannelName(traj.Dof, xChannel))
	svgText(&sb, svgPad/4, svgPad-8, "start", dynamo.ChannelName(traj.Dof, yChannel))
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteFrameSVG draws the cart and links at sample index frame, framed to
// the whole trajectory so consecutive frames line up.
func WriteFrameSVG(w io.Writer, ps physics.ParameterSet, traj *dynamo.Trajectory, frame int, opts SVGOptions) error {
	if frame < 0 || frame >= traj.Len() {
		return fmt.Errorf("frame %d outside trajectory of %d samples", frame, traj.Len())
	}
	pose, err := ps.Pose(traj.States[frame])
	if err != nil {
		return err
	}
	opts = opts.withDefaults()
	area := newPlotArea(ps.Viewport(traj, 2), opts.Width, opts.Height, true)

	var sb strings.Builder
	svgHeader(&sb, opts.Width, opts.Height)

	x0, y0 := area.at(physics.Point{X: area.b.MinX})
	x1, _ := area.at(physics.Point{X: area.b.MaxX})
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-dasharray="4 4"/>
`, x0, y0, x1, y0, svgForeground)

	cx, cy := area.at(physics.Point{X: pose.Pivot.X - physics.CartWidth/2, Y: physics.CartHeight})
	fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, cx, cy, physics.CartWidth*area.sx, physics.CartHeight*area.sy, opts.Stroke)

	ax, ay := area.at(pose.Pivot)
	for _, link := range pose.Links {
		bx, by := area.at(link)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="3"/>
<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>
`, ax, ay, bx, by, svgForeground, bx, by, svgForeground)
		ax, ay = bx, by
	}

	svgText(&sb, 8, 16, "start", fmt.Sprintf("t = %.2f", traj.Times[frame]))
	sb.WriteString("</svg>\n")

	_, err = io.WriteString(w, sb.String())
	return err
}

// ExportSVG writes the phase portrait of two channels to path.
func ExportSVG(path string, traj *dynamo.Trajectory, xChannel, yChannel int, opts SVGOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WritePhaseSVG(file, traj, xChannel, yChannel, opts); err != nil {
		return err
	}
	return file.Close()
}
