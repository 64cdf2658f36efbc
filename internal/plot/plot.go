// Package plot renders trajectories to PNG with gonum/plot: the cart and
// link motion against time, and the energy breakdown.
package plot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

const (
	widthIn  = 10.0
	heightIn = 4.0
	dpi      = 150
)

func series(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

func addLines(p *plot.Plot, names []string, data [][]float64, times []float64) error {
	for i, name := range names {
		line, err := plotter.NewLine(series(times, data[i]))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	return nil
}

// Motion plots x and every link angle against time.
func Motion(traj *dynamo.Trajectory) (*plot.Plot, error) {
	if traj.Len() == 0 {
		return nil, fmt.Errorf("empty trajectory")
	}

	p := plot.New()
	p.Title.Text = "Cart and Pendulum Motion"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "x / theta"
	p.Add(plotter.NewGrid())

	var names []string
	var data [][]float64
	for i := 0; i < 2*traj.Dof; i += 2 {
		names = append(names, dynamo.ChannelName(traj.Dof, i))
		data = append(data, traj.Channel(i))
	}
	if err := addLines(p, names, data, traj.Times); err != nil {
		return nil, err
	}
	return p, nil
}

// Energy plots kinetic, potential and total energy against time.
func Energy(ps physics.ParameterSet, traj *dynamo.Trajectory) (*plot.Plot, error) {
	if traj.Len() == 0 {
		return nil, fmt.Errorf("empty trajectory")
	}

	e := physics.EnergySeries(ps, traj)
	kinetic := make([]float64, len(e))
	potential := make([]float64, len(e))
	total := make([]float64, len(e))
	for i, b := range e {
		kinetic[i], potential[i], total[i] = b.Kinetic, b.Potential, b.Total
	}

	p := plot.New()
	p.Title.Text = "Energy vs Time"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "energy (J)"
	p.Add(plotter.NewGrid())

	names := []string{"Kinetic Energy", "Potential Energy", "Total Energy"}
	if err := addLines(p, names, [][]float64{kinetic, potential, total}, traj.Times); err != nil {
		return nil, err
	}
	return p, nil
}

// SavePNG renders p at a fixed size and resolution.
func SavePNG(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// WriteAll saves motion.png and energy.png into dir and returns their paths.
func WriteAll(dir string, ps physics.ParameterSet, traj *dynamo.Trajectory) ([]string, error) {
	motion, err := Motion(traj)
	if err != nil {
		return nil, err
	}
	energy, err := Energy(ps, traj)
	if err != nil {
		return nil, err
	}

	paths := []string{filepath.Join(dir, "motion.png"), filepath.Join(dir, "energy.png")}
	for i, p := range []*plot.Plot{motion, energy} {
		if err := SavePNG(p, paths[i]); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
