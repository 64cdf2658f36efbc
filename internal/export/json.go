package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

type ExportData struct {
	Name       string                    `json:"name,omitempty"`
	Topology   string                    `json:"topology"`
	Dof        int                       `json:"dof"`
	Integrator string                    `json:"integrator"`
	Params     map[string]float64        `json:"params"`
	Samples    int                       `json:"samples"`
	Channels   []string                  `json:"channels"`
	Times      []float64                 `json:"times"`
	States     [][]float64               `json:"states"`
	Energy     []physics.EnergyBreakdown `json:"energy"`
	Metrics    map[string]float64        `json:"metrics"`
	Stats      dynamo.Stats              `json:"stats"`
}

func NewExportData(name, integrator string, ps physics.ParameterSet, traj *dynamo.Trajectory) ExportData {
	data := ExportData{
		Name:       name,
		Topology:   ps.Topology().String(),
		Dof:        ps.Dof(),
		Integrator: integrator,
		Params:     ps.Params(),
		Samples:    traj.Len(),
		Channels:   Channels(ps.Dof()),
		Times:      traj.Times,
		States:     make([][]float64, len(traj.States)),
		Energy:     physics.EnergySeries(ps, traj),
		Metrics:    traj.Metrics,
		Stats:      traj.Stats,
	}
	for i, s := range traj.States {
		data.States[i] = s
	}
	return data
}

func Channels(dof int) []string {
	names := make([]string, 2*dof)
	for i := range names {
		names[i] = dynamo.ChannelName(dof, i)
	}
	return names
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, data); err != nil {
		return err
	}
	return file.Close()
}
