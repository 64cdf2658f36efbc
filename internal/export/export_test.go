package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

func sampleData(t *testing.T) (physics.ParameterSet, *dynamo.Trajectory, ExportData) {
	t.Helper()
	ps, err := physics.NewParameterSet(physics.CartPendulum,
		physics.CartParams{M: 10, K: 2, C: 1},
		physics.PendulumParams{Mass: 5, Length: 5, Gravity: 9.81})
	if err != nil {
		t.Fatal(err)
	}
	traj := &dynamo.Trajectory{
		Dof:     2,
		Times:   []float64{0, 0.5, 1},
		States:  []dynamo.State{{0, 1, 0.2, 0}, {0.4, 0.6, 0.1, -0.3}, {0.6, 0.1, -0.1, -0.2}},
		Metrics: map[string]float64{"peak_displacement": 0.6},
		Stats:   dynamo.Stats{Accepted: 12, Evaluations: 74},
	}
	return ps, traj, NewExportData("demo", "rk45", ps, traj)
}

func TestNewExportData(t *testing.T) {
	ps, traj, data := sampleData(t)

	if data.Topology != "cart_pendulum" || data.Dof != 2 || data.Samples != 3 {
		t.Errorf("header = %s/%d/%d", data.Topology, data.Dof, data.Samples)
	}
	want := []string{"x", "x_dot", "theta1", "theta1_dot"}
	if strings.Join(data.Channels, ",") != strings.Join(want, ",") {
		t.Errorf("channels = %v, want %v", data.Channels, want)
	}
	if len(data.Energy) != traj.Len() {
		t.Fatalf("got %d energy rows, want %d", len(data.Energy), traj.Len())
	}
	if e := physics.Energy(ps, traj.States[1]); data.Energy[1] != e {
		t.Errorf("energy[1] = %+v, want %+v", data.Energy[1], e)
	}
	if data.Params["k"] != 2 {
		t.Errorf("params[k] = %v", data.Params["k"])
	}
}

func TestWriteJSON(t *testing.T) {
	_, _, data := sampleData(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Stats.Evaluations != 74 || got.Integrator != "rk45" {
		t.Errorf("decoded %+v", got.Stats)
	}
	if got.States[2][0] != 0.6 {
		t.Errorf("states[2][0] = %v", got.States[2][0])
	}
}

func TestWriteCSV(t *testing.T) {
	_, _, data := sampleData(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, data); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if got := strings.Join(rows[0], ","); got != "time,x,x_dot,theta1,theta1_dot,kinetic,potential,total" {
		t.Errorf("header = %s", got)
	}

	total, err := strconv.ParseFloat(rows[2][7], 64)
	if err != nil {
		t.Fatal(err)
	}
	if total != data.Energy[1].Total {
		t.Errorf("total = %v, want %v", total, data.Energy[1].Total)
	}
}

func TestExportXLSX(t *testing.T) {
	_, _, data := sampleData(t)
	path := filepath.Join(t.TempDir(), "run.xlsx")
	if err := ExportXLSX(path, data); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); strings.Join(got, ",") != "Trajectory,Parameters,Metrics" {
		t.Errorf("sheets = %v", got)
	}

	rows, err := f.GetRows(trajectorySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][1] != "x" || rows[3][0] != "1" {
		t.Errorf("trajectory rows = %v", rows)
	}

	params, err := f.GetRows(parametersSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != len(data.Params) {
		t.Errorf("got %d parameter rows, want %d", len(params), len(data.Params))
	}

	metrics, err := f.GetRows(metricsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 || metrics[0][0] != "peak_displacement" {
		t.Errorf("metrics rows = %v", metrics)
	}
}

func TestWritePhaseSVG(t *testing.T) {
	_, traj, _ := sampleData(t)

	var buf bytes.Buffer
	if err := WritePhaseSVG(&buf, traj, 2, 3, SVGOptions{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`width="640"`, "<path", ">theta1<", ">theta1_dot<", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if n := strings.Count(out, " L"); n != 2 {
		t.Errorf("path has %d segments, want 2", n)
	}

	if err := WritePhaseSVG(&buf, traj, 0, 9, SVGOptions{}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestWriteFrameSVG(t *testing.T) {
	ps, traj, _ := sampleData(t)

	var buf bytes.Buffer
	if err := WriteFrameSVG(&buf, ps, traj, 1, SVGOptions{Width: 800, Height: 600}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "t = 0.50") {
		t.Error("frame time missing")
	}
	if n := strings.Count(out, "<circle"); n != 1 {
		t.Errorf("got %d link ends, want 1", n)
	}

	if err := WriteFrameSVG(&buf, ps, traj, 3, SVGOptions{}); err == nil {
		t.Error("frame past the end accepted")
	}
}
