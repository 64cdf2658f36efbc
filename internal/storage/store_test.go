package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
)

func sampleTrajectory() *dynamo.Trajectory {
	return &dynamo.Trajectory{
		Dof:    1,
		Times:  []float64{0.0, 0.1, 0.2},
		States: []dynamo.State{{0, 1}, {0.09516258196404048, 0.9048374180359595}, {0.18126924692201818, 0.8187307530779818}},
		Metrics: map[string]float64{
			"energy": 1.5,
		},
		Stats: dynamo.Stats{Accepted: 4, Evaluations: 26},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.Default()
	runID, err := st.Save(cfg, sampleTrajectory())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !regexp.MustCompile(`^cart_[0-9a-f]{8}$`).MatchString(runID) {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Dof != 1 || meta.Topology != "cart" {
		t.Errorf("expected dof 1 cart, got %d %s", meta.Dof, meta.Topology)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.Params["c"] != 10 {
		t.Errorf("expected c 10, got %f", meta.Params["c"])
	}
	if meta.Stats.Evaluations != 26 {
		t.Errorf("expected 26 evaluations, got %d", meta.Stats.Evaluations)
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	want := sampleTrajectory()
	if traj.Len() != want.Len() {
		t.Fatalf("expected %d samples, got %d", want.Len(), traj.Len())
	}
	for i := range want.States {
		if traj.Times[i] != want.Times[i] {
			t.Errorf("time %d: got %v, want %v", i, traj.Times[i], want.Times[i])
		}
		for j := range want.States[i] {
			if traj.States[i][j] != want.States[i][j] {
				t.Errorf("state %d[%d]: got %v, want %v", i, j, traj.States[i][j], want.States[i][j])
			}
		}
	}

	back, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if *back.M != *cfg.M || back.Dof != cfg.Dof {
		t.Errorf("config mismatch: %+v", back)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on empty store failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(config.Default(), sampleTrajectory()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if len(runs) == 2 && runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not sorted newest first")
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadTrajectory("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestWriteCSVHeader(t *testing.T) {
	traj := &dynamo.Trajectory{
		Dof:    2,
		Times:  []float64{0},
		States: []dynamo.State{{1, 2, 3, 4}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(csv.NewWriter(&buf), traj); err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if first != "time,x,x_dot,theta1,theta1_dot" {
		t.Errorf("header = %q", first)
	}
}

func TestReadCSV_BadNumber(t *testing.T) {
	_, err := ReadCSV(csv.NewReader(strings.NewReader("time,x,x_dot\n0,1,oops\n")))
	if err == nil {
		t.Error("expected parse error")
	}
}
