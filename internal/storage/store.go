package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	configFile   = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name,omitempty"`
	Topology   string             `json:"topology"`
	Dof        int                `json:"dof"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	TStart     float64            `json:"t_start"`
	TEnd       float64            `json:"t_end"`
	Samples    int                `json:"samples"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Stats      dynamo.Stats       `json:"stats"`
}

// Save writes a run directory holding metadata, the config that produced
// traj and the sampled states. The run id is "<topology>_<8 hex>".
func (s *Store) Save(cfg *config.Config, traj *dynamo.Trajectory) (string, error) {
	ps, err := cfg.ParameterSet()
	if err != nil {
		return "", err
	}

	runID := fmt.Sprintf("%s_%s", ps.Topology(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Topology:   ps.Topology().String(),
		Dof:        ps.Dof(),
		Timestamp:  time.Now(),
		Integrator: cfg.Integrator(),
		TStart:     cfg.Run.TStart,
		TEnd:       cfg.Run.TEnd,
		Samples:    traj.Len(),
		Params:     ps.Params(),
		Metrics:    traj.Metrics,
		Stats:      traj.Stats,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), traj); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, traj *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := WriteCSV(w, traj); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes a header row of channel names followed by one row per
// sample. Floats use the shortest exact representation.
func WriteCSV(w *csv.Writer, traj *dynamo.Trajectory) error {
	if traj.Len() == 0 {
		w.Flush()
		return w.Error()
	}

	header := []string{"time"}
	for i := range traj.States[0] {
		header = append(header, dynamo.ChannelName(traj.Dof, i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range traj.States {
		row := []string{strconv.FormatFloat(traj.Times[i], 'g', -1, 64)}
		for _, val := range traj.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadConfig returns the config a run was produced from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadTrajectory reads the sampled states of a run.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	traj, err := ReadCSV(csv.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	traj.Dof = meta.Dof
	traj.Metrics = meta.Metrics
	traj.Stats = meta.Stats
	return traj, nil
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(r *csv.Reader) (*dynamo.Trajectory, error) {
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &dynamo.Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}

	width := len(records[0])
	traj.Dof = (width - 1) / 2
	traj.Times = make([]float64, 0, len(records)-1)
	traj.States = make([]dynamo.State, 0, len(records)-1)

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+2, j+1, err)
			}
			vals[j] = v
		}
		traj.Times = append(traj.Times, vals[0])
		traj.States = append(traj.States, dynamo.State(vals[1:]))
	}

	return traj, nil
}
