package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
)

const (
	metadataFile = "metadata.json"
	scenarioFile = "scenario.yaml"
	samplesFile  = "samples.csv"
)

var sampleHeader = []string{"step", "time", "distance", "force", "torque", "unbreakable", "live"}

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
	ID        string           `json:"id"`
	Scenario  string           `json:"scenario"`
	Variant   string           `json:"variant"`
	Engine    string           `json:"engine"`
	Timestamp time.Time        `json:"timestamp"`
	Dt        float64          `json:"dt"`
	Steps     int              `json:"steps"`
	Broken    bool             `json:"broken"`
	BreakTime float64          `json:"break_time"`
	Metrics   map[string]Float `json:"metrics"`
	Events    []EventRecord    `json:"events"`
}

type EventRecord struct {
	Time  float64 `json:"time"`
	Kind  string  `json:"kind"`
	Force Float   `json:"force,omitempty"`
}

// Save writes a run directory with its metadata, the scenario it ran and one
// CSV row per sample.
func (s *Store) Save(cfg *config.Config, result *scenario.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := newMetadata(cfg, result)
	meta.ID = runID
	meta.Timestamp = now

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func newMetadata(cfg *config.Config, result *scenario.Result) RunMetadata {
	meta := RunMetadata{
		Scenario:  cfg.Name,
		Variant:   string(cfg.Variant),
		Engine:    cfg.Engine,
		Dt:        cfg.Dt,
		Steps:     len(result.Samples),
		Broken:    result.Broken,
		BreakTime: result.BreakTime,
		Metrics:   make(map[string]Float, len(result.Metrics)),
		Events:    make([]EventRecord, 0, len(result.Events)),
	}
	for k, v := range result.Metrics {
		meta.Metrics[k] = Float(v)
	}
	for _, e := range result.Events {
		meta.Events = append(meta.Events, EventRecord{Time: e.Time, Kind: string(e.Kind), Force: Float(e.Force)})
	}
	return meta
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

func writeSamples(path string, samples []scenario.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, sm := range samples {
		row := []string{
			strconv.Itoa(sm.Step),
			formatFloat(sm.Time),
			formatFloat(sm.Distance),
			formatFloat(sm.Force),
			formatFloat(sm.Torque),
			strconv.FormatBool(sm.Unbreakable),
			strconv.FormatBool(sm.Live),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig reads back the scenario a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

func (s *Store) LoadSamples(runID string) ([]scenario.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []scenario.Sample{}, nil
	}

	samples := make([]scenario.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		sm, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", runID, i+1, err)
		}
		samples = append(samples, sm)
	}
	return samples, nil
}

func parseSample(rec []string) (scenario.Sample, error) {
	var (
		sm  scenario.Sample
		err error
	)
	if sm.Step, err = strconv.Atoi(rec[0]); err != nil {
		return sm, err
	}
	floats := []*float64{&sm.Time, &sm.Distance, &sm.Force, &sm.Torque}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return sm, err
		}
	}
	if sm.Unbreakable, err = strconv.ParseBool(rec[5]); err != nil {
		return sm, err
	}
	if sm.Live, err = strconv.ParseBool(rec[6]); err != nil {
		return sm, err
	}
	return sm, nil
}

// LoadRun rebuilds the scenario and result of a saved run.
func (s *Store) LoadRun(runID string) (*config.Config, *scenario.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.LoadConfig(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}

	res := &scenario.Result{
		Name:      meta.Scenario,
		Samples:   samples,
		Events:    make([]scenario.Event, 0, len(meta.Events)),
		Metrics:   make(map[string]float64, len(meta.Metrics)),
		Broken:    meta.Broken,
		BreakTime: meta.BreakTime,
	}
	for k, v := range meta.Metrics {
		res.Metrics[k] = float64(v)
	}
	for _, e := range meta.Events {
		res.Events = append(res.Events, scenario.Event{Time: e.Time, Kind: scenario.EventKind(e.Kind), Force: float64(e.Force)})
	}
	return cfg, res, nil
}
