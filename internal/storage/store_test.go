package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
)

func testResult() *scenario.Result {
	return &scenario.Result{
		Name: "default",
		Samples: []scenario.Sample{
			{Step: 1, Time: 0.02, Distance: 5, Live: true, Unbreakable: true},
			{Step: 2, Time: 0.04, Distance: 6.5, Force: math.Inf(1), Live: true},
			{Step: 3, Time: 0.06, Distance: 6.6, Live: false},
		},
		Events: []scenario.Event{
			{Time: 0, Kind: scenario.EventCreated},
			{Time: 0.04, Kind: scenario.EventBreak, Force: math.Inf(1)},
		},
		Metrics: map[string]float64{
			"peak_force": math.Inf(1),
			"break_time": 0.04,
		},
		Broken:    true,
		BreakTime: 0.04,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "default_") {
		t.Errorf("expected run id to start with the scenario name, got %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Variant != "two_ends_sphere" || !meta.Broken || meta.Steps != 3 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if !math.IsInf(float64(meta.Metrics["peak_force"]), 1) {
		t.Errorf("expected +Inf peak force, got %v", meta.Metrics["peak_force"])
	}
	if len(meta.Events) != 2 || meta.Events[1].Kind != "break" {
		t.Errorf("unexpected events %+v", meta.Events)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	want := testResult().Samples
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d: expected %+v, got %+v", i, want[i], samples[i])
		}
	}

	back, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if back.Link != cfg.Link {
		t.Errorf("expected link %+v, got %+v", cfg.Link, back.Link)
	}
}

func TestStoreLoadRun(t *testing.T) {
	st := New(t.TempDir())
	cfg := config.GetPreset("soft")
	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	gotCfg, res, err := st.LoadRun(runID)
	if err != nil {
		t.Fatalf("load run failed: %v", err)
	}
	if gotCfg.Link.LinkSpring != cfg.Link.LinkSpring {
		t.Errorf("expected spring %v, got %v", cfg.Link.LinkSpring, gotCfg.Link.LinkSpring)
	}
	if len(res.Samples) != 3 || len(res.Events) != 2 {
		t.Fatalf("expected 3 samples and 2 events, got %d and %d", len(res.Samples), len(res.Events))
	}
	if res.Events[1].Kind != scenario.EventBreak || !math.IsInf(res.Events[1].Force, 1) {
		t.Errorf("unexpected break event %+v", res.Events[1])
	}
	if !res.Broken || res.BreakTime != 0.04 {
		t.Errorf("expected a break at 0.04, got %v %v", res.Broken, res.BreakTime)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.Save(config.DefaultConfig(), testResult())
	second, _ := st.Save(config.GetPreset("soft"), testResult())
	os.Mkdir(filepath.Join(dir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected oldest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, scenarioFile, samplesFile} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !os.IsNotExist(err) {
		t.Errorf("expected not exist, got %v", err)
	}
	if _, err := st.LoadSamples("nope"); !os.IsNotExist(err) {
		t.Errorf("expected not exist, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, config.DefaultConfig(), testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(got.Samples))
	}
	if !math.IsInf(float64(got.Samples[1].Force), 1) {
		t.Errorf("expected +Inf force, got %v", got.Samples[1].Force)
	}
	if got.Scenario != "default" {
		t.Errorf("expected scenario default, got %s", got.Scenario)
	}
}
