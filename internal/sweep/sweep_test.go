package sweep

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in     string
		param  string
		values []float64
		err    error
	}{
		{"pull_rate=0:2:3", "pull_rate", []float64{0, 1, 2}, nil},
		{"break_force=100, 500,inf", "break_force", []float64{100, 500, math.Inf(1)}, nil},
		{"spring=50", "spring", []float64{50}, nil},
		{"gravity=1", "", nil, ErrUnknownParam},
		{"pull_rate", "", nil, ErrBadAxis},
		{"pull_rate=0:2:x", "", nil, ErrBadAxis},
		{"pull_rate=a,b", "", nil, ErrBadAxis},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ax, err := ParseAxis(tt.in)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if ax.Param != tt.param || len(ax.Values) != len(tt.values) {
				t.Fatalf("expected %s %v, got %+v", tt.param, tt.values, ax)
			}
			for i := range tt.values {
				if ax.Values[i] != tt.values[i] {
					t.Errorf("value %d: expected %v, got %v", i, tt.values[i], ax.Values[i])
				}
			}
		})
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(1, 2, 5)
	if len(got) != 5 || got[0] != 1 || got[4] != 2 || math.Abs(got[2]-1.5) > 1e-12 {
		t.Errorf("unexpected %v", got)
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("expected [3], got %v", got)
	}
}

func TestGridPoints(t *testing.T) {
	g := &Grid{
		Base: config.DefaultConfig(),
		Axes: []Axis{
			{Param: "pull_rate", Values: []float64{1, 2}},
			{Param: "break_force", Values: []float64{10, 20, 30}},
		},
	}
	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[1]["pull_rate"] != 1 || points[1]["break_force"] != 20 {
		t.Errorf("expected the last axis to vary fastest, got %v", points[1])
	}

	jobs := g.Jobs()
	if jobs[5].Config.Pull.Rate != 2 || jobs[5].Config.Link.LinkBreakForce != 30 {
		t.Errorf("unexpected last job %+v", jobs[5].Config)
	}
	if g.Base.Pull.Rate != config.DefaultConfig().Pull.Rate {
		t.Error("jobs must not mutate the base scenario")
	}
}

func TestGridRunAndBest(t *testing.T) {
	log, _ := test.NewNullLogger()
	base := config.DefaultConfig()
	base.Steps = 75

	g := &Grid{Base: base, Axes: []Axis{{Param: "pull_rate", Values: []float64{0, 2}}}}
	outcomes, err := g.Run(context.Background(), 2, log)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Fatalf("job %v: %v", o.Params, o.Err)
		}
	}
	if outcomes[0].Result.Broken {
		t.Error("a link that is never pulled should not break")
	}
	if !outcomes[1].Result.Broken {
		t.Error("pulling at 2/s for a second should break the link")
	}

	best, ok := Best(outcomes, "peak_force")
	if !ok || best.Params["pull_rate"] != 0 {
		t.Errorf("expected the unpulled run to have the lowest peak force, got %v", best.Params)
	}
	if _, ok := Best(outcomes, "missing"); ok {
		t.Error("expected no best for a missing metric")
	}
}

func TestInvalidGridPointFailsAlone(t *testing.T) {
	log, _ := test.NewNullLogger()
	base := config.DefaultConfig()
	base.Steps = 5

	g := &Grid{Base: base, Axes: []Axis{{Param: "min_length", Values: []float64{1, 10}}}}
	outcomes, err := g.Run(context.Background(), 1, log)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Errorf("valid point failed: %v", outcomes[0].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("min above max should fail")
	}
}

func TestRunJobsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &Grid{Base: config.DefaultConfig(), Axes: []Axis{{Param: "pull_rate", Values: []float64{1, 2, 3}}}}
	if _, err := RunJobs(ctx, g.Jobs(), 2, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	if err := config.Save(filepath.Join(dir, "soft.yaml"), config.GetPreset("soft")); err != nil {
		t.Fatal(err)
	}
	data := `
name: nightly
workers: 2
runs:
  - preset: locked
  - params: {pull_rate: 0}
    save_as: still
  - config: soft.yaml
    params: {break_force: 50}
`
	path := filepath.Join(dir, "batch.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBatch(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	jobs, err := b.Jobs()
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].Config.Name != "locked" {
		t.Errorf("expected locked preset, got %s", jobs[0].Config.Name)
	}
	if jobs[1].Label != "still" || jobs[1].Config.Name != "still" || jobs[1].Config.Pull.Rate != 0 {
		t.Errorf("unexpected second job %+v", jobs[1])
	}
	if jobs[2].Config.Link.LinkSpring != 200 || jobs[2].Config.Link.LinkBreakForce != 50 {
		t.Errorf("expected soft scenario with break force 50, got %+v", jobs[2].Config.Link)
	}
}

func TestBatchRejectsBadRuns(t *testing.T) {
	tests := []struct {
		name string
		run  BatchRun
	}{
		{"unknown preset", BatchRun{Preset: "nope"}},
		{"both sources", BatchRun{Preset: "default", Config: "x.yaml"}},
		{"unknown param", BatchRun{Params: map[string]float64{"gravity": 9.8}}},
		{"missing file", BatchRun{Config: "/nonexistent/x.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Batch{Runs: []BatchRun{tt.run}}
			if _, err := b.Jobs(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
