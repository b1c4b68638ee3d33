package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Batch is a list of scenarios read from a yaml file.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Workers     int        `yaml:"workers"`
	Runs        []BatchRun `yaml:"runs"`
}

// BatchRun starts from a preset or a scenario file and applies params on
// top. Config paths are relative to the batch file.
type BatchRun struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("sweep: %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range b.Runs {
		if c := b.Runs[i].Config; c != "" && !filepath.IsAbs(c) {
			b.Runs[i].Config = filepath.Join(dir, c)
		}
	}
	return &b, nil
}

// Jobs resolves every run into a job. Resolution errors stop the batch
// before anything runs.
func (b *Batch) Jobs() ([]Job, error) {
	jobs := make([]Job, 0, len(b.Runs))
	for i, run := range b.Runs {
		cfg, err := run.resolve()
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		label := run.SaveAs
		if label == "" {
			label = fmt.Sprintf("%s#%d", cfg.Name, i+1)
		}
		if run.SaveAs != "" {
			cfg.Name = run.SaveAs
		}
		jobs = append(jobs, Job{Label: label, Config: cfg, Params: run.Params, SaveAs: run.SaveAs})
	}
	return jobs, nil
}

func (run BatchRun) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case run.Preset != "" && run.Config != "":
		return nil, fmt.Errorf("preset and config are exclusive")
	case run.Config != "":
		loaded, err := config.Load(run.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case run.Preset != "":
		cfg = config.GetPreset(run.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", run.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	for k, v := range run.Params {
		if err := Apply(cfg, k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (b *Batch) Run(ctx context.Context, log *logrus.Logger) ([]Outcome, error) {
	jobs, err := b.Jobs()
	if err != nil {
		return nil, err
	}
	return RunJobs(ctx, jobs, b.Workers, log)
}
