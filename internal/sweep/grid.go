package sweep

import (
	"context"
	"math"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/sirupsen/logrus"
)

// Grid runs the base scenario once for every combination of axis values.
type Grid struct {
	Base *config.Config
	Axes []Axis
}

// Points expands the grid into one parameter set per run, with the last
// axis varying fastest.
func (g *Grid) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for _, ax := range g.Axes {
		next := make([]map[string]float64, 0, len(points)*len(ax.Values))
		for _, p := range points {
			for _, v := range ax.Values {
				q := make(map[string]float64, len(p)+1)
				for k, x := range p {
					q[k] = x
				}
				q[ax.Param] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Jobs builds one job per grid point. Invalid combinations still produce a
// job; their error surfaces in the outcome.
func (g *Grid) Jobs() []Job {
	points := g.Points()
	jobs := make([]Job, len(points))
	for i, p := range points {
		cfg := g.Base.Clone()
		var err error
		for _, ax := range g.Axes {
			if e := Apply(cfg, ax.Param, p[ax.Param]); e != nil {
				err = e
			}
		}
		jobs[i] = Job{Label: cfg.Name, Config: cfg, Params: p, err: err}
	}
	return jobs
}

func (g *Grid) Run(ctx context.Context, workers int, log *logrus.Logger) ([]Outcome, error) {
	return RunJobs(ctx, g.Jobs(), workers, log)
}

// Best picks the successful outcome with the lowest metric. Missing or NaN
// values never win.
func Best(outcomes []Outcome, metric string) (Outcome, bool) {
	best, found := Outcome{}, false
	bestVal := math.Inf(1)
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		v, ok := o.Result.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if !found || v < bestVal {
			best, bestVal, found = o, v, true
		}
	}
	return best, found
}
