package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/metrics"
	"github.com/san-kum/dynjoint/internal/scenario"
	"github.com/sirupsen/logrus"
)

// Job is one scenario to run.
type Job struct {
	Label  string
	Config *config.Config
	Params map[string]float64
	SaveAs string

	err error
}

type Outcome struct {
	Job
	Result *scenario.Result
	Err    error
}

// RunJobs runs jobs on at most workers goroutines and returns outcomes in
// job order. A failing job does not stop the others; only cancellation of
// ctx is returned as an error.
func RunJobs(ctx context.Context, jobs []Job, workers int, log *logrus.Logger) ([]Outcome, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	outcomes := make([]Outcome, len(jobs))
	next := make(chan int)

	var wg sync.WaitGroup
	for range min(workers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				outcomes[idx] = runOne(ctx, jobs[idx], log)
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()

	return outcomes, ctx.Err()
}

func runOne(ctx context.Context, job Job, log *logrus.Logger) Outcome {
	out := Outcome{Job: job}
	if job.err != nil {
		out.Err = job.err
		return out
	}

	entry := log.WithField("job", job.Label)
	for k, v := range job.Params {
		entry = entry.WithField(k, v)
	}

	r, err := scenario.NewRunner(job.Config, log)
	if err != nil {
		entry.WithError(err).Warn("job rejected")
		out.Err = err
		return out
	}
	for _, m := range metrics.Standard(job.Config) {
		r.AddMetric(m)
	}

	out.Result, out.Err = r.Run(ctx)
	entry.WithField("broken", out.Result.Broken).Debug("job finished")
	return out
}
