// Package batch analyzes many evaluation sets concurrently, one job per
// student file. Each job is an independent engine call.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/brevet/internal/adapters/queue"
	"github.com/okian/brevet/internal/domain/model"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/pkg/logger"
)

// ErrNoJobs is returned by Run when there is nothing to do.
var ErrNoJobs = errors.New("no batch jobs")

// Analyzer runs one analysis. Implemented by the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.Report, error)
}

// Loader loads the evaluations of one job.
type Loader func(ctx context.Context, name string) ([]model.Evaluation, error)

// Job names one evaluation set.
type Job struct {
	Name string
}

// Result is the outcome of one job. Report may be partially filled when
// Err is an insufficient-data error.
type Result struct {
	Job      Job
	Report   types.Report
	Err      error
	Duration time.Duration
}

// Pool fans jobs out to a fixed set of workers.
type Pool struct {
	analyzer Analyzer
	load     Loader
	workers  int
	logger   logger.Logger
}

// NewPool creates a pool. Workers default to the CPU count.
func NewPool(analyzer Analyzer, load Loader, opts ...Option) *Pool {
	p := &Pool{
		analyzer: analyzer,
		load:     load,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("batch")
	}
	return p
}

// Run processes every job and returns the results in job order. template
// supplies the per-request options (policy, notation, language). Cancelling
// ctx stops dispatching; jobs not started report ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job, template types.AnalysisRequest) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	workers := min(p.workers, len(jobs))
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		results[i] = Result{Job: job, Err: context.Canceled}
	}

	// Every job fits, so Enqueue only fails once ctx is done.
	var q queue.Queue[int] = queue.New[int](queue.WithCapacity(len(jobs)))
	start := time.Now()
	for i := range jobs {
		if !q.Enqueue(ctx, i) {
			break
		}
	}
	_ = q.Close()

	indices := q.Dequeue(ctx)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := p.logger.Named(fmt.Sprintf("worker-%d", workerID))
			for idx := range indices {
				results[idx] = p.process(ctx, log, jobs[idx], template)
			}
		}(w)
	}
	wg.Wait()

	p.logger.Info(ctx, "batch completed",
		logger.Int("jobs", len(jobs)),
		logger.Int("workers", workers),
		logger.Float64("durationMs", float64(time.Since(start).Microseconds())/1000.0),
	)
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pool) process(ctx context.Context, log logger.Logger, job Job, template types.AnalysisRequest) Result {
	start := time.Now()
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	evals, err := p.load(ctx, job.Name)
	if err != nil {
		res.Err = fmt.Errorf("load %s: %w", job.Name, err)
		res.Duration = time.Since(start)
		log.Warn(ctx, "batch job failed to load", logger.String("job", job.Name), logger.Error(err))
		return res
	}

	req := template
	req.Evaluations = evals
	res.Report, res.Err = p.analyzer.Analyze(ctx, req)
	res.Duration = time.Since(start)
	log.Debug(ctx, "batch job done",
		logger.String("job", job.Name),
		logger.Int("evaluations", len(evals)),
		logger.Float64("durationMs", float64(res.Duration.Microseconds())/1000.0),
	)
	return res
}
