// Package worker smooths per-person series on a bounded pool of goroutines.
//
// Each person is smoothed independently and owns its output, so workers share
// only the read-only Smoother. A failure for one person never touches another
// person's series.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/okian/chatgraph/internal/domain/model"
	"github.com/okian/chatgraph/internal/domain/smoothing"
	"github.com/okian/chatgraph/pkg/logger"
	"github.com/okian/chatgraph/pkg/metrics"
)

// Smoother turns one sparse series into a dense one. *smoothing.Smoother
// implements it.
type Smoother interface {
	Smooth(series model.Series) smoothing.Dense
}

// Job is one person's raw series.
type Job struct {
	Key    string
	Series model.Series
}

// Result is the outcome of one Job.
type Result struct {
	Key   string
	Dense smoothing.Dense
	Err   error
}

// InMemoryWorker processes jobs from a channel.
type InMemoryWorker struct {
	jobs     <-chan Job
	results  chan<- Result
	smoother Smoother
	name     string
	logger   logger.Logger
}

// NewInMemoryWorker creates a worker reading jobs and writing results.
func NewInMemoryWorker(jobs <-chan Job, results chan<- Result, smoother Smoother, name string, log logger.Logger) *InMemoryWorker {
	return &InMemoryWorker{
		jobs:     jobs,
		results:  results,
		smoother: smoother,
		name:     name,
		logger:   log.Named(name),
	}
}

// Run processes jobs until the channel closes or ctx is cancelled. Every
// received job yields exactly one result.
func (w *InMemoryWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			res := w.process(ctx, job)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) (res Result) {
	start := time.Now()
	res.Key = job.Key
	defer func() {
		metrics.RecordSmoothingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			res = Result{Key: job.Key, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
		if res.Err != nil {
			metrics.RecordError("worker", "smoothing_error")
			w.logger.Error(ctx, "smoothing failed",
				logger.String("person", job.Key),
				logger.Error(res.Err),
			)
		}
	}()

	dense := w.smoother.Smooth(job.Series)
	if err := checkFinite(dense); err != nil {
		return Result{Key: job.Key, Err: err}
	}
	res.Dense = dense
	return res
}

func checkFinite(d smoothing.Dense) error {
	if math.IsNaN(d.Total) || math.IsInf(d.Total, 0) {
		return fmt.Errorf("%w: total %g", ErrNonFinite, d.Total)
	}
	for i, v := range d.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %g at index %d", ErrNonFinite, v, i)
		}
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	size     int
	smoother Smoother
	name     string
	logger   logger.Logger
}

// NewPool creates a pool of workerCount workers sharing smoother. A count
// below one means runtime.NumCPU().
func NewPool(workerCount int, smoother Smoother, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		size:     workerCount,
		smoother: smoother,
		name:     "smooth-pool",
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Smooth smooths every series. Successful results are returned even when
// some persons fail; the failures are joined into the returned error, in key
// order.
func (p *Pool) Smooth(ctx context.Context, series map[string]model.Series) (map[string]smoothing.Dense, error) {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	workers := p.size
	if workers > len(keys) {
		workers = len(keys)
	}

	jobs := make(chan Job)
	results := make(chan Result, workers)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < workers; i++ {
		w := NewInMemoryWorker(jobs, results, p.smoother, p.name+"-"+strconv.Itoa(i), p.logger)
		go w.Run(runCtx)
	}

	go func() {
		defer close(jobs)
		for _, k := range keys {
			select {
			case jobs <- Job{Key: k, Series: series[k]}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	out := make(map[string]smoothing.Dense, len(keys))
	failed := map[string]error{}
	for range keys {
		select {
		case res := <-results:
			if res.Err != nil {
				failed[res.Key] = res.Err
				continue
			}
			out[res.Key] = res.Dense
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(failed) == 0 {
		return out, nil
	}
	errs := make([]error, 0, len(failed))
	for _, k := range keys {
		if err, ok := failed[k]; ok {
			errs = append(errs, fmt.Errorf("person %q: %w", k, err))
		}
	}
	p.logger.Warn(ctx, "some persons failed to smooth", logger.Int("failed", len(failed)))
	return out, errors.Join(errs...)
}
