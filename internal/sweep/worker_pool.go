package sweep

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// WorkerPool runs simulations of one shared series in parallel
type WorkerPool struct {
	workerCount int
	series      []types.PriceSample
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// Job is a single configuration to simulate
type Job struct {
	Index  int
	Config grid.Config
}

// Result is the outcome of a job. Index is the job's position in the input.
type Result struct {
	Index    int           `json:"index"`
	Config   grid.Config   `json:"config"`
	Result   *grid.Result  `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    error         `json:"-"`
}

// Profit is the total profit of a successful run, zero otherwise
func (r Result) Profit() float64 {
	if r.Result == nil {
		return 0
	}
	return r.Result.Metrics.TotalProfit
}

// NewWorkerPool creates a pool over a series. The series is shared read-only
// by all workers.
func NewWorkerPool(ctx context.Context, workerCount, jobBufferSize int, series []types.PriceSample) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		series:      series,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan Result, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the worker pool
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the job queue, waits for workers and closes the results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob submits a job, failing once the pool context is done
func (wp *WorkerPool) SubmitJob(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel for collecting completed jobs
func (wp *WorkerPool) GetResults() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job) Result {
	startTime := time.Now()

	res, err := grid.Simulate(wp.series, job.Config)
	duration := time.Since(startTime)

	buys, sells := 0, 0
	if res != nil {
		buys, sells = res.Metrics.BuyCount, res.Metrics.SellCount
	}
	monitoring.RecordSimulation(duration, buys, sells, err)

	return Result{
		Index:    job.Index,
		Config:   job.Config,
		Result:   res,
		Duration: duration,
		Error:    err,
	}
}

// ProgressTracker tracks the progress of a sweep
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment increments the completion count
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

// GetProgress returns completed, total, percent done and elapsed time
func (pt *ProgressTracker) GetProgress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	elapsed := time.Since(pt.startTime)
	progress := 100.0
	if pt.total > 0 {
		progress = float64(pt.completed) / float64(pt.total) * 100
	}

	return pt.completed, pt.total, progress, elapsed
}

// EstimateTimeRemaining estimates the remaining time based on current progress
func (pt *ProgressTracker) EstimateTimeRemaining() time.Duration {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	if pt.completed == 0 {
		return 0
	}

	elapsed := time.Since(pt.startTime)
	avgTimePerItem := elapsed / time.Duration(pt.completed)
	remaining := pt.total - pt.completed

	return avgTimePerItem * time.Duration(remaining)
}
