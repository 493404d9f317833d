package sweep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// ProgressFunc is called after every finished job
type ProgressFunc func(tracker *ProgressTracker)

// Runner evaluates many grid configurations against one series
type Runner struct {
	workers  int
	log      *zap.Logger
	progress ProgressFunc
}

// Report is the outcome of a sweep. Results are in input order.
type Report struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
	Failed    int           `json:"failed"`
}

// NewRunner creates a runner; workers <= 0 uses one worker per CPU
func NewRunner(workers int, log *zap.Logger) *Runner {
	return &Runner{workers: workers, log: logger.OrNop(log)}
}

// WithProgress registers a progress callback
func (r *Runner) WithProgress(fn ProgressFunc) *Runner {
	r.progress = fn
	return r
}

// Run simulates every configuration. The series is validated once up front.
// On cancellation no further jobs are fed and the partial report is returned
// with the context error.
func (r *Runner) Run(ctx context.Context, series []types.PriceSample, configs []grid.Config) (*Report, error) {
	if err := grid.ValidateSeries(series); err != nil {
		return nil, err
	}

	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]Result, len(configs)),
	}
	if len(configs) == 0 {
		return report, nil
	}

	r.log.Info("sweep started",
		zap.String("id", report.ID),
		zap.Int("configs", len(configs)),
		zap.Int("samples", len(series)),
		zap.Int("workers", r.workers))

	pool := NewWorkerPool(ctx, r.workers, len(configs), series)
	pool.Start()

	submitted := 0
	for i, cfg := range configs {
		if err := pool.SubmitJob(Job{Index: i, Config: cfg}); err != nil {
			break
		}
		submitted++
	}

	tracker := NewProgressTracker(submitted)
	done := make([]bool, len(configs))
	received := 0
collect:
	for received < submitted {
		select {
		case res := <-pool.GetResults():
			report.Results[res.Index] = res
			done[res.Index] = true
			received++
			if res.Error != nil {
				report.Failed++
			}
			tracker.Increment()
			if r.progress != nil {
				r.progress(tracker)
			}
		case <-ctx.Done():
			break collect
		}
	}
	pool.Stop()

	report.Duration = time.Since(report.StartedAt)
	monitoring.RecordSweep(received)

	if received < len(configs) {
		for i := range report.Results {
			if !done[i] {
				report.Results[i] = Result{Index: i, Config: configs[i], Error: context.Canceled}
			}
		}
		r.log.Warn("sweep cancelled",
			zap.String("id", report.ID),
			zap.Int("completed", received),
			zap.Int("configs", len(configs)))
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return report, fmt.Errorf("sweep %s cancelled after %d of %d configs: %w", report.ID, received, len(configs), err)
	}

	r.log.Info("sweep finished",
		zap.String("id", report.ID),
		zap.Int("configs", len(configs)),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Duration))
	return report, nil
}

// Ranked returns the successful results ordered by total profit, highest
// first. Ties keep input order.
func (rep *Report) Ranked() []Result {
	ranked := make([]Result, 0, len(rep.Results))
	for _, res := range rep.Results {
		if res.Error == nil && res.Result != nil {
			ranked = append(ranked, res)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Profit() > ranked[j].Profit()
	})
	return ranked
}

// Best returns the most profitable result, or nil when every run failed
func (rep *Report) Best() *Result {
	ranked := rep.Ranked()
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}

// Top returns at most n ranked results
func (rep *Report) Top(n int) []Result {
	ranked := rep.Ranked()
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
