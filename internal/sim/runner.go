// Parallel batch runner aggregating independent trials
package sim

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"offtank-sim/internal/config"
	"offtank-sim/internal/logging"
	"offtank-sim/internal/trace"
)

const resultFlushSize = 256

// Status is a point-in-time view of a batch for the admin server.
type Status struct {
	RunID    string        `json:"run_id"`
	Scenario string        `json:"scenario,omitempty"`
	Running  bool          `json:"running"`
	Done     int           `json:"done"`
	Survived int           `json:"survived"`
	Total    int           `json:"total"`
	Percent  float64       `json:"percent"`
	Config   config.Config `json:"config"`
}

// Runner executes many independent trials of one encounter across a pool
// of workers. Each trial is seeded from the batch seed and its trial
// number, so a batch is reproducible whatever the worker count.
type Runner struct {
	cfg       config.Config
	runID     string
	scenario  string
	traces    TraceWriter
	results   ResultWriter
	observers []ProgressObserver
	now       func() time.Time

	// mu guards the aggregate; writeMu serializes writer calls so a slow
	// sink never holds up the counters.
	mu            sync.Mutex
	writeMu       sync.Mutex
	pending       []trace.RunRow
	deathTimeSum  float64
	deathsByTank  []int
	statusRunning bool
	total         int

	done     atomic.Int64
	survived atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithTraceWriter enables verbose per-event traces.
func WithTraceWriter(w TraceWriter) Option { return func(r *Runner) { r.traces = w } }

// WithResultWriter records one row per trial.
func WithResultWriter(w ResultWriter) Option { return func(r *Runner) { r.results = w } }

// WithProgress registers a progress observer.
func WithProgress(o ProgressObserver) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithScenario labels the batch.
func WithScenario(name string) Option { return func(r *Runner) { r.scenario = name } }

// WithRunID overrides the generated batch id.
func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

// NewRunner creates a runner for cfg. cfg is copied and never mutated.
func NewRunner(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		runID: uuid.New().String(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID identifies the batch in every emitted row.
func (r *Runner) RunID() string { return r.runID }

// Config returns the encounter configuration of the batch.
func (r *Runner) Config() config.Config { return r.cfg }

// Status reports batch progress. Safe for concurrent use.
func (r *Runner) Status() Status {
	r.mu.Lock()
	running, total := r.statusRunning, r.total
	r.mu.Unlock()
	done, survived := int(r.done.Load()), int(r.survived.Load())
	st := Status{
		RunID:    r.runID,
		Scenario: r.scenario,
		Running:  running,
		Done:     done,
		Survived: survived,
		Total:    total,
		Config:   r.cfg,
	}
	if done > 0 {
		st.Percent = float64(survived) / float64(done) * 100
	}
	return st
}

// Run executes trials and returns their aggregate. Cancelling ctx stops
// issuing new trials; the summary of the finished ones is returned along
// with ctx's error.
func (r *Runner) Run(ctx context.Context, trials int) (trace.SummaryRow, error) {
	if trials <= 0 {
		return trace.SummaryRow{}, errors.New("number of trials must be greater than 0")
	}
	if err := r.cfg.Validate(); err != nil {
		return trace.SummaryRow{}, err
	}
	log := logging.FromContext(ctx).With("component", "runner", "run_id", r.runID)

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > trials {
		workers = trials
	}
	seed := r.cfg.Seed
	if seed == 0 {
		seed = r.now().UnixNano()
	}

	r.mu.Lock()
	r.total = trials
	r.statusRunning = true
	r.deathsByTank = make([]int, r.cfg.Tanks)
	r.mu.Unlock()
	r.done.Store(0)
	r.survived.Store(0)

	log.Info("starting batch", "trials", trials, "workers", workers, "seed", seed)
	start := r.now()

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				trial := int(next.Add(1)) - 1
				if trial >= trials {
					return nil
				}
				rng.Seed(seed + int64(trial))
				var buf *traceBuffer
				var tracer Tracer
				if r.traces != nil {
					buf = &traceBuffer{runID: r.runID, trial: trial}
					tracer = buf
				}
				res := NewScheduler(r.cfg, rng, tracer).Run()
				r.record(log, trial, res, buf, trials)
			}
		})
	}
	err := g.Wait()
	r.flush(log)

	r.mu.Lock()
	r.statusRunning = false
	summary := trace.SummaryRow{
		RunID:        r.runID,
		Scenario:     r.scenario,
		Trials:       int(r.done.Load()),
		Survived:     int(r.survived.Load()),
		DeathsByTank: append([]int(nil), r.deathsByTank...),
		Seed:         seed,
		Workers:      workers,
		Elapsed:      r.now().Sub(start),
		Timestamp:    r.now().UTC(),
	}
	if deaths := summary.Trials - summary.Survived; deaths > 0 {
		summary.MeanDeathTime = r.deathTimeSum / float64(deaths)
	}
	r.mu.Unlock()
	if summary.Trials > 0 {
		summary.Percent = float64(summary.Survived) / float64(summary.Trials) * 100
	}

	log.Info("batch finished", "trials", summary.Trials, "survived", summary.Survived, "elapsed", summary.Elapsed)
	return summary, err
}

func (r *Runner) record(log *slog.Logger, trial int, res Result, buf *traceBuffer, total int) {
	r.mu.Lock()
	if res.Survived {
		r.survived.Add(1)
	} else {
		r.deathTimeSum += res.EndTime
		if res.DeadTank >= 0 && res.DeadTank < len(r.deathsByTank) {
			r.deathsByTank[res.DeadTank]++
		}
	}
	done := int(r.done.Add(1))
	survived := int(r.survived.Load())
	var batch []trace.RunRow
	if r.results != nil {
		r.pending = append(r.pending, trace.RunRow{
			RunID:     r.runID,
			Trial:     trial,
			Survived:  res.Survived,
			EndTime:   res.EndTime,
			DeadTank:  res.DeadTank,
			Strikes:   res.Strikes,
			Misses:    res.Misses,
			Heals:     res.Heals,
			Overheal:  res.Overheal,
			Timestamp: r.now().UTC(),
		})
		if len(r.pending) >= resultFlushSize {
			batch, r.pending = r.pending, nil
		}
	}
	r.mu.Unlock()

	for _, o := range r.observers {
		o.Progress(done, survived, total)
	}
	if buf != nil && len(buf.rows) > 0 {
		r.writeMu.Lock()
		err := writeTraces(r.traces, buf.rows)
		r.writeMu.Unlock()
		if err != nil {
			log.Warn("trace write failed", "trial", trial, "err", err)
		}
	}
	r.writeBatch(log, batch)
}

func (r *Runner) flush(log *slog.Logger) {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()
	r.writeBatch(log, batch)
}

func (r *Runner) writeBatch(log *slog.Logger, rows []trace.RunRow) {
	if r.results == nil || len(rows) == 0 {
		return
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := writeResults(r.results, rows); err != nil {
		log.Warn("result write failed", "rows", len(rows), "err", err)
	}
}

// traceBuffer collects one trial's trace so rows of concurrent trials do
// not interleave.
type traceBuffer struct {
	runID string
	trial int
	rows  []trace.EventRow
}

func (b *traceBuffer) TraceEvent(row trace.EventRow) {
	row.RunID = b.runID
	row.Trial = b.trial
	b.rows = append(b.rows, row)
}
