package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"offtank-sim/internal/config"
	"offtank-sim/internal/trace"
)

type memoryWriter struct {
	mu      sync.Mutex
	traces  []trace.EventRow
	results []trace.RunRow
	batches int
}

func (m *memoryWriter) WriteTrace(r trace.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, r)
	return nil
}

func (m *memoryWriter) WriteResult(r trace.RunRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memoryWriter) WriteResults(rows []trace.RunRow) error {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	for _, r := range rows {
		_ = m.WriteResult(r)
	}
	return nil
}

type progressRecorder struct {
	mu       sync.Mutex
	calls    int
	lastDone int
	total    int
}

func (p *progressRecorder) Progress(done, survived, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if done > p.lastDone {
		p.lastDone = done
	}
	p.total = total
}

type failingWriter struct{}

func (failingWriter) WriteResult(trace.RunRow) error  { return errors.New("disk full") }
func (failingWriter) WriteTrace(trace.EventRow) error { return errors.New("disk full") }

// stallingWriter blocks its first trace write until released.
type stallingWriter struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingWriter) WriteTrace(trace.EventRow) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return nil
}

func TestRunner_AggregatesTrials(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 99
	cfg.Workers = 4
	mw := &memoryWriter{}
	pr := &progressRecorder{}
	r := NewRunner(cfg, WithResultWriter(mw), WithProgress(pr), WithScenario("baseline"))

	sum, err := r.Run(context.Background(), 300)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Trials != 300 || sum.Survived < 0 || sum.Survived > 300 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if want := float64(sum.Survived) / 300 * 100; sum.Percent != want {
		t.Errorf("percent = %v, want %v", sum.Percent, want)
	}
	if len(mw.results) != 300 || mw.batches < 2 {
		t.Fatalf("expected 300 results in batches, got %d rows in %d batches", len(mw.results), mw.batches)
	}
	survived, deaths := 0, 0
	for _, row := range mw.results {
		if row.RunID != r.RunID() {
			t.Fatalf("row has run id %q, want %q", row.RunID, r.RunID())
		}
		if row.Survived {
			survived++
		}
	}
	for _, d := range sum.DeathsByTank {
		deaths += d
	}
	if survived != sum.Survived || deaths != sum.Trials-sum.Survived {
		t.Fatalf("rows disagree with summary: %d survived, %d deaths, %+v", survived, deaths, sum)
	}
	if pr.calls != 300 || pr.lastDone != 300 || pr.total != 300 {
		t.Fatalf("unexpected progress: %+v", pr)
	}
	if sum.Scenario != "baseline" || sum.Workers != 4 || sum.Seed != 99 {
		t.Errorf("summary metadata mismatch: %+v", sum)
	}
	if st := r.Status(); st.Running || st.Done != 300 {
		t.Errorf("unexpected status after run: %+v", st)
	}
}

func TestRunner_ReproducibleAcrossWorkerCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 1234

	cfg.Workers = 1
	one, err := NewRunner(cfg).Run(context.Background(), 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	cfg.Workers = 8
	many, err := NewRunner(cfg).Run(context.Background(), 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if one.Survived != many.Survived {
		t.Fatalf("survived %d with 1 worker, %d with 8", one.Survived, many.Survived)
	}
}

func TestRunner_TracesCarryTrial(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 5
	mw := &memoryWriter{}
	r := NewRunner(cfg, WithTraceWriter(mw), WithRunID("batch-1"))
	if _, err := r.Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(mw.traces) == 0 {
		t.Fatalf("no traces written")
	}
	seen := map[int]bool{}
	last := map[int]float64{}
	for _, row := range mw.traces {
		if row.RunID != "batch-1" {
			t.Fatalf("unexpected run id %q", row.RunID)
		}
		if row.Time < last[row.Trial] {
			t.Fatalf("trial %d trace out of order", row.Trial)
		}
		last[row.Trial] = row.Time
		seen[row.Trial] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected traces for 3 trials, got %d", len(seen))
	}
}

func TestRunner_WriterFailuresDoNotAbort(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 8
	r := NewRunner(cfg, WithResultWriter(failingWriter{}), WithTraceWriter(failingWriter{}))
	sum, err := r.Run(context.Background(), 20)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Trials != 20 {
		t.Fatalf("trials = %d, want 20", sum.Trials)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(config.Default()).Run(ctx, 1000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_RejectsBadInput(t *testing.T) {
	if _, err := NewRunner(config.Default()).Run(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero trials")
	}
	cfg := config.Default()
	cfg.Healers = 0
	if _, err := NewRunner(cfg).Run(context.Background(), 10); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestRunner_SlowTraceWriterDoesNotStallProgress(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 3
	cfg.Workers = 2
	sw := &stallingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(cfg, WithTraceWriter(sw))

	errc := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), 20)
		errc <- err
	}()

	select {
	case <-sw.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("trace writer never called")
	}
	deadline := time.After(5 * time.Second)
	for r.Status().Done < 2 {
		select {
		case <-deadline:
			close(sw.release)
			t.Fatalf("second worker made no progress while traces were blocked: %+v", r.Status())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(sw.release)
	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := r.Status(); st.Done != 20 {
		t.Fatalf("done = %d, want 20", st.Done)
	}
}
