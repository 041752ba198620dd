package sim

import "offtank-sim/internal/trace"

// TraceWriter receives verbose per-event trace rows.
type TraceWriter interface {
	WriteTrace(trace.EventRow) error
}

// Optional: trace writers may support batch mode
type batchTraceWriter interface {
	WriteTraces([]trace.EventRow) error
}

// ResultWriter receives one row per finished trial.
type ResultWriter interface {
	WriteResult(trace.RunRow) error
}

// Optional: result writers may support batch mode
type batchResultWriter interface {
	WriteResults([]trace.RunRow) error
}

// SummaryWriter receives the aggregate of a finished batch.
type SummaryWriter interface {
	WriteSummary(trace.SummaryRow) error
}

// ProgressObserver is notified after every finished trial.
type ProgressObserver interface {
	Progress(done, survived, total int)
}

func writeTraces(w TraceWriter, rows []trace.EventRow) error {
	if bw, ok := w.(batchTraceWriter); ok {
		return bw.WriteTraces(rows)
	}
	for _, r := range rows {
		if err := w.WriteTrace(r); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(w ResultWriter, rows []trace.RunRow) error {
	if bw, ok := w.(batchResultWriter); ok {
		return bw.WriteResults(rows)
	}
	for _, r := range rows {
		if err := w.WriteResult(r); err != nil {
			return err
		}
	}
	return nil
}
