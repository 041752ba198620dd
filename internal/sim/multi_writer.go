package sim

import (
	"errors"

	"offtank-sim/internal/trace"
)

// MultiWriter fans out rows to several writers. A failing writer does not
// stop delivery to the others; the errors are joined.
type MultiWriter struct {
	traces    []TraceWriter
	results   []ResultWriter
	summaries []SummaryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TraceWriter, rws []ResultWriter, sws []SummaryWriter) *MultiWriter {
	return &MultiWriter{traces: tws, results: rws, summaries: sws}
}

// HasTraces reports whether any trace writer is attached.
func (mw *MultiWriter) HasTraces() bool { return len(mw.traces) > 0 }

// WriteTrace sends a trace row to all trace writers.
func (mw *MultiWriter) WriteTrace(row trace.EventRow) error {
	return mw.WriteTraces([]trace.EventRow{row})
}

// WriteTraces sends a trial's trace to all trace writers, using batch if supported.
func (mw *MultiWriter) WriteTraces(rows []trace.EventRow) error {
	var errs []error
	for _, w := range mw.traces {
		if err := writeTraces(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteResult sends a trial outcome to all result writers.
func (mw *MultiWriter) WriteResult(row trace.RunRow) error {
	return mw.WriteResults([]trace.RunRow{row})
}

// WriteResults sends trial outcomes to all result writers, using batch if supported.
func (mw *MultiWriter) WriteResults(rows []trace.RunRow) error {
	var errs []error
	for _, w := range mw.results {
		if err := writeResults(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteSummary sends the batch aggregate to all summary writers.
func (mw *MultiWriter) WriteSummary(s trace.SummaryRow) error {
	var errs []error
	for _, w := range mw.summaries {
		if err := w.WriteSummary(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
