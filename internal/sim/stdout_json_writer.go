package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"offtank-sim/internal/trace"
)

// JSONStdoutWriter prints traces, results and summaries as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteTrace outputs one trace row in JSON format.
func (w *JSONStdoutWriter) WriteTrace(row trace.EventRow) error { return w.emit(row) }

// WriteTraces outputs a trial's trace rows in JSON format.
func (w *JSONStdoutWriter) WriteTraces(rows []trace.EventRow) error {
	for _, r := range rows {
		if err := w.emit(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult outputs one trial outcome in JSON format.
func (w *JSONStdoutWriter) WriteResult(row trace.RunRow) error { return w.emit(row) }

// WriteSummary outputs the batch aggregate in JSON format.
func (w *JSONStdoutWriter) WriteSummary(s trace.SummaryRow) error { return w.emit(s) }
