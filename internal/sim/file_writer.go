package sim

import (
	"encoding/json"
	"os"

	"offtank-sim/internal/trace"
)

// FileWriter writes trace and result rows to JSONL files.
type FileWriter struct {
	traceFile  *os.File
	resultFile *os.File
	traceEnc   *json.Encoder
	resultEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. Either path may be empty to skip that log.
func NewFileWriter(tracePath, resultPath string) (*FileWriter, error) {
	fw := &FileWriter{}
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return nil, err
		}
		fw.traceFile = f
		fw.traceEnc = json.NewEncoder(f)
	}
	if resultPath != "" {
		f, err := os.Create(resultPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.resultFile = f
		fw.resultEnc = json.NewEncoder(f)
	}
	return fw, nil
}

// WriteTrace logs a single trace row, if enabled.
func (f *FileWriter) WriteTrace(row trace.EventRow) error {
	if f.traceEnc == nil {
		return nil
	}
	return f.traceEnc.Encode(row)
}

// WriteTraces logs a trial's trace rows.
func (f *FileWriter) WriteTraces(rows []trace.EventRow) error {
	for _, r := range rows {
		if err := f.WriteTrace(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult logs a single trial outcome, if enabled.
func (f *FileWriter) WriteResult(row trace.RunRow) error {
	if f.resultEnc == nil {
		return nil
	}
	return f.resultEnc.Encode(row)
}

// WriteResults logs multiple trial outcomes.
func (f *FileWriter) WriteResults(rows []trace.RunRow) error {
	for _, r := range rows {
		if err := f.WriteResult(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary appends the batch aggregate to the results log.
func (f *FileWriter) WriteSummary(s trace.SummaryRow) error {
	if f.resultEnc == nil {
		return nil
	}
	return f.resultEnc.Encode(s)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.traceFile != nil {
		if e := f.traceFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.resultFile != nil {
		if e := f.resultFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
