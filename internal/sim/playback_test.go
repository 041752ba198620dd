package sim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"offtank-sim/internal/trace"
)

type collectWriter struct{ rows []trace.EventRow }

func (c *collectWriter) WriteTrace(r trace.EventRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func encodeRows(t *testing.T, rows []trace.EventRow) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReplayLog(t *testing.T) {
	rows := []trace.EventRow{
		{RunID: "r", Trial: 0, Time: 0, Kind: trace.KindStrike, Tank: 0, Amount: 6600, Health: 3400},
		{RunID: "r", Trial: 0, Time: 1.3, Kind: trace.KindHeal, Healer: 1, Tank: 0, Amount: 1829.5, Health: 5229.5},
	}
	cw := &collectWriter{}
	if err := ReplayLog(encodeRows(t, rows), cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i] != r {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogPacing(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = time.Sleep }()

	rows := []trace.EventRow{
		{RunID: "r", Trial: 0, Time: 0},
		{RunID: "r", Trial: 0, Time: 2},
		{RunID: "r", Trial: 1, Time: 0},
		{RunID: "r", Trial: 1, Time: 1},
	}
	if err := ReplayLog(encodeRows(t, rows), &collectWriter{}, 2); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	want := []time.Duration{time.Second, 500 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("slept %v, want %v", slept, want)
		}
	}
}

func TestReplayLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	buf := encodeRows(t, []trace.EventRow{{RunID: "r", Kind: trace.KindSurvive, Tank: -1, Time: 240}})
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cw := &collectWriter{}
	if err := ReplayLogFile(path, cw, 0); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.rows) != 1 || cw.rows[0].Kind != trace.KindSurvive {
		t.Fatalf("unexpected rows %+v", cw.rows)
	}
	if err := ReplayLogFile(filepath.Join(t.TempDir(), "missing"), cw, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReplayLogBadInput(t *testing.T) {
	if err := ReplayLog(bytes.NewBufferString("{not json"), &collectWriter{}, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}
