package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"offtank-sim/internal/config"
	"offtank-sim/internal/trace"
)

func TestJSONStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	if err := w.WriteTraces([]trace.EventRow{{Kind: trace.KindStrike, Amount: 7000}, {Kind: trace.KindMiss}}); err != nil {
		t.Fatalf("traces: %v", err)
	}
	if err := w.WriteSummary(trace.SummaryRow{Trials: 2, Survived: 1}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	var row trace.EventRow
	if err := json.Unmarshal([]byte(lines[0]), &row); err != nil || row.Amount != 7000 {
		t.Fatalf("bad trace line %q: %v", lines[0], err)
	}
	if !strings.Contains(lines[2], `"survived":1`) {
		t.Fatalf("summary line %q", lines[2])
	}
}

func TestColorStdoutWriter(t *testing.T) {
	cfg := config.Default()
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{cfg: &cfg, out: buf}
	rows := []trace.EventRow{
		{Trial: 0, Time: 0, Kind: trace.KindStrike, Tank: 0, Amount: 7650, Health: 2350},
		{Trial: 0, Time: 1.3, Kind: trace.KindHeal, Healer: 1, Tank: 0, Amount: 1829.5, Crit: true, Health: 4179.5},
		{Trial: 0, Time: 1.6, Kind: trace.KindMiss, Tank: 0},
		{Trial: 0, Time: 3.2, Kind: trace.KindDeath, Tank: 0, Amount: 7000, Health: -2820.5},
	}
	if err := w.WriteTraces(rows); err != nil {
		t.Fatalf("traces: %v", err)
	}
	if err := w.WriteResult(trace.RunRow{Trial: 0, DeadTank: 0, EndTime: 3.2}); err != nil {
		t.Fatalf("result: %v", err)
	}
	if err := w.WriteSummary(trace.SummaryRow{Trials: 1, DeathsByTank: []int{1, 0, 0}}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Encounter Configuration:",
		"22000-29000",
		"Hateful strike hits",
		"Health - 2350.0/10000",
		"crit",
		"Patchwerk misses",
		"DIES",
		"2820.5 overkill",
		"died",
		"Number of times tank survived: 0 (0.0%)",
		colorRed,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Encounter Configuration:") != 1 {
		t.Errorf("overview printed more than once")
	}
}
