package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"offtank-sim/internal/trace"
)

var sleep = time.Sleep

// ReplayLog replays trace rows from r to writer. A speed >0 paces rows by
// their simulated time divided by speed; pacing restarts at every trial.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TraceWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev *trace.EventRow
	for {
		var row trace.EventRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if prev != nil && speed > 0 && prev.RunID == row.RunID && prev.Trial == row.Trial {
			diff := time.Duration((row.Time - prev.Time) / speed * float64(time.Second))
			if diff > 0 {
				sleep(diff)
			}
		}
		if err := writer.WriteTrace(row); err != nil {
			return err
		}
		prev = &row
	}
}

// ReplayLogFile opens a file and replays its trace rows.
func ReplayLogFile(path string, writer TraceWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
