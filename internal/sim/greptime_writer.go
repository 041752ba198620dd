package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"offtank-sim/internal/logging"
	"offtank-sim/internal/trace"
)

const (
	defaultRunTable   = "offtank_runs"
	defaultBatchTable = "offtank_batches"
	greptimeTimeout   = 10 * time.Second
)

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter stores trial outcomes and batch summaries in GreptimeDB.
type GreptimeDBWriter struct {
	client     greptimeClient
	runTable   string
	batchTable string
	log        *slog.Logger
}

// NewGreptimeDBWriter connects to host:port and writes into database.
// Tables are created by GreptimeDB on first insert.
func NewGreptimeDBWriter(host string, port int, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		runTable:   defaultRunTable,
		batchTable: defaultBatchTable,
		log:        logging.New().With("component", "greptime"),
	}, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return logging.New()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, rows int) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger().Error("write failed", "table", name, "err", err)
		return err
	}
	w.logger().Debug("wrote rows", "table", name, "rows", rows)
	return nil
}

// WriteResult inserts a single trial outcome.
func (w *GreptimeDBWriter) WriteResult(row trace.RunRow) error {
	return w.WriteResults([]trace.RunRow{row})
}

// WriteResults inserts trial outcomes into the runs table.
func (w *GreptimeDBWriter) WriteResults(rows []trace.RunRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.runTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("trial", types.INT64)
	tbl.AddFieldColumn("survived", types.BOOLEAN)
	tbl.AddFieldColumn("end_time", types.FLOAT64)
	tbl.AddFieldColumn("dead_tank", types.INT64)
	tbl.AddFieldColumn("strikes", types.INT64)
	tbl.AddFieldColumn("misses", types.INT64)
	tbl.AddFieldColumn("heals", types.INT64)
	tbl.AddFieldColumn("overheal", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID,
			int64(r.Trial),
			r.Survived,
			r.EndTime,
			int64(r.DeadTank),
			int64(r.Strikes),
			int64(r.Misses),
			int64(r.Heals),
			r.Overheal,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(w.runTable, tbl, len(rows))
}

// WriteSummary inserts the batch aggregate into the batches table.
func (w *GreptimeDBWriter) WriteSummary(s trace.SummaryRow) error {
	tbl, err := table.New(w.batchTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("scenario", types.STRING)
	tbl.AddFieldColumn("trials", types.INT64)
	tbl.AddFieldColumn("survived", types.INT64)
	tbl.AddFieldColumn("percent", types.FLOAT64)
	tbl.AddFieldColumn("mean_death_time", types.FLOAT64)
	tbl.AddFieldColumn("seed", types.INT64)
	tbl.AddFieldColumn("workers", types.INT64)
	tbl.AddFieldColumn("elapsed_ms", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(
		s.RunID,
		s.Scenario,
		int64(s.Trials),
		int64(s.Survived),
		s.Percent,
		s.MeanDeathTime,
		s.Seed,
		int64(s.Workers),
		s.Elapsed.Milliseconds(),
		s.Timestamp,
	); err != nil {
		return err
	}
	return w.write(w.batchTable, tbl, 1)
}
