package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"offtank-sim/internal/config"
	"offtank-sim/internal/sim"
)

const (
	defaultGreptimePort     = 4001
	defaultGreptimeDatabase = "public"
)

type writerOptions struct {
	cfg         *config.Config
	printOnly   bool
	trace       bool
	logFile     string
	historyPath string
	tui         *sim.TUIWriter
}

// writers bundles every sink of one command run.
type writers struct {
	multi    *sim.MultiWriter
	history  *sim.HistoryStore
	stdout   sim.StdoutWriter
	greptime *sim.GreptimeDBWriter
	results  bool
	closers  []io.Closer
}

// newWriters sets up trace, result and summary writers based on flags and env vars.
func newWriters(opts writerOptions) (*writers, error) {
	w := &writers{}
	var (
		tws []sim.TraceWriter
		rws []sim.ResultWriter
		sws []sim.SummaryWriter
	)
	if opts.trace {
		w.stdout = sim.NewStdoutWriter(opts.cfg)
		tws = append(tws, w.stdout)
		rws = append(rws, w.stdout)
	}
	if opts.tui != nil {
		rws = append(rws, opts.tui)
	}

	if !opts.printOnly && os.Getenv("GREPTIMEDB_ENDPOINT") != "" {
		host, port, err := parseEndpoint(os.Getenv("GREPTIMEDB_ENDPOINT"))
		if err != nil {
			return nil, err
		}
		db := os.Getenv("GREPTIMEDB_DATABASE")
		if db == "" {
			db = defaultGreptimeDatabase
		}
		gw, err := sim.NewGreptimeDBWriter(host, port, db)
		if err != nil {
			return nil, err
		}
		w.greptime = gw
		rws = append(rws, gw)
		sws = append(sws, gw)
	}

	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".results")
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, fw)
		tws = append(tws, fw)
		rws = append(rws, fw)
		sws = append(sws, fw)
	}

	if opts.historyPath != "" {
		h, err := sim.OpenHistory(opts.historyPath)
		if err != nil {
			w.Close()
			return nil, err
		}
		w.history = h
		w.closers = append(w.closers, h)
		sws = append(sws, h)
	}

	w.multi = sim.NewMultiWriter(tws, rws, sws)
	w.results = len(rws) > 0
	return w, nil
}

// runnerOptions attaches the writers to a batch runner.
func (w *writers) runnerOptions() []sim.Option {
	var opts []sim.Option
	if w.multi.HasTraces() {
		opts = append(opts, sim.WithTraceWriter(w.multi))
	}
	if w.results {
		opts = append(opts, sim.WithResultWriter(w.multi))
	}
	return opts
}

// Close releases files and databases.
func (w *writers) Close() error {
	var first error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}

// parseEndpoint splits host[:port]; the port defaults to the GreptimeDB gRPC port.
func parseEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("invalid GREPTIMEDB_ENDPOINT port %q", portStr)
	}
	return host, port, nil
}
