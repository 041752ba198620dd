// Writer selection for STDOUT
package sim

import (
	"os"

	"golang.org/x/term"

	"offtank-sim/internal/config"
)

// StdoutWriter is implemented by both STDOUT renderings.
type StdoutWriter interface {
	TraceWriter
	ResultWriter
	SummaryWriter
}

// NewStdoutWriter returns a colorized writer when STDOUT is a terminal and
// a JSON lines writer otherwise.
func NewStdoutWriter(cfg *config.Config) StdoutWriter {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return NewColorStdoutWriter(cfg)
	}
	return NewJSONStdoutWriter()
}
