package job

import (
	"context"
	"log/slog"

	"github.com/CZERTAINLY/fleet/internal/model"
)

type Mode int

const (
	ModeLog Mode = iota
	ModeReturn
)

func (m Mode) String() string {
	if m == ModeReturn {
		return "return"
	}
	return "log"
}

// Options controls how the output of one invocation is handled.
type Options struct {
	Mode           Mode
	IncludeStderr  bool       // ModeReturn: capture stderr lines too
	KeepBlankLines bool       // keep lines which are empty after trimming
	RawRelay       bool       // ModeLog: copy lines to the origin stream as is
	Tool           model.Tool // hint for Classify
}

type Result struct {
	JobID    string
	Pid      int
	Lines    []string
	ExitCode int
}

// Started reports whether a process was spawned at all.
func (r Result) Started() bool {
	return r.Pid != 0
}

// Sink receives every line emitted in ModeLog.
type Sink func(ctx context.Context, sev model.Severity, text string)

// SlogSink logs lines via the default slog logger.
func SlogSink(ctx context.Context, sev model.Severity, text string) {
	slog.Log(ctx, sev.Level(), text)
}
