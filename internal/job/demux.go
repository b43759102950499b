package job

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
)

// demux turns the bytes of one stream of one Job into lines.
type demux struct {
	c      *Controller
	job    *Job
	stream model.Stream
	r      io.Reader
}

func (d demux) run(ctx context.Context) {
	ctx = log.ContextAttrs(ctx, slog.String("stream", d.stream.String()))
	br := bufio.NewReader(d.r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			d.handle(ctx, trimEOL(line))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				slog.DebugContext(ctx, "reading stream", "error", err)
			}
			break
		}
	}
	if d.job.complete(d.stream) {
		slog.DebugContext(ctx, "all streams closed")
	}
}

func (d demux) handle(ctx context.Context, line string) {
	opts := d.job.opts
	if !opts.KeepBlankLines && strings.TrimSpace(line) == "" {
		return
	}

	if opts.Mode == ModeReturn {
		if d.stream == model.Stdout || opts.IncludeStderr {
			d.job.accumulate(line)
		}
		return
	}

	if opts.RawRelay {
		d.c.relay(ctx, d.stream, line)
		return
	}
	sev, text := Classify(line, d.stream, opts.Tool)
	d.c.sink(ctx, sev, text)
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
