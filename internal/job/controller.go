package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
	"golang.org/x/sync/errgroup"
)

// Controller spawns external tools and collects or relays their output.
// It is safe to call Execute from multiple goroutines.
type Controller struct {
	sink   Sink
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	mode   PipeMode
	pipe   pipeFunc

	relayMx sync.Mutex
}

type ControllerOption func(*Controller)

// WithSink replaces SlogSink.
func WithSink(sink Sink) ControllerOption {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithStdio sets the streams used by raw relay, interactive jobs and as the
// inherited stdin of merged pipes.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) ControllerOption {
	return func(c *Controller) {
		c.stdin = stdin
		c.stdout = stdout
		c.stderr = stderr
	}
}

func WithPipeMode(mode PipeMode) ControllerOption {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithPipeFunc replaces os.Pipe, this exists for a unit testing only.
func WithPipeFunc(pipe func() (*os.File, *os.File, error)) ControllerOption {
	return func(c *Controller) {
		c.pipe = pipe
	}
}

func New(opts ...ControllerOption) *Controller {
	c := &Controller{
		sink:   SlogSink,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		mode:   DefaultPipeMode,
		pipe:   os.Pipe,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs argv and blocks until the child closed all its output streams.
// argv[0] must be a resolved executable path.
//
// Failures never escape as panics: pipe allocation failure returns an error
// wrapping model.ErrPipe, spawn failure one wrapping model.ErrSpawn, both
// with an empty Result whose Pid is zero. A non-zero exit status is not an
// error, see Result.ExitCode.
func (c *Controller) Execute(ctx context.Context, argv []string, opts Options) (Result, error) {
	j := newJob(argv, opts)
	ctx = log.ContextAttrs(ctx,
		slog.String("job_id", j.ID),
		slog.String("tool", opts.Tool.String()),
	)
	if len(argv) == 0 || argv[0] == "" {
		err := fmt.Errorf("%w: empty argv", model.ErrSpawn)
		slog.Log(ctx, model.LevelCritical, "spawning process failed", "error", err)
		return Result{JobID: j.ID}, err
	}

	tr, err := newTransport(argv, c.mode, c.pipe, c.stdin)
	if err != nil {
		slog.Log(ctx, model.LevelFatal, "allocating pipes failed", "mode", c.mode.String(), "error", err)
		return Result{JobID: j.ID}, err
	}
	defer tr.Close()

	if err := tr.start(); err != nil {
		slog.Log(ctx, model.LevelCritical, "spawning process failed", "path", argv[0], "error", err)
		return Result{JobID: j.ID}, fmt.Errorf("%w: %w", model.ErrSpawn, err)
	}
	pid := tr.pid()
	ctx = log.ContextAttrs(ctx, slog.Int("pid", pid))
	slog.DebugContext(ctx, "job started", "argv", argv, "mode", opts.Mode.String())

	// tools waiting for input must see EOF
	if err := tr.closeStdin(); err != nil {
		slog.DebugContext(ctx, "closing stdin", "error", err)
	}

	var g errgroup.Group
	for _, out := range tr.outputs() {
		j.attach(out.stream)
		d := demux{c: c, job: j, stream: out.stream, r: out.r}
		g.Go(func() error {
			d.run(ctx)
			return nil
		})
	}
	_ = g.Wait() // demuxes do not return an error

	exitCode := 0
	if err := tr.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			slog.WarnContext(ctx, "waiting for process", "error", err)
		}
	}
	if tr.cmd.ProcessState != nil {
		exitCode = tr.cmd.ProcessState.ExitCode()
	}

	slog.DebugContext(ctx, "job finished", "exit_code", exitCode)
	return Result{
		JobID:    j.ID,
		Pid:      pid,
		Lines:    j.result(),
		ExitCode: exitCode,
	}, nil
}

// ExecuteInteractive connects the controller's stdio directly to the child
// and waits for it. A spawn failure is logged as a warning only and -1 is
// returned, otherwise the exit code of the child.
func (c *Controller) ExecuteInteractive(ctx context.Context, argv []string) int {
	if len(argv) == 0 || argv[0] == "" {
		slog.WarnContext(ctx, "interactive command is empty")
		return -1
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Start(); err != nil {
		slog.WarnContext(ctx, "interactive command could not be started", "path", argv[0], "error", err)
		return -1
	}
	slog.DebugContext(ctx, "interactive job started", "argv", argv, "pid", cmd.Process.Pid)
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			slog.WarnContext(ctx, "waiting for interactive command", "error", err)
		}
	}
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

func (c *Controller) relay(ctx context.Context, stream model.Stream, line string) {
	w := c.stdout
	if stream == model.Stderr {
		w = c.stderr
	}
	c.relayMx.Lock()
	defer c.relayMx.Unlock()
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		slog.DebugContext(ctx, "relaying line", "error", err)
	}
}
