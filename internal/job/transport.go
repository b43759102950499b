package job

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/CZERTAINLY/fleet/internal/model"
)

// PipeMode selects how child output is wired back to fleet.
type PipeMode int

const (
	// PipesIndependent allocates separate stdin, stdout and stderr pipes.
	PipesIndependent PipeMode = iota
	// PipesMerged allocates one pipe for stdout and stderr, stdin is inherited.
	PipesMerged
)

func (m PipeMode) String() string {
	if m == PipesMerged {
		return "merged"
	}
	return "independent"
}

type pipeFunc func() (r *os.File, w *os.File, err error)

type output struct {
	stream model.Stream
	r      *os.File
}

type transport struct {
	cmd     *exec.Cmd
	stdinW  *os.File
	stdoutR *os.File
	stderrR *os.File // nil with PipesMerged

	child     []*os.File
	closeOnce sync.Once
}

// newTransport allocates the pipes for argv. On failure every already
// allocated endpoint is closed and the error wraps model.ErrPipe.
func newTransport(argv []string, mode PipeMode, pipe pipeFunc, stdin io.Reader) (*transport, error) {
	t := &transport{
		cmd: exec.Command(argv[0], argv[1:]...),
	}

	if mode == PipesMerged {
		r, w, err := pipe()
		if err != nil {
			return nil, fmt.Errorf("%w: merged output: %w", model.ErrPipe, err)
		}
		t.stdoutR = r
		t.child = append(t.child, w)
		t.cmd.Stdin = stdin
		t.cmd.Stdout = w
		t.cmd.Stderr = w
		return t, nil
	}

	inR, inW, err := pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin: %w", model.ErrPipe, err)
	}
	t.stdinW = inW
	t.child = append(t.child, inR)

	outR, outW, err := pipe()
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: stdout: %w", model.ErrPipe, err)
	}
	t.stdoutR = outR
	t.child = append(t.child, outW)

	errR, errW, err := pipe()
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: stderr: %w", model.ErrPipe, err)
	}
	t.stderrR = errR
	t.child = append(t.child, errW)

	t.cmd.Stdin = inR
	t.cmd.Stdout = outW
	t.cmd.Stderr = errW
	return t, nil
}

// start spawns the child. The child's pipe ends are closed in the parent in
// any case, so end-of-stream is observed once the child exits. On failure
// every endpoint is closed.
func (t *transport) start() error {
	err := t.cmd.Start()
	t.closeChild()
	if err != nil {
		t.Close()
		return err
	}
	return nil
}

func (t *transport) pid() int {
	if t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

func (t *transport) outputs() []output {
	ret := []output{{stream: model.Stdout, r: t.stdoutR}}
	if t.stderrR != nil {
		ret = append(ret, output{stream: model.Stderr, r: t.stderrR})
	}
	return ret
}

func (t *transport) closeChild() {
	for _, f := range t.child {
		_ = f.Close()
	}
	t.child = nil
}

// closeStdin signals end of input to the child. Safe to call more than once.
func (t *transport) closeStdin() error {
	if t.stdinW == nil {
		return nil
	}
	err := t.stdinW.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// Close releases every endpoint, it is idempotent.
func (t *transport) Close() {
	t.closeOnce.Do(func() {
		t.closeChild()
		_ = t.closeStdin()
		for _, f := range []*os.File{t.stdoutR, t.stderrR} {
			if f != nil {
				_ = f.Close()
			}
		}
	})
}
