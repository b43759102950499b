package job

import (
	"sync"

	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/google/uuid"
)

// Job is the runtime record of one invocation.
type Job struct {
	ID   string
	argv []string
	opts Options

	mx      sync.Mutex
	pending map[model.Stream]bool
	lines   []string
}

func newJob(argv []string, opts Options) *Job {
	return &Job{
		ID:      uuid.NewString(),
		argv:    append([]string(nil), argv...),
		opts:    opts,
		pending: make(map[model.Stream]bool, 2),
	}
}

// attach registers a stream which has to reach end-of-stream before the Job
// becomes terminal.
func (j *Job) attach(s model.Stream) {
	j.mx.Lock()
	defer j.mx.Unlock()
	j.pending[s] = true
}

func (j *Job) accumulate(line string) {
	j.mx.Lock()
	defer j.mx.Unlock()
	j.lines = append(j.lines, line)
}

// complete marks the stream done and reports if the Job is now terminal.
func (j *Job) complete(s model.Stream) bool {
	j.mx.Lock()
	defer j.mx.Unlock()
	delete(j.pending, s)
	return len(j.pending) == 0
}

func (j *Job) result() []string {
	j.mx.Lock()
	defer j.mx.Unlock()
	return j.lines
}
