package service_test

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/CZERTAINLY/fleet/internal/job"
	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/CZERTAINLY/fleet/internal/service"

	"github.com/stretchr/testify/require"
)

type call struct {
	argv []string
	opts job.Options
}

type fakeExec struct {
	mx    sync.Mutex
	calls []call
	code  int
	err   error
}

func (f *fakeExec) Execute(_ context.Context, argv []string, opts job.Options) (job.Result, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls = append(f.calls, call{argv: argv, opts: opts})
	if f.err != nil {
		return job.Result{}, f.err
	}
	return job.Result{JobID: "id", Pid: 42, ExitCode: f.code}, nil
}

func (f *fakeExec) count() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.calls)
}

type fakePaths map[model.Tool]string

func (f fakePaths) Path(t model.Tool) (string, error) {
	if p, ok := f[t]; ok {
		return p, nil
	}
	return "", model.ErrToolNotFound
}

var allPaths = fakePaths{
	model.ToolDocker:  "/usr/bin/docker",
	model.ToolCompose: "/usr/bin/docker-compose",
	model.ToolMachine: "/usr/bin/docker-machine",
}

func watchConfig(schedule model.Schedule, invocations ...model.Invocation) model.Config {
	cfg := model.DefaultConfig()
	cfg.Watch = &model.Watch{
		Schedule:    schedule,
		Invocations: invocations,
	}
	return cfg
}

func TestNewSupervisor(t *testing.T) {
	t.Parallel()
	ps := model.Invocation{Tool: "docker", Args: []string{"ps"}}

	var testCases = []struct {
		scenario string
		given    model.Config
	}{
		{"no watch", model.DefaultConfig()},
		{"invalid cron", watchConfig(model.Schedule{Cron: "* * * * * *"}, ps)},
		{"invalid every", watchConfig(model.Schedule{Every: "often"}, ps)},
		{"empty schedule", watchConfig(model.Schedule{}, ps)},
		{"no invocations", watchConfig(model.Schedule{Every: "1m"})},
		{"unknown tool", watchConfig(model.Schedule{Every: "1m"}, model.Invocation{Tool: "podman"})},
	}
	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			_, err := service.NewSupervisor(tt.given, &fakeExec{}, allPaths)
			require.Error(t, err)
		})
	}

	_, err := service.NewSupervisor(watchConfig(model.Schedule{Cron: "*/5 * * * *"}, ps), &fakeExec{}, allPaths)
	require.NoError(t, err)
}

func TestTick(t *testing.T) {
	t.Parallel()
	raw := true
	cfg := watchConfig(model.Schedule{Every: "1h"},
		model.Invocation{Tool: "docker", Args: []string{"ps", "-a"}},
		model.Invocation{Tool: "machine", Args: []string{"ls"}, Raw: &raw},
	)

	t.Run("success", func(t *testing.T) {
		fake := &fakeExec{}
		s, err := service.NewSupervisor(cfg, fake, allPaths)
		require.NoError(t, err)
		require.NoError(t, s.Tick(t.Context()))
		require.Equal(t, []call{
			{
				argv: []string{"/usr/bin/docker", "ps", "-a"},
				opts: job.Options{Mode: job.ModeLog, Tool: model.ToolDocker},
			},
			{
				argv: []string{"/usr/bin/docker-machine", "ls"},
				opts: job.Options{Mode: job.ModeLog, Tool: model.ToolMachine, RawRelay: true},
			},
		}, fake.calls)
	})

	t.Run("verbose adds debug flag", func(t *testing.T) {
		verbose := true
		cfg := cfg
		cfg.Verbose = &verbose
		fake := &fakeExec{}
		s, err := service.NewSupervisor(cfg, fake, allPaths)
		require.NoError(t, err)
		require.NoError(t, s.Tick(t.Context()))
		require.Equal(t, []string{"/usr/bin/docker", "-D", "ps", "-a"}, fake.calls[0].argv)
		require.Equal(t, []string{"/usr/bin/docker-machine", "--debug", "ls"}, fake.calls[1].argv)
	})

	t.Run("failures are joined", func(t *testing.T) {
		fake := &fakeExec{code: 1}
		s, err := service.NewSupervisor(cfg, fake, fakePaths{model.ToolDocker: "/usr/bin/docker"})
		require.NoError(t, err)
		err = s.Tick(t.Context())
		require.Error(t, err)
		require.ErrorIs(t, err, model.ErrToolNotFound)
		require.ErrorContains(t, err, "exit code 1")
		require.Equal(t, 1, fake.count())
	})

	t.Run("spawn failure", func(t *testing.T) {
		fake := &fakeExec{err: model.ErrSpawn}
		s, err := service.NewSupervisor(cfg, fake, allPaths)
		require.NoError(t, err)
		require.True(t, errors.Is(s.Tick(t.Context()), model.ErrSpawn))
	})
}

func TestTickExecute(t *testing.T) {
	t.Parallel()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}

	cfg := watchConfig(model.Schedule{Every: "1h"},
		model.Invocation{Tool: "docker", Args: []string{"-c", "echo ok"}},
		model.Invocation{Tool: "compose", Args: []string{"-c", "echo bad 1>&2; exit 3"}},
	)
	s, err := service.NewSupervisor(cfg, job.New(), fakePaths{
		model.ToolDocker:  sh,
		model.ToolCompose: sh,
	})
	require.NoError(t, err)
	err = s.Tick(t.Context())
	require.Error(t, err)
	require.ErrorContains(t, err, "invocation 1 (compose): exit code 3")
}

func TestDo(t *testing.T) {
	t.Parallel()
	fake := &fakeExec{}
	cfg := watchConfig(model.Schedule{Every: "50ms"}, model.Invocation{Tool: "docker", Args: []string{"ps"}})
	s, err := service.NewSupervisor(cfg, fake, allPaths)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- s.Do(ctx)
	}()

	require.Eventually(t, func() bool {
		return fake.count() >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestTrigger(t *testing.T) {
	t.Parallel()
	fake := &fakeExec{}
	cfg := watchConfig(model.Schedule{Every: "1h"}, model.Invocation{Tool: "docker", Args: []string{"ps"}})
	s, err := service.NewSupervisor(cfg, fake, allPaths)
	require.NoError(t, err)

	// pending triggers are coalesced
	for range 5 {
		s.Trigger()
	}

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- s.Do(ctx)
	}()

	require.Eventually(t, func() bool {
		return fake.count() == 1
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, fake.count())

	cancel()
	require.NoError(t, <-done)
}
