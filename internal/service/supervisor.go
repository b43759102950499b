package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	gocron "github.com/go-co-op/gocron/v2"

	"github.com/CZERTAINLY/fleet/internal/job"
	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
)

// Executor is implemented by *job.Controller.
type Executor interface {
	Execute(ctx context.Context, argv []string, opts job.Options) (job.Result, error)
}

// PathFinder is implemented by *tool.Resolver.
type PathFinder interface {
	Path(t model.Tool) (string, error)
}

type invocation struct {
	tool model.Tool
	args []string
	raw  bool
}

type Supervisor struct {
	exec        Executor
	paths       PathFinder
	verbose     bool
	invocations []invocation
	schedule    model.Schedule
	start       chan struct{}
}

// NewSupervisor validates the watch configuration. The scheduler itself is
// created by Do.
func NewSupervisor(cfg model.Config, exec Executor, paths PathFinder) (*Supervisor, error) {
	if cfg.Watch == nil {
		return nil, errors.New("watch is not configured")
	}
	if _, err := jobDefinition(cfg.Watch.Schedule); err != nil {
		return nil, err
	}
	if len(cfg.Watch.Invocations) == 0 {
		return nil, errors.New("watch.invocations is empty")
	}

	invocations := make([]invocation, 0, len(cfg.Watch.Invocations))
	for i, inv := range cfg.Watch.Invocations {
		t, err := model.ParseTool(inv.Tool)
		if err != nil {
			return nil, fmt.Errorf("watch.invocations[%d]: %w", i, err)
		}
		invocations = append(invocations, invocation{
			tool: t,
			args: inv.Args,
			raw:  inv.Raw != nil && *inv.Raw,
		})
	}

	return &Supervisor{
		exec:        exec,
		paths:       paths,
		verbose:     cfg.IsVerbose(),
		invocations: invocations,
		schedule:    cfg.Watch.Schedule,
		start:       make(chan struct{}, 1),
	}, nil
}

// Trigger asks the event loop for a tick. It never blocks, a trigger is
// dropped when one is already pending.
func (s *Supervisor) Trigger() {
	select {
	case s.start <- struct{}{}:
	default:
	}
}

// Do starts the scheduler and runs ticks until ctx is canceled. Tick
// failures are logged, Do returns nil on cancellation.
func (s *Supervisor) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting a supervisor")
	scheduler, err := newScheduler(ctx, s.schedule, s.Trigger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		err := scheduler.Shutdown()
		if err != nil {
			slog.ErrorContext(ctx, "shutting down gocron has failed", "error", err)
		}
	}()

	for tick := 1; ; {
		select {
		case <-ctx.Done():
			return nil
		case <-s.start:
			tctx := log.ContextAttrs(ctx, slog.Int("tick", tick))
			if err := s.Tick(tctx); err != nil {
				slog.ErrorContext(tctx, "tick failed", "error", err)
			}
			tick++
		}
	}
}

// Tick executes every invocation once and returns the joined failures.
func (s *Supervisor) Tick(ctx context.Context) error {
	var errs []error
	for i, inv := range s.invocations {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ictx := log.ContextAttrs(ctx, slog.Int("invocation", i), slog.String("tool", inv.tool.String()))
		if err := s.run(ictx, inv); err != nil {
			errs = append(errs, fmt.Errorf("invocation %d (%s): %w", i, inv.tool, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Supervisor) run(ctx context.Context, inv invocation) error {
	path, err := s.paths.Path(inv.tool)
	if err != nil {
		return err
	}
	argv := []string{path}
	if s.verbose && inv.tool.Spec().DebugFlag != "" {
		argv = append(argv, inv.tool.Spec().DebugFlag)
	}
	argv = append(argv, inv.args...)

	res, err := s.exec.Execute(ctx, argv, job.Options{
		Mode:     job.ModeLog,
		RawRelay: inv.raw,
		Tool:     inv.tool,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return errors.New("exit code " + strconv.Itoa(res.ExitCode))
	}
	slog.DebugContext(ctx, "invocation succeeded", "job_id", res.JobID, "pid", res.Pid)
	return nil
}

func jobDefinition(cfg model.Schedule) (gocron.JobDefinition, error) {
	switch {
	case cfg.Cron != "":
		if err := model.ParseCron(cfg.Cron); err != nil {
			return nil, fmt.Errorf("parsing watch.schedule.cron: %w", err)
		}
		return gocron.CronJob(cfg.Cron, false), nil
	case cfg.Every != "":
		d, err := model.ParseEvery(cfg.Every)
		if err != nil {
			return nil, fmt.Errorf("parsing watch.schedule.every: %w", err)
		}
		return gocron.DurationJob(d), nil
	default:
		return nil, errors.New("both cron and every are empty")
	}
}

func newScheduler(ctx context.Context, cfg model.Schedule, trigger func()) (gocron.Scheduler, error) {
	def, err := jobDefinition(cfg)
	if err != nil {
		return nil, err
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	j, err := s.NewJob(
		def,
		gocron.NewTask(trigger),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("initializing gocron job: %w", err)
	}
	slog.DebugContext(ctx, "watch scheduled", "job", j.ID().String())
	return s, nil
}
