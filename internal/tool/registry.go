package tool

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/CZERTAINLY/fleet/internal/job"
	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"

	"golang.org/x/sync/singleflight"
)

// Executor runs one invocation, *job.Controller implements it.
type Executor interface {
	Execute(ctx context.Context, argv []string, opts job.Options) (job.Result, error)
}

// PathFinder resolves executables, *Resolver implements it.
type PathFinder interface {
	Path(t model.Tool) (string, error)
}

// Registry discovers and caches the version and the subcommands of every
// tool. Each value is discovered at most once per Registry, concurrent
// callers share the first discovery and every caller observes its value,
// including an empty one.
type Registry struct {
	exec  Executor
	paths PathFinder

	mx       sync.RWMutex
	versions map[model.Tool]string
	commands map[model.Tool][]string
	group    singleflight.Group
}

func NewRegistry(exec Executor, paths PathFinder) *Registry {
	return &Registry{
		exec:     exec,
		paths:    paths,
		versions: make(map[model.Tool]string, 3),
		commands: make(map[model.Tool][]string, 3),
	}
}

// Version returns the X.Y.Z version of a tool, or an empty string if it
// can't be determined. An empty result is cached too, the tool is not asked again.
func (r *Registry) Version(ctx context.Context, t model.Tool) string {
	r.mx.RLock()
	v, ok := r.versions[t]
	r.mx.RUnlock()
	if ok {
		return v
	}

	ret, _, _ := r.group.Do("version/"+t.String(), func() (any, error) {
		r.mx.RLock()
		v, ok := r.versions[t]
		r.mx.RUnlock()
		if ok {
			return v, nil
		}

		v = r.discoverVersion(ctx, t)
		r.mx.Lock()
		defer r.mx.Unlock()
		if prev, ok := r.versions[t]; ok {
			return prev, nil
		}
		r.versions[t] = v
		return v, nil
	})
	return ret.(string)
}

// Commands returns the subcommands and their aliases in help text order.
// Like Version, an empty result is cached.
func (r *Registry) Commands(ctx context.Context, t model.Tool) []string {
	r.mx.RLock()
	c, ok := r.commands[t]
	r.mx.RUnlock()
	if ok {
		return slices.Clone(c)
	}

	ret, _, _ := r.group.Do("commands/"+t.String(), func() (any, error) {
		r.mx.RLock()
		c, ok := r.commands[t]
		r.mx.RUnlock()
		if ok {
			return c, nil
		}

		c = r.discoverCommands(ctx, t)
		r.mx.Lock()
		defer r.mx.Unlock()
		if prev, ok := r.commands[t]; ok {
			return prev, nil
		}
		r.commands[t] = c
		return c, nil
	})
	return slices.Clone(ret.([]string))
}

// HasCommand reports whether the tool advertises the subcommand.
func (r *Registry) HasCommand(ctx context.Context, t model.Tool, name string) bool {
	return slices.Contains(r.Commands(ctx, t), name)
}

func (r *Registry) discoverVersion(ctx context.Context, t model.Tool) string {
	ctx = log.ContextAttrs(ctx, slog.String("discover", "version"))
	lines := r.run(ctx, t, t.Spec().VersionFlag, job.Options{Mode: job.ModeReturn, Tool: t})
	if len(lines) == 0 {
		return ""
	}
	v := ParseVersion(lines[0])
	if v == "" {
		slog.DebugContext(ctx, "unparsable version", "tool", t.String(), "line", lines[0])
	}
	return v
}

func (r *Registry) discoverCommands(ctx context.Context, t model.Tool) []string {
	ctx = log.ContextAttrs(ctx, slog.String("discover", "commands"))
	lines := r.run(ctx, t, t.Spec().HelpFlag, job.Options{Mode: job.ModeReturn, KeepBlankLines: true, Tool: t})
	return ParseCommands(lines)
}

func (r *Registry) run(ctx context.Context, t model.Tool, flag string, opts job.Options) []string {
	path, err := r.paths.Path(t)
	if err != nil {
		slog.WarnContext(ctx, "tool discovery skipped", "tool", t.String(), "error", err)
		return nil
	}
	res, err := r.exec.Execute(ctx, []string{path, flag}, opts)
	if err != nil {
		slog.WarnContext(ctx, "tool discovery failed", "tool", t.String(), "error", err)
		return nil
	}
	return res.Lines
}
