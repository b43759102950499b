package inventory

import (
	"context"
	"log/slog"
	"slices"

	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/CZERTAINLY/fleet/internal/parallel"
)

// Discoverer is implemented by *tool.Registry.
type Discoverer interface {
	Version(ctx context.Context, t model.Tool) string
	Commands(ctx context.Context, t model.Tool) []string
}

// PathFinder is implemented by *tool.Resolver.
type PathFinder interface {
	Path(t model.Tool) (string, error)
}

// Collect discovers every tool concurrently. Unresolvable tools are
// reported as unavailable entries. The result follows model.AllTools order.
func Collect(ctx context.Context, d Discoverer, paths PathFinder) []Entry {
	tools := model.AllTools()
	discover := func(ctx context.Context, t model.Tool) (Entry, error) {
		e := Entry{Tool: t}
		path, err := paths.Path(t)
		if err != nil {
			slog.DebugContext(ctx, "tool not available", "tool", t.String(), "error", err)
			return e, nil
		}
		e.Path = path
		e.Version = d.Version(ctx, t)
		e.Commands = d.Commands(ctx, t)
		return e, nil
	}

	entries := make([]Entry, 0, len(tools))
	for e, err := range parallel.NewMap(ctx, len(tools), discover).Iter(slices.Values(tools)) {
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return int(a.Tool) - int(b.Tool)
	})
	return entries
}
