package tool

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/CZERTAINLY/fleet/internal/model"
)

// Resolver finds the executable of every tool. Configured overrides win
// over the default binary name, both are looked up like a shell would.
type Resolver struct {
	overrides map[model.Tool]string
	lookPath  func(string) (string, error)
}

func NewResolver(overrides map[model.Tool]string) *Resolver {
	o := make(map[model.Tool]string, len(overrides))
	for k, v := range overrides {
		o[k] = v
	}
	return &Resolver{
		overrides: o,
		lookPath:  exec.LookPath,
	}
}

// Path returns the absolute path or an error wrapping model.ErrToolNotFound.
func (r *Resolver) Path(t model.Tool) (string, error) {
	if t == model.ToolUnknown {
		return "", fmt.Errorf("%w: %s", model.ErrUnknownTool, t)
	}
	name := t.Spec().Binary
	if o, ok := r.overrides[t]; ok && o != "" {
		name = o
	}
	path, err := r.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", model.ErrToolNotFound, name, err)
	}
	return path, nil
}

// Require resolves t or runs fallback. Callers use it to stop a workflow
// early, before anything is spawned.
func (r *Resolver) Require(ctx context.Context, t model.Tool, fallback func()) (string, bool) {
	path, err := r.Path(t)
	if err != nil {
		slog.ErrorContext(ctx, "required tool is not available", "tool", t.String(), "error", err)
		if fallback != nil {
			fallback()
		}
		return "", false
	}
	return path, true
}
