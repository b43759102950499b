package model

import (
	"fmt"
	"log/slog"

	cueerrors "cuelang.org/go/cue/errors"
)

// ConfigErrorDetail is one human readable config validation problem.
type ConfigErrorDetail struct {
	Path    string // watch.invocations.0.tool
	Message string
	Line    int
	Column  int
}

func (d ConfigErrorDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("path", d.Path),
		slog.String("message", d.Message),
		slog.Int("line", d.Line),
		slog.Int("column", d.Column),
	)
}

// ConfigErrors flattens an error returned by LoadConfig, duplicates reported
// on the same position are dropped.
func ConfigErrors(err error) []ConfigErrorDetail {
	if err == nil {
		return nil
	}
	type pos struct{ line, column int }
	seen := make(map[pos]struct{})

	var out []ConfigErrorDetail
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		p := e.Position()
		key := pos{p.Line(), p.Column()}
		if _, ok := seen[key]; ok && key.line != 0 {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ConfigErrorDetail{
			Path:    normalizePath(e.Path()),
			Message: fmt.Sprintf(format, args...),
			Line:    p.Line(),
			Column:  p.Column(),
		})
	}
	return out
}

func normalizePath(path []string) string {
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	var ret string
	for i, p := range path {
		if i > 0 {
			ret += "."
		}
		ret += p
	}
	return ret
}
