package model

import (
	"fmt"
	"strings"
)

// Tool is one of the external programs fleet orchestrates.
type Tool int

const (
	ToolUnknown Tool = iota
	ToolDocker
	ToolCompose
	ToolMachine
)

// ToolSpec describes how a tool is invoked and how its output looks.
type ToolSpec struct {
	Name        string // config key and CLI name
	Binary      string // default executable looked up in PATH
	VersionFlag string
	HelpFlag    string
	DebugFlag   string // prepended by callers running in verbose mode
	Structured  bool   // emits logfmt lines with a level field
}

var toolSpecs = map[Tool]ToolSpec{
	ToolDocker: {
		Name:        "docker",
		Binary:      "docker",
		VersionFlag: "--version",
		HelpFlag:    "--help",
		DebugFlag:   "-D",
	},
	ToolCompose: {
		Name:        "compose",
		Binary:      "docker-compose",
		VersionFlag: "--version",
		HelpFlag:    "--help",
		DebugFlag:   "--verbose",
	},
	ToolMachine: {
		Name:        "machine",
		Binary:      "docker-machine",
		VersionFlag: "--version",
		HelpFlag:    "--help",
		DebugFlag:   "--debug",
		Structured:  true,
	},
}

// AllTools returns every known tool in a stable order.
func AllTools() []Tool {
	return []Tool{ToolDocker, ToolCompose, ToolMachine}
}

func (t Tool) Spec() ToolSpec {
	return toolSpecs[t]
}

func (t Tool) String() string {
	if spec, ok := toolSpecs[t]; ok {
		return spec.Name
	}
	return "unknown"
}

// ParseTool accepts both the short name (machine) and the binary name (docker-machine).
func ParseTool(name string) (Tool, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, t := range AllTools() {
		spec := t.Spec()
		if n == spec.Name || n == spec.Binary {
			return t, nil
		}
	}
	return ToolUnknown, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}
