package model

import (
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	"github.com/kelseyhightower/envconfig"

	_ "embed"
)

const (
	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version int     `json:"version" yaml:"version"` // fixed 0 for now
	Verbose *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Log     *string `json:"log,omitempty" yaml:"log,omitempty"` // "stderr"|"stdout"|"discard"|path
	Tools   *Tools  `json:"tools,omitempty" yaml:"tools,omitempty"`
	Watch   *Watch  `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// Tools overrides executable paths, empty means lookup in PATH.
type Tools struct {
	Docker  *string `json:"docker,omitempty" yaml:"docker,omitempty"`
	Compose *string `json:"compose,omitempty" yaml:"compose,omitempty"`
	Machine *string `json:"machine,omitempty" yaml:"machine,omitempty"`
}

// Watch configures periodically executed invocations.
type Watch struct {
	Schedule    Schedule     `json:"schedule" yaml:"schedule"`
	Invocations []Invocation `json:"invocations" yaml:"invocations"`
}

// Schedule is either a 5-field cron expression or a Go duration.
type Schedule struct {
	Cron  string `json:"cron,omitempty" yaml:"cron,omitempty"`
	Every string `json:"every,omitempty" yaml:"every,omitempty"`
}

type Invocation struct {
	Tool string   `json:"tool" yaml:"tool"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
	Raw  *bool    `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func DefaultConfig() Config {
	log := LogStderr
	return Config{
		Version: 0,
		Log:     &log,
	}
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("fleet.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),
		cue.Concrete(true),
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}
	return out, nil
}

// ToolPaths returns configured executable overrides keyed by tool.
func (c Config) ToolPaths() map[Tool]string {
	ret := make(map[Tool]string, 3)
	if c.Tools == nil {
		return ret
	}
	for t, p := range map[Tool]*string{
		ToolDocker:  c.Tools.Docker,
		ToolCompose: c.Tools.Compose,
		ToolMachine: c.Tools.Machine,
	} {
		if p != nil && *p != "" {
			ret[t] = *p
		}
	}
	return ret
}

type envOverrides struct {
	Docker  string `envconfig:"DOCKER"`
	Compose string `envconfig:"COMPOSE"`
	Machine string `envconfig:"MACHINE"`
	Verbose bool   `envconfig:"VERBOSE"`
}

// ApplyEnv overlays FLEET_DOCKER, FLEET_COMPOSE, FLEET_MACHINE and FLEET_VERBOSE.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process("fleet", &env); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if env.Docker != "" || env.Compose != "" || env.Machine != "" {
		if c.Tools == nil {
			c.Tools = &Tools{}
		}
		set := func(dst **string, v string) {
			if v != "" {
				*dst = &v
			}
		}
		set(&c.Tools.Docker, env.Docker)
		set(&c.Tools.Compose, env.Compose)
		set(&c.Tools.Machine, env.Machine)
	}
	if env.Verbose {
		c.Verbose = &env.Verbose
	}
	return nil
}

// IsVerbose reports the verbose flag, unset means false.
func (c Config) IsVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}
