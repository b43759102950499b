//go:build !windows

package job

const DefaultPipeMode = PipesIndependent
