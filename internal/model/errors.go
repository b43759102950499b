package model

import (
	"errors"
)

var (
	ErrPipe         = errors.New("pipe allocation failed")
	ErrSpawn        = errors.New("spawn failed")
	ErrToolNotFound = errors.New("tool not found")
	ErrUnknownTool  = errors.New("unknown tool")
)
