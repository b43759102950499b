package model

import "log/slog"

// Severity is the level a line of tool output is logged with.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityNotice
	SeverityWarn
	SeverityError
	SeverityCritical
	SeverityFatal
)

const (
	LevelNotice   = slog.Level(2)
	LevelCritical = slog.Level(12)
	LevelFatal    = slog.Level(16)
)

var severityLevels = map[Severity]slog.Level{
	SeverityDebug:    slog.LevelDebug,
	SeverityInfo:     slog.LevelInfo,
	SeverityNotice:   LevelNotice,
	SeverityWarn:     slog.LevelWarn,
	SeverityError:    slog.LevelError,
	SeverityCritical: LevelCritical,
	SeverityFatal:    LevelFatal,
}

var severityNames = map[Severity]string{
	SeverityDebug:    "DEBUG",
	SeverityInfo:     "INFO",
	SeverityNotice:   "NOTICE",
	SeverityWarn:     "WARN",
	SeverityError:    "ERROR",
	SeverityCritical: "CRITICAL",
	SeverityFatal:    "FATAL",
}

func (s Severity) Level() slog.Level {
	if l, ok := severityLevels[s]; ok {
		return l
	}
	return slog.LevelInfo
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return "INFO"
}

// LevelName renders the custom levels used by fleet, slog prints them as INFO+2 otherwise.
func LevelName(l slog.Level) string {
	switch l {
	case LevelNotice:
		return "NOTICE"
	case LevelCritical:
		return "CRITICAL"
	case LevelFatal:
		return "FATAL"
	default:
		return l.String()
	}
}

// Stream identifies the output stream a line was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}
