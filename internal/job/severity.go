package job

import (
	"strconv"
	"strings"

	"github.com/CZERTAINLY/fleet/internal/model"
)

// structuredLevels maps logrus style levels to fleet severities one step
// below their name, except panic which ends above fatal.
var structuredLevels = map[string]model.Severity{
	"debug":   model.SeverityDebug,
	"info":    model.SeverityInfo,
	"warn":    model.SeverityNotice,
	"warning": model.SeverityNotice,
	"error":   model.SeverityWarn,
	"fatal":   model.SeverityError,
	"panic":   model.SeverityFatal,
}

// Classify returns the severity of a line and the text to log. Lines from
// structured tools carrying a known level are rendered as their msg field,
// anything else keeps its text and the default severity of its stream.
func Classify(line string, stream model.Stream, tool model.Tool) (model.Severity, string) {
	sev := model.SeverityInfo
	if stream == model.Stderr {
		sev = model.SeverityNotice
	}
	if !tool.Spec().Structured {
		return sev, line
	}

	fields, ok := parseLogfmt(line)
	if !ok {
		return sev, line
	}
	level, ok := structuredLevels[strings.ToLower(fields["level"])]
	if !ok {
		return sev, line
	}
	if msg, ok := fields["msg"]; ok {
		return level, msg
	}
	return level, line
}

// parseLogfmt splits key=value tokens, values may be double quoted. It fails
// on bare words and when there is no level key.
func parseLogfmt(line string) (map[string]string, bool) {
	fields := make(map[string]string)
	s := strings.TrimSpace(line)
	for s != "" {
		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, false
		}
		key := s[:eq]
		if strings.ContainsAny(key, " \t\"") {
			return nil, false
		}
		s = s[eq+1:]

		var value string
		if strings.HasPrefix(s, `"`) {
			end := closingQuote(s)
			if end < 0 {
				return nil, false
			}
			v, err := strconv.Unquote(s[:end+1])
			if err != nil {
				return nil, false
			}
			value = v
			s = s[end+1:]
		} else {
			sp := strings.IndexAny(s, " \t")
			if sp < 0 {
				sp = len(s)
			}
			value = s[:sp]
			s = s[sp:]
		}
		fields[key] = value
		s = strings.TrimLeft(s, " \t")
	}
	_, ok := fields["level"]
	return fields, ok
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
