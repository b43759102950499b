package tool

import (
	"regexp"
	"strings"
)

var versionRx = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// ParseVersion extracts X.Y.Z from lines like "Docker version 24.0.7, build afdd53b"
// or "v1.2.3-extra". It returns an empty string if there is no version.
func ParseVersion(line string) string {
	m := versionRx.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseCommands reads the command table of a help text. The table starts
// after a line beginning with "commands" (any case) and ends at the first
// blank line. Each row is "name[, alias...]<tab or two spaces>description".
func ParseCommands(lines []string) []string {
	var ret []string
	seen := make(map[string]struct{})
	inTable := false
	for _, line := range lines {
		if !inTable {
			if len(line) >= len("commands") && strings.EqualFold(line[:len("commands")], "commands") {
				inTable = true
			}
			continue
		}

		row := strings.TrimSpace(line)
		if row == "" {
			break
		}
		names := row
		if i := separator(row); i >= 0 {
			names = row[:i]
		}
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			ret = append(ret, name)
		}
	}
	return ret
}

func separator(row string) int {
	tab := strings.IndexByte(row, '\t')
	double := strings.Index(row, "  ")
	switch {
	case tab < 0:
		return double
	case double < 0:
		return tab
	default:
		return min(tab, double)
	}
}
