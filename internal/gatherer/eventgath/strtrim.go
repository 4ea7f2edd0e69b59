package eventgath

import (
	"strings"
	"unicode/utf8"
)

// trimStrToRect keeps at most maxHeight lines of at most maxWidth bytes each,
// marking every cut with "[...]". Lines are never cut inside a rune.
func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if len(line) > maxWidth {
			cut := maxWidth
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			sb.WriteString(line[:cut])
			sb.WriteString("[...]")
		} else {
			sb.WriteString(line)
		}
	}
	return sb.String()
}
