package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog escapes control characters so user-supplied strings
// (titles, filenames, transcriptions) cannot forge log entries or emit
// terminal escape sequences. Printable Unicode passes through unchanged.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 32 || r == 127:
			b.WriteString(fmt.Sprintf(`\x%02x`, r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
