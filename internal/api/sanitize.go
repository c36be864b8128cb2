package api

import (
	"strings"
	"unicode/utf8"
)

const maxLogValue = 200

var logEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

// sanitizeLog makes a request-supplied value safe to embed in a log line:
// line breaks are escaped, other control characters dropped, and long values
// cut short.
func sanitizeLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
	s = logEscaper.Replace(s)

	if len(s) <= maxLogValue {
		return s
	}
	cut := maxLogValue
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
