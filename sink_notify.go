// FILE: lixenwraith/logsetup/sink_notify.go
package logsetup

import (
	"strings"

	"github.com/lixenwraith/logsetup/sanitizer"
)

// titleLimit bounds derived titles and subjects, in runes
const titleLimit = 100

var titleSanitizer = sanitizer.New().Policy(sanitizer.PolicyTitle)

// defaultTitle derives a one-line subject from level and message
func defaultTitle(r *Record) string {
	msg := r.Message
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return clampTitle(LevelName(r.Level) + ": " + msg)
}

// clampTitle sanitizes s to a single line and truncates it
func clampTitle(s string) string {
	s = strings.TrimSpace(titleSanitizer.Sanitize(s))
	if runes := []rune(s); len(runes) > titleLimit {
		s = string(runes[:titleLimit-3]) + "..."
	}
	return s
}

// notifyBody prefixes the rendered text with an optional header line
func notifyBody(header, text string) string {
	if header == "" {
		return text
	}
	return header + "\n" + text
}
