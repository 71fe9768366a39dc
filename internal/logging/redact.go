package logging

import (
	"regexp"
	"strings"
)

const masked = "[MASKED]"

var redactions = []struct {
	expr        *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)((?:api_?key|apikey|key|token|secret|password)=)([^&\s"']+)`), "${1}" + masked},
	{regexp.MustCompile(`(?i)(Bearer\s+)([^\s"']+)`), "${1}" + masked},
	{regexp.MustCompile(`(?i)(Basic\s+)([A-Za-z0-9+/=]{8,})`), "${1}" + masked},
	{regexp.MustCompile(`sk-[A-Za-z0-9_\-]{8,}`), masked},
	{regexp.MustCompile(`(?i)[0-9a-f]{30,}`), "[ID " + masked + "]"},
}

// Redact masks credentials and long opaque identifiers in messages that
// leave the service (API responses, logs).
func Redact(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "An error occurred"
	}
	for _, r := range redactions {
		msg = r.expr.ReplaceAllString(msg, r.replacement)
	}
	return msg
}
