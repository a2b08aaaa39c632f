package logging

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// maskLimit is the maximum length of a string field before masking.
const maskLimit = 200

// Mask truncates long strings before they reach a log sink, so page
// content and user messages never land in logs whole.
func Mask(s string) string {
	if len(s) <= maskLimit {
		return s
	}
	const suffix = "...(truncated)"
	return s[:maskLimit-len(suffix)] + suffix
}

// Span emits a SPAN_START entry for a component boundary and returns
// the correlation trace id together with a function that emits the
// matching SPAN_END with the elapsed duration. The trace id embeds the
// session id when one is known, so both log streams correlate.
func Span(log *Logger, name, sessionID string) (string, func()) {
	traceID := uuid.New().String()
	if sessionID != "" {
		traceID = sessionID + "-" + traceID
	}

	start := time.Now()
	log.Event("SPAN_START").
		Str("traceId", traceID).
		Str("span", name).
		Str("sessionId", sessionID).
		Send()

	return traceID, func() {
		log.Event("SPAN_END").
			Str("traceId", traceID).
			Str("span", name).
			Str("sessionId", sessionID).
			Dur("elapsed", time.Since(start)).
			Send()
	}
}

// Sanitize replaces values held under secret-looking keys. Keys are
// matched case-insensitively on the usual substrings.
func Sanitize(key, value string) string {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"KEY", "TOKEN", "SECRET", "CREDENTIALS", "PASSWORD"} {
		if strings.Contains(upper, marker) {
			return "[FILTERED]"
		}
	}
	return Mask(value)
}
