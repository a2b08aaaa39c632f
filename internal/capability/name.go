package capability

import "strings"

// HeuristicName applies the non-AI name heuristic: a message that is a
// single alphabetic word is taken as the name, and "my name is ..."
// yields the last word with trailing punctuation stripped. Returns ""
// when no name is detected.
func HeuristicName(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(trimmed), "my name is") {
		parts := strings.Fields(trimmed)
		return strings.Trim(parts[len(parts)-1], ".,!")
	}
	if len(strings.Fields(trimmed)) == 1 && isAlpha(trimmed) {
		return trimmed
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return len(s) > 0
}
