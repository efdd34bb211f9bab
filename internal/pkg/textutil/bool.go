package textutil

import "strings"

// ParseBool reads the boolean spellings found in stored and submitted forms:
// true/false, 1/0, on/off, yes/no. Anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// FormatBool writes the canonical stored form
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
