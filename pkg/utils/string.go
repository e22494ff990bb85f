package utils

// Truncate caps s at maxLen characters, marking cut strings with a
// trailing ellipsis.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
