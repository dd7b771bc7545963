package utils

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
// Pattern names often carry accented or CJK characters, so the cut never
// lands inside a multi-byte sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
