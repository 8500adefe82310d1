package utils

// Truncate shortens s to at most maxLen characters, appending an ellipsis
// when anything was cut. Used to keep long semantic model paths readable in
// terminal banners.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
