package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the value at maxLen
// bytes. A maxLen of zero disables the cap. Truncation is byte-wise, so
// callers feeding multi-byte input should size maxLen generously.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(input)
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	return cleaned[:maxLen]
}
