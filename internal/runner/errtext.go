package runner

import (
	"regexp"
	"strings"
)

// Persisted error text is user-visible: keep it short and free of secrets
// that external tools may echo back in their output.

const maxErrorTextLen = 500

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func sanitizeErrorText(s string) string {
	s = strings.TrimSpace(s)
	s = bearerTokenRE.ReplaceAllString(s, "Bearer [REDACTED]")
	s = authHeaderRE.ReplaceAllString(s, "${1}[REDACTED]")
	s = apiKeyFieldRE.ReplaceAllString(s, "${1}[REDACTED]")
	return truncate(s, maxErrorTextLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
