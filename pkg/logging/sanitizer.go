package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx in key/value DSNs (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)\b(password|pwd|pass)=[^;&\s]+`)

	// key=xxx and api_key=xxx query parameters, as appended to model endpoint URLs
	apiKeyParamPattern = regexp.MustCompile(`(?i)([?&](?:api[_-]?key|key)=)[^&\s"']+`)

	// Bare provider keys that may appear in SDK error text
	bareKeyPattern = regexp.MustCompile(`\b(AIza[0-9A-Za-z_-]{20,}|sk-[A-Za-z0-9_-]{20,})`)

	// user:pass@host credentials in URL-style DSNs
	userInfoPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

	// user:pass@tcp(host) credentials in go-sql-driver/mysql DSNs
	mysqlDSNPattern = regexp.MustCompile(`^[^:/@\s]+:[^@\s]*@(tcp|unix)\(`)
)

// SanitizeURL removes API keys from a request URL.
// Use this before logging any model endpoint.
func SanitizeURL(rawURL string) string {
	return apiKeyParamPattern.ReplaceAllString(rawURL, "${1}"+RedactedText)
}

// SanitizeConnectionString removes credentials from a database DSN.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = userInfoPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
	sanitized = mysqlDSNPattern.ReplaceAllString(sanitized, RedactedText+"@${1}(")

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Driver and HTTP client errors often echo the DSN or URL they failed on.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyParamPattern.ReplaceAllString(sanitized, "${1}"+RedactedText)
	sanitized = bareKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = userInfoPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")

	return sanitized
}

// TruncateString truncates a string to maxLen runes and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
