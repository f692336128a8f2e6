package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data
const RedactedText = "[REDACTED]"

var (
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter).
	// Covers libpq keyword strings, JDBC query parameters and SQL Server ";password=" segments.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host in URL form
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	// Matches the go-sql-driver/mysql DSN form user:pass@tcp(host)
	mysqlDSNPattern = regexp.MustCompile(`[^\s:/@]+:[^@\s]+@(tcp|unix)\(`)
)

// SanitizeConnectionString removes credentials from connection strings and resolved URLs.
// Use this before logging any data source URL.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	sanitized = mysqlDSNPattern.ReplaceAllString(sanitized, RedactedText+"@${1}(")

	return sanitized
}

// SanitizeError sanitizes error messages from pool engines, which frequently
// echo the DSN they failed to parse or connect with.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}
