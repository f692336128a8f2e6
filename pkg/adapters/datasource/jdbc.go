package datasource

import "strings"

const jdbcScheme = "jdbc:"

// JDBCURL is a "jdbc:<subprotocol>:<rest>" URL split into its parts.
type JDBCURL struct {
	Subprotocol string
	Rest        string
}

// ParseJDBCURL splits a JDBC-style URL. The second return value is false when
// raw is not a JDBC URL, in which case engines treat it as a native DSN.
func ParseJDBCURL(raw string) (JDBCURL, bool) {
	if len(raw) < len(jdbcScheme) || !strings.EqualFold(raw[:len(jdbcScheme)], jdbcScheme) {
		return JDBCURL{}, false
	}
	sub, rest, ok := strings.Cut(raw[len(jdbcScheme):], ":")
	if !ok || sub == "" {
		return JDBCURL{}, false
	}
	return JDBCURL{Subprotocol: strings.ToLower(sub), Rest: rest}, true
}
