package app

import (
	"net/url"
	"strings"
)

const preparedBinaryParam = "disable_prepared_binary_result"

// normalizeDBURL appends disable_prepared_binary_result=yes for deployments
// that sit behind a connection pooler, where binary-format prepared results
// misbehave. A value already present in the URL wins.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	query := parsed.Query()
	if query.Get(preparedBinaryParam) != "" {
		return raw
	}

	query.Set(preparedBinaryParam, "yes")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// dbNameFromURL pulls the database name out of either a URL-style
// connection string or a key=value DSN, for tagging database spans. An
// unrecognized string yields "".
func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if parsed, err := url.Parse(trimmed); err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		value, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name := strings.Trim(strings.TrimSpace(value), `"'`); name != "" {
			return name
		}
	}

	return ""
}
