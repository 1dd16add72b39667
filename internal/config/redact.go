package config

import (
	"net/url"
	"strings"
)

// RedactURL masks the password of a database URL with "***" for logging.
// URLs without a password, such as sqlite:// paths, are returned unchanged,
// as is anything that does not parse.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// Rewrite the raw string rather than u.String() so the rest of the URL
	// keeps its original encoding.
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}

	// The userinfo ends at the last "@" of the authority, as url.Parse reads it.
	authority := rest
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		authority = rest[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}

	user, _, _ := strings.Cut(authority[:at], ":")

	return scheme + "://" + user + ":***@" + rest[at+1:]
}
