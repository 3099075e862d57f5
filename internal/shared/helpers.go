package shared

import (
	"net/url"
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeText collapses runs of whitespace (including newlines) into
// single spaces and trims the ends. Applied to every free-text field
// before a record is considered validated.
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

func GetDomain(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// CleanKey turns a URL into a storage-safe object key.
func CleanKey(key string) string {
	key = strings.TrimPrefix(key, "http://")
	key = strings.TrimPrefix(key, "https://")

	if strings.HasSuffix(key, "/") {
		key += "index.html"
	} else if !strings.Contains(key, ".") {
		key += "/index.html"
	}
	return key
}
