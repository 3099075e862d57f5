package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key derives the cache key for a provider request. It is a pure function
// of provider, endpoint and parameters, so keys stay valid cache hits
// across process restarts. Parameters are canonicalized by name before
// hashing: two logically identical requests produce the same key no matter
// the map iteration order.
//
// The provider name is kept as a plain prefix (provider:<hash>) so backends
// can scope Clear to one provider without an index.
func Key(provider, endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return provider + ":" + hex.EncodeToString(sum[:])
}

// splitKey separates the provider prefix from the hash part.
func splitKey(key string) (provider, hash string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}
