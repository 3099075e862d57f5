package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"  1 Main St \n", "1 Main St"},
		{"a\t\tb\n\nc", "a b c"},
		{"already clean", "already clean"},
		{"   \n\t ", ""},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, NormalizeText(tc.in))
	}
}

func TestGetDomain(t *testing.T) {
	domain, err := GetDomain("https://listings.example.com/feed.json")
	require.NoError(t, err)
	assert.Equal(t, "listings.example.com", domain)
}

func TestCleanKey(t *testing.T) {
	assert.Equal(t, "example.com/listing/1.html", CleanKey("https://example.com/listing/1.html"))
	assert.Equal(t, "example.com/index.html", CleanKey("http://example.com/"))
	assert.Equal(t, "no-dots-anywhere/index.html", CleanKey("no-dots-anywhere"))
}
