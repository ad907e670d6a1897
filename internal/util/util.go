// Package util provides content hashing helpers.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// etagLength is long enough that two list bodies never share a tag in practice.
const etagLength = 32

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first n hex characters of the content hash.
func ShortHash(content []byte, n int) string {
	h := ContentHash(content)
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// ETag returns a strong entity tag for body, quotes included.
func ETag(body []byte) string {
	return `"` + ShortHash(body, etagLength) + `"`
}

// MatchesETag reports whether an If-None-Match header value names tag.
// A bare "*" matches anything; weak tags compare by their opaque part.
func MatchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == tag {
			return true
		}
	}
	return false
}
