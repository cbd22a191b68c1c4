package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key namespaces. Distinct prefixes guarantee a description entry and a
// schedule entry can never collide even for the same URL.
const (
	filmKeyPrefix    = "cineplexx:film:"
	sessionKeyPrefix = "cineplexx:sessions:"
)

// DescriptionKey derives the cache key for a film's description entry.
func DescriptionKey(url string) string {
	return filmKeyPrefix + digest(url)
}

// ScheduleKey derives the cache key for one film's session list on one
// date at one location.
func ScheduleKey(url, location, date string) string {
	return sessionKeyPrefix + digest(fmt.Sprintf("%s|%s|%s", url, location, date))
}

// digest hashes a composite key string to a fixed-length hex digest.
func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
