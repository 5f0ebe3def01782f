package cache

import (
	"time"

	"github.com/goccy/go-json"
)

// Entry represents a cached API response.
type Entry struct {
	// Data is the raw JSON response payload.
	Data json.RawMessage `json:"data"`

	// StoredAt is when the response was written to the cache.
	StoredAt time.Time `json:"stored_at"`

	// TTL is the validity window measured from StoredAt.
	TTL time.Duration `json:"ttl"`
}

// IsExpired reports whether the entry is past its validity window at
// the given instant. An entry is expired strictly after StoredAt+TTL,
// so a read exactly at the boundary is still a hit.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Remaining returns the time left until expiry at the given instant.
// Returns 0 if already expired.
func (e *Entry) Remaining(now time.Time) time.Duration {
	remaining := e.TTL - now.Sub(e.StoredAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
