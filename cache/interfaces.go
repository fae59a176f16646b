// Package cache provides the process-wide response cache shared by every
// fetch coordinator, with TTL-based freshness checks against an injectable clock.
package cache

import (
	"encoding/json"
	"time"
)

// Entry represents a cached response with the time it was stored
type Entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// Fresh reports whether the entry is still valid at now for the given ttl.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Get returns the entry stored under key, if any. Freshness is the
	// caller's decision since the TTL belongs to the query, not the entry.
	Get(key string) (Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Set stores value under key, stamped with the store's current time
	Set(key string, value json.RawMessage)
	// Delete removes a single entry
	Delete(key string)
	// Clear removes every entry
	Clear()
}

// Store is the main interface that combines all cache operations
type Store interface {
	Reader
	Writer
	Len() int
}

// Clock supplies the current time. Tests substitute a manual clock so TTL
// expiry can be driven without sleeping.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
