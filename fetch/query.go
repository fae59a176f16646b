package fetch

import (
	"time"

	"github.com/briangreenhill/marquee/cache"
)

// DefaultTTL is how long a stored response stays fresh unless a query says otherwise.
const DefaultTTL = 5 * time.Minute

// Query is what a consumer asks a Coordinator to keep loaded.
type Query struct {
	URL          string
	Dependencies []any
	TTL          time.Duration
	Enabled      bool
	// Unordered marks the dependency order as insignificant for the cache key.
	Unordered bool
}

// QueryOption adjusts a Query built by NewQuery
type QueryOption func(*Query)

// WithDependencies sets the ordered values, besides the URL, that the
// response depends on. Each must be a primitive.
func WithDependencies(deps ...any) QueryOption {
	return func(q *Query) { q.Dependencies = deps }
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) QueryOption {
	return func(q *Query) {
		if ttl > 0 {
			q.TTL = ttl
		}
	}
}

// WithEnabled turns fetching on or off without discarding the query.
func WithEnabled(enabled bool) QueryOption {
	return func(q *Query) { q.Enabled = enabled }
}

// WithUnorderedDependencies makes dependency order irrelevant to the key.
func WithUnorderedDependencies() QueryOption {
	return func(q *Query) { q.Unordered = true }
}

// NewQuery builds a Query for url with defaults {no dependencies, DefaultTTL, enabled}.
func NewQuery(url string, opts ...QueryOption) Query {
	q := Query{URL: url, TTL: DefaultTTL, Enabled: true}
	for _, o := range opts {
		o(&q)
	}
	return q
}

// Key returns the cache key the query resolves to.
func (q Query) Key() (cache.Key, error) {
	return cache.NewKey(q.URL, q.Dependencies, q.Unordered)
}

func (q Query) ttl() time.Duration {
	if q.TTL <= 0 {
		return DefaultTTL
	}
	return q.TTL
}

// active reports whether the query should fetch at all.
func (q Query) active() bool {
	return q.Enabled && q.URL != ""
}

// identity is what decides whether an Update is a change worth acting on.
type identity struct {
	key     string
	keyErr  string
	enabled bool
	ttl     time.Duration
}

func (q Query) identity() identity {
	id := identity{enabled: q.Enabled, ttl: q.ttl()}
	k, err := q.Key()
	if err != nil {
		id.keyErr = err.Error()
		id.key = q.URL
	} else {
		id.key = k.String()
	}
	return id
}
