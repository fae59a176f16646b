// Package fetch loads content for a consumer through a shared response cache.
// Each consumer owns a Coordinator; all coordinators share one cache.Store.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/marquee/cache"
)

// State is what a consumer renders from.
type State struct {
	Data    json.RawMessage
	Loading bool
	Err     error
}

// Coordinator keeps one consumer's query loaded. It serves fresh entries
// from the shared store, otherwise issues a request through its Transport,
// and guarantees that only the response to the latest query is published.
//
// Coordinators sharing a store are not deduplicated: two of them missing on
// the same key both fetch, and the later response wins the entry.
type Coordinator struct {
	store     cache.Store
	transport Transport
	clock     cache.Clock
	log       zerolog.Logger
	parent    context.Context

	mu      sync.Mutex
	state   State
	query   Query
	last    identity
	started bool
	closed  bool
	current *Handle
	changed chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the clock used for freshness checks. It should be the
// clock the store stamps entries with.
func WithClock(c cache.Clock) Option {
	return func(co *Coordinator) {
		if c != nil {
			co.clock = c
		}
	}
}

// WithLogger sets the logger for cache and request activity.
func WithLogger(l zerolog.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// WithContext sets the parent of every request context, so cancelling it
// stops all requests the coordinator issues.
func WithContext(ctx context.Context) Option {
	return func(co *Coordinator) {
		if ctx != nil {
			co.parent = ctx
		}
	}
}

// New creates a Coordinator over a shared store. Nothing is fetched until
// the first Update.
func New(store cache.Store, transport Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		transport: transport,
		clock:     cache.SystemClock,
		log:       zerolog.Nop(),
		parent:    context.Background(),
		changed:   make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Update declares the query the consumer wants. It is a no-op when url,
// dependencies, enabled and ttl are unchanged since the previous call.
func (c *Coordinator) Update(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	id := q.identity()
	if c.started && id == c.last {
		return
	}
	c.started = true
	c.last = id
	c.query = q
	c.evaluate()
}

// Load declares q and reads it again even when it is unchanged, so an
// expired entry or a previous failure is fetched anew. An identical query
// that is still loading is left alone.
func (c *Coordinator) Load(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	id := q.identity()
	if c.started && id == c.last && c.state.Loading {
		return
	}
	c.started = true
	c.last = id
	c.query = q
	c.evaluate()
}

// Refresh re-runs the current query as if it had just changed. Together
// with ClearCacheEntry it forces a refetch.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.started {
		return
	}
	c.evaluate()
}

// evaluate must be called with c.mu held.
func (c *Coordinator) evaluate() {
	// A new query takes over from whatever was in flight, even when it is
	// answered from cache, so a late response can never overwrite it.
	c.supersede()

	q := c.query
	if !q.active() {
		c.state.Loading = false
		c.state.Err = nil
		c.publish()
		return
	}

	key, err := q.Key()
	if err != nil {
		c.state.Loading = false
		c.state.Err = fmt.Errorf("build cache key: %w", err)
		c.publish()
		return
	}
	k := key.String()

	if e, ok := c.store.Get(k); ok && e.Fresh(c.clock.Now(), q.ttl()) {
		c.log.Debug().Str("key", k).Msg("cache hit")
		c.state = State{Data: e.Value}
		c.publish()
		return
	}

	h := newHandle(c.parent)
	c.current = h
	c.state.Loading = true
	c.state.Err = nil
	c.publish()

	c.log.Debug().Str("key", k).Str("handle", h.ID.String()).Msg("cache miss, fetching")
	go c.run(h, k, q.URL)
}

func (c *Coordinator) run(h *Handle, key, url string) {
	data, err := c.transport.Get(h.Context(), url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != h {
		c.log.Debug().Str("key", key).Str("handle", h.ID.String()).Msg("discarding superseded response")
		return
	}
	c.current = nil
	h.release()

	if err != nil {
		if IsCanceled(err) {
			// Parent context went away. Not a failure, so no error is shown.
			c.log.Debug().Str("key", key).Msg("request cancelled")
			c.state.Loading = false
			c.publish()
			return
		}
		c.log.Warn().Err(err).Str("key", key).Msg("fetch failed")
		c.state.Loading = false
		c.state.Err = err
		c.publish()
		return
	}

	c.store.Set(key, data)
	c.state = State{Data: data}
	c.publish()
}

// supersede invalidates the current handle, if any. Must hold c.mu.
func (c *Coordinator) supersede() {
	if c.current == nil {
		return
	}
	c.log.Debug().Str("handle", c.current.ID.String()).Msg("superseding in-flight request")
	c.current.invalidate()
	c.current = nil
}

// publish wakes everyone waiting on Changed. Must hold c.mu.
func (c *Coordinator) publish() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changed returns a channel closed at the next state change.
func (c *Coordinator) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Wait blocks until the coordinator is not loading and returns that state.
func (c *Coordinator) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		st, ch, closed := c.state, c.changed, c.closed
		c.mu.Unlock()

		if closed {
			return st, ErrClosed
		}
		if !st.Loading {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Key returns the string cache key of the current query, for use with
// ClearCacheEntry.
func (c *Coordinator) Key() (string, error) {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()

	k, err := q.Key()
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

// ClearCache removes every entry from the shared store.
func (c *Coordinator) ClearCache() {
	c.store.Clear()
}

// ClearCacheEntry removes one entry from the shared store.
func (c *Coordinator) ClearCacheEntry(key string) {
	c.store.Delete(key)
}

// Close invalidates any in-flight request. No state is published afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.supersede()
	// Wake waiters so they observe closed; the state itself is unchanged.
	close(c.changed)
}
