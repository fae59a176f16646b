package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/marquee/cache"
	"github.com/briangreenhill/marquee/fetch"
)

type browserOptions struct {
	api     string
	timeout time.Duration
	ttl     time.Duration
	json    bool
	verbose bool
}

// browser holds what every view shares: one response cache and one
// transport to the API.
type browser struct {
	opts      *browserOptions
	store     *cache.MemoryStore
	transport fetch.Transport
	log       zerolog.Logger
}

func (o *browserOptions) open(cmd *cobra.Command) (*browser, error) {
	tr, err := fetch.NewHTTPTransport(o.api)
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	return &browser{
		opts:      o,
		store:     cache.NewMemoryStore(),
		transport: tr,
		log:       log,
	}, nil
}

// view is one screen region. It owns a coordinator and renders only from
// what that coordinator publishes.
type view struct {
	name    string
	c       *fetch.Coordinator
	ttl     time.Duration
	timeout time.Duration
}

func (b *browser) newView(ctx context.Context, name string) *view {
	return &view{
		name: name,
		c: fetch.New(b.store, b.transport,
			fetch.WithContext(ctx),
			fetch.WithLogger(b.log.With().Str("view", name).Logger()),
		),
		ttl:     b.opts.ttl,
		timeout: b.opts.timeout,
	}
}

func (v *view) query(url string, deps ...any) fetch.Query {
	return fetch.NewQuery(url, fetch.WithDependencies(deps...), fetch.WithTTL(v.ttl))
}

// load points the view at url and blocks until its state settles. Repeating
// the same load reads the cache again, so expired or failed views refetch.
func (v *view) load(ctx context.Context, url string, deps ...any) (json.RawMessage, error) {
	v.c.Load(v.query(url, deps...))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	st, err := v.c.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.name, err)
	}
	if st.Err != nil {
		return nil, fmt.Errorf("%s: %w", v.name, st.Err)
	}
	return st.Data, nil
}

func (v *view) close() { v.c.Close() }
