package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxDrain bounds how much of an error body is read before closing
const maxDrain = 64 << 10

// Client forwards GET requests to TMDB with the API credential attached.
// It keeps no per-call state and never retries.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	log     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the client whose transport and timeout are used for
// upstream calls. The credential is layered on top of its transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/")); err == nil && u.Scheme != "" {
			c.baseURL = u
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client. An empty apiKey is a configuration error.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: u,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	// Wrap whatever transport we were given so the bearer token is added to
	// every request without callers ever seeing it.
	base := c.http
	c.http = &http.Client{
		Timeout:       base.Timeout,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
			Base:   base.Transport,
		},
	}
	return c, nil
}

// BaseURL returns the provider root all helper URLs are built from.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Fetch performs a GET against rawURL and returns the body unchanged on a
// 2xx response. Non-success statuses yield a *ProviderError and transport
// failures a *NetworkError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.log.Warn().Err(err).Str("path", req.URL.Path).Dur("latency", latency).Msg("tmdb request failed")
		return nil, &NetworkError{URL: req.URL.Path, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	ev := c.log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).Dur("latency", latency)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		ev.Msg("tmdb non-success response")
		return nil, &ProviderError{URL: req.URL.Path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ev.Err(err).Msg("tmdb body read failed")
		return nil, &NetworkError{URL: req.URL.Path, Err: err}
	}
	if !json.Valid(body) {
		ev.Msg("tmdb invalid body")
		return nil, fmt.Errorf("%w from %s", ErrInvalidPayload, req.URL.Path)
	}
	ev.Int("bytes", len(body)).Msg("tmdb response")
	return json.RawMessage(body), nil
}

// unwrapURLError drops the *url.Error layer, whose message repeats the full
// request URL, while keeping the underlying cause for errors.Is.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
