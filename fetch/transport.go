package fetch

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
)

// Transport performs one request on behalf of a Coordinator. Implementations
// must honour ctx cancellation, since that is how superseded requests stop.
type Transport interface {
	Get(ctx context.Context, url string) (json.RawMessage, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, url string) (json.RawMessage, error)

func (f TransportFunc) Get(ctx context.Context, url string) (json.RawMessage, error) {
	return f(ctx, url)
}

// envelope is the body shape of the content API
type envelope struct {
	Success bool            `json:"success"`
	Content json.RawMessage `json:"content"`
	Message string          `json:"message"`
}

// HTTPTransport talks to the content API over HTTP and unwraps its envelope.
type HTTPTransport struct {
	http *http.Client
	base *url.URL
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(h *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if h != nil {
			t.http = h
		}
	}
}

// NewHTTPTransport creates a transport resolving query URLs against baseURL,
// so consumers can declare paths like /api/v1/movie/trending.
func NewHTTPTransport(baseURL string, opts ...TransportOption) (*HTTPTransport, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}
	t := &HTTPTransport{
		http: &http.Client{Timeout: 15 * time.Second},
		base: u,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Get implements Transport
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	target := ref
	if !ref.IsAbs() {
		// JoinPath keeps any path prefix on the base, unlike ResolveReference
		target = t.base.JoinPath(ref.EscapedPath())
		target.RawQuery = ref.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, &NetworkError{URL: target.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: target.Path, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode content envelope: %w", decodeErr)
	}
	return env.Content, nil
}
