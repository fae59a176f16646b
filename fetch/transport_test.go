package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/marquee/cache"
)

func TestNewHTTPTransportRequiresAbsoluteURL(t *testing.T) {
	_, err := NewHTTPTransport("/api")
	assert.Error(t, err)
	_, err = NewHTTPTransport("http://localhost:10000")
	assert.NoError(t, err)
}

func TestHTTPTransportUnwrapsEnvelope(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"content":{"title":"X"}}`))
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL+"/prefix/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	body, err := tr.Get(context.Background(), "/api/v1/search/movie/tom%20hanks?page=2")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"X"}`, string(body))
	r := <-seen
	assert.Equal(t, "/prefix/api/v1/search/movie/tom hanks", r.URL.Path)
	assert.Equal(t, "page=2", r.URL.RawQuery)
}

func TestHTTPTransportErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Not Found"}`))
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)

	_, err = tr.Get(context.Background(), "/api/v1/movie/1/details")
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.StatusCode)
	assert.Equal(t, "Not Found", re.Message)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPTransportSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)
	_, err = tr.Get(context.Background(), "/x")
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "nope", re.Message)
}

func TestHTTPTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tr, err := NewHTTPTransport(base)
	require.NoError(t, err)
	_, err = tr.Get(context.Background(), "/x")
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.False(t, IsCanceled(err))
}

func TestCoordinatorOverHTTP(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/movie/slow" {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(`{"success":true,"content":{"path":"` + r.URL.Path + `"}}`))
	}))
	defer srv.Close()
	defer close(release)

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)
	c := New(cache.NewMemoryStore(), tr)

	c.Update(NewQuery("/api/v1/movie/slow"))
	c.Update(NewQuery("/api/v1/movie/fast"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Err)
	assert.JSONEq(t, `{"path":"/api/v1/movie/fast"}`, string(st.Data))
}
