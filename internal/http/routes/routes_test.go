package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/marquee/internal/config"
	"github.com/briangreenhill/marquee/tmdb"
)

type call struct {
	op     string
	kind   tmdb.Kind
	id     int64
	arg    string
	target tmdb.SearchTarget
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []call
	payload json.RawMessage
	err     error
}

func (f *fakeProvider) record(c call) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.payload, f.err
}

func (f *fakeProvider) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeProvider) Trending(_ context.Context, kind tmdb.Kind) (json.RawMessage, error) {
	return f.record(call{op: "trending", kind: kind})
}

func (f *fakeProvider) Category(_ context.Context, kind tmdb.Kind, category string) (json.RawMessage, error) {
	if category == "Bad-One" {
		return nil, tmdb.ErrInvalidCategory
	}
	return f.record(call{op: "category", kind: kind, arg: category})
}

func (f *fakeProvider) Trailers(_ context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error) {
	return f.record(call{op: "trailers", kind: kind, id: id})
}

func (f *fakeProvider) Details(_ context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error) {
	return f.record(call{op: "details", kind: kind, id: id})
}

func (f *fakeProvider) Similar(_ context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error) {
	return f.record(call{op: "similar", kind: kind, id: id})
}

func (f *fakeProvider) Search(_ context.Context, target tmdb.SearchTarget, query string) (json.RawMessage, error) {
	return f.record(call{op: "search", target: target, arg: query})
}

const page = `{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":3,"title":"C"}],"total_pages":1,"total_results":3}`

func newTestServer(p Provider) *Server {
	return New(ServerOptions{
		TMDB:   p,
		Cfg:    &config.Config{Port: "10000", Env: "test", CORSOrigins: []string{"*"}},
		Logger: zerolog.Nop(),
		Pick:   func(n int) int { return n - 1 },
	})
}

type response struct {
	Success bool            `json:"success"`
	Content json.RawMessage `json:"content"`
	Message string          `json:"message"`
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	var body response
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	}
	return rr, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "10000", body["port"])
	assert.Equal(t, "test", body["env"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestTrendingPicksOneResult(t *testing.T) {
	p := &fakeProvider{payload: json.RawMessage(page)}
	s := newTestServer(p)

	rr, body := get(t, s, "/api/v1/tv/trending")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, body.Success)
	assert.JSONEq(t, `{"id":3,"title":"C"}`, string(body.Content))
	assert.Equal(t, call{op: "trending", kind: tmdb.TV}, p.last())
}

func TestTrendingEmpty(t *testing.T) {
	s := newTestServer(&fakeProvider{payload: json.RawMessage(`{"results":[]}`)})
	rr, body := get(t, s, "/api/v1/movie/trending")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, body.Success)
}

func TestListEndpointsReturnResults(t *testing.T) {
	tests := []struct {
		path string
		want call
	}{
		{"/api/v1/movie/popular", call{op: "category", kind: tmdb.Movie, arg: "popular"}},
		{"/api/v1/tv/airing_today", call{op: "category", kind: tmdb.TV, arg: "airing_today"}},
		{"/api/v1/movie/550/trailers", call{op: "trailers", kind: tmdb.Movie, id: 550}},
		{"/api/v1/tv/1399/similar", call{op: "similar", kind: tmdb.TV, id: 1399}},
		{"/api/v1/search/person/" + url.PathEscape("tom hanks"), call{op: "search", target: tmdb.SearchPerson, arg: "tom hanks"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p := &fakeProvider{payload: json.RawMessage(page)}
			s := newTestServer(p)

			rr, body := get(t, s, tt.path)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.True(t, body.Success)
			var items []map[string]any
			require.NoError(t, json.Unmarshal(body.Content, &items))
			assert.Len(t, items, 3)
			assert.Equal(t, tt.want, p.last())
		})
	}
}

func TestDetailsReturnsWholePayload(t *testing.T) {
	p := &fakeProvider{payload: json.RawMessage(`{"id":550,"title":"Fight Club","runtime":139}`)}
	s := newTestServer(p)

	rr, body := get(t, s, "/api/v1/movie/550/details")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":550,"title":"Fight Club","runtime":139}`, string(body.Content))
	assert.Equal(t, call{op: "details", kind: tmdb.Movie, id: 550}, p.last())
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(&fakeProvider{payload: json.RawMessage(page)})

	for _, path := range []string{
		"/api/v1/movie/abc/details",
		"/api/v1/movie/-4/similar",
		"/api/v1/tv/0/trailers",
		"/api/v1/movie/Bad-One",
	} {
		rr, body := get(t, s, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.False(t, body.Success, path)
		assert.NotEmpty(t, body.Message, path)
	}
}

func TestUnknownSearchTarget(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	rr, body := get(t, s, "/api/v1/search/company/pixar")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, body.Success)
}

func TestUnknownAPIRoute(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	rr, body := get(t, s, "/api/v1/books/trending")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, body.Success)
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", &tmdb.ProviderError{URL: "u", StatusCode: 404, Status: "404 Not Found"}, http.StatusNotFound},
		{"server error", &tmdb.ProviderError{URL: "u", StatusCode: 503, Status: "503 Service Unavailable"}, http.StatusInternalServerError},
		{"network", &tmdb.NetworkError{URL: "u", Err: assert.AnError}, http.StatusInternalServerError},
		{"bad payload", tmdb.ErrInvalidPayload, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeProvider{err: tt.err})
			rr, body := get(t, s, "/api/v1/movie/550/details")
			assert.Equal(t, tt.code, rr.Code)
			assert.False(t, body.Success)
			assert.NotContains(t, body.Message, "tmdb")
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/movie/trending", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearchQueryIsUnescaped(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/search/movie/AC%2FDC", "AC/DC"},
		{"/api/v1/search/movie/the%20matrix", "the matrix"},
		{"/api/v1/search/movie/50%25%20off", "50% off"},
		{"/api/v1/search/tv/a%2Fb%20c", "a/b c"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p := &fakeProvider{payload: json.RawMessage(page)}
			s := newTestServer(p)

			rr, _ := get(t, s, tt.path)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, tt.want, p.last().arg)
		})
	}
}

func TestCORSDoesNotAllowCredentials(t *testing.T) {
	s := newTestServer(&fakeProvider{payload: json.RawMessage(page)})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/movie/trending", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
