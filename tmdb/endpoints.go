package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
)

// Kind selects the movie or TV half of the catalogue.
type Kind string

const (
	Movie Kind = "movie"
	TV    Kind = "tv"
)

// ParseKind validates a kind taken from a request path.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Movie, TV:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Categories lists the listing categories TMDB serves per kind.
var Categories = map[Kind][]string{
	Movie: {"now_playing", "top_rated", "popular", "upcoming"},
	TV:    {"airing_today", "on_the_air", "popular", "top_rated"},
}

// SearchTarget selects what a search looks for.
type SearchTarget string

const (
	SearchPerson SearchTarget = "person"
	SearchMovie  SearchTarget = "movie"
	SearchTV     SearchTarget = "tv"
)

// ParseSearchTarget validates a search target taken from a request path.
func ParseSearchTarget(s string) (SearchTarget, error) {
	switch SearchTarget(s) {
	case SearchPerson, SearchMovie, SearchTV:
		return SearchTarget(s), nil
	}
	return "", fmt.Errorf("unknown search target %q", s)
}

var categoryRe = regexp.MustCompile(`^[a-z][a-z_]*$`)

const language = "en-US"

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	if q == nil {
		q = url.Values{}
	}
	q.Set("language", language)
	u.RawQuery = q.Encode()
	return u.String()
}

// TrendingURL is the provider URL for today's trending titles.
func (c *Client) TrendingURL(kind Kind) string {
	return c.endpoint(path.Join("trending", string(kind), "day"), nil)
}

// CategoryURL is the provider URL for the first page of a listing category.
func (c *Client) CategoryURL(kind Kind, category string) (string, error) {
	if !categoryRe.MatchString(category) {
		return "", fmt.Errorf("%w %q", ErrInvalidCategory, category)
	}
	return c.endpoint(path.Join(string(kind), category), url.Values{"page": {"1"}}), nil
}

// TrailersURL is the provider URL for a title's videos.
func (c *Client) TrailersURL(kind Kind, id int64) string {
	return c.endpoint(path.Join(string(kind), strconv.FormatInt(id, 10), "videos"), nil)
}

// DetailsURL is the provider URL for a title's details.
func (c *Client) DetailsURL(kind Kind, id int64) string {
	return c.endpoint(path.Join(string(kind), strconv.FormatInt(id, 10)), nil)
}

// SimilarURL is the provider URL for titles similar to id.
func (c *Client) SimilarURL(kind Kind, id int64) string {
	return c.endpoint(path.Join(string(kind), strconv.FormatInt(id, 10), "similar"), url.Values{"page": {"1"}})
}

// SearchURL is the provider URL for a search query.
func (c *Client) SearchURL(target SearchTarget, query string) string {
	return c.endpoint(path.Join("search", string(target)), url.Values{
		"query":         {query},
		"include_adult": {"false"},
		"page":          {"1"},
	})
}

// Trending returns the raw trending payload.
func (c *Client) Trending(ctx context.Context, kind Kind) (json.RawMessage, error) {
	return c.Fetch(ctx, c.TrendingURL(kind))
}

// Category returns the raw payload of a listing category.
func (c *Client) Category(ctx context.Context, kind Kind, category string) (json.RawMessage, error) {
	u, err := c.CategoryURL(kind, category)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, u)
}

// Trailers returns the raw videos payload for a title.
func (c *Client) Trailers(ctx context.Context, kind Kind, id int64) (json.RawMessage, error) {
	return c.Fetch(ctx, c.TrailersURL(kind, id))
}

// Details returns the raw details payload for a title.
func (c *Client) Details(ctx context.Context, kind Kind, id int64) (json.RawMessage, error) {
	return c.Fetch(ctx, c.DetailsURL(kind, id))
}

// Similar returns the raw similar-titles payload.
func (c *Client) Similar(ctx context.Context, kind Kind, id int64) (json.RawMessage, error) {
	return c.Fetch(ctx, c.SimilarURL(kind, id))
}

// Search returns the raw search payload.
func (c *Client) Search(ctx context.Context, target SearchTarget, query string) (json.RawMessage, error) {
	return c.Fetch(ctx, c.SearchURL(target, query))
}
