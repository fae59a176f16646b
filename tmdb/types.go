// Package tmdb is the server-side client for The Movie Database API. It owns
// the provider credential and hands payloads back untouched.
package tmdb

import "encoding/json"

// Page is the paginated envelope TMDB wraps listings and searches in. Items
// stay raw so their fields reach consumers exactly as TMDB sent them.
type Page struct {
	Page         int               `json:"page"`
	Results      []json.RawMessage `json:"results"`
	TotalPages   int               `json:"total_pages"`
	TotalResults int               `json:"total_results"`
}

// Results extracts the results array from a paginated payload
func Results(payload json.RawMessage) ([]json.RawMessage, error) {
	var p Page
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		p.Results = []json.RawMessage{}
	}
	return p.Results, nil
}

// Title is the subset of a listing item the terminal browser shows.
// Movies carry Title and ReleaseDate, TV shows Name and FirstAirDate.
type Title struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	BackdropPath *string `json:"backdrop_path"`
}

// DisplayName returns whichever of title or name the item carries.
func (t Title) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// Year returns the release or first-air year, or "" when unknown.
func (t Title) Year() string {
	d := t.ReleaseDate
	if d == "" {
		d = t.FirstAirDate
	}
	if len(d) < 4 {
		return ""
	}
	return d[:4]
}
