package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/briangreenhill/marquee/tmdb"
)

const (
	overviewWidth = 72
	titleWidth    = 48
)

type details struct {
	tmdb.Title
	Tagline         string `json:"tagline"`
	Status          string `json:"status"`
	Runtime         int    `json:"runtime"`
	NumberOfSeasons int    `json:"number_of_seasons"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type person struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department"`
	Popularity         float64 `json:"popularity"`
}

type video struct {
	Name string `json:"name"`
	Site string `json:"site"`
	Key  string `json:"key"`
	Type string `json:"type"`
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if len(raw) == 0 || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func rating(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func renderBanner(t tmdb.Title) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(t.DisplayName()))
	if y := t.Year(); y != "" {
		fmt.Fprintf(&b, " (%s)", y)
	}
	fmt.Fprintf(&b, "  rating %s\n", rating(t.VoteAverage))
	if t.Overview != "" {
		b.WriteString(text.WrapSoft(t.Overview, overviewWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTitles(title string, items []tmdb.Title) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			text.Trim(it.DisplayName(), titleWidth),
			it.Year(),
			rating(it.VoteAverage),
		})
	}
	return renderTable(title, []string{"ID", "Title", "Year", "Rating"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
}

func renderPeople(title string, items []person) string {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			text.Trim(p.Name, titleWidth),
			p.KnownForDepartment,
			strconv.FormatFloat(p.Popularity, 'f', 1, 64),
		})
	}
	return renderTable(title, []string{"ID", "Name", "Known for", "Popularity"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
}

func renderDetails(kind tmdb.Kind, d details) string {
	var b strings.Builder
	b.WriteString(renderBanner(d.Title))
	if d.Tagline != "" {
		fmt.Fprintf(&b, "%q\n", d.Tagline)
	}
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(names, ", "))
	}
	switch {
	case kind == tmdb.Movie && d.Runtime > 0:
		fmt.Fprintf(&b, "Runtime: %dh%02dm\n", d.Runtime/60, d.Runtime%60)
	case kind == tmdb.TV && d.NumberOfSeasons > 0:
		fmt.Fprintf(&b, "Seasons: %d\n", d.NumberOfSeasons)
	}
	if d.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", d.Status)
	}
	return b.String()
}

// trailerURLs lists watchable YouTube trailers first, then everything else
// YouTube hosts.
func trailerURLs(videos []video) []string {
	var trailers, rest []string
	for _, v := range videos {
		if v.Site != "YouTube" || v.Key == "" {
			continue
		}
		u := "https://www.youtube.com/watch?v=" + v.Key
		if v.Type == "Trailer" {
			trailers = append(trailers, u)
		} else {
			rest = append(rest, u)
		}
	}
	return append(trailers, rest...)
}

func writeRaw(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
