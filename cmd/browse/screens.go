package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"

	"github.com/briangreenhill/marquee/tmdb"
)

func trendingPath(kind tmdb.Kind) string {
	return fmt.Sprintf("/api/v1/%s/trending", kind)
}

func categoryPath(kind tmdb.Kind, category string) string {
	return fmt.Sprintf("/api/v1/%s/%s", kind, url.PathEscape(category))
}

func detailsPath(kind tmdb.Kind, id int64) string {
	return fmt.Sprintf("/api/v1/%s/%d/details", kind, id)
}

func similarPath(kind tmdb.Kind, id int64) string {
	return fmt.Sprintf("/api/v1/%s/%d/similar", kind, id)
}

func trailersPath(kind tmdb.Kind, id int64) string {
	return fmt.Sprintf("/api/v1/%s/%d/trailers", kind, id)
}

func searchPath(target tmdb.SearchTarget, query string) string {
	return fmt.Sprintf("/api/v1/search/%s/%s", target, url.PathEscape(query))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (b *browser) showTrending(ctx context.Context, w io.Writer, v *view, kind tmdb.Kind) error {
	raw, err := v.load(ctx, trendingPath(kind), string(kind))
	if err != nil {
		return err
	}
	if b.opts.json {
		return writeRaw(w, raw)
	}
	var t tmdb.Title
	if err := json.Unmarshal(raw, &t); err != nil {
		return fmt.Errorf("decode trending: %w", err)
	}
	_, err = io.WriteString(w, renderBanner(t))
	return err
}

func (b *browser) showList(ctx context.Context, w io.Writer, v *view, kind tmdb.Kind, category string) error {
	raw, err := v.load(ctx, categoryPath(kind, category), string(kind), category)
	if err != nil {
		return err
	}
	if b.opts.json {
		return writeRaw(w, raw)
	}
	items, err := decodeList[tmdb.Title](raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, renderTitles(category, items))
	return err
}

type slider struct {
	category string
	items    []tmdb.Title
	raw      json.RawMessage
	err      error
}

// loadSliders fills one view per category concurrently. Failures stay with
// their slider so one bad row does not blank the page.
func (b *browser) loadSliders(ctx context.Context, kind tmdb.Kind, categories []string) []slider {
	out := make([]slider, len(categories))
	var wg sync.WaitGroup
	for i, cat := range categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := b.newView(ctx, "slider:"+cat)
			defer v.close()

			out[i].category = cat
			raw, err := v.load(ctx, categoryPath(kind, cat), string(kind), cat)
			if err != nil {
				out[i].err = err
				return
			}
			out[i].raw = raw
			out[i].items, out[i].err = decodeList[tmdb.Title](raw)
		}()
	}
	wg.Wait()
	return out
}

func (b *browser) showSliders(ctx context.Context, w io.Writer, kind tmdb.Kind) error {
	sliders := b.loadSliders(ctx, kind, tmdb.Categories[kind])
	failed := 0
	for _, s := range sliders {
		if s.err != nil {
			failed++
			b.log.Warn().Err(s.err).Str("category", s.category).Msg("slider failed")
			fmt.Fprintf(w, "%s: unavailable\n", s.category)
			continue
		}
		if b.opts.json {
			if err := writeRaw(w, s.raw); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(w, renderTitles(s.category, s.items))
	}
	if failed == len(sliders) {
		return fmt.Errorf("no %s sliders could be loaded", kind)
	}
	return nil
}

// detailViews are the regions of a details page.
type detailViews struct {
	details, similar, trailers *view
}

func (b *browser) newDetailViews(ctx context.Context) *detailViews {
	return &detailViews{
		details:  b.newView(ctx, "details"),
		similar:  b.newView(ctx, "similar"),
		trailers: b.newView(ctx, "trailers"),
	}
}

func (d *detailViews) close() {
	d.details.close()
	d.similar.close()
	d.trailers.close()
}

func (b *browser) showDetails(ctx context.Context, w io.Writer, views *detailViews, kind tmdb.Kind, id int64) error {
	var (
		wg                   sync.WaitGroup
		similarRaw, videoRaw json.RawMessage
		similarErr, videoErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		similarRaw, similarErr = views.similar.load(ctx, similarPath(kind, id), string(kind), id)
	}()
	go func() {
		defer wg.Done()
		videoRaw, videoErr = views.trailers.load(ctx, trailersPath(kind, id), string(kind), id)
	}()
	raw, err := views.details.load(ctx, detailsPath(kind, id), string(kind), id)
	wg.Wait()
	if err != nil {
		return err
	}

	if b.opts.json {
		return writeRaw(w, raw)
	}
	var d details
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("decode details: %w", err)
	}
	if _, err := io.WriteString(w, renderDetails(kind, d)); err != nil {
		return err
	}

	if videoErr != nil {
		b.log.Warn().Err(videoErr).Msg("trailers unavailable")
	} else if videos, err := decodeList[video](videoRaw); err == nil {
		if urls := trailerURLs(videos); len(urls) > 0 {
			fmt.Fprintf(w, "Trailer: %s\n", urls[0])
		}
	}

	if similarErr != nil {
		b.log.Warn().Err(similarErr).Msg("similar titles unavailable")
		return nil
	}
	similar, err := decodeList[tmdb.Title](similarRaw)
	if err != nil || len(similar) == 0 {
		return nil
	}
	_, err = fmt.Fprintln(w, renderTitles("More like this", similar))
	return err
}

func (b *browser) showSearch(ctx context.Context, w io.Writer, v *view, target tmdb.SearchTarget, query string) error {
	raw, err := v.load(ctx, searchPath(target, query), string(target), query)
	if err != nil {
		return err
	}
	if b.opts.json {
		return writeRaw(w, raw)
	}
	title := fmt.Sprintf("%s results for %q", target, query)
	if target == tmdb.SearchPerson {
		people, err := decodeList[person](raw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, renderPeople(title, people))
		return err
	}
	items, err := decodeList[tmdb.Title](raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, renderTitles(title, items))
	return err
}
