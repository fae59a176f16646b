package routes

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/marquee/internal/config"
	appmw "github.com/briangreenhill/marquee/internal/http/middleware"
	"github.com/briangreenhill/marquee/tmdb"
)

// Provider is the subset of the TMDB client the API needs
type Provider interface {
	Trending(ctx context.Context, kind tmdb.Kind) (json.RawMessage, error)
	Category(ctx context.Context, kind tmdb.Kind, category string) (json.RawMessage, error)
	Trailers(ctx context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error)
	Details(ctx context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error)
	Similar(ctx context.Context, kind tmdb.Kind, id int64) (json.RawMessage, error)
	Search(ctx context.Context, target tmdb.SearchTarget, query string) (json.RawMessage, error)
}

var _ Provider = (*tmdb.Client)(nil)

type Server struct {
	Router *chi.Mux
	TMDB   Provider
	Port   string
	Env    string

	// pick chooses an index in [0, n); swapped out in tests
	pick func(n int) int
}

type ServerOptions struct {
	TMDB   Provider
	Cfg    *config.Config
	Logger zerolog.Logger
	Pick   func(n int) int
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(appmw.Logging(opts.Logger))
	r.Use(chimw.Recoverer)

	origins := []string{"*"}
	if opts.Cfg != nil && len(opts.Cfg.CORSOrigins) > 0 {
		origins = opts.Cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{appmw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{Router: r, TMDB: opts.TMDB, pick: opts.Pick}
	if opts.Cfg != nil {
		s.Port, s.Env = opts.Cfg.Port, opts.Cfg.Env
	}
	if s.pick == nil {
		s.pick = rand.IntN
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/movie", s.contentRoutes(tmdb.Movie))
		api.Route("/tv", s.contentRoutes(tmdb.TV))
		api.Get("/search/{target}/{query}", s.handleSearch)
		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Not Found")
		})
	})

	return s
}

func (s *Server) contentRoutes(kind tmdb.Kind) func(chi.Router) {
	return func(cr chi.Router) {
		cr.Get("/trending", s.handleTrending(kind))
		cr.Get("/{id}/trailers", s.handleTrailers(kind))
		cr.Get("/{id}/details", s.handleDetails(kind))
		cr.Get("/{id}/similar", s.handleSimilar(kind))
		cr.Get("/{category}", s.handleCategory(kind))
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Content json.RawMessage `json:"content,omitempty"`
	Message string          `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeContent(w http.ResponseWriter, content json.RawMessage) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Content: content})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeUpstreamError maps a provider failure onto the API envelope. The
// provider's own message goes to the log only.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if tmdb.IsNotFound(err) {
		hlog.FromRequest(r).Info().Err(err).Msg("upstream not found")
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	var ne *tmdb.NetworkError
	if errors.As(err, &ne) && errors.Is(err, context.Canceled) {
		// client went away; nobody is left to answer
		return
	}
	hlog.FromRequest(r).Error().Err(err).Msg("upstream request failed")
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      s.Port,
		"env":       s.Env,
	})
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// resultsOf answers with the results array of a paginated payload
func resultsOf(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	items, err := tmdb.Results(payload)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	content, err := json.Marshal(items)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeContent(w, content)
}

func (s *Server) handleTrending(kind tmdb.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.TMDB.Trending(r.Context(), kind)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		items, err := tmdb.Results(payload)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		if len(items) == 0 {
			writeError(w, http.StatusNotFound, "no trending content")
			return
		}
		// one random title feeds the hero banner
		writeContent(w, items[s.pick(len(items))])
	}
}

func (s *Server) handleCategory(kind tmdb.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.TMDB.Category(r.Context(), kind, chi.URLParam(r, "category"))
		if err != nil {
			if errors.Is(err, tmdb.ErrInvalidCategory) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeUpstreamError(w, r, err)
			return
		}
		resultsOf(w, r, payload)
	}
}

func (s *Server) handleTrailers(kind tmdb.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		payload, err := s.TMDB.Trailers(r.Context(), kind, id)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		resultsOf(w, r, payload)
	}
}

func (s *Server) handleDetails(kind tmdb.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		payload, err := s.TMDB.Details(r.Context(), kind, id)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeContent(w, payload)
	}
}

func (s *Server) handleSimilar(kind tmdb.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		payload, err := s.TMDB.Similar(r.Context(), kind, id)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		resultsOf(w, r, payload)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	target, err := tmdb.ParseSearchTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	query := chi.URLParam(r, "query")
	if r.URL.RawPath != "" {
		// chi matched on the raw path, so the segment is still escaped
		if query, err = url.PathUnescape(query); err != nil {
			writeError(w, http.StatusBadRequest, "invalid query")
			return
		}
	}
	if query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	payload, err := s.TMDB.Search(r.Context(), target, query)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	resultsOf(w, r, payload)
}
