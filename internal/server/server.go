// Package server exposes the store, frontier, and projection engines as a
// read-only JSON API. There are no write endpoints; mutation happens only
// through the ingest pipeline.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atlas-research/bench-cli/internal/frontier"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/projection"
	"github.com/atlas-research/bench-cli/internal/store"
)

// Options carries the projection defaults applied when a request omits the
// corresponding query parameter.
type Options struct {
	WindowMonths   int
	ForecastMonths int
	Seed           uint64
}

// Server serves the read-only API over a Store.
type Server struct {
	store store.Store
	opts  Options
	log   *zap.Logger
}

// New constructs a Server. Zero-valued Options fields fall back to
// 12-month window and horizon.
func New(st store.Store, opts Options) *Server {
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = 12
	}
	if opts.ForecastMonths <= 0 {
		opts.ForecastMonths = 12
	}
	return &Server{
		store: st,
		opts:  opts,
		log:   zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/benchmarks", s.handleBenchmarks)
		r.Get("/benchmarks/{id}/results", s.handleResults)
		r.Get("/benchmarks/{id}/frontier", s.handleFrontier)
		r.Get("/benchmarks/{id}/projection", s.handleProjection)
		r.Get("/quality", s.handleQuality)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := s.store.AllBenchmarks(r.Context())
	if err != nil {
		s.internalError(w, r, "list benchmarks", err)
		return
	}
	if benchmarks == nil {
		benchmarks = []model.Benchmark{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"benchmarks": benchmarks})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.loadBenchmark(w, r, id)
	if b == nil {
		_ = err
		return
	}

	filter, ferr := parseFilter(r)
	if ferr != "" {
		writeError(w, http.StatusBadRequest, ferr)
		return
	}

	rows, err := s.store.ResultsForBenchmark(r.Context(), id, filter)
	if err != nil {
		s.internalError(w, r, "query results", err)
		return
	}
	if rows == nil {
		rows = []store.ResultRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"benchmark": b,
		"results":   rows,
	})
}

func (s *Server) handleFrontier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if b, _ := s.loadBenchmark(w, r, id); b == nil {
		return
	}

	filter, ferr := parseFilter(r)
	if ferr != "" {
		writeError(w, http.StatusBadRequest, ferr)
		return
	}

	series, err := frontier.ForBenchmark(r.Context(), s.store, id, filter)
	if err != nil {
		s.internalError(w, r, "compute frontier", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, _ := s.loadBenchmark(w, r, id)
	if b == nil {
		return
	}

	method := projection.Method(r.URL.Query().Get("method"))
	if method == "" {
		method = projection.MethodLinear
	}
	if !validMethod(method) {
		writeError(w, http.StatusBadRequest, "unknown method "+strconv.Quote(string(method)))
		return
	}

	opts := projection.Options{
		WindowMonths:   s.opts.WindowMonths,
		ForecastMonths: s.opts.ForecastMonths,
		Ceiling:        b.Ceiling(),
		Seed:           s.opts.Seed,
	}
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		opts.WindowMonths = n
	}
	if v := r.URL.Query().Get("horizon"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "horizon must be a positive integer")
			return
		}
		opts.ForecastMonths = n
	}
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "seed must be a non-negative integer")
			return
		}
		opts.Seed = n
	}

	series, err := frontier.ForBenchmark(r.Context(), s.store, id, store.ResultFilter{})
	if err != nil {
		s.internalError(w, r, "compute frontier", err)
		return
	}

	obs := make([]projection.Observation, 0, len(series.Points))
	for _, p := range series.Points {
		obs = append(obs, projection.Observation{Date: p.Date, Score: p.Score})
	}

	res, err := projection.Project(id, method, obs, opts)
	if err != nil {
		s.internalError(w, r, "project", err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"benchmark_id":      id,
			"method":            method,
			"insufficient_data": true,
			"frontier_points":   len(series.Points),
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.QualitySummary(r.Context())
	if err != nil {
		s.internalError(w, r, "quality summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// loadBenchmark resolves the path benchmark and writes the error response
// itself when the lookup fails. A nil return means the response is done.
func (s *Server) loadBenchmark(w http.ResponseWriter, r *http.Request, id string) (*model.Benchmark, error) {
	b, err := s.store.GetBenchmark(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "load benchmark", err)
		return nil, err
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "unknown benchmark "+strconv.Quote(id))
		return nil, nil
	}
	return b, nil
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, action string, err error) {
	s.log.Error(action+" failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// parseFilter reads the shared result-filter query parameters. The second
// return is a user-facing message; empty means the filter parsed cleanly.
func parseFilter(r *http.Request) (store.ResultFilter, string) {
	q := r.URL.Query()
	var f store.ResultFilter

	if v := q.Get("min_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, "min_date must be YYYY-MM-DD"
		}
		f.MinDate = &t
	}
	if v := q.Get("max_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, "max_date must be YYYY-MM-DD"
		}
		f.MaxDate = &t
	}
	if v := q.Get("provider"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				f.Providers = append(f.Providers, p)
			}
		}
	}
	if v := q.Get("tier"); v != "" {
		for _, t := range strings.Split(v, ",") {
			switch tier := model.TrustTier(strings.ToUpper(strings.TrimSpace(t))); tier {
			case model.TierA, model.TierB, model.TierC:
				f.TrustTiers = append(f.TrustTiers, tier)
			default:
				return f, "tier must be one of A, B, C"
			}
		}
	}
	if v := q.Get("official"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			return f, "official must be a boolean"
		}
		f.OfficialOnly = ok
	}
	return f, ""
}

func validMethod(m projection.Method) bool {
	for _, known := range projection.Methods {
		if m == known {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
