// Package server exposes station searches over HTTP as JSON.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/muesli/gominatim"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/rubiojr/gasmap/internal/position"
	"github.com/rubiojr/gasmap/internal/storage"
)

const (
	DefaultRequestsPerMinute = 20
	defaultHistoryLimit      = 20
	maxHistoryLimit          = 500
	pinCacheExpiry           = 30 * time.Minute
	pinCacheCleanup          = 90 * time.Minute
)

// History is the read side of the search history store.
type History interface {
	RecentSearches(ctx context.Context, limit int) ([]storage.SearchEntry, error)
	PopularLocations(ctx context.Context, limit int) ([]storage.PopularLocation, error)
}

// Pinner turns a free text address into a map pin.
type Pinner interface {
	Pin(ctx context.Context, address string) (locate.Coordinate, *gominatim.SearchResult, error)
}

type Config struct {
	Coordinator       *locate.Coordinator
	History           History
	Pinner            Pinner
	Gatherer          prometheus.Gatherer
	Logger            *httplog.Logger
	RequestsPerMinute int
}

type server struct {
	coord   *locate.Coordinator
	history History
	pinner  Pinner
	pins    *cache.Cache
	log     *httplog.Logger
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Kind    locate.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// NewRouter builds the HTTP API.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = httplog.NewLogger("gasmap", httplog.Options{
			JSON:     true,
			LogLevel: slog.LevelError,
			Concise:  true,
		})
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	s := &server{
		coord:   cfg.Coordinator,
		history: cfg.History,
		pinner:  cfg.Pinner,
		pins:    cache.New(pinCacheExpiry, pinCacheCleanup),
		log:     cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))
		r.Get("/products", s.products)
		r.Get("/search", s.search)
		r.Get("/history", s.recent)
		r.Get("/popular", s.popular)
	})

	return r
}

func (s *server) products(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, locate.Products)
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	msg := messages.Get(query.Get("lang"))

	req, coord, err := s.parseSearch(r.Context(), query)
	if err != nil {
		s.fail(w, msg, err)
		return
	}

	res, err := coord.Resolve(r.Context(), req)
	if err != nil {
		s.fail(w, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseSearch builds the request from the query string. The current
// position strategy uses the position and permission the client reports.
func (s *server) parseSearch(ctx context.Context, query url.Values) (locate.Request, *locate.Coordinator, error) {
	get := func(key string) string {
		return strings.TrimSpace(query.Get(key))
	}

	req := locate.Request{ProductID: get("product"), RadiusKm: locate.MinRadiusKm}
	if radius := get("radius"); radius != "" {
		km, err := strconv.Atoi(radius)
		if err != nil {
			return req, nil, &locate.ValidationError{Field: "radius", Reason: "not a number"}
		}
		req.RadiusKm = km
	}

	coord := s.coord
	if get("strategy") == "" {
		return req, coord, nil
	}
	kind, err := locate.ParseStrategyKind(get("strategy"))
	if err != nil {
		return req, nil, err
	}

	pin, err := parseCoordinate(get("lat"), get("lon"))
	if err != nil {
		return req, nil, err
	}

	switch kind {
	case locate.StrategyCurrent:
		gate := locate.StaticGate(parsePermission(get("permission")))
		var source locate.PositionSource
		if pin != nil {
			source = position.Fixed(*pin)
		}
		coord = coord.WithDevice(gate, source)
		req.Strategy = locate.CurrentPosition{}
	case locate.StrategyPin:
		if pin == nil && get("address") != "" {
			if pin, err = s.pinAddress(ctx, get("address")); err != nil {
				return req, nil, err
			}
		}
		req.Strategy = locate.ManualPin{Pin: pin}
	case locate.StrategyTown:
		req.Strategy = locate.TownName{Text: get("town")}
	}

	return req, coord, nil
}

func (s *server) pinAddress(ctx context.Context, address string) (*locate.Coordinate, error) {
	if cached, ok := s.pins.Get(address); ok {
		c := cached.(locate.Coordinate)
		return &c, nil
	}
	if s.pinner == nil {
		return nil, locate.ErrNoPin
	}

	c, found, err := s.pinner.Pin(ctx, address)
	if err != nil {
		return nil, err
	}
	if found != nil {
		s.log.Debug("Address pinned", "address", address, "display_name", found.DisplayName)
	}
	s.pins.Set(address, c, cache.DefaultExpiration)
	return &c, nil
}

func parseCoordinate(lat, lon string) (*locate.Coordinate, error) {
	if lat == "" && lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, &locate.ValidationError{Field: "lat", Reason: "not a number"}
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, &locate.ValidationError{Field: "lon", Reason: "not a number"}
	}
	return &locate.Coordinate{Latitude: la, Longitude: lo}, nil
}

func parsePermission(s string) locate.Permission {
	switch strings.ToLower(s) {
	case "granted", "true", "yes", "1":
		return locate.Granted
	}
	return locate.Denied
}

func (s *server) recent(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []storage.SearchEntry{})
		return
	}
	entries, err := s.history.RecentSearches(r.Context(), limitParam(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) popular(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []storage.PopularLocation{})
		return
	}
	popular, err := s.history.PopularLocations(r.Context(), limitParam(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, popular)
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// StatusFor maps a pipeline error to the HTTP status returned to clients.
func StatusFor(err error) int {
	switch locate.KindOf(err) {
	case locate.KindValidation:
		return http.StatusBadRequest
	case locate.KindPermissionDenied:
		return http.StatusForbidden
	case locate.KindNotFound:
		return http.StatusNotFound
	case locate.KindLocationUnavailable:
		return http.StatusUnprocessableEntity
	case locate.KindTransport:
		return http.StatusBadGateway
	case locate.KindCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *server) fail(w http.ResponseWriter, msg messages.Messages, err error) {
	kind := locate.KindOf(err)
	if kind == locate.KindUnknown {
		s.log.Error("Search failed", "error", err)
	}
	writeJSON(w, StatusFor(err), ErrorResponse{Kind: kind, Message: msg.Error(err)})
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("Error reading history", "path", r.URL.Path, "error", err)
	msg := messages.Get(r.URL.Query().Get("lang"))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Kind: locate.KindUnknown, Message: msg.UnknownError})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
