// Package server exposes the dictionary, bookmarks, and sync status as a JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/at-ishikawa/offlinedict/internal/assetcache"
	"github.com/at-ishikawa/offlinedict/internal/bookmark"
	"github.com/at-ishikawa/offlinedict/internal/catalog"
)

// Bookmarks is the bookmark set of the single local user.
type Bookmarks interface {
	Current(ctx context.Context) bookmark.Set
	Toggle(ctx context.Context, id string) (bookmark.Set, bool, error)
}

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Online() bool
}

type Option func(*Server)

// WithWorker exposes the cache worker status and mounts the caching proxy at /proxy.
func WithWorker(worker *assetcache.Worker) Option {
	return func(s *Server) {
		s.worker = worker
	}
}

func WithConnectivity(connectivity Connectivity) Option {
	return func(s *Server) {
		s.connectivity = connectivity
	}
}

// WithGatherer mounts /metrics for gatherer.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithSyncTimeout bounds a sync triggered through the API. Non-positive values keep the default.
func WithSyncTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.syncTimeout = timeout
		}
	}
}

type Server struct {
	store          *catalog.Store
	bookmarks      Bookmarks
	worker         *assetcache.Worker
	connectivity   Connectivity
	gatherer       prometheus.Gatherer
	allowedOrigins []string
	syncTimeout    time.Duration
}

func New(store *catalog.Store, bookmarks Bookmarks, opts ...Option) *Server {
	s := &Server{
		store:       store,
		bookmarks:   bookmarks,
		syncTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the routes without CORS.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/entries", s.listEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", s.getEntry).Methods(http.MethodGet)
	api.HandleFunc("/daily", s.getDailyPick).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/bookmarks", s.listBookmarks).Methods(http.MethodGet)
	api.HandleFunc("/bookmarks/{id}/toggle", s.toggleBookmark).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.sync).Methods(http.MethodPost)
	api.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)

	if s.worker != nil {
		router.Handle("/proxy", assetcache.ProxyHandler(s.worker)).Methods(http.MethodGet)
	}
	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return router
}

// Handler returns the routes wrapped with CORS for the allowed origins.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	}).Handler(s.Router())
}
