package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendlens/internal/cache"
	"spendlens/internal/log"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/services"
)

type Server struct {
	http.Server
	service *services.AnalyticsService

	// LRU cache for rendered analytics responses, invalidated per owner
	// when new transactions arrive
	responseCache *cache.LRUCache[[]byte]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, service *services.AnalyticsService, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service:       service,
		responseCache: cache.NewLRUCache[[]byte](cacheSize, cacheTTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.responseCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	traced := trace.NewMiddleware(trace.ExtractClientIP)
	withLogger := log.Middleware(log.New(log.Config{Component: log.ComponentHTTP}))
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, withLogger(traced.Middleware(h)))
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	route("/api/transactions", s.handleCreateTransaction)

	route("/api/analytics/trend", s.cached(s.handleTrend))
	route("/api/analytics/category-share", s.cached(s.handleCategoryShare))
	route("/api/analytics/amount-hist", s.cached(s.handleAmountHist))
	route("/api/analytics/heatmap", s.cached(s.handleHeatmap))
	route("/api/analytics/time-radar", s.cached(s.handleTimeRadar))
	route("/api/analytics/behavior-tree", s.cached(s.handleBehaviorTree))
	route("/api/analytics/level-scatter", s.cached(s.handleLevelScatter))
	route("/api/analytics/rank", s.cached(s.handleRank))

	route("/api/forecast/predict", s.handlePredict)
	route("/api/forecast/anomaly", s.handleAnomaly)
	route("/api/forecast/history", s.handleForecastHistory)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// cached serves GET analytics responses from the per-owner LRU cache. Only
// successful responses are stored.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next(w, r)
			return
		}

		ownerID, err := parseOwnerID(r)
		if err != nil {
			next(w, r)
			return
		}

		key := cache.OwnerKey(formatOwnerID(ownerID), r.URL.Path, r.URL.RawQuery)
		if body, ok := s.responseCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rec, r)

		if rec.statusCode == http.StatusOK && rec.body != nil {
			s.responseCache.Set(key, rec.body)
		}
	}
}

// invalidateOwner drops every cached view for an owner after a write.
func (s *Server) invalidateOwner(ctx context.Context, ownerID int64) {
	removed := s.responseCache.DeletePrefix(cache.OwnerPrefix(formatOwnerID(ownerID)))
	if removed > 0 {
		slog.DebugContext(ctx, "Invalidated cached analytics views",
			"owner_id", ownerID, "removed", removed)
	}
}

// recordingWriter captures the response body alongside the status code so
// successful payloads can be cached.
type recordingWriter struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if rw.statusCode == http.StatusOK {
		rw.body = append(rw.body, b...)
	}
	return rw.ResponseWriter.Write(b)
}
