package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"saasboard/internal/cache"
	"saasboard/internal/core"
	"saasboard/internal/metrics"
	"saasboard/internal/warehouse"
)

// Options tunes the presentation caches in front of the metrics service.
type Options struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
}

func defaultOptions() Options {
	return Options{
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 200,
	}
}

type Server struct {
	http.Server
	svc         *metrics.Service
	wh          warehouse.Warehouse
	rateLimiter *rateLimiter

	// KPI responses are cached per filter+window key; the manager flushes
	// everything when the warehouse is refreshed.
	kpiCache    *cache.LRU[core.KpiSet]
	bridgeCache *cache.LRU[[]core.BridgeStep]
	logoCache   *cache.LRU[[]core.LogoMonth]
	topRowCache *cache.LRU[metrics.TopRow]
	dimCache    *cache.LRU[[]string]

	caches *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run http.Server.
func NewServer(addr string, svc *metrics.Service, wh warehouse.Warehouse, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultOptions().CacheTTL
	}
	if opts.CacheMaxEntries <= 0 {
		opts.CacheMaxEntries = defaultOptions().CacheMaxEntries
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:         svc,
		wh:          wh,
		rateLimiter: newRateLimiter(),
		kpiCache:    cache.NewLRU[core.KpiSet](opts.CacheMaxEntries, opts.CacheTTL),
		bridgeCache: cache.NewLRU[[]core.BridgeStep](opts.CacheMaxEntries, opts.CacheTTL),
		logoCache:   cache.NewLRU[[]core.LogoMonth](opts.CacheMaxEntries, opts.CacheTTL),
		topRowCache: cache.NewLRU[metrics.TopRow](opts.CacheMaxEntries, opts.CacheTTL),
		dimCache:    cache.NewLRU[[]string](8, opts.CacheTTL),
		caches:      cache.NewManager(),
	}

	s.caches.Register(s.kpiCache)
	s.caches.Register(s.bridgeCache)
	s.caches.Register(s.logoCache)
	s.caches.Register(s.topRowCache)
	s.caches.Register(s.dimCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/overview/kpis", s.withAPIMiddleware(s.handleOverviewKpis))
	mux.HandleFunc("/api/overview/arr-bridge", s.withAPIMiddleware(s.handleArrBridge))
	mux.HandleFunc("/api/revenue/top-row", s.withAPIMiddleware(s.handleTopRow))
	mux.HandleFunc("/api/revenue/logo-flows", s.withAPIMiddleware(s.handleLogoFlows))
	mux.HandleFunc("/api/dimensions/products", s.withAPIMiddleware(s.handleProducts))
	mux.HandleFunc("/api/dimensions/countries", s.withAPIMiddleware(s.handleCountries))
	mux.HandleFunc("/api/dimensions/months", s.withAPIMiddleware(s.handleMonths))

	return s
}

// FlushCaches drops all cached responses. Called after a warehouse refresh.
func (s *Server) FlushCaches() {
	s.caches.FlushAll()
	slog.Info("Response caches flushed")
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withAPIMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withAPIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if _, _, err := s.wh.DataBounds(ctx); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "warehouse unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
