// Package web provides the ops HTTP surface for the sales pipeline: health
// checks, the run history and a manual run trigger.
package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/datakit/salespipe/internal/config"
	"github.com/datakit/salespipe/internal/logging"
	"github.com/datakit/salespipe/internal/pipeline"
	"github.com/datakit/salespipe/internal/warehouse"
	"github.com/datakit/salespipe/internal/web/middleware"
)

// RunHistory reads the pipeline audit trail.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]warehouse.RunRecord, error)
}

// RunTrigger starts one pipeline run on demand.
type RunTrigger interface {
	Run(ctx context.Context, runKey string) (pipeline.RunResult, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops HTTP server.
type Server struct {
	history RunHistory
	trigger RunTrigger
	dbPing  Pinger
	obPing  Pinger
	cfg     config.ServerConfig
	router  *chi.Mux
	server  *http.Server

	// triggerMu serializes manual runs so two operators cannot race the
	// same landing object.
	triggerMu sync.Mutex
}

// NewServer wires the ops routes. dbPing and obPing back the health check.
func NewServer(history RunHistory, trigger RunTrigger, dbPing, obPing Pinger, cfg config.ServerConfig) *Server {
	s := &Server{
		history: history,
		trigger: trigger,
		dbPing:  dbPing,
		obPing:  obPing,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware(cfg)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(cfg config.ServerConfig) {
	s.router.Use(chimw.RequestID)
	if cfg.TrustedProxies != "" {
		s.router.Use(middleware.TrustedRealIP(strings.Split(cfg.TrustedProxies, ",")))
	}
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(60 * time.Second))

	// Rate limiting: 100 requests per minute per IP
	limiter := newRateLimiter(100, time.Minute)
	s.router.Use(limiter.middleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Post("/runs", s.handleTriggerRun)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting ops server", "addr", s.cfg.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Key on RemoteAddr only. TrustedRealIP has already rewritten it
		// for connections from trusted proxies; forwarding headers from
		// anyone else are client-controlled and must not pick the bucket.
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			respondError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
