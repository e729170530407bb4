package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server wraps http.Server with the API's dependencies and the middleware
// state that must be stopped on shutdown.
type Server struct {
	http.Server

	store        storage.Store
	transactions *services.TransactionService
	budgets      *services.BudgetService
	analytics    *services.AnalyticsService

	backend  string
	now      func() time.Time
	started  time.Time
	created  atomic.Int64
	logger   *log.StructuredLogger
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for request defaults and dashboard periods.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer wires services over store and returns a ready-to-run server.
// events may be nil when no broker is configured.
func NewServer(cfg *config.Config, store storage.Store, events services.EventPublisher, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:        store,
		transactions: services.NewTransactionService(store, events),
		budgets:      services.NewBudgetService(store, events),
		analytics:    services.NewAnalyticsService(store, store, store),
		backend:      cfg.DataBackend,
		now:          time.Now,
		logger:       log.NewStructuredLogger(log.Default(log.ComponentHTTP)),
		detector:     security.NewDetector(cfg.TrustProxyHeaders),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.Handler = s.routes(cfg.CORSAllowedOrigins)
	return s
}

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}).Handler)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		RateLimitedError().Write(w)
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError("Route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/categories", s.handleCategories)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentTransaction))
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentBudget))
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleUpsertBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Group(func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentAnalytics))
			r.Get("/analytics", s.handleAnalytics)
			r.Get("/dashboard", s.handleDashboard)
		})
	})
	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
// It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
