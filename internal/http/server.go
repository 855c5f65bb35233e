package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spendlog/internal/auth"
	"spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server's collaborators.
type Options struct {
	Addr               string
	Expenses           *services.ExpenseService
	Users              *services.UserService
	Store              Pinger
	Resolver           auth.OwnerResolver
	Logger             *log.Logger
	AllowedOrigins     []string
	OwnerHeader        string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	expenses    *services.ExpenseService
	users       *services.UserService
	store       Pinger
	logger      *log.Logger
	tracer      *trace.Middleware
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer builds the JSON API server. Call Shutdown to release the rate
// limiter even if the server never listened.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.OwnerHeader == "" {
		opts.OwnerHeader = auth.DefaultOwnerHeader
	}
	if opts.Resolver == nil {
		opts.Resolver = auth.HeaderResolver{Header: opts.OwnerHeader}
	}

	detector := security.NewDetector()
	s := &Server{
		expenses:    opts.Expenses,
		users:       opts.Users,
		store:       opts.Store,
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		startedAt:   time.Now(),
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Idempotency-Key", opts.OwnerHeader},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldComponent, log.ComponentRateLimit,
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "Too many requests")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReady)

	r.Route("/auth", func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentAuth))
		r.With(limited).Post("/register", s.handleRegister)
		r.With(limited).Post("/login", s.handleLogin)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentExpense))
		r.Use(auth.RequireOwner(opts.Resolver))
		r.With(limited).Post("/", s.handleCreateExpense)
		r.Get("/", s.handleListExpenses)
		r.Get("/categories", s.handleCategories)
	})

	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
