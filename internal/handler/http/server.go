package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"flyra-backend/internal/cache"
	"flyra-backend/internal/repository"
	"flyra-backend/internal/service"
	"flyra-backend/pkg/useragent"
)

// Server wires the HTTP handlers together.
type Server struct {
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	rateLimiter     *RateLimiter
	log             *zap.Logger
}

// NewServer creates the HTTP server facade over the resolution services.
func NewServer(
	storage repository.Storage,
	cacheBackend cache.Cache,
	resolver *service.Resolver,
	verifier *service.PasswordVerifier,
	shortener *service.ShortenerService,
	uaParser *useragent.Parser,
	log *zap.Logger,
) *Server {
	return &Server{
		linksHandler:    NewLinksHandler(shortener, verifier, log),
		redirectHandler: NewRedirectHandler(resolver, uaParser, log),
		healthHandler:   NewHealthHandler(storage, cacheBackend, log),
		rateLimiter:     NewRateLimiter(30, time.Minute),
		log:             log,
	}
}

// SetupRoutes registers all routes on a fresh mux.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/shorten", s.withCORS(s.rateLimiter.Middleware(s.linksHandler.CreateLink)))
	mux.HandleFunc("/api/links/", s.withCORS(s.linksHandler.HandleLink))

	// Everything else is a slug resolution
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// withCORS adds permissive CORS headers and short-circuits preflights.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
