package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/time/rate"

	"github.com/projecthelena/demoapp/internal/config"
	_ "github.com/projecthelena/demoapp/internal/docs"
	"github.com/projecthelena/demoapp/internal/logging"
	"github.com/projecthelena/demoapp/internal/static"
	"github.com/projecthelena/demoapp/internal/views"
)

// Router is the application's HTTP handler. Close releases the background
// work it started.
type Router struct {
	*chi.Mux
	limiter *IPRateLimiter
}

func (r *Router) Close() {
	r.limiter.Stop()
}

// SecureHeadersWithConfig returns middleware that adds security headers including HSTS when HTTPS is enabled.
func SecureHeadersWithConfig(cookieSecure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// HSTS: Only enable when using secure cookies (HTTPS deployment)
			if cookieSecure {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter builds the HTTP router serving the pages, probes, metrics and static assets.
func NewRouter(cfg *config.Config, renderer views.Renderer, probe *Probe, metrics *Metrics) *Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Only trust X-Forwarded-For when running behind a trusted reverse proxy.
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}

	r.Use(metrics.Middleware)
	r.Use(SecureHeadersWithConfig(cfg.CookieSecure))

	pages := NewPageHandler(cfg, renderer, logging.New("pages"))
	limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	// Operational endpoints (no rate limiting)
	r.Get("/healthz", Healthz)
	r.Get("/readyz", probe.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(RateLimitMiddleware(limiter))
		pr.Get("/", pages.Home)
		pr.Get("/health", pages.Health)
		pr.Get("/info", pages.Info)
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))
	r.Handle("/static/*", http.StripPrefix("/static", static.Handler()))

	return &Router{Mux: r, limiter: limiter}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
