// Package http provides the HTTP delivery layer for the URL shortener service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/lru-shortener/internal/metrics"
)

// NewRouter returns a chi router serving the shortener API, the redirect endpoint,
// Prometheus metrics gathered from gatherer and the Swagger UI.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	h := newURLHandler(urlUseCase, validator.New())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", h.shortenURL)
			r.Get("/{shortCode}", h.resolveShortCode)
		})

		r.Post("/resolve", h.resolveShortURL)
		r.Get("/cache", h.cacheSnapshot)
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
