package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps defines router construction dependencies.
type RouterDeps struct {
	TimeHandler    http.HandlerFunc
	IndexHandler   http.HandlerFunc
	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler
	OpenAPIHandler http.HandlerFunc
	DocsHandler    http.HandlerFunc

	// Middlewares run for every request, outside the panic recoverer so
	// recovered 500s are still observed.
	Middlewares []func(http.Handler) http.Handler
	// RateLimit guards the public routes. Probes and metrics are exempt.
	RateLimit func(http.Handler) http.Handler

	// TrustProxyHeaders lets chi's RealIP rewrite RemoteAddr from
	// X-Forwarded-For / X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool

	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	for _, mw := range deps.Middlewares {
		r.Use(mw)
	}
	r.Use(chimiddleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	if deps.HealthHandler != nil {
		r.Get("/healthz", deps.HealthHandler)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.OpenAPIHandler != nil {
		r.Get("/openapi.json", deps.OpenAPIHandler)
	}
	if deps.DocsHandler != nil {
		r.Get("/docs", deps.DocsHandler)
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit)
		}
		if deps.IndexHandler != nil {
			r.Get("/", deps.IndexHandler)
		}
		r.Get("/time", deps.TimeHandler)
	})

	return r
}
