package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/bengobox/time-service/internal/cache"
	"github.com/bengobox/time-service/internal/clock"
	"github.com/bengobox/time-service/internal/config"
	"github.com/bengobox/time-service/internal/httpapi"
	"github.com/bengobox/time-service/internal/httpapi/handlers"
	httpmiddleware "github.com/bengobox/time-service/internal/httpapi/middleware"
	"github.com/bengobox/time-service/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App wires core dependencies and exposes server lifecycle controls.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	redis      *redis.Client
	httpServer *http.Server
}

// Option customises App construction.
type Option func(*options)

type options struct {
	clock clock.Func
}

// WithClock replaces the system clock used by the handlers.
func WithClock(now clock.Func) Option {
	return func(o *options) { o.clock = now }
}

// New constructs the application.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{clock: clock.System}
	for _, opt := range opts {
		opt(&o)
	}

	deps := httpapi.RouterDeps{
		TimeHandler:       handlers.NewTimeHandler(o.clock).Time,
		IndexHandler:      handlers.Index,
		HealthHandler:     handlers.NewHealthHandler(cfg.App.ServiceName, o.clock).Health,
		OpenAPIHandler:    handlers.OpenAPIJSON,
		DocsHandler:       handlers.SwaggerUI,
		Middlewares:       []func(http.Handler) http.Handler{httpmiddleware.RequestLogger(logger)},
		AllowedOrigins:    cfg.HTTP.CORSAllowedOrigins,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.App.ServiceName)
		deps.MetricsHandler = m.Handler()
		deps.Middlewares = append(deps.Middlewares, httpmiddleware.Metrics(m))
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		client, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = client

		limiter := httpmiddleware.NewRateLimiter(
			httpmiddleware.NewRedisWindowCounter(redisClient),
			cfg.Redis.Namespace,
			logger,
			m,
		)
		deps.RateLimit = limiter.Limit("public", cfg.RateLimit.Requests, cfg.RateLimit.Window, httpapi.RemoteIP)
		logger.Info("rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           httpapi.NewRouter(deps),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		httpServer: server,
	}, nil
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server with TLS if certificates are configured. It
// returns nil once Shutdown has been called.
func (a *App) Run() error {
	var err error
	if a.cfg.HTTP.TLSEnabled() {
		a.logger.Info("starting HTTPS server",
			zap.String("cert", a.cfg.HTTP.TLSCertFile),
			zap.String("key", a.cfg.HTTP.TLSKeyFile),
			zap.String("addr", a.httpServer.Addr),
		)
		err = a.httpServer.ListenAndServeTLS(a.cfg.HTTP.TLSCertFile, a.cfg.HTTP.TLSKeyFile)
	} else {
		a.logger.Info("starting HTTP server", zap.String("addr", a.httpServer.Addr))
		err = a.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and closes resources.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownErr := a.httpServer.Shutdown(ctx)

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	return shutdownErr
}
