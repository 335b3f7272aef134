// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notekeeper/internal/api"
	"github.com/starford/notekeeper/internal/mcpserver"
	"github.com/starford/notekeeper/internal/metrics"
	"github.com/starford/notekeeper/internal/ratelimit"
	"github.com/starford/notekeeper/internal/sse"
	"github.com/starford/notekeeper/internal/store"
)

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// Components are the long-lived collaborators the HTTP handler is built from.
// Broker, Metrics and Limiter are nil when their feature is disabled.
type Components struct {
	DB      *store.DB
	Broker  *sse.Broker
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
}

// NewHTTPHandler assembles the root router: common middleware, health
// probes, optional metrics and events endpoints, and the note API.
func NewHTTPHandler(cfg *Config, c Components) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if c.Metrics != nil {
		r.Use(c.Metrics.Middleware)
	}

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := c.DB.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if c.Metrics != nil {
		r.Handle(cfg.Metrics.Path, c.Metrics.Handler())
	}

	var events api.Publisher
	if c.Broker != nil {
		events = c.Broker
		r.Get("/events", c.Broker.ServeHTTP)
	}

	apiRouter := api.NewRouter(c.DB.Opener(), events)
	r.Group(func(r chi.Router) {
		if c.Limiter != nil {
			r.Use(ratelimit.Middleware(c.Limiter, api.WriteError))
		}
		r.Mount("/", apiRouter)
	})

	return r
}

// Run starts the HTTP service with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("db_driver", cfg.Database.Driver),
		slog.Bool("events", cfg.Events.Enabled),
		slog.Bool("metrics", cfg.Metrics.Enabled),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(ctx, cfg.Database.StoreConfig())
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	c := Components{DB: db}
	if cfg.Events.Enabled {
		c.Broker = sse.NewBroker(cfg.Events.KeepAlive)
		defer c.Broker.Close()
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}
	if cfg.RateLimit.Enabled {
		c.Limiter = ratelimit.New(ratelimit.Config{
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		})
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHTTPHandler(cfg, c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if c.Metrics != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Metrics.PoolInterval)
			defer ticker.Stop()
			for {
				c.Metrics.RecordDBPoolStats(db.Stats())
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}

	if c.Limiter != nil {
		g.Go(func() error {
			c.Limiter.Run(gCtx, cfg.RateLimit.IdleTTL)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()
		// Close SSE streams first; Shutdown waits for active handlers.
		if c.Broker != nil {
			c.Broker.Close()
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been asked to stop, so
// background loops exit too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the note tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	// stdout carries the protocol.
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, app.config.Database.StoreConfig())
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	app.logger.Info("Starting MCP server on stdio", slog.String("db_driver", app.config.Database.Driver))
	return mcpserver.New(db.Opener(), app.version).ServeStdio()
}
