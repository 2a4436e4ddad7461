package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/WorkshopBox/internal/api/middleware"
	workshopapi "github.com/BearBump/WorkshopBox/internal/api/workshop_api"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/metrics"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/analytics"
	"github.com/BearBump/WorkshopBox/internal/services/callbacks"
	"github.com/BearBump/WorkshopBox/internal/services/customers"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/BearBump/WorkshopBox/internal/services/jobs"
	"github.com/BearBump/WorkshopBox/internal/services/lookup"
	"github.com/BearBump/WorkshopBox/internal/services/orders"
	"github.com/BearBump/WorkshopBox/internal/services/staff"
	"github.com/BearBump/WorkshopBox/internal/services/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// workshopStore is everything the API services need from storage. Both
// pgworkshop.Storage and the in-memory test store satisfy it.
type workshopStore interface {
	jobs.Repository
	tasks.Repository
	tasks.Directory
	callbacks.Repository
	customers.Repository
	staff.Repository
	orders.Repository
	analytics.Repository
	lookup.Repository
	activity.Repository
	Ping(ctx context.Context) error
}

type workshopAPIOpts struct {
	httpAddr    string
	swaggerPath string
	corsOrigins []string

	lookupPerMinute int

	onListen func(httpAddr string)
}

func newServices(st workshopStore, notifier tasks.Notifier, clk clock.Clock, systemUserID int64) workshopapi.Services {
	fx := effects.New()
	rec := activity.New(st, fx, clk)
	taskSvc := tasks.New(st, st, notifier, rec, fx, clk, systemUserID)

	return workshopapi.Services{
		Jobs:      jobs.New(st, rec, fx, clk, systemUserID),
		Tasks:     taskSvc,
		Callbacks: callbacks.New(st, rec, taskSvc, clk, systemUserID),
		Customers: customers.New(st, clk),
		Staff:     staff.New(st),
		Orders:    orders.New(st, clk),
		Analytics: analytics.New(st, clk),
		Lookup:    lookup.New(st),
		Activity:  rec,
	}
}

func newRouter(opts workshopAPIOpts, svc workshopapi.Services, limiter middleware.Limiter, ping func(ctx context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(true))
	r.Use(middleware.SlogRequestLogger)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err.Error())
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	var lookupLimit func(http.Handler) http.Handler
	if limiter != nil && opts.lookupPerMinute > 0 {
		lookupLimit = middleware.RateLimit(limiter, "lookup", opts.lookupPerMinute, time.Now)
	}
	r.Mount("/api", workshopapi.New(svc).Routes(lookupLimit))

	return r
}

func runWorkshopAPI(ctx context.Context, opts workshopAPIOpts, svc workshopapi.Services, limiter middleware.Limiter, ping func(ctx context.Context) error) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newRouter(opts, svc, limiter, ping)}

	httpErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP API listening", "addr", lis.Addr().String())
		httpErr <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}
